package catalog

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/jszwec/csvutil"

	"github.com/JonMunkholm/cpucompare/internal/core"
)

// SummaryRow is one line of the exported summary: the raw fields the
// comparison relies on next to the values derived from them.
type SummaryRow struct {
	Name           string `csv:"name"`
	Cores          string `csv:"cores"`
	EffectiveCores int    `csv:"effective_cores"`
	Clock          string `csv:"clock"`
	MaxClockGHz    string `csv:"max_clock_ghz"`
}

// Summarize converts records to summary rows. An unknown clock is exported
// as an empty cell.
func Summarize(records []core.Record) []SummaryRow {
	rows := make([]SummaryRow, len(records))
	for i, rec := range records {
		row := SummaryRow{
			Name:           rec.Name,
			Cores:          rec.Get(core.ColumnCores),
			EffectiveCores: rec.EffectiveCores,
			Clock:          rec.Get(core.ColumnClock),
		}
		if rec.HasClock() {
			row.MaxClockGHz = strconv.FormatFloat(rec.MaxClockGHz, 'f', -1, 64)
		}
		rows[i] = row
	}
	return rows
}

// Export writes records as a summary CSV with a header row, also when
// records is empty.
func Export(w io.Writer, records []core.Record) error {
	cw := csv.NewWriter(w)
	enc := csvutil.NewEncoder(cw)

	if err := enc.EncodeHeader(SummaryRow{}); err != nil {
		return fmt.Errorf("export catalog: %w", err)
	}
	for _, row := range Summarize(records) {
		if err := enc.Encode(row); err != nil {
			return fmt.Errorf("export catalog: %w", err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("export catalog: %w", err)
	}
	return nil
}

// ReadSummary decodes a summary CSV written by Export.
func ReadSummary(r io.Reader) ([]SummaryRow, error) {
	dec, err := csvutil.NewDecoder(csv.NewReader(r))
	if err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, fmt.Errorf("read summary: %w", err)
	}
	var rows []SummaryRow
	if err := dec.Decode(&rows); err != nil && err != io.EOF {
		return nil, fmt.Errorf("read summary: %w", err)
	}
	return rows, nil
}
