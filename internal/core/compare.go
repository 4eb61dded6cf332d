package core

// compare.go builds the comparison table view model.
//
// The model is pure data: headers, one row per selected CPU and a best/worst
// mark per cell. Painting it (HTML, terminal, JSON) is left to callers.

import (
	"math"
	"strconv"
)

// EmptyCell is displayed for a missing value.
const EmptyCell = "—"

// ColumnStats is the numeric range of one column over the selection.
type ColumnStats struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Mark highlights a cell relative to the other selected CPUs.
type Mark int

const (
	MarkNone Mark = iota
	MarkBest
	MarkWorst
)

func (m Mark) String() string {
	switch m {
	case MarkBest:
		return "best"
	case MarkWorst:
		return "worst"
	default:
		return ""
	}
}

// MarshalText encodes the mark as "best", "worst" or "".
func (m Mark) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// ComputeStats returns min and max per column. A column is present only when
// at least two records have a numeric value for it and the values differ.
func ComputeStats(records []Record, columns []ColumnSpec, policy *ColumnPolicy) map[string]ColumnStats {
	stats := make(map[string]ColumnStats)
	for _, col := range columns {
		var (
			n      int
			lo, hi float64
		)
		for _, rec := range records {
			v, ok := policy.NumericValue(rec, col.Key)
			if !ok {
				continue
			}
			if n == 0 || v < lo {
				lo = v
			}
			if n == 0 || v > hi {
				hi = v
			}
			n++
		}
		if n >= 2 && lo != hi {
			stats[col.Key] = ColumnStats{Min: lo, Max: hi}
		}
	}
	return stats
}

// MarkValue classifies v against a column's range. With lowerIsBetter the
// minimum is best and the maximum worst; otherwise the reverse.
func MarkValue(v float64, st ColumnStats, lowerIsBetter bool) Mark {
	best, worst := st.Max, st.Min
	if lowerIsBetter {
		best, worst = st.Min, st.Max
	}
	switch v {
	case best:
		return MarkBest
	case worst:
		return MarkWorst
	default:
		return MarkNone
	}
}

// HeaderCell is one column header of the comparison table.
type HeaderCell struct {
	ColumnSpec
	Sort SortDirection `json:"sort"`
}

// Cell is one value of the comparison table.
type Cell struct {
	Column  string   `json:"column"`
	Value   string   `json:"value"`
	Display string   `json:"display"`
	Number  *float64 `json:"number,omitempty"`
	Mark    Mark     `json:"mark"`
}

// Row is one selected CPU.
type Row struct {
	Name  string `json:"name"`
	Cells []Cell `json:"cells"`
}

// ComparisonModel is everything needed to paint the comparison table.
type ComparisonModel struct {
	Headers []HeaderCell           `json:"headers"`
	Rows    []Row                  `json:"rows"`
	Stats   map[string]ColumnStats `json:"stats"`
	Sort    SortState              `json:"sort"`
}

// Empty reports whether there is nothing to compare.
func (m ComparisonModel) Empty() bool {
	return len(m.Rows) == 0
}

// BuildComparison computes the comparison table for records, which are
// expected in selection order, over the displayed columns. When st is
// active rows are sorted by it. Nothing is cached: every call recomputes
// stats and marks.
func BuildComparison(records []Record, columns []ColumnSpec, policy *ColumnPolicy, st SortState) ComparisonModel {
	model := ComparisonModel{
		Stats: map[string]ColumnStats{},
		Sort:  st,
	}
	if len(records) == 0 {
		return model
	}

	model.Stats = ComputeStats(records, columns, policy)

	model.Headers = make([]HeaderCell, len(columns))
	for i, col := range columns {
		h := HeaderCell{ColumnSpec: col}
		if col.Sortable && st.Active() && st.Column == col.Key {
			h.Sort = st.Dir
		}
		model.Headers[i] = h
	}

	for _, rec := range SortRecords(records, st, policy) {
		row := Row{Name: rec.Name, Cells: make([]Cell, len(columns))}
		for i, col := range columns {
			cell := Cell{Column: col.Key, Value: rec.Get(col.Key)}
			cell.Display = cell.Value
			if cell.Display == "" {
				cell.Display = EmptyCell
			}
			if v, ok := policy.NumericValue(rec, col.Key); ok {
				num := v
				cell.Number = &num
				if rng, ok := model.Stats[col.Key]; ok {
					cell.Mark = MarkValue(v, rng, col.LowerIsBetter)
				}
			}
			row.Cells[i] = cell
		}
		model.Rows = append(model.Rows, row)
	}

	return model
}

// FormatGHz renders a derived clock value, or EmptyCell when unknown.
func FormatGHz(v float64) string {
	if math.IsNaN(v) || v <= 0 {
		return EmptyCell
	}
	return strconv.FormatFloat(v, 'f', -1, 64) + " GHz"
}
