package core

// csv.go parses the catalog document.
//
// The dialect is deliberately small: comma separated, one record per line,
// optional double quotes around a field, and "" for a literal quote inside a
// quoted field. Fields are trimmed. Quoted newlines are not supported.

import (
	"fmt"
	"strings"
)

// MalformedInputError is returned when a document cannot be used as a catalog.
type MalformedInputError struct {
	Line   int    // 1-based line number, 0 when not tied to a line
	Reason string // what is wrong
}

func (e *MalformedInputError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("malformed csv: line %d: %s", e.Line, e.Reason)
	}
	return "malformed csv: " + e.Reason
}

// ParseResult holds the raw output of ParseCSV.
type ParseResult struct {
	// Headers is the header row with duplicate names collapsed to their
	// first position. Empty header cells are dropped.
	Headers []string

	// FirstColumn is the header of the file's first column, "" when that
	// cell is empty.
	FirstColumn string

	// Records are in file order, unnormalized, with unique non-empty names.
	Records []Record

	// Duplicates lists names of rows ignored because an earlier row had the same Name.
	Duplicates []string

	// Skipped counts rows dropped for an empty Name.
	Skipped int
}

// ParseCSV parses a catalog document.
//
// Duplicate header names are resolved last-write-wins: the value from the
// rightmost column with that name is kept. Duplicate Names are resolved
// first-wins. Missing trailing values map to "".
func ParseCSV(text string) (*ParseResult, error) {
	lines := splitLines(text)
	if len(lines) == 0 {
		return nil, &MalformedInputError{Reason: "empty document, header row is missing"}
	}

	raw := splitCSVLine(lines[0].text)
	headers := make([]string, 0, len(raw))
	seen := make(map[string]bool, len(raw))
	for _, h := range raw {
		if h == "" || seen[h] {
			continue
		}
		seen[h] = true
		headers = append(headers, h)
	}
	if !seen[ColumnName] {
		return nil, &MalformedInputError{Line: lines[0].number, Reason: "missing required column " + ColumnName}
	}

	result := &ParseResult{Headers: headers, FirstColumn: raw[0]}
	names := make(map[string]bool, len(lines))

	for _, line := range lines[1:] {
		vals := splitCSVLine(line.text)
		fields := make(map[string]string, len(headers))
		for i, h := range raw {
			if h == "" {
				continue
			}
			v := ""
			if i < len(vals) {
				v = vals[i]
			}
			fields[h] = v
		}

		name := fields[ColumnName]
		if name == "" {
			result.Skipped++
			continue
		}
		if names[name] {
			result.Duplicates = append(result.Duplicates, name)
			continue
		}
		names[name] = true
		result.Records = append(result.Records, Record{Name: name, Fields: fields})
	}

	return result, nil
}

// LoadCatalog parses text, normalizes every record and builds a Catalog.
func LoadCatalog(text string) (*Catalog, error) {
	parsed, err := ParseCSV(text)
	if err != nil {
		return nil, err
	}
	records := make([]Record, len(parsed.Records))
	for i, rec := range parsed.Records {
		records[i] = Normalize(rec)
	}
	cat := NewCatalog(parsed.Headers, records)
	cat.firstColumn = parsed.FirstColumn
	cat.duplicates = append(parsed.Duplicates, cat.duplicates...)
	return cat, nil
}

type csvLine struct {
	number int
	text   string
}

// splitLines normalizes line endings and drops blank lines.
func splitLines(text string) []csvLine {
	text = strings.ReplaceAll(text, "\r", "")
	var lines []csvLine
	for i, l := range strings.Split(text, "\n") {
		if strings.TrimSpace(l) == "" {
			continue
		}
		lines = append(lines, csvLine{number: i + 1, text: l})
	}
	return lines
}

// splitCSVLine splits one line on commas outside double quotes.
func splitCSVLine(line string) []string {
	var (
		out     []string
		cur     strings.Builder
		inQuote bool
	)
	for i := 0; i < len(line); i++ {
		ch := line[i]
		if ch == '"' {
			if inQuote && i+1 < len(line) && line[i+1] == '"' {
				cur.WriteByte('"')
				i++
				continue
			}
			inQuote = !inQuote
			continue
		}
		if ch == ',' && !inQuote {
			out = append(out, strings.TrimSpace(cur.String()))
			cur.Reset()
			continue
		}
		cur.WriteByte(ch)
	}
	return append(out, strings.TrimSpace(cur.String()))
}
