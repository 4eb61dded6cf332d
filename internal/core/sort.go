package core

import (
	"cmp"
	"errors"
	"slices"
	"strings"
)

// ErrNotSortable is returned when sorting by a column that has no total
// numeric order (codename, socket, release date) or is not displayed.
var ErrNotSortable = errors.New("column not sortable")

// SortDirection orders comparison rows.
type SortDirection int

const (
	SortNone SortDirection = 0
	SortAsc  SortDirection = 1
	SortDesc SortDirection = -1
)

func (d SortDirection) String() string {
	switch d {
	case SortAsc:
		return "asc"
	case SortDesc:
		return "desc"
	default:
		return ""
	}
}

// MarshalText encodes the direction as "asc", "desc" or "".
func (d SortDirection) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// SortState is the active sort of the comparison table.
// The zero value means rows follow selection order.
type SortState struct {
	Column string        `json:"column,omitempty"`
	Dir    SortDirection `json:"dir"`
}

// Active reports whether a sort column is set.
func (s SortState) Active() bool {
	return s.Column != "" && s.Dir != SortNone
}

// Toggle returns the state after clicking column: the same column flips
// direction, a different column starts ascending.
func (s SortState) Toggle(column string) SortState {
	if s.Column == column && s.Dir != SortNone {
		return SortState{Column: column, Dir: -s.Dir}
	}
	return SortState{Column: column, Dir: SortAsc}
}

// SortRecords returns a sorted copy of records. Rows with a numeric value
// in the sort column come first, ordered by that value; rows without one
// follow in either direction. Ties and the trailing rows are ordered by
// CompareNames, which always runs ascending.
func SortRecords(records []Record, st SortState, policy *ColumnPolicy) []Record {
	out := append([]Record(nil), records...)
	if !st.Active() {
		return out
	}
	slices.SortStableFunc(out, func(a, b Record) int {
		av, aok := policy.NumericValue(a, st.Column)
		bv, bok := policy.NumericValue(b, st.Column)
		switch {
		case aok && !bok:
			return -1
		case !aok && bok:
			return 1
		case aok && bok && av != bv:
			return cmp.Compare(av, bv) * int(st.Dir)
		}
		return CompareNames(a.Name, b.Name)
	})
	return out
}

// CompareNames orders CPU names naturally: text runs compare as lower-case
// strings and digit runs compare numerically, so "Core i7-9700" sorts
// before "Core i9-10900" and "Ryzen 5 3600" before "Ryzen 5 3700".
func CompareNames(a, b string) int {
	la, lb := foldCase(a), foldCase(b)
	for la != "" && lb != "" {
		ca, ra := nextChunk(la)
		cb, rb := nextChunk(lb)

		var c int
		if isDigit(ca[0]) && isDigit(cb[0]) {
			c = compareDigits(ca, cb)
		} else {
			c = strings.Compare(ca, cb)
		}
		if c != 0 {
			return c
		}
		la, lb = ra, rb
	}
	if c := cmp.Compare(len(la), len(lb)); c != 0 {
		return c
	}
	return strings.Compare(a, b)
}

// nextChunk splits off the leading run of digits or non-digits.
func nextChunk(s string) (chunk, rest string) {
	digit := isDigit(s[0])
	i := 1
	for i < len(s) && isDigit(s[i]) == digit {
		i++
	}
	return s[:i], s[i:]
}

// compareDigits compares two digit runs by numeric value, of any length.
func compareDigits(a, b string) int {
	a = strings.TrimLeft(a, "0")
	b = strings.TrimLeft(b, "0")
	if c := cmp.Compare(len(a), len(b)); c != 0 {
		return c
	}
	return strings.Compare(a, b)
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}
