package core

// normalize.go derives comparable numbers from free-text catalog fields.
//
// Catalog data is messy: clocks appear as "3.6 to 4.2", "4200 MHz" or
// "3.8", core counts as "8" or "4/4" for hybrid designs, and generic
// numbers may use a decimal comma. None of these functions fail; anything
// unparseable degrades to NaN (clocks, generic numbers) or 0 (cores).

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

var (
	// leadingNumber matches a decimal number at the start of a string.
	leadingNumber = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?`)

	// numberToken matches any unsigned decimal number, with either separator.
	numberToken = regexp.MustCompile(`\d+(?:[.,]\d+)?`)

	leadingInt = regexp.MustCompile(`^\d+`)
)

// Normalize returns rec with EffectiveCores and MaxClockGHz filled in.
func Normalize(rec Record) Record {
	rec.MaxClockGHz = ParseClockGHz(rec.Get(ColumnClock))
	rec.EffectiveCores = ParseCores(rec.Get(ColumnCores))
	return rec
}

// ParseClockGHz converts a clock description to gigahertz.
//
// Shapes are tried in order:
//  1. a range containing "to": the second number is the boost clock
//  2. a value containing "MHz": divided by 1000
//  3. anything else is parsed as GHz
//
// A range written in MHz is scaled as well. Unparseable input yields NaN.
func ParseClockGHz(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return math.NaN()
	}
	lower := strings.ToLower(s)
	mhz := strings.Contains(lower, "mhz")

	switch {
	case strings.Contains(lower, "to"):
		if mhz {
			lower = strings.ReplaceAll(lower, ",", "")
		}
		tokens := numberToken.FindAllString(lower, -1)
		if len(tokens) == 0 {
			return math.NaN()
		}
		upper := tokens[len(tokens)-1]
		if len(tokens) >= 2 {
			upper = tokens[1]
		}
		v, ok := ParseNumber(upper)
		if !ok {
			return math.NaN()
		}
		if mhz {
			v /= 1000
		}
		return v

	case mhz:
		// Thousands separators are common in MHz figures ("3,700 MHz").
		v, ok := parseLeadingFloat(strings.ReplaceAll(lower, ",", ""))
		if !ok {
			return math.NaN()
		}
		return v / 1000

	default:
		v, ok := ParseNumber(s)
		if !ok {
			return math.NaN()
		}
		return v
	}
}

// ParseCores returns the core count of a Cores field.
// Slash-separated variants ("4/4", "8/16") yield the largest value.
// Unparseable input yields 0.
func ParseCores(s string) int {
	best := 0
	for _, part := range strings.Split(s, "/") {
		m := leadingInt.FindString(strings.TrimSpace(part))
		if m == "" {
			continue
		}
		n, err := strconv.Atoi(m)
		if err != nil {
			continue
		}
		if n > best {
			best = n
		}
	}
	return best
}

// ParseNumber parses the leading number of s, accepting a comma as the
// decimal separator ("4,5" and "4.5" are equal). Trailing text such as a
// unit is ignored, so "65 W" is 65.
func ParseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return math.NaN(), false
	}
	return parseLeadingFloat(strings.Replace(s, ",", ".", 1))
}

func parseLeadingFloat(s string) (float64, bool) {
	m := leadingNumber.FindString(strings.TrimSpace(s))
	if m == "" {
		return math.NaN(), false
	}
	v, err := strconv.ParseFloat(m, 64)
	if err != nil || math.IsInf(v, 0) || math.IsNaN(v) {
		return math.NaN(), false
	}
	return v, true
}
