package core

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// DefaultSearchLimit is the number of suggestions returned by Search.
const DefaultSearchLimit = 12

// Search returns catalog records whose Name contains every whitespace
// separated token of query, ignoring case. Results keep catalog order and
// are truncated to limit (DefaultSearchLimit when limit <= 0). An empty
// query matches nothing.
func Search(c *Catalog, query string, limit int) []Record {
	if limit <= 0 {
		limit = DefaultSearchLimit
	}
	tokens := strings.Fields(foldCase(query))
	if len(tokens) == 0 || c.Len() == 0 {
		return nil
	}

	var out []Record
	for _, rec := range c.records {
		if matchesAll(rec.searchKey, tokens) {
			out = append(out, rec)
			if len(out) == limit {
				break
			}
		}
	}
	return out
}

func matchesAll(key string, tokens []string) bool {
	for _, t := range tokens {
		if !strings.Contains(key, t) {
			return false
		}
	}
	return true
}

// foldCase lower-cases s with Unicode rules, so Cyrillic and other
// non-ASCII names match regardless of case.
// A Caser is not safe for concurrent use, hence one per call.
func foldCase(s string) string {
	return cases.Lower(language.Und).String(s)
}
