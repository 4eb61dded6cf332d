// Package templates holds the HTML components of the comparison UI.
//
// Components are written in .templ files; run `templ generate` after
// editing them to refresh the *_templ.go files.
package templates

import (
	"net/url"
	"strconv"
	"time"

	"github.com/JonMunkholm/cpucompare/internal/core"
)

// Suggestion is one search result.
type Suggestion struct {
	Name     string
	Cores    int
	Clock    string
	Selected bool
}

// Meta returns the secondary line of a result, e.g. "12 cores · 4.2 GHz".
func (s Suggestion) Meta() string {
	if s.Cores > 0 {
		return strconv.Itoa(s.Cores) + " cores · " + s.Clock
	}
	return s.Clock
}

// CatalogInfo is the catalog state shown in the page footer.
type CatalogInfo struct {
	Loaded   bool
	Records  int
	LoadedAt time.Time
	Error    *core.UserMessage
}

// Summary describes the loaded catalog in one sentence.
func (c CatalogInfo) Summary() string {
	if !c.Loaded {
		return "Catalog not loaded."
	}
	s := strconv.Itoa(c.Records) + " processors in the catalog"
	if !c.LoadedAt.IsZero() {
		s += ", loaded " + c.LoadedAt.UTC().Format("2006-01-02 15:04 MST")
	}
	return s + "."
}

// PageData is everything the comparison page renders.
type PageData struct {
	Query       string
	Searched    bool
	Results     []Suggestion
	Selected    []string
	MaxSelected int
	Model       core.ComparisonModel
	Catalog     CatalogInfo
	Notice      string
	Error       *core.UserMessage
}

// Full reports whether no more CPUs can be added.
func (d PageData) Full() bool {
	return d.MaxSelected > 0 && len(d.Selected) >= d.MaxSelected
}

// SelectedHeading returns the "Selected n / max" heading.
func (d PageData) SelectedHeading() string {
	return "Selected " + strconv.Itoa(len(d.Selected)) + " / " + strconv.Itoa(d.MaxSelected)
}

// SearchURL returns the page URL for query, or "/" when it is empty.
func SearchURL(query string) string {
	if query == "" {
		return "/"
	}
	return "/?q=" + url.QueryEscape(query)
}
