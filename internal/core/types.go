package core

import (
	"math"
	"sync/atomic"
)

// Well-known catalog columns.
const (
	ColumnName  = "Name"  // mandatory identity column
	ColumnClock = "Clock" // e.g. "3.6 to 4.2", "4200 MHz", "3.8"
	ColumnCores = "Cores" // e.g. "8", "4/4"
)

// Record is a single CPU row from the catalog.
// Records are immutable once parsed; Fields must not be modified.
type Record struct {
	Name   string            `json:"name"`
	Fields map[string]string `json:"fields"`

	// Derived by Normalize.
	EffectiveCores int     `json:"effective_cores"`
	MaxClockGHz    float64 `json:"-"`

	searchKey string
}

// Get returns the raw value of a column, or "" if the column is absent.
func (r Record) Get(column string) string {
	return r.Fields[column]
}

// HasClock reports whether MaxClockGHz holds a parsed value.
func (r Record) HasClock() bool {
	return !math.IsNaN(r.MaxClockGHz)
}

// Catalog is the ordered, read-only set of records from one CSV load.
type Catalog struct {
	headers     []string
	firstColumn string
	records     []Record
	byName      map[string]int
	duplicates  []string
}

// NewCatalog builds a catalog from parsed headers and records.
// Records with an empty Name are dropped; when two records share a Name
// the first one wins and the later one is reported by Duplicates.
func NewCatalog(headers []string, records []Record) *Catalog {
	c := &Catalog{
		headers: append([]string(nil), headers...),
		records: make([]Record, 0, len(records)),
		byName:  make(map[string]int, len(records)),
	}
	if len(headers) > 0 {
		c.firstColumn = headers[0]
	}
	for _, rec := range records {
		if rec.Name == "" {
			continue
		}
		if _, exists := c.byName[rec.Name]; exists {
			c.duplicates = append(c.duplicates, rec.Name)
			continue
		}
		rec.searchKey = foldCase(rec.Name)
		c.byName[rec.Name] = len(c.records)
		c.records = append(c.records, rec)
	}
	return c
}

// emptyCatalog is served until the first successful load.
var emptyCatalog = NewCatalog(nil, nil)

// Headers returns the CSV header row in file order, including hidden columns.
func (c *Catalog) Headers() []string {
	if c == nil {
		return nil
	}
	return append([]string(nil), c.headers...)
}

// DisplayColumns returns the columns p shows for this catalog. The
// first-column rule applies to the first column of the CSV file, so it
// hides nothing when that column had no header.
func (c *Catalog) DisplayColumns(p *ColumnPolicy) []ColumnSpec {
	if c == nil {
		return p.columns(nil, "")
	}
	return p.columns(c.headers, c.firstColumn)
}

// Records returns all records in catalog order.
func (c *Catalog) Records() []Record {
	if c == nil {
		return nil
	}
	return append([]Record(nil), c.records...)
}

// Len returns the number of records.
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.records)
}

// Lookup finds a record by Name.
func (c *Catalog) Lookup(name string) (Record, bool) {
	if c == nil {
		return Record{}, false
	}
	i, ok := c.byName[name]
	if !ok {
		return Record{}, false
	}
	return c.records[i], true
}

// HasColumn reports whether the header row contains column.
func (c *Catalog) HasColumn(column string) bool {
	if c == nil {
		return false
	}
	for _, h := range c.headers {
		if h == column {
			return true
		}
	}
	return false
}

// Duplicates lists the names of rows ignored because an earlier row had the same Name.
func (c *Catalog) Duplicates() []string {
	if c == nil {
		return nil
	}
	return append([]string(nil), c.duplicates...)
}

// CatalogHolder publishes the current catalog to all controllers.
// Replace swaps the whole catalog atomically; there are no partial updates.
type CatalogHolder struct {
	current atomic.Pointer[Catalog]
}

// NewCatalogHolder returns a holder serving an empty catalog.
func NewCatalogHolder() *CatalogHolder {
	return &CatalogHolder{}
}

// Current returns the active catalog. It is never nil.
func (h *CatalogHolder) Current() *Catalog {
	if c := h.current.Load(); c != nil {
		return c
	}
	return emptyCatalog
}

// Replace installs c and returns the catalog it replaced.
func (h *CatalogHolder) Replace(c *Catalog) *Catalog {
	if c == nil {
		c = emptyCatalog
	}
	prev := h.current.Swap(c)
	if prev == nil {
		return emptyCatalog
	}
	return prev
}

// Loaded reports whether a catalog has been installed.
func (h *CatalogHolder) Loaded() bool {
	return h.current.Load() != nil
}
