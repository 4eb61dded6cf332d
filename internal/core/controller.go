package core

import (
	"fmt"
	"sync"
)

// Options configures a Controller.
type Options struct {
	MaxSelected int           // selection capacity, DefaultMaxSelected when <= 0
	SearchLimit int           // suggestions per search, DefaultSearchLimit when <= 0
	Policy      *ColumnPolicy // DefaultColumnPolicy when nil
}

// Controller owns one user's comparison state: the selection and the sort.
// The catalog is shared through a CatalogHolder and may be replaced at any
// time; names that disappear from it are pruned from the selection on the
// next read. All methods are safe for concurrent use.
type Controller struct {
	catalogs *CatalogHolder
	policy   *ColumnPolicy
	limit    int

	mu        sync.Mutex
	selection *Selection
	sort      SortState
}

// NewController creates a controller reading catalogs from holder.
func NewController(holder *CatalogHolder, opts Options) *Controller {
	if holder == nil {
		holder = NewCatalogHolder()
	}
	if opts.Policy == nil {
		opts.Policy = DefaultColumnPolicy()
	}
	if opts.SearchLimit <= 0 {
		opts.SearchLimit = DefaultSearchLimit
	}
	return &Controller{
		catalogs:  holder,
		policy:    opts.Policy,
		limit:     opts.SearchLimit,
		selection: NewSelection(opts.MaxSelected),
	}
}

// Catalog returns the current catalog.
func (c *Controller) Catalog() *Catalog {
	return c.catalogs.Current()
}

// Policy returns the column policy in use.
func (c *Controller) Policy() *ColumnPolicy {
	return c.policy
}

// MaxSelected returns the selection capacity.
func (c *Controller) MaxSelected() int {
	return c.selection.Max()
}

// LoadCatalog parses text and, on success, replaces the shared catalog.
// On failure the current catalog is left unchanged.
func (c *Controller) LoadCatalog(text string) (*Catalog, error) {
	cat, err := LoadCatalog(text)
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}
	c.catalogs.Replace(cat)
	return cat, nil
}

// Search returns suggestions for query from the current catalog.
func (c *Controller) Search(query string) []Record {
	return Search(c.catalogs.Current(), query, c.limit)
}

// Select adds the CPU called name to the selection.
func (c *Controller) Select(name string) AddResult {
	c.mu.Lock()
	defer c.mu.Unlock()

	cat := c.syncLocked()
	if _, ok := cat.Lookup(name); !ok {
		return AddResult{Status: UnknownCPU, Name: name, Limit: c.selection.Max()}
	}
	return c.selection.Add(name)
}

// Deselect removes name from the selection and reports whether it was there.
func (c *Controller) Deselect(name string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.selection.Remove(name)
}

// Clear empties the selection and resets the sort.
func (c *Controller) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.selection.Clear()
	c.sort = SortState{}
}

// ToggleSort sorts by column, flipping direction if it is already the sort
// column. Columns that are not displayed or not sortable return ErrNotSortable.
func (c *Controller) ToggleSort(column string) (SortState, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	cat := c.syncLocked()
	if !c.displayed(cat, column) || !c.policy.IsSortable(column) {
		return c.sort, fmt.Errorf("%w: %q", ErrNotSortable, column)
	}
	c.sort = c.sort.Toggle(column)
	return c.sort, nil
}

// SortState returns the active sort.
func (c *Controller) SortState() SortState {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.syncLocked()
	return c.sort
}

// SelectedNames returns the selected names in insertion order.
func (c *Controller) SelectedNames() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.syncLocked()
	return c.selection.Names()
}

// Selected returns the selected records in insertion order.
func (c *Controller) Selected() []Record {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.selectedLocked(c.syncLocked())
}

// ComparisonModel recomputes the comparison table from the current state.
func (c *Controller) ComparisonModel() ComparisonModel {
	c.mu.Lock()
	defer c.mu.Unlock()
	cat := c.syncLocked()
	return BuildComparison(c.selectedLocked(cat), cat.DisplayColumns(c.policy), c.policy, c.sort)
}

// syncLocked reconciles the state with the current catalog: selected names
// missing from it are dropped, and so is a sort column it no longer has.
func (c *Controller) syncLocked() *Catalog {
	cat := c.catalogs.Current()
	c.selection.Retain(func(name string) bool {
		_, ok := cat.Lookup(name)
		return ok
	})
	if c.sort.Column != "" && !c.displayed(cat, c.sort.Column) {
		c.sort = SortState{}
	}
	return cat
}

func (c *Controller) selectedLocked(cat *Catalog) []Record {
	names := c.selection.Names()
	out := make([]Record, 0, len(names))
	for _, n := range names {
		if rec, ok := cat.Lookup(n); ok {
			out = append(out, rec)
		}
	}
	return out
}

func (c *Controller) displayed(cat *Catalog, column string) bool {
	for _, col := range cat.DisplayColumns(c.policy) {
		if col.Key == column {
			return true
		}
	}
	return false
}
