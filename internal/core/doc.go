// Package core provides the domain logic for comparing CPUs from a CSV catalog.
//
// Nothing here knows about HTTP or terminals. The web server, the command
// line and the TUI all drive the same [Controller].
//
// # Catalog
//
// [ParseCSV] turns catalog text into header-keyed records and [LoadCatalog]
// wraps the result in an immutable [Catalog]. Every record passes through
// [Normalize], which derives an effective core count from values such as
// "8/16" and a maximum clock in GHz from values such as "3.6 to 4.9" or
// "4200 MHz". Values that cannot be parsed are kept for display and left
// out of comparisons.
//
// A [CatalogHolder] shares the current catalog between controllers and is
// swapped atomically on reload.
//
// # Comparison
//
// A [Controller] owns one user's [Selection] (ordered, bounded, no
// duplicates) and [SortState]. [Controller.ComparisonModel] recomputes the
// table on every call:
//
//  1. Columns come from the [ColumnPolicy] (hidden, sortable, lower is better)
//  2. Rows are sorted by the sort column, ties falling back to [CompareNames]
//  3. [ComputeStats] finds the min and max of each numeric column
//  4. [MarkValue] flags best and worst cells
//
// # Error Handling
//
// Technical errors are mapped to user-friendly messages using [MapError].
// Each message has a code for support reference:
//
//   - CSV001-CSV003: Catalog format errors (malformed, no Name column, size)
//   - CAT001-CAT003: Catalog availability (fetch failed, bad status, not loaded)
//   - SEL001-SEL002: Selection rejections (full, unknown CPU)
//   - SORT001: Column cannot be sorted
//   - RATE001: Too many requests
package core
