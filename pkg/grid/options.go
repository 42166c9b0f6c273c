package grid

import "github.com/relgrid-labs/relgrid/pkg/core"

// Options is the query options state machine of one table view. It wraps
// the plain core.QueryOptions with the total page count the last fetch
// reported. Transitions are pure: they take the receiver by value and
// return the next state, so callers can speculate freely and nothing here
// performs I/O.
type Options struct {
	core.QueryOptions
	TotalPages int
}

// NewOptions returns the initial state: first page, default page size, no
// sort, no filters, total pages unknown.
func NewOptions() Options {
	return Options{QueryOptions: core.DefaultQueryOptions()}
}

// GoToPage moves to page n, clamped to [1, TotalPages]. Before the first
// fetch reports a total, any page >= 1 is accepted.
func (o Options) GoToPage(n int) Options {
	if n < 1 {
		n = 1
	}
	if o.TotalPages > 0 && n > o.TotalPages {
		n = o.TotalPages
	}
	o.Page = n
	return o
}

// ToggleSort cycles the sort state of a column: unsorted -> ascending ->
// descending -> unsorted. Toggling a different column starts its cycle at
// ascending. Any sort change resets to the first page.
func (o Options) ToggleSort(column string) Options {
	switch {
	case o.SortColumn != column:
		o.SortColumn = column
		o.SortDir = core.SortAsc
	case o.SortDir == core.SortAsc:
		o.SortDir = core.SortDesc
	default:
		o.SortColumn = ""
		o.SortDir = ""
	}
	o.Page = 1
	return o
}

// WithFilters replaces the filter set wholesale and resets to the first
// page. Filters always describe the complete active set; there is no
// incremental add/remove.
func (o Options) WithFilters(filters []core.FilterCondition) Options {
	o.Filters = filters
	o.Page = 1
	return o
}

// ClearFilters removes all filters and resets to the first page.
func (o Options) ClearFilters() Options {
	return o.WithFilters(nil)
}

// WithPageSize switches the page size and resets to the first page. Sizes
// outside core.PageSizes leave the state unchanged.
func (o Options) WithPageSize(n int) Options {
	if !core.ValidPageSize(n) {
		return o
	}
	o.PageSize = n
	o.Page = 1
	return o
}

// WithTotalPages records the total the latest fetch reported and clamps
// the current page into range, which matters when filters or deletes
// shrink the data under a high page number.
func (o Options) WithTotalPages(n int) Options {
	o.TotalPages = n
	if n > 0 && o.Page > n {
		o.Page = n
	}
	return o
}
