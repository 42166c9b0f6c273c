package core

import "fmt"

// SortDirection is the direction of an applied sort.
type SortDirection string

const (
	SortAsc  SortDirection = "asc"
	SortDesc SortDirection = "desc"
)

// FilterOperator is one comparison of the closed filter operator set.
type FilterOperator string

const (
	OpEq        FilterOperator = "eq"
	OpNeq       FilterOperator = "neq"
	OpGt        FilterOperator = "gt"
	OpGte       FilterOperator = "gte"
	OpLt        FilterOperator = "lt"
	OpLte       FilterOperator = "lte"
	OpLike      FilterOperator = "like"
	OpILike     FilterOperator = "ilike"
	OpIn        FilterOperator = "in"
	OpIsNull    FilterOperator = "is_null"
	OpIsNotNull FilterOperator = "is_not_null"
)

// FilterOperators lists every member of the operator set.
var FilterOperators = []FilterOperator{
	OpEq, OpNeq, OpGt, OpGte, OpLt, OpLte,
	OpLike, OpILike, OpIn, OpIsNull, OpIsNotNull,
}

// Valid reports whether op belongs to the operator set.
func (op FilterOperator) Valid() bool {
	for _, known := range FilterOperators {
		if op == known {
			return true
		}
	}
	return false
}

// Unary reports whether op takes no comparison value.
func (op FilterOperator) Unary() bool {
	return op == OpIsNull || op == OpIsNotNull
}

// FilterCondition is one predicate of the active filter set. All conditions
// combine with AND. OpIn reads Values; unary operators read neither field.
type FilterCondition struct {
	Column   string         `json:"column"`
	Operator FilterOperator `json:"operator"`
	Value    Value          `json:"value"`
	Values   []Value        `json:"values,omitempty"`
}

// Validate checks the condition against the known column names.
func (f FilterCondition) Validate(columns []string) error {
	if !f.Operator.Valid() {
		return fmt.Errorf("unknown filter operator %q", f.Operator)
	}
	found := false
	for _, c := range columns {
		if c == f.Column {
			found = true
			break
		}
	}
	if !found {
		return fmt.Errorf("unknown filter column %q", f.Column)
	}
	if f.Operator == OpIn && len(f.Values) == 0 {
		return fmt.Errorf("filter operator %q requires at least one value", OpIn)
	}
	return nil
}

// DefaultPageSize is the page size of a fresh table view.
const DefaultPageSize = 50

// PageSizes lists the page sizes the grid offers.
var PageSizes = []int{10, 25, 50, 100, 250, 500}

// ValidPageSize reports whether n is one of the offered page sizes.
func ValidPageSize(n int) bool {
	for _, s := range PageSizes {
		if n == s {
			return true
		}
	}
	return false
}

// QueryOptions is the complete remote-query state of a table view. It is
// plain data; the transitions that evolve it live in the grid engine.
type QueryOptions struct {
	Page       int               `json:"page"`
	PageSize   int               `json:"page_size"`
	SortColumn string            `json:"sort_column,omitempty"`
	SortDir    SortDirection     `json:"sort_dir,omitempty"`
	Filters    []FilterCondition `json:"filters,omitempty"`
}

// DefaultQueryOptions is the initial state of a fresh table view: first
// page, default size, no sort, no filters.
func DefaultQueryOptions() QueryOptions {
	return QueryOptions{Page: 1, PageSize: DefaultPageSize}
}

// Sorted reports whether a sort is applied.
func (o QueryOptions) Sorted() bool { return o.SortColumn != "" }

// Page is one fetched window of table data together with the shape
// information the grid needs to render and mutate it.
type Page struct {
	Rows       []Row    `json:"rows"`
	Columns    []Column `json:"columns"`
	PrimaryKey string   `json:"primary_key,omitempty"`
	TotalRows  int64    `json:"total_rows"`
	TotalPages int      `json:"total_pages"`
	Number     int      `json:"page"`
}

// ColumnNames returns the column names in result order.
func (p *Page) ColumnNames() []string {
	names := make([]string, len(p.Columns))
	for i, c := range p.Columns {
		names[i] = c.Name
	}
	return names
}
