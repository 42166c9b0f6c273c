package core

// Row is a single fetched record keyed by column name. Rows are owned by
// the fetch result that produced them; edits never mutate a Row in place,
// they flow through the edit guard and land by refetching.
type Row map[string]Value

// Get returns the value for the named column. Absent columns read as Null,
// matching how short CSV rows and sparse result sets behave.
func (r Row) Get(name string) Value {
	if v, ok := r[name]; ok {
		return v
	}
	return Null()
}

// Has reports whether the row carries a value for the named column.
func (r Row) Has(name string) bool {
	_, ok := r[name]
	return ok
}
