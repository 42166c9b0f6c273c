package grid_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/relgrid-labs/relgrid/pkg/core"
	"github.com/relgrid-labs/relgrid/pkg/grid"
)

func TestOptionsInitialState(t *testing.T) {
	o := grid.NewOptions()
	assert.Equal(t, 1, o.Page)
	assert.Equal(t, core.DefaultPageSize, o.PageSize)
	assert.False(t, o.Sorted())
	assert.Zero(t, o.TotalPages)
}

func TestGoToPageClamping(t *testing.T) {
	tests := []struct {
		name       string
		totalPages int
		target     int
		want       int
	}{
		{"forward within range", 10, 3, 3},
		{"clamps above total", 10, 99, 10},
		{"clamps below one", 10, 0, 1},
		{"negative clamps to one", 10, -5, 1},
		{"total unknown accepts any", 0, 42, 42},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := grid.NewOptions().WithTotalPages(tt.totalPages).GoToPage(tt.target)
			assert.Equal(t, tt.want, o.Page)
		})
	}
}

func TestToggleSortCycle(t *testing.T) {
	o := grid.NewOptions()

	o = o.ToggleSort("name")
	assert.Equal(t, "name", o.SortColumn)
	assert.Equal(t, core.SortAsc, o.SortDir)

	o = o.ToggleSort("name")
	assert.Equal(t, core.SortDesc, o.SortDir)

	o = o.ToggleSort("name")
	assert.Empty(t, o.SortColumn, "third toggle returns to unsorted")
	assert.Empty(t, o.SortDir)
}

func TestToggleSortSwitchingColumnStartsAscending(t *testing.T) {
	o := grid.NewOptions().ToggleSort("name").ToggleSort("name") // name desc
	o = o.ToggleSort("email")
	assert.Equal(t, "email", o.SortColumn)
	assert.Equal(t, core.SortAsc, o.SortDir)
}

func TestToggleSortResetsPage(t *testing.T) {
	o := grid.NewOptions().WithTotalPages(9).GoToPage(5).ToggleSort("name")
	assert.Equal(t, 1, o.Page)
}

func TestWithFiltersResetsPage(t *testing.T) {
	o := grid.NewOptions().WithTotalPages(9).GoToPage(7)
	o = o.WithFilters([]core.FilterCondition{{Column: "name", Operator: core.OpEq, Value: core.Text("x")}})
	assert.Equal(t, 1, o.Page)
	assert.Len(t, o.Filters, 1)

	o = o.WithTotalPages(3).GoToPage(3).ClearFilters()
	assert.Equal(t, 1, o.Page)
	assert.Empty(t, o.Filters)
}

func TestWithPageSize(t *testing.T) {
	o := grid.NewOptions().WithTotalPages(9).GoToPage(4)

	o = o.WithPageSize(100)
	assert.Equal(t, 100, o.PageSize)
	assert.Equal(t, 1, o.Page, "page size change resets to the first page")

	unchanged := o.GoToPage(2).WithPageSize(37)
	assert.Equal(t, 100, unchanged.PageSize, "unknown sizes are rejected")
	assert.Equal(t, 2, unchanged.Page, "rejected size changes nothing")
}

func TestWithTotalPagesClampsCurrentPage(t *testing.T) {
	o := grid.NewOptions().GoToPage(12).WithTotalPages(4)
	assert.Equal(t, 4, o.Page)
}

func TestTransitionsArePure(t *testing.T) {
	base := grid.NewOptions().WithTotalPages(5)
	_ = base.GoToPage(3)
	_ = base.ToggleSort("name")
	assert.Equal(t, 1, base.Page, "receiver is untouched")
	assert.Empty(t, base.SortColumn)
}
