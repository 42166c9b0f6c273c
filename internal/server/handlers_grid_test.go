package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relgrid-labs/relgrid/pkg/core"
	"github.com/relgrid-labs/relgrid/pkg/grid"
)

const gridBase = "/api/v1/connections/dev/schemas/main/tables/users/grid"

func gridViewOf(t *testing.T, rec *httptest.ResponseRecorder, wantStatus int) gridView {
	t.Helper()
	require.Equal(t, wantStatus, rec.Code, "body: %s", rec.Body.String())
	var v gridView
	decodeBody(t, rec, &v)
	return v
}

func TestGridView(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodGet, gridBase, nil)
	v := gridViewOf(t, rec, http.StatusOK)

	assert.Equal(t, ts.conn.ID(), v.Connection)
	assert.Equal(t, "main", v.Schema)
	assert.Equal(t, "users", v.Table)
	assert.False(t, v.ReadOnly)
	assert.Equal(t, core.PageSizes, v.PageSizes)

	require.NotNil(t, v.Page)
	assert.Equal(t, int64(3), v.Page.TotalRows)
	assert.Equal(t, "id", v.Page.PrimaryKey)
	assert.Equal(t, 1, v.Options.Page)
	assert.Equal(t, core.DefaultPageSize, v.Options.PageSize)
	assert.Equal(t, 1, v.Options.TotalPages)

	assert.Equal(t, []string{"id", "name", "balance", "company_id"}, v.Display)
	assert.Equal(t, "alice", v.Page.Rows[0].Get("name").String())
	assert.True(t, v.Page.Rows[2].Get("balance").IsNull())

	t.Run("missing table", func(t *testing.T) {
		rec := ts.do(t, http.MethodGet, "/api/v1/connections/dev/schemas/main/tables/ghost/grid", nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("refresh", func(t *testing.T) {
		rec := ts.do(t, http.MethodPost, gridBase+"/refresh", nil)
		v := gridViewOf(t, rec, http.StatusOK)
		assert.Equal(t, int64(3), v.Page.TotalRows)
	})
}

func TestGridTransitions(t *testing.T) {
	ts := newTestServer(t)

	t.Run("sort cycles asc desc off", func(t *testing.T) {
		rec := ts.do(t, http.MethodPost, gridBase+"/sort", map[string]any{"column": "name"})
		v := gridViewOf(t, rec, http.StatusOK)
		assert.Equal(t, "name", v.Options.SortColumn)
		assert.Equal(t, core.SortAsc, v.Options.SortDir)
		assert.Equal(t, "alice", v.Page.Rows[0].Get("name").String())

		rec = ts.do(t, http.MethodPost, gridBase+"/sort", map[string]any{"column": "name"})
		v = gridViewOf(t, rec, http.StatusOK)
		assert.Equal(t, core.SortDesc, v.Options.SortDir)
		assert.Equal(t, "carol", v.Page.Rows[0].Get("name").String())

		rec = ts.do(t, http.MethodPost, gridBase+"/sort", map[string]any{"column": "name"})
		v = gridViewOf(t, rec, http.StatusOK)
		assert.Empty(t, v.Options.SortColumn)
	})

	t.Run("sort unknown column", func(t *testing.T) {
		rec := ts.do(t, http.MethodPost, gridBase+"/sort", map[string]any{"column": "ghost"})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("page size", func(t *testing.T) {
		rec := ts.do(t, http.MethodPost, gridBase+"/page-size", map[string]any{"size": 10})
		v := gridViewOf(t, rec, http.StatusOK)
		assert.Equal(t, 10, v.Options.PageSize)
		assert.Equal(t, 1, v.Options.Page)

		rec = ts.do(t, http.MethodPost, gridBase+"/page-size", map[string]any{"size": 7})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, errorBody(t, rec), "not offered")
	})

	t.Run("filters", func(t *testing.T) {
		rec := ts.do(t, http.MethodPost, gridBase+"/filters", map[string]any{
			"filters": []map[string]any{
				{"column": "balance", "operator": "gt", "value": 150},
			},
		})
		v := gridViewOf(t, rec, http.StatusOK)
		require.Equal(t, int64(1), v.Page.TotalRows)
		assert.Equal(t, "bob", v.Page.Rows[0].Get("name").String())

		rec = ts.do(t, http.MethodPost, gridBase+"/filters", map[string]any{"filters": []any{}})
		v = gridViewOf(t, rec, http.StatusOK)
		assert.Equal(t, int64(3), v.Page.TotalRows)
	})

	t.Run("invalid filter column", func(t *testing.T) {
		rec := ts.do(t, http.MethodPost, gridBase+"/filters", map[string]any{
			"filters": []map[string]any{
				{"column": "ghost", "operator": "eq", "value": 1},
			},
		})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("page clamped", func(t *testing.T) {
		rec := ts.do(t, http.MethodPost, gridBase+"/page", map[string]any{"page": 99})
		v := gridViewOf(t, rec, http.StatusOK)
		assert.Equal(t, 1, v.Options.Page)
	})
}

func TestGridSearch(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodPost, gridBase+"/search", map[string]any{"query": "o"})
	require.Equal(t, http.StatusOK, rec.Code)

	var state grid.SearchState
	decodeBody(t, rec, &state)
	require.Len(t, state.Matches, 2) // bob and carol
	assert.Equal(t, 0, state.Current)
	assert.True(t, state.Highlighting)

	rec = ts.do(t, http.MethodPost, gridBase+"/search/next", nil)
	decodeBody(t, rec, &state)
	assert.Equal(t, 1, state.Current)

	rec = ts.do(t, http.MethodPost, gridBase+"/search/next", nil)
	decodeBody(t, rec, &state)
	assert.Equal(t, 0, state.Current)

	rec = ts.do(t, http.MethodPost, gridBase+"/search/prev", nil)
	decodeBody(t, rec, &state)
	assert.Equal(t, 1, state.Current)

	rec = ts.do(t, http.MethodPost, gridBase+"/search", map[string]any{"query": ""})
	decodeBody(t, rec, &state)
	assert.Equal(t, -1, state.Current)
	assert.False(t, state.Highlighting)
}

func TestGridColumnConfig(t *testing.T) {
	ts := newTestServer(t)

	type columnsResp struct {
		Columns []core.ColumnConfig `json:"columns"`
		Display []string            `json:"display_columns"`
	}

	rec := ts.do(t, http.MethodGet, gridBase+"/columns", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var resp columnsResp
	decodeBody(t, rec, &resp)
	assert.Len(t, resp.Columns, 4)
	assert.Equal(t, []string{"id", "name", "balance", "company_id"}, resp.Display)

	rec = ts.do(t, http.MethodPost, gridBase+"/columns/toggle", map[string]any{"column": "balance"})
	require.Equal(t, http.StatusOK, rec.Code)
	decodeBody(t, rec, &resp)
	assert.Equal(t, []string{"id", "name", "company_id"}, resp.Display)

	rec = ts.do(t, http.MethodPost, gridBase+"/columns/move", map[string]any{"column": "name", "to": 0})
	require.Equal(t, http.StatusOK, rec.Code)
	decodeBody(t, rec, &resp)
	assert.Equal(t, []string{"name", "id", "company_id"}, resp.Display)

	rec = ts.do(t, http.MethodPost, gridBase+"/columns/toggle", map[string]any{"column": "ghost"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGridEditFlow(t *testing.T) {
	ts := newTestServer(t)

	// Prime the session.
	rec := ts.do(t, http.MethodGet, gridBase, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	t.Run("plain column commit", func(t *testing.T) {
		rec := ts.do(t, http.MethodPost, gridBase+"/edit/begin", map[string]any{"row": 0, "column": "name"})
		require.Equal(t, http.StatusOK, rec.Code)
		var session grid.EditSession
		decodeBody(t, rec, &session)
		assert.Equal(t, grid.EditEditing, session.Phase)
		assert.Equal(t, "alice", session.Staged)

		rec = ts.do(t, http.MethodPost, gridBase+"/edit/stage", map[string]any{"row": 0, "column": "name", "text": "alicia"})
		require.Equal(t, http.StatusOK, rec.Code)
		decodeBody(t, rec, &session)
		assert.Equal(t, "alicia", session.Staged)

		rec = ts.do(t, http.MethodPost, gridBase+"/edit/commit", map[string]any{"row": 0, "column": "name"})
		v := gridViewOf(t, rec, http.StatusOK)
		assert.Equal(t, "alicia", v.Page.Rows[0].Get("name").String())
	})

	t.Run("primary key requires confirmation", func(t *testing.T) {
		rec := ts.do(t, http.MethodPost, gridBase+"/edit/begin", map[string]any{"row": 0, "column": "id"})
		require.Equal(t, http.StatusOK, rec.Code)
		var session grid.EditSession
		decodeBody(t, rec, &session)
		assert.Equal(t, grid.EditAwaitingConfirm, session.Phase)
		assert.Equal(t, grid.RiskPrimary, session.Risk)

		rec = ts.do(t, http.MethodPost, gridBase+"/edit/commit", map[string]any{"row": 0, "column": "id"})
		assert.Equal(t, http.StatusConflict, rec.Code)
		assert.Contains(t, errorBody(t, rec), "confirmation required")

		rec = ts.do(t, http.MethodPost, gridBase+"/edit/confirm", map[string]any{"row": 0, "column": "id"})
		require.Equal(t, http.StatusOK, rec.Code)
		decodeBody(t, rec, &session)
		assert.Equal(t, grid.EditEditing, session.Phase)

		rec = ts.do(t, http.MethodPost, gridBase+"/edit/cancel", map[string]any{"row": 0, "column": "id"})
		assert.Equal(t, http.StatusNoContent, rec.Code)
	})

	t.Run("foreign key warns", func(t *testing.T) {
		rec := ts.do(t, http.MethodPost, gridBase+"/edit/begin", map[string]any{"row": 0, "column": "company_id"})
		require.Equal(t, http.StatusOK, rec.Code)
		var session grid.EditSession
		decodeBody(t, rec, &session)
		assert.Equal(t, grid.RiskForeign, session.Risk)

		rec = ts.do(t, http.MethodPost, gridBase+"/edit/cancel", map[string]any{"row": 0, "column": "company_id"})
		assert.Equal(t, http.StatusNoContent, rec.Code)
	})

	t.Run("invalid JSON keeps the session open", func(t *testing.T) {
		rec := ts.do(t, http.MethodPost, gridBase+"/edit/begin", map[string]any{"row": 1, "column": "name"})
		require.Equal(t, http.StatusOK, rec.Code)

		rec = ts.do(t, http.MethodPost, gridBase+"/edit/stage", map[string]any{"row": 1, "column": "name", "text": "{oops"})
		require.Equal(t, http.StatusOK, rec.Code)

		rec = ts.do(t, http.MethodPost, gridBase+"/edit/commit", map[string]any{"row": 1, "column": "name"})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, errorBody(t, rec), "invalid JSON")

		// The staged text survives the failed parse.
		rec = ts.do(t, http.MethodPost, gridBase+"/edit/stage", map[string]any{"row": 1, "column": "name", "text": "bobby"})
		var session grid.EditSession
		require.Equal(t, http.StatusOK, rec.Code)
		decodeBody(t, rec, &session)
		assert.Equal(t, "bobby", session.Staged)

		rec = ts.do(t, http.MethodPost, gridBase+"/edit/cancel", map[string]any{"row": 1, "column": "name"})
		assert.Equal(t, http.StatusNoContent, rec.Code)
	})

	t.Run("row out of range", func(t *testing.T) {
		rec := ts.do(t, http.MethodPost, gridBase+"/edit/begin", map[string]any{"row": 99, "column": "name"})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("commit without session", func(t *testing.T) {
		rec := ts.do(t, http.MethodPost, gridBase+"/edit/commit", map[string]any{"row": 2, "column": "name"})
		assert.Equal(t, http.StatusConflict, rec.Code)
		assert.Contains(t, errorBody(t, rec), "no edit in progress")
	})
}

func TestGridRowOperations(t *testing.T) {
	ts := newTestServer(t)

	t.Run("insert", func(t *testing.T) {
		rec := ts.do(t, http.MethodPost, gridBase+"/rows", map[string]any{
			"values": map[string]any{"id": 4, "name": "dave", "balance": 10},
		})
		v := gridViewOf(t, rec, http.StatusCreated)
		assert.Equal(t, int64(4), v.Page.TotalRows)
		assert.Equal(t, "dave", v.Page.Rows[3].Get("name").String())
	})

	t.Run("insert unknown column", func(t *testing.T) {
		rec := ts.do(t, http.MethodPost, gridBase+"/rows", map[string]any{
			"values": map[string]any{"ghost": 1},
		})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("select and delete", func(t *testing.T) {
		rec := ts.do(t, http.MethodPost, gridBase+"/select", map[string]any{"row": 3})
		require.Equal(t, http.StatusOK, rec.Code)
		var sel map[string][]int
		decodeBody(t, rec, &sel)
		assert.Equal(t, []int{3}, sel["selected"])

		rec = ts.do(t, http.MethodDelete, gridBase+"/rows", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		var resp struct {
			Deleted int      `json:"deleted"`
			View    gridView `json:"view"`
		}
		decodeBody(t, rec, &resp)
		assert.Equal(t, 1, resp.Deleted)
		assert.Equal(t, int64(3), resp.View.Page.TotalRows)
	})

	t.Run("deselect and clear", func(t *testing.T) {
		rec := ts.do(t, http.MethodPost, gridBase+"/select", map[string]any{"row": 0})
		require.Equal(t, http.StatusOK, rec.Code)

		rec = ts.do(t, http.MethodPost, gridBase+"/deselect", map[string]any{"row": 0})
		require.Equal(t, http.StatusOK, rec.Code)
		var sel map[string][]int
		decodeBody(t, rec, &sel)
		assert.Empty(t, sel["selected"])

		rec = ts.do(t, http.MethodPost, gridBase+"/select", map[string]any{"row": 1})
		require.Equal(t, http.StatusOK, rec.Code)
		rec = ts.do(t, http.MethodPost, gridBase+"/selection/clear", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		decodeBody(t, rec, &sel)
		assert.Empty(t, sel["selected"])
	})

	t.Run("delete without selection removes nothing", func(t *testing.T) {
		rec := ts.do(t, http.MethodDelete, gridBase+"/rows", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		var resp struct {
			Deleted int `json:"deleted"`
		}
		decodeBody(t, rec, &resp)
		assert.Equal(t, 0, resp.Deleted)
	})
}

func TestGridExportImport(t *testing.T) {
	ts := newTestServer(t)

	t.Run("export with header", func(t *testing.T) {
		rec := ts.do(t, http.MethodGet, gridBase+"/export", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Header().Get("Content-Type"), "text/csv")
		assert.Contains(t, rec.Header().Get("Content-Disposition"), "users.csv")

		body := rec.Body.String()
		assert.True(t, strings.HasPrefix(body, "id,name,balance,company_id"))
		assert.Contains(t, body, "1,alice,100.5,1")
		assert.Contains(t, body, "3,carol,,")
	})

	t.Run("export without header", func(t *testing.T) {
		rec := ts.do(t, http.MethodGet, gridBase+"/export?header=false", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.True(t, strings.HasPrefix(rec.Body.String(), "1,alice"))
	})

	t.Run("export selected rows only", func(t *testing.T) {
		rec := ts.do(t, http.MethodPost, gridBase+"/select", map[string]any{"row": 1})
		require.Equal(t, http.StatusOK, rec.Code)

		rec = ts.do(t, http.MethodGet, gridBase+"/export", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		body := rec.Body.String()
		assert.Contains(t, body, "bob")
		assert.NotContains(t, body, "alice")

		rec = ts.do(t, http.MethodPost, gridBase+"/selection/clear", nil)
		require.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("import", func(t *testing.T) {
		rec := ts.do(t, http.MethodPost, gridBase+"/import", map[string]any{
			"text": "name,balance\neve,77\nfrank,88\n",
		})
		require.Equal(t, http.StatusOK, rec.Code)

		var report grid.ImportReport
		decodeBody(t, rec, &report)
		assert.Equal(t, 2, report.Inserted)
		assert.Equal(t, 0, report.Failed)

		rec = ts.do(t, http.MethodGet, gridBase, nil)
		v := gridViewOf(t, rec, http.StatusOK)
		assert.Equal(t, int64(5), v.Page.TotalRows)
	})
}

func TestGridResolveCell(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodGet, gridBase, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	t.Run("foreign key cell", func(t *testing.T) {
		rec := ts.do(t, http.MethodPost, gridBase+"/resolve", map[string]any{"row": 0, "column": "company_id"})
		require.Equal(t, http.StatusOK, rec.Code)

		var target core.RelationTarget
		decodeBody(t, rec, &target)
		assert.Equal(t, "main", target.Schema)
		assert.Equal(t, "companies", target.Table)
		assert.Equal(t, "id", target.Column)
		assert.Equal(t, "1", target.Value.String())
	})

	t.Run("column without relation", func(t *testing.T) {
		rec := ts.do(t, http.MethodPost, gridBase+"/resolve", map[string]any{"row": 0, "column": "name"})
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestGridReadOnlyConnection(t *testing.T) {
	ts := newTestServer(t)
	ctx := context.Background()

	ro, err := ts.registry.Open(ctx, "ro", core.ConnConfig{Type: "sqlite", ReadOnly: true})
	require.NoError(t, err)
	require.NoError(t, ro.Adapter().Exec(ctx, `CREATE TABLE notes (id INTEGER PRIMARY KEY, body TEXT)`))
	require.NoError(t, ro.Adapter().Exec(ctx, `INSERT INTO notes (id, body) VALUES (1, 'hello')`))

	base := "/api/v1/connections/ro/schemas/main/tables/notes/grid"

	rec := ts.do(t, http.MethodGet, base, nil)
	v := gridViewOf(t, rec, http.StatusOK)
	assert.True(t, v.ReadOnly)
	assert.Equal(t, int64(1), v.Page.TotalRows)

	rec = ts.do(t, http.MethodPost, base+"/rows", map[string]any{
		"values": map[string]any{"body": "nope"},
	})
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, errorBody(t, rec), "read only")
}
