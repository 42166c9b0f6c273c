package server

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/relgrid-labs/relgrid/internal/conn"
	"github.com/relgrid-labs/relgrid/pkg/core"
	"github.com/relgrid-labs/relgrid/pkg/grid"
)

// viewOptions flattens grid.Options for the wire.
type viewOptions struct {
	core.QueryOptions
	TotalPages int `json:"total_pages"`
}

// gridView is the complete view state of one table session, returned by
// the view endpoint and by every transition that refetches the page.
type gridView struct {
	Connection string              `json:"connection"`
	Schema     string              `json:"schema"`
	Table      string              `json:"table"`
	ReadOnly   bool                `json:"read_only"`
	Options    viewOptions         `json:"options"`
	Page       *core.Page          `json:"page"`
	Columns    []core.ColumnConfig `json:"columns"`
	Display    []string            `json:"display_columns"`
	Search     grid.SearchState    `json:"search"`
	Selected   []int               `json:"selected"`
	PageSizes  []int               `json:"page_sizes"`
}

// gridRef bundles the resolved connection and grid session of one
// request.
type gridRef struct {
	conn   *conn.Conn
	grid   *grid.Grid
	schema string
	table  string
}

func (ref gridRef) view() gridView {
	opts := ref.grid.Options()
	return gridView{
		Connection: ref.conn.ID(),
		Schema:     ref.schema,
		Table:      ref.table,
		ReadOnly:   ref.conn.ReadOnly(),
		Options:    viewOptions{QueryOptions: opts.QueryOptions, TotalPages: opts.TotalPages},
		Page:       ref.grid.Page(),
		Columns:    ref.grid.ColumnConfigs(),
		Display:    ref.grid.DisplayColumns(),
		Search:     ref.grid.SearchState(),
		Selected:   ref.grid.SelectedRows(),
		PageSizes:  core.PageSizes,
	}
}

// gridFromRequest resolves the connection and the grid session for the
// request, creating the session and loading its first page on demand. On
// failure the error response has been written and ok is false.
func (s *Server) gridFromRequest(w http.ResponseWriter, r *http.Request) (gridRef, bool) {
	c, err := s.connFromRequest(r)
	if err != nil {
		s.writeError(w, http.StatusNotFound, err)
		return gridRef{}, false
	}

	schema := chi.URLParam(r, "schema")
	table := chi.URLParam(r, "table")
	g, err := s.sessions.getOrCreate(c, schema, table)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return gridRef{}, false
	}

	if g.Page() == nil {
		if err := g.Load(r.Context()); err != nil && !errors.Is(err, grid.ErrStaleFetch) {
			s.writeError(w, fetchStatus(err), err)
			return gridRef{}, false
		}
	}
	return gridRef{conn: c, grid: g, schema: schema, table: table}, true
}

func (s *Server) handleGridView(w http.ResponseWriter, r *http.Request) {
	ref, ok := s.gridFromRequest(w, r)
	if !ok {
		return
	}
	s.writeJSON(w, http.StatusOK, ref.view())
}

func (s *Server) handleGridRefresh(w http.ResponseWriter, r *http.Request) {
	ref, ok := s.gridFromRequest(w, r)
	if !ok {
		return
	}
	if err := ref.grid.Load(r.Context()); err != nil && !errors.Is(err, grid.ErrStaleFetch) {
		s.writeError(w, fetchStatus(err), err)
		return
	}
	s.writeJSON(w, http.StatusOK, ref.view())
}

func (s *Server) handleGridPage(w http.ResponseWriter, r *http.Request) {
	ref, ok := s.gridFromRequest(w, r)
	if !ok {
		return
	}
	var req struct {
		Page int `json:"page"`
	}
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := ref.grid.GoToPage(r.Context(), req.Page); err != nil && !errors.Is(err, grid.ErrStaleFetch) {
		s.writeError(w, fetchStatus(err), err)
		return
	}
	s.writeJSON(w, http.StatusOK, ref.view())
}

func (s *Server) handleGridPageSize(w http.ResponseWriter, r *http.Request) {
	ref, ok := s.gridFromRequest(w, r)
	if !ok {
		return
	}
	var req struct {
		Size int `json:"size"`
	}
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	if !core.ValidPageSize(req.Size) {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("page size %d is not offered", req.Size))
		return
	}
	if err := ref.grid.SetPageSize(r.Context(), req.Size); err != nil && !errors.Is(err, grid.ErrStaleFetch) {
		s.writeError(w, fetchStatus(err), err)
		return
	}
	s.writeJSON(w, http.StatusOK, ref.view())
}

func (s *Server) handleGridSort(w http.ResponseWriter, r *http.Request) {
	ref, ok := s.gridFromRequest(w, r)
	if !ok {
		return
	}
	var req struct {
		Column string `json:"column"`
	}
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	if req.Column == "" {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("column is required"))
		return
	}
	if err := ref.grid.ToggleSort(r.Context(), req.Column); err != nil && !errors.Is(err, grid.ErrStaleFetch) {
		s.writeError(w, fetchStatus(err), err)
		return
	}
	s.writeJSON(w, http.StatusOK, ref.view())
}

func (s *Server) handleGridFilters(w http.ResponseWriter, r *http.Request) {
	ref, ok := s.gridFromRequest(w, r)
	if !ok {
		return
	}
	var req struct {
		Filters []core.FilterCondition `json:"filters"`
	}
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}

	var err error
	if len(req.Filters) == 0 {
		err = ref.grid.ClearFilters(r.Context())
	} else {
		err = ref.grid.SetFilters(r.Context(), req.Filters)
	}
	if err != nil && !errors.Is(err, grid.ErrStaleFetch) {
		// A failed validation never reached the database; only genuine
		// fetch failures are the server's fault.
		st := http.StatusBadRequest
		if strings.Contains(err.Error(), "failed to fetch page") {
			st = http.StatusInternalServerError
		}
		s.writeError(w, st, err)
		return
	}
	s.writeJSON(w, http.StatusOK, ref.view())
}

func (s *Server) handleGridSearch(w http.ResponseWriter, r *http.Request) {
	ref, ok := s.gridFromRequest(w, r)
	if !ok {
		return
	}
	var req struct {
		Query string `json:"query"`
	}
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}

	var state grid.SearchState
	if req.Query == "" {
		state = ref.grid.ClearSearch()
	} else {
		state = ref.grid.Search(req.Query)
	}
	s.writeJSON(w, http.StatusOK, state)
}

func (s *Server) handleGridSearchNext(w http.ResponseWriter, r *http.Request) {
	ref, ok := s.gridFromRequest(w, r)
	if !ok {
		return
	}
	s.writeJSON(w, http.StatusOK, ref.grid.NextMatch())
}

func (s *Server) handleGridSearchPrev(w http.ResponseWriter, r *http.Request) {
	ref, ok := s.gridFromRequest(w, r)
	if !ok {
		return
	}
	s.writeJSON(w, http.StatusOK, ref.grid.PrevMatch())
}

func (s *Server) columnsPayload(ref gridRef) map[string]any {
	return map[string]any{
		"columns":         ref.grid.ColumnConfigs(),
		"display_columns": ref.grid.DisplayColumns(),
	}
}

func (s *Server) handleGridColumns(w http.ResponseWriter, r *http.Request) {
	ref, ok := s.gridFromRequest(w, r)
	if !ok {
		return
	}
	s.writeJSON(w, http.StatusOK, s.columnsPayload(ref))
}

func (s *Server) handleGridColumnToggle(w http.ResponseWriter, r *http.Request) {
	ref, ok := s.gridFromRequest(w, r)
	if !ok {
		return
	}
	var req struct {
		Column string `json:"column"`
	}
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := ref.grid.ToggleColumn(req.Column); err != nil {
		s.writeError(w, errStatus(err), err)
		return
	}
	s.writeJSON(w, http.StatusOK, s.columnsPayload(ref))
}

func (s *Server) handleGridColumnMove(w http.ResponseWriter, r *http.Request) {
	ref, ok := s.gridFromRequest(w, r)
	if !ok {
		return
	}
	var req struct {
		Column string `json:"column"`
		To     int    `json:"to"`
	}
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := ref.grid.MoveColumn(req.Column, req.To); err != nil {
		s.writeError(w, errStatus(err), err)
		return
	}
	s.writeJSON(w, http.StatusOK, s.columnsPayload(ref))
}

// cellRequest addresses one cell of the loaded page.
type cellRequest struct {
	Row    int    `json:"row"`
	Column string `json:"column"`
	Text   string `json:"text"`
}

func (s *Server) handleEditBegin(w http.ResponseWriter, r *http.Request) {
	ref, ok := s.gridFromRequest(w, r)
	if !ok {
		return
	}
	var req cellRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	session, err := ref.grid.BeginEdit(req.Row, req.Column)
	if err != nil {
		s.writeError(w, errStatus(err), err)
		return
	}
	s.writeJSON(w, http.StatusOK, session)
}

func (s *Server) handleEditConfirm(w http.ResponseWriter, r *http.Request) {
	ref, ok := s.gridFromRequest(w, r)
	if !ok {
		return
	}
	var req cellRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	session, err := ref.grid.ConfirmEdit(req.Row, req.Column)
	if err != nil {
		s.writeError(w, errStatus(err), err)
		return
	}
	s.writeJSON(w, http.StatusOK, session)
}

func (s *Server) handleEditStage(w http.ResponseWriter, r *http.Request) {
	ref, ok := s.gridFromRequest(w, r)
	if !ok {
		return
	}
	var req cellRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	session, err := ref.grid.SetStaged(req.Row, req.Column, req.Text)
	if err != nil {
		s.writeError(w, errStatus(err), err)
		return
	}
	s.writeJSON(w, http.StatusOK, session)
}

func (s *Server) handleEditCommit(w http.ResponseWriter, r *http.Request) {
	ref, ok := s.gridFromRequest(w, r)
	if !ok {
		return
	}
	var req cellRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := ref.grid.CommitEdit(r.Context(), req.Row, req.Column); err != nil {
		s.writeError(w, errStatus(err), err)
		return
	}
	s.writeJSON(w, http.StatusOK, ref.view())
}

func (s *Server) handleEditCancel(w http.ResponseWriter, r *http.Request) {
	ref, ok := s.gridFromRequest(w, r)
	if !ok {
		return
	}
	var req cellRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := ref.grid.CancelEdit(req.Row, req.Column); err != nil {
		s.writeError(w, errStatus(err), err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleInsertRow(w http.ResponseWriter, r *http.Request) {
	ref, ok := s.gridFromRequest(w, r)
	if !ok {
		return
	}
	var req struct {
		Values map[string]core.Value `json:"values"`
	}
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	if len(req.Values) == 0 {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("values are required"))
		return
	}
	if err := ref.grid.InsertRow(r.Context(), req.Values); err != nil {
		s.writeError(w, errStatus(err), err)
		return
	}
	s.writeJSON(w, http.StatusCreated, ref.view())
}

func (s *Server) handleDeleteSelected(w http.ResponseWriter, r *http.Request) {
	ref, ok := s.gridFromRequest(w, r)
	if !ok {
		return
	}
	deleted, err := ref.grid.DeleteSelected(r.Context())
	if err != nil && deleted == 0 {
		s.writeError(w, errStatus(err), err)
		return
	}

	resp := map[string]any{"deleted": deleted, "view": ref.view()}
	if err != nil {
		resp["error"] = err.Error()
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSelectRow(w http.ResponseWriter, r *http.Request) {
	ref, ok := s.gridFromRequest(w, r)
	if !ok {
		return
	}
	var req cellRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := ref.grid.SelectRow(req.Row); err != nil {
		s.writeError(w, errStatus(err), err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string][]int{"selected": ref.grid.SelectedRows()})
}

func (s *Server) handleDeselectRow(w http.ResponseWriter, r *http.Request) {
	ref, ok := s.gridFromRequest(w, r)
	if !ok {
		return
	}
	var req cellRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	ref.grid.DeselectRow(req.Row)
	s.writeJSON(w, http.StatusOK, map[string][]int{"selected": ref.grid.SelectedRows()})
}

func (s *Server) handleClearSelection(w http.ResponseWriter, r *http.Request) {
	ref, ok := s.gridFromRequest(w, r)
	if !ok {
		return
	}
	ref.grid.ClearSelection()
	s.writeJSON(w, http.StatusOK, map[string][]int{"selected": {}})
}

func (s *Server) handleResolveCell(w http.ResponseWriter, r *http.Request) {
	ref, ok := s.gridFromRequest(w, r)
	if !ok {
		return
	}
	var req cellRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	target, err := ref.grid.ResolveCell(req.Row, req.Column)
	if err != nil {
		s.writeError(w, errStatus(err), err)
		return
	}
	s.writeJSON(w, http.StatusOK, target)
}

func (s *Server) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	ref, ok := s.gridFromRequest(w, r)
	if !ok {
		return
	}

	includeHeader := true
	if q := r.URL.Query().Get("header"); q != "" {
		if b, err := strconv.ParseBool(q); err == nil {
			includeHeader = b
		}
	}

	csv, err := ref.grid.ExportCSV(includeHeader)
	if err != nil {
		s.writeError(w, errStatus(err), err)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", ref.table+".csv"))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte(csv)); err != nil {
		s.logger.Error("failed to write CSV export", "error", err)
	}
}

func (s *Server) handleImportCSV(w http.ResponseWriter, r *http.Request) {
	ref, ok := s.gridFromRequest(w, r)
	if !ok {
		return
	}
	var req struct {
		Text string `json:"text"`
	}
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	report, err := ref.grid.ImportCSV(r.Context(), req.Text)
	if err != nil {
		s.writeError(w, errStatus(err), err)
		return
	}
	s.writeJSON(w, http.StatusOK, report)
}
