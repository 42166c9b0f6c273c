package server

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
)

func (s *Server) handleListSchemas(w http.ResponseWriter, r *http.Request) {
	c, err := s.connFromRequest(r)
	if err != nil {
		s.writeError(w, http.StatusNotFound, err)
		return
	}

	schemas, err := c.Adapter().ListSchemas(r.Context())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, fmt.Errorf("failed to list schemas: %w", err))
		return
	}
	s.writeJSON(w, http.StatusOK, map[string][]string{"schemas": schemas})
}

func (s *Server) handleListTables(w http.ResponseWriter, r *http.Request) {
	c, err := s.connFromRequest(r)
	if err != nil {
		s.writeError(w, http.StatusNotFound, err)
		return
	}

	schema := chi.URLParam(r, "schema")
	tables, err := c.Adapter().ListTables(r.Context(), schema)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, fmt.Errorf("failed to list tables: %w", err))
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"schema": schema, "tables": tables})
}

func (s *Server) handleTableColumns(w http.ResponseWriter, r *http.Request) {
	c, err := s.connFromRequest(r)
	if err != nil {
		s.writeError(w, http.StatusNotFound, err)
		return
	}

	schema := chi.URLParam(r, "schema")
	table := chi.URLParam(r, "table")
	columns, err := c.Adapter().TableColumns(r.Context(), schema, table)
	if err != nil {
		s.writeError(w, lookupStatus(err), err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"schema": schema, "table": table, "columns": columns})
}

// handleQuery runs a free-form statement for the SQL console. The
// statement text is the user's own; failures come back as client errors
// with the driver's message.
func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	c, err := s.connFromRequest(r)
	if err != nil {
		s.writeError(w, http.StatusNotFound, err)
		return
	}

	var req struct {
		SQL string `json:"sql"`
	}
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	if req.SQL == "" {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("sql is required"))
		return
	}

	result, err := c.Adapter().Query(r.Context(), req.SQL)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	s.writeJSON(w, http.StatusOK, result)
}
