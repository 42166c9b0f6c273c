package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/relgrid-labs/relgrid/internal/conn"
	"github.com/relgrid-labs/relgrid/pkg/adapter"
	"github.com/relgrid-labs/relgrid/pkg/core"
)

// connectionInfo is the wire form of one open connection. The password
// never appears; core.ConnConfig excludes it from serialization.
type connectionInfo struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Dialect  string          `json:"dialect"`
	ReadOnly bool            `json:"read_only"`
	Config   core.ConnConfig `json:"config"`
}

func connectionJSON(c *conn.Conn) connectionInfo {
	return connectionInfo{
		ID:       c.ID(),
		Name:     c.Name(),
		Dialect:  c.Adapter().Dialect().Name,
		ReadOnly: c.ReadOnly(),
		Config:   c.Config(),
	}
}

// connFromRequest resolves the {conn} URL parameter as an id or a name.
func (s *Server) connFromRequest(r *http.Request) (*conn.Conn, error) {
	ref := chi.URLParam(r, "conn")
	c, ok := s.registry.Lookup(ref)
	if !ok {
		return nil, fmt.Errorf("%w: %s", conn.ErrNotFound, ref)
	}
	return c, nil
}

func (s *Server) handleListAdapters(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string][]string{"adapters": adapter.ListAdapters()})
}

func (s *Server) handleListConnections(w http.ResponseWriter, _ *http.Request) {
	conns := s.registry.List()
	infos := make([]connectionInfo, len(conns))
	for i, c := range conns {
		infos[i] = connectionJSON(c)
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"connections": infos})
}

func (s *Server) handleOpenConnection(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name   string          `json:"name"`
		Config core.ConnConfig `json:"config"`
	}
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	if req.Name == "" {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("connection name is required"))
		return
	}

	c, err := s.registry.Open(r.Context(), req.Name, req.Config)
	if err != nil {
		var unknown *adapter.UnknownAdapterError
		switch {
		case errors.As(err, &unknown):
			s.writeError(w, http.StatusBadRequest, err)
		case errors.Is(err, conn.ErrNameInUse):
			s.writeError(w, http.StatusConflict, err)
		default:
			s.writeError(w, http.StatusBadGateway, err)
		}
		return
	}
	s.writeJSON(w, http.StatusCreated, connectionJSON(c))
}

func (s *Server) handleGetConnection(w http.ResponseWriter, r *http.Request) {
	c, err := s.connFromRequest(r)
	if err != nil {
		s.writeError(w, http.StatusNotFound, err)
		return
	}
	s.writeJSON(w, http.StatusOK, connectionJSON(c))
}

func (s *Server) handleRemoveConnection(w http.ResponseWriter, r *http.Request) {
	c, err := s.connFromRequest(r)
	if err != nil {
		s.writeError(w, http.StatusNotFound, err)
		return
	}

	s.sessions.evictConn(c.ID())
	if err := s.registry.Remove(c.ID()); err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
