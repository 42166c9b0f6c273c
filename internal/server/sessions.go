package server

import (
	"log/slog"
	"sync"

	"github.com/relgrid-labs/relgrid/internal/conn"
	"github.com/relgrid-labs/relgrid/pkg/core"
	"github.com/relgrid-labs/relgrid/pkg/grid"
)

// sessionKey identifies one grid session. Sessions are per table view;
// two clients browsing the same table share one grid.
type sessionKey struct {
	conn   string
	schema string
	table  string
}

// sessionMap holds the live grid sessions. Sessions are created on
// demand and evicted when their connection is removed.
type sessionMap struct {
	prefs    core.PreferenceStore
	pageSize int
	logger   *slog.Logger

	mu    sync.RWMutex
	grids map[sessionKey]*grid.Grid
}

func newSessionMap(prefs core.PreferenceStore, pageSize int, logger *slog.Logger) *sessionMap {
	return &sessionMap{
		prefs:    prefs,
		pageSize: pageSize,
		logger:   logger,
		grids:    make(map[sessionKey]*grid.Grid),
	}
}

// getOrCreate returns the grid session for the table, creating it on
// first use. The created grid has not loaded a page yet.
func (m *sessionMap) getOrCreate(c *conn.Conn, schema, table string) (*grid.Grid, error) {
	key := sessionKey{conn: c.ID(), schema: schema, table: table}

	m.mu.RLock()
	g, ok := m.grids[key]
	m.mu.RUnlock()
	if ok {
		return g, nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if g, ok := m.grids[key]; ok {
		return g, nil
	}

	g, err := grid.New(grid.Config{
		// Preference keys carry the connection name, not the id: ids are
		// minted per process, names survive restarts.
		ConnectionID: c.Name(),
		Schema:       schema,
		Table:        table,
		PageSize:     m.pageSize,
		Fetcher:      c.Fetcher(),
		Mutator:      c.Mutator(),
		Relations:    c,
		Prefs:        m.prefs,
		Logger:       m.logger,
	})
	if err != nil {
		return nil, err
	}
	m.grids[key] = g
	m.logger.Debug("grid session created", "connection", c.Name(), "schema", schema, "table", table)
	return g, nil
}

// evictConn drops every session belonging to a connection.
func (m *sessionMap) evictConn(connID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for key := range m.grids {
		if key.conn == connID {
			delete(m.grids, key)
		}
	}
}

// count returns the number of live sessions.
func (m *sessionMap) count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.grids)
}
