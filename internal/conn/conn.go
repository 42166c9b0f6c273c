// Package conn manages live database connections. A Registry owns one
// Conn per open connection; each Conn wraps an adapter and carries the
// per-session metadata the grid needs, such as the cached foreign key
// snapshot.
package conn

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/relgrid-labs/relgrid/pkg/adapter"
	"github.com/relgrid-labs/relgrid/pkg/core"
)

// Conn is one open database connection. The identifying fields are
// immutable after creation; the relation cache is guarded separately so
// a slow first fetch never blocks unrelated readers.
type Conn struct {
	id      string
	name    string
	cfg     core.ConnConfig
	adapter adapter.Adapter
	logger  *slog.Logger

	relMu   sync.Mutex
	rels    []core.Relation
	relsSet bool
}

// ID returns the generated connection id.
func (c *Conn) ID() string { return c.id }

// Name returns the user-supplied connection name.
func (c *Conn) Name() string { return c.name }

// Config returns the connection settings.
func (c *Conn) Config() core.ConnConfig { return c.cfg }

// Adapter returns the underlying database adapter.
func (c *Conn) Adapter() adapter.Adapter { return c.adapter }

// ReadOnly reports whether the connection was opened read only.
func (c *Conn) ReadOnly() bool { return c.cfg.ReadOnly }

// Fetcher returns the paged read interface for this connection.
func (c *Conn) Fetcher() core.PageFetcher { return c.adapter }

// Mutator returns the write interface for this connection, or nil when
// the connection is read only. The grid treats a nil mutator as read
// only and rejects every write.
func (c *Conn) Mutator() core.RowMutator {
	if c.cfg.ReadOnly {
		return nil
	}
	return c.adapter
}

// Relations returns the foreign key edges of the connected database.
// The first successful fetch is cached for the lifetime of the
// connection; a failed fetch is retried on the next call. Concurrent
// first calls are serialized so the database is asked once.
func (c *Conn) Relations(ctx context.Context) ([]core.Relation, error) {
	c.relMu.Lock()
	defer c.relMu.Unlock()
	if c.relsSet {
		return c.rels, nil
	}
	rels, err := c.adapter.Relations(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load relations: %w", err)
	}
	c.rels = rels
	c.relsSet = true
	c.logger.Debug("relation snapshot cached", "connection", c.name, "edges", len(rels))
	return rels, nil
}

var _ core.RelationSource = (*Conn)(nil)
