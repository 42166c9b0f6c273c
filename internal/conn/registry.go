package conn

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/relgrid-labs/relgrid/pkg/adapter"
	"github.com/relgrid-labs/relgrid/pkg/core"
)

// Sentinel errors the API layer maps to response codes.
var (
	// ErrNotFound reports that no connection matches the reference.
	ErrNotFound = errors.New("connection not found")

	// ErrNameInUse reports that the connection name is already taken.
	ErrNameInUse = errors.New("connection name already in use")
)

// Registry holds the open connections, keyed by id. Names are unique
// across the registry so connections can also be addressed by name.
type Registry struct {
	logger *slog.Logger

	mu    sync.RWMutex
	conns map[string]*Conn
}

// NewRegistry creates an empty connection registry. A nil logger
// discards log output.
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Registry{
		logger: logger,
		conns:  make(map[string]*Conn),
	}
}

// Open creates the adapter for cfg, connects it, and registers the
// connection under name. The adapter is closed again when the name is
// already taken.
func (r *Registry) Open(ctx context.Context, name string, cfg core.ConnConfig) (*Conn, error) {
	if name == "" {
		return nil, fmt.Errorf("connection name is required")
	}

	ad, err := adapter.NewAdapter(cfg, r.logger)
	if err != nil {
		return nil, err
	}
	if err := ad.Connect(ctx, cfg); err != nil {
		return nil, fmt.Errorf("failed to connect %s: %w", name, err)
	}

	c := &Conn{
		id:      uuid.New().String(),
		name:    name,
		cfg:     cfg,
		adapter: ad,
		logger:  r.logger,
	}

	r.mu.Lock()
	for _, existing := range r.conns {
		if existing.name == name {
			r.mu.Unlock()
			_ = ad.Close()
			return nil, fmt.Errorf("%w: %q", ErrNameInUse, name)
		}
	}
	r.conns[c.id] = c
	r.mu.Unlock()

	r.logger.Info("connection opened", "name", name, "type", cfg.Type, "id", c.id)
	return c, nil
}

// Get returns the connection with the given id.
func (r *Registry) Get(id string) (*Conn, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.conns[id]
	return c, ok
}

// Lookup resolves ref as a connection id first and a connection name
// second. The API addresses connections by id, the CLI by name.
func (r *Registry) Lookup(ref string) (*Conn, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if c, ok := r.conns[ref]; ok {
		return c, true
	}
	for _, c := range r.conns {
		if c.name == ref {
			return c, true
		}
	}
	return nil, false
}

// List returns the open connections sorted by name.
func (r *Registry) List() []*Conn {
	r.mu.RLock()
	defer r.mu.RUnlock()
	conns := make([]*Conn, 0, len(r.conns))
	for _, c := range r.conns {
		conns = append(conns, c)
	}
	sort.Slice(conns, func(i, j int) bool { return conns[i].name < conns[j].name })
	return conns
}

// Remove closes a connection and drops it from the registry.
func (r *Registry) Remove(id string) error {
	r.mu.Lock()
	c, ok := r.conns[id]
	if ok {
		delete(r.conns, id)
	}
	r.mu.Unlock()

	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err := c.adapter.Close(); err != nil {
		return fmt.Errorf("failed to close connection %s: %w", c.name, err)
	}
	r.logger.Info("connection closed", "name", c.name, "id", c.id)
	return nil
}

// Close closes every open connection. All close errors are reported.
func (r *Registry) Close() error {
	r.mu.Lock()
	conns := r.conns
	r.conns = make(map[string]*Conn)
	r.mu.Unlock()

	var errs []error
	for _, c := range conns {
		if err := c.adapter.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close connection %s: %w", c.name, err))
		}
	}
	return errors.Join(errs...)
}
