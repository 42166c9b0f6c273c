// Package server exposes the grid engine over a JSON HTTP API for the
// browser frontend. Every route lives under /api/v1; responses are JSON
// bodies, or {"error": message} on failure, except the CSV export which
// answers text/csv.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/relgrid-labs/relgrid/internal/conn"
	"github.com/relgrid-labs/relgrid/pkg/core"
)

// Server serves the HTTP API. It owns the grid session map; connections
// and preferences are shared with the CLI through the registry and the
// preference store.
type Server struct {
	registry  *conn.Registry
	sessions  *sessionMap
	addr      string
	watchPath string
	loadConns func() (map[string]core.ConnConfig, error)
	logger    *slog.Logger
}

// Config holds configuration for the API server.
type Config struct {
	// Registry is the shared connection registry. Required.
	Registry *conn.Registry

	// Prefs persists column configuration. Optional; without it column
	// layouts last for the session only.
	Prefs core.PreferenceStore

	// DefaultPageSize is the rows-per-page for new grid sessions. Zero
	// means the grid default.
	DefaultPageSize int

	// Addr is the listen address, for example "127.0.0.1:8390".
	Addr string

	// WatchPath names the config file whose changes re-sync the
	// connections list. Empty disables watching.
	WatchPath string

	// LoadConnections re-reads the configured connections, keyed by
	// name. Called at startup and on every watched config change.
	LoadConnections func() (map[string]core.ConnConfig, error)

	Logger *slog.Logger
}

// NewServer creates a new API server instance.
func NewServer(cfg Config) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Server{
		registry:  cfg.Registry,
		sessions:  newSessionMap(cfg.Prefs, cfg.DefaultPageSize, logger),
		addr:      cfg.Addr,
		watchPath: cfg.WatchPath,
		loadConns: cfg.LoadConnections,
		logger:    logger,
	}
}

// Serve starts the API server and blocks until the context is cancelled.
func (s *Server) Serve(ctx context.Context) error {
	s.logger.Info("starting API server", "addr", s.addr)

	if err := s.syncConnections(ctx); err != nil {
		s.logger.Warn("failed to sync connections", "error", err)
	}

	eg, egctx := errgroup.WithContext(ctx)

	srv := &http.Server{
		Addr:    s.addr,
		Handler: s.routes(),
		BaseContext: func(_ net.Listener) context.Context {
			return egctx
		},
		ReadHeaderTimeout: 10 * time.Second,
	}

	if s.watchPath != "" {
		eg.Go(func() error {
			return s.watchConfig(egctx)
		})
	}

	eg.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	eg.Go(func() error {
		<-egctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.logger.Debug("shutting down API server...")
		return srv.Shutdown(shutdownCtx)
	})

	return eg.Wait()
}

// routes builds the chi router for the API.
func (s *Server) routes() chi.Router {
	r := chi.NewMux()
	r.Use(
		middleware.Logger,
		middleware.Recoverer,
		middleware.Compress(5),
	)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/adapters", s.handleListAdapters)

		r.Route("/connections", func(r chi.Router) {
			r.Get("/", s.handleListConnections)
			r.Post("/", s.handleOpenConnection)

			r.Route("/{conn}", func(r chi.Router) {
				r.Get("/", s.handleGetConnection)
				r.Delete("/", s.handleRemoveConnection)
				r.Post("/query", s.handleQuery)
				r.Get("/schemas", s.handleListSchemas)

				r.Route("/schemas/{schema}", func(r chi.Router) {
					r.Get("/tables", s.handleListTables)

					r.Route("/tables/{table}", func(r chi.Router) {
						r.Get("/columns", s.handleTableColumns)
						r.Route("/grid", s.gridRoutes)
					})
				})
			})
		})
	})

	return r
}

// gridRoutes registers the per-table grid session endpoints.
func (s *Server) gridRoutes(r chi.Router) {
	r.Get("/", s.handleGridView)
	r.Post("/refresh", s.handleGridRefresh)
	r.Post("/page", s.handleGridPage)
	r.Post("/page-size", s.handleGridPageSize)
	r.Post("/sort", s.handleGridSort)
	r.Post("/filters", s.handleGridFilters)

	r.Post("/search", s.handleGridSearch)
	r.Post("/search/next", s.handleGridSearchNext)
	r.Post("/search/prev", s.handleGridSearchPrev)

	r.Get("/columns", s.handleGridColumns)
	r.Post("/columns/toggle", s.handleGridColumnToggle)
	r.Post("/columns/move", s.handleGridColumnMove)

	r.Post("/edit/begin", s.handleEditBegin)
	r.Post("/edit/confirm", s.handleEditConfirm)
	r.Post("/edit/stage", s.handleEditStage)
	r.Post("/edit/commit", s.handleEditCommit)
	r.Post("/edit/cancel", s.handleEditCancel)

	r.Post("/rows", s.handleInsertRow)
	r.Delete("/rows", s.handleDeleteSelected)
	r.Post("/select", s.handleSelectRow)
	r.Post("/deselect", s.handleDeselectRow)
	r.Post("/selection/clear", s.handleClearSelection)

	r.Post("/resolve", s.handleResolveCell)
	r.Get("/export", s.handleExportCSV)
	r.Post("/import", s.handleImportCSV)
}

// syncConnections reconciles the registry against the configured
// connections: missing names are opened, vanished names are closed and
// their grid sessions evicted. Connections whose name survives are left
// untouched, even if their settings changed.
func (s *Server) syncConnections(ctx context.Context) error {
	if s.loadConns == nil {
		return nil
	}
	want, err := s.loadConns()
	if err != nil {
		return fmt.Errorf("failed to load connections: %w", err)
	}

	for name, cfg := range want {
		if _, ok := s.registry.Lookup(name); ok {
			continue
		}
		if _, err := s.registry.Open(ctx, name, cfg); err != nil {
			s.logger.Warn("failed to open connection", "name", name, "error", err)
		}
	}

	for _, c := range s.registry.List() {
		if _, ok := want[c.Name()]; ok {
			continue
		}
		s.sessions.evictConn(c.ID())
		if err := s.registry.Remove(c.ID()); err != nil {
			s.logger.Warn("failed to close connection", "name", c.Name(), "error", err)
		}
	}
	return nil
}

// watchConfig watches the config file and re-syncs connections on change.
func (s *Server) watchConfig(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer func() { _ = watcher.Close() }()

	// Watch the directory: editors replace the file on save, which would
	// silently detach a watch on the file itself.
	dir := filepath.Dir(s.watchPath)
	if err := watcher.Add(dir); err != nil {
		s.logger.Error("failed to watch config directory", "dir", dir, "error", err)
		return nil
	}

	base := filepath.Base(s.watchPath)
	var debounceTimer *time.Timer

	for {
		select {
		case <-ctx.Done():
			return nil

		case event := <-watcher.Events:
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if filepath.Base(event.Name) != base {
				continue
			}

			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.AfterFunc(100*time.Millisecond, func() {
				s.logger.Debug("config changed, syncing connections", "file", event.Name)
				if err := s.syncConnections(ctx); err != nil {
					s.logger.Error("sync failed", "error", err)
				}
			})

		case err := <-watcher.Errors:
			s.logger.Error("watcher error", "error", err)
		}
	}
}
