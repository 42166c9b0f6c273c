package commands

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/relgrid-labs/relgrid/internal/cli/config"
	"github.com/relgrid-labs/relgrid/internal/conn"
	"github.com/relgrid-labs/relgrid/internal/server"
	"github.com/relgrid-labs/relgrid/pkg/core"
)

// ServeOptions holds options for the serve command.
type ServeOptions struct {
	Listen string
	Watch  bool
}

// NewServeCommand creates the serve command.
func NewServeCommand() *cobra.Command {
	opts := &ServeOptions{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the grid API server",
		Long: `Start the HTTP server backing the browser frontend.

The server opens every connection listed in relgrid.yaml, serves the
grid API under /api/v1, and persists column layouts in the preference
database. With --watch, edits to the config file add and remove
connections without a restart.`,
		Example: `  # Serve on the configured address
  relgrid serve

  # Serve on a specific address
  relgrid serve --listen 0.0.0.0:8080

  # Follow config file edits
  relgrid serve --watch`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Listen, "listen", "", "Listen address (default: 127.0.0.1:8390)")
	cmd.Flags().BoolVar(&opts.Watch, "watch", false, "Reload connections when the config file changes")

	return cmd
}

func runServe(cmd *cobra.Command, opts *ServeOptions) error {
	cfg := getConfig()
	logger := config.GetLogger(cmd.Context())

	// CLI flags override config file
	listen := cfg.Listen
	if opts.Listen != "" {
		listen = opts.Listen
	}

	store, err := openStateStore(cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to open preference store: %w", err)
	}
	defer func() { _ = store.Close() }()

	registry := conn.NewRegistry(logger)
	defer func() { _ = registry.Close() }()

	cfgPath := config.GetConfigFileUsed()
	watchPath := ""
	if opts.Watch {
		if cfgPath == "" {
			return fmt.Errorf("no config file to watch (create relgrid.yaml or pass --config)")
		}
		watchPath = cfgPath
	}

	srv := server.NewServer(server.Config{
		Registry:        registry,
		Prefs:           store,
		DefaultPageSize: cfg.PageSize(),
		Addr:            listen,
		WatchPath:       watchPath,
		LoadConnections: func() (map[string]core.ConnConfig, error) {
			// Re-read the file so watched edits take effect. Without a
			// config file the in-memory connection list is all there is.
			if cfgPath == "" {
				return cfg.ConnectionMap(), nil
			}
			return config.LoadConnections(cfgPath)
		},
		Logger: logger,
	})

	fmt.Fprintf(cmd.OutOrStdout(), "Serving grid API on http://%s\n", listen)
	fmt.Fprintln(cmd.OutOrStdout(), "Press Ctrl+C to stop")

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return srv.Serve(ctx)
}
