// Package commands implements the relgrid subcommands.
package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/term"

	"github.com/relgrid-labs/relgrid/internal/cli/config"
	"github.com/relgrid-labs/relgrid/internal/state"
	"github.com/relgrid-labs/relgrid/pkg/adapter"
)

// getConfig returns the current configuration.
// It uses config.GetCurrentConfig() if available, otherwise falls back to
// environment variables.
func getConfig() *config.Config {
	if cfg := config.GetCurrentConfig(); cfg != nil {
		return cfg
	}

	// Fallback: read from environment with defaults
	return &config.Config{
		Listen:    getEnvOrDefault("RELGRID_LISTEN", config.DefaultListen),
		StatePath: getEnvOrDefault("RELGRID_STATE_PATH", config.DefaultStateFile),
		LogLevel:  getEnvOrDefault("RELGRID_LOG_LEVEL", config.DefaultLogLevel),
		LogFormat: getEnvOrDefault("RELGRID_LOG_FORMAT", config.DefaultLogFormat),
	}
}

func getEnvOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

// openStateStore opens the preference database and applies pending
// migrations, creating the parent directory when needed.
func openStateStore(cfg *config.Config, logger *slog.Logger) (*state.SQLiteStore, error) {
	if cfg.StatePath != ":memory:" {
		stateDir := filepath.Dir(cfg.StatePath)
		if stateDir != "." && stateDir != "" {
			if err := os.MkdirAll(stateDir, 0750); err != nil {
				return nil, fmt.Errorf("failed to create state directory: %w", err)
			}
		}
	}

	store := state.NewSQLiteStore(logger)
	if err := store.Open(cfg.StatePath); err != nil {
		return nil, err
	}
	if err := store.Migrate(); err != nil {
		_ = store.Close()
		return nil, err
	}
	return store, nil
}

// resolveConnection picks the named connection entry, or the only one when
// no name is given.
func resolveConnection(cfg *config.Config, name string) (config.ConnectionConfig, error) {
	if len(cfg.Connections) == 0 {
		return config.ConnectionConfig{}, fmt.Errorf("no connections configured (add one to relgrid.yaml)")
	}

	if name == "" {
		if len(cfg.Connections) == 1 {
			return cfg.Connections[0], nil
		}
		return config.ConnectionConfig{}, fmt.Errorf("connection name is required (choose from: %s)", connectionNames(cfg))
	}

	for _, cc := range cfg.Connections {
		if cc.Name == name {
			return cc, nil
		}
	}
	return config.ConnectionConfig{}, fmt.Errorf("connection %q is not configured (choose from: %s)", name, connectionNames(cfg))
}

func connectionNames(cfg *config.Config) string {
	names := make([]string, len(cfg.Connections))
	for i, cc := range cfg.Connections {
		names[i] = cc.Name
	}
	return strings.Join(names, ", ")
}

// openAdapter connects the adapter for one connection entry. Networked
// connections with no password prompt for one when stdin is a terminal.
// The returned cleanup closes the connection.
func openAdapter(ctx context.Context, cc config.ConnectionConfig, logger *slog.Logger) (adapter.Adapter, func(), error) {
	connCfg := cc.ConnConfig()

	if connCfg.Host != "" && connCfg.Password == "" && isTerminal(os.Stdin) {
		pw, err := promptPassword(fmt.Sprintf("Password for %s@%s: ", connCfg.Username, connCfg.Host))
		if err != nil {
			return nil, nil, err
		}
		connCfg.Password = pw
	}

	ad, err := adapter.NewAdapter(connCfg, logger)
	if err != nil {
		return nil, nil, err
	}
	if err := ad.Connect(ctx, connCfg); err != nil {
		return nil, nil, fmt.Errorf("failed to connect %s: %w", cc.Name, err)
	}

	cleanup := func() { _ = ad.Close() }
	return ad, cleanup, nil
}

// promptPassword reads a password from the terminal without echo.
func promptPassword(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)
	pw, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return string(pw), nil
}

func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}
