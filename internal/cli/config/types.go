// Package config provides configuration management for the relgrid CLI.
//
// Configuration merges four layers with fixed precedence: flags override
// RELGRID_* environment variables, which override the relgrid.yaml file,
// which overrides built-in defaults. Connection entries map onto the
// shared core.ConnConfig settings consumed by the adapter registry.
package config

import (
	"fmt"
	"strings"

	"github.com/relgrid-labs/relgrid/pkg/adapter"
	"github.com/relgrid-labs/relgrid/pkg/core"
)

// Default configuration values.
const (
	DefaultListen    = "127.0.0.1:8390"
	DefaultStateFile = ".relgrid/state.db"
	DefaultLogLevel  = "info"
	DefaultLogFormat = "text"
)

// Config holds all CLI configuration options.
type Config struct {
	Listen          string             `koanf:"listen"`
	StatePath       string             `koanf:"state_path"`
	DefaultPageSize int                `koanf:"default_page_size"`
	LogLevel        string             `koanf:"log_level"`
	LogFormat       string             `koanf:"log_format"`
	Connections     []ConnectionConfig `koanf:"connections"`
}

// ConnectionConfig is one named database connection from the config file.
// Path is for file-based engines; Host and friends are for networked ones.
// Password supports ${VAR} expansion from the environment.
type ConnectionConfig struct {
	Name     string            `koanf:"name"`
	Type     string            `koanf:"type"`
	Path     string            `koanf:"path"`
	Host     string            `koanf:"host"`
	Port     int               `koanf:"port"`
	Database string            `koanf:"database"`
	Username string            `koanf:"username"`
	Password string            `koanf:"password"`
	Schema   string            `koanf:"schema"`
	ReadOnly bool              `koanf:"read_only"`
	Options  map[string]string `koanf:"options"`
}

// ConnConfig converts the entry to the shared connection settings type.
func (c ConnectionConfig) ConnConfig() core.ConnConfig {
	return core.ConnConfig{
		Type:     strings.ToLower(c.Type),
		Path:     c.Path,
		Host:     c.Host,
		Port:     c.Port,
		Database: c.Database,
		Username: c.Username,
		Password: c.Password,
		Schema:   c.Schema,
		ReadOnly: c.ReadOnly,
		Options:  c.Options,
	}
}

// Validate checks one connection entry.
// It uses the adapter registry to determine which adapter types are available.
func (c ConnectionConfig) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("connection name is required")
	}
	if c.Type == "" {
		return fmt.Errorf("connection %q: type is required", c.Name)
	}
	if !adapter.IsRegistered(strings.ToLower(c.Type)) {
		return fmt.Errorf("connection %q: %w", c.Name, &adapter.UnknownAdapterError{
			Type:      c.Type,
			Available: adapter.ListAdapters(),
		})
	}
	return nil
}

// Validate checks the full configuration.
func (c *Config) Validate() error {
	if c.Listen == "" {
		return fmt.Errorf("listen address is required")
	}
	if c.DefaultPageSize != 0 && !core.ValidPageSize(c.DefaultPageSize) {
		return fmt.Errorf("default_page_size %d is not offered (choose from %v)", c.DefaultPageSize, core.PageSizes)
	}
	switch c.LogLevel {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log_level %q (choose debug, info, warn or error)", c.LogLevel)
	}
	switch c.LogFormat {
	case "", "text", "json":
	default:
		return fmt.Errorf("unknown log_format %q (choose text or json)", c.LogFormat)
	}

	seen := make(map[string]bool, len(c.Connections))
	for _, cc := range c.Connections {
		if err := cc.Validate(); err != nil {
			return err
		}
		if seen[cc.Name] {
			return fmt.Errorf("duplicate connection name %q", cc.Name)
		}
		seen[cc.Name] = true
	}
	return nil
}

// ConnectionMap returns the configured connections keyed by name, in the
// shape the connection registry consumes.
func (c *Config) ConnectionMap() map[string]core.ConnConfig {
	out := make(map[string]core.ConnConfig, len(c.Connections))
	for _, cc := range c.Connections {
		out[cc.Name] = cc.ConnConfig()
	}
	return out
}

// PageSize returns the configured default page size, falling back to the
// grid-wide default when unset.
func (c *Config) PageSize() int {
	if c.DefaultPageSize != 0 {
		return c.DefaultPageSize
	}
	return core.DefaultPageSize
}
