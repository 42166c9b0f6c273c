package config

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"

	"github.com/relgrid-labs/relgrid/pkg/core"
)

// loggerKey is used to store the logger in context.
// Shared with the cli package via LoggerKey.
type loggerKey struct{}

// Package-level koanf instance and config file tracking
var (
	k              = koanf.New(".")
	configFileUsed string
	currentConfig  *Config // Stores the loaded config for access by commands
)

// findConfigFile finds the config file to use.
// Priority: explicit path > relgrid.yaml > relgrid.yml
func findConfigFile(explicit string) string {
	if explicit != "" {
		return explicit
	}
	if _, err := os.Stat("relgrid.yaml"); err == nil {
		return "relgrid.yaml"
	}
	if _, err := os.Stat("relgrid.yml"); err == nil {
		return "relgrid.yml"
	}
	return ""
}

// ResetConfig resets the koanf instance. Used for testing.
func ResetConfig() {
	k = koanf.New(".")
	configFileUsed = ""
	currentConfig = nil
}

// LoadConfig loads configuration from file, environment variables, and flags.
// Precedence (highest to lowest): flags > env vars > config file > defaults
func LoadConfig(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	// Reset koanf for fresh load
	k = koanf.New(".")

	// 1. Load defaults
	if err := k.Load(confmap.Provider(map[string]interface{}{
		"listen":     DefaultListen,
		"state_path": DefaultStateFile,
		"log_level":  DefaultLogLevel,
		"log_format": DefaultLogFormat,
	}, "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// 2. Find and load config file
	configFileUsed = findConfigFile(cfgFile)
	if configFileUsed != "" {
		if err := k.Load(file.Provider(configFileUsed), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", configFileUsed, err)
		}
	}

	// 3. Load environment variables (RELGRID_ prefix)
	// Transform: RELGRID_STATE_PATH -> state_path
	if err := k.Load(env.Provider("RELGRID_", ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, "RELGRID_"))
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	// 4. Load flags (highest priority - overrides env vars and config file)
	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
			// Only load flags that were explicitly set
			if !f.Changed {
				return "", nil
			}
			// Transform kebab-case to snake_case for config keys
			key := strings.ReplaceAll(f.Name, "-", "_")

			// The CLI uses --state for brevity, but the config key is state_path
			if key == "state" {
				return "state_path", posflag.FlagVal(flags, f)
			}

			return key, posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	// 5. Unmarshal into Config struct
	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	// 6. Resolve the state path. A relative path from the config file
	// resolves against the file's directory; a flag value is already
	// relative to the working directory.
	if flags != nil && flags.Changed("state") {
		if v, _ := flags.GetString("state"); v != "" && v != ":memory:" {
			if abs, err := filepath.Abs(v); err == nil {
				cfg.StatePath = abs
			}
		}
	} else if configFileUsed != "" && cfg.StatePath != "" && cfg.StatePath != ":memory:" && !filepath.IsAbs(cfg.StatePath) {
		if absCfg, err := filepath.Abs(configFileUsed); err == nil {
			cfg.StatePath = filepath.Join(filepath.Dir(absCfg), cfg.StatePath)
		}
	}

	// 7. Expand environment variables in connection credentials
	for i := range cfg.Connections {
		expandConnectionEnvVars(&cfg.Connections[i])
	}

	// 8. Validate
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	// Store config for access by commands
	currentConfig = &cfg

	return &cfg, nil
}

// LoadConnections reads only the connections list from a config file.
// The server's watch loop calls this on every file change, so it works
// on a local koanf instance and leaves the process-wide config alone.
func LoadConnections(path string) (map[string]core.ConnConfig, error) {
	lk := koanf.New(".")
	if err := lk.Load(file.Provider(path), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("error reading config file %s: %w", path, err)
	}

	var conns []ConnectionConfig
	if err := lk.Unmarshal("connections", &conns); err != nil {
		return nil, fmt.Errorf("unable to decode connections: %w", err)
	}

	out := make(map[string]core.ConnConfig, len(conns))
	for i := range conns {
		expandConnectionEnvVars(&conns[i])
		if err := conns[i].Validate(); err != nil {
			return nil, err
		}
		if _, ok := out[conns[i].Name]; ok {
			return nil, fmt.Errorf("duplicate connection name %q", conns[i].Name)
		}
		out[conns[i].Name] = conns[i].ConnConfig()
	}
	return out, nil
}

// GetConfigFileUsed returns the path to the config file being used, if any.
func GetConfigFileUsed() string {
	return configFileUsed
}

// GetCurrentConfig returns the currently loaded configuration.
// This is available after LoadConfig is called.
func GetCurrentConfig() *Config {
	return currentConfig
}

// LoggerKey returns the context key used for storing the logger.
// This allows the commands package to retrieve the logger from context
// without creating an import cycle with the cli package.
func LoggerKey() interface{} {
	return loggerKey{}
}

// GetLogger retrieves the logger from the command context.
func GetLogger(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(loggerKey{}).(*slog.Logger); ok {
		return l
	}
	// Return discard logger as safe fallback
	return slog.New(slog.DiscardHandler)
}

// NewLogger builds a logger from the configured level and format.
func (c *Config) NewLogger(w *os.File) *slog.Logger {
	var level slog.Level
	switch c.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if c.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// expandEnvVars expands ${VAR} patterns in a string with environment variable values.
func expandEnvVars(s string) string {
	// Match ${VAR} pattern
	re := regexp.MustCompile(`\$\{([^}]+)\}`)
	return re.ReplaceAllStringFunc(s, func(match string) string {
		// Extract variable name from ${VAR}
		varName := match[2 : len(match)-1]
		if val := os.Getenv(varName); val != "" {
			return val
		}
		return match // Return original if not found
	})
}

// expandConnectionEnvVars expands environment variables in sensitive connection fields.
func expandConnectionEnvVars(c *ConnectionConfig) {
	c.Password = expandEnvVars(c.Password)
	c.Username = expandEnvVars(c.Username)
	c.Host = expandEnvVars(c.Host)
	c.Database = expandEnvVars(c.Database)
	c.Path = expandEnvVars(c.Path)
}
