// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Environment represents the deployment environment.
type Environment string

const (
	// Development is for local experiments against a test homeserver.
	Development Environment = "development"
	// Production is for the deployed bot.
	Production Environment = "production"
)

// Store backends accepted by StoreConfig.Backend.
const (
	BackendMemory   = "memory"
	BackendSpool    = "spool"
	BackendPostgres = "postgres"
)

// Spool frame formats accepted by StoreConfig.SpoolCompression.
const (
	CompressionZstd = "zstd"
	CompressionLZ4  = "lz4"
)

// Config is the master configuration for draftbot.
type Config struct {
	// Environment identifies the deployment type.
	Environment Environment `yaml:"environment"`

	Matrix  MatrixConfig  `yaml:"matrix"`
	Session SessionConfig `yaml:"session"`
	Store   StoreConfig   `yaml:"store"`
	Status  StatusConfig  `yaml:"status"`
	Log     LogConfig     `yaml:"log"`

	// Per-environment overrides, applied after the base config.
	Development *ConfigOverrides `yaml:"development,omitempty"`
	Production  *ConfigOverrides `yaml:"production,omitempty"`
}

// ConfigOverrides contains fields that can be overridden per environment.
type ConfigOverrides struct {
	Store *StoreConfig `yaml:"store,omitempty"`
	Log   *LogConfig   `yaml:"log,omitempty"`
}

// MatrixConfig configures the homeserver connection.
type MatrixConfig struct {
	// HomeserverURL is the client-server API base URL.
	HomeserverURL string `yaml:"homeserver_url"`

	// UserID is the bot's own Matrix user ID. Events from this user are
	// never treated as commands.
	UserID string `yaml:"user_id"`

	// AccessToken authenticates every request. Usually given as
	// ${DRAFTBOT_ACCESS_TOKEN}.
	AccessToken string `yaml:"access_token"`

	// AutoJoin accepts room invites addressed to the bot.
	AutoJoin bool `yaml:"auto_join"`
}

// SessionConfig configures editing sessions.
type SessionConfig struct {
	// IdleTimeout bounds every wait for the user. Re-armed at each
	// wait, not a whole-session deadline. Default: 3m.
	IdleTimeout time.Duration `yaml:"idle_timeout"`

	// Command is the exact message text that starts a session.
	// Default: "!suggest create".
	Command string `yaml:"command"`
}

// StoreConfig selects where finalized drafts go.
type StoreConfig struct {
	// Backend is one of memory, spool, postgres.
	Backend string `yaml:"backend"`

	// SpoolPath is the append-only spool file (backend spool).
	SpoolPath string `yaml:"spool_path"`

	// SpoolCompression is the frame format: zstd (default) or lz4.
	// Opening an existing spool written in the other format fails.
	SpoolCompression string `yaml:"spool_compression"`

	// PostgresDSN is the connection string (backend postgres).
	PostgresDSN string `yaml:"postgres_dsn"`
}

// StatusConfig configures the read-only HTTP status API.
type StatusConfig struct {
	// Listen is the TCP address to serve on. Empty disables the API.
	Listen string `yaml:"listen"`
}

// LogConfig configures structured logging.
type LogConfig struct {
	// Level is one of debug, info, warn, error. Default: info.
	Level string `yaml:"level"`
}

// Default returns the default configuration, used as the base before
// the config file is applied.
func Default() *Config {
	return &Config{
		Environment: Development,
		Session: SessionConfig{
			IdleTimeout: 3 * time.Minute,
			Command:     "!suggest create",
		},
		Store: StoreConfig{
			Backend:          BackendMemory,
			SpoolCompression: CompressionZstd,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load loads configuration from the DRAFTBOT_CONFIG environment
// variable. Fails if the variable is not set.
func Load() (*Config, error) {
	configPath := os.Getenv("DRAFTBOT_CONFIG")
	if configPath == "" {
		return nil, fmt.Errorf("DRAFTBOT_CONFIG environment variable not set; " +
			"set it to the path of your draftbot.yaml config file, or use --config flag")
	}
	return LoadFile(configPath)
}

// LoadFile loads configuration from a specific file path.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	cfg.applyEnvironmentOverrides()
	cfg.expandVariables()

	return cfg, nil
}

// applyEnvironmentOverrides applies the section matching Environment.
func (c *Config) applyEnvironmentOverrides() {
	var overrides *ConfigOverrides
	switch c.Environment {
	case Development:
		overrides = c.Development
	case Production:
		overrides = c.Production
	}
	if overrides == nil {
		return
	}

	if overrides.Store != nil {
		if overrides.Store.Backend != "" {
			c.Store.Backend = overrides.Store.Backend
		}
		if overrides.Store.SpoolPath != "" {
			c.Store.SpoolPath = overrides.Store.SpoolPath
		}
		if overrides.Store.SpoolCompression != "" {
			c.Store.SpoolCompression = overrides.Store.SpoolCompression
		}
		if overrides.Store.PostgresDSN != "" {
			c.Store.PostgresDSN = overrides.Store.PostgresDSN
		}
	}
	if overrides.Log != nil && overrides.Log.Level != "" {
		c.Log.Level = overrides.Log.Level
	}
}

// expandVariables expands ${VAR} and ${VAR:-default} patterns in the
// fields that hold secrets and paths.
func (c *Config) expandVariables() {
	vars := map[string]string{
		"HOME": os.Getenv("HOME"),
	}
	c.Matrix.HomeserverURL = expandVars(c.Matrix.HomeserverURL, vars)
	c.Matrix.AccessToken = expandVars(c.Matrix.AccessToken, vars)
	c.Store.SpoolPath = expandVars(c.Store.SpoolPath, vars)
	c.Store.PostgresDSN = expandVars(c.Store.PostgresDSN, vars)
}

var varPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

// expandVars expands ${VAR} and ${VAR:-default} patterns. Provided vars
// take precedence over the process environment.
func expandVars(s string, vars map[string]string) string {
	return varPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := varPattern.FindStringSubmatch(match)
		if len(parts) < 2 {
			return match
		}

		name := parts[1]
		defaultValue := ""
		if len(parts) >= 3 {
			defaultValue = parts[2]
		}

		if value, ok := vars[name]; ok && value != "" {
			return value
		}
		if value := os.Getenv(name); value != "" {
			return value
		}
		return defaultValue
	})
}

// Validate checks the configuration needed by every mode (local and
// preview included). Matrix settings are checked separately by
// ValidateMatrix because only the run subcommand needs them.
func (c *Config) Validate() error {
	var errs []error

	if c.Environment != Development && c.Environment != Production {
		errs = append(errs, fmt.Errorf("invalid environment: %s", c.Environment))
	}

	if c.Session.IdleTimeout <= 0 {
		errs = append(errs, fmt.Errorf("session.idle_timeout must be positive, got %s", c.Session.IdleTimeout))
	}
	if strings.TrimSpace(c.Session.Command) == "" {
		errs = append(errs, fmt.Errorf("session.command is required"))
	}

	switch c.Store.Backend {
	case BackendMemory:
	case BackendSpool:
		if c.Store.SpoolPath == "" {
			errs = append(errs, fmt.Errorf("store.spool_path is required for the spool backend"))
		}
		switch c.Store.SpoolCompression {
		case CompressionZstd, CompressionLZ4:
		default:
			errs = append(errs, fmt.Errorf("store.spool_compression must be %s or %s, got %q",
				CompressionZstd, CompressionLZ4, c.Store.SpoolCompression))
		}
	case BackendPostgres:
		if c.Store.PostgresDSN == "" {
			errs = append(errs, fmt.Errorf("store.postgres_dsn is required for the postgres backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("store.backend must be one of: %s, %s, %s",
			BackendMemory, BackendSpool, BackendPostgres))
	}

	if _, err := c.Log.SlogLevel(); err != nil {
		errs = append(errs, err)
	}

	if c.Environment == Production && c.Store.Backend == BackendMemory {
		errs = append(errs, fmt.Errorf("store.backend %q loses submissions on restart and is not allowed in production", BackendMemory))
	}

	return errors.Join(errs...)
}

// ValidateMatrix checks the homeserver connection settings.
func (c *Config) ValidateMatrix() error {
	var errs []error

	if c.Matrix.HomeserverURL == "" {
		errs = append(errs, fmt.Errorf("matrix.homeserver_url is required"))
	} else if parsed, err := url.Parse(c.Matrix.HomeserverURL); err != nil || parsed.Scheme == "" || parsed.Host == "" {
		errs = append(errs, fmt.Errorf("matrix.homeserver_url is not an absolute URL: %q", c.Matrix.HomeserverURL))
	}
	if c.Matrix.UserID == "" {
		errs = append(errs, fmt.Errorf("matrix.user_id is required"))
	}
	if c.Matrix.AccessToken == "" {
		errs = append(errs, fmt.Errorf("matrix.access_token is required"))
	}

	return errors.Join(errs...)
}

// SlogLevel converts Level to a slog.Level. Empty means info.
func (l LogConfig) SlogLevel() (slog.Level, error) {
	switch strings.ToLower(l.Level) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("log.level must be one of: debug, info, warn, error (got %q)", l.Level)
	}
}
