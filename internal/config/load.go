package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/termgate/termgate/internal/clog"
	"github.com/termgate/termgate/internal/pathutil"
)

// DefaultPath returns the default config file path following XDG
// conventions: ~/.config/termgate/config.yaml.
func DefaultPath() string {
	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			home = "."
		}
		configDir = filepath.Join(home, ".config")
	}
	return filepath.Join(configDir, "termgate", "config.yaml")
}

// Load loads the configuration from path. An empty path selects
// DefaultPath(). A missing file is not an error: defaults are returned.
// A file that exists but cannot be read, parsed, or validated is an error.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultPath()
	}
	clog.Debug("config: loading from %s", path)

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			clog.Debug("config: file not found, using defaults")
			return DefaultConfig(), nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	ApplyDefaults(cfg)
	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	cfg.Server.AuditLog = pathutil.ExpandHome(cfg.Server.AuditLog)
	cfg.Log.File = pathutil.ExpandHome(cfg.Log.File)
	return cfg, nil
}

// CommandTimeout returns the parsed command timeout.
// Validate guarantees the duration parses; a zero value falls back to the
// default.
func (c *Config) CommandTimeout() time.Duration {
	d, err := time.ParseDuration(c.Server.CommandTimeout)
	if err != nil || d <= 0 {
		d, _ = time.ParseDuration(DefaultCommandTimeout)
	}
	return d
}

// ConfirmationTTL returns the parsed confirmation approval window.
func (c *Config) ConfirmationTTL() time.Duration {
	d, err := time.ParseDuration(c.Server.ConfirmationTTL)
	if err != nil || d <= 0 {
		d, _ = time.ParseDuration(DefaultConfirmationTTL)
	}
	return d
}
