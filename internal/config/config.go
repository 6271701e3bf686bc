// Package config handles loading tasker.toml configuration files.
package config

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/BurntSushi/toml"

	"tasker/internal/store"
)

// ErrInvalid is returned when a configuration value is not acceptable.
var ErrInvalid = errors.New("invalid configuration")

// Default values used when neither a flag nor the config file sets them.
const (
	DefaultBackend  = store.BackendSQLite
	DefaultLogLevel = "warn"

	DefaultSQLitePath = "tasks.db"
	DefaultJSONPath   = "tasks.json"
)

var logLevels = []string{"debug", "info", "warn", "error"}

// Config represents the tasker.toml configuration file.
type Config struct {
	Store Store `toml:"store"`
	Log   Log   `toml:"log"`
}

// Store selects the persistence backend.
type Store struct {
	// Backend is "sqlite" or "json".
	Backend string `toml:"backend"`

	// Path is the backing file. Relative paths are resolved against the
	// working directory. Defaults to tasks.db or tasks.json.
	Path string `toml:"path"`
}

// Log configures diagnostic output on stderr.
type Log struct {
	Level string `toml:"level"`
}

// Load reads the config file at path. An empty path returns an empty config;
// a path that does not exist is an error since it was asked for explicitly.
func Load(path string) (*Config, error) {
	if path == "" {
		return &Config{}, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file %s: %w", path, err)
	}

	var cfg Config
	meta, err := toml.Decode(string(data), &cfg)
	if err != nil {
		return nil, fmt.Errorf("%w: parse config file %s: %w", ErrInvalid, path, err)
	}

	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, key := range undecoded {
			keys = append(keys, key.String())
		}
		return nil, fmt.Errorf("%w: unknown keys in %s: %s", ErrInvalid, path, strings.Join(keys, ", "))
	}

	return &cfg, nil
}

// Resolve fills unset values with defaults and validates the result.
func (c *Config) Resolve() error {
	c.Store.Backend = strings.ToLower(strings.TrimSpace(c.Store.Backend))
	if c.Store.Backend == "" {
		c.Store.Backend = DefaultBackend
	}

	switch c.Store.Backend {
	case store.BackendSQLite:
		if c.Store.Path == "" {
			c.Store.Path = DefaultSQLitePath
		}
	case store.BackendJSON:
		if c.Store.Path == "" {
			c.Store.Path = DefaultJSONPath
		}
	default:
		return fmt.Errorf("%w: unknown backend %q (want %q or %q)", ErrInvalid, c.Store.Backend, store.BackendSQLite, store.BackendJSON)
	}

	c.Log.Level = strings.ToLower(strings.TrimSpace(c.Log.Level))
	if c.Log.Level == "" {
		c.Log.Level = DefaultLogLevel
	}
	if !slices.Contains(logLevels, c.Log.Level) {
		return fmt.Errorf("%w: unknown log level %q (want one of %s)", ErrInvalid, c.Log.Level, strings.Join(logLevels, ", "))
	}

	return nil
}
