package config_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"tasker/internal/config"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tasker.toml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

func TestLoad_NoPath(t *testing.T) {
	cfg, err := config.Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg == nil {
		t.Fatal("expected non-nil config")
	}

	if cfg.Store.Backend != "" || cfg.Store.Path != "" || cfg.Log.Level != "" {
		t.Errorf("expected empty config, got %+v", cfg)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "nope.toml"))
	if err == nil {
		t.Fatal("expected error for missing config file")
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected not-exist error, got %v", err)
	}
}

func TestLoad_Full(t *testing.T) {
	path := writeConfig(t, `
[store]
backend = "json"
path = "todo.json"

[log]
level = "debug"
`)

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Store.Backend != "json" {
		t.Errorf("Backend = %q, expected %q", cfg.Store.Backend, "json")
	}
	if cfg.Store.Path != "todo.json" {
		t.Errorf("Path = %q, expected %q", cfg.Store.Path, "todo.json")
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("Level = %q, expected %q", cfg.Log.Level, "debug")
	}
}

func TestLoad_UnknownKey(t *testing.T) {
	path := writeConfig(t, `
[store]
backend = "sqlite"
colour = "blue"
`)

	_, err := config.Load(path)
	if !errors.Is(err, config.ErrInvalid) {
		t.Fatalf("expected ErrInvalid, got %v", err)
	}
}

func TestLoad_Malformed(t *testing.T) {
	path := writeConfig(t, `[store`)

	_, err := config.Load(path)
	if !errors.Is(err, config.ErrInvalid) {
		t.Fatalf("expected ErrInvalid, got %v", err)
	}
}

func TestResolve(t *testing.T) {
	tests := []struct {
		name        string
		in          config.Config
		wantBackend string
		wantPath    string
		wantLevel   string
		wantErr     bool
	}{
		{
			name:        "defaults",
			wantBackend: "sqlite",
			wantPath:    "tasks.db",
			wantLevel:   "warn",
		},
		{
			name:        "json default path",
			in:          config.Config{Store: config.Store{Backend: "json"}},
			wantBackend: "json",
			wantPath:    "tasks.json",
			wantLevel:   "warn",
		},
		{
			name:        "explicit path and case-insensitive values",
			in:          config.Config{Store: config.Store{Backend: " SQLite ", Path: "data/my.db"}, Log: config.Log{Level: "DEBUG"}},
			wantBackend: "sqlite",
			wantPath:    "data/my.db",
			wantLevel:   "debug",
		},
		{
			name:    "unknown backend",
			in:      config.Config{Store: config.Store{Backend: "csv"}},
			wantErr: true,
		},
		{
			name:    "unknown log level",
			in:      config.Config{Log: config.Log{Level: "loud"}},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := tt.in
			err := cfg.Resolve()
			if tt.wantErr {
				if !errors.Is(err, config.ErrInvalid) {
					t.Fatalf("expected ErrInvalid, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if cfg.Store.Backend != tt.wantBackend {
				t.Errorf("Backend = %q, expected %q", cfg.Store.Backend, tt.wantBackend)
			}
			if cfg.Store.Path != tt.wantPath {
				t.Errorf("Path = %q, expected %q", cfg.Store.Path, tt.wantPath)
			}
			if cfg.Log.Level != tt.wantLevel {
				t.Errorf("Level = %q, expected %q", cfg.Log.Level, tt.wantLevel)
			}
		})
	}
}
