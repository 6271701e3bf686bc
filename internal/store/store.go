package store

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"

	"tasker/internal/models"
)

var (
	// ErrNotFound is returned when no task has the requested ID.
	ErrNotFound = errors.New("task not found")

	// ErrStorageUnavailable is returned when the backing file cannot be
	// created, opened, read, or written.
	ErrStorageUnavailable = errors.New("storage unavailable")

	// ErrCorruptData is returned when the backing file exists but its
	// contents are not a valid task collection.
	ErrCorruptData = errors.New("corrupt data")
)

// Backend names accepted by Open.
const (
	BackendSQLite = "sqlite"
	BackendJSON   = "json"
)

// Store defines the interface for data persistence operations.
type Store interface {
	// CreateTask validates the task, assigns it the next ID, and persists it.
	CreateTask(ctx context.Context, task *models.Task) error
	// ListTasks returns every task in insertion order.
	ListTasks(ctx context.Context) ([]models.Task, error)
	GetTask(ctx context.Context, id int64) (*models.Task, error)
	// CompleteTask marks a task completed. Completing twice is not an error.
	CompleteTask(ctx context.Context, id int64) error
	DeleteTask(ctx context.Context, id int64) error

	// Lifecycle
	Close() error
}

// Options configures Open.
type Options struct {
	// Backend is BackendSQLite or BackendJSON.
	Backend string
	// Path is the backing file. ":memory:" is accepted by the sqlite backend.
	Path string
	// Logger receives debug output. If nil, logging is discarded.
	Logger *log.Logger
}

// Open initializes the store for the configured backend.
func Open(ctx context.Context, opts Options) (Store, error) {
	if opts.Path == "" {
		return nil, fmt.Errorf("%w: empty store path", ErrStorageUnavailable)
	}

	switch opts.Backend {
	case BackendSQLite:
		return NewSQLiteStore(ctx, opts.Path, opts.Logger)
	case BackendJSON:
		return NewDocumentStore(ctx, opts.Path, opts.Logger)
	default:
		return nil, fmt.Errorf("unknown store backend %q", opts.Backend)
	}
}

// ensureDir creates the parent directory of path.
func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("%w: create data directory: %w", ErrStorageUnavailable, err)
	}
	return nil
}

func loggerOrDiscard(logger *log.Logger) *log.Logger {
	if logger != nil {
		return logger
	}
	return log.New(io.Discard)
}
