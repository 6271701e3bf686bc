// Package commands executes one tasker operation against a store and renders
// its output.
package commands

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"

	"tasker/internal/store"
)

// Exit codes reported by the tasker binary.
const (
	ExitFailure = 1
	ExitUsage   = 2
)

// UsageError reports a malformed invocation. It is raised before the store
// is touched.
type UsageError struct {
	msg string
}

// Usagef returns a UsageError with a formatted message.
func Usagef(format string, args ...any) *UsageError {
	return &UsageError{msg: fmt.Sprintf(format, args...)}
}

func (e *UsageError) Error() string { return e.msg }

// ExitCode implements the interface main uses to pick the process exit code.
func (e *UsageError) ExitCode() int { return ExitUsage }

// Handlers holds the command handlers and their dependencies.
type Handlers struct {
	store  store.Store
	out    io.Writer
	logger *log.Logger
}

// New creates a new Handlers instance writing results to out.
func New(s store.Store, out io.Writer, logger *log.Logger) *Handlers {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Handlers{
		store:  s,
		out:    out,
		logger: logger,
	}
}

// ParseID parses a task ID argument.
func ParseID(arg string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(arg), 10, 64)
	if err != nil || id < 0 {
		return 0, Usagef("invalid task id %q: must be a non-negative integer", arg)
	}
	return id, nil
}

// ParseDescription validates a description argument.
func ParseDescription(arg string) (string, error) {
	if strings.TrimSpace(arg) == "" {
		return "", Usagef("description must not be empty")
	}
	return arg, nil
}

func (h *Handlers) printf(format string, args ...any) error {
	_, err := fmt.Fprintf(h.out, format, args...)
	return err
}
