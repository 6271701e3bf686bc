package models

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidInput is returned when a task fails validation.
var ErrInvalidInput = errors.New("invalid input")

// Task represents a single to-do item.
type Task struct {
	ID          int64  `json:"id"`
	Description string `json:"description"`
	Completed   bool   `json:"completed"`
}

// Validate checks that the task has valid field values.
func (t *Task) Validate() error {
	if strings.TrimSpace(t.Description) == "" {
		return fmt.Errorf("%w: description is required", ErrInvalidInput)
	}

	return nil
}

// Checkbox returns the list marker for the task's completion state.
func (t Task) Checkbox() string {
	if t.Completed {
		return "[x]"
	}
	return "[ ]"
}

// String formats the task the way the list command prints it.
func (t Task) String() string {
	return fmt.Sprintf("%d %s: %s", t.ID, t.Checkbox(), t.Description)
}
