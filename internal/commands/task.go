package commands

import (
	"context"
	"encoding/json"
	"errors"

	"tasker/internal/models"
	"tasker/internal/store"
)

// Add creates a new task and prints its ID.
func (h *Handlers) Add(ctx context.Context, description string) error {
	task := &models.Task{Description: description}

	if err := task.Validate(); err != nil {
		return Usagef("%v", err)
	}

	if err := h.store.CreateTask(ctx, task); err != nil {
		return err
	}

	h.logger.Debug("add", "id", task.ID)
	return h.printf("Added task with ID: %d\n", task.ID)
}

// List prints every task, one per line. An empty store prints nothing.
// With asJSON the tasks are printed as an indented JSON array instead.
func (h *Handlers) List(ctx context.Context, asJSON bool) error {
	tasks, err := h.store.ListTasks(ctx)
	if err != nil {
		return err
	}

	h.logger.Debug("list", "count", len(tasks))

	if asJSON {
		if tasks == nil {
			tasks = []models.Task{}
		}
		enc := json.NewEncoder(h.out)
		enc.SetIndent("", "  ")
		return enc.Encode(tasks)
	}

	for _, task := range tasks {
		if err := h.printf("%s\n", task); err != nil {
			return err
		}
	}
	return nil
}

// Complete marks a task as completed. A missing task is reported on the
// output and is not an error.
func (h *Handlers) Complete(ctx context.Context, id int64) error {
	err := h.store.CompleteTask(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		h.logger.Debug("complete: not found", "id", id)
		return h.printf("Task %d not found\n", id)
	}
	if err != nil {
		return err
	}

	h.logger.Debug("complete", "id", id)
	return h.printf("Completed task: %d\n", id)
}

// Delete removes a task. A missing task is reported the same way as
// Complete.
func (h *Handlers) Delete(ctx context.Context, id int64) error {
	err := h.store.DeleteTask(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		h.logger.Debug("delete: not found", "id", id)
		return h.printf("Task %d not found\n", id)
	}
	if err != nil {
		return err
	}

	h.logger.Debug("delete", "id", id)
	return h.printf("Deleted task: %d\n", id)
}
