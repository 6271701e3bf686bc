package store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/charmbracelet/log"

	"tasker/internal/models"
)

// document is the on-disk layout of the JSON backend.
type document struct {
	Tasks  []models.Task `json:"tasks"`
	NextID int64         `json:"next_id"`
}

// DocumentStore implements the Store interface over a single JSON file.
// The whole collection is held in memory and the file is atomically
// rewritten after each successful mutation. An exclusive lock on
// "<path>.lock" is held from open until Close.
type DocumentStore struct {
	mu     sync.Mutex
	path   string
	doc    document
	lock   *fileLock
	logger *log.Logger
}

// NewDocumentStore locks and loads the document at path. A missing or empty
// file is initialized with an empty collection.
func NewDocumentStore(ctx context.Context, path string, logger *log.Logger) (*DocumentStore, error) {
	logger = loggerOrDiscard(logger)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if err := ensureDir(path); err != nil {
		return nil, err
	}

	lock, err := acquireLock(path + ".lock")
	if err != nil {
		return nil, err
	}

	doc, found, err := readDocument(path)
	if err != nil {
		lock.release()
		return nil, err
	}
	if !found {
		if err := writeDocument(path, doc); err != nil {
			lock.release()
			return nil, err
		}
		logger.Debug("initialized json store", "path", path)
	}

	logger.Debug("opened json store", "path", path, "tasks", len(doc.Tasks), "next_id", doc.NextID)
	return &DocumentStore{
		path:   path,
		doc:    doc,
		lock:   lock,
		logger: logger,
	}, nil
}

// readDocument loads and checks the document at path. found is false when
// the file is missing or blank, in which case an empty document is returned.
func readDocument(path string) (doc document, found bool, err error) {
	empty := document{Tasks: []models.Task{}, NextID: 1}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return empty, false, nil
	}
	if err != nil {
		return document{}, false, fmt.Errorf("%w: read file: %w", ErrStorageUnavailable, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return empty, false, nil
	}

	if err := json.Unmarshal(data, &doc); err != nil {
		return document{}, false, fmt.Errorf("%w: parse %s: %w", ErrCorruptData, path, err)
	}
	if doc.Tasks == nil {
		doc.Tasks = []models.Task{}
	}

	seen := make(map[int64]struct{}, len(doc.Tasks))
	var maxID int64
	for i, task := range doc.Tasks {
		if task.ID <= 0 {
			return document{}, false, fmt.Errorf("%w: task %d has invalid id %d", ErrCorruptData, i, task.ID)
		}
		if _, dup := seen[task.ID]; dup {
			return document{}, false, fmt.Errorf("%w: duplicate task id %d", ErrCorruptData, task.ID)
		}
		if err := task.Validate(); err != nil {
			return document{}, false, fmt.Errorf("%w: task %d: %w", ErrCorruptData, task.ID, err)
		}
		seen[task.ID] = struct{}{}
		maxID = max(maxID, task.ID)
	}

	// next_id only moves forward; never hand out an id that is or was in use.
	doc.NextID = max(doc.NextID, maxID+1, 1)

	return doc, true, nil
}

// writeDocument atomically replaces the file at path.
func writeDocument(path string, doc document) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode document: %w", err)
	}
	data = append(data, '\n')

	tmpPath := path + ".tmp"
	f, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("%w: create temp file: %w", ErrStorageUnavailable, err)
	}

	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("%w: write temp file: %w", ErrStorageUnavailable, err)
	}

	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("%w: sync temp file: %w", ErrStorageUnavailable, err)
	}

	if err := f.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("%w: close temp file: %w", ErrStorageUnavailable, err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("%w: rename temp file: %w", ErrStorageUnavailable, err)
	}

	return nil
}

// commit persists next in place of the current document. The in-memory
// state only changes once the file has been replaced.
func (s *DocumentStore) commit(next document) error {
	if err := writeDocument(s.path, next); err != nil {
		return err
	}
	s.doc = next
	return nil
}

func (s *DocumentStore) indexOf(id int64) int {
	for i, task := range s.doc.Tasks {
		if task.ID == id {
			return i
		}
	}
	return -1
}

// clone returns a copy of the current document that can be mutated freely.
func (s *DocumentStore) clone() document {
	tasks := make([]models.Task, len(s.doc.Tasks))
	copy(tasks, s.doc.Tasks)
	return document{Tasks: tasks, NextID: s.doc.NextID}
}

// CreateTask appends a new task and sets its ID.
func (s *DocumentStore) CreateTask(ctx context.Context, task *models.Task) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := task.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.clone()
	created := models.Task{
		ID:          next.NextID,
		Description: task.Description,
	}
	next.Tasks = append(next.Tasks, created)
	next.NextID++

	if err := s.commit(next); err != nil {
		return fmt.Errorf("failed to create task: %w", err)
	}

	task.ID = created.ID
	task.Completed = false
	s.logger.Debug("created task", "id", task.ID)
	return nil
}

// GetTask retrieves a task by ID.
func (s *DocumentStore) GetTask(ctx context.Context, id int64) (*models.Task, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return nil, fmt.Errorf("%w: %d", ErrNotFound, id)
	}
	task := s.doc.Tasks[i]
	return &task, nil
}

// ListTasks returns a copy of every task in insertion order.
func (s *DocumentStore) ListTasks(ctx context.Context) ([]models.Task, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.clone().Tasks, nil
}

// CompleteTask marks a task as completed.
func (s *DocumentStore) CompleteTask(ctx context.Context, id int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return fmt.Errorf("%w: %d", ErrNotFound, id)
	}

	next := s.clone()
	next.Tasks[i].Completed = true
	if err := s.commit(next); err != nil {
		return fmt.Errorf("failed to complete task: %w", err)
	}

	s.logger.Debug("completed task", "id", id)
	return nil
}

// DeleteTask deletes a task by ID.
func (s *DocumentStore) DeleteTask(ctx context.Context, id int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return fmt.Errorf("%w: %d", ErrNotFound, id)
	}

	next := s.clone()
	next.Tasks = append(next.Tasks[:i], next.Tasks[i+1:]...)
	if err := s.commit(next); err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}

	s.logger.Debug("deleted task", "id", id)
	return nil
}

// Close releases the file lock. The document is already on disk.
func (s *DocumentStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.logger.Debug("closing json store")
	return s.lock.release()
}
