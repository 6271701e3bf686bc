package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/mattn/go-sqlite3"

	"tasker/internal/models"
)

// SQLiteStore implements the Store interface using SQLite. Every mutation
// is a single statement, so it is durable once the call returns.
type SQLiteStore struct {
	db     *sql.DB
	logger *log.Logger

	// ownSequence is set when the tasks table lacks AUTOINCREMENT and ids
	// are drawn from task_sequence instead.
	ownSequence bool
}

// NewSQLiteStore opens the database at dbPath, creating the file and the
// tasks table if they do not exist.
func NewSQLiteStore(ctx context.Context, dbPath string, logger *log.Logger) (*SQLiteStore, error) {
	logger = loggerOrDiscard(logger)

	if dbPath != ":memory:" {
		if err := ensureDir(dbPath); err != nil {
			return nil, err
		}
	}

	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("%w: failed to open database: %w", ErrStorageUnavailable, err)
	}
	// :memory: databases are per-connection.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, classifyError("failed to open database", err)
	}

	store := &SQLiteStore{db: db, logger: logger}
	if err := store.migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}

	logger.Debug("opened sqlite store", "path", dbPath)
	return store, nil
}

func (s *SQLiteStore) migrate(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS tasks (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		description TEXT NOT NULL,
		completed BOOLEAN NOT NULL DEFAULT FALSE,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	`

	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return classifyError("failed to create schema", err)
	}

	if err := verifySchema(ctx, s.db); err != nil {
		return err
	}

	autoinc, err := hasAutoincrement(ctx, s.db, "tasks")
	if err != nil {
		return err
	}
	if !autoinc {
		if err := s.createSequence(ctx); err != nil {
			return err
		}
		s.ownSequence = true
	}

	return nil
}

// createSequence sets up the high-water mark used for tables whose rowids
// SQLite would otherwise hand out again after the highest row is deleted.
func (s *SQLiteStore) createSequence(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS task_sequence (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		last_id INTEGER NOT NULL
	);
	INSERT OR IGNORE INTO task_sequence (id, last_id)
	SELECT 1, COALESCE(MAX(id), 0) FROM tasks;
	`

	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return classifyError("failed to create task sequence", err)
	}

	s.logger.Debug("tasks table has no AUTOINCREMENT, using task_sequence")
	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	s.logger.Debug("closing sqlite store")
	return s.db.Close()
}

// CreateTask inserts a new task and sets its ID.
func (s *SQLiteStore) CreateTask(ctx context.Context, task *models.Task) error {
	if err := task.Validate(); err != nil {
		return err
	}
	task.Completed = false

	var (
		id  int64
		err error
	)
	if s.ownSequence {
		id, err = s.insertWithSequence(ctx, task)
	} else {
		id, err = s.insert(ctx, task)
	}
	if err != nil {
		return err
	}
	task.ID = id

	s.logger.Debug("created task", "id", id)
	return nil
}

func (s *SQLiteStore) insert(ctx context.Context, task *models.Task) (int64, error) {
	result, err := s.db.ExecContext(ctx, `
		INSERT INTO tasks (description, completed)
		VALUES (?, ?)
	`, task.Description, task.Completed)
	if err != nil {
		return 0, classifyError("failed to create task", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get last insert id: %w", err)
	}
	return id, nil
}

// insertWithSequence advances task_sequence past both its own mark and any
// id already in the table, then inserts the task under that id.
func (s *SQLiteStore) insertWithSequence(ctx context.Context, task *models.Task) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, classifyError("failed to begin transaction", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		UPDATE task_sequence
		SET last_id = MAX(last_id, (SELECT COALESCE(MAX(id), 0) FROM tasks)) + 1
		WHERE id = 1
	`)
	if err != nil {
		return 0, classifyError("failed to advance task sequence", err)
	}

	var id int64
	if err := tx.QueryRowContext(ctx, `SELECT last_id FROM task_sequence WHERE id = 1`).Scan(&id); err != nil {
		return 0, classifyError("failed to read task sequence", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO tasks (id, description, completed)
		VALUES (?, ?, ?)
	`, id, task.Description, task.Completed)
	if err != nil {
		return 0, classifyError("failed to create task", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, classifyError("failed to commit task", err)
	}
	return id, nil
}

// GetTask retrieves a task by ID.
func (s *SQLiteStore) GetTask(ctx context.Context, id int64) (*models.Task, error) {
	task := &models.Task{}

	err := s.db.QueryRowContext(ctx, `
		SELECT id, description, completed
		FROM tasks WHERE id = ?
	`, id).Scan(
		&task.ID,
		&task.Description,
		&task.Completed,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %d", ErrNotFound, id)
		}
		return nil, classifyError("failed to get task", err)
	}

	return task, nil
}

// ListTasks retrieves all tasks ordered by ID, which is insertion order.
func (s *SQLiteStore) ListTasks(ctx context.Context) ([]models.Task, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, description, completed
		FROM tasks ORDER BY id ASC
	`)
	if err != nil {
		return nil, classifyError("failed to list tasks", err)
	}
	defer rows.Close()

	tasks := []models.Task{}
	for rows.Next() {
		var task models.Task

		err := rows.Scan(
			&task.ID,
			&task.Description,
			&task.Completed,
		)
		if err != nil {
			return nil, fmt.Errorf("%w: failed to scan task: %w", ErrCorruptData, err)
		}

		tasks = append(tasks, task)
	}

	if err := rows.Err(); err != nil {
		return nil, classifyError("failed to list tasks", err)
	}
	return tasks, nil
}

// CompleteTask marks a task as completed.
func (s *SQLiteStore) CompleteTask(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE tasks SET completed = TRUE WHERE id = ?
	`, id)
	if err != nil {
		return classifyError("failed to complete task", err)
	}

	if err := requireAffected(result, id); err != nil {
		return err
	}

	s.logger.Debug("completed task", "id", id)
	return nil
}

// DeleteTask deletes a task by ID.
func (s *SQLiteStore) DeleteTask(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = ?`, id)
	if err != nil {
		return classifyError("failed to delete task", err)
	}

	if err := requireAffected(result, id); err != nil {
		return err
	}

	s.logger.Debug("deleted task", "id", id)
	return nil
}

func requireAffected(result sql.Result, id int64) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %d", ErrNotFound, id)
	}
	return nil
}

// classifyError maps driver errors onto ErrCorruptData or ErrStorageUnavailable.
func classifyError(op string, err error) error {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code {
		case sqlite3.ErrNotADB, sqlite3.ErrCorrupt:
			return fmt.Errorf("%w: %s: %w", ErrCorruptData, op, err)
		}
	}
	return fmt.Errorf("%w: %s: %w", ErrStorageUnavailable, op, err)
}
