package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

// requiredColumns lists the columns the tasks table must carry. Extra columns
// are tolerated.
var requiredColumns = []string{"id", "description", "completed"}

// verifySchema checks that an existing database holds a usable tasks table.
// CREATE TABLE IF NOT EXISTS leaves a foreign table of the same name alone,
// so this is what catches a database created by something else.
func verifySchema(ctx context.Context, db *sql.DB) error {
	hasTasks, err := tableExists(ctx, db, "tasks")
	if err != nil {
		return err
	}
	if !hasTasks {
		return fmt.Errorf("%w: tasks table is missing", ErrCorruptData)
	}

	for _, column := range requiredColumns {
		ok, err := columnExists(ctx, db, "tasks", column)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("%w: tasks table has no %s column", ErrCorruptData, column)
		}
	}

	return nil
}

// hasAutoincrement reports whether table was declared with AUTOINCREMENT.
func hasAutoincrement(ctx context.Context, db *sql.DB, table string) (bool, error) {
	var ddl sql.NullString
	err := db.QueryRowContext(ctx, `SELECT sql FROM sqlite_master WHERE type='table' AND name = ?`, table).Scan(&ddl)
	if err != nil {
		return false, classifyError(fmt.Sprintf("failed to read definition of %s", table), err)
	}

	return strings.Contains(strings.ToUpper(ddl.String), "AUTOINCREMENT"), nil
}

func tableExists(ctx context.Context, db *sql.DB, table string) (bool, error) {
	var name string
	err := db.QueryRowContext(ctx, `SELECT name FROM sqlite_master WHERE type='table' AND name = ?`, table).Scan(&name)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, classifyError(fmt.Sprintf("failed to check table %s", table), err)
	}

	return true, nil
}

func columnExists(ctx context.Context, db *sql.DB, table, column string) (bool, error) {
	rows, err := db.QueryContext(ctx, fmt.Sprintf(`PRAGMA table_info(%s)`, table))
	if err != nil {
		return false, classifyError(fmt.Sprintf("failed to query table info for %s", table), err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			cid        int
			name       string
			typeName   string
			notNull    int
			defaultV   interface{}
			primaryKey int
		)
		if err := rows.Scan(&cid, &name, &typeName, &notNull, &defaultV, &primaryKey); err != nil {
			return false, fmt.Errorf("failed to scan table info for %s: %w", table, err)
		}

		if name == column {
			return true, nil
		}
	}

	if err := rows.Err(); err != nil {
		return false, fmt.Errorf("failed iterating table info for %s: %w", table, err)
	}

	return false, nil
}
