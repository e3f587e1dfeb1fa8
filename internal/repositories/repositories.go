// package repositories provides persistence layer implementations for all model types.
//
// Each repository implements models.Repository[T] for a specific entity type where the entity has an identity,
// and exposes relation-specific operations otherwise.
package repositories

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/desertthunder/foodgram/internal/shared"
)

// querier is satisfied by both [sql.DB] and [sql.Tx].
type querier interface {
	Exec(query string, args ...any) (sql.Result, error)
	Query(query string, args ...any) (*sql.Rows, error)
	QueryRow(query string, args ...any) *sql.Row
}

// inTx runs fn inside a transaction, committing when fn returns nil.
func inTx(db *sql.DB, fn func(tx *sql.Tx) error) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// notFound builds an error wrapping [shared.ErrNotFound] for the given entity.
func notFound(entity string, key any) error {
	return fmt.Errorf("%s %v: %w", entity, key, shared.ErrNotFound)
}

// placeholders returns "?, ?, ..." with n markers.
func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

// int64Args converts ids into query arguments.
func int64Args(ids []int64) []any {
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return args
}

// limitClause appends LIMIT/OFFSET for a positive limit.
func limitClause(query string, args []any, limit, offset int) (string, []any) {
	if limit <= 0 {
		return query, args
	}
	query += " LIMIT ? OFFSET ?"
	return query, append(args, limit, max(offset, 0))
}

// rowsAffected returns the affected row count of res.
func rowsAffected(res sql.Result) (int64, error) {
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get affected rows: %w", err)
	}
	return n, nil
}

// collectIDs scans a single integer column from rows.
func collectIDs(rows *sql.Rows) ([]int64, error) {
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan id: %w", err)
		}
		ids = append(ids, id)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return ids, nil
}
