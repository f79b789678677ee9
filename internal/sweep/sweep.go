// Package sweep implements the row-store side of the SQLite sweeper: it
// locates and deletes expired rows in a caller-owned table.
package sweep

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"time"
)

// identPattern is the set of identifiers we are willing to interpolate
// into SQL. Anything else is rejected at construction time.
var identPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Store locates and deletes expired rows in one table. The timestamp
// column must hold Unix nanoseconds as an INTEGER; rows whose timestamp
// is at or before the cutoff are considered expired.
//
// Store issues plain SQL through database/sql and works against SQLite;
// the table and an index on the timestamp column are the caller's to
// create.
type Store struct {
	db         *sql.DB
	table      string
	timeColumn string
}

// NewStore validates the identifiers and returns a store for the given
// table. It does not create the table.
func NewStore(db *sql.DB, table, timeColumn string) (*Store, error) {
	if !identPattern.MatchString(table) {
		return nil, fmt.Errorf("sweep: invalid table name %q", table)
	}
	if !identPattern.MatchString(timeColumn) {
		return nil, fmt.Errorf("sweep: invalid column name %q", timeColumn)
	}
	return &Store{
		db:         db,
		table:      table,
		timeColumn: timeColumn,
	}, nil
}

// HasExpired reports whether at least one row is expired at the cutoff.
// It is bounded: the query stops at the first matching row.
func (s *Store) HasExpired(ctx context.Context, cutoff time.Time) (bool, error) {
	query := fmt.Sprintf(
		`SELECT EXISTS (SELECT 1 FROM %s WHERE %s <= ?)`,
		s.table, s.timeColumn,
	)

	var exists bool
	err := s.db.QueryRowContext(ctx, query, cutoff.UnixNano()).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("sweep: checking %s for expired rows: %w", s.table, err)
	}
	return exists, nil
}

// DeleteExpired removes up to limit expired rows, oldest first, and
// returns how many were deleted. Callers loop until it returns 0.
func (s *Store) DeleteExpired(ctx context.Context, cutoff time.Time, limit int) (int64, error) {
	if limit <= 0 {
		return 0, fmt.Errorf("sweep: non-positive batch limit %d", limit)
	}

	query := fmt.Sprintf(
		`DELETE FROM %s WHERE rowid IN (
			SELECT rowid FROM %s WHERE %s <= ? ORDER BY %s LIMIT ?
		)`,
		s.table, s.table, s.timeColumn, s.timeColumn,
	)

	res, err := s.db.ExecContext(ctx, query, cutoff.UnixNano(), limit)
	if err != nil {
		return 0, fmt.Errorf("sweep: deleting expired rows from %s: %w", s.table, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("sweep: reading affected rows: %w", err)
	}
	return n, nil
}
