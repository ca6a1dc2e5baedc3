// Package store reads and writes the application tables. Every method takes
// the dbexec.Querier to run on so callers decide between the pool and the
// current mutation transaction.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"talawa-graphql/internal/dbexec"
)

// Store builds and runs the application's SQL.
type Store struct {
	now func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the time source used for audit timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// New creates a Store.
func New(opts ...Option) *Store {
	s := &Store{now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) timestamp() time.Time {
	return s.now().UTC().Truncate(time.Millisecond)
}

// queryRow runs b and scans the first row into dest. It reports whether a
// row was found.
func queryRow(ctx context.Context, q dbexec.Querier, b sq.Sqlizer, dest ...any) (bool, error) {
	query, args, err := b.ToSql()
	if err != nil {
		return false, fmt.Errorf("build query: %w", err)
	}
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return false, err
	}
	defer rows.Close()

	if !rows.Next() {
		return false, rows.Err()
	}
	if err := rows.Scan(dest...); err != nil {
		return false, fmt.Errorf("scan row: %w", err)
	}
	return true, rows.Err()
}

// exec runs b and returns the number of rows it matched. The DSN sets
// clientFoundRows, so an UPDATE that leaves a row unchanged still counts it.
func exec(ctx context.Context, q dbexec.Querier, b sq.Sqlizer) (int64, error) {
	query, args, err := b.ToSql()
	if err != nil {
		return 0, fmt.Errorf("build statement: %w", err)
	}
	res, err := q.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return n, nil
}

func nullStringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

func nullTimePtr(nt sql.NullTime) *time.Time {
	if !nt.Valid {
		return nil
	}
	t := nt.Time
	return &t
}
