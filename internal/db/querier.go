package db

import (
	"context"
	"database/sql"
)

// Execer is satisfied by both *sql.DB and *sql.Tx. Repository methods that
// must participate in a caller-owned transaction take it instead of a
// concrete handle.
type Execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

var (
	_ Execer = (*sql.DB)(nil)
	_ Execer = (*sql.Tx)(nil)
)
