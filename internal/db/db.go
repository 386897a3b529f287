// Package db is the hand-maintained query layer over PostgreSQL. It keeps
// the sqlc calling convention (DBTX, Queries, WithTx) so services depend on
// narrow interfaces and transactions compose the same way everywhere.
package db

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DBTX is satisfied by *pgxpool.Pool and pgx.Tx alike.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

// New wraps the given connection source in a Queries value.
func New(db DBTX) *Queries {
	return &Queries{db: db}
}

// Queries bundles every query method behind a single receiver.
type Queries struct {
	db DBTX
}

// WithTx returns a Queries bound to the given transaction.
func (q *Queries) WithTx(tx pgx.Tx) *Queries {
	return &Queries{db: tx}
}
