// Package store is the persistence façade: a typed CRUD surface over the
// relational entities in the data model, plus the Scalar/Count primitives
// the PipelineEngine needs for aggregate telemetry. Adapted from the
// teacher's internal/writer/writer.go — the same database/sql +
// lib/pq-based transaction shape (BeginTx, deferred Rollback, explicit
// Commit) and bulk-insert-via-UNNEST idiom, generalized from a single
// odds-only write path into the full entity set this pipeline persists,
// and reshaped into the narrow, explicit-executor repository style used by
// jbrackens-AttaboyGO's internal/repository package (each method takes its
// executor as a parameter, so the same method runs standalone or inside the
// engine's one-transaction-per-run scope).
package store

import (
	"context"
	"database/sql"

	"github.com/boompicks/pickengine/internal/domain"
)

// Querier is satisfied by both *sql.DB and *sql.Tx, letting every store
// method run either standalone or against an in-flight run transaction.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Store wraps the database connection pool and provides run-scoped
// transactions. It has no package-level state beyond the *sql.DB handle;
// all reads and writes take an explicit Querier so callers control scope.
type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// DB returns the underlying pool for callers (e.g. health checks) that only
// need a ping, not a typed operation.
func (s *Store) DB() *sql.DB { return s.db }

// RunTx executes fn inside a single transaction, committing on success and
// rolling back on error or panic. The PipelineEngine wraps an entire run in
// one call to this so a crash or cancellation never leaves dangling
// EventRaw/OddsSnapshot rows, per the concurrency model's single-transaction-
// per-run guarantee.
func (s *Store) RunTx(ctx context.Context, fn func(q Querier) error) (err error) {
	tx, beginErr := s.db.BeginTx(ctx, nil)
	if beginErr != nil {
		return domain.ErrPersistence("begin run transaction", beginErr)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err = fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err = tx.Commit(); err != nil {
		return domain.ErrPersistence("commit run transaction", err)
	}
	return nil
}

// Scalar runs query against dest, returning domain.ErrPersistence on any
// failure other than sql.ErrNoRows, which it treats as a nil, no-error
// result — the typed CRUD-plus-scalar-query contract the external
// interfaces section describes.
func Scalar[T any](ctx context.Context, q Querier, query string, args ...any) (*T, error) {
	var v T
	row := q.QueryRowContext(ctx, query, args...)
	if err := row.Scan(&v); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, domain.ErrPersistence("scalar query", err)
	}
	return &v, nil
}

// Count runs a SELECT COUNT(*)-shaped query and returns the integer result.
func Count(ctx context.Context, q Querier, query string, args ...any) (int64, error) {
	var n int64
	row := q.QueryRowContext(ctx, query, args...)
	if err := row.Scan(&n); err != nil {
		return 0, domain.ErrPersistence("count query", err)
	}
	return n, nil
}
