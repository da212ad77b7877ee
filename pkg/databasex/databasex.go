// Package databasex wraps sqlx with the transaction plumbing the iam
// repositories need: every repository runs against a Querier, which is either
// the root *sqlx.DB or a *sqlx.Tx threaded through a multi-entity operation.
package databasex

import (
	"context"
	"database/sql"
	"errors"

	"github.com/Abraxas-365/sentinel/pkg/errx"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// Querier is the subset of sqlx satisfied by both *sqlx.DB and *sqlx.Tx.
type Querier interface {
	sqlx.ExtContext
	GetContext(ctx context.Context, dest any, query string, args ...any) error
	SelectContext(ctx context.Context, dest any, query string, args ...any) error
	NamedExecContext(ctx context.Context, query string, arg any) (sql.Result, error)
}

var (
	_ Querier = (*sqlx.DB)(nil)
	_ Querier = (*sqlx.Tx)(nil)
)

// WithinTx runs fn inside a transaction, committing on nil and rolling back on
// error or panic. Multi-entity operations (project bootstrap, password reset)
// pass the tx into repositories so partial state is never observable.
func WithinTx(ctx context.Context, db *sqlx.DB, fn func(tx *sqlx.Tx) error) (err error) {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return errx.Wrap(err, "failed to begin transaction", errx.TypeInternal)
	}

	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		}
	}()

	if err = fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && rbErr != sql.ErrTxDone {
			return errx.Wrap(err, "rollback failed after error", errx.TypeInternal).
				WithDetail("rollback_error", rbErr.Error())
		}
		return err
	}

	if err = tx.Commit(); err != nil {
		return errx.Wrap(err, "failed to commit transaction", errx.TypeInternal)
	}
	return nil
}

// TxRunner runs fn inside a transaction. Services take a TxRunner instead of
// the raw *sqlx.DB so tests can substitute a passthrough.
type TxRunner func(ctx context.Context, fn func(tx *sqlx.Tx) error) error

// Runner returns the production TxRunner bound to db.
func Runner(db *sqlx.DB) TxRunner {
	return func(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
		return WithinTx(ctx, db, fn)
	}
}

// PassthroughRunner calls fn with a nil transaction. Test helper for services
// wired to in-memory repositories whose WithTx returns the repository itself.
func PassthroughRunner() TxRunner {
	return func(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
		return fn(nil)
	}
}

// IsUniqueViolation reports whether err is a postgres unique constraint error.
func IsUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	return false
}
