// Package adminkeyinfra is the PostgreSQL persistence for admin keys.
package adminkeyinfra

import (
	"context"
	"database/sql"
	"errors"

	"github.com/Abraxas-365/sentinel/pkg/databasex"
	"github.com/Abraxas-365/sentinel/pkg/errx"
	"github.com/Abraxas-365/sentinel/pkg/iam/adminkey"
	"github.com/jmoiron/sqlx"
)

type PostgresRepository struct {
	q databasex.Querier
}

func NewPostgresRepository(db *sqlx.DB) adminkey.Repository {
	return &PostgresRepository{q: db}
}

// WithTx returns a repository bound to the given transaction.
func (r *PostgresRepository) WithTx(tx *sqlx.Tx) adminkey.Repository {
	return &PostgresRepository{q: tx}
}

func (r *PostgresRepository) Create(ctx context.Context, key adminkey.AdminKey) error {
	query := `
		INSERT INTO admin_keys (id, secret_hash, is_active, is_bootstrap, created_at, updated_at)
		VALUES (:id, :secret_hash, :is_active, :is_bootstrap, :created_at, :updated_at)`

	if _, err := r.q.NamedExecContext(ctx, query, key); err != nil {
		return errx.Wrap(err, "failed to create admin key", errx.TypeInternal).
			WithDetail("key_id", key.ID)
	}
	return nil
}

// FindByID returns (nil, nil) when the key does not exist; the service layer
// guards translate absence into a typed error.
func (r *PostgresRepository) FindByID(ctx context.Context, id string) (*adminkey.AdminKey, error) {
	var key adminkey.AdminKey
	err := r.q.GetContext(ctx, &key, `SELECT * FROM admin_keys WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, errx.Wrap(err, "failed to find admin key", errx.TypeInternal)
	}
	return &key, nil
}

func (r *PostgresRepository) FindBootstrap(ctx context.Context) (*adminkey.AdminKey, error) {
	var key adminkey.AdminKey
	err := r.q.GetContext(ctx, &key, `SELECT * FROM admin_keys WHERE is_bootstrap = true LIMIT 1`)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, errx.Wrap(err, "failed to find bootstrap admin key", errx.TypeInternal)
	}
	return &key, nil
}

func (r *PostgresRepository) FindActive(ctx context.Context) ([]*adminkey.AdminKey, error) {
	var keys []*adminkey.AdminKey
	err := r.q.SelectContext(ctx, &keys, `SELECT * FROM admin_keys WHERE is_active = true`)
	if err != nil {
		return nil, errx.Wrap(err, "failed to list active admin keys", errx.TypeInternal)
	}
	return keys, nil
}

func (r *PostgresRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.q.GetContext(ctx, &count, `SELECT COUNT(*) FROM admin_keys`); err != nil {
		return 0, errx.Wrap(err, "failed to count admin keys", errx.TypeInternal)
	}
	return count, nil
}

func (r *PostgresRepository) CountActive(ctx context.Context) (int, error) {
	var count int
	if err := r.q.GetContext(ctx, &count, `SELECT COUNT(*) FROM admin_keys WHERE is_active = true`); err != nil {
		return 0, errx.Wrap(err, "failed to count active admin keys", errx.TypeInternal)
	}
	return count, nil
}

func (r *PostgresRepository) SetActive(ctx context.Context, id string, active bool) error {
	res, err := r.q.ExecContext(ctx,
		`UPDATE admin_keys SET is_active = $2, updated_at = now() WHERE id = $1`, id, active)
	if err != nil {
		return errx.Wrap(err, "failed to update admin key", errx.TypeInternal).
			WithDetail("key_id", id)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return errx.Wrap(err, "failed to read rows affected", errx.TypeInternal)
	}
	if rows == 0 {
		return adminkey.ErrNotFound()
	}
	return nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	res, err := r.q.ExecContext(ctx, `DELETE FROM admin_keys WHERE id = $1`, id)
	if err != nil {
		return errx.Wrap(err, "failed to delete admin key", errx.TypeInternal)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return errx.Wrap(err, "failed to read rows affected", errx.TypeInternal)
	}
	if rows == 0 {
		return adminkey.ErrNotFound()
	}
	return nil
}
