// Package authinfra is the PostgreSQL persistence for refresh tokens.
package authinfra

import (
	"context"
	"database/sql"
	"errors"

	"github.com/Abraxas-365/sentinel/pkg/databasex"
	"github.com/Abraxas-365/sentinel/pkg/errx"
	"github.com/Abraxas-365/sentinel/pkg/iam/auth"
	"github.com/Abraxas-365/sentinel/pkg/kernel"
	"github.com/jmoiron/sqlx"
)

type PostgresTokenRepository struct {
	q databasex.Querier
}

func NewPostgresTokenRepository(db *sqlx.DB) auth.TokenRepository {
	return &PostgresTokenRepository{q: db}
}

// WithTx returns a repository bound to the given transaction.
func (r *PostgresTokenRepository) WithTx(tx *sqlx.Tx) auth.TokenRepository {
	return &PostgresTokenRepository{q: tx}
}

func (r *PostgresTokenRepository) Create(ctx context.Context, t auth.RefreshToken) error {
	query := `
		INSERT INTO refresh_tokens (id, user_id, project_id, token, expires_at, revoked, created_at)
		VALUES (:id, :user_id, :project_id, :token, :expires_at, :revoked, :created_at)`

	if _, err := r.q.NamedExecContext(ctx, query, t); err != nil {
		return errx.Wrap(err, "failed to store refresh token", errx.TypeInternal)
	}
	return nil
}

// FindByToken returns (nil, nil) when the token does not exist.
func (r *PostgresTokenRepository) FindByToken(ctx context.Context, token string) (*auth.RefreshToken, error) {
	var t auth.RefreshToken
	err := r.q.GetContext(ctx, &t, `SELECT * FROM refresh_tokens WHERE token = $1`, token)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, errx.Wrap(err, "failed to find refresh token", errx.TypeInternal)
	}
	return &t, nil
}

// Revoke flips a token that is still unrevoked. Zero affected rows means the
// token was unknown or already used, which the caller must treat as a failed
// redemption.
func (r *PostgresTokenRepository) Revoke(ctx context.Context, token string) error {
	res, err := r.q.ExecContext(ctx,
		`UPDATE refresh_tokens SET revoked = true WHERE token = $1 AND revoked = false`, token)
	if err != nil {
		return errx.Wrap(err, "failed to revoke refresh token", errx.TypeInternal)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return errx.Wrap(err, "failed to read rows affected", errx.TypeInternal)
	}
	if rows == 0 {
		return auth.ErrInvalidRefreshToken()
	}
	return nil
}

func (r *PostgresTokenRepository) RevokeAllForUser(ctx context.Context, userID kernel.UserID) error {
	_, err := r.q.ExecContext(ctx,
		`UPDATE refresh_tokens SET revoked = true WHERE user_id = $1 AND revoked = false`, userID)
	if err != nil {
		return errx.Wrap(err, "failed to revoke user refresh tokens", errx.TypeInternal)
	}
	return nil
}

// DeleteExpired purges tokens past their expiry. Meant for a periodic sweep.
func (r *PostgresTokenRepository) DeleteExpired(ctx context.Context) (int64, error) {
	res, err := r.q.ExecContext(ctx, `DELETE FROM refresh_tokens WHERE expires_at < now()`)
	if err != nil {
		return 0, errx.Wrap(err, "failed to delete expired refresh tokens", errx.TypeInternal)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return 0, errx.Wrap(err, "failed to read rows affected", errx.TypeInternal)
	}
	return rows, nil
}
