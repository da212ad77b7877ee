// Package verificationinfra is the PostgreSQL persistence and mail delivery
// for one-time codes.
package verificationinfra

import (
	"context"
	"database/sql"
	"errors"

	"github.com/Abraxas-365/sentinel/pkg/databasex"
	"github.com/Abraxas-365/sentinel/pkg/errx"
	"github.com/Abraxas-365/sentinel/pkg/iam/verification"
	"github.com/Abraxas-365/sentinel/pkg/kernel"
	"github.com/jmoiron/sqlx"
)

type PostgresCodeRepository struct {
	q databasex.Querier
}

func NewPostgresCodeRepository(db *sqlx.DB) verification.CodeRepository {
	return &PostgresCodeRepository{q: db}
}

// WithTx returns a repository bound to the given transaction.
func (r *PostgresCodeRepository) WithTx(tx *sqlx.Tx) verification.CodeRepository {
	return &PostgresCodeRepository{q: tx}
}

func (r *PostgresCodeRepository) Create(ctx context.Context, c verification.Code) error {
	query := `
		INSERT INTO one_time_codes (id, user_id, code, purpose, expires_at, used, created_at)
		VALUES (:id, :user_id, :code, :purpose, :expires_at, :used, :created_at)`

	if _, err := r.q.NamedExecContext(ctx, query, c); err != nil {
		return errx.Wrap(err, "failed to store one-time code", errx.TypeInternal)
	}
	return nil
}

// FindByCode returns (nil, nil) when no code matches.
func (r *PostgresCodeRepository) FindByCode(ctx context.Context, code string, purpose verification.Purpose) (*verification.Code, error) {
	var c verification.Code
	err := r.q.GetContext(ctx, &c, `
		SELECT * FROM one_time_codes
		WHERE code = $1 AND purpose = $2
		ORDER BY created_at DESC LIMIT 1`,
		code, purpose)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, errx.Wrap(err, "failed to find one-time code", errx.TypeInternal)
	}
	return &c, nil
}

// MarkUsed flips a code that is still unused. Zero affected rows means a
// concurrent redemption won.
func (r *PostgresCodeRepository) MarkUsed(ctx context.Context, id string) error {
	res, err := r.q.ExecContext(ctx,
		`UPDATE one_time_codes SET used = true WHERE id = $1 AND used = false`, id)
	if err != nil {
		return errx.Wrap(err, "failed to mark one-time code used", errx.TypeInternal)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return errx.Wrap(err, "failed to read rows affected", errx.TypeInternal)
	}
	if rows == 0 {
		return verification.ErrAlreadyUsed()
	}
	return nil
}

// InvalidateForUser marks all of a user's outstanding codes for a purpose as
// used, so only the latest issued code can be redeemed.
func (r *PostgresCodeRepository) InvalidateForUser(ctx context.Context, userID kernel.UserID, purpose verification.Purpose) error {
	_, err := r.q.ExecContext(ctx, `
		UPDATE one_time_codes SET used = true
		WHERE user_id = $1 AND purpose = $2 AND used = false`,
		userID, purpose)
	if err != nil {
		return errx.Wrap(err, "failed to invalidate one-time codes", errx.TypeInternal)
	}
	return nil
}

// DeleteExpired purges codes past their expiry. Meant for a periodic sweep.
func (r *PostgresCodeRepository) DeleteExpired(ctx context.Context) (int64, error) {
	res, err := r.q.ExecContext(ctx, `DELETE FROM one_time_codes WHERE expires_at < now()`)
	if err != nil {
		return 0, errx.Wrap(err, "failed to delete expired one-time codes", errx.TypeInternal)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return 0, errx.Wrap(err, "failed to read rows affected", errx.TypeInternal)
	}
	return rows, nil
}
