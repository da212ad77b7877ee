// Package userinfra is the PostgreSQL persistence for users and memberships.
package userinfra

import (
	"context"
	"database/sql"
	"errors"

	"github.com/Abraxas-365/sentinel/pkg/databasex"
	"github.com/Abraxas-365/sentinel/pkg/errx"
	"github.com/Abraxas-365/sentinel/pkg/iam/user"
	"github.com/Abraxas-365/sentinel/pkg/kernel"
	"github.com/jmoiron/sqlx"
)

type PostgresRepository struct {
	q databasex.Querier
}

func NewPostgresRepository(db *sqlx.DB) user.Repository {
	return &PostgresRepository{q: db}
}

// WithTx returns a repository bound to the given transaction.
func (r *PostgresRepository) WithTx(tx *sqlx.Tx) user.Repository {
	return &PostgresRepository{q: tx}
}

func (r *PostgresRepository) Create(ctx context.Context, u user.User) error {
	query := `
		INSERT INTO users (id, username, email, password_hash, is_active, email_verified, created_at, updated_at)
		VALUES (:id, :username, :email, :password_hash, :is_active, :email_verified, :created_at, :updated_at)`

	if _, err := r.q.NamedExecContext(ctx, query, u); err != nil {
		if databasex.IsUniqueViolation(err) {
			return user.ErrEmailAlreadyExists()
		}
		return errx.Wrap(err, "failed to create user", errx.TypeInternal).
			WithDetail("user_id", u.ID.String())
	}
	return nil
}

// FindByID returns (nil, nil) when the user does not exist.
func (r *PostgresRepository) FindByID(ctx context.Context, id kernel.UserID) (*user.User, error) {
	var u user.User
	err := r.q.GetContext(ctx, &u, `SELECT * FROM users WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, errx.Wrap(err, "failed to find user", errx.TypeInternal)
	}
	return &u, nil
}

func (r *PostgresRepository) FindByEmail(ctx context.Context, email string) (*user.User, error) {
	var u user.User
	err := r.q.GetContext(ctx, &u, `SELECT * FROM users WHERE email = $1`, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, errx.Wrap(err, "failed to find user by email", errx.TypeInternal)
	}
	return &u, nil
}

func (r *PostgresRepository) FindByUsername(ctx context.Context, username string) (*user.User, error) {
	var u user.User
	err := r.q.GetContext(ctx, &u, `SELECT * FROM users WHERE username = $1`, username)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, errx.Wrap(err, "failed to find user by username", errx.TypeInternal)
	}
	return &u, nil
}

func (r *PostgresRepository) Update(ctx context.Context, u user.User) error {
	query := `
		UPDATE users
		SET username = :username, email = :email, password_hash = :password_hash,
		    is_active = :is_active, email_verified = :email_verified, updated_at = :updated_at
		WHERE id = :id`

	res, err := r.q.NamedExecContext(ctx, query, u)
	if err != nil {
		return errx.Wrap(err, "failed to update user", errx.TypeInternal).
			WithDetail("user_id", u.ID.String())
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return errx.Wrap(err, "failed to read rows affected", errx.TypeInternal)
	}
	if rows == 0 {
		return user.ErrNotFound()
	}
	return nil
}

type PostgresMembershipRepository struct {
	q databasex.Querier
}

func NewPostgresMembershipRepository(db *sqlx.DB) user.MembershipRepository {
	return &PostgresMembershipRepository{q: db}
}

// WithTx returns a repository bound to the given transaction.
func (r *PostgresMembershipRepository) WithTx(tx *sqlx.Tx) user.MembershipRepository {
	return &PostgresMembershipRepository{q: tx}
}

func (r *PostgresMembershipRepository) Create(ctx context.Context, m user.Membership) error {
	query := `
		INSERT INTO project_users (project_id, user_id, role_id, is_active, created_at, updated_at)
		VALUES (:project_id, :user_id, :role_id, :is_active, :created_at, :updated_at)`

	if _, err := r.q.NamedExecContext(ctx, query, m); err != nil {
		if databasex.IsUniqueViolation(err) {
			return user.ErrAlreadyExists()
		}
		return errx.Wrap(err, "failed to create membership", errx.TypeInternal)
	}
	return nil
}

func (r *PostgresMembershipRepository) Find(ctx context.Context, projectID kernel.ProjectID, userID kernel.UserID) (*user.Membership, error) {
	var m user.Membership
	err := r.q.GetContext(ctx, &m,
		`SELECT * FROM project_users WHERE project_id = $1 AND user_id = $2`, projectID, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, errx.Wrap(err, "failed to find membership", errx.TypeInternal)
	}
	return &m, nil
}

func (r *PostgresMembershipRepository) ListByProject(ctx context.Context, projectID kernel.ProjectID, opts kernel.PaginationOptions) ([]*user.ProjectUser, int, error) {
	opts = opts.Normalize()

	var total int
	err := r.q.GetContext(ctx, &total,
		`SELECT COUNT(*) FROM project_users WHERE project_id = $1`, projectID)
	if err != nil {
		return nil, 0, errx.Wrap(err, "failed to count project users", errx.TypeInternal)
	}

	var out []*user.ProjectUser
	err = r.q.SelectContext(ctx, &out, `
		SELECT u.*, pu.role_id, r.name AS role_name, pu.is_active AS membership_active
		FROM project_users pu
		JOIN users u ON u.id = pu.user_id
		JOIN roles r ON r.id = pu.role_id
		WHERE pu.project_id = $1
		ORDER BY u.created_at DESC
		LIMIT $2 OFFSET $3`,
		projectID, opts.PageSize, opts.Offset())
	if err != nil {
		return nil, 0, errx.Wrap(err, "failed to list project users", errx.TypeInternal)
	}
	return out, total, nil
}

func (r *PostgresMembershipRepository) SetActive(ctx context.Context, projectID kernel.ProjectID, userID kernel.UserID, active bool) error {
	res, err := r.q.ExecContext(ctx, `
		UPDATE project_users SET is_active = $3, updated_at = now()
		WHERE project_id = $1 AND user_id = $2`,
		projectID, userID, active)
	if err != nil {
		return errx.Wrap(err, "failed to update membership", errx.TypeInternal)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return errx.Wrap(err, "failed to read rows affected", errx.TypeInternal)
	}
	if rows == 0 {
		return user.ErrNotInProject()
	}
	return nil
}
