// Package roleinfra is the PostgreSQL persistence for roles.
package roleinfra

import (
	"context"
	"database/sql"
	"errors"

	"github.com/Abraxas-365/sentinel/pkg/databasex"
	"github.com/Abraxas-365/sentinel/pkg/errx"
	"github.com/Abraxas-365/sentinel/pkg/iam/role"
	"github.com/Abraxas-365/sentinel/pkg/kernel"
	"github.com/jmoiron/sqlx"
)

type PostgresRepository struct {
	q databasex.Querier
}

func NewPostgresRepository(db *sqlx.DB) role.Repository {
	return &PostgresRepository{q: db}
}

// WithTx returns a repository bound to the given transaction.
func (r *PostgresRepository) WithTx(tx *sqlx.Tx) role.Repository {
	return &PostgresRepository{q: tx}
}

func (r *PostgresRepository) Create(ctx context.Context, rl role.Role) error {
	query := `
		INSERT INTO roles (id, project_id, name, description, created_at, updated_at)
		VALUES (:id, :project_id, :name, :description, :created_at, :updated_at)`

	if _, err := r.q.NamedExecContext(ctx, query, rl); err != nil {
		if databasex.IsUniqueViolation(err) {
			return role.ErrNameRepeated()
		}
		return errx.Wrap(err, "failed to create role", errx.TypeInternal).
			WithDetail("role_id", rl.ID.String())
	}
	return nil
}

// FindByID returns (nil, nil) when the role does not exist in the project.
func (r *PostgresRepository) FindByID(ctx context.Context, projectID kernel.ProjectID, id kernel.RoleID) (*role.Role, error) {
	var rl role.Role
	err := r.q.GetContext(ctx, &rl,
		`SELECT * FROM roles WHERE project_id = $1 AND id = $2`, projectID, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, errx.Wrap(err, "failed to find role", errx.TypeInternal)
	}
	return &rl, nil
}

func (r *PostgresRepository) FindByName(ctx context.Context, projectID kernel.ProjectID, name string) (*role.Role, error) {
	var rl role.Role
	err := r.q.GetContext(ctx, &rl,
		`SELECT * FROM roles WHERE project_id = $1 AND name = $2`, projectID, name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, errx.Wrap(err, "failed to find role by name", errx.TypeInternal)
	}
	return &rl, nil
}

func (r *PostgresRepository) ListByProject(ctx context.Context, projectID kernel.ProjectID) ([]*role.Role, error) {
	var out []*role.Role
	err := r.q.SelectContext(ctx, &out,
		`SELECT * FROM roles WHERE project_id = $1 ORDER BY name`, projectID)
	if err != nil {
		return nil, errx.Wrap(err, "failed to list roles", errx.TypeInternal)
	}
	return out, nil
}

func (r *PostgresRepository) Update(ctx context.Context, rl role.Role) error {
	query := `
		UPDATE roles
		SET name = :name, description = :description, updated_at = :updated_at
		WHERE id = :id AND project_id = :project_id`

	res, err := r.q.NamedExecContext(ctx, query, rl)
	if err != nil {
		if databasex.IsUniqueViolation(err) {
			return role.ErrNameRepeated()
		}
		return errx.Wrap(err, "failed to update role", errx.TypeInternal)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return errx.Wrap(err, "failed to read rows affected", errx.TypeInternal)
	}
	if rows == 0 {
		return role.ErrNotFound()
	}
	return nil
}

func (r *PostgresRepository) Delete(ctx context.Context, projectID kernel.ProjectID, id kernel.RoleID) error {
	res, err := r.q.ExecContext(ctx,
		`DELETE FROM roles WHERE project_id = $1 AND id = $2`, projectID, id)
	if err != nil {
		return errx.Wrap(err, "failed to delete role", errx.TypeInternal)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return errx.Wrap(err, "failed to read rows affected", errx.TypeInternal)
	}
	if rows == 0 {
		return role.ErrNotFound()
	}
	return nil
}
