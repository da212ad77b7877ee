// Package projectinfra is the PostgreSQL persistence for projects.
package projectinfra

import (
	"context"
	"database/sql"
	"errors"

	"github.com/Abraxas-365/sentinel/pkg/databasex"
	"github.com/Abraxas-365/sentinel/pkg/errx"
	"github.com/Abraxas-365/sentinel/pkg/iam/project"
	"github.com/Abraxas-365/sentinel/pkg/kernel"
	"github.com/jmoiron/sqlx"
)

type PostgresRepository struct {
	q databasex.Querier
}

func NewPostgresRepository(db *sqlx.DB) project.Repository {
	return &PostgresRepository{q: db}
}

// WithTx returns a repository bound to the given transaction.
func (r *PostgresRepository) WithTx(tx *sqlx.Tx) project.Repository {
	return &PostgresRepository{q: tx}
}

func (r *PostgresRepository) Create(ctx context.Context, p project.Project) error {
	query := `
		INSERT INTO projects (id, name, api_key_hash, is_active, created_at, updated_at)
		VALUES (:id, :name, :api_key_hash, :is_active, :created_at, :updated_at)`

	if _, err := r.q.NamedExecContext(ctx, query, p); err != nil {
		if databasex.IsUniqueViolation(err) {
			return project.ErrNameRepeated()
		}
		return errx.Wrap(err, "failed to create project", errx.TypeInternal).
			WithDetail("project_id", p.ID.String())
	}
	return nil
}

// FindByID returns (nil, nil) when the project does not exist.
func (r *PostgresRepository) FindByID(ctx context.Context, id kernel.ProjectID) (*project.Project, error) {
	var p project.Project
	err := r.q.GetContext(ctx, &p, `SELECT * FROM projects WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, errx.Wrap(err, "failed to find project", errx.TypeInternal)
	}
	return &p, nil
}

func (r *PostgresRepository) FindByName(ctx context.Context, name string) (*project.Project, error) {
	var p project.Project
	err := r.q.GetContext(ctx, &p, `SELECT * FROM projects WHERE name = $1`, name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, errx.Wrap(err, "failed to find project by name", errx.TypeInternal)
	}
	return &p, nil
}

func (r *PostgresRepository) FindActive(ctx context.Context) ([]*project.Project, error) {
	var out []*project.Project
	err := r.q.SelectContext(ctx, &out, `SELECT * FROM projects WHERE is_active = true`)
	if err != nil {
		return nil, errx.Wrap(err, "failed to list active projects", errx.TypeInternal)
	}
	return out, nil
}

func (r *PostgresRepository) List(ctx context.Context, opts kernel.PaginationOptions) ([]*project.Project, int, error) {
	opts = opts.Normalize()

	var total int
	if err := r.q.GetContext(ctx, &total, `SELECT COUNT(*) FROM projects`); err != nil {
		return nil, 0, errx.Wrap(err, "failed to count projects", errx.TypeInternal)
	}

	var out []*project.Project
	err := r.q.SelectContext(ctx, &out,
		`SELECT * FROM projects ORDER BY created_at DESC LIMIT $1 OFFSET $2`,
		opts.PageSize, opts.Offset())
	if err != nil {
		return nil, 0, errx.Wrap(err, "failed to list projects", errx.TypeInternal)
	}
	return out, total, nil
}

func (r *PostgresRepository) Update(ctx context.Context, p project.Project) error {
	query := `
		UPDATE projects
		SET name = :name, api_key_hash = :api_key_hash, is_active = :is_active, updated_at = :updated_at
		WHERE id = :id`

	res, err := r.q.NamedExecContext(ctx, query, p)
	if err != nil {
		if databasex.IsUniqueViolation(err) {
			return project.ErrNameRepeated()
		}
		return errx.Wrap(err, "failed to update project", errx.TypeInternal).
			WithDetail("project_id", p.ID.String())
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return errx.Wrap(err, "failed to read rows affected", errx.TypeInternal)
	}
	if rows == 0 {
		return project.ErrNotFound()
	}
	return nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id kernel.ProjectID) error {
	res, err := r.q.ExecContext(ctx, `DELETE FROM projects WHERE id = $1`, id)
	if err != nil {
		return errx.Wrap(err, "failed to delete project", errx.TypeInternal)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return errx.Wrap(err, "failed to read rows affected", errx.TypeInternal)
	}
	if rows == 0 {
		return project.ErrNotFound()
	}
	return nil
}
