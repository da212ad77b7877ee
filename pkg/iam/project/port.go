package project

import (
	"context"

	"github.com/Abraxas-365/sentinel/pkg/kernel"
	"github.com/jmoiron/sqlx"
)

// Repository persists projects. Find* methods return (nil, nil) on absence.
type Repository interface {
	Create(ctx context.Context, p Project) error
	FindByID(ctx context.Context, id kernel.ProjectID) (*Project, error)
	FindByName(ctx context.Context, name string) (*Project, error)
	FindActive(ctx context.Context) ([]*Project, error)
	List(ctx context.Context, opts kernel.PaginationOptions) ([]*Project, int, error)
	Update(ctx context.Context, p Project) error
	Delete(ctx context.Context, id kernel.ProjectID) error
	WithTx(tx *sqlx.Tx) Repository
}
