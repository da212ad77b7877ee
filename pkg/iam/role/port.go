package role

import (
	"context"

	"github.com/Abraxas-365/sentinel/pkg/kernel"
	"github.com/jmoiron/sqlx"
)

// Repository persists roles. Lookups are always scoped by project so a tenant
// can never reach another tenant's roles. Find* methods return (nil, nil) on
// absence.
type Repository interface {
	Create(ctx context.Context, r Role) error
	FindByID(ctx context.Context, projectID kernel.ProjectID, id kernel.RoleID) (*Role, error)
	FindByName(ctx context.Context, projectID kernel.ProjectID, name string) (*Role, error)
	ListByProject(ctx context.Context, projectID kernel.ProjectID) ([]*Role, error)
	Update(ctx context.Context, r Role) error
	Delete(ctx context.Context, projectID kernel.ProjectID, id kernel.RoleID) error
	WithTx(tx *sqlx.Tx) Repository
}
