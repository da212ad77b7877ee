package adminkey

import (
	"context"

	"github.com/jmoiron/sqlx"
)

// Repository persists admin keys. WithTx returns a copy of the repository
// bound to tx so callers can compose multi-entity transactions.
type Repository interface {
	Create(ctx context.Context, key AdminKey) error
	FindByID(ctx context.Context, id string) (*AdminKey, error)
	FindBootstrap(ctx context.Context) (*AdminKey, error)
	FindActive(ctx context.Context) ([]*AdminKey, error)
	Count(ctx context.Context) (int, error)
	CountActive(ctx context.Context) (int, error)
	SetActive(ctx context.Context, id string, active bool) error
	Delete(ctx context.Context, id string) error
	WithTx(tx *sqlx.Tx) Repository
}
