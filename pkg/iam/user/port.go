package user

import (
	"context"

	"github.com/Abraxas-365/sentinel/pkg/kernel"
	"github.com/jmoiron/sqlx"
)

// Repository persists user accounts. Find* methods return (nil, nil) on
// absence. Email and username lookups are global: accounts are shared across
// projects.
type Repository interface {
	Create(ctx context.Context, u User) error
	FindByID(ctx context.Context, id kernel.UserID) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	FindByUsername(ctx context.Context, username string) (*User, error)
	Update(ctx context.Context, u User) error
	WithTx(tx *sqlx.Tx) Repository
}

// MembershipRepository persists project memberships.
type MembershipRepository interface {
	Create(ctx context.Context, m Membership) error
	Find(ctx context.Context, projectID kernel.ProjectID, userID kernel.UserID) (*Membership, error)
	ListByProject(ctx context.Context, projectID kernel.ProjectID, opts kernel.PaginationOptions) ([]*ProjectUser, int, error)
	SetActive(ctx context.Context, projectID kernel.ProjectID, userID kernel.UserID, active bool) error
	WithTx(tx *sqlx.Tx) MembershipRepository
}
