// Package usersrv implements user registration, membership management and
// password changes.
package usersrv

import (
	"context"
	"strings"

	"github.com/Abraxas-365/sentinel/pkg/asyncx"
	"github.com/Abraxas-365/sentinel/pkg/databasex"
	"github.com/Abraxas-365/sentinel/pkg/errx"
	"github.com/Abraxas-365/sentinel/pkg/iam"
	"github.com/Abraxas-365/sentinel/pkg/iam/auth"
	"github.com/Abraxas-365/sentinel/pkg/iam/role"
	"github.com/Abraxas-365/sentinel/pkg/iam/user"
	"github.com/Abraxas-365/sentinel/pkg/kernel"
	"github.com/Abraxas-365/sentinel/pkg/logx"
	"github.com/Abraxas-365/sentinel/pkg/secrets"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// Verifier kicks off the email verification flow for a new account. It is a
// local port so this package does not depend on the verification context.
type Verifier interface {
	RequestEmailVerification(ctx context.Context, userID kernel.UserID) error
}

type Service struct {
	run         databasex.TxRunner
	users       user.Repository
	memberships user.MembershipRepository
	roles       role.Repository
	tokens      auth.TokenRepository
	hasher      *secrets.Hasher
	clock       kernel.Clock
	verifier    Verifier
}

func NewService(
	run databasex.TxRunner,
	users user.Repository,
	memberships user.MembershipRepository,
	roles role.Repository,
	tokens auth.TokenRepository,
	hasher *secrets.Hasher,
	clock kernel.Clock,
) *Service {
	return &Service{
		run:         run,
		users:       users,
		memberships: memberships,
		roles:       roles,
		tokens:      tokens,
		hasher:      hasher,
		clock:       clock,
	}
}

// SetVerifier wires the email verification flow. Optional; registration works
// without it, accounts just stay unverified until a code is requested.
func (s *Service) SetVerifier(v Verifier) { s.verifier = v }

// CreateProjectUser registers an account and its membership in one
// transaction. Only the admin role is created on demand; any other role name
// must already exist in the project.
func (s *Service) CreateProjectUser(ctx context.Context, projectID kernel.ProjectID, req user.CreateUserRequest) (*user.User, error) {
	username := strings.TrimSpace(req.Username)
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if username == "" || email == "" {
		return nil, user.ErrInvalidRequest()
	}
	if err := user.AssertPasswordStrength(req.Password); err != nil {
		return nil, err
	}

	existing, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if err := user.AssertEmailAvailable(existing); err != nil {
		return nil, err
	}
	existing, err = s.users.FindByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if err := user.AssertUsernameAvailable(existing); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	u := user.User{
		ID:           kernel.NewUserID(uuid.NewString()),
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	err = s.run(ctx, func(tx *sqlx.Tx) error {
		r, err := s.resolveRole(ctx, s.roles.WithTx(tx), projectID, req.RoleName)
		if err != nil {
			return err
		}
		if err := s.users.WithTx(tx).Create(ctx, u); err != nil {
			return err
		}
		m := user.Membership{
			ProjectID: projectID,
			UserID:    u.ID,
			RoleID:    r.ID,
			IsActive:  true,
			CreatedAt: now,
			UpdatedAt: now,
		}
		return s.memberships.WithTx(tx).Create(ctx, m)
	})
	if err != nil {
		return nil, err
	}

	if s.verifier != nil {
		userID := u.ID
		asyncx.DoCtx(ctx, func(ctx context.Context) {
			if err := s.verifier.RequestEmailVerification(ctx, userID); err != nil {
				logx.WithError(err).Warn("failed to send verification email")
			}
		})
	}
	return &u, nil
}

func (s *Service) resolveRole(ctx context.Context, roles role.Repository, projectID kernel.ProjectID, name string) (*role.Role, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, role.ErrNameRequired()
	}
	r, err := roles.FindByName(ctx, projectID, name)
	if err != nil {
		return nil, err
	}
	if r != nil {
		return r, nil
	}
	if name != iam.AdminRoleName {
		return nil, role.ErrNotFound()
	}
	now := s.clock.Now()
	created := role.Role{
		ID:        kernel.NewRoleID(uuid.NewString()),
		ProjectID: projectID,
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := roles.Create(ctx, created); err != nil {
		return nil, err
	}
	return &created, nil
}

// GetUser returns one account by ID.
func (s *Service) GetUser(ctx context.Context, id kernel.UserID) (*user.User, error) {
	u, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := user.AssertFound(u); err != nil {
		return nil, err
	}
	return u, nil
}

// GetProjectUser returns an account only when it holds a membership in the
// project.
func (s *Service) GetProjectUser(ctx context.Context, projectID kernel.ProjectID, id kernel.UserID) (*user.User, error) {
	u, err := s.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}
	m, err := s.memberships.Find(ctx, projectID, id)
	if err != nil {
		return nil, err
	}
	if err := user.AssertMember(m); err != nil {
		return nil, err
	}
	return u, nil
}

// ListProjectUsers returns a page of the project's members with their roles.
func (s *Service) ListProjectUsers(ctx context.Context, projectID kernel.ProjectID, opts kernel.PaginationOptions) (kernel.Paginated[*user.ProjectUser], error) {
	opts = opts.Normalize()
	items, total, err := s.memberships.ListByProject(ctx, projectID, opts)
	if err != nil {
		return kernel.Paginated[*user.ProjectUser]{}, errx.Wrap(err, "failed to list project users", errx.TypeInternal)
	}
	return kernel.NewPaginated(items, opts.Page, opts.PageSize, total), nil
}

// SetMemberActive toggles a membership. Deactivating also revokes the user's
// refresh tokens so open sessions cannot outlive the membership.
func (s *Service) SetMemberActive(ctx context.Context, projectID kernel.ProjectID, id kernel.UserID, active bool) error {
	m, err := s.memberships.Find(ctx, projectID, id)
	if err != nil {
		return err
	}
	if m == nil {
		return user.ErrNotInProject()
	}
	if active {
		return s.memberships.SetActive(ctx, projectID, id, true)
	}
	return s.run(ctx, func(tx *sqlx.Tx) error {
		if err := s.memberships.WithTx(tx).SetActive(ctx, projectID, id, false); err != nil {
			return err
		}
		return s.tokens.WithTx(tx).RevokeAllForUser(ctx, id)
	})
}

// ChangePassword rotates a user's password. The current password must verify,
// the new one must pass the policy and differ from the current one. All
// refresh tokens are revoked in the same transaction as the hash update.
func (s *Service) ChangePassword(ctx context.Context, id kernel.UserID, req user.ChangePasswordRequest) error {
	u, err := s.GetUser(ctx, id)
	if err != nil {
		return err
	}
	if !s.hasher.Verify(req.CurrentPassword, u.PasswordHash) {
		return auth.ErrWrongPassword()
	}
	if err := user.AssertPasswordStrength(req.NewPassword); err != nil {
		return err
	}
	if s.hasher.Verify(req.NewPassword, u.PasswordHash) {
		return user.ErrSamePassword()
	}

	hash, err := s.hasher.Hash(req.NewPassword)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	u.UpdatedAt = s.clock.Now()

	return s.run(ctx, func(tx *sqlx.Tx) error {
		if err := s.users.WithTx(tx).Update(ctx, *u); err != nil {
			return err
		}
		return s.tokens.WithTx(tx).RevokeAllForUser(ctx, id)
	})
}
