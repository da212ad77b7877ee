package projectsrv

import (
	"context"
	"strings"
	"time"

	"github.com/Abraxas-365/sentinel/pkg/databasex"
	"github.com/Abraxas-365/sentinel/pkg/iam"
	"github.com/Abraxas-365/sentinel/pkg/iam/project"
	"github.com/Abraxas-365/sentinel/pkg/iam/role"
	"github.com/Abraxas-365/sentinel/pkg/iam/user"
	"github.com/Abraxas-365/sentinel/pkg/kernel"
	"github.com/Abraxas-365/sentinel/pkg/secrets"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// BootstrapRequest provisions a project together with its first admin.
type BootstrapRequest struct {
	ProjectName   string `json:"project_name"`
	AdminUsername string `json:"admin_username"`
	AdminEmail    string `json:"admin_email"`
	AdminPassword string `json:"admin_password"`
}

// BootstrapResult carries everything the caller needs after provisioning. The
// API key appears here once and is never retrievable again.
type BootstrapResult struct {
	Project project.Project `json:"project"`
	APIKey  string          `json:"api_key"`
	Admin   user.User       `json:"admin"`
}

// BootstrapService provisions a project, its admin role, and its first admin
// user as one atomic unit.
type BootstrapService struct {
	run         databasex.TxRunner
	projects    project.Repository
	users       user.Repository
	memberships user.MembershipRepository
	roles       role.Repository
	hasher      *secrets.Hasher
	clock       kernel.Clock
}

func NewBootstrapService(
	run databasex.TxRunner,
	projects project.Repository,
	users user.Repository,
	memberships user.MembershipRepository,
	roles role.Repository,
	hasher *secrets.Hasher,
	clock kernel.Clock,
) *BootstrapService {
	return &BootstrapService{
		run:         run,
		projects:    projects,
		users:       users,
		memberships: memberships,
		roles:       roles,
		hasher:      hasher,
		clock:       clock,
	}
}

// Bootstrap runs the whole provisioning in one transaction: either the
// project, the admin role, the admin account and its membership all exist
// afterwards, or none of them do.
//
// If the admin email already belongs to an account, that account is reused
// and only the membership is new.
func (s *BootstrapService) Bootstrap(ctx context.Context, req BootstrapRequest) (*BootstrapResult, error) {
	if err := project.AssertName(req.ProjectName); err != nil {
		return nil, err
	}
	projectName := strings.TrimSpace(req.ProjectName)
	username := strings.TrimSpace(req.AdminUsername)
	email := strings.ToLower(strings.TrimSpace(req.AdminEmail))
	if username == "" || email == "" {
		return nil, user.ErrInvalidRequest()
	}

	apiKey, err := secrets.GenerateKey()
	if err != nil {
		return nil, err
	}
	apiKeyHash, err := s.hasher.Hash(apiKey)
	if err != nil {
		return nil, err
	}

	var result *BootstrapResult
	err = s.run(ctx, func(tx *sqlx.Tx) error {
		projects := s.projects.WithTx(tx)
		users := s.users.WithTx(tx)
		memberships := s.memberships.WithTx(tx)
		roles := s.roles.WithTx(tx)
		now := s.clock.Now()

		existing, err := projects.FindByName(ctx, projectName)
		if err != nil {
			return err
		}
		if err := project.AssertNameNotTaken(existing); err != nil {
			return err
		}
		p := project.Project{
			ID:         kernel.NewProjectID(uuid.NewString()),
			Name:       projectName,
			APIKeyHash: apiKeyHash,
			IsActive:   true,
			CreatedAt:  now,
			UpdatedAt:  now,
		}
		if err := projects.Create(ctx, p); err != nil {
			return err
		}

		admin, err := s.ensureUser(ctx, users, username, email, req.AdminPassword, now)
		if err != nil {
			return err
		}

		adminRole := role.Role{
			ID:        kernel.NewRoleID(uuid.NewString()),
			ProjectID: p.ID,
			Name:      iam.AdminRoleName,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := roles.Create(ctx, adminRole); err != nil {
			return err
		}

		m := user.Membership{
			ProjectID: p.ID,
			UserID:    admin.ID,
			RoleID:    adminRole.ID,
			IsActive:  true,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := memberships.Create(ctx, m); err != nil {
			return err
		}

		result = &BootstrapResult{Project: p, APIKey: apiKey, Admin: *admin}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *BootstrapService) ensureUser(ctx context.Context, users user.Repository, username, email, password string, now time.Time) (*user.User, error) {
	existing, err := users.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	if err := user.AssertPasswordStrength(password); err != nil {
		return nil, err
	}
	byUsername, err := users.FindByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if err := user.AssertUsernameAvailable(byUsername); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, err
	}
	u := user.User{
		ID:           kernel.NewUserID(uuid.NewString()),
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := users.Create(ctx, u); err != nil {
		return nil, err
	}
	return &u, nil
}
