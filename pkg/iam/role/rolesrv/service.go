// Package rolesrv implements role management inside a project.
package rolesrv

import (
	"context"
	"strings"

	"github.com/Abraxas-365/sentinel/pkg/errx"
	"github.com/Abraxas-365/sentinel/pkg/iam/role"
	"github.com/Abraxas-365/sentinel/pkg/kernel"
	"github.com/Abraxas-365/sentinel/pkg/ptrx"
	"github.com/google/uuid"
)

type Service struct {
	repo  role.Repository
	clock kernel.Clock
}

func NewService(repo role.Repository, clock kernel.Clock) *Service {
	return &Service{repo: repo, clock: clock}
}

// CreateRole creates a role in the project. Names are unique per project.
func (s *Service) CreateRole(ctx context.Context, projectID kernel.ProjectID, req role.CreateRoleRequest) (*role.Role, error) {
	if err := role.AssertName(req.Name); err != nil {
		return nil, err
	}
	name := strings.TrimSpace(req.Name)

	existing, err := s.repo.FindByName(ctx, projectID, name)
	if err != nil {
		return nil, err
	}
	if err := role.AssertNameNotTaken(existing); err != nil {
		return nil, err
	}

	now := s.clock.Now()
	r := role.Role{
		ID:          kernel.NewRoleID(uuid.NewString()),
		ProjectID:   projectID,
		Name:        name,
		Description: strings.TrimSpace(req.Description),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.Create(ctx, r); err != nil {
		return nil, errx.Wrap(err, "failed to save role", errx.TypeInternal)
	}
	return &r, nil
}

// EnsureRole returns the project's role with the given name, creating it when
// missing. Used when provisioning admins.
func (s *Service) EnsureRole(ctx context.Context, projectID kernel.ProjectID, name string) (*role.Role, error) {
	existing, err := s.repo.FindByName(ctx, projectID, name)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}
	return s.CreateRole(ctx, projectID, role.CreateRoleRequest{Name: name})
}

func (s *Service) GetRole(ctx context.Context, projectID kernel.ProjectID, id kernel.RoleID) (*role.Role, error) {
	r, err := s.repo.FindByID(ctx, projectID, id)
	if err != nil {
		return nil, err
	}
	if err := role.AssertFound(r); err != nil {
		return nil, err
	}
	return r, nil
}

func (s *Service) ListRoles(ctx context.Context, projectID kernel.ProjectID) ([]*role.Role, error) {
	roles, err := s.repo.ListByProject(ctx, projectID)
	if err != nil {
		return nil, errx.Wrap(err, "failed to list roles", errx.TypeInternal)
	}
	return roles, nil
}

// UpdateRole applies a partial update, re-checking name uniqueness on rename.
func (s *Service) UpdateRole(ctx context.Context, projectID kernel.ProjectID, id kernel.RoleID, req role.UpdateRoleRequest) (*role.Role, error) {
	r, err := s.GetRole(ctx, projectID, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		if err := role.AssertName(*req.Name); err != nil {
			return nil, err
		}
		name := strings.TrimSpace(*req.Name)
		if name != r.Name {
			existing, err := s.repo.FindByName(ctx, projectID, name)
			if err != nil {
				return nil, err
			}
			if err := role.AssertNameNotTaken(existing); err != nil {
				return nil, err
			}
			r.Name = name
		}
	}
	r.Description = strings.TrimSpace(ptrx.DerefOr(req.Description, r.Description))

	r.UpdatedAt = s.clock.Now()
	if err := s.repo.Update(ctx, *r); err != nil {
		return nil, err
	}
	return r, nil
}

func (s *Service) DeleteRole(ctx context.Context, projectID kernel.ProjectID, id kernel.RoleID) error {
	r, err := s.GetRole(ctx, projectID, id)
	if err != nil {
		return err
	}
	return s.repo.Delete(ctx, projectID, r.ID)
}
