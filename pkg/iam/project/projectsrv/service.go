package projectsrv

import (
	"context"
	"strings"

	"github.com/Abraxas-365/sentinel/pkg/errx"
	"github.com/Abraxas-365/sentinel/pkg/iam/project"
	"github.com/Abraxas-365/sentinel/pkg/kernel"
	"github.com/Abraxas-365/sentinel/pkg/secrets"
	"github.com/google/uuid"
)

// Service is the project state machine: create, disable, enable, update, and
// API-key validation.
type Service struct {
	repo   project.Repository
	hasher *secrets.Hasher
	clock  kernel.Clock
}

func NewService(repo project.Repository, hasher *secrets.Hasher, clock kernel.Clock) *Service {
	return &Service{repo: repo, hasher: hasher, clock: clock}
}

// CreateProject creates an active tenant with a fresh API key. The plaintext
// key is returned exactly once.
func (s *Service) CreateProject(ctx context.Context, name string) (*project.CreatedProject, error) {
	if err := project.AssertName(name); err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)

	existing, err := s.repo.FindByName(ctx, name)
	if err != nil {
		return nil, err
	}
	if err := project.AssertNameNotTaken(existing); err != nil {
		return nil, err
	}

	apiKey, err := secrets.GenerateKey()
	if err != nil {
		return nil, err
	}
	hash, err := s.hasher.Hash(apiKey)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	p := project.Project{
		ID:         kernel.NewProjectID(uuid.NewString()),
		Name:       name,
		APIKeyHash: hash,
		IsActive:   true,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, errx.Wrap(err, "failed to save project", errx.TypeInternal)
	}

	return &project.CreatedProject{Project: p, APIKey: apiKey}, nil
}

// GetProject returns one project by ID.
func (s *Service) GetProject(ctx context.Context, id kernel.ProjectID) (*project.Project, error) {
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := project.AssertFound(p); err != nil {
		return nil, err
	}
	return p, nil
}

// ListProjects returns a page of projects.
func (s *Service) ListProjects(ctx context.Context, opts kernel.PaginationOptions) (kernel.Paginated[*project.Project], error) {
	opts = opts.Normalize()
	items, total, err := s.repo.List(ctx, opts)
	if err != nil {
		return kernel.Paginated[*project.Project]{}, errx.Wrap(err, "failed to list projects", errx.TypeInternal)
	}
	return kernel.NewPaginated(items, opts.Page, opts.PageSize, total), nil
}

// DisableProject deactivates a tenant; all its scoped operations start
// failing with PROJECT_DISABLED.
func (s *Service) DisableProject(ctx context.Context, id kernel.ProjectID) (*project.Project, error) {
	p, err := s.GetProject(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := project.AssertNotDisabled(p); err != nil {
		return nil, err
	}

	p.IsActive = false
	p.UpdatedAt = s.clock.Now()
	if err := s.repo.Update(ctx, *p); err != nil {
		return nil, err
	}
	return p, nil
}

// EnableProject reactivates a disabled tenant.
func (s *Service) EnableProject(ctx context.Context, id kernel.ProjectID) (*project.Project, error) {
	p, err := s.GetProject(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := project.AssertNotActive(p); err != nil {
		return nil, err
	}

	p.IsActive = true
	p.UpdatedAt = s.clock.Now()
	if err := s.repo.Update(ctx, *p); err != nil {
		return nil, err
	}
	return p, nil
}

// UpdateProject applies a partial update. The project must exist and be
// active.
func (s *Service) UpdateProject(ctx context.Context, id kernel.ProjectID, req project.UpdateProjectRequest) (*project.Project, error) {
	p, err := s.GetProject(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := project.AssertActive(p); err != nil {
		return nil, err
	}

	if req.Name != nil {
		if err := project.AssertName(*req.Name); err != nil {
			return nil, err
		}
		name := strings.TrimSpace(*req.Name)
		if name != p.Name {
			existing, err := s.repo.FindByName(ctx, name)
			if err != nil {
				return nil, err
			}
			if err := project.AssertNameNotTaken(existing); err != nil {
				return nil, err
			}
			p.Name = name
		}
	}

	p.UpdatedAt = s.clock.Now()
	if err := s.repo.Update(ctx, *p); err != nil {
		return nil, err
	}
	return p, nil
}

// ValidateAPIKey resolves the tenant a bearer API key belongs to. The scan is
// linear with a bcrypt verify per active project; acceptable while tenant
// cardinality stays small.
func (s *Service) ValidateAPIKey(ctx context.Context, candidate string) (*project.Project, error) {
	if candidate == "" {
		return nil, project.ErrInvalidAPIKey()
	}
	active, err := s.repo.FindActive(ctx)
	if err != nil {
		return nil, errx.Wrap(err, "failed to load projects", errx.TypeInternal)
	}
	for _, p := range active {
		if s.hasher.Verify(candidate, p.APIKeyHash) {
			return p, nil
		}
	}
	return nil, project.ErrInvalidAPIKey()
}
