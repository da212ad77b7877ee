package projectsrv_test

import (
	"context"
	"testing"
	"time"

	"github.com/Abraxas-365/sentinel/pkg/iam/iamtest"
	"github.com/Abraxas-365/sentinel/pkg/iam/project"
	"github.com/Abraxas-365/sentinel/pkg/iam/project/projectsrv"
	"github.com/Abraxas-365/sentinel/pkg/kernel"
	"github.com/Abraxas-365/sentinel/pkg/secrets"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newService(repo *iamtest.ProjectRepo) *projectsrv.Service {
	clock := kernel.FixedClock{Instant: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	return projectsrv.NewService(repo, secrets.NewHasher(4), clock)
}

func TestCreateProjectReturnsPlaintextKeyOnce(t *testing.T) {
	repo := iamtest.NewProjectRepo()
	svc := newService(repo)

	created, err := svc.CreateProject(context.Background(), "  acme  ")
	require.NoError(t, err)
	require.Len(t, created.APIKey, 64)
	assert.Equal(t, "acme", created.Project.Name)
	assert.True(t, created.Project.IsActive)

	stored, err := repo.FindByID(context.Background(), created.Project.ID)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.NotEqual(t, created.APIKey, stored.APIKeyHash)
}

func TestCreateProjectDuplicateName(t *testing.T) {
	repo := iamtest.NewProjectRepo()
	svc := newService(repo)

	_, err := svc.CreateProject(context.Background(), "acme")
	require.NoError(t, err)

	_, err = svc.CreateProject(context.Background(), "acme")
	assert.ErrorIs(t, err, project.ErrNameRepeated())
}

func TestCreateProjectEmptyName(t *testing.T) {
	svc := newService(iamtest.NewProjectRepo())

	_, err := svc.CreateProject(context.Background(), "   ")
	assert.ErrorIs(t, err, project.ErrNameRequired())
}

func TestDisableEnableProject(t *testing.T) {
	repo := iamtest.NewProjectRepo()
	svc := newService(repo)

	created, err := svc.CreateProject(context.Background(), "acme")
	require.NoError(t, err)
	id := created.Project.ID

	disabled, err := svc.DisableProject(context.Background(), id)
	require.NoError(t, err)
	assert.False(t, disabled.IsActive)

	_, err = svc.DisableProject(context.Background(), id)
	assert.ErrorIs(t, err, project.ErrAlreadyDisabled())

	enabled, err := svc.EnableProject(context.Background(), id)
	require.NoError(t, err)
	assert.True(t, enabled.IsActive)

	_, err = svc.EnableProject(context.Background(), id)
	assert.ErrorIs(t, err, project.ErrAlreadyActive())
}

func TestUpdateDisabledProjectFails(t *testing.T) {
	repo := iamtest.NewProjectRepo()
	svc := newService(repo)

	created, err := svc.CreateProject(context.Background(), "acme")
	require.NoError(t, err)
	_, err = svc.DisableProject(context.Background(), created.Project.ID)
	require.NoError(t, err)

	name := "acme-renamed"
	_, err = svc.UpdateProject(context.Background(), created.Project.ID, project.UpdateProjectRequest{Name: &name})
	assert.ErrorIs(t, err, project.ErrDisabled())
}

func TestUpdateProjectRenameUniqueness(t *testing.T) {
	repo := iamtest.NewProjectRepo()
	svc := newService(repo)

	first, err := svc.CreateProject(context.Background(), "acme")
	require.NoError(t, err)
	_, err = svc.CreateProject(context.Background(), "globex")
	require.NoError(t, err)

	taken := "globex"
	_, err = svc.UpdateProject(context.Background(), first.Project.ID, project.UpdateProjectRequest{Name: &taken})
	assert.ErrorIs(t, err, project.ErrNameRepeated())

	fresh := "initech"
	updated, err := svc.UpdateProject(context.Background(), first.Project.ID, project.UpdateProjectRequest{Name: &fresh})
	require.NoError(t, err)
	assert.Equal(t, "initech", updated.Name)
}

func TestValidateAPIKey(t *testing.T) {
	repo := iamtest.NewProjectRepo()
	svc := newService(repo)

	created, err := svc.CreateProject(context.Background(), "acme")
	require.NoError(t, err)

	p, err := svc.ValidateAPIKey(context.Background(), created.APIKey)
	require.NoError(t, err)
	assert.Equal(t, created.Project.ID, p.ID)

	_, err = svc.ValidateAPIKey(context.Background(), "wrong-key")
	assert.ErrorIs(t, err, project.ErrInvalidAPIKey())

	_, err = svc.ValidateAPIKey(context.Background(), "")
	assert.ErrorIs(t, err, project.ErrInvalidAPIKey())
}

func TestValidateAPIKeyIgnoresDisabledProjects(t *testing.T) {
	repo := iamtest.NewProjectRepo()
	svc := newService(repo)

	created, err := svc.CreateProject(context.Background(), "acme")
	require.NoError(t, err)
	_, err = svc.DisableProject(context.Background(), created.Project.ID)
	require.NoError(t, err)

	_, err = svc.ValidateAPIKey(context.Background(), created.APIKey)
	assert.ErrorIs(t, err, project.ErrInvalidAPIKey())
}

func TestListProjectsPagination(t *testing.T) {
	repo := iamtest.NewProjectRepo()
	svc := newService(repo)

	for _, name := range []string{"alpha", "bravo", "charlie"} {
		_, err := svc.CreateProject(context.Background(), name)
		require.NoError(t, err)
	}

	page, err := svc.ListProjects(context.Background(), kernel.PaginationOptions{Page: 1, PageSize: 2})
	require.NoError(t, err)
	assert.Len(t, page.Items, 2)
	assert.Equal(t, 3, page.Page.Total)
	assert.Equal(t, 2, page.Page.Pages)

	page, err = svc.ListProjects(context.Background(), kernel.PaginationOptions{Page: 2, PageSize: 2})
	require.NoError(t, err)
	assert.Len(t, page.Items, 1)
	assert.False(t, page.Empty)
}
