package rolesrv_test

import (
	"context"
	"testing"
	"time"

	"github.com/Abraxas-365/sentinel/pkg/iam/iamtest"
	"github.com/Abraxas-365/sentinel/pkg/iam/role"
	"github.com/Abraxas-365/sentinel/pkg/iam/role/rolesrv"
	"github.com/Abraxas-365/sentinel/pkg/kernel"
	"github.com/Abraxas-365/sentinel/pkg/ptrx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	projectA = kernel.NewProjectID("project-a")
	projectB = kernel.NewProjectID("project-b")
)

func newService() *rolesrv.Service {
	clock := kernel.FixedClock{Instant: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	return rolesrv.NewService(iamtest.NewRoleRepo(), clock)
}

func TestCreateRole(t *testing.T) {
	svc := newService()

	r, err := svc.CreateRole(context.Background(), projectA, role.CreateRoleRequest{Name: "  editor  ", Description: "can edit"})
	require.NoError(t, err)
	assert.Equal(t, "editor", r.Name)
	assert.Equal(t, "can edit", r.Description)
	assert.Equal(t, projectA, r.ProjectID)
}

func TestCreateRoleDuplicateName(t *testing.T) {
	svc := newService()

	_, err := svc.CreateRole(context.Background(), projectA, role.CreateRoleRequest{Name: "editor"})
	require.NoError(t, err)

	_, err = svc.CreateRole(context.Background(), projectA, role.CreateRoleRequest{Name: "editor"})
	assert.ErrorIs(t, err, role.ErrNameRepeated())
}

func TestCreateRoleEmptyName(t *testing.T) {
	svc := newService()

	_, err := svc.CreateRole(context.Background(), projectA, role.CreateRoleRequest{Name: "  "})
	assert.ErrorIs(t, err, role.ErrNameRequired())
}

func TestSameNameAllowedAcrossProjects(t *testing.T) {
	svc := newService()

	a, err := svc.CreateRole(context.Background(), projectA, role.CreateRoleRequest{Name: "editor"})
	require.NoError(t, err)
	b, err := svc.CreateRole(context.Background(), projectB, role.CreateRoleRequest{Name: "editor"})
	require.NoError(t, err)
	assert.NotEqual(t, a.ID, b.ID)
}

func TestEnsureRoleIsIdempotent(t *testing.T) {
	svc := newService()

	first, err := svc.EnsureRole(context.Background(), projectA, "viewer")
	require.NoError(t, err)
	second, err := svc.EnsureRole(context.Background(), projectA, "viewer")
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
}

func TestGetRoleScopedToProject(t *testing.T) {
	svc := newService()

	r, err := svc.CreateRole(context.Background(), projectA, role.CreateRoleRequest{Name: "editor"})
	require.NoError(t, err)

	_, err = svc.GetRole(context.Background(), projectB, r.ID)
	assert.ErrorIs(t, err, role.ErrNotFound())
}

func TestUpdateRoleRenameUniqueness(t *testing.T) {
	svc := newService()

	editor, err := svc.CreateRole(context.Background(), projectA, role.CreateRoleRequest{Name: "editor"})
	require.NoError(t, err)
	_, err = svc.CreateRole(context.Background(), projectA, role.CreateRoleRequest{Name: "viewer"})
	require.NoError(t, err)

	_, err = svc.UpdateRole(context.Background(), projectA, editor.ID, role.UpdateRoleRequest{Name: ptrx.Ptr("viewer")})
	assert.ErrorIs(t, err, role.ErrNameRepeated())

	updated, err := svc.UpdateRole(context.Background(), projectA, editor.ID, role.UpdateRoleRequest{
		Name:        ptrx.Ptr("publisher"),
		Description: ptrx.Ptr("can publish"),
	})
	require.NoError(t, err)
	assert.Equal(t, "publisher", updated.Name)
	assert.Equal(t, "can publish", updated.Description)
}

func TestUpdateRoleKeepsOmittedFields(t *testing.T) {
	svc := newService()

	r, err := svc.CreateRole(context.Background(), projectA, role.CreateRoleRequest{
		Name:        "editor",
		Description: "edits content",
	})
	require.NoError(t, err)

	updated, err := svc.UpdateRole(context.Background(), projectA, r.ID, role.UpdateRoleRequest{
		Name: ptrx.Ptr("author"),
	})
	require.NoError(t, err)
	assert.Equal(t, "author", updated.Name)
	assert.Equal(t, "edits content", updated.Description)
}

func TestDeleteRole(t *testing.T) {
	svc := newService()

	r, err := svc.CreateRole(context.Background(), projectA, role.CreateRoleRequest{Name: "editor"})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteRole(context.Background(), projectA, r.ID))

	err = svc.DeleteRole(context.Background(), projectA, r.ID)
	assert.ErrorIs(t, err, role.ErrNotFound())
}

func TestListRoles(t *testing.T) {
	svc := newService()

	for _, name := range []string{"editor", "viewer"} {
		_, err := svc.CreateRole(context.Background(), projectA, role.CreateRoleRequest{Name: name})
		require.NoError(t, err)
	}
	_, err := svc.CreateRole(context.Background(), projectB, role.CreateRoleRequest{Name: "editor"})
	require.NoError(t, err)

	roles, err := svc.ListRoles(context.Background(), projectA)
	require.NoError(t, err)
	assert.Len(t, roles, 2)
}
