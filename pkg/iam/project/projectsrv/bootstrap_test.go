package projectsrv_test

import (
	"context"
	"testing"
	"time"

	"github.com/Abraxas-365/sentinel/pkg/databasex"
	"github.com/Abraxas-365/sentinel/pkg/iam"
	"github.com/Abraxas-365/sentinel/pkg/iam/iamtest"
	"github.com/Abraxas-365/sentinel/pkg/iam/project"
	"github.com/Abraxas-365/sentinel/pkg/iam/project/projectsrv"
	"github.com/Abraxas-365/sentinel/pkg/iam/user"
	"github.com/Abraxas-365/sentinel/pkg/kernel"
	"github.com/Abraxas-365/sentinel/pkg/secrets"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type bootstrapFixture struct {
	svc         *projectsrv.BootstrapService
	projects    *iamtest.ProjectRepo
	users       *iamtest.UserRepo
	memberships *iamtest.MembershipRepo
	roles       *iamtest.RoleRepo
}

func newBootstrapFixture() *bootstrapFixture {
	projects := iamtest.NewProjectRepo()
	users := iamtest.NewUserRepo()
	roles := iamtest.NewRoleRepo()
	memberships := iamtest.NewMembershipRepo(users, roles)
	clock := kernel.FixedClock{Instant: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	svc := projectsrv.NewBootstrapService(
		databasex.PassthroughRunner(), projects, users, memberships, roles, secrets.NewHasher(4), clock)
	return &bootstrapFixture{svc: svc, projects: projects, users: users, memberships: memberships, roles: roles}
}

func validBootstrapRequest() projectsrv.BootstrapRequest {
	return projectsrv.BootstrapRequest{
		ProjectName:   "acme",
		AdminUsername: "root",
		AdminEmail:    "Root@Acme.IO",
		AdminPassword: "Sup3rSecret",
	}
}

func TestBootstrapCreatesEverything(t *testing.T) {
	f := newBootstrapFixture()

	result, err := f.svc.Bootstrap(context.Background(), validBootstrapRequest())
	require.NoError(t, err)
	require.Len(t, result.APIKey, 64)
	assert.Equal(t, "acme", result.Project.Name)
	assert.Equal(t, "root@acme.io", result.Admin.Email)

	adminRole, err := f.roles.FindByName(context.Background(), result.Project.ID, iam.AdminRoleName)
	require.NoError(t, err)
	require.NotNil(t, adminRole)

	m, err := f.memberships.Find(context.Background(), result.Project.ID, result.Admin.ID)
	require.NoError(t, err)
	require.NotNil(t, m)
	assert.Equal(t, adminRole.ID, m.RoleID)
	assert.True(t, m.IsActive)
}

func TestBootstrapProjectNameTaken(t *testing.T) {
	f := newBootstrapFixture()

	_, err := f.svc.Bootstrap(context.Background(), validBootstrapRequest())
	require.NoError(t, err)

	req := validBootstrapRequest()
	req.AdminEmail = "other@acme.io"
	req.AdminUsername = "other"
	_, err = f.svc.Bootstrap(context.Background(), req)
	assert.ErrorIs(t, err, project.ErrNameRepeated())
}

func TestBootstrapReusesExistingAccountByEmail(t *testing.T) {
	f := newBootstrapFixture()

	first, err := f.svc.Bootstrap(context.Background(), validBootstrapRequest())
	require.NoError(t, err)

	req := validBootstrapRequest()
	req.ProjectName = "globex"
	// Different username and password are ignored when the email matches.
	req.AdminUsername = "someone-else"
	req.AdminPassword = "irrelevant"
	second, err := f.svc.Bootstrap(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, first.Admin.ID, second.Admin.ID)
	assert.Equal(t, "root", second.Admin.Username)
}

func TestBootstrapWeakPassword(t *testing.T) {
	f := newBootstrapFixture()

	req := validBootstrapRequest()
	req.AdminPassword = "short"
	_, err := f.svc.Bootstrap(context.Background(), req)
	assert.ErrorIs(t, err, user.ErrWeakPassword())
}

func TestBootstrapMissingAdminFields(t *testing.T) {
	f := newBootstrapFixture()

	req := validBootstrapRequest()
	req.AdminEmail = "  "
	_, err := f.svc.Bootstrap(context.Background(), req)
	assert.ErrorIs(t, err, user.ErrInvalidRequest())
}
