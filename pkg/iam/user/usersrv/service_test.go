package usersrv_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/Abraxas-365/sentinel/pkg/databasex"
	"github.com/Abraxas-365/sentinel/pkg/iam"
	"github.com/Abraxas-365/sentinel/pkg/iam/auth"
	"github.com/Abraxas-365/sentinel/pkg/iam/iamtest"
	"github.com/Abraxas-365/sentinel/pkg/iam/role"
	"github.com/Abraxas-365/sentinel/pkg/iam/user"
	"github.com/Abraxas-365/sentinel/pkg/iam/user/usersrv"
	"github.com/Abraxas-365/sentinel/pkg/kernel"
	"github.com/Abraxas-365/sentinel/pkg/secrets"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var projectID = kernel.NewProjectID("project-1")

type fixture struct {
	svc         *usersrv.Service
	users       *iamtest.UserRepo
	memberships *iamtest.MembershipRepo
	roles       *iamtest.RoleRepo
	tokens      *iamtest.TokenRepo
	hasher      *secrets.Hasher
}

func newFixture() *fixture {
	users := iamtest.NewUserRepo()
	roles := iamtest.NewRoleRepo()
	memberships := iamtest.NewMembershipRepo(users, roles)
	tokens := iamtest.NewTokenRepo()
	hasher := secrets.NewHasher(4)
	clock := kernel.FixedClock{Instant: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	svc := usersrv.NewService(databasex.PassthroughRunner(), users, memberships, roles, tokens, hasher, clock)
	return &fixture{svc: svc, users: users, memberships: memberships, roles: roles, tokens: tokens, hasher: hasher}
}

func (f *fixture) seedRole(t *testing.T, name string) *role.Role {
	t.Helper()
	r := role.Role{
		ID:        kernel.NewRoleID("role-" + name),
		ProjectID: projectID,
		Name:      name,
	}
	require.NoError(t, f.roles.Create(context.Background(), r))
	return &r
}

func validRequest() user.CreateUserRequest {
	return user.CreateUserRequest{
		Username: "alice",
		Email:    "Alice@Example.COM",
		Password: "Sup3rSecret",
		RoleName: "editor",
	}
}

func TestCreateProjectUser(t *testing.T) {
	f := newFixture()
	f.seedRole(t, "editor")

	u, err := f.svc.CreateProjectUser(context.Background(), projectID, validRequest())
	require.NoError(t, err)
	assert.Equal(t, "alice", u.Username)
	assert.Equal(t, "alice@example.com", u.Email)
	assert.True(t, u.IsActive)
	assert.False(t, u.EmailVerified)
	assert.NotEqual(t, "Sup3rSecret", u.PasswordHash)

	m, err := f.memberships.Find(context.Background(), projectID, u.ID)
	require.NoError(t, err)
	require.NotNil(t, m)
	assert.True(t, m.IsActive)
}

func TestCreateProjectUserDuplicateEmail(t *testing.T) {
	f := newFixture()
	f.seedRole(t, "editor")

	_, err := f.svc.CreateProjectUser(context.Background(), projectID, validRequest())
	require.NoError(t, err)

	req := validRequest()
	req.Username = "alice2"
	_, err = f.svc.CreateProjectUser(context.Background(), projectID, req)
	assert.ErrorIs(t, err, user.ErrEmailAlreadyExists())
}

func TestCreateProjectUserDuplicateUsername(t *testing.T) {
	f := newFixture()
	f.seedRole(t, "editor")

	_, err := f.svc.CreateProjectUser(context.Background(), projectID, validRequest())
	require.NoError(t, err)

	req := validRequest()
	req.Email = "other@example.com"
	_, err = f.svc.CreateProjectUser(context.Background(), projectID, req)
	assert.ErrorIs(t, err, user.ErrAlreadyExists())
}

func TestCreateProjectUserWeakPassword(t *testing.T) {
	f := newFixture()
	f.seedRole(t, "editor")

	req := validRequest()
	req.Password = "weak"
	_, err := f.svc.CreateProjectUser(context.Background(), projectID, req)
	assert.ErrorIs(t, err, user.ErrWeakPassword())
}

func TestCreateProjectUserEmptyPassword(t *testing.T) {
	f := newFixture()
	f.seedRole(t, "editor")

	req := validRequest()
	req.Password = ""
	_, err := f.svc.CreateProjectUser(context.Background(), projectID, req)
	assert.ErrorIs(t, err, user.ErrPasswordRequired())
}

func TestCreateProjectUserUnknownRole(t *testing.T) {
	f := newFixture()

	_, err := f.svc.CreateProjectUser(context.Background(), projectID, validRequest())
	assert.ErrorIs(t, err, role.ErrNotFound())
}

func TestCreateProjectUserAdminRoleCreatedOnDemand(t *testing.T) {
	f := newFixture()

	req := validRequest()
	req.RoleName = iam.AdminRoleName
	_, err := f.svc.CreateProjectUser(context.Background(), projectID, req)
	require.NoError(t, err)

	r, err := f.roles.FindByName(context.Background(), projectID, iam.AdminRoleName)
	require.NoError(t, err)
	require.NotNil(t, r)
}

type recordingVerifier struct {
	mu    sync.Mutex
	calls []kernel.UserID
	done  chan struct{}
}

func (v *recordingVerifier) RequestEmailVerification(_ context.Context, userID kernel.UserID) error {
	v.mu.Lock()
	v.calls = append(v.calls, userID)
	v.mu.Unlock()
	close(v.done)
	return nil
}

func TestCreateProjectUserTriggersVerification(t *testing.T) {
	f := newFixture()
	f.seedRole(t, "editor")
	verifier := &recordingVerifier{done: make(chan struct{})}
	f.svc.SetVerifier(verifier)

	u, err := f.svc.CreateProjectUser(context.Background(), projectID, validRequest())
	require.NoError(t, err)

	select {
	case <-verifier.done:
	case <-time.After(2 * time.Second):
		t.Fatal("verification was never requested")
	}
	verifier.mu.Lock()
	defer verifier.mu.Unlock()
	assert.Equal(t, []kernel.UserID{u.ID}, verifier.calls)
}

func TestGetProjectUserRequiresMembership(t *testing.T) {
	f := newFixture()
	f.seedRole(t, "editor")

	u, err := f.svc.CreateProjectUser(context.Background(), projectID, validRequest())
	require.NoError(t, err)

	_, err = f.svc.GetProjectUser(context.Background(), projectID, u.ID)
	require.NoError(t, err)

	_, err = f.svc.GetProjectUser(context.Background(), kernel.NewProjectID("other"), u.ID)
	assert.ErrorIs(t, err, user.ErrNotInProject())
}

func TestSetMemberActiveDeactivateRevokesTokens(t *testing.T) {
	f := newFixture()
	f.seedRole(t, "editor")

	u, err := f.svc.CreateProjectUser(context.Background(), projectID, validRequest())
	require.NoError(t, err)
	require.NoError(t, f.tokens.Create(context.Background(), auth.RefreshToken{
		ID: "t1", UserID: u.ID, ProjectID: projectID, Token: "refresh-1",
		ExpiresAt: time.Now().Add(time.Hour),
	}))

	require.NoError(t, f.svc.SetMemberActive(context.Background(), projectID, u.ID, false))

	m, err := f.memberships.Find(context.Background(), projectID, u.ID)
	require.NoError(t, err)
	assert.False(t, m.IsActive)
	assert.Equal(t, 0, f.tokens.ActiveTokenCount(u.ID))

	require.NoError(t, f.svc.SetMemberActive(context.Background(), projectID, u.ID, true))
	m, err = f.memberships.Find(context.Background(), projectID, u.ID)
	require.NoError(t, err)
	assert.True(t, m.IsActive)
}

func TestSetMemberActiveUnknownMembership(t *testing.T) {
	f := newFixture()

	err := f.svc.SetMemberActive(context.Background(), projectID, kernel.NewUserID("ghost"), false)
	assert.ErrorIs(t, err, user.ErrNotInProject())
}

func TestChangePassword(t *testing.T) {
	f := newFixture()
	f.seedRole(t, "editor")

	u, err := f.svc.CreateProjectUser(context.Background(), projectID, validRequest())
	require.NoError(t, err)
	require.NoError(t, f.tokens.Create(context.Background(), auth.RefreshToken{
		ID: "t1", UserID: u.ID, ProjectID: projectID, Token: "refresh-1",
		ExpiresAt: time.Now().Add(time.Hour),
	}))

	err = f.svc.ChangePassword(context.Background(), u.ID, user.ChangePasswordRequest{
		CurrentPassword: "Sup3rSecret",
		NewPassword:     "An0therSecret",
	})
	require.NoError(t, err)

	stored, err := f.users.FindByID(context.Background(), u.ID)
	require.NoError(t, err)
	assert.True(t, f.hasher.Verify("An0therSecret", stored.PasswordHash))
	assert.Equal(t, 0, f.tokens.ActiveTokenCount(u.ID))
}

func TestChangePasswordWrongCurrent(t *testing.T) {
	f := newFixture()
	f.seedRole(t, "editor")

	u, err := f.svc.CreateProjectUser(context.Background(), projectID, validRequest())
	require.NoError(t, err)

	err = f.svc.ChangePassword(context.Background(), u.ID, user.ChangePasswordRequest{
		CurrentPassword: "not-the-password",
		NewPassword:     "An0therSecret",
	})
	assert.ErrorIs(t, err, auth.ErrWrongPassword())
}

func TestChangePasswordSameAsCurrent(t *testing.T) {
	f := newFixture()
	f.seedRole(t, "editor")

	u, err := f.svc.CreateProjectUser(context.Background(), projectID, validRequest())
	require.NoError(t, err)

	err = f.svc.ChangePassword(context.Background(), u.ID, user.ChangePasswordRequest{
		CurrentPassword: "Sup3rSecret",
		NewPassword:     "Sup3rSecret",
	})
	assert.ErrorIs(t, err, user.ErrSamePassword())
}

func TestListProjectUsers(t *testing.T) {
	f := newFixture()
	f.seedRole(t, "editor")

	_, err := f.svc.CreateProjectUser(context.Background(), projectID, validRequest())
	require.NoError(t, err)
	req := validRequest()
	req.Username = "bob"
	req.Email = "bob@example.com"
	_, err = f.svc.CreateProjectUser(context.Background(), projectID, req)
	require.NoError(t, err)

	page, err := f.svc.ListProjectUsers(context.Background(), projectID, kernel.PaginationOptions{Page: 1, PageSize: 10})
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	assert.Equal(t, 2, page.Page.Total)
	assert.Equal(t, "editor", page.Items[0].RoleName)
	assert.True(t, page.Items[0].MembershipActive)
}
