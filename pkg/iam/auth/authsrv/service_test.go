package authsrv_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/Abraxas-365/sentinel/pkg/databasex"
	"github.com/Abraxas-365/sentinel/pkg/iam/auth"
	"github.com/Abraxas-365/sentinel/pkg/iam/auth/authsrv"
	"github.com/Abraxas-365/sentinel/pkg/iam/iamtest"
	"github.com/Abraxas-365/sentinel/pkg/iam/role"
	"github.com/Abraxas-365/sentinel/pkg/iam/user"
	"github.com/Abraxas-365/sentinel/pkg/kernel"
	"github.com/Abraxas-365/sentinel/pkg/secrets"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var projectID = kernel.NewProjectID("project-1")

type fixture struct {
	svc         *authsrv.Service
	signer      *authsrv.JWTSigner
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
	clock := kernel.FixedClock{Instant: epoch}
	signer := newSigner(clock)
	svc := authsrv.NewService(databasex.PassthroughRunner(), users, memberships, roles, tokens,
		signer, hasher, clock, 30*24*time.Hour)
	return &fixture{svc: svc, signer: signer, users: users, memberships: memberships, roles: roles, tokens: tokens, hasher: hasher}
}

// seedMember creates an active user with an active membership and role in the
// test project.
func (f *fixture) seedMember(t *testing.T, email, password string) *user.User {
	t.Helper()
	hash, err := f.hasher.Hash(password)
	require.NoError(t, err)

	u := user.User{
		ID:           kernel.NewUserID("user-" + email),
		Username:     email,
		Email:        email,
		PasswordHash: hash,
		IsActive:     true,
	}
	require.NoError(t, f.users.Create(context.Background(), u))

	r := role.Role{ID: kernel.NewRoleID("role-editor"), ProjectID: projectID, Name: "editor"}
	if existing, _ := f.roles.FindByID(context.Background(), projectID, r.ID); existing == nil {
		require.NoError(t, f.roles.Create(context.Background(), r))
	}
	require.NoError(t, f.memberships.Create(context.Background(), user.Membership{
		ProjectID: projectID,
		UserID:    u.ID,
		RoleID:    r.ID,
		IsActive:  true,
	}))
	return &u
}

func TestAuthenticate(t *testing.T) {
	f := newFixture()
	f.seedMember(t, "alice@example.com", "Sup3rSecret")

	pair, err := f.svc.Authenticate(context.Background(), projectID, auth.LoginRequest{
		Email:    " Alice@Example.COM ",
		Password: "Sup3rSecret",
	})
	require.NoError(t, err)
	require.NotEmpty(t, pair.AccessToken)
	require.NotEmpty(t, pair.RefreshToken)
	assert.Equal(t, int64((15 * time.Minute).Seconds()), pair.ExpiresIn)

	claims, err := f.signer.Verify(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", claims.Email)
	assert.Equal(t, "editor", claims.Role)
	assert.Equal(t, projectID.String(), claims.ProjectID)
}

func TestAuthenticateUnknownEmailAndWrongPasswordMatch(t *testing.T) {
	f := newFixture()
	f.seedMember(t, "alice@example.com", "Sup3rSecret")

	_, err := f.svc.Authenticate(context.Background(), projectID, auth.LoginRequest{
		Email:    "nobody@example.com",
		Password: "whatever",
	})
	assert.ErrorIs(t, err, auth.ErrInvalidCredentials())

	_, err = f.svc.Authenticate(context.Background(), projectID, auth.LoginRequest{
		Email:    "alice@example.com",
		Password: "wrong",
	})
	assert.ErrorIs(t, err, auth.ErrInvalidCredentials())
}

func TestAuthenticateInactiveUser(t *testing.T) {
	f := newFixture()
	u := f.seedMember(t, "alice@example.com", "Sup3rSecret")
	u.IsActive = false
	require.NoError(t, f.users.Update(context.Background(), *u))

	_, err := f.svc.Authenticate(context.Background(), projectID, auth.LoginRequest{
		Email:    "alice@example.com",
		Password: "Sup3rSecret",
	})
	assert.ErrorIs(t, err, user.ErrDisabled())
}

func TestAuthenticateNonMember(t *testing.T) {
	f := newFixture()
	f.seedMember(t, "alice@example.com", "Sup3rSecret")

	_, err := f.svc.Authenticate(context.Background(), kernel.NewProjectID("other"), auth.LoginRequest{
		Email:    "alice@example.com",
		Password: "Sup3rSecret",
	})
	assert.ErrorIs(t, err, user.ErrNotInProject())
}

func TestAuthenticateInactiveMembership(t *testing.T) {
	f := newFixture()
	u := f.seedMember(t, "alice@example.com", "Sup3rSecret")
	require.NoError(t, f.memberships.SetActive(context.Background(), projectID, u.ID, false))

	_, err := f.svc.Authenticate(context.Background(), projectID, auth.LoginRequest{
		Email:    "alice@example.com",
		Password: "Sup3rSecret",
	})
	assert.ErrorIs(t, err, user.ErrNotInProject())
}

func login(t *testing.T, f *fixture) *auth.TokenPair {
	t.Helper()
	pair, err := f.svc.Authenticate(context.Background(), projectID, auth.LoginRequest{
		Email:    "alice@example.com",
		Password: "Sup3rSecret",
	})
	require.NoError(t, err)
	return pair
}

func TestRefreshRotates(t *testing.T) {
	f := newFixture()
	f.seedMember(t, "alice@example.com", "Sup3rSecret")
	pair := login(t, f)

	next, err := f.svc.Refresh(context.Background(), projectID, pair.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, pair.RefreshToken, next.RefreshToken)

	// the rotated-out token is spent
	_, err = f.svc.Refresh(context.Background(), projectID, pair.RefreshToken)
	assert.ErrorIs(t, err, auth.ErrInvalidRefreshToken())

	// the new one works
	_, err = f.svc.Refresh(context.Background(), projectID, next.RefreshToken)
	require.NoError(t, err)
}

func TestRefreshForeignTenant(t *testing.T) {
	f := newFixture()
	f.seedMember(t, "alice@example.com", "Sup3rSecret")
	pair := login(t, f)

	// a token issued under one project cannot be redeemed through another
	_, err := f.svc.Refresh(context.Background(), kernel.NewProjectID("other"), pair.RefreshToken)
	assert.ErrorIs(t, err, auth.ErrInvalidRefreshToken())

	// and the failed attempt does not spend the token
	next, err := f.svc.Refresh(context.Background(), projectID, pair.RefreshToken)
	require.NoError(t, err)

	claims, err := f.signer.Verify(next.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, projectID.String(), claims.ProjectID)
}

func TestRefreshUnknownToken(t *testing.T) {
	f := newFixture()

	_, err := f.svc.Refresh(context.Background(), projectID, "never-issued")
	assert.ErrorIs(t, err, auth.ErrInvalidRefreshToken())

	_, err = f.svc.Refresh(context.Background(), projectID, "")
	assert.ErrorIs(t, err, auth.ErrInvalidRefreshToken())
}

func TestRefreshAfterUserDeactivated(t *testing.T) {
	f := newFixture()
	u := f.seedMember(t, "alice@example.com", "Sup3rSecret")
	pair := login(t, f)

	u.IsActive = false
	require.NoError(t, f.users.Update(context.Background(), *u))

	_, err := f.svc.Refresh(context.Background(), projectID, pair.RefreshToken)
	assert.ErrorIs(t, err, auth.ErrInvalidRefreshToken())
}

func TestRefreshAfterMembershipDeactivated(t *testing.T) {
	f := newFixture()
	u := f.seedMember(t, "alice@example.com", "Sup3rSecret")
	pair := login(t, f)

	require.NoError(t, f.memberships.SetActive(context.Background(), projectID, u.ID, false))

	_, err := f.svc.Refresh(context.Background(), projectID, pair.RefreshToken)
	assert.ErrorIs(t, err, user.ErrNotInProject())
}

func TestConcurrentRefreshSingleWinner(t *testing.T) {
	f := newFixture()
	f.seedMember(t, "alice@example.com", "Sup3rSecret")
	pair := login(t, f)

	const attempts = 16
	var wg sync.WaitGroup
	errs := make([]error, attempts)
	start := make(chan struct{})
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			_, errs[i] = f.svc.Refresh(context.Background(), projectID, pair.RefreshToken)
		}(i)
	}
	close(start)
	wg.Wait()

	winners := 0
	for _, err := range errs {
		if err == nil {
			winners++
		} else {
			assert.ErrorIs(t, err, auth.ErrInvalidRefreshToken())
		}
	}
	assert.Equal(t, 1, winners)
}

func TestLogout(t *testing.T) {
	f := newFixture()
	f.seedMember(t, "alice@example.com", "Sup3rSecret")
	pair := login(t, f)

	require.NoError(t, f.svc.Logout(context.Background(), pair.RefreshToken))

	_, err := f.svc.Refresh(context.Background(), projectID, pair.RefreshToken)
	assert.ErrorIs(t, err, auth.ErrInvalidRefreshToken())

	err = f.svc.Logout(context.Background(), pair.RefreshToken)
	assert.ErrorIs(t, err, auth.ErrInvalidRefreshToken())
}

func TestCurrentUser(t *testing.T) {
	f := newFixture()
	u := f.seedMember(t, "alice@example.com", "Sup3rSecret")

	got, err := f.svc.CurrentUser(context.Background(), u.ID)
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	_, err = f.svc.CurrentUser(context.Background(), kernel.NewUserID("ghost"))
	assert.ErrorIs(t, err, user.ErrNotFound())
}
