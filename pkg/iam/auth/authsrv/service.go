// Package authsrv implements password login, token refresh and logout.
package authsrv

import (
	"context"
	"strings"
	"time"

	"github.com/Abraxas-365/sentinel/pkg/databasex"
	"github.com/Abraxas-365/sentinel/pkg/iam/auth"
	"github.com/Abraxas-365/sentinel/pkg/iam/role"
	"github.com/Abraxas-365/sentinel/pkg/iam/user"
	"github.com/Abraxas-365/sentinel/pkg/kernel"
	"github.com/Abraxas-365/sentinel/pkg/secrets"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// dummyHash absorbs a bcrypt compare when the email is unknown, so unknown
// email and wrong password answer in comparable time with the same error.
const dummyHash = "$2a$12$R9h/cIPz0gi.URNNX3kh2OPST9/PgBkqquzi.Ss7KIUgO2t0jWMUW"

type Service struct {
	run         databasex.TxRunner
	users       user.Repository
	memberships user.MembershipRepository
	roles       role.Repository
	tokens      auth.TokenRepository
	signer      *JWTSigner
	hasher      *secrets.Hasher
	clock       kernel.Clock
	refreshTTL  time.Duration
}

func NewService(
	run databasex.TxRunner,
	users user.Repository,
	memberships user.MembershipRepository,
	roles role.Repository,
	tokens auth.TokenRepository,
	signer *JWTSigner,
	hasher *secrets.Hasher,
	clock kernel.Clock,
	refreshTTL time.Duration,
) *Service {
	return &Service{
		run:         run,
		users:       users,
		memberships: memberships,
		roles:       roles,
		tokens:      tokens,
		signer:      signer,
		hasher:      hasher,
		clock:       clock,
		refreshTTL:  refreshTTL,
	}
}

// Authenticate verifies a password login inside a project and issues a token
// pair. Unknown email and wrong password are indistinguishable to the caller.
func (s *Service) Authenticate(ctx context.Context, projectID kernel.ProjectID, req auth.LoginRequest) (*auth.TokenPair, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))

	u, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if u == nil {
		s.hasher.Verify(req.Password, dummyHash)
		return nil, auth.ErrInvalidCredentials()
	}
	if !s.hasher.Verify(req.Password, u.PasswordHash) {
		return nil, auth.ErrInvalidCredentials()
	}
	if err := user.AssertActive(u); err != nil {
		return nil, err
	}

	m, err := s.memberships.Find(ctx, projectID, u.ID)
	if err != nil {
		return nil, err
	}
	if err := user.AssertMember(m); err != nil {
		return nil, err
	}
	r, err := s.roles.FindByID(ctx, projectID, m.RoleID)
	if err != nil {
		return nil, err
	}
	if err := role.AssertFound(r); err != nil {
		return nil, err
	}

	return s.issuePair(ctx, s.tokens, u, projectID, r.Name)
}

// Refresh redeems a refresh token on behalf of the presenting project and
// rotates the pair. Tokens are bound to the tenant they were issued under; a
// token presented through another project is rejected without being spent.
// A token can be redeemed at most once: concurrent redemptions race on the
// conditional revoke and exactly one wins.
func (s *Service) Refresh(ctx context.Context, projectID kernel.ProjectID, refreshToken string) (*auth.TokenPair, error) {
	if refreshToken == "" {
		return nil, auth.ErrInvalidRefreshToken()
	}

	var pair *auth.TokenPair
	err := s.run(ctx, func(tx *sqlx.Tx) error {
		tokens := s.tokens.WithTx(tx)

		stored, err := tokens.FindByToken(ctx, refreshToken)
		if err != nil {
			return err
		}
		if stored == nil || stored.Revoked || stored.Expired(s.clock.Now()) {
			return auth.ErrInvalidRefreshToken()
		}
		if stored.ProjectID != projectID {
			return auth.ErrInvalidRefreshToken()
		}
		if err := tokens.Revoke(ctx, refreshToken); err != nil {
			return err
		}

		u, err := s.users.WithTx(tx).FindByID(ctx, stored.UserID)
		if err != nil {
			return err
		}
		if u == nil || !u.IsActive {
			return auth.ErrInvalidRefreshToken()
		}
		m, err := s.memberships.WithTx(tx).Find(ctx, projectID, u.ID)
		if err != nil {
			return err
		}
		if err := user.AssertMember(m); err != nil {
			return err
		}
		r, err := s.roles.WithTx(tx).FindByID(ctx, projectID, m.RoleID)
		if err != nil {
			return err
		}
		if err := role.AssertFound(r); err != nil {
			return err
		}

		pair, err = s.issuePair(ctx, tokens, u, projectID, r.Name)
		return err
	})
	if err != nil {
		return nil, err
	}
	return pair, nil
}

// Logout revokes a refresh token. The access token stays valid until its
// expiry.
func (s *Service) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return auth.ErrInvalidRefreshToken()
	}
	return s.tokens.Revoke(ctx, refreshToken)
}

// PurgeExpiredTokens deletes refresh tokens past their expiry. Run
// periodically.
func (s *Service) PurgeExpiredTokens(ctx context.Context) (int64, error) {
	return s.tokens.DeleteExpired(ctx)
}

// CurrentUser resolves the account behind an authenticated request.
func (s *Service) CurrentUser(ctx context.Context, id kernel.UserID) (*user.User, error) {
	u, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := user.AssertFound(u); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *Service) issuePair(ctx context.Context, tokens auth.TokenRepository, u *user.User, projectID kernel.ProjectID, roleName string) (*auth.TokenPair, error) {
	access, err := s.signer.Sign(auth.TokenClaims{
		Email:     u.Email,
		Role:      roleName,
		ProjectID: projectID.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject: u.ID.String(),
		},
	})
	if err != nil {
		return nil, err
	}

	refresh, err := secrets.GenerateKey()
	if err != nil {
		return nil, err
	}
	now := s.clock.Now()
	err = tokens.Create(ctx, auth.RefreshToken{
		ID:        uuid.NewString(),
		UserID:    u.ID,
		ProjectID: projectID,
		Token:     refresh,
		ExpiresAt: now.Add(s.refreshTTL),
		CreatedAt: now,
	})
	if err != nil {
		return nil, err
	}

	return &auth.TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    int64(s.signer.TTL().Seconds()),
	}, nil
}
