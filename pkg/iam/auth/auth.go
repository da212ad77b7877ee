// Package auth covers credential verification, JWT issuance and refresh token
// rotation.
package auth

import (
	"net/http"
	"time"

	"github.com/Abraxas-365/sentinel/pkg/errx"
	"github.com/Abraxas-365/sentinel/pkg/kernel"
	"github.com/golang-jwt/jwt/v5"
)

// RefreshToken is an opaque single-use credential. Redeeming it rotates the
// pair; a revoked token can never be redeemed again.
type RefreshToken struct {
	ID        string           `db:"id" json:"id"`
	UserID    kernel.UserID    `db:"user_id" json:"user_id"`
	ProjectID kernel.ProjectID `db:"project_id" json:"project_id"`
	Token     string           `db:"token" json:"-"`
	ExpiresAt time.Time        `db:"expires_at" json:"expires_at"`
	Revoked   bool             `db:"revoked" json:"revoked"`
	CreatedAt time.Time        `db:"created_at" json:"created_at"`
}

// Expired reports whether the token is past its expiry at the given instant.
func (t *RefreshToken) Expired(now time.Time) bool {
	return now.After(t.ExpiresAt)
}

// TokenClaims is the JWT payload for access tokens.
type TokenClaims struct {
	Email     string `json:"email"`
	Role      string `json:"role"`
	ProjectID string `json:"project_id"`
	jwt.RegisteredClaims
}

// TokenPair is what a successful login or refresh returns.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
}

// LoginRequest is the credential payload for password login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RefreshRequest carries the refresh token to redeem.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

var ErrRegistry = errx.NewRegistry("AUTH")

var (
	CodeInvalidCredentials    = ErrRegistry.Register("INVALID_CREDENTIALS", errx.TypeAuthorization, http.StatusUnauthorized, "Invalid email or password")
	CodeWrongPassword         = ErrRegistry.Register("WRONG_PASSWORD", errx.TypeAuthorization, http.StatusUnauthorized, "Current password is incorrect")
	CodeMissingToken          = ErrRegistry.Register("MISSING_TOKEN", errx.TypeAuthorization, http.StatusUnauthorized, "Authorization token is missing")
	CodeTokenExpired          = ErrRegistry.Register("TOKEN_EXPIRED", errx.TypeAuthorization, http.StatusUnauthorized, "Token has expired")
	CodeInvalidToken          = ErrRegistry.Register("INVALID_TOKEN", errx.TypeAuthorization, http.StatusUnauthorized, "Token is invalid")
	CodeInvalidRefreshToken   = ErrRegistry.Register("INVALID_REFRESH_TOKEN", errx.TypeAuthorization, http.StatusUnauthorized, "Refresh token is invalid, expired or already used")
	CodeTokenGenerationFailed = ErrRegistry.Register("TOKEN_GENERATION_FAILED", errx.TypeInternal, http.StatusInternalServerError, "Failed to generate token")
)

func ErrInvalidCredentials() *errx.Error    { return ErrRegistry.New(CodeInvalidCredentials) }
func ErrWrongPassword() *errx.Error         { return ErrRegistry.New(CodeWrongPassword) }
func ErrMissingToken() *errx.Error          { return ErrRegistry.New(CodeMissingToken) }
func ErrTokenExpired() *errx.Error          { return ErrRegistry.New(CodeTokenExpired) }
func ErrInvalidToken() *errx.Error          { return ErrRegistry.New(CodeInvalidToken) }
func ErrInvalidRefreshToken() *errx.Error   { return ErrRegistry.New(CodeInvalidRefreshToken) }
func ErrTokenGenerationFailed() *errx.Error { return ErrRegistry.New(CodeTokenGenerationFailed) }
