package auth

import (
	"context"

	"github.com/Abraxas-365/sentinel/pkg/kernel"
	"github.com/jmoiron/sqlx"
)

// TokenRepository persists refresh tokens.
//
// Revoke must be conditional: it only flips tokens that are still unrevoked,
// and reports ErrInvalidRefreshToken when nothing changed. That single UPDATE
// is the serialization point that makes concurrent redemptions of the same
// token produce exactly one winner.
type TokenRepository interface {
	Create(ctx context.Context, t RefreshToken) error
	FindByToken(ctx context.Context, token string) (*RefreshToken, error)
	Revoke(ctx context.Context, token string) error
	RevokeAllForUser(ctx context.Context, userID kernel.UserID) error
	DeleteExpired(ctx context.Context) (int64, error)
	WithTx(tx *sqlx.Tx) TokenRepository
}

// TokenSigner issues and verifies access tokens.
type TokenSigner interface {
	Sign(claims TokenClaims) (string, error)
	Verify(token string) (*TokenClaims, error)
}
