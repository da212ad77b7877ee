package authsrv

import (
	"errors"
	"time"

	"github.com/Abraxas-365/sentinel/pkg/iam/auth"
	"github.com/Abraxas-365/sentinel/pkg/kernel"
	"github.com/golang-jwt/jwt/v5"
)

// JWTSigner issues and verifies HS256 access tokens.
type JWTSigner struct {
	secret []byte
	issuer string
	ttl    time.Duration
	clock  kernel.Clock
}

func NewJWTSigner(secret []byte, issuer string, ttl time.Duration, clock kernel.Clock) *JWTSigner {
	return &JWTSigner{secret: secret, issuer: issuer, ttl: ttl, clock: clock}
}

// TTL returns the access token lifetime.
func (s *JWTSigner) TTL() time.Duration { return s.ttl }

// Sign stamps issuer, issued-at and expiry onto the claims and signs them.
// The caller sets the subject and the domain claims.
func (s *JWTSigner) Sign(claims auth.TokenClaims) (string, error) {
	now := s.clock.Now()
	claims.Issuer = s.issuer
	claims.IssuedAt = jwt.NewNumericDate(now)
	claims.ExpiresAt = jwt.NewNumericDate(now.Add(s.ttl))

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", auth.ErrTokenGenerationFailed().WithCause(err)
	}
	return signed, nil
}

// Verify parses and validates an access token. Expiry is reported as a
// distinct error from every other validation failure.
func (s *JWTSigner) Verify(tokenString string) (*auth.TokenClaims, error) {
	claims := &auth.TokenClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, auth.ErrInvalidToken()
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(s.clock.Now), jwt.WithIssuer(s.issuer))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, auth.ErrTokenExpired()
		}
		return nil, auth.ErrInvalidToken().WithCause(err)
	}
	if !token.Valid {
		return nil, auth.ErrInvalidToken()
	}
	return claims, nil
}
