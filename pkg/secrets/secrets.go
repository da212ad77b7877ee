// Package secrets generates and verifies the bearer secrets the platform
// hands out: admin keys, project API keys, refresh tokens, one-time codes and
// user passwords. Hashing is bcrypt; comparison is constant time.
package secrets

import (
	"crypto/rand"
	"encoding/hex"
	"math/big"
	"strconv"

	"github.com/Abraxas-365/sentinel/pkg/errx"
	"golang.org/x/crypto/bcrypt"
)

// DefaultCost is the bcrypt cost used for all secrets. Tuned so a verify
// takes tens of milliseconds on current hardware.
const DefaultCost = 12

// Hasher hashes and verifies secrets. A single instance is shared by every
// service that stores credentials.
type Hasher struct {
	cost int
}

// NewHasher creates a Hasher. A cost outside bcrypt's valid range falls back
// to DefaultCost.
func NewHasher(cost int) *Hasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = DefaultCost
	}
	return &Hasher{cost: cost}
}

// Hash returns the salted one-way hash of secret.
func (h *Hasher) Hash(secret string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(secret), h.cost)
	if err != nil {
		return "", errx.Wrap(err, "failed to hash secret", errx.TypeInternal)
	}
	return string(hashed), nil
}

// Verify reports whether candidate matches hash. Malformed hashes verify as
// false rather than erroring; bcrypt's comparison is constant time with
// respect to the candidate.
func (h *Hasher) Verify(candidate, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(candidate)) == nil
}

// secretBytes is the entropy of opaque bearer secrets (256 bits).
const secretBytes = 32

// GenerateKey produces an opaque bearer secret: 32 random bytes hex-encoded
// into a 64-character string. Used for admin keys, API keys and refresh
// tokens.
func GenerateKey() (string, error) {
	buf := make([]byte, secretBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", errx.Wrap(err, "failed to read random bytes", errx.TypeInternal)
	}
	return hex.EncodeToString(buf), nil
}

// Code bounds: 8-digit numeric codes for manual entry.
const (
	codeMin = 10000000
	codeMax = 99999999
)

// GenerateCode produces an 8-digit numeric one-time code, uniform over
// [10000000, 99999999], from a cryptographically secure source.
func GenerateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(codeMax-codeMin+1))
	if err != nil {
		return "", errx.Wrap(err, "failed to generate one-time code", errx.TypeInternal)
	}
	return strconv.FormatInt(n.Int64()+codeMin, 10), nil
}
