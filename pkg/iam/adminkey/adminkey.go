// Package adminkey manages platform-level bearer credentials. Admin keys are
// static secrets, not identities: validating one yields no token, only the
// right to call tenant-management endpoints.
package adminkey

import (
	"net/http"
	"time"

	"github.com/Abraxas-365/sentinel/pkg/errx"
)

// AdminKey is a platform administration credential. Only the bcrypt hash of
// the secret is ever stored; the plaintext is returned exactly once at
// creation time.
type AdminKey struct {
	ID          string    `db:"id" json:"id"`
	SecretHash  string    `db:"secret_hash" json:"-"`
	IsActive    bool      `db:"is_active" json:"is_active"`
	IsBootstrap bool      `db:"is_bootstrap" json:"is_bootstrap"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// CreatedKey carries the one-time plaintext secret back to the caller.
type CreatedKey struct {
	ID  string `json:"id"`
	Key string `json:"key"`
}

var ErrRegistry = errx.NewRegistry("ADMIN_KEY")

var (
	CodeNotFound            = ErrRegistry.Register("NOT_FOUND", errx.TypeNotFound, http.StatusNotFound, "Admin key not found")
	CodeAlreadyDisabled     = ErrRegistry.Register("ALREADY_DISABLED", errx.TypeConflict, http.StatusConflict, "Admin key is already disabled")
	CodeAlreadyActive       = ErrRegistry.Register("ALREADY_ACTIVE", errx.TypeConflict, http.StatusConflict, "Admin key is already active")
	CodeNotEnoughActiveKeys = ErrRegistry.Register("NOT_ENOUGH_ACTIVE_KEYS", errx.TypeConflict, http.StatusConflict, "At least one active admin key is required, create a new admin key first")
	CodeDisabled            = ErrRegistry.Register("DISABLED", errx.TypeAuthorization, http.StatusUnauthorized, "Admin key is disabled")
)

func ErrNotFound() *errx.Error            { return ErrRegistry.New(CodeNotFound) }
func ErrAlreadyDisabled() *errx.Error     { return ErrRegistry.New(CodeAlreadyDisabled) }
func ErrAlreadyActive() *errx.Error       { return ErrRegistry.New(CodeAlreadyActive) }
func ErrNotEnoughActiveKeys() *errx.Error { return ErrRegistry.New(CodeNotEnoughActiveKeys) }
func ErrDisabled() *errx.Error            { return ErrRegistry.New(CodeDisabled) }
