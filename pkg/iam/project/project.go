// Package project manages tenants. Each project owns an API key (stored
// hashed), a set of roles, and user memberships.
package project

import (
	"net/http"
	"time"

	"github.com/Abraxas-365/sentinel/pkg/errx"
	"github.com/Abraxas-365/sentinel/pkg/kernel"
)

// Project is a tenant: an isolated namespace with its own API key, roles and
// member users.
type Project struct {
	ID         kernel.ProjectID `db:"id" json:"id"`
	Name       string           `db:"name" json:"name"`
	APIKeyHash string           `db:"api_key_hash" json:"-"`
	IsActive   bool             `db:"is_active" json:"is_active"`
	CreatedAt  time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time        `db:"updated_at" json:"updated_at"`
}

// CreatedProject carries the one-time plaintext API key back to the caller.
type CreatedProject struct {
	Project Project `json:"project"`
	APIKey  string  `json:"api_key"`
}

// UpdateProjectRequest is a partial update of mutable project fields.
type UpdateProjectRequest struct {
	Name *string `json:"name"`
}

var ErrRegistry = errx.NewRegistry("PROJECT")

var (
	CodeNotFound        = ErrRegistry.Register("NOT_FOUND", errx.TypeNotFound, http.StatusNotFound, "Project not found")
	CodeNameRequired    = ErrRegistry.Register("NAME_REQUIRED", errx.TypeValidation, http.StatusBadRequest, "Project name is required")
	CodeNameRepeated    = ErrRegistry.Register("NAME_REPEATED", errx.TypeConflict, http.StatusConflict, "A project with this name already exists")
	CodeAlreadyDisabled = ErrRegistry.Register("ALREADY_DISABLED", errx.TypeConflict, http.StatusConflict, "Project is already disabled")
	CodeAlreadyActive   = ErrRegistry.Register("ALREADY_ACTIVE", errx.TypeConflict, http.StatusConflict, "Project is already active")
	CodeDisabled        = ErrRegistry.Register("DISABLED", errx.TypeForbidden, http.StatusForbidden, "Project is disabled")
	CodeInvalidAPIKey   = ErrRegistry.Register("INVALID_API_KEY", errx.TypeAuthorization, http.StatusUnauthorized, "Invalid API key")
)

func ErrNotFound() *errx.Error        { return ErrRegistry.New(CodeNotFound) }
func ErrNameRequired() *errx.Error    { return ErrRegistry.New(CodeNameRequired) }
func ErrNameRepeated() *errx.Error    { return ErrRegistry.New(CodeNameRepeated) }
func ErrAlreadyDisabled() *errx.Error { return ErrRegistry.New(CodeAlreadyDisabled) }
func ErrAlreadyActive() *errx.Error   { return ErrRegistry.New(CodeAlreadyActive) }
func ErrDisabled() *errx.Error        { return ErrRegistry.New(CodeDisabled) }
func ErrInvalidAPIKey() *errx.Error   { return ErrRegistry.New(CodeInvalidAPIKey) }
