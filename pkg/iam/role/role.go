// Package role manages project-scoped roles. A role only exists inside one
// project; the same name in two projects names two unrelated roles.
package role

import (
	"net/http"
	"time"

	"github.com/Abraxas-365/sentinel/pkg/errx"
	"github.com/Abraxas-365/sentinel/pkg/kernel"
)

type Role struct {
	ID          kernel.RoleID    `db:"id" json:"id"`
	ProjectID   kernel.ProjectID `db:"project_id" json:"project_id"`
	Name        string           `db:"name" json:"name"`
	Description string           `db:"description" json:"description"`
	CreatedAt   time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time        `db:"updated_at" json:"updated_at"`
}

// CreateRoleRequest is the payload for creating a role.
type CreateRoleRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// UpdateRoleRequest is a partial update of mutable role fields.
type UpdateRoleRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
}

var ErrRegistry = errx.NewRegistry("ROLE")

var (
	CodeNotFound     = ErrRegistry.Register("NOT_FOUND", errx.TypeNotFound, http.StatusNotFound, "Role not found")
	CodeNameRequired = ErrRegistry.Register("NAME_REQUIRED", errx.TypeValidation, http.StatusBadRequest, "Role name is required")
	CodeNameRepeated = ErrRegistry.Register("NAME_REPEATED", errx.TypeConflict, http.StatusConflict, "A role with this name already exists in the project")
)

func ErrNotFound() *errx.Error     { return ErrRegistry.New(CodeNotFound) }
func ErrNameRequired() *errx.Error { return ErrRegistry.New(CodeNameRequired) }
func ErrNameRepeated() *errx.Error { return ErrRegistry.New(CodeNameRepeated) }
