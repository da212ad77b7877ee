// Package user manages user accounts and their project memberships. Accounts
// are global (one email, one account); a membership binds an account to a
// project with a role.
package user

import (
	"net/http"
	"time"

	"github.com/Abraxas-365/sentinel/pkg/errx"
	"github.com/Abraxas-365/sentinel/pkg/kernel"
)

type User struct {
	ID            kernel.UserID `db:"id" json:"id"`
	Username      string        `db:"username" json:"username"`
	Email         string        `db:"email" json:"email"`
	PasswordHash  string        `db:"password_hash" json:"-"`
	IsActive      bool          `db:"is_active" json:"is_active"`
	EmailVerified bool          `db:"email_verified" json:"email_verified"`
	CreatedAt     time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time     `db:"updated_at" json:"updated_at"`
}

// Membership binds a user to a project with a role.
type Membership struct {
	ProjectID kernel.ProjectID `db:"project_id" json:"project_id"`
	UserID    kernel.UserID    `db:"user_id" json:"user_id"`
	RoleID    kernel.RoleID    `db:"role_id" json:"role_id"`
	IsActive  bool             `db:"is_active" json:"is_active"`
	CreatedAt time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt time.Time        `db:"updated_at" json:"updated_at"`
}

// ProjectUser is a user joined with their membership in one project.
type ProjectUser struct {
	User
	RoleID           kernel.RoleID `db:"role_id" json:"role_id"`
	RoleName         string        `db:"role_name" json:"role_name"`
	MembershipActive bool          `db:"membership_active" json:"membership_active"`
}

// CreateUserRequest is the payload for registering a user in a project.
type CreateUserRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	RoleName string `json:"role_name"`
}

// ChangePasswordRequest is the payload for a password change.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

var ErrRegistry = errx.NewRegistry("USER")

var (
	CodeNotFound           = ErrRegistry.Register("NOT_FOUND", errx.TypeNotFound, http.StatusNotFound, "User not found")
	CodeAlreadyExists      = ErrRegistry.Register("ALREADY_EXISTS", errx.TypeConflict, http.StatusConflict, "Username is already taken")
	CodeEmailAlreadyExists = ErrRegistry.Register("EMAIL_ALREADY_EXISTS", errx.TypeConflict, http.StatusConflict, "Email is already registered")
	CodeNotInProject       = ErrRegistry.Register("NOT_IN_PROJECT", errx.TypeAuthorization, http.StatusUnauthorized, "User does not belong to this project")
	CodeWeakPassword       = ErrRegistry.Register("WEAK_PASSWORD", errx.TypeValidation, http.StatusBadRequest, "Password does not meet strength requirements")
	CodeSamePassword       = ErrRegistry.Register("SAME_PASSWORD", errx.TypeValidation, http.StatusBadRequest, "New password must differ from the current one")
	CodePasswordRequired   = ErrRegistry.Register("PASSWORD_REQUIRED", errx.TypeValidation, http.StatusBadRequest, "Password is required")
	CodeInvalidRequest     = ErrRegistry.Register("INVALID_REQUEST", errx.TypeValidation, http.StatusBadRequest, "Invalid request payload")
	CodeDisabled           = ErrRegistry.Register("DISABLED", errx.TypeAuthorization, http.StatusUnauthorized, "User account is disabled")
)

func ErrNotFound() *errx.Error           { return ErrRegistry.New(CodeNotFound) }
func ErrAlreadyExists() *errx.Error      { return ErrRegistry.New(CodeAlreadyExists) }
func ErrEmailAlreadyExists() *errx.Error { return ErrRegistry.New(CodeEmailAlreadyExists) }
func ErrNotInProject() *errx.Error       { return ErrRegistry.New(CodeNotInProject) }
func ErrWeakPassword() *errx.Error       { return ErrRegistry.New(CodeWeakPassword) }
func ErrSamePassword() *errx.Error       { return ErrRegistry.New(CodeSamePassword) }
func ErrPasswordRequired() *errx.Error   { return ErrRegistry.New(CodePasswordRequired) }
func ErrInvalidRequest() *errx.Error     { return ErrRegistry.New(CodeInvalidRequest) }
func ErrDisabled() *errx.Error           { return ErrRegistry.New(CodeDisabled) }
