// Package verification manages one-time codes: email verification and
// password reset. Codes are 8-digit, single-use and short-lived.
package verification

import (
	"net/http"
	"time"

	"github.com/Abraxas-365/sentinel/pkg/errx"
	"github.com/Abraxas-365/sentinel/pkg/kernel"
)

// Purpose distinguishes what a code is allowed to do.
type Purpose string

const (
	PurposeEmailVerification Purpose = "email_verification"
	PurposePasswordReset     Purpose = "password_reset"
)

// Code is a one-time code issued to a user.
type Code struct {
	ID        string        `db:"id" json:"id"`
	UserID    kernel.UserID `db:"user_id" json:"user_id"`
	Code      string        `db:"code" json:"-"`
	Purpose   Purpose       `db:"purpose" json:"purpose"`
	ExpiresAt time.Time     `db:"expires_at" json:"expires_at"`
	Used      bool          `db:"used" json:"used"`
	CreatedAt time.Time     `db:"created_at" json:"created_at"`
}

// Expired reports whether the code is past its expiry at the given instant.
func (c *Code) Expired(now time.Time) bool {
	return now.After(c.ExpiresAt)
}

var ErrRegistry = errx.NewRegistry("CODE")

var (
	CodeInvalidFormat = ErrRegistry.Register("INVALID_FORMAT", errx.TypeValidation, http.StatusBadRequest, "Code must be 8 digits")
	CodeNotFound      = ErrRegistry.Register("NOT_FOUND", errx.TypeNotFound, http.StatusNotFound, "Code not found")
	CodeAlreadyUsed   = ErrRegistry.Register("ALREADY_USED", errx.TypeValidation, http.StatusBadRequest, "Code has already been used")
	CodeExpired       = ErrRegistry.Register("EXPIRED", errx.TypeValidation, http.StatusBadRequest, "Code has expired")
	CodeUserNotFound  = ErrRegistry.Register("USER_NOT_FOUND", errx.TypeNotFound, http.StatusNotFound, "User not found")
)

func ErrInvalidFormat() *errx.Error { return ErrRegistry.New(CodeInvalidFormat) }
func ErrNotFound() *errx.Error      { return ErrRegistry.New(CodeNotFound) }
func ErrAlreadyUsed() *errx.Error   { return ErrRegistry.New(CodeAlreadyUsed) }
func ErrExpired() *errx.Error       { return ErrRegistry.New(CodeExpired) }
func ErrUserNotFound() *errx.Error  { return ErrRegistry.New(CodeUserNotFound) }
