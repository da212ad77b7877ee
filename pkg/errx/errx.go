package errx

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Type categorizes an error for transport mapping and logging.
type Type string

const (
	TypeInternal      Type = "INTERNAL"
	TypeValidation    Type = "VALIDATION"
	TypeAuthorization Type = "AUTHORIZATION"
	TypeForbidden     Type = "FORBIDDEN"
	TypeNotFound      Type = "NOT_FOUND"
	TypeConflict      Type = "CONFLICT"
	TypeBusiness      Type = "BUSINESS"
	TypeExternal      Type = "EXTERNAL"
)

func (t Type) String() string { return string(t) }

// Error is a domain error carrying a stable code, a category and the HTTP
// status the boundary layer should respond with.
type Error struct {
	Code       string         `json:"code"`
	Message    string         `json:"message"`
	Type       Type           `json:"type"`
	HTTPStatus int            `json:"http_status"`
	Details    map[string]any `json:"details,omitempty"`
	Err        error          `json:"-"`
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches two errx errors by code so callers can use errors.Is against
// sentinel instances produced by the same registry entry.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return e.Code == t.Code
}

// WithDetail attaches a key/value pair and returns the error for chaining.
func (e *Error) WithDetail(key string, value any) *Error {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// WithCause attaches the underlying error.
func (e *Error) WithCause(err error) *Error {
	e.Err = err
	return e
}

func (e *Error) MarshalJSON() ([]byte, error) {
	type alias Error
	return json.Marshal((*alias)(e))
}

// New creates an unregistered error of the given type. The code defaults to
// the type name; registered codes via Registry are preferred in domain code.
func New(message string, t Type) *Error {
	return &Error{
		Code:       string(t),
		Message:    message,
		Type:       t,
		HTTPStatus: statusFor(t),
	}
}

// Wrap annotates err with a message and type, preserving code and status when
// err already is an errx error.
func Wrap(err error, message string, t Type) *Error {
	if err == nil {
		return nil
	}
	var inner *Error
	if errors.As(err, &inner) {
		return &Error{
			Code:       inner.Code,
			Message:    message,
			Type:       t,
			HTTPStatus: inner.HTTPStatus,
			Details:    inner.Details,
			Err:        err,
		}
	}
	return &Error{
		Code:       string(t),
		Message:    message,
		Type:       t,
		HTTPStatus: statusFor(t),
		Err:        err,
	}
}

// Wrapf is Wrap with a formatted message.
func Wrapf(err error, t Type, format string, args ...any) *Error {
	return Wrap(err, fmt.Sprintf(format, args...), t)
}

// Convenience constructors.

func Internal(message string) *Error     { return New(message, TypeInternal) }
func Validation(message string) *Error   { return New(message, TypeValidation) }
func Unauthorized(message string) *Error { return New(message, TypeAuthorization) }
func Forbidden(message string) *Error    { return New(message, TypeForbidden) }
func NotFound(message string) *Error     { return New(message, TypeNotFound) }
func Conflict(message string) *Error     { return New(message, TypeConflict) }
func External(message string) *Error     { return New(message, TypeExternal) }

func statusFor(t Type) int {
	switch t {
	case TypeValidation:
		return 400
	case TypeAuthorization:
		return 401
	case TypeForbidden:
		return 403
	case TypeNotFound:
		return 404
	case TypeConflict:
		return 409
	case TypeBusiness:
		return 422
	case TypeExternal:
		return 502
	default:
		return 500
	}
}
