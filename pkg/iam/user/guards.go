package user

import (
	"strings"
	"unicode"
)

// AssertFound fails when the user lookup returned nothing.
func AssertFound(u *User) error {
	if u == nil {
		return ErrNotFound()
	}
	return nil
}

// AssertActive fails when the user account is disabled.
func AssertActive(u *User) error {
	if !u.IsActive {
		return ErrDisabled()
	}
	return nil
}

// AssertMember fails when the user has no active membership in the project.
func AssertMember(m *Membership) error {
	if m == nil || !m.IsActive {
		return ErrNotInProject()
	}
	return nil
}

// AssertUsernameAvailable fails when another account owns the username.
func AssertUsernameAvailable(existing *User) error {
	if existing != nil {
		return ErrAlreadyExists()
	}
	return nil
}

// AssertEmailAvailable fails when another account owns the email.
func AssertEmailAvailable(existing *User) error {
	if existing != nil {
		return ErrEmailAlreadyExists()
	}
	return nil
}

// AssertPasswordStrength validates the password policy: at least 8 characters
// with an uppercase letter, a lowercase letter and a digit. All violations are
// reported in one error.
func AssertPasswordStrength(password string) error {
	if password == "" {
		return ErrPasswordRequired()
	}

	var violations []string
	if len(password) < 8 {
		violations = append(violations, "must be at least 8 characters long")
	}
	var hasUpper, hasLower, hasDigit bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}
	if !hasUpper {
		violations = append(violations, "must contain an uppercase letter")
	}
	if !hasLower {
		violations = append(violations, "must contain a lowercase letter")
	}
	if !hasDigit {
		violations = append(violations, "must contain a digit")
	}

	if len(violations) > 0 {
		return ErrWeakPassword().WithDetail("violations", strings.Join(violations, "; "))
	}
	return nil
}
