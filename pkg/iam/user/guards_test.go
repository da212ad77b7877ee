package user_test

import (
	"testing"

	"github.com/Abraxas-365/sentinel/pkg/errx"
	"github.com/Abraxas-365/sentinel/pkg/iam/user"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAssertPasswordStrength(t *testing.T) {
	assert.NoError(t, user.AssertPasswordStrength("Sup3rSecret"))

	err := user.AssertPasswordStrength("")
	assert.ErrorIs(t, err, user.ErrPasswordRequired())

	err = user.AssertPasswordStrength("nodigitsorupper")
	assert.ErrorIs(t, err, user.ErrWeakPassword())
}

func TestAssertPasswordStrengthReportsAllViolations(t *testing.T) {
	err := user.AssertPasswordStrength("abc")

	var e *errx.Error
	require.ErrorAs(t, err, &e)
	violations, ok := e.Details["violations"].(string)
	require.True(t, ok)
	assert.Contains(t, violations, "at least 8 characters")
	assert.Contains(t, violations, "uppercase letter")
	assert.Contains(t, violations, "digit")
	assert.NotContains(t, violations, "lowercase")
}

func TestAssertMember(t *testing.T) {
	assert.ErrorIs(t, user.AssertMember(nil), user.ErrNotInProject())
	assert.ErrorIs(t, user.AssertMember(&user.Membership{IsActive: false}), user.ErrNotInProject())
	assert.NoError(t, user.AssertMember(&user.Membership{IsActive: true}))
}
