// Package authapi exposes the authentication endpoints and the middleware
// chain that guards every other route group.
package authapi

import (
	"strings"

	"github.com/Abraxas-365/sentinel/pkg/iam"
	"github.com/Abraxas-365/sentinel/pkg/iam/adminkey/adminkeysrv"
	"github.com/Abraxas-365/sentinel/pkg/iam/auth"
	"github.com/Abraxas-365/sentinel/pkg/iam/auth/authsrv"
	"github.com/Abraxas-365/sentinel/pkg/iam/project"
	"github.com/Abraxas-365/sentinel/pkg/iam/project/projectsrv"
	"github.com/Abraxas-365/sentinel/pkg/kernel"
	"github.com/gofiber/fiber/v2"
)

// Header names for the three credential kinds.
const (
	HeaderAdminKey = "X-Admin-Key"
	HeaderAPIKey   = "X-API-Key"
)

// Middleware builds the fiber handlers that authenticate requests.
type Middleware struct {
	adminKeys *adminkeysrv.Service
	projects  *projectsrv.Service
	signer    *authsrv.JWTSigner
}

func NewMiddleware(adminKeys *adminkeysrv.Service, projects *projectsrv.Service, signer *authsrv.JWTSigner) *Middleware {
	return &Middleware{adminKeys: adminKeys, projects: projects, signer: signer}
}

// RequireAdminKey guards the platform management routes. The key must match
// an active admin key.
func (m *Middleware) RequireAdminKey() fiber.Handler {
	return func(c *fiber.Ctx) error {
		key := c.Get(HeaderAdminKey)
		if key == "" {
			return auth.ErrMissingToken()
		}
		ok, err := m.adminKeys.Validate(c.Context(), key)
		if err != nil {
			return err
		}
		if !ok {
			return iam.ErrUnauthorized()
		}
		return c.Next()
	}
}

// RequireProjectKey resolves the tenant from its API key and stores it in
// locals. Disabled projects are rejected up front.
func (m *Middleware) RequireProjectKey() fiber.Handler {
	return func(c *fiber.Ctx) error {
		key := c.Get(HeaderAPIKey)
		if key == "" {
			return auth.ErrMissingToken()
		}
		p, err := m.projects.ValidateAPIKey(c.Context(), key)
		if err != nil {
			return err
		}
		if err := project.AssertActive(p); err != nil {
			return err
		}
		c.Locals(string(kernel.ProjectKey), p)
		return c.Next()
	}
}

// RequireAuth validates the Bearer access token and stores the caller's
// AuthContext in locals.
func (m *Middleware) RequireAuth() fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := bearerToken(c)
		if token == "" {
			return auth.ErrMissingToken()
		}
		claims, err := m.signer.Verify(token)
		if err != nil {
			return err
		}
		userID := kernel.NewUserID(claims.Subject)
		ac := &kernel.AuthContext{
			UserID:    &userID,
			ProjectID: kernel.NewProjectID(claims.ProjectID),
			Email:     claims.Email,
			Role:      claims.Role,
		}
		if !ac.IsValid() {
			return auth.ErrInvalidToken()
		}
		c.Locals(string(kernel.AuthContextKey), ac)
		return c.Next()
	}
}

// RequireRoles allows only callers whose role is in the given set. Must run
// after RequireAuth.
func (m *Middleware) RequireRoles(roles ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ac, _ := c.Locals(string(kernel.AuthContextKey)).(*kernel.AuthContext)
		if ac == nil || !ac.IsValid() {
			return iam.ErrUnauthorized()
		}
		if !ac.HasRole(roles...) {
			return iam.ErrAccessDenied()
		}
		return c.Next()
	}
}

func bearerToken(c *fiber.Ctx) string {
	header := c.Get(fiber.HeaderAuthorization)
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
