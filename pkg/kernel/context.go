package kernel

// AuthContext is the authenticated identity attached to a request after the
// middleware chain has run. For API-key requests only the project is known.
type AuthContext struct {
	UserID    *UserID   `json:"user_id,omitempty"`
	ProjectID ProjectID `json:"project_id"`
	Email     string    `json:"email,omitempty"`
	Role      string    `json:"role,omitempty"`
	IsAPIKey  bool      `json:"is_api_key"`
}

// IsValid reports whether the context identifies a caller.
func (ac *AuthContext) IsValid() bool {
	if ac.IsAPIKey {
		return !ac.ProjectID.IsEmpty()
	}
	return ac.UserID != nil && !ac.UserID.IsEmpty() && !ac.ProjectID.IsEmpty()
}

// HasRole reports whether the authenticated user carries one of the given
// role names within the request's project.
func (ac *AuthContext) HasRole(roles ...string) bool {
	for _, r := range roles {
		if ac.Role == r {
			return true
		}
	}
	return false
}

// Keys under which request-scoped values are stored (fiber locals and
// context.Context).
type ContextKey string

const (
	AuthContextKey ContextKey = "auth_context"
	ProjectKey     ContextKey = "project"
	RequestIDKey   ContextKey = "request_id"
)
