package authapi

import (
	"github.com/Abraxas-365/sentinel/pkg/iam"
	"github.com/Abraxas-365/sentinel/pkg/iam/auth"
	"github.com/Abraxas-365/sentinel/pkg/iam/auth/authsrv"
	"github.com/Abraxas-365/sentinel/pkg/iam/project"
	"github.com/Abraxas-365/sentinel/pkg/kernel"
	"github.com/gofiber/fiber/v2"
)

type Handlers struct {
	service *authsrv.Service
}

func NewHandlers(service *authsrv.Service) *Handlers {
	return &Handlers{service: service}
}

// RegisterRoutes mounts login and refresh under the project API-key
// middleware group, and me/logout under the bearer-token group.
func (h *Handlers) RegisterRoutes(projectScoped, authenticated fiber.Router) {
	projectScoped.Post("/auth/login", h.login)
	projectScoped.Post("/auth/refresh", h.refresh)
	authenticated.Post("/auth/logout", h.logout)
	authenticated.Get("/auth/me", h.me)
}

func (h *Handlers) login(c *fiber.Ctx) error {
	var req auth.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return auth.ErrInvalidCredentials()
	}
	p, _ := c.Locals(string(kernel.ProjectKey)).(*project.Project)
	if p == nil {
		return iam.ErrUnauthorized()
	}
	pair, err := h.service.Authenticate(c.Context(), p.ID, req)
	if err != nil {
		return err
	}
	return c.JSON(pair)
}

func (h *Handlers) refresh(c *fiber.Ctx) error {
	var req auth.RefreshRequest
	if err := c.BodyParser(&req); err != nil {
		return auth.ErrInvalidRefreshToken()
	}
	p, _ := c.Locals(string(kernel.ProjectKey)).(*project.Project)
	if p == nil {
		return iam.ErrUnauthorized()
	}
	pair, err := h.service.Refresh(c.Context(), p.ID, req.RefreshToken)
	if err != nil {
		return err
	}
	return c.JSON(pair)
}

func (h *Handlers) logout(c *fiber.Ctx) error {
	var req auth.RefreshRequest
	if err := c.BodyParser(&req); err != nil {
		return auth.ErrInvalidRefreshToken()
	}
	if err := h.service.Logout(c.Context(), req.RefreshToken); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *Handlers) me(c *fiber.Ctx) error {
	ac, _ := c.Locals(string(kernel.AuthContextKey)).(*kernel.AuthContext)
	if ac == nil || !ac.IsValid() || ac.UserID == nil {
		return iam.ErrUnauthorized()
	}
	u, err := h.service.CurrentUser(c.Context(), *ac.UserID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"user":       u,
		"project_id": ac.ProjectID,
		"role":       ac.Role,
	})
}
