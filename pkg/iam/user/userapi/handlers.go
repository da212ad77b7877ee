// Package userapi exposes the user endpoints. Management routes are mounted
// behind the project API-key middleware; the self-service routes behind the
// bearer-token middleware.
package userapi

import (
	"github.com/Abraxas-365/sentinel/pkg/iam"
	"github.com/Abraxas-365/sentinel/pkg/iam/project"
	"github.com/Abraxas-365/sentinel/pkg/iam/user"
	"github.com/Abraxas-365/sentinel/pkg/iam/user/usersrv"
	"github.com/Abraxas-365/sentinel/pkg/kernel"
	"github.com/gofiber/fiber/v2"
)

type Handlers struct {
	service *usersrv.Service
}

func NewHandlers(service *usersrv.Service) *Handlers {
	return &Handlers{service: service}
}

// RegisterRoutes mounts the user management routes under the given router
// group.
func (h *Handlers) RegisterRoutes(router fiber.Router) {
	users := router.Group("/users")
	users.Post("/", h.createUser)
	users.Get("/", h.listUsers)
	users.Get("/:id", h.getUser)
	users.Patch("/:id/activate", h.activateUser)
	users.Patch("/:id/deactivate", h.deactivateUser)
}

// RegisterSelfRoutes mounts the routes a logged-in user calls about their own
// account.
func (h *Handlers) RegisterSelfRoutes(router fiber.Router) {
	router.Post("/me/password", h.changePassword)
}

func projectID(c *fiber.Ctx) kernel.ProjectID {
	p, _ := c.Locals(string(kernel.ProjectKey)).(*project.Project)
	if p == nil {
		return ""
	}
	return p.ID
}

func (h *Handlers) createUser(c *fiber.Ctx) error {
	var req user.CreateUserRequest
	if err := c.BodyParser(&req); err != nil {
		return user.ErrInvalidRequest()
	}
	created, err := h.service.CreateProjectUser(c.Context(), projectID(c), req)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(created)
}

func (h *Handlers) listUsers(c *fiber.Ctx) error {
	opts := kernel.PaginationOptions{
		Page:     c.QueryInt("page", 1),
		PageSize: c.QueryInt("page_size", 20),
	}
	page, err := h.service.ListProjectUsers(c.Context(), projectID(c), opts)
	if err != nil {
		return err
	}
	return c.JSON(page)
}

func (h *Handlers) getUser(c *fiber.Ctx) error {
	u, err := h.service.GetProjectUser(c.Context(), projectID(c), kernel.NewUserID(c.Params("id")))
	if err != nil {
		return err
	}
	return c.JSON(u)
}

func (h *Handlers) activateUser(c *fiber.Ctx) error {
	id := kernel.NewUserID(c.Params("id"))
	if err := h.service.SetMemberActive(c.Context(), projectID(c), id, true); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *Handlers) deactivateUser(c *fiber.Ctx) error {
	id := kernel.NewUserID(c.Params("id"))
	if err := h.service.SetMemberActive(c.Context(), projectID(c), id, false); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *Handlers) changePassword(c *fiber.Ctx) error {
	ac, _ := c.Locals(string(kernel.AuthContextKey)).(*kernel.AuthContext)
	if ac == nil || !ac.IsValid() || ac.UserID == nil {
		return iam.ErrUnauthorized()
	}
	var req user.ChangePasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return user.ErrInvalidRequest()
	}
	if err := h.service.ChangePassword(c.Context(), *ac.UserID, req); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}
