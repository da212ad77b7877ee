// Package roleapi exposes the role endpoints. Routes are mounted behind the
// project API-key middleware, which stores the resolved project in locals.
package roleapi

import (
	"github.com/Abraxas-365/sentinel/pkg/iam/project"
	"github.com/Abraxas-365/sentinel/pkg/iam/role"
	"github.com/Abraxas-365/sentinel/pkg/iam/role/rolesrv"
	"github.com/Abraxas-365/sentinel/pkg/kernel"
	"github.com/gofiber/fiber/v2"
)

type Handlers struct {
	service *rolesrv.Service
}

func NewHandlers(service *rolesrv.Service) *Handlers {
	return &Handlers{service: service}
}

// RegisterRoutes mounts the role routes under the given router group.
func (h *Handlers) RegisterRoutes(router fiber.Router) {
	roles := router.Group("/roles")
	roles.Post("/", h.createRole)
	roles.Get("/", h.listRoles)
	roles.Get("/:id", h.getRole)
	roles.Patch("/:id", h.updateRole)
	roles.Delete("/:id", h.deleteRole)
}

func projectID(c *fiber.Ctx) kernel.ProjectID {
	p, _ := c.Locals(string(kernel.ProjectKey)).(*project.Project)
	if p == nil {
		return ""
	}
	return p.ID
}

func (h *Handlers) createRole(c *fiber.Ctx) error {
	var req role.CreateRoleRequest
	if err := c.BodyParser(&req); err != nil {
		return role.ErrNameRequired()
	}
	created, err := h.service.CreateRole(c.Context(), projectID(c), req)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(created)
}

func (h *Handlers) listRoles(c *fiber.Ctx) error {
	roles, err := h.service.ListRoles(c.Context(), projectID(c))
	if err != nil {
		return err
	}
	return c.JSON(roles)
}

func (h *Handlers) getRole(c *fiber.Ctx) error {
	r, err := h.service.GetRole(c.Context(), projectID(c), kernel.NewRoleID(c.Params("id")))
	if err != nil {
		return err
	}
	return c.JSON(r)
}

func (h *Handlers) updateRole(c *fiber.Ctx) error {
	var req role.UpdateRoleRequest
	if err := c.BodyParser(&req); err != nil {
		return role.ErrNameRequired()
	}
	r, err := h.service.UpdateRole(c.Context(), projectID(c), kernel.NewRoleID(c.Params("id")), req)
	if err != nil {
		return err
	}
	return c.JSON(r)
}

func (h *Handlers) deleteRole(c *fiber.Ctx) error {
	if err := h.service.DeleteRole(c.Context(), projectID(c), kernel.NewRoleID(c.Params("id"))); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}
