// Package projectapi exposes the project management endpoints. All routes are
// mounted behind the admin-key middleware.
package projectapi

import (
	"github.com/Abraxas-365/sentinel/pkg/iam/project"
	"github.com/Abraxas-365/sentinel/pkg/iam/project/projectsrv"
	"github.com/Abraxas-365/sentinel/pkg/kernel"
	"github.com/gofiber/fiber/v2"
)

type Handlers struct {
	service   *projectsrv.Service
	bootstrap *projectsrv.BootstrapService
}

func NewHandlers(service *projectsrv.Service, bootstrap *projectsrv.BootstrapService) *Handlers {
	return &Handlers{service: service, bootstrap: bootstrap}
}

// RegisterRoutes mounts the project routes under the given router group.
func (h *Handlers) RegisterRoutes(router fiber.Router) {
	projects := router.Group("/projects")
	projects.Post("/", h.createProject)
	projects.Post("/bootstrap", h.bootstrapProject)
	projects.Get("/", h.listProjects)
	projects.Get("/:id", h.getProject)
	projects.Patch("/:id", h.updateProject)
	projects.Patch("/:id/disable", h.disableProject)
	projects.Patch("/:id/enable", h.enableProject)
}

type createProjectRequest struct {
	Name string `json:"name"`
}

func (h *Handlers) createProject(c *fiber.Ctx) error {
	var req createProjectRequest
	if err := c.BodyParser(&req); err != nil {
		return project.ErrNameRequired()
	}
	created, err := h.service.CreateProject(c.Context(), req.Name)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"project": created.Project,
		"api_key": created.APIKey,
		"message": "Save this API key securely. It will not be shown again.",
	})
}

func (h *Handlers) bootstrapProject(c *fiber.Ctx) error {
	var req projectsrv.BootstrapRequest
	if err := c.BodyParser(&req); err != nil {
		return project.ErrNameRequired()
	}
	result, err := h.bootstrap.Bootstrap(c.Context(), req)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(result)
}

func (h *Handlers) listProjects(c *fiber.Ctx) error {
	opts := kernel.PaginationOptions{
		Page:     c.QueryInt("page", 1),
		PageSize: c.QueryInt("page_size", 20),
	}
	page, err := h.service.ListProjects(c.Context(), opts)
	if err != nil {
		return err
	}
	return c.JSON(page)
}

func (h *Handlers) getProject(c *fiber.Ctx) error {
	p, err := h.service.GetProject(c.Context(), kernel.NewProjectID(c.Params("id")))
	if err != nil {
		return err
	}
	return c.JSON(p)
}

func (h *Handlers) updateProject(c *fiber.Ctx) error {
	var req project.UpdateProjectRequest
	if err := c.BodyParser(&req); err != nil {
		return project.ErrNameRequired()
	}
	p, err := h.service.UpdateProject(c.Context(), kernel.NewProjectID(c.Params("id")), req)
	if err != nil {
		return err
	}
	return c.JSON(p)
}

func (h *Handlers) disableProject(c *fiber.Ctx) error {
	p, err := h.service.DisableProject(c.Context(), kernel.NewProjectID(c.Params("id")))
	if err != nil {
		return err
	}
	return c.JSON(p)
}

func (h *Handlers) enableProject(c *fiber.Ctx) error {
	p, err := h.service.EnableProject(c.Context(), kernel.NewProjectID(c.Params("id")))
	if err != nil {
		return err
	}
	return c.JSON(p)
}
