// Package adminkeyapi exposes the admin-key management endpoints. All routes
// are mounted behind the admin-key middleware.
package adminkeyapi

import (
	"github.com/Abraxas-365/sentinel/pkg/iam/adminkey/adminkeysrv"
	"github.com/gofiber/fiber/v2"
)

type Handlers struct {
	service *adminkeysrv.Service
}

func NewHandlers(service *adminkeysrv.Service) *Handlers {
	return &Handlers{service: service}
}

// RegisterRoutes mounts the admin-key routes under the given router group.
func (h *Handlers) RegisterRoutes(router fiber.Router) {
	keys := router.Group("/keys")
	keys.Post("/", h.createKey)
	keys.Patch("/:id/disable", h.disableKey)
	keys.Patch("/:id/enable", h.enableKey)
	keys.Patch("/bootstrap/disable", h.disableBootstrapKey)
	keys.Delete("/:id", h.deleteKey)
}

func (h *Handlers) createKey(c *fiber.Ctx) error {
	created, err := h.service.CreateKey(c.Context())
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"id":      created.ID,
		"key":     created.Key,
		"message": "Save this key securely. It will not be shown again.",
	})
}

func (h *Handlers) disableKey(c *fiber.Ctx) error {
	key, err := h.service.DisableKey(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(key)
}

func (h *Handlers) enableKey(c *fiber.Ctx) error {
	key, err := h.service.EnableKey(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(key)
}

func (h *Handlers) disableBootstrapKey(c *fiber.Ctx) error {
	key, err := h.service.DisableBootstrapKey(c.Context())
	if err != nil {
		return err
	}
	return c.JSON(key)
}

func (h *Handlers) deleteKey(c *fiber.Ctx) error {
	if err := h.service.DeleteKey(c.Context(), c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}
