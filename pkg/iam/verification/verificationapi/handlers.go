// Package verificationapi exposes the one-time code endpoints. The request
// endpoints answer 202 regardless of whether the email maps to an account.
package verificationapi

import (
	"github.com/Abraxas-365/sentinel/pkg/iam/verification"
	"github.com/Abraxas-365/sentinel/pkg/iam/verification/verificationsrv"
	"github.com/gofiber/fiber/v2"
)

type Handlers struct {
	service *verificationsrv.Service
}

func NewHandlers(service *verificationsrv.Service) *Handlers {
	return &Handlers{service: service}
}

// RegisterRoutes mounts the code flows under the given router group.
func (h *Handlers) RegisterRoutes(router fiber.Router) {
	router.Post("/auth/verify/request", h.requestVerification)
	router.Post("/auth/verify", h.verifyEmail)
	router.Post("/auth/password/forgot", h.requestPasswordReset)
	router.Post("/auth/password/reset", h.resetPassword)
}

type emailRequest struct {
	Email string `json:"email"`
}

type verifyRequest struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

type resetRequest struct {
	Email       string `json:"email"`
	Code        string `json:"code"`
	NewPassword string `json:"new_password"`
}

func (h *Handlers) requestVerification(c *fiber.Ctx) error {
	var req emailRequest
	if err := c.BodyParser(&req); err != nil {
		return verification.ErrInvalidFormat()
	}
	if err := h.service.RequestEmailVerificationByEmail(c.Context(), req.Email); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusAccepted)
}

func (h *Handlers) verifyEmail(c *fiber.Ctx) error {
	var req verifyRequest
	if err := c.BodyParser(&req); err != nil {
		return verification.ErrInvalidFormat()
	}
	if err := h.service.VerifyEmail(c.Context(), req.Email, req.Code); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"verified": true})
}

func (h *Handlers) requestPasswordReset(c *fiber.Ctx) error {
	var req emailRequest
	if err := c.BodyParser(&req); err != nil {
		return verification.ErrInvalidFormat()
	}
	if err := h.service.RequestPasswordReset(c.Context(), req.Email); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusAccepted)
}

func (h *Handlers) resetPassword(c *fiber.Ctx) error {
	var req resetRequest
	if err := c.BodyParser(&req); err != nil {
		return verification.ErrInvalidFormat()
	}
	if err := h.service.ResetPassword(c.Context(), req.Email, req.Code, req.NewPassword); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"reset": true})
}
