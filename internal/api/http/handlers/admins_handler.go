package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/oishine/backoffice/internal/api/dto"
	"github.com/oishine/backoffice/internal/service"
)

// AdminsHandler manages administrator accounts.
type AdminsHandler struct {
	auth *service.AuthService
}

// NewAdminsHandler constructs handler.
func NewAdminsHandler(authService *service.AuthService) *AdminsHandler {
	return &AdminsHandler{auth: authService}
}

// List handles GET /api/admin/admins.
func (h *AdminsHandler) List(c *fiber.Ctx) error {
	admins, err := h.auth.ListAdmins(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": admins})
}

// SetActive handles PATCH /api/admin/admins/:id/active.
func (h *AdminsHandler) SetActive(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	var req dto.SetActiveRequest
	if err := parseAndValidate(c, &req); err != nil {
		return err
	}
	updated, err := h.auth.SetActive(c.UserContext(), principal.ID, c.Params("id"), *req.IsActive)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": updated})
}
