package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/oishine/backoffice/internal/api/dto"
	"github.com/oishine/backoffice/internal/domain"
	"github.com/oishine/backoffice/internal/service"
	apperrors "github.com/oishine/backoffice/pkg/util"
)

// DriversHandler exposes driver endpoints for the back-office.
type DriversHandler struct {
	drivers *service.DriverService
}

// NewDriversHandler constructs handler.
func NewDriversHandler(driverService *service.DriverService) *DriversHandler {
	return &DriversHandler{drivers: driverService}
}

// List handles GET /api/admin/drivers. ?active=true limits to active drivers.
func (h *DriversHandler) List(c *fiber.Ctx) error {
	drivers, err := h.drivers.ListDrivers(c.UserContext(), c.QueryBool("active", false))
	if err != nil {
		return err
	}
	out := make([]dto.DriverResponse, 0, len(drivers))
	for i := range drivers {
		out = append(out, dto.NewDriverResponse(&drivers[i]))
	}
	return c.JSON(fiber.Map{"data": out})
}

// UpdateStatus handles PATCH /api/admin/drivers/:id/status.
func (h *DriversHandler) UpdateStatus(c *fiber.Ctx) error {
	var req dto.DriverStatusRequest
	if err := parseAndValidate(c, &req); err != nil {
		return err
	}
	input := service.DriverUpdateInput{Status: req.Status}
	if req.Status != nil && !service.ValidDriverStatus(*req.Status) {
		return apperrors.NewValidationError("unknown driver status")
	}
	if req.Location != nil {
		input.Location = &domain.Location{Latitude: req.Location.Latitude, Longitude: req.Location.Longitude}
	}
	driver, err := h.drivers.UpdateStatus(c.UserContext(), c.Params("id"), input)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewDriverResponse(driver)})
}
