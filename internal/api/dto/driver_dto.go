package dto

import (
	"time"

	"github.com/oishine/backoffice/internal/domain"
)

// LocationPayload is a GPS fix.
type LocationPayload struct {
	Latitude  float64 `json:"latitude" validate:"gte=-90,lte=90"`
	Longitude float64 `json:"longitude" validate:"gte=-180,lte=180"`
}

// DriverStatusRequest updates availability and/or location.
type DriverStatusRequest struct {
	Status   *domain.DriverStatus `json:"status"`
	Location *LocationPayload     `json:"location" validate:"omitempty"`
}

// DriverResponse is the admin view of a driver.
type DriverResponse struct {
	ID        string              `json:"id"`
	Name      string              `json:"name"`
	Phone     string              `json:"phone"`
	Vehicle   string              `json:"vehicle"`
	Status    domain.DriverStatus `json:"status"`
	IsActive  bool                `json:"isActive"`
	Location  *domain.Location    `json:"location"`
	UpdatedAt time.Time           `json:"updatedAt"`
}

// NewDriverResponse maps a domain driver.
func NewDriverResponse(d *domain.Driver) DriverResponse {
	return DriverResponse{
		ID:        d.ID,
		Name:      d.Name,
		Phone:     d.Phone,
		Vehicle:   d.Vehicle,
		Status:    d.Status,
		IsActive:  d.IsActive,
		Location:  d.Location,
		UpdatedAt: d.UpdatedAt,
	}
}
