package domain

import "time"

// DriverStatus enumerates driver availability.
type DriverStatus string

const (
	DriverStatusAvailable DriverStatus = "AVAILABLE"
	DriverStatusBusy      DriverStatus = "BUSY"
	DriverStatusOffline   DriverStatus = "OFFLINE"
)

// Location is a last-known GPS fix.
type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Driver delivers orders.
type Driver struct {
	ID        string
	Name      string
	Phone     string
	Vehicle   string
	Status    DriverStatus
	IsActive  bool
	Location  *Location
	CreatedAt time.Time
	UpdatedAt time.Time
}
