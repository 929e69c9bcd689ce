package realtime

import (
	"time"

	"github.com/oishine/backoffice/internal/domain"
)

// EventType enumerates payload kinds producers publish.
type EventType string

const (
	EventOrderCreated          EventType = "order.created"
	EventOrderStatusChanged    EventType = "order.status_changed"
	EventOrderDriverAssigned   EventType = "order.driver_assigned"
	EventDriverStatusChanged   EventType = "driver.status_changed"
	EventDriverLocationUpdated EventType = "driver.location_updated"
)

// Event is the payload envelope producers hand to Publish.
type Event struct {
	ID         string    `json:"id"`
	Type       EventType `json:"type"`
	OccurredAt time.Time `json:"occurredAt"`
	Data       any       `json:"data"`
}

// OrderCreatedPayload announces a new storefront order to admins.
type OrderCreatedPayload struct {
	OrderID      string             `json:"orderId"`
	Reference    string             `json:"reference"`
	CustomerName string             `json:"customerName"`
	TotalAmount  int64              `json:"totalAmount"`
	Status       domain.OrderStatus `json:"status"`
}

// OrderStatusChangedPayload is a status transition snapshot.
type OrderStatusChangedPayload struct {
	OrderID   string             `json:"orderId"`
	Reference string             `json:"reference"`
	OldStatus domain.OrderStatus `json:"oldStatus"`
	Status    domain.OrderStatus `json:"status"`
	DriverID  *string            `json:"driverId,omitempty"`
	ChangedBy string             `json:"changedBy,omitempty"`
}

// OrderDriverAssignedPayload links an order to a driver.
type OrderDriverAssignedPayload struct {
	OrderID    string `json:"orderId"`
	Reference  string `json:"reference"`
	DriverID   string `json:"driverId"`
	DriverName string `json:"driverName"`
}

// DriverStatusPayload is a driver availability and location snapshot.
type DriverStatusPayload struct {
	DriverID  string              `json:"driverId"`
	Name      string              `json:"name"`
	OldStatus domain.DriverStatus `json:"oldStatus,omitempty"`
	Status    domain.DriverStatus `json:"status"`
	Location  *domain.Location    `json:"location,omitempty"`
}
