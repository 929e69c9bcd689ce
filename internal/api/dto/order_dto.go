package dto

import (
	"time"

	"github.com/oishine/backoffice/internal/domain"
)

// CreateOrderRequest payload from the storefront checkout.
type CreateOrderRequest struct {
	CustomerName    string `json:"customerName" validate:"required,max=120"`
	CustomerPhone   string `json:"customerPhone" validate:"required,max=32"`
	DeliveryAddress string `json:"deliveryAddress" validate:"required,max=500"`
	TotalAmount     int64  `json:"totalAmount" validate:"gt=0"`
	Notes           string `json:"notes" validate:"max=1000"`
}

// OrderStatusRequest payload.
type OrderStatusRequest struct {
	Status domain.OrderStatus `json:"status" validate:"required"`
}

// AssignDriverRequest payload.
type AssignDriverRequest struct {
	DriverID string `json:"driverId" validate:"required"`
}

// OrderListQuery captures query filters for the admin order list.
type OrderListQuery struct {
	Statuses []domain.OrderStatus
	DriverID string
	Limit    int
	Offset   int
}

// OrderResponse is the admin view of an order.
type OrderResponse struct {
	ID              string             `json:"id"`
	Reference       string             `json:"reference"`
	CustomerName    string             `json:"customerName"`
	CustomerPhone   string             `json:"customerPhone"`
	DeliveryAddress string             `json:"deliveryAddress"`
	TotalAmount     int64              `json:"totalAmount"`
	Notes           string             `json:"notes,omitempty"`
	Status          domain.OrderStatus `json:"status"`
	DriverID        *string            `json:"driverId"`
	CreatedAt       time.Time          `json:"createdAt"`
	UpdatedAt       time.Time          `json:"updatedAt"`
	DeliveredAt     *time.Time         `json:"deliveredAt,omitempty"`
}

// OrderTrackingResponse is the public status snapshot of an order.
type OrderTrackingResponse struct {
	ID          string             `json:"id"`
	Reference   string             `json:"reference"`
	Status      domain.OrderStatus `json:"status"`
	UpdatedAt   time.Time          `json:"updatedAt"`
	DeliveredAt *time.Time         `json:"deliveredAt,omitempty"`
	Topic       string             `json:"topic"`
}

// NewOrderResponse maps a domain order.
func NewOrderResponse(o *domain.Order) OrderResponse {
	return OrderResponse{
		ID:              o.ID,
		Reference:       o.Reference,
		CustomerName:    o.CustomerName,
		CustomerPhone:   o.CustomerPhone,
		DeliveryAddress: o.DeliveryAddress,
		TotalAmount:     o.TotalAmount,
		Notes:           o.Notes,
		Status:          o.Status,
		DriverID:        o.DriverID,
		CreatedAt:       o.CreatedAt,
		UpdatedAt:       o.UpdatedAt,
		DeliveredAt:     o.DeliveredAt,
	}
}
