package domain

import "time"

// OrderStatus enumerates the delivery lifecycle of an order.
type OrderStatus string

const (
	OrderStatusPending        OrderStatus = "PENDING"
	OrderStatusConfirmed      OrderStatus = "CONFIRMED"
	OrderStatusPreparing      OrderStatus = "PREPARING"
	OrderStatusReady          OrderStatus = "READY"
	OrderStatusOutForDelivery OrderStatus = "OUT_FOR_DELIVERY"
	OrderStatusDelivered      OrderStatus = "DELIVERED"
	OrderStatusCancelled      OrderStatus = "CANCELLED"
)

// Order is a storefront order as seen by the back-office.
type Order struct {
	ID              string
	Reference       string
	CustomerName    string
	CustomerPhone   string
	DeliveryAddress string
	TotalAmount     int64
	Notes           string
	Status          OrderStatus
	DriverID        *string
	CreatedAt       time.Time
	UpdatedAt       time.Time
	DeliveredAt     *time.Time
}

// Terminal reports whether the order can no longer change status.
func (s OrderStatus) Terminal() bool {
	return s == OrderStatusDelivered || s == OrderStatusCancelled
}
