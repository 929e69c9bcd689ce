package service

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/oishine/backoffice/internal/domain"
	"github.com/oishine/backoffice/internal/realtime"
	"github.com/oishine/backoffice/internal/repository"
	apperrors "github.com/oishine/backoffice/pkg/util"
)

var (
	ErrInvalidTransition = apperrors.NewDomainError("INVALID_TRANSITION", "invalid status transition", http.StatusConflict)
	ErrDriverRequired    = apperrors.NewDomainError("DRIVER_REQUIRED", "assign a driver before dispatching the order", http.StatusConflict)
	ErrOrderClosed       = apperrors.NewDomainError("ORDER_CLOSED", "order is already delivered or cancelled", http.StatusConflict)
	ErrDriverUnavailable = apperrors.NewDomainError("DRIVER_UNAVAILABLE", "driver is inactive or offline", http.StatusConflict)
	ErrOrderChanged      = apperrors.NewDomainError("ORDER_CHANGED", "order status changed meanwhile, reload and retry", http.StatusConflict)
)

// Publisher hands status snapshots to the realtime broadcaster.
type Publisher interface {
	Publish(topic string, payload any)
}

// OrderService coordinates order workflows.
type OrderService struct {
	orders    repository.OrderRepository
	drivers   repository.DriverRepository
	publisher Publisher
	logger    *zap.Logger
	now       func() time.Time
}

// OrderDependencies bundles collaborators for the order service.
type OrderDependencies struct {
	OrderRepo  repository.OrderRepository
	DriverRepo repository.DriverRepository
	Publisher  Publisher
	Logger     *zap.Logger
}

// OrderCreateInput describes a storefront checkout.
type OrderCreateInput struct {
	CustomerName    string
	CustomerPhone   string
	DeliveryAddress string
	TotalAmount     int64
	Notes           string
}

// NewOrderService constructs the service.
func NewOrderService(deps OrderDependencies) *OrderService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OrderService{
		orders:    deps.OrderRepo,
		drivers:   deps.DriverRepo,
		publisher: deps.Publisher,
		logger:    logger,
		now:       time.Now,
	}
}

// CreateOrder stores a PENDING order and notifies the admin feed.
func (s *OrderService) CreateOrder(ctx context.Context, input OrderCreateInput) (*domain.Order, error) {
	order := &domain.Order{
		Reference:       generateOrderReference(),
		CustomerName:    strings.TrimSpace(input.CustomerName),
		CustomerPhone:   strings.TrimSpace(input.CustomerPhone),
		DeliveryAddress: strings.TrimSpace(input.DeliveryAddress),
		TotalAmount:     input.TotalAmount,
		Notes:           strings.TrimSpace(input.Notes),
		Status:          domain.OrderStatusPending,
	}
	if err := s.orders.Create(ctx, order); err != nil {
		return nil, apperrors.MapError(err)
	}

	s.publishEvent(realtime.EventOrderCreated, realtime.OrderCreatedPayload{
		OrderID:      order.ID,
		Reference:    order.Reference,
		CustomerName: order.CustomerName,
		TotalAmount:  order.TotalAmount,
		Status:       order.Status,
	}, realtime.AdminTopic)
	return order, nil
}

// GetOrder loads one order.
func (s *OrderService) GetOrder(ctx context.Context, id string) (*domain.Order, error) {
	order, err := s.orders.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("order")
		}
		return nil, apperrors.MapError(err)
	}
	return order, nil
}

// ListOrders returns orders matching filter, newest first.
func (s *OrderService) ListOrders(ctx context.Context, filter repository.OrderFilter) ([]domain.Order, error) {
	orders, err := s.orders.List(ctx, filter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return orders, nil
}

// UpdateStatus applies a status transition and notifies order watchers
// and the admin feed.
func (s *OrderService) UpdateStatus(ctx context.Context, actor *domain.AdminPublic, orderID string, newStatus domain.OrderStatus) (*domain.Order, error) {
	order, err := s.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !isValidTransition(order.Status, newStatus) {
		return nil, ErrInvalidTransition
	}
	if newStatus == domain.OrderStatusOutForDelivery && order.DriverID == nil {
		return nil, ErrDriverRequired
	}

	oldStatus := order.Status
	var deliveredAt *time.Time
	if newStatus == domain.OrderStatusDelivered {
		now := s.now()
		deliveredAt = &now
	}
	order, err = s.orders.UpdateStatus(ctx, order.ID, oldStatus, newStatus, deliveredAt)
	if err != nil {
		return nil, mapOrderWriteError(err, ErrOrderChanged)
	}

	payload := realtime.OrderStatusChangedPayload{
		OrderID:   order.ID,
		Reference: order.Reference,
		OldStatus: oldStatus,
		Status:    newStatus,
		DriverID:  order.DriverID,
	}
	if actor != nil {
		payload.ChangedBy = actor.ID
	}
	s.publishEvent(realtime.EventOrderStatusChanged, payload, realtime.OrderTopic(order.ID), realtime.AdminTopic)
	return order, nil
}

// AssignDriver links an active, online driver to an open order.
func (s *OrderService) AssignDriver(ctx context.Context, orderID, driverID string) (*domain.Order, error) {
	order, err := s.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.Status.Terminal() {
		return nil, ErrOrderClosed
	}
	driver, err := s.drivers.GetByID(ctx, driverID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("driver")
		}
		return nil, apperrors.MapError(err)
	}
	if !driver.IsActive || driver.Status == domain.DriverStatusOffline {
		return nil, ErrDriverUnavailable
	}

	order, err = s.orders.AssignDriver(ctx, order.ID, driver.ID)
	if err != nil {
		return nil, mapOrderWriteError(err, ErrOrderClosed)
	}

	s.publishEvent(realtime.EventOrderDriverAssigned, realtime.OrderDriverAssignedPayload{
		OrderID:    order.ID,
		Reference:  order.Reference,
		DriverID:   driver.ID,
		DriverName: driver.Name,
	}, realtime.OrderTopic(order.ID), realtime.DriverTopic(driver.ID), realtime.AdminTopic)
	return order, nil
}

func mapOrderWriteError(err, stale error) error {
	switch {
	case errors.Is(err, repository.ErrStale):
		return stale
	case errors.Is(err, pgx.ErrNoRows):
		return apperrors.NewNotFound("order")
	}
	return apperrors.MapError(err)
}

func (s *OrderService) publishEvent(eventType realtime.EventType, data any, topics ...string) {
	publishEvent(s.publisher, s.now, eventType, data, topics...)
}

func publishEvent(publisher Publisher, now func() time.Time, eventType realtime.EventType, data any, topics ...string) {
	if publisher == nil {
		return
	}
	event := realtime.Event{
		ID:         uuid.NewString(),
		Type:       eventType,
		OccurredAt: now().UTC(),
		Data:       data,
	}
	for _, topic := range topics {
		publisher.Publish(topic, event)
	}
}

func generateOrderReference() string {
	return "OSN-" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
}

var allowedTransitions = map[domain.OrderStatus][]domain.OrderStatus{
	domain.OrderStatusPending:        {domain.OrderStatusConfirmed, domain.OrderStatusCancelled},
	domain.OrderStatusConfirmed:      {domain.OrderStatusPreparing, domain.OrderStatusCancelled},
	domain.OrderStatusPreparing:      {domain.OrderStatusReady, domain.OrderStatusCancelled},
	domain.OrderStatusReady:          {domain.OrderStatusOutForDelivery, domain.OrderStatusCancelled},
	domain.OrderStatusOutForDelivery: {domain.OrderStatusDelivered},
	domain.OrderStatusDelivered:      {},
	domain.OrderStatusCancelled:      {},
}

func isValidTransition(current, next domain.OrderStatus) bool {
	for _, candidate := range allowedTransitions[current] {
		if candidate == next {
			return true
		}
	}
	return false
}

// ValidOrderStatus reports whether s is a known order status.
func ValidOrderStatus(s domain.OrderStatus) bool {
	_, ok := allowedTransitions[s]
	return ok
}
