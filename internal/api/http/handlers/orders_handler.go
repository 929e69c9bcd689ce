package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/oishine/backoffice/internal/api/dto"
	"github.com/oishine/backoffice/internal/domain"
	"github.com/oishine/backoffice/internal/realtime"
	"github.com/oishine/backoffice/internal/repository"
	"github.com/oishine/backoffice/internal/service"
	apperrors "github.com/oishine/backoffice/pkg/util"
)

// OrdersHandler exposes storefront and admin order endpoints.
type OrdersHandler struct {
	orders *service.OrderService
}

// NewOrdersHandler constructs handler.
func NewOrdersHandler(orderService *service.OrderService) *OrdersHandler {
	return &OrdersHandler{orders: orderService}
}

// Create handles POST /api/orders.
func (h *OrdersHandler) Create(c *fiber.Ctx) error {
	var req dto.CreateOrderRequest
	if err := parseAndValidate(c, &req); err != nil {
		return err
	}
	order, err := h.orders.CreateOrder(c.UserContext(), service.OrderCreateInput{
		CustomerName:    req.CustomerName,
		CustomerPhone:   req.CustomerPhone,
		DeliveryAddress: req.DeliveryAddress,
		TotalAmount:     req.TotalAmount,
		Notes:           req.Notes,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": trackingView(order)})
}

// Track handles GET /api/orders/:id/track.
func (h *OrdersHandler) Track(c *fiber.Ctx) error {
	order, err := h.orders.GetOrder(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": trackingView(order)})
}

// List handles GET /api/admin/orders.
func (h *OrdersHandler) List(c *fiber.Ctx) error {
	query, err := parseOrderListQuery(c)
	if err != nil {
		return err
	}
	filter := repository.OrderFilter{
		Statuses: query.Statuses,
		Limit:    query.Limit,
		Offset:   query.Offset,
	}
	if query.DriverID != "" {
		filter.DriverID = &query.DriverID
	}
	orders, err := h.orders.ListOrders(c.UserContext(), filter)
	if err != nil {
		return err
	}
	out := make([]dto.OrderResponse, 0, len(orders))
	for i := range orders {
		out = append(out, dto.NewOrderResponse(&orders[i]))
	}
	return c.JSON(fiber.Map{"data": out})
}

// Get handles GET /api/admin/orders/:id.
func (h *OrdersHandler) Get(c *fiber.Ctx) error {
	order, err := h.orders.GetOrder(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewOrderResponse(order)})
}

// UpdateStatus handles PATCH /api/admin/orders/:id/status.
func (h *OrdersHandler) UpdateStatus(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	var req dto.OrderStatusRequest
	if err := parseAndValidate(c, &req); err != nil {
		return err
	}
	if !service.ValidOrderStatus(req.Status) {
		return apperrors.NewValidationError("unknown order status")
	}
	order, err := h.orders.UpdateStatus(c.UserContext(), principal, c.Params("id"), req.Status)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewOrderResponse(order)})
}

// AssignDriver handles PATCH /api/admin/orders/:id/driver.
func (h *OrdersHandler) AssignDriver(c *fiber.Ctx) error {
	var req dto.AssignDriverRequest
	if err := parseAndValidate(c, &req); err != nil {
		return err
	}
	order, err := h.orders.AssignDriver(c.UserContext(), c.Params("id"), req.DriverID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewOrderResponse(order)})
}

func trackingView(o *domain.Order) dto.OrderTrackingResponse {
	return dto.OrderTrackingResponse{
		ID:          o.ID,
		Reference:   o.Reference,
		Status:      o.Status,
		UpdatedAt:   o.UpdatedAt,
		DeliveredAt: o.DeliveredAt,
		Topic:       realtime.OrderTopic(o.ID),
	}
}

func parseOrderListQuery(c *fiber.Ctx) (dto.OrderListQuery, error) {
	var q dto.OrderListQuery
	if raw := c.Query("status"); raw != "" {
		for _, part := range strings.Split(raw, ",") {
			st := domain.OrderStatus(strings.ToUpper(strings.TrimSpace(part)))
			if !service.ValidOrderStatus(st) {
				return q, apperrors.NewValidationError("unknown order status: " + part)
			}
			q.Statuses = append(q.Statuses, st)
		}
	}
	q.DriverID = c.Query("driverId")

	var err error
	if q.Limit, err = queryInt(c, "limit"); err != nil {
		return q, err
	}
	if q.Offset, err = queryInt(c, "offset"); err != nil {
		return q, err
	}
	return q, nil
}

func queryInt(c *fiber.Ctx, key string) (int, error) {
	raw := c.Query(key)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, apperrors.NewValidationError(key + " must be a non-negative integer")
	}
	return n, nil
}
