package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/oishine/backoffice/internal/domain"
)

// ErrStale is returned by conditional writes when the row no longer
// matches the state the caller read.
var ErrStale = errors.New("record changed concurrently")

// OrderFilter captures back-office listing parameters.
type OrderFilter struct {
	Statuses []domain.OrderStatus
	DriverID *string
	Limit    int
	Offset   int
}

// OrderRepository encapsulates order persistence.
type OrderRepository interface {
	Create(ctx context.Context, order *domain.Order) error
	UpdateStatus(ctx context.Context, id string, from, to domain.OrderStatus, deliveredAt *time.Time) (*domain.Order, error)
	AssignDriver(ctx context.Context, id, driverID string) (*domain.Order, error)
	GetByID(ctx context.Context, id string) (*domain.Order, error)
	List(ctx context.Context, filter OrderFilter) ([]domain.Order, error)
}

type orderRepository struct {
	pool *pgxpool.Pool
}

// NewOrderRepository instantiates repository.
func NewOrderRepository(pool *pgxpool.Pool) OrderRepository {
	return &orderRepository{pool: pool}
}

const orderColumns = `id, reference, customer_name, customer_phone, delivery_address, total_amount,
            notes, status, driver_id, created_at, updated_at, delivered_at`

func scanOrder(row pgx.Row) (*domain.Order, error) {
	var order domain.Order
	if err := row.Scan(
		&order.ID,
		&order.Reference,
		&order.CustomerName,
		&order.CustomerPhone,
		&order.DeliveryAddress,
		&order.TotalAmount,
		&order.Notes,
		&order.Status,
		&order.DriverID,
		&order.CreatedAt,
		&order.UpdatedAt,
		&order.DeliveredAt,
	); err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *orderRepository) Create(ctx context.Context, order *domain.Order) error {
	const query = `
        INSERT INTO orders (reference, customer_name, customer_phone, delivery_address, total_amount, notes, status, driver_id)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		order.Reference,
		order.CustomerName,
		order.CustomerPhone,
		order.DeliveryAddress,
		order.TotalAmount,
		order.Notes,
		order.Status,
		order.DriverID,
	).Scan(&order.ID, &order.CreatedAt, &order.UpdatedAt)
}

// UpdateStatus moves the order from one status to another. It returns
// ErrStale when the order is no longer in from, and pgx.ErrNoRows when it
// does not exist.
func (r *orderRepository) UpdateStatus(ctx context.Context, id string, from, to domain.OrderStatus, deliveredAt *time.Time) (*domain.Order, error) {
	query := `
        UPDATE orders SET status=$1, delivered_at=COALESCE($2, delivered_at), updated_at=NOW()
        WHERE id=$3 AND status=$4
        RETURNING ` + orderColumns
	order, err := scanOrder(r.pool.QueryRow(ctx, query, to, deliveredAt, id, from))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, r.missOrStale(ctx, id)
	}
	return order, err
}

// AssignDriver sets the driver of an order that is still open. It returns
// ErrStale when the order was delivered or cancelled meanwhile.
func (r *orderRepository) AssignDriver(ctx context.Context, id, driverID string) (*domain.Order, error) {
	query := `
        UPDATE orders SET driver_id=$1, updated_at=NOW()
        WHERE id=$2 AND status NOT IN ($3, $4)
        RETURNING ` + orderColumns
	order, err := scanOrder(r.pool.QueryRow(ctx, query, driverID, id, domain.OrderStatusDelivered, domain.OrderStatusCancelled))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, r.missOrStale(ctx, id)
	}
	return order, err
}

func (r *orderRepository) missOrStale(ctx context.Context, id string) error {
	var exists bool
	if err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM orders WHERE id=$1)`, id).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return pgx.ErrNoRows
	}
	return ErrStale
}

func (r *orderRepository) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id=$1`
	return scanOrder(r.pool.QueryRow(ctx, query, id))
}

func (r *orderRepository) List(ctx context.Context, filter OrderFilter) ([]domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders`
	args := []any{}
	clauses := []string{}

	if len(filter.Statuses) > 0 {
		statuses := make([]string, 0, len(filter.Statuses))
		for _, s := range filter.Statuses {
			statuses = append(statuses, string(s))
		}
		args = append(args, statuses)
		clauses = append(clauses, fmt.Sprintf("status = ANY($%d)", len(args)))
	}
	if filter.DriverID != nil {
		args = append(args, *filter.DriverID)
		clauses = append(clauses, fmt.Sprintf("driver_id=$%d", len(args)))
	}
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}

	query += " ORDER BY created_at DESC"
	limit := filter.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}
	query += fmt.Sprintf(" LIMIT %d OFFSET %d", limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Order
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *order)
	}
	return result, rows.Err()
}
