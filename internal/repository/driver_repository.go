package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/oishine/backoffice/internal/domain"
)

// DriverRepository handles persistence for delivery drivers.
type DriverRepository interface {
	UpdateState(ctx context.Context, id string, status *domain.DriverStatus, loc *domain.Location) (*domain.Driver, error)
	GetByID(ctx context.Context, id string) (*domain.Driver, error)
	List(ctx context.Context, activeOnly bool) ([]domain.Driver, error)
}

type driverRepository struct {
	pool *pgxpool.Pool
}

// NewDriverRepository instantiates the repository.
func NewDriverRepository(pool *pgxpool.Pool) DriverRepository {
	return &driverRepository{pool: pool}
}

const driverColumns = `id, name, phone, vehicle, status, is_active, latitude, longitude, created_at, updated_at`

func scanDriver(row pgx.Row) (*domain.Driver, error) {
	var (
		driver   domain.Driver
		lat, lng *float64
	)
	if err := row.Scan(
		&driver.ID,
		&driver.Name,
		&driver.Phone,
		&driver.Vehicle,
		&driver.Status,
		&driver.IsActive,
		&lat,
		&lng,
		&driver.CreatedAt,
		&driver.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if lat != nil && lng != nil {
		driver.Location = &domain.Location{Latitude: *lat, Longitude: *lng}
	}
	return &driver, nil
}

// UpdateState writes the status and/or location of an active driver.
// Nil arguments keep the stored value. Inactive or unknown drivers yield
// pgx.ErrNoRows.
func (r *driverRepository) UpdateState(ctx context.Context, id string, status *domain.DriverStatus, loc *domain.Location) (*domain.Driver, error) {
	query := `
        UPDATE drivers
        SET status=COALESCE($1, status), latitude=COALESCE($2, latitude), longitude=COALESCE($3, longitude), updated_at=NOW()
        WHERE id=$4 AND is_active=TRUE
        RETURNING ` + driverColumns

	var (
		st       *string
		lat, lng *float64
	)
	if status != nil {
		v := string(*status)
		st = &v
	}
	if loc != nil {
		lat, lng = &loc.Latitude, &loc.Longitude
	}
	return scanDriver(r.pool.QueryRow(ctx, query, st, lat, lng, id))
}

func (r *driverRepository) GetByID(ctx context.Context, id string) (*domain.Driver, error) {
	query := `SELECT ` + driverColumns + ` FROM drivers WHERE id=$1`
	return scanDriver(r.pool.QueryRow(ctx, query, id))
}

func (r *driverRepository) List(ctx context.Context, activeOnly bool) ([]domain.Driver, error) {
	query := `SELECT ` + driverColumns + ` FROM drivers`
	if activeOnly {
		query += ` WHERE is_active=TRUE`
	}
	query += ` ORDER BY name ASC`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Driver
	for rows.Next() {
		driver, err := scanDriver(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *driver)
	}
	return result, rows.Err()
}
