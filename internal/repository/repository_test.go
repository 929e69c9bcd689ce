package repository

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/oishine/backoffice/internal/domain"
	"github.com/oishine/backoffice/internal/persistence"
)

func TestMapWriteError(t *testing.T) {
	assert.ErrorIs(t, mapWriteError(&pgconn.PgError{Code: "23505"}), ErrDuplicate)
	wrapped := fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505"})
	assert.ErrorIs(t, mapWriteError(wrapped), ErrDuplicate)

	other := &pgconn.PgError{Code: "23503"}
	assert.Equal(t, error(other), mapWriteError(other))
	assert.NoError(t, mapWriteError(nil))
}

// testPool connects to OISHINE_TEST_POSTGRES_DSN and applies the
// migrations. Tests are skipped when the variable is unset.
func testPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	dsn := os.Getenv("OISHINE_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("OISHINE_TEST_POSTGRES_DSN not set, skipping Postgres tests")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	require.NoError(t, persistence.RunMigrations(ctx, pool, "../../migrations", zap.NewNop()))
	return pool
}

func TestAdminRepository_Postgres(t *testing.T) {
	pool := testPool(t)
	repo := NewAdminRepository(pool)
	ctx := context.Background()
	email := "repo-" + uuid.NewString() + "@oishine.com"

	admin := &domain.Admin{Email: email, Name: "Repo Admin", PasswordHash: "hash", Role: domain.AdminRoleAdmin, IsActive: true}
	require.NoError(t, repo.Create(ctx, admin))
	require.NotEmpty(t, admin.ID)
	t.Cleanup(func() { _, _ = pool.Exec(context.Background(), `DELETE FROM admins WHERE id=$1`, admin.ID) })

	dup := *admin
	assert.ErrorIs(t, repo.Create(ctx, &dup), ErrDuplicate)

	byEmail, err := repo.GetByEmail(ctx, email)
	require.NoError(t, err)
	assert.Equal(t, admin.ID, byEmail.ID)
	assert.Nil(t, byEmail.LastLogin)

	_, err = repo.GetByEmail(ctx, "REPO-"+email[5:])
	assert.True(t, errors.Is(err, pgx.ErrNoRows), "email lookup is case-sensitive")

	now := time.Now().UTC().Truncate(time.Microsecond)
	require.NoError(t, repo.UpdateLastLogin(ctx, admin.ID, now))

	deactivated, err := repo.SetActive(ctx, admin.ID, false)
	require.NoError(t, err)
	assert.False(t, deactivated.IsActive)

	// Profile and password writes leave is_active alone.
	renamed, err := repo.UpdateProfile(ctx, admin.ID, "Renamed", email)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", renamed.Name)
	assert.False(t, renamed.IsActive)
	require.NoError(t, repo.UpdatePassword(ctx, admin.ID, "new-hash"))

	stored, err := repo.GetByID(ctx, admin.ID)
	require.NoError(t, err)
	assert.False(t, stored.IsActive)
	assert.Equal(t, "new-hash", stored.PasswordHash)
	require.NotNil(t, stored.LastLogin)
	assert.True(t, stored.LastLogin.Equal(now))

	assert.ErrorIs(t, repo.UpdatePassword(ctx, uuid.NewString(), "x"), pgx.ErrNoRows)
	_, err = repo.SetActive(ctx, uuid.NewString(), true)
	assert.ErrorIs(t, err, pgx.ErrNoRows)

	_, err = repo.GetByID(ctx, uuid.NewString())
	assert.ErrorIs(t, err, pgx.ErrNoRows)
}

func TestOrderAndDriverRepository_Postgres(t *testing.T) {
	pool := testPool(t)
	orders := NewOrderRepository(pool)
	drivers := NewDriverRepository(pool)
	ctx := context.Background()

	var driverID string
	require.NoError(t, pool.QueryRow(ctx,
		`INSERT INTO drivers (name, status) VALUES ('Budi', 'AVAILABLE') RETURNING id`).Scan(&driverID))

	order := &domain.Order{
		Reference:       "OSN-" + uuid.NewString()[:8],
		CustomerName:    "Aiko",
		CustomerPhone:   "0812",
		DeliveryAddress: "Jl. Sakura 1",
		TotalAmount:     125000,
		Status:          domain.OrderStatusPending,
	}
	require.NoError(t, orders.Create(ctx, order))
	t.Cleanup(func() {
		_, _ = pool.Exec(context.Background(), `DELETE FROM orders WHERE id=$1`, order.ID)
		_, _ = pool.Exec(context.Background(), `DELETE FROM drivers WHERE id=$1`, driverID)
	})

	assigned, err := orders.AssignDriver(ctx, order.ID, driverID)
	require.NoError(t, err)
	require.NotNil(t, assigned.DriverID)

	confirmed, err := orders.UpdateStatus(ctx, order.ID, domain.OrderStatusPending, domain.OrderStatusConfirmed, nil)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusConfirmed, confirmed.Status)
	require.NotNil(t, confirmed.DriverID, "status write keeps the driver")
	assert.Nil(t, confirmed.DeliveredAt)

	_, err = orders.UpdateStatus(ctx, order.ID, domain.OrderStatusPending, domain.OrderStatusCancelled, nil)
	assert.ErrorIs(t, err, ErrStale)
	_, err = orders.UpdateStatus(ctx, uuid.NewString(), domain.OrderStatusPending, domain.OrderStatusCancelled, nil)
	assert.ErrorIs(t, err, pgx.ErrNoRows)

	_, err = orders.UpdateStatus(ctx, order.ID, domain.OrderStatusConfirmed, domain.OrderStatusCancelled, nil)
	require.NoError(t, err)
	_, err = orders.AssignDriver(ctx, order.ID, driverID)
	assert.ErrorIs(t, err, ErrStale)

	listed, err := orders.List(ctx, OrderFilter{Statuses: []domain.OrderStatus{domain.OrderStatusCancelled}, DriverID: &driverID})
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, order.ID, listed[0].ID)

	driver, err := drivers.GetByID(ctx, driverID)
	require.NoError(t, err)
	assert.Nil(t, driver.Location)

	busy := domain.DriverStatusBusy
	_, err = drivers.UpdateState(ctx, driverID, &busy, nil)
	require.NoError(t, err)
	moved, err := drivers.UpdateState(ctx, driverID, nil, &domain.Location{Latitude: -6.2, Longitude: 106.8})
	require.NoError(t, err)
	assert.Equal(t, domain.DriverStatusBusy, moved.Status, "location write keeps the status")

	reloaded, err := drivers.GetByID(ctx, driverID)
	require.NoError(t, err)
	assert.Equal(t, domain.DriverStatusBusy, reloaded.Status)
	require.NotNil(t, reloaded.Location)
	assert.InDelta(t, 106.8, reloaded.Location.Longitude, 1e-9)

	_, err = pool.Exec(ctx, `UPDATE drivers SET is_active=FALSE WHERE id=$1`, driverID)
	require.NoError(t, err)
	_, err = drivers.UpdateState(ctx, driverID, &busy, nil)
	assert.ErrorIs(t, err, pgx.ErrNoRows)
}
