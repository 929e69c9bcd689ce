package service

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/oishine/backoffice/internal/domain"
	"github.com/oishine/backoffice/internal/realtime"
	"github.com/oishine/backoffice/internal/repository"
	apperrors "github.com/oishine/backoffice/pkg/util"
)

var (
	ErrDriverInactive    = apperrors.NewDomainError("DRIVER_INACTIVE", "driver is inactive", http.StatusConflict)
	ErrEmptyDriverUpdate = apperrors.NewDomainError("VALIDATION_FAILED", "status or location required", http.StatusBadRequest)
)

// DriverService manages driver availability and location.
type DriverService struct {
	drivers   repository.DriverRepository
	publisher Publisher
	logger    *zap.Logger
	now       func() time.Time
}

// NewDriverService constructs the service.
func NewDriverService(drivers repository.DriverRepository, publisher Publisher, logger *zap.Logger) *DriverService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DriverService{drivers: drivers, publisher: publisher, logger: logger, now: time.Now}
}

// DriverUpdateInput carries an optional status and an optional location.
type DriverUpdateInput struct {
	Status   *domain.DriverStatus
	Location *domain.Location
}

// ListDrivers returns drivers ordered by name.
func (s *DriverService) ListDrivers(ctx context.Context, activeOnly bool) ([]domain.Driver, error) {
	drivers, err := s.drivers.List(ctx, activeOnly)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return drivers, nil
}

// UpdateStatus persists the change and publishes a snapshot to the
// driver's topic and the admin feed.
func (s *DriverService) UpdateStatus(ctx context.Context, driverID string, input DriverUpdateInput) (*domain.Driver, error) {
	if input.Status == nil && input.Location == nil {
		return nil, ErrEmptyDriverUpdate
	}
	driver, err := s.drivers.GetByID(ctx, driverID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("driver")
		}
		return nil, apperrors.MapError(err)
	}
	if !driver.IsActive {
		return nil, ErrDriverInactive
	}

	oldStatus := driver.Status
	// Resending the current status without a location is a no-op.
	if input.Location == nil && *input.Status == oldStatus {
		return driver, nil
	}
	driver, err = s.drivers.UpdateState(ctx, driverID, input.Status, input.Location)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrDriverInactive
		}
		return nil, apperrors.MapError(err)
	}

	eventType := realtime.EventDriverLocationUpdated
	if driver.Status != oldStatus {
		eventType = realtime.EventDriverStatusChanged
	}
	payload := realtime.DriverStatusPayload{
		DriverID: driver.ID,
		Name:     driver.Name,
		Status:   driver.Status,
		Location: driver.Location,
	}
	if eventType == realtime.EventDriverStatusChanged {
		payload.OldStatus = oldStatus
	}
	publishEvent(s.publisher, s.now, eventType, payload, realtime.DriverTopic(driver.ID), realtime.AdminTopic)
	return driver, nil
}

// ValidDriverStatus reports whether st is a known driver status.
func ValidDriverStatus(st domain.DriverStatus) bool {
	switch st {
	case domain.DriverStatusAvailable, domain.DriverStatusBusy, domain.DriverStatusOffline:
		return true
	}
	return false
}
