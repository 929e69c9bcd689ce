package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oishine/backoffice/internal/domain"
	"github.com/oishine/backoffice/internal/realtime"
)

func TestDriverUpdateStatus_StatusChange(t *testing.T) {
	repo := newFakeDriverRepo(&domain.Driver{ID: "drv-1", Name: "Budi", Status: domain.DriverStatusOffline, IsActive: true})
	pub := &recordingPublisher{}
	svc := NewDriverService(repo, pub, nil)
	available := domain.DriverStatusAvailable

	driver, err := svc.UpdateStatus(context.Background(), "drv-1", DriverUpdateInput{Status: &available})

	require.NoError(t, err)
	assert.Equal(t, domain.DriverStatusAvailable, driver.Status)
	assert.Equal(t, []string{realtime.DriverTopic("drv-1"), realtime.AdminTopic}, pub.topics())
	event := pub.events[0].event
	assert.Equal(t, realtime.EventDriverStatusChanged, event.Type)
	payload := event.Data.(realtime.DriverStatusPayload)
	assert.Equal(t, domain.DriverStatusOffline, payload.OldStatus)
}

func TestDriverUpdateStatus_LocationOnly(t *testing.T) {
	repo := newFakeDriverRepo(&domain.Driver{ID: "drv-1", Status: domain.DriverStatusBusy, IsActive: true})
	pub := &recordingPublisher{}
	svc := NewDriverService(repo, pub, nil)

	driver, err := svc.UpdateStatus(context.Background(), "drv-1", DriverUpdateInput{
		Location: &domain.Location{Latitude: -6.2, Longitude: 106.8},
	})

	require.NoError(t, err)
	require.NotNil(t, driver.Location)
	assert.InDelta(t, -6.2, driver.Location.Latitude, 1e-9)
	require.Len(t, pub.events, 2)
	assert.Equal(t, realtime.EventDriverLocationUpdated, pub.events[0].event.Type)
	assert.Empty(t, pub.events[0].event.Data.(realtime.DriverStatusPayload).OldStatus)
}

func TestDriverUpdateStatus_Rejections(t *testing.T) {
	repo := newFakeDriverRepo(&domain.Driver{ID: "drv-x", Status: domain.DriverStatusAvailable, IsActive: false})
	pub := &recordingPublisher{}
	svc := NewDriverService(repo, pub, nil)
	busy := domain.DriverStatusBusy
	ctx := context.Background()

	_, err := svc.UpdateStatus(ctx, "drv-x", DriverUpdateInput{})
	assert.ErrorIs(t, err, ErrEmptyDriverUpdate)

	_, err = svc.UpdateStatus(ctx, "drv-x", DriverUpdateInput{Status: &busy})
	assert.ErrorIs(t, err, ErrDriverInactive)

	_, err = svc.UpdateStatus(ctx, "missing", DriverUpdateInput{Status: &busy})
	assert.Error(t, err)
	assert.Empty(t, pub.events)
}

func TestDriverUpdateStatus_UnchangedStatusIsNoop(t *testing.T) {
	repo := newFakeDriverRepo(&domain.Driver{ID: "drv-1", Status: domain.DriverStatusBusy, IsActive: true})
	pub := &recordingPublisher{}
	svc := NewDriverService(repo, pub, nil)
	busy := domain.DriverStatusBusy

	driver, err := svc.UpdateStatus(context.Background(), "drv-1", DriverUpdateInput{Status: &busy})

	require.NoError(t, err)
	assert.Equal(t, domain.DriverStatusBusy, driver.Status)
	assert.Empty(t, pub.events)
}

func TestDriverUpdateStatus_StatusAndLocation(t *testing.T) {
	repo := newFakeDriverRepo(&domain.Driver{ID: "drv-1", Status: domain.DriverStatusAvailable, IsActive: true})
	pub := &recordingPublisher{}
	svc := NewDriverService(repo, pub, nil)
	busy := domain.DriverStatusBusy

	_, err := svc.UpdateStatus(context.Background(), "drv-1", DriverUpdateInput{
		Status:   &busy,
		Location: &domain.Location{Latitude: 1, Longitude: 2},
	})

	require.NoError(t, err)
	require.Len(t, pub.events, 2)
	assert.Equal(t, realtime.EventDriverStatusChanged, pub.events[0].event.Type)
}

func TestListDrivers_ActiveOnly(t *testing.T) {
	repo := newFakeDriverRepo(
		&domain.Driver{ID: "a", IsActive: true},
		&domain.Driver{ID: "b", IsActive: false},
	)
	svc := NewDriverService(repo, nil, nil)

	active, err := svc.ListDrivers(context.Background(), true)
	require.NoError(t, err)
	assert.Len(t, active, 1)

	all, err := svc.ListDrivers(context.Background(), false)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestValidDriverStatus(t *testing.T) {
	assert.True(t, ValidDriverStatus(domain.DriverStatusBusy))
	assert.False(t, ValidDriverStatus("ASLEEP"))
}
