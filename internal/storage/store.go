package storage

import (
	"context"

	"github.com/example/saferides/internal/models"
)

// RideStore defines persistence operations for ride requests.
type RideStore interface {
	SaveRide(ctx context.Context, r *models.RideRequest) error
	UpdateRide(ctx context.Context, r *models.RideRequest) error
	ListRides(ctx context.Context, riderID string) ([]models.RideRequest, error)
}

// ScheduleStore defines persistence operations for scheduled rides. Records
// are never deleted; cancellation is an update.
type ScheduleStore interface {
	SaveScheduled(ctx context.Context, s *models.ScheduledRide) error
	UpdateScheduled(ctx context.Context, s *models.ScheduledRide) error
	GetScheduled(ctx context.Context, id string) (*models.ScheduledRide, error)
	// ListScheduled returns the rider's scheduled rides ordered by
	// ScheduledFor ascending. Empty status means no filter.
	ListScheduled(ctx context.Context, riderID string, status models.ScheduleStatus) ([]models.ScheduledRide, error)
}

// Store combines both collections behind one handle.
type Store interface {
	RideStore
	ScheduleStore
}
