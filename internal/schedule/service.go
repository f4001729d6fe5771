package schedule

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/example/saferides/internal/models"
	"github.com/example/saferides/internal/notify"
	"github.com/example/saferides/internal/observability"
	"github.com/example/saferides/internal/storage"
)

// Publisher emits scheduled-ride events to the event stream.
type Publisher interface {
	Publish(ctx context.Context, key string, v any) error
}

// Service owns the scheduled-ride sub-flow: propose a future ride, cancel
// it, list the dashboard. Scheduled rides live independently of the
// immediate request workflow and are retained for history.
type Service struct {
	store    storage.ScheduleStore
	notifier notify.Scheduler
	events   Publisher
	lead     time.Duration
	logger   *slog.Logger
	now      func() time.Time

	// OnChange, when set, is invoked after every applied mutation.
	OnChange func(event string, s *models.ScheduledRide)
}

type Deps struct {
	Store    storage.ScheduleStore
	Notifier notify.Scheduler
	Events   Publisher
	Lead     time.Duration
	Logger   *slog.Logger
	Now      func() time.Time
}

func NewService(d Deps) *Service {
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.Lead <= 0 {
		d.Lead = 15 * time.Minute
	}
	return &Service{
		store:    d.Store,
		notifier: d.Notifier,
		events:   d.Events,
		lead:     d.Lead,
		logger:   d.Logger,
		now:      d.Now,
	}
}

// Propose validates and persists a future-dated ride intent. The scheduled
// time must not be in the past at call evaluation.
func (s *Service) Propose(ctx context.Context, riderID string, dest models.Place, at time.Time) (*models.ScheduledRide, error) {
	if strings.TrimSpace(dest.Name) == "" {
		return nil, fmt.Errorf("%w: destination has no name", models.ErrPreconditionFailed)
	}
	now := s.now()
	if at.Before(now) {
		return nil, fmt.Errorf("%w: %s is in the past", models.ErrInvalidTime, at.Format(time.RFC3339))
	}
	r := &models.ScheduledRide{
		ID:           uuid.NewString(),
		RiderID:      riderID,
		Destination:  dest,
		ScheduledFor: at,
		Status:       models.ScheduleUpcoming,
		CreatedAt:    now,
	}
	if err := s.store.SaveScheduled(ctx, r); err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrExternalUnavailable, err)
	}
	observability.SchedulesTotal.Inc()

	// reminder fires 15 minutes before departure, when there is room for it
	if s.notifier != nil {
		if remindAt := at.Add(-s.lead); remindAt.After(now) {
			id, err := s.notifier.ScheduleAt(ctx, remindAt, map[string]any{
				"ride_id":     r.ID,
				"title":       "Upcoming SafeRide",
				"body":        fmt.Sprintf("Your ride to %s leaves at %s", dest.Name, at.Format(time.Kitchen)),
				"destination": dest.Name,
			})
			if err != nil {
				s.logger.Warn("reminder scheduling failed", "scheduled_id", r.ID, "error", err)
			} else {
				r.NotificationID = id
				if err := s.store.UpdateScheduled(ctx, r); err != nil {
					s.logger.Warn("scheduled ride update failed", "scheduled_id", r.ID, "error", err)
				}
			}
		}
	}

	if s.events != nil {
		if err := s.events.Publish(ctx, riderID, r); err != nil {
			s.logger.Error("scheduled event publish failed", "scheduled_id", r.ID, "error", err)
		}
	}
	s.fire("scheduled", r)
	return r, nil
}

// Cancel flips an upcoming ride to cancelled. Idempotent on an already
// cancelled ride; unknown ids fail with not-found.
func (s *Service) Cancel(ctx context.Context, riderID, id string) (*models.ScheduledRide, error) {
	r, err := s.store.GetScheduled(ctx, id)
	if err != nil {
		return nil, err
	}
	if r.RiderID != riderID {
		return nil, fmt.Errorf("%w: scheduled ride %s", models.ErrNotFound, id)
	}
	switch r.Status {
	case models.ScheduleCancelled:
		return r, nil
	case models.ScheduleCompleted:
		return nil, fmt.Errorf("%w: ride %s already completed", models.ErrInvalidState, id)
	}
	r.Status = models.ScheduleCancelled
	if err := s.store.UpdateScheduled(ctx, r); err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrExternalUnavailable, err)
	}
	if s.notifier != nil && r.NotificationID != "" {
		if err := s.notifier.Cancel(ctx, r.NotificationID); err != nil {
			s.logger.Warn("reminder cancel failed", "scheduled_id", r.ID, "error", err)
		}
	}
	s.fire("schedule_cancelled", r)
	return r, nil
}

// List returns the rider's scheduled rides ascending by scheduled time. On a
// store failure the result degrades to empty with the error surfaced.
func (s *Service) List(ctx context.Context, riderID string, status models.ScheduleStatus) ([]models.ScheduledRide, error) {
	if status != "" {
		switch status {
		case models.ScheduleUpcoming, models.ScheduleCancelled, models.ScheduleCompleted:
		default:
			return nil, fmt.Errorf("%w: status %q", models.ErrNotFound, status)
		}
	}
	out, err := s.store.ListScheduled(ctx, riderID, status)
	if err != nil {
		return []models.ScheduledRide{}, fmt.Errorf("%w: %v", models.ErrExternalUnavailable, err)
	}
	return out, nil
}

func (s *Service) fire(event string, r *models.ScheduledRide) {
	if s.OnChange != nil {
		cp := *r
		s.OnChange(event, &cp)
	}
}
