package main

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/example/saferides/internal/models"
)

// fakeScheduler implements notify.Scheduler for tests
type fakeScheduler struct {
	failTimes int // number of times ScheduleAt fails before succeeding
	calls     int
}

func (f *fakeScheduler) ScheduleAt(ctx context.Context, at time.Time, payload map[string]any) (string, error) {
	f.calls++
	if f.calls <= f.failTimes {
		return "", errors.New("push fail")
	}
	return "n-1", nil
}

func (f *fakeScheduler) Cancel(ctx context.Context, id string) error { return nil }

func upcomingRide() *models.ScheduledRide {
	return &models.ScheduledRide{
		ID:           "s1",
		RiderID:      "rider-1",
		Destination:  models.Place{Name: "Stadium"},
		ScheduledFor: time.Now().Add(time.Hour),
		Status:       models.ScheduleUpcoming,
	}
}

func TestScheduleWithRetry_SucceedsAfterRetries(t *testing.T) {
	f := &fakeScheduler{failTimes: 1}
	start := time.Now()
	err := scheduleWithRetry(context.Background(), f, upcomingRide(), time.Now().Add(45*time.Minute), 3, 10*time.Millisecond)
	if err != nil {
		t.Fatalf("expected success, got err=%v", err)
	}
	if f.calls < 2 {
		t.Fatalf("expected retries, got calls=%d", f.calls)
	}
	if time.Since(start) < 10*time.Millisecond {
		t.Fatalf("expected at least one backoff")
	}
}

func TestScheduleWithRetry_FailsWhenExhausted(t *testing.T) {
	f := &fakeScheduler{failTimes: 5}
	err := scheduleWithRetry(context.Background(), f, upcomingRide(), time.Now().Add(45*time.Minute), 3, 5*time.Millisecond)
	if err == nil {
		t.Fatalf("expected error after retries")
	}
	if f.calls != 3 {
		t.Fatalf("expected 3 attempts, got %d", f.calls)
	}
}
