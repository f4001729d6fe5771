package schedule

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/example/saferides/internal/models"
	"github.com/example/saferides/internal/storage"
)

type fakeNotifier struct {
	scheduled []time.Time
	cancelled []string
	fail      bool
}

func (f *fakeNotifier) ScheduleAt(ctx context.Context, at time.Time, payload map[string]any) (string, error) {
	if f.fail {
		return "", errors.New("push gateway down")
	}
	f.scheduled = append(f.scheduled, at)
	return "n-1", nil
}

func (f *fakeNotifier) Cancel(ctx context.Context, id string) error {
	f.cancelled = append(f.cancelled, id)
	return nil
}

func stadium() models.Place {
	return models.Place{Name: "Stadium", Coord: models.Coordinate{Lat: 33.97, Lon: -81.02}}
}

func newTestService(notifier *fakeNotifier) (*Service, time.Time) {
	now := time.Date(2025, 3, 1, 20, 0, 0, 0, time.UTC)
	deps := Deps{
		Store: storage.NewMemoryStore(),
		Lead:  15 * time.Minute,
		Now:   func() time.Time { return now },
	}
	if notifier != nil {
		deps.Notifier = notifier
	}
	s := NewService(deps)
	return s, now
}

func TestProposeRejectsPast(t *testing.T) {
	s, now := newTestService(nil)
	_, err := s.Propose(context.Background(), "rider-1", stadium(), now.Add(-time.Second))
	if !errors.Is(err, models.ErrInvalidTime) {
		t.Fatalf("expected ErrInvalidTime, got %v", err)
	}
}

func TestProposeFuture(t *testing.T) {
	n := &fakeNotifier{}
	s, now := newTestService(n)
	r, err := s.Propose(context.Background(), "rider-1", stadium(), now.Add(time.Hour))
	if err != nil {
		t.Fatal(err)
	}
	if r.Status != models.ScheduleUpcoming {
		t.Fatalf("expected upcoming, got %s", r.Status)
	}
	if len(n.scheduled) != 1 {
		t.Fatalf("expected one reminder, got %d", len(n.scheduled))
	}
	want := now.Add(45 * time.Minute)
	if !n.scheduled[0].Equal(want) {
		t.Fatalf("reminder at %v, want %v", n.scheduled[0], want)
	}
	if r.NotificationID != "n-1" {
		t.Fatalf("expected notification id recorded, got %q", r.NotificationID)
	}
}

func TestProposeSurvivesNotifierFailure(t *testing.T) {
	n := &fakeNotifier{fail: true}
	s, now := newTestService(n)
	r, err := s.Propose(context.Background(), "rider-1", stadium(), now.Add(time.Hour))
	if err != nil {
		t.Fatalf("reminder failure must not fail the proposal: %v", err)
	}
	if r.NotificationID != "" {
		t.Fatalf("expected empty notification id, got %q", r.NotificationID)
	}
}

func TestProposeSkipsReminderWhenTooSoon(t *testing.T) {
	n := &fakeNotifier{}
	s, now := newTestService(n)
	if _, err := s.Propose(context.Background(), "rider-1", stadium(), now.Add(5*time.Minute)); err != nil {
		t.Fatal(err)
	}
	if len(n.scheduled) != 0 {
		t.Fatalf("expected no reminder inside lead window, got %d", len(n.scheduled))
	}
}

func TestCancelIdempotent(t *testing.T) {
	n := &fakeNotifier{}
	s, now := newTestService(n)
	ctx := context.Background()
	r, err := s.Propose(ctx, "rider-1", stadium(), now.Add(time.Hour))
	if err != nil {
		t.Fatal(err)
	}
	first, err := s.Cancel(ctx, "rider-1", r.ID)
	if err != nil || first.Status != models.ScheduleCancelled {
		t.Fatalf("first cancel: %v %v", first, err)
	}
	second, err := s.Cancel(ctx, "rider-1", r.ID)
	if err != nil || second.Status != models.ScheduleCancelled {
		t.Fatalf("second cancel must be a no-op: %v %v", second, err)
	}
	if len(n.cancelled) != 1 {
		t.Fatalf("reminder cancelled %d times, want 1", len(n.cancelled))
	}
}

func TestCancelUnknown(t *testing.T) {
	s, _ := newTestService(nil)
	if _, err := s.Cancel(context.Background(), "rider-1", "nope"); !errors.Is(err, models.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestCancelOtherRidersRide(t *testing.T) {
	s, now := newTestService(nil)
	ctx := context.Background()
	r, _ := s.Propose(ctx, "rider-1", stadium(), now.Add(time.Hour))
	if _, err := s.Cancel(ctx, "rider-2", r.ID); !errors.Is(err, models.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for foreign ride, got %v", err)
	}
}

func TestListAscending(t *testing.T) {
	s, now := newTestService(nil)
	ctx := context.Background()
	for _, d := range []time.Duration{3 * time.Hour, time.Hour, 2 * time.Hour} {
		if _, err := s.Propose(ctx, "rider-1", stadium(), now.Add(d)); err != nil {
			t.Fatal(err)
		}
	}
	out, err := s.List(ctx, "rider-1", "")
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 3 {
		t.Fatalf("expected 3 rides, got %d", len(out))
	}
	for i := 1; i < len(out); i++ {
		if out[i].ScheduledFor.Before(out[i-1].ScheduledFor) {
			t.Fatal("list not ascending by scheduled time")
		}
	}
}

func TestListStatusFilter(t *testing.T) {
	s, now := newTestService(nil)
	ctx := context.Background()
	r, _ := s.Propose(ctx, "rider-1", stadium(), now.Add(time.Hour))
	_, _ = s.Propose(ctx, "rider-1", stadium(), now.Add(2*time.Hour))
	_, _ = s.Cancel(ctx, "rider-1", r.ID)

	upcoming, err := s.List(ctx, "rider-1", models.ScheduleUpcoming)
	if err != nil || len(upcoming) != 1 {
		t.Fatalf("expected 1 upcoming, got %d (%v)", len(upcoming), err)
	}
	cancelled, err := s.List(ctx, "rider-1", models.ScheduleCancelled)
	if err != nil || len(cancelled) != 1 {
		t.Fatalf("expected 1 cancelled, got %d (%v)", len(cancelled), err)
	}
}
