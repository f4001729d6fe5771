package ride

import (
	"context"
	"errors"
	"testing"

	"github.com/example/saferides/internal/catalog"
	"github.com/example/saferides/internal/models"
	"github.com/example/saferides/internal/storage"
)

type failStore struct {
	storage.RideStore
	fail bool
}

func (f *failStore) SaveRide(ctx context.Context, r *models.RideRequest) error {
	if f.fail {
		return errors.New("store down")
	}
	return f.RideStore.SaveRide(ctx, r)
}

func newTestWorkflow(t *testing.T) (*Workflow, *storage.MemoryStore) {
	t.Helper()
	store := storage.NewMemoryStore()
	w := NewWorkflow("rider-1", Deps{Catalog: catalog.Default(), Store: store})
	return w, store
}

func origin() models.Place {
	return models.Place{Name: "Campus", Coord: models.Coordinate{Lat: 34.0, Lon: -81.0}}
}

func stadium() models.Place {
	return models.Place{Name: "Stadium", Coord: models.Coordinate{Lat: 33.97, Lon: -81.02}}
}

func TestEndToEndFlatRate(t *testing.T) {
	w, store := newTestWorkflow(t)
	ctx := context.Background()

	if err := w.SetOrigin(origin()); err != nil {
		t.Fatal(err)
	}
	if err := w.SetDestination(stadium()); err != nil {
		t.Fatal(err)
	}
	if w.State() != StateDestinationSet {
		t.Fatalf("expected destination_set, got %s", w.State())
	}
	if err := w.SelectOption("1", 0); err != nil {
		t.Fatal(err)
	}
	if err := w.Submit(ctx); err != nil {
		t.Fatal(err)
	}
	if w.State() != StateAwaitingPayment {
		t.Fatalf("expected awaiting_payment, got %s", w.State())
	}
	r, ok := w.Request()
	if !ok || r.TotalCents != 1000 {
		t.Fatalf("expected total 1000, got %+v", r)
	}
	saved, err := store.ListRides(ctx, "rider-1")
	if err != nil || len(saved) != 1 {
		t.Fatalf("expected one persisted ride, got %d (%v)", len(saved), err)
	}
	if saved[0].Status != models.RequestAwaitingPayment {
		t.Fatalf("persisted status: %s", saved[0].Status)
	}
}

func TestSubmitUnresolvedPrice(t *testing.T) {
	w, _ := newTestWorkflow(t)
	_ = w.SetOrigin(origin())
	_ = w.SetDestination(stadium())
	if err := w.SelectOption("3", 0); err != nil {
		t.Fatal(err)
	}
	err := w.Submit(context.Background())
	if !errors.Is(err, models.ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState, got %v", err)
	}
	if w.State() != StateOptionSelected {
		t.Fatalf("state must not transition, got %s", w.State())
	}
	if err := w.NamePrice(500); err != nil {
		t.Fatal(err)
	}
	if err := w.Submit(context.Background()); err != nil {
		t.Fatal(err)
	}
	r, _ := w.Request()
	if r.TotalCents != 500 {
		t.Fatalf("expected 500, got %d", r.TotalCents)
	}
}

func TestNamePriceRejectsNonPositive(t *testing.T) {
	w, _ := newTestWorkflow(t)
	_ = w.SetOrigin(origin())
	_ = w.SetDestination(stadium())
	_ = w.SelectOption("3", 0)
	if err := w.NamePrice(0); !errors.Is(err, models.ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
}

func TestSelectOptionUnknown(t *testing.T) {
	w, _ := newTestWorkflow(t)
	_ = w.SetOrigin(origin())
	_ = w.SetDestination(stadium())
	if err := w.SelectOption("99", 0); !errors.Is(err, models.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if w.State() != StateDestinationSet {
		t.Fatalf("state must not transition, got %s", w.State())
	}
}

func TestSelectOptionNeedsCompleteItinerary(t *testing.T) {
	w, _ := newTestWorkflow(t)
	if err := w.SelectOption("1", 0); !errors.Is(err, models.ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState, got %v", err)
	}
}

func TestSplitMismatchKeepsState(t *testing.T) {
	w, _ := newTestWorkflow(t)
	ctx := context.Background()
	_ = w.SetOrigin(origin())
	_ = w.SetDestination(stadium())
	_ = w.SelectOption("1", 0)
	_ = w.Submit(ctx)

	shares := []models.SplitShare{{Participant: "amy", AmountCents: 999}}
	err := w.SelectPayment(ctx, "split", shares)
	if !errors.Is(err, models.ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
	if w.State() != StateAwaitingPayment {
		t.Fatalf("state must remain awaiting_payment, got %s", w.State())
	}

	shares = []models.SplitShare{
		{Participant: "amy", AmountCents: 600},
		{Participant: "ben", AmountCents: 400},
	}
	if err := w.SelectPayment(ctx, "split", shares); err != nil {
		t.Fatal(err)
	}
	if w.State() != StatePaymentSelected {
		t.Fatalf("expected payment_selected, got %s", w.State())
	}
}

func TestCancelBeforeSubmitClearsSelection(t *testing.T) {
	w, _ := newTestWorkflow(t)
	ctx := context.Background()
	_ = w.SetOrigin(origin())
	_ = w.SetDestination(stadium())
	_ = w.SelectOption("1", 0)
	if err := w.Cancel(ctx); err != nil {
		t.Fatal(err)
	}
	if w.State() != StateNoDestination {
		t.Fatalf("expected no_destination, got %s", w.State())
	}
	if _, ok := w.Request(); ok {
		t.Fatal("request should be dropped")
	}
	// origin survives the reset
	snap := w.Snapshot()
	if len(snap.Stops) != 1 || snap.Stops[0].Role != models.RoleOrigin {
		t.Fatalf("expected origin-only stops, got %v", snap.Stops)
	}
}

func TestCancelAfterSubmitIsTerminal(t *testing.T) {
	w, _ := newTestWorkflow(t)
	ctx := context.Background()
	_ = w.SetOrigin(origin())
	_ = w.SetDestination(stadium())
	_ = w.SelectOption("1", 0)
	_ = w.Submit(ctx)
	if err := w.Cancel(ctx); err != nil {
		t.Fatal(err)
	}
	if w.State() != StateCancelled || !w.State().Terminal() {
		t.Fatalf("expected terminal cancelled, got %s", w.State())
	}
	if err := w.SetDestination(stadium()); !errors.Is(err, models.ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState after terminal, got %v", err)
	}
}

func TestOriginChangeInvalidatesOption(t *testing.T) {
	w, _ := newTestWorkflow(t)
	_ = w.SetOrigin(origin())
	_ = w.SetDestination(stadium())
	_ = w.SelectOption("1", 0)
	if err := w.SetOrigin(models.Place{Name: "Dorms", Coord: models.Coordinate{Lat: 34.01, Lon: -81.01}}); err != nil {
		t.Fatal(err)
	}
	if w.State() != StateDestinationSet {
		t.Fatalf("expected option invalidated, got %s", w.State())
	}
	if _, ok := w.Request(); ok {
		t.Fatal("draft request should be dropped with the option")
	}
}

func TestSetDestinationAfterSubmit(t *testing.T) {
	w, _ := newTestWorkflow(t)
	ctx := context.Background()
	_ = w.SetOrigin(origin())
	_ = w.SetDestination(stadium())
	_ = w.SelectOption("1", 0)
	_ = w.Submit(ctx)
	if err := w.SetDestination(origin()); !errors.Is(err, models.ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState, got %v", err)
	}
}

func TestSubmitStoreFailureKeepsLocalState(t *testing.T) {
	store := storage.NewMemoryStore()
	w := NewWorkflow("rider-1", Deps{Catalog: catalog.Default(), Store: &failStore{RideStore: store, fail: true}})
	ctx := context.Background()
	_ = w.SetOrigin(origin())
	_ = w.SetDestination(stadium())
	_ = w.SelectOption("1", 0)
	err := w.Submit(ctx)
	if !errors.Is(err, models.ErrExternalUnavailable) {
		t.Fatalf("expected ErrExternalUnavailable, got %v", err)
	}
	if w.State() != StateAwaitingPayment {
		t.Fatalf("local state must not roll back, got %s", w.State())
	}
}

func TestWaypointFlow(t *testing.T) {
	w, _ := newTestWorkflow(t)
	_ = w.SetOrigin(origin())
	if err := w.AddWaypoint(stadium()); !errors.Is(err, models.ErrPreconditionFailed) {
		t.Fatalf("expected ErrPreconditionFailed, got %v", err)
	}
	_ = w.SetDestination(stadium())
	if err := w.AddWaypoint(models.Place{Name: "5 Points", Coord: models.Coordinate{Lat: 33.99, Lon: -81.02}}); err != nil {
		t.Fatal(err)
	}
	snap := w.Snapshot()
	if len(snap.Stops) != 3 || snap.Stops[1].Role != models.RoleWaypoint {
		t.Fatalf("unexpected stops: %v", snap.Stops)
	}
}
