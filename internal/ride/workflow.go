package ride

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/example/saferides/internal/catalog"
	"github.com/example/saferides/internal/itinerary"
	"github.com/example/saferides/internal/models"
	"github.com/example/saferides/internal/observability"
	"github.com/example/saferides/internal/payments"
	"github.com/example/saferides/internal/storage"
)

// Publisher emits workflow events to the event stream.
type Publisher interface {
	Publish(ctx context.Context, key string, v any) error
}

// Workflow owns at most one in-flight ride request for a rider session and
// sequences search -> itinerary-complete -> option-selected -> submitted ->
// payment. Transitions run to completion under the lock; validation failures
// leave every entity untouched.
type Workflow struct {
	mu      sync.Mutex
	riderID string
	itin    *itinerary.Builder
	catalog *catalog.Catalog
	store   storage.RideStore
	events  Publisher
	cards   payments.CardHolder
	logger  *slog.Logger
	now     func() time.Time

	// OnChange, when set, is invoked after every applied transition with
	// the event name and the current request (nil before option selection).
	OnChange func(event string, r *models.RideRequest)

	state        State
	current      *models.RideRequest
	costResolved bool
}

type Deps struct {
	Catalog *catalog.Catalog
	Store   storage.RideStore
	Events  Publisher
	Cards   payments.CardHolder
	Logger  *slog.Logger
	Now     func() time.Time
}

func NewWorkflow(riderID string, d Deps) *Workflow {
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	return &Workflow{
		riderID: riderID,
		itin:    itinerary.NewBuilder(),
		catalog: d.Catalog,
		store:   d.Store,
		events:  d.Events,
		cards:   d.Cards,
		logger:  d.Logger,
		now:     d.Now,
		state:   StateNoDestination,
	}
}

// SetOrigin replaces the origin stop. A previously selected option is
// invalidated because its cost may depend on the origin.
func (w *Workflow) SetOrigin(p models.Place) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state == StateSubmitted || w.state == StateAwaitingPayment || w.state.Terminal() {
		return fmt.Errorf("%w: cannot change origin in state %s", models.ErrInvalidState, w.state)
	}
	if err := w.itin.SetOrigin(p); err != nil {
		return err
	}
	if w.state == StateOptionSelected {
		w.dropSelection()
	}
	w.fire("origin_set")
	return nil
}

// SetDestination sets or replaces the destination. Only a draft request
// permits it; replacing the destination drops any selected option.
func (w *Workflow) SetDestination(p models.Place) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.current != nil && w.current.Status != models.RequestDraft {
		return fmt.Errorf("%w: request already %s", models.ErrInvalidState, w.current.Status)
	}
	if !w.state.canTransitionTo(StateDestinationSet) && w.state != StateNoDestination {
		return fmt.Errorf("%w: cannot set destination in state %s", models.ErrInvalidState, w.state)
	}
	if err := w.itin.SetDestination(p); err != nil {
		return err
	}
	w.dropSelection()
	w.state = StateDestinationSet
	w.fire("destination_set")
	return nil
}

// AddWaypoint appends a stop before the destination.
func (w *Workflow) AddWaypoint(p models.Place) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state == StateSubmitted || w.state == StateAwaitingPayment || w.state.Terminal() {
		return fmt.Errorf("%w: cannot add stops in state %s", models.ErrInvalidState, w.state)
	}
	if err := w.itin.AddWaypoint(p); err != nil {
		return err
	}
	if w.current != nil {
		w.current.Stops = w.itin.Stops()
	}
	w.fire("waypoint_added")
	return nil
}

// SelectOption picks a product from the catalog on a complete itinerary.
// riderAmountCents seeds rider-named pricing and is ignored for flat rates;
// pass zero to leave a rider-named price unresolved.
func (w *Workflow) SelectOption(optionID string, riderAmountCents int64) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state != StateDestinationSet && w.state != StateOptionSelected {
		return fmt.Errorf("%w: cannot select option in state %s", models.ErrInvalidState, w.state)
	}
	if !w.itin.IsComplete() {
		return fmt.Errorf("%w: itinerary incomplete", models.ErrPreconditionFailed)
	}
	opt, err := w.catalog.FindByID(optionID)
	if err != nil {
		return err
	}
	var total int64
	resolved := false
	switch opt.Pricing {
	case models.PricingFlat:
		total = opt.AmountCents
		resolved = true
	case models.PricingRiderNamed:
		if riderAmountCents < 0 {
			return fmt.Errorf("%w: rider price must be > 0", models.ErrInvalidAmount)
		}
		if riderAmountCents > 0 {
			total = riderAmountCents
			resolved = true
		}
	}
	w.current = &models.RideRequest{
		ID:          uuid.NewString(),
		RiderID:     w.riderID,
		Stops:       w.itin.Stops(),
		OptionID:    opt.ID,
		RequestedAt: w.now(),
		Status:      models.RequestDraft,
		TotalCents:  total,
	}
	w.costResolved = resolved
	w.state = StateOptionSelected
	w.fire("option_selected")
	return nil
}

// NamePrice resolves a rider-named price on the selected option.
func (w *Workflow) NamePrice(amountCents int64) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state != StateOptionSelected {
		return fmt.Errorf("%w: no option selected", models.ErrInvalidState)
	}
	opt, err := w.catalog.FindByID(w.current.OptionID)
	if err != nil {
		return err
	}
	if opt.Pricing != models.PricingRiderNamed {
		return fmt.Errorf("%w: option %s has a flat rate", models.ErrInvalidState, opt.ID)
	}
	if amountCents <= 0 {
		return fmt.Errorf("%w: rider price must be > 0", models.ErrInvalidAmount)
	}
	w.current.TotalCents = amountCents
	w.costResolved = true
	w.fire("price_named")
	return nil
}

// Submit moves the draft to awaiting-payment and persists it. A store or
// event-stream failure is reported to the caller but does not roll the local
// state back; the request stays submitted and the caller may retry surfacing.
func (w *Workflow) Submit(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state != StateOptionSelected {
		return fmt.Errorf("%w: cannot submit in state %s", models.ErrInvalidState, w.state)
	}
	if !w.costResolved {
		return fmt.Errorf("%w: total cost unresolved", models.ErrInvalidState)
	}

	w.current.Status = models.RequestSubmitted
	w.state = StateSubmitted
	// awaiting payment follows submission immediately
	w.current.Status = models.RequestAwaitingPayment
	w.state = StateAwaitingPayment
	observability.RideSubmissionsTotal.Inc()
	w.fire("submitted")

	var firstErr error
	if err := w.store.SaveRide(ctx, w.current); err != nil {
		w.logger.Error("ride save failed", "ride_id", w.current.ID, "error", err)
		firstErr = fmt.Errorf("%w: %v", models.ErrExternalUnavailable, err)
	}
	if w.events != nil {
		if err := w.events.Publish(ctx, w.riderID, w.current); err != nil {
			w.logger.Error("ride event publish failed", "ride_id", w.current.ID, "error", err)
			if firstErr == nil {
				firstErr = fmt.Errorf("%w: %v", models.ErrExternalUnavailable, err)
			}
		}
	}
	return firstErr
}

// SelectPayment records the chosen payment method and terminates the
// workflow on success. Split shares must apportion the exact total.
func (w *Workflow) SelectPayment(ctx context.Context, method string, shares []models.SplitShare) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state != StateAwaitingPayment {
		return fmt.Errorf("%w: cannot select payment in state %s", models.ErrInvalidState, w.state)
	}
	m, err := payments.ParseMethod(method)
	if err != nil {
		return err
	}
	if m == models.PaySplit {
		if err := payments.ValidateSplit(w.current.TotalCents, shares); err != nil {
			return err
		}
		w.current.Shares = append([]models.SplitShare(nil), shares...)
	}
	if m == models.PayCard && w.cards != nil {
		holdID, err := w.cards.Hold(ctx, w.current.TotalCents, "usd", w.riderID)
		if err != nil {
			// hold is best-effort at selection time; capture happens later
			w.logger.Warn("card hold failed", "ride_id", w.current.ID, "error", err)
		} else {
			w.current.HoldID = holdID
		}
	}
	w.current.PaymentMethod = m
	w.current.Status = models.RequestPaymentSelected
	w.state = StatePaymentSelected
	w.fire("payment_selected")
	if err := w.store.UpdateRide(ctx, w.current); err != nil {
		w.logger.Error("ride update failed", "ride_id", w.current.ID, "error", err)
		return fmt.Errorf("%w: %v", models.ErrExternalUnavailable, err)
	}
	return nil
}

// Cancel is rider-initiated. Before submission it clears the destination and
// any selected option; after submission it terminates the request.
func (w *Workflow) Cancel(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	switch w.state {
	case StateDestinationSet, StateOptionSelected:
		w.itin.ClearDestination()
		w.dropSelection()
		w.state = StateNoDestination
		w.fire("selection_cleared")
		return nil
	case StateAwaitingPayment:
		w.current.Status = models.RequestCancelled
		w.state = StateCancelled
		observability.RideCancelsTotal.Inc()
		w.fire("cancelled")
		if err := w.store.UpdateRide(ctx, w.current); err != nil {
			w.logger.Error("ride update failed", "ride_id", w.current.ID, "error", err)
			return fmt.Errorf("%w: %v", models.ErrExternalUnavailable, err)
		}
		return nil
	default:
		return fmt.Errorf("%w: cannot cancel in state %s", models.ErrInvalidState, w.state)
	}
}

// Snapshot is a read-only view of the workflow for API responses.
type Snapshot struct {
	State   State               `json:"state"`
	Stops   []models.Stop       `json:"stops"`
	Request *models.RideRequest `json:"request,omitempty"`
}

func (w *Workflow) Snapshot() Snapshot {
	w.mu.Lock()
	defer w.mu.Unlock()
	s := Snapshot{State: w.state, Stops: w.itin.Stops()}
	if w.current != nil {
		cp := *w.current
		s.Request = &cp
	}
	return s
}

func (w *Workflow) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

// Request returns a copy of the in-flight request, if any.
func (w *Workflow) Request() (models.RideRequest, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.current == nil {
		return models.RideRequest{}, false
	}
	return *w.current, true
}

func (w *Workflow) dropSelection() {
	w.current = nil
	w.costResolved = false
	if w.state == StateOptionSelected {
		w.state = StateDestinationSet
	}
}

// fire runs the change hook outside error paths; callers hold the lock.
func (w *Workflow) fire(event string) {
	if w.OnChange != nil {
		var cp *models.RideRequest
		if w.current != nil {
			c := *w.current
			cp = &c
		}
		w.OnChange(event, cp)
	}
}
