package ride

// State is the workflow position of the current ride request.
type State string

const (
	StateNoDestination   State = "no_destination"
	StateDestinationSet  State = "destination_set"
	StateOptionSelected  State = "option_selected"
	StateSubmitted       State = "submitted"
	StateAwaitingPayment State = "awaiting_payment"
	StatePaymentSelected State = "payment_selected"
	StateCancelled       State = "cancelled"
)

// validTransitions is the state machine. Terminal states have empty slices.
// Submitted advances to AwaitingPayment immediately on submit; it exists as
// a distinct state so the persisted record and the wire events can carry it.
var validTransitions = map[State][]State{
	StateNoDestination:   {StateDestinationSet},
	StateDestinationSet:  {StateOptionSelected, StateNoDestination, StateDestinationSet},
	StateOptionSelected:  {StateSubmitted, StateNoDestination, StateDestinationSet, StateOptionSelected},
	StateSubmitted:       {StateAwaitingPayment},
	StateAwaitingPayment: {StatePaymentSelected, StateCancelled},
	StatePaymentSelected: {},
	StateCancelled:       {},
}

func (s State) canTransitionTo(next State) bool {
	for _, t := range validTransitions[s] {
		if t == next {
			return true
		}
	}
	return false
}

// Terminal reports whether the workflow must be replaced by a fresh one
// before another ride can be requested.
func (s State) Terminal() bool {
	return len(validTransitions[s]) == 0
}
