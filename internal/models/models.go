package models

import "time"

// Coordinate is an immutable lat/lon pair.
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Place is a resolved location: a display name, an optional street address,
// and the coordinate the geocoder returned for it.
type Place struct {
	Name    string     `json:"name"`
	Address string     `json:"address,omitempty"`
	Coord   Coordinate `json:"coord"`
}

type StopRole string

const (
	RoleOrigin      StopRole = "origin"
	RoleWaypoint    StopRole = "waypoint"
	RoleDestination StopRole = "destination"
)

type Stop struct {
	Place Place    `json:"place"`
	Role  StopRole `json:"role"`
}

type PricingRule string

const (
	PricingFlat       PricingRule = "flat"
	PricingRiderNamed PricingRule = "rider_named"
)

// RideOption is one entry of the static product catalog. AmountCents is the
// flat fare for PricingFlat options and zero for rider-named pricing until
// the rider supplies an amount.
type RideOption struct {
	ID          string      `json:"id"`
	Title       string      `json:"title"`
	Pricing     PricingRule `json:"pricing"`
	AmountCents int64       `json:"amount_cents,omitempty"`
	Description string      `json:"description"`
}

type RequestStatus string

const (
	RequestDraft           RequestStatus = "draft"
	RequestSubmitted       RequestStatus = "submitted"
	RequestAwaitingPayment RequestStatus = "awaiting_payment"
	RequestPaymentSelected RequestStatus = "payment_selected"
	RequestCancelled       RequestStatus = "cancelled"
)

type PaymentMethod string

const (
	PayCard     PaymentMethod = "card"
	PayApplePay PaymentMethod = "applepay"
	PayVenmo    PaymentMethod = "venmo"
	PaySplit    PaymentMethod = "split"
)

// SplitShare assigns one participant's portion of a split payment.
type SplitShare struct {
	Participant string `json:"participant"`
	AmountCents int64  `json:"amount_cents"`
}

// RideRequest is the in-flight record of one rider's progress from option
// selection through payment. TotalCents is zero until resolved (flat options
// resolve at selection, rider-named once the rider supplies a price).
type RideRequest struct {
	ID            string        `json:"id"`
	RiderID       string        `json:"rider_id"`
	Stops         []Stop        `json:"stops"`
	OptionID      string        `json:"option_id"`
	RequestedAt   time.Time     `json:"requested_at"`
	ScheduledFor  *time.Time    `json:"scheduled_for,omitempty"`
	Status        RequestStatus `json:"status"`
	TotalCents    int64         `json:"total_cents"`
	PaymentMethod PaymentMethod `json:"payment_method,omitempty"`
	Shares        []SplitShare  `json:"shares,omitempty"`
	HoldID        string        `json:"hold_id,omitempty"`
}

type ScheduleStatus string

const (
	ScheduleUpcoming  ScheduleStatus = "upcoming"
	ScheduleCancelled ScheduleStatus = "cancelled"
	ScheduleCompleted ScheduleStatus = "completed"
)

// ScheduledRide is a future-dated ride intent, independent of the immediate
// request flow. It is never deleted; cancellation flips the status.
type ScheduledRide struct {
	ID             string         `json:"id"`
	RiderID        string         `json:"rider_id"`
	Destination    Place          `json:"destination"`
	ScheduledFor   time.Time      `json:"scheduled_for"`
	Status         ScheduleStatus `json:"status"`
	NotificationID string         `json:"notification_id,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
}

// Suggestion is one autocomplete candidate. It already carries a coordinate,
// so resolving a tapped suggestion needs no further round trip.
type Suggestion struct {
	Name    string     `json:"name"`
	Address string     `json:"address,omitempty"`
	Coord   Coordinate `json:"coord"`
}

// Address is a reverse-geocode result.
type Address struct {
	Street string `json:"street"`
	City   string `json:"city"`
}
