package itinerary

import (
	"fmt"
	"strings"

	"github.com/example/saferides/internal/models"
)

// Builder maintains the ordered stop sequence for one ride: origin first,
// waypoints in insertion order, destination last. At most one origin and one
// destination exist at any time. The builder is not goroutine safe; the
// owning workflow serializes access.
type Builder struct {
	origin      *models.Place
	waypoints   []models.Place
	destination *models.Place
}

func NewBuilder() *Builder { return &Builder{} }

// SetOrigin replaces the origin unconditionally.
func (b *Builder) SetOrigin(p models.Place) error {
	if err := checkPlace(p); err != nil {
		return err
	}
	cp := p
	b.origin = &cp
	return nil
}

// SetDestination sets or replaces the destination.
func (b *Builder) SetDestination(p models.Place) error {
	if err := checkPlace(p); err != nil {
		return err
	}
	cp := p
	b.destination = &cp
	return nil
}

// ClearDestination drops the destination and every waypoint, returning the
// itinerary to origin-only.
func (b *Builder) ClearDestination() {
	b.destination = nil
	b.waypoints = nil
}

// AddWaypoint appends a stop immediately before the destination. An
// itinerary without a destination cannot take waypoints.
func (b *Builder) AddWaypoint(p models.Place) error {
	if err := checkPlace(p); err != nil {
		return err
	}
	if b.destination == nil {
		return fmt.Errorf("%w: no destination set", models.ErrPreconditionFailed)
	}
	b.waypoints = append(b.waypoints, p)
	return nil
}

// IsComplete reports whether both origin and destination are present.
func (b *Builder) IsComplete() bool {
	return b.origin != nil && b.destination != nil
}

// Stops returns the current sequence in travel order.
func (b *Builder) Stops() []models.Stop {
	out := make([]models.Stop, 0, len(b.waypoints)+2)
	if b.origin != nil {
		out = append(out, models.Stop{Place: *b.origin, Role: models.RoleOrigin})
	}
	for _, w := range b.waypoints {
		out = append(out, models.Stop{Place: w, Role: models.RoleWaypoint})
	}
	if b.destination != nil {
		out = append(out, models.Stop{Place: *b.destination, Role: models.RoleDestination})
	}
	return out
}

func (b *Builder) Origin() (models.Place, bool) {
	if b.origin == nil {
		return models.Place{}, false
	}
	return *b.origin, true
}

func (b *Builder) Destination() (models.Place, bool) {
	if b.destination == nil {
		return models.Place{}, false
	}
	return *b.destination, true
}

func checkPlace(p models.Place) error {
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("%w: place name is empty", models.ErrPreconditionFailed)
	}
	return nil
}
