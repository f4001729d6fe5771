package geocode

import (
	"context"
	"fmt"
	"strings"

	"github.com/example/saferides/internal/models"
	"github.com/example/saferides/internal/observability"
)

// Curated campus suggestions shown before the rider has typed enough for a
// real lookup. Order matters for display.
var campusSuggestions = []models.Suggestion{
	{Name: "Williams Brice Stadium", Coord: models.Coordinate{Lat: 33.9730, Lon: -81.0190}},
	{Name: "5 Points", Coord: models.Coordinate{Lat: 33.9986, Lon: -81.0250}},
	{Name: "Vista", Coord: models.Coordinate{Lat: 33.9993, Lon: -81.0430}},
}

const minQueryLen = 2

// Resolver turns free text or a tapped suggestion into a Place. A failed
// resolution is a no-op: no state is kept between calls.
type Resolver struct {
	geocoder Geocoder
	cache    SuggestionCache
}

func NewResolver(g Geocoder, cache SuggestionCache) *Resolver {
	return &Resolver{geocoder: g, cache: cache}
}

// Suggest returns autocomplete candidates for the given text. Short queries
// get the curated campus list without touching the collaborator.
func (r *Resolver) Suggest(ctx context.Context, text string) ([]models.Suggestion, error) {
	text = strings.TrimSpace(text)
	if len(text) < minQueryLen {
		observability.GeocodeLookups.WithLabelValues("curated").Inc()
		return append([]models.Suggestion(nil), campusSuggestions...), nil
	}
	if r.cache != nil {
		if s, ok := r.cache.Get(text); ok {
			observability.GeocodeLookups.WithLabelValues("cache").Inc()
			return s, nil
		}
	}
	if r.geocoder == nil {
		return nil, fmt.Errorf("%w: no geocoder configured", models.ErrExternalUnavailable)
	}
	s, err := r.geocoder.Autocomplete(ctx, text)
	if err != nil {
		return nil, err
	}
	observability.GeocodeLookups.WithLabelValues("remote").Inc()
	if r.cache != nil {
		r.cache.Set(text, s)
	}
	return s, nil
}

// ResolveQuery forwards free text to the geocoder and returns the best match.
func (r *Resolver) ResolveQuery(ctx context.Context, text string) (models.Place, error) {
	s, err := r.Suggest(ctx, text)
	if err != nil {
		return models.Place{}, err
	}
	if len(s) == 0 {
		return models.Place{}, fmt.Errorf("%w: no match for %q", models.ErrNotFound, text)
	}
	return placeFrom(s[0])
}

// ResolveSuggestion accepts a pre-resolved suggestion; no round trip needed.
func (r *Resolver) ResolveSuggestion(s models.Suggestion) (models.Place, error) {
	return placeFrom(s)
}

func placeFrom(s models.Suggestion) (models.Place, error) {
	if strings.TrimSpace(s.Name) == "" {
		return models.Place{}, fmt.Errorf("%w: suggestion has no name", models.ErrNotFound)
	}
	return models.Place{Name: s.Name, Address: s.Address, Coord: s.Coord}, nil
}
