package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/example/saferides/internal/models"
)

// Geocoder is the external places collaborator. Implementations forward text
// verbatim; retry and timeout policy belong to the collaborator, not to us.
type Geocoder interface {
	Autocomplete(ctx context.Context, text string) ([]models.Suggestion, error)
	ReverseGeocode(ctx context.Context, c models.Coordinate) (models.Address, error)
}

// HTTPGeocoder talks to a Nominatim-style search endpoint.
type HTTPGeocoder struct {
	Endpoint string
	Client   *http.Client
}

func NewHTTPGeocoder(endpoint string) *HTTPGeocoder {
	return &HTTPGeocoder{Endpoint: endpoint, Client: &http.Client{Timeout: 2 * time.Second}}
}

type searchResult struct {
	DisplayName string `json:"display_name"`
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
}

func (g *HTTPGeocoder) Autocomplete(ctx context.Context, text string) ([]models.Suggestion, error) {
	u := fmt.Sprintf("%s/search?format=json&limit=5&q=%s", g.Endpoint, url.QueryEscape(text))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	resp, err := g.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrExternalUnavailable, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: geocoder status %d", models.ErrExternalUnavailable, resp.StatusCode)
	}
	var results []searchResult
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrExternalUnavailable, err)
	}
	out := make([]models.Suggestion, 0, len(results))
	for _, r := range results {
		lat, errLat := strconv.ParseFloat(r.Lat, 64)
		lon, errLon := strconv.ParseFloat(r.Lon, 64)
		if errLat != nil || errLon != nil || r.DisplayName == "" {
			continue
		}
		out = append(out, models.Suggestion{
			Name:  r.DisplayName,
			Coord: models.Coordinate{Lat: lat, Lon: lon},
		})
	}
	return out, nil
}

func (g *HTTPGeocoder) ReverseGeocode(ctx context.Context, c models.Coordinate) (models.Address, error) {
	u := fmt.Sprintf("%s/reverse?format=json&lat=%.6f&lon=%.6f", g.Endpoint, c.Lat, c.Lon)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return models.Address{}, err
	}
	resp, err := g.Client.Do(req)
	if err != nil {
		return models.Address{}, fmt.Errorf("%w: %v", models.ErrExternalUnavailable, err)
	}
	defer resp.Body.Close()
	var out struct {
		Address struct {
			Road string `json:"road"`
			City string `json:"city"`
			Town string `json:"town"`
		} `json:"address"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return models.Address{}, fmt.Errorf("%w: %v", models.ErrExternalUnavailable, err)
	}
	city := out.Address.City
	if city == "" {
		city = out.Address.Town
	}
	return models.Address{Street: out.Address.Road, City: city}, nil
}
