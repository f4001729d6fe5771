package catalog

import (
	"fmt"

	"github.com/example/saferides/internal/models"
)

// Catalog is the static, ordered list of selectable ride products. Fixed at
// start; the order is significant for display.
type Catalog struct {
	options []models.RideOption
	byID    map[string]models.RideOption
}

func New(options []models.RideOption) *Catalog {
	c := &Catalog{
		options: append([]models.RideOption(nil), options...),
		byID:    make(map[string]models.RideOption, len(options)),
	}
	for _, o := range options {
		c.byID[o.ID] = o
	}
	return c
}

// Default returns the production catalog.
func Default() *Catalog {
	return New([]models.RideOption{
		{ID: "1", Title: "Safe Ride", Pricing: models.PricingFlat, AmountCents: 1000, Description: "Get to a location for flat rate"},
		{ID: "2", Title: "Safe Ride (Female Driver)", Pricing: models.PricingFlat, AmountCents: 1000, Description: "SafeRide only for women and by women"},
		{ID: "3", Title: "Safe Ride (Name your price)", Pricing: models.PricingRiderNamed, Description: "Rider chooses price"},
		{ID: "4", Title: "Charlotte Airport", Pricing: models.PricingFlat, AmountCents: 15000, Description: "Flat rate to CLT Airport"},
	})
}

// List returns the catalog in display order.
func (c *Catalog) List() []models.RideOption {
	return append([]models.RideOption(nil), c.options...)
}

func (c *Catalog) FindByID(id string) (models.RideOption, error) {
	o, ok := c.byID[id]
	if !ok {
		return models.RideOption{}, fmt.Errorf("%w: ride option %q", models.ErrNotFound, id)
	}
	return o, nil
}
