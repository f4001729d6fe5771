package payments

import (
	"fmt"

	"github.com/example/saferides/internal/models"
)

// ParseMethod validates a rider-supplied payment method string against the
// fixed enumerated set. Card data never passes through this service; we only
// record which method was chosen.
func ParseMethod(s string) (models.PaymentMethod, error) {
	switch models.PaymentMethod(s) {
	case models.PayCard, models.PayApplePay, models.PayVenmo, models.PaySplit:
		return models.PaymentMethod(s), nil
	}
	return "", fmt.Errorf("%w: payment method %q", models.ErrNotFound, s)
}

// ValidateSplit checks a split apportionment: every share positive, named,
// and the shares summing exactly to the total. Zero tolerance on the sum.
func ValidateSplit(totalCents int64, shares []models.SplitShare) error {
	if len(shares) == 0 {
		return fmt.Errorf("%w: split requires at least one participant", models.ErrInvalidAmount)
	}
	var sum int64
	for _, sh := range shares {
		if sh.Participant == "" {
			return fmt.Errorf("%w: split share missing participant", models.ErrInvalidAmount)
		}
		if sh.AmountCents <= 0 {
			return fmt.Errorf("%w: split share for %s must be > 0", models.ErrInvalidAmount, sh.Participant)
		}
		sum += sh.AmountCents
	}
	if sum != totalCents {
		return fmt.Errorf("%w: split shares sum to %d, total is %d", models.ErrInvalidAmount, sum, totalCents)
	}
	return nil
}
