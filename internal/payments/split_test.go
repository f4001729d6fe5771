package payments

import (
	"errors"
	"testing"

	"github.com/example/saferides/internal/models"
)

func TestValidateSplitExactSum(t *testing.T) {
	shares := []models.SplitShare{
		{Participant: "amy", AmountCents: 600},
		{Participant: "ben", AmountCents: 400},
	}
	if err := ValidateSplit(1000, shares); err != nil {
		t.Fatalf("expected valid split, got %v", err)
	}
}

func TestValidateSplitMismatch(t *testing.T) {
	shares := []models.SplitShare{
		{Participant: "amy", AmountCents: 600},
		{Participant: "ben", AmountCents: 300},
	}
	if err := ValidateSplit(1000, shares); !errors.Is(err, models.ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
}

func TestValidateSplitNonPositiveShare(t *testing.T) {
	shares := []models.SplitShare{
		{Participant: "amy", AmountCents: 1000},
		{Participant: "ben", AmountCents: 0},
	}
	if err := ValidateSplit(1000, shares); !errors.Is(err, models.ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
}

func TestValidateSplitEmpty(t *testing.T) {
	if err := ValidateSplit(1000, nil); !errors.Is(err, models.ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
}

func TestParseMethod(t *testing.T) {
	for _, m := range []string{"card", "applepay", "venmo", "split"} {
		if _, err := ParseMethod(m); err != nil {
			t.Fatalf("expected %s to parse, got %v", m, err)
		}
	}
	if _, err := ParseMethod("cash"); !errors.Is(err, models.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
