package payments

import (
	"context"
	"os"

	stripe "github.com/stripe/stripe-go/v74"
	"github.com/stripe/stripe-go/v74/paymentintent"
)

// CardHolder places a hold for a card payment. The workflow calls Hold when
// the rider picks the card method; capture and release happen after the ride,
// driven by backoffice tooling against the Stripe client directly.
type CardHolder interface {
	Hold(ctx context.Context, amountCents int64, currency, customerID string) (string, error)
}

// StripeClient is a thin wrapper around stripe-go for PaymentIntent
// hold/capture/cancel flows.
type StripeClient struct{}

// NewStripeClient initializes the stripe client with the STRIPE_API_KEY env var.
func NewStripeClient() *StripeClient {
	stripe.Key = os.Getenv("STRIPE_API_KEY")
	return &StripeClient{}
}

// Hold creates a PaymentIntent with capture_method=manual to hold funds.
func (s *StripeClient) Hold(ctx context.Context, amountCents int64, currency, customerID string) (string, error) {
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(amountCents),
		Currency: stripe.String(currency),
	}
	if customerID != "" {
		params.Customer = stripe.String(customerID)
	}
	params.CaptureMethod = stripe.String(string(stripe.PaymentIntentCaptureMethodManual))
	pi, err := paymentintent.New(params)
	if err != nil {
		return "", err
	}
	return pi.ID, nil
}

// Capture finalizes a previously-held PaymentIntent.
func (s *StripeClient) Capture(ctx context.Context, holdID string) error {
	_, err := paymentintent.Capture(holdID, nil)
	return err
}

// Release cancels the hold on a PaymentIntent.
func (s *StripeClient) Release(ctx context.Context, holdID string) error {
	_, err := paymentintent.Cancel(holdID, nil)
	return err
}
