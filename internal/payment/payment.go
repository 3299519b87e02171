// Package payment wraps the Stripe payment-intent API behind a small
// collaborator interface so the registration workflow can be tested without
// the real processor.
package payment

import (
	"context"
	"fmt"
	"strconv"

	"github.com/rs/zerolog"
	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/paymentintent"
	"github.com/stripe/stripe-go/v79/refund"
)

// Intent carries the two fields a registration needs from the processor: the
// stored reference and the client-side secret used to complete the charge.
type Intent struct {
	ID           string
	ClientSecret string
}

type Provider interface {
	CreateIntent(ctx context.Context, amountCents, eventID, userID int64) (*Intent, error)
	// IntentSucceeded re-checks the charge with the processor. Confirmation is
	// never taken on the caller's word alone.
	IntentSucceeded(ctx context.Context, intentID string) (bool, error)
	Refund(ctx context.Context, intentID string) error
}

type StripeProvider struct {
	log *zerolog.Logger
}

func NewStripeProvider(secretKey string, log *zerolog.Logger) *StripeProvider {
	stripe.Key = secretKey
	return &StripeProvider{log: log}
}

func (p *StripeProvider) CreateIntent(ctx context.Context, amountCents, eventID, userID int64) (*Intent, error) {
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(amountCents),
		Currency: stripe.String(string(stripe.CurrencyUSD)),
	}
	params.Context = ctx
	params.AddMetadata("event_id", strconv.FormatInt(eventID, 10))
	params.AddMetadata("user_id", strconv.FormatInt(userID, 10))

	pi, err := paymentintent.New(params)
	if err != nil {
		return nil, fmt.Errorf("create payment intent: %w", err)
	}

	p.log.Info().
		Str("payment_intent_id", pi.ID).
		Int64("amount_cents", amountCents).
		Int64("event_id", eventID).
		Msg("payment intent created")

	return &Intent{ID: pi.ID, ClientSecret: pi.ClientSecret}, nil
}

func (p *StripeProvider) IntentSucceeded(ctx context.Context, intentID string) (bool, error) {
	params := &stripe.PaymentIntentParams{}
	params.Context = ctx
	pi, err := paymentintent.Get(intentID, params)
	if err != nil {
		return false, fmt.Errorf("retrieve payment intent: %w", err)
	}
	return pi.Status == stripe.PaymentIntentStatusSucceeded, nil
}

func (p *StripeProvider) Refund(ctx context.Context, intentID string) error {
	params := &stripe.RefundParams{
		PaymentIntent: stripe.String(intentID),
	}
	params.Context = ctx
	if _, err := refund.New(params); err != nil {
		return fmt.Errorf("create refund: %w", err)
	}
	return nil
}
