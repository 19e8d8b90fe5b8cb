// internal/services/payment_stripe.go
package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v74"
	"github.com/stripe/stripe-go/v74/paymentintent"
	"github.com/stripe/stripe-go/v74/refund"

	"github.com/ledrent/ledrent-backend/internal/models"
)

type StripeGateway struct {
	intents paymentintent.Client
	refunds refund.Client
}

func NewStripeGateway(secretKey string) *StripeGateway {
	backend := stripe.GetBackend(stripe.APIBackend)
	return &StripeGateway{
		intents: paymentintent.Client{B: backend, Key: secretKey},
		refunds: refund.Client{B: backend, Key: secretKey},
	}
}

func (g *StripeGateway) Name() models.PaymentProvider {
	return models.PaymentProviderStripe
}

func (g *StripeGateway) CreateCharge(ctx context.Context, req *ChargeRequest) (*ChargeResult, error) {
	params := &stripe.PaymentIntentParams{
		Amount:      stripe.Int64(minorUnits(req.Amount)),
		Currency:    stripe.String(strings.ToLower(req.Currency)),
		Description: stripe.String(req.Description),
	}
	params.Context = ctx
	params.AddMetadata("reference", req.Reference)
	for k, v := range req.Metadata {
		params.AddMetadata(k, v)
	}
	if req.Email != "" {
		params.ReceiptEmail = stripe.String(req.Email)
	}

	pi, err := g.intents.New(params)
	if err != nil {
		return nil, fmt.Errorf("failed to create payment intent: %w", err)
	}

	return &ChargeResult{
		Reference:    pi.ID,
		ClientSecret: pi.ClientSecret,
	}, nil
}

func (g *StripeGateway) VerifyCharge(ctx context.Context, reference string) (models.PaymentStatus, error) {
	params := &stripe.PaymentIntentParams{}
	params.Context = ctx

	pi, err := g.intents.Get(reference, params)
	if err != nil {
		return "", fmt.Errorf("failed to get payment intent: %w", err)
	}
	return stripeStatus(pi.Status), nil
}

func (g *StripeGateway) Refund(ctx context.Context, reference string, amount decimal.Decimal, reason string) error {
	params := &stripe.RefundParams{
		PaymentIntent: stripe.String(reference),
		Amount:        stripe.Int64(minorUnits(amount)),
		Reason:        stripe.String(string(stripe.RefundReasonRequestedByCustomer)),
	}
	params.Context = ctx
	if reason != "" {
		params.AddMetadata("reason", reason)
	}

	if _, err := g.refunds.New(params); err != nil {
		return fmt.Errorf("failed to process refund: %w", err)
	}
	return nil
}

func stripeStatus(status stripe.PaymentIntentStatus) models.PaymentStatus {
	switch status {
	case stripe.PaymentIntentStatusSucceeded:
		return models.PaymentStatusSucceeded
	case stripe.PaymentIntentStatusCanceled:
		return models.PaymentStatusFailed
	default:
		return models.PaymentStatusPending
	}
}

// minorUnits converts an amount to cents.
func minorUnits(amount decimal.Decimal) int64 {
	return amount.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}
