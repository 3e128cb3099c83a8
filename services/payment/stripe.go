package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/paymentintent"
	"github.com/stripe/stripe-go/v76/refund"
	"github.com/stripe/stripe-go/v76/transfer"
	"github.com/stripe/stripe-go/v76/webhook"
)

// StripeProcessor talks to Stripe through the package-level stripe.Key.
type StripeProcessor struct {
	webhookSecret string
}

// NewProcessor picks Stripe when a key is configured and the stub otherwise.
// Production without a key is an error.
func NewProcessor(apiKey, webhookSecret string, production bool) (Processor, error) {
	if apiKey != "" {
		return NewStripeProcessor(apiKey, webhookSecret), nil
	}
	if production {
		return nil, errors.New("STRIPE_KEY is required in production")
	}
	return NewStubProcessor(), nil
}

func NewStripeProcessor(apiKey, webhookSecret string) *StripeProcessor {
	stripe.Key = apiKey
	return &StripeProcessor{webhookSecret: webhookSecret}
}

func (p *StripeProcessor) CreateCharge(ctx context.Context, req ChargeRequest) (*Charge, error) {
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(toMinorUnits(req.Amount)),
		Currency: stripe.String(req.Currency),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	params.Context = ctx
	params.AddMetadata("booking_id", req.BookingID)
	if req.IdempotencyKey != "" {
		params.SetIdempotencyKey(req.IdempotencyKey)
	}

	pi, err := paymentintent.New(params)
	if err != nil {
		return nil, fmt.Errorf("stripe: create payment intent for booking %s: %w", req.BookingID, err)
	}
	return chargeFromIntent(pi), nil
}

func (p *StripeProcessor) GetCharge(ctx context.Context, chargeID string) (*Charge, error) {
	params := &stripe.PaymentIntentParams{}
	params.Context = ctx

	pi, err := paymentintent.Get(chargeID, params)
	if err != nil {
		return nil, fmt.Errorf("stripe: get payment intent %s: %w", chargeID, err)
	}
	return chargeFromIntent(pi), nil
}

func (p *StripeProcessor) Transfer(ctx context.Context, req TransferRequest) (string, error) {
	params := &stripe.TransferParams{
		Amount:        stripe.Int64(toMinorUnits(req.Amount)),
		Currency:      stripe.String(req.Currency),
		Destination:   stripe.String(req.Destination),
		TransferGroup: stripe.String("booking-" + req.BookingID),
	}
	params.Context = ctx
	params.AddMetadata("booking_id", req.BookingID)
	if req.IdempotencyKey != "" {
		params.SetIdempotencyKey(req.IdempotencyKey)
	}

	t, err := transfer.New(params)
	if err != nil {
		return "", fmt.Errorf("stripe: transfer for booking %s: %w", req.BookingID, err)
	}
	return t.ID, nil
}

func (p *StripeProcessor) Refund(ctx context.Context, req RefundRequest) (*Refund, error) {
	params := &stripe.RefundParams{
		PaymentIntent: stripe.String(req.ChargeID),
		Amount:        stripe.Int64(toMinorUnits(req.Amount)),
		Reason:        stripe.String(string(stripe.RefundReasonRequestedByCustomer)),
	}
	params.Context = ctx
	if req.Reason != "" {
		params.AddMetadata("cancel_reason", req.Reason)
	}
	params.SetIdempotencyKey("refund-" + req.ChargeID)

	r, err := refund.New(params)
	if err != nil {
		return nil, fmt.Errorf("stripe: refund %s: %w", req.ChargeID, err)
	}
	return &Refund{ID: r.ID, Amount: fromMinorUnits(r.Amount), Status: string(r.Status)}, nil
}

func (p *StripeProcessor) ParseWebhook(payload []byte, signature string) (*Event, error) {
	evt, err := webhook.ConstructEventWithOptions(payload, signature, p.webhookSecret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return nil, fmt.Errorf("stripe: invalid webhook: %w", err)
	}

	out := &Event{ID: evt.ID, Type: EventType(evt.Type)}
	switch out.Type {
	case EventChargeSucceeded, EventChargeFailed:
		var pi stripe.PaymentIntent
		if err := json.Unmarshal(evt.Data.Raw, &pi); err != nil {
			return nil, fmt.Errorf("stripe: decode payment intent in event %s: %w", evt.ID, err)
		}
		out.Charge = chargeFromIntent(&pi)
	}
	return out, nil
}

func chargeFromIntent(pi *stripe.PaymentIntent) *Charge {
	c := &Charge{
		ID:           pi.ID,
		BookingID:    pi.Metadata["booking_id"],
		Amount:       fromMinorUnits(pi.Amount),
		Currency:     string(pi.Currency),
		ClientSecret: pi.ClientSecret,
	}
	switch pi.Status {
	case stripe.PaymentIntentStatusSucceeded:
		c.Status = ChargeSucceeded
	case stripe.PaymentIntentStatusCanceled:
		c.Status = ChargeFailed
		c.FailureReason = string(pi.CancellationReason)
	default:
		c.Status = ChargePending
	}
	if pi.LastPaymentError != nil && c.Status != ChargeSucceeded {
		c.FailureReason = pi.LastPaymentError.Msg
		if pi.Status == stripe.PaymentIntentStatusRequiresPaymentMethod {
			c.Status = ChargeFailed
		}
	}
	return c
}
