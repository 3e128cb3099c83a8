package payment

import (
	"context"
	"math"
)

type ChargeStatus string

const (
	ChargePending   ChargeStatus = "pending"
	ChargeSucceeded ChargeStatus = "succeeded"
	ChargeFailed    ChargeStatus = "failed"
)

// Charge is the gateway's view of a payment for a booking.
type Charge struct {
	ID           string
	BookingID    string
	Amount       float64
	Currency     string
	Status       ChargeStatus
	ClientSecret string
	// FailureReason is set when Status is ChargeFailed.
	FailureReason string
}

type ChargeRequest struct {
	BookingID      string
	Amount         float64
	Currency       string
	IdempotencyKey string
}

type TransferRequest struct {
	BookingID      string
	Amount         float64
	Currency       string
	Destination    string
	IdempotencyKey string
}

type RefundRequest struct {
	ChargeID string
	Amount   float64
	Reason   string
}

type Refund struct {
	ID     string
	Amount float64
	Status string
}

type EventType string

const (
	EventChargeSucceeded EventType = "payment_intent.succeeded"
	EventChargeFailed    EventType = "payment_intent.payment_failed"
)

// Event is a verified inbound gateway notification.
type Event struct {
	ID     string
	Type   EventType
	Charge *Charge
}

// Processor is the payment gateway: charges, owner payouts and refunds.
type Processor interface {
	CreateCharge(ctx context.Context, req ChargeRequest) (*Charge, error)
	GetCharge(ctx context.Context, chargeID string) (*Charge, error)
	Transfer(ctx context.Context, req TransferRequest) (string, error)
	Refund(ctx context.Context, req RefundRequest) (*Refund, error)
	// ParseWebhook verifies the signature and decodes the event. Unknown
	// event types decode with a nil Charge.
	ParseWebhook(payload []byte, signature string) (*Event, error)
}

// EventLedger remembers which gateway events were processed.
type EventLedger interface {
	// Claim returns false if the event was already claimed.
	Claim(ctx context.Context, eventID string) (bool, error)
	// Release forgets a claim so a redelivery is processed again.
	Release(ctx context.Context, eventID string) error
}

// toMinorUnits converts an amount to the gateway's smallest currency unit.
func toMinorUnits(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

func fromMinorUnits(v int64) float64 {
	return float64(v) / 100
}
