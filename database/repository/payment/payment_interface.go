package paymentRepo

import (
	"context"
	"slices"
	"time"

	"reservelt/models"

	"go.mongodb.org/mongo-driver/bson"
)

// PaymentRepository defines methods for payment data access. Payments are keyed
// by the gateway charge id, which is what makes confirmation idempotent.
type PaymentRepository interface {
	Create(ctx context.Context, payment *models.Payment) error
	GetByChargeID(ctx context.Context, chargeID string) (*models.Payment, error)
	// FindByBooking lists every payment attempt for a booking, newest first.
	FindByBooking(ctx context.Context, bookingID string) ([]models.Payment, error)
	// UpdateIf applies patch while the payment status is one of from.
	UpdateIf(ctx context.Context, chargeID string, from []models.PaymentRecordStatus, patch Patch) (*models.Payment, error)
}

// Patch lists the payment fields a conditional update writes.
type Patch struct {
	Status         *models.PaymentRecordStatus
	FailureReason  *string
	PaidAt         *time.Time
	PayoutStatus   *models.PayoutStatus
	PayoutDate     *time.Time
	PayoutTransfer *string
	RefundID       *string
	RefundAmount   *float64
	RefundReason   *string
	RefundedAt     *time.Time
}

func (p Patch) Apply(pay *models.Payment, now time.Time) {
	if p.Status != nil {
		pay.Status = *p.Status
	}
	if p.FailureReason != nil {
		pay.FailureReason = *p.FailureReason
	}
	if p.PaidAt != nil {
		t := *p.PaidAt
		pay.PaidAt = &t
	}
	if p.PayoutStatus != nil {
		pay.PayoutStatus = *p.PayoutStatus
	}
	if p.PayoutDate != nil {
		t := *p.PayoutDate
		pay.PayoutDate = &t
	}
	if p.PayoutTransfer != nil {
		pay.PayoutTransfer = *p.PayoutTransfer
	}
	if p.RefundID != nil {
		pay.RefundID = *p.RefundID
	}
	if p.RefundAmount != nil {
		pay.RefundAmount = *p.RefundAmount
	}
	if p.RefundReason != nil {
		pay.RefundReason = *p.RefundReason
	}
	if p.RefundedAt != nil {
		t := *p.RefundedAt
		pay.RefundedAt = &t
	}
	pay.UpdatedAt = now
}

func (p Patch) setDocument(now time.Time) bson.M {
	set := bson.M{"updated_at": now}
	if p.Status != nil {
		set["status"] = *p.Status
	}
	if p.FailureReason != nil {
		set["failure_reason"] = *p.FailureReason
	}
	if p.PaidAt != nil {
		set["paid_at"] = *p.PaidAt
	}
	if p.PayoutStatus != nil {
		set["payout_status"] = *p.PayoutStatus
	}
	if p.PayoutDate != nil {
		set["payout_date"] = *p.PayoutDate
	}
	if p.PayoutTransfer != nil {
		set["payout_transfer"] = *p.PayoutTransfer
	}
	if p.RefundID != nil {
		set["refund_id"] = *p.RefundID
	}
	if p.RefundAmount != nil {
		set["refund_amount"] = *p.RefundAmount
	}
	if p.RefundReason != nil {
		set["refund_reason"] = *p.RefundReason
	}
	if p.RefundedAt != nil {
		set["refunded_at"] = *p.RefundedAt
	}
	return set
}

// Successful returns the payment that completed, if any.
func Successful(payments []models.Payment) *models.Payment {
	for i := range payments {
		if slices.Contains([]models.PaymentRecordStatus{models.PaymentRecordCompleted, models.PaymentRecordRefunded}, payments[i].Status) {
			return &payments[i]
		}
	}
	return nil
}
