package models

import "time"

type PaymentRecordStatus string

const (
	PaymentRecordPending   PaymentRecordStatus = "pending"
	PaymentRecordCompleted PaymentRecordStatus = "completed"
	PaymentRecordFailed    PaymentRecordStatus = "failed"
	PaymentRecordRefunded  PaymentRecordStatus = "refunded"
)

// Payment is the platform-side record of a gateway charge for a booking.
type Payment struct {
	ID            string              `bson:"id" json:"id"`
	BookingID     string              `bson:"booking_id" json:"bookingId"`
	RenterClerkID string              `bson:"renter_clerk_id" json:"renterClerkId"`
	OwnerClerkID  string              `bson:"owner_clerk_id" json:"ownerClerkId"`
	ChargeID      string              `bson:"charge_id" json:"chargeId"`
	Amount        float64             `bson:"amount" json:"amount"`
	Currency      string              `bson:"currency" json:"currency"`
	PlatformFee   float64             `bson:"platform_fee" json:"platformFee"`
	OwnerAmount   float64             `bson:"owner_amount" json:"ownerAmount"`
	Status        PaymentRecordStatus `bson:"status" json:"status"`
	FailureReason string              `bson:"failure_reason,omitempty" json:"failureReason,omitempty"`

	PayoutStatus   PayoutStatus `bson:"payout_status" json:"payoutStatus"`
	PayoutDate     *time.Time   `bson:"payout_date,omitempty" json:"payoutDate,omitempty"`
	PayoutTransfer string       `bson:"payout_transfer,omitempty" json:"payoutTransfer,omitempty"`

	RefundID     string     `bson:"refund_id,omitempty" json:"refundId,omitempty"`
	RefundAmount float64    `bson:"refund_amount,omitempty" json:"refundAmount,omitempty"`
	RefundReason string     `bson:"refund_reason,omitempty" json:"refundReason,omitempty"`
	RefundedAt   *time.Time `bson:"refunded_at,omitempty" json:"refundedAt,omitempty"`

	PaidAt    *time.Time `bson:"paid_at,omitempty" json:"paidAt,omitempty"`
	CreatedAt time.Time  `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time  `bson:"updated_at" json:"updatedAt"`
}
