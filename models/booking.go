package models

import "time"

type BookingStatus string

const (
	BookingRequested      BookingStatus = "requested"
	BookingAccepted       BookingStatus = "accepted"
	BookingRejected       BookingStatus = "rejected"
	BookingPendingPayment BookingStatus = "pending_payment"
	BookingConfirmed      BookingStatus = "confirmed"
	BookingInRental       BookingStatus = "in_rental"
	BookingCancelled      BookingStatus = "cancelled"
	BookingCompleted      BookingStatus = "completed"
)

type PaymentState string

const (
	PaymentUnpaid   PaymentState = "unpaid"
	PaymentPending  PaymentState = "pending"
	PaymentPaid     PaymentState = "paid"
	PaymentRefunded PaymentState = "refunded"
	PaymentFailed   PaymentState = "failed"
)

type PickupStatus string

const (
	PickupPending   PickupStatus = "pending"
	PickupScheduled PickupStatus = "scheduled"
	PickupCompleted PickupStatus = "completed"
)

type DeliveryStatus string

const (
	DeliveryPending        DeliveryStatus = "pending"
	DeliveryOutForDelivery DeliveryStatus = "out_for_delivery"
	DeliveryDelivered      DeliveryStatus = "delivered"
)

type ReturnStatus string

const (
	ReturnPending   ReturnStatus = "pending"
	ReturnScheduled ReturnStatus = "scheduled"
	ReturnCompleted ReturnStatus = "completed"
	ReturnLate      ReturnStatus = "late"
)

type PayoutStatus string

const (
	PayoutPending    PayoutStatus = "pending"
	PayoutProcessing PayoutStatus = "processing"
	PayoutCompleted  PayoutStatus = "completed"
	PayoutFailed     PayoutStatus = "failed"
)

// EscalationFlag names one of the one-way latches the overdue monitor flips.
type EscalationFlag string

const (
	FlagReminderSent EscalationFlag = "reminder_sent"
	FlagDeadlineSent EscalationFlag = "deadline_sent"
	FlagWarningSent  EscalationFlag = "warning_sent"
)

// Booking is a single rental agreement between a renter and an owner.
type Booking struct {
	ID        string `bson:"id" json:"id"`
	ProductID string `bson:"product_id" json:"productId"`

	RenterID      string `bson:"renter_id" json:"renterId"`
	RenterClerkID string `bson:"renter_clerk_id" json:"renterClerkId"`
	OwnerID       string `bson:"owner_id" json:"ownerId"`
	OwnerClerkID  string `bson:"owner_clerk_id" json:"ownerClerkId"`

	StartDate time.Time `bson:"start_date" json:"startDate"`
	EndDate   time.Time `bson:"end_date" json:"endDate"`

	TotalPrice  float64 `bson:"total_price" json:"totalPrice"`
	PlatformFee float64 `bson:"platform_fee" json:"platformFee"`
	OwnerAmount float64 `bson:"owner_amount" json:"ownerAmount"`
	LateFee     float64 `bson:"late_fee" json:"lateFee"`

	Status         BookingStatus  `bson:"status" json:"status"`
	PaymentStatus  PaymentState   `bson:"payment_status" json:"paymentStatus"`
	PickupStatus   PickupStatus   `bson:"pickup_status" json:"pickupStatus"`
	DeliveryStatus DeliveryStatus `bson:"delivery_status" json:"deliveryStatus"`
	ReturnStatus   ReturnStatus   `bson:"return_status" json:"returnStatus"`
	PayoutStatus   PayoutStatus   `bson:"payout_status" json:"payoutStatus"`

	ReminderSent bool `bson:"reminder_sent" json:"reminderSent"`
	DeadlineSent bool `bson:"deadline_sent" json:"deadlineSent"`
	WarningSent  bool `bson:"warning_sent" json:"warningSent"`

	CancelReason   string     `bson:"cancel_reason,omitempty" json:"cancelReason,omitempty"`
	PickupDate     *time.Time `bson:"pickup_date,omitempty" json:"pickupDate,omitempty"`
	DeliveryDate   *time.Time `bson:"delivery_date,omitempty" json:"deliveryDate,omitempty"`
	ReturnDate     *time.Time `bson:"return_date,omitempty" json:"returnDate,omitempty"`
	DropLocation   string     `bson:"drop_location,omitempty" json:"dropLocation,omitempty"`
	PayoutDate     *time.Time `bson:"payout_date,omitempty" json:"payoutDate,omitempty"`
	PayoutTransfer string     `bson:"payout_transfer,omitempty" json:"payoutTransfer,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time `bson:"updated_at" json:"updatedAt"`
}

// Flag reports the current value of an escalation latch.
func (b *Booking) Flag(f EscalationFlag) bool {
	switch f {
	case FlagReminderSent:
		return b.ReminderSent
	case FlagDeadlineSent:
		return b.DeadlineSent
	case FlagWarningSent:
		return b.WarningSent
	}
	return false
}

// PartyOf returns which side of the booking a clerk id belongs to.
func (b *Booking) PartyOf(clerkID string) (Party, bool) {
	switch clerkID {
	case "":
		return "", false
	case b.OwnerClerkID:
		return PartyOwner, true
	case b.RenterClerkID:
		return PartyRenter, true
	}
	return "", false
}

// Party identifies one side of a booking.
type Party string

const (
	PartyOwner  Party = "owner"
	PartyRenter Party = "renter"
)

func (p Party) Valid() bool {
	return p == PartyOwner || p == PartyRenter
}

// Other returns the counterparty.
func (p Party) Other() Party {
	if p == PartyOwner {
		return PartyRenter
	}
	return PartyOwner
}
