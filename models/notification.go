package models

import "time"

type NotificationType string

const (
	NotifyRentalRequest       NotificationType = "rental_request"
	NotifyRequestAccepted     NotificationType = "request_accepted"
	NotifyRequestRejected     NotificationType = "request_rejected"
	NotifyPaymentConfirmed    NotificationType = "payment_confirmed"
	NotifyPaymentFailed       NotificationType = "payment_failed"
	NotifyPreparePickup       NotificationType = "prepare_pickup"
	NotifyPickupRequested     NotificationType = "pickup_requested"
	NotifyReturnInitiated     NotificationType = "return_initiated"
	NotifyVerificationCode    NotificationType = "verification_code"
	NotifyVerificationPending NotificationType = "verification_pending"
	NotifyDeliveryCompleted   NotificationType = "delivery_completed"
	NotifyReturnCompleted     NotificationType = "return_completed"
	NotifyPayoutProcessed     NotificationType = "payout_processed"
	NotifyBookingCancelled    NotificationType = "booking_cancelled"
	NotifyReturnReminder      NotificationType = "return_reminder"
	NotifyReturnDeadline      NotificationType = "return_deadline"
	NotifyOverdueWarning      NotificationType = "overdue_warning"
	NotifyLateFeeEscalated    NotificationType = "late_fee_escalated"
)

// Notification is an in-app message kept for a user's inbox.
type Notification struct {
	ID       string           `bson:"id" json:"id"`
	UserID   string           `bson:"user_id,omitempty" json:"userId,omitempty"`
	ClerkID  string           `bson:"clerk_id" json:"clerkId"`
	Type     NotificationType `bson:"type" json:"type"`
	Title    string           `bson:"title" json:"title"`
	Message  string           `bson:"message" json:"message"`
	IsRead   bool             `bson:"is_read" json:"isRead"`
	Metadata *NoticeMetadata  `bson:"metadata,omitempty" json:"metadata,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time `bson:"updated_at" json:"updatedAt"`
}

// NoticeMetadata describes the event behind a notification and any follow-up it asks for.
type NoticeMetadata struct {
	BookingID      string  `bson:"booking_id,omitempty" json:"bookingId,omitempty"`
	Event          string  `bson:"event,omitempty" json:"event,omitempty"`
	ActionRequired string  `bson:"action_required,omitempty" json:"actionRequired,omitempty"`
	Amount         float64 `bson:"amount,omitempty" json:"amount,omitempty"`
	DocumentURL    string  `bson:"document_url,omitempty" json:"documentUrl,omitempty"`
}
