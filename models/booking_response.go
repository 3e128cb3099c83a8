package models

import "time"

// AcceptResult is returned when an owner accepts a rental request.
type AcceptResult struct {
	Booking  *Booking `json:"booking"`
	Invoice  *Invoice `json:"invoice,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
}

// PaymentIntentResult carries what the client needs to complete a charge.
type PaymentIntentResult struct {
	Payment      *Payment `json:"payment"`
	ClientSecret string   `json:"clientSecret,omitempty"`
}

// PaymentConfirmation is returned by payment confirmation, first time or repeated.
type PaymentConfirmation struct {
	Booking          *Booking `json:"booking"`
	Payment          *Payment `json:"payment"`
	Invoice          *Invoice `json:"invoice,omitempty"`
	AlreadyConfirmed bool     `json:"alreadyConfirmed"`
	Warnings         []string `json:"warnings,omitempty"`
	// Refund is set when the charge arrived after the booking was cancelled.
	Refund      *RefundInfo `json:"refund,omitempty"`
	RefundError string      `json:"refundError,omitempty"`
}

// PayoutInfo reports the owner payout attempted at pickup.
type PayoutInfo struct {
	TransferID string    `json:"transferId,omitempty"`
	Amount     float64   `json:"amount"`
	Date       time.Time `json:"date"`
}

// PickupResult is returned by the direct pickup confirmation.
type PickupResult struct {
	Booking     *Booking    `json:"booking"`
	Transfer    *PayoutInfo `json:"transfer,omitempty"`
	PayoutError string      `json:"payoutError,omitempty"`
}

// RefundInfo reports a refund issued on cancellation.
type RefundInfo struct {
	RefundID string  `json:"refundId"`
	Amount   float64 `json:"amount"`
	Status   string  `json:"status"`
}

// CancelResult is returned by cancellation. The booking stays cancelled even
// when the refund fails; RefundError then says why.
type CancelResult struct {
	Booking     *Booking    `json:"booking"`
	Refund      *RefundInfo `json:"refund,omitempty"`
	RefundError string      `json:"refundError,omitempty"`
}

// CodeIssued is returned when a handover code is (re)issued.
type CodeIssued struct {
	BookingID string    `json:"bookingId"`
	Type      OTPType   `json:"type"`
	SentTo    Party     `json:"sentTo"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// VerificationResult is returned after a party submits a handover code.
type VerificationResult struct {
	OwnerVerified  bool        `json:"ownerVerified"`
	RenterVerified bool        `json:"renterVerified"`
	Completed      bool        `json:"completed"`
	Booking        *Booking    `json:"booking,omitempty"`
	IsLate         bool        `json:"isLate,omitempty"`
	DaysLate       int         `json:"daysLate,omitempty"`
	LateFee        float64     `json:"lateFee,omitempty"`
	Transfer       *PayoutInfo `json:"transfer,omitempty"`
	PayoutError    string      `json:"payoutError,omitempty"`
}

// CompletionResult is returned by the direct return completion.
type CompletionResult struct {
	Booking  *Booking `json:"booking"`
	IsLate   bool     `json:"isLate"`
	DaysLate int      `json:"daysLate,omitempty"`
	LateFee  float64  `json:"lateFee,omitempty"`
}

// ScanReport summarises one pass of the overdue monitor.
type ScanReport struct {
	Scanned    int       `json:"scanned"`
	Reminders  int       `json:"reminders"`
	Deadlines  int       `json:"deadlines"`
	Warnings   int       `json:"warnings"`
	Escalated  int       `json:"escalated"`
	Failed     int       `json:"failed"`
	StartedAt  time.Time `json:"startedAt"`
	FinishedAt time.Time `json:"finishedAt"`
}
