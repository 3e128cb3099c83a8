package models

import "time"

type DocumentKind string

const (
	DocumentInvoice       DocumentKind = "invoice"
	DocumentAgreement     DocumentKind = "agreement"
	DocumentReturnReceipt DocumentKind = "return_receipt"
)

// Invoice represents a generated billing document for a booking.
type Invoice struct {
	InvoiceID   string    `bson:"invoice_id" json:"invoiceId"`
	Number      string    `bson:"number" json:"number"`
	BookingID   string    `bson:"booking_id" json:"bookingId"`
	PaymentID   string    `bson:"payment_id,omitempty" json:"paymentId,omitempty"`
	Amount      float64   `bson:"amount" json:"amount"`
	PlatformFee float64   `bson:"platform_fee" json:"platformFee"`
	OwnerAmount float64   `bson:"owner_amount" json:"ownerAmount"`
	Currency    string    `bson:"currency" json:"currency"`
	Status      string    `bson:"status" json:"status"` // "issued" or "paid"
	DocumentURL string    `bson:"document_url,omitempty" json:"documentUrl,omitempty"`
	CreatedAt   time.Time `bson:"created_at" json:"createdAt"`
}
