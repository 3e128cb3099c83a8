package documents

import (
	"context"

	"reservelt/models"
)

// Generator renders booking documents and stores them.
type Generator interface {
	// Invoice issues an invoice for the booking. A nil payment issues an
	// unpaid invoice.
	Invoice(ctx context.Context, booking *models.Booking, payment *models.Payment) (*models.Invoice, error)
	// Agreement renders the rental agreement and returns its URL.
	Agreement(ctx context.Context, booking *models.Booking) (string, error)
	// ReturnReceipt renders the return receipt and returns its URL.
	ReturnReceipt(ctx context.Context, booking *models.Booking) (string, error)
}
