package invoiceRepo

import (
	"context"

	"reservelt/models"
)

// InvoiceRepository persists generated billing documents.
type InvoiceRepository interface {
	Create(ctx context.Context, invoice *models.Invoice) error
	ListByBooking(ctx context.Context, bookingID string) ([]models.Invoice, error)
}
