package invoiceRepo

import (
	"context"
	"sync"
	"time"

	"reservelt/models"
)

// MemoryInvoiceRepo is the in-process InvoiceRepository.
type MemoryInvoiceRepo struct {
	mu       sync.Mutex
	invoices []models.Invoice
}

func NewMemoryInvoiceRepo() *MemoryInvoiceRepo {
	return &MemoryInvoiceRepo{}
}

func (r *MemoryInvoiceRepo) Create(_ context.Context, invoice *models.Invoice) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	invoice.CreatedAt = time.Now().UTC()
	r.invoices = append(r.invoices, *invoice)
	return nil
}

func (r *MemoryInvoiceRepo) ListByBooking(_ context.Context, bookingID string) ([]models.Invoice, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := []models.Invoice{}
	for i := len(r.invoices) - 1; i >= 0; i-- {
		if r.invoices[i].BookingID == bookingID {
			out = append(out, r.invoices[i])
		}
	}
	return out, nil
}
