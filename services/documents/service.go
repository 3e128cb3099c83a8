package documents

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"strings"
	"time"

	invoiceRepo "reservelt/database/repository/invoice"
	"reservelt/models"
	"reservelt/services/storage"

	"github.com/google/uuid"
)

// DefaultDocumentService renders documents from templates. Without Storage the
// documents are still recorded, only without a URL.
type DefaultDocumentService struct {
	Invoices invoiceRepo.InvoiceRepository
	Storage  storage.StorageService
	Currency string
	Now      func() time.Time
}

func NewDefaultDocumentService(invoices invoiceRepo.InvoiceRepository, store storage.StorageService, currency string) *DefaultDocumentService {
	return &DefaultDocumentService{Invoices: invoices, Storage: store, Currency: currency, Now: time.Now}
}

func (s *DefaultDocumentService) Invoice(ctx context.Context, booking *models.Booking, payment *models.Payment) (*models.Invoice, error) {
	now := s.Now().UTC()
	id := uuid.New().String()
	inv := &models.Invoice{
		InvoiceID:   id,
		Number:      fmt.Sprintf("INV-%s-%s", now.Format("20060102"), strings.ToUpper(id[:8])),
		BookingID:   booking.ID,
		Amount:      booking.TotalPrice,
		PlatformFee: booking.PlatformFee,
		OwnerAmount: booking.OwnerAmount,
		Currency:    s.Currency,
		Status:      "issued",
	}
	if payment != nil {
		inv.PaymentID = payment.ChargeID
		inv.Status = "paid"
		if payment.Currency != "" {
			inv.Currency = payment.Currency
		}
	}

	url, err := s.render(ctx, models.DocumentInvoice, inv.Number, invoiceTemplate, struct {
		Invoice *models.Invoice
		Booking *models.Booking
	}{inv, booking})
	if err != nil {
		return nil, err
	}
	inv.DocumentURL = url

	if err := s.Invoices.Create(ctx, inv); err != nil {
		return nil, fmt.Errorf("documents: save invoice for booking %s: %w", booking.ID, err)
	}
	return inv, nil
}

func (s *DefaultDocumentService) Agreement(ctx context.Context, booking *models.Booking) (string, error) {
	return s.render(ctx, models.DocumentAgreement, "agreement-"+booking.ID, agreementTemplate, booking)
}

func (s *DefaultDocumentService) ReturnReceipt(ctx context.Context, booking *models.Booking) (string, error) {
	return s.render(ctx, models.DocumentReturnReceipt, "return-"+booking.ID, receiptTemplate, booking)
}

func (s *DefaultDocumentService) render(ctx context.Context, kind models.DocumentKind, name string, tmpl *template.Template, data interface{}) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("documents: render %s %s: %w", kind, name, err)
	}
	if s.Storage == nil {
		return "", nil
	}
	url, err := s.Storage.Upload(ctx, "bookings/"+string(kind), name+".html", &buf)
	if err != nil {
		return "", fmt.Errorf("documents: upload %s %s: %w", kind, name, err)
	}
	return url, nil
}

func formatMoney(v float64) string {
	return fmt.Sprintf("%.2f", v)
}

func formatDate(v interface{}) string {
	switch t := v.(type) {
	case time.Time:
		return t.UTC().Format("02 Jan 2006")
	case *time.Time:
		if t == nil {
			return "-"
		}
		return t.UTC().Format("02 Jan 2006")
	}
	return fmt.Sprint(v)
}
