package booking_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	bookingRepo "reservelt/database/repository/booking"
	invoiceRepo "reservelt/database/repository/invoice"
	otpRepo "reservelt/database/repository/otp"
	paymentRepo "reservelt/database/repository/payment"
	userRepo "reservelt/database/repository/user"
	"reservelt/models"
	"reservelt/services/booking"
	"reservelt/services/documents"
	"reservelt/services/notification"
	"reservelt/services/payment"

	"github.com/stretchr/testify/require"
)

const (
	ownerID  = "user_owner"
	renterID = "user_renter"
)

type recordingNotifier struct {
	mu   sync.Mutex
	msgs []notification.Message
	err  error
}

func (n *recordingNotifier) Notify(_ context.Context, msg notification.Message) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.msgs = append(n.msgs, msg)
	return n.err
}

func (n *recordingNotifier) count(typ models.NotificationType) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	c := 0
	for _, m := range n.msgs {
		if m.Type == typ {
			c++
		}
	}
	return c
}

func (n *recordingNotifier) last(typ models.NotificationType) *notification.Message {
	n.mu.Lock()
	defer n.mu.Unlock()
	for i := len(n.msgs) - 1; i >= 0; i-- {
		if n.msgs[i].Type == typ {
			m := n.msgs[i]
			return &m
		}
	}
	return nil
}

type fixture struct {
	svc       *booking.DefaultBookingService
	bookings  *bookingRepo.MemoryBookingRepo
	codes     *otpRepo.MemoryOTPRepo
	payments  *paymentRepo.MemoryPaymentRepo
	users     *userRepo.MemoryUserRepo
	invoices  *invoiceRepo.MemoryInvoiceRepo
	processor *payment.StubProcessor
	notifier  *recordingNotifier

	mu  sync.Mutex
	now time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		bookings:  bookingRepo.NewMemoryBookingRepo(),
		codes:     otpRepo.NewMemoryOTPRepo(),
		payments:  paymentRepo.NewMemoryPaymentRepo(),
		users:     userRepo.NewMemoryUserRepo(),
		invoices:  invoiceRepo.NewMemoryInvoiceRepo(),
		processor: payment.NewStubProcessor(),
		notifier:  &recordingNotifier{},
		now:       time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC),
	}
	docs := documents.NewDefaultDocumentService(f.invoices, nil, "inr")
	docs.Now = f.clock
	f.svc = &booking.DefaultBookingService{
		Bookings:  f.bookings,
		Codes:     f.codes,
		Payments:  f.payments,
		Users:     f.users,
		Processor: f.processor,
		Events:    payment.NewMemoryEventLedger(),
		Notifier:  f.notifier,
		Documents: docs,
		Rates:     booking.Rates{PlatformFee: 0.10, DailyLateFee: 0.10},
		Currency:  "inr",
		CodeTTL:   10 * time.Minute,
		Now:       f.clock,
	}

	ctx := context.Background()
	_, err := f.users.Upsert(ctx, &models.User{ClerkID: ownerID, Email: "owner@example.com", PayoutAccountID: "acct_owner"})
	require.NoError(t, err)
	_, err = f.users.Upsert(ctx, &models.User{ClerkID: renterID, Email: "renter@example.com"})
	require.NoError(t, err)
	return f
}

func (f *fixture) clock() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fixture) setNow(t time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = t
}

func (f *fixture) input() models.RentalRequestInput {
	start := f.clock().Add(24 * time.Hour)
	in := models.RentalRequestInput{
		ProductID:     "prod_1",
		OwnerClerkID:  ownerID,
		RenterClerkID: renterID,
		StartDate:     start,
		EndDate:       start.Add(72 * time.Hour),
	}
	in.Pricing.Total = 1000
	return in
}

func (f *fixture) requested(t *testing.T) *models.Booking {
	t.Helper()
	b, err := f.svc.CreateRentalRequest(context.Background(), f.input())
	require.NoError(t, err)
	return b
}

func (f *fixture) pendingPayment(t *testing.T) *models.Booking {
	t.Helper()
	b := f.requested(t)
	res, err := f.svc.Accept(context.Background(), b.ID, ownerID)
	require.NoError(t, err)
	return res.Booking
}

// paid returns a confirmed booking and the charge that paid it.
func (f *fixture) paid(t *testing.T) (*models.Booking, string) {
	t.Helper()
	ctx := context.Background()
	b := f.pendingPayment(t)
	intent, err := f.svc.CreatePaymentIntent(ctx, b.ID, renterID)
	require.NoError(t, err)
	f.processor.SetChargeStatus(intent.Payment.ChargeID, payment.ChargeSucceeded)
	conf, err := f.svc.ConfirmPayment(ctx, b.ID, intent.Payment.ChargeID)
	require.NoError(t, err)
	return conf.Booking, intent.Payment.ChargeID
}

func (f *fixture) code(t *testing.T, bookingID string, otpType models.OTPType) string {
	t.Helper()
	c, err := f.codes.Get(context.Background(), bookingID, otpType)
	require.NoError(t, err)
	return c.Code
}

// handover issues a code and has both parties confirm it.
func (f *fixture) handover(t *testing.T, bookingID string, otpType models.OTPType) *models.VerificationResult {
	t.Helper()
	ctx := context.Background()
	_, err := f.svc.IssueCode(ctx, bookingID, otpType, models.PartyRenter, "")
	require.NoError(t, err)
	code := f.code(t, bookingID, otpType)
	_, err = f.svc.VerifyCode(ctx, bookingID, otpType, code, models.PartyOwner, ownerID)
	require.NoError(t, err)
	res, err := f.svc.VerifyCode(ctx, bookingID, otpType, code, models.PartyRenter, renterID)
	require.NoError(t, err)
	return res
}

func (f *fixture) inRental(t *testing.T) *models.Booking {
	t.Helper()
	b, _ := f.paid(t)
	res := f.handover(t, b.ID, models.OTPDelivery)
	require.True(t, res.Completed)
	return res.Booking
}

func (f *fixture) reload(t *testing.T, id string) *models.Booking {
	t.Helper()
	b, err := f.bookings.GetByID(context.Background(), id)
	require.NoError(t, err)
	return b
}

func requireKind(t *testing.T, err error, kind booking.ErrorKind) {
	t.Helper()
	require.Error(t, err)
	require.Equal(t, kind, booking.KindOf(err), "unexpected error: %v", err)
}

var errBoom = errors.New("boom")

func bookingGuardInRental() bookingRepo.Guard {
	return bookingRepo.Guard{Statuses: []models.BookingStatus{models.BookingInRental}}
}

func bookingLateFee(fee float64) bookingRepo.Patch {
	return bookingRepo.Patch{LateFee: &fee}
}
