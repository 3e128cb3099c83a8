package booking

import (
	"context"
	"time"

	bookingRepo "reservelt/database/repository/booking"
	otpRepo "reservelt/database/repository/otp"
	paymentRepo "reservelt/database/repository/payment"
	userRepo "reservelt/database/repository/user"
	"reservelt/models"
	"reservelt/services/documents"
	"reservelt/services/notification"
	"reservelt/services/payment"

	"go.uber.org/zap"
)

// BookingService owns the rental lifecycle. actorClerkID arguments are
// optional: when set, the caller must be the party the operation requires.
type BookingService interface {
	CreateRentalRequest(ctx context.Context, in models.RentalRequestInput) (*models.Booking, error)
	Accept(ctx context.Context, bookingID, ownerClerkID string) (*models.AcceptResult, error)
	Reject(ctx context.Context, bookingID, ownerClerkID, reason string) (*models.Booking, error)

	CreatePaymentIntent(ctx context.Context, bookingID, renterClerkID string) (*models.PaymentIntentResult, error)
	ConfirmPayment(ctx context.Context, bookingID, chargeID string) (*models.PaymentConfirmation, error)
	HandlePaymentWebhook(ctx context.Context, payload []byte, signature string) error

	IssueCode(ctx context.Context, bookingID string, otpType models.OTPType, recipient models.Party, actorClerkID string) (*models.CodeIssued, error)
	VerifyCode(ctx context.Context, bookingID string, otpType models.OTPType, code string, party models.Party, actorClerkID string) (*models.VerificationResult, error)

	ConfirmPickup(ctx context.Context, bookingID, payoutDestination, actorClerkID string) (*models.PickupResult, error)
	Complete(ctx context.Context, bookingID, dropLocation, actorClerkID string) (*models.CompletionResult, error)
	Cancel(ctx context.Context, bookingID, reason, actorClerkID string) (*models.CancelResult, error)

	GetBooking(ctx context.Context, bookingID, actorClerkID string) (*models.Booking, error)
	ListForUser(ctx context.Context, clerkID string, role models.Party) ([]models.Booking, error)
}

// DefaultBookingService implements BookingService.
type DefaultBookingService struct {
	Bookings  bookingRepo.BookingRepository
	Codes     otpRepo.OTPRepository
	Payments  paymentRepo.PaymentRepository
	Users     userRepo.UserRepository
	Processor payment.Processor
	Events    payment.EventLedger
	Notifier  notification.Notifier
	Documents documents.Generator

	Rates    Rates
	Currency string
	CodeTTL  time.Duration
	Logger   *zap.Logger
	// Now is the service clock; tests pin it.
	Now func() time.Time
}

func (s *DefaultBookingService) now() time.Time {
	if s.Now == nil {
		return time.Now().UTC()
	}
	return s.Now().UTC()
}

func (s *DefaultBookingService) logger() *zap.Logger {
	if s.Logger == nil {
		return zap.NewNop()
	}
	return s.Logger
}

func (s *DefaultBookingService) codeTTL() time.Duration {
	if s.CodeTTL <= 0 {
		return 10 * time.Minute
	}
	return s.CodeTTL
}
