package booking

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"reservelt/database/repository"
	bookingRepo "reservelt/database/repository/booking"
	"reservelt/models"
	"reservelt/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CreateRentalRequest validates the rental window and persists a requested booking.
func (s *DefaultBookingService) CreateRentalRequest(ctx context.Context, in models.RentalRequestInput) (*models.Booking, error) {
	now := s.now()
	if err := validateRequest(in, now); err != nil {
		return nil, err
	}

	fee, ownerAmount := SplitFee(in.Pricing.Total, s.Rates.PlatformFee)
	b := &models.Booking{
		ID:             uuid.New().String(),
		ProductID:      in.ProductID,
		RenterID:       in.RenterID,
		RenterClerkID:  in.RenterClerkID,
		OwnerID:        in.OwnerID,
		OwnerClerkID:   in.OwnerClerkID,
		StartDate:      in.StartDate.UTC(),
		EndDate:        in.EndDate.UTC(),
		TotalPrice:     in.Pricing.Total,
		PlatformFee:    fee,
		OwnerAmount:    ownerAmount,
		Status:         models.BookingRequested,
		PaymentStatus:  models.PaymentUnpaid,
		PickupStatus:   models.PickupPending,
		DeliveryStatus: models.DeliveryPending,
		ReturnStatus:   models.ReturnPending,
		PayoutStatus:   models.PayoutPending,
	}
	s.resolveUserIDs(ctx, b)

	if err := s.Bookings.Create(ctx, b); err != nil {
		s.logger().Error("failed to create booking", zap.String("op", "create_request"), zap.Error(err))
		return nil, fmt.Errorf("create booking: %w", err)
	}

	s.notify(ctx, b, notice{
		to:     models.PartyOwner,
		typ:    models.NotifyRentalRequest,
		title:  "New rental request",
		body:   fmt.Sprintf("You have a new rental request from %s to %s.", b.StartDate.Format("02 Jan"), b.EndDate.Format("02 Jan 2006")),
		action: "review_request",
		amount: b.TotalPrice,
		email:  true,
	})
	return b, nil
}

func validateRequest(in models.RentalRequestInput, now time.Time) error {
	switch {
	case strings.TrimSpace(in.ProductID) == "":
		return newError(KindValidation, "productId is required")
	case strings.TrimSpace(in.OwnerClerkID) == "":
		return newError(KindValidation, "ownerClerkId is required")
	case strings.TrimSpace(in.RenterClerkID) == "":
		return newError(KindValidation, "renterClerkId is required")
	case in.OwnerClerkID == in.RenterClerkID:
		return newError(KindValidation, "owner and renter must be different users")
	case in.StartDate.IsZero() || in.EndDate.IsZero():
		return newError(KindValidation, "startDate and endDate are required")
	case in.Pricing.Total <= 0:
		return newError(KindValidation, "pricing.total must be positive")
	}
	today := startOfDay(now)
	if in.StartDate.UTC().Before(today) {
		return newError(KindValidation, "startDate cannot be in the past")
	}
	if !in.StartDate.Before(in.EndDate) {
		return newError(KindValidation, "startDate must be before endDate")
	}
	return nil
}

// resolveUserIDs fills internal ids from the user directory when the client
// only sent clerk ids.
func (s *DefaultBookingService) resolveUserIDs(ctx context.Context, b *models.Booking) {
	if s.Users == nil {
		return
	}
	if b.OwnerID == "" {
		if u, err := s.Users.GetByClerkID(ctx, b.OwnerClerkID); err == nil {
			b.OwnerID = u.ID
		}
	}
	if b.RenterID == "" {
		if u, err := s.Users.GetByClerkID(ctx, b.RenterClerkID); err == nil {
			b.RenterID = u.ID
		}
	}
}

// Accept moves a requested booking to pending_payment and issues the invoice
// and rental agreement.
func (s *DefaultBookingService) Accept(ctx context.Context, bookingID, ownerClerkID string) (*models.AcceptResult, error) {
	b, err := s.ownerDecision(ctx, bookingID, ownerClerkID)
	if err != nil {
		return nil, err
	}

	updated, err := s.transition(ctx, b, []models.BookingStatus{models.BookingRequested}, bookingRepo.Patch{
		Status: utils.Ptr(models.BookingPendingPayment),
	})
	if err != nil {
		return nil, err
	}

	result := &models.AcceptResult{Booking: updated}
	log := s.logger().With(zap.String("bookingID", updated.ID), zap.String("op", "accept"))

	if s.Documents != nil {
		inv, err := s.Documents.Invoice(ctx, updated, nil)
		if err != nil {
			log.Warn("invoice generation failed", zap.Error(err))
			result.Warnings = append(result.Warnings, "invoice generation failed: "+err.Error())
		} else {
			result.Invoice = inv
		}
	}

	var agreementURL string
	if s.Documents != nil {
		note := utils.BestEffort(ctx, log, "rental agreement", func(ctx context.Context) error {
			url, err := s.Documents.Agreement(ctx, updated)
			agreementURL = url
			return err
		})
		result.Warnings = appendNote(result.Warnings, note)
	}

	note := s.notify(ctx, updated, notice{
		to:     models.PartyRenter,
		typ:    models.NotifyRequestAccepted,
		title:  "Rental request accepted",
		body:   fmt.Sprintf("Your rental request was accepted. Please complete the payment of %.2f to confirm it.", updated.TotalPrice),
		action: "payment",
		amount: updated.TotalPrice,
		docURL: agreementURL,
		email:  true,
	})
	result.Warnings = appendNote(result.Warnings, note)
	return result, nil
}

// Reject closes a requested booking with the owner's reason.
func (s *DefaultBookingService) Reject(ctx context.Context, bookingID, ownerClerkID, reason string) (*models.Booking, error) {
	b, err := s.ownerDecision(ctx, bookingID, ownerClerkID)
	if err != nil {
		return nil, err
	}

	updated, err := s.transition(ctx, b, []models.BookingStatus{models.BookingRequested}, bookingRepo.Patch{
		Status:       utils.Ptr(models.BookingRejected),
		CancelReason: utils.Ptr(reason),
	})
	if err != nil {
		return nil, err
	}

	body := "Your rental request was declined by the owner."
	if reason != "" {
		body = fmt.Sprintf("Your rental request was declined by the owner: %s", reason)
	}
	s.notify(ctx, updated, notice{
		to:    models.PartyRenter,
		typ:   models.NotifyRequestRejected,
		title: "Rental request declined",
		body:  body,
		email: true,
	})
	return updated, nil
}

// ownerDecision loads a booking for accept or reject and checks the owner and
// the requested status before any write.
func (s *DefaultBookingService) ownerDecision(ctx context.Context, bookingID, ownerClerkID string) (*models.Booking, error) {
	if ownerClerkID == "" {
		return nil, newError(KindValidation, "ownerClerkId is required")
	}
	b, err := s.load(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if ownerClerkID != b.OwnerClerkID {
		return nil, newError(KindUnauthorized, "only the owner can decide on booking %s", b.ID)
	}
	if b.Status != models.BookingRequested {
		return nil, newError(KindInvalidState, "booking %s is %s, not %s", b.ID, b.Status, models.BookingRequested)
	}
	return b, nil
}

// transition applies patch only while the booking is in one of from. A lost
// race surfaces as ErrInvalidState.
func (s *DefaultBookingService) transition(ctx context.Context, b *models.Booking, from []models.BookingStatus, patch bookingRepo.Patch) (*models.Booking, error) {
	updated, err := s.Bookings.UpdateIf(ctx, b.ID, bookingRepo.Guard{Statuses: from}, patch)
	if err != nil {
		if errors.Is(err, repository.ErrConditionNotMet) {
			return nil, newError(KindInvalidState, "booking %s is no longer %s", b.ID, joinStatuses(from))
		}
		if errors.Is(err, repository.ErrNotFound) {
			return nil, newError(KindNotFound, "booking %s not found", b.ID)
		}
		s.logger().Error("booking update failed", zap.String("bookingID", b.ID), zap.Error(err))
		return nil, err
	}
	return updated, nil
}

func joinStatuses(statuses []models.BookingStatus) string {
	parts := make([]string, len(statuses))
	for i, st := range statuses {
		parts[i] = string(st)
	}
	return strings.Join(parts, "|")
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
