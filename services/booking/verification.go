package booking

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"reservelt/database/repository"
	"reservelt/models"
	"reservelt/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const codeLength = 6

// issueStatuses are the booking states in which a handover code may be issued.
var issueStatuses = map[models.OTPType][]models.BookingStatus{
	models.OTPDelivery: {models.BookingConfirmed, models.BookingInRental},
	models.OTPReturn:   {models.BookingInRental},
}

// verifyStatuses also admit the state a completed handover leaves behind, so a
// late duplicate verification reports completion instead of failing.
var verifyStatuses = map[models.OTPType][]models.BookingStatus{
	models.OTPDelivery: {models.BookingConfirmed, models.BookingInRental},
	models.OTPReturn:   {models.BookingInRental, models.BookingCompleted},
}

func handoverName(t models.OTPType) string {
	if t == models.OTPReturn {
		return "return"
	}
	return "pickup"
}

// IssueCode generates a fresh code for the handover, replacing any earlier
// one, and sends it to recipient.
func (s *DefaultBookingService) IssueCode(ctx context.Context, bookingID string, otpType models.OTPType, recipient models.Party, actorClerkID string) (*models.CodeIssued, error) {
	if !otpType.Valid() {
		return nil, newError(KindValidation, "unknown code type %q", otpType)
	}
	if !recipient.Valid() {
		return nil, newError(KindValidation, "userType must be owner or renter")
	}
	b, err := s.load(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if err := authorize(b, actorClerkID, ""); err != nil {
		return nil, err
	}
	if !slices.Contains(issueStatuses[otpType], b.Status) {
		return nil, newError(KindInvalidState, "cannot start %s while booking %s is %s", handoverName(otpType), b.ID, b.Status)
	}

	code, err := utils.GenerateNumericCode(codeLength)
	if err != nil {
		return nil, err
	}
	now := s.now()
	stored, err := s.Codes.Upsert(ctx, &models.OneTimeCode{
		ID:        uuid.New().String(),
		BookingID: b.ID,
		Type:      otpType,
		Code:      code,
		ExpiresAt: now.Add(s.codeTTL()),
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		s.logger().Error("failed to store handover code", zap.String("bookingID", b.ID), zap.String("type", string(otpType)), zap.Error(err))
		return nil, err
	}

	name := handoverName(otpType)
	s.notify(ctx, b, notice{
		to:     recipient,
		typ:    models.NotifyVerificationCode,
		title:  fmt.Sprintf("Your %s code", name),
		body:   fmt.Sprintf("Your %s code is %s. Share it with the other party when you meet. It expires in %d minutes.", name, code, int(s.codeTTL().Minutes())),
		action: "verify_code",
		email:  true,
	})

	counterpartType := models.NotifyPickupRequested
	title := "Pickup requested"
	if otpType == models.OTPReturn {
		counterpartType = models.NotifyReturnInitiated
		title = "Return initiated"
	}
	s.notify(ctx, b, notice{
		to:     recipient.Other(),
		typ:    counterpartType,
		title:  title,
		body:   fmt.Sprintf("A %s code was sent to the %s. Enter it when you meet to confirm the %s.", name, recipient, name),
		action: "verify_code",
	})

	return &models.CodeIssued{BookingID: b.ID, Type: otpType, SentTo: recipient, ExpiresAt: stored.ExpiresAt}, nil
}

// VerifyCode records one party's confirmation. The second distinct party to
// confirm completes the handover; completion side effects run once.
func (s *DefaultBookingService) VerifyCode(ctx context.Context, bookingID string, otpType models.OTPType, code string, party models.Party, actorClerkID string) (*models.VerificationResult, error) {
	if !otpType.Valid() {
		return nil, newError(KindValidation, "unknown code type %q", otpType)
	}
	if !party.Valid() {
		return nil, newError(KindValidation, "userType must be owner or renter")
	}
	if code == "" {
		return nil, newError(KindValidation, "otp is required")
	}
	b, err := s.load(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if err := authorize(b, actorClerkID, party); err != nil {
		return nil, err
	}
	if !slices.Contains(verifyStatuses[otpType], b.Status) {
		return nil, newError(KindInvalidState, "cannot verify %s while booking %s is %s", handoverName(otpType), b.ID, b.Status)
	}

	before, err := s.Codes.MarkVerified(ctx, b.ID, otpType, code, party, s.now())
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, newError(KindInvalidCode, "invalid or expired code")
		}
		return nil, err
	}

	after := *before
	if party == models.PartyOwner {
		after.OwnerVerified = true
	} else {
		after.RenterVerified = true
	}
	result := &models.VerificationResult{
		OwnerVerified:  after.OwnerVerified,
		RenterVerified: after.RenterVerified,
		Booking:        b,
	}

	if !after.BothVerified() {
		if !before.Verified(party) {
			s.notify(ctx, b, notice{
				to:     party.Other(),
				typ:    models.NotifyVerificationPending,
				title:  fmt.Sprintf("Confirm the %s", handoverName(otpType)),
				body:   fmt.Sprintf("The %s confirmed the %s. Enter the code to finish.", party, handoverName(otpType)),
				action: "verify_code",
			})
		}
		return result, nil
	}

	switch otpType {
	case models.OTPDelivery:
		out, err := s.completeDelivery(ctx, b, "")
		if err != nil {
			return s.alreadyCompleted(ctx, result, err)
		}
		result.Completed = true
		result.Booking = out.booking
		result.Transfer = out.transfer
		result.PayoutError = out.payoutError
	case models.OTPReturn:
		out, err := s.completeReturn(ctx, b, "")
		if err != nil {
			return s.alreadyCompleted(ctx, result, err)
		}
		result.Completed = true
		result.Booking = out.booking
		result.IsLate = out.isLate
		result.DaysLate = out.daysLate
		result.LateFee = out.lateFee
	}
	return result, nil
}

// alreadyCompleted turns a lost completion race into a plain report of the
// current booking. Other errors pass through.
func (s *DefaultBookingService) alreadyCompleted(ctx context.Context, result *models.VerificationResult, err error) (*models.VerificationResult, error) {
	if !errors.Is(err, ErrInvalidState) {
		return nil, err
	}
	latest, lerr := s.load(ctx, result.Booking.ID)
	if lerr != nil {
		return nil, lerr
	}
	result.Booking = latest
	result.Completed = latest.DeliveryStatus == models.DeliveryDelivered
	if latest.Status == models.BookingCompleted {
		result.Completed = true
		result.IsLate = latest.ReturnStatus == models.ReturnLate
		result.LateFee = latest.LateFee
	}
	return result, nil
}
