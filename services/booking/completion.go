package booking

import (
	"context"
	"errors"
	"fmt"

	"reservelt/database/repository"
	bookingRepo "reservelt/database/repository/booking"
	paymentRepo "reservelt/database/repository/payment"
	"reservelt/models"
	"reservelt/services/payment"
	"reservelt/utils"

	"go.uber.org/zap"
)

// deliveryOutcome is what the winning delivery completion reports.
type deliveryOutcome struct {
	booking     *models.Booking
	transfer    *models.PayoutInfo
	payoutError string
}

// completeDelivery hands the item to the renter. The guarded update lets one
// caller per booking through; everyone else gets ErrInvalidState and fires no
// side effects.
func (s *DefaultBookingService) completeDelivery(ctx context.Context, b *models.Booking, destination string) (*deliveryOutcome, error) {
	now := s.now()
	fee, ownerAmount := SplitFee(b.TotalPrice, s.Rates.PlatformFee)

	updated, err := s.Bookings.UpdateIf(ctx, b.ID, bookingRepo.Guard{
		Statuses:          []models.BookingStatus{models.BookingConfirmed, models.BookingInRental},
		DeliveryStatusNot: models.DeliveryDelivered,
	}, bookingRepo.Patch{
		Status:         utils.Ptr(models.BookingInRental),
		DeliveryStatus: utils.Ptr(models.DeliveryDelivered),
		DeliveryDate:   &now,
		PickupStatus:   utils.Ptr(models.PickupCompleted),
		PickupDate:     &now,
		PlatformFee:    &fee,
		OwnerAmount:    &ownerAmount,
		PayoutStatus:   utils.Ptr(models.PayoutProcessing),
	})
	if err != nil {
		if errors.Is(err, repository.ErrConditionNotMet) {
			return nil, newError(KindInvalidState, "booking %s is not awaiting pickup", b.ID)
		}
		return nil, err
	}

	out := &deliveryOutcome{booking: updated}
	out.booking, out.transfer, out.payoutError = s.payout(ctx, updated, destination)

	s.notifyBoth(ctx, out.booking, notice{
		typ:   models.NotifyDeliveryCompleted,
		title: "Pickup confirmed",
		body:  fmt.Sprintf("Pickup is confirmed. The rental runs until %s.", out.booking.EndDate.Format("02 Jan 2006 15:04 MST")),
		email: true,
	})
	return out, nil
}

// payout transfers the owner's share. A failed transfer is recorded on the
// booking and reported, never returned as an error.
func (s *DefaultBookingService) payout(ctx context.Context, b *models.Booking, destination string) (*models.Booking, *models.PayoutInfo, string) {
	log := s.logger().With(zap.String("bookingID", b.ID), zap.String("op", "payout"))

	if destination == "" && s.Users != nil {
		if owner, err := s.Users.GetByClerkID(ctx, b.OwnerClerkID); err == nil {
			destination = owner.PayoutAccountID
		}
	}

	var transferID string
	var transferErr error
	if destination == "" {
		transferErr = errors.New("owner has no payout account")
	} else {
		transferID, transferErr = s.Processor.Transfer(ctx, payment.TransferRequest{
			BookingID:      b.ID,
			Amount:         b.OwnerAmount,
			Currency:       s.Currency,
			Destination:    destination,
			IdempotencyKey: "payout-" + b.ID,
		})
	}

	now := s.now()
	if transferErr != nil {
		log.Error("owner payout failed", zap.Error(transferErr))
		updated, err := s.Bookings.UpdateIf(ctx, b.ID, bookingRepo.Guard{}, bookingRepo.Patch{
			PayoutStatus: utils.Ptr(models.PayoutFailed),
		})
		if err != nil {
			log.Error("could not record failed payout", zap.Error(err))
			updated = b
		}
		s.recordPayout(ctx, b.ID, paymentRepo.Patch{PayoutStatus: utils.Ptr(models.PayoutFailed)})
		return updated, nil, transferErr.Error()
	}

	updated, err := s.Bookings.UpdateIf(ctx, b.ID, bookingRepo.Guard{}, bookingRepo.Patch{
		PayoutStatus:   utils.Ptr(models.PayoutCompleted),
		PayoutDate:     &now,
		PayoutTransfer: &transferID,
	})
	if err != nil {
		log.Error("payout sent but not recorded on booking", zap.String("transferID", transferID), zap.Error(err))
		updated = b
	}
	s.recordPayout(ctx, b.ID, paymentRepo.Patch{
		PayoutStatus:   utils.Ptr(models.PayoutCompleted),
		PayoutDate:     &now,
		PayoutTransfer: &transferID,
	})

	s.notify(ctx, updated, notice{
		to:     models.PartyOwner,
		typ:    models.NotifyPayoutProcessed,
		title:  "Payout sent",
		body:   fmt.Sprintf("Your payout of %.2f is on its way.", b.OwnerAmount),
		amount: b.OwnerAmount,
		email:  true,
	})
	return updated, &models.PayoutInfo{TransferID: transferID, Amount: b.OwnerAmount, Date: now}, ""
}

// recordPayout mirrors the payout onto the booking's successful payment.
func (s *DefaultBookingService) recordPayout(ctx context.Context, bookingID string, patch paymentRepo.Patch) {
	utils.BestEffort(ctx, s.logger(), "record payout", func(ctx context.Context) error {
		payments, err := s.Payments.FindByBooking(ctx, bookingID)
		if err != nil {
			return err
		}
		paid := paymentRepo.Successful(payments)
		if paid == nil {
			return nil
		}
		_, err = s.Payments.UpdateIf(ctx, paid.ChargeID, nil, patch)
		return err
	}, zap.String("bookingID", bookingID))
}

// returnOutcome is what the winning return completion reports.
type returnOutcome struct {
	booking  *models.Booking
	isLate   bool
	daysLate int
	lateFee  float64
}

// completeReturn closes an in_rental booking. Only the caller whose guarded
// update succeeds fires the receipt and completion notices.
func (s *DefaultBookingService) completeReturn(ctx context.Context, b *models.Booking, dropLocation string) (*returnOutcome, error) {
	now := s.now()
	daysLate, computed := ReturnLateFee(b.TotalPrice, s.Rates.DailyLateFee, b.EndDate, now)
	isLate := daysLate > 0

	current := b
	var updated *models.Booking
	// The overdue monitor may raise the fee between read and write; retry so
	// the stored fee never goes down.
	for attempt := 0; attempt < 3 && updated == nil; attempt++ {
		patch := bookingRepo.Patch{
			Status:       utils.Ptr(models.BookingCompleted),
			ReturnStatus: utils.Ptr(models.ReturnCompleted),
			ReturnDate:   &now,
		}
		guard := bookingRepo.Guard{Statuses: []models.BookingStatus{models.BookingInRental}}
		if isLate {
			fee := max(current.LateFee, computed)
			patch.ReturnStatus = utils.Ptr(models.ReturnLate)
			patch.LateFee = &fee
			guard.LateFeeAtMost = &fee
		}
		if dropLocation != "" {
			patch.DropLocation = &dropLocation
		}

		res, err := s.Bookings.UpdateIf(ctx, b.ID, guard, patch)
		switch {
		case err == nil:
			updated = res
		case errors.Is(err, repository.ErrConditionNotMet):
			latest, lerr := s.load(ctx, b.ID)
			if lerr != nil {
				return nil, lerr
			}
			if latest.Status != models.BookingInRental {
				return nil, newError(KindInvalidState, "booking %s is %s, not %s", b.ID, latest.Status, models.BookingInRental)
			}
			current = latest
		default:
			return nil, err
		}
	}
	if updated == nil {
		return nil, newError(KindInvalidState, "booking %s kept changing during return", b.ID)
	}

	out := &returnOutcome{booking: updated, isLate: isLate, daysLate: daysLate}
	if isLate {
		out.lateFee = updated.LateFee
	}

	var receiptURL string
	if s.Documents != nil {
		utils.BestEffort(ctx, s.logger(), "return receipt", func(ctx context.Context) error {
			url, err := s.Documents.ReturnReceipt(ctx, updated)
			receiptURL = url
			return err
		}, zap.String("bookingID", updated.ID))
	}

	body := "The item has been returned and the rental is complete."
	if isLate {
		body = fmt.Sprintf("The item was returned %d day(s) late. A late fee of %.2f applies.", daysLate, out.lateFee)
	}
	s.notifyBoth(ctx, updated, notice{
		typ:    models.NotifyReturnCompleted,
		title:  "Return completed",
		body:   body,
		amount: out.lateFee,
		docURL: receiptURL,
		email:  true,
	})
	return out, nil
}

// ConfirmPickup is the single-step pickup used by older clients. It runs the
// same guarded completion as the two-party code.
func (s *DefaultBookingService) ConfirmPickup(ctx context.Context, bookingID, payoutDestination, actorClerkID string) (*models.PickupResult, error) {
	if payoutDestination == "" {
		return nil, newError(KindValidation, "owner payout destination is required")
	}
	b, err := s.load(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if err := authorize(b, actorClerkID, models.PartyOwner); err != nil {
		return nil, err
	}
	if b.Status != models.BookingConfirmed {
		return nil, newError(KindInvalidState, "booking %s is %s, not %s", b.ID, b.Status, models.BookingConfirmed)
	}

	out, err := s.completeDelivery(ctx, b, payoutDestination)
	if err != nil {
		return nil, err
	}
	return &models.PickupResult{Booking: out.booking, Transfer: out.transfer, PayoutError: out.payoutError}, nil
}

// Complete is the single-step return used by older clients.
func (s *DefaultBookingService) Complete(ctx context.Context, bookingID, dropLocation, actorClerkID string) (*models.CompletionResult, error) {
	b, err := s.load(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if err := authorize(b, actorClerkID, ""); err != nil {
		return nil, err
	}
	if b.Status != models.BookingInRental {
		return nil, newError(KindInvalidState, "booking %s is %s, not %s", b.ID, b.Status, models.BookingInRental)
	}

	out, err := s.completeReturn(ctx, b, dropLocation)
	if err != nil {
		return nil, err
	}
	return &models.CompletionResult{Booking: out.booking, IsLate: out.isLate, DaysLate: out.daysLate, LateFee: out.lateFee}, nil
}
