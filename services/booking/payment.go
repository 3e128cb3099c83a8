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

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CreatePaymentIntent opens a gateway charge for an accepted booking. While a
// pending charge exists it is returned instead of creating another.
func (s *DefaultBookingService) CreatePaymentIntent(ctx context.Context, bookingID, renterClerkID string) (*models.PaymentIntentResult, error) {
	b, err := s.load(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if err := authorize(b, renterClerkID, models.PartyRenter); err != nil {
		return nil, err
	}
	if b.Status != models.BookingPendingPayment || b.PaymentStatus == models.PaymentPaid {
		return nil, newError(KindInvalidState, "booking %s is not awaiting payment", b.ID)
	}

	payments, err := s.Payments.FindByBooking(ctx, b.ID)
	if err != nil {
		return nil, err
	}
	if paymentRepo.Successful(payments) != nil {
		return nil, newError(KindInvalidState, "booking %s is already paid", b.ID)
	}
	for i := range payments {
		if payments[i].Status != models.PaymentRecordPending {
			continue
		}
		charge, err := s.Processor.GetCharge(ctx, payments[i].ChargeID)
		if err != nil {
			return nil, newError(KindPaymentFailed, "could not load charge %s: %v", payments[i].ChargeID, err)
		}
		return &models.PaymentIntentResult{Payment: &payments[i], ClientSecret: charge.ClientSecret}, nil
	}

	charge, err := s.Processor.CreateCharge(ctx, payment.ChargeRequest{
		BookingID:      b.ID,
		Amount:         b.TotalPrice,
		Currency:       s.Currency,
		IdempotencyKey: fmt.Sprintf("booking-%s-%d", b.ID, len(payments)+1),
	})
	if err != nil {
		s.logger().Error("charge creation failed", zap.String("bookingID", b.ID), zap.String("op", "payment_intent"), zap.Error(err))
		return nil, newError(KindPaymentFailed, "could not create charge: %v", err)
	}

	p := &models.Payment{
		ID:            uuid.New().String(),
		BookingID:     b.ID,
		RenterClerkID: b.RenterClerkID,
		OwnerClerkID:  b.OwnerClerkID,
		ChargeID:      charge.ID,
		Amount:        b.TotalPrice,
		Currency:      s.Currency,
		PlatformFee:   b.PlatformFee,
		OwnerAmount:   b.OwnerAmount,
		Status:        models.PaymentRecordPending,
		PayoutStatus:  models.PayoutPending,
	}
	if err := s.Payments.Create(ctx, p); err != nil {
		return nil, fmt.Errorf("record payment for booking %s: %w", b.ID, err)
	}

	_, err = s.Bookings.UpdateIf(ctx, b.ID, bookingRepo.Guard{
		Statuses:         []models.BookingStatus{models.BookingPendingPayment},
		PaymentStatusNot: models.PaymentPaid,
	}, bookingRepo.Patch{PaymentStatus: utils.Ptr(models.PaymentPending)})
	if err != nil && !errors.Is(err, repository.ErrConditionNotMet) {
		s.logger().Warn("could not mark booking payment pending", zap.String("bookingID", b.ID), zap.Error(err))
	}

	return &models.PaymentIntentResult{Payment: p, ClientSecret: charge.ClientSecret}, nil
}

// ConfirmPayment records a successful charge and confirms the booking. It is
// idempotent on the charge id: repeated calls return the recorded result.
func (s *DefaultBookingService) ConfirmPayment(ctx context.Context, bookingID, chargeID string) (*models.PaymentConfirmation, error) {
	if chargeID == "" {
		return nil, newError(KindValidation, "paymentIntentId is required")
	}
	b, err := s.load(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	p, err := s.Payments.GetByChargeID(ctx, chargeID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, newError(KindNotFound, "payment %s not found", chargeID)
		}
		return nil, err
	}
	if p.BookingID != b.ID {
		return nil, newError(KindNotFound, "payment %s does not belong to booking %s", chargeID, b.ID)
	}
	if b.Status == models.BookingCancelled {
		return s.refundCancelledCharge(ctx, b, p)
	}
	recorded := p.Status == models.PaymentRecordCompleted || p.Status == models.PaymentRecordRefunded
	if recorded && b.Status != models.BookingPendingPayment {
		return &models.PaymentConfirmation{Booking: b, Payment: p, AlreadyConfirmed: true}, nil
	}

	log := s.logger().With(zap.String("bookingID", b.ID), zap.String("chargeID", chargeID), zap.String("op", "confirm_payment"))

	if b.Status != models.BookingPendingPayment {
		return nil, newError(KindInvalidState, "booking %s is %s and cannot take a payment", b.ID, b.Status)
	}
	// A recorded payment on a booking still pending_payment means an earlier
	// confirmation stopped halfway; finish the booking side only.
	if !recorded {
		p, err = s.recordCharge(ctx, b, chargeID)
		if err != nil {
			if !errors.Is(err, repository.ErrConditionNotMet) {
				return nil, err
			}
			// A concurrent confirmation recorded the charge; the booking guard
			// below decides which caller confirms the booking.
			if p, err = s.Payments.GetByChargeID(ctx, chargeID); err != nil {
				return nil, err
			}
		}
	}

	updated, err := s.Bookings.UpdateIf(ctx, b.ID, bookingRepo.Guard{
		Statuses:         []models.BookingStatus{models.BookingPendingPayment},
		PaymentStatusNot: models.PaymentPaid,
	}, bookingRepo.Patch{
		Status:        utils.Ptr(models.BookingConfirmed),
		PaymentStatus: utils.Ptr(models.PaymentPaid),
		PickupStatus:  utils.Ptr(models.PickupScheduled),
	})
	if err != nil {
		if errors.Is(err, repository.ErrConditionNotMet) {
			latest, lerr := s.load(ctx, b.ID)
			if lerr == nil && latest.Status == models.BookingConfirmed && latest.PaymentStatus == models.PaymentPaid {
				return &models.PaymentConfirmation{Booking: latest, Payment: p, AlreadyConfirmed: true}, nil
			}
			if lerr == nil && latest.Status == models.BookingCancelled {
				return s.refundCancelledCharge(ctx, latest, p)
			}
			// The charge is captured but the booking moved on; support refunds it.
			log.Error("payment captured but booking not confirmable", zap.Error(err))
			return nil, newError(KindInvalidState, "booking %s changed while the payment was confirmed", b.ID)
		}
		log.Error("payment captured but booking update failed", zap.Error(err))
		return nil, err
	}

	result := &models.PaymentConfirmation{Booking: updated, Payment: p}
	if s.Documents != nil {
		inv, err := s.Documents.Invoice(ctx, updated, p)
		if err != nil {
			log.Warn("invoice generation failed", zap.Error(err))
			result.Warnings = append(result.Warnings, "invoice generation failed: "+err.Error())
		} else {
			result.Invoice = inv
		}
	}

	var docURL string
	if result.Invoice != nil {
		docURL = result.Invoice.DocumentURL
	}
	result.Warnings = appendNote(result.Warnings, s.notify(ctx, updated, notice{
		to:     models.PartyRenter,
		typ:    models.NotifyPaymentConfirmed,
		title:  "Payment confirmed",
		body:   fmt.Sprintf("Your payment of %.2f was received. Your rental is confirmed.", updated.TotalPrice),
		amount: updated.TotalPrice,
		docURL: docURL,
		email:  true,
	}))
	result.Warnings = appendNote(result.Warnings, s.notify(ctx, updated, notice{
		to:     models.PartyOwner,
		typ:    models.NotifyPreparePickup,
		title:  "Prepare for pickup",
		body:   fmt.Sprintf("The renter has paid. Get the item ready for pickup on %s.", updated.StartDate.Format("02 Jan 2006")),
		action: "prepare_pickup",
		amount: updated.OwnerAmount,
		email:  true,
	}))
	return result, nil
}

// recordCharge verifies the charge with the gateway and marks the payment
// completed. Only one caller per charge gets past the status guard.
func (s *DefaultBookingService) recordCharge(ctx context.Context, b *models.Booking, chargeID string) (*models.Payment, error) {
	others, err := s.Payments.FindByBooking(ctx, b.ID)
	if err != nil {
		return nil, err
	}
	if paid := paymentRepo.Successful(others); paid != nil && paid.ChargeID != chargeID {
		s.logger().Error("second successful charge for booking",
			zap.String("bookingID", b.ID), zap.String("chargeID", chargeID), zap.String("paidCharge", paid.ChargeID))
		return nil, newError(KindInvalidState, "booking %s is already paid by %s", b.ID, paid.ChargeID)
	}

	charge, err := s.Processor.GetCharge(ctx, chargeID)
	if err != nil {
		s.logger().Error("charge lookup failed", zap.String("bookingID", b.ID), zap.String("chargeID", chargeID), zap.Error(err))
		return nil, fmt.Errorf("verify charge %s: %w", chargeID, err)
	}
	if charge.Status != payment.ChargeSucceeded {
		return nil, newError(KindPaymentFailed, "charge %s has not succeeded (%s)", chargeID, charge.Status)
	}

	now := s.now()
	return s.Payments.UpdateIf(ctx, chargeID,
		[]models.PaymentRecordStatus{models.PaymentRecordPending, models.PaymentRecordFailed},
		paymentRepo.Patch{Status: utils.Ptr(models.PaymentRecordCompleted), PaidAt: &now})
}

// refundCancelledCharge settles a charge that succeeded after its booking was
// cancelled: the charge is recorded as completed and then refunded in full.
// A failed refund is reported in the result and retried on the next call.
func (s *DefaultBookingService) refundCancelledCharge(ctx context.Context, b *models.Booking, p *models.Payment) (*models.PaymentConfirmation, error) {
	if p.Status == models.PaymentRecordRefunded {
		return &models.PaymentConfirmation{Booking: b, Payment: p, AlreadyConfirmed: true}, nil
	}
	if p.Status != models.PaymentRecordCompleted {
		recorded, err := s.recordCharge(ctx, b, p.ChargeID)
		switch {
		case err == nil:
			p = recorded
		case errors.Is(err, repository.ErrConditionNotMet):
			if p, err = s.Payments.GetByChargeID(ctx, p.ChargeID); err != nil {
				return nil, err
			}
			if p.Status == models.PaymentRecordRefunded {
				return &models.PaymentConfirmation{Booking: b, Payment: p, AlreadyConfirmed: true}, nil
			}
		default:
			return nil, err
		}
	}

	s.logger().Warn("charge succeeded on a cancelled booking, refunding",
		zap.String("bookingID", b.ID), zap.String("chargeID", p.ChargeID), zap.String("op", "confirm_payment"))
	result := &models.PaymentConfirmation{Booking: b, Payment: p}
	result.Booking, result.Refund, result.RefundError = s.refundPayment(ctx, b, p, "booking cancelled before payment completed")
	if result.RefundError != "" {
		return result, nil
	}
	if latest, err := s.Payments.GetByChargeID(ctx, p.ChargeID); err == nil {
		result.Payment = latest
	}
	result.Warnings = appendNote(result.Warnings, s.notify(ctx, result.Booking, notice{
		to:     models.PartyRenter,
		typ:    models.NotifyBookingCancelled,
		title:  "Payment refunded",
		body:   fmt.Sprintf("Your booking was already cancelled, so your payment of %.2f has been refunded.", result.Refund.Amount),
		amount: result.Refund.Amount,
		email:  true,
	}))
	return result, nil
}

// HandlePaymentWebhook applies a verified gateway event once. Events that fail
// with an infrastructure error are released so the gateway's retry is
// processed again.
func (s *DefaultBookingService) HandlePaymentWebhook(ctx context.Context, payload []byte, signature string) error {
	evt, err := s.Processor.ParseWebhook(payload, signature)
	if err != nil {
		return newError(KindValidation, "invalid webhook: %v", err)
	}
	log := s.logger().With(zap.String("eventID", evt.ID), zap.String("type", string(evt.Type)), zap.String("op", "payment_webhook"))

	if s.Events != nil {
		claimed, err := s.Events.Claim(ctx, evt.ID)
		if err != nil {
			return err
		}
		if !claimed {
			log.Info("duplicate webhook event ignored")
			return nil
		}
	}

	if err := s.applyPaymentEvent(ctx, evt); err != nil {
		if s.Events != nil {
			if rerr := s.Events.Release(ctx, evt.ID); rerr != nil {
				log.Error("failed to release webhook event", zap.Error(rerr))
			}
		}
		return err
	}
	return nil
}

func (s *DefaultBookingService) applyPaymentEvent(ctx context.Context, evt *payment.Event) error {
	log := s.logger().With(zap.String("eventID", evt.ID), zap.String("op", "payment_webhook"))
	if evt.Charge == nil {
		log.Debug("webhook event without charge ignored", zap.String("type", string(evt.Type)))
		return nil
	}

	p, err := s.Payments.GetByChargeID(ctx, evt.Charge.ID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			log.Warn("webhook for unknown charge", zap.String("chargeID", evt.Charge.ID))
			return nil
		}
		return err
	}

	switch evt.Type {
	case payment.EventChargeSucceeded:
		res, err := s.ConfirmPayment(ctx, p.BookingID, p.ChargeID)
		if err != nil {
			if KindOf(err) != "" {
				// Business rejections are final; retrying the event will not help.
				log.Warn("webhook payment not applied", zap.String("bookingID", p.BookingID), zap.Error(err))
				return nil
			}
			return err
		}
		if res.RefundError != "" {
			return fmt.Errorf("booking %s: %s", p.BookingID, res.RefundError)
		}
		return nil
	case payment.EventChargeFailed:
		return s.markPaymentFailed(ctx, p, evt.Charge.FailureReason)
	}
	return nil
}

func (s *DefaultBookingService) markPaymentFailed(ctx context.Context, p *models.Payment, reason string) error {
	if reason == "" {
		reason = "payment failed"
	}
	_, err := s.Payments.UpdateIf(ctx, p.ChargeID, []models.PaymentRecordStatus{models.PaymentRecordPending},
		paymentRepo.Patch{Status: utils.Ptr(models.PaymentRecordFailed), FailureReason: &reason})
	if err != nil {
		if errors.Is(err, repository.ErrConditionNotMet) {
			return nil
		}
		return err
	}

	updated, err := s.Bookings.UpdateIf(ctx, p.BookingID, bookingRepo.Guard{
		Statuses:         []models.BookingStatus{models.BookingPendingPayment},
		PaymentStatusNot: models.PaymentPaid,
	}, bookingRepo.Patch{PaymentStatus: utils.Ptr(models.PaymentFailed)})
	if err != nil {
		if errors.Is(err, repository.ErrConditionNotMet) {
			return nil
		}
		return err
	}

	s.notify(ctx, updated, notice{
		to:     models.PartyRenter,
		typ:    models.NotifyPaymentFailed,
		title:  "Payment failed",
		body:   fmt.Sprintf("Your payment could not be completed: %s. Please try again.", reason),
		action: "payment",
		amount: updated.TotalPrice,
		email:  true,
	})
	return nil
}
