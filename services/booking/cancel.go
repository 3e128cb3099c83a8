package booking

import (
	"context"
	"fmt"

	bookingRepo "reservelt/database/repository/booking"
	paymentRepo "reservelt/database/repository/payment"
	"reservelt/models"
	"reservelt/services/payment"
	"reservelt/utils"

	"go.uber.org/zap"
)

var cancellable = []models.BookingStatus{
	models.BookingRequested,
	models.BookingPendingPayment,
	models.BookingConfirmed,
	models.BookingInRental,
}

// Cancel ends the booking and refunds a paid rental in full. The cancellation
// stands even when the refund fails; the result then carries the refund error.
func (s *DefaultBookingService) Cancel(ctx context.Context, bookingID, reason, actorClerkID string) (*models.CancelResult, error) {
	b, err := s.load(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if err := authorize(b, actorClerkID, ""); err != nil {
		return nil, err
	}

	updated, err := s.transition(ctx, b, cancellable, bookingRepo.Patch{
		Status:       utils.Ptr(models.BookingCancelled),
		CancelReason: utils.Ptr(reason),
	})
	if err != nil {
		return nil, err
	}

	result := &models.CancelResult{Booking: updated}
	if updated.PaymentStatus == models.PaymentPaid {
		result.Booking, result.Refund, result.RefundError = s.refund(ctx, updated, reason)
	}

	body := "Your booking was cancelled."
	if reason != "" {
		body = fmt.Sprintf("Your booking was cancelled: %s", reason)
	}
	if result.Refund != nil {
		body += fmt.Sprintf(" A refund of %.2f has been issued.", result.Refund.Amount)
	}
	s.notifyBoth(ctx, result.Booking, notice{
		typ:   models.NotifyBookingCancelled,
		title: "Booking cancelled",
		body:  body,
		email: true,
	})
	return result, nil
}

func (s *DefaultBookingService) refund(ctx context.Context, b *models.Booking, reason string) (*models.Booking, *models.RefundInfo, string) {
	log := s.logger().With(zap.String("bookingID", b.ID), zap.String("op", "refund"))

	payments, err := s.Payments.FindByBooking(ctx, b.ID)
	if err != nil {
		log.Error("could not load payments for refund", zap.Error(err))
		return b, nil, "refund failed: " + err.Error()
	}
	paid := paymentRepo.Successful(payments)
	if paid == nil {
		log.Error("paid booking has no completed payment")
		return b, nil, "refund failed: no completed payment found"
	}
	return s.refundPayment(ctx, b, paid, reason)
}

// refundPayment refunds paid in full and records the refund on the booking
// and the payment.
func (s *DefaultBookingService) refundPayment(ctx context.Context, b *models.Booking, paid *models.Payment, reason string) (*models.Booking, *models.RefundInfo, string) {
	log := s.logger().With(zap.String("bookingID", b.ID), zap.String("chargeID", paid.ChargeID), zap.String("op", "refund"))

	r, err := s.Processor.Refund(ctx, payment.RefundRequest{ChargeID: paid.ChargeID, Amount: b.TotalPrice, Reason: reason})
	if err != nil {
		log.Error("refund failed", zap.Error(err))
		return b, nil, "refund failed: " + err.Error()
	}

	now := s.now()
	updated, err := s.Bookings.UpdateIf(ctx, b.ID, bookingRepo.Guard{
		Statuses: []models.BookingStatus{models.BookingCancelled},
	}, bookingRepo.Patch{PaymentStatus: utils.Ptr(models.PaymentRefunded)})
	if err != nil {
		log.Error("refund issued but not recorded on booking", zap.String("refundID", r.ID), zap.Error(err))
		updated = b
	}
	if _, err := s.Payments.UpdateIf(ctx, paid.ChargeID, []models.PaymentRecordStatus{models.PaymentRecordCompleted}, paymentRepo.Patch{
		Status:       utils.Ptr(models.PaymentRecordRefunded),
		RefundID:     &r.ID,
		RefundAmount: &r.Amount,
		RefundReason: &reason,
		RefundedAt:   &now,
	}); err != nil {
		log.Error("refund issued but not recorded on payment", zap.String("refundID", r.ID), zap.Error(err))
	}
	return updated, &models.RefundInfo{RefundID: r.ID, Amount: r.Amount, Status: r.Status}, ""
}
