package booking_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	paymentRepo "reservelt/database/repository/payment"
	"reservelt/models"
	"reservelt/services/booking"
	"reservelt/services/payment"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreatePaymentIntent(t *testing.T) {
	ctx := context.Background()

	t.Run("reuses the pending charge", func(t *testing.T) {
		f := newFixture(t)
		b := f.pendingPayment(t)

		first, err := f.svc.CreatePaymentIntent(ctx, b.ID, renterID)
		require.NoError(t, err)
		assert.NotEmpty(t, first.ClientSecret)
		assert.Equal(t, models.PaymentPending, f.reload(t, b.ID).PaymentStatus)

		second, err := f.svc.CreatePaymentIntent(ctx, b.ID, renterID)
		require.NoError(t, err)
		assert.Equal(t, first.Payment.ChargeID, second.Payment.ChargeID)

		payments, err := f.payments.FindByBooking(ctx, b.ID)
		require.NoError(t, err)
		assert.Len(t, payments, 1)
	})

	t.Run("owner cannot pay", func(t *testing.T) {
		f := newFixture(t)
		b := f.pendingPayment(t)
		_, err := f.svc.CreatePaymentIntent(ctx, b.ID, ownerID)
		requireKind(t, err, booking.KindUnauthorized)
	})

	t.Run("not accepted yet", func(t *testing.T) {
		f := newFixture(t)
		b := f.requested(t)
		_, err := f.svc.CreatePaymentIntent(ctx, b.ID, renterID)
		requireKind(t, err, booking.KindInvalidState)
	})
}

func TestConfirmPayment(t *testing.T) {
	ctx := context.Background()

	t.Run("confirms and is idempotent", func(t *testing.T) {
		f := newFixture(t)
		b := f.pendingPayment(t)
		intent, err := f.svc.CreatePaymentIntent(ctx, b.ID, renterID)
		require.NoError(t, err)
		f.processor.SetChargeStatus(intent.Payment.ChargeID, payment.ChargeSucceeded)

		first, err := f.svc.ConfirmPayment(ctx, b.ID, intent.Payment.ChargeID)
		require.NoError(t, err)
		assert.False(t, first.AlreadyConfirmed)
		assert.Equal(t, models.BookingConfirmed, first.Booking.Status)
		assert.Equal(t, models.PaymentPaid, first.Booking.PaymentStatus)
		assert.Equal(t, models.PickupScheduled, first.Booking.PickupStatus)
		assert.Equal(t, models.PaymentRecordCompleted, first.Payment.Status)
		require.NotNil(t, first.Invoice)
		assert.Equal(t, "paid", first.Invoice.Status)

		again, err := f.svc.ConfirmPayment(ctx, b.ID, intent.Payment.ChargeID)
		require.NoError(t, err)
		assert.True(t, again.AlreadyConfirmed)
		assert.Equal(t, 1, f.notifier.count(models.NotifyPaymentConfirmed))
		assert.Equal(t, 1, f.notifier.count(models.NotifyPreparePickup))

		invoices, err := f.invoices.ListByBooking(ctx, b.ID)
		require.NoError(t, err)
		assert.Len(t, invoices, 2, "one issued on accept, one paid on confirmation")
	})

	t.Run("concurrent confirmations apply once", func(t *testing.T) {
		f := newFixture(t)
		b := f.pendingPayment(t)
		intent, err := f.svc.CreatePaymentIntent(ctx, b.ID, renterID)
		require.NoError(t, err)
		f.processor.SetChargeStatus(intent.Payment.ChargeID, payment.ChargeSucceeded)

		var wg sync.WaitGroup
		errs := make([]error, 8)
		results := make([]*models.PaymentConfirmation, len(errs))
		for i := range errs {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				results[i], errs[i] = f.svc.ConfirmPayment(ctx, b.ID, intent.Payment.ChargeID)
			}(i)
		}
		wg.Wait()

		for i, err := range errs {
			require.NoError(t, err)
			assert.Equal(t, models.BookingConfirmed, results[i].Booking.Status)
		}
		assert.Equal(t, 1, f.notifier.count(models.NotifyPaymentConfirmed))
		assert.Equal(t, models.BookingConfirmed, f.reload(t, b.ID).Status)
	})

	t.Run("charge not settled", func(t *testing.T) {
		f := newFixture(t)
		b := f.pendingPayment(t)
		intent, err := f.svc.CreatePaymentIntent(ctx, b.ID, renterID)
		require.NoError(t, err)

		_, err = f.svc.ConfirmPayment(ctx, b.ID, intent.Payment.ChargeID)
		requireKind(t, err, booking.KindPaymentFailed)
		assert.Equal(t, models.BookingPendingPayment, f.reload(t, b.ID).Status)
	})

	t.Run("unknown charge", func(t *testing.T) {
		f := newFixture(t)
		b := f.pendingPayment(t)
		_, err := f.svc.ConfirmPayment(ctx, b.ID, "pi_unknown")
		requireKind(t, err, booking.KindNotFound)
	})

	t.Run("charge of another booking", func(t *testing.T) {
		f := newFixture(t)
		a := f.pendingPayment(t)
		b := f.pendingPayment(t)
		intent, err := f.svc.CreatePaymentIntent(ctx, a.ID, renterID)
		require.NoError(t, err)
		f.processor.SetChargeStatus(intent.Payment.ChargeID, payment.ChargeSucceeded)

		_, err = f.svc.ConfirmPayment(ctx, b.ID, intent.Payment.ChargeID)
		requireKind(t, err, booking.KindNotFound)
	})
}

func webhook(id string, typ payment.EventType, chargeID string) []byte {
	return []byte(fmt.Sprintf(`{"id":%q,"type":%q,"chargeId":%q}`, id, typ, chargeID))
}

func TestHandlePaymentWebhook(t *testing.T) {
	ctx := context.Background()

	t.Run("succeeded event confirms once", func(t *testing.T) {
		f := newFixture(t)
		b := f.pendingPayment(t)
		intent, err := f.svc.CreatePaymentIntent(ctx, b.ID, renterID)
		require.NoError(t, err)

		evt := webhook("evt_1", payment.EventChargeSucceeded, intent.Payment.ChargeID)
		require.NoError(t, f.svc.HandlePaymentWebhook(ctx, evt, ""))
		require.NoError(t, f.svc.HandlePaymentWebhook(ctx, evt, ""))

		assert.Equal(t, models.BookingConfirmed, f.reload(t, b.ID).Status)
		assert.Equal(t, 1, f.notifier.count(models.NotifyPaymentConfirmed))

		// A distinct event for the same charge is also harmless.
		require.NoError(t, f.svc.HandlePaymentWebhook(ctx, webhook("evt_2", payment.EventChargeSucceeded, intent.Payment.ChargeID), ""))
		assert.Equal(t, 1, f.notifier.count(models.NotifyPaymentConfirmed))
	})

	t.Run("failed event marks the payment", func(t *testing.T) {
		f := newFixture(t)
		b := f.pendingPayment(t)
		intent, err := f.svc.CreatePaymentIntent(ctx, b.ID, renterID)
		require.NoError(t, err)

		require.NoError(t, f.svc.HandlePaymentWebhook(ctx, webhook("evt_f", payment.EventChargeFailed, intent.Payment.ChargeID), ""))

		stored := f.reload(t, b.ID)
		assert.Equal(t, models.BookingPendingPayment, stored.Status)
		assert.Equal(t, models.PaymentFailed, stored.PaymentStatus)
		p, err := f.payments.GetByChargeID(ctx, intent.Payment.ChargeID)
		require.NoError(t, err)
		assert.Equal(t, models.PaymentRecordFailed, p.Status)
		assert.Equal(t, 1, f.notifier.count(models.NotifyPaymentFailed))
	})

	t.Run("failure never overrides paid", func(t *testing.T) {
		f := newFixture(t)
		b, chargeID := f.paid(t)

		require.NoError(t, f.svc.HandlePaymentWebhook(ctx, webhook("evt_late", payment.EventChargeFailed, chargeID), ""))
		assert.Equal(t, models.PaymentPaid, f.reload(t, b.ID).PaymentStatus)
	})

	t.Run("malformed payload", func(t *testing.T) {
		f := newFixture(t)
		err := f.svc.HandlePaymentWebhook(ctx, []byte("not json"), "")
		requireKind(t, err, booking.KindValidation)
	})

	t.Run("infrastructure failure releases the event", func(t *testing.T) {
		f := newFixture(t)
		b := f.pendingPayment(t)
		intent, err := f.svc.CreatePaymentIntent(ctx, b.ID, renterID)
		require.NoError(t, err)
		evt := webhook("evt_retry", payment.EventChargeSucceeded, intent.Payment.ChargeID)

		f.svc.Payments = failingPayments{f.payments}
		assert.Error(t, f.svc.HandlePaymentWebhook(ctx, evt, ""))

		f.svc.Payments = f.payments
		require.NoError(t, f.svc.HandlePaymentWebhook(ctx, evt, ""))
		assert.Equal(t, models.BookingConfirmed, f.reload(t, b.ID).Status)
	})
}

// failingPayments fails charge lookups as an unreachable store would.
type failingPayments struct {
	paymentRepo.PaymentRepository
}

func (failingPayments) GetByChargeID(context.Context, string) (*models.Payment, error) {
	return nil, errBoom
}

func TestConfirmPayment_CancelledBooking(t *testing.T) {
	ctx := context.Background()

	t.Run("late charge is recorded and refunded once", func(t *testing.T) {
		f := newFixture(t)
		b := f.pendingPayment(t)
		intent, err := f.svc.CreatePaymentIntent(ctx, b.ID, renterID)
		require.NoError(t, err)
		_, err = f.svc.Cancel(ctx, b.ID, "changed plans", renterID)
		require.NoError(t, err)
		assert.Equal(t, 0, f.processor.RefundCount())

		f.processor.SetChargeStatus(intent.Payment.ChargeID, payment.ChargeSucceeded)
		res, err := f.svc.ConfirmPayment(ctx, b.ID, intent.Payment.ChargeID)
		require.NoError(t, err)
		assert.False(t, res.AlreadyConfirmed)
		assert.Empty(t, res.RefundError)
		require.NotNil(t, res.Refund)
		assert.Equal(t, b.TotalPrice, res.Refund.Amount)
		assert.Equal(t, models.PaymentRecordRefunded, res.Payment.Status)

		stored := f.reload(t, b.ID)
		assert.Equal(t, models.BookingCancelled, stored.Status)
		assert.Equal(t, models.PaymentRefunded, stored.PaymentStatus)
		assert.Equal(t, 1, f.processor.RefundCount())

		again, err := f.svc.ConfirmPayment(ctx, b.ID, intent.Payment.ChargeID)
		require.NoError(t, err)
		assert.True(t, again.AlreadyConfirmed)
		assert.Equal(t, 1, f.processor.RefundCount())
		assert.Equal(t, 0, f.notifier.count(models.NotifyPaymentConfirmed))
		assert.Equal(t, models.BookingCancelled, f.reload(t, b.ID).Status)
	})

	t.Run("charge confirmed before cancel is refunded by cancel", func(t *testing.T) {
		f := newFixture(t)
		b, chargeID := f.paid(t)

		res, err := f.svc.Cancel(ctx, b.ID, "changed plans", renterID)
		require.NoError(t, err)
		require.NotNil(t, res.Refund)
		assert.Equal(t, models.PaymentRefunded, res.Booking.PaymentStatus)

		again, err := f.svc.ConfirmPayment(ctx, b.ID, chargeID)
		require.NoError(t, err)
		assert.True(t, again.AlreadyConfirmed)
		assert.Equal(t, 1, f.processor.RefundCount())
	})
}

func TestHandlePaymentWebhook_Retries(t *testing.T) {
	ctx := context.Background()

	t.Run("charge lookup outage releases the event", func(t *testing.T) {
		f := newFixture(t)
		b := f.pendingPayment(t)
		intent, err := f.svc.CreatePaymentIntent(ctx, b.ID, renterID)
		require.NoError(t, err)
		evt := webhook("evt_gateway", payment.EventChargeSucceeded, intent.Payment.ChargeID)

		f.processor.GetErr = errBoom
		err = f.svc.HandlePaymentWebhook(ctx, evt, "")
		require.Error(t, err)
		assert.Empty(t, booking.KindOf(err))
		assert.Equal(t, models.BookingPendingPayment, f.reload(t, b.ID).Status)

		f.processor.GetErr = nil
		require.NoError(t, f.svc.HandlePaymentWebhook(ctx, evt, ""))
		stored := f.reload(t, b.ID)
		assert.Equal(t, models.BookingConfirmed, stored.Status)
		assert.Equal(t, models.PaymentPaid, stored.PaymentStatus)
	})

	t.Run("succeeded after cancel refunds on redelivery", func(t *testing.T) {
		f := newFixture(t)
		b := f.pendingPayment(t)
		intent, err := f.svc.CreatePaymentIntent(ctx, b.ID, renterID)
		require.NoError(t, err)
		_, err = f.svc.Cancel(ctx, b.ID, "", ownerID)
		require.NoError(t, err)
		evt := webhook("evt_late", payment.EventChargeSucceeded, intent.Payment.ChargeID)

		f.processor.RefundErr = errBoom
		require.Error(t, f.svc.HandlePaymentWebhook(ctx, evt, ""))
		p, err := f.payments.GetByChargeID(ctx, intent.Payment.ChargeID)
		require.NoError(t, err)
		assert.Equal(t, models.PaymentRecordCompleted, p.Status)

		f.processor.RefundErr = nil
		require.NoError(t, f.svc.HandlePaymentWebhook(ctx, evt, ""))
		p, err = f.payments.GetByChargeID(ctx, intent.Payment.ChargeID)
		require.NoError(t, err)
		assert.Equal(t, models.PaymentRecordRefunded, p.Status)
		assert.Equal(t, models.PaymentRefunded, f.reload(t, b.ID).PaymentStatus)
		assert.Equal(t, 1, f.processor.RefundCount())
		last := f.notifier.last(models.NotifyBookingCancelled)
		require.NotNil(t, last)
		assert.Equal(t, "Payment refunded", last.Title)
	})
}
