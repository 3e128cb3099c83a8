package booking_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"reservelt/models"
	"reservelt/services/booking"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueCode(t *testing.T) {
	ctx := context.Background()

	t.Run("sends the code to the recipient", func(t *testing.T) {
		f := newFixture(t)
		b, _ := f.paid(t)

		res, err := f.svc.IssueCode(ctx, b.ID, models.OTPDelivery, models.PartyRenter, ownerID)
		require.NoError(t, err)
		assert.Equal(t, models.PartyRenter, res.SentTo)
		assert.Equal(t, f.clock().Add(10*time.Minute), res.ExpiresAt)

		code := f.code(t, b.ID, models.OTPDelivery)
		assert.Len(t, code, 6)
		msg := f.notifier.last(models.NotifyVerificationCode)
		require.NotNil(t, msg)
		assert.Equal(t, renterID, msg.ClerkID)
		assert.Contains(t, msg.Body, code)
		assert.Equal(t, ownerID, f.notifier.last(models.NotifyPickupRequested).ClerkID)
	})

	t.Run("reissue replaces the code and resets flags", func(t *testing.T) {
		f := newFixture(t)
		b, _ := f.paid(t)

		_, err := f.svc.IssueCode(ctx, b.ID, models.OTPDelivery, models.PartyRenter, "")
		require.NoError(t, err)
		_, err = f.svc.VerifyCode(ctx, b.ID, models.OTPDelivery, f.code(t, b.ID, models.OTPDelivery), models.PartyOwner, "")
		require.NoError(t, err)

		_, err = f.svc.IssueCode(ctx, b.ID, models.OTPDelivery, models.PartyRenter, "")
		require.NoError(t, err)
		stored, err := f.codes.Get(ctx, b.ID, models.OTPDelivery)
		require.NoError(t, err)
		assert.False(t, stored.OwnerVerified)
		assert.False(t, stored.RenterVerified)
	})

	t.Run("return needs an active rental", func(t *testing.T) {
		f := newFixture(t)
		b, _ := f.paid(t)
		_, err := f.svc.IssueCode(ctx, b.ID, models.OTPReturn, models.PartyOwner, "")
		requireKind(t, err, booking.KindInvalidState)
	})

	t.Run("delivery needs a paid booking", func(t *testing.T) {
		f := newFixture(t)
		b := f.pendingPayment(t)
		_, err := f.svc.IssueCode(ctx, b.ID, models.OTPDelivery, models.PartyOwner, "")
		requireKind(t, err, booking.KindInvalidState)
	})

	t.Run("bad input", func(t *testing.T) {
		f := newFixture(t)
		b, _ := f.paid(t)
		_, err := f.svc.IssueCode(ctx, b.ID, "pickup", models.PartyOwner, "")
		requireKind(t, err, booking.KindValidation)
		_, err = f.svc.IssueCode(ctx, b.ID, models.OTPDelivery, "admin", "")
		requireKind(t, err, booking.KindValidation)
	})
}

func TestVerifyCode_DeliveryCompletesOnSecondParty(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	b, _ := f.paid(t)

	_, err := f.svc.IssueCode(ctx, b.ID, models.OTPDelivery, models.PartyRenter, "")
	require.NoError(t, err)
	code := f.code(t, b.ID, models.OTPDelivery)

	first, err := f.svc.VerifyCode(ctx, b.ID, models.OTPDelivery, code, models.PartyOwner, ownerID)
	require.NoError(t, err)
	assert.True(t, first.OwnerVerified)
	assert.False(t, first.RenterVerified)
	assert.False(t, first.Completed)
	assert.Equal(t, models.BookingConfirmed, f.reload(t, b.ID).Status)
	assert.Equal(t, renterID, f.notifier.last(models.NotifyVerificationPending).ClerkID)

	// Same party again changes nothing and sends no second pending notice.
	_, err = f.svc.VerifyCode(ctx, b.ID, models.OTPDelivery, code, models.PartyOwner, ownerID)
	require.NoError(t, err)
	assert.Equal(t, 1, f.notifier.count(models.NotifyVerificationPending))

	second, err := f.svc.VerifyCode(ctx, b.ID, models.OTPDelivery, code, models.PartyRenter, renterID)
	require.NoError(t, err)
	assert.True(t, second.Completed)
	assert.Equal(t, models.BookingInRental, second.Booking.Status)
	assert.Equal(t, models.PickupCompleted, second.Booking.PickupStatus)
	assert.Equal(t, models.DeliveryDelivered, second.Booking.DeliveryStatus)
	assert.Equal(t, models.PayoutCompleted, second.Booking.PayoutStatus)
	require.NotNil(t, second.Transfer)
	assert.Equal(t, 900.0, second.Transfer.Amount)
	assert.Equal(t, 1, f.processor.TransferCount())
	assert.Equal(t, 2, f.notifier.count(models.NotifyDeliveryCompleted))
}

func TestVerifyCode_CompletionFiresOnce(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	b, _ := f.paid(t)

	_, err := f.svc.IssueCode(ctx, b.ID, models.OTPDelivery, models.PartyOwner, "")
	require.NoError(t, err)
	code := f.code(t, b.ID, models.OTPDelivery)
	_, err = f.svc.VerifyCode(ctx, b.ID, models.OTPDelivery, code, models.PartyOwner, "")
	require.NoError(t, err)

	var wg sync.WaitGroup
	results := make([]*models.VerificationResult, 10)
	errs := make([]error, len(results))
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = f.svc.VerifyCode(ctx, b.ID, models.OTPDelivery, code, models.PartyRenter, "")
		}(i)
	}
	wg.Wait()

	for i := range results {
		require.NoError(t, errs[i])
		assert.True(t, results[i].Completed)
	}
	assert.Equal(t, 1, f.processor.TransferCount())
	assert.Equal(t, 2, f.notifier.count(models.NotifyDeliveryCompleted))
	assert.Equal(t, 1, f.notifier.count(models.NotifyPayoutProcessed))
}

func TestVerifyCode_Rejections(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	b, _ := f.paid(t)
	_, err := f.svc.IssueCode(ctx, b.ID, models.OTPDelivery, models.PartyRenter, "")
	require.NoError(t, err)
	code := f.code(t, b.ID, models.OTPDelivery)

	_, err = f.svc.VerifyCode(ctx, b.ID, models.OTPDelivery, "000000x", models.PartyOwner, "")
	requireKind(t, err, booking.KindInvalidCode)

	_, err = f.svc.VerifyCode(ctx, b.ID, models.OTPDelivery, code, models.PartyOwner, renterID)
	requireKind(t, err, booking.KindUnauthorized)

	_, err = f.svc.VerifyCode(ctx, b.ID, models.OTPReturn, code, models.PartyOwner, "")
	requireKind(t, err, booking.KindInvalidState)

	unverified := func() {
		t.Helper()
		stored, err := f.codes.Get(ctx, b.ID, models.OTPDelivery)
		require.NoError(t, err)
		assert.False(t, stored.OwnerVerified)
		assert.False(t, stored.RenterVerified)
	}
	unverified()

	f.setNow(f.clock().Add(11 * time.Minute))
	_, err = f.svc.VerifyCode(ctx, b.ID, models.OTPDelivery, code, models.PartyOwner, "")
	requireKind(t, err, booking.KindInvalidCode)
	_, err = f.svc.VerifyCode(ctx, b.ID, models.OTPDelivery, code, models.PartyRenter, "")
	requireKind(t, err, booking.KindInvalidCode)
	unverified()
	assert.Equal(t, models.DeliveryPending, f.reload(t, b.ID).DeliveryStatus)
}

func TestVerifyCode_ReturnOnTime(t *testing.T) {
	f := newFixture(t)
	b := f.inRental(t)
	f.setNow(b.EndDate.Add(-time.Hour))

	res := f.handover(t, b.ID, models.OTPReturn)
	require.True(t, res.Completed)
	assert.False(t, res.IsLate)
	assert.Equal(t, models.BookingCompleted, res.Booking.Status)
	assert.Equal(t, models.ReturnCompleted, res.Booking.ReturnStatus)
	assert.Zero(t, res.Booking.LateFee)
	assert.Equal(t, 2, f.notifier.count(models.NotifyReturnCompleted))
	assert.Equal(t, ownerID, f.notifier.last(models.NotifyReturnInitiated).ClerkID)
}

func TestVerifyCode_ReturnLate(t *testing.T) {
	f := newFixture(t)
	b := f.inRental(t)
	f.setNow(b.EndDate.Add(2*24*time.Hour + 3*time.Hour))

	res := f.handover(t, b.ID, models.OTPReturn)
	require.True(t, res.Completed)
	assert.True(t, res.IsLate)
	assert.Equal(t, 3, res.DaysLate)
	assert.InDelta(t, 300.0, res.LateFee, 0.001)
	assert.Equal(t, models.ReturnLate, res.Booking.ReturnStatus)
	assert.InDelta(t, 300.0, f.reload(t, b.ID).LateFee, 0.001)
}

func TestVerifyCode_ReturnKeepsHigherMonitorFee(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	b := f.inRental(t)

	// Monitor already charged more than the return computes.
	high := 450.0
	_, err := f.bookings.UpdateIf(ctx, b.ID, bookingGuardInRental(), bookingLateFee(high))
	require.NoError(t, err)

	f.setNow(b.EndDate.Add(2 * time.Hour))
	res := f.handover(t, b.ID, models.OTPReturn)
	require.True(t, res.Completed)
	assert.Equal(t, 1, res.DaysLate)
	assert.Equal(t, high, res.LateFee)
}

func TestVerifyCode_LateDuplicateReturnReportsCompletion(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	b := f.inRental(t)
	f.setNow(b.EndDate.Add(-time.Hour))

	_, err := f.svc.IssueCode(ctx, b.ID, models.OTPReturn, models.PartyOwner, "")
	require.NoError(t, err)
	code := f.code(t, b.ID, models.OTPReturn)
	_, err = f.svc.VerifyCode(ctx, b.ID, models.OTPReturn, code, models.PartyOwner, "")
	require.NoError(t, err)
	_, err = f.svc.VerifyCode(ctx, b.ID, models.OTPReturn, code, models.PartyRenter, "")
	require.NoError(t, err)

	again, err := f.svc.VerifyCode(ctx, b.ID, models.OTPReturn, code, models.PartyRenter, "")
	require.NoError(t, err)
	assert.True(t, again.Completed)
	assert.Equal(t, 2, f.notifier.count(models.NotifyReturnCompleted))
}
