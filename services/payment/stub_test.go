package payment

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryEventLedger(t *testing.T) {
	ctx := context.Background()
	l := NewMemoryEventLedger()

	ok, err := l.Claim(ctx, "evt_1")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, _ = l.Claim(ctx, "evt_1")
	assert.False(t, ok, "second delivery is a duplicate")

	require.NoError(t, l.Release(ctx, "evt_1"))
	ok, _ = l.Claim(ctx, "evt_1")
	assert.True(t, ok, "released event can be processed again")
}

func TestStubProcessor_Idempotency(t *testing.T) {
	ctx := context.Background()
	p := NewStubProcessor()

	first, err := p.CreateCharge(ctx, ChargeRequest{BookingID: "bk_1", Amount: 1000, Currency: "usd", IdempotencyKey: "charge-bk_1"})
	require.NoError(t, err)
	again, err := p.CreateCharge(ctx, ChargeRequest{BookingID: "bk_1", Amount: 1000, Currency: "usd", IdempotencyKey: "charge-bk_1"})
	require.NoError(t, err)
	assert.Equal(t, first.ID, again.ID)
	assert.Equal(t, ChargePending, first.Status)

	t1, err := p.Transfer(ctx, TransferRequest{BookingID: "bk_1", Amount: 900, Destination: "acct_owner", IdempotencyKey: "payout-bk_1"})
	require.NoError(t, err)
	t2, err := p.Transfer(ctx, TransferRequest{BookingID: "bk_1", Amount: 900, Destination: "acct_owner", IdempotencyKey: "payout-bk_1"})
	require.NoError(t, err)
	assert.Equal(t, t1, t2)
	assert.Equal(t, 1, p.TransferCount())

	p.RefundErr = errors.New("card closed")
	_, err = p.Refund(ctx, RefundRequest{ChargeID: first.ID, Amount: 1000})
	assert.Error(t, err)
}

func TestStubProcessor_ParseWebhook(t *testing.T) {
	p := NewStubProcessor()

	evt, err := p.ParseWebhook([]byte(`{"id":"evt_1","type":"payment_intent.payment_failed","chargeId":"pi_9","reason":"insufficient funds"}`), "")
	require.NoError(t, err)
	require.NotNil(t, evt.Charge)
	assert.Equal(t, ChargeFailed, evt.Charge.Status)
	assert.Equal(t, "insufficient funds", evt.Charge.FailureReason)

	c, err := p.GetCharge(context.Background(), "pi_9")
	require.NoError(t, err)
	assert.Equal(t, ChargeFailed, c.Status)

	_, err = p.ParseWebhook([]byte(`{"type":"payment_intent.succeeded"}`), "")
	assert.Error(t, err, "event id is required")
	_, err = p.ParseWebhook([]byte(`not json`), "")
	assert.Error(t, err)
}

func TestMinorUnits(t *testing.T) {
	assert.Equal(t, int64(1999), toMinorUnits(19.99))
	assert.Equal(t, int64(100000), toMinorUnits(1000))
	assert.InDelta(t, 19.99, fromMinorUnits(1999), 1e-9)
}

func TestNewProcessor(t *testing.T) {
	p, err := NewProcessor("", "", false)
	require.NoError(t, err)
	assert.IsType(t, &StubProcessor{}, p)

	_, err = NewProcessor("", "", true)
	assert.Error(t, err, "unsigned stub webhooks must never serve production")

	p, err = NewProcessor("sk_test_123", "whsec_123", true)
	require.NoError(t, err)
	assert.IsType(t, &StripeProcessor{}, p)
}
