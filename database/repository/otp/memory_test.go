package otpRepo

import (
	"context"
	"testing"
	"time"

	"reservelt/database/repository"
	"reservelt/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryOTPRepo(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 3, 10, 10, 0, 0, 0, time.UTC)
	repo := NewMemoryOTPRepo()

	_, err := repo.Upsert(ctx, &models.OneTimeCode{ID: "otp_1", BookingID: "bk_1", Type: models.OTPDelivery, Code: "111111", ExpiresAt: now.Add(10 * time.Minute)})
	require.NoError(t, err)

	_, err = repo.MarkVerified(ctx, "bk_1", models.OTPDelivery, "999999", models.PartyOwner, now)
	assert.ErrorIs(t, err, repository.ErrNotFound, "wrong code")

	before, err := repo.MarkVerified(ctx, "bk_1", models.OTPDelivery, "111111", models.PartyOwner, now)
	require.NoError(t, err)
	assert.False(t, before.OwnerVerified, "returns the record before the write")

	stored, err := repo.Get(ctx, "bk_1", models.OTPDelivery)
	require.NoError(t, err)
	assert.True(t, stored.OwnerVerified)
	assert.False(t, stored.RenterVerified)

	// Reissue overwrites in place and resets both flags.
	reissued, err := repo.Upsert(ctx, &models.OneTimeCode{ID: "otp_2", BookingID: "bk_1", Type: models.OTPDelivery, Code: "222222", ExpiresAt: now.Add(20 * time.Minute)})
	require.NoError(t, err)
	assert.Equal(t, "otp_1", reissued.ID)
	assert.False(t, reissued.OwnerVerified)

	_, err = repo.MarkVerified(ctx, "bk_1", models.OTPDelivery, "111111", models.PartyRenter, now)
	assert.ErrorIs(t, err, repository.ErrNotFound, "old code is gone")

	_, err = repo.MarkVerified(ctx, "bk_1", models.OTPDelivery, "222222", models.PartyRenter, now.Add(20*time.Minute))
	assert.ErrorIs(t, err, repository.ErrNotFound, "expired at expiresAt")

	_, err = repo.MarkVerified(ctx, "bk_1", models.OTPReturn, "222222", models.PartyRenter, now)
	assert.ErrorIs(t, err, repository.ErrNotFound, "codes are per type")
}
