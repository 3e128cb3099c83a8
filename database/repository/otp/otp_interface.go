package otpRepo

import (
	"context"
	"time"

	"reservelt/models"
)

// OTPRepository stores at most one handover code per (booking, type).
type OTPRepository interface {
	// Upsert replaces the code for the pair in place, resetting both verified
	// flags, or inserts it when none exists.
	Upsert(ctx context.Context, code *models.OneTimeCode) (*models.OneTimeCode, error)
	// Get returns the current code for the pair, expired or not.
	Get(ctx context.Context, bookingID string, otpType models.OTPType) (*models.OneTimeCode, error)
	// MarkVerified sets the flag for party on an unexpired record whose code
	// matches, and returns the record as it was before the write. Returns
	// repository.ErrNotFound when no such record exists.
	MarkVerified(ctx context.Context, bookingID string, otpType models.OTPType, code string, party models.Party, now time.Time) (*models.OneTimeCode, error)
}

func verifiedField(p models.Party) string {
	if p == models.PartyOwner {
		return "owner_verified"
	}
	return "renter_verified"
}
