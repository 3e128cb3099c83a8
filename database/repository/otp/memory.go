package otpRepo

import (
	"context"
	"fmt"
	"sync"
	"time"

	"reservelt/database/repository"
	"reservelt/models"
)

type otpKey struct {
	bookingID string
	otpType   models.OTPType
}

// MemoryOTPRepo is the in-process OTPRepository.
type MemoryOTPRepo struct {
	mu    sync.Mutex
	codes map[otpKey]models.OneTimeCode
}

func NewMemoryOTPRepo() *MemoryOTPRepo {
	return &MemoryOTPRepo{codes: make(map[otpKey]models.OneTimeCode)}
}

func (r *MemoryOTPRepo) Upsert(_ context.Context, code *models.OneTimeCode) (*models.OneTimeCode, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := otpKey{code.BookingID, code.Type}
	stored, exists := r.codes[key]
	if !exists {
		stored = models.OneTimeCode{
			ID:        code.ID,
			BookingID: code.BookingID,
			Type:      code.Type,
			CreatedAt: code.CreatedAt,
		}
	}
	stored.Code = code.Code
	stored.ExpiresAt = code.ExpiresAt
	stored.OwnerVerified = false
	stored.RenterVerified = false
	stored.UpdatedAt = code.UpdatedAt
	r.codes[key] = stored
	return &stored, nil
}

func (r *MemoryOTPRepo) Get(_ context.Context, bookingID string, otpType models.OTPType) (*models.OneTimeCode, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	code, ok := r.codes[otpKey{bookingID, otpType}]
	if !ok {
		return nil, fmt.Errorf("%s code for booking %s: %w", otpType, bookingID, repository.ErrNotFound)
	}
	return &code, nil
}

func (r *MemoryOTPRepo) MarkVerified(_ context.Context, bookingID string, otpType models.OTPType, code string, party models.Party, now time.Time) (*models.OneTimeCode, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := otpKey{bookingID, otpType}
	stored, ok := r.codes[key]
	if !ok || stored.Code != code || !now.Before(stored.ExpiresAt) {
		return nil, fmt.Errorf("%s code for booking %s: %w", otpType, bookingID, repository.ErrNotFound)
	}
	before := stored
	if party == models.PartyOwner {
		stored.OwnerVerified = true
	} else {
		stored.RenterVerified = true
	}
	stored.UpdatedAt = now
	r.codes[key] = stored
	return &before, nil
}
