package paymentRepo

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"sync"
	"time"

	"reservelt/database/repository"
	"reservelt/models"
)

// MemoryPaymentRepo is the in-process PaymentRepository.
type MemoryPaymentRepo struct {
	mu       sync.Mutex
	payments map[string]models.Payment // by charge id
}

func NewMemoryPaymentRepo() *MemoryPaymentRepo {
	return &MemoryPaymentRepo{payments: make(map[string]models.Payment)}
}

func (r *MemoryPaymentRepo) Create(_ context.Context, payment *models.Payment) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.payments[payment.ChargeID]; exists {
		return fmt.Errorf("payment for charge %s already exists", payment.ChargeID)
	}
	now := time.Now().UTC()
	payment.CreatedAt = now
	payment.UpdatedAt = now
	r.payments[payment.ChargeID] = *payment
	return nil
}

func (r *MemoryPaymentRepo) GetByChargeID(_ context.Context, chargeID string) (*models.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.payments[chargeID]
	if !ok {
		return nil, fmt.Errorf("payment for charge %s: %w", chargeID, repository.ErrNotFound)
	}
	return &p, nil
}

func (r *MemoryPaymentRepo) FindByBooking(_ context.Context, bookingID string) ([]models.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []models.Payment
	for _, p := range r.payments {
		if p.BookingID == bookingID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *MemoryPaymentRepo) UpdateIf(_ context.Context, chargeID string, from []models.PaymentRecordStatus, patch Patch) (*models.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.payments[chargeID]
	if !ok {
		return nil, fmt.Errorf("payment for charge %s: %w", chargeID, repository.ErrNotFound)
	}
	if len(from) > 0 && !slices.Contains(from, p.Status) {
		return nil, fmt.Errorf("payment for charge %s: %w", chargeID, repository.ErrConditionNotMet)
	}
	patch.Apply(&p, time.Now().UTC())
	r.payments[chargeID] = p
	return &p, nil
}
