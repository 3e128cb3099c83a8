package bookingRepo

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

// MemoryBookingRepo keeps bookings in process. Every method holds the lock for
// the whole read-check-write, which gives UpdateIf the same atomicity as the
// Mongo implementation.
type MemoryBookingRepo struct {
	mu       sync.Mutex
	bookings map[string]models.Booking
}

func NewMemoryBookingRepo() *MemoryBookingRepo {
	return &MemoryBookingRepo{bookings: make(map[string]models.Booking)}
}

func (r *MemoryBookingRepo) Create(_ context.Context, booking *models.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.bookings[booking.ID]; exists {
		return fmt.Errorf("booking %s already exists", booking.ID)
	}
	now := time.Now().UTC()
	booking.CreatedAt = now
	booking.UpdatedAt = now
	r.bookings[booking.ID] = *booking
	return nil
}

func (r *MemoryBookingRepo) GetByID(_ context.Context, id string) (*models.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	b, ok := r.bookings[id]
	if !ok {
		return nil, fmt.Errorf("booking %s: %w", id, repository.ErrNotFound)
	}
	return &b, nil
}

func (r *MemoryBookingRepo) Find(_ context.Context, filter Filter) ([]models.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []models.Booking
	for _, b := range r.bookings {
		if len(filter.Statuses) > 0 && !slices.Contains(filter.Statuses, b.Status) {
			continue
		}
		if len(filter.ReturnStatuses) > 0 && !slices.Contains(filter.ReturnStatuses, b.ReturnStatus) {
			continue
		}
		if filter.OwnerClerkID != "" && b.OwnerClerkID != filter.OwnerClerkID {
			continue
		}
		if filter.RenterClerkID != "" && b.RenterClerkID != filter.RenterClerkID {
			continue
		}
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EndDate.Before(out[j].EndDate) })
	if filter.Limit > 0 && int64(len(out)) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (r *MemoryBookingRepo) UpdateIf(_ context.Context, id string, guard Guard, patch Patch) (*models.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	b, ok := r.bookings[id]
	if !ok {
		return nil, fmt.Errorf("booking %s: %w", id, repository.ErrNotFound)
	}
	if !guard.Matches(&b) {
		return nil, fmt.Errorf("booking %s: %w", id, repository.ErrConditionNotMet)
	}
	patch.Apply(&b, time.Now().UTC())
	r.bookings[id] = b
	return &b, nil
}
