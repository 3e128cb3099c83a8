package booking

import (
	"context"
	"sort"

	bookingRepo "reservelt/database/repository/booking"
	"reservelt/models"
)

func (s *DefaultBookingService) GetBooking(ctx context.Context, bookingID, actorClerkID string) (*models.Booking, error) {
	b, err := s.load(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if err := authorize(b, actorClerkID, ""); err != nil {
		return nil, err
	}
	return b, nil
}

// ListForUser returns the user's bookings as owner, renter, or both when role
// is empty, newest first.
func (s *DefaultBookingService) ListForUser(ctx context.Context, clerkID string, role models.Party) ([]models.Booking, error) {
	if clerkID == "" {
		return nil, newError(KindValidation, "clerkId is required")
	}
	if role != "" && !role.Valid() {
		return nil, newError(KindValidation, "role must be owner or renter")
	}

	var out []models.Booking
	if role == "" || role == models.PartyOwner {
		owned, err := s.Bookings.Find(ctx, bookingRepo.Filter{OwnerClerkID: clerkID})
		if err != nil {
			return nil, err
		}
		out = append(out, owned...)
	}
	if role == "" || role == models.PartyRenter {
		rented, err := s.Bookings.Find(ctx, bookingRepo.Filter{RenterClerkID: clerkID})
		if err != nil {
			return nil, err
		}
		out = append(out, rented...)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if out == nil {
		out = []models.Booking{}
	}
	return out, nil
}
