package booking

import (
	"context"
	"errors"

	"reservelt/database/repository"
	"reservelt/models"
	"reservelt/services/notification"
	"reservelt/utils"

	"go.uber.org/zap"
)

type notice struct {
	to      models.Party
	typ     models.NotificationType
	title   string
	body    string
	action  string
	amount  float64
	docURL  string
	email   bool
	eventID string
}

// notify sends n through the Notifier without ever failing the caller. The
// returned note is empty on success.
func (s *DefaultBookingService) notify(ctx context.Context, b *models.Booking, n notice) string {
	if s.Notifier == nil {
		return ""
	}
	clerkID := b.RenterClerkID
	if n.to == models.PartyOwner {
		clerkID = b.OwnerClerkID
	}
	event := n.eventID
	if event == "" {
		event = string(n.typ)
	}
	msg := notification.Message{
		ClerkID: clerkID,
		Type:    n.typ,
		Title:   n.title,
		Body:    n.body,
		Email:   n.email,
		Metadata: &models.NoticeMetadata{
			BookingID:      b.ID,
			Event:          event,
			ActionRequired: n.action,
			Amount:         n.amount,
			DocumentURL:    n.docURL,
		},
	}
	return utils.BestEffort(ctx, s.logger(), "notify "+string(n.typ), func(ctx context.Context) error {
		return s.Notifier.Notify(ctx, msg)
	}, zap.String("bookingID", b.ID), zap.String("to", clerkID))
}

func (s *DefaultBookingService) notifyBoth(ctx context.Context, b *models.Booking, n notice) []string {
	var notes []string
	for _, p := range []models.Party{models.PartyRenter, models.PartyOwner} {
		n.to = p
		if note := s.notify(ctx, b, n); note != "" {
			notes = append(notes, note)
		}
	}
	return notes
}

// load fetches a booking and maps a missing record to ErrNotFound.
func (s *DefaultBookingService) load(ctx context.Context, id string) (*models.Booking, error) {
	if id == "" {
		return nil, newError(KindValidation, "booking id is required")
	}
	b, err := s.Bookings.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, newError(KindNotFound, "booking %s not found", id)
		}
		return nil, err
	}
	return b, nil
}

// authorize checks that actor, when given, is the expected party. An empty
// want accepts either party.
func authorize(b *models.Booking, actorClerkID string, want models.Party) error {
	if actorClerkID == "" {
		return nil
	}
	party, ok := b.PartyOf(actorClerkID)
	if !ok || (want != "" && party != want) {
		return newError(KindUnauthorized, "user %s may not act on booking %s", actorClerkID, b.ID)
	}
	return nil
}

func appendNote(notes []string, note string) []string {
	if note == "" {
		return notes
	}
	return append(notes, note)
}
