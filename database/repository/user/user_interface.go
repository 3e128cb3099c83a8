package userRepo

import (
	"context"

	"reservelt/models"
)

// UserRepository defines methods for user data access. Users are addressed by
// the external identity provider's clerk id.
type UserRepository interface {
	// GetByClerkID retrieves a user by their clerk id.
	GetByClerkID(ctx context.Context, clerkID string) (*models.User, error)
	// Upsert creates the user or refreshes their contact and payout details.
	Upsert(ctx context.Context, user *models.User) (*models.User, error)
}
