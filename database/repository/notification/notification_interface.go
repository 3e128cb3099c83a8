package notificationRepo

import (
	"context"

	"reservelt/models"
)

// NotificationRepository stores in-app notifications. Besides creation the only
// mutation is the read flag.
type NotificationRepository interface {
	Create(ctx context.Context, n *models.Notification) error
	// ListForUser returns a user's notifications, newest first.
	ListForUser(ctx context.Context, clerkID string, limit int64) ([]models.Notification, error)
	GetByID(ctx context.Context, id string) (*models.Notification, error)
	SetRead(ctx context.Context, id string, read bool) (*models.Notification, error)
}
