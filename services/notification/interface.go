package notification

import (
	"context"

	"reservelt/models"

	"firebase.google.com/go/v4/messaging"
	"github.com/hibiken/asynq"
)

// Message is one lifecycle notice for one user.
type Message struct {
	ClerkID  string
	Type     models.NotificationType
	Title    string
	Body     string
	Metadata *models.NoticeMetadata
	// Email also queues the notice to the user's address.
	Email bool
}

// Notifier delivers lifecycle notices: inbox record, push and optional email.
type Notifier interface {
	Notify(ctx context.Context, msg Message) error
}

// NotificationService adds the inbox read API to Notifier.
type NotificationService interface {
	Notifier
	ListForUser(ctx context.Context, clerkID string, limit int64) ([]models.Notification, error)
	Get(ctx context.Context, id string) (*models.Notification, error)
	MarkRead(ctx context.Context, id string, read bool) (*models.Notification, error)
}

// Pusher is satisfied by *messaging.Client.
type Pusher interface {
	Send(ctx context.Context, message *messaging.Message) (string, error)
}

// Enqueuer is satisfied by *asynq.Client.
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}
