package notification

import (
	"context"
	"errors"
	"fmt"

	notificationRepo "reservelt/database/repository/notification"
	userRepo "reservelt/database/repository/user"
	"reservelt/models"
	"reservelt/services/tasks"

	"firebase.google.com/go/v4/messaging"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DefaultNotificationService is the production implementation. Push and Mail
// are optional.
type DefaultNotificationService struct {
	Repo   notificationRepo.NotificationRepository
	Users  userRepo.UserRepository
	Push   Pusher
	Mail   Enqueuer
	Logger *zap.Logger
}

func NewDefaultNotificationService(
	repo notificationRepo.NotificationRepository,
	users userRepo.UserRepository,
	push Pusher,
	mail Enqueuer,
	logger *zap.Logger,
) (*DefaultNotificationService, error) {
	if repo == nil || users == nil {
		return nil, fmt.Errorf("notification service initialization error: repository is nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DefaultNotificationService{Repo: repo, Users: users, Push: push, Mail: mail, Logger: logger}, nil
}

// Notify stores the inbox record, then pushes and emails. The inbox record is
// written first; push and email failures are returned joined after it.
func (s *DefaultNotificationService) Notify(ctx context.Context, msg Message) error {
	if msg.ClerkID == "" {
		return fmt.Errorf("notify %s: empty recipient", msg.Type)
	}

	var user *models.User
	if u, err := s.Users.GetByClerkID(ctx, msg.ClerkID); err == nil {
		user = u
	}

	n := &models.Notification{
		ID:       uuid.New().String(),
		ClerkID:  msg.ClerkID,
		Type:     msg.Type,
		Title:    msg.Title,
		Message:  msg.Body,
		Metadata: msg.Metadata,
	}
	if user != nil {
		n.UserID = user.ID
	}
	if err := s.Repo.Create(ctx, n); err != nil {
		return fmt.Errorf("notify %s to %s: %w", msg.Type, msg.ClerkID, err)
	}

	if user == nil {
		return nil
	}
	var errs []error
	if err := s.push(ctx, user, msg); err != nil {
		errs = append(errs, err)
	}
	if err := s.email(ctx, user, msg); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func (s *DefaultNotificationService) push(ctx context.Context, user *models.User, msg Message) error {
	if s.Push == nil || user.FCMToken == "" {
		return nil
	}
	data := map[string]string{"type": string(msg.Type)}
	if msg.Metadata != nil && msg.Metadata.BookingID != "" {
		data["bookingId"] = msg.Metadata.BookingID
	}
	push := &messaging.Message{
		Token: user.FCMToken,
		Notification: &messaging.Notification{
			Title: msg.Title,
			Body:  msg.Body,
		},
		Data: data,
		Android: &messaging.AndroidConfig{
			Priority: "high",
		},
	}
	if _, err := s.Push.Send(ctx, push); err != nil {
		return fmt.Errorf("push %s to %s: %w", msg.Type, user.ClerkID, err)
	}
	return nil
}

func (s *DefaultNotificationService) email(ctx context.Context, user *models.User, msg Message) error {
	if !msg.Email || s.Mail == nil || user.Email == "" {
		return nil
	}
	payload := models.EmailPayload{
		To:       user.Email,
		Subject:  msg.Title,
		HTMLBody: renderEmail(user.Name, msg),
	}
	if msg.Metadata != nil {
		payload.BookingID = msg.Metadata.BookingID
	}
	task, opts, err := tasks.NewEmailTask(payload)
	if err != nil {
		return fmt.Errorf("build email task: %w", err)
	}
	if _, err := s.Mail.EnqueueContext(ctx, task, opts...); err != nil {
		return fmt.Errorf("enqueue email %s to %s: %w", msg.Type, user.ClerkID, err)
	}
	return nil
}

func (s *DefaultNotificationService) ListForUser(ctx context.Context, clerkID string, limit int64) ([]models.Notification, error) {
	return s.Repo.ListForUser(ctx, clerkID, limit)
}

func (s *DefaultNotificationService) Get(ctx context.Context, id string) (*models.Notification, error) {
	return s.Repo.GetByID(ctx, id)
}

func (s *DefaultNotificationService) MarkRead(ctx context.Context, id string, read bool) (*models.Notification, error) {
	return s.Repo.SetRead(ctx, id, read)
}
