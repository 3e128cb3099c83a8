package notification

import (
	"context"
	"errors"
	"testing"

	notificationRepo "reservelt/database/repository/notification"
	userRepo "reservelt/database/repository/user"
	"reservelt/models"
	"reservelt/services/tasks"

	"firebase.google.com/go/v4/messaging"
	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePusher struct {
	sent []*messaging.Message
	err  error
}

func (p *fakePusher) Send(_ context.Context, m *messaging.Message) (string, error) {
	if p.err != nil {
		return "", p.err
	}
	p.sent = append(p.sent, m)
	return "msg_1", nil
}

type fakeQueue struct {
	tasks []*asynq.Task
}

func (q *fakeQueue) EnqueueContext(_ context.Context, task *asynq.Task, _ ...asynq.Option) (*asynq.TaskInfo, error) {
	q.tasks = append(q.tasks, task)
	return &asynq.TaskInfo{ID: "task_1"}, nil
}

func newService(t *testing.T, push Pusher) (*DefaultNotificationService, *fakeQueue) {
	t.Helper()
	users := userRepo.NewMemoryUserRepo()
	_, err := users.Upsert(context.Background(), &models.User{ClerkID: "user_renter", Name: "Ada", Email: "ada@example.com", FCMToken: "fcm_ada"})
	require.NoError(t, err)

	queue := &fakeQueue{}
	svc, err := NewDefaultNotificationService(notificationRepo.NewMemoryNotificationRepo(), users, push, queue, nil)
	require.NoError(t, err)
	return svc, queue
}

func TestNotify_InboxPushAndEmail(t *testing.T) {
	ctx := context.Background()
	pusher := &fakePusher{}
	svc, queue := newService(t, pusher)

	err := svc.Notify(ctx, Message{
		ClerkID:  "user_renter",
		Type:     models.NotifyPaymentConfirmed,
		Title:    "Payment confirmed",
		Body:     "Your booking is confirmed.",
		Metadata: &models.NoticeMetadata{BookingID: "bk_1"},
		Email:    true,
	})
	require.NoError(t, err)

	inbox, err := svc.ListForUser(ctx, "user_renter", 10)
	require.NoError(t, err)
	require.Len(t, inbox, 1)
	assert.False(t, inbox[0].IsRead)

	require.Len(t, pusher.sent, 1)
	assert.Equal(t, "fcm_ada", pusher.sent[0].Token)
	assert.Equal(t, "bk_1", pusher.sent[0].Data["bookingId"])

	require.Len(t, queue.tasks, 1)
	payload, err := tasks.ParseEmailTask(queue.tasks[0])
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", payload.To)
	assert.Contains(t, payload.HTMLBody, "Hi Ada")
	assert.Contains(t, payload.HTMLBody, "bk_1")

	read, err := svc.MarkRead(ctx, inbox[0].ID, true)
	require.NoError(t, err)
	assert.True(t, read.IsRead)
}

func TestNotify_PushFailureKeepsInboxRecord(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t, &fakePusher{err: errors.New("fcm unavailable")})

	err := svc.Notify(ctx, Message{ClerkID: "user_renter", Type: models.NotifyBookingCancelled, Title: "Cancelled"})
	require.Error(t, err)

	inbox, _ := svc.ListForUser(ctx, "user_renter", 10)
	assert.Len(t, inbox, 1)
}

func TestNotify_UnknownUserStillGetsInbox(t *testing.T) {
	ctx := context.Background()
	pusher := &fakePusher{}
	svc, queue := newService(t, pusher)

	require.NoError(t, svc.Notify(ctx, Message{ClerkID: "user_ghost", Type: models.NotifyReturnReminder, Email: true}))
	inbox, _ := svc.ListForUser(ctx, "user_ghost", 10)
	assert.Len(t, inbox, 1)
	assert.Empty(t, pusher.sent)
	assert.Empty(t, queue.tasks)

	assert.Error(t, svc.Notify(ctx, Message{Type: models.NotifyReturnReminder}))
}
