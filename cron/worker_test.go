package cron

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"reservelt/models"
	"reservelt/services/tasks"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeMailer struct {
	sent []models.EmailPayload
	err  error
}

func (m *fakeMailer) Send(_ context.Context, email models.EmailPayload) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, email)
	return nil
}

func TestHandleEmailTask(t *testing.T) {
	ctx := context.Background()
	payload := models.EmailPayload{To: "renter@example.com", Subject: "Payment confirmed", HTMLBody: "<p>ok</p>", BookingID: "bk_1"}

	t.Run("sends", func(t *testing.T) {
		mailer := &fakeMailer{}
		task, _, err := tasks.NewEmailTask(payload)
		require.NoError(t, err)

		require.NoError(t, HandleEmailTask(mailer, zap.NewNop())(ctx, task))
		require.Len(t, mailer.sent, 1)
		assert.Equal(t, payload, mailer.sent[0])
	})

	t.Run("transport error is retried", func(t *testing.T) {
		mailer := &fakeMailer{err: errors.New("smtp down")}
		task, _, err := tasks.NewEmailTask(payload)
		require.NoError(t, err)

		err = HandleEmailTask(mailer, zap.NewNop())(ctx, task)
		require.Error(t, err)
		assert.NotErrorIs(t, err, asynq.SkipRetry)
	})

	t.Run("bad payload is dropped", func(t *testing.T) {
		task := asynq.NewTask(tasks.TypeEmailSend, []byte("{"))
		err := HandleEmailTask(&fakeMailer{}, zap.NewNop())(ctx, task)
		assert.ErrorIs(t, err, asynq.SkipRetry)
	})

	t.Run("missing recipient is skipped", func(t *testing.T) {
		b, _ := json.Marshal(models.EmailPayload{Subject: "x"})
		mailer := &fakeMailer{}
		require.NoError(t, HandleEmailTask(mailer, zap.NewNop())(ctx, asynq.NewTask(tasks.TypeEmailSend, b)))
		assert.Empty(t, mailer.sent)
	})
}
