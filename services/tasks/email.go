package tasks

import (
	"encoding/json"
	"time"

	"reservelt/models"

	"github.com/hibiken/asynq"
)

const TypeEmailSend = "email:send"

// NewEmailTask wraps an email for the async worker. Mail is retried a few
// times and then dropped.
func NewEmailTask(payload models.EmailPayload) (*asynq.Task, []asynq.Option, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return nil, nil, err
	}
	task := asynq.NewTask(TypeEmailSend, b)
	opts := []asynq.Option{
		asynq.MaxRetry(5),
		asynq.Timeout(30 * time.Second),
		asynq.Queue("default"),
	}
	return task, opts, nil
}

// ParseEmailTask decodes the payload of an email task.
func ParseEmailTask(task *asynq.Task) (models.EmailPayload, error) {
	var p models.EmailPayload
	err := json.Unmarshal(task.Payload(), &p)
	return p, err
}
