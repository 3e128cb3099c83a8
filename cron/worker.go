package cron

import (
	"context"
	"fmt"
	"time"

	"reservelt/config"
	"reservelt/services/tasks"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// EmailWorker drains the email queue through a Mailer.
type EmailWorker struct {
	srv    *asynq.Server
	mailer Mailer
	logger *zap.Logger
}

func NewEmailWorker(mailer Mailer, logger *zap.Logger) *EmailWorker {
	redisOpts := asynq.RedisClientOpt{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisQueueDB,
	}
	srv := asynq.NewServer(redisOpts, asynq.Config{
		Concurrency: 10,
		Queues:      map[string]int{"default": 1},
		Logger:      logger.Sugar(),
	})
	return &EmailWorker{srv: srv, mailer: mailer, logger: logger}
}

// Start runs the worker in the background, retrying startup with backoff.
func (w *EmailWorker) Start() {
	mux := asynq.NewServeMux()
	mux.HandleFunc(tasks.TypeEmailSend, HandleEmailTask(w.mailer, w.logger))

	go func() {
		w.logger.Info("starting email worker")
		const maxAttempts = 5
		for attempts := 1; attempts <= maxAttempts; attempts++ {
			err := w.srv.Run(mux)
			if err == nil {
				return
			}
			w.logger.Error("email worker failed to start", zap.Int("attempt", attempts), zap.Error(err))
			if attempts == maxAttempts {
				w.logger.Error("email worker gave up; emails stay queued")
				return
			}
			time.Sleep(time.Duration(attempts*2) * time.Second)
		}
	}()
}

func (w *EmailWorker) Stop() {
	w.srv.Shutdown()
}

// HandleEmailTask sends one queued email. Undecodable payloads are not retried.
func HandleEmailTask(mailer Mailer, logger *zap.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		p, err := tasks.ParseEmailTask(task)
		if err != nil {
			logger.Error("invalid email payload", zap.Error(err))
			return fmt.Errorf("decode email task: %v: %w", err, asynq.SkipRetry)
		}
		if p.To == "" {
			logger.Warn("email task without recipient", zap.String("bookingID", p.BookingID))
			return nil
		}
		if err := mailer.Send(ctx, p); err != nil {
			logger.Error("failed to send email", zap.String("to", p.To), zap.String("bookingID", p.BookingID), zap.Error(err))
			return err
		}
		logger.Info("email sent", zap.String("subject", p.Subject), zap.String("bookingID", p.BookingID))
		return nil
	}
}
