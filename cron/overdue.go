package cron

import (
	"context"
	"errors"
	"fmt"
	"time"

	"reservelt/models"

	robfig "github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

const overdueLockKey = "cron:overdue-scan"

// Scanner is the overdue monitor as seen by the scheduler.
type Scanner interface {
	Scan(ctx context.Context, now time.Time) (models.ScanReport, error)
}

// OverdueScheduler runs the overdue scan on a fixed interval. A lease keeps
// two instances from scanning at the same time.
type OverdueScheduler struct {
	scanner  Scanner
	locker   Locker
	interval time.Duration
	lockTTL  time.Duration
	logger   *zap.Logger

	cron *robfig.Cron
	// Now is the scan clock; tests pin it.
	Now func() time.Time
}

func NewOverdueScheduler(scanner Scanner, locker Locker, interval, lockTTL time.Duration, logger *zap.Logger) *OverdueScheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if lockTTL <= 0 {
		lockTTL = 5 * time.Minute
	}
	return &OverdueScheduler{scanner: scanner, locker: locker, interval: interval, lockTTL: lockTTL, logger: logger}
}

// RunOnce performs a single scan under the lease. skipped is true when another
// scan holds it.
func (s *OverdueScheduler) RunOnce(ctx context.Context) (models.ScanReport, bool, error) {
	token, ok, err := s.locker.Acquire(ctx, overdueLockKey, s.lockTTL)
	if err != nil {
		return models.ScanReport{}, false, fmt.Errorf("acquire scan lock: %w", err)
	}
	if !ok {
		s.logger.Info("overdue scan already running elsewhere, skipping")
		return models.ScanReport{}, true, nil
	}
	defer func() {
		if err := s.locker.Release(context.Background(), overdueLockKey, token); err != nil {
			s.logger.Warn("failed to release scan lock", zap.Error(err))
		}
	}()

	now := time.Now
	if s.Now != nil {
		now = s.Now
	}
	report, err := s.scanner.Scan(ctx, now())
	return report, false, err
}

// Start schedules the scan. It is a no-op when the interval is not positive.
func (s *OverdueScheduler) Start() error {
	if s.interval <= 0 {
		s.logger.Warn("overdue scan disabled", zap.Duration("interval", s.interval))
		return nil
	}
	if s.cron != nil {
		return errors.New("overdue scheduler already started")
	}
	logger := zapCronLogger{s.logger.Sugar()}
	c := robfig.New(
		robfig.WithLogger(logger),
		robfig.WithChain(robfig.Recover(logger), robfig.SkipIfStillRunning(logger)),
	)
	spec := fmt.Sprintf("@every %s", s.interval)
	if _, err := c.AddFunc(spec, s.tick); err != nil {
		return fmt.Errorf("schedule overdue scan: %w", err)
	}
	c.Start()
	s.cron = c
	s.logger.Info("overdue scan scheduled", zap.Duration("interval", s.interval))
	return nil
}

// Stop halts the schedule and waits for a running scan to finish or ctx to end.
func (s *OverdueScheduler) Stop(ctx context.Context) {
	if s.cron == nil {
		return
	}
	select {
	case <-s.cron.Stop().Done():
	case <-ctx.Done():
		s.logger.Warn("overdue scan still running at shutdown")
	}
	s.cron = nil
}

func (s *OverdueScheduler) tick() {
	ctx, cancel := context.WithTimeout(context.Background(), s.lockTTL)
	defer cancel()
	if _, _, err := s.RunOnce(ctx); err != nil {
		s.logger.Error("overdue scan failed", zap.Error(err))
	}
}

// zapCronLogger adapts zap to the cron.Logger interface.
type zapCronLogger struct {
	sugar *zap.SugaredLogger
}

func (l zapCronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.sugar.Debugw(msg, keysAndValues...)
}

func (l zapCronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.sugar.Errorw(msg, append(keysAndValues, "error", err)...)
}
