package overdue

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"reservelt/database/repository"
	bookingRepo "reservelt/database/repository/booking"
	"reservelt/models"
	"reservelt/services/notification"
	"reservelt/utils"

	"go.uber.org/zap"
)

const (
	reminderWindow = 6 * time.Hour
	warningAfter   = 30 * time.Minute
	escalateAfter  = 24 * time.Hour
)

// Monitor advances active rentals through the time-based return thresholds.
// Each threshold is latched by a conditional update before its notice goes
// out, so overlapping scans never send the same notice twice.
type Monitor struct {
	Bookings bookingRepo.BookingRepository
	Notifier notification.Notifier
	// WarningRate is the share of the total charged once the warning fires.
	WarningRate float64
	// DailyRate is the share of the total charged per full day overdue.
	DailyRate float64
	Logger    *zap.Logger
}

func NewMonitor(bookings bookingRepo.BookingRepository, notifier notification.Notifier, warningRate, dailyRate float64, logger *zap.Logger) *Monitor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Monitor{Bookings: bookings, Notifier: notifier, WarningRate: warningRate, DailyRate: dailyRate, Logger: logger}
}

// Scan inspects every active rental once. A failure on one booking is logged
// and counted; the scan moves on.
func (m *Monitor) Scan(ctx context.Context, now time.Time) (models.ScanReport, error) {
	now = now.UTC()
	started := time.Now()
	report := models.ScanReport{StartedAt: now}

	bookings, err := m.Bookings.Find(ctx, bookingRepo.Filter{
		Statuses:       []models.BookingStatus{models.BookingInRental},
		ReturnStatuses: []models.ReturnStatus{models.ReturnPending, models.ReturnScheduled, models.ReturnLate},
	})
	if err != nil {
		return report, fmt.Errorf("list active rentals: %w", err)
	}

	for i := range bookings {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		report.Scanned++
		m.check(ctx, &bookings[i], now, &report)
	}
	// Both report timestamps are on the scan clock.
	report.FinishedAt = now.Add(time.Since(started))
	m.Logger.Info("overdue scan finished",
		zap.Int("scanned", report.Scanned),
		zap.Int("reminders", report.Reminders),
		zap.Int("deadlines", report.Deadlines),
		zap.Int("warnings", report.Warnings),
		zap.Int("escalated", report.Escalated),
		zap.Int("failed", report.Failed))
	return report, nil
}

func (m *Monitor) check(ctx context.Context, b *models.Booking, now time.Time, report *models.ScanReport) {
	overdue := now.Sub(b.EndDate)

	if overdue >= -reminderWindow && overdue <= 0 && !b.ReminderSent {
		m.step(ctx, b, report, &report.Reminders, m.remind(ctx, b))
	}
	if overdue >= 0 && overdue <= warningAfter && !b.DeadlineSent {
		m.step(ctx, b, report, &report.Deadlines, m.deadline(ctx, b))
	}
	if overdue >= warningAfter && !b.WarningSent {
		m.step(ctx, b, report, &report.Warnings, m.warn(ctx, b))
	}
	if overdue >= escalateAfter {
		m.step(ctx, b, report, &report.Escalated, m.escalate(ctx, b, overdue))
	}
}

// step records the outcome of one threshold. A lost race is neither a
// success nor a failure.
func (m *Monitor) step(_ context.Context, b *models.Booking, report *models.ScanReport, counter *int, err error) {
	switch {
	case err == nil:
		*counter++
	case errors.Is(err, repository.ErrConditionNotMet):
	default:
		report.Failed++
		m.Logger.Error("overdue step failed", zap.String("bookingID", b.ID), zap.Error(err))
	}
}

func (m *Monitor) latch(ctx context.Context, b *models.Booking, flag models.EscalationFlag, patch bookingRepo.Patch) error {
	patch.SetFlags = append(patch.SetFlags, flag)
	updated, err := m.Bookings.UpdateIf(ctx, b.ID, bookingRepo.Guard{
		Statuses:  []models.BookingStatus{models.BookingInRental},
		FlagUnset: flag,
	}, patch)
	if err != nil {
		return err
	}
	*b = *updated
	return nil
}

func (m *Monitor) remind(ctx context.Context, b *models.Booking) error {
	if err := m.latch(ctx, b, models.FlagReminderSent, bookingRepo.Patch{}); err != nil {
		return err
	}
	m.send(ctx, b, b.RenterClerkID, models.NotifyReturnReminder, "Return due soon",
		fmt.Sprintf("Your rental ends at %s. Please arrange the return.", b.EndDate.Format("02 Jan 15:04 MST")), 0)
	return nil
}

func (m *Monitor) deadline(ctx context.Context, b *models.Booking) error {
	if err := m.latch(ctx, b, models.FlagDeadlineSent, bookingRepo.Patch{}); err != nil {
		return err
	}
	body := "The rental period has ended. The item is due back now."
	m.send(ctx, b, b.RenterClerkID, models.NotifyReturnDeadline, "Return due now", body, 0)
	m.send(ctx, b, b.OwnerClerkID, models.NotifyReturnDeadline, "Return due now", body, 0)
	return nil
}

// warn applies the initial late fee. A fee already above it is kept so the
// stored fee only ever grows.
func (m *Monitor) warn(ctx context.Context, b *models.Booking) error {
	fee := max(b.LateFee, roundCents(b.TotalPrice*m.WarningRate))
	if err := m.latch(ctx, b, models.FlagWarningSent, bookingRepo.Patch{
		LateFee:      &fee,
		ReturnStatus: utils.Ptr(models.ReturnLate),
	}); err != nil {
		return err
	}
	m.send(ctx, b, b.RenterClerkID, models.NotifyOverdueWarning, "Rental overdue",
		fmt.Sprintf("Your rental is overdue. A late fee of %.2f now applies and grows daily until the item is returned.", b.LateFee), b.LateFee)
	m.send(ctx, b, b.OwnerClerkID, models.NotifyOverdueWarning, "Rental overdue",
		"The renter has not returned the item yet. Late fees are being applied.", b.LateFee)
	return nil
}

// escalate raises the fee to the per-day amount when that is strictly higher
// than what is stored. It may fire once per additional day.
func (m *Monitor) escalate(ctx context.Context, b *models.Booking, overdue time.Duration) error {
	days := math.Floor(overdue.Hours() / 24)
	candidate := roundCents(days * b.TotalPrice * m.DailyRate)
	if candidate <= b.LateFee {
		return repository.ErrConditionNotMet
	}
	updated, err := m.Bookings.UpdateIf(ctx, b.ID, bookingRepo.Guard{
		Statuses:     []models.BookingStatus{models.BookingInRental},
		LateFeeBelow: &candidate,
	}, bookingRepo.Patch{
		LateFee:      &candidate,
		ReturnStatus: utils.Ptr(models.ReturnLate),
	})
	if err != nil {
		return err
	}
	*b = *updated
	m.send(ctx, b, b.RenterClerkID, models.NotifyLateFeeEscalated, "Late fee increased",
		fmt.Sprintf("The item is %d day(s) overdue. Your late fee is now %.2f.", int(days), candidate), candidate)
	return nil
}

func (m *Monitor) send(ctx context.Context, b *models.Booking, clerkID string, typ models.NotificationType, title, body string, amount float64) {
	if m.Notifier == nil {
		return
	}
	msg := notification.Message{
		ClerkID: clerkID,
		Type:    typ,
		Title:   title,
		Body:    body,
		Email:   true,
		Metadata: &models.NoticeMetadata{
			BookingID:      b.ID,
			Event:          string(typ),
			ActionRequired: "return_item",
			Amount:         amount,
		},
	}
	utils.BestEffort(ctx, m.Logger, "notify "+string(typ), func(ctx context.Context) error {
		return m.Notifier.Notify(ctx, msg)
	}, zap.String("bookingID", b.ID), zap.String("to", clerkID))
}

func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}
