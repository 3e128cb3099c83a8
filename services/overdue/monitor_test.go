package overdue

import (
	"context"
	"sync"
	"testing"
	"time"

	bookingRepo "reservelt/database/repository/booking"
	"reservelt/models"
	"reservelt/services/notification"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	mu   sync.Mutex
	msgs []notification.Message
}

func (r *recorder) Notify(_ context.Context, msg notification.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.msgs = append(r.msgs, msg)
	return nil
}

func (r *recorder) count(typ models.NotificationType) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, m := range r.msgs {
		if m.Type == typ {
			n++
		}
	}
	return n
}

var end = time.Date(2025, 3, 14, 18, 0, 0, 0, time.UTC)

func setup(t *testing.T, mutate func(b *models.Booking)) (*Monitor, *bookingRepo.MemoryBookingRepo, *recorder, string) {
	t.Helper()
	repo := bookingRepo.NewMemoryBookingRepo()
	rec := &recorder{}
	b := &models.Booking{
		ID:            "bk_1",
		OwnerClerkID:  "owner",
		RenterClerkID: "renter",
		StartDate:     end.Add(-72 * time.Hour),
		EndDate:       end,
		TotalPrice:    1000,
		Status:        models.BookingInRental,
		ReturnStatus:  models.ReturnPending,
	}
	if mutate != nil {
		mutate(b)
	}
	require.NoError(t, repo.Create(context.Background(), b))
	return NewMonitor(repo, rec, 0.05, 0.10, nil), repo, rec, b.ID
}

func load(t *testing.T, repo *bookingRepo.MemoryBookingRepo, id string) *models.Booking {
	t.Helper()
	b, err := repo.GetByID(context.Background(), id)
	require.NoError(t, err)
	return b
}

func TestScan_ReminderOnce(t *testing.T) {
	m, repo, rec, id := setup(t, nil)
	ctx := context.Background()

	report, err := m.Scan(ctx, end.Add(-5*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 1, report.Reminders)
	assert.True(t, load(t, repo, id).ReminderSent)

	report, err = m.Scan(ctx, end.Add(-5*time.Hour+time.Minute))
	require.NoError(t, err)
	assert.Zero(t, report.Reminders)
	assert.Equal(t, 1, rec.count(models.NotifyReturnReminder))
}

func TestScan_NothingBeforeReminderWindow(t *testing.T) {
	m, repo, rec, id := setup(t, nil)

	report, err := m.Scan(context.Background(), end.Add(-7*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 1, report.Scanned)
	assert.Empty(t, rec.msgs)
	assert.False(t, load(t, repo, id).ReminderSent)
}

func TestScan_DeadlineNotifiesBoth(t *testing.T) {
	m, repo, rec, id := setup(t, func(b *models.Booking) { b.ReminderSent = true })

	report, err := m.Scan(context.Background(), end.Add(10*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, 1, report.Deadlines)
	assert.Equal(t, 2, rec.count(models.NotifyReturnDeadline))
	stored := load(t, repo, id)
	assert.True(t, stored.DeadlineSent)
	assert.False(t, stored.WarningSent)
	assert.Zero(t, stored.LateFee)
}

func TestScan_WarningSetsInitialFee(t *testing.T) {
	m, repo, rec, id := setup(t, func(b *models.Booking) {
		b.ReminderSent = true
		b.DeadlineSent = true
	})
	ctx := context.Background()

	report, err := m.Scan(ctx, end.Add(45*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, 1, report.Warnings)
	stored := load(t, repo, id)
	assert.True(t, stored.WarningSent)
	assert.Equal(t, models.ReturnLate, stored.ReturnStatus)
	assert.Equal(t, 50.0, stored.LateFee)
	assert.Equal(t, 2, rec.count(models.NotifyOverdueWarning))

	_, err = m.Scan(ctx, end.Add(50*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, 2, rec.count(models.NotifyOverdueWarning))
}

func TestScan_EscalationIsMonotonic(t *testing.T) {
	m, repo, rec, id := setup(t, func(b *models.Booking) {
		b.ReminderSent = true
		b.DeadlineSent = true
		b.WarningSent = true
		b.LateFee = 50
		b.ReturnStatus = models.ReturnLate
	})
	ctx := context.Background()

	report, err := m.Scan(ctx, end.Add(25*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 1, report.Escalated)
	assert.Equal(t, 100.0, load(t, repo, id).LateFee)

	// Same day: candidate equals the stored fee.
	report, err = m.Scan(ctx, end.Add(30*time.Hour))
	require.NoError(t, err)
	assert.Zero(t, report.Escalated)

	report, err = m.Scan(ctx, end.Add(49*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 1, report.Escalated)
	assert.Equal(t, 200.0, load(t, repo, id).LateFee)
	assert.Equal(t, 2, rec.count(models.NotifyLateFeeEscalated))
}

func TestScan_FirstScanLongAfterDeadline(t *testing.T) {
	m, repo, rec, id := setup(t, nil)

	report, err := m.Scan(context.Background(), end.Add(50*time.Hour))
	require.NoError(t, err)
	assert.Zero(t, report.Reminders)
	assert.Zero(t, report.Deadlines)
	assert.Equal(t, 1, report.Warnings)
	assert.Equal(t, 1, report.Escalated)

	stored := load(t, repo, id)
	assert.True(t, stored.WarningSent)
	assert.Equal(t, 200.0, stored.LateFee)
	assert.Equal(t, 1, rec.count(models.NotifyLateFeeEscalated))
}

func TestScan_WarningNeverLowersFee(t *testing.T) {
	m, repo, _, id := setup(t, func(b *models.Booking) { b.LateFee = 120 })

	_, err := m.Scan(context.Background(), end.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 120.0, load(t, repo, id).LateFee)
}

func TestScan_IgnoresInactiveBookings(t *testing.T) {
	m, _, rec, _ := setup(t, func(b *models.Booking) { b.Status = models.BookingCompleted })

	report, err := m.Scan(context.Background(), end.Add(time.Hour))
	require.NoError(t, err)
	assert.Zero(t, report.Scanned)
	assert.Empty(t, rec.msgs)
}

func TestScan_ConcurrentScansLatchOnce(t *testing.T) {
	m, _, rec, _ := setup(t, nil)
	now := end.Add(-2 * time.Hour)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := m.Scan(context.Background(), now)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, rec.count(models.NotifyReturnReminder))
}

func TestScan_ReportUsesScanClock(t *testing.T) {
	m, _, _, _ := setup(t, nil)
	pinned := end.Add(-5 * time.Hour)

	report, err := m.Scan(context.Background(), pinned)
	require.NoError(t, err)
	assert.Equal(t, pinned, report.StartedAt)
	assert.False(t, report.FinishedAt.Before(report.StartedAt))
	assert.WithinDuration(t, pinned, report.FinishedAt, time.Second)
}
