package bookingRepo

import (
	"context"
	"time"

	"reservelt/models"
)

// BookingRepository defines methods for booking data access.
//
// UpdateIf is the only way a booking changes after creation: the patch is
// applied atomically and only while the stored document still satisfies the
// guard. A guard miss returns repository.ErrConditionNotMet.
type BookingRepository interface {
	// Create inserts a new booking record.
	Create(ctx context.Context, booking *models.Booking) error
	// GetByID retrieves a booking by its unique ID.
	GetByID(ctx context.Context, id string) (*models.Booking, error)
	// Find lists bookings matching the filter.
	Find(ctx context.Context, filter Filter) ([]models.Booking, error)
	// UpdateIf applies patch when guard holds and returns the updated booking.
	UpdateIf(ctx context.Context, id string, guard Guard, patch Patch) (*models.Booking, error)
}

// Filter selects bookings for listing and scanning. Zero fields are ignored.
type Filter struct {
	Statuses       []models.BookingStatus
	ReturnStatuses []models.ReturnStatus
	OwnerClerkID   string
	RenterClerkID  string
	Limit          int64
}

// Guard is the precondition checked inside a conditional update.
type Guard struct {
	Statuses          []models.BookingStatus
	DeliveryStatusNot models.DeliveryStatus
	PaymentStatusNot  models.PaymentState
	FlagUnset         models.EscalationFlag
	LateFeeBelow      *float64
	LateFeeAtMost     *float64
}

// Patch lists the fields a conditional update writes. Nil fields are left alone.
type Patch struct {
	Status         *models.BookingStatus
	PaymentStatus  *models.PaymentState
	PickupStatus   *models.PickupStatus
	DeliveryStatus *models.DeliveryStatus
	ReturnStatus   *models.ReturnStatus
	PayoutStatus   *models.PayoutStatus

	PlatformFee *float64
	OwnerAmount *float64
	LateFee     *float64

	CancelReason   *string
	DropLocation   *string
	PayoutTransfer *string

	PickupDate   *time.Time
	DeliveryDate *time.Time
	ReturnDate   *time.Time
	PayoutDate   *time.Time

	// SetFlags latches the named escalation flags to true.
	SetFlags []models.EscalationFlag
}
