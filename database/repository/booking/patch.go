package bookingRepo

import (
	"slices"
	"time"

	"reservelt/models"

	"go.mongodb.org/mongo-driver/bson"
)

// Matches evaluates the guard against an in-memory booking.
func (g Guard) Matches(b *models.Booking) bool {
	if len(g.Statuses) > 0 && !slices.Contains(g.Statuses, b.Status) {
		return false
	}
	if g.DeliveryStatusNot != "" && b.DeliveryStatus == g.DeliveryStatusNot {
		return false
	}
	if g.PaymentStatusNot != "" && b.PaymentStatus == g.PaymentStatusNot {
		return false
	}
	if g.FlagUnset != "" && b.Flag(g.FlagUnset) {
		return false
	}
	if g.LateFeeBelow != nil && !(b.LateFee < *g.LateFeeBelow) {
		return false
	}
	if g.LateFeeAtMost != nil && b.LateFee > *g.LateFeeAtMost {
		return false
	}
	return true
}

// filter renders the guard as a MongoDB filter on a single booking.
func (g Guard) filter(id string) bson.M {
	f := bson.M{"id": id}
	if len(g.Statuses) > 0 {
		f["status"] = bson.M{"$in": g.Statuses}
	}
	if g.DeliveryStatusNot != "" {
		f["delivery_status"] = bson.M{"$ne": g.DeliveryStatusNot}
	}
	if g.PaymentStatusNot != "" {
		f["payment_status"] = bson.M{"$ne": g.PaymentStatusNot}
	}
	if g.FlagUnset != "" {
		f[string(g.FlagUnset)] = bson.M{"$ne": true}
	}
	switch {
	case g.LateFeeBelow != nil && g.LateFeeAtMost != nil:
		f["late_fee"] = bson.M{"$lt": *g.LateFeeBelow, "$lte": *g.LateFeeAtMost}
	case g.LateFeeBelow != nil:
		f["late_fee"] = bson.M{"$lt": *g.LateFeeBelow}
	case g.LateFeeAtMost != nil:
		f["late_fee"] = bson.M{"$lte": *g.LateFeeAtMost}
	}
	return f
}

// Apply writes the patch onto an in-memory booking.
func (p Patch) Apply(b *models.Booking, now time.Time) {
	if p.Status != nil {
		b.Status = *p.Status
	}
	if p.PaymentStatus != nil {
		b.PaymentStatus = *p.PaymentStatus
	}
	if p.PickupStatus != nil {
		b.PickupStatus = *p.PickupStatus
	}
	if p.DeliveryStatus != nil {
		b.DeliveryStatus = *p.DeliveryStatus
	}
	if p.ReturnStatus != nil {
		b.ReturnStatus = *p.ReturnStatus
	}
	if p.PayoutStatus != nil {
		b.PayoutStatus = *p.PayoutStatus
	}
	if p.PlatformFee != nil {
		b.PlatformFee = *p.PlatformFee
	}
	if p.OwnerAmount != nil {
		b.OwnerAmount = *p.OwnerAmount
	}
	if p.LateFee != nil {
		b.LateFee = *p.LateFee
	}
	if p.CancelReason != nil {
		b.CancelReason = *p.CancelReason
	}
	if p.DropLocation != nil {
		b.DropLocation = *p.DropLocation
	}
	if p.PayoutTransfer != nil {
		b.PayoutTransfer = *p.PayoutTransfer
	}
	if p.PickupDate != nil {
		t := *p.PickupDate
		b.PickupDate = &t
	}
	if p.DeliveryDate != nil {
		t := *p.DeliveryDate
		b.DeliveryDate = &t
	}
	if p.ReturnDate != nil {
		t := *p.ReturnDate
		b.ReturnDate = &t
	}
	if p.PayoutDate != nil {
		t := *p.PayoutDate
		b.PayoutDate = &t
	}
	for _, f := range p.SetFlags {
		switch f {
		case models.FlagReminderSent:
			b.ReminderSent = true
		case models.FlagDeadlineSent:
			b.DeadlineSent = true
		case models.FlagWarningSent:
			b.WarningSent = true
		}
	}
	b.UpdatedAt = now
}

// setDocument renders the patch as the body of a $set update.
func (p Patch) setDocument(now time.Time) bson.M {
	set := bson.M{"updated_at": now}
	put := func(key string, ok bool, v interface{}) {
		if ok {
			set[key] = v
		}
	}
	put("status", p.Status != nil, deref(p.Status))
	put("payment_status", p.PaymentStatus != nil, deref(p.PaymentStatus))
	put("pickup_status", p.PickupStatus != nil, deref(p.PickupStatus))
	put("delivery_status", p.DeliveryStatus != nil, deref(p.DeliveryStatus))
	put("return_status", p.ReturnStatus != nil, deref(p.ReturnStatus))
	put("payout_status", p.PayoutStatus != nil, deref(p.PayoutStatus))
	put("platform_fee", p.PlatformFee != nil, deref(p.PlatformFee))
	put("owner_amount", p.OwnerAmount != nil, deref(p.OwnerAmount))
	put("late_fee", p.LateFee != nil, deref(p.LateFee))
	put("cancel_reason", p.CancelReason != nil, deref(p.CancelReason))
	put("drop_location", p.DropLocation != nil, deref(p.DropLocation))
	put("payout_transfer", p.PayoutTransfer != nil, deref(p.PayoutTransfer))
	put("pickup_date", p.PickupDate != nil, deref(p.PickupDate))
	put("delivery_date", p.DeliveryDate != nil, deref(p.DeliveryDate))
	put("return_date", p.ReturnDate != nil, deref(p.ReturnDate))
	put("payout_date", p.PayoutDate != nil, deref(p.PayoutDate))
	for _, f := range p.SetFlags {
		set[string(f)] = true
	}
	return set
}

func deref[T any](v *T) T {
	var zero T
	if v == nil {
		return zero
	}
	return *v
}
