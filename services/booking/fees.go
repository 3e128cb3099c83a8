package booking

import (
	"math"
	"time"
)

// Rates are the fractions of the rental total used for fees.
type Rates struct {
	PlatformFee  float64
	DailyLateFee float64
}

// SplitFee returns the platform fee and owner share of total. The fee is
// rounded to whole currency units and the two always sum to total.
func SplitFee(total, rate float64) (platformFee, ownerAmount float64) {
	platformFee = math.Round(total * rate)
	return platformFee, total - platformFee
}

// ReturnLateFee charges every started day past end at the daily rate.
func ReturnLateFee(total, dailyRate float64, end, returnedAt time.Time) (daysLate int, fee float64) {
	if !returnedAt.After(end) {
		return 0, 0
	}
	daysLate = int(math.Ceil(returnedAt.Sub(end).Hours() / 24))
	return daysLate, roundCents(float64(daysLate) * total * dailyRate)
}

func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}
