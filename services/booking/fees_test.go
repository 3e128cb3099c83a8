package booking

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSplitFee(t *testing.T) {
	tests := []struct {
		total, rate, fee, owner float64
	}{
		{1000, 0.10, 100, 900},
		{999, 0.10, 100, 899},
		{14, 0.10, 1, 13},
		{0, 0.10, 0, 0},
	}
	for _, tt := range tests {
		fee, owner := SplitFee(tt.total, tt.rate)
		assert.Equal(t, tt.fee, fee, "fee for %v", tt.total)
		assert.Equal(t, tt.owner, owner, "owner share for %v", tt.total)
		assert.Equal(t, tt.total, fee+owner)
	}
}

func TestReturnLateFee(t *testing.T) {
	end := time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		returned time.Time
		days     int
		fee      float64
	}{
		{"early", end.Add(-time.Hour), 0, 0},
		{"exactly on time", end, 0, 0},
		{"one minute late", end.Add(time.Minute), 1, 100},
		{"exactly one day", end.Add(24 * time.Hour), 1, 100},
		{"two days three hours", end.Add(51 * time.Hour), 3, 300},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			days, fee := ReturnLateFee(1000, 0.10, end, tt.returned)
			assert.Equal(t, tt.days, days)
			assert.InDelta(t, tt.fee, fee, 0.001)
		})
	}
}
