package utils

import (
	"context"

	"go.uber.org/zap"
)

// BestEffort runs a side effect that must never fail the caller. Errors are
// logged with the supplied fields and reported as a note for the response.
func BestEffort(ctx context.Context, logger *zap.Logger, op string, fn func(context.Context) error, fields ...zap.Field) (note string) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("side effect panicked", append(fields, zap.String("op", op), zap.Any("panic", r))...)
			note = op + " failed"
		}
	}()
	if err := fn(ctx); err != nil {
		logger.Warn("side effect failed", append(fields, zap.String("op", op), zap.Error(err))...)
		return op + " failed: " + err.Error()
	}
	return ""
}

// Ptr returns a pointer to v.
func Ptr[T any](v T) *T {
	return &v
}
