package handlers

import (
	"errors"
	"net/http"

	"reservelt/services/booking"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// getLogger retrieves a zap logger from the gin context or falls back to the global one.
func getLogger(c *gin.Context) *zap.Logger {
	if l, exists := c.Get("logger"); exists {
		if logger, ok := l.(*zap.Logger); ok {
			return logger
		}
	}
	return zap.L()
}

var kindStatus = map[booking.ErrorKind]int{
	booking.KindValidation:    http.StatusBadRequest,
	booking.KindNotFound:      http.StatusNotFound,
	booking.KindUnauthorized:  http.StatusForbidden,
	booking.KindInvalidState:  http.StatusConflict,
	booking.KindInvalidCode:   http.StatusUnprocessableEntity,
	booking.KindPaymentFailed: http.StatusPaymentRequired,
}

// respondError writes a booking error with its mapped status. Anything else
// is logged and reported as a 500 without details.
func respondError(c *gin.Context, logger *zap.Logger, op string, err error) {
	var be *booking.BookingError
	if errors.As(err, &be) {
		c.JSON(kindStatus[be.Kind], gin.H{"error": string(be.Kind), "message": be.Message})
		return
	}
	logger.Error("request failed", zap.String("op", op), zap.String("path", c.FullPath()), zap.Error(err))
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error", "message": "something went wrong, please retry"})
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "message": err.Error()})
}
