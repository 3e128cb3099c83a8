package handlers

import (
	"io"
	"net/http"

	"reservelt/services/booking"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// maxWebhookBody caps the payload read from the gateway.
const maxWebhookBody = 64 << 10

type WebhookHandler struct {
	Service booking.BookingService
	Logger  *zap.Logger
}

func NewWebhookHandler(svc booking.BookingService, logger *zap.Logger) *WebhookHandler {
	return &WebhookHandler{Service: svc, Logger: logger}
}

// PaymentEvents handles POST /webhooks/payments. The raw body is needed for
// signature verification, so it is read before any binding.
func (h *WebhookHandler) PaymentEvents(c *gin.Context) {
	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "could not read body"})
		return
	}
	err = h.Service.HandlePaymentWebhook(c.Request.Context(), payload, c.GetHeader("Stripe-Signature"))
	if err != nil {
		if booking.KindOf(err) == booking.KindValidation {
			h.Logger.Warn("rejected payment webhook", zap.Error(err))
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid event"})
			return
		}
		// Non-2xx makes the gateway redeliver.
		respondError(c, h.Logger, "payment_webhook", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"received": true})
}
