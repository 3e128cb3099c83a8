package handlers

import (
	"github.com/gin-gonic/gin"
)

// HandlerBundle groups the endpoint handlers the router mounts.
type HandlerBundle struct {
	Booking      *BookingHandler
	Webhook      *WebhookHandler
	Notification *NotificationHandler
	User         *UserHandler

	CheckOverdue gin.HandlerFunc
	Health       gin.HandlerFunc

	// RequireIdentity rejects requests without a valid bearer token.
	RequireIdentity bool
}
