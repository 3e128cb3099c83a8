package routes

import (
	"time"

	"reservelt/handlers"
	"reservelt/middleware"
	"reservelt/models"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// RegisterBookingRoutes mounts the rental lifecycle endpoints.
func RegisterBookingRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/api/bookings")
	api.Use(middleware.IdentityMiddleware(hb.RequireIdentity))
	{
		api.POST("/rental-request", hb.Booking.CreateRentalRequest)
		api.POST("/check-overdue", hb.CheckOverdue)
		api.GET("/user/:clerkId", hb.Booking.ListForUser)

		api.GET("/:id", hb.Booking.GetBooking)
		api.GET("/:id/invoices", hb.Booking.ListInvoices)
		api.POST("/:id/accept", hb.Booking.Accept)
		api.POST("/:id/reject", hb.Booking.Reject)
		api.POST("/:id/payment-intent", hb.Booking.CreatePaymentIntent)
		api.POST("/:id/confirm-payment", hb.Booking.ConfirmPayment)
		api.PUT("/:id/cancel", hb.Booking.Cancel)

		api.POST("/:id/delivery/generate-otp", hb.Booking.IssueCode(models.OTPDelivery))
		api.POST("/:id/delivery/verify-otp", hb.Booking.VerifyCode(models.OTPDelivery))
		api.POST("/:id/return/generate-otp", hb.Booking.IssueCode(models.OTPReturn))
		api.POST("/:id/return/verify-otp", hb.Booking.VerifyCode(models.OTPReturn))

		// Single-step handover kept for older clients.
		api.PUT("/:id/confirm-pickup", hb.Booking.ConfirmPickup)
		api.PUT("/:id/complete", hb.Booking.Complete)
	}
}

// RegisterNotificationRoutes mounts the inbox endpoints.
func RegisterNotificationRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/api/notifications")
	api.Use(middleware.IdentityMiddleware(hb.RequireIdentity))
	{
		api.GET("/:clerkId", hb.Notification.List)
		api.PATCH("/:id/read", hb.Notification.MarkRead)
	}
}

// RegisterUserRoutes mounts the user directory endpoint.
func RegisterUserRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/api/users")
	api.Use(middleware.IdentityMiddleware(hb.RequireIdentity))
	api.PUT("/:clerkId", hb.User.Upsert)
}

// RegisterWebhookRoutes mounts gateway callbacks. They authenticate by
// signature, not bearer token.
func RegisterWebhookRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	r.POST("/api/webhooks/payments", hb.Webhook.PaymentEvents)
}

func RegisterHealthRoute(r *gin.Engine, hb *handlers.HandlerBundle) {
	r.GET("/health", hb.Health)
}

// RegisterRoutes applies CORS and mounts every route group.
func RegisterRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "Stripe-Signature"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	RegisterHealthRoute(r, hb)
	RegisterWebhookRoutes(r, hb)
	RegisterBookingRoutes(r, hb)
	RegisterNotificationRoutes(r, hb)
	RegisterUserRoutes(r, hb)
}
