package handlers

import (
	"net/http"

	invoiceRepo "reservelt/database/repository/invoice"
	"reservelt/middleware"
	"reservelt/models"
	"reservelt/services/booking"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// BookingHandler exposes the rental lifecycle over HTTP.
type BookingHandler struct {
	Service  booking.BookingService
	Invoices invoiceRepo.InvoiceRepository
	Logger   *zap.Logger
}

func NewBookingHandler(svc booking.BookingService, invoices invoiceRepo.InvoiceRepository, logger *zap.Logger) *BookingHandler {
	return &BookingHandler{Service: svc, Invoices: invoices, Logger: logger}
}

func (h *BookingHandler) log(c *gin.Context) *zap.Logger {
	if h.Logger != nil {
		return h.Logger
	}
	return getLogger(c)
}

// CreateRentalRequest handles POST /bookings/rental-request.
func (h *BookingHandler) CreateRentalRequest(c *gin.Context) {
	var input models.RentalRequestInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err)
		return
	}
	if actor := middleware.Actor(c); actor != "" && actor != input.RenterClerkID {
		c.JSON(http.StatusForbidden, gin.H{"error": string(booking.KindUnauthorized), "message": "requests must be made by the renter"})
		return
	}
	b, err := h.Service.CreateRentalRequest(c.Request.Context(), input)
	if err != nil {
		respondError(c, h.log(c), "create_request", err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"booking": b})
}

// ownerFrom prefers the authenticated actor over the body field.
func ownerFrom(c *gin.Context, input models.OwnerDecisionInput) string {
	if actor := middleware.Actor(c); actor != "" {
		return actor
	}
	return input.OwnerClerkID
}

func (h *BookingHandler) Accept(c *gin.Context) {
	var input models.OwnerDecisionInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err)
		return
	}
	res, err := h.Service.Accept(c.Request.Context(), c.Param("id"), ownerFrom(c, input))
	if err != nil {
		respondError(c, h.log(c), "accept", err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *BookingHandler) Reject(c *gin.Context) {
	var input models.OwnerDecisionInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err)
		return
	}
	b, err := h.Service.Reject(c.Request.Context(), c.Param("id"), ownerFrom(c, input), input.Reason)
	if err != nil {
		respondError(c, h.log(c), "reject", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"booking": b})
}

func (h *BookingHandler) CreatePaymentIntent(c *gin.Context) {
	res, err := h.Service.CreatePaymentIntent(c.Request.Context(), c.Param("id"), middleware.Actor(c))
	if err != nil {
		respondError(c, h.log(c), "payment_intent", err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *BookingHandler) ConfirmPayment(c *gin.Context) {
	var input models.ConfirmPaymentInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err)
		return
	}
	res, err := h.Service.ConfirmPayment(c.Request.Context(), c.Param("id"), input.PaymentIntentID)
	if err != nil {
		respondError(c, h.log(c), "confirm_payment", err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *BookingHandler) ConfirmPickup(c *gin.Context) {
	var input models.ConfirmPickupInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err)
		return
	}
	res, err := h.Service.ConfirmPickup(c.Request.Context(), c.Param("id"), input.OwnerPayoutDestination, middleware.Actor(c))
	if err != nil {
		respondError(c, h.log(c), "confirm_pickup", err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *BookingHandler) Complete(c *gin.Context) {
	var input models.CompleteInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err)
		return
	}
	res, err := h.Service.Complete(c.Request.Context(), c.Param("id"), input.DropLocation, middleware.Actor(c))
	if err != nil {
		respondError(c, h.log(c), "complete", err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *BookingHandler) Cancel(c *gin.Context) {
	var input models.CancelInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err)
		return
	}
	res, err := h.Service.Cancel(c.Request.Context(), c.Param("id"), input.Reason, middleware.Actor(c))
	if err != nil {
		respondError(c, h.log(c), "cancel", err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// IssueCode returns a handler for POST /bookings/:id/{delivery,return}/generate-otp.
func (h *BookingHandler) IssueCode(otpType models.OTPType) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input models.IssueCodeInput
		if err := c.ShouldBindJSON(&input); err != nil {
			badRequest(c, err)
			return
		}
		res, err := h.Service.IssueCode(c.Request.Context(), c.Param("id"), otpType, input.UserType, middleware.Actor(c))
		if err != nil {
			respondError(c, h.log(c), "issue_"+string(otpType)+"_code", err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "code sent", "sentTo": res.SentTo, "expiresAt": res.ExpiresAt})
	}
}

// VerifyCode returns a handler for POST /bookings/:id/{delivery,return}/verify-otp.
func (h *BookingHandler) VerifyCode(otpType models.OTPType) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input models.VerifyCodeInput
		if err := c.ShouldBindJSON(&input); err != nil {
			badRequest(c, err)
			return
		}
		res, err := h.Service.VerifyCode(c.Request.Context(), c.Param("id"), otpType, input.OTP, input.UserType, middleware.Actor(c))
		if err != nil {
			respondError(c, h.log(c), "verify_"+string(otpType)+"_code", err)
			return
		}
		if !res.Completed {
			res.Booking = nil
		}
		c.JSON(http.StatusOK, res)
	}
}

func (h *BookingHandler) GetBooking(c *gin.Context) {
	b, err := h.Service.GetBooking(c.Request.Context(), c.Param("id"), middleware.Actor(c))
	if err != nil {
		respondError(c, h.log(c), "get_booking", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"booking": b})
}

// ListForUser handles GET /bookings/user/:clerkId?role=owner|renter.
func (h *BookingHandler) ListForUser(c *gin.Context) {
	clerkID := c.Param("clerkId")
	if actor := middleware.Actor(c); actor != "" && actor != clerkID {
		c.JSON(http.StatusForbidden, gin.H{"error": string(booking.KindUnauthorized), "message": "cannot list another user's bookings"})
		return
	}
	bookings, err := h.Service.ListForUser(c.Request.Context(), clerkID, models.Party(c.Query("role")))
	if err != nil {
		respondError(c, h.log(c), "list_bookings", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"bookings": bookings, "count": len(bookings)})
}

// ListInvoices handles GET /bookings/:id/invoices.
func (h *BookingHandler) ListInvoices(c *gin.Context) {
	b, err := h.Service.GetBooking(c.Request.Context(), c.Param("id"), middleware.Actor(c))
	if err != nil {
		respondError(c, h.log(c), "list_invoices", err)
		return
	}
	invoices, err := h.Invoices.ListByBooking(c.Request.Context(), b.ID)
	if err != nil {
		respondError(c, h.log(c), "list_invoices", err)
		return
	}
	if invoices == nil {
		invoices = []models.Invoice{}
	}
	c.JSON(http.StatusOK, gin.H{"invoices": invoices})
}
