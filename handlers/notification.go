package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"reservelt/database/repository"
	"reservelt/middleware"
	"reservelt/services/notification"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type NotificationHandler struct {
	Service notification.NotificationService
	Logger  *zap.Logger
}

func NewNotificationHandler(svc notification.NotificationService, logger *zap.Logger) *NotificationHandler {
	return &NotificationHandler{Service: svc, Logger: logger}
}

// List handles GET /notifications/:clerkId?limit=n.
func (h *NotificationHandler) List(c *gin.Context) {
	clerkID := c.Param("clerkId")
	if actor := middleware.Actor(c); actor != "" && actor != clerkID {
		c.JSON(http.StatusForbidden, gin.H{"error": "unauthorized", "message": "cannot read another user's notifications"})
		return
	}
	limit := int64(50)
	if v := c.Query("limit"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "message": "limit must be a positive integer"})
			return
		}
		limit = n
	}
	items, err := h.Service.ListForUser(c.Request.Context(), clerkID, limit)
	if err != nil {
		h.Logger.Error("failed to list notifications", zap.String("clerkID", clerkID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error", "message": "failed to list notifications"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"notifications": items})
}

// MarkRead handles PATCH /notifications/:id/read. The body may set isRead
// explicitly; it defaults to true.
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	input := struct {
		IsRead *bool `json:"isRead"`
	}{}
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&input); err != nil {
			badRequest(c, err)
			return
		}
	}
	read := true
	if input.IsRead != nil {
		read = *input.IsRead
	}
	if actor := middleware.Actor(c); actor != "" {
		current, err := h.Service.Get(c.Request.Context(), c.Param("id"))
		if err != nil {
			h.notificationError(c, err)
			return
		}
		if current.ClerkID != actor {
			c.JSON(http.StatusForbidden, gin.H{"error": "unauthorized", "message": "cannot update another user's notification"})
			return
		}
	}
	n, err := h.Service.MarkRead(c.Request.Context(), c.Param("id"), read)
	if err != nil {
		h.notificationError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"notification": n})
}

func (h *NotificationHandler) notificationError(c *gin.Context, err error) {
	if errors.Is(err, repository.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not_found", "message": "notification not found"})
		return
	}
	h.Logger.Error("failed to update notification", zap.String("id", c.Param("id")), zap.Error(err))
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error", "message": "failed to update notification"})
}
