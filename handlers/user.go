package handlers

import (
	"net/http"

	userRepo "reservelt/database/repository/user"
	"reservelt/middleware"
	"reservelt/models"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type UserHandler struct {
	Repo   userRepo.UserRepository
	Logger *zap.Logger
}

func NewUserHandler(repo userRepo.UserRepository, logger *zap.Logger) *UserHandler {
	return &UserHandler{Repo: repo, Logger: logger}
}

// Upsert handles PUT /users/:clerkId. It keeps the directory entry used for
// notification delivery and owner payouts in sync with the identity provider.
func (h *UserHandler) Upsert(c *gin.Context) {
	clerkID := c.Param("clerkId")
	if actor := middleware.Actor(c); actor != "" && actor != clerkID {
		c.JSON(http.StatusForbidden, gin.H{"error": "unauthorized", "message": "cannot update another user"})
		return
	}
	var input struct {
		Email           string `json:"email" binding:"omitempty,email"`
		Name            string `json:"name"`
		FCMToken        string `json:"fcmToken"`
		PayoutAccountID string `json:"payoutAccountId"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err)
		return
	}
	u, err := h.Repo.Upsert(c.Request.Context(), &models.User{
		ClerkID:         clerkID,
		Email:           input.Email,
		Name:            input.Name,
		FCMToken:        input.FCMToken,
		PayoutAccountID: input.PayoutAccountID,
	})
	if err != nil {
		h.Logger.Error("failed to upsert user", zap.String("clerkID", clerkID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error", "message": "failed to save user"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": u})
}
