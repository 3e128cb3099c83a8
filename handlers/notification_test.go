package handlers

import (
	"context"
	"net/http"
	"testing"

	notificationRepo "reservelt/database/repository/notification"
	userRepo "reservelt/database/repository/user"
	"reservelt/models"
	"reservelt/services/notification"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestMarkRead_OnlyOwnNotification(t *testing.T) {
	ctx := context.Background()
	repo := notificationRepo.NewMemoryNotificationRepo()
	svc, err := notification.NewDefaultNotificationService(repo, userRepo.NewMemoryUserRepo(), nil, nil, nil)
	require.NoError(t, err)
	require.NoError(t, svc.Notify(ctx, notification.Message{ClerkID: "user_renter", Type: models.NotifyPaymentConfirmed, Title: "Paid"}))
	inbox, err := svc.ListForUser(ctx, "user_renter", 10)
	require.NoError(t, err)
	require.Len(t, inbox, 1)
	id := inbox[0].ID

	router := func(actor string) *gin.Engine {
		h := NewNotificationHandler(svc, zap.NewNop())
		r := gin.New()
		r.Use(withActor(actor))
		r.PATCH("/notifications/:id/read", h.MarkRead)
		return r
	}

	w, body := doJSON(t, router("user_owner"), http.MethodPatch, "/notifications/"+id+"/read", map[string]interface{}{"isRead": true})
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "unauthorized", body["error"])
	stored, err := repo.GetByID(ctx, id)
	require.NoError(t, err)
	assert.False(t, stored.IsRead, "a stranger cannot flip the read flag")

	w, _ = doJSON(t, router("user_owner"), http.MethodPatch, "/notifications/missing/read", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, _ = doJSON(t, router("user_renter"), http.MethodPatch, "/notifications/"+id+"/read", map[string]interface{}{"isRead": true})
	assert.Equal(t, http.StatusOK, w.Code)
	stored, err = repo.GetByID(ctx, id)
	require.NoError(t, err)
	assert.True(t, stored.IsRead)
}
