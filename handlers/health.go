package handlers

import (
	"context"
	"net/http"

	"reservelt/models"
	"reservelt/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Health handles GET /health.
func Health(c *gin.Context) {
	status := utils.GetHealthStatus()
	c.JSON(http.StatusOK, gin.H{"status": "ok", "mongo": status.Mongo, "redis": status.Redis, "checkedAt": status.CheckedAt})
}

// OverdueRunner triggers one overdue scan outside the schedule.
type OverdueRunner interface {
	RunOnce(ctx context.Context) (models.ScanReport, bool, error)
}

// CheckOverdue handles POST /bookings/check-overdue.
func CheckOverdue(runner OverdueRunner, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		report, skipped, err := runner.RunOnce(c.Request.Context())
		if err != nil {
			logger.Error("manual overdue scan failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error", "message": "overdue scan failed"})
			return
		}
		if skipped {
			c.JSON(http.StatusAccepted, gin.H{"message": "a scan is already running", "processed": 0})
			return
		}
		c.JSON(http.StatusOK, gin.H{"processed": report.Scanned, "report": report})
	}
}
