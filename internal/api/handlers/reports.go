package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cardvault/cardvault/internal/models"
	"github.com/cardvault/cardvault/internal/services"
)

type ReportHandler struct {
	builder   *services.ReportBuilder
	snapshots *services.SnapshotService
}

func NewReportHandler(builder *services.ReportBuilder, snapshots *services.SnapshotService) *ReportHandler {
	return &ReportHandler{
		builder:   builder,
		snapshots: snapshots,
	}
}

// GetReport builds the full valuation report for a user: totals, averages,
// distinct edition and grade-10 counts, and the top-5 leaderboards.
func (h *ReportHandler) GetReport(c *gin.Context) {
	userID := c.Param("userId")

	report, err := h.builder.BuildReport(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, report)
}

// GetValueHistory returns the user's daily value snapshots. The "period"
// query accepts week, month, 3month, year, or all.
func (h *ReportHandler) GetValueHistory(c *gin.Context) {
	userID := c.Param("userId")
	period := c.DefaultQuery("period", "month")

	snapshots, err := h.snapshots.GetHistory(userID, period)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, models.ValueHistoryResponse{
		Period:    period,
		Snapshots: snapshots,
	})
}

// ForceSnapshot records value snapshots for all users immediately.
func (h *ReportHandler) ForceSnapshot(c *gin.Context) {
	if err := h.snapshots.ForceTakeSnapshots(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "snapshots recorded"})
}
