package handler

import (
	"net/http"
	"time"

	"laxmi-billing/internal/service"

	"github.com/gin-gonic/gin"
)

type ReportHandler struct {
	Reports *service.ReportService
}

// GetCollectionsReport defaults to today when no range is given. Both bounds
// are whole days.
func (h *ReportHandler) GetCollectionsReport(c *gin.Context) {
	today := time.Now().UTC().Truncate(24 * time.Hour)
	fromStr, toStr := c.Query("from"), c.Query("to")
	if fromStr == "" {
		fromStr = today.Format("2006-01-02")
	}
	if toStr == "" {
		toStr = fromStr
	}
	from, to, ok := dateRange(c, fromStr, toStr)
	if !ok {
		return
	}
	if !to.After(*from) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "from must not be after to"})
		return
	}
	dsr, ok := optionalUintQuery(c, "dsr")
	if !ok {
		return
	}

	report, err := h.Reports.CollectionsReport(c.Request.Context(), *from, *to, dsr)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

func (h *ReportHandler) GetOutstandingReport(c *gin.Context) {
	rows, err := h.Reports.OutstandingReport(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, rows)
}

func (h *ReportHandler) GetDSRSummary(c *gin.Context) {
	day := time.Now().UTC().Truncate(24 * time.Hour)
	if raw := c.Query("date"); raw != "" {
		t, err := time.Parse("2006-01-02", raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid date, use YYYY-MM-DD"})
			return
		}
		day = t
	}
	rows, err := h.Reports.DSRSummary(c.Request.Context(), day)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"date": day.Format("2006-01-02"), "dsrs": rows})
}
