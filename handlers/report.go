package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"tahuri-backend/models"
)

type ReportService interface {
	Summary(ctx context.Context) (models.DashboardSummary, error)
	EventReports(ctx context.Context) ([]models.EventReport, error)
	Trend(ctx context.Context, days int) ([]models.DailyCount, error)
	Timeline(ctx context.Context, eventID uuid.UUID) ([]models.HourlyCount, error)
	ExportCSV(ctx context.Context, eventID uuid.UUID) (string, []byte, error)
}

type ReportHandler struct {
	log     *slog.Logger
	reports ReportService
}

func NewReportHandler(log *slog.Logger, reports ReportService) *ReportHandler {
	return &ReportHandler{
		log:     log.With(slog.String("handler", "report")),
		reports: reports,
	}
}

func (h *ReportHandler) Summary(c *gin.Context) {
	summary, err := h.reports.Summary(c.Request.Context())
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, summary)
}

func (h *ReportHandler) EventReports(c *gin.Context) {
	reports, err := h.reports.EventReports(c.Request.Context())
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"events": reports})
}

// Trend reads ?days=N; a missing value falls back to the service default.
func (h *ReportHandler) Trend(c *gin.Context) {
	days := 0
	if raw := c.Query("days"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "days must be a positive number"})
			return
		}
		days = n
	}

	trend, err := h.reports.Trend(c.Request.Context(), days)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"trend": trend})
}

func (h *ReportHandler) Timeline(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	timeline, err := h.reports.Timeline(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"timeline": timeline})
}

func (h *ReportHandler) ExportCSV(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	filename, data, err := h.reports.ExportCSV(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, "text/csv; charset=utf-8", data)
}
