package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"tahuri-backend/middleware"
	"tahuri-backend/models"
)

type CheckinService interface {
	Search(ctx context.Context, q models.CheckInSearchQuery) ([]models.CheckInSearchResult, error)
	CheckIn(ctx context.Context, registrationID, adminID uuid.UUID) (models.CheckInResult, error)
	Undo(ctx context.Context, registrationID, adminID uuid.UUID) (models.Registration, error)
	EventCheckIns(ctx context.Context, eventID uuid.UUID) ([]models.EventCheckIn, error)
}

type CheckinHandler struct {
	log      *slog.Logger
	checkins CheckinService
}

func NewCheckinHandler(log *slog.Logger, checkins CheckinService) *CheckinHandler {
	return &CheckinHandler{
		log:      log.With(slog.String("handler", "checkin")),
		checkins: checkins,
	}
}

// Search backs the check-in desk search box.
func (h *CheckinHandler) Search(c *gin.Context) {
	var q models.CheckInSearchQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		bindError(c, err)
		return
	}

	results, err := h.checkins.Search(c.Request.Context(), q)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"results": results})
}

func (h *CheckinHandler) CheckIn(c *gin.Context) {
	var req models.CheckInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindCheckInError(c, err)
		return
	}

	adminID, ok := middleware.AdminID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "unauthorized"})
		return
	}

	res, err := h.checkins.CheckIn(c.Request.Context(), uuid.MustParse(req.RegistrationID), adminID)
	if err != nil {
		respondCheckInError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":      true,
		"message":      "participant checked in",
		"check_in":     res.CheckIn,
		"registration": res.Registration,
	})
}

func (h *CheckinHandler) Undo(c *gin.Context) {
	var req models.CheckInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindCheckInError(c, err)
		return
	}

	adminID, ok := middleware.AdminID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "unauthorized"})
		return
	}

	reg, err := h.checkins.Undo(c.Request.Context(), uuid.MustParse(req.RegistrationID), adminID)
	if err != nil {
		respondCheckInError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":      true,
		"message":      "check-in undone",
		"registration": reg,
	})
}

// GetCheckins lists an event's check-ins, latest first.
func (h *CheckinHandler) GetCheckins(c *gin.Context) {
	eventID, ok := paramID(c, "id")
	if !ok {
		return
	}

	checkins, err := h.checkins.EventCheckIns(c.Request.Context(), eventID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"checkins": checkins})
}
