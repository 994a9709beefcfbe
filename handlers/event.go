package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"tahuri-backend/models"
)

type EventService interface {
	Create(ctx context.Context, req models.EventRequest) (models.Event, error)
	Update(ctx context.Context, id uuid.UUID, req models.EventRequest) (models.Event, error)
	Get(ctx context.Context, id uuid.UUID) (models.EventDetail, error)
	Find(ctx context.Context, ref string) (models.EventDetail, error)
	List(ctx context.Context, filter models.EventFilter) (models.EventPage, error)
	ListPublic(ctx context.Context) ([]models.EventDetail, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type EventHandler struct {
	log    *slog.Logger
	events EventService
}

func NewEventHandler(log *slog.Logger, events EventService) *EventHandler {
	return &EventHandler{
		log:    log.With(slog.String("handler", "event")),
		events: events,
	}
}

// GetPublicEvents lists active events with their availability.
func (h *EventHandler) GetPublicEvents(c *gin.Context) {
	events, err := h.events.ListPublic(c.Request.Context())
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"events": events})
}

// GetPublicEvent accepts an event id or code. Inactive events are hidden.
func (h *EventHandler) GetPublicEvent(c *gin.Context) {
	event, err := h.events.Find(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	if !event.IsActive() {
		c.JSON(http.StatusNotFound, gin.H{"error": "event not found"})
		return
	}

	c.JSON(http.StatusOK, event)
}

func (h *EventHandler) CreateEvent(c *gin.Context) {
	var req models.EventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	event, err := h.events.Create(c.Request.Context(), req)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusCreated, event)
}

func (h *EventHandler) GetEvents(c *gin.Context) {
	var filter models.EventFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		bindError(c, err)
		return
	}

	page, err := h.events.List(c.Request.Context(), filter)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, page)
}

func (h *EventHandler) GetEvent(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	event, err := h.events.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, event)
}

func (h *EventHandler) UpdateEvent(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	var req models.EventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	event, err := h.events.Update(c.Request.Context(), id, req)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, event)
}

// DeleteEvent answers 409 while the event still has registrations.
func (h *EventHandler) DeleteEvent(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	if err := h.events.Delete(c.Request.Context(), id); err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "event deleted"})
}
