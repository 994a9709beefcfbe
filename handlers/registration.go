package handlers

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"tahuri-backend/logger/sl"
	"tahuri-backend/models"
)

type RegistrationService interface {
	Register(ctx context.Context, eventRef string, req models.RegisterRequest) (models.RegistrationDetail, error)
	Get(ctx context.Context, id uuid.UUID) (models.RegistrationDetail, error)
	ByTicket(ctx context.Context, ticket string) (models.RegistrationDetail, error)
	List(ctx context.Context, q models.RegistrationQuery) (models.RegistrationPage, error)
	Update(ctx context.Context, id uuid.UUID, req models.UpdateRegistrationRequest) (models.Registration, error)
	Cancel(ctx context.Context, id uuid.UUID) (models.Registration, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type TicketRenderer interface {
	Filename(reg models.RegistrationDetail) string
	Render(w io.Writer, reg models.RegistrationDetail) error
}

type RegistrationHandler struct {
	log           *slog.Logger
	registrations RegistrationService
	tickets       TicketRenderer
}

func NewRegistrationHandler(log *slog.Logger, registrations RegistrationService, tickets TicketRenderer) *RegistrationHandler {
	return &RegistrationHandler{
		log:           log.With(slog.String("handler", "registration")),
		registrations: registrations,
		tickets:       tickets,
	}
}

// Register signs a participant up for the event named by id or code.
func (h *RegistrationHandler) Register(c *gin.Context) {
	var req models.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	reg, err := h.registrations.Register(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusCreated, reg)
}

func (h *RegistrationHandler) GetTicket(c *gin.Context) {
	reg, err := h.registrations.ByTicket(c.Request.Context(), c.Param("ticketNumber"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, reg)
}

// GetTicketPDF renders into a buffer first so a render failure can still
// be answered with a JSON error.
func (h *RegistrationHandler) GetTicketPDF(c *gin.Context) {
	reg, err := h.registrations.ByTicket(c.Request.Context(), c.Param("ticketNumber"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	var buf bytes.Buffer
	if err := h.tickets.Render(&buf, reg); err != nil {
		h.log.Error("failed to render ticket", slog.String("ticket", reg.TicketNumber), sl.Err(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": msgInternal})
		return
	}

	c.Header("Content-Disposition", `inline; filename="`+h.tickets.Filename(reg)+`"`)
	c.Data(http.StatusOK, "application/pdf", buf.Bytes())
}

func (h *RegistrationHandler) GetRegistrations(c *gin.Context) {
	var q models.RegistrationQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		bindError(c, err)
		return
	}

	page, err := h.registrations.List(c.Request.Context(), q)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, page)
}

func (h *RegistrationHandler) GetRegistration(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	reg, err := h.registrations.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, reg)
}

func (h *RegistrationHandler) UpdateRegistration(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	var req models.UpdateRegistrationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	reg, err := h.registrations.Update(c.Request.Context(), id, req)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, reg)
}

func (h *RegistrationHandler) CancelRegistration(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	reg, err := h.registrations.Cancel(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, reg)
}

// DeleteRegistration refuses checked-in registrations with 409.
func (h *RegistrationHandler) DeleteRegistration(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	if err := h.registrations.Delete(c.Request.Context(), id); err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "registration deleted"})
}
