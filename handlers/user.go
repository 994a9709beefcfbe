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

type AuthService interface {
	Login(ctx context.Context, email, password string) (models.LoginResponse, error)
	Admin(ctx context.Context, id uuid.UUID) (models.Admin, error)
}

type AdminHandler struct {
	log  *slog.Logger
	auth AuthService
}

func NewAdminHandler(log *slog.Logger, auth AuthService) *AdminHandler {
	return &AdminHandler{
		log:  log.With(slog.String("handler", "admin")),
		auth: auth,
	}
}

// Login exchanges admin credentials for a bearer token.
func (h *AdminHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	res, err := h.auth.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, res)
}

// Me returns the admin the token was issued to.
func (h *AdminHandler) Me(c *gin.Context) {
	id, ok := middleware.AdminID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	admin, err := h.auth.Admin(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, admin)
}
