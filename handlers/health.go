package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"tahuri-backend/logger/sl"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthHandler struct {
	log     *slog.Logger
	db      Pinger
	env     string
	started time.Time
	now     func() time.Time
}

func NewHealthHandler(log *slog.Logger, db Pinger, env string) *HealthHandler {
	return &HealthHandler{
		log:     log.With(slog.String("handler", "health")),
		db:      db,
		env:     env,
		started: time.Now(),
		now:     time.Now,
	}
}

// Health reports 503 while the database is unreachable.
func (h *HealthHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	now := h.now()
	body := gin.H{
		"status":      "healthy",
		"database":    "ok",
		"environment": h.env,
		"uptime":      now.Sub(h.started).Round(time.Second).String(),
		"timestamp":   now.Unix(),
	}

	if err := h.db.Ping(ctx); err != nil {
		h.log.Error("database ping failed", sl.Err(err))
		body["status"] = "unhealthy"
		body["database"] = "unreachable"
		c.JSON(http.StatusServiceUnavailable, body)
		return
	}

	c.JSON(http.StatusOK, body)
}
