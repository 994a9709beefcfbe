package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"

	"tahuri-backend/middleware"
)

// Router wires every handler onto one gin engine.
type Router struct {
	Log         *slog.Logger
	JWTSecret   string
	CORSOrigins []string

	// optional; both nil disables request metrics and /metrics
	RequestDuration *prometheus.HistogramVec
	MetricsHandler  http.Handler

	Events        *EventHandler
	Registrations *RegistrationHandler
	Checkins      *CheckinHandler
	Admins        *AdminHandler
	Reports       *ReportHandler
	Health        *HealthHandler
}

func (r Router) Engine() *gin.Engine {
	router := gin.New()
	router.Use(middleware.Recovery(r.Log), middleware.RequestLogger(r.Log))
	if r.RequestDuration != nil {
		router.Use(middleware.Metrics(r.RequestDuration))
	}

	corsConfig := cors.DefaultConfig()
	if len(r.CORSOrigins) == 0 {
		corsConfig.AllowAllOrigins = true
	} else {
		corsConfig.AllowOrigins = r.CORSOrigins
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization"}
	corsConfig.ExposeHeaders = []string{"Content-Disposition"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	api := router.Group("/api/v1")
	{
		// Public event and ticket routes
		api.GET("/events", r.Events.GetPublicEvents)
		api.GET("/events/:id", r.Events.GetPublicEvent)
		api.POST("/events/:id/register", r.Registrations.Register)
		api.GET("/tickets/:ticketNumber", r.Registrations.GetTicket)
		api.GET("/tickets/:ticketNumber/pdf", r.Registrations.GetTicketPDF)
	}

	// Admin routes; only login is open
	router.POST("/admin/login", r.Admins.Login)

	admin := router.Group("/admin", middleware.Auth(r.JWTSecret))
	{
		admin.GET("/me", r.Admins.Me)

		// Seminar routes
		admin.GET("/seminars", r.Events.GetEvents)
		admin.POST("/seminars", r.Events.CreateEvent)
		admin.GET("/seminars/:id", r.Events.GetEvent)
		admin.PUT("/seminars/:id", r.Events.UpdateEvent)
		admin.DELETE("/seminars/:id", r.Events.DeleteEvent)
		admin.GET("/seminars/:id/checkins", r.Checkins.GetCheckins)

		// Registration routes
		admin.GET("/registrations", r.Registrations.GetRegistrations)
		admin.GET("/registrations/:id", r.Registrations.GetRegistration)
		admin.PUT("/registrations/:id", r.Registrations.UpdateRegistration)
		admin.DELETE("/registrations/:id", r.Registrations.DeleteRegistration)
		admin.POST("/registrations/:id/cancel", r.Registrations.CancelRegistration)

		// Checkin routes
		admin.GET("/checkin/search", r.Checkins.Search)
		admin.POST("/checkin/check-in", r.Checkins.CheckIn)
		admin.POST("/checkin/undo", r.Checkins.Undo)

		// Report routes
		admin.GET("/reports/summary", r.Reports.Summary)
		admin.GET("/reports/events", r.Reports.EventReports)
		admin.GET("/reports/trend", r.Reports.Trend)
		admin.GET("/reports/events/:id/timeline", r.Reports.Timeline)
		admin.GET("/reports/events/:id/export.csv", r.Reports.ExportCSV)
	}

	router.GET("/health", r.Health.Health)
	if r.MetricsHandler != nil {
		router.GET("/metrics", gin.WrapH(r.MetricsHandler))
	}

	return router
}
