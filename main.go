package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/gin-gonic/gin"

	"tahuri-backend/broker"
	"tahuri-backend/cache"
	"tahuri-backend/config"
	"tahuri-backend/database"
	"tahuri-backend/handlers"
	"tahuri-backend/logger"
	"tahuri-backend/logger/sl"
	"tahuri-backend/metrics"
	"tahuri-backend/services"
	"tahuri-backend/telemetry"
	"tahuri-backend/utils"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", sl.Err(err))
		os.Exit(1)
	}

	log := logger.New(cfg.Environment, os.Stdout)
	log.Info("starting tahuri-backend", slog.String("env", cfg.Environment), slog.String("timezone", cfg.Timezone))

	if err := run(cfg, log); err != nil {
		log.Error("server stopped with error", sl.Err(err))
		os.Exit(1)
	}
	log.Info("server stopped")
}

func run(cfg *config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.Setup(ctx, cfg.OTelEndpoint)
	if err != nil {
		return err
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(flushCtx); err != nil {
			log.Warn("failed to flush traces", sl.Err(err))
		}
	}()

	pool, err := database.Connect(ctx, log, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer pool.Close()

	stats := statsCache(ctx, cfg, log)
	if c, ok := stats.(io.Closer); ok {
		defer c.Close()
	}
	publisher := messagePublisher(cfg, log)
	defer func() {
		if err := publisher.Close(); err != nil {
			log.Warn("failed to close publisher", sl.Err(err))
		}
	}()

	m := metrics.New()

	events := database.NewEventRepository(pool)
	registrations := database.NewRegistrationRepository(pool)
	checkins := database.NewCheckInRepository(pool)
	admins := database.NewAdminRepository(pool)
	reports := database.NewReportRepository(pool)

	eventService := services.NewEventService(log, events, stats)
	registrationService := services.NewRegistrationService(log, registrations, events, publisher, stats, m)
	checkinService := services.NewCheckinService(log, checkins, events, publisher, stats, m)
	reportService := services.NewReportService(log, reports, stats, events, registrations, cfg.Location())
	authService := services.NewAuthService(log, admins, cfg.JWTSecret, cfg.JWTTTL, m.FailedLogins)

	if cfg.BootstrapAdmin() {
		if _, err := authService.EnsureAdmin(ctx, cfg.AdminName, cfg.AdminEmail, cfg.AdminPassword); err != nil {
			return err
		}
	}

	if err := utils.RegisterBindings(); err != nil {
		return err
	}
	if cfg.Environment == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	router := handlers.Router{
		Log:             log,
		JWTSecret:       cfg.JWTSecret,
		CORSOrigins:     cfg.CORSOrigins,
		RequestDuration: m.RequestDuration,
		MetricsHandler:  m.Handler(),
		Events:          handlers.NewEventHandler(log, eventService),
		Registrations:   handlers.NewRegistrationHandler(log, registrationService, services.NewTicketPDF(cfg.Location())),
		Checkins:        handlers.NewCheckinHandler(log, checkinService),
		Admins:          handlers.NewAdminHandler(log, authService),
		Reports:         handlers.NewReportHandler(log, reportService),
		Health:          handlers.NewHealthHandler(log, pool, cfg.Environment),
	}.Engine()

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server starting", slog.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down", slog.Duration("timeout", cfg.ShutdownTimeout))
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// statsCache falls back to no caching when redis is not configured or down.
func statsCache(ctx context.Context, cfg *config.Config, log *slog.Logger) services.SummaryCache {
	if cfg.RedisAddr == "" {
		log.Info("redis not configured, dashboard stats are not cached")
		return cache.Disabled{}
	}

	c := cache.New(cfg.RedisAddr, cfg.RedisPassword, cfg.StatsCacheTTL)
	if err := c.Ping(ctx); err != nil {
		log.Warn("redis unreachable, dashboard stats are not cached", slog.String("addr", cfg.RedisAddr), sl.Err(err))
		_ = c.Close()
		return cache.Disabled{}
	}
	log.Info("stats cache enabled", slog.String("addr", cfg.RedisAddr), slog.Duration("ttl", cfg.StatsCacheTTL))
	return c
}

type closingPublisher interface {
	services.Publisher
	Close() error
}

func messagePublisher(cfg *config.Config, log *slog.Logger) closingPublisher {
	if len(cfg.KafkaBrokers) == 0 {
		log.Info("kafka not configured, domain messages are dropped")
		return broker.Noop{}
	}
	log.Info("publishing domain messages", slog.Any("brokers", cfg.KafkaBrokers), slog.String("topic", cfg.KafkaTopic))
	return broker.NewKafkaProducer(cfg.KafkaBrokers, cfg.KafkaTopic)
}
