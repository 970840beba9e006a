package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/wolfman30/sms-booking-bot/cmd/mainconfig"
	"github.com/wolfman30/sms-booking-bot/internal/api/router"
	"github.com/wolfman30/sms-booking-bot/internal/app/bootstrap"
	appconfig "github.com/wolfman30/sms-booking-bot/internal/config"
	"github.com/wolfman30/sms-booking-bot/internal/http/handlers"
	"github.com/wolfman30/sms-booking-bot/internal/messaging"
	"github.com/wolfman30/sms-booking-bot/internal/reminders"
	"github.com/wolfman30/sms-booking-bot/pkg/logging"
)

func main() {
	_ = godotenv.Load()

	// Load configuration
	cfg := appconfig.Load()

	// Initialize logger
	logger := logging.New(cfg.LogLevel)
	logger.Info("starting sms-booking-bot API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	awsCfg, err := loadAWS(ctx, cfg)
	if err != nil {
		logger.Error("failed to load AWS config", "error", err)
		os.Exit(1)
	}

	registry, metricsHandler := setupMetrics()
	app, err := bootstrap.Build(ctx, cfg, awsCfg, registry, logger)
	if err != nil {
		logger.Error("failed to build application", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	r := newRouter(cfg, app, metricsHandler, logger)

	// In-process reminder polling is optional; /check-reminders serves external schedulers.
	if cfg.ReminderPollInterval > 0 {
		go reminders.NewPoller(app.Dispatcher, logger).WithInterval(cfg.ReminderPollInterval).Run(ctx)
	}

	// Create HTTP server
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
	fmt.Println("Server exited gracefully")
}

func loadAWS(ctx context.Context, cfg *appconfig.Config) (*aws.Config, error) {
	if !bootstrap.NeedsAWS(cfg) {
		return nil, nil
	}
	awsCfg, err := mainconfig.LoadAWSConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return &awsCfg, nil
}

func setupMetrics() (*prometheus.Registry, http.Handler) {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return registry, promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}

func newRouter(cfg *appconfig.Config, app *bootstrap.App, metricsHandler http.Handler, logger *logging.Logger) http.Handler {
	messagingHandler := messaging.NewHandler(cfg.WebhookAuthToken(), app.Engine, app.MessagingMetrics, logger).
		WithPublicBaseURL(cfg.PublicBaseURL)

	return router.New(&router.Config{
		Logger:               logger,
		MessagingHandler:     messagingHandler,
		BookingForm:          handlers.NewBookingFormHandler(app.Engine, logger),
		Reminders:            handlers.NewReminderHandler(app.Dispatcher, logger),
		Admin:                handlers.NewAdminHandler(app.Locations, app.Store, logger),
		HealthChecks:         app.HealthChecks(),
		AdminAuthSecret:      cfg.AdminJWTSecret,
		MetricsHandler:       metricsHandler,
		CORSAllowedOrigins:   cfg.CORSAllowedOrigins,
		WebhookRatePerSecond: cfg.WebhookRatePerSecond,
		WebhookRateBurst:     cfg.WebhookRateBurst,
	})
}
