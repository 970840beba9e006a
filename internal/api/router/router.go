package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/wolfman30/sms-booking-bot/internal/http/handlers"
	httpmiddleware "github.com/wolfman30/sms-booking-bot/internal/http/middleware"
	"github.com/wolfman30/sms-booking-bot/internal/messaging"
	"github.com/wolfman30/sms-booking-bot/pkg/logging"
)

// Config holds router configuration
type Config struct {
	Logger             *logging.Logger
	MessagingHandler   *messaging.Handler
	BookingForm        *handlers.BookingFormHandler
	Reminders          *handlers.ReminderHandler
	Admin              *handlers.AdminHandler
	HealthChecks       map[string]handlers.Pinger
	AdminAuthSecret    string
	MetricsHandler     http.Handler
	CORSAllowedOrigins []string

	// Per-client limits for the public write endpoints. Zero disables limiting.
	WebhookRatePerSecond float64
	WebhookRateBurst     int
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}
	r.Use(httpmiddleware.RequestLogger(cfg.Logger))

	r.Get("/health", handlers.Health(cfg.HealthChecks))
	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	r.Group(func(public chi.Router) {
		if cfg.WebhookRatePerSecond > 0 {
			public.Use(httpmiddleware.RateLimit(cfg.WebhookRatePerSecond, cfg.WebhookRateBurst))
		}
		if cfg.MessagingHandler != nil {
			public.Post("/sms/incoming", cfg.MessagingHandler.TwilioWebhook)
		}
		if cfg.BookingForm != nil {
			public.Post("/booking", cfg.BookingForm.Submit)
		}
		if cfg.Reminders != nil {
			public.Get("/check-reminders", cfg.Reminders.Check)
		}
	})

	if cfg.Admin != nil {
		r.Route("/admin", func(admin chi.Router) {
			admin.Use(httpmiddleware.AdminJWT(cfg.AdminAuthSecret))
			admin.Get("/location", cfg.Admin.GetLocation)
			admin.Put("/location", cfg.Admin.PutLocation)
			admin.Get("/messages", cfg.Admin.ListMessages)
		})
	}

	return r
}
