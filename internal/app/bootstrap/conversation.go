package bootstrap

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"google.golang.org/api/option"

	"github.com/wolfman30/sms-booking-bot/internal/calendar"
	"github.com/wolfman30/sms-booking-bot/internal/compose"
	appconfig "github.com/wolfman30/sms-booking-bot/internal/config"
	"github.com/wolfman30/sms-booking-bot/internal/conversation"
	"github.com/wolfman30/sms-booking-bot/internal/extract"
	"github.com/wolfman30/sms-booking-bot/internal/http/handlers"
	"github.com/wolfman30/sms-booking-bot/internal/location"
	"github.com/wolfman30/sms-booking-bot/internal/messaging"
	"github.com/wolfman30/sms-booking-bot/internal/observability/metrics"
	"github.com/wolfman30/sms-booking-bot/internal/reminders"
	"github.com/wolfman30/sms-booking-bot/internal/store"
	"github.com/wolfman30/sms-booking-bot/pkg/logging"
)

// BuildCalendar returns the Google Calendar service when credentials are
// configured and a no-op service otherwise.
func BuildCalendar(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) calendar.Service {
	if logger == nil {
		logger = logging.Default()
	}
	if cfg == nil {
		return calendar.NoopService{}
	}
	var opts []option.ClientOption
	switch {
	case strings.TrimSpace(cfg.GoogleCredentialsJSON) != "":
		opts = append(opts, option.WithCredentialsJSON([]byte(cfg.GoogleCredentialsJSON)))
	case strings.TrimSpace(cfg.GoogleCredentialsFile) != "":
		opts = append(opts, option.WithCredentialsFile(cfg.GoogleCredentialsFile))
	default:
		logger.Info("google calendar not configured; events will not be created")
		return calendar.NoopService{}
	}
	svc, err := calendar.NewGoogleService(ctx, cfg.GoogleCalendarID, opts...)
	if err != nil {
		logger.Warn("google calendar unavailable", "error", err)
		return calendar.NoopService{}
	}
	return svc
}

// EngineConfig maps application settings onto the booking engine.
func EngineConfig(cfg *appconfig.Config) conversation.Config {
	return conversation.Config{
		AdminNumbers:  cfg.AdminNumbers,
		ProviderName:  cfg.ProviderName,
		WebsiteURL:    cfg.WebsiteURL,
		FormURL:       cfg.BookingFormURL,
		PayID:         cfg.PayID,
		DepositAmount: cfg.DepositMandatoryAmount,
		DepositRange:  cfg.DepositSuggestedRange,
	}
}

// App is the wired service graph shared by the API server and the reminder worker.
type App struct {
	Logger              *logging.Logger
	Pool                *pgxpool.Pool
	Redis               *redis.Client
	Store               store.Store
	Locations           *location.Registry
	Sender              messaging.Sender
	Engine              *conversation.Engine
	Dispatcher          *reminders.Dispatcher
	MessagingMetrics    *metrics.MessagingMetrics
	ConversationMetrics *metrics.ConversationMetrics
}

// Build connects backing services and wires the booking engine. awsCfg may be
// nil when neither Bedrock nor SES is used.
func Build(ctx context.Context, cfg *appconfig.Config, awsCfg *aws.Config, reg prometheus.Registerer, logger *logging.Logger) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("bootstrap: config is required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	if ctx == nil {
		ctx = context.Background()
	}

	pool, err := ConnectPostgresPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	redisClient := BuildRedisClient(ctx, cfg, logger, true)

	app := &App{
		Logger:              logger,
		Pool:                pool,
		Redis:               redisClient,
		MessagingMetrics:    metrics.NewMessagingMetrics(reg),
		ConversationMetrics: metrics.NewConversationMetrics(reg),
	}
	app.Store = BuildStore(pool, cfg, logger)
	app.Locations = BuildLocationRegistry(ctx, redisClient, app.Store, logger)
	app.Sender = BuildSender(cfg, app.MessagingMetrics, logger)

	composer := compose.NewComposer(BuildPolisher(ctx, cfg, awsCfg, logger), app.ConversationMetrics, logger)
	engine, err := conversation.NewEngine(EngineConfig(cfg), conversation.Deps{
		Store:     app.Store,
		Locker:    BuildLocker(cfg, redisClient, logger),
		Extractor: extract.New(location.Cities()),
		Composer:  composer,
		Locations: app.Locations,
		Calendar:  BuildCalendar(ctx, cfg, logger),
		Sender:    app.Sender,
		Notifier:  BuildNotifier(cfg, app.Sender, BuildEmailSender(cfg, awsCfg, logger), logger),
		Metrics:   app.ConversationMetrics,
		Logger:    logger,
	})
	if err != nil {
		app.Close()
		return nil, fmt.Errorf("bootstrap: build engine: %w", err)
	}
	app.Engine = engine
	app.Dispatcher = reminders.NewDispatcher(app.Store, app.Sender, app.Locations, app.ConversationMetrics, logger)
	return app, nil
}

// HealthChecks lists the backing services /health pings.
func (a *App) HealthChecks() map[string]handlers.Pinger {
	checks := map[string]handlers.Pinger{}
	if a.Pool != nil {
		checks["postgres"] = handlers.PingFunc(a.Pool.Ping)
	}
	if a.Redis != nil {
		checks["redis"] = handlers.PingFunc(func(ctx context.Context) error {
			return a.Redis.Ping(ctx).Err()
		})
	}
	return checks
}

// Close releases pooled connections.
func (a *App) Close() {
	if a == nil {
		return
	}
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			a.Logger.Warn("failed to close redis", "error", err)
		}
	}
	if a.Pool != nil {
		a.Pool.Close()
	}
}

// NeedsAWS reports whether any configured component talks to AWS.
func NeedsAWS(cfg *appconfig.Config) bool {
	if cfg == nil {
		return false
	}
	return strings.TrimSpace(cfg.BedrockModelID) != "" || cfg.EmailProvider == "ses"
}
