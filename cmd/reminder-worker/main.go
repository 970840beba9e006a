package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/wolfman30/sms-booking-bot/cmd/mainconfig"
	"github.com/wolfman30/sms-booking-bot/internal/app/bootstrap"
	appconfig "github.com/wolfman30/sms-booking-bot/internal/config"
	"github.com/wolfman30/sms-booking-bot/internal/reminders"
	"github.com/wolfman30/sms-booking-bot/pkg/logging"
)

func main() {
	once := flag.Bool("once", false, "run a single reminder pass and exit")
	flag.Parse()

	_ = godotenv.Load()
	cfg := appconfig.Load()
	logger := logging.New(cfg.LogLevel)
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := build(ctx, cfg, bootstrap.NeedsAWS(cfg), logger)
	if err != nil {
		logger.Error("failed to build application", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	if *once {
		sent, err := app.Dispatcher.CheckAndSend(ctx)
		if err != nil {
			logger.Error("reminder pass failed", "error", err)
			os.Exit(1)
		}
		logger.Info("reminder pass complete", "sent", sent)
		return
	}

	logger.Info("reminder worker started", "interval", cfg.ReminderPollInterval)
	reminders.NewPoller(app.Dispatcher, logger).WithInterval(cfg.ReminderPollInterval).Run(ctx)
	logger.Info("reminder worker stopped")
}

func build(ctx context.Context, cfg *appconfig.Config, withAWS bool, logger *logging.Logger) (*bootstrap.App, error) {
	if !withAWS {
		return bootstrap.Build(ctx, cfg, nil, prometheus.NewRegistry(), logger)
	}
	awsCfg, err := mainconfig.LoadAWSConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return bootstrap.Build(ctx, cfg, &awsCfg, prometheus.NewRegistry(), logger)
}
