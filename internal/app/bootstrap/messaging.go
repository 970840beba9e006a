package bootstrap

import (
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"

	appconfig "github.com/wolfman30/sms-booking-bot/internal/config"
	"github.com/wolfman30/sms-booking-bot/internal/messaging"
	"github.com/wolfman30/sms-booking-bot/internal/notify"
	"github.com/wolfman30/sms-booking-bot/internal/observability/metrics"
	"github.com/wolfman30/sms-booking-bot/pkg/logging"
)

// BuildSender returns the Twilio sender, or a logging sender when Twilio
// credentials are incomplete.
func BuildSender(cfg *appconfig.Config, m *metrics.MessagingMetrics, logger *logging.Logger) messaging.Sender {
	if logger == nil {
		logger = logging.Default()
	}
	if cfg == nil || cfg.TwilioAccountSID == "" || cfg.TwilioAuthToken == "" || cfg.TwilioFromNumber == "" {
		logger.Warn("twilio not configured; outbound sms will only be logged")
		return messaging.NewLogSender(logger)
	}
	return messaging.NewTwilioSender(cfg.TwilioAccountSID, cfg.TwilioAuthToken, cfg.TwilioFromNumber, logger,
		messaging.WithTwilioMetrics(m))
}

// BuildEmailSender picks the operator email transport named by EMAIL_PROVIDER.
// It returns nil when email is disabled or misconfigured.
func BuildEmailSender(cfg *appconfig.Config, awsCfg *aws.Config, logger *logging.Logger) notify.EmailSender {
	if cfg == nil || cfg.OperatorEmail == "" {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	switch cfg.EmailProvider {
	case "sendgrid":
		sender := notify.NewSendGridSender(notify.SendGridConfig{
			APIKey:    cfg.SendGridAPIKey,
			FromEmail: cfg.SendGridFromEmail,
			FromName:  cfg.SendGridFromName,
		}, logger)
		if sender == nil {
			logger.Warn("EMAIL_PROVIDER=sendgrid but SENDGRID_API_KEY is empty; email disabled")
			return nil
		}
		return sender
	case "ses":
		if awsCfg == nil || cfg.SESFromEmail == "" {
			logger.Warn("EMAIL_PROVIDER=ses but aws config or SES_FROM_EMAIL missing; email disabled")
			return nil
		}
		return notify.NewSESSender(sesv2.NewFromConfig(*awsCfg), notify.SESConfig{
			FromEmail: cfg.SESFromEmail,
			FromName:  cfg.SendGridFromName,
		}, logger)
	case "stub":
		return notify.NewStubEmailSender(logger)
	default:
		return nil
	}
}

// BuildNotifier wires operator alerts over SMS and optional email.
func BuildNotifier(cfg *appconfig.Config, sms messaging.Sender, email notify.EmailSender, logger *logging.Logger) *notify.Service {
	if cfg == nil {
		return nil
	}
	return notify.NewService(email, sms, cfg.OperatorPhone, cfg.OperatorEmail, logger)
}
