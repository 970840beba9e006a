package messaging

import (
	"context"

	"github.com/wolfman30/sms-booking-bot/pkg/logging"
)

// Sender delivers one SMS.
type Sender interface {
	SendSMS(ctx context.Context, to, body string) error
}

// LogSender only logs outbound messages. It is used when Twilio is not configured.
type LogSender struct {
	logger *logging.Logger
}

func NewLogSender(logger *logging.Logger) *LogSender {
	if logger == nil {
		logger = logging.Default()
	}
	return &LogSender{logger: logger}
}

func (s *LogSender) SendSMS(_ context.Context, to, body string) error {
	s.logger.Info("sms not sent (twilio disabled)", "to", to, "chars", len(body))
	return nil
}
