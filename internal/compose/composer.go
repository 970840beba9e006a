package compose

import (
	"context"

	"github.com/wolfman30/sms-booking-bot/internal/escalation"
	"github.com/wolfman30/sms-booking-bot/internal/observability/metrics"
	"github.com/wolfman30/sms-booking-bot/pkg/logging"
)

// Composer renders situation templates and runs the optional tone pass.
type Composer struct {
	polisher *SafeRewriter
	metrics  *metrics.ConversationMetrics
	logger   *logging.Logger
}

// NewComposer builds a composer. A nil polisher sends templates verbatim.
func NewComposer(polisher *SafeRewriter, m *metrics.ConversationMetrics, logger *logging.Logger) *Composer {
	if logger == nil {
		logger = logging.Default()
	}
	return &Composer{polisher: polisher, metrics: m, logger: logger}
}

// Compose renders msg and polishes it with the tone for attempts.
func (c *Composer) Compose(ctx context.Context, msg Message, attempts int) (string, error) {
	text, err := Render(msg)
	if err != nil {
		return "", err
	}
	if !msg.Polish() {
		return text, nil
	}
	polished, outcome := c.polisher.Polish(ctx, text, escalation.ToneFor(attempts))
	c.metrics.ObservePolish(msg.Situation().String(), string(outcome))
	return polished, nil
}
