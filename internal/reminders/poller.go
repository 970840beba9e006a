package reminders

import (
	"context"
	"time"

	"github.com/wolfman30/sms-booking-bot/pkg/logging"
)

// Checker is one reminder pass.
type Checker interface {
	CheckAndSend(ctx context.Context) (int, error)
}

// Poller runs a Checker on a fixed interval until its context ends.
type Poller struct {
	checker  Checker
	logger   *logging.Logger
	interval time.Duration
}

func NewPoller(checker Checker, logger *logging.Logger) *Poller {
	if logger == nil {
		logger = logging.Default()
	}
	return &Poller{checker: checker, logger: logger, interval: 5 * time.Minute}
}

func (p *Poller) WithInterval(d time.Duration) *Poller {
	if d > 0 {
		p.interval = d
	}
	return p
}

func (p *Poller) Run(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	p.tick(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.tick(ctx)
		}
	}
}

func (p *Poller) tick(ctx context.Context) {
	if p.checker == nil {
		return
	}
	if _, err := p.checker.CheckAndSend(ctx); err != nil && ctx.Err() == nil {
		p.logger.Error("reminder pass failed", "error", err)
	}
}
