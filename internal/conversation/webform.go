package conversation

import (
	"context"
	"fmt"

	"github.com/wolfman30/sms-booking-bot/internal/booking"
	"github.com/wolfman30/sms-booking-bot/internal/compose"
)

// SubmitWebForm records a complete booking from the web form as a pending
// confirmation and texts the availability message, so the client confirms
// by SMS exactly as if they had typed the details.
func (e *Engine) SubmitWebForm(ctx context.Context, identity string, p booking.Progress) (string, error) {
	if !p.Complete() {
		return "", fmt.Errorf("conversation: web form incomplete: %s", booking.MissingFieldsQuestion(p.Missing()))
	}

	ctx, span := engineTracer.Start(ctx, "conversation.web_form")
	defer span.End()

	unlock, err := e.locker.Lock(ctx, identity)
	if err != nil {
		return "", fmt.Errorf("conversation: lock %s: %w", identity, err)
	}
	defer unlock()

	blocked, err := e.store.IsBlocked(ctx, identity)
	if err != nil {
		return "", fmt.Errorf("conversation: blocked lookup: %w", err)
	}
	if blocked {
		return "", ErrBlocked
	}

	if err := e.store.SaveProgress(ctx, identity, p); err != nil {
		return "", fmt.Errorf("conversation: save progress: %w", err)
	}
	if err := e.store.SavePending(ctx, booking.PendingConfirmation{
		Identity: identity,
		Progress: p,
		Status:   booking.StatusAvailable,
	}); err != nil {
		return "", fmt.Errorf("conversation: save pending: %w", err)
	}
	if err := e.store.ResetAttempts(ctx, identity); err != nil {
		return "", fmt.Errorf("conversation: reset attempts: %w", err)
	}

	out, err := e.reply(ctx, compose.TimeAvailable{
		Date:       p.Date,
		Time:       p.Time,
		Duration:   p.Duration,
		Experience: p.Experience,
		Mode:       p.Mode,
	}, 0, ActionAvailable)
	if err != nil {
		return "", err
	}
	if err := e.sender.SendSMS(ctx, identity, out.Reply); err != nil {
		e.logger.Warn("web form availability send failed", "identity", identity, "error", err)
	}
	e.metrics.ObserveTurn("web_form", 0)
	return out.Reply, nil
}
