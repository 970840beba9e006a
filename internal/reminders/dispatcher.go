package reminders

import (
	"context"
	"fmt"
	"time"

	"github.com/wolfman30/sms-booking-bot/internal/booking"
	"github.com/wolfman30/sms-booking-bot/internal/compose"
	"github.com/wolfman30/sms-booking-bot/internal/location"
	"github.com/wolfman30/sms-booking-bot/internal/messaging"
	"github.com/wolfman30/sms-booking-bot/internal/observability/metrics"
	"github.com/wolfman30/sms-booking-bot/internal/store"
	"github.com/wolfman30/sms-booking-bot/pkg/logging"
)

const (
	// Room details go out when the booking starts within this window.
	windowStart = 55 * time.Minute
	windowEnd   = 65 * time.Minute

	followUpAfter = 30 * time.Minute
)

// Dispatcher sends room-detail reminders and deposit follow-ups. Every send is
// preceded by a conditional claim, so overlapping passes never double-send.
type Dispatcher struct {
	store     store.ReminderStore
	sender    messaging.Sender
	locations *location.Registry
	metrics   *metrics.ConversationMetrics
	logger    *logging.Logger
	now       func() time.Time
}

func NewDispatcher(st store.ReminderStore, sender messaging.Sender, locations *location.Registry, m *metrics.ConversationMetrics, logger *logging.Logger) *Dispatcher {
	if logger == nil {
		logger = logging.Default()
	}
	if locations == nil {
		locations = location.NewRegistry(nil, logger)
	}
	return &Dispatcher{
		store:     st,
		sender:    sender,
		locations: locations,
		metrics:   m,
		logger:    logger,
		now:       time.Now,
	}
}

// WithClock overrides the clock used to evaluate the window.
func (d *Dispatcher) WithClock(now func() time.Time) *Dispatcher {
	if now != nil {
		d.now = now
	}
	return d
}

// CheckAndSend runs one pass and returns how many messages were sent.
func (d *Dispatcher) CheckAndSend(ctx context.Context) (int, error) {
	loc := d.locations.Current()
	tz := loc.Loc()
	now := d.now().In(tz)

	due, err := d.store.UnsentReminders(ctx)
	if err != nil {
		return 0, fmt.Errorf("reminders: list unsent: %w", err)
	}

	sent := 0
	for _, r := range due {
		start, err := r.Start(tz)
		if err != nil {
			d.logger.Warn("reminder has unreadable start", "id", r.ID, "error", err)
			continue
		}
		until := start.Sub(now)
		if until < windowStart || until > windowEnd {
			continue
		}
		ok, err := d.sendReminder(ctx, r, loc)
		if err != nil {
			return sent, err
		}
		if ok {
			sent++
		}
	}

	followUps, err := d.sendFollowUps(ctx, now)
	sent += followUps
	if err != nil {
		return sent, err
	}

	if sent > 0 {
		d.logger.Info("reminder pass complete", "sent", sent)
	}
	return sent, nil
}

func (d *Dispatcher) sendReminder(ctx context.Context, r booking.Reminder, loc location.Location) (bool, error) {
	won, err := d.store.ClaimReminder(ctx, r.ID)
	if err != nil {
		return false, fmt.Errorf("reminders: claim %s: %w", r.ID, err)
	}
	if !won {
		return false, nil
	}

	body, err := compose.Render(compose.RoomReminder{ClientName: r.ClientName, LocationNote: compose.RoomDetailsNote(loc)})
	if err == nil {
		err = d.sender.SendSMS(ctx, r.Identity, body)
	}
	if err != nil {
		d.logger.Warn("room reminder send failed", "id", r.ID, "identity", r.Identity, "error", err)
		d.metrics.ObserveReminder("room", "failed")
		if rerr := d.store.ReleaseReminder(ctx, r.ID); rerr != nil {
			return false, fmt.Errorf("reminders: release %s: %w", r.ID, rerr)
		}
		return false, nil
	}

	d.metrics.ObserveReminder("room", "sent")
	d.logger.Info("room reminder sent", "id", r.ID, "identity", r.Identity)
	return true, nil
}

func (d *Dispatcher) sendFollowUps(ctx context.Context, now time.Time) (int, error) {
	due, err := d.store.DepositFollowUpsDue(ctx, now.Add(-followUpAfter))
	if err != nil {
		return 0, fmt.Errorf("reminders: list deposit follow-ups: %w", err)
	}
	if len(due) == 0 {
		return 0, nil
	}
	body, err := compose.Render(compose.DepositFollowUp{})
	if err != nil {
		return 0, err
	}

	sent := 0
	for _, req := range due {
		won, err := d.store.ClaimDepositFollowUp(ctx, req.ID)
		if err != nil {
			return sent, fmt.Errorf("reminders: claim follow-up %s: %w", req.ID, err)
		}
		if !won {
			continue
		}
		if err := d.sender.SendSMS(ctx, req.Identity, body); err != nil {
			// Follow-ups are claimed once and never retried.
			d.logger.Warn("deposit follow-up send failed", "id", req.ID, "identity", req.Identity, "error", err)
			d.metrics.ObserveReminder("deposit_followup", "failed")
			continue
		}
		d.metrics.ObserveReminder("deposit_followup", "sent")
		sent++
	}
	return sent, nil
}
