package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/wolfman30/sms-booking-bot/internal/booking"
	"github.com/wolfman30/sms-booking-bot/internal/location"
	"github.com/wolfman30/sms-booking-bot/pkg/logging"
)

// RetryPolicy bounds how often a contended store call is retried.
type RetryPolicy struct {
	Attempts  int
	BaseDelay time.Duration
	MaxDelay  time.Duration
}

// DefaultRetryPolicy retries three times with 50ms, 100ms, 200ms backoff.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{Attempts: 4, BaseDelay: 50 * time.Millisecond, MaxDelay: time.Second}
}

// Retrying wraps a Store and retries calls that fail with ErrContention.
// Any other error is returned immediately.
type Retrying struct {
	inner  Store
	policy RetryPolicy
	logger *logging.Logger
	sleep  func(context.Context, time.Duration) error
}

func NewRetrying(inner Store, policy RetryPolicy, logger *logging.Logger) *Retrying {
	if policy.Attempts <= 0 {
		policy.Attempts = 1
	}
	if policy.BaseDelay <= 0 {
		policy.BaseDelay = 50 * time.Millisecond
	}
	if policy.MaxDelay < policy.BaseDelay {
		policy.MaxDelay = policy.BaseDelay
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Retrying{inner: inner, policy: policy, logger: logger, sleep: sleepCtx}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func do[T any](ctx context.Context, r *Retrying, op string, fn func(context.Context) (T, error)) (T, error) {
	delay := r.policy.BaseDelay
	var (
		out T
		err error
	)
	for attempt := 1; ; attempt++ {
		out, err = fn(ctx)
		if err == nil || !errors.Is(err, ErrContention) || attempt >= r.policy.Attempts {
			return out, err
		}
		r.logger.Warn("store contention, retrying", "op", op, "attempt", attempt, "delay", delay, "error", err)
		if serr := r.sleep(ctx, delay); serr != nil {
			return out, err
		}
		delay *= 2
		if delay > r.policy.MaxDelay {
			delay = r.policy.MaxDelay
		}
	}
}

func doErr(ctx context.Context, r *Retrying, op string, fn func(context.Context) error) error {
	_, err := do(ctx, r, op, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	return err
}

func (r *Retrying) LogMessage(ctx context.Context, identity, body string) (int, error) {
	return do(ctx, r, "log_message", func(ctx context.Context) (int, error) {
		return r.inner.LogMessage(ctx, identity, body)
	})
}

func (r *Retrying) RecentMessages(ctx context.Context, limit int) ([]booking.InboundMessage, error) {
	return do(ctx, r, "recent_messages", func(ctx context.Context) ([]booking.InboundMessage, error) {
		return r.inner.RecentMessages(ctx, limit)
	})
}

func (r *Retrying) IsBlocked(ctx context.Context, identity string) (bool, error) {
	return do(ctx, r, "is_blocked", func(ctx context.Context) (bool, error) {
		return r.inner.IsBlocked(ctx, identity)
	})
}

func (r *Retrying) Block(ctx context.Context, identity, reason string) error {
	return doErr(ctx, r, "block", func(ctx context.Context) error {
		return r.inner.Block(ctx, identity, reason)
	})
}

func (r *Retrying) GetProgress(ctx context.Context, identity string) (booking.Progress, error) {
	return do(ctx, r, "get_progress", func(ctx context.Context) (booking.Progress, error) {
		return r.inner.GetProgress(ctx, identity)
	})
}

func (r *Retrying) SaveProgress(ctx context.Context, identity string, p booking.Progress) error {
	return doErr(ctx, r, "save_progress", func(ctx context.Context) error {
		return r.inner.SaveProgress(ctx, identity, p)
	})
}

func (r *Retrying) ClearProgress(ctx context.Context, identity string) error {
	return doErr(ctx, r, "clear_progress", func(ctx context.Context) error {
		return r.inner.ClearProgress(ctx, identity)
	})
}

func (r *Retrying) Attempts(ctx context.Context, identity string) (int, error) {
	return do(ctx, r, "attempts", func(ctx context.Context) (int, error) {
		return r.inner.Attempts(ctx, identity)
	})
}

func (r *Retrying) IncrementAttempts(ctx context.Context, identity string) (int, error) {
	return do(ctx, r, "increment_attempts", func(ctx context.Context) (int, error) {
		return r.inner.IncrementAttempts(ctx, identity)
	})
}

func (r *Retrying) ResetAttempts(ctx context.Context, identity string) error {
	return doErr(ctx, r, "reset_attempts", func(ctx context.Context) error {
		return r.inner.ResetAttempts(ctx, identity)
	})
}

func (r *Retrying) GetPending(ctx context.Context, identity string) (booking.PendingConfirmation, error) {
	return do(ctx, r, "get_pending", func(ctx context.Context) (booking.PendingConfirmation, error) {
		return r.inner.GetPending(ctx, identity)
	})
}

func (r *Retrying) SavePending(ctx context.Context, p booking.PendingConfirmation) error {
	return doErr(ctx, r, "save_pending", func(ctx context.Context) error {
		return r.inner.SavePending(ctx, p)
	})
}

func (r *Retrying) DeletePending(ctx context.Context, identity string) error {
	return doErr(ctx, r, "delete_pending", func(ctx context.Context) error {
		return r.inner.DeletePending(ctx, identity)
	})
}

func (r *Retrying) GetTracking(ctx context.Context, identity string) (booking.Tracking, error) {
	return do(ctx, r, "get_tracking", func(ctx context.Context) (booking.Tracking, error) {
		return r.inner.GetTracking(ctx, identity)
	})
}

func (r *Retrying) StartTracking(ctx context.Context, identity string) error {
	return doErr(ctx, r, "start_tracking", func(ctx context.Context) error {
		return r.inner.StartTracking(ctx, identity)
	})
}

func (r *Retrying) IncrementTracking(ctx context.Context, identity string) (int, error) {
	return do(ctx, r, "increment_tracking", func(ctx context.Context) (int, error) {
		return r.inner.IncrementTracking(ctx, identity)
	})
}

func (r *Retrying) MarkEnquirySent(ctx context.Context, identity string) error {
	return doErr(ctx, r, "mark_enquiry_sent", func(ctx context.Context) error {
		return r.inner.MarkEnquirySent(ctx, identity)
	})
}

func (r *Retrying) DeleteTracking(ctx context.Context, identity string) error {
	return doErr(ctx, r, "delete_tracking", func(ctx context.Context) error {
		return r.inner.DeleteTracking(ctx, identity)
	})
}

func (r *Retrying) SaveConfirmedBooking(ctx context.Context, b booking.ConfirmedBooking) error {
	return doErr(ctx, r, "save_confirmed_booking", func(ctx context.Context) error {
		return r.inner.SaveConfirmedBooking(ctx, b)
	})
}

func (r *Retrying) SaveDepositRequest(ctx context.Context, d booking.DepositRequest) error {
	return doErr(ctx, r, "save_deposit_request", func(ctx context.Context) error {
		return r.inner.SaveDepositRequest(ctx, d)
	})
}

func (r *Retrying) MarkDepositResponded(ctx context.Context, identity string) error {
	return doErr(ctx, r, "mark_deposit_responded", func(ctx context.Context) error {
		return r.inner.MarkDepositResponded(ctx, identity)
	})
}

func (r *Retrying) ScheduleReminder(ctx context.Context, rem booking.Reminder) error {
	return doErr(ctx, r, "schedule_reminder", func(ctx context.Context) error {
		return r.inner.ScheduleReminder(ctx, rem)
	})
}

func (r *Retrying) UnsentReminders(ctx context.Context) ([]booking.Reminder, error) {
	return do(ctx, r, "unsent_reminders", r.inner.UnsentReminders)
}

func (r *Retrying) ClaimReminder(ctx context.Context, id uuid.UUID) (bool, error) {
	return do(ctx, r, "claim_reminder", func(ctx context.Context) (bool, error) {
		return r.inner.ClaimReminder(ctx, id)
	})
}

func (r *Retrying) ReleaseReminder(ctx context.Context, id uuid.UUID) error {
	return doErr(ctx, r, "release_reminder", func(ctx context.Context) error {
		return r.inner.ReleaseReminder(ctx, id)
	})
}

func (r *Retrying) DepositFollowUpsDue(ctx context.Context, createdBefore time.Time) ([]booking.DepositRequest, error) {
	return do(ctx, r, "deposit_followups_due", func(ctx context.Context) ([]booking.DepositRequest, error) {
		return r.inner.DepositFollowUpsDue(ctx, createdBefore)
	})
}

func (r *Retrying) ClaimDepositFollowUp(ctx context.Context, id uuid.UUID) (bool, error) {
	return do(ctx, r, "claim_deposit_followup", func(ctx context.Context) (bool, error) {
		return r.inner.ClaimDepositFollowUp(ctx, id)
	})
}

func (r *Retrying) LoadLocation(ctx context.Context) (location.Location, error) {
	return do(ctx, r, "load_location", r.inner.LoadLocation)
}

func (r *Retrying) SaveLocation(ctx context.Context, loc location.Location) error {
	return doErr(ctx, r, "save_location", func(ctx context.Context) error {
		return r.inner.SaveLocation(ctx, loc)
	})
}

var _ Store = (*Retrying)(nil)
