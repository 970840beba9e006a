package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/wolfman30/sms-booking-bot/internal/booking"
	"github.com/wolfman30/sms-booking-bot/internal/location"
)

var (
	// ErrNotFound is returned when a per-identity record does not exist.
	ErrNotFound = errors.New("store: not found")
	// ErrContention marks a transient failure that is safe to retry.
	ErrContention = errors.New("store: transient contention")
)

// MessageLog records inbound client messages.
type MessageLog interface {
	// LogMessage appends body and returns how many messages the identity has sent.
	LogMessage(ctx context.Context, identity, body string) (int, error)
	RecentMessages(ctx context.Context, limit int) ([]booking.InboundMessage, error)
}

// ConversationStore is the per-identity state the booking state machine reads
// and writes within one turn.
type ConversationStore interface {
	MessageLog

	IsBlocked(ctx context.Context, identity string) (bool, error)
	// Block is a no-op for an identity that is already blocked.
	Block(ctx context.Context, identity, reason string) error

	GetProgress(ctx context.Context, identity string) (booking.Progress, error)
	SaveProgress(ctx context.Context, identity string, p booking.Progress) error
	ClearProgress(ctx context.Context, identity string) error

	Attempts(ctx context.Context, identity string) (int, error)
	IncrementAttempts(ctx context.Context, identity string) (int, error)
	ResetAttempts(ctx context.Context, identity string) error

	GetPending(ctx context.Context, identity string) (booking.PendingConfirmation, error)
	// SavePending replaces any earlier pending confirmation for the identity.
	SavePending(ctx context.Context, p booking.PendingConfirmation) error
	DeletePending(ctx context.Context, identity string) error

	GetTracking(ctx context.Context, identity string) (booking.Tracking, error)
	StartTracking(ctx context.Context, identity string) error
	IncrementTracking(ctx context.Context, identity string) (int, error)
	MarkEnquirySent(ctx context.Context, identity string) error
	DeleteTracking(ctx context.Context, identity string) error

	SaveConfirmedBooking(ctx context.Context, b booking.ConfirmedBooking) error
	SaveDepositRequest(ctx context.Context, d booking.DepositRequest) error
	MarkDepositResponded(ctx context.Context, identity string) error
	ScheduleReminder(ctx context.Context, r booking.Reminder) error
}

// ReminderStore backs the periodic reminder pass. Claims are conditional so
// concurrent passes never send the same reminder twice.
type ReminderStore interface {
	UnsentReminders(ctx context.Context) ([]booking.Reminder, error)
	// ClaimReminder flips sent from false to true and reports whether this caller won.
	ClaimReminder(ctx context.Context, id uuid.UUID) (bool, error)
	// ReleaseReminder undoes a claim whose send failed.
	ReleaseReminder(ctx context.Context, id uuid.UUID) error

	DepositFollowUpsDue(ctx context.Context, createdBefore time.Time) ([]booking.DepositRequest, error)
	ClaimDepositFollowUp(ctx context.Context, id uuid.UUID) (bool, error)
}

// Store is everything a backend provides.
type Store interface {
	ConversationStore
	ReminderStore
	location.Store
}
