package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/wolfman30/sms-booking-bot/internal/booking"
	"github.com/wolfman30/sms-booking-bot/internal/location"
)

// PgxPool is the subset of pgxpool.Pool the store uses.
type PgxPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresStore persists conversation state in Postgres.
type PostgresStore struct {
	pool PgxPool
}

func NewPostgresStore(pool PgxPool) *PostgresStore {
	if pool == nil {
		return nil
	}
	return &PostgresStore{pool: pool}
}

// Postgres error codes that indicate lock contention rather than a bad query.
var contentionCodes = map[string]bool{
	"40001": true, // serialization_failure
	"40P01": true, // deadlock_detected
	"55P03": true, // lock_not_available
}

func wrap(op string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && contentionCodes[pgErr.Code] {
		return fmt.Errorf("store: %s: %w: %w", op, ErrContention, err)
	}
	return fmt.Errorf("store: %s: %w", op, err)
}

func (s *PostgresStore) LogMessage(ctx context.Context, identity, body string) (int, error) {
	if _, err := s.pool.Exec(ctx, `
		INSERT INTO messages (phone_number, message_body)
		VALUES ($1, $2)
	`, identity, body); err != nil {
		return 0, wrap("log message", err)
	}
	var count int
	if err := s.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM messages WHERE phone_number = $1
	`, identity).Scan(&count); err != nil {
		return 0, wrap("count messages", err)
	}
	return count, nil
}

func (s *PostgresStore) RecentMessages(ctx context.Context, limit int) ([]booking.InboundMessage, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.pool.Query(ctx, `
		SELECT phone_number, message_body, created_at
		FROM messages
		ORDER BY created_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, wrap("recent messages", err)
	}
	defer rows.Close()

	var out []booking.InboundMessage
	for rows.Next() {
		var m booking.InboundMessage
		if err := rows.Scan(&m.Identity, &m.Body, &m.CreatedAt); err != nil {
			return nil, wrap("scan message", err)
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, wrap("recent messages", err)
	}
	return out, nil
}

func (s *PostgresStore) IsBlocked(ctx context.Context, identity string) (bool, error) {
	var blocked bool
	if err := s.pool.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM blocked_numbers WHERE phone_number = $1)
	`, identity).Scan(&blocked); err != nil {
		return false, wrap("is blocked", err)
	}
	return blocked, nil
}

func (s *PostgresStore) Block(ctx context.Context, identity, reason string) error {
	if _, err := s.pool.Exec(ctx, `
		INSERT INTO blocked_numbers (phone_number, reason)
		VALUES ($1, $2)
		ON CONFLICT (phone_number) DO NOTHING
	`, identity, reason); err != nil {
		return wrap("block", err)
	}
	return nil
}

func (s *PostgresStore) GetProgress(ctx context.Context, identity string) (booking.Progress, error) {
	var p booking.Progress
	err := s.pool.QueryRow(ctx, `
		SELECT city, date, time, duration, experience_type, incall_outcall, outcall_address
		FROM booking_progress
		WHERE phone_number = $1
	`, identity).Scan(&p.City, &p.Date, &p.Time, &p.Duration, &p.Experience, &p.Mode, &p.OutcallAddress)
	if errors.Is(err, pgx.ErrNoRows) {
		return booking.Progress{}, ErrNotFound
	}
	if err != nil {
		return booking.Progress{}, wrap("get progress", err)
	}
	return p, nil
}

func (s *PostgresStore) SaveProgress(ctx context.Context, identity string, p booking.Progress) error {
	if _, err := s.pool.Exec(ctx, `
		INSERT INTO booking_progress (phone_number, city, date, time, duration, experience_type, incall_outcall, outcall_address)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (phone_number) DO UPDATE
		SET city = EXCLUDED.city,
			date = EXCLUDED.date,
			time = EXCLUDED.time,
			duration = EXCLUDED.duration,
			experience_type = EXCLUDED.experience_type,
			incall_outcall = EXCLUDED.incall_outcall,
			outcall_address = EXCLUDED.outcall_address,
			updated_at = now()
	`, identity, p.City, p.Date, p.Time, p.Duration, p.Experience, p.Mode, p.OutcallAddress); err != nil {
		return wrap("save progress", err)
	}
	return nil
}

func (s *PostgresStore) ClearProgress(ctx context.Context, identity string) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM booking_progress WHERE phone_number = $1`, identity); err != nil {
		return wrap("clear progress", err)
	}
	return nil
}

func (s *PostgresStore) Attempts(ctx context.Context, identity string) (int, error) {
	var n int
	err := s.pool.QueryRow(ctx, `
		SELECT attempt_count FROM booking_attempts WHERE phone_number = $1
	`, identity).Scan(&n)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, wrap("attempts", err)
	}
	return n, nil
}

func (s *PostgresStore) IncrementAttempts(ctx context.Context, identity string) (int, error) {
	var n int
	if err := s.pool.QueryRow(ctx, `
		INSERT INTO booking_attempts (phone_number, attempt_count)
		VALUES ($1, 1)
		ON CONFLICT (phone_number) DO UPDATE
		SET attempt_count = booking_attempts.attempt_count + 1,
			updated_at = now()
		RETURNING attempt_count
	`, identity).Scan(&n); err != nil {
		return 0, wrap("increment attempts", err)
	}
	return n, nil
}

func (s *PostgresStore) ResetAttempts(ctx context.Context, identity string) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM booking_attempts WHERE phone_number = $1`, identity); err != nil {
		return wrap("reset attempts", err)
	}
	return nil
}

func (s *PostgresStore) GetPending(ctx context.Context, identity string) (booking.PendingConfirmation, error) {
	p := booking.PendingConfirmation{Identity: identity}
	var status string
	err := s.pool.QueryRow(ctx, `
		SELECT client_name, city, date, time, duration, experience_type, incall_outcall, outcall_address,
			booking_status, awaiting_deposit_screenshot, calendar_event_id, prompt_count, created_at
		FROM pending_confirmations
		WHERE phone_number = $1
	`, identity).Scan(
		&p.ClientName, &p.Progress.City, &p.Progress.Date, &p.Progress.Time, &p.Progress.Duration,
		&p.Progress.Experience, &p.Progress.Mode, &p.Progress.OutcallAddress,
		&status, &p.AwaitingDepositScreenshot, &p.CalendarEventID, &p.PromptCount, &p.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return booking.PendingConfirmation{}, ErrNotFound
	}
	if err != nil {
		return booking.PendingConfirmation{}, wrap("get pending", err)
	}
	p.Status = booking.Status(status)
	return p, nil
}

func (s *PostgresStore) SavePending(ctx context.Context, p booking.PendingConfirmation) error {
	if p.Status == "" {
		p.Status = booking.StatusAvailable
	}
	if _, err := s.pool.Exec(ctx, `
		INSERT INTO pending_confirmations (
			phone_number, client_name, city, date, time, duration, experience_type, incall_outcall,
			outcall_address, booking_status, awaiting_deposit_screenshot, calendar_event_id, prompt_count
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (phone_number) DO UPDATE
		SET client_name = EXCLUDED.client_name,
			city = EXCLUDED.city,
			date = EXCLUDED.date,
			time = EXCLUDED.time,
			duration = EXCLUDED.duration,
			experience_type = EXCLUDED.experience_type,
			incall_outcall = EXCLUDED.incall_outcall,
			outcall_address = EXCLUDED.outcall_address,
			booking_status = EXCLUDED.booking_status,
			awaiting_deposit_screenshot = EXCLUDED.awaiting_deposit_screenshot,
			calendar_event_id = EXCLUDED.calendar_event_id,
			prompt_count = EXCLUDED.prompt_count,
			created_at = now()
	`,
		p.Identity, p.ClientName, p.Progress.City, p.Progress.Date, p.Progress.Time, p.Progress.Duration,
		p.Progress.Experience, p.Progress.Mode, p.Progress.OutcallAddress,
		string(p.Status), p.AwaitingDepositScreenshot, p.CalendarEventID, p.PromptCount,
	); err != nil {
		return wrap("save pending", err)
	}
	return nil
}

func (s *PostgresStore) DeletePending(ctx context.Context, identity string) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM pending_confirmations WHERE phone_number = $1`, identity); err != nil {
		return wrap("delete pending", err)
	}
	return nil
}

func (s *PostgresStore) GetTracking(ctx context.Context, identity string) (booking.Tracking, error) {
	t := booking.Tracking{Identity: identity}
	err := s.pool.QueryRow(ctx, `
		SELECT message_count, enquiry_sent, updated_at
		FROM message_tracking
		WHERE phone_number = $1
	`, identity).Scan(&t.MessageCount, &t.EnquirySent, &t.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return booking.Tracking{}, ErrNotFound
	}
	if err != nil {
		return booking.Tracking{}, wrap("get tracking", err)
	}
	return t, nil
}

func (s *PostgresStore) StartTracking(ctx context.Context, identity string) error {
	if _, err := s.pool.Exec(ctx, `
		INSERT INTO message_tracking (phone_number, message_count, enquiry_sent)
		VALUES ($1, 0, false)
		ON CONFLICT (phone_number) DO UPDATE
		SET message_count = 0,
			enquiry_sent = false,
			updated_at = now()
	`, identity); err != nil {
		return wrap("start tracking", err)
	}
	return nil
}

func (s *PostgresStore) IncrementTracking(ctx context.Context, identity string) (int, error) {
	var n int
	err := s.pool.QueryRow(ctx, `
		UPDATE message_tracking
		SET message_count = message_count + 1, updated_at = now()
		WHERE phone_number = $1
		RETURNING message_count
	`, identity).Scan(&n)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, ErrNotFound
	}
	if err != nil {
		return 0, wrap("increment tracking", err)
	}
	return n, nil
}

func (s *PostgresStore) MarkEnquirySent(ctx context.Context, identity string) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE message_tracking
		SET enquiry_sent = true, updated_at = now()
		WHERE phone_number = $1
	`, identity)
	if err != nil {
		return wrap("mark enquiry sent", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) DeleteTracking(ctx context.Context, identity string) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM message_tracking WHERE phone_number = $1`, identity); err != nil {
		return wrap("delete tracking", err)
	}
	return nil
}

func (s *PostgresStore) SaveConfirmedBooking(ctx context.Context, b booking.ConfirmedBooking) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	if _, err := s.pool.Exec(ctx, `
		INSERT INTO confirmed_bookings (
			id, phone_number, client_name, city, date, time, duration, experience_type,
			incall_outcall, outcall_address, calendar_event_id, deposit_paid
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`,
		b.ID, b.Identity, b.ClientName, b.Progress.City, b.Progress.Date, b.Progress.Time, b.Progress.Duration,
		b.Progress.Experience, b.Progress.Mode, b.Progress.OutcallAddress, b.CalendarEventID, b.DepositPaid,
	); err != nil {
		return wrap("save confirmed booking", err)
	}
	return nil
}

func (s *PostgresStore) SaveDepositRequest(ctx context.Context, d booking.DepositRequest) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	if _, err := s.pool.Exec(ctx, `
		INSERT INTO deposit_requests (id, phone_number, client_name, booking_date, booking_time, mandatory)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, d.ID, d.Identity, d.ClientName, d.BookingDate, d.BookingTime, d.Mandatory); err != nil {
		return wrap("save deposit request", err)
	}
	return nil
}

func (s *PostgresStore) MarkDepositResponded(ctx context.Context, identity string) error {
	if _, err := s.pool.Exec(ctx, `
		UPDATE deposit_requests
		SET client_responded = true
		WHERE phone_number = $1 AND client_responded = false
	`, identity); err != nil {
		return wrap("mark deposit responded", err)
	}
	return nil
}

func (s *PostgresStore) DepositFollowUpsDue(ctx context.Context, createdBefore time.Time) ([]booking.DepositRequest, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, phone_number, client_name, booking_date, booking_time, mandatory, created_at
		FROM deposit_requests
		WHERE client_responded = false AND followup_sent = false AND created_at < $1
		ORDER BY created_at
	`, createdBefore)
	if err != nil {
		return nil, wrap("deposit follow-ups", err)
	}
	defer rows.Close()

	var out []booking.DepositRequest
	for rows.Next() {
		var d booking.DepositRequest
		if err := rows.Scan(&d.ID, &d.Identity, &d.ClientName, &d.BookingDate, &d.BookingTime, &d.Mandatory, &d.CreatedAt); err != nil {
			return nil, wrap("scan deposit request", err)
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, wrap("deposit follow-ups", err)
	}
	return out, nil
}

func (s *PostgresStore) ClaimDepositFollowUp(ctx context.Context, id uuid.UUID) (bool, error) {
	tag, err := s.pool.Exec(ctx, `
		UPDATE deposit_requests
		SET followup_sent = true
		WHERE id = $1 AND followup_sent = false
	`, id)
	if err != nil {
		return false, wrap("claim deposit follow-up", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (s *PostgresStore) ScheduleReminder(ctx context.Context, r booking.Reminder) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	if _, err := s.pool.Exec(ctx, `
		INSERT INTO room_detail_reminders (id, phone_number, client_name, booking_date, booking_time)
		VALUES ($1, $2, $3, $4, $5)
	`, r.ID, r.Identity, r.ClientName, r.BookingDate, r.BookingTime); err != nil {
		return wrap("schedule reminder", err)
	}
	return nil
}

func (s *PostgresStore) UnsentReminders(ctx context.Context) ([]booking.Reminder, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, phone_number, client_name, booking_date, booking_time, created_at
		FROM room_detail_reminders
		WHERE sent = false
		ORDER BY created_at
	`)
	if err != nil {
		return nil, wrap("unsent reminders", err)
	}
	defer rows.Close()

	var out []booking.Reminder
	for rows.Next() {
		var r booking.Reminder
		if err := rows.Scan(&r.ID, &r.Identity, &r.ClientName, &r.BookingDate, &r.BookingTime, &r.CreatedAt); err != nil {
			return nil, wrap("scan reminder", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, wrap("unsent reminders", err)
	}
	return out, nil
}

func (s *PostgresStore) ClaimReminder(ctx context.Context, id uuid.UUID) (bool, error) {
	tag, err := s.pool.Exec(ctx, `
		UPDATE room_detail_reminders SET sent = true WHERE id = $1 AND sent = false
	`, id)
	if err != nil {
		return false, wrap("claim reminder", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (s *PostgresStore) ReleaseReminder(ctx context.Context, id uuid.UUID) error {
	if _, err := s.pool.Exec(ctx, `
		UPDATE room_detail_reminders SET sent = false WHERE id = $1
	`, id); err != nil {
		return wrap("release reminder", err)
	}
	return nil
}

func (s *PostgresStore) LoadLocation(ctx context.Context) (location.Location, error) {
	var loc location.Location
	err := s.pool.QueryRow(ctx, `
		SELECT city, address, intercom_number, timezone FROM incall_location WHERE id = 1
	`).Scan(&loc.City, &loc.Address, &loc.Intercom, &loc.Timezone)
	if errors.Is(err, pgx.ErrNoRows) {
		return location.Location{}, location.ErrNotFound
	}
	if err != nil {
		return location.Location{}, wrap("load location", err)
	}
	return loc, nil
}

func (s *PostgresStore) SaveLocation(ctx context.Context, loc location.Location) error {
	if _, err := s.pool.Exec(ctx, `
		INSERT INTO incall_location (id, city, address, intercom_number, timezone)
		VALUES (1, $1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE
		SET city = EXCLUDED.city,
			address = EXCLUDED.address,
			intercom_number = EXCLUDED.intercom_number,
			timezone = EXCLUDED.timezone,
			updated_at = now()
	`, loc.City, loc.Address, loc.Intercom, loc.Timezone); err != nil {
		return wrap("save location", err)
	}
	return nil
}

var _ Store = (*PostgresStore)(nil)
