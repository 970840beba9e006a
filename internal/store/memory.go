package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/wolfman30/sms-booking-bot/internal/booking"
	"github.com/wolfman30/sms-booking-bot/internal/location"
)

// MemoryStore keeps every table in process. It backs local development and tests.
type MemoryStore struct {
	mu sync.Mutex

	messages  []booking.InboundMessage
	counts    map[string]int
	blocked   map[string]string
	progress  map[string]booking.Progress
	attempts  map[string]int
	pending   map[string]booking.PendingConfirmation
	tracking  map[string]booking.Tracking
	bookings  []booking.ConfirmedBooking
	deposits  []booking.DepositRequest
	reminders []booking.Reminder
	location  *location.Location

	now func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		counts:   make(map[string]int),
		blocked:  make(map[string]string),
		progress: make(map[string]booking.Progress),
		attempts: make(map[string]int),
		pending:  make(map[string]booking.PendingConfirmation),
		tracking: make(map[string]booking.Tracking),
		now:      time.Now,
	}
}

// WithClock overrides the timestamp source.
func (s *MemoryStore) WithClock(now func() time.Time) *MemoryStore {
	if now != nil {
		s.now = now
	}
	return s
}

func (s *MemoryStore) LogMessage(_ context.Context, identity, body string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, booking.InboundMessage{Identity: identity, Body: body, CreatedAt: s.now()})
	s.counts[identity]++
	return s.counts[identity], nil
}

func (s *MemoryStore) RecentMessages(_ context.Context, limit int) ([]booking.InboundMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if limit <= 0 || limit > len(s.messages) {
		limit = len(s.messages)
	}
	out := make([]booking.InboundMessage, 0, limit)
	for i := len(s.messages) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, s.messages[i])
	}
	return out, nil
}

func (s *MemoryStore) IsBlocked(_ context.Context, identity string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.blocked[identity]
	return ok, nil
}

func (s *MemoryStore) Block(_ context.Context, identity, reason string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.blocked[identity]; !ok {
		s.blocked[identity] = reason
	}
	return nil
}

func (s *MemoryStore) GetProgress(_ context.Context, identity string) (booking.Progress, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.progress[identity]
	if !ok {
		return booking.Progress{}, ErrNotFound
	}
	return p, nil
}

func (s *MemoryStore) SaveProgress(_ context.Context, identity string, p booking.Progress) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.progress[identity] = p
	return nil
}

func (s *MemoryStore) ClearProgress(_ context.Context, identity string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.progress, identity)
	return nil
}

func (s *MemoryStore) Attempts(_ context.Context, identity string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.attempts[identity], nil
}

func (s *MemoryStore) IncrementAttempts(_ context.Context, identity string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attempts[identity]++
	return s.attempts[identity], nil
}

func (s *MemoryStore) ResetAttempts(_ context.Context, identity string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.attempts, identity)
	return nil
}

func (s *MemoryStore) GetPending(_ context.Context, identity string) (booking.PendingConfirmation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.pending[identity]
	if !ok {
		return booking.PendingConfirmation{}, ErrNotFound
	}
	return p, nil
}

func (s *MemoryStore) SavePending(_ context.Context, p booking.PendingConfirmation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = s.now()
	}
	s.pending[p.Identity] = p
	return nil
}

func (s *MemoryStore) DeletePending(_ context.Context, identity string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.pending, identity)
	return nil
}

func (s *MemoryStore) GetTracking(_ context.Context, identity string) (booking.Tracking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tracking[identity]
	if !ok {
		return booking.Tracking{}, ErrNotFound
	}
	return t, nil
}

func (s *MemoryStore) StartTracking(_ context.Context, identity string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tracking[identity] = booking.Tracking{Identity: identity, UpdatedAt: s.now()}
	return nil
}

func (s *MemoryStore) IncrementTracking(_ context.Context, identity string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tracking[identity]
	if !ok {
		return 0, ErrNotFound
	}
	t.MessageCount++
	t.UpdatedAt = s.now()
	s.tracking[identity] = t
	return t.MessageCount, nil
}

func (s *MemoryStore) MarkEnquirySent(_ context.Context, identity string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tracking[identity]
	if !ok {
		return ErrNotFound
	}
	t.EnquirySent = true
	t.UpdatedAt = s.now()
	s.tracking[identity] = t
	return nil
}

func (s *MemoryStore) DeleteTracking(_ context.Context, identity string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tracking, identity)
	return nil
}

func (s *MemoryStore) SaveConfirmedBooking(_ context.Context, b booking.ConfirmedBooking) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	if b.CreatedAt.IsZero() {
		b.CreatedAt = s.now()
	}
	s.bookings = append(s.bookings, b)
	return nil
}

// ConfirmedBookings returns a copy of the confirmed bookings for an identity.
func (s *MemoryStore) ConfirmedBookings(identity string) []booking.ConfirmedBooking {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []booking.ConfirmedBooking
	for _, b := range s.bookings {
		if b.Identity == identity {
			out = append(out, b)
		}
	}
	return out
}

func (s *MemoryStore) SaveDepositRequest(_ context.Context, d booking.DepositRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	if d.CreatedAt.IsZero() {
		d.CreatedAt = s.now()
	}
	s.deposits = append(s.deposits, d)
	return nil
}

// DepositRequests returns a copy of the deposit requests for an identity.
func (s *MemoryStore) DepositRequests(identity string) []booking.DepositRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []booking.DepositRequest
	for _, d := range s.deposits {
		if d.Identity == identity {
			out = append(out, d)
		}
	}
	return out
}

func (s *MemoryStore) MarkDepositResponded(_ context.Context, identity string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.deposits {
		if s.deposits[i].Identity == identity {
			s.deposits[i].Responded = true
		}
	}
	return nil
}

func (s *MemoryStore) DepositFollowUpsDue(_ context.Context, createdBefore time.Time) ([]booking.DepositRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []booking.DepositRequest
	for _, d := range s.deposits {
		if !d.Responded && !d.FollowedUp && d.CreatedAt.Before(createdBefore) {
			out = append(out, d)
		}
	}
	return out, nil
}

func (s *MemoryStore) ClaimDepositFollowUp(_ context.Context, id uuid.UUID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.deposits {
		if s.deposits[i].ID == id {
			if s.deposits[i].FollowedUp {
				return false, nil
			}
			s.deposits[i].FollowedUp = true
			return true, nil
		}
	}
	return false, nil
}

func (s *MemoryStore) ScheduleReminder(_ context.Context, r booking.Reminder) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = s.now()
	}
	s.reminders = append(s.reminders, r)
	return nil
}

func (s *MemoryStore) UnsentReminders(_ context.Context) ([]booking.Reminder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []booking.Reminder
	for _, r := range s.reminders {
		if !r.Sent {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *MemoryStore) ClaimReminder(_ context.Context, id uuid.UUID) (bool, error) {
	return s.setReminderSent(id, false, true), nil
}

func (s *MemoryStore) ReleaseReminder(_ context.Context, id uuid.UUID) error {
	s.setReminderSent(id, true, false)
	return nil
}

func (s *MemoryStore) setReminderSent(id uuid.UUID, from, to bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.reminders {
		if s.reminders[i].ID == id && s.reminders[i].Sent == from {
			s.reminders[i].Sent = to
			return true
		}
	}
	return false
}

func (s *MemoryStore) LoadLocation(_ context.Context) (location.Location, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.location == nil {
		return location.Location{}, location.ErrNotFound
	}
	return *s.location, nil
}

func (s *MemoryStore) SaveLocation(_ context.Context, loc location.Location) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.location = &loc
	return nil
}

var _ Store = (*MemoryStore)(nil)
