package reminders

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/sms-booking-bot/internal/booking"
	"github.com/wolfman30/sms-booking-bot/internal/location"
	"github.com/wolfman30/sms-booking-bot/internal/store"
)

type recordingSender struct {
	mu   sync.Mutex
	sent []string
	err  error
}

func (r *recordingSender) SendSMS(_ context.Context, _, body string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.sent = append(r.sent, body)
	return nil
}

func (r *recordingSender) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sent)
}

func adelaide(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("Australia/Adelaide")
	require.NoError(t, err)
	return loc
}

func seedReminder(t *testing.T, st *store.MemoryStore) {
	t.Helper()
	require.NoError(t, st.ScheduleReminder(context.Background(), booking.Reminder{
		Identity:    "+61400000000",
		ClientName:  "John",
		BookingDate: "Friday 20/12/2024",
		BookingTime: "7:00PM",
	}))
}

func newDispatcher(t *testing.T, st *store.MemoryStore, sender *recordingSender, at time.Time) *Dispatcher {
	t.Helper()
	return NewDispatcher(st, sender, location.NewRegistry(nil, nil), nil, nil).
		WithClock(func() time.Time { return at })
}

func TestReminderSentOnceInsideWindow(t *testing.T) {
	st := store.NewMemoryStore()
	seedReminder(t, st)
	sender := &recordingSender{}
	d := newDispatcher(t, st, sender, time.Date(2024, 12, 20, 18, 0, 0, 0, adelaide(t)))

	sent, err := d.CheckAndSend(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, sent)
	require.Len(t, sender.sent, 1)
	assert.Contains(t, sender.sent[0], "Hi John! Your booking is in 1 hour.")
	assert.Contains(t, sender.sent[0], "Intercom/Room: TBA")

	sent, err = d.CheckAndSend(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, sent)
	assert.Equal(t, 1, sender.count())
}

func TestConcurrentPassesDoNotDuplicate(t *testing.T) {
	st := store.NewMemoryStore()
	seedReminder(t, st)
	sender := &recordingSender{}
	d := newDispatcher(t, st, sender, time.Date(2024, 12, 20, 18, 5, 0, 0, adelaide(t)))

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := d.CheckAndSend(context.Background())
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, sender.count())
}

func TestReminderOutsideWindowWaits(t *testing.T) {
	st := store.NewMemoryStore()
	seedReminder(t, st)
	sender := &recordingSender{}

	for _, at := range []time.Time{
		time.Date(2024, 12, 20, 17, 50, 0, 0, adelaide(t)),
		time.Date(2024, 12, 20, 18, 10, 0, 0, adelaide(t)),
	} {
		sent, err := newDispatcher(t, st, sender, at).CheckAndSend(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 0, sent)
	}
	unsent, err := st.UnsentReminders(context.Background())
	require.NoError(t, err)
	assert.Len(t, unsent, 1)
}

func TestFailedSendReleasesClaim(t *testing.T) {
	st := store.NewMemoryStore()
	seedReminder(t, st)
	sender := &recordingSender{err: errors.New("twilio down")}
	d := newDispatcher(t, st, sender, time.Date(2024, 12, 20, 18, 0, 0, 0, adelaide(t)))

	sent, err := d.CheckAndSend(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, sent)

	unsent, err := st.UnsentReminders(context.Background())
	require.NoError(t, err)
	assert.Len(t, unsent, 1)

	sender.err = nil
	sent, err = d.CheckAndSend(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, sent)
}

func TestPerthReminderMeetsInLobby(t *testing.T) {
	st := store.NewMemoryStore()
	seedReminder(t, st)
	sender := &recordingSender{}
	registry := location.NewRegistry(nil, nil)
	_, err := registry.Update(context.Background(), location.Location{City: "Perth", Address: "Crown Towers, Burswood"})
	require.NoError(t, err)

	perth, err := time.LoadLocation("Australia/Perth")
	require.NoError(t, err)
	d := NewDispatcher(st, sender, registry, nil, nil).
		WithClock(func() time.Time { return time.Date(2024, 12, 20, 18, 0, 0, 0, perth) })

	sent, err := d.CheckAndSend(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, sent)
	assert.Contains(t, sender.sent[0], "I'll meet you in the lobby")
}

func TestDepositFollowUp(t *testing.T) {
	loc := adelaide(t)
	now := time.Date(2024, 12, 20, 12, 0, 0, 0, loc)
	st := store.NewMemoryStore().WithClock(func() time.Time { return now.Add(-40 * time.Minute) })
	ctx := context.Background()
	require.NoError(t, st.SaveDepositRequest(ctx, booking.DepositRequest{Identity: "+61400000000"}))
	require.NoError(t, st.SaveDepositRequest(ctx, booking.DepositRequest{Identity: "+61400000002", Responded: true}))

	sender := &recordingSender{}
	d := newDispatcher(t, st, sender, now)

	sent, err := d.CheckAndSend(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, sent)
	require.Len(t, sender.sent, 1)
	assert.Contains(t, sender.sent[0], "just confirming your still coming")

	sent, err = d.CheckAndSend(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, sent)
}

func TestRecentDepositNotFollowedUp(t *testing.T) {
	loc := adelaide(t)
	now := time.Date(2024, 12, 20, 12, 0, 0, 0, loc)
	st := store.NewMemoryStore().WithClock(func() time.Time { return now.Add(-10 * time.Minute) })
	require.NoError(t, st.SaveDepositRequest(context.Background(), booking.DepositRequest{Identity: "+61400000000"}))

	sent, err := newDispatcher(t, st, &recordingSender{}, now).CheckAndSend(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, sent)
}
