package conversation

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/sms-booking-bot/internal/booking"
	"github.com/wolfman30/sms-booking-bot/internal/calendar"
	"github.com/wolfman30/sms-booking-bot/internal/compose"
	"github.com/wolfman30/sms-booking-bot/internal/extract"
	"github.com/wolfman30/sms-booking-bot/internal/location"
	"github.com/wolfman30/sms-booking-bot/internal/notify"
	"github.com/wolfman30/sms-booking-bot/internal/store"
)

const (
	client   = "+61400000000"
	admin    = "+61400000001"
	operator = "+61499999999"
)

type sentSMS struct {
	to, body string
}

type recordingSender struct {
	mu   sync.Mutex
	sent []sentSMS
	err  error
}

func (r *recordingSender) SendSMS(_ context.Context, to, body string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, sentSMS{to: to, body: body})
	return r.err
}

func (r *recordingSender) to(number string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, s := range r.sent {
		if s.to == number {
			out = append(out, s.body)
		}
	}
	return out
}

type recordingCalendar struct {
	events    []calendar.Event
	confirmed []bool
	id        string
	err       error
}

func (r *recordingCalendar) CreateEvent(_ context.Context, ev calendar.Event, confirmed bool) (string, error) {
	r.events = append(r.events, ev)
	r.confirmed = append(r.confirmed, confirmed)
	return r.id, r.err
}

type harness struct {
	engine    *Engine
	store     *store.MemoryStore
	sender    *recordingSender
	calendar  *recordingCalendar
	locations *location.Registry
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	adl, err := time.LoadLocation("Australia/Adelaide")
	require.NoError(t, err)
	now := time.Date(2024, 12, 18, 10, 0, 0, 0, adl)

	h := &harness{
		store:     store.NewMemoryStore(),
		sender:    &recordingSender{},
		calendar:  &recordingCalendar{id: "evt-1"},
		locations: location.NewRegistry(nil, nil),
	}
	engine, err := NewEngine(Config{
		AdminNumbers:  []string{admin},
		ProviderName:  "Mia",
		WebsiteURL:    "https://example.com/mia",
		FormURL:       "https://example.com/book",
		PayID:         "mia@payid.example",
		DepositAmount: 150,
		DepositRange:  "$20-$50",
	}, Deps{
		Store:     h.store,
		Extractor: extract.New(location.Cities()).WithClock(func() time.Time { return now }),
		Composer:  compose.NewComposer(nil, nil, nil),
		Locations: h.locations,
		Calendar:  h.calendar,
		Sender:    h.sender,
		Notifier:  notify.NewService(nil, h.sender, operator, "", nil),
	})
	require.NoError(t, err)
	h.engine = engine
	return h
}

func (h *harness) send(t *testing.T, text string) Outcome {
	t.Helper()
	out, err := h.engine.HandleInbound(context.Background(), client, text)
	require.NoError(t, err)
	return out
}

func (h *harness) attempts(t *testing.T) int {
	t.Helper()
	n, err := h.store.Attempts(context.Background(), client)
	require.NoError(t, err)
	return n
}

// seedPending stores a complete booking awaiting YES and logs an earlier
// message so the next turn is not a first contact.
func (h *harness) seedPending(t *testing.T, p booking.PendingConfirmation) {
	t.Helper()
	ctx := context.Background()
	_, err := h.store.LogMessage(ctx, client, "earlier")
	require.NoError(t, err)
	p.Identity = client
	if p.Status == "" {
		p.Status = booking.StatusAvailable
	}
	if p.Progress.IsEmpty() {
		p.Progress = incallProgress()
	}
	require.NoError(t, h.store.SavePending(ctx, p))
}

func incallProgress() booking.Progress {
	return booking.Progress{
		City:       "Adelaide",
		Date:       "Friday 20/12/2024",
		Time:       "7:00PM",
		Duration:   "2 hour",
		Experience: booking.ExperienceGFE,
		Mode:       booking.ModeIncall,
	}
}

func render(t *testing.T, msg compose.Message) string {
	t.Helper()
	text, err := compose.Render(msg)
	require.NoError(t, err)
	return text
}

func TestFirstContact(t *testing.T) {
	h := newHarness(t)

	out := h.send(t, "Hi")
	assert.Equal(t, ActionFirstContact, out.Action)
	assert.Contains(t, out.Reply, "https://example.com/book")
	assert.Contains(t, out.Reply, "I'm currently in Adelaide at Adelaide CBD - Location details on confirmation")
	assert.Equal(t, 0, h.attempts(t))
}

func TestEscalationLadderEndsInSilence(t *testing.T) {
	h := newHarness(t)
	h.send(t, "Hi")

	for i := 0; i < 4; i++ {
		out := h.send(t, "hello there")
		assert.Equal(t, ActionAsk, out.Action, "ask %d", i)
		assert.Equal(t, render(t, compose.RandomRequest{}), out.Reply)
		assert.Equal(t, i+1, h.attempts(t))
	}

	out := h.send(t, "hello there")
	assert.Equal(t, ActionRedirect, out.Action)
	assert.Contains(t, out.Reply, "text ENQUIRY followed by your question")
	assert.Equal(t, 5, h.attempts(t))

	out = h.send(t, "hello there")
	assert.Equal(t, ActionBlock, out.Action)
	assert.Equal(t, render(t, compose.FinalRefusal{}), out.Reply)

	blocked, err := h.store.IsBlocked(context.Background(), client)
	require.NoError(t, err)
	assert.True(t, blocked)

	for _, text := range []string{"hello?", "Adelaide friday 7pm 2 hours GFE incall", "ENQUIRY please"} {
		out = h.send(t, text)
		assert.Equal(t, ActionBlocked, out.Action)
		assert.Empty(t, out.Reply)
	}
	assert.Empty(t, h.sender.to(operator))
}

func TestMissingFieldsAreAskedFor(t *testing.T) {
	h := newHarness(t)
	h.send(t, "Hi")

	out := h.send(t, "Adelaide on friday")
	assert.Equal(t, ActionAsk, out.Action)
	assert.Equal(t, "I still need: Time, Duration, Experience (GFE/PSE), Incall or Outcall", out.Reply)

	out = h.send(t, "7pm for 2 hours GFE")
	assert.Equal(t, "I just need your Incall or Outcall", out.Reply)
	assert.Equal(t, 2, h.attempts(t))

	p, err := h.store.GetProgress(context.Background(), client)
	require.NoError(t, err)
	assert.Equal(t, "Adelaide", p.City)
	assert.Equal(t, "7:00PM", p.Time)
}

func TestCompleteDetailsOfferTheSlot(t *testing.T) {
	h := newHarness(t)
	h.send(t, "Hi")
	h.send(t, "hello")
	require.Equal(t, 1, h.attempts(t))

	out := h.send(t, "Hi, Adelaide this Friday 7pm for 2 hours, GFE incall please")
	assert.Equal(t, ActionAvailable, out.Action)
	assert.Contains(t, out.Reply, "Friday 20/12/2024 at 7:00PM is available!")

	pending, err := h.store.GetPending(context.Background(), client)
	require.NoError(t, err)
	assert.Equal(t, booking.StatusAvailable, pending.Status)
	assert.Equal(t, incallProgress(), pending.Progress)
	assert.Equal(t, 1, pending.PromptCount)
	assert.Equal(t, 0, h.attempts(t))
}

func TestRepeatedDetailsKeepPendingStatus(t *testing.T) {
	h := newHarness(t)
	h.seedPending(t, booking.PendingConfirmation{Status: booking.StatusDepositRequired, PromptCount: 3})
	require.NoError(t, h.store.SaveProgress(context.Background(), client, incallProgress()))

	out := h.send(t, "Adelaide")
	assert.Equal(t, ActionAvailable, out.Action)

	pending, err := h.store.GetPending(context.Background(), client)
	require.NoError(t, err)
	assert.Equal(t, booking.StatusDepositRequired, pending.Status)
	assert.Equal(t, 3, pending.PromptCount)
}

func TestOutcallYesRequiresDeposit(t *testing.T) {
	h := newHarness(t)
	p := incallProgress()
	p.Mode = booking.ModeOutcall
	p.OutcallAddress = "12 King William Street"
	h.seedPending(t, booking.PendingConfirmation{Progress: p})

	out := h.send(t, "John YES")
	assert.Equal(t, ActionDepositRequired, out.Action)
	assert.Equal(t, "John, A $150 deposit is required to confirm this booking.\n\nText DEPOSIT for payment details.", out.Reply)

	pending, err := h.store.GetPending(context.Background(), client)
	require.NoError(t, err)
	assert.Equal(t, booking.StatusDepositRequired, pending.Status)
	assert.Equal(t, "John", pending.ClientName)
	assert.Empty(t, h.store.ConfirmedBookings(client))
	assert.Empty(t, h.calendar.events)
}

func TestThreeStrikeRequiresDeposit(t *testing.T) {
	h := newHarness(t)
	h.seedPending(t, booking.PendingConfirmation{PromptCount: 3})

	out := h.send(t, "sam yes")
	assert.Equal(t, ActionDepositRequired, out.Action)
	assert.Contains(t, out.Reply, "Sam, A $150 deposit")
	assert.Contains(t, out.Reply, "(Due to multiple information requests)")
}

func TestProfanityRequiresDeposit(t *testing.T) {
	h := newHarness(t)
	h.seedPending(t, booking.PendingConfirmation{})

	out := h.send(t, "yes damn it John, what the hell")
	assert.Equal(t, ActionDepositRequired, out.Action)
	assert.NotContains(t, out.Reply, "multiple information requests")
}

func TestConfirmationWithoutDeposit(t *testing.T) {
	h := newHarness(t)
	h.seedPending(t, booking.PendingConfirmation{})
	ctx := context.Background()
	require.NoError(t, h.store.SaveProgress(ctx, client, incallProgress()))

	out := h.send(t, "john yes")
	assert.Equal(t, ActionConfirmed, out.Action)
	assert.Contains(t, out.Reply, "Booking confirmed for John.")
	assert.Contains(t, out.Reply, "Room details will be sent 1 hour before your booking.")
	assert.Contains(t, out.Reply, "Friday 20/12/2024 at 7:00PM")

	require.Len(t, h.calendar.events, 1)
	assert.False(t, h.calendar.confirmed[0])
	assert.Equal(t, "John", h.calendar.events[0].ClientName)
	assert.Equal(t, location.DefaultTimezone, h.calendar.events[0].Timezone)

	deposit := h.sender.to(client)
	require.Len(t, deposit, 1)
	assert.Contains(t, deposit[0], "mia@payid.example")
	assert.Contains(t, deposit[0], "$20-$50")

	bookings := h.store.ConfirmedBookings(client)
	require.Len(t, bookings, 1)
	assert.Equal(t, "evt-1", bookings[0].CalendarEventID)
	assert.Equal(t, "John", bookings[0].ClientName)

	requests := h.store.DepositRequests(client)
	require.Len(t, requests, 1)
	assert.False(t, requests[0].Mandatory)

	reminders, err := h.store.UnsentReminders(ctx)
	require.NoError(t, err)
	require.Len(t, reminders, 1)
	assert.Equal(t, "7:00PM", reminders[0].BookingTime)

	_, err = h.store.GetPending(ctx, client)
	assert.ErrorIs(t, err, store.ErrNotFound)
	_, err = h.store.GetProgress(ctx, client)
	assert.ErrorIs(t, err, store.ErrNotFound)
	tracking, err := h.store.GetTracking(ctx, client)
	require.NoError(t, err)
	assert.Equal(t, 0, tracking.MessageCount)
}

func TestConfirmationSurvivesCalendarAndSendFailures(t *testing.T) {
	h := newHarness(t)
	h.calendar.err = errors.New("calendar down")
	h.sender.err = errors.New("twilio down")
	h.seedPending(t, booking.PendingConfirmation{})

	out := h.send(t, "John yes")
	assert.Equal(t, ActionConfirmed, out.Action)

	bookings := h.store.ConfirmedBookings(client)
	require.Len(t, bookings, 1)
	assert.Empty(t, bookings[0].CalendarEventID)
}

func TestOutcallConfirmationHasNoReminder(t *testing.T) {
	h := newHarness(t)
	p := incallProgress()
	p.Mode = booking.ModeOutcall
	p.OutcallAddress = "45 Smith Rd"
	pending := booking.PendingConfirmation{Progress: p}
	h.seedPending(t, pending)

	// Outcall always gates on a deposit, so drive book directly.
	out, err := h.engine.book(context.Background(), client, "John", booking.PendingConfirmation{Identity: client, Progress: p})
	require.NoError(t, err)
	assert.Contains(t, out.Reply, "I'll come to: 45 Smith Rd")

	reminders, err := h.store.UnsentReminders(context.Background())
	require.NoError(t, err)
	assert.Empty(t, reminders)
}

func TestYesWithoutName(t *testing.T) {
	h := newHarness(t)
	h.seedPending(t, booking.PendingConfirmation{})

	for _, text := range []string{"yes", "ok yes", "Yes!"} {
		out := h.send(t, text)
		assert.Equal(t, ActionNeedName, out.Action, text)
		assert.Equal(t, render(t, compose.NeedName{}), out.Reply)
	}
	_, err := h.store.GetPending(context.Background(), client)
	assert.NoError(t, err)
}

func TestDepositDetails(t *testing.T) {
	h := newHarness(t)
	h.seedPending(t, booking.PendingConfirmation{Status: booking.StatusDepositRequired})

	out := h.send(t, "  deposit ")
	assert.Equal(t, ActionDepositDetails, out.Action)
	assert.Equal(t, "PayID: mia@payid.example\nReference: Friday 20/12/2024 7:00PM\n\nSend screenshot when done.", out.Reply)

	pending, err := h.store.GetPending(context.Background(), client)
	require.NoError(t, err)
	assert.True(t, pending.AwaitingDepositScreenshot)
	assert.Equal(t, booking.StatusDepositRequired, pending.Status)
}

func TestPostBookingRedirectOnce(t *testing.T) {
	h := newHarness(t)
	h.seedPending(t, booking.PendingConfirmation{})
	h.send(t, "John yes")

	for i := 0; i < 3; i++ {
		out := h.send(t, "thanks")
		assert.NotEqual(t, ActionPostBooking, out.Action)
	}
	tracking, err := h.store.GetTracking(context.Background(), client)
	require.NoError(t, err)
	assert.Equal(t, 3, tracking.MessageCount)

	out := h.send(t, "thanks again")
	assert.Equal(t, ActionPostBooking, out.Action)
	assert.Equal(t, render(t, compose.PostBookingRedirect{ProviderName: "Mia"}), out.Reply)

	out = h.send(t, "one more thing")
	assert.NotEqual(t, ActionPostBooking, out.Action)

	tracking, err = h.store.GetTracking(context.Background(), client)
	require.NoError(t, err)
	assert.True(t, tracking.EnquirySent)
	assert.Equal(t, 4, tracking.MessageCount)

	requests := h.store.DepositRequests(client)
	require.Len(t, requests, 1)
	assert.True(t, requests[0].Responded)
}

func TestPostBookingChatterStaysQuiet(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.seedPending(t, booking.PendingConfirmation{})
	require.Equal(t, ActionConfirmed, h.send(t, "John yes").Action)

	chatter := []string{"thanks", "see you soon", "looking forward to it", "cool", "haha", "thanks again", "bye"}
	redirects := 0
	for _, text := range chatter {
		out := h.send(t, text)
		if out.Action == ActionPostBooking {
			redirects++
			continue
		}
		assert.Equal(t, ActionPostBookingChat, out.Action, text)
		assert.Empty(t, out.Reply, text)
	}
	assert.Equal(t, 1, redirects)
	assert.Equal(t, 0, h.attempts(t))

	blocked, err := h.store.IsBlocked(ctx, client)
	require.NoError(t, err)
	assert.False(t, blocked)
}

func TestCancellation(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.seedPending(t, booking.PendingConfirmation{})
	require.NoError(t, h.store.SaveProgress(ctx, client, incallProgress()))
	_, err := h.store.IncrementAttempts(ctx, client)
	require.NoError(t, err)
	require.NoError(t, h.store.StartTracking(ctx, client))

	out := h.send(t, "sorry I need to cancel")
	assert.Equal(t, ActionCancelled, out.Action)
	assert.Equal(t, render(t, compose.BookingCancelled{}), out.Reply)

	_, err = h.store.GetPending(ctx, client)
	assert.ErrorIs(t, err, store.ErrNotFound)
	_, err = h.store.GetProgress(ctx, client)
	assert.ErrorIs(t, err, store.ErrNotFound)
	_, err = h.store.GetTracking(ctx, client)
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.Equal(t, 0, h.attempts(t))
}

func TestAdminLocationUpdate(t *testing.T) {
	h := newHarness(t)

	out, err := h.engine.HandleInbound(context.Background(), "+61 400 000 001", "LOCATION perth: Crown Towers, Burswood INTERCOM 12")
	require.NoError(t, err)
	assert.Equal(t, ActionLocationUpdated, out.Action)
	assert.Equal(t, "✅ Location updated!\n\nCity: Perth\nAddress: Crown Towers, Burswood\nTimezone: Australia/Perth", out.Reply)

	loc := h.locations.Current()
	assert.Equal(t, "Perth", loc.City)
	assert.Equal(t, "12", loc.Intercom)

	out = h.send(t, "LOCATION Sydney: Somewhere")
	assert.Equal(t, ActionFirstContact, out.Action)
	assert.Contains(t, out.Reply, "I'm currently in Perth at Crown Towers")
}

func TestEnquiryIsForwarded(t *testing.T) {
	h := newHarness(t)
	h.send(t, "Hi")

	out := h.send(t, "enquiry do you travel to Hobart?")
	assert.Equal(t, ActionEnquiry, out.Action)
	assert.Equal(t, "Your message has been forwarded to Mia. She'll respond personally soon.", out.Reply)

	forwarded := h.sender.to(operator)
	require.Len(t, forwarded, 1)
	assert.Equal(t, "📩 ENQUIRY from "+client+":\n\ndo you travel to Hobart?", forwarded[0])
	assert.Equal(t, 0, h.attempts(t))
	_, err := h.store.GetProgress(context.Background(), client)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestUnsafeRequest(t *testing.T) {
	h := newHarness(t)
	h.send(t, "Hi")

	out := h.send(t, "do you do BBBJ or bb?")
	assert.Equal(t, ActionUnsafe, out.Action)
	assert.Equal(t, render(t, compose.UnsafeRequest{}), out.Reply)
	assert.Equal(t, 0, h.attempts(t))

	blocked, err := h.store.IsBlocked(context.Background(), client)
	require.NoError(t, err)
	assert.False(t, blocked)
}

type failingLogStore struct {
	*store.MemoryStore
}

func (failingLogStore) LogMessage(context.Context, string, string) (int, error) {
	return 0, store.ErrContention
}

func TestStoreFailureAbortsTurn(t *testing.T) {
	h := newHarness(t)
	h.engine.store = failingLogStore{MemoryStore: h.store}

	out, err := h.engine.HandleInbound(context.Background(), client, "Hi")
	require.Error(t, err)
	assert.ErrorIs(t, err, store.ErrContention)
	assert.Empty(t, out.Reply)

	_, err = h.engine.Respond(context.Background(), client, "Hi")
	assert.Error(t, err)
}

func TestCardNumbersAreRedactedInLog(t *testing.T) {
	h := newHarness(t)
	h.send(t, "my card is 4111 1111 1111 1111")

	msgs, err := h.store.RecentMessages(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, "my card is [card ending 1111]", msgs[0].Body)
}

func TestRespondReturnsReply(t *testing.T) {
	h := newHarness(t)
	reply, err := h.engine.Respond(context.Background(), client, "Hi")
	require.NoError(t, err)
	assert.Contains(t, reply, "I'm currently in Adelaide")
}

func TestNewEngineRequiresCollaborators(t *testing.T) {
	_, err := NewEngine(Config{}, Deps{})
	assert.Error(t, err)

	_, err = NewEngine(Config{}, Deps{Store: store.NewMemoryStore(), Composer: compose.NewComposer(nil, nil, nil)})
	assert.Error(t, err)
}
