package conversation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/wolfman30/sms-booking-bot/internal/booking"
	"github.com/wolfman30/sms-booking-bot/internal/calendar"
	"github.com/wolfman30/sms-booking-bot/internal/compose"
	"github.com/wolfman30/sms-booking-bot/internal/escalation"
	"github.com/wolfman30/sms-booking-bot/internal/extract"
	"github.com/wolfman30/sms-booking-bot/internal/location"
	"github.com/wolfman30/sms-booking-bot/internal/lock"
	"github.com/wolfman30/sms-booking-bot/internal/messaging"
	"github.com/wolfman30/sms-booking-bot/internal/notify"
	"github.com/wolfman30/sms-booking-bot/internal/observability/metrics"
	"github.com/wolfman30/sms-booking-bot/internal/store"
	"github.com/wolfman30/sms-booking-bot/pkg/logging"
)

var engineTracer = otel.Tracer("smsbot.internal.conversation")

// ErrBlocked is returned to callers outside the SMS path for blocked numbers.
var ErrBlocked = errors.New("conversation: identity blocked")

// Action names the branch a turn took. It labels metrics and logs.
type Action string

const (
	ActionBlocked         Action = "blocked"
	ActionEnquiry         Action = "enquiry"
	ActionUnsafe          Action = "unsafe"
	ActionCancelled       Action = "cancelled"
	ActionLocationUpdated Action = "location_updated"
	ActionLocationInvalid Action = "location_invalid"
	ActionNeedName        Action = "need_name"
	ActionDepositRequired Action = "deposit_required"
	ActionConfirmed       Action = "confirmed"
	ActionDepositDetails  Action = "deposit_details"
	ActionPostBooking     Action = "post_booking_redirect"
	ActionPostBookingChat Action = "post_booking_chat"
	ActionFirstContact    Action = "first_contact"
	ActionAsk             Action = "ask"
	ActionRedirect        Action = "redirect"
	ActionBlock           Action = "block"
	ActionAvailable       Action = "available"
)

// Outcome is the result of one turn. An empty Reply means stay silent.
type Outcome struct {
	Reply  string
	Action Action
}

// Config holds the operator-facing values the templates need.
type Config struct {
	AdminNumbers  []string
	ProviderName  string
	WebsiteURL    string
	FormURL       string
	PayID         string
	DepositAmount int
	DepositRange  string
}

// Deps are the engine's collaborators. Store, Composer and Locations are
// required; the rest degrade to no-ops.
type Deps struct {
	Store     store.ConversationStore
	Locker    lock.Locker
	Extractor *extract.Extractor
	Composer  *compose.Composer
	Locations *location.Registry
	Calendar  calendar.Service
	Sender    messaging.Sender
	Notifier  *notify.Service
	Metrics   *metrics.ConversationMetrics
	Logger    *logging.Logger
}

// Engine is the booking state machine. One inbound message is one turn, and
// turns for the same identity never overlap.
type Engine struct {
	cfg       Config
	store     store.ConversationStore
	locker    lock.Locker
	extractor *extract.Extractor
	composer  *compose.Composer
	locations *location.Registry
	calendar  calendar.Service
	sender    messaging.Sender
	notifier  *notify.Service
	metrics   *metrics.ConversationMetrics
	logger    *logging.Logger
}

func NewEngine(cfg Config, deps Deps) (*Engine, error) {
	if deps.Store == nil {
		return nil, errors.New("conversation: store required")
	}
	if deps.Composer == nil {
		return nil, errors.New("conversation: composer required")
	}
	if deps.Locations == nil {
		return nil, errors.New("conversation: location registry required")
	}
	if deps.Locker == nil {
		deps.Locker = lock.NewLocalLocker()
	}
	if deps.Extractor == nil {
		deps.Extractor = extract.New(location.Cities())
	}
	if deps.Calendar == nil {
		deps.Calendar = calendar.NoopService{}
	}
	if deps.Logger == nil {
		deps.Logger = logging.Default()
	}
	if deps.Sender == nil {
		deps.Sender = messaging.NewLogSender(deps.Logger)
	}
	return &Engine{
		cfg:       cfg,
		store:     deps.Store,
		locker:    deps.Locker,
		extractor: deps.Extractor,
		composer:  deps.Composer,
		locations: deps.Locations,
		calendar:  deps.Calendar,
		sender:    deps.Sender,
		notifier:  deps.Notifier,
		metrics:   deps.Metrics,
		logger:    deps.Logger,
	}, nil
}

// Respond adapts HandleInbound to the webhook handler.
func (e *Engine) Respond(ctx context.Context, identity, body string) (string, error) {
	out, err := e.HandleInbound(ctx, identity, body)
	if err != nil {
		return "", err
	}
	return out.Reply, nil
}

// HandleInbound runs one turn. Store failures abort the turn with an error
// and no reply; calendar, rewriter and outbound failures are logged and the
// turn carries on.
func (e *Engine) HandleInbound(ctx context.Context, identity, text string) (Outcome, error) {
	identity = strings.TrimSpace(identity)
	text = strings.TrimSpace(text)
	if identity == "" {
		return Outcome{}, errors.New("conversation: identity required")
	}

	ctx, span := engineTracer.Start(ctx, "conversation.turn")
	defer span.End()
	span.SetAttributes(attribute.String("smsbot.identity", identity))

	unlock, err := e.locker.Lock(ctx, identity)
	if err != nil {
		span.RecordError(err)
		return Outcome{}, fmt.Errorf("conversation: lock %s: %w", identity, err)
	}
	defer unlock()

	start := time.Now()
	out, err := e.turn(ctx, identity, text)
	if err != nil {
		span.RecordError(err)
		e.logger.Error("conversation turn failed", "identity", identity, "error", err)
		return Outcome{}, err
	}
	span.SetAttributes(attribute.String("smsbot.action", string(out.Action)))
	e.metrics.ObserveTurn(string(out.Action), time.Since(start).Seconds())
	e.logger.Info("conversation turn", "identity", identity, "action", string(out.Action))
	return out, nil
}

func (e *Engine) turn(ctx context.Context, identity, text string) (Outcome, error) {
	blocked, err := e.store.IsBlocked(ctx, identity)
	if err != nil {
		return Outcome{}, fmt.Errorf("conversation: blocked lookup: %w", err)
	}
	if blocked {
		return Outcome{Action: ActionBlocked}, nil
	}

	count, err := e.store.LogMessage(ctx, identity, RedactCardNumbers(text))
	if err != nil {
		return Outcome{}, fmt.Errorf("conversation: log message: %w", err)
	}

	if enquiry, ok := EnquiryText(text); ok {
		return e.forwardEnquiry(ctx, identity, enquiry)
	}

	if IsUnsafeRequest(text) {
		return e.reply(ctx, compose.UnsafeRequest{}, 0, ActionUnsafe)
	}

	if IsCancellation(text) {
		return e.cancel(ctx, identity)
	}

	if location.IsUpdateMessage(text) && e.isAdmin(identity) {
		return e.updateLocation(ctx, text)
	}

	pending, hasPending, err := e.pending(ctx, identity)
	if err != nil {
		return Outcome{}, err
	}

	if hasPending && IsYes(text) {
		return e.confirm(ctx, identity, text, pending)
	}

	if hasPending && IsDepositRequest(text) {
		return e.depositDetails(ctx, pending)
	}

	if out, handled, err := e.postBooking(ctx, identity, text); err != nil || handled {
		return out, err
	}

	if count == 1 {
		loc := e.locations.Current()
		return e.reply(ctx, compose.FirstContact{City: loc.City, Hotel: loc.Hotel(), FormURL: e.cfg.FormURL}, 0, ActionFirstContact)
	}

	return e.collect(ctx, identity, text, pending, hasPending)
}

func (e *Engine) reply(ctx context.Context, msg compose.Message, attempts int, action Action) (Outcome, error) {
	text, err := e.composer.Compose(ctx, msg, attempts)
	if err != nil {
		return Outcome{}, fmt.Errorf("conversation: compose %s: %w", msg.Situation(), err)
	}
	return Outcome{Reply: text, Action: action}, nil
}

func (e *Engine) isAdmin(identity string) bool {
	for _, admin := range e.cfg.AdminNumbers {
		if messaging.SamePhone(identity, admin) {
			return true
		}
	}
	return false
}

func (e *Engine) pending(ctx context.Context, identity string) (booking.PendingConfirmation, bool, error) {
	p, err := e.store.GetPending(ctx, identity)
	switch {
	case errors.Is(err, store.ErrNotFound):
		return booking.PendingConfirmation{}, false, nil
	case err != nil:
		return booking.PendingConfirmation{}, false, fmt.Errorf("conversation: get pending: %w", err)
	}
	return p, true, nil
}

func (e *Engine) forwardEnquiry(ctx context.Context, identity, enquiry string) (Outcome, error) {
	forward, err := compose.Render(compose.EnquiryForward{Identity: identity, Text: enquiry})
	if err != nil {
		return Outcome{}, fmt.Errorf("conversation: render enquiry: %w", err)
	}
	if err := e.notifier.ForwardEnquiry(ctx, identity, forward); err != nil {
		e.logger.Warn("enquiry forward failed", "identity", identity, "error", err)
	}
	return e.reply(ctx, compose.EnquiryAcknowledged{ProviderName: e.cfg.ProviderName}, 0, ActionEnquiry)
}

func (e *Engine) cancel(ctx context.Context, identity string) (Outcome, error) {
	if err := e.store.DeletePending(ctx, identity); err != nil {
		return Outcome{}, fmt.Errorf("conversation: delete pending: %w", err)
	}
	if err := e.store.ClearProgress(ctx, identity); err != nil {
		return Outcome{}, fmt.Errorf("conversation: clear progress: %w", err)
	}
	if err := e.store.ResetAttempts(ctx, identity); err != nil {
		return Outcome{}, fmt.Errorf("conversation: reset attempts: %w", err)
	}
	if err := e.store.DeleteTracking(ctx, identity); err != nil {
		return Outcome{}, fmt.Errorf("conversation: delete tracking: %w", err)
	}
	return e.reply(ctx, compose.BookingCancelled{}, 0, ActionCancelled)
}

func (e *Engine) updateLocation(ctx context.Context, text string) (Outcome, error) {
	loc, err := e.locations.ApplyUpdateMessage(ctx, text)
	if err != nil {
		e.logger.Warn("location update rejected", "error", err)
		return Outcome{Action: ActionLocationInvalid}, nil
	}
	return e.reply(ctx, compose.LocationUpdated{City: loc.City, Address: loc.Address, Timezone: loc.Timezone}, 0, ActionLocationUpdated)
}

func (e *Engine) confirm(ctx context.Context, identity, text string, pending booking.PendingConfirmation) (Outcome, error) {
	name := ExtractName(text)
	if name == "" {
		return e.reply(ctx, compose.NeedName{}, 0, ActionNeedName)
	}

	attempts, err := e.store.Attempts(ctx, identity)
	if err != nil {
		return Outcome{}, fmt.Errorf("conversation: attempts: %w", err)
	}
	threeStrike := attempts >= escalation.ThreeStrike || pending.PromptCount >= escalation.ThreeStrike
	mandatory := pending.Progress.IsOutcall() ||
		HasProfanity(text) ||
		threeStrike ||
		pending.Status == booking.StatusPeacockAvailable ||
		pending.Status == booking.StatusDepositRequired

	if mandatory {
		pending.Status = booking.StatusDepositRequired
		pending.ClientName = name
		if err := e.store.SavePending(ctx, pending); err != nil {
			return Outcome{}, fmt.Errorf("conversation: save pending: %w", err)
		}
		return e.reply(ctx, compose.DepositMandatory{
			ClientName:  name,
			Amount:      e.cfg.DepositAmount,
			ThreeStrike: threeStrike,
		}, 0, ActionDepositRequired)
	}

	return e.book(ctx, identity, name, pending)
}

// book finalises a confirmation that needs no mandatory deposit.
func (e *Engine) book(ctx context.Context, identity, name string, pending booking.PendingConfirmation) (Outcome, error) {
	p := pending.Progress
	loc := e.locations.Current()

	eventID, err := e.calendar.CreateEvent(ctx, calendar.Event{
		Identity:   identity,
		ClientName: name,
		Progress:   p,
		Timezone:   loc.Timezone,
	}, false)
	if err != nil {
		e.logger.Warn("calendar event failed", "identity", identity, "error", err)
		eventID = ""
	}

	note := compose.IncallNote(loc)
	if p.IsOutcall() {
		note = compose.OutcallNote(p.OutcallAddress)
	}
	out, err := e.reply(ctx, compose.BookingConfirmed{
		ClientName:   name,
		LocationNote: note,
		Date:         p.Date,
		Time:         p.Time,
		Duration:     p.Duration,
		Experience:   p.Experience,
	}, 0, ActionConfirmed)
	if err != nil {
		return Outcome{}, err
	}

	if p.Mode == booking.ModeIncall {
		if err := e.store.ScheduleReminder(ctx, booking.Reminder{
			Identity:    identity,
			ClientName:  name,
			BookingDate: p.Date,
			BookingTime: p.Time,
		}); err != nil {
			return Outcome{}, fmt.Errorf("conversation: schedule reminder: %w", err)
		}
	}

	if deposit, err := e.composer.Compose(ctx, compose.DepositOptional{SuggestedRange: e.cfg.DepositRange, PayID: e.cfg.PayID}, 0); err != nil {
		e.logger.Warn("deposit message compose failed", "identity", identity, "error", err)
	} else if err := e.sender.SendSMS(ctx, identity, deposit); err != nil {
		e.logger.Warn("deposit message send failed", "identity", identity, "error", err)
	}

	if err := e.store.SaveDepositRequest(ctx, booking.DepositRequest{
		Identity:    identity,
		BookingDate: p.Date,
		BookingTime: p.Time,
		ClientName:  name,
	}); err != nil {
		return Outcome{}, fmt.Errorf("conversation: save deposit request: %w", err)
	}
	if err := e.store.SaveConfirmedBooking(ctx, booking.ConfirmedBooking{
		Identity:        identity,
		ClientName:      name,
		Progress:        p,
		CalendarEventID: eventID,
	}); err != nil {
		return Outcome{}, fmt.Errorf("conversation: save booking: %w", err)
	}
	if err := e.store.ClearProgress(ctx, identity); err != nil {
		return Outcome{}, fmt.Errorf("conversation: clear progress: %w", err)
	}
	if err := e.store.ResetAttempts(ctx, identity); err != nil {
		return Outcome{}, fmt.Errorf("conversation: reset attempts: %w", err)
	}
	if err := e.store.StartTracking(ctx, identity); err != nil {
		return Outcome{}, fmt.Errorf("conversation: start tracking: %w", err)
	}
	if err := e.store.DeletePending(ctx, identity); err != nil {
		return Outcome{}, fmt.Errorf("conversation: delete pending: %w", err)
	}

	e.notifier.BookingConfirmed(ctx, notify.Booking{
		Identity:   identity,
		ClientName: name,
		Date:       p.Date,
		Time:       p.Time,
		Duration:   p.Duration,
		Experience: p.Experience,
		Mode:       p.Mode,
		Address:    p.OutcallAddress,
		Deposit:    "optional",
	})
	return out, nil
}

func (e *Engine) depositDetails(ctx context.Context, pending booking.PendingConfirmation) (Outcome, error) {
	out, err := e.reply(ctx, compose.DepositDetails{
		PayID:     e.cfg.PayID,
		Reference: strings.TrimSpace(pending.Progress.Date + " " + pending.Progress.Time),
	}, 0, ActionDepositDetails)
	if err != nil {
		return Outcome{}, err
	}
	pending.AwaitingDepositScreenshot = true
	if err := e.store.SavePending(ctx, pending); err != nil {
		return Outcome{}, fmt.Errorf("conversation: save pending: %w", err)
	}
	return out, nil
}

// postBooking counts messages after a confirmed booking. The one-time ENQUIRY
// redirect is sent when due; other chatter without booking details is
// absorbed silently so it never counts toward an attempt.
func (e *Engine) postBooking(ctx context.Context, identity, text string) (Outcome, bool, error) {
	tracking, err := e.store.GetTracking(ctx, identity)
	if errors.Is(err, store.ErrNotFound) {
		return Outcome{}, false, nil
	}
	if err != nil {
		return Outcome{}, false, fmt.Errorf("conversation: get tracking: %w", err)
	}

	if err := e.store.MarkDepositResponded(ctx, identity); err != nil {
		return Outcome{}, false, fmt.Errorf("conversation: mark deposit responded: %w", err)
	}

	if tracking.MessageCount >= 3 && !tracking.EnquirySent {
		if err := e.store.MarkEnquirySent(ctx, identity); err != nil {
			return Outcome{}, false, fmt.Errorf("conversation: mark enquiry sent: %w", err)
		}
		out, err := e.reply(ctx, compose.PostBookingRedirect{ProviderName: e.cfg.ProviderName}, 0, ActionPostBooking)
		return out, true, err
	}

	if _, err := e.store.IncrementTracking(ctx, identity); err != nil {
		return Outcome{}, false, fmt.Errorf("conversation: increment tracking: %w", err)
	}
	if e.extractor.Extract(text, e.locations.Current().Loc()).IsEmpty() {
		return Outcome{Action: ActionPostBookingChat}, true, nil
	}
	return Outcome{}, false, nil
}

// collect merges what the message carries into the stored progress and
// either asks again, escalates, or offers the slot.
func (e *Engine) collect(ctx context.Context, identity, text string, pending booking.PendingConfirmation, hasPending bool) (Outcome, error) {
	stored, err := e.store.GetProgress(ctx, identity)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return Outcome{}, fmt.Errorf("conversation: get progress: %w", err)
	}
	extracted := e.extractor.Extract(text, e.locations.Current().Loc())
	merged := stored.Merge(extracted)

	attempts, err := e.store.Attempts(ctx, identity)
	if err != nil {
		return Outcome{}, fmt.Errorf("conversation: attempts: %w", err)
	}

	if merged.IsEmpty() {
		return e.escalate(ctx, identity, attempts, compose.RandomRequest{})
	}

	if !merged.Complete() {
		if merged != stored {
			if err := e.store.SaveProgress(ctx, identity, merged); err != nil {
				return Outcome{}, fmt.Errorf("conversation: save progress: %w", err)
			}
		}
		return e.escalate(ctx, identity, attempts, compose.MissingFields{Missing: merged.Missing()})
	}

	if merged != stored {
		if err := e.store.SaveProgress(ctx, identity, merged); err != nil {
			return Outcome{}, fmt.Errorf("conversation: save progress: %w", err)
		}
	}

	next := booking.PendingConfirmation{
		Identity:    identity,
		Progress:    merged,
		Status:      booking.StatusAvailable,
		PromptCount: attempts,
	}
	if hasPending && pending.Progress == merged {
		next = pending
	}
	if err := e.store.SavePending(ctx, next); err != nil {
		return Outcome{}, fmt.Errorf("conversation: save pending: %w", err)
	}
	if err := e.store.ResetAttempts(ctx, identity); err != nil {
		return Outcome{}, fmt.Errorf("conversation: reset attempts: %w", err)
	}

	return e.reply(ctx, compose.TimeAvailable{
		Date:       merged.Date,
		Time:       merged.Time,
		Duration:   merged.Duration,
		Experience: merged.Experience,
		Mode:       merged.Mode,
	}, 0, ActionAvailable)
}

// escalate applies the attempt ladder: ask, then redirect once, then refuse
// and block for good.
func (e *Engine) escalate(ctx context.Context, identity string, attempts int, ask compose.Message) (Outcome, error) {
	switch escalation.Decide(attempts) {
	case escalation.TierBlock:
		out, err := e.reply(ctx, compose.FinalRefusal{}, attempts, ActionBlock)
		if err != nil {
			return Outcome{}, err
		}
		if err := e.store.Block(ctx, identity, "no booking details"); err != nil {
			return Outcome{}, fmt.Errorf("conversation: block: %w", err)
		}
		e.metrics.ObserveBlocked()
		return out, nil

	case escalation.TierRedirect:
		out, err := e.reply(ctx, compose.AutomatedEnquiry{ProviderName: e.cfg.ProviderName, WebsiteURL: e.cfg.WebsiteURL}, attempts, ActionRedirect)
		if err != nil {
			return Outcome{}, err
		}
		if _, err := e.store.IncrementAttempts(ctx, identity); err != nil {
			return Outcome{}, fmt.Errorf("conversation: increment attempts: %w", err)
		}
		return out, nil
	}

	out, err := e.reply(ctx, ask, attempts, ActionAsk)
	if err != nil {
		return Outcome{}, err
	}
	if _, err := e.store.IncrementAttempts(ctx, identity); err != nil {
		return Outcome{}, fmt.Errorf("conversation: increment attempts: %w", err)
	}
	return out, nil
}
