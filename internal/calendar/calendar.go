// Package calendar records bookings on the provider's calendar.
package calendar

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	gcal "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"github.com/wolfman30/sms-booking-bot/internal/booking"
)

// Google Calendar colour ids.
const (
	ColorUnconfirmed = "7" // peacock
	ColorConfirmed   = "2" // basil
)

// Event is a booking to place on the calendar.
type Event struct {
	Identity   string
	ClientName string
	Progress   booking.Progress
	Timezone   string
}

// Service creates calendar events. An empty id with a nil error means the
// calendar is not configured.
type Service interface {
	CreateEvent(ctx context.Context, ev Event, confirmed bool) (string, error)
}

// NoopService is used when no calendar credentials are configured.
type NoopService struct{}

func (NoopService) CreateEvent(context.Context, Event, bool) (string, error) { return "", nil }

// GoogleService inserts events through the Calendar v3 API.
type GoogleService struct {
	svc        *gcal.Service
	calendarID string
}

// NewGoogleService builds the service from client options, typically
// option.WithCredentialsFile for a service account.
func NewGoogleService(ctx context.Context, calendarID string, opts ...option.ClientOption) (*GoogleService, error) {
	if strings.TrimSpace(calendarID) == "" {
		calendarID = "primary"
	}
	opts = append([]option.ClientOption{option.WithScopes(gcal.CalendarScope)}, opts...)
	svc, err := gcal.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("calendar: create service: %w", err)
	}
	return &GoogleService{svc: svc, calendarID: calendarID}, nil
}

func (g *GoogleService) CreateEvent(ctx context.Context, ev Event, confirmed bool) (string, error) {
	body, err := BuildEvent(ev, confirmed)
	if err != nil {
		return "", err
	}
	created, err := g.svc.Events.Insert(g.calendarID, body).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("calendar: insert event: %w", err)
	}
	return created.Id, nil
}

// BuildEvent maps a booking onto a calendar event in the location's timezone.
func BuildEvent(ev Event, confirmed bool) (*gcal.Event, error) {
	tz := ev.Timezone
	if tz == "" {
		return nil, errors.New("calendar: timezone required")
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("calendar: load timezone: %w", err)
	}
	start, err := booking.ParseStart(ev.Progress.Date, ev.Progress.Time, loc)
	if err != nil {
		return nil, err
	}
	end := start.Add(booking.ParseDuration(ev.Progress.Duration))

	name := ev.ClientName
	if name == "" {
		name = "Booking"
	}
	experience := ev.Progress.Experience
	if experience == "" {
		experience = "Client"
	}
	described := ev.ClientName
	if described == "" {
		described = "Not provided"
	}
	color := ColorUnconfirmed
	if confirmed {
		color = ColorConfirmed
	}

	return &gcal.Event{
		Summary:     fmt.Sprintf("%s - %s", name, experience),
		Description: fmt.Sprintf("Client: %s\nPhone: %s", described, ev.Identity),
		Start:       &gcal.EventDateTime{DateTime: start.Format(time.RFC3339), TimeZone: tz},
		End:         &gcal.EventDateTime{DateTime: end.Format(time.RFC3339), TimeZone: tz},
		ColorId:     color,
	}, nil
}
