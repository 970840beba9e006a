package booking

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Status tracks where a pending confirmation sits in the deposit flow.
type Status string

const (
	StatusAvailable        Status = "available"
	StatusDepositRequired  Status = "deposit_required"
	StatusPeacockAvailable Status = "peacock_available"
)

// Display layouts produced by the extractor and consumed by scheduling.
const (
	DateLayout     = "Monday 02/01/2006"
	TimeLayout     = "3:04PM"
	DateTimeLayout = DateLayout + " " + TimeLayout
)

// PendingConfirmation is a complete booking waiting for the client's YES.
type PendingConfirmation struct {
	Identity                  string
	Progress                  Progress
	Status                    Status
	AwaitingDepositScreenshot bool
	ClientName                string
	CalendarEventID           string
	// PromptCount is the attempt count when the details were completed, so
	// the three-strike rule survives the attempt reset.
	PromptCount int
	CreatedAt   time.Time
}

// ConfirmedBooking is written once the client confirms without a mandatory deposit.
type ConfirmedBooking struct {
	ID              uuid.UUID
	Identity        string
	ClientName      string
	Progress        Progress
	CalendarEventID string
	DepositPaid     bool
	CreatedAt       time.Time
}

// DepositRequest records the optional deposit ask sent after confirmation.
type DepositRequest struct {
	ID          uuid.UUID
	Identity    string
	BookingDate string
	BookingTime string
	ClientName  string
	Mandatory   bool
	Responded   bool
	FollowedUp  bool
	CreatedAt   time.Time
}

// Reminder is the room-detail message due an hour before an incall booking.
type Reminder struct {
	ID          uuid.UUID
	Identity    string
	ClientName  string
	BookingDate string
	BookingTime string
	Sent        bool
	CreatedAt   time.Time
}

// Start resolves the reminder's booking start in loc.
func (r Reminder) Start(loc *time.Location) (time.Time, error) {
	return ParseStart(r.BookingDate, r.BookingTime, loc)
}

// Tracking counts client messages after a confirmed booking.
type Tracking struct {
	Identity     string
	MessageCount int
	EnquirySent  bool
	UpdatedAt    time.Time
}

// InboundMessage is one logged client message.
type InboundMessage struct {
	Identity  string
	Body      string
	CreatedAt time.Time
}

// ParseStart combines extractor display strings into an absolute time.
func ParseStart(date, clock string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	date = strings.TrimSpace(date)
	clock = strings.TrimSpace(clock)
	if date == "" || clock == "" {
		return time.Time{}, fmt.Errorf("booking: date and time required")
	}
	start, err := time.ParseInLocation(DateTimeLayout, date+" "+clock, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("booking: parse start: %w", err)
	}
	return start, nil
}

var durationNumber = regexp.MustCompile(`(\d+)`)

// ParseDuration reads the verbatim duration string ("2 hours", "90 min").
// Anything unreadable counts as one hour.
func ParseDuration(raw string) time.Duration {
	lower := strings.ToLower(raw)
	m := durationNumber.FindString(lower)
	if m == "" {
		return time.Hour
	}
	n, err := strconv.Atoi(m)
	if err != nil || n <= 0 {
		return time.Hour
	}
	switch {
	case strings.Contains(lower, "hour"), strings.Contains(lower, "hr"):
		return time.Duration(n) * time.Hour
	case strings.Contains(lower, "min"):
		return time.Duration(n) * time.Minute
	}
	return time.Hour
}
