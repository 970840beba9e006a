package extract

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/wolfman30/sms-booking-bot/internal/booking"
	"github.com/wolfman30/sms-booking-bot/internal/location"
)

var (
	dayMonthPattern = regexp.MustCompile(`(\d{1,2})[/-](\d{1,2})`)
	clockPattern    = regexp.MustCompile(`(\d{1,2}):(\d{2})\s?(am|pm)?`)
	hourPattern     = regexp.MustCompile(`(\d{1,2})\s?(am|pm)`)
	durationPattern = regexp.MustCompile(`(\d+)\s*(hour|hr|min)`)
	addressPattern  = regexp.MustCompile(`(?i)\d+\s+[A-Za-z\s]+(?:Street|St|Road|Rd|Avenue|Ave|Drive|Dr|Lane|Ln|Court|Ct|Place|Pl)\b(?:,?\s*[A-Za-z\s]+,?\s*\d{4})?`)
)

var weekdays = []struct {
	name string
	day  time.Weekday
}{
	{"monday", time.Monday},
	{"tuesday", time.Tuesday},
	{"wednesday", time.Wednesday},
	{"thursday", time.Thursday},
	{"friday", time.Friday},
	{"saturday", time.Saturday},
	{"sunday", time.Sunday},
}

// Extractor pulls booking fields out of free text. It holds no conversation
// state; the same text, city list and clock always give the same result.
type Extractor struct {
	cities []location.City
	now    func() time.Time
}

// New builds an extractor over the given city table.
func New(cities []location.City) *Extractor {
	return &Extractor{cities: cities, now: time.Now}
}

// WithClock overrides the clock used for relative dates.
func (e *Extractor) WithClock(now func() time.Time) *Extractor {
	if now != nil {
		e.now = now
	}
	return e
}

// Extract returns only the fields it could infer from text. Relative dates
// resolve in loc.
func (e *Extractor) Extract(text string, loc *time.Location) booking.Progress {
	if loc == nil {
		loc = time.UTC
	}
	lower := strings.ToLower(text)

	var p booking.Progress
	p.City = e.city(lower)
	if d, ok := e.date(lower, loc); ok {
		p.Date = d.Format(booking.DateLayout)
	}
	if hour, minute, ok := parseClock(lower); ok {
		p.Time = formatClock(hour, minute)
	}
	p.Duration = durationPattern.FindString(lower)
	p.Experience = experience(lower)
	p.Mode = mode(lower)
	p.OutcallAddress = strings.TrimSpace(addressPattern.FindString(text))
	return p
}

func (e *Extractor) city(lower string) string {
	for _, c := range e.cities {
		if strings.Contains(lower, strings.ToLower(c.Name)) {
			return c.Name
		}
	}
	return ""
}

func (e *Extractor) date(lower string, loc *time.Location) (time.Time, bool) {
	today := e.now().In(loc)

	if m := dayMonthPattern.FindStringSubmatch(lower); m != nil {
		day, _ := strconv.Atoi(m[1])
		month, _ := strconv.Atoi(m[2])
		if d, ok := validDate(today.Year(), month, day, loc); ok {
			return d, true
		}
	}

	for _, wd := range weekdays {
		if strings.Contains(lower, wd.name) {
			ahead := int(wd.day) - int(today.Weekday())
			if ahead <= 0 {
				ahead += 7
			}
			return today.AddDate(0, 0, ahead), true
		}
	}

	if strings.Contains(lower, "today") {
		return today, true
	}
	if strings.Contains(lower, "tomorrow") {
		return today.AddDate(0, 0, 1), true
	}
	return time.Time{}, false
}

// validDate rejects combinations time.Date would silently normalise (31/02).
func validDate(year, month, day int, loc *time.Location) (time.Time, bool) {
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return time.Time{}, false
	}
	d := time.Date(year, time.Month(month), day, 0, 0, 0, 0, loc)
	if d.Day() != day || int(d.Month()) != month {
		return time.Time{}, false
	}
	return d, true
}

func parseClock(lower string) (int, int, bool) {
	var hour, minute int
	var period string

	if m := clockPattern.FindStringSubmatch(lower); m != nil {
		hour, _ = strconv.Atoi(m[1])
		minute, _ = strconv.Atoi(m[2])
		period = m[3]
	} else if m := hourPattern.FindStringSubmatch(lower); m != nil {
		hour, _ = strconv.Atoi(m[1])
		period = m[2]
	} else {
		return 0, 0, false
	}

	switch period {
	case "pm":
		if hour < 12 {
			hour += 12
		}
	case "am":
		if hour == 12 {
			hour = 0
		}
	}
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return 0, 0, false
	}
	return hour, minute, true
}

func formatClock(hour, minute int) string {
	period := "AM"
	if hour >= 12 {
		period = "PM"
	}
	display := hour
	if display > 12 {
		display -= 12
	}
	if display == 0 {
		display = 12
	}
	return fmt.Sprintf("%d:%02d%s", display, minute, period)
}

func experience(lower string) string {
	switch {
	case strings.Contains(lower, "gfe"), strings.Contains(lower, "girlfriend"):
		return booking.ExperienceGFE
	case strings.Contains(lower, "pse"), strings.Contains(lower, "porn star"):
		return booking.ExperiencePSE
	}
	return ""
}

func mode(lower string) string {
	switch {
	case strings.Contains(lower, "incall"):
		return booking.ModeIncall
	case strings.Contains(lower, "outcall"):
		return booking.ModeOutcall
	}
	return ""
}
