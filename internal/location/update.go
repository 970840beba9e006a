package location

import (
	"errors"
	"regexp"
	"strings"
)

// UpdatePrefix marks an admin location update message.
const UpdatePrefix = "LOCATION "

var (
	intercomPattern = regexp.MustCompile(`(?i)INTERCOM\s+(\w+)`)
	intercomStrip   = regexp.MustCompile(`(?i)\s*INTERCOM\s+\w+`)

	ErrEmptyUpdate = errors.New("location: update text is empty")
)

// IsUpdateMessage reports whether body is a location update command.
func IsUpdateMessage(body string) bool {
	return strings.HasPrefix(body, UpdatePrefix)
}

// ParseUpdate reads "LOCATION City: Address [INTERCOM N]". Without a colon the
// whole text is the address and the current city is kept. The intercom is
// only replaced when the message names one.
func ParseUpdate(body string, current Location) (Location, error) {
	text := strings.TrimSpace(strings.TrimPrefix(body, UpdatePrefix))
	if text == "" {
		return Location{}, ErrEmptyUpdate
	}

	next := current
	if m := intercomPattern.FindStringSubmatch(text); m != nil {
		next.Intercom = m[1]
		text = strings.TrimSpace(intercomStrip.ReplaceAllString(text, ""))
	}

	if city, address, ok := strings.Cut(text, ":"); ok {
		next.City = TitleCase(city)
		next.Address = strings.TrimSpace(address)
	} else {
		next.Address = text
	}
	if next.City == "" {
		next.City = current.City
	}
	next.Timezone = TimezoneFor(next.City)
	return next, nil
}
