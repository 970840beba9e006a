package location

import (
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// DefaultTimezone applies to cities outside the known table.
const DefaultTimezone = "Australia/Adelaide"

// Location is where incall bookings currently take place.
type Location struct {
	City     string `json:"city"`
	Address  string `json:"address"`
	Intercom string `json:"intercom_number"`
	Timezone string `json:"timezone"`
}

// Default is used until an admin sets a location.
func Default() Location {
	return Location{
		City:     "Adelaide",
		Address:  "Adelaide CBD - Location details on confirmation",
		Intercom: "TBA",
		Timezone: DefaultTimezone,
	}
}

// City pairs a recognised city name with its IANA zone.
type City struct {
	Name     string
	Timezone string
}

// cities is ordered; extraction takes the first match.
var cities = []City{
	{Name: "Adelaide", Timezone: "Australia/Adelaide"},
	{Name: "Sydney", Timezone: "Australia/Sydney"},
	{Name: "Melbourne", Timezone: "Australia/Sydney"},
	{Name: "Brisbane", Timezone: "Australia/Brisbane"},
	{Name: "Perth", Timezone: "Australia/Perth"},
	{Name: "Darwin", Timezone: "Australia/Darwin"},
	{Name: "Hobart", Timezone: "Australia/Hobart"},
	{Name: "Canberra", Timezone: "Australia/Sydney"},
	{Name: "Gold Coast", Timezone: "Australia/Brisbane"},
	{Name: "Newcastle", Timezone: "Australia/Sydney"},
}

// Cities returns the known city table in match order.
func Cities() []City {
	out := make([]City, len(cities))
	copy(out, cities)
	return out
}

// TimezoneFor looks up the zone for a city name, case-insensitively.
func TimezoneFor(city string) string {
	normalized := TitleCase(city)
	for _, c := range cities {
		if c.Name == normalized {
			return c.Timezone
		}
	}
	return DefaultTimezone
}

// TitleCase capitalises each word ("gold coast" -> "Gold Coast").
func TitleCase(s string) string {
	return cases.Title(language.English).String(strings.TrimSpace(s))
}

// Hotel is the part of the address before the first comma.
func (l Location) Hotel() string {
	hotel, _, _ := strings.Cut(l.Address, ",")
	return strings.TrimSpace(hotel)
}

// Loc resolves the location's timezone, falling back to the default zone.
func (l Location) Loc() *time.Location {
	if l.Timezone != "" {
		if loc, err := time.LoadLocation(l.Timezone); err == nil {
			return loc
		}
	}
	if loc, err := time.LoadLocation(DefaultTimezone); err == nil {
		return loc
	}
	return time.UTC
}

// MeetsInLobby reports whether room details are replaced by a lobby meeting.
func (l Location) MeetsInLobby() bool {
	return strings.EqualFold(l.City, "Perth")
}
