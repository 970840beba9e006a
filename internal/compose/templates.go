package compose

import (
	"bytes"
	"fmt"
	"net/url"
	"text/template"

	"github.com/wolfman30/sms-booking-bot/internal/location"
)

func (FirstContact) template() string {
	return "Hi if your wanting to make a booking please confirm the following details Date: Time: Duration: Experience: (GFE/PSE) Incall/Outcall. " +
		"Either text this information back to me or let me know by clicking this link to my webform: {{.FormURL}}\n\n" +
		"I'm currently in {{.City}} at {{.Hotel}}"
}

func (RandomRequest) template() string {
	return "If your wanting to see me then please advise me of the following so I can check availability:\n\n" +
		"DATE:\nTIME:\nDURATION:\nEXPERIENCE: (GFE/PSE)\nINCALL/OUTCALL:"
}

func (MissingFields) template() string {
	return "{{.Question}}"
}

func (AutomatedEnquiry) template() string {
	return "Due to the number of enquires I receive this is an automated responce. " +
		"If there is anything specific you wish to discuss with {{.ProviderName}} text ENQUIRY followed by your question. " +
		"For further information please visit my profile by clicking the link below: {{.WebsiteURL}}"
}

func (FinalRefusal) template() string {
	return "Im sorry but unfortunatly as you have not confirmed any of the details I have requested I am not able to schedule in a booking."
}

func (UnsafeRequest) template() string {
	return "I don't offer that service. Let's continue with your booking."
}

func (BookingCancelled) template() string {
	return "Your booking has been cancelled. Thanks for letting me know."
}

func (LocationUpdated) template() string {
	return "✅ Location updated!\n\nCity: {{.City}}\nAddress: {{.Address}}\nTimezone: {{.Timezone}}"
}

func (NeedName) template() string {
	return "I need your name to confirm. Reply with your name + YES\n\nExample: John YES"
}

func (DepositMandatory) template() string {
	return "{{.ClientName}}, A ${{.Amount}} deposit is required to confirm this booking.\n\nText DEPOSIT for payment details." +
		"{{if .ThreeStrike}} (Due to multiple information requests){{end}}"
}

func (BookingConfirmed) template() string {
	return "Booking confirmed for {{.ClientName}}.{{.LocationNote}}\n\n{{.Date}} at {{.Time}}\n{{.Duration}}, {{.Experience}}"
}

func (DepositOptional) template() string {
	return "Do you mind paying a small deposit? Its not mandatory, but its appreciated as it helps reassure me my time wont be wasted when I Reserve my time for you. " +
		"If you could please pay {{.SuggestedRange}} to my pay ID which is {{.PayID}}"
}

func (DepositDetails) template() string {
	return "PayID: {{.PayID}}\nReference: {{.Reference}}\n\nSend screenshot when done."
}

func (PostBookingRedirect) template() string {
	return "For specific questions or to speak directly with {{.ProviderName}}, text ENQUIRY followed by your question.\n\n" +
		"Example: ENQUIRY What services do you offer?"
}

func (TimeAvailable) template() string {
	return "{{.Date}} at {{.Time}} is available! 😊\n\n{{.Duration}}, {{.Experience}}, {{.Mode}}\n\n" +
		"Reply with your name + YES to confirm.\n\nExample: John YES"
}

func (EnquiryAcknowledged) template() string {
	return "Your message has been forwarded to {{.ProviderName}}. She'll respond personally soon."
}

func (EnquiryForward) template() string {
	return "📩 ENQUIRY from {{.Identity}}:\n\n{{.Text}}"
}

func (RoomReminder) template() string {
	return "Hi {{.ClientName}}! Your booking is in 1 hour.{{.LocationNote}}"
}

func (DepositFollowUp) template() string {
	return "I havnt heard back from you just confirming your still coming as i've reserved the time for you."
}

// Render fills the message template with strict missing-key semantics.
func Render(msg Message) (string, error) {
	name := msg.Situation().String()
	t, err := template.New(name).Option("missingkey=error").Parse(msg.template())
	if err != nil {
		return "", fmt.Errorf("compose: parse %s: %w", name, err)
	}
	var buf bytes.Buffer
	if err := t.Execute(&buf, msg); err != nil {
		return "", fmt.Errorf("compose: execute %s: %w", name, err)
	}
	return buf.String(), nil
}

// IncallNote is the confirmation location block before room details are released.
func IncallNote(loc location.Location) string {
	return fmt.Sprintf("\n\nLocation: %s\nHotel: %s\n\nRoom details will be sent 1 hour before your booking.", loc.City, loc.Hotel())
}

// OutcallNote gives the client's address back with navigation links.
func OutcallNote(address string) string {
	enc := url.QueryEscape(address)
	return fmt.Sprintf("\n\nI'll come to: %s\n\n🚗 Uber: https://m.uber.com/ul/?action=setPickup&pickup=my_location&dropoff[formatted_address]=%s\n🗺️ Google Maps: https://www.google.com/maps/dir/?api=1&destination=%s",
		address, enc, enc)
}

// RoomDetailsNote is the full location block sent with the reminder.
func RoomDetailsNote(loc location.Location) string {
	if loc.MeetsInLobby() {
		return fmt.Sprintf("\n\nLocation: %s\n%s\n\nI'll meet you in the lobby approximately 5 minutes before your booking time.", loc.City, loc.Address)
	}
	return fmt.Sprintf("\n\nLocation: %s\n%s\n\nIntercom/Room: %s", loc.City, loc.Address, loc.Intercom)
}
