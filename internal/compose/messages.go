package compose

import (
	"github.com/wolfman30/sms-booking-bot/internal/booking"
)

// Situation names every message the bot can send.
type Situation int

const (
	SituationFirstContact Situation = iota
	SituationRandomRequest
	SituationMissingFields
	SituationAutomatedEnquiry
	SituationFinalRefusal
	SituationUnsafeRequest
	SituationBookingCancelled
	SituationLocationUpdated
	SituationNeedName
	SituationDepositMandatory
	SituationBookingConfirmed
	SituationDepositOptional
	SituationDepositDetails
	SituationPostBookingRedirect
	SituationTimeAvailable
	SituationEnquiryAcknowledged
	SituationEnquiryForward
	SituationRoomReminder
	SituationDepositFollowUp
)

var situationNames = map[Situation]string{
	SituationFirstContact:        "first_contact",
	SituationRandomRequest:       "random_request",
	SituationMissingFields:       "missing_fields",
	SituationAutomatedEnquiry:    "automated_enquiry",
	SituationFinalRefusal:        "final_refusal",
	SituationUnsafeRequest:       "unsafe_request",
	SituationBookingCancelled:    "booking_cancelled",
	SituationLocationUpdated:     "location_updated",
	SituationNeedName:            "need_name",
	SituationDepositMandatory:    "deposit_mandatory",
	SituationBookingConfirmed:    "booking_confirmed",
	SituationDepositOptional:     "deposit_optional",
	SituationDepositDetails:      "deposit_details",
	SituationPostBookingRedirect: "post_booking_redirect",
	SituationTimeAvailable:       "time_available",
	SituationEnquiryAcknowledged: "enquiry_acknowledged",
	SituationEnquiryForward:      "enquiry_forward",
	SituationRoomReminder:        "room_reminder",
	SituationDepositFollowUp:     "deposit_follow_up",
}

func (s Situation) String() string {
	if name, ok := situationNames[s]; ok {
		return name
	}
	return "unknown"
}

// Message is a situation together with the parameters its template needs.
// The interface is sealed; every implementation lives in this file.
type Message interface {
	Situation() Situation
	// Polish reports whether the tone pass may run on the rendered text.
	Polish() bool
	template() string
}

type FirstContact struct {
	City    string
	Hotel   string
	FormURL string
}

type RandomRequest struct{}

type MissingFields struct {
	Missing []booking.Field
}

// Question is used by the template.
func (m MissingFields) Question() string {
	return booking.MissingFieldsQuestion(m.Missing)
}

type AutomatedEnquiry struct {
	ProviderName string
	WebsiteURL   string
}

type FinalRefusal struct{}

type UnsafeRequest struct{}

type BookingCancelled struct{}

type LocationUpdated struct {
	City     string
	Address  string
	Timezone string
}

type NeedName struct{}

type DepositMandatory struct {
	ClientName  string
	Amount      int
	ThreeStrike bool
}

type BookingConfirmed struct {
	ClientName   string
	LocationNote string
	Date         string
	Time         string
	Duration     string
	Experience   string
}

type DepositOptional struct {
	SuggestedRange string
	PayID          string
}

type DepositDetails struct {
	PayID     string
	Reference string
}

type PostBookingRedirect struct {
	ProviderName string
}

type TimeAvailable struct {
	Date       string
	Time       string
	Duration   string
	Experience string
	Mode       string
}

type EnquiryAcknowledged struct {
	ProviderName string
}

// EnquiryForward is what the operator receives for a client ENQUIRY.
type EnquiryForward struct {
	Identity string
	Text     string
}

type RoomReminder struct {
	ClientName   string
	LocationNote string
}

type DepositFollowUp struct{}

func (FirstContact) Situation() Situation        { return SituationFirstContact }
func (RandomRequest) Situation() Situation       { return SituationRandomRequest }
func (MissingFields) Situation() Situation       { return SituationMissingFields }
func (AutomatedEnquiry) Situation() Situation    { return SituationAutomatedEnquiry }
func (FinalRefusal) Situation() Situation        { return SituationFinalRefusal }
func (UnsafeRequest) Situation() Situation       { return SituationUnsafeRequest }
func (BookingCancelled) Situation() Situation    { return SituationBookingCancelled }
func (LocationUpdated) Situation() Situation     { return SituationLocationUpdated }
func (NeedName) Situation() Situation            { return SituationNeedName }
func (DepositMandatory) Situation() Situation    { return SituationDepositMandatory }
func (BookingConfirmed) Situation() Situation    { return SituationBookingConfirmed }
func (DepositOptional) Situation() Situation     { return SituationDepositOptional }
func (DepositDetails) Situation() Situation      { return SituationDepositDetails }
func (PostBookingRedirect) Situation() Situation { return SituationPostBookingRedirect }
func (TimeAvailable) Situation() Situation       { return SituationTimeAvailable }
func (EnquiryAcknowledged) Situation() Situation { return SituationEnquiryAcknowledged }
func (EnquiryForward) Situation() Situation      { return SituationEnquiryForward }
func (RoomReminder) Situation() Situation        { return SituationRoomReminder }
func (DepositFollowUp) Situation() Situation     { return SituationDepositFollowUp }

func (FirstContact) Polish() bool        { return true }
func (RandomRequest) Polish() bool       { return true }
func (MissingFields) Polish() bool       { return true }
func (AutomatedEnquiry) Polish() bool    { return true }
func (FinalRefusal) Polish() bool        { return true }
func (UnsafeRequest) Polish() bool       { return true }
func (BookingCancelled) Polish() bool    { return true }
func (LocationUpdated) Polish() bool     { return false }
func (NeedName) Polish() bool            { return true }
func (DepositMandatory) Polish() bool    { return true }
func (BookingConfirmed) Polish() bool    { return true }
func (DepositOptional) Polish() bool     { return true }
func (DepositDetails) Polish() bool      { return false }
func (PostBookingRedirect) Polish() bool { return false }
func (TimeAvailable) Polish() bool       { return true }
func (EnquiryAcknowledged) Polish() bool { return false }
func (EnquiryForward) Polish() bool      { return false }
func (RoomReminder) Polish() bool        { return false }
func (DepositFollowUp) Polish() bool     { return false }
