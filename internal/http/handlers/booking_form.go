package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/wolfman30/sms-booking-bot/internal/booking"
	"github.com/wolfman30/sms-booking-bot/internal/conversation"
	"github.com/wolfman30/sms-booking-bot/internal/location"
	"github.com/wolfman30/sms-booking-bot/internal/messaging"
	"github.com/wolfman30/sms-booking-bot/pkg/logging"
)

const maxFormBody = 16 << 10

// BookingIntake accepts a complete booking captured outside SMS.
type BookingIntake interface {
	SubmitWebForm(ctx context.Context, identity string, p booking.Progress) (string, error)
}

// BookingFormHandler serves the public booking web form API.
type BookingFormHandler struct {
	intake BookingIntake
	logger *logging.Logger
}

func NewBookingFormHandler(intake BookingIntake, logger *logging.Logger) *BookingFormHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &BookingFormHandler{intake: intake, logger: logger}
}

// BookingFormRequest is the JSON body of POST /booking. Date is YYYY-MM-DD
// and time is 24-hour HH:MM.
type BookingFormRequest struct {
	Phone          string `json:"phone"`
	City           string `json:"city"`
	Date           string `json:"date"`
	Time           string `json:"time"`
	Duration       string `json:"duration"`
	Experience     string `json:"experience"`
	IncallOutcall  string `json:"incall_outcall"`
	OutcallAddress string `json:"outcall_address"`
}

type fieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Progress validates the request and converts it to the display formats the
// SMS path uses.
func (req BookingFormRequest) Progress() (string, booking.Progress, []fieldError) {
	var errs []fieldError
	add := func(field, msg string) { errs = append(errs, fieldError{Field: field, Message: msg}) }

	phone := messaging.NormalizeE164(req.Phone)
	if len(phone) < 9 {
		add("phone", "a mobile number is required")
	}

	var p booking.Progress
	if city := strings.TrimSpace(req.City); city != "" {
		p.City = location.TitleCase(city)
	} else {
		add("city", "required")
	}
	if d, err := time.Parse("2006-01-02", strings.TrimSpace(req.Date)); err == nil {
		p.Date = d.Format(booking.DateLayout)
	} else {
		add("date", "use YYYY-MM-DD")
	}
	if t, err := time.Parse("15:04", strings.TrimSpace(req.Time)); err == nil {
		p.Time = t.Format(booking.TimeLayout)
	} else {
		add("time", "use HH:MM")
	}
	if d := strings.TrimSpace(req.Duration); d != "" {
		p.Duration = d
	} else {
		add("duration", "required")
	}
	switch strings.ToUpper(strings.TrimSpace(req.Experience)) {
	case booking.ExperienceGFE:
		p.Experience = booking.ExperienceGFE
	case booking.ExperiencePSE:
		p.Experience = booking.ExperiencePSE
	default:
		add("experience", "GFE or PSE")
	}
	switch strings.ToLower(strings.TrimSpace(req.IncallOutcall)) {
	case "incall":
		p.Mode = booking.ModeIncall
	case "outcall":
		p.Mode = booking.ModeOutcall
		p.OutcallAddress = strings.TrimSpace(req.OutcallAddress)
		if p.OutcallAddress == "" {
			add("outcall_address", "required for outcall")
		}
	default:
		add("incall_outcall", "Incall or Outcall")
	}
	return phone, p, errs
}

// Submit handles POST /booking.
func (h *BookingFormHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var req BookingFormRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxFormBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	phone, progress, errs := req.Progress()
	if len(errs) > 0 {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{"errors": errs})
		return
	}

	if _, err := h.intake.SubmitWebForm(r.Context(), phone, progress); err != nil {
		if errors.Is(err, conversation.ErrBlocked) {
			writeError(w, http.StatusForbidden, "unable to accept booking")
			return
		}
		h.logger.Error("web form booking failed", "identity", phone, "error", err)
		writeError(w, http.StatusInternalServerError, "booking could not be saved")
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]any{
		"status":  string(booking.StatusAvailable),
		"message": "Check your phone to confirm the booking.",
	})
}
