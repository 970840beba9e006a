package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/wolfman30/sms-booking-bot/pkg/logging"
)

// SMSSender sends SMS messages to the operator.
type SMSSender interface {
	SendSMS(ctx context.Context, to, body string) error
}

// Booking is the operator-facing summary of a confirmed or deposit-gated booking.
type Booking struct {
	Identity   string
	ClientName string
	Date       string
	Time       string
	Duration   string
	Experience string
	Mode       string
	Address    string
	Deposit    string
}

// Service notifies the operator by SMS and, when configured, email.
type Service struct {
	email         EmailSender
	sms           SMSSender
	operatorPhone string
	operatorEmail string
	logger        *logging.Logger
}

func NewService(email EmailSender, sms SMSSender, operatorPhone, operatorEmail string, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{
		email:         email,
		sms:           sms,
		operatorPhone: strings.TrimSpace(operatorPhone),
		operatorEmail: strings.TrimSpace(operatorEmail),
		logger:        logger,
	}
}

// ForwardEnquiry sends the already-rendered enquiry text to the operator's
// phone. The SMS failing is an error; the email copy is best effort.
func (s *Service) ForwardEnquiry(ctx context.Context, identity, text string) error {
	if s == nil {
		return nil
	}
	if s.operatorPhone == "" || s.sms == nil {
		return errors.New("notify: operator phone not configured")
	}
	if err := s.sms.SendSMS(ctx, s.operatorPhone, text); err != nil {
		return fmt.Errorf("notify: forward enquiry: %w", err)
	}
	s.sendEmail(ctx, "New enquiry from "+identity, text)
	return nil
}

// BookingConfirmed emails the operator a booking summary.
func (s *Service) BookingConfirmed(ctx context.Context, b Booking) {
	if s == nil {
		return
	}
	name := b.ClientName
	if name == "" {
		name = "Unknown"
	}
	s.sendEmail(ctx, fmt.Sprintf("Booking: %s %s %s", name, b.Date, b.Time), FormatBooking(b))
}

func (s *Service) sendEmail(ctx context.Context, subject, body string) {
	if s.email == nil || s.operatorEmail == "" {
		return
	}
	if err := s.email.Send(ctx, EmailMessage{To: s.operatorEmail, Subject: subject, Body: body}); err != nil {
		s.logger.Warn("operator email failed", "error", err, "subject", subject)
	}
}

// FormatBooking renders the plain-text booking summary.
func FormatBooking(b Booking) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Client: %s\n", b.ClientName)
	fmt.Fprintf(&sb, "Phone: %s\n", b.Identity)
	fmt.Fprintf(&sb, "When: %s %s\n", b.Date, b.Time)
	fmt.Fprintf(&sb, "Duration: %s\n", b.Duration)
	fmt.Fprintf(&sb, "Experience: %s\n", b.Experience)
	fmt.Fprintf(&sb, "Type: %s\n", b.Mode)
	if b.Address != "" {
		fmt.Fprintf(&sb, "Address: %s\n", b.Address)
	}
	if b.Deposit != "" {
		fmt.Fprintf(&sb, "Deposit: %s\n", b.Deposit)
	}
	return sb.String()
}
