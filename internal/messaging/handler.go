package messaging

import (
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/wolfman30/sms-booking-bot/internal/observability/metrics"
	"github.com/wolfman30/sms-booking-bot/pkg/logging"
)

var twilioTracer = otel.Tracer("smsbot.internal.messaging.twilio")

// Responder runs one conversation turn and returns the reply text.
// An empty reply means the client gets no message.
type Responder interface {
	Respond(ctx context.Context, identity, body string) (string, error)
}

// Handler serves the inbound SMS webhook.
type Handler struct {
	authToken string
	baseURL   string
	responder Responder
	metrics   *metrics.MessagingMetrics
	logger    *logging.Logger
}

// NewHandler creates a webhook handler. An empty authToken disables signature checks.
func NewHandler(authToken string, responder Responder, m *metrics.MessagingMetrics, logger *logging.Logger) *Handler {
	if responder == nil {
		panic("messaging: responder cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{authToken: authToken, responder: responder, metrics: m, logger: logger}
}

// WithPublicBaseURL makes signature checks use base instead of the request
// host, for deployments behind proxies that rewrite Host.
func (h *Handler) WithPublicBaseURL(base string) *Handler {
	h.baseURL = strings.TrimRight(strings.TrimSpace(base), "/")
	return h
}

func (h *Handler) webhookURL(r *http.Request) string {
	if h.baseURL != "" {
		return h.baseURL + r.URL.RequestURI()
	}
	return buildAbsoluteURL(r)
}

// TwilioWebhook handles POST /sms/incoming.
func (h *Handler) TwilioWebhook(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx, span := twilioTracer.Start(r.Context(), "messaging.twilio.webhook")
	defer span.End()

	status := "ok"
	defer func() {
		h.metrics.ObserveInbound(status)
		h.metrics.ObserveWebhookLatency(status, time.Since(start).Seconds())
	}()

	if h.authToken != "" && !ValidateTwilioSignature(r, h.authToken, h.webhookURL(r)) {
		status = "unauthorized"
		h.logger.Warn("invalid twilio signature")
		span.RecordError(errors.New("invalid twilio signature"))
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	sms, err := ParseTwilioWebhook(r)
	if err != nil || sms.From == "" {
		status = "bad_request"
		if err == nil {
			err = errors.New("missing From")
		}
		h.logger.Error("invalid twilio payload", "error", err)
		span.RecordError(err)
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	span.SetAttributes(
		attribute.String("smsbot.twilio.message_sid", sms.MessageSid),
		attribute.String("smsbot.twilio.from", sms.From),
	)

	reply, err := h.responder.Respond(ctx, sms.From, sms.Body)
	if err != nil {
		status = "error"
		h.logger.Error("conversation turn failed", "error", err, "from", sms.From)
		span.RecordError(err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	if reply == "" {
		status = "silent"
	}

	w.Header().Set("Content-Type", "text/xml; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(TwiML(reply))
}

// TwiML wraps a reply in a Twilio messaging response. An empty reply yields an
// empty Response element.
func TwiML(reply string) []byte {
	var buf bytes.Buffer
	buf.WriteString(`<?xml version="1.0" encoding="UTF-8"?><Response>`)
	if reply != "" {
		buf.WriteString("<Message>")
		_ = xml.EscapeText(&buf, []byte(reply))
		buf.WriteString("</Message>")
	}
	buf.WriteString("</Response>")
	return buf.Bytes()
}
