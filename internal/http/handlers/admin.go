package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/wolfman30/sms-booking-bot/internal/booking"
	"github.com/wolfman30/sms-booking-bot/internal/location"
	"github.com/wolfman30/sms-booking-bot/pkg/logging"
)

const (
	defaultMessageLimit = 50
	maxMessageLimit     = 500
)

// LocationRegistry is the shared incall location.
type LocationRegistry interface {
	Current() location.Location
	Update(ctx context.Context, loc location.Location) (location.Location, error)
}

// MessageLister reads the inbound message log.
type MessageLister interface {
	RecentMessages(ctx context.Context, limit int) ([]booking.InboundMessage, error)
}

// AdminHandler serves the operator API behind AdminJWT.
type AdminHandler struct {
	locations LocationRegistry
	messages  MessageLister
	logger    *logging.Logger
}

func NewAdminHandler(locations LocationRegistry, messages MessageLister, logger *logging.Logger) *AdminHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &AdminHandler{locations: locations, messages: messages, logger: logger}
}

// GetLocation handles GET /admin/location.
func (h *AdminHandler) GetLocation(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.locations.Current())
}

type locationRequest struct {
	City     string `json:"city"`
	Address  string `json:"address"`
	Intercom string `json:"intercom_number"`
}

// PutLocation handles PUT /admin/location. The timezone follows the city.
func (h *AdminHandler) PutLocation(w http.ResponseWriter, r *http.Request) {
	var req locationRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxFormBody)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	loc, err := h.locations.Update(r.Context(), location.Location{City: req.City, Address: req.Address, Intercom: req.Intercom})
	if err != nil {
		h.logger.Warn("admin location update rejected", "error", err)
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, loc)
}

type messageItem struct {
	Identity  string `json:"identity"`
	Body      string `json:"body"`
	CreatedAt string `json:"created_at"`
}

// ListMessages handles GET /admin/messages?limit=N, newest first.
func (h *AdminHandler) ListMessages(w http.ResponseWriter, r *http.Request) {
	limit := defaultMessageLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(n, maxMessageLimit)
	}

	msgs, err := h.messages.RecentMessages(r.Context(), limit)
	if err != nil {
		h.logger.Error("list messages failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load messages")
		return
	}
	items := make([]messageItem, 0, len(msgs))
	for _, m := range msgs {
		items = append(items, messageItem{Identity: m.Identity, Body: m.Body, CreatedAt: m.CreatedAt.UTC().Format(time.RFC3339)})
	}
	writeJSON(w, http.StatusOK, map[string]any{"messages": items, "count": len(items)})
}
