package handlers

import (
	"net/http"

	"github.com/wolfman30/sms-booking-bot/internal/reminders"
	"github.com/wolfman30/sms-booking-bot/pkg/logging"
)

// ReminderHandler exposes one reminder pass for external schedulers.
type ReminderHandler struct {
	checker reminders.Checker
	logger  *logging.Logger
}

func NewReminderHandler(checker reminders.Checker, logger *logging.Logger) *ReminderHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &ReminderHandler{checker: checker, logger: logger}
}

// Check handles GET /check-reminders.
func (h *ReminderHandler) Check(w http.ResponseWriter, r *http.Request) {
	sent, err := h.checker.CheckAndSend(r.Context())
	if err != nil {
		h.logger.Error("reminder pass failed", "error", err, "sent", sent)
		writeJSON(w, http.StatusInternalServerError, map[string]any{"sent": sent, "error": "reminder pass failed"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"sent": sent})
}
