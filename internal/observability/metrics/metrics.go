package metrics

import "github.com/prometheus/client_golang/prometheus"

const namespace = "smsbot"

// MessagingMetrics exposes counters/histograms for the SMS transport.
type MessagingMetrics struct {
	inboundTotal   *prometheus.CounterVec
	outboundTotal  *prometheus.CounterVec
	webhookLatency *prometheus.HistogramVec
}

func NewMessagingMetrics(reg prometheus.Registerer) *MessagingMetrics {
	m := &MessagingMetrics{
		inboundTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "messaging",
			Name:      "inbound_webhook_total",
			Help:      "Total inbound Twilio webhooks",
		}, []string{"status"}),
		outboundTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "messaging",
			Name:      "outbound_total",
			Help:      "Total outbound SMS sends",
		}, []string{"kind", "status"}),
		webhookLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "messaging",
			Name:      "webhook_latency_seconds",
			Help:      "Latency of inbound webhook processing",
			Buckets:   prometheus.DefBuckets,
		}, []string{"status"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.inboundTotal, m.outboundTotal, m.webhookLatency)
	return m
}

func (m *MessagingMetrics) ObserveInbound(status string) {
	if m == nil {
		return
	}
	m.inboundTotal.WithLabelValues(status).Inc()
}

// ObserveOutbound counts a side-channel send; kind is the message situation.
func (m *MessagingMetrics) ObserveOutbound(kind string, ok bool) {
	if m == nil {
		return
	}
	status := "sent"
	if !ok {
		status = "failed"
	}
	m.outboundTotal.WithLabelValues(kind, status).Inc()
}

func (m *MessagingMetrics) ObserveWebhookLatency(status string, seconds float64) {
	if m == nil {
		return
	}
	m.webhookLatency.WithLabelValues(status).Observe(seconds)
}

// ConversationMetrics covers the booking state machine.
type ConversationMetrics struct {
	turnsTotal     *prometheus.CounterVec
	turnLatency    prometheus.Histogram
	polishTotal    *prometheus.CounterVec
	remindersTotal *prometheus.CounterVec
	blockedTotal   prometheus.Counter
}

func NewConversationMetrics(reg prometheus.Registerer) *ConversationMetrics {
	m := &ConversationMetrics{
		turnsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "conversation",
			Name:      "turns_total",
			Help:      "Inbound turns by decided action",
		}, []string{"action"}),
		turnLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "conversation",
			Name:      "turn_latency_seconds",
			Help:      "Time spent deciding and composing a reply",
			Buckets:   prometheus.DefBuckets,
		}),
		polishTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "conversation",
			Name:      "polish_total",
			Help:      "Tone pass outcomes by situation",
		}, []string{"situation", "outcome"}),
		remindersTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "reminders",
			Name:      "processed_total",
			Help:      "Reminder and follow-up sends by status",
		}, []string{"kind", "status"}),
		blockedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "conversation",
			Name:      "blocked_total",
			Help:      "Identities blocked after exhausting escalation",
		}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.turnsTotal, m.turnLatency, m.polishTotal, m.remindersTotal, m.blockedTotal)
	return m
}

func (m *ConversationMetrics) ObserveTurn(action string, seconds float64) {
	if m == nil {
		return
	}
	m.turnsTotal.WithLabelValues(action).Inc()
	m.turnLatency.Observe(seconds)
}

func (m *ConversationMetrics) ObservePolish(situation, outcome string) {
	if m == nil {
		return
	}
	m.polishTotal.WithLabelValues(situation, outcome).Inc()
}

func (m *ConversationMetrics) ObserveReminder(kind, status string) {
	if m == nil {
		return
	}
	m.remindersTotal.WithLabelValues(kind, status).Inc()
}

func (m *ConversationMetrics) ObserveBlocked() {
	if m == nil {
		return
	}
	m.blockedTotal.Inc()
}
