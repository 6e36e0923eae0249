package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PaymentMetrics records checkout and reconciliation outcomes.
type PaymentMetrics struct {
	sessionDuration *prometheus.HistogramVec
	sessions        *prometheus.CounterVec
	transitions     *prometheus.CounterVec
	shortfalls      prometheus.Counter
}

// NewPaymentMetrics registers the payment metrics on the provided registerer.
func NewPaymentMetrics(reg prometheus.Registerer) *PaymentMetrics {
	if reg == nil {
		return &PaymentMetrics{}
	}
	sessionDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "checkout_session_duration_seconds",
		Help:    "Duration of checkout session creation including the gateway call.",
		Buckets: prometheus.DefBuckets,
	}, []string{"provider"})
	sessions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_sessions_total",
		Help: "Checkout session attempts by outcome.",
	}, []string{"provider", "outcome"})
	transitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "payment_transitions_total",
		Help: "Reconciliation transitions by entry point and outcome.",
	}, []string{"source", "outcome"})
	shortfalls := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "stock_shortfalls_total",
		Help: "Order lines that could not be decremented after payment capture.",
	})
	reg.MustRegister(sessionDuration, sessions, transitions, shortfalls)
	return &PaymentMetrics{
		sessionDuration: sessionDuration,
		sessions:        sessions,
		transitions:     transitions,
		shortfalls:      shortfalls,
	}
}

// ObserveSession records one checkout session attempt.
func (m *PaymentMetrics) ObserveSession(provider, outcome string, duration time.Duration) {
	if m == nil || m.sessions == nil {
		return
	}
	provider = normalizeLabel(provider)
	m.sessionDuration.WithLabelValues(provider).Observe(duration.Seconds())
	m.sessions.WithLabelValues(provider, normalizeLabel(outcome)).Inc()
}

// IncTransition counts a reconciliation result such as captured, failed or already_processed.
func (m *PaymentMetrics) IncTransition(source, outcome string) {
	if m == nil || m.transitions == nil {
		return
	}
	m.transitions.WithLabelValues(normalizeLabel(source), normalizeLabel(outcome)).Inc()
}

// IncShortfall counts one recorded stock shortfall.
func (m *PaymentMetrics) IncShortfall() {
	if m == nil || m.shortfalls == nil {
		return
	}
	m.shortfalls.Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
