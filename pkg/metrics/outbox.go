package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// OutboxMetrics records delivery attempts made by the outbox publisher.
type OutboxMetrics struct {
	published     *prometheus.CounterVec
	failed        *prometheus.CounterVec
	terminal      *prometheus.CounterVec
	cycleDuration prometheus.Histogram
}

// NewOutboxMetrics registers the outbox metrics on the provided registerer.
func NewOutboxMetrics(reg prometheus.Registerer) *OutboxMetrics {
	if reg == nil {
		return &OutboxMetrics{}
	}
	published := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "outbox_events_published_total",
		Help: "Outbox events delivered to the menu service.",
	}, []string{"event_type"})
	failed := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "outbox_events_failed_total",
		Help: "Outbox delivery attempts that failed and will be retried.",
	}, []string{"event_type"})
	terminal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "outbox_events_terminal_total",
		Help: "Outbox events abandoned after exhausting retries.",
	}, []string{"event_type"})
	cycleDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "outbox_cycle_duration_seconds",
		Help:    "Duration of one outbox drain cycle.",
		Buckets: prometheus.DefBuckets,
	})
	reg.MustRegister(published, failed, terminal, cycleDuration)
	return &OutboxMetrics{
		published:     published,
		failed:        failed,
		terminal:      terminal,
		cycleDuration: cycleDuration,
	}
}

func (m *OutboxMetrics) ObservePublished(eventType string) {
	if m == nil || m.published == nil {
		return
	}
	m.published.WithLabelValues(eventType).Inc()
}

func (m *OutboxMetrics) ObserveFailed(eventType string) {
	if m == nil || m.failed == nil {
		return
	}
	m.failed.WithLabelValues(eventType).Inc()
}

func (m *OutboxMetrics) ObserveTerminal(eventType string) {
	if m == nil || m.terminal == nil {
		return
	}
	m.terminal.WithLabelValues(eventType).Inc()
}

func (m *OutboxMetrics) ObserveCycle(took time.Duration) {
	if m == nil || m.cycleDuration == nil {
		return
	}
	m.cycleDuration.Observe(took.Seconds())
}
