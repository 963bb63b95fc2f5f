package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics groups all Prometheus instruments used across the application.
// Registered once at startup via New(); passed by pointer wherever needed.
// Only the dispatcher instruments (NotificationsSent, NotificationsFailed,
// DispatchLatency, CircuitBreakerOpened) are updated, through DispatchHooks;
// the others are registered and exported but nothing updates them, so they
// stay at zero.
type Metrics struct {
	AppointmentsCreated  *prometheus.CounterVec
	AppointmentsCanceled prometheus.Counter
	SlotConflicts        prometheus.Counter
	AvailabilityQueries  prometheus.Histogram

	OutboxPulled    prometheus.Counter
	OutboxPublished prometheus.Counter

	NotificationsSent    prometheus.Counter
	NotificationsFailed  prometheus.Counter
	NotificationsQueued  prometheus.Counter
	DispatchLatency      prometheus.Histogram
	QueueDepth           prometheus.Gauge
	CircuitBreakerOpened prometheus.Counter
}

// New registers all instruments with the given Prometheus registerer and
// returns the populated Metrics struct.
// Using a custom registry (instead of prometheus.DefaultRegisterer) keeps
// tests isolated and avoids global state.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		AppointmentsCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "appointments_created_total",
			Help: "Total number of appointments successfully inserted as PENDING.",
		}, []string{"provider_id"}),

		AppointmentsCanceled: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "appointments_canceled_total",
			Help: "Total number of appointments transitioned to CANCELED.",
		}),

		SlotConflicts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "appointment_slot_conflicts_total",
			Help: "Total number of booking attempts rejected by the slot uniqueness constraint.",
		}),

		AvailabilityQueries: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "availability_query_seconds",
			Help:    "Latency of AvailabilityEngine computations.",
			Buckets: prometheus.DefBuckets,
		}),

		OutboxPulled: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "outbox_events_pulled_total",
			Help: "Total number of outbox events read by the relay.",
		}),
		OutboxPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "outbox_events_published_total",
			Help: "Total number of outbox events marked published.",
		}),

		NotificationsSent: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "notifications_sent_total",
			Help: "Total number of successfully delivered notifications.",
		}),
		NotificationsFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "notifications_failed_total",
			Help: "Total number of notifications set to FAILED by the dispatcher.",
		}),
		NotificationsQueued: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "notifications_requeued_total",
			Help: "Total number of notifications resubmitted by the StuckRequeuer.",
		}),
		DispatchLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "notification_dispatch_seconds",
			Help:    "End-to-end processing latency from dequeue to provider ack.",
			Buckets: prometheus.DefBuckets,
		}),
		QueueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "dispatch_queue_depth",
			Help: "Current number of items waiting in the dispatch queue.",
		}),
		CircuitBreakerOpened: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "circuit_breaker_opened_total",
			Help: "Total number of times the ExternalSender circuit breaker transitioned to OPEN.",
		}),
	}

	reg.MustRegister(
		m.AppointmentsCreated,
		m.AppointmentsCanceled,
		m.SlotConflicts,
		m.AvailabilityQueries,
		m.OutboxPulled,
		m.OutboxPublished,
		m.NotificationsSent,
		m.NotificationsFailed,
		m.NotificationsQueued,
		m.DispatchLatency,
		m.QueueDepth,
		m.CircuitBreakerOpened,
	)

	return m
}

// DispatchHooks returns the metric callback functions consumed by the dispatcher.
// Centralizes the prometheus observation calls so the dispatcher stays import-free.
func (m *Metrics) DispatchHooks() (onSent func(time.Duration), onFailed func(), onCircuitOpen func()) {
	onSent = func(latency time.Duration) {
		m.NotificationsSent.Inc()
		m.DispatchLatency.Observe(latency.Seconds())
	}
	onFailed = func() {
		m.NotificationsFailed.Inc()
	}
	onCircuitOpen = func() {
		m.CircuitBreakerOpened.Inc()
	}
	return
}
