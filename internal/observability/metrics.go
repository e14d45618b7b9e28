package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// EngagementToggles counts like/bookmark/follow toggles by resulting state.
	EngagementToggles = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pulse_engagement_toggles_total",
		Help: "Total number of engagement toggles by kind and result",
	}, []string{"kind", "result"})

	// NotificationsTotal counts notification attempts by type and outcome
	// (created, suppressed, failed).
	NotificationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pulse_notifications_total",
		Help: "Total number of notification attempts by type and outcome",
	}, []string{"type", "outcome"})

	// CascadeFailures counts failed cascade steps by target and step name.
	CascadeFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pulse_cascade_failures_total",
		Help: "Total number of failed cascade deletion steps",
	}, []string{"target", "step"})

	// CounterDrift counts denormalized counters corrected by reconciliation.
	CounterDrift = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pulse_counter_drift_total",
		Help: "Total number of denormalized counters corrected by reconciliation",
	}, []string{"counter"})

	// DatabaseQueryLatency records database query latency by operation and table.
	DatabaseQueryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "pulse_database_query_latency_seconds",
		Help:    "Database query latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "table"})
)

// RecordToggle increments the toggle counter; result is "on" or "off".
func RecordToggle(kind string, on bool) {
	result := "off"
	if on {
		result = "on"
	}
	EngagementToggles.WithLabelValues(kind, result).Inc()
}

// TrackQuery returns a function that records query latency when called (e.g. defer).
func TrackQuery(operation, table string) func() {
	start := time.Now()
	return func() {
		DatabaseQueryLatency.WithLabelValues(operation, table).Observe(time.Since(start).Seconds())
	}
}
