// Package observability wires Prometheus instrumentation for the batch jobs
// and the alert engine.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "airscout"

// Metrics bundles every collector the engine emits. One instance is shared
// process-wide through dependency injection.
type Metrics struct {
	CyclesTotal     *prometheus.CounterVec
	CycleDuration   *prometheus.HistogramVec
	RecordsFetched  *prometheus.CounterVec
	HazardsUpserted *prometheus.CounterVec
	HazardsDeleted  *prometheus.CounterVec
	UnitFailures    *prometheus.CounterVec

	SubscriptionsChecked prometheus.Counter
	AlertsGenerated      prometheus.Counter
	NotificationsSent    prometheus.Counter
	NotificationsFailed  prometheus.Counter
	TokensDisabled       prometheus.Counter
}

// NewMetrics registers all collectors on the default registerer.
func NewMetrics() *Metrics {
	return newMetrics(prometheus.DefaultRegisterer)
}

// NewMetricsForTesting registers collectors on a private registry so tests
// never collide on duplicate registration.
func NewMetricsForTesting() *Metrics {
	return newMetrics(prometheus.NewRegistry())
}

func newMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		CyclesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cycles_total",
			Help:      "Batch cycles by job and outcome.",
		}, []string{"job", "status"}),

		CycleDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "cycle_duration_seconds",
			Help:      "Batch cycle wall time by job.",
			Buckets:   prometheus.ExponentialBuckets(0.1, 2, 12),
		}, []string{"job"}),

		RecordsFetched: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_fetched_total",
			Help:      "Upstream records fetched by job.",
		}, []string{"job"}),

		HazardsUpserted: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "hazards_upserted_total",
			Help:      "Hazards written by type.",
		}, []string{"type"}),

		HazardsDeleted: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "hazards_deleted_total",
			Help:      "Hazards removed by reason.",
		}, []string{"reason"}),

		UnitFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "unit_failures_total",
			Help:      "Record-level failures by job.",
		}, []string{"job"}),

		SubscriptionsChecked: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "subscriptions_checked_total",
			Help:      "Subscriptions evaluated by the alert engine.",
		}),

		AlertsGenerated: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "alerts_generated_total",
			Help:      "Alerts that cleared matching and deduplication.",
		}),

		NotificationsSent: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_sent_total",
			Help:      "Push notifications delivered.",
		}),

		NotificationsFailed: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_failed_total",
			Help:      "Push notifications that failed to deliver.",
		}),

		TokensDisabled: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "push_tokens_disabled_total",
			Help:      "Subscriptions disabled after the provider rejected their token.",
		}),
	}
}
