// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Webhook ingestion metrics
	TransactionsReceived prometheus.Counter
	MalformedEntries     prometheus.Counter

	// Pipeline metrics
	SwapsClassified  *prometheus.CounterVec
	DuplicatesHit    prometheus.Counter
	ResolverFailures *prometheus.CounterVec
	AlertsSent       prometheus.Counter
	SinkFailures     prometheus.Counter
	ProcessLatency   prometheus.Histogram

	// Subscription sync metrics
	SyncRuns       *prometheus.CounterVec
	TrackedWallets prometheus.Gauge
}

// NewMetrics registers all metrics against the given registerer. Pass
// prometheus.DefaultRegisterer in production; tests pass a fresh registry.
func NewMetrics(namespace string, reg prometheus.Registerer) *Metrics {
	if namespace == "" {
		namespace = "wallet_sentry"
	}
	factory := promauto.With(reg)

	return &Metrics{
		TransactionsReceived: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "webhook",
			Name:      "transactions_received_total",
			Help:      "Total number of webhook transaction entries received",
		}),
		MalformedEntries: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "webhook",
			Name:      "malformed_entries_total",
			Help:      "Total number of webhook entries dropped as malformed",
		}),

		SwapsClassified: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "swaps_classified_total",
			Help:      "Total number of swaps classified by direction",
		}, []string{"direction"}),
		DuplicatesHit: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "duplicates_suppressed_total",
			Help:      "Total number of swap events suppressed as re-deliveries",
		}),
		ResolverFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "resolver_failures_total",
			Help:      "Total number of token metadata lookups that degraded",
		}, []string{"reason"}),
		AlertsSent: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "alerts_sent_total",
			Help:      "Total number of alerts delivered",
		}),
		SinkFailures: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "sink_failures_total",
			Help:      "Total number of alert deliveries that failed after retries",
		}),
		ProcessLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "process_latency_seconds",
			Help:      "Time spent processing one webhook transaction",
			Buckets:   prometheus.DefBuckets,
		}),

		SyncRuns: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sync",
			Name:      "runs_total",
			Help:      "Total number of subscription sync runs by status",
		}, []string{"status"}),
		TrackedWallets: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "registry",
			Name:      "tracked_wallets",
			Help:      "Number of wallets currently tracked",
		}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
