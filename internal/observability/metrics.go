// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the engine.
type Metrics struct {
	// Ingestion metrics
	EventsAccepted prometheus.Counter
	EventsDropped  *prometheus.CounterVec

	// Classification metrics
	TradesEmitted   *prometheus.CounterVec
	Indeterminate   prometheus.Counter
	DuplicateTrades prometheus.Counter

	// Aggregation metrics
	AggregateUpserts *prometheus.CounterVec

	// Similarity metrics
	SimilarityScans    *prometheus.CounterVec
	SimilarityScanTime prometheus.Histogram
	SimilarityPairs    prometheus.Counter

	// Feed metrics
	FeedReconnects prometheus.Counter
	FeedMessages   prometheus.Counter
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "copytrade_engine"
	}

	return &Metrics{
		EventsAccepted: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "events_accepted_total",
			Help:      "Total number of swap events accepted",
		}),
		EventsDropped: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "events_dropped_total",
			Help:      "Total number of swap events dropped by reason",
		}, []string{"reason"}),

		TradesEmitted: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "classification",
			Name:      "trades_emitted_total",
			Help:      "Total number of trades emitted by direction",
		}, []string{"direction"}),
		Indeterminate: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "classification",
			Name:      "indeterminate_total",
			Help:      "Total number of indeterminate classifications",
		}),
		DuplicateTrades: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "aggregation",
			Name:      "duplicate_trades_total",
			Help:      "Total number of redelivered trade identities skipped",
		}),

		AggregateUpserts: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "aggregation",
			Name:      "upserts_total",
			Help:      "Total number of aggregate upserts by kind",
		}, []string{"kind"}),

		SimilarityScans: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "similarity",
			Name:      "scans_total",
			Help:      "Total number of similarity scans by status",
		}, []string{"status"}),
		SimilarityScanTime: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "similarity",
			Name:      "scan_duration_seconds",
			Help:      "Similarity scan duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}),
		SimilarityPairs: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "similarity",
			Name:      "pairs_emitted_total",
			Help:      "Total number of similarity events emitted",
		}),

		FeedReconnects: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "feed",
			Name:      "reconnects_total",
			Help:      "Total number of feed reconnect attempts",
		}),
		FeedMessages: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "feed",
			Name:      "messages_total",
			Help:      "Total number of feed messages received",
		}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("")

// RecordEventAccepted increments the accepted events counter.
func RecordEventAccepted() {
	DefaultMetrics.EventsAccepted.Inc()
}

// RecordEventDropped records a dropped event by reason.
func RecordEventDropped(reason string) {
	DefaultMetrics.EventsDropped.WithLabelValues(reason).Inc()
}

// RecordTradeEmitted increments the emitted trades counter for a direction.
func RecordTradeEmitted(direction string) {
	DefaultMetrics.TradesEmitted.WithLabelValues(direction).Inc()
}

// RecordIndeterminate increments the indeterminate classification counter.
func RecordIndeterminate() {
	DefaultMetrics.Indeterminate.Inc()
}

// RecordDuplicateTrade increments the redelivered identity counter.
func RecordDuplicateTrade() {
	DefaultMetrics.DuplicateTrades.Inc()
}

// RecordAggregateUpsert increments the upsert counter for an aggregate kind.
func RecordAggregateUpsert(kind string) {
	DefaultMetrics.AggregateUpserts.WithLabelValues(kind).Inc()
}

// RecordSimilarityScan records a completed scan.
func RecordSimilarityScan(status string, seconds float64, pairs int) {
	DefaultMetrics.SimilarityScans.WithLabelValues(status).Inc()
	DefaultMetrics.SimilarityScanTime.Observe(seconds)
	DefaultMetrics.SimilarityPairs.Add(float64(pairs))
}

// RecordFeedReconnect increments the feed reconnect counter.
func RecordFeedReconnect() {
	DefaultMetrics.FeedReconnects.Inc()
}

// RecordFeedMessage increments the feed message counter.
func RecordFeedMessage() {
	DefaultMetrics.FeedMessages.Inc()
}
