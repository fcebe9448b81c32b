// Package metrics holds the Prometheus collectors for ingestion, storage and
// upstream source health. Collectors register on the default registry; the
// router exposes them on /metrics.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Source fetch metrics
	SourceFetchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "archive_source_fetch_duration_seconds",
			Help:    "Duration of upstream source fetches in seconds",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"source"},
	)

	SourceFetchTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "archive_source_fetch_total",
			Help: "Total number of upstream source fetches",
		},
		[]string{"source", "status"}, // "success", "failure"
	)

	SourceItemsFetched = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "archive_source_items_fetched_total",
			Help: "Total number of raw items returned by upstream sources",
		},
		[]string{"source"},
	)

	// Ingestion metrics
	IngestionRuns = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "archive_ingestion_runs_total",
			Help: "Total number of ingestion runs",
		},
	)

	IngestionDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "archive_ingestion_duration_seconds",
			Help:    "Duration of full ingestion runs in seconds",
			Buckets: []float64{1, 5, 10, 30, 60, 120, 300, 600},
		},
	)

	ItemsMapped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "archive_items_mapped_total",
			Help: "Total number of raw items mapped to events",
		},
		[]string{"source", "status"}, // "success", "failure"
	)

	// Store metrics
	EventUpserts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "archive_event_upserts_total",
			Help: "Total number of event upserts by outcome",
		},
		[]string{"outcome"}, // "inserted", "updated", "skipped", "failed"
	)

	EventsArchived = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "archive_events_archived_total",
			Help: "Total number of ended events marked archived",
		},
	)

	// Circuit breaker metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "archive_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "archive_circuit_breaker_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from", "to"},
	)

	// Worker pool metrics
	WorkerPoolRunning = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "archive_worker_pool_running",
			Help: "Number of running goroutines per worker pool",
		},
		[]string{"pool"},
	)
)

// Handler returns the Prometheus scrape handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordSourceFetch records one upstream fetch.
func RecordSourceFetch(source string, duration time.Duration, items int, err error) {
	SourceFetchDuration.WithLabelValues(source).Observe(duration.Seconds())
	if err != nil {
		SourceFetchTotal.WithLabelValues(source, "failure").Inc()
		return
	}
	SourceFetchTotal.WithLabelValues(source, "success").Inc()
	SourceItemsFetched.WithLabelValues(source).Add(float64(items))
}

// RecordMapping records one item mapping attempt.
func RecordMapping(source string, err error) {
	if err != nil {
		ItemsMapped.WithLabelValues(source, "failure").Inc()
		return
	}
	ItemsMapped.WithLabelValues(source, "success").Inc()
}

// RecordUpsert records one store write outcome.
func RecordUpsert(outcome string) {
	EventUpserts.WithLabelValues(outcome).Inc()
}

// RecordWorkerPools publishes the running goroutine count of each pool.
func RecordWorkerPools(stats map[string]map[string]int) {
	for pool, s := range stats {
		WorkerPoolRunning.WithLabelValues(pool).Set(float64(s["running"]))
	}
}
