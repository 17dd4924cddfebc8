package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	// OutcomeSuccess labels successful operations.
	OutcomeSuccess = "success"
	// OutcomeError labels failed operations (provider or pipeline issues).
	OutcomeError = "error"
)

var (
	viewRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "uds_monitor",
			Name:      "view_requests_total",
			Help:      "Total number of dashboard view requests, partitioned by outcome.",
		},
		[]string{"outcome"},
	)

	cacheLookupsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "uds_monitor",
			Name:      "metric_cache_lookups_total",
			Help:      "Metric store lookups, partitioned by hit/miss.",
		},
		[]string{"result"},
	)

	collectionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "uds_monitor",
			Name:      "collections_total",
			Help:      "Remote metric collections, partitioned by outcome.",
		},
		[]string{"outcome"},
	)

	collectionDurationSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "uds_monitor",
			Name:      "collection_seconds",
			Help:      "Remote metric collection latency in seconds.",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 3, 5, 8, 13, 21},
		},
	)
)

// Register attaches uds-monitor collectors to the supplied Prometheus registerer.
func Register(reg prometheus.Registerer) error {
	collectors := []prometheus.Collector{
		viewRequestsTotal,
		cacheLookupsTotal,
		collectionsTotal,
		collectionDurationSeconds,
	}

	for _, collector := range collectors {
		if err := reg.Register(collector); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); ok {
				continue
			}
			return err
		}
	}
	return nil
}

// ObserveView records the outcome of a dashboard view request.
func ObserveView(outcome string) {
	label := outcome
	if label != OutcomeError {
		label = OutcomeSuccess
	}
	viewRequestsTotal.WithLabelValues(label).Inc()
}

// ObserveCacheLookup records a metric store lookup result.
func ObserveCacheLookup(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	cacheLookupsTotal.WithLabelValues(result).Inc()
}

// ObserveCollection records a remote collection duration and outcome label.
func ObserveCollection(duration time.Duration, outcome string) {
	label := outcome
	if label != OutcomeError {
		label = OutcomeSuccess
	}
	collectionsTotal.WithLabelValues(label).Inc()
	if duration < 0 {
		duration = 0
	}
	collectionDurationSeconds.Observe(duration.Seconds())
}
