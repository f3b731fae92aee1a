package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Page fetch metrics
var (
	PageFetchesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "page_fetches_total",
			Help: "Total number of remote page fetches.",
		},
		[]string{"status"},
	)

	PageFetchDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "page_fetch_duration_seconds",
			Help:    "Duration of remote page fetches, retries included.",
			Buckets: prometheus.DefBuckets,
		},
	)
)

// Page cache metrics
var (
	// PageCacheRequestsTotal counts page cache lookups by result: hit, miss or error.
	PageCacheRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "page_cache_requests_total",
			Help: "Total number of page cache lookups by result.",
		},
		[]string{"result"},
	)

	PageCacheSharedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "page_cache_shared_fetches_total",
			Help: "Total number of page cache misses served by a concurrent in-flight fetch.",
		},
	)
)

func init() {
	prometheus.MustRegister(
		PageFetchesTotal,
		PageFetchDuration,
		PageCacheRequestsTotal,
		PageCacheSharedTotal,
	)
}
