package store

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Store-level Prometheus metrics. All metrics carry a "store" label whose value
// is the Group set in ProviderConfig, allowing multiple store instances to be
// distinguished in dashboards and alerts.
var (
	// HitsTotal counts Get calls that found a live key.
	HitsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "store_hits_total",
			Help: "Total number of store reads that found a key.",
		},
		[]string{"store"},
	)

	// MissesTotal counts Get calls on absent or expired keys.
	MissesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "store_misses_total",
			Help: "Total number of store reads on absent keys.",
		},
		[]string{"store"},
	)

	// ErrorsTotal counts failed backend operations per operation name.
	ErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "store_errors_total",
			Help: "Total number of failed store operations.",
		},
		[]string{"store", "op"},
	)

	// FlushesTotal counts destructive namespace resets.
	FlushesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "store_flushes_total",
			Help: "Total number of destructive store flushes.",
		},
		[]string{"store"},
	)
)

func init() {
	prometheus.MustRegister(
		HitsTotal,
		MissesTotal,
		ErrorsTotal,
		FlushesTotal,
	)
}
