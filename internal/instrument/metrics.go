package instrument

import (
	"github.com/prometheus/client_golang/prometheus"
)

// CallsTotal mirrors the durable invocation counters as a process-local metric,
// labelled with the operation name.
var CallsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "instrument_calls_total",
		Help: "Total number of counted operation calls.",
	},
	[]string{"operation"},
)

func init() {
	prometheus.MustRegister(CallsTotal)
}
