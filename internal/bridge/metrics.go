package bridge

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// promRegistry is the dedicated Prometheus registry for the bridge.
	promRegistry = prometheus.NewRegistry()

	// calls counts bridged calls by family and outcome
	// (ok, app_error, timeout, cancelled, closed, dispatch_error).
	calls = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "bear_bridge_calls_total", Help: "Bridged calls by family and outcome."},
		[]string{"family", "outcome"},
	)

	// callbacks counts inbound callbacks by family, kind (success/error) and
	// whether a live waiter received them (live, empty, late).
	callbacks = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "bear_bridge_callbacks_total", Help: "Inbound callbacks by family, kind and match result."},
		[]string{"family", "kind", "matched"},
	)

	pendingWaiters = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{Name: "bear_bridge_pending_waiters", Help: "Queued waiters per family, tombstones included."},
		[]string{"family"},
	)

	callDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{Name: "bear_bridge_call_duration_seconds", Help: "Time from dispatch to callback.", Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30}},
		[]string{"family"},
	)
)

var regOnce sync.Once

// RegisterMetrics registers the bridge collectors on the bridge's Prometheus registry.
func RegisterMetrics() {
	regOnce.Do(func() {
		promRegistry.MustRegister(calls)
		promRegistry.MustRegister(callbacks)
		promRegistry.MustRegister(pendingWaiters)
		promRegistry.MustRegister(callDuration)
		promRegistry.MustRegister(collectors.NewGoCollector())
		promRegistry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	})
}

// MetricsHandler serves the bridge metrics in the Prometheus exposition format.
func MetricsHandler() http.Handler {
	RegisterMetrics()
	return promhttp.HandlerFor(promRegistry, promhttp.HandlerOpts{})
}
