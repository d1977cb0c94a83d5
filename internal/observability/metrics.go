// Package observability holds the Prometheus metrics of the explorer.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics groups every collector the explorer exports. A nil *Metrics is
// valid and records nothing, so libraries can take one optionally.
type Metrics struct {
	// runsTotal counts finished analysis runs by outcome
	runsTotal *prometheus.CounterVec

	// runDuration tracks analysis wall time
	runDuration prometheus.Histogram

	// runsActive is the number of runs in flight
	runsActive prometheus.Gauge

	// cacheOps counts cache calls by operation and result
	cacheOps *prometheus.CounterVec

	// graphQueryDuration tracks graph database latency by query
	graphQueryDuration *prometheus.HistogramVec

	// neighborhoodEdges tracks the size of assembled graphs
	neighborhoodEdges prometheus.Histogram
}

// NewMetrics registers the collectors on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		runsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "dysregnet_runs_total",
			Help: "Total analysis runs by outcome",
		}, []string{"outcome"}),
		runDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "dysregnet_run_duration_seconds",
			Help:    "Analysis run duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.5, 2, 12), // 0.5s to ~17min
		}),
		runsActive: f.NewGauge(prometheus.GaugeOpts{
			Name: "dysregnet_runs_active",
			Help: "Analysis runs currently in progress",
		}),
		cacheOps: f.NewCounterVec(prometheus.CounterOpts{
			Name: "dysregnet_cache_operations_total",
			Help: "Result cache operations by operation and result",
		}, []string{"operation", "result"}),
		graphQueryDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "dysregnet_graphdb_query_duration_seconds",
			Help:    "Graph database query duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 14), // 1ms to ~8s
		}, []string{"query"}),
		neighborhoodEdges: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "dysregnet_neighborhood_edges",
			Help:    "Number of edges per assembled neighborhood",
			Buckets: []float64{0, 5, 10, 25, 50, 100, 250, 500, 1000},
		}),
	}
}

// RunStarted marks a run as in flight.
func (m *Metrics) RunStarted() {
	if m == nil {
		return
	}
	m.runsActive.Inc()
}

// RunFinished records a finished run. outcome is an error kind or "success".
func (m *Metrics) RunFinished(outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.runsActive.Dec()
	m.runsTotal.WithLabelValues(outcome).Inc()
	m.runDuration.Observe(elapsed.Seconds())
}

// CacheOp records one cache call.
func (m *Metrics) CacheOp(operation, result string) {
	if m == nil {
		return
	}
	m.cacheOps.WithLabelValues(operation, result).Inc()
}

// GraphQuery records the latency of one graph database query.
func (m *Metrics) GraphQuery(query string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.graphQueryDuration.WithLabelValues(query).Observe(elapsed.Seconds())
}

// NeighborhoodAssembled records the size of an assembled graph.
func (m *Metrics) NeighborhoodAssembled(edges int) {
	if m == nil {
		return
	}
	m.neighborhoodEdges.Observe(float64(edges))
}
