package router

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// routerMetrics contains Prometheus metrics shared by every Router.
type routerMetrics struct {
	matches         *prometheus.CounterVec
	cacheLookups    *prometheus.CounterVec
	compilations    prometheus.Counter
	compileDuration prometheus.Histogram
	engineFallbacks prometheus.Counter
}

var (
	routerMetricsInstance *routerMetrics
	routerMetricsOnce     sync.Once
)

// getRouterMetrics returns the singleton router metrics instance.
func getRouterMetrics() *routerMetrics {
	routerMetricsOnce.Do(func() {
		routerMetricsInstance = &routerMetrics{
			matches: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Namespace: "switchboard",
					Subsystem: "router",
					Name:      "matches_total",
					Help:      "Total number of route lookups by engine and outcome",
				},
				[]string{"engine", "outcome"},
			),
			cacheLookups: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Namespace: "switchboard",
					Subsystem: "router",
					Name:      "cache_lookups_total",
					Help:      "Total number of result cache lookups by result",
				},
				[]string{"result"},
			),
			compilations: promauto.NewCounter(
				prometheus.CounterOpts{
					Namespace: "switchboard",
					Subsystem: "router",
					Name:      "compilations_total",
					Help:      "Total number of route table compilations",
				},
			),
			compileDuration: promauto.NewHistogram(
				prometheus.HistogramOpts{
					Namespace: "switchboard",
					Subsystem: "router",
					Name:      "compile_duration_seconds",
					Help:      "Time spent compiling the route table and loading the engine",
					Buckets:   []float64{.0001, .0005, .001, .005, .01, .05, .1, .5},
				},
			),
			engineFallbacks: promauto.NewCounter(
				prometheus.CounterOpts{
					Namespace: "switchboard",
					Subsystem: "router",
					Name:      "engine_fallbacks_total",
					Help:      "Total number of fallbacks from the alternate to the primary engine",
				},
			),
		}
	})
	return routerMetricsInstance
}

// matchCounters are the per-engine counters bound once so the match path
// avoids label lookups.
type matchCounters struct {
	found    prometheus.Counter
	notFound prometheus.Counter
}

func (m *routerMetrics) matchCounters(engine string) matchCounters {
	return matchCounters{
		found:    m.matches.WithLabelValues(engine, "found"),
		notFound: m.matches.WithLabelValues(engine, "not_found"),
	}
}
