// Package metrics holds the Prometheus collectors for the puzzle service.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Cache lookup results
const (
	CacheHit     = "hit"
	CacheMiss    = "miss"
	CacheError   = "error"
	CacheCorrupt = "corrupt"
)

// Metrics contains Prometheus metrics for the puzzle service
type Metrics struct {
	registry *prometheus.Registry

	cacheLookups *prometheus.CounterVec
	cacheWrites  *prometheus.CounterVec
	builds       *prometheus.CounterVec
	reveals      *prometheus.CounterVec
	guesses      *prometheus.CounterVec

	requestDuration *prometheus.HistogramVec
}

// New creates a Metrics instance on its own registry
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,

		cacheLookups: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "commentcascade_cache_lookups_total",
				Help: "Daily puzzle cache lookups by result",
			},
			[]string{"result"},
		),

		cacheWrites: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "commentcascade_cache_writes_total",
				Help: "Daily puzzle cache writes by result",
			},
			[]string{"result"},
		),

		builds: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "commentcascade_puzzle_builds_total",
				Help: "Puzzle builds by outcome and failure cause",
			},
			[]string{"outcome", "cause"},
		),

		reveals: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "commentcascade_reveal_requests_total",
				Help: "Reveal requests by HTTP status",
			},
			[]string{"status"},
		),

		guesses: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "commentcascade_guesses_total",
				Help: "Guesses by outcome",
			},
			[]string{"outcome"},
		),

		requestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "commentcascade_http_request_duration_seconds",
				Help:    "HTTP request latency by route",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"route", "method", "status"},
		),
	}
}

// Handler serves the registry in Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry (tests, extra collectors)
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// The recorders below accept a nil receiver so callers can run without metrics.

func (m *Metrics) CacheLookup(result string) {
	if m == nil {
		return
	}
	m.cacheLookups.WithLabelValues(result).Inc()
}

func (m *Metrics) CacheWrite(ok bool) {
	if m == nil {
		return
	}
	result := "ok"
	if !ok {
		result = "error"
	}
	m.cacheWrites.WithLabelValues(result).Inc()
}

func (m *Metrics) PuzzleBuilt(fallback bool, cause string) {
	if m == nil {
		return
	}
	outcome := "live"
	if fallback {
		outcome = "fallback"
	}
	m.builds.WithLabelValues(outcome, cause).Inc()
}

func (m *Metrics) RevealRequest(status string) {
	if m == nil {
		return
	}
	m.reveals.WithLabelValues(status).Inc()
}

func (m *Metrics) Guess(outcome string) {
	if m == nil {
		return
	}
	m.guesses.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveRequest(route, method, status string, seconds float64) {
	if m == nil {
		return
	}
	m.requestDuration.WithLabelValues(route, method, status).Observe(seconds)
}
