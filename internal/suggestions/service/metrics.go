package service

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/promptpal/promptpal-backend/internal/suggestions/remote"
)

// Request outcomes recorded by Metrics.
const (
	outcomeServed      = "served"
	outcomeCached      = "cached"
	outcomeInvalid     = "invalid"
	outcomeRateLimited = "rate_limited"
	outcomeRecovered   = "recovered"
)

// Metrics tracks suggestion pipeline metrics on its own registry.
type Metrics struct {
	registry *prometheus.Registry

	requests      *prometheus.CounterVec
	cacheLookups  *prometheus.CounterVec
	remoteCalls   *prometheus.CounterVec
	remoteLatency prometheus.Histogram
	engines       *prometheus.CounterVec
}

// NewMetrics registers the pipeline collectors plus Go runtime collectors.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "promptpal",
			Subsystem: "suggest",
			Name:      "requests_total",
			Help:      "Suggestion requests by outcome",
		}, []string{"outcome"}),
		cacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "promptpal",
			Subsystem: "suggest",
			Name:      "cache_lookups_total",
			Help:      "Response cache lookups by result",
		}, []string{"result"}),
		remoteCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "promptpal",
			Subsystem: "remote",
			Name:      "calls_total",
			Help:      "Remote model calls by result",
		}, []string{"result"}),
		remoteLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "promptpal",
			Subsystem: "remote",
			Name:      "latency_seconds",
			Help:      "Remote model call latency, retries included",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 5, 10},
		}),
		engines: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "promptpal",
			Subsystem: "suggest",
			Name:      "engine_total",
			Help:      "Generated results by engine label",
		}, []string{"engine"}),
	}

	m.registry.MustRegister(
		m.requests, m.cacheLookups, m.remoteCalls, m.remoteLatency, m.engines,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Handler serves the registry in Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) recordRequest(outcome string) {
	m.requests.WithLabelValues(outcome).Inc()
}

func (m *Metrics) recordCacheLookup(result string) {
	m.cacheLookups.WithLabelValues(result).Inc()
}

func (m *Metrics) recordRemote(out remote.Outcome, d time.Duration) {
	result := string(out.Reason)
	if out.OK() {
		result = "ok"
	}
	m.remoteCalls.WithLabelValues(result).Inc()
	m.remoteLatency.Observe(d.Seconds())
}

func (m *Metrics) recordEngine(engine string) {
	m.engines.WithLabelValues(engine).Inc()
}
