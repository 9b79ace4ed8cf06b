package transports

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds Prometheus metrics for the client transport layers.
type Metrics struct {
	retries        *prometheus.CounterVec
	ratelimitWaits prometheus.Histogram
	cacheHits      prometheus.Counter
	cacheMisses    prometheus.Counter

	registry *prometheus.Registry
}

// NewMetrics creates a metrics instance with its own registry.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		retries: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_client_retries_total",
				Help: "Total number of retried upstream requests by method",
			},
			[]string{"method"},
		),
		ratelimitWaits: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "http_client_ratelimit_wait_seconds",
				Help:    "Time spent waiting for upstream rate limits",
				Buckets: prometheus.DefBuckets,
			},
		),
		cacheHits: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "http_client_cache_hits_total",
				Help: "Total number of responses served from the in-memory cache",
			},
		),
		cacheMisses: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "http_client_cache_misses_total",
				Help: "Total number of cache lookups that went to the network",
			},
		),
		registry: registry,
	}

	registry.MustRegister(m.retries, m.ratelimitWaits, m.cacheHits, m.cacheMisses)
	return m
}

// Handler exposes the metrics for scraping.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
