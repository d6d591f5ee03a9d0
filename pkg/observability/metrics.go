package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the authorization service's Prometheus metrics
type Metrics struct {
	registry *prometheus.Registry

	// Permission cache metrics
	PermissionCacheHits   prometheus.Counter
	PermissionCacheMisses prometheus.Counter
	CacheInvalidations    *prometheus.CounterVec

	// Rate limiter metrics
	RateLimitDecisions *prometheus.CounterVec

	// Store metrics
	StoreQueryDuration *prometheus.HistogramVec
}

// NewMetrics creates and registers all authorization metrics
func NewMetrics(registry *prometheus.Registry) *Metrics {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	m := &Metrics{
		registry: registry,
		PermissionCacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "authz_permission_cache_hits_total",
			Help: "Total number of permission cache hits",
		}),
		PermissionCacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "authz_permission_cache_misses_total",
			Help: "Total number of permission cache misses",
		}),
		CacheInvalidations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "authz_cache_invalidations_total",
				Help: "Total number of cache invalidations by kind",
			},
			[]string{"kind"},
		),
		RateLimitDecisions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "authz_ratelimit_decisions_total",
				Help: "Total number of mutation rate limit decisions",
			},
			[]string{"decision"},
		),
		StoreQueryDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "authz_store_query_duration_seconds",
				Help:    "Role store query duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}

	registry.MustRegister(
		m.PermissionCacheHits,
		m.PermissionCacheMisses,
		m.CacheInvalidations,
		m.RateLimitDecisions,
		m.StoreQueryDuration,
	)
	return m
}

// Handler returns an HTTP handler exposing the metrics registry
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
