package observability

import (
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMetricsRegistersCollectors(t *testing.T) {
	m := NewMetrics(nil)

	m.PermissionCacheHits.Inc()
	m.PermissionCacheMisses.Inc()
	m.PermissionCacheMisses.Inc()
	m.CacheInvalidations.WithLabelValues("role").Inc()
	m.RateLimitDecisions.WithLabelValues("rejected").Inc()
	m.StoreQueryDuration.WithLabelValues("create_role").Observe(0.02)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.PermissionCacheHits))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.PermissionCacheMisses))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CacheInvalidations.WithLabelValues("role")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RateLimitDecisions.WithLabelValues("rejected")))
}

func TestMetricsHandlerExposesRegistry(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := NewMetrics(registry)
	m.PermissionCacheHits.Inc()

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/metrics", nil)
	m.Handler().ServeHTTP(rec, req)

	require.Equal(t, 200, rec.Code)
	assert.Contains(t, rec.Body.String(), "authz_permission_cache_hits_total 1")
}
