package middleware

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLimiter(t *testing.T, config *MutationRateLimitConfig) (*MutationRateLimiter, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewMutationRateLimiter(client, config, nil, nil), mr
}

func TestAllowCountsPerTenant(t *testing.T) {
	limiter, _ := newTestLimiter(t, &MutationRateLimitConfig{Limit: 3, Window: time.Minute})
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		result, err := limiter.Allow(ctx, "t1")
		require.NoError(t, err)
		assert.Equal(t, 3, result.Limit)
		assert.Equal(t, 2-i, result.Remaining)
		assert.False(t, result.FailedOpen)
	}

	_, err := limiter.Allow(ctx, "t1")
	require.Error(t, err)
	assert.True(t, IsRateLimitExceeded(err))

	// Another tenant has its own counter.
	result, err := limiter.Allow(ctx, "t2")
	require.NoError(t, err)
	assert.Equal(t, 2, result.Remaining)
}

func TestAllowRetryAfterBounds(t *testing.T) {
	limiter, _ := newTestLimiter(t, &MutationRateLimitConfig{Limit: 1, Window: time.Minute})
	ctx := context.Background()

	_, err := limiter.Allow(ctx, "t1")
	require.NoError(t, err)

	_, err = limiter.Allow(ctx, "t1")
	require.Error(t, err)
	var rateErr *RateLimitExceededError
	require.ErrorAs(t, err, &rateErr)
	assert.GreaterOrEqual(t, rateErr.RetryAfter, 1)
	assert.LessOrEqual(t, rateErr.RetryAfter, 60)
	assert.Equal(t, 60, rateErr.WindowSeconds)
}

func TestWindowResets(t *testing.T) {
	limiter, mr := newTestLimiter(t, &MutationRateLimitConfig{Limit: 1, Window: time.Minute})
	ctx := context.Background()

	_, err := limiter.Allow(ctx, "t1")
	require.NoError(t, err)
	_, err = limiter.Allow(ctx, "t1")
	require.Error(t, err)

	mr.FastForward(61 * time.Second)

	result, err := limiter.Allow(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, 0, result.Remaining)
}

func TestAllowFailsOpenWhenCounterUnreachable(t *testing.T) {
	limiter, mr := newTestLimiter(t, &MutationRateLimitConfig{Limit: 1, Window: time.Minute})
	mr.Close()

	result, err := limiter.Allow(context.Background(), "t1")
	require.NoError(t, err)
	assert.True(t, result.FailedOpen)
}

func TestAllowDisabledBypassesCounter(t *testing.T) {
	limiter, mr := newTestLimiter(t, &MutationRateLimitConfig{Limit: 1, Window: time.Minute, Disabled: true})
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		result, err := limiter.Allow(ctx, "t1")
		require.NoError(t, err)
		assert.Equal(t, 1, result.Remaining)
	}
	assert.Empty(t, mr.Keys(), "disabled limiter must not touch the counter store")
}

func TestReset(t *testing.T) {
	limiter, _ := newTestLimiter(t, &MutationRateLimitConfig{Limit: 1, Window: time.Minute})
	ctx := context.Background()

	_, err := limiter.Allow(ctx, "t1")
	require.NoError(t, err)
	_, err = limiter.Allow(ctx, "t1")
	require.Error(t, err)

	require.NoError(t, limiter.Reset(ctx, "t1"))

	_, err = limiter.Allow(ctx, "t1")
	assert.NoError(t, err)
}

func newLimitedHandler(limiter *MutationRateLimiter) http.Handler {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	return TenantContextMiddleware(limiter.Middleware(next))
}

func doLimitedRequest(handler http.Handler, method string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, "/authz/roles", nil)
	req.Header.Set(TenantIDHeader, "t1")
	req.Header.Set(TenantSchemaHeader, "tenant_acme")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestMiddlewareEmitsRateLimitHeaders(t *testing.T) {
	limiter, _ := newTestLimiter(t, &MutationRateLimitConfig{Limit: 2, Window: time.Minute})
	handler := newLimitedHandler(limiter)

	rec := doLimitedRequest(handler, "POST")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "2", rec.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "1", rec.Header().Get("X-RateLimit-Remaining"))

	rec = doLimitedRequest(handler, "POST")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "0", rec.Header().Get("X-RateLimit-Remaining"))
}

func TestMiddlewareRejectsOverLimit(t *testing.T) {
	limiter, _ := newTestLimiter(t, &MutationRateLimitConfig{Limit: 1, Window: time.Minute})
	handler := newLimitedHandler(limiter)

	rec := doLimitedRequest(handler, "POST")
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = doLimitedRequest(handler, "POST")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "0", rec.Header().Get("X-RateLimit-Remaining"))

	retryAfter, err := strconv.Atoi(rec.Header().Get("Retry-After"))
	require.NoError(t, err)
	assert.GreaterOrEqual(t, retryAfter, 1)
	assert.LessOrEqual(t, retryAfter, 60)

	assert.JSONEq(t, fmt.Sprintf(`{"error":"rate_limit_exceeded","retry_after":%d}`, retryAfter), rec.Body.String())
}

func TestMiddlewareIgnoresReads(t *testing.T) {
	limiter, mr := newTestLimiter(t, &MutationRateLimitConfig{Limit: 1, Window: time.Minute})
	handler := newLimitedHandler(limiter)

	for i := 0; i < 5; i++ {
		rec := doLimitedRequest(handler, "GET")
		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Empty(t, rec.Header().Get("X-RateLimit-Limit"))
	}
	assert.Empty(t, mr.Keys(), "reads must not be counted")
}

func TestMiddlewareFailsOpenWithoutHeaders(t *testing.T) {
	limiter, mr := newTestLimiter(t, &MutationRateLimitConfig{Limit: 1, Window: time.Minute})
	mr.Close()
	handler := newLimitedHandler(limiter)

	rec := doLimitedRequest(handler, "POST")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, rec.Header().Get("X-RateLimit-Limit"))
	assert.Empty(t, rec.Header().Get("X-RateLimit-Remaining"))
}

func TestDefaultMutationRateLimitConfig(t *testing.T) {
	config := DefaultMutationRateLimitConfig()
	assert.Equal(t, 60, config.Limit)
	assert.Equal(t, 60*time.Second, config.Window)
	assert.False(t, config.Disabled)
}
