package middleware

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/plexica/authz/pkg/observability"
)

const rateLimitKeyPrefix = "authz:ratelimit:"

// RateLimitExceededError indicates an authorization mutation was throttled.
type RateLimitExceededError struct {
	Limit         int
	WindowSeconds int
	RetryAfter    int
}

func (e *RateLimitExceededError) Error() string {
	return fmt.Sprintf("mutation rate limit of %d per %ds exceeded, retry after %ds",
		e.Limit, e.WindowSeconds, e.RetryAfter)
}

// IsRateLimitExceeded checks if an error is a rate limit exceeded error.
func IsRateLimitExceeded(err error) bool {
	var target *RateLimitExceededError
	return errors.As(err, &target)
}

// MutationRateLimitConfig configures the per-tenant mutation limiter.
type MutationRateLimitConfig struct {
	// Limit is the max mutations allowed per tenant in one window.
	Limit int
	// Window is the rolling window duration.
	Window time.Duration
	// Disabled bypasses the limiter entirely; set explicitly for test
	// and CI execution contexts.
	Disabled bool
}

// DefaultMutationRateLimitConfig returns the default mutation limits.
func DefaultMutationRateLimitConfig() *MutationRateLimitConfig {
	return &MutationRateLimitConfig{
		Limit:  60,
		Window: 60 * time.Second,
	}
}

// RateLimitResult describes an allowed request for header emission.
type RateLimitResult struct {
	Limit     int
	Remaining int
	// FailedOpen is set when the counter store was unreachable and the
	// request was allowed without an enforced count.
	FailedOpen bool
}

// MutationRateLimiter is a sliding-window limiter over authorization
// mutation traffic, counted per tenant in Redis so limits hold across
// instances. It is distinct from any general-purpose API rate limiter.
type MutationRateLimiter struct {
	redis   *redis.Client
	config  *MutationRateLimitConfig
	logger  *observability.Logger
	metrics *observability.Metrics
}

// NewMutationRateLimiter creates a Redis-backed mutation limiter.
func NewMutationRateLimiter(client *redis.Client, config *MutationRateLimitConfig, logger *observability.Logger, metrics *observability.Metrics) *MutationRateLimiter {
	if config == nil {
		config = DefaultMutationRateLimitConfig()
	}
	return &MutationRateLimiter{redis: client, config: config, logger: logger, metrics: metrics}
}

// Allow checks and counts one mutation for the tenant. The first
// increment of a window establishes the window by setting the key's
// expiry; the counter and expiry reset together when the window elapses.
// On a counter store failure the request is allowed through with a
// warning: availability of authorization mutations is prioritized over
// strict enforcement.
func (rl *MutationRateLimiter) Allow(ctx context.Context, tenantID string) (*RateLimitResult, error) {
	if rl.config.Disabled {
		return &RateLimitResult{Limit: rl.config.Limit, Remaining: rl.config.Limit}, nil
	}

	key := rateLimitKeyPrefix + tenantID
	count, err := rl.redis.Incr(ctx, key).Result()
	if err != nil {
		rl.warnFailOpen(err, tenantID)
		return &RateLimitResult{Limit: rl.config.Limit, FailedOpen: true}, nil
	}

	if count == 1 {
		if err := rl.redis.Expire(ctx, key, rl.config.Window).Err(); err != nil {
			rl.warnFailOpen(err, tenantID)
		}
	}

	if count <= int64(rl.config.Limit) {
		remaining := rl.config.Limit - int(count)
		if remaining < 0 {
			remaining = 0
		}
		if rl.metrics != nil {
			rl.metrics.RateLimitDecisions.WithLabelValues("allowed").Inc()
		}
		return &RateLimitResult{Limit: rl.config.Limit, Remaining: remaining}, nil
	}

	retryAfter := int(rl.config.Window.Seconds())
	if ttl, err := rl.redis.TTL(ctx, key).Result(); err == nil && ttl > 0 {
		retryAfter = int(math.Ceil(ttl.Seconds()))
	}
	if retryAfter < 1 {
		retryAfter = 1
	}
	if rl.metrics != nil {
		rl.metrics.RateLimitDecisions.WithLabelValues("rejected").Inc()
	}
	return nil, &RateLimitExceededError{
		Limit:         rl.config.Limit,
		WindowSeconds: int(rl.config.Window.Seconds()),
		RetryAfter:    retryAfter,
	}
}

// Reset clears the tenant's counter. For tests and admin tooling.
func (rl *MutationRateLimiter) Reset(ctx context.Context, tenantID string) error {
	return rl.redis.Del(ctx, rateLimitKeyPrefix+tenantID).Err()
}

// Middleware applies the limiter to mutating requests. Reads pass
// through uncounted. Allowed requests carry X-RateLimit-Limit and
// X-RateLimit-Remaining; rejected requests get a 429 with Retry-After.
func (rl *MutationRateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			next.ServeHTTP(w, r)
			return
		}

		tc := GetTenantContext(r)
		if tc == nil {
			next.ServeHTTP(w, r)
			return
		}

		result, err := rl.Allow(r.Context(), tc.TenantID)
		if err != nil {
			var rateErr *RateLimitExceededError
			if errors.As(err, &rateErr) {
				w.Header().Set("Content-Type", "application/json")
				w.Header().Set("X-RateLimit-Limit", fmt.Sprintf("%d", rateErr.Limit))
				w.Header().Set("X-RateLimit-Remaining", "0")
				w.Header().Set("Retry-After", fmt.Sprintf("%d", rateErr.RetryAfter))
				w.WriteHeader(http.StatusTooManyRequests)
				fmt.Fprintf(w, `{"error":"rate_limit_exceeded","retry_after":%d}`, rateErr.RetryAfter)
				return
			}
			next.ServeHTTP(w, r)
			return
		}

		if !result.FailedOpen {
			w.Header().Set("X-RateLimit-Limit", fmt.Sprintf("%d", result.Limit))
			w.Header().Set("X-RateLimit-Remaining", fmt.Sprintf("%d", result.Remaining))
		}
		next.ServeHTTP(w, r)
	})
}

func (rl *MutationRateLimiter) warnFailOpen(err error, tenantID string) {
	if rl.metrics != nil {
		rl.metrics.RateLimitDecisions.WithLabelValues("fail_open").Inc()
	}
	if rl.logger != nil {
		rl.logger.WithError(err).WithField("tenant_id", tenantID).Warn("rate limit counter unreachable, failing open")
	}
}
