package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/plexica/authz/pkg/observability"
)

const (
	// DefaultTTL bounds how stale a cached permission set can get when
	// every invalidation path fails.
	DefaultTTL = 5 * time.Minute
	// DefaultDebounceInterval is the quiet period for coalescing
	// role-definition edits into a single invalidation.
	DefaultDebounceInterval = 300 * time.Millisecond
	// invalidateTimeout bounds the background fan-out triggered by the
	// debouncer, which runs outside any request context.
	invalidateTimeout = 5 * time.Second
)

// Options configures a cache implementation.
type Options struct {
	TTL              time.Duration
	DebounceInterval time.Duration
	Logger           *observability.Logger
	Metrics          *observability.Metrics
}

func (o *Options) withDefaults() {
	if o.TTL <= 0 {
		o.TTL = DefaultTTL
	}
	if o.DebounceInterval <= 0 {
		o.DebounceInterval = DefaultDebounceInterval
	}
}

// RedisCache maps (tenant, user) to an effective permission key set and
// maintains a (tenant, role) -> {user} reverse index used to fan out
// invalidation when a role's definition changes. All operations are
// single-key and individually atomic; the cache is never the source of
// truth, so every failure mode degrades to a store query.
type RedisCache struct {
	client   *redis.Client
	ttl      time.Duration
	debounce *Debouncer
	logger   *observability.Logger
	metrics  *observability.Metrics
}

// NewRedisCache creates a Redis-backed permission cache.
func NewRedisCache(client *redis.Client, opts Options) *RedisCache {
	opts.withDefaults()
	c := &RedisCache{
		client:  client,
		ttl:     opts.TTL,
		logger:  opts.Logger,
		metrics: opts.Metrics,
	}
	c.debounce = NewDebouncer(opts.DebounceInterval, func(tenantID, roleID string) {
		ctx, cancel := context.WithTimeout(context.Background(), invalidateTimeout)
		defer cancel()
		if err := c.InvalidateRole(ctx, tenantID, roleID); err != nil && c.logger != nil {
			c.logger.WithError(err).WithFields(map[string]interface{}{
				"tenant_id": tenantID,
				"role_id":   roleID,
			}).Warn("debounced role invalidation failed")
		}
	})
	return c
}

// Close stops any pending debounced invalidations.
func (c *RedisCache) Close() error {
	c.debounce.Close()
	return nil
}

func permsKey(tenantID, userID string) string {
	return fmt.Sprintf("authz:perms:%s:%s", tenantID, userID)
}

func roleUsersKey(tenantID, roleID string) string {
	return fmt.Sprintf("role:users:%s:%s", tenantID, roleID)
}

// Get returns the cached permission keys for a user, or ok=false on miss.
func (c *RedisCache) Get(ctx context.Context, tenantID, userID string) ([]string, bool, error) {
	data, err := c.client.Get(ctx, permsKey(tenantID, userID)).Result()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read permission cache: %w", err)
	}
	var keys []string
	if err := json.Unmarshal([]byte(data), &keys); err != nil {
		// Unreadable entries are treated as misses and overwritten by the
		// next fill.
		return nil, false, nil
	}
	return keys, true, nil
}

// Put writes a user's permission set with the configured TTL and adds the
// user to each contributing role's reverse-index set, so a later
// role-definition change can find this user without a database scan.
func (c *RedisCache) Put(ctx context.Context, tenantID, userID string, keys, roleIDs []string) error {
	if keys == nil {
		keys = []string{}
	}
	data, err := json.Marshal(keys)
	if err != nil {
		return fmt.Errorf("failed to encode permission set: %w", err)
	}

	pipe := c.client.Pipeline()
	pipe.Set(ctx, permsKey(tenantID, userID), data, c.ttl)
	for _, roleID := range roleIDs {
		pipe.SAdd(ctx, roleUsersKey(tenantID, roleID), userID)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to fill permission cache: %w", err)
	}
	return nil
}

// InvalidateUser deletes one user's cached permission set immediately.
func (c *RedisCache) InvalidateUser(ctx context.Context, tenantID, userID string) error {
	if err := c.client.Del(ctx, permsKey(tenantID, userID)).Err(); err != nil {
		return fmt.Errorf("failed to invalidate user cache: %w", err)
	}
	if c.metrics != nil {
		c.metrics.CacheInvalidations.WithLabelValues("user").Inc()
	}
	return nil
}

// InvalidateRole deletes the cached permission set of every member of the
// role and clears the role's reverse-index set. Reverse-index entries are
// lazily rebuilt by Put on the next cache fill.
func (c *RedisCache) InvalidateRole(ctx context.Context, tenantID, roleID string) error {
	indexKey := roleUsersKey(tenantID, roleID)
	members, err := c.client.SMembers(ctx, indexKey).Result()
	if err != nil && err != redis.Nil {
		return fmt.Errorf("failed to read role member index: %w", err)
	}

	pipe := c.client.Pipeline()
	for _, userID := range members {
		pipe.Del(ctx, permsKey(tenantID, userID))
	}
	pipe.Del(ctx, indexKey)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to invalidate role members: %w", err)
	}
	if c.metrics != nil {
		c.metrics.CacheInvalidations.WithLabelValues("role").Inc()
	}
	return nil
}

// ScheduleRoleInvalidation coalesces rapid repeated role-definition edits
// into a single InvalidateRole after the quiet period.
func (c *RedisCache) ScheduleRoleInvalidation(tenantID, roleID string) {
	c.debounce.Trigger(tenantID, roleID)
}

// AddRoleMember records userID in the role's reverse-index set.
func (c *RedisCache) AddRoleMember(ctx context.Context, tenantID, roleID, userID string) error {
	if err := c.client.SAdd(ctx, roleUsersKey(tenantID, roleID), userID).Err(); err != nil {
		return fmt.Errorf("failed to update role member index: %w", err)
	}
	return nil
}

// RemoveRoleMember removes userID from the role's reverse-index set.
func (c *RedisCache) RemoveRoleMember(ctx context.Context, tenantID, roleID, userID string) error {
	if err := c.client.SRem(ctx, roleUsersKey(tenantID, roleID), userID).Err(); err != nil {
		return fmt.Errorf("failed to update role member index: %w", err)
	}
	return nil
}
