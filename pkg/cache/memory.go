package cache

import (
	"context"
	"sync"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// DefaultMemoryCacheSize bounds the in-memory cache entry count.
const DefaultMemoryCacheSize = 10000

// MemoryCache is an in-process implementation of the permission cache
// contract backed by an expirable LRU. Used in development and tests
// where no Redis is available; it offers the same semantics for a single
// process but no cross-instance coherence.
type MemoryCache struct {
	mu       sync.Mutex
	entries  *expirable.LRU[string, []string]
	members  map[string]map[string]struct{}
	debounce *Debouncer
}

// NewMemoryCache creates an in-memory permission cache.
func NewMemoryCache(size int, opts Options) *MemoryCache {
	opts.withDefaults()
	if size <= 0 {
		size = DefaultMemoryCacheSize
	}
	c := &MemoryCache{
		entries: expirable.NewLRU[string, []string](size, nil, opts.TTL),
		members: make(map[string]map[string]struct{}),
	}
	c.debounce = NewDebouncer(opts.DebounceInterval, func(tenantID, roleID string) {
		// Background fan-out; the in-memory store cannot fail.
		_ = c.InvalidateRole(context.Background(), tenantID, roleID)
	})
	return c
}

// Close stops any pending debounced invalidations.
func (c *MemoryCache) Close() error {
	c.debounce.Close()
	return nil
}

// Get returns the cached permission keys for a user, or ok=false on miss.
func (c *MemoryCache) Get(_ context.Context, tenantID, userID string) ([]string, bool, error) {
	keys, ok := c.entries.Get(permsKey(tenantID, userID))
	return keys, ok, nil
}

// Put writes a user's permission set and records the user in each
// contributing role's member set.
func (c *MemoryCache) Put(_ context.Context, tenantID, userID string, keys, roleIDs []string) error {
	if keys == nil {
		keys = []string{}
	}
	c.entries.Add(permsKey(tenantID, userID), keys)

	c.mu.Lock()
	defer c.mu.Unlock()
	for _, roleID := range roleIDs {
		indexKey := roleUsersKey(tenantID, roleID)
		if c.members[indexKey] == nil {
			c.members[indexKey] = make(map[string]struct{})
		}
		c.members[indexKey][userID] = struct{}{}
	}
	return nil
}

// InvalidateUser deletes one user's cached permission set.
func (c *MemoryCache) InvalidateUser(_ context.Context, tenantID, userID string) error {
	c.entries.Remove(permsKey(tenantID, userID))
	return nil
}

// InvalidateRole deletes every member's cached set and clears the role's
// member set.
func (c *MemoryCache) InvalidateRole(_ context.Context, tenantID, roleID string) error {
	indexKey := roleUsersKey(tenantID, roleID)

	c.mu.Lock()
	users := c.members[indexKey]
	delete(c.members, indexKey)
	c.mu.Unlock()

	for userID := range users {
		c.entries.Remove(permsKey(tenantID, userID))
	}
	return nil
}

// ScheduleRoleInvalidation coalesces role edits into one invalidation.
func (c *MemoryCache) ScheduleRoleInvalidation(tenantID, roleID string) {
	c.debounce.Trigger(tenantID, roleID)
}

// AddRoleMember records userID in the role's member set.
func (c *MemoryCache) AddRoleMember(_ context.Context, tenantID, roleID, userID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	indexKey := roleUsersKey(tenantID, roleID)
	if c.members[indexKey] == nil {
		c.members[indexKey] = make(map[string]struct{})
	}
	c.members[indexKey][userID] = struct{}{}
	return nil
}

// RemoveRoleMember removes userID from the role's member set.
func (c *MemoryCache) RemoveRoleMember(_ context.Context, tenantID, roleID, userID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	indexKey := roleUsersKey(tenantID, roleID)
	if users, ok := c.members[indexKey]; ok {
		delete(users, userID)
	}
	return nil
}
