package rbac

import (
	"context"
	"fmt"

	"golang.org/x/sync/singleflight"

	"github.com/plexica/authz/pkg/observability"
)

// PermissionCache is the read/fill surface the resolver consumes. A Get
// miss always falls through to the authoritative store, so no cache
// failure can cause permanently wrong access.
type PermissionCache interface {
	// Get returns the cached permission keys for a user, or ok=false on miss.
	Get(ctx context.Context, tenantID, userID string) (keys []string, ok bool, err error)
	// Put writes the permission set with a bounded TTL and records the
	// user in each contributing role's reverse-index set.
	Put(ctx context.Context, tenantID, userID string, keys, roleIDs []string) error
}

// PermissionSource is the authoritative resolution query. *Store satisfies it.
type PermissionSource interface {
	GetUserPermissions(ctx context.Context, tenantID, schema, userID string) (*UserPermissions, error)
}

// Resolver answers effective-permission lookups through the cache,
// falling back to the authoritative join on miss. Concurrent misses for
// the same user are coalesced into a single store query.
type Resolver struct {
	source  PermissionSource
	cache   PermissionCache
	group   singleflight.Group
	logger  *observability.Logger
	metrics *observability.Metrics
}

// NewResolver creates a resolver. cache may be nil to always hit the store.
func NewResolver(source PermissionSource, cache PermissionCache, logger *observability.Logger, metrics *observability.Metrics) *Resolver {
	return &Resolver{source: source, cache: cache, logger: logger, metrics: metrics}
}

// EffectivePermissions returns the deduplicated union of permission keys
// reachable from the user through all currently assigned roles.
func (r *Resolver) EffectivePermissions(ctx context.Context, tenantID, schema, userID string) ([]string, error) {
	if r.cache != nil {
		keys, ok, err := r.cache.Get(ctx, tenantID, userID)
		if err != nil {
			// Cache transport failure is not the caller's problem; the
			// authoritative store answers instead.
			if r.logger != nil {
				r.logger.WithError(err).WithField("tenant_id", tenantID).Warn("permission cache read failed")
			}
		} else if ok {
			if r.metrics != nil {
				r.metrics.PermissionCacheHits.Inc()
			}
			return keys, nil
		}
	}
	if r.metrics != nil {
		r.metrics.PermissionCacheMisses.Inc()
	}

	result, err, _ := r.group.Do(tenantID+":"+userID, func() (interface{}, error) {
		perms, err := r.source.GetUserPermissions(ctx, tenantID, schema, userID)
		if err != nil {
			return nil, err
		}
		if r.cache != nil {
			if err := r.cache.Put(ctx, tenantID, userID, perms.PermissionKeys, perms.RoleIDs); err != nil {
				if r.logger != nil {
					r.logger.WithError(err).WithField("tenant_id", tenantID).Warn("permission cache fill failed")
				}
			}
		}
		return perms.PermissionKeys, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to resolve permissions: %w", err)
	}
	return result.([]string), nil
}
