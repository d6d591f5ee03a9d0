// Package cache implements the permission cache contract consumed by the
// rbac package: a write-through/read-through map of (tenant, user) to an
// effective permission key set, backed by a (tenant, role) -> {user}
// reverse index that lets role-definition changes invalidate exactly the
// affected users without a database scan.
//
// Two implementations are provided: RedisCache for production, where the
// cache must be shared across instances, and MemoryCache for development
// and tests. Both coalesce bursts of role edits through a Debouncer so a
// role serving many users is invalidated once per quiet period instead of
// once per keystroke.
//
// Invalidation and a concurrent cache fill for the same user are not
// ordered with respect to each other; a fill racing a role update may
// briefly restore a stale set, bounded by the next invalidation and the
// entry TTL. Single-user assignment changes are invalidated immediately.
package cache
