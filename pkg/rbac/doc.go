// Package rbac implements the multi-tenant role-based access control core:
// role and permission persistence, user-role assignment, and effective
// permission resolution.
//
// # Tenant isolation
//
// Every tenant's tables live inside a dynamically named postgres schema.
// Schema names are interpolated into queries as identifiers, never as bound
// parameters, so every public operation re-validates the schema string with
// ValidateSchemaName before building SQL. All data values are parameterized.
//
// # Write guards
//
// CreateRole enforces the per-tenant custom role limit and name uniqueness
// inside the same transaction as the insert, serialized by a per-tenant
// advisory lock; a UNIQUE(tenant_id, name) constraint backstops the name
// race at the database. System roles are seeded at provisioning time and
// are rejected by UpdateRole and DeleteRole.
//
// # Caching
//
// The store drives a CacheInvalidator after each commit: immediately for
// single-user assignment changes, debounced for role-definition changes
// that affect every member. The Resolver answers reads through a
// PermissionCache and falls back to the authoritative three-way join on
// miss, coalescing concurrent misses with singleflight. The cache is never
// the source of truth; any cache failure degrades to a store query.
package rbac
