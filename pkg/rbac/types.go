package rbac

import (
	"time"
)

// MaxCustomRoles is the maximum number of non-system roles a tenant may hold.
const MaxCustomRoles = 50

// Role represents a named collection of permissions owned by a tenant.
// System roles are seeded at tenant provisioning time and are immutable.
type Role struct {
	ID          string    `json:"id"`
	TenantID    string    `json:"tenant_id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	IsSystem    bool      `json:"is_system"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Permission represents a capability identified by an opaque key
// (e.g. "workspace.delete"). Permissions contributed by an installed
// plugin carry that plugin's id; core permissions have a nil PluginID.
type Permission struct {
	ID          string    `json:"id"`
	TenantID    string    `json:"tenant_id"`
	Key         string    `json:"key"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	PluginID    *string   `json:"plugin_id,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// RoleWithPermissions is a role together with its resolved permission set.
type RoleWithPermissions struct {
	Role
	Permissions []Permission `json:"permissions"`
}

// UserRole is a raw role assignment row.
type UserRole struct {
	UserID     string    `json:"user_id"`
	RoleID     string    `json:"role_id"`
	TenantID   string    `json:"tenant_id"`
	AssignedAt time.Time `json:"assigned_at"`
}

// UserPermissions is the authoritative resolution result for one user:
// the distinct permission keys reachable through any assigned role, plus
// the ids of the roles that contributed them.
type UserPermissions struct {
	PermissionKeys []string `json:"permission_keys"`
	RoleIDs        []string `json:"role_ids"`
}

// CreateRoleInput carries the fields for creating a custom role.
type CreateRoleInput struct {
	Name          string   `json:"name"`
	Description   string   `json:"description,omitempty"`
	PermissionIDs []string `json:"permission_ids"`
}

// UpdateRoleInput carries the mutable fields of a role. Nil fields are
// left unchanged; a non-nil PermissionIDs replaces the whole set.
type UpdateRoleInput struct {
	Name          *string  `json:"name,omitempty"`
	Description   *string  `json:"description,omitempty"`
	PermissionIDs []string `json:"permission_ids,omitempty"`
}

// ListRolesFilter controls role listing.
type ListRolesFilter struct {
	Search   string `json:"search,omitempty"`
	IsSystem *bool  `json:"is_system,omitempty"`
	Page     int    `json:"page"`
	Limit    int    `json:"limit"`
}

// ListMeta carries pagination metadata plus the tenant's current custom
// role count for quota display.
type ListMeta struct {
	Total           int `json:"total"`
	Page            int `json:"page"`
	Limit           int `json:"limit"`
	CustomRoleCount int `json:"custom_role_count"`
}

// RoleList is a page of roles with listing metadata.
type RoleList struct {
	Data []RoleWithPermissions `json:"data"`
	Meta ListMeta              `json:"meta"`
}
