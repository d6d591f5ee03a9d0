package rbac

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// System role names seeded at tenant provisioning time.
const (
	RoleAdmin  = "admin"
	RoleMember = "member"
	RoleViewer = "viewer"
)

// PermissionDef declares a core permission.
type PermissionDef struct {
	Key         string
	Name        string
	Description string
}

// SystemRoleDef declares a seeded, immutable role.
type SystemRoleDef struct {
	Name           string
	Description    string
	PermissionKeys []string
}

// CorePermissions returns the platform's built-in permission catalog.
// Plugin-contributed permissions are registered separately at install
// time and carry the plugin's id.
func CorePermissions() []PermissionDef {
	return []PermissionDef{
		{Key: "workspace.read", Name: "Read workspaces", Description: "View workspaces and their settings"},
		{Key: "workspace.write", Name: "Write workspaces", Description: "Create and update workspaces"},
		{Key: "workspace.delete", Name: "Delete workspaces", Description: "Delete workspaces"},
		{Key: "member.read", Name: "Read members", Description: "View tenant members"},
		{Key: "member.invite", Name: "Invite members", Description: "Invite users to the tenant"},
		{Key: "member.remove", Name: "Remove members", Description: "Remove users from the tenant"},
		{Key: "role.read", Name: "Read roles", Description: "View roles and permissions"},
		{Key: "role.write", Name: "Write roles", Description: "Create and update custom roles"},
		{Key: "role.delete", Name: "Delete roles", Description: "Delete custom roles"},
		{Key: "role.assign", Name: "Assign roles", Description: "Assign and remove user roles"},
		{Key: "plugin.read", Name: "Read plugins", Description: "View installed plugins"},
		{Key: "plugin.install", Name: "Install plugins", Description: "Install and remove plugins"},
	}
}

// SystemRoles returns the built-in role definitions seeded for every tenant.
func SystemRoles() []SystemRoleDef {
	return []SystemRoleDef{
		{
			Name:        RoleAdmin,
			Description: "Full access to all tenant resources",
			PermissionKeys: []string{
				"workspace.read", "workspace.write", "workspace.delete",
				"member.read", "member.invite", "member.remove",
				"role.read", "role.write", "role.delete", "role.assign",
				"plugin.read", "plugin.install",
			},
		},
		{
			Name:        RoleMember,
			Description: "Read and write access to workspaces",
			PermissionKeys: []string{
				"workspace.read", "workspace.write",
				"member.read", "role.read", "plugin.read",
			},
		},
		{
			Name:        RoleViewer,
			Description: "Read-only access",
			PermissionKeys: []string{
				"workspace.read", "member.read", "role.read", "plugin.read",
			},
		},
	}
}

// SeedTenant inserts the core permission catalog and system roles into a
// freshly provisioned tenant schema. All inserts are idempotent so
// re-running a partially failed provisioning saga is safe.
func (s *Store) SeedTenant(ctx context.Context, tenantID, schema string) error {
	if err := ValidateSchemaName(schema); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()

	permQuery := fmt.Sprintf(`
		INSERT INTO %s.permissions (id, tenant_id, key, name, description, plugin_id, created_at)
		VALUES ($1, $2, $3, $4, $5, NULL, $6)
		ON CONFLICT (tenant_id, key) DO NOTHING
	`, schema)
	for _, def := range CorePermissions() {
		if _, err := tx.ExecContext(ctx, permQuery, uuid.NewString(), tenantID, def.Key, def.Name, def.Description, now); err != nil {
			return fmt.Errorf("failed to seed permission %s: %w", def.Key, err)
		}
	}

	roleQuery := fmt.Sprintf(`
		INSERT INTO %s.roles (id, tenant_id, name, description, is_system, created_at, updated_at)
		VALUES ($1, $2, $3, $4, TRUE, $5, $5)
		ON CONFLICT (tenant_id, name) DO NOTHING
	`, schema)
	linkQuery := fmt.Sprintf(`
		INSERT INTO %s.role_permissions (role_id, permission_id, tenant_id)
		SELECT r.id, p.id, $1
		FROM %s.roles r, %s.permissions p
		WHERE r.tenant_id = $1 AND r.name = $2 AND p.tenant_id = $1 AND p.key = $3
		ON CONFLICT (role_id, permission_id) DO NOTHING
	`, schema, schema, schema)

	for _, def := range SystemRoles() {
		if _, err := tx.ExecContext(ctx, roleQuery, uuid.NewString(), tenantID, def.Name, def.Description, now); err != nil {
			return fmt.Errorf("failed to seed role %s: %w", def.Name, err)
		}
		for _, key := range def.PermissionKeys {
			if _, err := tx.ExecContext(ctx, linkQuery, tenantID, def.Name, key); err != nil {
				return fmt.Errorf("failed to link %s to %s: %w", key, def.Name, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit tenant seed: %w", err)
	}
	return nil
}
