package rbac

import (
	"context"
	"database/sql"
	"fmt"
)

// Migration represents a versioned DDL step applied inside one tenant schema.
type Migration struct {
	Version     int
	Description string
	SQL         string
}

// Migrations returns the authorization DDL rendered into the given tenant
// schema. The schema name must already have passed ValidateSchemaName.
func Migrations(schema string) []Migration {
	return []Migration{
		{
			Version:     1,
			Description: "Create roles table",
			SQL: fmt.Sprintf(`
				CREATE TABLE IF NOT EXISTS %s.roles (
					id UUID PRIMARY KEY,
					tenant_id VARCHAR(64) NOT NULL,
					name VARCHAR(255) NOT NULL,
					description TEXT,
					is_system BOOLEAN NOT NULL DEFAULT FALSE,
					created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
					updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
					UNIQUE(tenant_id, name)
				);

				CREATE INDEX IF NOT EXISTS idx_roles_tenant_id ON %s.roles(tenant_id);
				CREATE INDEX IF NOT EXISTS idx_roles_is_system ON %s.roles(is_system);
			`, schema, schema, schema),
		},
		{
			Version:     2,
			Description: "Create permissions table",
			SQL: fmt.Sprintf(`
				CREATE TABLE IF NOT EXISTS %s.permissions (
					id UUID PRIMARY KEY,
					tenant_id VARCHAR(64) NOT NULL,
					key VARCHAR(255) NOT NULL,
					name VARCHAR(255) NOT NULL,
					description TEXT,
					plugin_id VARCHAR(64),
					created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
					UNIQUE(tenant_id, key)
				);

				CREATE INDEX IF NOT EXISTS idx_permissions_tenant_id ON %s.permissions(tenant_id);
				CREATE INDEX IF NOT EXISTS idx_permissions_plugin_id ON %s.permissions(plugin_id);
			`, schema, schema, schema),
		},
		{
			Version:     3,
			Description: "Create role_permissions table",
			SQL: fmt.Sprintf(`
				CREATE TABLE IF NOT EXISTS %s.role_permissions (
					role_id UUID NOT NULL REFERENCES %s.roles(id) ON DELETE CASCADE,
					permission_id UUID NOT NULL REFERENCES %s.permissions(id) ON DELETE CASCADE,
					tenant_id VARCHAR(64) NOT NULL,
					UNIQUE(role_id, permission_id)
				);

				CREATE INDEX IF NOT EXISTS idx_role_permissions_role_id ON %s.role_permissions(role_id);
			`, schema, schema, schema, schema),
		},
		{
			Version:     4,
			Description: "Create user_roles table",
			SQL: fmt.Sprintf(`
				CREATE TABLE IF NOT EXISTS %s.user_roles (
					user_id VARCHAR(64) NOT NULL,
					role_id UUID NOT NULL REFERENCES %s.roles(id) ON DELETE CASCADE,
					tenant_id VARCHAR(64) NOT NULL,
					assigned_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
					UNIQUE(user_id, role_id)
				);

				CREATE INDEX IF NOT EXISTS idx_user_roles_user_id ON %s.user_roles(user_id);
				CREATE INDEX IF NOT EXISTS idx_user_roles_role_id ON %s.user_roles(role_id);
			`, schema, schema, schema, schema),
		},
	}
}

// Migrate applies all authorization migrations to one tenant schema,
// creating the schema if needed.
func Migrate(ctx context.Context, db *sql.DB, schema string) error {
	if err := ValidateSchemaName(schema); err != nil {
		return err
	}

	if _, err := db.ExecContext(ctx, fmt.Sprintf(`CREATE SCHEMA IF NOT EXISTS %s`, schema)); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	for _, migration := range Migrations(schema) {
		if _, err := db.ExecContext(ctx, migration.SQL); err != nil {
			return fmt.Errorf("migration %d (%s) failed: %w", migration.Version, migration.Description, err)
		}
	}
	return nil
}
