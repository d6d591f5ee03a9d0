package rbac

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/plexica/authz/pkg/observability"
)

// CacheInvalidator is the cache surface the store drives after commits.
// Implementations are expected to be best-effort: the store logs failures
// and proceeds, because the cache is never the source of truth.
type CacheInvalidator interface {
	// InvalidateUser removes a single user's cached permission set.
	InvalidateUser(ctx context.Context, tenantID, userID string) error
	// InvalidateRole fans out invalidation to every member of a role and
	// clears the role's reverse-index set.
	InvalidateRole(ctx context.Context, tenantID, roleID string) error
	// ScheduleRoleInvalidation coalesces rapid role-definition edits into
	// a single InvalidateRole after a quiet period.
	ScheduleRoleInvalidation(tenantID, roleID string)
	// AddRoleMember records userID in the role's reverse-index set.
	AddRoleMember(ctx context.Context, tenantID, roleID, userID string) error
	// RemoveRoleMember removes userID from the role's reverse-index set.
	RemoveRoleMember(ctx context.Context, tenantID, roleID, userID string) error
}

// NopInvalidator is a CacheInvalidator that does nothing. Used when no
// cache store is configured.
type NopInvalidator struct{}

func (NopInvalidator) InvalidateUser(context.Context, string, string) error { return nil }
func (NopInvalidator) InvalidateRole(context.Context, string, string) error { return nil }
func (NopInvalidator) ScheduleRoleInvalidation(string, string)              {}
func (NopInvalidator) AddRoleMember(context.Context, string, string, string) error {
	return nil
}
func (NopInvalidator) RemoveRoleMember(context.Context, string, string, string) error {
	return nil
}

// Store owns the relational representation of roles, permissions and
// assignments, scoped by (tenantID, schema). Every method validates the
// schema name before it is interpolated as an identifier; all data values
// are bound parameters.
type Store struct {
	db      *sql.DB
	cache   CacheInvalidator
	logger  *observability.Logger
	metrics *observability.Metrics
}

// NewStore creates a role store backed by db. cache may be a
// NopInvalidator when no cache store is configured.
func NewStore(db *sql.DB, cache CacheInvalidator, logger *observability.Logger) *Store {
	if cache == nil {
		cache = NopInvalidator{}
	}
	return &Store{db: db, cache: cache, logger: logger}
}

// WithMetrics attaches query duration metrics to the store.
func (s *Store) WithMetrics(metrics *observability.Metrics) *Store {
	s.metrics = metrics
	return s
}

// observe records the duration of one store operation.
func (s *Store) observe(operation string, start time.Time) {
	if s.metrics == nil {
		return
	}
	s.metrics.StoreQueryDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}

// uniqueViolation is the postgres error code for unique constraint violations.
const uniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}

// CreateRole creates a custom role with its permission set. The custom
// role count and name uniqueness guards run inside the same transaction
// as the insert, serialized per tenant by an advisory lock, so two
// concurrent creates cannot both pass a guard.
func (s *Store) CreateRole(ctx context.Context, tenantID, schema string, input CreateRoleInput) (*RoleWithPermissions, error) {
	defer s.observe("create_role", time.Now())

	if err := ValidateSchemaName(schema); err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	// Serialize role creation per tenant so the count guard below cannot
	// race a concurrent create.
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, tenantID); err != nil {
		return nil, fmt.Errorf("failed to acquire tenant lock: %w", err)
	}

	var customCount int
	countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM %s.roles WHERE tenant_id = $1 AND is_system = FALSE`, schema)
	if err := tx.QueryRowContext(ctx, countQuery, tenantID).Scan(&customCount); err != nil {
		return nil, fmt.Errorf("failed to count custom roles: %w", err)
	}
	if customCount >= MaxCustomRoles {
		return nil, &CustomRoleLimitError{Limit: MaxCustomRoles}
	}

	var nameTaken bool
	nameQuery := fmt.Sprintf(`SELECT EXISTS(SELECT 1 FROM %s.roles WHERE tenant_id = $1 AND name = $2)`, schema)
	if err := tx.QueryRowContext(ctx, nameQuery, tenantID, input.Name).Scan(&nameTaken); err != nil {
		return nil, fmt.Errorf("failed to check role name: %w", err)
	}
	if nameTaken {
		return nil, &RoleNameConflictError{Name: input.Name}
	}

	now := time.Now().UTC()
	role := Role{
		ID:          uuid.NewString(),
		TenantID:    tenantID,
		Name:        input.Name,
		Description: input.Description,
		IsSystem:    false,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	insertQuery := fmt.Sprintf(`
		INSERT INTO %s.roles (id, tenant_id, name, description, is_system, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, schema)
	if _, err := tx.ExecContext(ctx, insertQuery,
		role.ID, role.TenantID, role.Name, role.Description, role.IsSystem, role.CreatedAt, role.UpdatedAt,
	); err != nil {
		if isUniqueViolation(err) {
			return nil, &RoleNameConflictError{Name: input.Name}
		}
		return nil, fmt.Errorf("failed to insert role: %w", err)
	}

	if err := s.insertRolePermissions(ctx, tx, tenantID, schema, role.ID, input.PermissionIDs); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit role creation: %w", err)
	}

	// A new role has no members yet; invalidating keeps the path correct
	// if seeding or imports ever attach members before this returns.
	if err := s.cache.InvalidateRole(ctx, tenantID, role.ID); err != nil {
		s.warnCache(err, tenantID, "role invalidation after create failed")
	}

	permissions, err := s.GetRolePermissions(ctx, tenantID, schema, role.ID)
	if err != nil {
		return nil, err
	}
	return &RoleWithPermissions{Role: role, Permissions: permissions}, nil
}

// ListRoles returns a page of roles matching the filter, system roles
// first then by name, plus the tenant's custom role count for quota
// display. Permission sets are resolved per role; role counts are capped
// at MaxCustomRoles so the extra queries stay bounded.
func (s *Store) ListRoles(ctx context.Context, tenantID, schema string, filter ListRolesFilter) (*RoleList, error) {
	defer s.observe("list_roles", time.Now())

	if err := ValidateSchemaName(schema); err != nil {
		return nil, err
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	limit := filter.Limit
	if limit < 1 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}

	where := "WHERE tenant_id = $1"
	args := []interface{}{tenantID}
	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		where += fmt.Sprintf(" AND name ILIKE $%d", len(args))
	}
	if filter.IsSystem != nil {
		args = append(args, *filter.IsSystem)
		where += fmt.Sprintf(" AND is_system = $%d", len(args))
	}

	var total int
	countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM %s.roles %s`, schema, where)
	if err := s.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("failed to count roles: %w", err)
	}

	var customCount int
	customQuery := fmt.Sprintf(`SELECT COUNT(*) FROM %s.roles WHERE tenant_id = $1 AND is_system = FALSE`, schema)
	if err := s.db.QueryRowContext(ctx, customQuery, tenantID).Scan(&customCount); err != nil {
		return nil, fmt.Errorf("failed to count custom roles: %w", err)
	}

	args = append(args, limit, (page-1)*limit)
	listQuery := fmt.Sprintf(`
		SELECT id, tenant_id, name, description, is_system, created_at, updated_at
		FROM %s.roles %s
		ORDER BY is_system DESC, name ASC
		LIMIT $%d OFFSET $%d
	`, schema, where, len(args)-1, len(args))

	rows, err := s.db.QueryContext(ctx, listQuery, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list roles: %w", err)
	}
	defer rows.Close()

	roles := make([]Role, 0, limit)
	for rows.Next() {
		role, err := scanRole(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan role: %w", err)
		}
		roles = append(roles, *role)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate roles: %w", err)
	}

	data := make([]RoleWithPermissions, 0, len(roles))
	for _, role := range roles {
		permissions, err := s.GetRolePermissions(ctx, tenantID, schema, role.ID)
		if err != nil {
			return nil, err
		}
		data = append(data, RoleWithPermissions{Role: role, Permissions: permissions})
	}

	return &RoleList{
		Data: data,
		Meta: ListMeta{Total: total, Page: page, Limit: limit, CustomRoleCount: customCount},
	}, nil
}

// GetRole retrieves a role with its permission set. Roles belonging to
// another tenant are reported as not found.
func (s *Store) GetRole(ctx context.Context, tenantID, schema, roleID string) (*RoleWithPermissions, error) {
	if err := ValidateSchemaName(schema); err != nil {
		return nil, err
	}
	role, err := s.loadRole(ctx, tenantID, schema, roleID)
	if err != nil {
		return nil, err
	}
	permissions, err := s.GetRolePermissions(ctx, tenantID, schema, roleID)
	if err != nil {
		return nil, err
	}
	return &RoleWithPermissions{Role: *role, Permissions: permissions}, nil
}

// UpdateRole updates a custom role's scalar fields and, when
// PermissionIDs is present, replaces its entire permission set. The cache
// invalidation is debounced: role edits arrive in bursts from the editor
// UI and every member's cached set is affected.
func (s *Store) UpdateRole(ctx context.Context, tenantID, schema, roleID string, input UpdateRoleInput) (*RoleWithPermissions, error) {
	defer s.observe("update_role", time.Now())

	if err := ValidateSchemaName(schema); err != nil {
		return nil, err
	}

	role, err := s.loadRole(ctx, tenantID, schema, roleID)
	if err != nil {
		return nil, err
	}
	if role.IsSystem {
		return nil, &SystemRoleImmutableError{RoleName: role.Name}
	}

	if input.Name != nil && *input.Name != role.Name {
		var nameTaken bool
		nameQuery := fmt.Sprintf(`SELECT EXISTS(SELECT 1 FROM %s.roles WHERE tenant_id = $1 AND name = $2 AND id <> $3)`, schema)
		if err := s.db.QueryRowContext(ctx, nameQuery, tenantID, *input.Name, roleID).Scan(&nameTaken); err != nil {
			return nil, fmt.Errorf("failed to check role name: %w", err)
		}
		if nameTaken {
			return nil, &RoleNameConflictError{Name: *input.Name}
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if input.Name != nil {
		role.Name = *input.Name
	}
	if input.Description != nil {
		role.Description = *input.Description
	}
	role.UpdatedAt = time.Now().UTC()

	updateQuery := fmt.Sprintf(`
		UPDATE %s.roles SET name = $1, description = $2, updated_at = $3
		WHERE id = $4 AND tenant_id = $5
	`, schema)
	if _, err := tx.ExecContext(ctx, updateQuery,
		role.Name, role.Description, role.UpdatedAt, roleID, tenantID,
	); err != nil {
		if isUniqueViolation(err) {
			return nil, &RoleNameConflictError{Name: role.Name}
		}
		return nil, fmt.Errorf("failed to update role: %w", err)
	}

	if input.PermissionIDs != nil {
		// Replace the whole set instead of diffing; the set is small and
		// a delete-then-insert cannot leave partial state inside the tx.
		deleteQuery := fmt.Sprintf(`DELETE FROM %s.role_permissions WHERE role_id = $1 AND tenant_id = $2`, schema)
		if _, err := tx.ExecContext(ctx, deleteQuery, roleID, tenantID); err != nil {
			return nil, fmt.Errorf("failed to clear role permissions: %w", err)
		}
		if err := s.insertRolePermissions(ctx, tx, tenantID, schema, roleID, input.PermissionIDs); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit role update: %w", err)
	}

	s.cache.ScheduleRoleInvalidation(tenantID, roleID)

	permissions, err := s.GetRolePermissions(ctx, tenantID, schema, roleID)
	if err != nil {
		return nil, err
	}
	return &RoleWithPermissions{Role: *role, Permissions: permissions}, nil
}

// DeleteRole deletes a custom role. Member cache entries are invalidated
// before the row is removed: the reverse index that makes the fan-out
// possible would otherwise be cleared against a role whose assignments
// the FK cascade already destroyed.
func (s *Store) DeleteRole(ctx context.Context, tenantID, schema, roleID string) error {
	defer s.observe("delete_role", time.Now())

	if err := ValidateSchemaName(schema); err != nil {
		return err
	}

	role, err := s.loadRole(ctx, tenantID, schema, roleID)
	if err != nil {
		return err
	}
	if role.IsSystem {
		return &SystemRoleImmutableError{RoleName: role.Name}
	}

	if err := s.cache.InvalidateRole(ctx, tenantID, roleID); err != nil {
		s.warnCache(err, tenantID, "role invalidation before delete failed")
	}

	deleteQuery := fmt.Sprintf(`DELETE FROM %s.roles WHERE id = $1 AND tenant_id = $2`, schema)
	if _, err := s.db.ExecContext(ctx, deleteQuery, roleID, tenantID); err != nil {
		return fmt.Errorf("failed to delete role: %w", err)
	}
	return nil
}

// AssignRoleToUser idempotently assigns a role to a user, maintains the
// reverse index and invalidates only that user's cached permission set.
// Invalidation is immediate: the user may act on the new permissions
// right away.
func (s *Store) AssignRoleToUser(ctx context.Context, tenantID, schema, userID, roleID string) error {
	defer s.observe("assign_role", time.Now())

	if err := ValidateSchemaName(schema); err != nil {
		return err
	}

	if _, err := s.loadRole(ctx, tenantID, schema, roleID); err != nil {
		return err
	}

	insertQuery := fmt.Sprintf(`
		INSERT INTO %s.user_roles (user_id, role_id, tenant_id, assigned_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id, role_id) DO NOTHING
	`, schema)
	if _, err := s.db.ExecContext(ctx, insertQuery, userID, roleID, tenantID, time.Now().UTC()); err != nil {
		return fmt.Errorf("failed to assign role: %w", err)
	}

	if err := s.cache.AddRoleMember(ctx, tenantID, roleID, userID); err != nil {
		s.warnCache(err, tenantID, "reverse index update failed")
	}
	if err := s.cache.InvalidateUser(ctx, tenantID, userID); err != nil {
		s.warnCache(err, tenantID, "user invalidation after assign failed")
	}
	return nil
}

// RemoveRoleFromUser removes a role assignment, maintains the reverse
// index and invalidates the user's cached permission set.
func (s *Store) RemoveRoleFromUser(ctx context.Context, tenantID, schema, userID, roleID string) error {
	defer s.observe("remove_role", time.Now())

	if err := ValidateSchemaName(schema); err != nil {
		return err
	}

	deleteQuery := fmt.Sprintf(`DELETE FROM %s.user_roles WHERE user_id = $1 AND role_id = $2 AND tenant_id = $3`, schema)
	if _, err := s.db.ExecContext(ctx, deleteQuery, userID, roleID, tenantID); err != nil {
		return fmt.Errorf("failed to remove role assignment: %w", err)
	}

	if err := s.cache.RemoveRoleMember(ctx, tenantID, roleID, userID); err != nil {
		s.warnCache(err, tenantID, "reverse index update failed")
	}
	if err := s.cache.InvalidateUser(ctx, tenantID, userID); err != nil {
		s.warnCache(err, tenantID, "user invalidation after remove failed")
	}
	return nil
}

// GetUserRoles returns the roles assigned to a user, ordered by name.
func (s *Store) GetUserRoles(ctx context.Context, tenantID, schema, userID string) ([]Role, error) {
	if err := ValidateSchemaName(schema); err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`
		SELECT r.id, r.tenant_id, r.name, r.description, r.is_system, r.created_at, r.updated_at
		FROM %s.user_roles ur
		JOIN %s.roles r ON r.id = ur.role_id
		WHERE ur.user_id = $1 AND ur.tenant_id = $2
		ORDER BY r.name ASC
	`, schema, schema)

	rows, err := s.db.QueryContext(ctx, query, userID, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user roles: %w", err)
	}
	defer rows.Close()

	roles := make([]Role, 0)
	for rows.Next() {
		role, err := scanRole(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan role: %w", err)
		}
		roles = append(roles, *role)
	}
	return roles, rows.Err()
}

// GetUserPermissions runs the authoritative three-way join and returns
// the distinct permission keys a user holds plus the ids of the roles
// that contributed them. The role ids let a cache fill also update the
// reverse index for each contributing role.
func (s *Store) GetUserPermissions(ctx context.Context, tenantID, schema, userID string) (*UserPermissions, error) {
	defer s.observe("get_user_permissions", time.Now())

	if err := ValidateSchemaName(schema); err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`
		SELECT DISTINCT p.key, ur.role_id
		FROM %s.user_roles ur
		JOIN %s.role_permissions rp ON rp.role_id = ur.role_id
		JOIN %s.permissions p ON p.id = rp.permission_id
		WHERE ur.user_id = $1 AND ur.tenant_id = $2
	`, schema, schema, schema)

	rows, err := s.db.QueryContext(ctx, query, userID, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user permissions: %w", err)
	}
	defer rows.Close()

	keySet := make(map[string]struct{})
	roleSet := make(map[string]struct{})
	for rows.Next() {
		var key, roleID string
		if err := rows.Scan(&key, &roleID); err != nil {
			return nil, fmt.Errorf("failed to scan user permission: %w", err)
		}
		keySet[key] = struct{}{}
		roleSet[roleID] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate user permissions: %w", err)
	}

	result := &UserPermissions{
		PermissionKeys: make([]string, 0, len(keySet)),
		RoleIDs:        make([]string, 0, len(roleSet)),
	}
	for key := range keySet {
		result.PermissionKeys = append(result.PermissionKeys, key)
	}
	for roleID := range roleSet {
		result.RoleIDs = append(result.RoleIDs, roleID)
	}
	sort.Strings(result.PermissionKeys)
	sort.Strings(result.RoleIDs)
	return result, nil
}

// GetRolePermissions returns a role's permissions ordered by key.
func (s *Store) GetRolePermissions(ctx context.Context, tenantID, schema, roleID string) ([]Permission, error) {
	if err := ValidateSchemaName(schema); err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`
		SELECT p.id, p.tenant_id, p.key, p.name, p.description, p.plugin_id, p.created_at
		FROM %s.role_permissions rp
		JOIN %s.permissions p ON p.id = rp.permission_id
		WHERE rp.role_id = $1 AND rp.tenant_id = $2
		ORDER BY p.key ASC
	`, schema, schema)

	rows, err := s.db.QueryContext(ctx, query, roleID, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to get role permissions: %w", err)
	}
	defer rows.Close()

	permissions := make([]Permission, 0)
	for rows.Next() {
		perm, err := scanPermission(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan permission: %w", err)
		}
		permissions = append(permissions, *perm)
	}
	return permissions, rows.Err()
}

// GetUserRoleRecords returns the raw assignment rows for a user.
func (s *Store) GetUserRoleRecords(ctx context.Context, tenantID, schema, userID string) ([]UserRole, error) {
	if err := ValidateSchemaName(schema); err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`
		SELECT user_id, role_id, tenant_id, assigned_at
		FROM %s.user_roles
		WHERE user_id = $1 AND tenant_id = $2
		ORDER BY assigned_at ASC
	`, schema)

	rows, err := s.db.QueryContext(ctx, query, userID, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user role records: %w", err)
	}
	defer rows.Close()

	records := make([]UserRole, 0)
	for rows.Next() {
		var ur UserRole
		if err := rows.Scan(&ur.UserID, &ur.RoleID, &ur.TenantID, &ur.AssignedAt); err != nil {
			return nil, fmt.Errorf("failed to scan user role record: %w", err)
		}
		records = append(records, ur)
	}
	return records, rows.Err()
}

// ListPermissions returns every permission registered for the tenant,
// ordered by key. Used by the role editor surface.
func (s *Store) ListPermissions(ctx context.Context, tenantID, schema string) ([]Permission, error) {
	if err := ValidateSchemaName(schema); err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`
		SELECT id, tenant_id, key, name, description, plugin_id, created_at
		FROM %s.permissions
		WHERE tenant_id = $1
		ORDER BY key ASC
	`, schema)

	rows, err := s.db.QueryContext(ctx, query, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to list permissions: %w", err)
	}
	defer rows.Close()

	permissions := make([]Permission, 0)
	for rows.Next() {
		perm, err := scanPermission(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan permission: %w", err)
		}
		permissions = append(permissions, *perm)
	}
	return permissions, rows.Err()
}

// loadRole fetches a role row scoped to the tenant.
func (s *Store) loadRole(ctx context.Context, tenantID, schema, roleID string) (*Role, error) {
	query := fmt.Sprintf(`
		SELECT id, tenant_id, name, description, is_system, created_at, updated_at
		FROM %s.roles
		WHERE id = $1 AND tenant_id = $2
	`, schema)

	role, err := scanRole(s.db.QueryRowContext(ctx, query, roleID, tenantID))
	if err == sql.ErrNoRows {
		return nil, &RoleNotFoundError{RoleID: roleID}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get role: %w", err)
	}
	return role, nil
}

// insertRolePermissions inserts role-permission links idempotently.
func (s *Store) insertRolePermissions(ctx context.Context, tx *sql.Tx, tenantID, schema, roleID string, permissionIDs []string) error {
	if len(permissionIDs) == 0 {
		return nil
	}
	query := fmt.Sprintf(`
		INSERT INTO %s.role_permissions (role_id, permission_id, tenant_id)
		VALUES ($1, $2, $3)
		ON CONFLICT (role_id, permission_id) DO NOTHING
	`, schema)
	for _, permissionID := range permissionIDs {
		if _, err := tx.ExecContext(ctx, query, roleID, permissionID, tenantID); err != nil {
			return fmt.Errorf("failed to link permission %s: %w", permissionID, err)
		}
	}
	return nil
}

func (s *Store) warnCache(err error, tenantID, message string) {
	if s.logger == nil {
		return
	}
	s.logger.WithError(err).WithField("tenant_id", tenantID).Warn(message)
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRole(scanner rowScanner) (*Role, error) {
	var role Role
	var description sql.NullString
	err := scanner.Scan(
		&role.ID,
		&role.TenantID,
		&role.Name,
		&description,
		&role.IsSystem,
		&role.CreatedAt,
		&role.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	role.Description = description.String
	return &role, nil
}

func scanPermission(scanner rowScanner) (*Permission, error) {
	var perm Permission
	var description sql.NullString
	var pluginID sql.NullString
	err := scanner.Scan(
		&perm.ID,
		&perm.TenantID,
		&perm.Key,
		&perm.Name,
		&description,
		&pluginID,
		&perm.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	perm.Description = description.String
	if pluginID.Valid {
		pid := pluginID.String
		perm.PluginID = &pid
	}
	return &perm, nil
}
