package rbac

import (
	"errors"
	"fmt"
)

// InvalidSchemaNameError indicates a tenant schema identifier failed the
// allow-list check. This is always a programming or configuration error,
// never user input.
type InvalidSchemaNameError struct {
	Schema string
}

func (e *InvalidSchemaNameError) Error() string {
	return fmt.Sprintf("invalid tenant schema name: %q", e.Schema)
}

// IsInvalidSchemaName checks if an error is an invalid schema name error.
func IsInvalidSchemaName(err error) bool {
	var target *InvalidSchemaNameError
	return errors.As(err, &target)
}

// SystemRoleImmutableError indicates an update or delete was attempted on
// a system role.
type SystemRoleImmutableError struct {
	RoleName string
}

func (e *SystemRoleImmutableError) Error() string {
	return fmt.Sprintf("system role %q cannot be modified or deleted", e.RoleName)
}

// IsSystemRoleImmutable checks if an error is a system role immutability error.
func IsSystemRoleImmutable(err error) bool {
	var target *SystemRoleImmutableError
	return errors.As(err, &target)
}

// CustomRoleLimitError indicates the tenant already holds the maximum
// number of custom roles.
type CustomRoleLimitError struct {
	Limit int
}

func (e *CustomRoleLimitError) Error() string {
	return fmt.Sprintf("custom role limit of %d reached", e.Limit)
}

// IsCustomRoleLimit checks if an error is a custom role limit error.
func IsCustomRoleLimit(err error) bool {
	var target *CustomRoleLimitError
	return errors.As(err, &target)
}

// RoleNameConflictError indicates a role with the same name already
// exists within the tenant.
type RoleNameConflictError struct {
	Name string
}

func (e *RoleNameConflictError) Error() string {
	return fmt.Sprintf("role name %q already exists", e.Name)
}

// IsRoleNameConflict checks if an error is a role name conflict error.
func IsRoleNameConflict(err error) bool {
	var target *RoleNameConflictError
	return errors.As(err, &target)
}

// RoleNotFoundError indicates a role is absent or belongs to another tenant.
type RoleNotFoundError struct {
	RoleID string
}

func (e *RoleNotFoundError) Error() string {
	return fmt.Sprintf("role not found: %s", e.RoleID)
}

// IsRoleNotFound checks if an error is a role not found error.
func IsRoleNotFound(err error) bool {
	var target *RoleNotFoundError
	return errors.As(err, &target)
}
