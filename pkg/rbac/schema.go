package rbac

import (
	"regexp"
)

// Tenant schemas are interpolated into SQL as identifiers, not bound
// parameters, so every public operation re-validates the name against this
// allow-list before building a query.
var schemaNamePattern = regexp.MustCompile(`^tenant_[a-z0-9_]{1,63}$`)

// ValidateSchemaName checks a tenant schema identifier against the
// allow-list pattern. Schema names originate from trusted provisioning
// metadata, but any code path that accepts a schema string must re-validate
// it before interpolation.
func ValidateSchemaName(schema string) error {
	if !schemaNamePattern.MatchString(schema) {
		return &InvalidSchemaNameError{Schema: schema}
	}
	return nil
}
