// Package config loads the authorization service configuration from
// AUTHZ_* environment variables, with an optional YAML file overlay for
// deployments that ship config as a mounted file.
package config
