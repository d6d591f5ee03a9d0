// Package middleware provides the HTTP cross-cutting concerns of the
// authorization service: tenant context extraction from gateway headers
// and the per-tenant sliding-window limiter over authorization mutations.
package middleware
