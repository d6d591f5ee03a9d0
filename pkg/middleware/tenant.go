package middleware

import (
	"context"
	"net/http"
)

// Tenant context is injected by the platform gateway; these headers carry
// trusted provisioning metadata, re-validated downstream before use.
const (
	TenantIDHeader     = "X-Plexica-Tenant"
	TenantSchemaHeader = "X-Plexica-Schema"
)

// TenantContext identifies the tenant a request operates on.
type TenantContext struct {
	TenantID   string
	SchemaName string
}

type tenantContextKey struct{}

// TenantContextMiddleware extracts the tenant identity headers and adds
// them to the request context. Requests without tenant identity are
// rejected before they reach any handler.
func TenantContextMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tenantID := r.Header.Get(TenantIDHeader)
		schema := r.Header.Get(TenantSchemaHeader)
		if tenantID == "" || schema == "" {
			http.Error(w, "Missing tenant context", http.StatusBadRequest)
			return
		}
		ctx := WithTenantContext(r.Context(), &TenantContext{TenantID: tenantID, SchemaName: schema})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// WithTenantContext returns a context carrying the tenant identity.
func WithTenantContext(ctx context.Context, tc *TenantContext) context.Context {
	return context.WithValue(ctx, tenantContextKey{}, tc)
}

// GetTenantContext retrieves the tenant identity from the request, or nil.
func GetTenantContext(r *http.Request) *TenantContext {
	tc, _ := r.Context().Value(tenantContextKey{}).(*TenantContext)
	return tc
}
