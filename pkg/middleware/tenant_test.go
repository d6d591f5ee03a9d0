package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTenantContextMiddleware(t *testing.T) {
	var captured *TenantContext
	handler := TenantContextMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured = GetTenantContext(r)
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest("GET", "/authz/roles", nil)
	req.Header.Set(TenantIDHeader, "t1")
	req.Header.Set(TenantSchemaHeader, "tenant_acme")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, captured)
	assert.Equal(t, "t1", captured.TenantID)
	assert.Equal(t, "tenant_acme", captured.SchemaName)
}

func TestTenantContextMiddlewareRejectsMissingHeaders(t *testing.T) {
	handler := TenantContextMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not be reached")
	}))

	tests := []struct {
		name    string
		headers map[string]string
	}{
		{"no headers", nil},
		{"tenant only", map[string]string{TenantIDHeader: "t1"}},
		{"schema only", map[string]string{TenantSchemaHeader: "tenant_acme"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/authz/roles", nil)
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestGetTenantContextAbsent(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)
	assert.Nil(t, GetTenantContext(req))
}
