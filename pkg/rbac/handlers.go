package rbac

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/plexica/authz/pkg/middleware"
	"github.com/plexica/authz/pkg/observability"
)

// RoleService is the store surface the HTTP boundary consumes.
// *Store satisfies it.
type RoleService interface {
	CreateRole(ctx context.Context, tenantID, schema string, input CreateRoleInput) (*RoleWithPermissions, error)
	ListRoles(ctx context.Context, tenantID, schema string, filter ListRolesFilter) (*RoleList, error)
	GetRole(ctx context.Context, tenantID, schema, roleID string) (*RoleWithPermissions, error)
	UpdateRole(ctx context.Context, tenantID, schema, roleID string, input UpdateRoleInput) (*RoleWithPermissions, error)
	DeleteRole(ctx context.Context, tenantID, schema, roleID string) error
	AssignRoleToUser(ctx context.Context, tenantID, schema, userID, roleID string) error
	RemoveRoleFromUser(ctx context.Context, tenantID, schema, userID, roleID string) error
	GetUserRoles(ctx context.Context, tenantID, schema, userID string) ([]Role, error)
	GetUserRoleRecords(ctx context.Context, tenantID, schema, userID string) ([]UserRole, error)
	ListPermissions(ctx context.Context, tenantID, schema string) ([]Permission, error)
}

// Handlers provides the HTTP surface for role and assignment operations.
type Handlers struct {
	service  RoleService
	resolver *Resolver
	logger   *observability.Logger
}

// NewHandlers creates the authorization HTTP handlers.
func NewHandlers(service RoleService, resolver *Resolver, logger *observability.Logger) *Handlers {
	return &Handlers{service: service, resolver: resolver, logger: logger}
}

// RegisterRoutes registers all authorization routes.
func (h *Handlers) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/authz/roles", h.CreateRole).Methods("POST")
	router.HandleFunc("/authz/roles", h.ListRoles).Methods("GET")
	router.HandleFunc("/authz/roles/{id}", h.GetRole).Methods("GET")
	router.HandleFunc("/authz/roles/{id}", h.UpdateRole).Methods("PUT")
	router.HandleFunc("/authz/roles/{id}", h.DeleteRole).Methods("DELETE")

	router.HandleFunc("/authz/users/{id}/roles", h.GetUserRoles).Methods("GET")
	router.HandleFunc("/authz/users/{id}/roles/{role_id}", h.AssignRole).Methods("POST")
	router.HandleFunc("/authz/users/{id}/roles/{role_id}", h.RemoveRole).Methods("DELETE")
	router.HandleFunc("/authz/users/{id}/role-records", h.GetUserRoleRecords).Methods("GET")
	router.HandleFunc("/authz/users/{id}/permissions", h.GetUserPermissions).Methods("GET")

	router.HandleFunc("/authz/permissions", h.ListPermissions).Methods("GET")
}

// CreateRole creates a custom role.
func (h *Handlers) CreateRole(w http.ResponseWriter, r *http.Request) {
	tc := middleware.GetTenantContext(r)
	if tc == nil {
		writeErrorCode(w, http.StatusBadRequest, "missing_tenant", "Missing tenant context")
		return
	}

	var input CreateRoleInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeErrorCode(w, http.StatusBadRequest, "invalid_body", "Invalid request body")
		return
	}
	if input.Name == "" {
		writeErrorCode(w, http.StatusBadRequest, "invalid_body", "Role name is required")
		return
	}

	role, err := h.service.CreateRole(r.Context(), tc.TenantID, tc.SchemaName, input)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, role)
}

// ListRoles lists roles with optional search and is_system filters.
func (h *Handlers) ListRoles(w http.ResponseWriter, r *http.Request) {
	tc := middleware.GetTenantContext(r)
	if tc == nil {
		writeErrorCode(w, http.StatusBadRequest, "missing_tenant", "Missing tenant context")
		return
	}

	filter := ListRolesFilter{Search: r.URL.Query().Get("search")}
	if v := r.URL.Query().Get("is_system"); v != "" {
		isSystem, err := strconv.ParseBool(v)
		if err != nil {
			writeErrorCode(w, http.StatusBadRequest, "invalid_filter", "is_system must be a boolean")
			return
		}
		filter.IsSystem = &isSystem
	}
	filter.Page, _ = strconv.Atoi(r.URL.Query().Get("page"))
	filter.Limit, _ = strconv.Atoi(r.URL.Query().Get("limit"))

	list, err := h.service.ListRoles(r.Context(), tc.TenantID, tc.SchemaName, filter)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// GetRole retrieves a single role with its permissions.
func (h *Handlers) GetRole(w http.ResponseWriter, r *http.Request) {
	tc := middleware.GetTenantContext(r)
	if tc == nil {
		writeErrorCode(w, http.StatusBadRequest, "missing_tenant", "Missing tenant context")
		return
	}

	role, err := h.service.GetRole(r.Context(), tc.TenantID, tc.SchemaName, mux.Vars(r)["id"])
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, role)
}

// UpdateRole updates a custom role.
func (h *Handlers) UpdateRole(w http.ResponseWriter, r *http.Request) {
	tc := middleware.GetTenantContext(r)
	if tc == nil {
		writeErrorCode(w, http.StatusBadRequest, "missing_tenant", "Missing tenant context")
		return
	}

	var input UpdateRoleInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeErrorCode(w, http.StatusBadRequest, "invalid_body", "Invalid request body")
		return
	}

	role, err := h.service.UpdateRole(r.Context(), tc.TenantID, tc.SchemaName, mux.Vars(r)["id"], input)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, role)
}

// DeleteRole deletes a custom role.
func (h *Handlers) DeleteRole(w http.ResponseWriter, r *http.Request) {
	tc := middleware.GetTenantContext(r)
	if tc == nil {
		writeErrorCode(w, http.StatusBadRequest, "missing_tenant", "Missing tenant context")
		return
	}

	if err := h.service.DeleteRole(r.Context(), tc.TenantID, tc.SchemaName, mux.Vars(r)["id"]); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// AssignRole assigns a role to a user.
func (h *Handlers) AssignRole(w http.ResponseWriter, r *http.Request) {
	tc := middleware.GetTenantContext(r)
	if tc == nil {
		writeErrorCode(w, http.StatusBadRequest, "missing_tenant", "Missing tenant context")
		return
	}

	vars := mux.Vars(r)
	if err := h.service.AssignRoleToUser(r.Context(), tc.TenantID, tc.SchemaName, vars["id"], vars["role_id"]); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// RemoveRole removes a role assignment from a user.
func (h *Handlers) RemoveRole(w http.ResponseWriter, r *http.Request) {
	tc := middleware.GetTenantContext(r)
	if tc == nil {
		writeErrorCode(w, http.StatusBadRequest, "missing_tenant", "Missing tenant context")
		return
	}

	vars := mux.Vars(r)
	if err := h.service.RemoveRoleFromUser(r.Context(), tc.TenantID, tc.SchemaName, vars["id"], vars["role_id"]); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetUserRoles returns the roles assigned to a user.
func (h *Handlers) GetUserRoles(w http.ResponseWriter, r *http.Request) {
	tc := middleware.GetTenantContext(r)
	if tc == nil {
		writeErrorCode(w, http.StatusBadRequest, "missing_tenant", "Missing tenant context")
		return
	}

	roles, err := h.service.GetUserRoles(r.Context(), tc.TenantID, tc.SchemaName, mux.Vars(r)["id"])
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"data": roles})
}

// GetUserRoleRecords returns the raw assignment rows for a user.
func (h *Handlers) GetUserRoleRecords(w http.ResponseWriter, r *http.Request) {
	tc := middleware.GetTenantContext(r)
	if tc == nil {
		writeErrorCode(w, http.StatusBadRequest, "missing_tenant", "Missing tenant context")
		return
	}

	records, err := h.service.GetUserRoleRecords(r.Context(), tc.TenantID, tc.SchemaName, mux.Vars(r)["id"])
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"data": records})
}

// GetUserPermissions resolves a user's effective permission set through
// the cache.
func (h *Handlers) GetUserPermissions(w http.ResponseWriter, r *http.Request) {
	tc := middleware.GetTenantContext(r)
	if tc == nil {
		writeErrorCode(w, http.StatusBadRequest, "missing_tenant", "Missing tenant context")
		return
	}

	keys, err := h.resolver.EffectivePermissions(r.Context(), tc.TenantID, tc.SchemaName, mux.Vars(r)["id"])
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"permission_keys": keys})
}

// ListPermissions returns the tenant's permission catalog.
func (h *Handlers) ListPermissions(w http.ResponseWriter, r *http.Request) {
	tc := middleware.GetTenantContext(r)
	if tc == nil {
		writeErrorCode(w, http.StatusBadRequest, "missing_tenant", "Missing tenant context")
		return
	}

	permissions, err := h.service.ListPermissions(r.Context(), tc.TenantID, tc.SchemaName)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"data": permissions})
}

// writeError maps domain error kinds to stable codes and HTTP statuses.
// Raw store errors are never surfaced.
func (h *Handlers) writeError(w http.ResponseWriter, err error) {
	switch {
	case IsRoleNotFound(err):
		writeErrorCode(w, http.StatusNotFound, "role_not_found", err.Error())
	case IsRoleNameConflict(err):
		writeErrorCode(w, http.StatusConflict, "role_name_conflict", err.Error())
	case IsCustomRoleLimit(err):
		writeErrorCode(w, http.StatusConflict, "custom_role_limit_exceeded", err.Error())
	case IsSystemRoleImmutable(err):
		writeErrorCode(w, http.StatusForbidden, "system_role_immutable", err.Error())
	default:
		if h.logger != nil {
			h.logger.WithError(err).Error("authorization operation failed")
		}
		writeErrorCode(w, http.StatusInternalServerError, "internal_error", "Internal server error")
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErrorCode(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]string{"error": code, "message": message})
}
