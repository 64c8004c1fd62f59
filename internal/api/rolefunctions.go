package api

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/orbitos/operations/internal/domain"
	"github.com/orbitos/operations/internal/identity"
)

// RoleFunctionHandler handles roles, functions and their shared assignment
// relation. Both editing surfaces mutate the same join record, so the
// relation is symmetric by construction.
type RoleFunctionHandler struct {
	*Handler
}

// NewRoleFunctionHandler creates a new role/function handler.
func NewRoleFunctionHandler(base *Handler) *RoleFunctionHandler {
	return &RoleFunctionHandler{Handler: base}
}

// RegisterRoutes registers role and function routes on an org-scoped router.
func (h *RoleFunctionHandler) RegisterRoutes(r chi.Router) {
	r.Route("/roles", func(r chi.Router) {
		r.Get("/", h.ListRoles)
		r.Post("/", h.CreateRole)
		r.Get("/{roleID}", h.GetRole)
		r.Put("/{roleID}", h.UpdateRole)
		r.Delete("/{roleID}", h.DeleteRole)
		r.Get("/{roleID}/functions", h.ListRoleFunctions)
		r.Get("/{roleID}/functions/available", h.AvailableFunctions)
		r.Post("/{roleID}/functions/{functionID}", h.AssignFromRole)
		r.Delete("/{roleID}/functions/{functionID}", h.UnassignFromRole)
	})
	r.Route("/functions", func(r chi.Router) {
		r.Get("/", h.ListFunctions)
		r.Post("/", h.CreateFunction)
		r.Get("/{functionID}", h.GetFunction)
		r.Put("/{functionID}", h.UpdateFunction)
		r.Delete("/{functionID}", h.DeleteFunction)
		r.Get("/{functionID}/roles", h.ListFunctionRoles)
		r.Get("/{functionID}/roles/available", h.AvailableRoles)
		r.Post("/{functionID}/roles/{roleID}", h.AssignFromFunction)
		r.Delete("/{functionID}/roles/{roleID}", h.UnassignFromFunction)
	})
}

type roleRequest struct {
	Title   string `json:"title"`
	Purpose string `json:"purpose"`
}

type functionRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// ListRoles returns the organization's roles.
func (h *RoleFunctionHandler) ListRoles(w http.ResponseWriter, r *http.Request) {
	org := identity.OrgFromContext(r.Context())
	roles, err := h.repo.ListRoles(r.Context(), org.ID)
	if err != nil {
		slog.Error("Failed to list roles", "error", err, "org_id", org.ID)
		Error(w, http.StatusInternalServerError, "internal error")
		return
	}
	if roles == nil {
		roles = []*domain.Role{}
	}
	JSON(w, http.StatusOK, roles)
}

// CreateRole adds a role. Titles are unique within the organization.
func (h *RoleFunctionHandler) CreateRole(w http.ResponseWriter, r *http.Request) {
	org := identity.OrgFromContext(r.Context())

	var req roleRequest
	if !decode(w, r, &req) {
		return
	}
	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		Error(w, http.StatusBadRequest, "title is required")
		return
	}

	now := time.Now()
	role := &domain.Role{
		ID:        uuid.NewString(),
		OrgID:     org.ID,
		Title:     req.Title,
		Purpose:   req.Purpose,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := h.repo.CreateRole(r.Context(), role); err != nil {
		storeError(w, err, "a role with this title already exists")
		return
	}

	h.publish(org.ID, "role", role.ID, "created")
	JSON(w, http.StatusCreated, role)
}

// GetRole returns one role.
func (h *RoleFunctionHandler) GetRole(w http.ResponseWriter, r *http.Request) {
	org := identity.OrgFromContext(r.Context())
	role, err := h.repo.GetRole(r.Context(), org.ID, chi.URLParam(r, "roleID"))
	if err != nil {
		slog.Error("Failed to get role", "error", err, "org_id", org.ID)
		Error(w, http.StatusInternalServerError, "internal error")
		return
	}
	if role == nil {
		Error(w, http.StatusNotFound, "role not found")
		return
	}
	JSON(w, http.StatusOK, role)
}

// UpdateRole edits a role.
func (h *RoleFunctionHandler) UpdateRole(w http.ResponseWriter, r *http.Request) {
	org := identity.OrgFromContext(r.Context())

	role, err := h.repo.GetRole(r.Context(), org.ID, chi.URLParam(r, "roleID"))
	if err != nil {
		slog.Error("Failed to get role for update", "error", err, "org_id", org.ID)
		Error(w, http.StatusInternalServerError, "internal error")
		return
	}
	if role == nil {
		Error(w, http.StatusNotFound, "role not found")
		return
	}

	var req roleRequest
	if !decode(w, r, &req) {
		return
	}
	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		Error(w, http.StatusBadRequest, "title is required")
		return
	}

	role.Title = req.Title
	role.Purpose = req.Purpose
	role.UpdatedAt = time.Now()
	if err := h.repo.UpdateRole(r.Context(), role); err != nil {
		storeError(w, err, "a role with this title already exists")
		return
	}

	h.publish(org.ID, "role", role.ID, "updated")
	JSON(w, http.StatusOK, role)
}

// DeleteRole removes a role and its assignments.
func (h *RoleFunctionHandler) DeleteRole(w http.ResponseWriter, r *http.Request) {
	org := identity.OrgFromContext(r.Context())
	id := chi.URLParam(r, "roleID")

	if err := h.repo.DeleteRole(r.Context(), org.ID, id); err != nil {
		storeError(w, err, "")
		return
	}

	h.publish(org.ID, "role", id, "deleted")
	w.WriteHeader(http.StatusNoContent)
}

// ListFunctions returns the organization's functions.
func (h *RoleFunctionHandler) ListFunctions(w http.ResponseWriter, r *http.Request) {
	org := identity.OrgFromContext(r.Context())
	fns, err := h.repo.ListFunctions(r.Context(), org.ID)
	if err != nil {
		slog.Error("Failed to list functions", "error", err, "org_id", org.ID)
		Error(w, http.StatusInternalServerError, "internal error")
		return
	}
	if fns == nil {
		fns = []*domain.Function{}
	}
	JSON(w, http.StatusOK, fns)
}

// CreateFunction adds a function. Names are unique within the organization.
func (h *RoleFunctionHandler) CreateFunction(w http.ResponseWriter, r *http.Request) {
	org := identity.OrgFromContext(r.Context())

	var req functionRequest
	if !decode(w, r, &req) {
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		Error(w, http.StatusBadRequest, "name is required")
		return
	}

	now := time.Now()
	fn := &domain.Function{
		ID:          uuid.NewString(),
		OrgID:       org.ID,
		Name:        req.Name,
		Description: req.Description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := h.repo.CreateFunction(r.Context(), fn); err != nil {
		storeError(w, err, "a function with this name already exists")
		return
	}

	h.publish(org.ID, "function", fn.ID, "created")
	JSON(w, http.StatusCreated, fn)
}

// GetFunction returns one function.
func (h *RoleFunctionHandler) GetFunction(w http.ResponseWriter, r *http.Request) {
	org := identity.OrgFromContext(r.Context())
	fn, err := h.repo.GetFunction(r.Context(), org.ID, chi.URLParam(r, "functionID"))
	if err != nil {
		slog.Error("Failed to get function", "error", err, "org_id", org.ID)
		Error(w, http.StatusInternalServerError, "internal error")
		return
	}
	if fn == nil {
		Error(w, http.StatusNotFound, "function not found")
		return
	}
	JSON(w, http.StatusOK, fn)
}

// UpdateFunction edits a function.
func (h *RoleFunctionHandler) UpdateFunction(w http.ResponseWriter, r *http.Request) {
	org := identity.OrgFromContext(r.Context())

	fn, err := h.repo.GetFunction(r.Context(), org.ID, chi.URLParam(r, "functionID"))
	if err != nil {
		slog.Error("Failed to get function for update", "error", err, "org_id", org.ID)
		Error(w, http.StatusInternalServerError, "internal error")
		return
	}
	if fn == nil {
		Error(w, http.StatusNotFound, "function not found")
		return
	}

	var req functionRequest
	if !decode(w, r, &req) {
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		Error(w, http.StatusBadRequest, "name is required")
		return
	}

	fn.Name = req.Name
	fn.Description = req.Description
	fn.UpdatedAt = time.Now()
	if err := h.repo.UpdateFunction(r.Context(), fn); err != nil {
		storeError(w, err, "a function with this name already exists")
		return
	}

	h.publish(org.ID, "function", fn.ID, "updated")
	JSON(w, http.StatusOK, fn)
}

// DeleteFunction removes a function and its assignments.
func (h *RoleFunctionHandler) DeleteFunction(w http.ResponseWriter, r *http.Request) {
	org := identity.OrgFromContext(r.Context())
	id := chi.URLParam(r, "functionID")

	if err := h.repo.DeleteFunction(r.Context(), org.ID, id); err != nil {
		storeError(w, err, "")
		return
	}

	h.publish(org.ID, "function", id, "deleted")
	w.WriteHeader(http.StatusNoContent)
}

// ListRoleFunctions returns the functions assigned to a role.
func (h *RoleFunctionHandler) ListRoleFunctions(w http.ResponseWriter, r *http.Request) {
	org := identity.OrgFromContext(r.Context())
	role, ok := h.resolveRole(w, r, chi.URLParam(r, "roleID"))
	if !ok {
		return
	}

	fns, err := h.repo.ListRoleFunctions(r.Context(), role.ID)
	if err != nil {
		slog.Error("Failed to list role functions", "error", err, "org_id", org.ID)
		Error(w, http.StatusInternalServerError, "internal error")
		return
	}
	if fns == nil {
		fns = []*domain.Function{}
	}
	JSON(w, http.StatusOK, fns)
}

// AvailableFunctions returns functions not yet assigned to the role,
// optionally filtered by a ?q= name search.
func (h *RoleFunctionHandler) AvailableFunctions(w http.ResponseWriter, r *http.Request) {
	org := identity.OrgFromContext(r.Context())
	role, ok := h.resolveRole(w, r, chi.URLParam(r, "roleID"))
	if !ok {
		return
	}

	fns, err := h.repo.ListUnassignedFunctions(r.Context(), org.ID, role.ID, r.URL.Query().Get("q"))
	if err != nil {
		slog.Error("Failed to list available functions", "error", err, "org_id", org.ID)
		Error(w, http.StatusInternalServerError, "internal error")
		return
	}
	if fns == nil {
		fns = []*domain.Function{}
	}
	JSON(w, http.StatusOK, fns)
}

// ListFunctionRoles returns the roles assigned to a function.
func (h *RoleFunctionHandler) ListFunctionRoles(w http.ResponseWriter, r *http.Request) {
	org := identity.OrgFromContext(r.Context())
	fn, ok := h.resolveFunction(w, r, chi.URLParam(r, "functionID"))
	if !ok {
		return
	}

	roles, err := h.repo.ListFunctionRoles(r.Context(), fn.ID)
	if err != nil {
		slog.Error("Failed to list function roles", "error", err, "org_id", org.ID)
		Error(w, http.StatusInternalServerError, "internal error")
		return
	}
	if roles == nil {
		roles = []*domain.Role{}
	}
	JSON(w, http.StatusOK, roles)
}

// AvailableRoles mirrors AvailableFunctions from the function side.
func (h *RoleFunctionHandler) AvailableRoles(w http.ResponseWriter, r *http.Request) {
	org := identity.OrgFromContext(r.Context())
	fn, ok := h.resolveFunction(w, r, chi.URLParam(r, "functionID"))
	if !ok {
		return
	}

	roles, err := h.repo.ListUnassignedRoles(r.Context(), org.ID, fn.ID, r.URL.Query().Get("q"))
	if err != nil {
		slog.Error("Failed to list available roles", "error", err, "org_id", org.ID)
		Error(w, http.StatusInternalServerError, "internal error")
		return
	}
	if roles == nil {
		roles = []*domain.Role{}
	}
	JSON(w, http.StatusOK, roles)
}

// AssignFromRole records the pair starting from the role editor.
func (h *RoleFunctionHandler) AssignFromRole(w http.ResponseWriter, r *http.Request) {
	h.assign(w, r, chi.URLParam(r, "roleID"), chi.URLParam(r, "functionID"))
}

// AssignFromFunction records the same pair starting from the function editor.
func (h *RoleFunctionHandler) AssignFromFunction(w http.ResponseWriter, r *http.Request) {
	h.assign(w, r, chi.URLParam(r, "roleID"), chi.URLParam(r, "functionID"))
}

// UnassignFromRole removes the pair from the role editor.
func (h *RoleFunctionHandler) UnassignFromRole(w http.ResponseWriter, r *http.Request) {
	h.unassign(w, r, chi.URLParam(r, "roleID"), chi.URLParam(r, "functionID"))
}

// UnassignFromFunction removes the same pair from the function editor.
func (h *RoleFunctionHandler) UnassignFromFunction(w http.ResponseWriter, r *http.Request) {
	h.unassign(w, r, chi.URLParam(r, "roleID"), chi.URLParam(r, "functionID"))
}

// assign validates both endpoints inside the current org, then records the
// pair. Re-assigning an existing pair is a 200 no-op.
func (h *RoleFunctionHandler) assign(w http.ResponseWriter, r *http.Request, roleID, functionID string) {
	org := identity.OrgFromContext(r.Context())

	role, ok := h.resolveRole(w, r, roleID)
	if !ok {
		return
	}
	fn, ok := h.resolveFunction(w, r, functionID)
	if !ok {
		return
	}

	created, err := h.repo.AssignRoleFunction(r.Context(), role.ID, fn.ID)
	if err != nil {
		slog.Error("Failed to assign function to role", "error", err, "role_id", role.ID, "function_id", fn.ID)
		Error(w, http.StatusInternalServerError, "internal error")
		return
	}

	if created {
		h.publish(org.ID, "role-function", role.ID+":"+fn.ID, "created")
	}
	JSON(w, http.StatusOK, map[string]any{
		"roleId":     role.ID,
		"functionId": fn.ID,
		"assigned":   true,
		"created":    created,
	})
}

func (h *RoleFunctionHandler) unassign(w http.ResponseWriter, r *http.Request, roleID, functionID string) {
	org := identity.OrgFromContext(r.Context())

	role, ok := h.resolveRole(w, r, roleID)
	if !ok {
		return
	}
	fn, ok := h.resolveFunction(w, r, functionID)
	if !ok {
		return
	}

	removed, err := h.repo.UnassignRoleFunction(r.Context(), role.ID, fn.ID)
	if err != nil {
		slog.Error("Failed to unassign function from role", "error", err, "role_id", role.ID, "function_id", fn.ID)
		Error(w, http.StatusInternalServerError, "internal error")
		return
	}
	if !removed {
		Error(w, http.StatusNotFound, "assignment not found")
		return
	}

	h.publish(org.ID, "role-function", role.ID+":"+fn.ID, "deleted")
	w.WriteHeader(http.StatusNoContent)
}

// resolveRole loads a role inside the current org, writing 404 on miss.
// Cross-org IDs fail here, which is what keeps assignments tenant-local.
func (h *RoleFunctionHandler) resolveRole(w http.ResponseWriter, r *http.Request, id string) (*domain.Role, bool) {
	org := identity.OrgFromContext(r.Context())
	role, err := h.repo.GetRole(r.Context(), org.ID, id)
	if err != nil {
		slog.Error("Failed to resolve role", "error", err, "org_id", org.ID)
		Error(w, http.StatusInternalServerError, "internal error")
		return nil, false
	}
	if role == nil {
		Error(w, http.StatusNotFound, "role not found")
		return nil, false
	}
	return role, true
}

func (h *RoleFunctionHandler) resolveFunction(w http.ResponseWriter, r *http.Request, id string) (*domain.Function, bool) {
	org := identity.OrgFromContext(r.Context())
	fn, err := h.repo.GetFunction(r.Context(), org.ID, id)
	if err != nil {
		slog.Error("Failed to resolve function", "error", err, "org_id", org.ID)
		Error(w, http.StatusInternalServerError, "internal error")
		return nil, false
	}
	if fn == nil {
		Error(w, http.StatusNotFound, "function not found")
		return nil, false
	}
	return fn, true
}
