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

// AdminHandler exposes the super-admin surface: organization and user
// management. Route access is gated by identity.RequireSuperAdmin.
type AdminHandler struct {
	*Handler
}

// NewAdminHandler creates a new admin handler.
func NewAdminHandler(base *Handler) *AdminHandler {
	return &AdminHandler{Handler: base}
}

// RegisterRoutes registers admin routes. Callers mount this under /api
// with the identity middleware already applied.
func (h *AdminHandler) RegisterRoutes(r chi.Router) {
	r.Route("/admin", func(r chi.Router) {
		r.Use(identity.RequireSuperAdmin)

		r.Route("/organizations", func(r chi.Router) {
			r.Get("/", h.ListOrganizations)
			r.Post("/", h.CreateOrganization)
			r.Get("/{orgID}", h.GetOrganization)
			r.Put("/{orgID}", h.UpdateOrganization)
			r.Delete("/{orgID}", h.DeleteOrganization)
		})
		r.Route("/users", func(r chi.Router) {
			r.Get("/", h.ListUsers)
			r.Post("/", h.CreateUser)
			r.Get("/{userID}", h.GetUser)
			r.Put("/{userID}", h.UpdateUser)
			r.Delete("/{userID}", h.DeleteUser)
			r.Post("/{userID}/organizations/{orgID}", h.AddMembership)
			r.Delete("/{userID}/organizations/{orgID}", h.RemoveMembership)
		})
	})
}

type organizationRequest struct {
	Name string `json:"name"`
	Slug string `json:"slug"`
}

type userRequest struct {
	Email           string   `json:"email"`
	DisplayName     string   `json:"displayName"`
	IsSuperAdmin    bool     `json:"isSuperAdmin"`
	OrganizationIDs []string `json:"organizationIds"`
}

// ListOrganizations returns every organization.
func (h *AdminHandler) ListOrganizations(w http.ResponseWriter, r *http.Request) {
	orgs, err := h.repo.ListOrganizations(r.Context())
	if err != nil {
		slog.Error("Failed to list organizations", "error", err)
		Error(w, http.StatusInternalServerError, "internal error")
		return
	}
	if orgs == nil {
		orgs = []*domain.Organization{}
	}
	JSON(w, http.StatusOK, orgs)
}

// CreateOrganization provisions a new tenant.
func (h *AdminHandler) CreateOrganization(w http.ResponseWriter, r *http.Request) {
	var req organizationRequest
	if !decode(w, r, &req) {
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Slug = strings.TrimSpace(req.Slug)
	if req.Name == "" {
		Error(w, http.StatusBadRequest, "name is required")
		return
	}
	if req.Slug == "" {
		req.Slug = slugify(req.Name)
	}

	now := time.Now()
	org := &domain.Organization{
		ID:        uuid.NewString(),
		Name:      req.Name,
		Slug:      req.Slug,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := h.repo.CreateOrganization(r.Context(), org); err != nil {
		storeError(w, err, "an organization with this slug already exists")
		return
	}
	JSON(w, http.StatusCreated, org)
}

// GetOrganization returns one organization.
func (h *AdminHandler) GetOrganization(w http.ResponseWriter, r *http.Request) {
	org, err := h.repo.GetOrganization(r.Context(), chi.URLParam(r, "orgID"))
	if err != nil {
		slog.Error("Failed to get organization", "error", err)
		Error(w, http.StatusInternalServerError, "internal error")
		return
	}
	if org == nil {
		Error(w, http.StatusNotFound, "organization not found")
		return
	}
	JSON(w, http.StatusOK, org)
}

// UpdateOrganization renames a tenant.
func (h *AdminHandler) UpdateOrganization(w http.ResponseWriter, r *http.Request) {
	org, err := h.repo.GetOrganization(r.Context(), chi.URLParam(r, "orgID"))
	if err != nil {
		slog.Error("Failed to get organization for update", "error", err)
		Error(w, http.StatusInternalServerError, "internal error")
		return
	}
	if org == nil {
		Error(w, http.StatusNotFound, "organization not found")
		return
	}

	var req organizationRequest
	if !decode(w, r, &req) {
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		Error(w, http.StatusBadRequest, "name is required")
		return
	}
	org.Name = req.Name
	if slug := strings.TrimSpace(req.Slug); slug != "" {
		org.Slug = slug
	}
	org.UpdatedAt = time.Now()

	if err := h.repo.UpdateOrganization(r.Context(), org); err != nil {
		storeError(w, err, "an organization with this slug already exists")
		return
	}
	JSON(w, http.StatusOK, org)
}

// DeleteOrganization removes a tenant and everything it owns.
func (h *AdminHandler) DeleteOrganization(w http.ResponseWriter, r *http.Request) {
	if err := h.repo.DeleteOrganization(r.Context(), chi.URLParam(r, "orgID")); err != nil {
		storeError(w, err, "")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListUsers returns every user with their memberships.
func (h *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.repo.ListUsers(r.Context())
	if err != nil {
		slog.Error("Failed to list users", "error", err)
		Error(w, http.StatusInternalServerError, "internal error")
		return
	}
	if users == nil {
		users = []*domain.User{}
	}
	JSON(w, http.StatusOK, users)
}

// CreateUser provisions a user, optionally with initial memberships.
func (h *AdminHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req userRequest
	if !decode(w, r, &req) {
		return
	}
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	if req.Email == "" {
		Error(w, http.StatusBadRequest, "email is required")
		return
	}

	now := time.Now()
	user := &domain.User{
		ID:              uuid.NewString(),
		Email:           req.Email,
		DisplayName:     strings.TrimSpace(req.DisplayName),
		IsSuperAdmin:    req.IsSuperAdmin,
		OrganizationIDs: req.OrganizationIDs,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if user.OrganizationIDs == nil {
		user.OrganizationIDs = []string{}
	}
	if err := h.repo.CreateUser(r.Context(), user); err != nil {
		storeError(w, err, "a user with this email already exists")
		return
	}
	JSON(w, http.StatusCreated, user)
}

// GetUser returns one user.
func (h *AdminHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	user, err := h.repo.GetUser(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		slog.Error("Failed to get user", "error", err)
		Error(w, http.StatusInternalServerError, "internal error")
		return
	}
	if user == nil {
		Error(w, http.StatusNotFound, "user not found")
		return
	}
	JSON(w, http.StatusOK, user)
}

// UpdateUser edits profile fields. Memberships are managed through the
// dedicated membership endpoints.
func (h *AdminHandler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	user, err := h.repo.GetUser(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		slog.Error("Failed to get user for update", "error", err)
		Error(w, http.StatusInternalServerError, "internal error")
		return
	}
	if user == nil {
		Error(w, http.StatusNotFound, "user not found")
		return
	}

	var req userRequest
	if !decode(w, r, &req) {
		return
	}
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	if req.Email == "" {
		Error(w, http.StatusBadRequest, "email is required")
		return
	}
	user.Email = req.Email
	user.DisplayName = strings.TrimSpace(req.DisplayName)
	user.IsSuperAdmin = req.IsSuperAdmin
	user.UpdatedAt = time.Now()

	if err := h.repo.UpdateUser(r.Context(), user); err != nil {
		storeError(w, err, "a user with this email already exists")
		return
	}
	JSON(w, http.StatusOK, user)
}

// DeleteUser removes a user and their memberships.
func (h *AdminHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	if err := h.repo.DeleteUser(r.Context(), chi.URLParam(r, "userID")); err != nil {
		storeError(w, err, "")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// AddMembership grants a user access to an organization. Idempotent.
func (h *AdminHandler) AddMembership(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	orgID := chi.URLParam(r, "orgID")

	user, err := h.repo.GetUser(r.Context(), userID)
	if err != nil {
		slog.Error("Failed to get user for membership", "error", err)
		Error(w, http.StatusInternalServerError, "internal error")
		return
	}
	if user == nil {
		Error(w, http.StatusNotFound, "user not found")
		return
	}
	org, err := h.repo.GetOrganization(r.Context(), orgID)
	if err != nil {
		slog.Error("Failed to get organization for membership", "error", err)
		Error(w, http.StatusInternalServerError, "internal error")
		return
	}
	if org == nil {
		Error(w, http.StatusNotFound, "organization not found")
		return
	}

	if err := h.repo.AddMembership(r.Context(), userID, orgID); err != nil {
		storeError(w, err, "")
		return
	}
	JSON(w, http.StatusOK, map[string]string{"userId": userID, "organizationId": orgID})
}

// RemoveMembership revokes a user's access to an organization.
func (h *AdminHandler) RemoveMembership(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	orgID := chi.URLParam(r, "orgID")
	if err := h.repo.RemoveMembership(r.Context(), userID, orgID); err != nil {
		storeError(w, err, "")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// slugify lowercases a name and collapses non-alphanumerics into dashes.
func slugify(name string) string {
	var b strings.Builder
	lastDash := true
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastDash = false
		default:
			if !lastDash {
				b.WriteByte('-')
				lastDash = true
			}
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
