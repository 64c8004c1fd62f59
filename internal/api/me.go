package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/orbitos/operations/internal/domain"
	"github.com/orbitos/operations/internal/identity"
)

// MeHandler returns the requesting user's profile and organizations,
// which the client uses to populate the org switcher.
type MeHandler struct {
	*Handler
}

// NewMeHandler creates a new me handler.
func NewMeHandler(base *Handler) *MeHandler {
	return &MeHandler{Handler: base}
}

// RegisterRoutes registers the /me route.
func (h *MeHandler) RegisterRoutes(r chi.Router) {
	r.Get("/me", h.Get)
}

// Get returns the current user with their resolved organizations. Super
// admins see every organization.
func (h *MeHandler) Get(w http.ResponseWriter, r *http.Request) {
	user := identity.UserFromContext(r.Context())

	var orgs []*domain.Organization
	if user.IsSuperAdmin {
		all, err := h.repo.ListOrganizations(r.Context())
		if err != nil {
			slog.Error("Failed to list organizations", "error", err, "user_id", user.ID)
			Error(w, http.StatusInternalServerError, "internal error")
			return
		}
		orgs = all
	} else {
		for _, orgID := range user.OrganizationIDs {
			org, err := h.repo.GetOrganization(r.Context(), orgID)
			if err != nil {
				slog.Error("Failed to resolve organization", "error", err, "user_id", user.ID)
				Error(w, http.StatusInternalServerError, "internal error")
				return
			}
			if org != nil {
				orgs = append(orgs, org)
			}
		}
	}
	if orgs == nil {
		orgs = []*domain.Organization{}
	}

	JSON(w, http.StatusOK, map[string]any{
		"user":          user,
		"organizations": orgs,
	})
}
