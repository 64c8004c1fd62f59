// Package identity resolves the requesting user and organization scope.
//
// Authentication itself is delegated to the deployment's proxy layer; the
// backend trusts the X-User-ID header it injects, loads the user record,
// and enforces organization membership on every org-scoped route.
package identity

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/orbitos/operations/internal/domain"
	"github.com/orbitos/operations/internal/store"
)

// UserHeaderName carries the authenticated user's ID.
const UserHeaderName = "X-User-ID"

type contextKey int

const (
	userKey contextKey = iota
	orgKey
)

// UserFromContext extracts the authenticated user from the request context.
func UserFromContext(ctx context.Context) *domain.User {
	if u, ok := ctx.Value(userKey).(*domain.User); ok {
		return u
	}
	return nil
}

// OrgFromContext extracts the scoped organization from the request context.
func OrgFromContext(ctx context.Context) *domain.Organization {
	if o, ok := ctx.Value(orgKey).(*domain.Organization); ok {
		return o
	}
	return nil
}

// Middleware loads the user named by the X-User-ID header into the request
// context. Requests without a resolvable user get 401.
func Middleware(repo store.Repository) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID := strings.TrimSpace(r.Header.Get(UserHeaderName))
			if userID == "" {
				writeJSONError(w, http.StatusUnauthorized, "missing identity")
				return
			}

			user, err := repo.GetUser(r.Context(), userID)
			if err != nil {
				writeJSONError(w, http.StatusInternalServerError, "failed to resolve identity")
				return
			}
			if user == nil {
				writeJSONError(w, http.StatusUnauthorized, "unknown user")
				return
			}

			ctx := context.WithValue(r.Context(), userKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// OrgScope resolves the {orgID} route parameter, rejects requests for
// unknown organizations with 404 and non-members with 403, and injects the
// organization into the context. Must run inside Middleware.
func OrgScope(repo store.Repository) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			orgID := chi.URLParam(r, "orgID")
			if orgID == "" {
				writeJSONError(w, http.StatusNotFound, "organization not found")
				return
			}

			org, err := repo.GetOrganization(r.Context(), orgID)
			if err != nil {
				writeJSONError(w, http.StatusInternalServerError, "failed to resolve organization")
				return
			}
			if org == nil {
				writeJSONError(w, http.StatusNotFound, "organization not found")
				return
			}

			user := UserFromContext(r.Context())
			if user == nil || !user.MemberOf(org.ID) {
				writeJSONError(w, http.StatusForbidden, "not a member of this organization")
				return
			}

			ctx := context.WithValue(r.Context(), orgKey, org)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireSuperAdmin gates the admin surface.
func RequireSuperAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user := UserFromContext(r.Context())
		if user == nil || !user.IsSuperAdmin {
			writeJSONError(w, http.StatusForbidden, "super admin required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(`{"error":"` + msg + `"}`))
}
