package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/orbitos/operations/internal/domain"
	"github.com/orbitos/operations/internal/events"
	"github.com/orbitos/operations/internal/identity"
	"github.com/orbitos/operations/internal/store"
)

// testEnv wires the full API routing table against a real SQLite store so
// tests exercise the same middleware chain production uses.
type testEnv struct {
	t      *testing.T
	repo   store.Repository
	hub    *events.Hub
	router chi.Router
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	repo, err := store.NewSQLite(filepath.Join(t.TempDir(), "api-test.db"))
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	t.Cleanup(func() {
		if err := repo.Close(); err != nil {
			t.Errorf("Failed to close store: %v", err)
		}
	})

	hub := events.NewHub(8)
	t.Cleanup(hub.Close)

	base := NewHandler(repo, hub)

	r := chi.NewRouter()
	NewHealthHandler(repo).RegisterHealth(r)
	r.Group(func(r chi.Router) {
		r.Use(identity.Middleware(repo))
		r.Route("/api", func(r chi.Router) {
			NewMeHandler(base).RegisterRoutes(r)
			NewHelpHandler(base).RegisterRoutes(r)
			NewAdminHandler(base).RegisterRoutes(r)

			r.Route("/organizations/{orgID}", func(r chi.Router) {
				r.Use(identity.OrgScope(repo))
				NewAgentHandler(base).RegisterRoutes(r)
				NewConversationHandler(base).RegisterRoutes(r)
				NewGoalHandler(base).RegisterRoutes(r)
				NewRoleFunctionHandler(base).RegisterRoutes(r)
				NewCanvasHandler(base).RegisterRoutes(r)
				NewOfferingHandler(base).RegisterRoutes(r)
			})
		})
	})

	return &testEnv{t: t, repo: repo, hub: hub, router: r}
}

func (e *testEnv) createOrg(name, slug string) *domain.Organization {
	e.t.Helper()
	now := time.Now()
	org := &domain.Organization{ID: uuid.NewString(), Name: name, Slug: slug, CreatedAt: now, UpdatedAt: now}
	if err := e.repo.CreateOrganization(context.Background(), org); err != nil {
		e.t.Fatalf("Failed to create organization: %v", err)
	}
	return org
}

func (e *testEnv) createUser(email string, superAdmin bool, orgIDs ...string) *domain.User {
	e.t.Helper()
	now := time.Now()
	user := &domain.User{
		ID:              uuid.NewString(),
		Email:           email,
		DisplayName:     email,
		IsSuperAdmin:    superAdmin,
		OrganizationIDs: orgIDs,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := e.repo.CreateUser(context.Background(), user); err != nil {
		e.t.Fatalf("Failed to create user: %v", err)
	}
	return user
}

// do performs a request as the given user. A nil body sends no payload.
func (e *testEnv) do(method, path, userID string, body any) *httptest.ResponseRecorder {
	e.t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			e.t.Fatalf("Failed to encode request body: %v", err)
		}
	}

	req := httptest.NewRequest(method, path, &buf)
	if userID != "" {
		req.Header.Set(identity.UserHeaderName, userID)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decodeBody[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(w.Body).Decode(&v); err != nil {
		t.Fatalf("Failed to decode response body: %v", err)
	}
	return v
}

func wantStatus(t *testing.T, w *httptest.ResponseRecorder, want int) {
	t.Helper()
	if w.Code != want {
		t.Fatalf("Expected status %d, got %d: %s", want, w.Code, w.Body.String())
	}
}

func TestIdentityRequired(t *testing.T) {
	env := newTestEnv(t)
	org := env.createOrg("Acme", "acme")

	// No header at all.
	w := env.do(http.MethodGet, "/api/organizations/"+org.ID+"/ai-agents/", "", nil)
	wantStatus(t, w, http.StatusUnauthorized)

	// Header naming an unknown user.
	w = env.do(http.MethodGet, "/api/organizations/"+org.ID+"/ai-agents/", "ghost", nil)
	wantStatus(t, w, http.StatusUnauthorized)
}

func TestOrgScope(t *testing.T) {
	env := newTestEnv(t)
	orgA := env.createOrg("A", "a")
	orgB := env.createOrg("B", "b")
	member := env.createUser("member@example.com", false, orgA.ID)
	admin := env.createUser("root@example.com", true)

	// Unknown org reads as absent, not forbidden.
	w := env.do(http.MethodGet, "/api/organizations/nope/ai-agents/", member.ID, nil)
	wantStatus(t, w, http.StatusNotFound)

	// Known org, non-member.
	w = env.do(http.MethodGet, "/api/organizations/"+orgB.ID+"/ai-agents/", member.ID, nil)
	wantStatus(t, w, http.StatusForbidden)

	// Member.
	w = env.do(http.MethodGet, "/api/organizations/"+orgA.ID+"/ai-agents/", member.ID, nil)
	wantStatus(t, w, http.StatusOK)

	// Super admins bypass membership.
	w = env.do(http.MethodGet, "/api/organizations/"+orgB.ID+"/ai-agents/", admin.ID, nil)
	wantStatus(t, w, http.StatusOK)
}
