package api

import (
	"context"
	"net/http"
	"testing"

	"github.com/orbitos/operations/internal/domain"
)

func createCanvas(t *testing.T, env *testEnv, orgID, userID, name string, scope domain.CanvasScopeType) *domain.Canvas {
	t.Helper()
	w := env.do(http.MethodPost, "/api/organizations/"+orgID+"/operations/canvases/bmc", userID, map[string]any{
		"name":      name,
		"scopeType": string(scope),
	})
	wantStatus(t, w, http.StatusCreated)
	return decodeBody[*domain.Canvas](t, w)
}

func TestCreateCanvasNineBlocks(t *testing.T) {
	env := newTestEnv(t)
	org := env.createOrg("Acme", "acme")
	user := env.createUser("dev@example.com", false, org.ID)

	scopes := []domain.CanvasScopeType{
		domain.ScopeCompany, domain.ScopeProduct, domain.ScopeSegment, domain.ScopeInitiative,
	}
	for _, scope := range scopes {
		canvas := createCanvas(t, env, org.ID, user.ID, string(scope)+" canvas", scope)
		if len(canvas.Blocks) != 9 {
			t.Fatalf("%s: expected 9 blocks, got %d", scope, len(canvas.Blocks))
		}
		for i, block := range canvas.Blocks {
			if block.BlockType != domain.BlockTypes[i] {
				t.Errorf("%s block %d: expected %q, got %q", scope, i, domain.BlockTypes[i], block.BlockType)
			}
			if block.Items == nil || len(block.Items) != 0 {
				t.Errorf("%s block %d: expected empty items, got %v", scope, i, block.Items)
			}
		}
	}
}

func TestUpdateBlockDeletedCanvas(t *testing.T) {
	env := newTestEnv(t)
	org := env.createOrg("Acme", "acme")
	user := env.createUser("dev@example.com", false, org.ID)
	base := "/api/organizations/" + org.ID + "/operations/canvases"

	canvas := createCanvas(t, env, org.ID, user.ID, "Gone", domain.ScopeCompany)
	if err := env.repo.DeleteCanvas(context.Background(), org.ID, canvas.ID); err != nil {
		t.Fatalf("Failed to delete canvas: %v", err)
	}

	// A write against a canvas that no longer exists is absent, not a fault.
	w := env.do(http.MethodPut, base+"/"+canvas.ID+"/blocks/KeyPartners", user.ID, map[string]any{
		"items": []string{"Acme Corp"},
	})
	wantStatus(t, w, http.StatusNotFound)
}

func TestCreateCanvasValidation(t *testing.T) {
	env := newTestEnv(t)
	org := env.createOrg("Acme", "acme")
	user := env.createUser("dev@example.com", false, org.ID)
	base := "/api/organizations/" + org.ID + "/operations/canvases"

	w := env.do(http.MethodPost, base+"/bmc", user.ID, map[string]any{"name": "", "scopeType": "Company"})
	wantStatus(t, w, http.StatusBadRequest)

	w = env.do(http.MethodPost, base+"/bmc", user.ID, map[string]any{"name": "X", "scopeType": "Galaxy"})
	wantStatus(t, w, http.StatusBadRequest)
}

func TestUpdateCanvasBlock(t *testing.T) {
	env := newTestEnv(t)
	org := env.createOrg("Acme", "acme")
	user := env.createUser("dev@example.com", false, org.ID)
	base := "/api/organizations/" + org.ID + "/operations/canvases"

	canvas := createCanvas(t, env, org.ID, user.ID, "Company canvas", domain.ScopeCompany)

	w := env.do(http.MethodPut, base+"/"+canvas.ID+"/blocks/KeyPartners", user.ID, map[string]any{
		"items": []string{"Cloud provider", "Payment processor"},
	})
	wantStatus(t, w, http.StatusOK)
	got := decodeBody[*domain.Canvas](t, w)
	if len(got.Blocks) != 9 {
		t.Fatalf("Expected 9 blocks after update, got %d", len(got.Blocks))
	}
	if len(got.Blocks[0].Items) != 2 {
		t.Errorf("Expected 2 items in KeyPartners, got %v", got.Blocks[0].Items)
	}

	// Unknown block types are rejected, so blocks can never be invented.
	w = env.do(http.MethodPut, base+"/"+canvas.ID+"/blocks/SecretSauce", user.ID, map[string]any{
		"items": []string{"x"},
	})
	wantStatus(t, w, http.StatusBadRequest)

	// Unknown canvas.
	w = env.do(http.MethodPut, base+"/nope/blocks/KeyPartners", user.ID, map[string]any{"items": []string{}})
	wantStatus(t, w, http.StatusNotFound)
}

func TestListCanvasesScopeFilter(t *testing.T) {
	env := newTestEnv(t)
	org := env.createOrg("Acme", "acme")
	user := env.createUser("dev@example.com", false, org.ID)
	base := "/api/organizations/" + org.ID + "/operations/canvases"

	createCanvas(t, env, org.ID, user.ID, "Company canvas", domain.ScopeCompany)
	createCanvas(t, env, org.ID, user.ID, "Product canvas", domain.ScopeProduct)

	w := env.do(http.MethodGet, base+"/?scopeType=Product", user.ID, nil)
	wantStatus(t, w, http.StatusOK)
	got := decodeBody[[]*domain.Canvas](t, w)
	if len(got) != 1 || got[0].ScopeType != domain.ScopeProduct {
		t.Errorf("Expected one Product canvas, got %+v", got)
	}

	w = env.do(http.MethodGet, base+"/?scopeType=Nonsense", user.ID, nil)
	wantStatus(t, w, http.StatusBadRequest)
}

func TestDeleteCanvas(t *testing.T) {
	env := newTestEnv(t)
	org := env.createOrg("Acme", "acme")
	user := env.createUser("dev@example.com", false, org.ID)
	base := "/api/organizations/" + org.ID + "/operations/canvases"

	canvas := createCanvas(t, env, org.ID, user.ID, "Company canvas", domain.ScopeCompany)

	w := env.do(http.MethodDelete, base+"/"+canvas.ID, user.ID, nil)
	wantStatus(t, w, http.StatusNoContent)
	w = env.do(http.MethodGet, base+"/"+canvas.ID, user.ID, nil)
	wantStatus(t, w, http.StatusNotFound)
}
