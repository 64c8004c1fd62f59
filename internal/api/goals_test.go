package api

import (
	"net/http"
	"testing"

	"github.com/orbitos/operations/internal/domain"
)

func createObjective(t *testing.T, env *testEnv, orgID, userID, title string) *domain.Goal {
	t.Helper()
	w := env.do(http.MethodPost, "/api/organizations/"+orgID+"/goals/", userID, map[string]any{
		"goalType": 0,
		"title":    title,
	})
	wantStatus(t, w, http.StatusCreated)
	return decodeBody[*domain.Goal](t, w)
}

func createKeyResult(t *testing.T, env *testEnv, orgID, userID, parentID, title string, current, target float64) *domain.Goal {
	t.Helper()
	w := env.do(http.MethodPost, "/api/organizations/"+orgID+"/goals/", userID, map[string]any{
		"goalType":     1,
		"title":        title,
		"parentId":     parentID,
		"currentValue": current,
		"targetValue":  target,
	})
	wantStatus(t, w, http.StatusCreated)
	return decodeBody[*domain.Goal](t, w)
}

func TestGoalHierarchyValidation(t *testing.T) {
	env := newTestEnv(t)
	org := env.createOrg("Acme", "acme")
	user := env.createUser("dev@example.com", false, org.ID)
	base := "/api/organizations/" + org.ID + "/goals"

	// goalType required.
	w := env.do(http.MethodPost, base+"/", user.ID, map[string]any{"title": "X"})
	wantStatus(t, w, http.StatusBadRequest)

	// Unknown goalType.
	w = env.do(http.MethodPost, base+"/", user.ID, map[string]any{"goalType": 7, "title": "X"})
	wantStatus(t, w, http.StatusBadRequest)

	// Objectives cannot have a parent.
	obj := createObjective(t, env, org.ID, user.ID, "Grow revenue")
	w = env.do(http.MethodPost, base+"/", user.ID, map[string]any{
		"goalType": 0, "title": "Nested", "parentId": obj.ID,
	})
	wantStatus(t, w, http.StatusBadRequest)

	// Key Results require a parent.
	w = env.do(http.MethodPost, base+"/", user.ID, map[string]any{"goalType": 1, "title": "Orphan"})
	wantStatus(t, w, http.StatusBadRequest)

	// The parent must be an objective.
	kr := createKeyResult(t, env, org.ID, user.ID, obj.ID, "Close deals", 0, 10)
	w = env.do(http.MethodPost, base+"/", user.ID, map[string]any{
		"goalType": 1, "title": "Nested KR", "parentId": kr.ID,
	})
	wantStatus(t, w, http.StatusBadRequest)

	// Type and parent are fixed after creation.
	w = env.do(http.MethodPut, base+"/"+kr.ID, user.ID, map[string]any{
		"goalType": 0, "title": "Close deals",
	})
	wantStatus(t, w, http.StatusBadRequest)
}

func TestGoalProgress(t *testing.T) {
	env := newTestEnv(t)
	org := env.createOrg("Acme", "acme")
	user := env.createUser("dev@example.com", false, org.ID)
	base := "/api/organizations/" + org.ID + "/goals"

	obj := createObjective(t, env, org.ID, user.ID, "Grow revenue")
	createKeyResult(t, env, org.ID, user.ID, obj.ID, "Close 10 deals", 5, 10)
	createKeyResult(t, env, org.ID, user.ID, obj.ID, "Hit 100k ARR", 100, 100)

	w := env.do(http.MethodGet, base+"/"+obj.ID, user.ID, nil)
	wantStatus(t, w, http.StatusOK)
	got := decodeBody[*domain.Goal](t, w)

	// (0.5 + 1.0) / 2 = 75%.
	if got.Progress != 75 {
		t.Errorf("Expected objective progress 75, got %d", got.Progress)
	}
	if len(got.KeyResults) != 2 {
		t.Fatalf("Expected 2 key results, got %d", len(got.KeyResults))
	}
	if got.KeyResults[0].Progress != 50 {
		t.Errorf("Expected key result progress 50, got %d", got.KeyResults[0].Progress)
	}
}

func TestKeyResultProgressRounding(t *testing.T) {
	env := newTestEnv(t)
	org := env.createOrg("Acme", "acme")
	user := env.createUser("dev@example.com", false, org.ID)
	base := "/api/organizations/" + org.ID + "/goals"

	obj := createObjective(t, env, org.ID, user.ID, "Grow revenue")
	kr := createKeyResult(t, env, org.ID, user.ID, obj.ID, "Close 3 deals", 2, 3)

	// 2/3 reads as 67 on the key result itself...
	w := env.do(http.MethodGet, base+"/"+kr.ID, user.ID, nil)
	wantStatus(t, w, http.StatusOK)
	if got := decodeBody[*domain.Goal](t, w); got.Progress != 67 {
		t.Errorf("Expected key result progress 67, got %d", got.Progress)
	}

	// ...and agrees with what it contributes to the objective.
	w = env.do(http.MethodGet, base+"/"+obj.ID, user.ID, nil)
	wantStatus(t, w, http.StatusOK)
	got := decodeBody[*domain.Goal](t, w)
	if got.Progress != 67 {
		t.Errorf("Expected objective progress 67, got %d", got.Progress)
	}
	if len(got.KeyResults) != 1 || got.KeyResults[0].Progress != 67 {
		t.Errorf("Expected embedded key result progress 67, got %+v", got.KeyResults)
	}
}

func TestOverallProgress(t *testing.T) {
	env := newTestEnv(t)
	org := env.createOrg("Acme", "acme")
	user := env.createUser("dev@example.com", false, org.ID)
	base := "/api/organizations/" + org.ID + "/goals"

	// No goals yet.
	w := env.do(http.MethodGet, base+"/overall-progress", user.ID, nil)
	wantStatus(t, w, http.StatusOK)
	result := decodeBody[map[string]int](t, w)
	if result["overallProgress"] != 0 || result["objectiveCount"] != 0 {
		t.Errorf("Expected zeroed summary, got %v", result)
	}

	objA := createObjective(t, env, org.ID, user.ID, "Grow revenue")
	createKeyResult(t, env, org.ID, user.ID, objA.ID, "Close deals", 5, 10)
	objB := createObjective(t, env, org.ID, user.ID, "Ship v2")
	createKeyResult(t, env, org.ID, user.ID, objB.ID, "Finish milestones", 10, 10)

	w = env.do(http.MethodGet, base+"/overall-progress", user.ID, nil)
	wantStatus(t, w, http.StatusOK)
	result = decodeBody[map[string]int](t, w)

	// Mean of 50 and 100.
	if result["overallProgress"] != 75 {
		t.Errorf("Expected overall progress 75, got %d", result["overallProgress"])
	}
	if result["objectiveCount"] != 2 || result["keyResultCount"] != 2 {
		t.Errorf("Unexpected counts: %v", result)
	}
}

func TestDeleteObjectiveCascades(t *testing.T) {
	env := newTestEnv(t)
	org := env.createOrg("Acme", "acme")
	user := env.createUser("dev@example.com", false, org.ID)
	base := "/api/organizations/" + org.ID + "/goals"

	obj := createObjective(t, env, org.ID, user.ID, "Grow revenue")
	kr := createKeyResult(t, env, org.ID, user.ID, obj.ID, "Close deals", 5, 10)

	w := env.do(http.MethodDelete, base+"/"+obj.ID, user.ID, nil)
	wantStatus(t, w, http.StatusNoContent)

	w = env.do(http.MethodGet, base+"/"+kr.ID, user.ID, nil)
	wantStatus(t, w, http.StatusNotFound)
}
