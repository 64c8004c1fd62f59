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
	"github.com/orbitos/operations/internal/store"
)

// GoalHandler handles OKR endpoints.
type GoalHandler struct {
	*Handler
}

// NewGoalHandler creates a new goal handler.
func NewGoalHandler(base *Handler) *GoalHandler {
	return &GoalHandler{Handler: base}
}

// RegisterRoutes registers goal routes on an org-scoped router.
func (h *GoalHandler) RegisterRoutes(r chi.Router) {
	r.Route("/goals", func(r chi.Router) {
		r.Get("/", h.List)
		r.Post("/", h.Create)
		r.Get("/overall-progress", h.OverallProgress)
		r.Get("/{goalID}", h.Get)
		r.Put("/{goalID}", h.Update)
		r.Delete("/{goalID}", h.Delete)
	})
}

type goalRequest struct {
	GoalType     *int    `json:"goalType"`
	Title        string  `json:"title"`
	Description  string  `json:"description"`
	ParentID     string  `json:"parentId"`
	CurrentValue float64 `json:"currentValue"`
	TargetValue  float64 `json:"targetValue"`
	Unit         string  `json:"unit"`
	Status       string  `json:"status"`
	DueAt        *string `json:"dueAt"`
}

// List returns the organization's goals with computed progress. An
// optional goalType query narrows to Objectives (0) or Key Results (1).
func (h *GoalHandler) List(w http.ResponseWriter, r *http.Request) {
	org := identity.OrgFromContext(r.Context())

	filter := store.GoalFilter{}
	if raw := r.URL.Query().Get("goalType"); raw != "" {
		switch raw {
		case "0":
			t := domain.GoalObjective
			filter.GoalType = &t
		case "1":
			t := domain.GoalKeyResult
			filter.GoalType = &t
		default:
			Error(w, http.StatusBadRequest, "invalid goalType")
			return
		}
	}

	goals, err := h.repo.ListGoals(r.Context(), org.ID, filter)
	if err != nil {
		slog.Error("Failed to list goals", "error", err, "org_id", org.ID)
		Error(w, http.StatusInternalServerError, "internal error")
		return
	}
	if goals == nil {
		goals = []*domain.Goal{}
	}
	for _, goal := range goals {
		if err := h.computeProgress(r, goal); err != nil {
			Error(w, http.StatusInternalServerError, "internal error")
			return
		}
	}
	JSON(w, http.StatusOK, goals)
}

// Create adds an Objective or Key Result. Key Results must reference an
// Objective in the same organization.
func (h *GoalHandler) Create(w http.ResponseWriter, r *http.Request) {
	org := identity.OrgFromContext(r.Context())

	var req goalRequest
	if !decode(w, r, &req) {
		return
	}
	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		Error(w, http.StatusBadRequest, "title is required")
		return
	}
	if req.GoalType == nil {
		Error(w, http.StatusBadRequest, "goalType is required")
		return
	}
	goalType := domain.GoalType(*req.GoalType)
	if !domain.ValidGoalType(goalType) {
		Error(w, http.StatusBadRequest, "invalid goalType")
		return
	}

	switch goalType {
	case domain.GoalObjective:
		if req.ParentID != "" {
			Error(w, http.StatusBadRequest, "objectives cannot have a parent")
			return
		}
	case domain.GoalKeyResult:
		if req.ParentID == "" {
			Error(w, http.StatusBadRequest, "key results require a parentId")
			return
		}
		parent, err := h.repo.GetGoal(r.Context(), org.ID, req.ParentID)
		if err != nil {
			slog.Error("Failed to resolve goal parent", "error", err, "org_id", org.ID)
			Error(w, http.StatusInternalServerError, "internal error")
			return
		}
		if parent == nil || parent.GoalType != domain.GoalObjective {
			Error(w, http.StatusBadRequest, "parentId must reference an objective")
			return
		}
	}

	dueAt, ok := parseDueAt(w, req.DueAt)
	if !ok {
		return
	}

	now := time.Now()
	goal := &domain.Goal{
		ID:           uuid.NewString(),
		OrgID:        org.ID,
		GoalType:     goalType,
		Title:        req.Title,
		Description:  req.Description,
		ParentID:     req.ParentID,
		CurrentValue: req.CurrentValue,
		TargetValue:  req.TargetValue,
		Unit:         req.Unit,
		Status:       req.Status,
		DueAt:        dueAt,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := h.repo.CreateGoal(r.Context(), goal); err != nil {
		slog.Error("Failed to create goal", "error", err, "org_id", org.ID)
		Error(w, http.StatusInternalServerError, "internal error")
		return
	}

	if err := h.computeProgress(r, goal); err != nil {
		Error(w, http.StatusInternalServerError, "internal error")
		return
	}
	h.publish(org.ID, "goal", goal.ID, "created")
	JSON(w, http.StatusCreated, goal)
}

// Get returns one goal. Objectives include their Key Results.
func (h *GoalHandler) Get(w http.ResponseWriter, r *http.Request) {
	org := identity.OrgFromContext(r.Context())
	goal, err := h.repo.GetGoal(r.Context(), org.ID, chi.URLParam(r, "goalID"))
	if err != nil {
		slog.Error("Failed to get goal", "error", err, "org_id", org.ID)
		Error(w, http.StatusInternalServerError, "internal error")
		return
	}
	if goal == nil {
		Error(w, http.StatusNotFound, "goal not found")
		return
	}

	if goal.GoalType == domain.GoalObjective {
		krs, err := h.repo.ListKeyResults(r.Context(), goal.ID)
		if err != nil {
			slog.Error("Failed to list key results", "error", err, "goal_id", goal.ID)
			Error(w, http.StatusInternalServerError, "internal error")
			return
		}
		for _, kr := range krs {
			kr.Progress = kr.ProgressPercent()
		}
		goal.KeyResults = krs
		goal.Progress = domain.ObjectiveProgress(krs)
	} else {
		goal.Progress = goal.ProgressPercent()
	}

	JSON(w, http.StatusOK, goal)
}

// Update edits a goal's values. Type and parent are fixed at creation.
func (h *GoalHandler) Update(w http.ResponseWriter, r *http.Request) {
	org := identity.OrgFromContext(r.Context())

	goal, err := h.repo.GetGoal(r.Context(), org.ID, chi.URLParam(r, "goalID"))
	if err != nil {
		slog.Error("Failed to get goal for update", "error", err, "org_id", org.ID)
		Error(w, http.StatusInternalServerError, "internal error")
		return
	}
	if goal == nil {
		Error(w, http.StatusNotFound, "goal not found")
		return
	}

	var req goalRequest
	if !decode(w, r, &req) {
		return
	}
	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		Error(w, http.StatusBadRequest, "title is required")
		return
	}
	if req.GoalType != nil && domain.GoalType(*req.GoalType) != goal.GoalType {
		Error(w, http.StatusBadRequest, "goalType cannot be changed")
		return
	}
	if req.ParentID != "" && req.ParentID != goal.ParentID {
		Error(w, http.StatusBadRequest, "parentId cannot be changed")
		return
	}

	dueAt, ok := parseDueAt(w, req.DueAt)
	if !ok {
		return
	}

	goal.Title = req.Title
	goal.Description = req.Description
	goal.CurrentValue = req.CurrentValue
	goal.TargetValue = req.TargetValue
	goal.Unit = req.Unit
	goal.Status = req.Status
	if req.DueAt != nil {
		goal.DueAt = dueAt
	}
	goal.UpdatedAt = time.Now()

	if err := h.repo.UpdateGoal(r.Context(), goal); err != nil {
		storeError(w, err, "")
		return
	}

	if err := h.computeProgress(r, goal); err != nil {
		Error(w, http.StatusInternalServerError, "internal error")
		return
	}
	h.publish(org.ID, "goal", goal.ID, "updated")
	JSON(w, http.StatusOK, goal)
}

// Delete removes a goal, cascading from Objectives to their Key Results.
func (h *GoalHandler) Delete(w http.ResponseWriter, r *http.Request) {
	org := identity.OrgFromContext(r.Context())
	id := chi.URLParam(r, "goalID")

	if err := h.repo.DeleteGoal(r.Context(), org.ID, id); err != nil {
		storeError(w, err, "")
		return
	}

	h.publish(org.ID, "goal", id, "deleted")
	w.WriteHeader(http.StatusNoContent)
}

// OverallProgress aggregates progress across all Objectives.
func (h *GoalHandler) OverallProgress(w http.ResponseWriter, r *http.Request) {
	org := identity.OrgFromContext(r.Context())

	objType := domain.GoalObjective
	objectives, err := h.repo.ListGoals(r.Context(), org.ID, store.GoalFilter{GoalType: &objType})
	if err != nil {
		slog.Error("Failed to list objectives", "error", err, "org_id", org.ID)
		Error(w, http.StatusInternalServerError, "internal error")
		return
	}

	keyResultCount := 0
	progress := make([]int, 0, len(objectives))
	for _, obj := range objectives {
		krs, err := h.repo.ListKeyResults(r.Context(), obj.ID)
		if err != nil {
			slog.Error("Failed to list key results", "error", err, "goal_id", obj.ID)
			Error(w, http.StatusInternalServerError, "internal error")
			return
		}
		keyResultCount += len(krs)
		progress = append(progress, domain.ObjectiveProgress(krs))
	}

	JSON(w, http.StatusOK, map[string]int{
		"overallProgress": domain.OverallProgress(progress),
		"objectiveCount":  len(objectives),
		"keyResultCount":  keyResultCount,
	})
}

// computeProgress fills the derived Progress field for list views.
func (h *GoalHandler) computeProgress(r *http.Request, goal *domain.Goal) error {
	if goal.GoalType == domain.GoalKeyResult {
		goal.Progress = goal.ProgressPercent()
		return nil
	}
	krs, err := h.repo.ListKeyResults(r.Context(), goal.ID)
	if err != nil {
		slog.Error("Failed to list key results", "error", err, "goal_id", goal.ID)
		return err
	}
	goal.Progress = domain.ObjectiveProgress(krs)
	return nil
}

func parseDueAt(w http.ResponseWriter, raw *string) (*time.Time, bool) {
	if raw == nil || *raw == "" {
		return nil, true
	}
	t, err := time.Parse(time.RFC3339, *raw)
	if err != nil {
		Error(w, http.StatusBadRequest, "dueAt must be RFC3339")
		return nil, false
	}
	return &t, true
}
