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

// AgentHandler handles AI agent endpoints.
type AgentHandler struct {
	*Handler
}

// NewAgentHandler creates a new agent handler.
func NewAgentHandler(base *Handler) *AgentHandler {
	return &AgentHandler{Handler: base}
}

// RegisterRoutes registers agent routes on an org-scoped router.
func (h *AgentHandler) RegisterRoutes(r chi.Router) {
	r.Route("/ai-agents", func(r chi.Router) {
		r.Get("/", h.List)
		r.Post("/", h.Create)
		r.Post("/seed-builtin", h.SeedBuiltIn)
		r.Get("/available-models", h.AvailableModels)
		r.Get("/{agentID}", h.Get)
		r.Put("/{agentID}", h.Update)
		r.Delete("/{agentID}", h.Delete)
	})
}

type agentRequest struct {
	Name                 string   `json:"name"`
	RoleTitle            string   `json:"roleTitle"`
	Provider             string   `json:"provider"`
	Model                string   `json:"model"`
	Personality          string   `json:"personality"`
	AgentType            string   `json:"agentType"`
	CanCallBuiltInAgents bool     `json:"canCallBuiltInAgents"`
	CanBeOrchestrated    bool     `json:"canBeOrchestrated"`
	ContextScopes        []string `json:"contextScopes"`
	SortOrder            int      `json:"sortOrder"`
}

// List returns the organization's agents.
func (h *AgentHandler) List(w http.ResponseWriter, r *http.Request) {
	org := identity.OrgFromContext(r.Context())
	agents, err := h.repo.ListAgents(r.Context(), org.ID)
	if err != nil {
		slog.Error("Failed to list agents", "error", err, "org_id", org.ID)
		Error(w, http.StatusInternalServerError, "internal error")
		return
	}
	if agents == nil {
		agents = []*domain.AIAgent{}
	}
	JSON(w, http.StatusOK, agents)
}

// Create adds a Custom agent. Names are unique within the organization.
func (h *AgentHandler) Create(w http.ResponseWriter, r *http.Request) {
	org := identity.OrgFromContext(r.Context())

	var req agentRequest
	if !decode(w, r, &req) {
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		Error(w, http.StatusBadRequest, "name is required")
		return
	}
	if req.AgentType != "" && req.AgentType != string(domain.AgentTypeCustom) {
		Error(w, http.StatusBadRequest, "only Custom agents can be created")
		return
	}

	now := time.Now()
	agent := &domain.AIAgent{
		ID:                   uuid.NewString(),
		OrgID:                org.ID,
		Name:                 req.Name,
		AgentType:            domain.AgentTypeCustom,
		RoleTitle:            req.RoleTitle,
		Provider:             req.Provider,
		Model:                req.Model,
		Personality:          req.Personality,
		IsSystemProvided:     false,
		CanCallBuiltInAgents: req.CanCallBuiltInAgents,
		CanBeOrchestrated:    req.CanBeOrchestrated,
		ContextScopes:        req.ContextScopes,
		SortOrder:            req.SortOrder,
		CreatedAt:            now,
		UpdatedAt:            now,
	}
	if agent.ContextScopes == nil {
		agent.ContextScopes = []string{}
	}

	if err := h.repo.CreateAgent(r.Context(), agent); err != nil {
		storeError(w, err, "an agent with this name already exists")
		return
	}

	h.publish(org.ID, "ai-agent", agent.ID, "created")
	JSON(w, http.StatusCreated, agent)
}

// Get returns one agent.
func (h *AgentHandler) Get(w http.ResponseWriter, r *http.Request) {
	org := identity.OrgFromContext(r.Context())
	agent, err := h.repo.GetAgent(r.Context(), org.ID, chi.URLParam(r, "agentID"))
	if err != nil {
		slog.Error("Failed to get agent", "error", err, "org_id", org.ID)
		Error(w, http.StatusInternalServerError, "internal error")
		return
	}
	if agent == nil {
		Error(w, http.StatusNotFound, "agent not found")
		return
	}
	JSON(w, http.StatusOK, agent)
}

// Update edits an agent. BuiltIn agents keep their type and system flags.
func (h *AgentHandler) Update(w http.ResponseWriter, r *http.Request) {
	org := identity.OrgFromContext(r.Context())

	agent, err := h.repo.GetAgent(r.Context(), org.ID, chi.URLParam(r, "agentID"))
	if err != nil {
		slog.Error("Failed to get agent for update", "error", err, "org_id", org.ID)
		Error(w, http.StatusInternalServerError, "internal error")
		return
	}
	if agent == nil {
		Error(w, http.StatusNotFound, "agent not found")
		return
	}

	var req agentRequest
	if !decode(w, r, &req) {
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		Error(w, http.StatusBadRequest, "name is required")
		return
	}
	if req.AgentType != "" && req.AgentType != string(agent.AgentType) {
		Error(w, http.StatusBadRequest, "agentType cannot be changed")
		return
	}
	if agent.IsBuiltIn() && req.Name != agent.Name {
		Error(w, http.StatusBadRequest, "builtin agents cannot be renamed")
		return
	}

	agent.Name = req.Name
	agent.RoleTitle = req.RoleTitle
	agent.Provider = req.Provider
	agent.Model = req.Model
	agent.Personality = req.Personality
	agent.CanCallBuiltInAgents = req.CanCallBuiltInAgents
	if !agent.IsBuiltIn() {
		agent.CanBeOrchestrated = req.CanBeOrchestrated
	}
	if req.ContextScopes != nil {
		agent.ContextScopes = req.ContextScopes
	}
	agent.SortOrder = req.SortOrder
	agent.UpdatedAt = time.Now()

	if err := h.repo.UpdateAgent(r.Context(), agent); err != nil {
		storeError(w, err, "an agent with this name already exists")
		return
	}

	h.publish(org.ID, "ai-agent", agent.ID, "updated")
	JSON(w, http.StatusOK, agent)
}

// Delete removes a Custom agent. BuiltIn agents cannot be deleted.
func (h *AgentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	org := identity.OrgFromContext(r.Context())
	id := chi.URLParam(r, "agentID")

	agent, err := h.repo.GetAgent(r.Context(), org.ID, id)
	if err != nil {
		slog.Error("Failed to get agent for delete", "error", err, "org_id", org.ID)
		Error(w, http.StatusInternalServerError, "internal error")
		return
	}
	if agent == nil {
		Error(w, http.StatusNotFound, "agent not found")
		return
	}
	if agent.IsBuiltIn() {
		Error(w, http.StatusBadRequest, "builtin agents cannot be deleted")
		return
	}

	if err := h.repo.DeleteAgent(r.Context(), org.ID, id); err != nil {
		storeError(w, err, "")
		return
	}

	h.publish(org.ID, "ai-agent", id, "deleted")
	w.WriteHeader(http.StatusNoContent)
}

// SeedBuiltIn installs the fixed specialist agents into the organization.
// Already-seeded specialists (matched by key) are left untouched.
func (h *AgentHandler) SeedBuiltIn(w http.ResponseWriter, r *http.Request) {
	org := identity.OrgFromContext(r.Context())

	existing, err := h.repo.ListAgents(r.Context(), org.ID)
	if err != nil {
		slog.Error("Failed to list agents for seeding", "error", err, "org_id", org.ID)
		Error(w, http.StatusInternalServerError, "internal error")
		return
	}
	present := make(map[string]bool)
	for _, a := range existing {
		if a.SpecialistKey != "" {
			present[a.SpecialistKey] = true
		}
	}

	seeded := 0
	now := time.Now()
	for _, spec := range domain.BuiltInAgents {
		if present[spec.SpecialistKey] {
			continue
		}
		agent := &domain.AIAgent{
			ID:                   uuid.NewString(),
			OrgID:                org.ID,
			Name:                 spec.Name,
			AgentType:            domain.AgentTypeBuiltIn,
			RoleTitle:            spec.RoleTitle,
			Provider:             "orbitos",
			Model:                "orchestrator-default",
			Personality:          spec.Personality,
			IsSystemProvided:     true,
			CanCallBuiltInAgents: true,
			CanBeOrchestrated:    true,
			SpecialistKey:        spec.SpecialistKey,
			ContextScopes:        spec.ContextScopes,
			SortOrder:            spec.SortOrder,
			CreatedAt:            now,
			UpdatedAt:            now,
		}
		if err := h.repo.CreateAgent(r.Context(), agent); err != nil {
			slog.Error("Failed to seed builtin agent", "error", err, "specialist", spec.SpecialistKey)
			Error(w, http.StatusInternalServerError, "failed to seed builtin agents")
			return
		}
		seeded++
		h.publish(org.ID, "ai-agent", agent.ID, "created")
	}

	slog.Info("Builtin agents seeded", "org_id", org.ID, "seeded", seeded)
	JSON(w, http.StatusOK, map[string]int{"seeded": seeded})
}

// AvailableModels returns the static model catalog.
func (h *AgentHandler) AvailableModels(w http.ResponseWriter, r *http.Request) {
	JSON(w, http.StatusOK, domain.AvailableModels)
}
