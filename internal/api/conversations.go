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

// ConversationHandler handles conversation endpoints.
type ConversationHandler struct {
	*Handler
}

// NewConversationHandler creates a new conversation handler.
func NewConversationHandler(base *Handler) *ConversationHandler {
	return &ConversationHandler{Handler: base}
}

// RegisterRoutes registers conversation routes on an org-scoped router.
func (h *ConversationHandler) RegisterRoutes(r chi.Router) {
	r.Route("/conversations", func(r chi.Router) {
		r.Get("/", h.List)
		r.Post("/", h.Create)
		r.Get("/{conversationID}", h.Get)
		r.Delete("/{conversationID}", h.Delete)
		r.Get("/{conversationID}/messages", h.ListMessages)
		r.Post("/{conversationID}/messages", h.CreateMessage)
	})
}

type createConversationRequest struct {
	Title      string   `json:"title"`
	Mode       string   `json:"mode"`
	AIAgentIDs []string `json:"aiAgentIds"`
}

type createMessageRequest struct {
	Body string `json:"body"`
}

// List returns the organization's conversations.
func (h *ConversationHandler) List(w http.ResponseWriter, r *http.Request) {
	org := identity.OrgFromContext(r.Context())
	convs, err := h.repo.ListConversations(r.Context(), org.ID)
	if err != nil {
		slog.Error("Failed to list conversations", "error", err, "org_id", org.ID)
		Error(w, http.StatusInternalServerError, "internal error")
		return
	}
	if convs == nil {
		convs = []*domain.Conversation{}
	}
	JSON(w, http.StatusOK, convs)
}

// Create starts a conversation between the requesting user and the listed
// agents. The participant count is always 1 + len(aiAgentIds).
func (h *ConversationHandler) Create(w http.ResponseWriter, r *http.Request) {
	org := identity.OrgFromContext(r.Context())
	user := identity.UserFromContext(r.Context())

	var req createConversationRequest
	if !decode(w, r, &req) {
		return
	}
	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		Error(w, http.StatusBadRequest, "title is required")
		return
	}
	if len(req.AIAgentIDs) == 0 {
		Error(w, http.StatusBadRequest, "at least one agent is required")
		return
	}
	mode := domain.ConversationMode(req.Mode)
	if req.Mode == "" {
		mode = domain.ModeOnDemand
	}
	if !domain.ValidConversationMode(mode) {
		Error(w, http.StatusBadRequest, "invalid conversation mode")
		return
	}

	// Every agent must exist inside this organization.
	participants := []domain.Participant{{
		Type: domain.ParticipantUser,
		ID:   user.ID,
		Name: user.DisplayName,
	}}
	seen := make(map[string]bool)
	for _, agentID := range req.AIAgentIDs {
		if seen[agentID] {
			Error(w, http.StatusBadRequest, "duplicate agent id")
			return
		}
		seen[agentID] = true

		agent, err := h.repo.GetAgent(r.Context(), org.ID, agentID)
		if err != nil {
			slog.Error("Failed to resolve agent for conversation", "error", err, "org_id", org.ID)
			Error(w, http.StatusInternalServerError, "internal error")
			return
		}
		if agent == nil {
			Error(w, http.StatusBadRequest, "unknown agent: "+agentID)
			return
		}
		participants = append(participants, domain.Participant{
			Type: domain.ParticipantAgent,
			ID:   agent.ID,
			Name: agent.Name,
		})
	}

	now := time.Now()
	conv := &domain.Conversation{
		ID:               uuid.NewString(),
		OrgID:            org.ID,
		Title:            req.Title,
		Mode:             mode,
		CreatedBy:        user.ID,
		Participants:     participants,
		ParticipantCount: len(participants),
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	if err := h.repo.CreateConversation(r.Context(), conv); err != nil {
		slog.Error("Failed to create conversation", "error", err, "org_id", org.ID)
		Error(w, http.StatusInternalServerError, "internal error")
		return
	}

	h.publish(org.ID, "conversation", conv.ID, "created")
	JSON(w, http.StatusCreated, conv)
}

// Get returns a conversation with its participants.
func (h *ConversationHandler) Get(w http.ResponseWriter, r *http.Request) {
	org := identity.OrgFromContext(r.Context())
	conv, err := h.repo.GetConversation(r.Context(), org.ID, chi.URLParam(r, "conversationID"))
	if err != nil {
		slog.Error("Failed to get conversation", "error", err, "org_id", org.ID)
		Error(w, http.StatusInternalServerError, "internal error")
		return
	}
	if conv == nil {
		Error(w, http.StatusNotFound, "conversation not found")
		return
	}
	JSON(w, http.StatusOK, conv)
}

// Delete removes a conversation and its transcript.
func (h *ConversationHandler) Delete(w http.ResponseWriter, r *http.Request) {
	org := identity.OrgFromContext(r.Context())
	id := chi.URLParam(r, "conversationID")

	if err := h.repo.DeleteConversation(r.Context(), org.ID, id); err != nil {
		storeError(w, err, "")
		return
	}

	h.publish(org.ID, "conversation", id, "deleted")
	w.WriteHeader(http.StatusNoContent)
}

// CreateMessage appends a user message to the transcript.
func (h *ConversationHandler) CreateMessage(w http.ResponseWriter, r *http.Request) {
	org := identity.OrgFromContext(r.Context())
	user := identity.UserFromContext(r.Context())
	conversationID := chi.URLParam(r, "conversationID")

	conv, err := h.repo.GetConversation(r.Context(), org.ID, conversationID)
	if err != nil {
		slog.Error("Failed to get conversation for message", "error", err, "org_id", org.ID)
		Error(w, http.StatusInternalServerError, "internal error")
		return
	}
	if conv == nil {
		Error(w, http.StatusNotFound, "conversation not found")
		return
	}

	var req createMessageRequest
	if !decode(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Body) == "" {
		Error(w, http.StatusBadRequest, "body is required")
		return
	}

	msg := &domain.Message{
		ID:             uuid.NewString(),
		ConversationID: conv.ID,
		AuthorType:     domain.ParticipantUser,
		AuthorID:       user.ID,
		Body:           req.Body,
		CreatedAt:      time.Now(),
	}
	if err := h.repo.CreateMessage(r.Context(), msg); err != nil {
		slog.Error("Failed to create message", "error", err, "conversation_id", conv.ID)
		Error(w, http.StatusInternalServerError, "internal error")
		return
	}

	h.publish(org.ID, "message", msg.ID, "created")
	JSON(w, http.StatusCreated, msg)
}

// ListMessages returns a conversation's transcript.
func (h *ConversationHandler) ListMessages(w http.ResponseWriter, r *http.Request) {
	org := identity.OrgFromContext(r.Context())
	conversationID := chi.URLParam(r, "conversationID")

	conv, err := h.repo.GetConversation(r.Context(), org.ID, conversationID)
	if err != nil {
		slog.Error("Failed to get conversation for transcript", "error", err, "org_id", org.ID)
		Error(w, http.StatusInternalServerError, "internal error")
		return
	}
	if conv == nil {
		Error(w, http.StatusNotFound, "conversation not found")
		return
	}

	msgs, err := h.repo.ListMessages(r.Context(), conv.ID)
	if err != nil {
		slog.Error("Failed to list messages", "error", err, "conversation_id", conv.ID)
		Error(w, http.StatusInternalServerError, "internal error")
		return
	}
	if msgs == nil {
		msgs = []*domain.Message{}
	}
	JSON(w, http.StatusOK, msgs)
}
