package api

import (
	"net/http"
	"testing"

	"github.com/orbitos/operations/internal/domain"
)

func createCustomAgent(t *testing.T, env *testEnv, orgID, userID, name string) *domain.AIAgent {
	t.Helper()
	w := env.do(http.MethodPost, "/api/organizations/"+orgID+"/ai-agents/", userID, map[string]any{"name": name})
	wantStatus(t, w, http.StatusCreated)
	return decodeBody[*domain.AIAgent](t, w)
}

func TestCreateConversationParticipantCount(t *testing.T) {
	env := newTestEnv(t)
	org := env.createOrg("Acme", "acme")
	user := env.createUser("dev@example.com", false, org.ID)
	a1 := createCustomAgent(t, env, org.ID, user.ID, "Researcher")
	a2 := createCustomAgent(t, env, org.ID, user.ID, "Writer")
	base := "/api/organizations/" + org.ID + "/conversations"

	w := env.do(http.MethodPost, base+"/", user.ID, map[string]any{
		"title":      "Planning",
		"aiAgentIds": []string{a1.ID, a2.ID},
	})
	wantStatus(t, w, http.StatusCreated)
	conv := decodeBody[*domain.Conversation](t, w)

	// The creating user plus both agents.
	if conv.ParticipantCount != 3 {
		t.Errorf("Expected participant count 3, got %d", conv.ParticipantCount)
	}
	if len(conv.Participants) != 3 {
		t.Errorf("Expected 3 participants, got %d", len(conv.Participants))
	}
	if conv.Participants[0].Type != domain.ParticipantUser || conv.Participants[0].ID != user.ID {
		t.Errorf("Expected the creator first, got %+v", conv.Participants[0])
	}
	if conv.Mode != domain.ModeOnDemand {
		t.Errorf("Expected OnDemand default mode, got %q", conv.Mode)
	}
}

func TestCreateConversationValidation(t *testing.T) {
	env := newTestEnv(t)
	org := env.createOrg("Acme", "acme")
	other := env.createOrg("Other", "other")
	user := env.createUser("dev@example.com", false, org.ID, other.ID)
	agent := createCustomAgent(t, env, org.ID, user.ID, "Researcher")
	base := "/api/organizations/" + org.ID + "/conversations"

	// Title required.
	w := env.do(http.MethodPost, base+"/", user.ID, map[string]any{
		"title": "", "aiAgentIds": []string{agent.ID},
	})
	wantStatus(t, w, http.StatusBadRequest)

	// At least one agent.
	w = env.do(http.MethodPost, base+"/", user.ID, map[string]any{
		"title": "Planning", "aiAgentIds": []string{},
	})
	wantStatus(t, w, http.StatusBadRequest)

	// Duplicate agent IDs.
	w = env.do(http.MethodPost, base+"/", user.ID, map[string]any{
		"title": "Planning", "aiAgentIds": []string{agent.ID, agent.ID},
	})
	wantStatus(t, w, http.StatusBadRequest)

	// Unknown agent.
	w = env.do(http.MethodPost, base+"/", user.ID, map[string]any{
		"title": "Planning", "aiAgentIds": []string{"nope"},
	})
	wantStatus(t, w, http.StatusBadRequest)

	// Agents from another organization are unknown here.
	foreign := createCustomAgent(t, env, other.ID, user.ID, "Outsider")
	w = env.do(http.MethodPost, base+"/", user.ID, map[string]any{
		"title": "Planning", "aiAgentIds": []string{foreign.ID},
	})
	wantStatus(t, w, http.StatusBadRequest)

	// Bad mode.
	w = env.do(http.MethodPost, base+"/", user.ID, map[string]any{
		"title": "Planning", "mode": "Telepathic", "aiAgentIds": []string{agent.ID},
	})
	wantStatus(t, w, http.StatusBadRequest)
}

func TestConversationMessages(t *testing.T) {
	env := newTestEnv(t)
	org := env.createOrg("Acme", "acme")
	user := env.createUser("dev@example.com", false, org.ID)
	agent := createCustomAgent(t, env, org.ID, user.ID, "Researcher")
	base := "/api/organizations/" + org.ID + "/conversations"

	w := env.do(http.MethodPost, base+"/", user.ID, map[string]any{
		"title": "Planning", "aiAgentIds": []string{agent.ID},
	})
	wantStatus(t, w, http.StatusCreated)
	conv := decodeBody[*domain.Conversation](t, w)

	w = env.do(http.MethodPost, base+"/"+conv.ID+"/messages", user.ID, map[string]any{"body": "Hello"})
	wantStatus(t, w, http.StatusCreated)
	msg := decodeBody[*domain.Message](t, w)
	if msg.AuthorID != user.ID || msg.AuthorType != domain.ParticipantUser {
		t.Errorf("Unexpected message author: %+v", msg)
	}

	// Empty body rejected.
	w = env.do(http.MethodPost, base+"/"+conv.ID+"/messages", user.ID, map[string]any{"body": "  "})
	wantStatus(t, w, http.StatusBadRequest)

	w = env.do(http.MethodGet, base+"/"+conv.ID+"/messages", user.ID, nil)
	wantStatus(t, w, http.StatusOK)
	msgs := decodeBody[[]*domain.Message](t, w)
	if len(msgs) != 1 || msgs[0].Body != "Hello" {
		t.Errorf("Unexpected transcript: %+v", msgs)
	}

	// Missing conversation.
	w = env.do(http.MethodGet, base+"/nope/messages", user.ID, nil)
	wantStatus(t, w, http.StatusNotFound)

	// Delete removes the conversation.
	w = env.do(http.MethodDelete, base+"/"+conv.ID, user.ID, nil)
	wantStatus(t, w, http.StatusNoContent)
	w = env.do(http.MethodGet, base+"/"+conv.ID, user.ID, nil)
	wantStatus(t, w, http.StatusNotFound)
}
