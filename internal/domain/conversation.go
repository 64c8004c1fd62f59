package domain

import "time"

// ConversationMode selects how a conversation is driven.
type ConversationMode string

const (
	// ModeOnDemand conversations only respond when a user sends a message.
	ModeOnDemand ConversationMode = "OnDemand"
	// ModeEmergent conversations allow agents to message each other.
	ModeEmergent ConversationMode = "Emergent"
)

// ValidConversationMode reports whether m is a known mode.
func ValidConversationMode(m ConversationMode) bool {
	return m == ModeOnDemand || m == ModeEmergent
}

// ParticipantType distinguishes human and agent participants.
type ParticipantType string

const (
	ParticipantUser  ParticipantType = "user"
	ParticipantAgent ParticipantType = "agent"
)

// Participant is one member of a conversation, either the creating user
// or an AI agent.
type Participant struct {
	Type ParticipantType `json:"type"`
	ID   string          `json:"id"`
	Name string          `json:"name"`
}

// Conversation groups a user with one or more AI agents.
// ParticipantCount is always 1 (the creator) plus the number of agents.
type Conversation struct {
	ID               string           `json:"id"`
	OrgID            string           `json:"orgId"`
	Title            string           `json:"title"`
	Mode             ConversationMode `json:"mode"`
	CreatedBy        string           `json:"createdBy"`
	Participants     []Participant    `json:"participants,omitempty"`
	ParticipantCount int              `json:"participantCount"`
	CreatedAt        time.Time        `json:"createdAt"`
	UpdatedAt        time.Time        `json:"updatedAt"`
}

// Message is a single entry in a conversation transcript.
type Message struct {
	ID             string          `json:"id"`
	ConversationID string          `json:"conversationId"`
	AuthorType     ParticipantType `json:"authorType"`
	AuthorID       string          `json:"authorId"`
	Body           string          `json:"body"`
	CreatedAt      time.Time       `json:"createdAt"`
}
