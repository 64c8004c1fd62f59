package domain

import "time"

// AgentType discriminates seeded specialist agents from user-created ones.
type AgentType string

const (
	AgentTypeBuiltIn AgentType = "BuiltIn"
	AgentTypeCustom  AgentType = "Custom"
)

// ValidAgentType reports whether t is a known agent type.
func ValidAgentType(t AgentType) bool {
	return t == AgentTypeBuiltIn || t == AgentTypeCustom
}

// AIAgent is an AI participant configuration scoped to an organization.
// BuiltIn agents are seeded by the system, keep their type for life, and
// cannot be deleted. Custom agents are fully CRUD-able.
type AIAgent struct {
	ID                   string    `json:"id"`
	OrgID                string    `json:"orgId"`
	Name                 string    `json:"name"`
	AgentType            AgentType `json:"agentType"`
	RoleTitle            string    `json:"roleTitle"`
	Provider             string    `json:"provider"`
	Model                string    `json:"model"`
	Personality          string    `json:"personality"`
	IsSystemProvided     bool      `json:"isSystemProvided"`
	CanCallBuiltInAgents bool      `json:"canCallBuiltInAgents"`
	CanBeOrchestrated    bool      `json:"canBeOrchestrated"`
	SpecialistKey        string    `json:"specialistKey,omitempty"`
	ContextScopes        []string  `json:"contextScopes"`
	SortOrder            int       `json:"sortOrder"`
	CreatedAt            time.Time `json:"createdAt"`
	UpdatedAt            time.Time `json:"updatedAt"`
}

// IsBuiltIn reports whether the agent is a seeded system specialist.
func (a *AIAgent) IsBuiltIn() bool {
	return a.AgentType == AgentTypeBuiltIn
}

// ModelInfo describes one entry of the available-models catalog.
type ModelInfo struct {
	Provider      string `json:"provider"`
	ModelID       string `json:"modelId"`
	DisplayName   string `json:"displayName"`
	Description   string `json:"description"`
	ContextWindow int    `json:"contextWindow"`
}

// BuiltInSpec is the immutable definition of one seeded specialist agent.
type BuiltInSpec struct {
	Name          string
	RoleTitle     string
	SpecialistKey string
	Personality   string
	ContextScopes []string
	SortOrder     int
}

// BuiltInAgents is the fixed set of specialists seeded into every
// organization by the seed-builtin operation.
var BuiltInAgents = []BuiltInSpec{
	{
		Name:          "Operations Strategist",
		RoleTitle:     "Chief Operations Advisor",
		SpecialistKey: "ops-strategist",
		Personality:   "Pragmatic, process-oriented, direct.",
		ContextScopes: []string{"roles", "functions", "canvases"},
		SortOrder:     1,
	},
	{
		Name:          "Goal Coach",
		RoleTitle:     "OKR Facilitator",
		SpecialistKey: "goal-coach",
		Personality:   "Encouraging, metric-driven, asks clarifying questions.",
		ContextScopes: []string{"goals"},
		SortOrder:     2,
	},
	{
		Name:          "Business Model Analyst",
		RoleTitle:     "Strategy Analyst",
		SpecialistKey: "bmc-analyst",
		Personality:   "Analytical, skeptical of untested assumptions.",
		ContextScopes: []string{"canvases", "partners", "channels", "value-propositions"},
		SortOrder:     3,
	},
	{
		Name:          "Knowledge Navigator",
		RoleTitle:     "Help Desk Specialist",
		SpecialistKey: "help-navigator",
		Personality:   "Patient, concise, cites help articles.",
		ContextScopes: []string{"help"},
		SortOrder:     4,
	},
}

// AvailableModels is the static model catalog served to the agent editor.
var AvailableModels = []ModelInfo{
	{Provider: "openai", ModelID: "gpt-4o", DisplayName: "GPT-4o", Description: "General-purpose multimodal model.", ContextWindow: 128000},
	{Provider: "openai", ModelID: "gpt-4o-mini", DisplayName: "GPT-4o mini", Description: "Fast, low-cost model for routine tasks.", ContextWindow: 128000},
	{Provider: "anthropic", ModelID: "claude-sonnet-4-20250514", DisplayName: "Claude Sonnet 4", Description: "Balanced model for agent workflows.", ContextWindow: 200000},
	{Provider: "anthropic", ModelID: "claude-haiku-3-5-20241022", DisplayName: "Claude Haiku 3.5", Description: "Low-latency model for short interactions.", ContextWindow: 200000},
	{Provider: "google", ModelID: "gemini-2.0-flash", DisplayName: "Gemini 2.0 Flash", Description: "Fast model with long context.", ContextWindow: 1000000},
}
