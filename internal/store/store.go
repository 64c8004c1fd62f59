// Package store provides data persistence interfaces and implementations.
package store

import (
	"context"
	"errors"

	"github.com/orbitos/operations/internal/domain"
)

// ErrNotFound is returned by mutating operations that target a missing row.
// Read operations return (nil, nil) for missing rows instead.
var ErrNotFound = errors.New("not found")

// ErrDuplicate is returned when an insert or update would violate a
// uniqueness rule (agent name per org, role title per org, org slug, ...).
var ErrDuplicate = errors.New("duplicate")

// GoalFilter narrows ListGoals. A nil GoalType matches both kinds.
type GoalFilter struct {
	GoalType *domain.GoalType
}

// Repository defines the persistence interface for all OrbitOS entities.
// Every org-scoped read takes the owning orgID and must never return rows
// belonging to another organization.
type Repository interface {
	// Organizations.
	CreateOrganization(ctx context.Context, org *domain.Organization) error
	GetOrganization(ctx context.Context, id string) (*domain.Organization, error)
	ListOrganizations(ctx context.Context) ([]*domain.Organization, error)
	UpdateOrganization(ctx context.Context, org *domain.Organization) error
	// DeleteOrganization removes the organization and all data it owns.
	DeleteOrganization(ctx context.Context, id string) error

	// Users and memberships.
	CreateUser(ctx context.Context, user *domain.User) error
	GetUser(ctx context.Context, id string) (*domain.User, error)
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)
	ListUsers(ctx context.Context) ([]*domain.User, error)
	UpdateUser(ctx context.Context, user *domain.User) error
	DeleteUser(ctx context.Context, id string) error
	AddMembership(ctx context.Context, userID, orgID string) error
	RemoveMembership(ctx context.Context, userID, orgID string) error

	// AI agents.
	CreateAgent(ctx context.Context, agent *domain.AIAgent) error
	GetAgent(ctx context.Context, orgID, id string) (*domain.AIAgent, error)
	ListAgents(ctx context.Context, orgID string) ([]*domain.AIAgent, error)
	UpdateAgent(ctx context.Context, agent *domain.AIAgent) error
	DeleteAgent(ctx context.Context, orgID, id string) error

	// Conversations. CreateConversation persists the conversation and its
	// participant rows in one transaction.
	CreateConversation(ctx context.Context, conv *domain.Conversation) error
	GetConversation(ctx context.Context, orgID, id string) (*domain.Conversation, error)
	ListConversations(ctx context.Context, orgID string) ([]*domain.Conversation, error)
	DeleteConversation(ctx context.Context, orgID, id string) error
	CreateMessage(ctx context.Context, msg *domain.Message) error
	ListMessages(ctx context.Context, conversationID string) ([]*domain.Message, error)

	// Goals. DeleteGoal cascades from an Objective to its Key Results.
	CreateGoal(ctx context.Context, goal *domain.Goal) error
	GetGoal(ctx context.Context, orgID, id string) (*domain.Goal, error)
	ListGoals(ctx context.Context, orgID string, filter GoalFilter) ([]*domain.Goal, error)
	ListKeyResults(ctx context.Context, parentID string) ([]*domain.Goal, error)
	UpdateGoal(ctx context.Context, goal *domain.Goal) error
	DeleteGoal(ctx context.Context, orgID, id string) error

	// Roles and functions.
	CreateRole(ctx context.Context, role *domain.Role) error
	GetRole(ctx context.Context, orgID, id string) (*domain.Role, error)
	ListRoles(ctx context.Context, orgID string) ([]*domain.Role, error)
	UpdateRole(ctx context.Context, role *domain.Role) error
	DeleteRole(ctx context.Context, orgID, id string) error
	CreateFunction(ctx context.Context, fn *domain.Function) error
	GetFunction(ctx context.Context, orgID, id string) (*domain.Function, error)
	ListFunctions(ctx context.Context, orgID string) ([]*domain.Function, error)
	UpdateFunction(ctx context.Context, fn *domain.Function) error
	DeleteFunction(ctx context.Context, orgID, id string) error

	// Role-function assignment is a single join relation. Assign is
	// idempotent: assigning an existing pair reports created=false and
	// leaves exactly one row. Unassign reports whether a row was removed.
	AssignRoleFunction(ctx context.Context, roleID, functionID string) (created bool, err error)
	UnassignRoleFunction(ctx context.Context, roleID, functionID string) (removed bool, err error)
	ListRoleFunctions(ctx context.Context, roleID string) ([]*domain.Function, error)
	ListFunctionRoles(ctx context.Context, functionID string) ([]*domain.Role, error)
	// ListUnassignedFunctions returns the org's functions not yet assigned
	// to the role, filtered by an optional case-insensitive name query.
	ListUnassignedFunctions(ctx context.Context, orgID, roleID, query string) ([]*domain.Function, error)
	ListUnassignedRoles(ctx context.Context, orgID, functionID, query string) ([]*domain.Role, error)

	// Canvases. CreateCanvas persists the canvas and its nine blocks in
	// one transaction.
	CreateCanvas(ctx context.Context, canvas *domain.Canvas) error
	GetCanvas(ctx context.Context, orgID, id string) (*domain.Canvas, error)
	ListCanvases(ctx context.Context, orgID string, scopeType domain.CanvasScopeType) ([]*domain.Canvas, error)
	DeleteCanvas(ctx context.Context, orgID, id string) error
	UpdateCanvasBlock(ctx context.Context, canvasID string, blockType domain.BlockType, items []string) error

	// Partners, channels, value propositions.
	CreatePartner(ctx context.Context, p *domain.Partner) error
	GetPartner(ctx context.Context, orgID, id string) (*domain.Partner, error)
	ListPartners(ctx context.Context, orgID string) ([]*domain.Partner, error)
	UpdatePartner(ctx context.Context, p *domain.Partner) error
	DeletePartner(ctx context.Context, orgID, id string) error
	CreateChannel(ctx context.Context, c *domain.Channel) error
	GetChannel(ctx context.Context, orgID, id string) (*domain.Channel, error)
	ListChannels(ctx context.Context, orgID string) ([]*domain.Channel, error)
	UpdateChannel(ctx context.Context, c *domain.Channel) error
	DeleteChannel(ctx context.Context, orgID, id string) error
	CreateValueProposition(ctx context.Context, v *domain.ValueProposition) error
	GetValueProposition(ctx context.Context, orgID, id string) (*domain.ValueProposition, error)
	ListValuePropositions(ctx context.Context, orgID string) ([]*domain.ValueProposition, error)
	UpdateValueProposition(ctx context.Context, v *domain.ValueProposition) error
	DeleteValueProposition(ctx context.Context, orgID, id string) error

	// Help articles (global, seeded).
	UpsertHelpArticle(ctx context.Context, a *domain.HelpArticle) error
	GetHelpArticle(ctx context.Context, slug string) (*domain.HelpArticle, error)
	ListHelpArticles(ctx context.Context, category, query string) ([]*domain.HelpArticle, error)

	// Ping verifies database connectivity.
	Ping(ctx context.Context) error

	// Close closes the database connection.
	Close() error
}
