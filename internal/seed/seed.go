// Package seed loads baseline data: help articles and a bootstrap
// super-admin with a first organization.
package seed

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/orbitos/operations/internal/domain"
	"github.com/orbitos/operations/internal/store"
)

// helpArticles is the built-in knowledge base shown in the help sidebar.
// Seeding upserts by slug, so re-running refreshes content in place.
var helpArticles = []domain.HelpArticle{
	{
		Slug:      "getting-started",
		Title:     "Getting started with OrbitOS Operations",
		Category:  "basics",
		SortOrder: 0,
		Body: "OrbitOS Operations brings your AI agents, goals, roles and " +
			"business model into one workspace. Pick an organization from the " +
			"switcher, then use the sidebar to navigate between modules.",
	},
	{
		Slug:      "ai-agents",
		Title:     "Working with AI agents",
		Category:  "agents",
		SortOrder: 0,
		Body: "Built-in agents cover strategy, goals, business modelling and " +
			"navigation. They cannot be deleted or changed into custom agents. " +
			"Create custom agents for anything else; names must be unique " +
			"within your organization.",
	},
	{
		Slug:      "conversations",
		Title:     "Starting a conversation",
		Category:  "agents",
		SortOrder: 1,
		Body: "A conversation needs a title and at least one agent. You are " +
			"always a participant, so a conversation with two agents shows " +
			"three participants.",
	},
	{
		Slug:      "okr-goals",
		Title:     "Objectives and Key Results",
		Category:  "goals",
		SortOrder: 0,
		Body: "Objectives hold Key Results. Each Key Result tracks a current " +
			"value against a target; an Objective's progress is the average of " +
			"its Key Results. The overview page aggregates progress across all " +
			"Objectives.",
	},
	{
		Slug:      "roles-functions",
		Title:     "Assigning functions to roles",
		Category:  "organization",
		SortOrder: 0,
		Body: "Role-function assignments are symmetric: attach a function from " +
			"a role's page or attach a role from a function's page, and both " +
			"views update. Removing the assignment from either side removes it " +
			"everywhere.",
	},
	{
		Slug:      "business-model-canvas",
		Title:     "Business Model Canvas",
		Category:  "operations",
		SortOrder: 0,
		Body: "Every canvas has exactly nine blocks, from key partners through " +
			"cost structure. Blocks are created with the canvas and can only " +
			"have their items edited, never added or removed.",
	},
	{
		Slug:      "admin-organizations",
		Title:     "Managing organizations and users",
		Category:  "admin",
		SortOrder: 0,
		Body: "Super admins can create organizations, invite users and manage " +
			"memberships from the admin area. Deleting an organization removes " +
			"all of its data.",
	},
}

// HelpArticles upserts the built-in knowledge base and returns the number
// of articles written.
func HelpArticles(ctx context.Context, repo store.Repository) (int, error) {
	now := time.Now()
	for i := range helpArticles {
		a := helpArticles[i]
		a.ID = uuid.NewString()
		a.CreatedAt = now
		a.UpdatedAt = now
		if err := repo.UpsertHelpArticle(ctx, &a); err != nil {
			return i, fmt.Errorf("seed help article %q: %w", a.Slug, err)
		}
	}
	return len(helpArticles), nil
}

// Bootstrap ensures a super-admin user and a first organization exist so a
// fresh deployment is usable. Returns the admin user; idempotent by email.
func Bootstrap(ctx context.Context, repo store.Repository, email, orgName string) (*domain.User, error) {
	existing, err := repo.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("lookup bootstrap admin: %w", err)
	}
	if existing != nil {
		return existing, nil
	}

	now := time.Now()
	org := &domain.Organization{
		ID:        uuid.NewString(),
		Name:      orgName,
		Slug:      "default",
		CreatedAt: now,
		UpdatedAt: now,
	}
	memberships := []string{org.ID}
	switch err := repo.CreateOrganization(ctx, org); {
	case err == nil:
	case errors.Is(err, store.ErrDuplicate):
		// Default org already exists; super admins see every org anyway.
		memberships = []string{}
	default:
		return nil, fmt.Errorf("create bootstrap organization: %w", err)
	}

	admin := &domain.User{
		ID:              uuid.NewString(),
		Email:           email,
		DisplayName:     "Administrator",
		IsSuperAdmin:    true,
		OrganizationIDs: memberships,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := repo.CreateUser(ctx, admin); err != nil {
		return nil, fmt.Errorf("create bootstrap admin: %w", err)
	}
	return admin, nil
}
