package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/orbitos/operations/internal/domain"
)

func newTestStore(t *testing.T) Repository {
	t.Helper()
	s, err := NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Errorf("Failed to close store: %v", err)
		}
	})
	return s
}

func makeOrg(t *testing.T, s Repository, name, slug string) *domain.Organization {
	t.Helper()
	now := time.Now()
	org := &domain.Organization{ID: uuid.NewString(), Name: name, Slug: slug, CreatedAt: now, UpdatedAt: now}
	if err := s.CreateOrganization(context.Background(), org); err != nil {
		t.Fatalf("Failed to create organization: %v", err)
	}
	return org
}

func makeAgent(t *testing.T, s Repository, orgID, name string, agentType domain.AgentType) *domain.AIAgent {
	t.Helper()
	now := time.Now()
	agent := &domain.AIAgent{
		ID:            uuid.NewString(),
		OrgID:         orgID,
		Name:          name,
		AgentType:     agentType,
		ContextScopes: []string{},
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.CreateAgent(context.Background(), agent); err != nil {
		t.Fatalf("Failed to create agent: %v", err)
	}
	return agent
}

func TestOrganizationCRUD(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	org := makeOrg(t, s, "Acme", "acme")

	got, err := s.GetOrganization(ctx, org.ID)
	if err != nil {
		t.Fatalf("Failed to get organization: %v", err)
	}
	if got == nil || got.Name != "Acme" || got.Slug != "acme" {
		t.Errorf("Unexpected organization: %+v", got)
	}

	// Missing rows read as nil, nil.
	missing, err := s.GetOrganization(ctx, "nope")
	if err != nil || missing != nil {
		t.Errorf("Expected nil, nil for missing org, got %v, %v", missing, err)
	}

	// Slug is unique.
	dup := &domain.Organization{ID: uuid.NewString(), Name: "Other", Slug: "acme", CreatedAt: time.Now(), UpdatedAt: time.Now()}
	if err := s.CreateOrganization(ctx, dup); !errors.Is(err, ErrDuplicate) {
		t.Errorf("Expected ErrDuplicate, got %v", err)
	}

	org.Name = "Acme Corp"
	if err := s.UpdateOrganization(ctx, org); err != nil {
		t.Fatalf("Failed to update organization: %v", err)
	}
	got, _ = s.GetOrganization(ctx, org.ID)
	if got.Name != "Acme Corp" {
		t.Errorf("Expected updated name, got %q", got.Name)
	}
}

func TestDeleteOrganizationCascades(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	org := makeOrg(t, s, "Acme", "acme")
	agent := makeAgent(t, s, org.ID, "Researcher", domain.AgentTypeCustom)

	if err := s.DeleteOrganization(ctx, org.ID); err != nil {
		t.Fatalf("Failed to delete organization: %v", err)
	}

	got, err := s.GetAgent(ctx, org.ID, agent.ID)
	if err != nil {
		t.Fatalf("Failed to get agent: %v", err)
	}
	if got != nil {
		t.Error("Expected agent to be removed with its organization")
	}

	if err := s.DeleteOrganization(ctx, org.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound on second delete, got %v", err)
	}
}

func TestUserMemberships(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	orgA := makeOrg(t, s, "A", "a")
	orgB := makeOrg(t, s, "B", "b")

	now := time.Now()
	user := &domain.User{
		ID:              uuid.NewString(),
		Email:           "dev@example.com",
		DisplayName:     "Dev",
		OrganizationIDs: []string{orgA.ID},
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.CreateUser(ctx, user); err != nil {
		t.Fatalf("Failed to create user: %v", err)
	}

	got, err := s.GetUserByEmail(ctx, "dev@example.com")
	if err != nil || got == nil {
		t.Fatalf("Failed to get user by email: %v", err)
	}
	if len(got.OrganizationIDs) != 1 || got.OrganizationIDs[0] != orgA.ID {
		t.Errorf("Unexpected memberships: %v", got.OrganizationIDs)
	}

	if err := s.AddMembership(ctx, user.ID, orgB.ID); err != nil {
		t.Fatalf("Failed to add membership: %v", err)
	}
	// Adding twice is idempotent.
	if err := s.AddMembership(ctx, user.ID, orgB.ID); err != nil {
		t.Fatalf("Second add failed: %v", err)
	}
	got, _ = s.GetUser(ctx, user.ID)
	if len(got.OrganizationIDs) != 2 {
		t.Errorf("Expected 2 memberships, got %d", len(got.OrganizationIDs))
	}

	if err := s.RemoveMembership(ctx, user.ID, orgB.ID); err != nil {
		t.Fatalf("Failed to remove membership: %v", err)
	}
	if err := s.RemoveMembership(ctx, user.ID, orgB.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}

	// Email is unique.
	clone := &domain.User{ID: uuid.NewString(), Email: "dev@example.com", CreatedAt: now, UpdatedAt: now}
	if err := s.CreateUser(ctx, clone); !errors.Is(err, ErrDuplicate) {
		t.Errorf("Expected ErrDuplicate, got %v", err)
	}
}

func TestAgentNameUniquePerOrg(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	orgA := makeOrg(t, s, "A", "a")
	orgB := makeOrg(t, s, "B", "b")

	makeAgent(t, s, orgA.ID, "Researcher", domain.AgentTypeCustom)

	dup := &domain.AIAgent{
		ID: uuid.NewString(), OrgID: orgA.ID, Name: "Researcher",
		AgentType: domain.AgentTypeCustom, ContextScopes: []string{},
		CreatedAt: time.Now(), UpdatedAt: time.Now(),
	}
	if err := s.CreateAgent(ctx, dup); !errors.Is(err, ErrDuplicate) {
		t.Errorf("Expected ErrDuplicate in same org, got %v", err)
	}

	// Same name in a different org is fine.
	makeAgent(t, s, orgB.ID, "Researcher", domain.AgentTypeCustom)
}

func TestAgentTenantScoping(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	orgA := makeOrg(t, s, "A", "a")
	orgB := makeOrg(t, s, "B", "b")
	agent := makeAgent(t, s, orgA.ID, "Researcher", domain.AgentTypeCustom)

	got, err := s.GetAgent(ctx, orgB.ID, agent.ID)
	if err != nil {
		t.Fatalf("Failed to get agent: %v", err)
	}
	if got != nil {
		t.Error("Expected agent to be invisible from another organization")
	}

	if err := s.DeleteAgent(ctx, orgB.ID, agent.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound deleting across orgs, got %v", err)
	}
}

func TestRoleFunctionAssignment(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	org := makeOrg(t, s, "Acme", "acme")
	now := time.Now()

	role := &domain.Role{ID: uuid.NewString(), OrgID: org.ID, Title: "Head of Ops", CreatedAt: now, UpdatedAt: now}
	if err := s.CreateRole(ctx, role); err != nil {
		t.Fatalf("Failed to create role: %v", err)
	}
	fn := &domain.Function{ID: uuid.NewString(), OrgID: org.ID, Name: "Hiring", CreatedAt: now, UpdatedAt: now}
	if err := s.CreateFunction(ctx, fn); err != nil {
		t.Fatalf("Failed to create function: %v", err)
	}

	created, err := s.AssignRoleFunction(ctx, role.ID, fn.ID)
	if err != nil {
		t.Fatalf("Failed to assign: %v", err)
	}
	if !created {
		t.Error("Expected first assign to report created")
	}

	// Assigning again leaves exactly one row.
	created, err = s.AssignRoleFunction(ctx, role.ID, fn.ID)
	if err != nil {
		t.Fatalf("Second assign failed: %v", err)
	}
	if created {
		t.Error("Expected second assign to be a no-op")
	}

	// Both directions see the single assignment.
	fns, err := s.ListRoleFunctions(ctx, role.ID)
	if err != nil || len(fns) != 1 || fns[0].ID != fn.ID {
		t.Errorf("Expected one function via role, got %v (%v)", fns, err)
	}
	roles, err := s.ListFunctionRoles(ctx, fn.ID)
	if err != nil || len(roles) != 1 || roles[0].ID != role.ID {
		t.Errorf("Expected one role via function, got %v (%v)", roles, err)
	}

	// Assigned pairs drop out of the unassigned lists.
	unassigned, err := s.ListUnassignedFunctions(ctx, org.ID, role.ID, "")
	if err != nil || len(unassigned) != 0 {
		t.Errorf("Expected no unassigned functions, got %v (%v)", unassigned, err)
	}

	removed, err := s.UnassignRoleFunction(ctx, role.ID, fn.ID)
	if err != nil || !removed {
		t.Fatalf("Failed to unassign: removed=%v err=%v", removed, err)
	}
	removed, err = s.UnassignRoleFunction(ctx, role.ID, fn.ID)
	if err != nil || removed {
		t.Errorf("Expected second unassign to be a no-op: removed=%v err=%v", removed, err)
	}

	roles, _ = s.ListFunctionRoles(ctx, fn.ID)
	if len(roles) != 0 {
		t.Error("Expected unassign to be visible from the function side")
	}
}

func TestDeleteRoleCascadesAssignments(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	org := makeOrg(t, s, "Acme", "acme")
	now := time.Now()
	role := &domain.Role{ID: uuid.NewString(), OrgID: org.ID, Title: "Head of Ops", CreatedAt: now, UpdatedAt: now}
	fn := &domain.Function{ID: uuid.NewString(), OrgID: org.ID, Name: "Hiring", CreatedAt: now, UpdatedAt: now}
	if err := s.CreateRole(ctx, role); err != nil {
		t.Fatal(err)
	}
	if err := s.CreateFunction(ctx, fn); err != nil {
		t.Fatal(err)
	}
	if _, err := s.AssignRoleFunction(ctx, role.ID, fn.ID); err != nil {
		t.Fatal(err)
	}

	if err := s.DeleteRole(ctx, org.ID, role.ID); err != nil {
		t.Fatalf("Failed to delete role: %v", err)
	}
	roles, err := s.ListFunctionRoles(ctx, fn.ID)
	if err != nil || len(roles) != 0 {
		t.Errorf("Expected assignment to go with the role, got %v (%v)", roles, err)
	}
}

func TestCanvasBlocks(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	org := makeOrg(t, s, "Acme", "acme")
	now := time.Now()

	canvas := &domain.Canvas{
		ID:        uuid.NewString(),
		OrgID:     org.ID,
		Name:      "Company Canvas",
		ScopeType: domain.ScopeCompany,
		CreatedAt: now,
		UpdatedAt: now,
	}
	for i, bt := range domain.BlockTypes {
		canvas.Blocks = append(canvas.Blocks, &domain.CanvasBlock{
			ID: uuid.NewString(), CanvasID: canvas.ID, BlockType: bt,
			Position: i, Items: []string{}, UpdatedAt: now,
		})
	}
	if err := s.CreateCanvas(ctx, canvas); err != nil {
		t.Fatalf("Failed to create canvas: %v", err)
	}

	got, err := s.GetCanvas(ctx, org.ID, canvas.ID)
	if err != nil || got == nil {
		t.Fatalf("Failed to get canvas: %v", err)
	}
	if len(got.Blocks) != 9 {
		t.Fatalf("Expected 9 blocks, got %d", len(got.Blocks))
	}
	for i, block := range got.Blocks {
		if block.BlockType != domain.BlockTypes[i] {
			t.Errorf("Block %d: expected %q, got %q", i, domain.BlockTypes[i], block.BlockType)
		}
		if block.Items == nil {
			t.Errorf("Block %d: expected non-nil items", i)
		}
	}

	items := []string{"Cloud provider", "Payment processor"}
	if err := s.UpdateCanvasBlock(ctx, canvas.ID, domain.BlockKeyPartners, items); err != nil {
		t.Fatalf("Failed to update block: %v", err)
	}
	got, _ = s.GetCanvas(ctx, org.ID, canvas.ID)
	if len(got.Blocks[0].Items) != 2 || got.Blocks[0].Items[0] != "Cloud provider" {
		t.Errorf("Unexpected block items: %v", got.Blocks[0].Items)
	}
}

func TestGoalsFilterAndCascade(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	org := makeOrg(t, s, "Acme", "acme")
	now := time.Now()

	obj := &domain.Goal{ID: uuid.NewString(), OrgID: org.ID, GoalType: domain.GoalObjective, Title: "Grow revenue", CreatedAt: now, UpdatedAt: now}
	if err := s.CreateGoal(ctx, obj); err != nil {
		t.Fatalf("Failed to create objective: %v", err)
	}
	kr := &domain.Goal{
		ID: uuid.NewString(), OrgID: org.ID, GoalType: domain.GoalKeyResult,
		Title: "Close 10 deals", ParentID: obj.ID,
		CurrentValue: 5, TargetValue: 10, CreatedAt: now, UpdatedAt: now,
	}
	if err := s.CreateGoal(ctx, kr); err != nil {
		t.Fatalf("Failed to create key result: %v", err)
	}

	objType := domain.GoalObjective
	objectives, err := s.ListGoals(ctx, org.ID, GoalFilter{GoalType: &objType})
	if err != nil || len(objectives) != 1 {
		t.Errorf("Expected 1 objective, got %d (%v)", len(objectives), err)
	}

	krs, err := s.ListKeyResults(ctx, obj.ID)
	if err != nil || len(krs) != 1 || krs[0].ID != kr.ID {
		t.Errorf("Expected 1 key result, got %v (%v)", krs, err)
	}

	if err := s.DeleteGoal(ctx, org.ID, obj.ID); err != nil {
		t.Fatalf("Failed to delete objective: %v", err)
	}
	got, err := s.GetGoal(ctx, org.ID, kr.ID)
	if err != nil || got != nil {
		t.Errorf("Expected key result to be removed with its objective, got %v (%v)", got, err)
	}
}

func TestConversationParticipants(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	org := makeOrg(t, s, "Acme", "acme")
	agent := makeAgent(t, s, org.ID, "Researcher", domain.AgentTypeCustom)
	now := time.Now()

	conv := &domain.Conversation{
		ID:    uuid.NewString(),
		OrgID: org.ID,
		Title: "Planning",
		Mode:  domain.ModeOnDemand,
		Participants: []domain.Participant{
			{Type: domain.ParticipantUser, ID: "user-1", Name: "Dev"},
			{Type: domain.ParticipantAgent, ID: agent.ID, Name: agent.Name},
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.CreateConversation(ctx, conv); err != nil {
		t.Fatalf("Failed to create conversation: %v", err)
	}

	got, err := s.GetConversation(ctx, org.ID, conv.ID)
	if err != nil || got == nil {
		t.Fatalf("Failed to get conversation: %v", err)
	}
	if got.ParticipantCount != 2 {
		t.Errorf("Expected participant count 2, got %d", got.ParticipantCount)
	}

	msg := &domain.Message{
		ID: uuid.NewString(), ConversationID: conv.ID,
		AuthorType: domain.ParticipantUser, AuthorID: "user-1",
		Body: "Hello", CreatedAt: now,
	}
	if err := s.CreateMessage(ctx, msg); err != nil {
		t.Fatalf("Failed to create message: %v", err)
	}

	if err := s.DeleteConversation(ctx, org.ID, conv.ID); err != nil {
		t.Fatalf("Failed to delete conversation: %v", err)
	}
	msgs, err := s.ListMessages(ctx, conv.ID)
	if err != nil || len(msgs) != 0 {
		t.Errorf("Expected transcript to go with the conversation, got %v (%v)", msgs, err)
	}
}

func TestHelpArticleUpsert(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now()

	a := &domain.HelpArticle{
		ID: uuid.NewString(), Slug: "getting-started", Title: "Getting started",
		Body: "v1", Category: "basics", CreatedAt: now, UpdatedAt: now,
	}
	if err := s.UpsertHelpArticle(ctx, a); err != nil {
		t.Fatalf("Failed to upsert article: %v", err)
	}

	a2 := &domain.HelpArticle{
		ID: uuid.NewString(), Slug: "getting-started", Title: "Getting started",
		Body: "v2", Category: "basics", CreatedAt: now, UpdatedAt: now,
	}
	if err := s.UpsertHelpArticle(ctx, a2); err != nil {
		t.Fatalf("Failed to re-upsert article: %v", err)
	}

	all, err := s.ListHelpArticles(ctx, "", "")
	if err != nil || len(all) != 1 {
		t.Fatalf("Expected 1 article, got %d (%v)", len(all), err)
	}
	if all[0].Body != "v2" {
		t.Errorf("Expected refreshed body, got %q", all[0].Body)
	}

	// Search is case-insensitive over title and body.
	hits, err := s.ListHelpArticles(ctx, "", "GETTING")
	if err != nil || len(hits) != 1 {
		t.Errorf("Expected search hit, got %d (%v)", len(hits), err)
	}
	none, err := s.ListHelpArticles(ctx, "other-category", "")
	if err != nil || len(none) != 0 {
		t.Errorf("Expected no hits for unknown category, got %d (%v)", len(none), err)
	}
}
