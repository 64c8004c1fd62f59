package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/orbitos/operations/internal/domain"
	"github.com/orbitos/operations/internal/shared"
)

const agentColumns = `id, org_id, name, agent_type, role_title, provider, model, personality,
	is_system_provided, can_call_builtin, can_be_orchestrated, specialist_key,
	context_scopes, sort_order, created_at, updated_at`

// CreateAgent inserts a new AI agent. A name collision within the
// organization returns ErrDuplicate.
func (s *SQLiteStore) CreateAgent(ctx context.Context, agent *domain.AIAgent) error {
	scopes, err := encodeStrings(agent.ContextScopes)
	if err != nil {
		return err
	}

	query := `INSERT INTO ai_agents (` + agentColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err = s.db.ExecContext(ctx, query,
		agent.ID, agent.OrgID, agent.Name, agent.AgentType, agent.RoleTitle,
		agent.Provider, agent.Model, agent.Personality,
		agent.IsSystemProvided, agent.CanCallBuiltInAgents, agent.CanBeOrchestrated,
		agent.SpecialistKey, scopes, agent.SortOrder,
		agent.CreatedAt.Unix(), agent.UpdatedAt.Unix())
	if err != nil {
		if shared.IsSQLiteUniqueError(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("insert agent: %w", err)
	}
	return nil
}

// GetAgent retrieves an agent by ID within an organization.
func (s *SQLiteStore) GetAgent(ctx context.Context, orgID, id string) (*domain.AIAgent, error) {
	query := `SELECT ` + agentColumns + ` FROM ai_agents WHERE org_id = ? AND id = ?`
	return scanAgent(s.db.QueryRowContext(ctx, query, orgID, id))
}

// ListAgents returns the organization's agents ordered by sort order, then name.
func (s *SQLiteStore) ListAgents(ctx context.Context, orgID string) ([]*domain.AIAgent, error) {
	query := `SELECT ` + agentColumns + ` FROM ai_agents WHERE org_id = ? ORDER BY sort_order, name`
	rows, err := s.db.QueryContext(ctx, query, orgID)
	if err != nil {
		return nil, fmt.Errorf("query agents: %w", err)
	}
	defer closeRows(rows, "ai_agents")

	var agents []*domain.AIAgent
	for rows.Next() {
		agent, err := scanAgent(rows)
		if err != nil {
			return nil, err
		}
		agents = append(agents, agent)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate agents: %w", err)
	}
	return agents, nil
}

// UpdateAgent updates mutable agent fields. AgentType is written as-is;
// the handler layer rejects type changes for builtin agents.
func (s *SQLiteStore) UpdateAgent(ctx context.Context, agent *domain.AIAgent) error {
	scopes, err := encodeStrings(agent.ContextScopes)
	if err != nil {
		return err
	}

	query := `UPDATE ai_agents SET
		name = ?, agent_type = ?, role_title = ?, provider = ?, model = ?, personality = ?,
		can_call_builtin = ?, can_be_orchestrated = ?, context_scopes = ?, sort_order = ?, updated_at = ?
		WHERE org_id = ? AND id = ?`
	result, err := s.db.ExecContext(ctx, query,
		agent.Name, agent.AgentType, agent.RoleTitle, agent.Provider, agent.Model, agent.Personality,
		agent.CanCallBuiltInAgents, agent.CanBeOrchestrated, scopes, agent.SortOrder, time.Now().Unix(),
		agent.OrgID, agent.ID)
	if err != nil {
		if shared.IsSQLiteUniqueError(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("update agent: %w", err)
	}
	return requireRow(result, "agent")
}

// DeleteAgent removes an agent and its conversation participations.
func (s *SQLiteStore) DeleteAgent(ctx context.Context, orgID, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete agent: %w", err)
	}
	defer rollback(tx, "delete agent")

	result, err := tx.ExecContext(ctx, `DELETE FROM ai_agents WHERE org_id = ? AND id = ?`, orgID, id)
	if err != nil {
		return fmt.Errorf("delete agent: %w", err)
	}
	if err := requireRow(result, "agent"); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM conversation_participants WHERE participant_type = ? AND participant_id = ?`,
		domain.ParticipantAgent, id); err != nil {
		return fmt.Errorf("delete agent participations: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit delete agent: %w", err)
	}
	return nil
}

func scanAgent(row rowScanner) (*domain.AIAgent, error) {
	var agent domain.AIAgent
	var scopes string
	var createdAt, updatedAt int64

	err := row.Scan(
		&agent.ID, &agent.OrgID, &agent.Name, &agent.AgentType, &agent.RoleTitle,
		&agent.Provider, &agent.Model, &agent.Personality,
		&agent.IsSystemProvided, &agent.CanCallBuiltInAgents, &agent.CanBeOrchestrated,
		&agent.SpecialistKey, &scopes, &agent.SortOrder, &createdAt, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan agent row: %w", err)
	}

	agent.ContextScopes, err = decodeStrings(scopes)
	if err != nil {
		return nil, err
	}
	agent.CreatedAt = time.Unix(createdAt, 0)
	agent.UpdatedAt = time.Unix(updatedAt, 0)
	return &agent, nil
}
