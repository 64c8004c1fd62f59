package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/orbitos/operations/internal/domain"
)

const goalColumns = `id, org_id, goal_type, title, description, parent_id,
	current_value, target_value, unit, status, due_at, created_at, updated_at`

// CreateGoal inserts an Objective or a Key Result.
func (s *SQLiteStore) CreateGoal(ctx context.Context, goal *domain.Goal) error {
	query := `INSERT INTO goals (` + goalColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := s.db.ExecContext(ctx, query,
		goal.ID, goal.OrgID, goal.GoalType, goal.Title, goal.Description,
		nullString(goal.ParentID), goal.CurrentValue, goal.TargetValue,
		goal.Unit, goal.Status, nullUnix(goal.DueAt),
		goal.CreatedAt.Unix(), goal.UpdatedAt.Unix())
	if err != nil {
		return fmt.Errorf("insert goal: %w", err)
	}
	return nil
}

// GetGoal retrieves a goal by ID within an organization.
func (s *SQLiteStore) GetGoal(ctx context.Context, orgID, id string) (*domain.Goal, error) {
	query := `SELECT ` + goalColumns + ` FROM goals WHERE org_id = ? AND id = ?`
	return scanGoal(s.db.QueryRowContext(ctx, query, orgID, id))
}

// ListGoals returns the organization's goals, optionally filtered by type.
func (s *SQLiteStore) ListGoals(ctx context.Context, orgID string, filter GoalFilter) ([]*domain.Goal, error) {
	query := `SELECT ` + goalColumns + ` FROM goals WHERE org_id = ?`
	args := []any{orgID}
	if filter.GoalType != nil {
		query += ` AND goal_type = ?`
		args = append(args, *filter.GoalType)
	}
	query += ` ORDER BY created_at, id`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query goals: %w", err)
	}
	defer closeRows(rows, "goals")
	return collectGoals(rows)
}

// ListKeyResults returns the Key Results of an Objective.
func (s *SQLiteStore) ListKeyResults(ctx context.Context, parentID string) ([]*domain.Goal, error) {
	query := `SELECT ` + goalColumns + ` FROM goals WHERE parent_id = ? AND goal_type = ? ORDER BY created_at, id`
	rows, err := s.db.QueryContext(ctx, query, parentID, domain.GoalKeyResult)
	if err != nil {
		return nil, fmt.Errorf("query key results: %w", err)
	}
	defer closeRows(rows, "goals")
	return collectGoals(rows)
}

// UpdateGoal updates a goal's editable fields. GoalType and ParentID are
// fixed at creation.
func (s *SQLiteStore) UpdateGoal(ctx context.Context, goal *domain.Goal) error {
	query := `UPDATE goals SET title = ?, description = ?, current_value = ?, target_value = ?,
		unit = ?, status = ?, due_at = ?, updated_at = ? WHERE org_id = ? AND id = ?`
	result, err := s.db.ExecContext(ctx, query,
		goal.Title, goal.Description, goal.CurrentValue, goal.TargetValue,
		goal.Unit, goal.Status, nullUnix(goal.DueAt), time.Now().Unix(),
		goal.OrgID, goal.ID)
	if err != nil {
		return fmt.Errorf("update goal: %w", err)
	}
	return requireRow(result, "goal")
}

// DeleteGoal removes a goal. Deleting an Objective also removes its
// Key Results.
func (s *SQLiteStore) DeleteGoal(ctx context.Context, orgID, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete goal: %w", err)
	}
	defer rollback(tx, "delete goal")

	result, err := tx.ExecContext(ctx, `DELETE FROM goals WHERE org_id = ? AND id = ?`, orgID, id)
	if err != nil {
		return fmt.Errorf("delete goal: %w", err)
	}
	if err := requireRow(result, "goal"); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM goals WHERE parent_id = ?`, id); err != nil {
		return fmt.Errorf("delete child key results: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit delete goal: %w", err)
	}
	return nil
}

func collectGoals(rows *sql.Rows) ([]*domain.Goal, error) {
	var goals []*domain.Goal
	for rows.Next() {
		goal, err := scanGoal(rows)
		if err != nil {
			return nil, err
		}
		goals = append(goals, goal)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate goals: %w", err)
	}
	return goals, nil
}

func scanGoal(row rowScanner) (*domain.Goal, error) {
	var goal domain.Goal
	var parentID sql.NullString
	var dueAt sql.NullInt64
	var createdAt, updatedAt int64

	err := row.Scan(
		&goal.ID, &goal.OrgID, &goal.GoalType, &goal.Title, &goal.Description,
		&parentID, &goal.CurrentValue, &goal.TargetValue,
		&goal.Unit, &goal.Status, &dueAt, &createdAt, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan goal row: %w", err)
	}

	goal.ParentID = parentID.String
	if dueAt.Valid {
		t := time.Unix(dueAt.Int64, 0)
		goal.DueAt = &t
	}
	goal.CreatedAt = time.Unix(createdAt, 0)
	goal.UpdatedAt = time.Unix(updatedAt, 0)
	return &goal, nil
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullUnix(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.Unix()
}
