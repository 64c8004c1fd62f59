package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/orbitos/operations/internal/domain"
	"github.com/orbitos/operations/internal/shared"
)

// CreateOrganization inserts a new organization.
func (s *SQLiteStore) CreateOrganization(ctx context.Context, org *domain.Organization) error {
	query := `INSERT INTO organizations (id, name, slug, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`
	_, err := s.db.ExecContext(ctx, query,
		org.ID, org.Name, org.Slug, org.CreatedAt.Unix(), org.UpdatedAt.Unix())
	if err != nil {
		if shared.IsSQLiteUniqueError(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("insert organization: %w", err)
	}
	return nil
}

// GetOrganization retrieves an organization by ID.
func (s *SQLiteStore) GetOrganization(ctx context.Context, id string) (*domain.Organization, error) {
	query := `SELECT id, name, slug, created_at, updated_at FROM organizations WHERE id = ?`
	return scanOrganization(s.db.QueryRowContext(ctx, query, id))
}

// ListOrganizations returns all organizations ordered by name.
func (s *SQLiteStore) ListOrganizations(ctx context.Context) ([]*domain.Organization, error) {
	query := `SELECT id, name, slug, created_at, updated_at FROM organizations ORDER BY name`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query organizations: %w", err)
	}
	defer closeRows(rows, "organizations")

	var orgs []*domain.Organization
	for rows.Next() {
		org, err := scanOrganization(rows)
		if err != nil {
			return nil, err
		}
		orgs = append(orgs, org)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate organizations: %w", err)
	}
	return orgs, nil
}

// UpdateOrganization updates name and slug.
func (s *SQLiteStore) UpdateOrganization(ctx context.Context, org *domain.Organization) error {
	query := `UPDATE organizations SET name = ?, slug = ?, updated_at = ? WHERE id = ?`
	result, err := s.db.ExecContext(ctx, query, org.Name, org.Slug, time.Now().Unix(), org.ID)
	if err != nil {
		if shared.IsSQLiteUniqueError(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("update organization: %w", err)
	}
	return requireRow(result, "organization")
}

// DeleteOrganization removes the organization and everything it owns.
func (s *SQLiteStore) DeleteOrganization(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete organization: %w", err)
	}
	defer rollback(tx, "delete organization")

	result, err := tx.ExecContext(ctx, `DELETE FROM organizations WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete organization: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete organization rows affected: %w", err)
	}
	if rows == 0 {
		return ErrNotFound
	}

	// Cascade over all org-owned tables. Conversations, canvases and goals
	// carry dependent rows keyed by their own IDs.
	cascades := []string{
		`DELETE FROM org_members WHERE org_id = ?`,
		`DELETE FROM ai_agents WHERE org_id = ?`,
		`DELETE FROM messages WHERE conversation_id IN (SELECT id FROM conversations WHERE org_id = ?)`,
		`DELETE FROM conversation_participants WHERE conversation_id IN (SELECT id FROM conversations WHERE org_id = ?)`,
		`DELETE FROM conversations WHERE org_id = ?`,
		`DELETE FROM goals WHERE org_id = ?`,
		`DELETE FROM role_functions WHERE role_id IN (SELECT id FROM roles WHERE org_id = ?)`,
		`DELETE FROM roles WHERE org_id = ?`,
		`DELETE FROM functions WHERE org_id = ?`,
		`DELETE FROM canvas_blocks WHERE canvas_id IN (SELECT id FROM canvases WHERE org_id = ?)`,
		`DELETE FROM canvases WHERE org_id = ?`,
		`DELETE FROM partners WHERE org_id = ?`,
		`DELETE FROM channels WHERE org_id = ?`,
		`DELETE FROM value_propositions WHERE org_id = ?`,
	}
	for _, q := range cascades {
		if _, err := tx.ExecContext(ctx, q, id); err != nil {
			return fmt.Errorf("cascade organization delete: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit delete organization: %w", err)
	}
	return nil
}

func scanOrganization(row rowScanner) (*domain.Organization, error) {
	var org domain.Organization
	var createdAt, updatedAt int64
	err := row.Scan(&org.ID, &org.Name, &org.Slug, &createdAt, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan organization row: %w", err)
	}
	org.CreatedAt = time.Unix(createdAt, 0)
	org.UpdatedAt = time.Unix(updatedAt, 0)
	return &org, nil
}
