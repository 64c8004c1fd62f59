package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/orbitos/operations/internal/domain"
	"github.com/orbitos/operations/internal/shared"
)

// CreateUser inserts a new user and their memberships.
func (s *SQLiteStore) CreateUser(ctx context.Context, user *domain.User) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create user: %w", err)
	}
	defer rollback(tx, "create user")

	query := `INSERT INTO users (id, email, display_name, is_super_admin, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`
	_, err = tx.ExecContext(ctx, query,
		user.ID, user.Email, user.DisplayName, user.IsSuperAdmin,
		user.CreatedAt.Unix(), user.UpdatedAt.Unix())
	if err != nil {
		if shared.IsSQLiteUniqueError(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("insert user: %w", err)
	}

	for _, orgID := range user.OrganizationIDs {
		if _, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO org_members (user_id, org_id) VALUES (?, ?)`,
			user.ID, orgID); err != nil {
			return fmt.Errorf("insert membership: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit create user: %w", err)
	}
	return nil
}

// GetUser retrieves a user and their organization memberships.
func (s *SQLiteStore) GetUser(ctx context.Context, id string) (*domain.User, error) {
	query := `SELECT id, email, display_name, is_super_admin, created_at, updated_at FROM users WHERE id = ?`
	user, err := scanUser(s.db.QueryRowContext(ctx, query, id))
	if err != nil || user == nil {
		return user, err
	}
	if err := s.loadMemberships(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// GetUserByEmail retrieves a user by their unique email.
func (s *SQLiteStore) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	query := `SELECT id, email, display_name, is_super_admin, created_at, updated_at FROM users WHERE email = ?`
	user, err := scanUser(s.db.QueryRowContext(ctx, query, email))
	if err != nil || user == nil {
		return user, err
	}
	if err := s.loadMemberships(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// ListUsers returns all users with memberships, ordered by email.
func (s *SQLiteStore) ListUsers(ctx context.Context) ([]*domain.User, error) {
	query := `SELECT id, email, display_name, is_super_admin, created_at, updated_at FROM users ORDER BY email`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query users: %w", err)
	}
	defer closeRows(rows, "users")

	var users []*domain.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate users: %w", err)
	}

	for _, user := range users {
		if err := s.loadMemberships(ctx, user); err != nil {
			return nil, err
		}
	}
	return users, nil
}

// UpdateUser updates profile fields. Memberships are managed separately.
func (s *SQLiteStore) UpdateUser(ctx context.Context, user *domain.User) error {
	query := `UPDATE users SET email = ?, display_name = ?, is_super_admin = ?, updated_at = ? WHERE id = ?`
	result, err := s.db.ExecContext(ctx, query,
		user.Email, user.DisplayName, user.IsSuperAdmin, time.Now().Unix(), user.ID)
	if err != nil {
		if shared.IsSQLiteUniqueError(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("update user: %w", err)
	}
	return requireRow(result, "user")
}

// DeleteUser removes a user and their memberships.
func (s *SQLiteStore) DeleteUser(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete user: %w", err)
	}
	defer rollback(tx, "delete user")

	result, err := tx.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if err := requireRow(result, "user"); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM org_members WHERE user_id = ?`, id); err != nil {
		return fmt.Errorf("delete user memberships: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit delete user: %w", err)
	}
	return nil
}

// AddMembership adds a user to an organization. Idempotent.
func (s *SQLiteStore) AddMembership(ctx context.Context, userID, orgID string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO org_members (user_id, org_id) VALUES (?, ?)`, userID, orgID)
	if err != nil {
		return fmt.Errorf("insert membership: %w", err)
	}
	return nil
}

// RemoveMembership removes a user from an organization.
func (s *SQLiteStore) RemoveMembership(ctx context.Context, userID, orgID string) error {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM org_members WHERE user_id = ? AND org_id = ?`, userID, orgID)
	if err != nil {
		return fmt.Errorf("delete membership: %w", err)
	}
	return requireRow(result, "membership")
}

func (s *SQLiteStore) loadMemberships(ctx context.Context, user *domain.User) error {
	rows, err := s.db.QueryContext(ctx,
		`SELECT org_id FROM org_members WHERE user_id = ? ORDER BY org_id`, user.ID)
	if err != nil {
		return fmt.Errorf("query memberships: %w", err)
	}
	defer closeRows(rows, "org_members")

	user.OrganizationIDs = []string{}
	for rows.Next() {
		var orgID string
		if err := rows.Scan(&orgID); err != nil {
			return fmt.Errorf("scan membership row: %w", err)
		}
		user.OrganizationIDs = append(user.OrganizationIDs, orgID)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate memberships: %w", err)
	}
	return nil
}

func scanUser(row rowScanner) (*domain.User, error) {
	var user domain.User
	var createdAt, updatedAt int64
	err := row.Scan(&user.ID, &user.Email, &user.DisplayName, &user.IsSuperAdmin, &createdAt, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan user row: %w", err)
	}
	user.CreatedAt = time.Unix(createdAt, 0)
	user.UpdatedAt = time.Unix(updatedAt, 0)
	return &user, nil
}
