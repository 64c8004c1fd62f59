package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/orbitos/operations/internal/domain"
	"github.com/orbitos/operations/internal/shared"
)

// CreateRole inserts a new role. A title collision within the organization
// returns ErrDuplicate.
func (s *SQLiteStore) CreateRole(ctx context.Context, role *domain.Role) error {
	query := `INSERT INTO roles (id, org_id, title, purpose, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)`
	_, err := s.db.ExecContext(ctx, query,
		role.ID, role.OrgID, role.Title, role.Purpose, role.CreatedAt.Unix(), role.UpdatedAt.Unix())
	if err != nil {
		if shared.IsSQLiteUniqueError(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("insert role: %w", err)
	}
	return nil
}

// GetRole retrieves a role by ID within an organization.
func (s *SQLiteStore) GetRole(ctx context.Context, orgID, id string) (*domain.Role, error) {
	query := `SELECT id, org_id, title, purpose, created_at, updated_at FROM roles WHERE org_id = ? AND id = ?`
	return scanRole(s.db.QueryRowContext(ctx, query, orgID, id))
}

// ListRoles returns the organization's roles ordered by title.
func (s *SQLiteStore) ListRoles(ctx context.Context, orgID string) ([]*domain.Role, error) {
	query := `SELECT id, org_id, title, purpose, created_at, updated_at FROM roles WHERE org_id = ? ORDER BY title`
	rows, err := s.db.QueryContext(ctx, query, orgID)
	if err != nil {
		return nil, fmt.Errorf("query roles: %w", err)
	}
	defer closeRows(rows, "roles")
	return collectRoles(rows)
}

// UpdateRole updates title and purpose.
func (s *SQLiteStore) UpdateRole(ctx context.Context, role *domain.Role) error {
	query := `UPDATE roles SET title = ?, purpose = ?, updated_at = ? WHERE org_id = ? AND id = ?`
	result, err := s.db.ExecContext(ctx, query, role.Title, role.Purpose, time.Now().Unix(), role.OrgID, role.ID)
	if err != nil {
		if shared.IsSQLiteUniqueError(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("update role: %w", err)
	}
	return requireRow(result, "role")
}

// DeleteRole removes a role and its function assignments.
func (s *SQLiteStore) DeleteRole(ctx context.Context, orgID, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete role: %w", err)
	}
	defer rollback(tx, "delete role")

	result, err := tx.ExecContext(ctx, `DELETE FROM roles WHERE org_id = ? AND id = ?`, orgID, id)
	if err != nil {
		return fmt.Errorf("delete role: %w", err)
	}
	if err := requireRow(result, "role"); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM role_functions WHERE role_id = ?`, id); err != nil {
		return fmt.Errorf("delete role assignments: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit delete role: %w", err)
	}
	return nil
}

// CreateFunction inserts a new function. A name collision within the
// organization returns ErrDuplicate.
func (s *SQLiteStore) CreateFunction(ctx context.Context, fn *domain.Function) error {
	query := `INSERT INTO functions (id, org_id, name, description, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)`
	_, err := s.db.ExecContext(ctx, query,
		fn.ID, fn.OrgID, fn.Name, fn.Description, fn.CreatedAt.Unix(), fn.UpdatedAt.Unix())
	if err != nil {
		if shared.IsSQLiteUniqueError(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("insert function: %w", err)
	}
	return nil
}

// GetFunction retrieves a function by ID within an organization.
func (s *SQLiteStore) GetFunction(ctx context.Context, orgID, id string) (*domain.Function, error) {
	query := `SELECT id, org_id, name, description, created_at, updated_at FROM functions WHERE org_id = ? AND id = ?`
	return scanFunction(s.db.QueryRowContext(ctx, query, orgID, id))
}

// ListFunctions returns the organization's functions ordered by name.
func (s *SQLiteStore) ListFunctions(ctx context.Context, orgID string) ([]*domain.Function, error) {
	query := `SELECT id, org_id, name, description, created_at, updated_at FROM functions WHERE org_id = ? ORDER BY name`
	rows, err := s.db.QueryContext(ctx, query, orgID)
	if err != nil {
		return nil, fmt.Errorf("query functions: %w", err)
	}
	defer closeRows(rows, "functions")
	return collectFunctions(rows)
}

// UpdateFunction updates name and description.
func (s *SQLiteStore) UpdateFunction(ctx context.Context, fn *domain.Function) error {
	query := `UPDATE functions SET name = ?, description = ?, updated_at = ? WHERE org_id = ? AND id = ?`
	result, err := s.db.ExecContext(ctx, query, fn.Name, fn.Description, time.Now().Unix(), fn.OrgID, fn.ID)
	if err != nil {
		if shared.IsSQLiteUniqueError(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("update function: %w", err)
	}
	return requireRow(result, "function")
}

// DeleteFunction removes a function and its role assignments.
func (s *SQLiteStore) DeleteFunction(ctx context.Context, orgID, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete function: %w", err)
	}
	defer rollback(tx, "delete function")

	result, err := tx.ExecContext(ctx, `DELETE FROM functions WHERE org_id = ? AND id = ?`, orgID, id)
	if err != nil {
		return fmt.Errorf("delete function: %w", err)
	}
	if err := requireRow(result, "function"); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM role_functions WHERE function_id = ?`, id); err != nil {
		return fmt.Errorf("delete function assignments: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit delete function: %w", err)
	}
	return nil
}

// AssignRoleFunction records the (role, function) pair. The primary key on
// role_functions guarantees a single row per pair, so re-assigning from
// either editing surface is a no-op rather than a duplicate.
func (s *SQLiteStore) AssignRoleFunction(ctx context.Context, roleID, functionID string) (bool, error) {
	result, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO role_functions (role_id, function_id, created_at) VALUES (?, ?, ?)`,
		roleID, functionID, time.Now().Unix())
	if err != nil {
		return false, fmt.Errorf("assign role function: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("assign role function rows affected: %w", err)
	}
	return rows > 0, nil
}

// UnassignRoleFunction removes the shared pair record; removal from either
// side deletes the same row.
func (s *SQLiteStore) UnassignRoleFunction(ctx context.Context, roleID, functionID string) (bool, error) {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM role_functions WHERE role_id = ? AND function_id = ?`, roleID, functionID)
	if err != nil {
		return false, fmt.Errorf("unassign role function: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("unassign role function rows affected: %w", err)
	}
	return rows > 0, nil
}

// ListRoleFunctions returns the functions assigned to a role.
func (s *SQLiteStore) ListRoleFunctions(ctx context.Context, roleID string) ([]*domain.Function, error) {
	query := `SELECT f.id, f.org_id, f.name, f.description, f.created_at, f.updated_at
		FROM functions f
		JOIN role_functions rf ON rf.function_id = f.id
		WHERE rf.role_id = ? ORDER BY f.name`
	rows, err := s.db.QueryContext(ctx, query, roleID)
	if err != nil {
		return nil, fmt.Errorf("query role functions: %w", err)
	}
	defer closeRows(rows, "role_functions")
	return collectFunctions(rows)
}

// ListFunctionRoles returns the roles assigned to a function.
func (s *SQLiteStore) ListFunctionRoles(ctx context.Context, functionID string) ([]*domain.Role, error) {
	query := `SELECT r.id, r.org_id, r.title, r.purpose, r.created_at, r.updated_at
		FROM roles r
		JOIN role_functions rf ON rf.role_id = r.id
		WHERE rf.function_id = ? ORDER BY r.title`
	rows, err := s.db.QueryContext(ctx, query, functionID)
	if err != nil {
		return nil, fmt.Errorf("query function roles: %w", err)
	}
	defer closeRows(rows, "role_functions")
	return collectRoles(rows)
}

// ListUnassignedFunctions returns the org's functions not yet assigned to
// the role, optionally filtered by a case-insensitive name substring.
func (s *SQLiteStore) ListUnassignedFunctions(ctx context.Context, orgID, roleID, query string) ([]*domain.Function, error) {
	q := `SELECT id, org_id, name, description, created_at, updated_at FROM functions
		WHERE org_id = ?
		AND id NOT IN (SELECT function_id FROM role_functions WHERE role_id = ?)`
	args := []any{orgID, roleID}
	if query != "" {
		q += ` AND name LIKE ? COLLATE NOCASE`
		args = append(args, "%"+query+"%")
	}
	q += ` ORDER BY name`

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query unassigned functions: %w", err)
	}
	defer closeRows(rows, "functions")
	return collectFunctions(rows)
}

// ListUnassignedRoles mirrors ListUnassignedFunctions from the function side.
func (s *SQLiteStore) ListUnassignedRoles(ctx context.Context, orgID, functionID, query string) ([]*domain.Role, error) {
	q := `SELECT id, org_id, title, purpose, created_at, updated_at FROM roles
		WHERE org_id = ?
		AND id NOT IN (SELECT role_id FROM role_functions WHERE function_id = ?)`
	args := []any{orgID, functionID}
	if query != "" {
		q += ` AND title LIKE ? COLLATE NOCASE`
		args = append(args, "%"+query+"%")
	}
	q += ` ORDER BY title`

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query unassigned roles: %w", err)
	}
	defer closeRows(rows, "roles")
	return collectRoles(rows)
}

func collectRoles(rows *sql.Rows) ([]*domain.Role, error) {
	var roles []*domain.Role
	for rows.Next() {
		role, err := scanRole(rows)
		if err != nil {
			return nil, err
		}
		roles = append(roles, role)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate roles: %w", err)
	}
	return roles, nil
}

func collectFunctions(rows *sql.Rows) ([]*domain.Function, error) {
	var fns []*domain.Function
	for rows.Next() {
		fn, err := scanFunction(rows)
		if err != nil {
			return nil, err
		}
		fns = append(fns, fn)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate functions: %w", err)
	}
	return fns, nil
}

func scanRole(row rowScanner) (*domain.Role, error) {
	var role domain.Role
	var createdAt, updatedAt int64
	err := row.Scan(&role.ID, &role.OrgID, &role.Title, &role.Purpose, &createdAt, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan role row: %w", err)
	}
	role.CreatedAt = time.Unix(createdAt, 0)
	role.UpdatedAt = time.Unix(updatedAt, 0)
	return &role, nil
}

func scanFunction(row rowScanner) (*domain.Function, error) {
	var fn domain.Function
	var createdAt, updatedAt int64
	err := row.Scan(&fn.ID, &fn.OrgID, &fn.Name, &fn.Description, &createdAt, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan function row: %w", err)
	}
	fn.CreatedAt = time.Unix(createdAt, 0)
	fn.UpdatedAt = time.Unix(updatedAt, 0)
	return &fn, nil
}
