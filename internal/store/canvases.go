package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/orbitos/operations/internal/domain"
)

// CreateCanvas persists the canvas and its nine blocks in one transaction.
// The UNIQUE(canvas_id, block_type) constraint makes a partially created
// canvas impossible to commit.
func (s *SQLiteStore) CreateCanvas(ctx context.Context, canvas *domain.Canvas) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create canvas: %w", err)
	}
	defer rollback(tx, "create canvas")

	query := `INSERT INTO canvases (id, org_id, name, scope_type, scope_ref, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`
	if _, err := tx.ExecContext(ctx, query,
		canvas.ID, canvas.OrgID, canvas.Name, canvas.ScopeType, canvas.ScopeRef,
		canvas.CreatedAt.Unix(), canvas.UpdatedAt.Unix()); err != nil {
		return fmt.Errorf("insert canvas: %w", err)
	}

	for _, block := range canvas.Blocks {
		items, err := encodeStrings(block.Items)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO canvas_blocks (id, canvas_id, block_type, position, items_json, updated_at)
			VALUES (?, ?, ?, ?, ?, ?)`,
			block.ID, canvas.ID, block.BlockType, block.Position, items, block.UpdatedAt.Unix()); err != nil {
			return fmt.Errorf("insert canvas block: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit create canvas: %w", err)
	}
	return nil
}

// GetCanvas retrieves a canvas with its blocks.
func (s *SQLiteStore) GetCanvas(ctx context.Context, orgID, id string) (*domain.Canvas, error) {
	query := `SELECT id, org_id, name, scope_type, scope_ref, created_at, updated_at
		FROM canvases WHERE org_id = ? AND id = ?`
	canvas, err := scanCanvas(s.db.QueryRowContext(ctx, query, orgID, id))
	if err != nil || canvas == nil {
		return canvas, err
	}
	if err := s.loadBlocks(ctx, canvas); err != nil {
		return nil, err
	}
	return canvas, nil
}

// ListCanvases returns the organization's canvases with blocks loaded,
// optionally filtered by scope type.
func (s *SQLiteStore) ListCanvases(ctx context.Context, orgID string, scopeType domain.CanvasScopeType) ([]*domain.Canvas, error) {
	query := `SELECT id, org_id, name, scope_type, scope_ref, created_at, updated_at
		FROM canvases WHERE org_id = ?`
	args := []any{orgID}
	if scopeType != "" {
		query += ` AND scope_type = ?`
		args = append(args, scopeType)
	}
	query += ` ORDER BY created_at DESC, id`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query canvases: %w", err)
	}
	defer closeRows(rows, "canvases")

	var canvases []*domain.Canvas
	for rows.Next() {
		canvas, err := scanCanvas(rows)
		if err != nil {
			return nil, err
		}
		canvases = append(canvases, canvas)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate canvases: %w", err)
	}

	for _, canvas := range canvases {
		if err := s.loadBlocks(ctx, canvas); err != nil {
			return nil, err
		}
	}
	return canvases, nil
}

// DeleteCanvas removes a canvas and its blocks.
func (s *SQLiteStore) DeleteCanvas(ctx context.Context, orgID, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete canvas: %w", err)
	}
	defer rollback(tx, "delete canvas")

	result, err := tx.ExecContext(ctx, `DELETE FROM canvases WHERE org_id = ? AND id = ?`, orgID, id)
	if err != nil {
		return fmt.Errorf("delete canvas: %w", err)
	}
	if err := requireRow(result, "canvas"); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM canvas_blocks WHERE canvas_id = ?`, id); err != nil {
		return fmt.Errorf("delete canvas blocks: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit delete canvas: %w", err)
	}
	return nil
}

// UpdateCanvasBlock replaces the items of one block.
func (s *SQLiteStore) UpdateCanvasBlock(ctx context.Context, canvasID string, blockType domain.BlockType, items []string) error {
	encoded, err := encodeStrings(items)
	if err != nil {
		return err
	}
	query := `UPDATE canvas_blocks SET items_json = ?, updated_at = ? WHERE canvas_id = ? AND block_type = ?`
	result, err := s.db.ExecContext(ctx, query, encoded, time.Now().Unix(), canvasID, blockType)
	if err != nil {
		return fmt.Errorf("update canvas block: %w", err)
	}
	return requireRow(result, "canvas block")
}

func (s *SQLiteStore) loadBlocks(ctx context.Context, canvas *domain.Canvas) error {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, canvas_id, block_type, position, items_json, updated_at
		FROM canvas_blocks WHERE canvas_id = ? ORDER BY position`, canvas.ID)
	if err != nil {
		return fmt.Errorf("query canvas blocks: %w", err)
	}
	defer closeRows(rows, "canvas_blocks")

	canvas.Blocks = []*domain.CanvasBlock{}
	for rows.Next() {
		var block domain.CanvasBlock
		var items string
		var updatedAt int64
		if err := rows.Scan(&block.ID, &block.CanvasID, &block.BlockType, &block.Position, &items, &updatedAt); err != nil {
			return fmt.Errorf("scan canvas block row: %w", err)
		}
		block.Items, err = decodeStrings(items)
		if err != nil {
			return err
		}
		block.UpdatedAt = time.Unix(updatedAt, 0)
		canvas.Blocks = append(canvas.Blocks, &block)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate canvas blocks: %w", err)
	}
	return nil
}

func scanCanvas(row rowScanner) (*domain.Canvas, error) {
	var canvas domain.Canvas
	var createdAt, updatedAt int64
	err := row.Scan(&canvas.ID, &canvas.OrgID, &canvas.Name, &canvas.ScopeType, &canvas.ScopeRef, &createdAt, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan canvas row: %w", err)
	}
	canvas.CreatedAt = time.Unix(createdAt, 0)
	canvas.UpdatedAt = time.Unix(updatedAt, 0)
	return &canvas, nil
}
