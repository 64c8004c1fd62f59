package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/orbitos/operations/internal/domain"
)

// UpsertHelpArticle creates or refreshes a knowledge-base article by slug.
// Used by the seeder, so re-running a seed updates content in place.
func (s *SQLiteStore) UpsertHelpArticle(ctx context.Context, a *domain.HelpArticle) error {
	query := `INSERT INTO help_articles (id, slug, title, body, category, sort_order, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(slug) DO UPDATE SET
			title = excluded.title,
			body = excluded.body,
			category = excluded.category,
			sort_order = excluded.sort_order,
			updated_at = excluded.updated_at`
	_, err := s.db.ExecContext(ctx, query,
		a.ID, a.Slug, a.Title, a.Body, a.Category, a.SortOrder,
		a.CreatedAt.Unix(), a.UpdatedAt.Unix())
	if err != nil {
		return fmt.Errorf("upsert help article: %w", err)
	}
	return nil
}

// GetHelpArticle retrieves an article by its slug.
func (s *SQLiteStore) GetHelpArticle(ctx context.Context, slug string) (*domain.HelpArticle, error) {
	query := `SELECT id, slug, title, body, category, sort_order, created_at, updated_at
		FROM help_articles WHERE slug = ?`
	return scanHelpArticle(s.db.QueryRowContext(ctx, query, slug))
}

// ListHelpArticles returns articles, optionally narrowed by category and a
// case-insensitive title/body search.
func (s *SQLiteStore) ListHelpArticles(ctx context.Context, category, query string) ([]*domain.HelpArticle, error) {
	q := `SELECT id, slug, title, body, category, sort_order, created_at, updated_at FROM help_articles WHERE 1=1`
	var args []any
	if category != "" {
		q += ` AND category = ?`
		args = append(args, category)
	}
	if query != "" {
		q += ` AND (title LIKE ? COLLATE NOCASE OR body LIKE ? COLLATE NOCASE)`
		pattern := "%" + query + "%"
		args = append(args, pattern, pattern)
	}
	q += ` ORDER BY category, sort_order, title`

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query help articles: %w", err)
	}
	defer closeRows(rows, "help_articles")

	var articles []*domain.HelpArticle
	for rows.Next() {
		a, err := scanHelpArticle(rows)
		if err != nil {
			return nil, err
		}
		articles = append(articles, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate help articles: %w", err)
	}
	return articles, nil
}

func scanHelpArticle(row rowScanner) (*domain.HelpArticle, error) {
	var a domain.HelpArticle
	var createdAt, updatedAt int64
	err := row.Scan(&a.ID, &a.Slug, &a.Title, &a.Body, &a.Category, &a.SortOrder, &createdAt, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan help article row: %w", err)
	}
	a.CreatedAt = time.Unix(createdAt, 0)
	a.UpdatedAt = time.Unix(updatedAt, 0)
	return &a, nil
}
