package domain

import "time"

// HelpArticle is a knowledge-base entry shown in the help sidebar.
// Articles are global, not org-scoped, and are seeded at install time.
type HelpArticle struct {
	ID        string    `json:"id"`
	Slug      string    `json:"slug"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	Category  string    `json:"category"`
	SortOrder int       `json:"sortOrder"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
