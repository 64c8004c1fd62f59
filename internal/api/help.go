package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/orbitos/operations/internal/domain"
)

// HelpHandler serves the knowledge-base articles shown in the help
// sidebar. Articles are global, not org-scoped.
type HelpHandler struct {
	*Handler
}

// NewHelpHandler creates a new help handler.
func NewHelpHandler(base *Handler) *HelpHandler {
	return &HelpHandler{Handler: base}
}

// RegisterRoutes registers help routes.
func (h *HelpHandler) RegisterRoutes(r chi.Router) {
	r.Route("/help/articles", func(r chi.Router) {
		r.Get("/", h.List)
		r.Get("/{slug}", h.Get)
	})
}

// List returns articles, optionally narrowed by ?category= and a
// case-insensitive ?q= search over title and body.
func (h *HelpHandler) List(w http.ResponseWriter, r *http.Request) {
	category := r.URL.Query().Get("category")
	query := r.URL.Query().Get("q")

	articles, err := h.repo.ListHelpArticles(r.Context(), category, query)
	if err != nil {
		slog.Error("Failed to list help articles", "error", err)
		Error(w, http.StatusInternalServerError, "internal error")
		return
	}
	if articles == nil {
		articles = []*domain.HelpArticle{}
	}
	JSON(w, http.StatusOK, articles)
}

// Get returns one article by slug.
func (h *HelpHandler) Get(w http.ResponseWriter, r *http.Request) {
	article, err := h.repo.GetHelpArticle(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		slog.Error("Failed to get help article", "error", err)
		Error(w, http.StatusInternalServerError, "internal error")
		return
	}
	if article == nil {
		Error(w, http.StatusNotFound, "article not found")
		return
	}
	JSON(w, http.StatusOK, article)
}
