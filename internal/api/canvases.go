package api

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/orbitos/operations/internal/domain"
	"github.com/orbitos/operations/internal/identity"
)

// CanvasHandler handles Business Model Canvas endpoints.
type CanvasHandler struct {
	*Handler
}

// NewCanvasHandler creates a new canvas handler.
func NewCanvasHandler(base *Handler) *CanvasHandler {
	return &CanvasHandler{Handler: base}
}

// RegisterRoutes registers canvas routes on an org-scoped router.
func (h *CanvasHandler) RegisterRoutes(r chi.Router) {
	r.Route("/operations/canvases", func(r chi.Router) {
		r.Get("/", h.List)
		r.Post("/bmc", h.Create)
		r.Get("/{canvasID}", h.Get)
		r.Delete("/{canvasID}", h.Delete)
		r.Put("/{canvasID}/blocks/{blockType}", h.UpdateBlock)
	})
}

type createCanvasRequest struct {
	Name      string `json:"name"`
	ScopeType string `json:"scopeType"`
	ScopeRef  string `json:"scopeRef"`
}

type updateBlockRequest struct {
	Items []string `json:"items"`
}

// List returns the organization's canvases, optionally filtered by scope type.
func (h *CanvasHandler) List(w http.ResponseWriter, r *http.Request) {
	org := identity.OrgFromContext(r.Context())

	scopeType := domain.CanvasScopeType(r.URL.Query().Get("scopeType"))
	if scopeType != "" && !domain.ValidCanvasScopeType(scopeType) {
		Error(w, http.StatusBadRequest, "invalid scopeType")
		return
	}

	canvases, err := h.repo.ListCanvases(r.Context(), org.ID, scopeType)
	if err != nil {
		slog.Error("Failed to list canvases", "error", err, "org_id", org.ID)
		Error(w, http.StatusInternalServerError, "internal error")
		return
	}
	if canvases == nil {
		canvases = []*domain.Canvas{}
	}
	JSON(w, http.StatusOK, canvases)
}

// Create builds a BMC canvas with its nine blocks in one shot. The block
// set is fixed; every canvas gets exactly one block per type.
func (h *CanvasHandler) Create(w http.ResponseWriter, r *http.Request) {
	org := identity.OrgFromContext(r.Context())

	var req createCanvasRequest
	if !decode(w, r, &req) {
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		Error(w, http.StatusBadRequest, "name is required")
		return
	}
	scopeType := domain.CanvasScopeType(req.ScopeType)
	if !domain.ValidCanvasScopeType(scopeType) {
		Error(w, http.StatusBadRequest, "invalid scopeType")
		return
	}

	now := time.Now()
	canvas := &domain.Canvas{
		ID:        uuid.NewString(),
		OrgID:     org.ID,
		Name:      req.Name,
		ScopeType: scopeType,
		ScopeRef:  req.ScopeRef,
		CreatedAt: now,
		UpdatedAt: now,
	}
	for i, blockType := range domain.BlockTypes {
		canvas.Blocks = append(canvas.Blocks, &domain.CanvasBlock{
			ID:        uuid.NewString(),
			CanvasID:  canvas.ID,
			BlockType: blockType,
			Position:  i,
			Items:     []string{},
			UpdatedAt: now,
		})
	}

	if err := h.repo.CreateCanvas(r.Context(), canvas); err != nil {
		slog.Error("Failed to create canvas", "error", err, "org_id", org.ID)
		Error(w, http.StatusInternalServerError, "internal error")
		return
	}

	h.publish(org.ID, "canvas", canvas.ID, "created")
	JSON(w, http.StatusCreated, canvas)
}

// Get returns a canvas with its blocks.
func (h *CanvasHandler) Get(w http.ResponseWriter, r *http.Request) {
	org := identity.OrgFromContext(r.Context())
	canvas, err := h.repo.GetCanvas(r.Context(), org.ID, chi.URLParam(r, "canvasID"))
	if err != nil {
		slog.Error("Failed to get canvas", "error", err, "org_id", org.ID)
		Error(w, http.StatusInternalServerError, "internal error")
		return
	}
	if canvas == nil {
		Error(w, http.StatusNotFound, "canvas not found")
		return
	}
	JSON(w, http.StatusOK, canvas)
}

// Delete removes a canvas and its blocks.
func (h *CanvasHandler) Delete(w http.ResponseWriter, r *http.Request) {
	org := identity.OrgFromContext(r.Context())
	id := chi.URLParam(r, "canvasID")

	if err := h.repo.DeleteCanvas(r.Context(), org.ID, id); err != nil {
		storeError(w, err, "")
		return
	}

	h.publish(org.ID, "canvas", id, "deleted")
	w.WriteHeader(http.StatusNoContent)
}

// UpdateBlock replaces one block's items. Blocks themselves can never be
// added or removed.
func (h *CanvasHandler) UpdateBlock(w http.ResponseWriter, r *http.Request) {
	org := identity.OrgFromContext(r.Context())

	canvas, err := h.repo.GetCanvas(r.Context(), org.ID, chi.URLParam(r, "canvasID"))
	if err != nil {
		slog.Error("Failed to get canvas for block update", "error", err, "org_id", org.ID)
		Error(w, http.StatusInternalServerError, "internal error")
		return
	}
	if canvas == nil {
		Error(w, http.StatusNotFound, "canvas not found")
		return
	}

	blockType := domain.BlockType(chi.URLParam(r, "blockType"))
	if !domain.ValidBlockType(blockType) {
		Error(w, http.StatusBadRequest, "invalid block type")
		return
	}

	var req updateBlockRequest
	if !decode(w, r, &req) {
		return
	}
	if req.Items == nil {
		req.Items = []string{}
	}

	if err := h.repo.UpdateCanvasBlock(r.Context(), canvas.ID, blockType, req.Items); err != nil {
		storeError(w, err, "")
		return
	}

	updated, err := h.repo.GetCanvas(r.Context(), org.ID, canvas.ID)
	if err != nil {
		slog.Error("Failed to reload canvas after block update", "error", err, "canvas_id", canvas.ID)
		Error(w, http.StatusInternalServerError, "internal error")
		return
	}
	if updated == nil {
		// Deleted between the block write and the reload.
		Error(w, http.StatusNotFound, "canvas not found")
		return
	}

	h.publish(org.ID, "canvas", canvas.ID, "updated")
	JSON(w, http.StatusOK, updated)
}
