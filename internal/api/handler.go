// Package api provides HTTP handlers for the OrbitOS Operations API.
package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/orbitos/operations/internal/events"
	"github.com/orbitos/operations/internal/shared"
	"github.com/orbitos/operations/internal/store"
)

// Handler provides common handler dependencies and utilities.
type Handler struct {
	repo store.Repository
	hub  *events.Hub
}

// NewHandler creates a new Handler with common dependencies.
func NewHandler(repo store.Repository, hub *events.Hub) *Handler {
	return &Handler{repo: repo, hub: hub}
}

// JSON writes a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, `{"error": "failed to encode response"}`, http.StatusInternalServerError)
	}
}

// Error writes a JSON error response.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, map[string]string{"error": message})
}

// decode parses a JSON request body into dst, writing a 400 and returning
// false on malformed input.
func decode(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		Error(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

// storeError maps store sentinel errors onto the HTTP taxonomy. The
// duplicate message is caller-supplied since it names the violated rule.
// Contention that outlives the connection's busy timeout is reported as
// 503 so clients retry instead of treating it as a fault.
func storeError(w http.ResponseWriter, err error, duplicateMsg string) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		Error(w, http.StatusNotFound, "not found")
	case errors.Is(err, store.ErrDuplicate):
		Error(w, http.StatusBadRequest, duplicateMsg)
	case shared.IsSQLiteBusy(err):
		slog.Warn("Storage busy", "error", err)
		Error(w, http.StatusServiceUnavailable, "database busy, retry")
	default:
		slog.Error("Storage operation failed", "error", err)
		Error(w, http.StatusInternalServerError, "internal error")
	}
}

// publish emits a change event for the org's live stream.
func (h *Handler) publish(orgID, entity, entityID, eventType string) {
	if h.hub == nil {
		return
	}
	h.hub.Publish(events.Event{
		Type:     eventType,
		Entity:   entity,
		EntityID: entityID,
		OrgID:    orgID,
		At:       time.Now(),
	})
}

// HealthHandler reports service and database health.
type HealthHandler struct {
	repo store.Repository
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(repo store.Repository) *HealthHandler {
	return &HealthHandler{repo: repo}
}

// RegisterHealth registers the API health endpoint.
func (h *HealthHandler) RegisterHealth(r chi.Router) {
	r.Get("/api/health", h.GetHealth)
}

// GetHealth reports database connectivity.
func (h *HealthHandler) GetHealth(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	code := http.StatusOK
	if err := h.repo.Ping(r.Context()); err != nil {
		slog.Error("Health check database ping failed", "error", err)
		status = "degraded"
		code = http.StatusServiceUnavailable
	}
	JSON(w, code, map[string]string{"status": status})
}
