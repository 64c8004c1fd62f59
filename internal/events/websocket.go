package events

import (
	"log/slog"
	"net/http"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/orbitos/operations/internal/identity"
	"github.com/orbitos/operations/internal/store"
)

// WebSocketHandler upgrades /ws/events requests and streams an
// organization's change events to the client.
type WebSocketHandler struct {
	hub  *Hub
	repo store.Repository
}

// NewWebSocketHandler creates a new event stream handler.
func NewWebSocketHandler(hub *Hub, repo store.Repository) *WebSocketHandler {
	return &WebSocketHandler{hub: hub, repo: repo}
}

// ServeHTTP implements http.Handler for WebSocket upgrade. The target
// organization comes from the "org" query parameter and is subject to the
// same membership rules as the REST surface.
func (h *WebSocketHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	user := identity.UserFromContext(r.Context())
	if user == nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	orgID := r.URL.Query().Get("org")
	org, err := h.repo.GetOrganization(r.Context(), orgID)
	if err != nil {
		http.Error(w, "failed to resolve organization", http.StatusInternalServerError)
		return
	}
	if org == nil {
		http.Error(w, "organization not found", http.StatusNotFound)
		return
	}
	if !user.MemberOf(org.ID) {
		http.Error(w, "not a member of this organization", http.StatusForbidden)
		return
	}

	ws, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		slog.Error("Failed to accept WebSocket", "error", err, "user_id", user.ID)
		return
	}
	defer func() {
		if closeErr := ws.Close(websocket.StatusNormalClosure, "stream ended"); closeErr != nil {
			slog.Debug("Failed to close websocket", "error", closeErr, "user_id", user.ID)
		}
	}()

	ch, cancel := h.hub.Subscribe(org.ID)
	defer cancel()
	slog.Info("Event stream opened", "user_id", user.ID, "org_id", org.ID)

	ctx := r.Context()

	// Drain client frames so pings and close frames are processed.
	go func() {
		for {
			if _, _, err := ws.Read(ctx); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case evt, ok := <-ch:
			if !ok {
				return
			}
			if err := wsjson.Write(ctx, ws, evt); err != nil {
				slog.Debug("Event stream write failed", "error", err, "user_id", user.ID)
				return
			}
		case <-ctx.Done():
			return
		}
	}
}
