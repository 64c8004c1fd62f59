// Package events provides the per-organization entity change stream.
//
// Every mutating API operation publishes an event; connected clients (the
// app shell and its help/activity sidebar) subscribe over WebSocket and
// refresh live instead of polling.
package events

import (
	"sync"
	"time"
)

// Event describes one entity mutation inside an organization.
type Event struct {
	Type     string    `json:"type"` // created | updated | deleted
	Entity   string    `json:"entity"`
	EntityID string    `json:"entityId"`
	OrgID    string    `json:"orgId"`
	At       time.Time `json:"at"`
}

// Hub fans events out to per-organization subscribers. Each subscriber
// gets a buffered channel; a subscriber that falls behind is dropped so a
// slow client can never block a mutation.
type Hub struct {
	mu     sync.RWMutex
	buffer int
	nextID int
	subs   map[string]map[int]chan Event
	closed bool
}

// NewHub creates a hub with the given per-subscriber buffer size.
func NewHub(buffer int) *Hub {
	if buffer <= 0 {
		buffer = 64
	}
	return &Hub{
		buffer: buffer,
		subs:   make(map[string]map[int]chan Event),
	}
}

// Subscribe registers a listener for one organization's events. The
// returned cancel function removes the subscription and closes the channel.
func (h *Hub) Subscribe(orgID string) (<-chan Event, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	ch := make(chan Event, h.buffer)
	if h.closed {
		close(ch)
		return ch, func() {}
	}

	h.nextID++
	id := h.nextID
	if _, ok := h.subs[orgID]; !ok {
		h.subs[orgID] = make(map[int]chan Event)
	}
	h.subs[orgID][id] = ch

	cancel := func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		if subs, ok := h.subs[orgID]; ok {
			if c, exists := subs[id]; exists {
				delete(subs, id)
				if len(subs) == 0 {
					delete(h.subs, orgID)
				}
				close(c)
			}
		}
	}
	return ch, cancel
}

// Publish delivers the event to all subscribers of its organization.
// Subscribers with full buffers are skipped.
func (h *Hub) Publish(evt Event) {
	if evt.At.IsZero() {
		evt.At = time.Now()
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.closed {
		return
	}
	for _, ch := range h.subs[evt.OrgID] {
		select {
		case ch <- evt:
		default:
		}
	}
}

// SubscriberCount reports the number of active subscribers for an org.
func (h *Hub) SubscriberCount(orgID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[orgID])
}

// Close shuts the hub down and closes all subscriber channels.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for org, subs := range h.subs {
		for id, ch := range subs {
			close(ch)
			delete(subs, id)
		}
		delete(h.subs, org)
	}
}
