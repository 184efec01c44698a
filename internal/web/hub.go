package web

import (
	"log/slog"
	"sync"

	"github.com/p-n-ai/pai-finance/internal/progress"
)

// ProgressUpdate is pushed to a session's websocket subscribers after its
// state changes.
type ProgressUpdate struct {
	Event      string           `json:"event"`
	ConceptID  string           `json:"concept_id,omitempty"`
	Summary    progress.Summary `json:"summary"`
	Completion float64          `json:"completion"`
}

// subscriberBuffer bounds each subscriber's queue. Updates to a full queue
// are dropped; the next update carries the complete summary anyway.
const subscriberBuffer = 8

// Hub routes progress updates to the subscribers of each session.
type Hub struct {
	subs map[string]map[chan ProgressUpdate]struct{}
	mu   sync.RWMutex
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{
		subs: make(map[string]map[chan ProgressUpdate]struct{}),
	}
}

// Subscribe registers a subscriber for sessionID. The returned cancel func
// unregisters it and closes the channel.
func (h *Hub) Subscribe(sessionID string) (<-chan ProgressUpdate, func()) {
	ch := make(chan ProgressUpdate, subscriberBuffer)

	h.mu.Lock()
	if h.subs[sessionID] == nil {
		h.subs[sessionID] = make(map[chan ProgressUpdate]struct{})
	}
	h.subs[sessionID][ch] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs[sessionID], ch)
			if len(h.subs[sessionID]) == 0 {
				delete(h.subs, sessionID)
			}
			h.mu.Unlock()
			close(ch)
		})
	}
	return ch, cancel
}

// Publish sends u to every subscriber of sessionID without blocking.
func (h *Hub) Publish(sessionID string, u ProgressUpdate) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for ch := range h.subs[sessionID] {
		select {
		case ch <- u:
		default:
			slog.Warn("dropping progress update for slow subscriber", "session_id", sessionID, "event", u.Event)
		}
	}
}

// Subscribers returns the number of subscribers for sessionID.
func (h *Hub) Subscribers(sessionID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[sessionID])
}
