// Package sse fans live attendance events out to dashboard subscribers.
package sse

import (
	"sync"

	syncdomain "github.com/medicore-hms/attendance-backend-go/internal/domain/sync"
)

// Hub manages subscribers and event broadcasting.
type Hub struct {
	mu          sync.RWMutex
	subscribers map[chan syncdomain.Event]struct{}
}

func NewHub() *Hub {
	return &Hub{
		subscribers: make(map[chan syncdomain.Event]struct{}),
	}
}

// Subscribe registers a subscriber and returns its event channel plus a
// cleanup function.
func (h *Hub) Subscribe() (chan syncdomain.Event, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	ch := make(chan syncdomain.Event, 10)
	h.subscribers[ch] = struct{}{}

	cleanup := func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		if _, ok := h.subscribers[ch]; ok {
			delete(h.subscribers, ch)
			close(ch)
		}
	}

	return ch, cleanup
}

// Publish sends an event to all subscribers. Slow consumers are skipped
// rather than blocked on.
func (h *Hub) Publish(event syncdomain.Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for ch := range h.subscribers {
		select {
		case ch <- event:
		default:
		}
	}
}

// SubscriberCount returns the number of active subscribers.
func (h *Hub) SubscriberCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers)
}
