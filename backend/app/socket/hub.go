// Package socket fans device status changes out to connected event-stream
// subscribers.
package socket

import (
	"context"
	"sync"

	"fleetpulse/backend/app/services"
	"fleetpulse/backend/global"
)

// subscriberBuffer is how many changes a slow subscriber may lag before it
// starts missing them.
const subscriberBuffer = 16

type subscriber struct {
	ch      chan services.StatusChange
	dropped int
}

type Hub struct {
	mu     sync.RWMutex
	next   int
	subs   map[int]*subscriber
	closed bool
}

func NewHub() *Hub { return &Hub{subs: make(map[int]*subscriber)} }

// Subscribe registers a listener. The returned cancel func unregisters it and
// closes the channel. After Close the channel comes back already closed.
func (h *Hub) Subscribe() (<-chan services.StatusChange, func()) {
	s := &subscriber{ch: make(chan services.StatusChange, subscriberBuffer)}
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		close(s.ch)
		return s.ch, func() {}
	}
	id := h.next
	h.next++
	h.subs[id] = s
	return s.ch, func() { h.remove(id) }
}

// remove is idempotent; whichever of cancel and Close runs first closes the
// channel.
func (h *Hub) remove(id int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if s, ok := h.subs[id]; ok {
		delete(h.subs, id)
		close(s.ch)
	}
}

// Close ends every open stream and refuses new subscribers. http.Server.Shutdown
// does not cancel request contexts, so main registers it as a shutdown hook.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for id, s := range h.subs {
		delete(h.subs, id)
		close(s.ch)
	}
}

func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// Notify never blocks the sweeper: a full subscriber loses the change.
func (h *Hub) Notify(_ context.Context, c services.StatusChange) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, s := range h.subs {
		select {
		case s.ch <- c:
		default:
			s.dropped++
			global.Logger.Warn().Int("subscriber", id).Int("dropped", s.dropped).Str("device_id", c.DeviceID).Msg("event subscriber lagging")
		}
	}
	return nil
}
