package devserver

import (
	"sync"

	"github.com/usermgmt/account-console/internal/core/domain"
	"github.com/usermgmt/account-console/internal/devserver/metrics"
)

// Hub fans user-change notifications out to connected event-stream clients.
type Hub struct {
	mu      sync.Mutex
	clients map[chan string]struct{}
}

// NewHub returns a hub with no subscribers.
func NewHub() *Hub {
	return &Hub{clients: make(map[chan string]struct{})}
}

// Subscribe registers a client and returns its signal channel plus a cancel
// function that unregisters it and closes the channel. Cancel is safe to
// call more than once.
func (h *Hub) Subscribe() (<-chan string, func()) {
	ch := make(chan string, 4)

	h.mu.Lock()
	h.clients[ch] = struct{}{}
	h.mu.Unlock()

	cancel := func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		if _, ok := h.clients[ch]; ok {
			delete(h.clients, ch)
			close(ch)
		}
	}
	return ch, cancel
}

// NotifyUsersChanged broadcasts the users-changed signal. Clients whose
// buffers are full are skipped, not blocked on: the signal is idempotent
// and at-least-once delivery is all subscribers rely on.
func (h *Hub) NotifyUsersChanged() {
	metrics.UsersChangedTotal.Inc()

	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.clients {
		select {
		case ch <- domain.SignalUsersChanged:
		default:
		}
	}
}
