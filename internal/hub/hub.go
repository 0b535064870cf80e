// Package hub fans rendered view-models out to attached display clients.
package hub

import (
	"sync"

	"github.com/rs/zerolog"

	"github.com/tokenline/queue-display/internal/api/metrics"
)

// View names a client can subscribe to.
const (
	ViewAdmin = "admin"
	ViewLobby = "lobby"
)

// Subscription scopes what a client wants rendered. Counter only matters for
// the admin view.
type Subscription struct {
	View    string
	Sector  string
	Counter string
}

// Client is one attached display. Send is owned by the hub: it is closed on
// Unregister, and messages are dropped rather than block when the client
// cannot keep up.
type Client struct {
	ID           string
	Send         chan []byte
	Subscription Subscription
}

type Hub struct {
	mu      sync.RWMutex
	clients map[string]*Client
	log     zerolog.Logger
}

func New(log zerolog.Logger) *Hub {
	return &Hub{clients: make(map[string]*Client), log: log}
}

func (h *Hub) Register(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[client.ID] = client
	metrics.BoardClients.WithLabelValues(client.Subscription.View).Inc()
}

func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[client.ID]; !ok {
		return
	}
	delete(h.clients, client.ID)
	close(client.Send)
	metrics.BoardClients.WithLabelValues(client.Subscription.View).Dec()
}

// Broadcast delivers payload to every client whose subscription matches
// meta. Slow clients lose the message instead of stalling the sender.
func (h *Hub) Broadcast(payload []byte, meta Subscription) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, client := range h.clients {
		if !match(client.Subscription, meta) {
			continue
		}
		select {
		case client.Send <- payload:
		default:
			h.log.Debug().Str("client_id", client.ID).Msg("slow board client, update dropped")
		}
	}
}

// Subscriptions returns the distinct subscriptions of all attached clients,
// so the synchronizer renders each projection exactly once per refresh.
func (h *Hub) Subscriptions() []Subscription {
	h.mu.RLock()
	defer h.mu.RUnlock()
	seen := make(map[Subscription]struct{}, len(h.clients))
	var out []Subscription
	for _, client := range h.clients {
		if _, ok := seen[client.Subscription]; ok {
			continue
		}
		seen[client.Subscription] = struct{}{}
		out = append(out, client.Subscription)
	}
	return out
}

// CountView returns how many clients watch the given view.
func (h *Hub) CountView(view string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	n := 0
	for _, client := range h.clients {
		if client.Subscription.View == view {
			n++
		}
	}
	return n
}

// match treats empty meta fields as wildcards so a subscription is hit by
// any refresh covering it.
func match(sub Subscription, meta Subscription) bool {
	if meta.View != "" && sub.View != meta.View {
		return false
	}
	if meta.Sector != "" && sub.Sector != meta.Sector {
		return false
	}
	if meta.Counter != "" && sub.Counter != meta.Counter {
		return false
	}
	return true
}
