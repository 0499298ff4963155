package bridge

import (
	"encoding/json"
	"sync"

	"github.com/dkeye/stagebridge/internal/core"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

type eventFrame struct {
	Type    string `json:"type"`
	Name    string `json:"name"`
	Payload any    `json:"payload,omitempty"`
}

// Hub fans events out to every connected client. It implements
// core.EventEmitter and never blocks.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*Client
}

func NewHub() *Hub {
	return &Hub{clients: make(map[string]*Client)}
}

func (h *Hub) add(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[c.id] = c
}

func (h *Hub) remove(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.clients, c.id)
}

func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) snapshot() []*Client {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]*Client, 0, len(h.clients))
	for _, c := range h.clients {
		out = append(out, c)
	}
	return out
}

// Broadcast returns how many clients accepted the message.
func (h *Hub) Broadcast(kind int, data []byte) int {
	sent := 0
	for _, c := range h.snapshot() {
		if err := c.TrySend(kind, data); err != nil {
			log.Warn().Str("module", "bridge").Str("client", c.id).Err(err).Msg("broadcast dropped")
			continue
		}
		sent++
	}
	return sent
}

func (h *Hub) BroadcastJSON(v any) int {
	b, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Str("module", "bridge").Msg("broadcast marshal")
		return 0
	}
	return h.Broadcast(websocket.TextMessage, b)
}

func (h *Hub) Emit(ev core.Event) {
	h.BroadcastJSON(eventFrame{Type: "event", Name: ev.Name, Payload: ev.Payload})
}
