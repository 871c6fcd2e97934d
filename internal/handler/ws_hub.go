package handler

import (
	"encoding/json"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// WSEvent is the envelope for all WebSocket messages.
type WSEvent struct {
	Type     string `json:"type"`
	SectorID string `json:"sector_id"`
	Data     any    `json:"data"`
}

// ClientMessage is the envelope for messages sent from the client.
type ClientMessage struct {
	Action   string `json:"action"` // "subscribe" or "unsubscribe"
	SectorID string `json:"sector_id"`
}

// WSConn wraps a WebSocket connection with its token subject and send queue.
type WSConn struct {
	conn    *websocket.Conn
	subject string
	send    chan []byte
}

// Hub manages WebSocket connections and sector-channel subscriptions.
type Hub struct {
	mu          sync.RWMutex
	connections map[*WSConn]bool
	sectors     map[string]map[*WSConn]bool // sectorID -> set of connections
}

// NewHub creates a new Hub.
func NewHub() *Hub {
	return &Hub{
		connections: make(map[*WSConn]bool),
		sectors:     make(map[string]map[*WSConn]bool),
	}
}

// Register adds a connection to the hub.
func (h *Hub) Register(c *WSConn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.connections[c] = true
}

// Unregister removes a connection from the hub and all its subscriptions.
func (h *Hub) Unregister(c *WSConn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.connections[c] {
		return
	}
	delete(h.connections, c)
	for sectorID, conns := range h.sectors {
		delete(conns, c)
		if len(conns) == 0 {
			delete(h.sectors, sectorID)
		}
	}
	close(c.send)
}

// maxSubscriptions caps how many sectors one connection may follow.
const maxSubscriptions = 16

// Subscribe adds a connection to a sector channel. It reports false when the
// connection already follows maxSubscriptions other sectors.
func (h *Hub) Subscribe(c *WSConn, sectorID string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.sectors[sectorID][c] {
		return true
	}
	n := 0
	for _, conns := range h.sectors {
		if conns[c] {
			n++
		}
	}
	if n >= maxSubscriptions {
		return false
	}
	if h.sectors[sectorID] == nil {
		h.sectors[sectorID] = make(map[*WSConn]bool)
	}
	h.sectors[sectorID][c] = true
	return true
}

// Unsubscribe removes a connection from a sector channel.
func (h *Hub) Unsubscribe(c *WSConn, sectorID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if conns, ok := h.sectors[sectorID]; ok {
		delete(conns, c)
		if len(conns) == 0 {
			delete(h.sectors, sectorID)
		}
	}
}

// BroadcastToSector sends an event to all connections subscribed to a sector.
// Slow consumers drop messages rather than stall the AI batch.
func (h *Hub) BroadcastToSector(sectorID string, event WSEvent) {
	data, err := json.Marshal(event)
	if err != nil {
		log.Error().Err(err).Str("sectorId", sectorID).Msg("Failed to marshal WebSocket event")
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.sectors[sectorID] {
		select {
		case c.send <- data:
		default:
			log.Warn().Str("subject", c.subject).Str("sectorId", sectorID).Msg("Dropping WebSocket message, buffer full")
		}
	}
}

// ConnectionCount returns the total number of active connections.
func (h *Hub) ConnectionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.connections)
}

// SectorSubscriberCount returns the number of connections subscribed to a sector.
func (h *Hub) SectorSubscriberCount(sectorID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sectors[sectorID])
}
