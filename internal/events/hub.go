// Package events pushes accessory lifecycle and state changes to connected
// controllers over WebSocket, so UIs track group fan-out without polling.
package events

import (
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/biggyd143/homebridge-casatunes/internal/bridge"
)

const (
	EventAccessoryAdded   = "accessory_added"
	EventAccessoryUpdated = "accessory_updated"
	EventAccessoryRemoved = "accessory_removed"
)

// Event is the wire format for one push notification.
type Event struct {
	Type      string                  `json:"type"`
	Accessory *bridge.AccessoryRecord `json:"accessory,omitempty"`
	UUID      string                  `json:"uuid,omitempty"`
	Timestamp string                  `json:"timestamp"`
}

type client struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *client) writeJSON(v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteJSON(v)
}

func (c *client) ping() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(5*time.Second))
}

// Hub fans events out to every connected controller. It satisfies the
// bridge Registry contract so accessory changes reach subscribers through
// the same path as the host registry and the persistence layer.
type Hub struct {
	logger *log.Logger

	mu      sync.Mutex
	clients map[*client]struct{}
}

func NewHub(logger *log.Logger) *Hub {
	if logger == nil {
		logger = log.Default()
	}
	return &Hub{
		logger:  logger,
		clients: make(map[*client]struct{}),
	}
}

// Register adopts a newly upgraded connection. The read loop exists only to
// detect disconnects; inbound frames are discarded.
func (h *Hub) Register(conn *websocket.Conn) {
	c := &client{conn: conn}

	h.mu.Lock()
	h.clients[c] = struct{}{}
	count := len(h.clients)
	h.mu.Unlock()

	h.logger.Printf("Event subscriber connected (%d active)", count)

	go h.readLoop(c)
	go h.pingLoop(c)
}

// ClientCount returns the number of connected subscribers.
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// AddAccessory broadcasts an accessory_added event.
func (h *Hub) AddAccessory(record bridge.AccessoryRecord) error {
	h.broadcast(Event{
		Type:      EventAccessoryAdded,
		Accessory: &record,
		UUID:      record.UUID,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
	return nil
}

// UpdateAccessory broadcasts an accessory_updated event. Group fan-out emits
// one of these per reflected member.
func (h *Hub) UpdateAccessory(record bridge.AccessoryRecord) error {
	h.broadcast(Event{
		Type:      EventAccessoryUpdated,
		Accessory: &record,
		UUID:      record.UUID,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
	return nil
}

// RemoveAccessory broadcasts an accessory_removed event.
func (h *Hub) RemoveAccessory(uuid string) error {
	h.broadcast(Event{
		Type:      EventAccessoryRemoved,
		UUID:      uuid,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
	return nil
}

// Close disconnects all subscribers.
func (h *Hub) Close() {
	h.mu.Lock()
	clients := make([]*client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.clients = make(map[*client]struct{})
	h.mu.Unlock()

	for _, c := range clients {
		c.conn.Close()
	}
}

func (h *Hub) broadcast(event Event) {
	h.mu.Lock()
	clients := make([]*client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.Unlock()

	for _, c := range clients {
		if err := c.writeJSON(event); err != nil {
			h.drop(c)
		}
	}
}

func (h *Hub) readLoop(c *client) {
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			h.drop(c)
			return
		}
	}
}

func (h *Hub) pingLoop(c *client) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for range ticker.C {
		h.mu.Lock()
		_, active := h.clients[c]
		h.mu.Unlock()
		if !active {
			return
		}
		if err := c.ping(); err != nil {
			h.drop(c)
			return
		}
	}
}

func (h *Hub) drop(c *client) {
	h.mu.Lock()
	_, active := h.clients[c]
	delete(h.clients, c)
	count := len(h.clients)
	h.mu.Unlock()

	if active {
		c.conn.Close()
		h.logger.Printf("Event subscriber disconnected (%d active)", count)
	}
}
