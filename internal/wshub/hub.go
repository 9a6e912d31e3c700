package wshub

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/coder/websocket"
)

const writeTimeout = 10 * time.Second

// ClientMessage is the JSON envelope received from clients.
type ClientMessage struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// ServerMessage is the JSON envelope sent to clients.
type ServerMessage struct {
	Event string `json:"event"`
	Data  any    `json:"data,omitempty"`
}

// Client represents a single WebSocket connection. Conn may be nil in tests,
// in which case frames simply accumulate in Send.
type Client struct {
	ID   string
	Conn *websocket.Conn
	Send chan []byte

	done chan struct{}
	once sync.Once
}

func NewClient(id string, conn *websocket.Conn, buffer int) *Client {
	return &Client{
		ID:   id,
		Conn: conn,
		Send: make(chan []byte, buffer),
		done: make(chan struct{}),
	}
}

// Enqueue queues a frame without blocking. It reports false when the client
// is closed or its buffer is full, in which case the frame is dropped.
func (c *Client) Enqueue(data []byte) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.Send <- data:
		return true
	default:
		return false
	}
}

// Close stops the write pump. Send is never closed so late enqueues are safe.
func (c *Client) Close() {
	c.once.Do(func() { close(c.done) })
}

func (c *Client) Done() <-chan struct{} {
	return c.done
}

// WritePump reads from the Send channel and writes to the WebSocket connection.
func (c *Client) WritePump(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-c.done:
			return
		case msg := <-c.Send:
			wctx, cancel := context.WithTimeout(ctx, writeTimeout)
			err := c.Conn.Write(wctx, websocket.MessageText, msg)
			cancel()
			if err != nil {
				return
			}
		}
	}
}

func Encode(msg ServerMessage) ([]byte, bool) {
	data, err := json.Marshal(msg)
	if err != nil {
		log.Printf("[WSHub] Marshal error for %s: %v\n", msg.Event, err)
		return nil, false
	}
	return data, true
}

// Hub is the multicast group of one room.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*Client
}

// NewHub creates a new Hub.
func NewHub() *Hub {
	return &Hub{
		clients: make(map[string]*Client),
	}
}

// Register adds a client to the hub.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[c.ID] = c
}

// Unregister removes a client from the group. The connection itself stays open.
func (h *Hub) Unregister(clientID string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	_, ok := h.clients[clientID]
	delete(h.clients, clientID)
	return ok
}

func (h *Hub) Has(clientID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.clients[clientID]
	return ok
}

func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Broadcast sends a message to every client in the group.
func (h *Hub) Broadcast(msg ServerMessage) {
	h.BroadcastExcept("", msg)
}

// BroadcastExcept sends a message to all clients except the sender. Non-blocking: drops if channel full.
func (h *Hub) BroadcastExcept(senderID string, msg ServerMessage) {
	data, ok := Encode(msg)
	if !ok {
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for id, c := range h.clients {
		if id == senderID {
			continue
		}
		if !c.Enqueue(data) {
			log.Printf("[WSHub] Dropped %s for %s\n", msg.Event, id)
		}
	}
}

// Clear empties the group and returns the clients that were in it.
func (h *Hub) Clear() []*Client {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]*Client, 0, len(h.clients))
	for id, c := range h.clients {
		out = append(out, c)
		delete(h.clients, id)
	}
	return out
}
