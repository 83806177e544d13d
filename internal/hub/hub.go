package hub

import (
	"encoding/json"
	"sync"

	"go.uber.org/zap"
)

// Event represents a real-time event to be sent to clients.
type Event struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

// Client represents a single subscriber to a chat's event stream.
// The SSE handler drains it.
type Client chan []byte

// NewClient returns a client buffering up to size events.
func NewClient(size int) Client {
	return make(Client, size)
}

// Hub fans chat events out to every connected participant.
type Hub struct {
	chats map[string]map[Client]bool
	mu    sync.RWMutex
	log   *zap.Logger
}

// NewHub creates a new Hub.
func NewHub(log *zap.Logger) *Hub {
	if log == nil {
		log = zap.NewNop()
	}
	return &Hub{
		chats: make(map[string]map[Client]bool),
		log:   log,
	}
}

// Subscribe adds a new client to a specific chat.
func (h *Hub) Subscribe(chatUID string, client Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.chats[chatUID]; !ok {
		h.chats[chatUID] = make(map[Client]bool)
	}
	h.chats[chatUID][client] = true
}

// Unsubscribe removes a client from a chat and closes it.
func (h *Hub) Unsubscribe(chatUID string, client Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if clients, ok := h.chats[chatUID]; ok {
		if _, ok := clients[client]; ok {
			delete(clients, client)
			close(client) // Signals the SSE handler to stop.
			if len(clients) == 0 {
				delete(h.chats, chatUID)
			}
		}
	}
}

// Subscribers reports how many clients are attached to a chat.
func (h *Hub) Subscribers(chatUID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.chats[chatUID])
}

// Broadcast sends an event to all clients in a specific chat.
func (h *Hub) Broadcast(chatUID string, event Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	clients, ok := h.chats[chatUID]
	if !ok {
		return
	}
	messageBytes, err := json.Marshal(event)
	if err != nil {
		h.log.Error("marshal hub event", zap.String("chat", chatUID), zap.String("type", event.Type), zap.Error(err))
		return
	}

	for client := range clients {
		// Non-blocking so a slow client cannot stall the sender.
		select {
		case client <- messageBytes:
		default:
			h.log.Debug("dropping event for slow client", zap.String("chat", chatUID))
		}
	}
}

// Publish wraps payload in an Event and broadcasts it.
func (h *Hub) Publish(chatUID, eventType string, payload any) {
	h.Broadcast(chatUID, Event{Type: eventType, Payload: payload})
}
