package ws

import (
	"encoding/json"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Event is a WebSocket message pushed to a session's form clients.
type Event struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// sessionEvent routes an event to one session room.
type sessionEvent struct {
	SessionID uuid.UUID
	Event     Event
}

// Hub keeps the connected clients of every session and fans events out to them.
type Hub struct {
	// Registered clients by session ID
	rooms map[uuid.UUID]map[*Client]bool

	register   chan *Client
	unregister chan *Client
	broadcast  chan *sessionEvent
	closeRoom  chan uuid.UUID
	done       chan struct{}
	stopOnce   sync.Once

	logger *zap.Logger
	mu     sync.RWMutex
}

// NewHub creates a new Hub instance.
func NewHub(logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		rooms:      make(map[uuid.UUID]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *sessionEvent, 256),
		closeRoom:  make(chan uuid.UUID, 16),
		done:       make(chan struct{}),
		logger:     logger,
	}
}

// Run starts the hub's main loop. It returns after Stop.
// This should be called as a goroutine: go hub.Run()
func (h *Hub) Run() {
	for {
		select {
		case <-h.done:
			h.mu.Lock()
			for id, clients := range h.rooms {
				for client := range clients {
					close(client.send)
				}
				delete(h.rooms, id)
			}
			h.mu.Unlock()
			return

		case client := <-h.register:
			h.mu.Lock()
			if h.rooms[client.sessionID] == nil {
				h.rooms[client.sessionID] = make(map[*Client]bool)
			}
			h.rooms[client.sessionID][client] = true
			h.mu.Unlock()

		case client := <-h.unregister:
			h.mu.Lock()
			h.drop(client)
			h.mu.Unlock()

		case id := <-h.closeRoom:
			h.mu.Lock()
			n := len(h.rooms[id])
			for client := range h.rooms[id] {
				h.drop(client)
			}
			h.mu.Unlock()
			if n > 0 {
				h.logger.Info("ws room closed", zap.String("session_id", id.String()), zap.Int("clients", n))
			}

		case event := <-h.broadcast:
			message, err := json.Marshal(event.Event)
			if err != nil {
				h.logger.Error("marshal ws event", zap.String("type", event.Event.Type), zap.Error(err))
				continue
			}

			h.mu.Lock()
			for client := range h.rooms[event.SessionID] {
				select {
				case client.send <- message:
				default:
					// Slow consumer: its buffer is full
					h.drop(client)
				}
			}
			h.mu.Unlock()
		}
	}
}

// drop removes client from its room. Callers hold h.mu.
func (h *Hub) drop(client *Client) {
	clients, ok := h.rooms[client.sessionID]
	if !ok {
		return
	}
	if _, exists := clients[client]; !exists {
		return
	}
	delete(clients, client)
	close(client.send)
	if len(clients) == 0 {
		delete(h.rooms, client.sessionID)
	}
}

// Stop ends Run and closes every client. It is safe to call more than once.
func (h *Hub) Stop() {
	h.stopOnce.Do(func() { close(h.done) })
}

// CloseSession disconnects every client watching sessionID. Used when the
// session is deleted or expires.
func (h *Hub) CloseSession(sessionID uuid.UUID) {
	select {
	case h.closeRoom <- sessionID:
	case <-h.done:
	}
}

// BroadcastToSession queues event for every client watching sessionID.
func (h *Hub) BroadcastToSession(sessionID uuid.UUID, event Event) {
	select {
	case h.broadcast <- &sessionEvent{SessionID: sessionID, Event: event}:
	case <-h.done:
	}
}

// Notify marshals payload and broadcasts it as eventType.
func (h *Hub) Notify(sessionID uuid.UUID, eventType string, payload any) {
	body, err := json.Marshal(payload)
	if err != nil {
		h.logger.Error("marshal ws payload", zap.String("type", eventType), zap.Error(err))
		return
	}
	h.BroadcastToSession(sessionID, Event{Type: eventType, Payload: body})
}

// Clients returns the number of clients watching sessionID.
func (h *Hub) Clients(sessionID uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[sessionID])
}
