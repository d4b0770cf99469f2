package ws

import (
	"encoding/json"
	"sync"
)

// Event is a push message delivered to subscribed UI clients. Payload is
// the full snapshot for the purpose, mirroring the live-query contract:
// clients always receive complete result sets, never diffs.
type Event struct {
	Type    string          `json:"type"`
	Purpose string          `json:"purpose"`
	Payload json.RawMessage `json:"payload"`
}

type purposeEvent struct {
	Purpose string
	Event   Event
}

// Hub maintains the set of active clients grouped by the live-query
// purpose they watch, and broadcasts snapshot events to them.
type Hub struct {
	// Registered clients by purpose
	rooms map[string]map[*Client]bool

	register   chan *Client
	unregister chan *Client

	broadcast chan *purposeEvent

	mu sync.RWMutex
}

func NewHub() *Hub {
	return &Hub{
		rooms:      make(map[string]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *purposeEvent, 256),
	}
}

// Run starts the hub's main loop.
// This should be called as a goroutine: go hub.Run()
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			if h.rooms[client.purpose] == nil {
				h.rooms[client.purpose] = make(map[*Client]bool)
			}
			h.rooms[client.purpose][client] = true
			h.mu.Unlock()

		case client := <-h.unregister:
			h.mu.Lock()
			if clients, ok := h.rooms[client.purpose]; ok {
				if _, exists := clients[client]; exists {
					delete(clients, client)
					close(client.send)
					if len(clients) == 0 {
						delete(h.rooms, client.purpose)
					}
				}
			}
			h.mu.Unlock()

		case event := <-h.broadcast:
			h.mu.Lock()
			clients := h.rooms[event.Purpose]

			message, err := json.Marshal(event.Event)
			if err != nil {
				h.mu.Unlock()
				continue
			}

			for client := range clients {
				select {
				case client.send <- message:
				default:
					// Client's send buffer is full, close and unregister
					close(client.send)
					delete(h.rooms[event.Purpose], client)
					if len(h.rooms[event.Purpose]) == 0 {
						delete(h.rooms, event.Purpose)
					}
				}
			}
			h.mu.Unlock()
		}
	}
}

// BroadcastToPurpose sends an event to all clients watching a purpose.
func (h *Hub) BroadcastToPurpose(purpose string, event Event) {
	h.broadcast <- &purposeEvent{
		Purpose: purpose,
		Event:   event,
	}
}
