package ws

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/guadalajara-pos/api/internal/enum"
)

// mockClient creates a client for testing without a real WebSocket connection
func mockClient(hub *Hub, purpose string) *Client {
	return &Client{
		hub:     hub,
		purpose: purpose,
		send:    make(chan []byte, 256),
	}
}

func TestHubRegistration(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	client := mockClient(hub, enum.PurposePendingOrders)

	// Register client
	hub.register <- client

	// Give hub time to process
	time.Sleep(10 * time.Millisecond)

	hub.mu.RLock()
	defer hub.mu.RUnlock()

	if hub.rooms[enum.PurposePendingOrders] == nil {
		t.Fatal("purpose room not created")
	}
	if !hub.rooms[enum.PurposePendingOrders][client] {
		t.Fatal("client not registered in purpose room")
	}
}

func TestHubUnregistration(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	client := mockClient(hub, enum.PurposePendingOrders)

	// Register client
	hub.register <- client
	time.Sleep(10 * time.Millisecond)

	// Unregister client
	hub.unregister <- client
	time.Sleep(10 * time.Millisecond)

	hub.mu.RLock()
	defer hub.mu.RUnlock()

	// Room should be cleaned up when empty
	if hub.rooms[enum.PurposePendingOrders] != nil {
		t.Fatal("purpose room not cleaned up after last client unregistered")
	}
}

func TestBroadcastToSinglePurpose(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	client1 := mockClient(hub, enum.PurposePendingOrders)
	client2 := mockClient(hub, enum.PurposeCompletedOrders)

	// Register both clients
	hub.register <- client1
	hub.register <- client2
	time.Sleep(10 * time.Millisecond)

	// Broadcast to pending watchers only
	testPayload := json.RawMessage(`[{"id":"test-123"}]`)
	event := Event{
		Type:    "orders.snapshot",
		Purpose: enum.PurposePendingOrders,
		Payload: testPayload,
	}
	hub.BroadcastToPurpose(enum.PurposePendingOrders, event)

	// Check client1 receives the message
	select {
	case msg := <-client1.send:
		var received Event
		if err := json.Unmarshal(msg, &received); err != nil {
			t.Fatalf("failed to unmarshal message: %v", err)
		}
		if received.Type != "orders.snapshot" {
			t.Errorf("expected type 'orders.snapshot', got '%s'", received.Type)
		}
		if received.Purpose != enum.PurposePendingOrders {
			t.Errorf("expected purpose '%s', got '%s'", enum.PurposePendingOrders, received.Purpose)
		}
		if string(received.Payload) != string(testPayload) {
			t.Errorf("expected payload '%s', got '%s'", testPayload, received.Payload)
		}
	case <-time.After(100 * time.Millisecond):
		t.Fatal("client1 did not receive message")
	}

	// Check client2 does NOT receive the message
	select {
	case <-client2.send:
		t.Fatal("client2 should not have received message for different purpose")
	case <-time.After(50 * time.Millisecond):
		// Expected - no message received
	}
}

func TestBroadcastToMultipleClientsSamePurpose(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	client1 := mockClient(hub, enum.PurposeMenu)
	client2 := mockClient(hub, enum.PurposeMenu)
	client3 := mockClient(hub, enum.PurposeMenu)

	// Register all clients to the same purpose
	hub.register <- client1
	hub.register <- client2
	hub.register <- client3
	time.Sleep(10 * time.Millisecond)

	// Broadcast event
	testPayload := json.RawMessage(`[{"name":"Arepa","unit_price":"2500.00"}]`)
	event := Event{
		Type:    "menu.snapshot",
		Purpose: enum.PurposeMenu,
		Payload: testPayload,
	}
	hub.BroadcastToPurpose(enum.PurposeMenu, event)

	// All three clients should receive the message
	clients := []*Client{client1, client2, client3}
	for i, client := range clients {
		select {
		case msg := <-client.send:
			var received Event
			if err := json.Unmarshal(msg, &received); err != nil {
				t.Fatalf("client%d: failed to unmarshal: %v", i+1, err)
			}
			if received.Type != "menu.snapshot" {
				t.Errorf("client%d: expected type 'menu.snapshot', got '%s'", i+1, received.Type)
			}
		case <-time.After(100 * time.Millisecond):
			t.Fatalf("client%d did not receive message", i+1)
		}
	}
}

func TestHubPurposeIsolation(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	// Create 2 clients per purpose
	clients := map[string][]*Client{
		enum.PurposePendingOrders:   {mockClient(hub, enum.PurposePendingOrders), mockClient(hub, enum.PurposePendingOrders)},
		enum.PurposeCompletedOrders: {mockClient(hub, enum.PurposeCompletedOrders), mockClient(hub, enum.PurposeCompletedOrders)},
		enum.PurposeMenu:            {mockClient(hub, enum.PurposeMenu), mockClient(hub, enum.PurposeMenu)},
	}

	// Register all clients
	for _, clientList := range clients {
		for _, client := range clientList {
			hub.register <- client
		}
	}
	time.Sleep(10 * time.Millisecond)

	// Broadcast to completed watchers only
	event := Event{
		Type:    "orders.snapshot",
		Purpose: enum.PurposeCompletedOrders,
		Payload: json.RawMessage(`[]`),
	}
	hub.BroadcastToPurpose(enum.PurposeCompletedOrders, event)

	// Only completed watchers should receive
	for purpose, clientList := range clients {
		for i, client := range clientList {
			select {
			case msg := <-client.send:
				if purpose != enum.PurposeCompletedOrders {
					t.Fatalf("purpose %s client %d should not receive message", purpose, i)
				}
				var received Event
				if err := json.Unmarshal(msg, &received); err != nil {
					t.Fatalf("unmarshal error: %v", err)
				}
				if received.Type != "orders.snapshot" {
					t.Errorf("wrong event type: %s", received.Type)
				}
			case <-time.After(50 * time.Millisecond):
				if purpose == enum.PurposeCompletedOrders {
					t.Fatalf("completed watcher %d should have received message", i)
				}
				// Expected for other purposes
			}
		}
	}
}

func TestHubCleanupEmptyRoom(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	client1 := mockClient(hub, enum.PurposePendingOrders)
	client2 := mockClient(hub, enum.PurposePendingOrders)

	// Register both clients
	hub.register <- client1
	hub.register <- client2
	time.Sleep(10 * time.Millisecond)

	hub.mu.RLock()
	if len(hub.rooms[enum.PurposePendingOrders]) != 2 {
		t.Fatalf("expected 2 clients, got %d", len(hub.rooms[enum.PurposePendingOrders]))
	}
	hub.mu.RUnlock()

	// Unregister first client
	hub.unregister <- client1
	time.Sleep(10 * time.Millisecond)

	hub.mu.RLock()
	if len(hub.rooms[enum.PurposePendingOrders]) != 1 {
		t.Fatalf("expected 1 client after first unregister, got %d", len(hub.rooms[enum.PurposePendingOrders]))
	}
	hub.mu.RUnlock()

	// Unregister second client
	hub.unregister <- client2
	time.Sleep(10 * time.Millisecond)

	hub.mu.RLock()
	if hub.rooms[enum.PurposePendingOrders] != nil {
		t.Fatal("room should be deleted when last client unregisters")
	}
	hub.mu.RUnlock()
}

func TestBroadcastToEmptyPurpose(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	client1 := mockClient(hub, enum.PurposePendingOrders)
	hub.register <- client1
	time.Sleep(10 * time.Millisecond)

	// Broadcast to a purpose nobody watches
	event := Event{
		Type:    "menu.snapshot",
		Purpose: enum.PurposeMenu,
		Payload: json.RawMessage(`[]`),
	}
	hub.BroadcastToPurpose(enum.PurposeMenu, event)

	// client1 should NOT receive anything
	select {
	case <-client1.send:
		t.Fatal("client should not receive message for different purpose")
	case <-time.After(50 * time.Millisecond):
		// Expected - no message
	}
}

func TestValidPurpose(t *testing.T) {
	valid := []string{enum.PurposePendingOrders, enum.PurposeCompletedOrders, enum.PurposeMenu}
	for _, p := range valid {
		if !validPurpose(p) {
			t.Errorf("%q should be a valid purpose", p)
		}
	}
	for _, p := range []string{"", "orders", "all"} {
		if validPurpose(p) {
			t.Errorf("%q should not be a valid purpose", p)
		}
	}
}
