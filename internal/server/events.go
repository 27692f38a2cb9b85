package server

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/termgate/termgate/internal/session"
)

// EventType represents the type of SSE event.
type EventType string

const (
	// EventHistoryAppend is sent when a command finishes and its history
	// entry is recorded.
	EventHistoryAppend EventType = "history-append"
	// EventHeartbeat keeps idle SSE connections alive.
	EventHeartbeat EventType = "heartbeat"
)

// Event represents an SSE event to be broadcast to clients. SessionID
// scopes the event; subscribers only receive events for their session.
type Event struct {
	SessionID string
	Type      EventType
	Data      string
}

// EventHub manages SSE client connections and broadcasts events.
// It is safe for concurrent use.
type EventHub struct {
	mu       sync.RWMutex
	clients  map[chan Event]string // channel -> session ID filter
	bufSize  int
	shutdown bool
}

// NewEventHub creates a new event hub for managing SSE connections.
func NewEventHub() *EventHub {
	return &EventHub{
		clients: make(map[chan Event]string),
		bufSize: 16,
	}
}

// Subscribe registers a new client interested in events for sessionID.
// Returns a channel that will receive events, or nil if the hub is shut
// down. The caller must call Unsubscribe when done.
func (h *EventHub) Subscribe(sessionID string) chan Event {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.shutdown {
		return nil
	}

	ch := make(chan Event, h.bufSize)
	h.clients[ch] = sessionID
	return ch
}

// Unsubscribe removes a client and closes its channel.
func (h *EventHub) Unsubscribe(ch chan Event) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[ch]; ok {
		delete(h.clients, ch)
		close(ch)
	}
}

// Broadcast sends an event to all clients subscribed to its session.
// Clients with full buffers have the event dropped.
func (h *EventHub) Broadcast(event Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for ch, sid := range h.clients {
		if sid != event.SessionID {
			continue
		}
		select {
		case ch <- event:
		default:
			// Client buffer is full, drop the event
		}
	}
}

// Close shuts down the event hub and closes all client channels.
func (h *EventHub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.shutdown = true
	for ch := range h.clients {
		close(ch)
		delete(h.clients, ch)
	}
}

// ClientCount returns the number of connected clients.
func (h *EventHub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// BroadcastHistoryAppend broadcasts a history entry for a session as a
// JSON payload.
func (h *EventHub) BroadcastHistoryAppend(sessionID string, entry session.HistoryEntry) {
	data, err := json.Marshal(entry)
	if err != nil {
		return
	}
	h.Broadcast(Event{
		SessionID: sessionID,
		Type:      EventHistoryAppend,
		Data:      string(data),
	})
}

// FormatSSE formats an event as an SSE message. Multiline data becomes
// multiple data: lines per the SSE framing rules.
func FormatSSE(event Event) string {
	data := strings.ReplaceAll(event.Data, "\n", "\ndata: ")
	return fmt.Sprintf("event: %s\ndata: %s\n\n", event.Type, data)
}
