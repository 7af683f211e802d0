package services

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/gofiber/contrib/websocket"

	"phone-console/models"
)

// FeedScopeSystem subscribes a connection to every company's events. Used by
// system admin sessions.
const FeedScopeSystem = "system"

// FeedHub fans accepted activity events out to connected dashboard sessions,
// grouped by company scope.
type FeedHub struct {
	// scope -> session ID -> connection
	connections map[string]map[string]*FeedConnection
	mu          sync.RWMutex
	broadcast   chan models.ActivityEvent
}

// FeedConnection is one subscribed dashboard websocket.
type FeedConnection struct {
	Conn      *websocket.Conn
	Scope     string
	SessionID string
	Username  string
	Send      chan []byte
}

// feedPayload is the wire shape of one feed message.
type feedPayload struct {
	Type      string               `json:"type"`
	Event     models.ActivityEvent `json:"event"`
	Timestamp int64                `json:"timestamp"`
}

func NewFeedHub() *FeedHub {
	h := &FeedHub{
		connections: make(map[string]map[string]*FeedConnection),
		broadcast:   make(chan models.ActivityEvent, 100),
	}
	go h.handleBroadcast()
	return h
}

// Register adds a connection to its scope.
func (h *FeedHub) Register(conn *FeedConnection) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.connections[conn.Scope] == nil {
		h.connections[conn.Scope] = make(map[string]*FeedConnection)
	}
	h.connections[conn.Scope][conn.SessionID] = conn

	slog.Info("Feed connection registered",
		"scope", conn.Scope,
		"username", conn.Username,
		"totalConnections", len(h.connections[conn.Scope]))
}

// Unregister removes a connection and closes its send channel.
func (h *FeedHub) Unregister(scope, sessionID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	scopeConns, exists := h.connections[scope]
	if !exists {
		return
	}
	conn, exists := scopeConns[sessionID]
	if !exists {
		return
	}

	close(conn.Send)
	delete(scopeConns, sessionID)
	if len(scopeConns) == 0 {
		delete(h.connections, scope)
	}

	slog.Info("Feed connection unregistered",
		"scope", scope,
		"remainingConnections", len(scopeConns))
}

// Broadcast queues an event for delivery to its company's subscribers and to
// system-scope subscribers. Never blocks the caller.
func (h *FeedHub) Broadcast(event models.ActivityEvent) {
	select {
	case h.broadcast <- event:
	default:
		slog.Warn("Feed broadcast buffer full, event skipped", "action", event.Action)
	}
}

func (h *FeedHub) handleBroadcast() {
	for event := range h.broadcast {
		payload := feedPayload{
			Type:      "activity",
			Event:     event,
			Timestamp: time.Now().Unix(),
		}
		data, err := json.Marshal(payload)
		if err != nil {
			slog.Error("Failed to marshal feed payload", "error", err)
			continue
		}

		scopes := []string{FeedScopeSystem}
		if event.CompanyID != "" {
			scopes = append(scopes, event.CompanyID)
		}

		h.mu.RLock()
		for _, scope := range scopes {
			for _, conn := range h.connections[scope] {
				select {
				case conn.Send <- data:
				default:
					// Slow consumer, skip rather than stall the hub
				}
			}
		}
		h.mu.RUnlock()
	}
}

// ConnectionCount returns how many connections a scope has.
func (h *FeedHub) ConnectionCount(scope string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.connections[scope])
}
