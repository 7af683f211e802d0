package handlers

import (
	"encoding/json"
	"log/slog"
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"

	"phone-console/models"
	"phone-console/services"
)

// WebSocketUpgrade gates the live feed endpoint to websocket upgrades. Runs
// behind RequireAuth, so the identity locals are already set.
func (h *Handler) WebSocketUpgrade(c *fiber.Ctx) error {
	if websocket.IsWebSocketUpgrade(c) {
		return c.Next()
	}
	return fiber.ErrUpgradeRequired
}

// HandleFeed serves one live activity feed connection. System admins subscribe
// to the system scope and see every company's events; everyone else sees their
// company's.
func (h *Handler) HandleFeed(c *websocket.Conn) {
	sessionID, _ := c.Locals("session_id").(string)
	username, _ := c.Locals("username").(string)
	role, _ := c.Locals("role").(models.Role)
	companyID, _ := c.Locals("company_id").(string)

	scope := companyID
	if role == models.RoleSystemadmin {
		scope = services.FeedScopeSystem
	}
	if scope == "" {
		slog.Error("Feed connection without scope", "username", username)
		c.Close()
		return
	}

	conn := &services.FeedConnection{
		Conn:      c,
		Scope:     scope,
		SessionID: sessionID,
		Username:  username,
		Send:      make(chan []byte, 64),
	}
	h.Feed.Register(conn)
	defer h.Feed.Unregister(scope, sessionID)

	welcome := map[string]any{
		"type":    "connected",
		"message": "Activity feed connected",
		"scope":   scope,
	}
	if data, err := json.Marshal(welcome); err == nil {
		c.WriteMessage(websocket.TextMessage, data)
	}

	go feedWritePump(conn)
	feedReadPump(conn)
}

func feedWritePump(conn *services.FeedConnection) {
	ticker := time.NewTicker(54 * time.Second)
	defer func() {
		ticker.Stop()
		conn.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-conn.Send:
			conn.Conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				conn.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := conn.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			conn.Conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := conn.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func feedReadPump(conn *services.FeedConnection) {
	defer conn.Conn.Close()

	conn.Conn.SetReadLimit(4 * 1024)
	conn.Conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	conn.Conn.SetPongHandler(func(string) error {
		conn.Conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		_, messageBytes, err := conn.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				slog.Error("Feed read error", "error", err)
			}
			return
		}
		conn.Conn.SetReadDeadline(time.Now().Add(60 * time.Second))

		// The feed is one-way; only ping is answered.
		var msg struct {
			Type string `json:"type"`
		}
		if err := json.Unmarshal(messageBytes, &msg); err != nil {
			continue
		}
		if msg.Type == "ping" {
			if data, err := json.Marshal(map[string]string{"type": "pong"}); err == nil {
				select {
				case conn.Send <- data:
				default:
				}
			}
		}
	}
}
