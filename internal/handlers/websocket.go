package handlers

import (
	"encoding/json"
	"net/http"

	"thoughtnet/internal/services"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // the feed is public and read-only
	},
}

// WebSocketHandler serves the live feed
type WebSocketHandler struct {
	hub *services.FeedHub
}

// NewWebSocketHandler creates a new WebSocket handler
func NewWebSocketHandler(hub *services.FeedHub) *WebSocketHandler {
	return &WebSocketHandler{
		hub: hub,
	}
}

// HandleWebSocket handles GET /ws. Events are pushed by the hub; the
// read loop only answers pings and detects disconnects.
func (h *WebSocketHandler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("Failed to upgrade WebSocket connection")
		return
	}

	connID := h.hub.Register(conn)
	defer h.hub.Unregister(connID)

	if err := h.hub.SendTo(connID, services.FeedMessage{Type: "connected", Message: connID}); err != nil {
		log.Error().Err(err).Str("connection_id", connID).Msg("Failed to send connected message")
		return
	}

	for {
		_, messageBytes, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Error().Err(err).Str("connection_id", connID).Msg("WebSocket error")
			}
			return
		}

		var msg services.FeedMessage
		if err := json.Unmarshal(messageBytes, &msg); err != nil {
			h.sendError(connID, "Invalid message format")
			continue
		}

		switch msg.Type {
		case "ping":
			if err := h.hub.SendTo(connID, services.FeedMessage{Type: "pong"}); err != nil {
				return
			}
		default:
			h.sendError(connID, "Unknown message type")
		}
	}
}

// sendError sends an error message to one connection
func (h *WebSocketHandler) sendError(connID, message string) {
	if err := h.hub.SendTo(connID, services.FeedMessage{Type: "error", Message: message}); err != nil {
		log.Warn().Err(err).Str("connection_id", connID).Msg("Failed to send error message")
	}
}
