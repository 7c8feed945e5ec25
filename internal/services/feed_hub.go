package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog/log"
)

// Feed event types
const (
	EventThoughtCreated  = "thought_created"
	EventThoughtUpdated  = "thought_updated"
	EventThoughtDeleted  = "thought_deleted"
	EventReactionAdded   = "reaction_added"
	EventReactionRemoved = "reaction_removed"
	EventUserCreated     = "user_created"
	EventUserDeleted     = "user_deleted"
)

var (
	feedConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "thoughtnet_feed_connections",
		Help: "Number of open live feed WebSocket connections",
	})
	feedEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "thoughtnet_feed_events_total",
		Help: "Total live feed events published by type",
	}, []string{"event_type"})
)

// EventPublisher receives notifications about completed mutations.
// Publishing never fails the mutation that triggered it.
type EventPublisher interface {
	Publish(eventType string, data any)
}

var errSendBufferFull = errors.New("send buffer full")

type noopPublisher struct{}

func (noopPublisher) Publish(string, any) {}

// FeedMessage represents a live feed WebSocket message
type FeedMessage struct {
	Type      string `json:"type"`
	Timestamp int64  `json:"timestamp,omitempty"`
	Message   string `json:"message,omitempty"`
	Data      any    `json:"data,omitempty"`
}

// feedSendBuffer is the number of messages queued per connection before
// the connection is considered stalled and dropped.
const feedSendBuffer = 64

// feedClient owns one connection. Only its writer goroutine writes to conn.
type feedClient struct {
	conn *websocket.Conn
	send chan []byte
}

// FeedHub fans out events to every connected WebSocket client.
// Publishing only queues messages, so a slow client never delays the caller.
type FeedHub struct {
	mu           sync.RWMutex
	clients      map[string]*feedClient
	writeTimeout time.Duration
}

// NewFeedHub creates a new feed hub
func NewFeedHub(writeTimeout time.Duration) *FeedHub {
	return &FeedHub{
		clients:      make(map[string]*feedClient),
		writeTimeout: writeTimeout,
	}
}

// Register adds a connection, starts its writer and returns its id
func (h *FeedHub) Register(conn *websocket.Conn) string {
	id := uuid.New().String()
	client := &feedClient{conn: conn, send: make(chan []byte, feedSendBuffer)}

	h.mu.Lock()
	h.clients[id] = client
	h.mu.Unlock()

	go h.writePump(id, client)

	feedConnections.Inc()
	log.Info().Str("connection_id", id).Msg("Feed connection registered")
	return id
}

// writePump drains the client's queue until it is closed or a write fails
func (h *FeedHub) writePump(id string, client *feedClient) {
	for data := range client.send {
		if h.writeTimeout > 0 {
			if err := client.conn.SetWriteDeadline(time.Now().Add(h.writeTimeout)); err != nil {
				h.drop(id, err)
				return
			}
		}
		if err := client.conn.WriteMessage(websocket.TextMessage, data); err != nil {
			h.drop(id, err)
			return
		}
	}
}

func (h *FeedHub) drop(id string, err error) {
	log.Warn().Err(err).Str("connection_id", id).Msg("Dropping feed connection")
	h.Unregister(id)
}

// Unregister closes and removes a connection
func (h *FeedHub) Unregister(id string) {
	h.mu.Lock()
	client, exists := h.clients[id]
	if exists {
		delete(h.clients, id)
		// closed under the write lock so no sender holds the read lock
		close(client.send)
	}
	h.mu.Unlock()

	if !exists {
		return
	}
	client.conn.Close()
	feedConnections.Dec()
	log.Info().Str("connection_id", id).Msg("Feed connection unregistered")
}

// Count returns the number of open connections
func (h *FeedHub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// enqueue queues data for one connection without blocking.
// It reports false when the connection is unknown or its queue is full.
func (h *FeedHub) enqueue(id string, data []byte) (registered, queued bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	client, exists := h.clients[id]
	if !exists {
		return false, false
	}
	select {
	case client.send <- data:
		return true, true
	default:
		return true, false
	}
}

// SendTo queues a message for one connection
func (h *FeedHub) SendTo(id string, message FeedMessage) error {
	data, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	registered, queued := h.enqueue(id, data)
	if !registered {
		return fmt.Errorf("connection %s is not registered", id)
	}
	if !queued {
		h.drop(id, errSendBufferFull)
		return fmt.Errorf("failed to send message: %w", errSendBufferFull)
	}
	return nil
}

// Publish queues an event for every connection. Connections whose queue
// is full are dropped.
func (h *FeedHub) Publish(eventType string, data any) {
	message := FeedMessage{
		Type:      eventType,
		Timestamp: time.Now().UnixMilli(),
		Data:      data,
	}
	payload, err := json.Marshal(message)
	if err != nil {
		log.Error().Err(err).Str("type", eventType).Msg("Failed to marshal feed event")
		return
	}
	feedEvents.WithLabelValues(eventType).Inc()

	var stalled []string
	h.mu.RLock()
	for id, client := range h.clients {
		select {
		case client.send <- payload:
		default:
			stalled = append(stalled, id)
		}
	}
	h.mu.RUnlock()

	for _, id := range stalled {
		h.drop(id, fmt.Errorf("%w while publishing %s", errSendBufferFull, eventType))
	}
}

// Close drops every connection
func (h *FeedHub) Close() {
	h.mu.RLock()
	ids := make([]string, 0, len(h.clients))
	for id := range h.clients {
		ids = append(ids, id)
	}
	h.mu.RUnlock()

	for _, id := range ids {
		h.Unregister(id)
	}
}
