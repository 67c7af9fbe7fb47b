// Package captions streams transcript messages to WebSocket subscribers for
// best-effort live captioning. No delivery guarantees: slow or dead clients
// are dropped rather than allowed to block the turn path.
package captions

import (
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hireloop/backend/internal/models"
)

// WSMessage is the WebSocket message envelope.
type WSMessage struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data,omitempty"`
}

// MessageSource supplies the transcript snapshot sent when a client attaches.
type MessageSource interface {
	Messages(sessionID string) []models.TranscriptMessage
}

// Hub maintains session_id -> set of caption subscribers and fans out
// appended messages.
type Hub struct {
	sessions map[string]map[string]*Client
	mu       sync.RWMutex
	logger   *zap.Logger
}

// NewHub creates a caption hub.
func NewHub(logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		sessions: make(map[string]map[string]*Client),
		logger:   logger,
	}
}

// Register adds a subscriber to a session feed.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	if h.sessions[c.SessionID] == nil {
		h.sessions[c.SessionID] = make(map[string]*Client)
	}
	h.sessions[c.SessionID][c.ID] = c
	h.mu.Unlock()
	h.logger.Debug("caption client joined",
		zap.String("client_id", c.ID),
		zap.String("session_id", c.SessionID))
}

// Unregister removes a subscriber.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	if m, ok := h.sessions[c.SessionID]; ok {
		delete(m, c.ID)
		if len(m) == 0 {
			delete(h.sessions, c.SessionID)
		}
	}
	h.mu.Unlock()
	h.logger.Debug("caption client left",
		zap.String("client_id", c.ID),
		zap.String("session_id", c.SessionID))
}

// Publish fans a transcript message out to the session's subscribers. A full
// send buffer counts as a dead client.
func (h *Hub) Publish(sessionID string, msg models.TranscriptMessage) {
	h.mu.RLock()
	clients := make([]*Client, 0, len(h.sessions[sessionID]))
	for _, c := range h.sessions[sessionID] {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	for _, c := range clients {
		if !c.trySend(WSMessage{Event: "caption", Data: msg}) {
			h.Unregister(c)
			c.Close()
		}
	}
}

// SubscriberCount returns the number of subscribers for a session.
func (h *Hub) SubscriberCount(sessionID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions[sessionID])
}

func newClientID() string { return uuid.New().String() }
