package captions

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	pingInterval = 30 * time.Second
	pongWait     = 60 * time.Second
	writeWait    = 10 * time.Second
	sendBuffer   = 32
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // allow all origins in dev; restrict in production
	},
}

// Client is one caption subscriber connection.
type Client struct {
	ID        string
	SessionID string
	conn      *websocket.Conn
	send      chan WSMessage
	closeOnce sync.Once
	logger    *zap.Logger
}

// trySend queues a message without blocking; false means the client is too
// slow and should be dropped.
func (c *Client) trySend(msg WSMessage) bool {
	select {
	case c.send <- msg:
		return true
	default:
		return false
	}
}

// Close shuts the connection down once.
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		close(c.send)
		_ = c.conn.Close()
	})
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()
	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump discards inbound frames; captions are one-way. Returning unblocks
// the deferred unregister.
func (c *Client) readPump(hub *Hub) {
	defer func() {
		hub.Unregister(c)
		c.Close()
	}()
	c.conn.SetReadLimit(512)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

// ServeWs handles GET /ws/captions?session_id=... It sends the transcript
// snapshot, then streams appended messages until the client disconnects.
func ServeWs(hub *Hub, source MessageSource, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID := c.Query("session_id")
		if sessionID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "session_id required"})
			return
		}

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			logger.Warn("websocket upgrade failed", zap.Error(err))
			return
		}

		client := &Client{
			ID:        newClientID(),
			SessionID: sessionID,
			conn:      conn,
			send:      make(chan WSMessage, sendBuffer),
			logger:    logger,
		}
		hub.Register(client)

		// Snapshot first so late joiners see the conversation so far.
		for _, msg := range source.Messages(sessionID) {
			if !client.trySend(WSMessage{Event: "caption", Data: msg}) {
				break
			}
		}

		go client.writePump()
		go client.readPump(hub)
	}
}
