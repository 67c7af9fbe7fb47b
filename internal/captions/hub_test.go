package captions

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/hireloop/backend/internal/models"
)

type fakeSource struct {
	msgs []models.TranscriptMessage
}

func (f fakeSource) Messages(string) []models.TranscriptMessage { return f.msgs }

func dialCaptions(t *testing.T, hub *Hub, source MessageSource, sessionID string) *websocket.Conn {
	t.Helper()
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/ws/captions", ServeWs(hub, source, hub.logger))
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/captions?session_id=" + sessionID
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readCaption(t *testing.T, conn *websocket.Conn) map[string]interface{} {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg struct {
		Event string                 `json:"event"`
		Data  map[string]interface{} `json:"data"`
	}
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if msg.Event != "caption" {
		t.Fatalf("event = %q, want caption", msg.Event)
	}
	return msg.Data
}

func waitForSubscriber(t *testing.T, hub *Hub, sessionID string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if hub.SubscriberCount(sessionID) > 0 {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("subscriber never registered")
}

func TestAttachSendsSnapshot(t *testing.T) {
	hub := NewHub(nil)
	source := fakeSource{msgs: []models.TranscriptMessage{
		{ID: "m1", Role: models.MessageRoleAI, Text: "Hello Ada"},
	}}
	conn := dialCaptions(t, hub, source, "sess-1")

	data := readCaption(t, conn)
	if data["text"] != "Hello Ada" {
		t.Errorf("snapshot text = %v, want Hello Ada", data["text"])
	}
}

func TestPublishFansOutToSubscribers(t *testing.T) {
	hub := NewHub(nil)
	conn := dialCaptions(t, hub, fakeSource{}, "sess-1")
	waitForSubscriber(t, hub, "sess-1")

	hub.Publish("sess-1", models.TranscriptMessage{ID: "m2", Role: models.MessageRoleCandidate, Text: "Hi there"})

	data := readCaption(t, conn)
	if data["text"] != "Hi there" {
		t.Errorf("published text = %v, want Hi there", data["text"])
	}
}

func TestPublishToOtherSessionNotDelivered(t *testing.T) {
	hub := NewHub(nil)
	conn := dialCaptions(t, hub, fakeSource{}, "sess-1")
	waitForSubscriber(t, hub, "sess-1")

	hub.Publish("sess-other", models.TranscriptMessage{ID: "m3", Text: "wrong room"})

	_ = conn.SetReadDeadline(time.Now().Add(200 * time.Millisecond))
	if _, _, err := conn.ReadMessage(); err == nil {
		t.Error("message for another session should not be delivered")
	}
}

func TestUnregisterOnDisconnect(t *testing.T) {
	hub := NewHub(nil)
	conn := dialCaptions(t, hub, fakeSource{}, "sess-1")
	waitForSubscriber(t, hub, "sess-1")

	_ = conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if hub.SubscriberCount("sess-1") == 0 {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Error("disconnected client should be unregistered")
}
