package websocket

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	gorilla "github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tsprep/internal/operations"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func startHub(t *testing.T) *Hub {
	t.Helper()
	hub := NewHub(testLogger())
	hub.Start()
	t.Cleanup(hub.Stop)
	return hub
}

func dial(t *testing.T, hub *Hub) *gorilla.Conn {
	t.Helper()
	upgrader := gorilla.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		ServeWS(hub, conn)
	}))
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := gorilla.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readMessage(t *testing.T, conn *gorilla.Conn) map[string]any {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var msg map[string]any
	require.NoError(t, json.Unmarshal(data, &msg))
	return msg
}

func TestHubGreetsNewClient(t *testing.T) {
	hub := startHub(t)
	conn := dial(t, hub)

	msg := readMessage(t, conn)
	assert.Equal(t, TypeConnection, msg["type"])

	deadline := time.After(2 * time.Second)
	for hub.ClientCount() != 1 {
		select {
		case <-deadline:
			t.Fatal("client never registered")
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func TestHubBroadcastReachesClients(t *testing.T) {
	hub := startHub(t)
	conn := dial(t, hub)
	readMessage(t, conn) // greeting

	hub.Broadcast([]byte(`{"type":"status","message":"run started"}`))

	msg := readMessage(t, conn)
	assert.Equal(t, "status", msg["type"])
	assert.Equal(t, "run started", msg["message"])
}

func TestHubBroadcastWithoutClientsDoesNotBlock(t *testing.T) {
	hub := startHub(t)

	done := make(chan struct{})
	go func() {
		for i := 0; i < 1000; i++ {
			hub.Broadcast([]byte("x"))
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("broadcast blocked")
	}
}

func TestHubStartIsIdempotent(t *testing.T) {
	hub := NewHub(testLogger())
	hub.Start()
	hub.Start()
	hub.Stop()
	hub.Stop()
}

func TestSinkPublishesEvents(t *testing.T) {
	hub := startHub(t)
	conn := dial(t, hub)
	readMessage(t, conn) // greeting

	sink := NewSink(hub, testLogger())
	sink.Publish(operations.Event{
		Type:        operations.EventTypeProgress,
		OperationID: "op-1",
		StepID:      "filter",
		Status:      "completed",
		Message:     "filters applied",
		Progress:    0.5,
		Timestamp:   time.Now(),
	})

	msg := readMessage(t, conn)
	assert.Equal(t, operations.EventTypeProgress, msg["type"])
	assert.Equal(t, "op-1", msg["operation_id"])
	assert.Equal(t, 0.5, msg["progress"])
}
