package ws

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tradecontrol/internal/models"
)

func newTestServer(t *testing.T) (*Hub, string) {
	t.Helper()
	hub := NewHub()
	srv := httptest.NewServer(http.HandlerFunc(hub.HandleConnection))
	t.Cleanup(srv.Close)
	return hub, "ws" + strings.TrimPrefix(srv.URL, "http")
}

func dialAndAuth(t *testing.T, url, userID string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	require.NoError(t, conn.WriteJSON(map[string]string{"type": "auth", "userId": userID}))
	return conn
}

func waitForListeners(t *testing.T, hub *Hub, userID string, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if hub.ListenerCount(userID) == want {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("expected %d listeners for %s, got %d", want, userID, hub.ListenerCount(userID))
}

func TestHubBroadcast(t *testing.T) {
	hub, url := newTestServer(t)

	conn := dialAndAuth(t, url, "user-1")
	waitForListeners(t, hub, "user-1", 1)

	hub.Broadcast("user-1", NewBotStatus("BNB", true))

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var event BotStatusEvent
	require.NoError(t, conn.ReadJSON(&event))
	assert.Equal(t, "bot_status", event.Type)
	assert.Equal(t, "BNB", event.Network)
	assert.True(t, event.IsRunning)
}

func TestHubEventOrdering(t *testing.T) {
	hub, url := newTestServer(t)
	conn := dialAndAuth(t, url, "user-1")
	waitForListeners(t, hub, "user-1", 1)

	trade := &models.TradeLog{ID: 42, UserID: "user-1", Network: "SOL", Status: models.TradeStatusSuccess}
	hub.Broadcast("user-1", NewTrade(trade))
	hub.Broadcast("user-1", NewBotStatus("SOL", true))

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, first, err := conn.ReadMessage()
	require.NoError(t, err)
	_, second, err := conn.ReadMessage()
	require.NoError(t, err)

	var tradeEvent NewTradeEvent
	require.NoError(t, json.Unmarshal(first, &tradeEvent))
	assert.Equal(t, "new_trade", tradeEvent.Type)
	require.NotNil(t, tradeEvent.Trade)
	assert.Equal(t, uint(42), tradeEvent.Trade.ID)

	var statusEvent BotStatusEvent
	require.NoError(t, json.Unmarshal(second, &statusEvent))
	assert.Equal(t, "bot_status", statusEvent.Type)
}

func TestHubIsolatesUsers(t *testing.T) {
	hub, url := newTestServer(t)

	conn1 := dialAndAuth(t, url, "user-1")
	dialAndAuth(t, url, "user-2")
	waitForListeners(t, hub, "user-1", 1)
	waitForListeners(t, hub, "user-2", 1)

	hub.Broadcast("user-2", NewBotStatus("ETH", false))
	hub.Broadcast("user-1", NewBotStatus("BNB", true))

	conn1.SetReadDeadline(time.Now().Add(2 * time.Second))
	var event BotStatusEvent
	require.NoError(t, conn1.ReadJSON(&event))
	assert.Equal(t, "BNB", event.Network, "listener only sees its own user's events")
}

func TestHubRejectsInvalidAuth(t *testing.T) {
	hub, url := newTestServer(t)

	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()
	require.NoError(t, conn.WriteJSON(map[string]string{"type": "subscribe"}))

	// The hub closes unauthenticated connections and registers nothing.
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err = conn.ReadMessage()
	assert.Error(t, err)
	assert.Zero(t, hub.ListenerCount(""))
}

func TestHubPrunesDisconnectedListeners(t *testing.T) {
	hub, url := newTestServer(t)

	conn := dialAndAuth(t, url, "user-1")
	waitForListeners(t, hub, "user-1", 1)

	conn.Close()
	waitForListeners(t, hub, "user-1", 0)

	// Broadcasting to a user with no listeners is harmless.
	hub.Broadcast("user-1", NewBotStatus("BNB", false))
}
