package ws

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"

	"tradecontrol/internal/models"
)

const (
	writeTimeout = 10 * time.Second
	authTimeout  = 30 * time.Second

	// sendBuffer bounds the per-listener outbound queue. A listener that
	// cannot drain it is pruned.
	sendBuffer = 64
)

// BotStatusEvent is pushed whenever a bot starts or stops.
type BotStatusEvent struct {
	Type      string `json:"type"`
	Network   string `json:"network"`
	IsRunning bool   `json:"isRunning"`
}

// NewTradeEvent is pushed whenever a trade log reaches a terminal state.
type NewTradeEvent struct {
	Type  string           `json:"type"`
	Trade *models.TradeLog `json:"trade,omitempty"`
}

type authMessage struct {
	Type   string `json:"type"`
	UserID string `json:"userId"`
}

// listener is one connected UI client. Writes go through the send channel so
// a user's events reach the socket in broadcast order.
type listener struct {
	hub    *Hub
	userID string
	conn   *websocket.Conn
	send   chan []byte
	once   sync.Once

	mu     sync.Mutex
	closed bool
}

// Hub fans events out to the authenticated listeners of each user.
type Hub struct {
	upgrader websocket.Upgrader

	mu        sync.RWMutex
	listeners map[string]map[*listener]struct{}
}

func NewHub() *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		listeners: make(map[string]map[*listener]struct{}),
	}
}

// HandleConnection upgrades the request and serves the listener until it
// disconnects. The first client message must be an auth message; listeners
// that never authenticate receive nothing.
func (h *Hub) HandleConnection(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warnf("websocket upgrade failed: %v", err)
		return
	}

	conn.SetReadDeadline(time.Now().Add(authTimeout))
	_, raw, err := conn.ReadMessage()
	if err != nil {
		conn.Close()
		return
	}

	var auth authMessage
	if err := json.Unmarshal(raw, &auth); err != nil || auth.Type != "auth" || auth.UserID == "" {
		log.Warn("websocket client sent invalid auth message, closing")
		conn.Close()
		return
	}
	conn.SetReadDeadline(time.Time{})

	l := &listener{
		hub:    h,
		userID: auth.UserID,
		conn:   conn,
		send:   make(chan []byte, sendBuffer),
	}
	h.register(l)
	log.Infof("websocket listener connected for user %s", auth.UserID)

	go l.writeLoop()
	l.readLoop()
}

// Broadcast serializes the event and queues it for every ready listener of
// the user. Listeners whose queue is full are pruned.
func (h *Hub) Broadcast(userID string, event interface{}) {
	payload, err := json.Marshal(event)
	if err != nil {
		log.Errorf("marshal websocket event: %v", err)
		return
	}

	h.mu.RLock()
	conns := make([]*listener, 0, len(h.listeners[userID]))
	for l := range h.listeners[userID] {
		conns = append(conns, l)
	}
	h.mu.RUnlock()

	for _, l := range conns {
		if !l.enqueue(payload) {
			log.Warnf("websocket listener for user %s is not draining, pruning", userID)
			l.close()
		}
	}
}

// ListenerCount returns the number of connected listeners for a user.
func (h *Hub) ListenerCount(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.listeners[userID])
}

// Close disconnects every listener.
func (h *Hub) Close() {
	h.mu.Lock()
	all := make([]*listener, 0)
	for _, set := range h.listeners {
		for l := range set {
			all = append(all, l)
		}
	}
	h.mu.Unlock()

	for _, l := range all {
		l.close()
	}
}

func (h *Hub) register(l *listener) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.listeners[l.userID] == nil {
		h.listeners[l.userID] = make(map[*listener]struct{})
	}
	h.listeners[l.userID][l] = struct{}{}
}

func (h *Hub) unregister(l *listener) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set := h.listeners[l.userID]
	delete(set, l)
	if len(set) == 0 {
		delete(h.listeners, l.userID)
	}
}

func (l *listener) writeLoop() {
	for payload := range l.send {
		l.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := l.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			l.close()
			return
		}
	}
}

func (l *listener) readLoop() {
	defer l.close()
	for {
		if _, _, err := l.conn.ReadMessage(); err != nil {
			return
		}
	}
}

// enqueue reports false when the listener's queue is full. Closed listeners
// swallow the event.
func (l *listener) enqueue(payload []byte) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return true
	}
	select {
	case l.send <- payload:
		return true
	default:
		return false
	}
}

func (l *listener) close() {
	l.once.Do(func() {
		l.hub.unregister(l)
		l.mu.Lock()
		l.closed = true
		close(l.send)
		l.mu.Unlock()
		l.conn.Close()
	})
}

