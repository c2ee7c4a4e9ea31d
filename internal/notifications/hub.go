package notifications

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"lobby/internal/observability"

	"github.com/gofiber/websocket/v2"
)

const (
	maxConnsPerUser = 8
	maxTotalConns   = 10000
)

// Hub maps userID to its active websocket connections and fans events out to
// them. A user may hold several connections (two browser tabs, a reconnect
// racing the old socket's teardown); every one of them gets every event.
type Hub struct {
	mu         sync.RWMutex
	conns      map[uint]map[*Client]struct{}
	totalConns int
	logger     *slog.Logger
}

// NewHub returns an empty hub.
func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		conns:  make(map[uint]map[*Client]struct{}),
		logger: logger,
	}
}

// Register attaches a connection for the user. Fails when the per-user or
// global connection limit is reached.
func (h *Hub) Register(userID uint, conn *websocket.Conn) (*Client, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.totalConns >= maxTotalConns {
		return nil, errors.New("server connection limit reached")
	}

	m, ok := h.conns[userID]
	if !ok {
		m = make(map[*Client]struct{})
		h.conns[userID] = m
	}
	if len(m) >= maxConnsPerUser {
		return nil, errors.New("user connection limit reached")
	}

	client := newClient(h, conn, userID, h.logger)
	m[client] = struct{}{}
	h.totalConns++
	observability.WebSocketConnections.Inc()

	return client, nil
}

// Unregister detaches a connection. Safe to call more than once per client.
func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	m, ok := h.conns[client.userID]
	if !ok {
		return
	}
	if _, exists := m[client]; !exists {
		return
	}
	delete(m, client)
	h.totalConns--
	observability.WebSocketConnections.Dec()
	if len(m) == 0 {
		delete(h.conns, client.userID)
	}
}

// Send delivers a message to every connection the user holds.
func (h *Hub) Send(userID uint, message string) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	data := []byte(message)
	for c := range h.conns[userID] {
		c.trySend(data)
	}
}

// Connected reports whether the user holds at least one connection on this
// node. This is connection state, not presence: presence lives in the
// presence store.
func (h *Hub) Connected(userID uint) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns[userID]) > 0
}

// StartWiring subscribes the hub to the notifier's per-user channels and
// forwards each event to the addressed user's connections.
func (h *Hub) StartWiring(ctx context.Context, n *Notifier) error {
	return n.StartSubscriber(ctx, func(channel, payload string) {
		if !strings.HasPrefix(channel, "lobby:user:") {
			h.logger.Warn("unexpected event channel", "channel", channel)
			return
		}
		var userID uint
		if _, err := fmt.Sscanf(channel, "lobby:user:%d", &userID); err != nil {
			h.logger.Warn("unexpected event channel", "channel", channel)
			return
		}
		h.Send(userID, payload)
	})
}

// Shutdown closes every connection with a going-away frame.
func (h *Hub) Shutdown(_ context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	for userID, clients := range h.conns {
		for client := range clients {
			if client.conn == nil {
				continue
			}
			if err := client.conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down")); err != nil {
				h.logger.Debug("close frame write failed", "user_id", userID, "error", err)
			}
			if err := client.conn.Close(); err != nil {
				h.logger.Debug("websocket close failed", "user_id", userID, "error", err)
			}
		}
	}
	h.conns = make(map[uint]map[*Client]struct{})
	h.totalConns = 0
	observability.WebSocketConnections.Set(0)

	return nil
}
