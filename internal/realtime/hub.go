// Package realtime pushes per-user events over WebSocket connections.
package realtime

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"github.com/your-org/storefront-api/internal/config"
)

// TokenVerifier resolves a bearer token to the user it was issued for.
type TokenVerifier interface {
	Subject(token string) (uint, error)
}

// Hub keeps at most one live connection per user.
type Hub struct {
	verifier     TokenVerifier
	log          *logrus.Logger
	writeTimeout time.Duration
	readLimit    int64

	mu      sync.RWMutex
	clients map[uint]*Client
	closed  bool
}

// NewHub creates a hub authenticating connections with verifier.
func NewHub(verifier TokenVerifier, cfg config.RealtimeConfig, log *logrus.Logger) *Hub {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Hub{
		verifier:     verifier,
		log:          log,
		writeTimeout: cfg.WriteTimeout,
		readLimit:    cfg.ReadLimit,
		clients:      make(map[uint]*Client),
	}
}

// Serve authenticates conn with token, registers it and reads from it until
// the peer goes away. It blocks for the lifetime of the connection.
func (h *Hub) Serve(conn *websocket.Conn, token string) {
	client := newClient(conn, h.writeTimeout)
	if h.readLimit > 0 {
		conn.SetReadLimit(h.readLimit)
	}

	if token == "" {
		h.reject(client, "missing token")
		return
	}
	userID, err := h.verifier.Subject(token)
	if err != nil {
		h.reject(client, "invalid token")
		return
	}
	client.UserID = userID
	if !client.advance(StateConnecting, StateAuthenticated) {
		return
	}

	if !h.register(client) {
		h.reject(client, "server is shutting down")
		return
	}
	defer func() {
		h.unregister(client)
		client.close(websocket.CloseNormalClosure, "")
	}()

	// A newer connection or Shutdown may have closed the client already.
	if !client.advance(StateAuthenticated, StateOpen) {
		return
	}
	if err := client.send(EventConnected, map[string]uint{"userId": userID}); err != nil {
		h.log.WithError(err).WithField("user_id", userID).Warn("failed to acknowledge connection")
		return
	}

	h.readLoop(client)
}

func (h *Hub) readLoop(client *Client) {
	for {
		_, data, err := client.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				h.log.WithError(err).WithField("client_id", client.ID).Debug("connection read failed")
			}
			return
		}

		var msg struct {
			Event string          `json:"event"`
			Data  json.RawMessage `json:"data"`
		}
		if err := json.Unmarshal(data, &msg); err != nil {
			_ = client.sendError("malformed message")
			continue
		}

		switch msg.Event {
		case EventPing:
			err = client.send(EventPong, map[string]int64{"timestamp": time.Now().UnixMilli()})
		default:
			err = client.sendError("unsupported event: " + msg.Event)
		}
		if err != nil {
			h.log.WithError(err).WithField("client_id", client.ID).Warn("failed to reply")
			return
		}
	}
}

func (h *Hub) reject(client *Client, reason string) {
	if err := client.sendError(reason); err != nil {
		h.log.WithError(err).Debug("failed to send rejection")
	}
	client.close(websocket.ClosePolicyViolation, reason)
	h.log.WithFields(logrus.Fields{
		"client_id": client.ID,
		"reason":    reason,
	}).Info("websocket connection rejected")
}

func (h *Hub) register(client *Client) bool {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return false
	}
	previous := h.clients[client.UserID]
	h.clients[client.UserID] = client
	h.mu.Unlock()

	if previous != nil {
		previous.close(websocket.CloseNormalClosure, "replaced by a newer connection")
	}

	h.log.WithFields(logrus.Fields{
		"client_id": client.ID,
		"user_id":   client.UserID,
	}).Info("websocket client registered")
	return true
}

// unregister drops client only while it is still the user's current
// connection.
func (h *Hub) unregister(client *Client) {
	h.mu.Lock()
	current, ok := h.clients[client.UserID]
	if ok && current == client {
		delete(h.clients, client.UserID)
	}
	h.mu.Unlock()

	if ok && current == client {
		h.log.WithFields(logrus.Fields{
			"client_id": client.ID,
			"user_id":   client.UserID,
		}).Info("websocket client unregistered")
	}
}

// NotifyRecommendations pushes recs to the user's open connection. Users
// without one are skipped silently.
func (h *Hub) NotifyRecommendations(userID uint, recs any) {
	h.mu.RLock()
	client := h.clients[userID]
	h.mu.RUnlock()

	if client == nil || client.State() != StateOpen {
		return
	}
	if err := client.send(EventRecommendations, recs); err != nil {
		h.log.WithError(err).WithField("user_id", userID).Warn("failed to push recommendations")
	}
}

// Connected reports whether the user has an open connection.
func (h *Hub) Connected(userID uint) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	client, ok := h.clients[userID]
	return ok && client.State() == StateOpen
}

// Count returns the number of registered connections.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Shutdown closes every connection and refuses new ones.
func (h *Hub) Shutdown() {
	h.mu.Lock()
	h.closed = true
	clients := make([]*Client, 0, len(h.clients))
	for _, c := range h.clients {
		clients = append(clients, c)
	}
	h.clients = make(map[uint]*Client)
	h.mu.Unlock()

	for _, c := range clients {
		c.close(websocket.CloseGoingAway, "server shutting down")
	}
	h.log.WithField("connections", len(clients)).Info("websocket hub stopped")
}
