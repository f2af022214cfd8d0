package realtime

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// State is the lifecycle stage of a connection.
type State int32

const (
	StateConnecting State = iota
	StateAuthenticated
	StateOpen
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateAuthenticated:
		return "authenticated"
	case StateOpen:
		return "open"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Event names exchanged over the socket.
const (
	EventError           = "error"
	EventConnected       = "connected"
	EventPing            = "ping"
	EventPong            = "pong"
	EventRecommendations = "recommendations"
)

// Message is the envelope of every frame.
type Message struct {
	Event string `json:"event"`
	Data  any    `json:"data,omitempty"`
}

// Client is one live connection.
type Client struct {
	ID     string
	UserID uint

	conn         *websocket.Conn
	writeTimeout time.Duration
	writeMu      sync.Mutex
	state        atomic.Int32
}

func newClient(conn *websocket.Conn, writeTimeout time.Duration) *Client {
	return &Client{
		ID:           uuid.NewString(),
		conn:         conn,
		writeTimeout: writeTimeout,
	}
}

// State returns the current lifecycle stage.
func (c *Client) State() State {
	return State(c.state.Load())
}

// advance moves the client from one stage to the next. It fails when the
// client has meanwhile left from, typically because it was closed.
func (c *Client) advance(from, to State) bool {
	return c.state.CompareAndSwap(int32(from), int32(to))
}

// send writes one message. gorilla connections allow a single concurrent
// writer, hence the lock.
func (c *Client) send(event string, data any) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if c.writeTimeout > 0 {
		_ = c.conn.SetWriteDeadline(time.Now().Add(c.writeTimeout))
	}
	return c.conn.WriteJSON(Message{Event: event, Data: data})
}

func (c *Client) sendError(message string) error {
	return c.send(EventError, map[string]string{"message": message})
}

// close sends a close frame and releases the connection once.
func (c *Client) close(code int, reason string) {
	if State(c.state.Swap(int32(StateClosed))) == StateClosed {
		return
	}

	c.writeMu.Lock()
	deadline := time.Now().Add(time.Second)
	_ = c.conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(code, reason), deadline)
	c.writeMu.Unlock()

	_ = c.conn.Close()
}
