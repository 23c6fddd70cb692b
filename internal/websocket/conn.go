package websocket

import (
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait = 10 * time.Second
	readWait  = 5 * time.Minute
)

// ErrMalformedMessage is returned by ReadMessage when a frame arrives intact
// but is not a JSON object with an action. The connection stays usable.
var ErrMalformedMessage = errors.New("websocket: malformed message")

// Conn wraps a gorilla connection so the read loop and the deadline timer
// can both write to it.
type Conn struct {
	raw *websocket.Conn

	mu     sync.Mutex
	closed bool
}

// NewConn wraps an upgraded connection.
func NewConn(raw *websocket.Conn) *Conn {
	return &Conn{raw: raw}
}

// ReadMessage reads the next frame and peeks at its action.
func (c *Conn) ReadMessage() (Action, []byte, error) {
	c.raw.SetReadDeadline(time.Now().Add(readWait))
	_, data, err := c.raw.ReadMessage()
	if err != nil {
		return "", nil, err
	}

	var env RequestEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return "", nil, ErrMalformedMessage
	}
	return env.Action, data, nil
}

// WriteTyped sends a strongly-typed response payload.
func (c *Conn) WriteTyped(v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return websocket.ErrCloseSent
	}
	c.raw.SetWriteDeadline(time.Now().Add(writeWait))
	return c.raw.WriteJSON(v)
}

// WriteError sends an ErrorResponse carrying the envelope error code.
func (c *Conn) WriteError(code, msg string) error {
	return c.WriteTyped(ErrorResponse{
		Event: EventError,
		Code:  code,
		Error: msg,
	})
}

// CloseNormal sends a normal-closure frame. Later writes fail with ErrCloseSent.
func (c *Conn) CloseNormal(reason string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, reason)
	return c.raw.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
}

// Close closes the underlying connection without a close frame.
func (c *Conn) Close() error {
	return c.raw.Close()
}
