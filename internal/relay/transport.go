package relay

import (
	"errors"
	"fmt"
	"time"

	"github.com/gorilla/websocket"
)

// ErrTransportClosed reports that the peer closed the connection cleanly
var ErrTransportClosed = errors.New("transport closed")

// Conn is one bidirectional message transport owned by a session.
// ReadFrame is called from a single goroutine; WriteFrame callers are
// serialized by the Registry. Close may be called concurrently with both.
type Conn interface {
	ReadFrame() ([]byte, error)
	WriteFrame(data []byte) error
	Close() error
	RemoteAddr() string
}

// wsConn adapts a gorilla websocket connection to Conn
type wsConn struct {
	conn         *websocket.Conn
	writeTimeout time.Duration
}

// NewWebSocketConn wraps conn; writeTimeout of zero disables write deadlines
func NewWebSocketConn(conn *websocket.Conn, writeTimeout time.Duration) Conn {
	return &wsConn{conn: conn, writeTimeout: writeTimeout}
}

func (c *wsConn) ReadFrame() ([]byte, error) {
	_, data, err := c.conn.ReadMessage()
	if err != nil {
		return nil, classifyWebSocketError("read", err)
	}
	return data, nil
}

func (c *wsConn) WriteFrame(data []byte) error {
	if c.writeTimeout > 0 {
		_ = c.conn.SetWriteDeadline(time.Now().Add(c.writeTimeout))
	}
	if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		return classifyWebSocketError("write", err)
	}
	return nil
}

func (c *wsConn) Close() error {
	return c.conn.Close()
}

func (c *wsConn) RemoteAddr() string {
	return c.conn.RemoteAddr().String()
}

func classifyWebSocketError(op string, err error) error {
	if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseNoStatusReceived) ||
		errors.Is(err, websocket.ErrCloseSent) {
		return fmt.Errorf("%w: %v", ErrTransportClosed, err)
	}
	return fmt.Errorf("websocket %s: %w", op, err)
}
