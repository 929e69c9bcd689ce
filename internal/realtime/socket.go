package realtime

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// FrameWriter is the write half of a websocket connection.
type FrameWriter interface {
	SetWriteDeadline(t time.Time) error
	WriteJSON(v interface{}) error
}

// SocketConn adapts a websocket to Conn. Broadcast deliveries and
// session replies share one write lock.
type SocketConn struct {
	id           string
	ws           FrameWriter
	writeTimeout time.Duration
	mu           sync.Mutex
}

// NewSocketConn wraps ws with a fresh connection id.
func NewSocketConn(ws FrameWriter, writeTimeout time.Duration) *SocketConn {
	return &SocketConn{id: uuid.NewString(), ws: ws, writeTimeout: writeTimeout}
}

// ID identifies the connection inside the broadcaster.
func (c *SocketConn) ID() string {
	return c.id
}

// Send writes a broadcast message.
func (c *SocketConn) Send(msg Message) error {
	return c.WriteJSON(msg)
}

// WriteJSON writes any frame under the connection's write lock.
func (c *SocketConn) WriteJSON(v interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.writeTimeout > 0 {
		if err := c.ws.SetWriteDeadline(time.Now().Add(c.writeTimeout)); err != nil {
			return err
		}
	}
	return c.ws.WriteJSON(v)
}
