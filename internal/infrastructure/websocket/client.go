package websocket

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"chatwave/pkg/logger"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 * 1024
)

// Client binds one live WebSocket connection to exactly one authenticated
// user for its lifetime. Many clients may map to the same user (multi-device).
type Client struct {
	UserID   string
	Username string
	Conn     *websocket.Conn
	Send     chan []byte

	mu     sync.Mutex
	closed bool
}

// ReadPump reads frames from the connection and hands them to the dispatcher
// one at a time, preserving per-connection event order end-to-end.
func (c *Client) ReadPump(r *Registry, d *Dispatcher) {
	defer func() {
		r.Unregister(c)
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Warn("WebSocket read error for user %s: %v", c.UserID, err)
			}
			break
		}

		d.Dispatch(c, message)
	}
}

// WritePump drains the send channel onto the connection and keeps the
// transport alive with periodic pings.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				logger.Warn("WebSocket write error for user %s: %v", c.UserID, err)
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// enqueue queues payload for the write pump without ever blocking. It
// reports false only when the buffer is full; enqueueing on a session that
// is already closed is a silent no-op, so callers holding a stale reference
// cannot hit a closed channel.
func (c *Client) enqueue(payload []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return true
	}
	select {
	case c.Send <- payload:
		return true
	default:
		return false
	}
}

// closeSend closes the send channel exactly once, even if the transport
// reports the disconnect more than once. The closed flag is flipped under
// the same lock enqueue takes, so no send can race the close.
func (c *Client) closeSend() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.Send)
}
