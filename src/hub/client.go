package hub

import (
	"sync"
	"time"

	"github.com/fasthttp/websocket"

	"github.com/daybook-app/server/src/types"
)

// Client wraps a WebSocket connection and manages outbound message flow.
// Inbound frames are read by the Session that owns the socket.
type Client struct {
	ID          string
	conn        types.Conn
	Send        chan []byte
	connectedAt time.Time
	mu          sync.Mutex
	done        chan struct{}
	closed      bool
	closeMsg    []byte
}

// NewClient creates a new WebSocket client wrapper.
func NewClient(id string, conn types.Conn, sendBuffer int) *Client {
	if sendBuffer <= 0 {
		sendBuffer = 256
	}
	return &Client{
		ID:          id,
		conn:        conn,
		Send:        make(chan []byte, sendBuffer),
		connectedAt: time.Now(),
		done:        make(chan struct{}),
	}
}

// ConnectedAt reports when the socket was accepted.
func (c *Client) ConnectedAt() time.Time { return c.connectedAt }

// TrySend queues a payload without blocking. It reports false when the
// client is closed or its send buffer is full.
func (c *Client) TrySend(payload []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.Send <- payload:
		return true
	default:
		return false
	}
}

// WritePump writes queued payloads to the WebSocket. Call in a goroutine.
// The close control frame, when one was requested, goes out only after the
// send queue drains: the transport rejects data frames once a close message
// has been sent, so emitting it early would drop queued frames.
func (c *Client) WritePump() {
	defer c.conn.Close()

	for {
		select {
		case payload, ok := <-c.Send:
			if !ok {
				c.writeClose()
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-c.done:
			// Flush whatever was queued before the close.
			for {
				select {
				case payload, ok := <-c.Send:
					if !ok {
						c.writeClose()
						return
					}
					if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
						return
					}
				default:
					c.writeClose()
					return
				}
			}
		}
	}
}

// writeClose emits the pending close frame set by CloseWithCode, if any.
func (c *Client) writeClose() {
	c.mu.Lock()
	msg := c.closeMsg
	c.mu.Unlock()
	if msg != nil {
		_ = c.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
	}
}

// Close marks the client closed and stops the write pump.
// Safe to call more than once.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.done)
		close(c.Send)
	}
}

// CloseWithCode stops the client with a close control frame carrying the
// given code. The frame is not sent here: the write pump first drains queued
// payloads, then emits it and closes the transport.
func (c *Client) CloseWithCode(code int, reason string) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closeMsg = websocket.FormatCloseMessage(code, reason)
	c.mu.Unlock()
	c.Close()
}
