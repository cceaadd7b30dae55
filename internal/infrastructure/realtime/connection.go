package realtime

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pingPeriod     = 30 * time.Second
	outboxCapacity = 128
)

var errConnClosed = errors.New("realtime: connection closed")

// Connection wraps one websocket session. All outbound writes flow through a
// buffered outbox drained by a single goroutine, so Send is safe to call from
// any number of publishers.
type Connection struct {
	ID     string
	UserID string

	ws     *websocket.Conn
	outbox chan []byte
	done   chan struct{}
	once   sync.Once
}

// NewConnection builds a Connection for the given user session.
func NewConnection(userID string, ws *websocket.Conn) *Connection {
	return &Connection{
		ID:     uuid.NewString(),
		UserID: userID,
		ws:     ws,
		outbox: make(chan []byte, outboxCapacity),
		done:   make(chan struct{}),
	}
}

// Start launches the write loop. Call it exactly once per connection; the
// router does this on attach.
func (c *Connection) Start() {
	go c.writeLoop()
}

// Send enqueues payload for delivery. A full outbox means the client cannot
// keep up; the connection is dropped rather than letting the buffer grow.
func (c *Connection) Send(payload []byte) error {
	select {
	case <-c.done:
		return errConnClosed
	case c.outbox <- payload:
		return nil
	default:
		c.Close(websocket.CloseGoingAway, "send buffer full")
		return errors.New("realtime: send buffer exceeded")
	}
}

// Close terminates the session and stops the write loop. Safe to call more
// than once.
func (c *Connection) Close(code int, reason string) {
	c.once.Do(func() {
		close(c.done)
		deadline := time.Now().Add(writeWait)
		_ = c.ws.SetWriteDeadline(deadline)
		_ = c.ws.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(code, reason), deadline)
		_ = c.ws.Close()
	})
}

func (c *Connection) writeLoop() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case msg := <-c.outbox:
			if err := c.write(websocket.TextMessage, msg); err != nil {
				c.Close(websocket.CloseAbnormalClosure, "write failed")
				return
			}
		case <-ticker.C:
			if err := c.write(websocket.PingMessage, nil); err != nil {
				c.Close(websocket.CloseAbnormalClosure, "ping failed")
				return
			}
		}
	}
}

func (c *Connection) write(messageType int, payload []byte) error {
	if err := c.ws.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return c.ws.WriteMessage(messageType, payload)
}
