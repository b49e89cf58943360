package ws

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"neighborhub/internal/models"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 25 * time.Second
	maxMessageSize = 16 * 1024
)

// Client is one websocket connection. Outbound frames go through a bounded
// buffer drained by writePump; a full buffer drops the frame.
type Client struct {
	conn      *websocket.Conn
	info      ConnInfo
	send      chan []byte
	done      chan struct{}
	closeOnce sync.Once

	// guarded by Hub.mu
	userID string
	rooms  map[string]struct{}
}

// NewClient wraps conn. conn may be nil for clients that are never pumped.
func NewClient(conn *websocket.Conn, info ConnInfo, buffer int) *Client {
	if info.ConnID == "" {
		info.ConnID = newConnID()
	}
	if buffer <= 0 {
		buffer = 1
	}
	return &Client{
		conn:  conn,
		info:  info,
		send:  make(chan []byte, buffer),
		done:  make(chan struct{}),
		rooms: make(map[string]struct{}),
	}
}

// ID returns the connection id.
func (c *Client) ID() string {
	return c.info.ConnID
}

// Info returns the connection metadata.
func (c *Client) Info() ConnInfo {
	return c.info
}

// enqueue hands payload to the writer without blocking.
func (c *Client) enqueue(payload []byte) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.send <- payload:
		return true
	default:
		return false
	}
}

// Close stops the writer. Safe to call more than once.
func (c *Client) Close() {
	c.closeOnce.Do(func() { close(c.done) })
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case payload := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				log.Printf("websocket write error: conn_id=%s err=%v", c.info.ConnID, err)
				publishLifecycle(context.Background(), "ws_error", c.info, err.Error())
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.done:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}

// readPump feeds inbound frames to the hub until the connection fails and
// returns the close reason.
func (c *Client) readPump(h *Hub) string {
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				publishLifecycle(context.Background(), "ws_error", c.info, err.Error())
			}
			return err.Error()
		}

		var in models.InboundEvent
		if err := json.Unmarshal(data, &in); err != nil || in.Event == "" {
			h.sendError(c, "", "malformed event")
			continue
		}
		h.Dispatch(c, in)
	}
}
