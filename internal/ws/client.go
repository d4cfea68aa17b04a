package ws

import (
	"encoding/json"
	"time"

	"scamfeed/internal/logger"

	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 30 * time.Second
	pingPeriod = 25 * time.Second
)

type Client struct {
	UserID string
	Conn   *websocket.Conn
	Send   chan []byte
	Hub    *Hub
}

func NewClient(userID string, conn *websocket.Conn, hub *Hub) *Client {
	return &Client{
		UserID: userID,
		Conn:   conn,
		Send:   make(chan []byte, 64),
		Hub:    hub,
	}
}

// Run registers the client and blocks until the connection closes
func (c *Client) Run() {
	select {
	case c.Hub.register <- c:
	case <-c.Hub.done:
		_ = c.Conn.Close()
		return
	}
	go c.writePump()

	if msg, err := encode(MsgReady, nil); err == nil {
		c.trySend(msg)
	}
	c.readPump()
}

func (c *Client) trySend(msg []byte) {
	defer func() {
		// Send may already be closed by the hub
		_ = recover()
	}()
	select {
	case c.Send <- msg:
	default:
	}
}

//read
func (c *Client) readPump() {
	defer func() {
		select {
		case c.Hub.unregister <- c:
		case <-c.Hub.done:
		}
		_ = c.Conn.Close()
	}()

	c.Conn.SetReadLimit(4096)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, msg, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Debug("ws read error", "user_id", c.UserID, "error", err)
			}
			return
		}

		var env Envelope
		if err := json.Unmarshal(msg, &env); err != nil {
			if out, err := encode(MsgError, ErrorPayload{Message: "invalid message"}); err == nil {
				c.trySend(out)
			}
			continue
		}
		if env.Type == MsgPing {
			if out, err := encode(MsgPong, nil); err == nil {
				c.trySend(out)
			}
		}
	}
}

//write
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				logger.Debug("ws write error", "user_id", c.UserID, "error", err)
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
