package server

import (
	"time"

	"github.com/gorilla/websocket"
)

// -----------------------------------------------------------------------------
// Connection policy
// -----------------------------------------------------------------------------

const (
	// sendTimeout bounds a single outbound write.
	sendTimeout = 5 * time.Second

	// idleTimeout is how long a client may stay silent before the
	// connection is considered dead. Pings go out at a third of it so a
	// client gets two chances to answer.
	idleTimeout  = 45 * time.Second
	pingInterval = idleTimeout / 3

	// Inbound messages are short control commands.
	readLimit = 8 << 10
)

// -----------------------------------------------------------------------------
// Client Structure
// -----------------------------------------------------------------------------

type Client struct {
	hub  *Server
	conn *websocket.Conn
	send chan interface{}
}

// -----------------------------------------------------------------------------
// readPump - consumes client commands and watches connection liveness
// -----------------------------------------------------------------------------

func (c *Client) readPump() {
	defer c.teardown()

	c.conn.SetReadLimit(readLimit)
	c.resetIdleDeadline()
	c.conn.SetPongHandler(func(string) error {
		c.resetIdleDeadline()
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.Logger.Info("WebSocket error: %v", err)
			}
			return
		}
		c.hub.HandleClientMessage(c, message)
	}
}

// -----------------------------------------------------------------------------

func (c *Client) resetIdleDeadline() {
	c.conn.SetReadDeadline(time.Now().Add(idleTimeout))
}

// -----------------------------------------------------------------------------

func (c *Client) teardown() {
	select {
	case c.hub.unregister <- c:
	case <-c.hub.hubDone:
	}
	c.conn.Close()
	c.hub.Logger.Info("Client disconnected")
}

// -----------------------------------------------------------------------------
// writePump - drains the send queue and keeps the connection pinged
// -----------------------------------------------------------------------------

func (c *Client) writePump() {
	pinger := time.NewTicker(pingInterval)
	defer func() {
		pinger.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			if !ok {
				// Hub dropped this client
				c.conn.SetWriteDeadline(time.Now().Add(sendTimeout))
				c.conn.WriteMessage(websocket.CloseMessage, nil)
				return
			}
			if err := c.write(message); err != nil {
				c.hub.Logger.Info("Write error: %v", err)
				return
			}

		case <-pinger.C:
			c.conn.SetWriteDeadline(time.Now().Add(sendTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-c.hub.hubDone:
			return
		}
	}
}

// -----------------------------------------------------------------------------

func (c *Client) write(message interface{}) error {
	c.conn.SetWriteDeadline(time.Now().Add(sendTimeout))
	return c.conn.WriteJSON(message)
}
