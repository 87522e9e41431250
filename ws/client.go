package ws

import (
	"context"

	"studwork_backend/internal/logger"

	"github.com/gorilla/websocket"
)

// Client is one authenticated websocket connection. The status feed is
// push-only; inbound frames are read and discarded to detect disconnects.
type Client struct {
	ID   string
	Conn *websocket.Conn
	Send chan any
	Ctx  context.Context

	Manager *WebSocketManager
}

func (c *Client) readPump() {
	defer func() {
		c.Manager.unregister <- c
		c.Conn.Close()
	}()

	for {
		if _, _, err := c.Conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (c *Client) writePump() {
	for msg := range c.Send {
		if err := c.Conn.WriteJSON(msg); err != nil {
			logger.Debug("ws write error", "user_id", c.ID, "error", err.Error())
			break
		}
	}
	c.Conn.Close()
}
