package websocket

import (
	"encoding/json"
	"log/slog"
	"time"

	"github.com/gorilla/websocket"

	"github.com/lome-transit/ticketing-backend/internal/core/domain"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Maximum message size allowed from peer. Clients only send small
	// keep-alive frames; events flow strictly server -> client.
	maxMessageSize = 512
)

// Client pumps events from a hub subscriber onto a websocket connection
// and keeps the connection alive with ping/pong heartbeats. Absence of a
// pong within pongWait is the sole disconnect-detection mechanism: when it
// trips, the read pump detaches the subscriber.
type Client struct {
	hub  *Hub
	conn *websocket.Conn
	sub  *Subscriber

	pingInterval time.Duration
	pongWait     time.Duration

	logger *slog.Logger
}

// NewClient wires a websocket connection to a hub subscriber.
// pingInterval must be shorter than pongWait.
func NewClient(hub *Hub, conn *websocket.Conn, sub *Subscriber, pingInterval, pongWait time.Duration, logger *slog.Logger) *Client {
	return &Client{
		hub:          hub,
		conn:         conn,
		sub:          sub,
		pingInterval: pingInterval,
		pongWait:     pongWait,
		logger:       logger.With("client_id", sub.ClientID),
	}
}

// ReadPump consumes frames from the peer. Clients never send application
// data; the pump exists to run the pong handler and to notice the
// connection dying. It runs in its own goroutine and detaches the
// subscriber on exit.
func (c *Client) ReadPump() {
	defer func() {
		c.hub.detach(c.sub)
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	if err := c.conn.SetReadDeadline(time.Now().Add(c.pongWait)); err != nil {
		c.logger.Error("failed to set read deadline", "error", err)
		return
	}

	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(c.pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
				c.logger.Warn("websocket read error", "error", err)
			}
			return
		}
	}
}

// WritePump streams subscriber events to the peer and sends periodic
// pings. It runs in its own goroutine and exits when the subscriber's
// channel is closed or a write fails.
func (c *Client) WritePump() {
	ticker := time.NewTicker(c.pingInterval)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case event, ok := <-c.sub.Events():
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				c.logger.Error("failed to set write deadline", "error", err)
				return
			}

			if !ok {
				// The hub closed the channel. Send close message.
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.writeJSON(event); err != nil {
				c.logger.Error("failed to write event", "error", err)
				return
			}

		case <-ticker.C:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				c.logger.Error("failed to set write deadline for ping", "error", err)
				return
			}

			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.logger.Debug("failed to send ping", "error", err)
				return
			}
		}
	}
}

// writeJSON writes one event as a text frame.
func (c *Client) writeJSON(event domain.Event) error {
	w, err := c.conn.NextWriter(websocket.TextMessage)
	if err != nil {
		return err
	}

	if err := json.NewEncoder(w).Encode(event); err != nil {
		_ = w.Close()
		return err
	}

	return w.Close()
}
