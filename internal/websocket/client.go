package websocket

import (
	"bytes"
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"evinsights/internal/config"
	"evinsights/internal/infrastructure"
)

const (
	// Time allowed to write a single frame to the peer
	writeWait = 10 * time.Second

	// Inbound frames are capped small: browsers only send heartbeats.
	maxMessageSize = 512

	// sendQueueSize buffers outbound messages per client
	sendQueueSize = 256
)

// heartbeat is the application-level keepalive the dashboard script sends
// alongside protocol pings.
var heartbeat = []byte(`{"type":"heartbeat"}`)

// Client is the middleman between one WebSocket connection and the hub.
type Client struct {
	hub  *Hub
	conn Connection
	send chan []byte

	id          string
	traceID     string
	remoteAddr  string
	connectedAt time.Time

	logger *slog.Logger

	messagesSent  int64
	bytesReceived int64
}

// NewClientWithConnection builds a client over any Connection, letting
// tests inject a mock.
func NewClientWithConnection(hub *Hub, conn Connection, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}

	c := &Client{
		hub:         hub,
		conn:        conn,
		send:        make(chan []byte, sendQueueSize),
		id:          uuid.New().String(),
		remoteAddr:  conn.RemoteAddr(),
		connectedAt: time.Now(),
	}
	c.logger = logger.With(
		slog.String("component", "websocket.client"),
		slog.String("client_id", c.id),
	)
	return c
}

// setTrace stamps the originating request's trace ID onto the client so
// its log lines correlate with the upgrade request.
func (c *Client) setTrace(traceID string) {
	if traceID == "" {
		return
	}
	c.traceID = traceID
	c.logger = c.logger.With(slog.String("trace_id", traceID))
}

func (c *Client) logContext() context.Context {
	if c.traceID == "" {
		return context.Background()
	}
	return infrastructure.WithTraceID(context.Background(), c.traceID)
}

// extendReadDeadline pushes the read deadline out by the pong wait. The
// signature lets it double as the gorilla pong handler.
func (c *Client) extendReadDeadline(string) error {
	return c.conn.SetReadDeadline(time.Now().Add(config.WebSocketPongWait))
}

// writeFrame writes one frame under the write deadline.
func (c *Client) writeFrame(messageType int, payload []byte) error {
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteMessage(messageType, payload)
}

// ReadPump drains the connection until it closes, keeping the read deadline
// alive via pongs and client heartbeats. It owns unregistration: when the
// read side dies, the client is done.
func (c *Client) ReadPump() {
	defer func() {
		c.logger.InfoContext(c.logContext(), "client disconnected",
			slog.Duration("connection_duration", time.Since(c.connectedAt)),
			slog.Int64("bytes_received", c.bytesReceived))
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.extendReadDeadline("")
	c.conn.SetPongHandler(c.extendReadDeadline)

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.ErrorContext(c.logContext(), "unexpected close",
					slog.String("error", err.Error()))
			}
			return
		}

		c.bytesReceived += int64(len(message))
		if bytes.Equal(bytes.TrimSpace(message), heartbeat) {
			c.extendReadDeadline("")
		}
	}
}

// WritePump relays hub messages to the connection and pings on an interval
// shorter than the pong deadline.
func (c *Client) WritePump() {
	ticker := time.NewTicker(config.WebSocketPingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
		c.logger.DebugContext(c.logContext(), "write pump stopped",
			slog.Int64("messages_sent", c.messagesSent))
	}()

	for {
		select {
		case message, ok := <-c.send:
			if !ok {
				// Hub closed the channel
				c.writeFrame(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.writeFrame(websocket.TextMessage, message); err != nil {
				c.logger.ErrorContext(c.logContext(), "write failed",
					slog.String("error", err.Error()))
				return
			}
			c.messagesSent++

		case <-ticker.C:
			if err := c.writeFrame(websocket.PingMessage, nil); err != nil {
				c.logger.DebugContext(c.logContext(), "ping failed",
					slog.String("error", err.Error()))
				return
			}
		}
	}
}

// ServeWS registers an upgraded connection with the hub and starts its
// pumps.
func ServeWS(hub *Hub, conn *websocket.Conn, traceID string, logger *slog.Logger) {
	client := NewClientWithConnection(hub, NewConnectionWrapper(conn), logger)
	client.setTrace(traceID)
	hub.Register(client)

	go client.WritePump()
	go client.ReadPump()
}
