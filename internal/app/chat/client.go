/*
Package chat is the WebSocket transport of the relay.

This file defines the Client struct, representing an active WebSocket connection. It manages the
connection's read and write loops (ReadPump and WritePump), heartbeats, the per-connection frame
rate limit, and hands every inbound frame to the relay hub.
*/
package chat

import (
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"roomrelay/internal/pkg/limiter"
	"roomrelay/internal/pkg/logx"
)

const (
	// timeout duration for writing to the WebSocket connection.
	writeWait = 10 * time.Second

	// maximum time allowed for the server to wait for a Pong message from the client.
	pongWait = 60 * time.Second

	// frequency at which the server sends a Ping message.
	pingPeriod = (pongWait * 9) / 10

	// DefaultQueueSize is the outbound buffer used when ClientConfig leaves it unset.
	DefaultQueueSize = 256

	// frame overhead allowed on top of the escaped content limit.
	frameOverhead = 1024
)

// Dispatcher receives the lifecycle of a connection. The relay hub implements it.
type Dispatcher interface {
	Receive(connectionID, entryRoom string, raw []byte) bool
	Disconnect(connectionID string) bool
}

// ClientConfig carries the per-connection settings derived from the application config.
type ClientConfig struct {
	// EntryRoom is the room a joinRoom without an explicit room targets. Empty means the default room.
	EntryRoom string

	// QueueSize bounds the outbound buffer. Frames beyond it are dropped for this client.
	QueueSize int

	// MaxContentBytes sizes the read limit of the socket.
	MaxContentBytes int

	// MessageRate and MessageBurst shape inbound frames; excess frames are dropped.
	MessageRate  float64
	MessageBurst int
}

// ReadLimit returns the largest frame a client may send. Content may be JSON-escaped,
// which can grow it up to six times.
func (c ClientConfig) ReadLimit() int64 {
	if c.MaxContentBytes <= 0 {
		return 0
	}
	return int64(c.MaxContentBytes)*6 + frameOverhead
}

// Client struct represents an active WebSocket connection.
type Client struct {
	// server-assigned connection id.
	id string

	// room a plain joinRoom from this client targets.
	entryRoom string

	// underlying WebSocket connection object.
	conn *websocket.Conn

	// a buffered channel used to queue frames waiting to be sent to the client.
	// Only Sessions closes it.
	send chan []byte

	sessions   *Sessions
	dispatcher Dispatcher

	// token bucket applied to inbound frames.
	limiter *rate.Limiter

	readLimit int64

	// structured logger with connection context.
	logger zerolog.Logger
}

// NewClient constructs and returns a new Client instance.
func NewClient(id string, conn *websocket.Conn, sessions *Sessions, dispatcher Dispatcher, cfg ClientConfig) *Client {
	queueSize := cfg.QueueSize
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}

	clientLogger := logx.Logger().With().
		Str("component", "client").
		Str("connection_id", id).
		Str("entry_room", cfg.EntryRoom).
		Logger()

	return &Client{
		id:         id,
		entryRoom:  cfg.EntryRoom,
		conn:       conn,
		send:       make(chan []byte, queueSize),
		sessions:   sessions,
		dispatcher: dispatcher,
		limiter:    limiter.NewMessageLimiter(cfg.MessageRate, cfg.MessageBurst),
		readLimit:  cfg.ReadLimit(),
		logger:     clientLogger,
	}
}

// ID returns the connection id assigned at upgrade.
func (c *Client) ID() string {
	return c.id
}

// ReadPump handles reading frames from the WebSocket connection.
// It handles heartbeats (Pong), rate limiting, and performs cleanup upon connection closure.
func (c *Client) ReadPump() {
	defer c.cleanupOnDisconnect()

	if c.readLimit > 0 {
		c.conn.SetReadLimit(c.readLimit)
	}

	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		c.logger.Error().Err(err).Msg("Failed to set read deadline")
		return
	}

	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		messageType, messageBytes, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Info().Err(err).Msg("Error reading message (Client close/going away)")
			}
			break
		}

		if messageType != websocket.TextMessage {
			c.logger.Warn().Int("message_type", messageType).Msg("Client sent non-text frame, dropped")
			continue
		}

		if !c.limiter.Allow() {
			c.logger.Warn().Msg("Client exceeded frame rate, frame dropped")
			continue
		}

		if !c.dispatcher.Receive(c.id, c.entryRoom, messageBytes) {
			c.logger.Info().Msg("Hub stopped, closing connection")
			break
		}
	}
}

// cleanupOnDisconnect handles the necessary cleanup steps when the client's ReadPump terminates.
func (c *Client) cleanupOnDisconnect() {
	c.logger.Info().Msg("Client connection cleanup starting.")

	// stop deliveries first so the hub never targets a closed queue
	c.sessions.Remove(c.id)

	if !c.dispatcher.Disconnect(c.id) {
		c.logger.Debug().Msg("Hub already stopped, disconnect not queued.")
	}

	if err := c.conn.Close(); err != nil {
		c.logger.Debug().Err(err).Msg("Client connection close error")
	}
}

// WritePump handles writing frames from the Client.send channel to the WebSocket connection.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)

	defer func() {
		ticker.Stop()

		// ensure the connection is closed on exit
		if err := c.conn.Close(); err != nil {
			c.logger.Debug().Err(err).Msg("Client connection close error in WritePump")
		}
	}()

	for {
		select {
		case message, ok := <-c.send:
			if !c.writeQueuedMessage(message, ok) {
				return
			}

		case <-ticker.C:
			if !c.writePingMessage() {
				return
			}
		}
	}
}

// writeQueuedMessage handles frames pulled from the send channel, writing them to the WebSocket.
// Returns true if the WritePump loop should continue, false if it should terminate.
func (c *Client) writeQueuedMessage(message []byte, ok bool) bool {
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		c.logger.Error().Err(err).Msg("Failed to set write deadline")
		return false
	}

	if !ok {
		if err := c.conn.WriteMessage(websocket.CloseMessage, []byte{}); err != nil {
			c.logger.Debug().Err(err).Msg("Error writing close message")
		}
		return false
	}

	if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
		c.logger.Warn().Err(err).Msg("Error writing message")
		return false
	}

	return true
}

// writePingMessage sends a periodic WebSocket Ping message to maintain the connection heartbeat.
// Returns false if the WritePump loop should terminate due to write failure.
func (c *Client) writePingMessage() bool {
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		c.logger.Error().Err(err).Msg("Failed to set write deadline on ping")
		return false
	}

	if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
		c.logger.Warn().Err(err).Msg("Error writing ping")
		return false
	}

	return true
}
