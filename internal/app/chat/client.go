/*
Package chat contains the presence and real-time messaging core.

This file defines the Client struct, the WebSocket transport of one session. It manages
the connection lifecycle, the message loops (ReadPump and WritePump), and the bounded
outbound queue that keeps a slow recipient from stalling anybody else.
*/
package chat

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"minsky/internal/pkg/errs"
	"minsky/internal/pkg/logx"
)

const (
	// timeout duration for writing to the WebSocket connection.
	writeWait = 10 * time.Second

	// maximum time allowed for the server to wait for a Pong message from the client.
	pongWait = 60 * time.Second

	// frequency at which the server sends a Ping message.
	pingPeriod = (pongWait * 9) / 10

	// maximum allowed size (in bytes) of a frame sent by the client. A text at
	// MaxContentBytes still fits when every byte is escaped as \u00XX.
	maxMessageSize = 6*MaxContentBytes + 1024

	// DefaultSendQueueSize is the outbound queue length used when none is configured.
	DefaultSendQueueSize = 256
)

// ClientOptions tunes a Client.
type ClientOptions struct {
	// SendQueueSize bounds the outbound queue; a full queue fails the delivery and closes the client.
	SendQueueSize int

	// MessageRate and MessageBurst throttle inbound events. A zero rate disables throttling.
	MessageRate  rate.Limit
	MessageBurst int
}

// Client is an active WebSocket connection driving one Session.
type Client struct {
	// underlying WebSocket connection object.
	conn *websocket.Conn

	// session is the protocol state machine fed by ReadPump.
	session *Session

	// a buffered channel used to queue frames waiting to be sent to the client.
	send chan []byte

	// mu protects closed and guards sends on the send channel.
	mu     sync.Mutex
	closed bool

	// structured logger with connection context.
	logger zerolog.Logger
}

// NewClient constructs a Client for wsConn and registers its session with hub.
func NewClient(hub *Hub, wsConn *websocket.Conn, opts ClientOptions) *Client {
	queue := opts.SendQueueSize
	if queue <= 0 {
		queue = DefaultSendQueueSize
	}

	c := &Client{
		conn: wsConn,
		send: make(chan []byte, queue),
	}

	var limiter *rate.Limiter
	if opts.MessageRate > 0 {
		burst := opts.MessageBurst
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(opts.MessageRate, burst)
	}

	c.session = NewSession(hub, c, limiter)
	c.logger = logx.Logger().With().
		Str("conn_id", string(c.session.ID())).
		Str("remote_addr", logx.AnonymizeIP(wsConn.RemoteAddr().String())).
		Logger()

	return c
}

// Session returns the protocol session carried by this client.
func (c *Client) Session() *Session {
	return c.session
}

// Deliver queues a frame for the writer without blocking. When the queue is
// full the client is considered unresponsive and is closed.
func (c *Client) Deliver(frame []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return errs.NewError(errs.ErrConnectionNotFound)
	}

	select {
	case c.send <- frame:
		return nil
	default:
		c.logger.Warn().Int("queue_len", len(c.send)).Msg("Client send channel full, closing connection.")
		c.closeLocked()
		return errs.NewError(errs.ErrDeliveryFailed)
	}
}

// Close stops accepting frames. WritePump flushes what is queued, sends a
// close frame and tears the connection down. It is idempotent.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closeLocked()
}

func (c *Client) closeLocked() {
	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
}

// ReadPump handles reading frames from the WebSocket connection.
// It handles heartbeats (Pong), feeds frames to the session, and runs the
// disconnect transition once the connection ends for any reason.
func (c *Client) ReadPump() {
	defer func() {
		c.session.Close()

		if err := c.conn.Close(); err != nil {
			c.logger.Debug().Err(err).Msg("Client connection close error in ReadPump")
		}
	}()

	c.conn.SetReadLimit(maxMessageSize)

	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		c.logger.Error().Err(err).Msg("Failed to set read deadline")
		return
	}

	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		messageType, frame, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Info().Err(err).Msg("Error reading message (Client close/going away)")
			}
			return
		}

		if messageType != websocket.TextMessage {
			c.logger.Debug().Int("message_type", messageType).Msg("Ignoring non-text frame")
			continue
		}

		c.session.HandleFrame(frame)
	}
}

// WritePump writes frames from the send channel to the WebSocket connection.
// A write failure closes the connection, which ends ReadPump and with it the session.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)

	defer func() {
		ticker.Stop()

		if err := c.conn.Close(); err != nil {
			c.logger.Debug().Err(err).Msg("Client connection close error in WritePump")
		}
	}()

	for {
		select {
		case frame, ok := <-c.send:
			if !c.writeQueuedMessage(frame, ok) {
				return
			}

		case <-ticker.C:
			if !c.writePingMessage() {
				return
			}
		}
	}
}

// writeQueuedMessage writes one frame pulled from the send channel.
// Returns true if the WritePump loop should continue, false if it should terminate.
func (c *Client) writeQueuedMessage(frame []byte, ok bool) bool {
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		c.logger.Error().Err(err).Msg("Failed to set write deadline")
		c.Close()
		return false
	}

	if !ok {
		if err := c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")); err != nil {
			c.logger.Debug().Err(err).Msg("Error writing close message")
		}
		return false
	}

	if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
		c.logger.Warn().Err(err).Msg("Error writing message")
		c.Close()
		return false
	}

	return true
}

// writePingMessage sends a periodic WebSocket Ping message to maintain the connection heartbeat.
// Returns false if the WritePump loop should terminate due to write failure.
func (c *Client) writePingMessage() bool {
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		c.logger.Error().Err(err).Msg("Failed to set write deadline on ping")
		c.Close()
		return false
	}

	if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
		c.logger.Warn().Err(err).Msg("Error writing ping")
		c.Close()
		return false
	}

	return true
}
