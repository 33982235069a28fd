package notify

import (
	"context"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	maxMessageSize = 64 * 1024
	pongWait       = 60 * time.Second
	sendBuffer     = 32
)

// Client is one websocket subscriber.
type Client struct {
	id           string
	ws           *websocket.Conn
	send         chan []byte
	logger       *zap.Logger
	writeTimeout time.Duration
	onMessage    func(clientID string, msg []byte)
	onClose      func(clientID string)

	mu     sync.Mutex
	closed bool
}

func newClient(id string, ws *websocket.Conn, writeTimeout time.Duration, logger *zap.Logger, onMessage func(string, []byte), onClose func(string)) *Client {
	return &Client{
		id:           id,
		ws:           ws,
		send:         make(chan []byte, sendBuffer),
		logger:       logger,
		writeTimeout: writeTimeout,
		onMessage:    onMessage,
		onClose:      onClose,
	}
}

// ID returns the client identifier.
func (c *Client) ID() string {
	return c.id
}

// Start runs the write pump in the background and the read pump until the peer goes away.
func (c *Client) Start(ctx context.Context) {
	go c.writePump(ctx)
	c.readPump(ctx)
}

func (c *Client) readPump(ctx context.Context) {
	defer c.cleanup()
	c.ws.SetReadLimit(maxMessageSize)
	_ = c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if ctx.Err() != nil {
			return
		}
		msgType, message, err := c.ws.ReadMessage()
		if err != nil {
			c.logger.Debug("subscriber read closed", zap.String("client_id", c.id), zap.Error(err))
			return
		}
		if msgType != websocket.TextMessage {
			continue
		}
		if c.onMessage != nil {
			c.onMessage(c.id, message)
		}
	}
}

func (c *Client) writePump(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			_ = c.ws.Close()
			return
		case msg, ok := <-c.send:
			if !ok {
				_ = c.write(websocket.CloseMessage, []byte{})
				_ = c.ws.Close()
				return
			}
			if err := c.write(websocket.TextMessage, msg); err != nil {
				c.logger.Debug("subscriber write failed", zap.String("client_id", c.id), zap.Error(err))
				_ = c.ws.Close()
				return
			}
		}
	}
}

// Send enqueues msg. Slow subscribers lose messages instead of blocking the broadcaster.
func (c *Client) Send(msg []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.send <- msg:
		return true
	default:
		c.logger.Warn("dropping broadcast, subscriber buffer full", zap.String("client_id", c.id))
		return false
	}
}

// Ping writes a ping control frame. Safe to call concurrently with the write pump.
func (c *Client) Ping() error {
	return c.ws.WriteControl(websocket.PingMessage, []byte("ping"), time.Now().Add(c.writeTimeout))
}

func (c *Client) write(messageType int, data []byte) error {
	_ = c.ws.SetWriteDeadline(time.Now().Add(c.writeTimeout))
	return c.ws.WriteMessage(messageType, data)
}

func (c *Client) cleanup() {
	c.mu.Lock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
	c.mu.Unlock()
	if c.onClose != nil {
		c.onClose(c.id)
	}
}

func (c *Client) close() error {
	return c.ws.Close()
}
