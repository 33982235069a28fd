package notify

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"chargebook/backend/services/booking-service/internal/scheduling"
)

// Hub fans broadcast messages out to every connected websocket subscriber. Delivery is best
// effort: subscribers connected at broadcast time receive the message, others miss it.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*Client

	pingInterval time.Duration
	writeTimeout time.Duration
	logger       *zap.Logger
	upgrader     websocket.Upgrader
}

// NewHub builds hub.
func NewHub(pingInterval, writeTimeout time.Duration, logger *zap.Logger) *Hub {
	if pingInterval <= 0 {
		pingInterval = 30 * time.Second
	}
	if writeTimeout <= 0 {
		writeTimeout = 10 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		clients:      make(map[string]*Client),
		pingInterval: pingInterval,
		writeTimeout: writeTimeout,
		logger:       logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
}

// HandleWS upgrades the request and registers the subscriber. Text frames sent by a
// subscriber are rebroadcast to everyone.
func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	client := newClient(uuid.NewString(), conn, h.writeTimeout, h.logger,
		func(_ string, msg []byte) { h.Broadcast(msg) },
		func(id string) {
			h.remove(id)
			cancel()
		},
	)
	h.add(client)

	go client.Start(ctx)
	h.logger.Info("subscriber connected", zap.String("client_id", client.ID()))
}

func (h *Hub) add(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[c.ID()] = c
}

func (h *Hub) remove(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[id]; ok {
		delete(h.clients, id)
		h.logger.Info("subscriber disconnected", zap.String("client_id", id))
	}
}

// Count returns the number of connected subscribers.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Broadcast sends msg to every subscriber and reports how many accepted it.
func (h *Hub) Broadcast(msg []byte) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	delivered := 0
	for _, c := range h.clients {
		if c.Send(msg) {
			delivered++
		}
	}
	return delivered
}

// Notify implements scheduling.Notifier.
func (h *Hub) Notify(_ context.Context, ev scheduling.Event) {
	data, err := Encode(ev)
	if err != nil {
		h.logger.Error("encode event", zap.Error(err))
		return
	}
	h.Broadcast(data)
}

// Start pings subscribers until ctx is cancelled.
func (h *Hub) Start(ctx context.Context) {
	ticker := time.NewTicker(h.pingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			h.mu.RLock()
			for _, c := range h.clients {
				if err := c.Ping(); err != nil {
					h.logger.Debug("ping failed", zap.String("client_id", c.ID()), zap.Error(err))
				}
			}
			h.mu.RUnlock()
		}
	}
}

// Close disconnects every subscriber.
func (h *Hub) Close() {
	h.mu.RLock()
	clients := make([]*Client, 0, len(h.clients))
	for _, c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	for _, c := range clients {
		_ = c.close()
	}
}
