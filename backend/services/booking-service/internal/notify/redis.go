package notify

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"chargebook/backend/services/booking-service/internal/scheduling"
)

const publishTimeout = 2 * time.Second

// RedisPublisher publishes events on a pub/sub channel so that every booking-service
// instance can relay them to its own subscribers.
type RedisPublisher struct {
	client  *redis.Client
	channel string
	logger  *zap.Logger
}

// NewRedisPublisher returns publisher.
func NewRedisPublisher(client *redis.Client, channel string, logger *zap.Logger) *RedisPublisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisPublisher{client: client, channel: channel, logger: logger}
}

// Notify implements scheduling.Notifier.
func (p *RedisPublisher) Notify(ctx context.Context, ev scheduling.Event) {
	data, err := Encode(ev)
	if err != nil {
		p.logger.Error("encode event", zap.Error(err))
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()
	if err := p.client.Publish(ctx, p.channel, data).Err(); err != nil {
		p.logger.Warn("publish event", zap.String("channel", p.channel), zap.Error(err))
	}
}

// Relay forwards every message on channel to hub until ctx is cancelled.
func Relay(ctx context.Context, client *redis.Client, channel string, hub *Hub, logger *zap.Logger) error {
	sub := client.Subscribe(ctx, channel)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return err
	}
	logger.Info("relaying events", zap.String("channel", channel))

	messages := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-messages:
			if !ok {
				return nil
			}
			hub.Broadcast([]byte(msg.Payload))
		}
	}
}
