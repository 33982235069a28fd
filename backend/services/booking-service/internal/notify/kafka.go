package notify

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"chargebook/backend/services/booking-service/internal/scheduling"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher appends events to a topic keyed by reservation, so consumers see the events
// of one reservation in order.
type KafkaPublisher struct {
	writer messageWriter
	topic  string
	logger *zap.Logger
}

// NewKafkaPublisher builds an async writer for brokers.
func NewKafkaPublisher(brokers []string, topic string, logger *zap.Logger) *KafkaPublisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	writer := kafka.NewWriter(kafka.WriterConfig{
		Brokers:      brokers,
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		BatchTimeout: 50 * time.Millisecond,
		Async:        true,
		ErrorLogger: kafka.LoggerFunc(func(msg string, args ...interface{}) {
			logger.Sugar().Warnf("kafka: "+msg, args...)
		}),
	})
	return &KafkaPublisher{writer: writer, topic: topic, logger: logger}
}

// Notify implements scheduling.Notifier.
func (p *KafkaPublisher) Notify(ctx context.Context, ev scheduling.Event) {
	data, err := Encode(ev)
	if err != nil {
		p.logger.Error("encode event", zap.Error(err))
		return
	}
	msg := kafka.Message{
		Key:   []byte(ev.Key()),
		Value: data,
		Time:  ev.At,
		Headers: []kafka.Header{
			{Key: "event_id", Value: []byte(uuid.NewString())},
			{Key: "event_type", Value: []byte(ev.Type)},
		},
	}
	if err := p.writer.WriteMessages(context.WithoutCancel(ctx), msg); err != nil {
		p.logger.Warn("write event", zap.String("topic", p.topic), zap.Error(err))
	}
}

// Close flushes pending messages.
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
