package kafka

import (
	"context"
	"fmt"
	"time"

	"github.com/PedroCamargo-dev/core-bank-remittance-service/internal/ports/gateway/messaging"
	"github.com/segmentio/kafka-go"
)

var _ messaging.Publisher = (*Publisher)(nil)

// Publisher writes to any topic; the topic is chosen per message. Messages
// with the same key land on the same partition.
type Publisher struct {
	writer *kafka.Writer
}

func NewPublisher(brokers []string) *Publisher {
	return &Publisher{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireAll,
			BatchTimeout: 10 * time.Millisecond,
		},
	}
}

func (p *Publisher) Publish(ctx context.Context, topic string, key string, payload []byte, headers map[string]string) error {
	msg := kafka.Message{
		Topic:   topic,
		Key:     []byte(key),
		Value:   payload,
		Headers: toHeaders(headers),
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("kafka publish to %s: %w", topic, err)
	}
	return nil
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}

func toHeaders(headers map[string]string) []kafka.Header {
	if len(headers) == 0 {
		return nil
	}

	out := make([]kafka.Header, 0, len(headers))
	for k, v := range headers {
		out = append(out, kafka.Header{Key: k, Value: []byte(v)})
	}
	return out
}
