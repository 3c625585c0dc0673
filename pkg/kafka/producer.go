package kafka

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hanktran/aws-microservices/pkg/events"
	"github.com/segmentio/kafka-go"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Producer writes event envelopes to a single topic.
type Producer struct {
	writer messageWriter
	topic  string
}

func NewProducer(brokers []string, topic string) *Producer {
	writer := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireAll,
		AllowAutoTopicCreation: true,
	}
	return &Producer{writer: writer, topic: topic}
}

func newProducer(writer messageWriter, topic string) *Producer {
	return &Producer{writer: writer, topic: topic}
}

// Publish wraps detail in an envelope keyed by key so that events for one user stay ordered.
// It returns the envelope id.
func (p *Producer) Publish(ctx context.Context, key, source, detailType string, detail []byte) (string, error) {
	env := events.NewEnvelope(source, detailType, detail)
	data, err := json.Marshal(env)
	if err != nil {
		return "", fmt.Errorf("marshal envelope: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(key),
		Value: data,
		Headers: []kafka.Header{
			{Key: "source", Value: []byte(source)},
			{Key: "detail-type", Value: []byte(detailType)},
		},
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return "", fmt.Errorf("write to %s: %w", p.topic, err)
	}
	return env.ID, nil
}

func (p *Producer) Topic() string {
	return p.topic
}

func (p *Producer) Close() error {
	return p.writer.Close()
}
