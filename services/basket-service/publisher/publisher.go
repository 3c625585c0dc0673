// Package publisher adapts the supported transports to the single Publish call the
// checkout flow makes. Every transport carries the same envelope JSON.
package publisher

import (
	"context"
	"encoding/json"
	"fmt"

	awspkg "github.com/hanktran/aws-microservices/pkg/aws"
	"github.com/hanktran/aws-microservices/pkg/events"
)

// EventBus publishes one event and returns the id the transport assigned to it.
// The bus or topic is fixed at construction.
type EventBus interface {
	Publish(ctx context.Context, source, detailType string, detail []byte) (string, error)
}

var _ EventBus = (*awspkg.EventBridgePublisher)(nil)

// SNSBus publishes envelopes to an SNS topic, with source and detail-type repeated as
// message attributes for subscription filters.
type SNSBus struct {
	client   awspkg.SNSPublisher
	topicArn string
}

func NewSNSBus(client awspkg.SNSPublisher, topicArn string) *SNSBus {
	return &SNSBus{client: client, topicArn: topicArn}
}

func (b *SNSBus) Publish(ctx context.Context, source, detailType string, detail []byte) (string, error) {
	env := events.NewEnvelope(source, detailType, detail)
	msg, err := json.Marshal(env)
	if err != nil {
		return "", fmt.Errorf("marshal envelope: %w", err)
	}
	attrs := map[string]string{
		"source":      source,
		"detail-type": detailType,
	}
	if err := b.client.Publish(ctx, b.topicArn, msg, attrs); err != nil {
		return "", err
	}
	return env.ID, nil
}

type keyedProducer interface {
	Publish(ctx context.Context, key, source, detailType string, detail []byte) (string, error)
}

// KafkaBus partitions by the userName found in the detail so one user's events stay ordered.
type KafkaBus struct {
	producer keyedProducer
}

func NewKafkaBus(producer keyedProducer) *KafkaBus {
	return &KafkaBus{producer: producer}
}

func (b *KafkaBus) Publish(ctx context.Context, source, detailType string, detail []byte) (string, error) {
	var keyed struct {
		UserName string `json:"userName"`
	}
	// an unkeyed record is still valid; kafka-go hashes the empty key to a single partition
	_ = json.Unmarshal(detail, &keyed)
	return b.producer.Publish(ctx, keyed.UserName, source, detailType, detail)
}
