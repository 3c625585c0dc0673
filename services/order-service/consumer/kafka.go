package consumer

import (
	"context"

	"go.uber.org/zap"

	kafkapkg "github.com/hanktran/aws-microservices/pkg/kafka"
)

type kafkaRunner interface {
	Run(ctx context.Context, handler kafkapkg.Handler) error
}

// KafkaCheckoutConsumer consumes checkout events from a Kafka topic.
type KafkaCheckoutConsumer struct {
	reader  kafkaRunner
	handler *CheckoutHandler
	logger  *zap.Logger
}

func NewKafkaCheckoutConsumer(reader kafkaRunner, handler *CheckoutHandler, logger *zap.Logger) *KafkaCheckoutConsumer {
	return &KafkaCheckoutConsumer{reader: reader, handler: handler, logger: logger}
}

func (c *KafkaCheckoutConsumer) Start(ctx context.Context) error {
	c.logger.Info("starting checkout topic consumer")
	return c.reader.Run(ctx, c.handler.Handle)
}
