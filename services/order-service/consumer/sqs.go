package consumer

import (
	"context"
	"errors"

	"go.uber.org/zap"

	awspkg "github.com/hanktran/aws-microservices/pkg/aws"
)

type sqsPoller interface {
	StartPolling(ctx context.Context, handler awspkg.MessageHandler) error
	QueueURL() string
}

// SQSCheckoutConsumer consumes checkout events from SQS. The queue may be subscribed to the
// EventBridge rule directly or to the SNS topic.
type SQSCheckoutConsumer struct {
	poller  sqsPoller
	handler *CheckoutHandler
	logger  *zap.Logger
}

func NewSQSCheckoutConsumer(poller sqsPoller, handler *CheckoutHandler, logger *zap.Logger) *SQSCheckoutConsumer {
	return &SQSCheckoutConsumer{poller: poller, handler: handler, logger: logger}
}

// Start polls until ctx is cancelled.
func (c *SQSCheckoutConsumer) Start(ctx context.Context) error {
	c.logger.Info("starting checkout queue consumer", zap.String("queue_url", c.poller.QueueURL()))

	err := c.poller.StartPolling(ctx, func(ctx context.Context, msg awspkg.Message) error {
		return c.handler.Handle(ctx, []byte(msg.Body))
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
