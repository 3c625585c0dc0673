package aws

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	sdkaws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"go.uber.org/zap"
)

type sqsAPI interface {
	ReceiveMessage(ctx context.Context, params *sqs.ReceiveMessageInput, optFns ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error)
	DeleteMessage(ctx context.Context, params *sqs.DeleteMessageInput, optFns ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error)
}

// Message is the part of an SQS message the handlers care about.
type Message struct {
	ID           string
	Body         string
	ReceiveCount int
}

// MessageHandler processes one message. A nil return deletes the message from the queue;
// an error leaves it to reappear after the visibility timeout.
type MessageHandler func(ctx context.Context, msg Message) error

// SQSConsumer long-polls a queue and hands every message to a MessageHandler.
type SQSConsumer struct {
	client            sqsAPI
	queueURL          string
	maxMessages       int32
	waitSeconds       int32
	visibilityTimeout int32
	logger            *zap.Logger
}

func NewSQSConsumer(cfg sdkaws.Config, queueURL string, logger *zap.Logger) *SQSConsumer {
	return newSQSConsumer(sqs.NewFromConfig(cfg), queueURL, logger)
}

func newSQSConsumer(client sqsAPI, queueURL string, logger *zap.Logger) *SQSConsumer {
	return &SQSConsumer{
		client:            client,
		queueURL:          queueURL,
		maxMessages:       10,
		waitSeconds:       20,
		visibilityTimeout: 30,
		logger:            logger,
	}
}

// QueueURL returns the queue being polled.
func (c *SQSConsumer) QueueURL() string {
	return c.queueURL
}

// StartPolling blocks until ctx is cancelled.
func (c *SQSConsumer) StartPolling(ctx context.Context, handler MessageHandler) error {
	c.logger.Info("sqs polling started", zap.String("queue", c.queueURL))

	for {
		select {
		case <-ctx.Done():
			c.logger.Info("sqs polling stopped", zap.String("queue", c.queueURL))
			return ctx.Err()
		default:
		}

		if err := c.pollOnce(ctx, handler); err != nil && !errors.Is(err, context.Canceled) {
			c.logger.Error("sqs poll failed", zap.String("queue", c.queueURL), zap.Error(err))
			select {
			case <-ctx.Done():
			case <-time.After(time.Second):
			}
		}
	}
}

func (c *SQSConsumer) pollOnce(ctx context.Context, handler MessageHandler) error {
	out, err := c.client.ReceiveMessage(ctx, &sqs.ReceiveMessageInput{
		QueueUrl:            sdkaws.String(c.queueURL),
		MaxNumberOfMessages: c.maxMessages,
		WaitTimeSeconds:     c.waitSeconds,
		VisibilityTimeout:   c.visibilityTimeout,
		MessageSystemAttributeNames: []types.MessageSystemAttributeName{
			types.MessageSystemAttributeNameApproximateReceiveCount,
		},
	})
	if err != nil {
		return fmt.Errorf("failed to receive messages: %w", err)
	}

	for _, m := range out.Messages {
		if m.Body == nil {
			continue
		}

		msg := Message{ID: sdkaws.ToString(m.MessageId), Body: *m.Body}
		if n, err := strconv.Atoi(m.Attributes[string(types.MessageSystemAttributeNameApproximateReceiveCount)]); err == nil {
			msg.ReceiveCount = n
		}

		if err := handler(ctx, msg); err != nil {
			c.logger.Warn("message handling failed, leaving for redelivery",
				zap.String("message_id", msg.ID),
				zap.Int("receive_count", msg.ReceiveCount),
				zap.Error(err),
			)
			continue
		}

		if _, err := c.client.DeleteMessage(ctx, &sqs.DeleteMessageInput{
			QueueUrl:      sdkaws.String(c.queueURL),
			ReceiptHandle: m.ReceiptHandle,
		}); err != nil {
			c.logger.Error("failed to delete message", zap.String("message_id", msg.ID), zap.Error(err))
		}
	}

	return nil
}

// GetQueueURL resolves a queue name to its URL.
func GetQueueURL(ctx context.Context, cfg sdkaws.Config, queueName string) (string, error) {
	out, err := sqs.NewFromConfig(cfg).GetQueueUrl(ctx, &sqs.GetQueueUrlInput{
		QueueName: sdkaws.String(queueName),
	})
	if err != nil {
		return "", fmt.Errorf("failed to get queue URL for %s: %w", queueName, err)
	}
	return sdkaws.ToString(out.QueueUrl), nil
}
