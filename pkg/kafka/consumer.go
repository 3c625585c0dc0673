package kafka

import (
	"context"
	"errors"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Handler processes one record value. A nil return commits the offset.
type Handler func(ctx context.Context, value []byte) error

// Consumer reads a topic as part of a consumer group.
type Consumer struct {
	reader     messageReader
	logger     *zap.Logger
	minBackoff time.Duration
	maxBackoff time.Duration
}

func NewConsumer(brokers []string, topic, groupID string, logger *zap.Logger) *Consumer {
	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    topic,
		GroupID:  groupID,
		MinBytes: 1e3,
		MaxBytes: 1e6,
	})
	return newConsumer(r, logger)
}

func newConsumer(reader messageReader, logger *zap.Logger) *Consumer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Consumer{reader: reader, logger: logger, minBackoff: 500 * time.Millisecond, maxBackoff: 30 * time.Second}
}

// Run fetches until ctx is cancelled. Offsets commit cumulatively per partition, so a
// record whose handler fails is retried with backoff and blocks the records behind it.
func (c *Consumer) Run(ctx context.Context, handler Handler) error {
	for {
		m, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		}

		if !c.handle(ctx, handler, m) {
			return nil
		}

		if err := c.reader.CommitMessages(ctx, m); err != nil {
			c.logger.Error("failed to commit kafka offset", zap.Int64("offset", m.Offset), zap.Error(err))
		}
	}
}

// handle reports false when ctx ended before the handler succeeded.
func (c *Consumer) handle(ctx context.Context, handler Handler, m kafka.Message) bool {
	delay := c.minBackoff
	for attempt := 1; ; attempt++ {
		err := handler(ctx, m.Value)
		if err == nil {
			return true
		}
		c.logger.Warn("kafka handler failed, retrying record",
			zap.String("topic", m.Topic),
			zap.Int("partition", m.Partition),
			zap.Int64("offset", m.Offset),
			zap.Int("attempt", attempt),
			zap.Duration("backoff", delay),
			zap.Error(err),
		)

		select {
		case <-ctx.Done():
			return false
		case <-time.After(delay):
		}
		if delay *= 2; delay > c.maxBackoff {
			delay = c.maxBackoff
		}
	}
}

func (c *Consumer) Close() error {
	return c.reader.Close()
}
