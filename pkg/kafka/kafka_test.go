package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/hanktran/aws-microservices/pkg/events"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeWriter struct {
	msgs []kafka.Message
	err  error
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func (f *fakeWriter) Close() error { return nil }

func TestProducer_PublishWritesEnvelope(t *testing.T) {
	w := &fakeWriter{}
	p := newProducer(w, "checkout")

	id, err := p.Publish(context.Background(), "swn", events.SourceCheckoutBasket, events.DetailTypeCheckoutBasket, []byte(`{"userName":"swn","items":[]}`))
	require.NoError(t, err)
	require.Len(t, w.msgs, 1)
	assert.Equal(t, "swn", string(w.msgs[0].Key))

	env, err := events.DecodeEnvelope(w.msgs[0].Value)
	require.NoError(t, err)
	assert.Equal(t, id, env.ID)
	assert.Equal(t, events.SourceCheckoutBasket, env.Source)
	assert.JSONEq(t, `{"userName":"swn","items":[]}`, string(env.Detail))
}

func TestProducer_PublishError(t *testing.T) {
	p := newProducer(&fakeWriter{err: errors.New("broker down")}, "checkout")

	_, err := p.Publish(context.Background(), "swn", "s", "d", []byte(`{}`))
	assert.ErrorContains(t, err, "broker down")
}

type fakeReader struct {
	queue     []kafka.Message
	committed []int64
	cancel    context.CancelFunc
}

func (f *fakeReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	if len(f.queue) == 0 {
		f.cancel()
		<-ctx.Done()
		return kafka.Message{}, ctx.Err()
	}
	m := f.queue[0]
	f.queue = f.queue[1:]
	return m, nil
}

func (f *fakeReader) CommitMessages(_ context.Context, msgs ...kafka.Message) error {
	for _, m := range msgs {
		f.committed = append(f.committed, m.Offset)
	}
	return nil
}

func (f *fakeReader) Close() error { return nil }

func TestConsumer_RetriesFailedRecordBeforeMovingOn(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	r := &fakeReader{
		cancel: cancel,
		queue: []kafka.Message{
			{Offset: 0, Value: []byte(`first`)},
			{Offset: 1, Value: []byte(`second`)},
		},
	}
	c := newConsumer(r, zap.NewNop())
	c.minBackoff, c.maxBackoff = time.Millisecond, 2*time.Millisecond

	failures := 2
	var seen []string
	err := c.Run(ctx, func(_ context.Context, value []byte) error {
		seen = append(seen, string(value))
		if string(value) == "first" && failures > 0 {
			failures--
			return errors.New("store throttled")
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, []string{"first", "first", "first", "second"}, seen)
	assert.Equal(t, []int64{0, 1}, r.committed)
}

func TestConsumer_StopsWithoutCommittingOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	r := &fakeReader{
		cancel: cancel,
		queue: []kafka.Message{
			{Offset: 0, Value: []byte(`bad`)},
			{Offset: 1, Value: []byte(`ok`)},
		},
	}
	c := newConsumer(r, zap.NewNop())
	c.minBackoff, c.maxBackoff = time.Millisecond, time.Millisecond

	calls := 0
	err := c.Run(ctx, func(_ context.Context, value []byte) error {
		calls++
		if calls == 3 {
			cancel()
		}
		return errors.New("store down")
	})

	require.NoError(t, err)
	assert.Empty(t, r.committed)
	assert.Len(t, r.queue, 1)
}

func TestProducer_EnvelopeIsJSON(t *testing.T) {
	w := &fakeWriter{}
	_, err := newProducer(w, "t").Publish(context.Background(), "k", "s", "d", []byte(`{"a":1}`))
	require.NoError(t, err)
	assert.True(t, json.Valid(w.msgs[0].Value))
}
