package publisher

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hanktran/aws-microservices/pkg/events"
)

type fakeSNS struct {
	topic string
	msg   []byte
	attrs map[string]string
	err   error
}

func (f *fakeSNS) Publish(_ context.Context, topicArn string, message []byte, attributes map[string]string) error {
	f.topic, f.msg, f.attrs = topicArn, message, attributes
	return f.err
}

func TestSNSBus_PublishesEnvelope(t *testing.T) {
	sns := &fakeSNS{}
	bus := NewSNSBus(sns, "arn:aws:sns:us-east-1:000000000000:checkout")

	id, err := bus.Publish(context.Background(), events.SourceCheckoutBasket, events.DetailTypeCheckoutBasket, []byte(`{"userName":"swn","items":[]}`))
	require.NoError(t, err)

	assert.Equal(t, "arn:aws:sns:us-east-1:000000000000:checkout", sns.topic)
	assert.Equal(t, events.DetailTypeCheckoutBasket, sns.attrs["detail-type"])

	env, err := events.DecodeEnvelope(sns.msg)
	require.NoError(t, err)
	assert.Equal(t, id, env.ID)
	p, err := env.CheckoutPayload()
	require.NoError(t, err)
	assert.Equal(t, "swn", p.UserName)
}

func TestSNSBus_PropagatesError(t *testing.T) {
	bus := NewSNSBus(&fakeSNS{err: errors.New("denied")}, "arn")

	_, err := bus.Publish(context.Background(), "s", "d", []byte(`{}`))
	assert.EqualError(t, err, "denied")
}

type fakeProducer struct {
	key string
}

func (f *fakeProducer) Publish(_ context.Context, key, _, _ string, _ []byte) (string, error) {
	f.key = key
	return "evt-1", nil
}

func TestKafkaBus_KeysByUserName(t *testing.T) {
	p := &fakeProducer{}

	id, err := NewKafkaBus(p).Publish(context.Background(), "s", "d", []byte(`{"userName":"swn"}`))
	require.NoError(t, err)
	assert.Equal(t, "evt-1", id)
	assert.Equal(t, "swn", p.key)
}
