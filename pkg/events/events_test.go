package events_test

import (
	"encoding/json"
	"testing"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/hanktran/aws-microservices/pkg/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTotalPrice(t *testing.T) {
	assert.Equal(t, 0.0, events.TotalPrice(nil))
	assert.Equal(t, 15.5, events.TotalPrice([]events.Item{{Price: 10}, {Price: 5.5}}))
	assert.Equal(t, 0.3, events.TotalPrice([]events.Item{{Price: 0.1}, {Price: 0.2}}))
}

func TestDecodeEnvelope_EventBridgeShape(t *testing.T) {
	raw := []byte(`{
		"version": "0",
		"id": "6a7e8feb-b491-4cf7-a9f1-bf3703467718",
		"detail-type": "CheckoutBasket",
		"source": "com.swn.basket.checkoutbasket",
		"time": "2026-10-19T10:00:00Z",
		"detail": {"userName": "swn", "items": [{"price": 10}], "totalPrice": 10}
	}`)

	env, err := events.DecodeEnvelope(raw)
	require.NoError(t, err)
	assert.Equal(t, "6a7e8feb-b491-4cf7-a9f1-bf3703467718", env.ID)
	assert.Equal(t, events.SourceCheckoutBasket, env.Source)

	p, err := env.CheckoutPayload()
	require.NoError(t, err)
	assert.Equal(t, "swn", p.UserName)
	assert.Equal(t, 10.0, p.TotalPrice)
	assert.Len(t, p.Items, 1)
}

func TestDecodeEnvelope_UnwrapsSNSNotification(t *testing.T) {
	detail, _ := json.Marshal(events.CheckoutPayload{UserName: "swn", TotalPrice: 3})
	inner, _ := json.Marshal(events.NewEnvelope(events.SourceCheckoutBasket, events.DetailTypeCheckoutBasket, detail))
	outer, _ := json.Marshal(map[string]string{"Type": "Notification", "Message": string(inner)})

	env, err := events.DecodeEnvelope(outer)
	require.NoError(t, err)

	p, err := env.CheckoutPayload()
	require.NoError(t, err)
	assert.Equal(t, "swn", p.UserName)
	assert.NotNil(t, p.Items)
}

func TestDecodeEnvelope_Rejects(t *testing.T) {
	_, err := events.DecodeEnvelope([]byte(`not json`))
	assert.ErrorIs(t, err, events.ErrMalformedEnvelope)

	_, err = events.DecodeEnvelope([]byte(`{"httpMethod": "GET"}`))
	assert.ErrorIs(t, err, events.ErrMalformedEnvelope)
}

func TestCheckoutPayload_Errors(t *testing.T) {
	env := events.Envelope{DetailType: "SomethingElse", Detail: json.RawMessage(`{}`)}
	_, err := env.CheckoutPayload()
	assert.ErrorIs(t, err, events.ErrUnexpectedDetail)

	env = events.Envelope{DetailType: events.DetailTypeCheckoutBasket, Detail: json.RawMessage(`{"items": []}`)}
	_, err = env.CheckoutPayload()
	assert.ErrorIs(t, err, events.ErrMissingCheckoutKey)
}

func TestNewCheckoutEnvelope_RoundTrip(t *testing.T) {
	in := events.CheckoutPayload{
		CheckoutID: "c-1",
		UserName:   "swn",
		Items:      []events.Item{{ProductID: "p1", Price: 10}, {ProductID: "p2", Price: 5.5}},
		TotalPrice: 15.5,
		Email:      "swn@example.com",
	}
	env, err := events.NewCheckoutEnvelope(in)
	require.NoError(t, err)
	assert.Equal(t, events.DetailTypeCheckoutBasket, env.DetailType)

	raw, err := json.Marshal(env)
	require.NoError(t, err)
	decoded, err := events.DecodeEnvelope(raw)
	require.NoError(t, err)
	out, err := decoded.CheckoutPayload()
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestItem_KeepsUnnamedFields(t *testing.T) {
	var it events.Item
	require.NoError(t, json.Unmarshal([]byte(`{"productId":"p1","price":10,"sku":"A-1","imageFile":"x.png"}`), &it))
	assert.Equal(t, "p1", it.ProductID)
	assert.Equal(t, events.Extra{"sku": "A-1", "imageFile": "x.png"}, it.Extra)

	out, err := json.Marshal(it)
	require.NoError(t, err)
	assert.JSONEq(t, `{"productId":"p1","price":10,"sku":"A-1","imageFile":"x.png"}`, string(out))
}

func TestItem_NamedFieldWinsOverExtra(t *testing.T) {
	out, err := json.Marshal(events.Item{Price: 10, Extra: events.Extra{"price": 99, "note": "gift"}})
	require.NoError(t, err)
	assert.JSONEq(t, `{"price":10,"note":"gift"}`, string(out))
}

func TestItem_DynamoRoundTrip(t *testing.T) {
	in := events.Item{ProductID: "p1", Price: 2.5, Extra: events.Extra{"sku": "A-1", "weight": 1.5}}

	av, err := attributevalue.Marshal(in)
	require.NoError(t, err)

	var out events.Item
	require.NoError(t, attributevalue.Unmarshal(av, &out))
	assert.Equal(t, in, out)
}

func TestCheckoutPayload_KeepsRequestFields(t *testing.T) {
	env, err := events.NewCheckoutEnvelope(events.CheckoutPayload{
		UserName: "swn",
		Items:    []events.Item{},
		Extra:    events.Extra{"shippingMethod": "express"},
	})
	require.NoError(t, err)
	assert.Contains(t, string(env.Detail), `"shippingMethod":"express"`)

	p, err := env.CheckoutPayload()
	require.NoError(t, err)
	assert.Equal(t, events.Extra{"shippingMethod": "express"}, p.Extra)
}
