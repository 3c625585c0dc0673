package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hanktran/aws-microservices/pkg/events"
)

func TestNewOrder_StampsUTCMillis(t *testing.T) {
	loc := time.FixedZone("IST", 5*3600+1800)
	at := time.Date(2026, 10, 19, 15, 30, 0, 123456789, loc)

	o := NewOrder(events.CheckoutPayload{UserName: "swn", TotalPrice: 15.5, Email: "e"}, at)

	assert.Equal(t, "2026-10-19T10:00:00.123Z", o.OrderDate)
	assert.Equal(t, "swn", o.UserName)
	assert.Equal(t, 15.5, o.TotalPrice)
	assert.Equal(t, "e", o.Email)
	assert.NotNil(t, o.Items)
}

func TestNewOrder_KeepsUnnamedPayloadFields(t *testing.T) {
	p := events.CheckoutPayload{UserName: "swn", Extra: events.Extra{"shippingMethod": "express"}}
	o := NewOrder(p, time.Now())

	raw, err := json.Marshal(o)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"shippingMethod":"express"`)

	av, err := attributevalue.MarshalMap(o)
	require.NoError(t, err)
	var back Order
	require.NoError(t, attributevalue.UnmarshalMap(av, &back))
	assert.Equal(t, "express", back.Extra["shippingMethod"])
	assert.Equal(t, "swn", back.UserName)
}
