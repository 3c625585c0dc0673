package models

import (
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/hanktran/aws-microservices/pkg/events"
)

// OrderDateLayout is ISO-8601 UTC with millisecond precision, e.g. 2026-10-19T10:00:00.000Z.
const OrderDateLayout = "2006-01-02T15:04:05.000Z"

// Order is a materialized checkout. userName is the partition key and orderDate the sort key.
type Order struct {
	UserName      string        `json:"userName" dynamodbav:"userName"`
	OrderDate     string        `json:"orderDate" dynamodbav:"orderDate"`
	CheckoutID    string        `json:"checkoutId,omitempty" dynamodbav:"checkoutId,omitempty"`
	Items         []events.Item `json:"items" dynamodbav:"items"`
	TotalPrice    float64       `json:"totalPrice" dynamodbav:"totalPrice"`
	FirstName     string        `json:"firstName,omitempty" dynamodbav:"firstName,omitempty"`
	LastName      string        `json:"lastName,omitempty" dynamodbav:"lastName,omitempty"`
	Email         string        `json:"email,omitempty" dynamodbav:"email,omitempty"`
	Address       string        `json:"address,omitempty" dynamodbav:"address,omitempty"`
	CardInfo      string        `json:"cardInfo,omitempty" dynamodbav:"cardInfo,omitempty"`
	PaymentMethod string        `json:"paymentMethod,omitempty" dynamodbav:"paymentMethod,omitempty"`
	Extra         events.Extra  `json:"-" dynamodbav:"-"`
}

type orderFields Order

func (o Order) MarshalJSON() ([]byte, error) {
	return events.MarshalJSONWithExtra(orderFields(o), o.Extra)
}

func (o *Order) UnmarshalJSON(data []byte) error {
	var f orderFields
	extra, err := events.UnmarshalJSONWithExtra(data, &f)
	if err != nil {
		return err
	}
	*o = Order(f)
	o.Extra = extra
	return nil
}

func (o Order) MarshalDynamoDBAttributeValue() (types.AttributeValue, error) {
	return events.MarshalDynamoWithExtra(orderFields(o), o.Extra)
}

func (o *Order) UnmarshalDynamoDBAttributeValue(av types.AttributeValue) error {
	var f orderFields
	extra, err := events.UnmarshalDynamoWithExtra(av, &f)
	if err != nil {
		return err
	}
	*o = Order(f)
	o.Extra = extra
	return nil
}

// NewOrder copies every payload field and stamps orderDate from at.
func NewOrder(p events.CheckoutPayload, at time.Time) Order {
	items := p.Items
	if items == nil {
		items = []events.Item{}
	}
	return Order{
		UserName:      p.UserName,
		OrderDate:     at.UTC().Format(OrderDateLayout),
		CheckoutID:    p.CheckoutID,
		Items:         items,
		TotalPrice:    p.TotalPrice,
		FirstName:     p.FirstName,
		LastName:      p.LastName,
		Email:         p.Email,
		Address:       p.Address,
		CardInfo:      p.CardInfo,
		PaymentMethod: p.PaymentMethod,
		Extra:         p.Extra,
	}
}
