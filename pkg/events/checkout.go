// Package events holds the checkout contract shared by the basket publisher and the
// ordering consumers.
package events

import (
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/shopspring/decimal"
)

const (
	SourceCheckoutBasket     = "com.swn.basket.checkoutbasket"
	DetailTypeCheckoutBasket = "CheckoutBasket"
	DefaultBusName           = "SwnEventBus"
)

// Item is one priced basket line as carried by the checkout event and stored on orders.
type Item struct {
	ProductID   string  `json:"productId,omitempty" dynamodbav:"productId,omitempty"`
	ProductName string  `json:"productName,omitempty" dynamodbav:"productName,omitempty"`
	Color       string  `json:"color,omitempty" dynamodbav:"color,omitempty"`
	Quantity    int     `json:"quantity,omitempty" dynamodbav:"quantity,omitempty"`
	Price       float64 `json:"price" dynamodbav:"price"`
	Extra       Extra   `json:"-" dynamodbav:"-"`
}

type itemFields Item

func (i Item) MarshalJSON() ([]byte, error) {
	return MarshalJSONWithExtra(itemFields(i), i.Extra)
}

func (i *Item) UnmarshalJSON(data []byte) error {
	var f itemFields
	extra, err := UnmarshalJSONWithExtra(data, &f)
	if err != nil {
		return err
	}
	*i = Item(f)
	i.Extra = extra
	return nil
}

func (i Item) MarshalDynamoDBAttributeValue() (types.AttributeValue, error) {
	return MarshalDynamoWithExtra(itemFields(i), i.Extra)
}

func (i *Item) UnmarshalDynamoDBAttributeValue(av types.AttributeValue) error {
	var f itemFields
	extra, err := UnmarshalDynamoWithExtra(av, &f)
	if err != nil {
		return err
	}
	*i = Item(f)
	i.Extra = extra
	return nil
}

// CheckoutPayload is the detail of a CheckoutBasket event.
type CheckoutPayload struct {
	// CheckoutID is minted once per checkout and lets the consumer drop redeliveries.
	// Events from older publishers may not carry it.
	CheckoutID    string  `json:"checkoutId,omitempty" dynamodbav:"checkoutId,omitempty"`
	UserName      string  `json:"userName" dynamodbav:"userName" validate:"required"`
	Items         []Item  `json:"items" dynamodbav:"items"`
	TotalPrice    float64 `json:"totalPrice" dynamodbav:"totalPrice"`
	FirstName     string  `json:"firstName,omitempty" dynamodbav:"firstName,omitempty"`
	LastName      string  `json:"lastName,omitempty" dynamodbav:"lastName,omitempty"`
	Email         string  `json:"email,omitempty" dynamodbav:"email,omitempty"`
	Address       string  `json:"address,omitempty" dynamodbav:"address,omitempty"`
	CardInfo      string  `json:"cardInfo,omitempty" dynamodbav:"cardInfo,omitempty"`
	PaymentMethod string  `json:"paymentMethod,omitempty" dynamodbav:"paymentMethod,omitempty"`
	// Extra carries any other request fields, e.g. shippingMethod.
	Extra Extra `json:"-" dynamodbav:"-"`
}

type payloadFields CheckoutPayload

func (p CheckoutPayload) MarshalJSON() ([]byte, error) {
	return MarshalJSONWithExtra(payloadFields(p), p.Extra)
}

func (p *CheckoutPayload) UnmarshalJSON(data []byte) error {
	var f payloadFields
	extra, err := UnmarshalJSONWithExtra(data, &f)
	if err != nil {
		return err
	}
	*p = CheckoutPayload(f)
	p.Extra = extra
	return nil
}

// TotalPrice sums item prices in decimal so that e.g. 0.1 + 0.2 reports 0.3.
// An empty list totals 0.
func TotalPrice(items []Item) float64 {
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(decimal.NewFromFloat(it.Price))
	}
	return total.InexactFloat64()
}

// NewCheckoutEnvelope serializes p as the detail of a CheckoutBasket event.
func NewCheckoutEnvelope(p CheckoutPayload) (Envelope, error) {
	detail, err := json.Marshal(p)
	if err != nil {
		return Envelope{}, fmt.Errorf("marshal checkout payload: %w", err)
	}
	return NewEnvelope(SourceCheckoutBasket, DetailTypeCheckoutBasket, detail), nil
}
