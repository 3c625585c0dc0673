package models

import (
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/hanktran/aws-microservices/pkg/events"
)

// BasketItem is one line of a basket. Price is a pointer so that a line stored without a
// price is told apart from a free one. Fields beyond the named ones are kept in Extra.
type BasketItem struct {
	ProductID   string       `json:"productId,omitempty" dynamodbav:"productId,omitempty"`
	ProductName string       `json:"productName,omitempty" dynamodbav:"productName,omitempty"`
	Color       string       `json:"color,omitempty" dynamodbav:"color,omitempty"`
	Quantity    int          `json:"quantity,omitempty" dynamodbav:"quantity,omitempty" validate:"gte=0"`
	Price       *float64     `json:"price,omitempty" dynamodbav:"price,omitempty" validate:"required"`
	Extra       events.Extra `json:"-" dynamodbav:"-"`
}

type basketItemFields BasketItem

func (i BasketItem) MarshalJSON() ([]byte, error) {
	return events.MarshalJSONWithExtra(basketItemFields(i), i.Extra)
}

func (i *BasketItem) UnmarshalJSON(data []byte) error {
	var f basketItemFields
	extra, err := events.UnmarshalJSONWithExtra(data, &f)
	if err != nil {
		return err
	}
	*i = BasketItem(f)
	i.Extra = extra
	return nil
}

func (i BasketItem) MarshalDynamoDBAttributeValue() (types.AttributeValue, error) {
	return events.MarshalDynamoWithExtra(basketItemFields(i), i.Extra)
}

func (i *BasketItem) UnmarshalDynamoDBAttributeValue(av types.AttributeValue) error {
	var f basketItemFields
	extra, err := events.UnmarshalDynamoWithExtra(av, &f)
	if err != nil {
		return err
	}
	*i = BasketItem(f)
	i.Extra = extra
	return nil
}

// Basket is keyed by userName; at most one per user.
type Basket struct {
	UserName string       `json:"userName" dynamodbav:"userName" validate:"required"`
	Items    []BasketItem `json:"items" dynamodbav:"items" validate:"dive"`
}

// CheckoutRequest is the body of POST /basket/checkout. Only userName is required; any
// other field, e.g. shippingMethod, is forwarded on the event through Extra.
type CheckoutRequest struct {
	UserName      string       `json:"userName" validate:"required"`
	FirstName     string       `json:"firstName,omitempty"`
	LastName      string       `json:"lastName,omitempty"`
	Email         string       `json:"email,omitempty"`
	Address       string       `json:"address,omitempty"`
	CardInfo      string       `json:"cardInfo,omitempty"`
	PaymentMethod string       `json:"paymentMethod,omitempty"`
	Extra         events.Extra `json:"-"`
}

type checkoutRequestFields CheckoutRequest

func (r CheckoutRequest) MarshalJSON() ([]byte, error) {
	return events.MarshalJSONWithExtra(checkoutRequestFields(r), r.Extra)
}

func (r *CheckoutRequest) UnmarshalJSON(data []byte) error {
	var f checkoutRequestFields
	extra, err := events.UnmarshalJSONWithExtra(data, &f)
	if err != nil {
		return err
	}
	*r = CheckoutRequest(f)
	r.Extra = extra
	return nil
}

// CheckoutReceipt is what a caller learns about a checkout. It never carries the payload.
type CheckoutReceipt struct {
	EventID    string `json:"eventId"`
	CheckoutID string `json:"checkoutId"`
}

// EventItems converts the lines to the event shape. Every line must be priced; callers
// validate the basket first.
func (b Basket) EventItems() []events.Item {
	items := make([]events.Item, 0, len(b.Items))
	for _, it := range b.Items {
		var price float64
		if it.Price != nil {
			price = *it.Price
		}
		items = append(items, events.Item{
			ProductID:   it.ProductID,
			ProductName: it.ProductName,
			Color:       it.Color,
			Quantity:    it.Quantity,
			Price:       price,
			Extra:       it.Extra,
		})
	}
	return items
}
