package events

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

var (
	ErrMalformedEnvelope  = errors.New("malformed event envelope")
	ErrUnexpectedDetail   = errors.New("unexpected event detail-type")
	ErrMissingCheckoutKey = errors.New("checkout payload has no userName")
)

// Envelope mirrors the EventBridge event shape. The SNS and Kafka transports publish the
// same JSON so a single decoder serves every delivery path.
type Envelope struct {
	ID         string          `json:"id"`
	Source     string          `json:"source"`
	DetailType string          `json:"detail-type"`
	Time       time.Time       `json:"time"`
	Detail     json.RawMessage `json:"detail"`
}

// NewEnvelope wraps an already serialized detail.
func NewEnvelope(source, detailType string, detail []byte) Envelope {
	return Envelope{
		ID:         uuid.NewString(),
		Source:     source,
		DetailType: detailType,
		Time:       time.Now().UTC(),
		Detail:     json.RawMessage(detail),
	}
}

// snsNotification is what SQS receives from an SNS subscription without raw delivery.
type snsNotification struct {
	Type    string `json:"Type"`
	Message string `json:"Message"`
}

// DecodeEnvelope parses an event as delivered by EventBridge, SNS (wrapped or raw) or Kafka.
func DecodeEnvelope(raw []byte) (Envelope, error) {
	var n snsNotification
	if err := json.Unmarshal(raw, &n); err == nil && n.Type == "Notification" && n.Message != "" {
		raw = []byte(n.Message)
	}

	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return Envelope{}, fmt.Errorf("%w: %v", ErrMalformedEnvelope, err)
	}
	if env.DetailType == "" || len(env.Detail) == 0 {
		return Envelope{}, fmt.Errorf("%w: detail-type and detail are required", ErrMalformedEnvelope)
	}
	return env, nil
}

// CheckoutPayload decodes the detail of a CheckoutBasket event.
func (e Envelope) CheckoutPayload() (CheckoutPayload, error) {
	if e.DetailType != DetailTypeCheckoutBasket {
		return CheckoutPayload{}, fmt.Errorf("%w: %q", ErrUnexpectedDetail, e.DetailType)
	}
	var p CheckoutPayload
	if err := json.Unmarshal(e.Detail, &p); err != nil {
		return CheckoutPayload{}, fmt.Errorf("%w: detail: %v", ErrMalformedEnvelope, err)
	}
	if p.UserName == "" {
		return CheckoutPayload{}, ErrMissingCheckoutKey
	}
	if p.Items == nil {
		p.Items = []Item{}
	}
	return p, nil
}
