// Package invocation decodes the payloads the ordering function can be invoked with and
// dispatches each kind to its handler.
package invocation

import (
	"encoding/json"
	"errors"
	"fmt"

	lambdaevents "github.com/aws/aws-lambda-go/events"

	"github.com/hanktran/aws-microservices/pkg/events"
)

var ErrUnknownInvocation = errors.New("unrecognized invocation payload")

// Invocation is one of HTTPInvocation, BusInvocation or QueueInvocation.
type Invocation interface {
	isInvocation()
}

// HTTPInvocation is an API Gateway proxy request.
type HTTPInvocation struct {
	Request lambdaevents.APIGatewayProxyRequest
}

// BusInvocation is an event delivered directly by an EventBridge rule.
type BusInvocation struct {
	Envelope events.Envelope
}

// QueueInvocation is a batch of SQS records, each holding an event envelope.
type QueueInvocation struct {
	Event lambdaevents.SQSEvent
}

func (HTTPInvocation) isInvocation()  {}
func (BusInvocation) isInvocation()   {}
func (QueueInvocation) isInvocation() {}

type shape struct {
	HTTPMethod string            `json:"httpMethod"`
	DetailType string            `json:"detail-type"`
	Records    []json.RawMessage `json:"Records"`
}

// Decode classifies raw by the fields that only one kind of payload carries.
func Decode(raw []byte) (Invocation, error) {
	var p shape
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnknownInvocation, err)
	}

	switch {
	case p.DetailType != "":
		env, err := events.DecodeEnvelope(raw)
		if err != nil {
			return nil, err
		}
		return BusInvocation{Envelope: env}, nil
	case p.HTTPMethod != "":
		var req lambdaevents.APIGatewayProxyRequest
		if err := json.Unmarshal(raw, &req); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUnknownInvocation, err)
		}
		return HTTPInvocation{Request: req}, nil
	case len(p.Records) > 0:
		var evt lambdaevents.SQSEvent
		if err := json.Unmarshal(raw, &evt); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUnknownInvocation, err)
		}
		return QueueInvocation{Event: evt}, nil
	default:
		return nil, ErrUnknownInvocation
	}
}
