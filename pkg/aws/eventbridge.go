package aws

import (
	"context"
	"fmt"

	sdkaws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge/types"
)

type eventBridgeAPI interface {
	PutEvents(ctx context.Context, params *eventbridge.PutEventsInput, optFns ...func(*eventbridge.Options)) (*eventbridge.PutEventsOutput, error)
}

// EventBridgePublisher puts single events on a custom event bus.
type EventBridgePublisher struct {
	client  eventBridgeAPI
	busName string
}

func NewEventBridgePublisher(cfg sdkaws.Config, busName string) *EventBridgePublisher {
	return &EventBridgePublisher{client: eventbridge.NewFromConfig(cfg), busName: busName}
}

// NewEventBridgePublisherWithClient is used by tests to inject a fake PutEvents client.
func NewEventBridgePublisherWithClient(client eventBridgeAPI, busName string) *EventBridgePublisher {
	return &EventBridgePublisher{client: client, busName: busName}
}

// Publish sends one entry and returns the event id assigned by EventBridge.
// PutEvents reports per-entry failures in the response body rather than as an error,
// so a non-zero FailedEntryCount is turned into an error here.
func (p *EventBridgePublisher) Publish(ctx context.Context, source, detailType string, detail []byte) (string, error) {
	out, err := p.client.PutEvents(ctx, &eventbridge.PutEventsInput{
		Entries: []types.PutEventsRequestEntry{{
			Source:       sdkaws.String(source),
			DetailType:   sdkaws.String(detailType),
			Detail:       sdkaws.String(string(detail)),
			EventBusName: sdkaws.String(p.busName),
			Resources:    []string{},
		}},
	})
	if err != nil {
		return "", fmt.Errorf("eventbridge put events on %s: %w", p.busName, err)
	}

	if out.FailedEntryCount > 0 || len(out.Entries) == 0 {
		code, msg := "unknown", "no entry result returned"
		if len(out.Entries) > 0 {
			code = sdkaws.ToString(out.Entries[0].ErrorCode)
			msg = sdkaws.ToString(out.Entries[0].ErrorMessage)
		}
		return "", fmt.Errorf("eventbridge rejected event on %s: %s: %s", p.busName, code, msg)
	}

	return sdkaws.ToString(out.Entries[0].EventId), nil
}

// BusName returns the configured event bus.
func (p *EventBridgePublisher) BusName() string {
	return p.busName
}
