package consumer

import (
	"context"
	"errors"

	"go.uber.org/zap"

	awspkg "github.com/hanktran/aws-microservices/pkg/aws"
	"github.com/hanktran/aws-microservices/pkg/events"
	apperrors "github.com/hanktran/aws-microservices/services/common/errors"
	"github.com/hanktran/aws-microservices/services/common/metrics"
	"github.com/hanktran/aws-microservices/services/order-service/services"
)

// CheckoutHandler turns one delivered message into an order. It is shared by every
// delivery path, which only differ in how they acknowledge.
type CheckoutHandler struct {
	orders   services.OrderService
	recorder metrics.Recorder
	logger   *zap.Logger
}

func NewCheckoutHandler(orders services.OrderService, recorder metrics.Recorder, logger *zap.Logger) *CheckoutHandler {
	if recorder == nil {
		recorder = metrics.Nop{}
	}
	return &CheckoutHandler{orders: orders, recorder: recorder, logger: logger}
}

// Handle returns nil when the message is done with: an order was created, the checkout was
// already materialized, or the message can never be processed. Only store failures return
// an error, leaving the message for redelivery.
func (h *CheckoutHandler) Handle(ctx context.Context, raw []byte) error {
	env, err := events.DecodeEnvelope(raw)
	if err != nil {
		h.logger.Error("dropping undecodable checkout message", zap.Error(err), zap.ByteString("payload", raw))
		return nil
	}
	return h.HandleEnvelope(ctx, env)
}

func (h *CheckoutHandler) HandleEnvelope(ctx context.Context, env events.Envelope) error {
	_ = h.recorder.RecordCount(ctx, awspkg.MetricCheckoutEventsConsumed, map[string]string{"Service": "order"})

	payload, err := env.CheckoutPayload()
	if err != nil {
		h.logger.Error("dropping invalid checkout event", zap.String("event_id", env.ID), zap.Error(err))
		return nil
	}

	_, err = h.orders.OnCheckoutEvent(ctx, payload)
	switch {
	case errors.Is(err, services.ErrDuplicateCheckout):
		return nil
	case errors.Is(err, apperrors.ErrValidation):
		h.logger.Error("dropping rejected checkout event", zap.String("event_id", env.ID), zap.Error(err))
		return nil
	}
	return err
}
