package invocation

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	lambdaevents "github.com/aws/aws-lambda-go/events"
	"go.uber.org/zap"

	apperrors "github.com/hanktran/aws-microservices/services/common/errors"
	"github.com/hanktran/aws-microservices/services/common/logger"
	"github.com/hanktran/aws-microservices/services/order-service/consumer"
	"github.com/hanktran/aws-microservices/services/order-service/services"
)

// Dispatcher is the single entry point of the ordering function.
type Dispatcher struct {
	orders   services.OrderService
	checkout *consumer.CheckoutHandler
	logger   *zap.Logger
}

func NewDispatcher(orders services.OrderService, checkout *consumer.CheckoutHandler, logger *zap.Logger) *Dispatcher {
	return &Dispatcher{orders: orders, checkout: checkout, logger: logger}
}

// Handle decodes raw and runs the matching handler. HTTP calls always get a proxy response;
// bus events return an error when the order could not be stored so the invoker retries.
func (d *Dispatcher) Handle(ctx context.Context, raw json.RawMessage) (any, error) {
	inv, err := Decode(raw)
	if err != nil {
		d.logger.Error("unsupported invocation", zap.Error(err))
		return nil, err
	}

	switch inv := inv.(type) {
	case HTTPInvocation:
		return d.serveHTTP(ctx, inv.Request), nil
	case BusInvocation:
		return nil, d.checkout.HandleEnvelope(ctx, inv.Envelope)
	case QueueInvocation:
		return d.handleQueue(ctx, inv.Event), nil
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnknownInvocation, inv)
	}
}

func (d *Dispatcher) handleQueue(ctx context.Context, evt lambdaevents.SQSEvent) lambdaevents.SQSEventResponse {
	resp := lambdaevents.SQSEventResponse{BatchItemFailures: []lambdaevents.SQSBatchItemFailure{}}
	for _, rec := range evt.Records {
		if err := d.checkout.Handle(ctx, []byte(rec.Body)); err != nil {
			d.logger.Warn("checkout record failed", zap.String("message_id", rec.MessageId), zap.Error(err))
			resp.BatchItemFailures = append(resp.BatchItemFailures, lambdaevents.SQSBatchItemFailure{ItemIdentifier: rec.MessageId})
		}
	}
	return resp
}

func (d *Dispatcher) serveHTTP(ctx context.Context, req lambdaevents.APIGatewayProxyRequest) lambdaevents.APIGatewayProxyResponse {
	if id := req.RequestContext.RequestID; id != "" {
		ctx = logger.WithRequestID(ctx, id)
	}
	if req.HTTPMethod != http.MethodGet {
		return fail(apperrors.Validation(fmt.Sprintf("unsupported route method %q", req.HTTPMethod)))
	}

	if userName := req.PathParameters["userName"]; userName != "" {
		orders, err := d.orders.GetOrder(ctx, userName, req.QueryStringParameters["orderDate"])
		if err != nil {
			return fail(err)
		}
		return ok(orders)
	}

	orders, err := d.orders.GetAllOrders(ctx)
	if err != nil {
		return fail(err)
	}
	return ok(orders)
}

func ok(body any) lambdaevents.APIGatewayProxyResponse {
	return jsonResponse(http.StatusOK, map[string]any{
		"message": "successfully finished operation.",
		"body":    body,
	})
}

func fail(err error) lambdaevents.APIGatewayProxyResponse {
	appErr := apperrors.As(err)
	return jsonResponse(appErr.Code, map[string]any{
		"message":   "failed to perform operation.",
		"errorMsg":  appErr.Error(),
		"errorKind": appErr.Kind,
	})
}

func jsonResponse(status int, body any) lambdaevents.APIGatewayProxyResponse {
	data, err := json.Marshal(body)
	if err != nil {
		status, data = http.StatusInternalServerError, []byte(`{"message":"failed to encode response"}`)
	}
	return lambdaevents.APIGatewayProxyResponse{
		StatusCode: status,
		Headers:    map[string]string{"Content-Type": "application/json"},
		Body:       string(data),
	}
}
