package integration

import (
	"context"
	"encoding/json"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	awspkg "github.com/hanktran/aws-microservices/pkg/aws"
	"github.com/hanktran/aws-microservices/pkg/dynamodb/dynamotest"
	"github.com/hanktran/aws-microservices/pkg/events"
	"github.com/hanktran/aws-microservices/services/common/metrics"
	"github.com/hanktran/aws-microservices/services/order-service/consumer"
	"github.com/hanktran/aws-microservices/services/order-service/repository"
	"github.com/hanktran/aws-microservices/services/order-service/services"
)

// These tests run only when RUN_LOCALSTACK_INTEGRATION=true and an endpoint is available at
// AWS_ENDPOINT or the default localhost:4566.
func skipUnlessLocalStack(t *testing.T) {
	t.Helper()
	if os.Getenv("RUN_LOCALSTACK_INTEGRATION") != "true" {
		t.Skip("skipping localstack integration test; set RUN_LOCALSTACK_INTEGRATION=true to run")
	}
}

func checkoutDetail(t *testing.T, userName string) []byte {
	t.Helper()
	price := 10.0
	detail, err := json.Marshal(events.CheckoutPayload{
		UserName:   userName,
		CheckoutID: "it-" + userName,
		Items:      []events.Item{{ProductID: "p1", Quantity: 1, Price: price}},
		TotalPrice: price,
	})
	require.NoError(t, err)
	return detail
}

func TestCheckoutPublish_SNS(t *testing.T) {
	skipUnlessLocalStack(t)
	topic := os.Getenv("CHECKOUT_SNS_TOPIC_ARN")
	if topic == "" {
		t.Fatalf("CHECKOUT_SNS_TOPIC_ARN must be set for integration test")
	}

	cfg, err := awspkg.LoadAWSConfig(context.Background())
	require.NoError(t, err)

	body, err := json.Marshal(events.NewEnvelope(events.SourceCheckoutBasket, events.DetailTypeCheckoutBasket, checkoutDetail(t, "it-sns")))
	require.NoError(t, err)

	err = awspkg.NewSNSClient(cfg).Publish(context.Background(), topic, body, map[string]string{
		"detail-type": events.DetailTypeCheckoutBasket,
	})
	assert.NoError(t, err)
}

func TestCheckoutPublish_EventBridge(t *testing.T) {
	skipUnlessLocalStack(t)

	cfg, err := awspkg.LoadAWSConfig(context.Background())
	require.NoError(t, err)

	pub := awspkg.NewEventBridgePublisher(cfg, events.DefaultBusName)
	id, err := pub.Publish(context.Background(), events.SourceCheckoutBasket, events.DetailTypeCheckoutBasket, checkoutDetail(t, "it-eb"))
	require.NoError(t, err)
	assert.NotEmpty(t, id)
}

// TestQueueToOrder drains the checkout queue for a few seconds into an in-memory order table.
func TestQueueToOrder(t *testing.T) {
	skipUnlessLocalStack(t)
	queueURL := os.Getenv("CHECKOUT_SQS_QUEUE_URL")
	if queueURL == "" {
		t.Fatalf("CHECKOUT_SQS_QUEUE_URL must be set for integration test")
	}

	cfg, err := awspkg.LoadAWSConfig(context.Background())
	require.NoError(t, err)

	db := dynamotest.NewDB().CreateTable("order", "userName", "orderDate").CreateTable("idem", "checkoutId", "")
	logger := zap.NewNop()
	orders := services.NewOrderService(repository.NewDynamoOrderRepository(db, "order", "idem"), metrics.Nop{}, logger, nil)
	handler := consumer.NewCheckoutHandler(orders, metrics.Nop{}, logger)

	ctx, cancel := context.WithTimeout(context.Background(), 25*time.Second)
	defer cancel()
	err = consumer.NewSQSCheckoutConsumer(awspkg.NewSQSConsumer(cfg, queueURL, logger), handler, logger).Start(ctx)
	assert.NoError(t, err)
}
