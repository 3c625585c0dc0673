// Command lambda runs the ordering service as a single AWS Lambda function that accepts
// API Gateway requests, EventBridge events and SQS batches.
package main

import (
	"context"
	"log"
	"os"

	"github.com/aws/aws-lambda-go/lambda"

	awspkg "github.com/hanktran/aws-microservices/pkg/aws"
	dynamopkg "github.com/hanktran/aws-microservices/pkg/dynamodb"
	"github.com/hanktran/aws-microservices/services/common/logger"
	"github.com/hanktran/aws-microservices/services/common/metrics"
	"github.com/hanktran/aws-microservices/services/order-service/consumer"
	"github.com/hanktran/aws-microservices/services/order-service/invocation"
	"github.com/hanktran/aws-microservices/services/order-service/repository"
	"github.com/hanktran/aws-microservices/services/order-service/services"
)

func main() {
	ctx := context.Background()

	appLogger, err := logger.New(getEnv("APP_ENV", "production"), nil)
	if err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}

	awsCfg, err := awspkg.LoadAWSConfig(ctx)
	if err != nil {
		log.Fatalf("Failed to load AWS config: %v", err)
	}

	var recorder metrics.Recorder = metrics.Nop{}
	if os.Getenv("METRICS_BACKEND") == "cloudwatch" {
		recorder = awspkg.NewMetricsClient(awsCfg, getEnv("METRICS_NAMESPACE", "SwnShop"), true)
	}

	repo := repository.NewDynamoOrderRepository(
		dynamopkg.NewClientFromConfig(awsCfg),
		getEnv("DYNAMODB_TABLE_NAME", "order"),
		os.Getenv("IDEMPOTENCY_TABLE_NAME"),
	)
	orderService := services.NewOrderService(repo, recorder, appLogger, nil)
	dispatcher := invocation.NewDispatcher(orderService, consumer.NewCheckoutHandler(orderService, recorder, appLogger), appLogger)

	lambda.Start(dispatcher.Handle)
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}
