package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/hanktran/aws-microservices/pkg/events"
)

// Config holds all configuration for the basket service.
type Config struct {
	Port   string
	AppEnv string

	BasketStore string // dynamodb | redis
	TableName   string
	RedisURL    string
	BasketTTL   time.Duration

	EventBusDriver string // eventbridge | sns | kafka
	EventSource    string
	EventDetail    string
	EventBusName   string
	SNSTopicARN    string
	KafkaBrokers   []string
	KafkaTopic     string

	RateLimitRPM   int
	RateLimitBurst int

	MetricsBackend     string // cloudwatch | prometheus | both | none
	MetricsNamespace   string
	CloudWatchLogs     bool
	CloudWatchLogGroup string
}

// LoadConfig reads configuration from environment variables.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		Port:               getEnv("PORT", "8001"),
		AppEnv:             getEnv("APP_ENV", "development"),
		BasketStore:        getEnv("BASKET_STORE", "dynamodb"),
		TableName:          getEnv("DYNAMODB_TABLE_NAME", "basket"),
		RedisURL:           getEnv("REDIS_URL", "redis://localhost:6379"),
		EventBusDriver:     getEnv("EVENT_BUS_DRIVER", "eventbridge"),
		EventSource:        getEnv("EVENT_SOURCE", events.SourceCheckoutBasket),
		EventDetail:        getEnv("EVENT_DETAILTYPE", events.DetailTypeCheckoutBasket),
		EventBusName:       getEnv("EVENT_BUSNAME", events.DefaultBusName),
		SNSTopicARN:        os.Getenv("CHECKOUT_SNS_TOPIC_ARN"),
		KafkaBrokers:       strings.Split(getEnv("KAFKA_BROKERS", "localhost:9092"), ","),
		KafkaTopic:         getEnv("KAFKA_TOPIC", "basket.checkout"),
		MetricsBackend:     getEnv("METRICS_BACKEND", "prometheus"),
		MetricsNamespace:   getEnv("METRICS_NAMESPACE", "SwnShop"),
		CloudWatchLogs:     os.Getenv("CLOUDWATCH_ENABLED") == "true",
		CloudWatchLogGroup: getEnv("CLOUDWATCH_LOG_GROUP", "/swn/services"),
	}

	var err error
	if cfg.BasketTTL, err = time.ParseDuration(getEnv("BASKET_TTL", "0s")); err != nil {
		return nil, fmt.Errorf("invalid BASKET_TTL: %w", err)
	}
	if cfg.RateLimitRPM, err = strconv.Atoi(getEnv("RATE_LIMIT_RPM", "100")); err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_RPM: %w", err)
	}
	if cfg.RateLimitBurst, err = strconv.Atoi(getEnv("RATE_LIMIT_BURST", "20")); err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_BURST: %w", err)
	}

	switch cfg.BasketStore {
	case "dynamodb", "redis":
	default:
		return nil, fmt.Errorf("unknown BASKET_STORE %q", cfg.BasketStore)
	}
	switch cfg.EventBusDriver {
	case "eventbridge":
	case "sns":
		if cfg.SNSTopicARN == "" {
			return nil, fmt.Errorf("CHECKOUT_SNS_TOPIC_ARN is required for the sns driver")
		}
	case "kafka":
	default:
		return nil, fmt.Errorf("unknown EVENT_BUS_DRIVER %q", cfg.EventBusDriver)
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}
