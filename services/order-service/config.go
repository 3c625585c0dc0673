package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	awspkg "github.com/hanktran/aws-microservices/pkg/aws"
	"github.com/hanktran/aws-microservices/services/order-service/database"
)

const dbCredentialsSecret = "order/DB_CREDENTIALS"

// Config holds all configuration for the ordering service.
type Config struct {
	Port   string
	AppEnv string

	OrderStore       string // dynamodb | postgres
	TableName        string
	IdempotencyTable string
	Postgres         database.PostgresConfig

	CheckoutSource string // sqs | kafka | none
	QueueURL       string
	QueueName      string
	KafkaBrokers   []string
	KafkaTopic     string
	KafkaGroupID   string

	RateLimitRPM   int
	RateLimitBurst int

	MetricsBackend     string
	MetricsNamespace   string
	CloudWatchLogs     bool
	CloudWatchLogGroup string
}

type secretMapGetter interface {
	GetSecretMap(ctx context.Context, name string) (map[string]string, error)
}

// LoadConfig reads configuration from environment variables. With AWS_USE_SECRETS=true the
// Postgres credentials are overlaid from Secrets Manager.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		Port:             getEnv("PORT", "8002"),
		AppEnv:           getEnv("APP_ENV", "development"),
		OrderStore:       getEnv("ORDER_STORE", "dynamodb"),
		TableName:        getEnv("DYNAMODB_TABLE_NAME", "order"),
		IdempotencyTable: os.Getenv("IDEMPOTENCY_TABLE_NAME"),
		Postgres: database.PostgresConfig{
			User:     os.Getenv("POSTGRES_USER"),
			Password: os.Getenv("POSTGRES_PASSWORD"),
			DBName:   os.Getenv("POSTGRES_DB"),
			Host:     os.Getenv("POSTGRES_HOST"),
			Port:     getEnv("POSTGRES_PORT", "5432"),
			SSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),
			TimeZone: getEnv("POSTGRES_TIMEZONE", "UTC"),
		},
		CheckoutSource:     getEnv("CHECKOUT_SOURCE", "sqs"),
		QueueURL:           os.Getenv("CHECKOUT_SQS_QUEUE_URL"),
		QueueName:          getEnv("CHECKOUT_SQS_QUEUE_NAME", "OrderQueue"),
		KafkaBrokers:       strings.Split(getEnv("KAFKA_BROKERS", "localhost:9092"), ","),
		KafkaTopic:         getEnv("KAFKA_TOPIC", "basket.checkout"),
		KafkaGroupID:       getEnv("KAFKA_GROUP_ID", "order-service"),
		MetricsBackend:     getEnv("METRICS_BACKEND", "prometheus"),
		MetricsNamespace:   getEnv("METRICS_NAMESPACE", "SwnShop"),
		CloudWatchLogs:     os.Getenv("CLOUDWATCH_ENABLED") == "true",
		CloudWatchLogGroup: getEnv("CLOUDWATCH_LOG_GROUP", "/swn/services"),
	}

	var err error
	if cfg.RateLimitRPM, err = strconv.Atoi(getEnv("RATE_LIMIT_RPM", "300")); err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_RPM: %w", err)
	}
	if cfg.RateLimitBurst, err = strconv.Atoi(getEnv("RATE_LIMIT_BURST", "50")); err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_BURST: %w", err)
	}

	if cfg.OrderStore == "postgres" && os.Getenv("AWS_USE_SECRETS") == "true" {
		ctx := context.Background()
		if awsCfg, err := awspkg.LoadAWSConfig(ctx); err == nil {
			applyDBSecret(ctx, cfg, awspkg.NewSecretsClient(awsCfg))
		}
	}

	return cfg, cfg.validate()
}

// applyDBSecret overlays non-empty credentials from the secret. A missing secret leaves the
// environment values in place.
func applyDBSecret(ctx context.Context, cfg *Config, sm secretMapGetter) {
	m, err := sm.GetSecretMap(ctx, dbCredentialsSecret)
	if err != nil {
		return
	}
	for key, dst := range map[string]*string{
		"POSTGRES_USER":     &cfg.Postgres.User,
		"POSTGRES_PASSWORD": &cfg.Postgres.Password,
		"POSTGRES_DB":       &cfg.Postgres.DBName,
		"POSTGRES_HOST":     &cfg.Postgres.Host,
		"POSTGRES_PORT":     &cfg.Postgres.Port,
	} {
		if v := m[key]; v != "" {
			*dst = v
		}
	}
}

func (c *Config) validate() error {
	switch c.OrderStore {
	case "dynamodb":
		if c.TableName == "" {
			return fmt.Errorf("DYNAMODB_TABLE_NAME is required")
		}
	case "postgres":
		p := c.Postgres
		if p.User == "" || p.Password == "" || p.DBName == "" || p.Host == "" {
			return fmt.Errorf("database config incomplete")
		}
	default:
		return fmt.Errorf("unknown ORDER_STORE %q", c.OrderStore)
	}

	switch c.CheckoutSource {
	case "sqs", "kafka", "none":
	default:
		return fmt.Errorf("unknown CHECKOUT_SOURCE %q", c.CheckoutSource)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}
