package main

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// Config holds all configuration for the gateway.
type Config struct {
	Port           string
	AppEnv         string
	BasketURL      string
	OrderURL       string
	AllowedOrigins []string
	ForwardTimeout time.Duration

	MetricsNamespace string
}

// LoadConfig reads configuration from environment variables.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		Port:             getEnv("PORT", "8080"),
		AppEnv:           getEnv("APP_ENV", "development"),
		BasketURL:        strings.TrimRight(getEnv("BASKET_SERVICE_URL", "http://basket-service:8001"), "/"),
		OrderURL:         strings.TrimRight(getEnv("ORDER_SERVICE_URL", "http://order-service:8002"), "/"),
		AllowedOrigins:   strings.Split(getEnv("ALLOWED_ORIGINS", "http://localhost:3000"), ","),
		MetricsNamespace: getEnv("METRICS_NAMESPACE", "SwnShop"),
	}

	var err error
	if cfg.ForwardTimeout, err = time.ParseDuration(getEnv("FORWARD_TIMEOUT", "15s")); err != nil {
		return nil, fmt.Errorf("invalid FORWARD_TIMEOUT: %w", err)
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}
