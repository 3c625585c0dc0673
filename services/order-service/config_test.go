package main

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hanktran/aws-microservices/services/order-service/database"
)

type fakeSecrets struct {
	m   map[string]string
	err error
}

func (f fakeSecrets) GetSecretMap(context.Context, string) (map[string]string, error) {
	return f.m, f.err
}

func TestLoadConfig_Defaults(t *testing.T) {
	for _, k := range []string{"PORT", "ORDER_STORE", "DYNAMODB_TABLE_NAME", "CHECKOUT_SOURCE", "KAFKA_GROUP_ID", "RATE_LIMIT_RPM", "RATE_LIMIT_BURST"} {
		t.Setenv(k, "")
	}

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "8002", cfg.Port)
	assert.Equal(t, "dynamodb", cfg.OrderStore)
	assert.Equal(t, "order", cfg.TableName)
	assert.Equal(t, "sqs", cfg.CheckoutSource)
	assert.Equal(t, "order-service", cfg.KafkaGroupID)
	assert.Equal(t, 300, cfg.RateLimitRPM)
}

func TestLoadConfig_Rejects(t *testing.T) {
	t.Setenv("AWS_USE_SECRETS", "")

	t.Setenv("ORDER_STORE", "mongo")
	_, err := LoadConfig()
	assert.ErrorContains(t, err, "ORDER_STORE")

	t.Setenv("ORDER_STORE", "postgres")
	t.Setenv("POSTGRES_USER", "")
	_, err = LoadConfig()
	assert.ErrorContains(t, err, "database config incomplete")

	t.Setenv("ORDER_STORE", "dynamodb")
	t.Setenv("CHECKOUT_SOURCE", "rabbit")
	_, err = LoadConfig()
	assert.ErrorContains(t, err, "CHECKOUT_SOURCE")

	t.Setenv("CHECKOUT_SOURCE", "none")
	t.Setenv("RATE_LIMIT_BURST", "lots")
	_, err = LoadConfig()
	assert.ErrorContains(t, err, "RATE_LIMIT_BURST")
}

func TestApplyDBSecret(t *testing.T) {
	cfg := &Config{Postgres: database.PostgresConfig{User: "env", Password: "env", Port: "5432"}}

	applyDBSecret(context.Background(), cfg, fakeSecrets{m: map[string]string{
		"POSTGRES_USER":     "secret-user",
		"POSTGRES_PASSWORD": "secret-pass",
		"POSTGRES_PORT":     "",
	}})

	assert.Equal(t, "secret-user", cfg.Postgres.User)
	assert.Equal(t, "secret-pass", cfg.Postgres.Password)
	assert.Equal(t, "5432", cfg.Postgres.Port)
}

func TestApplyDBSecret_MissingSecretKeepsEnv(t *testing.T) {
	cfg := &Config{Postgres: database.PostgresConfig{User: "env"}}
	applyDBSecret(context.Background(), cfg, fakeSecrets{err: errors.New("not found")})
	assert.Equal(t, "env", cfg.Postgres.User)
}
