// Command migrate-orders-pg-to-ddb copies every order from the Postgres store into the
// DynamoDB order table. Orders carrying a checkoutId go through the idempotency table, so
// the tool can be re-run safely.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	awspkg "github.com/hanktran/aws-microservices/pkg/aws"
	dynamopkg "github.com/hanktran/aws-microservices/pkg/dynamodb"
	"github.com/hanktran/aws-microservices/services/common/logger"
	"github.com/hanktran/aws-microservices/services/order-service/database"
	"github.com/hanktran/aws-microservices/services/order-service/models"
	"github.com/hanktran/aws-microservices/services/order-service/repository"
)

type orderSource interface {
	Scan(ctx context.Context) ([]models.Order, error)
}

type orderSink interface {
	Create(ctx context.Context, order *models.Order) error
}

type stats struct {
	Migrated, Skipped, Failed int
}

func main() {
	_ = godotenv.Load()

	var table, idempotencyTable string
	var dryRun bool
	flag.StringVar(&table, "table", getEnv("DYNAMODB_TABLE_NAME", "order"), "DynamoDB order table")
	flag.StringVar(&idempotencyTable, "idempotency-table", os.Getenv("IDEMPOTENCY_TABLE_NAME"), "DynamoDB idempotency table")
	flag.BoolVar(&dryRun, "dry-run", false, "read from Postgres without writing")
	flag.Parse()

	appLogger, err := logger.New("development", nil)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	ctx := context.Background()

	db, err := database.ConnectPostgres(database.PostgresConfig{
		User:     os.Getenv("POSTGRES_USER"),
		Password: os.Getenv("POSTGRES_PASSWORD"),
		DBName:   os.Getenv("POSTGRES_DB"),
		Host:     os.Getenv("POSTGRES_HOST"),
		Port:     getEnv("POSTGRES_PORT", "5432"),
		SSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),
		TimeZone: "UTC",
	}, appLogger)
	if err != nil {
		appLogger.Fatal("postgres", zap.Error(err))
	}
	src := repository.NewGormOrderRepository(db)

	var dst orderSink = discard{}
	if !dryRun {
		awsCfg, err := awspkg.LoadAWSConfig(ctx)
		if err != nil {
			appLogger.Fatal("aws config", zap.Error(err))
		}
		dst = repository.NewDynamoOrderRepository(dynamopkg.NewClientFromConfig(awsCfg), table, idempotencyTable)
	}

	st, err := migrate(ctx, src, dst, appLogger)
	if err != nil {
		appLogger.Fatal("migration aborted", zap.Error(err))
	}
	fmt.Printf("Migration complete. migrated=%d skipped=%d failed=%d\n", st.Migrated, st.Skipped, st.Failed)
}

// migrate copies orders one by one. Already-migrated checkouts are skipped, other write
// failures are counted and do not stop the run.
func migrate(ctx context.Context, src orderSource, dst orderSink, log *zap.Logger) (stats, error) {
	var st stats
	orders, err := src.Scan(ctx)
	if err != nil {
		return st, fmt.Errorf("read source orders: %w", err)
	}

	for i := range orders {
		o := &orders[i]
		err := dst.Create(ctx, o)
		switch {
		case errors.Is(err, repository.ErrDuplicateCheckout):
			st.Skipped++
		case err != nil:
			st.Failed++
			log.Warn("failed to write order", zap.String("user_name", o.UserName), zap.String("order_date", o.OrderDate), zap.Error(err))
		default:
			st.Migrated++
			if st.Migrated%100 == 0 {
				log.Info("progress", zap.Int("migrated", st.Migrated))
			}
		}
	}
	return st, nil
}

type discard struct{}

func (discard) Create(context.Context, *models.Order) error { return nil }

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}
