package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	sdkaws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	awspkg "github.com/hanktran/aws-microservices/pkg/aws"
	dynamopkg "github.com/hanktran/aws-microservices/pkg/dynamodb"
	kafkapkg "github.com/hanktran/aws-microservices/pkg/kafka"
	"github.com/hanktran/aws-microservices/services/common/logger"
	"github.com/hanktran/aws-microservices/services/common/metrics"
	"github.com/hanktran/aws-microservices/services/common/middleware"
	"github.com/hanktran/aws-microservices/services/order-service/consumer"
	"github.com/hanktran/aws-microservices/services/order-service/controllers"
	"github.com/hanktran/aws-microservices/services/order-service/database"
	"github.com/hanktran/aws-microservices/services/order-service/repository"
	"github.com/hanktran/aws-microservices/services/order-service/routes"
	"github.com/hanktran/aws-microservices/services/order-service/services"
)

const serviceName = "order-service"

func main() {
	_ = godotenv.Load()

	cfg, err := LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	awsCfg, err := awspkg.LoadAWSConfig(ctx)
	if err != nil {
		log.Fatalf("Failed to load AWS config: %v", err)
	}

	cwLogs, err := awspkg.NewCloudWatchLogsClient(ctx, awsCfg, serviceName, cfg.CloudWatchLogGroup, cfg.CloudWatchLogs)
	if err != nil {
		log.Printf("CloudWatch Logs unavailable, logging to stdout only: %v", err)
	}
	appLogger, err := logger.NewWithCloudWatch(cfg.AppEnv, cwLogs)
	if err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer appLogger.Sync() //nolint:errcheck

	prom := metrics.NewPromRecorder(cfg.MetricsNamespace, prometheus.DefaultRegisterer)
	cloudWatch := awspkg.NewMetricsClient(awsCfg, cfg.MetricsNamespace, cfg.MetricsBackend == "cloudwatch" || cfg.MetricsBackend == "both")
	recorder, err := metrics.ForBackend(cfg.MetricsBackend, cloudWatch, prom)
	if err != nil {
		appLogger.Fatal("Invalid metrics backend", zap.Error(err))
	}

	var repo repository.OrderRepository
	switch cfg.OrderStore {
	case "postgres":
		db, err := database.ConnectPostgres(cfg.Postgres, appLogger, &repository.OrderRecord{})
		if err != nil {
			appLogger.Fatal("Failed to connect to Postgres", zap.Error(err))
		}
		repo = repository.NewGormOrderRepository(db)
	default:
		repo = repository.NewDynamoOrderRepository(dynamopkg.NewClientFromConfig(awsCfg), cfg.TableName, cfg.IdempotencyTable)
	}

	orderService := services.NewOrderService(repo, recorder, appLogger, nil)
	checkoutHandler := consumer.NewCheckoutHandler(orderService, recorder, appLogger)

	waitConsumer := runInBackground(ctx, func(ctx context.Context) {
		runCheckoutConsumer(ctx, cfg, awsCfg, checkoutHandler, appLogger)
	})

	limiter := middleware.NewRateLimiter(middleware.PerMinute(cfg.RateLimitRPM), cfg.RateLimitBurst, 5*time.Minute)
	go limiter.Janitor(ctx)

	if cfg.AppEnv == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(
		gin.Recovery(),
		middleware.RequestID(),
		middleware.RequestLogger(appLogger),
		middleware.SecurityHeaders(),
		middleware.CORS(),
		middleware.Metrics(recorder, serviceName),
		middleware.RateLimit(limiter),
	)

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy", "service": serviceName})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	routes.RegisterOrderRoutes(r, controllers.NewOrderController(orderService))

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Fatal("Server failed", zap.Error(err))
		}
	}()

	appLogger.Info("Order service started",
		zap.String("port", cfg.Port),
		zap.String("store", cfg.OrderStore),
		zap.String("checkout_source", cfg.CheckoutSource),
	)
	<-ctx.Done()
	appLogger.Info("Shutting down order service...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLogger.Error("Server forced to shutdown", zap.Error(err))
	}
	if !waitConsumer(shutdownCtx) {
		appLogger.Warn("Checkout consumer did not stop before the shutdown deadline")
	}
	appLogger.Info("Server exited cleanly")
}

// runInBackground starts fn and returns a func that blocks until fn returns or waitCtx is
// done. It reports whether fn finished.
func runInBackground(ctx context.Context, fn func(context.Context)) func(waitCtx context.Context) bool {
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		fn(ctx)
	}()

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	return func(waitCtx context.Context) bool {
		select {
		case <-done:
			return true
		case <-waitCtx.Done():
			return false
		}
	}
}

// runCheckoutConsumer blocks until ctx is cancelled. Consumer failures are logged and leave
// the HTTP API running.
func runCheckoutConsumer(ctx context.Context, cfg *Config, awsCfg sdkaws.Config, handler *consumer.CheckoutHandler, appLogger *zap.Logger) {
	switch cfg.CheckoutSource {
	case "sqs":
		queueURL := cfg.QueueURL
		if queueURL == "" {
			var err error
			if queueURL, err = awspkg.GetQueueURL(ctx, awsCfg, cfg.QueueName); err != nil {
				appLogger.Error("Checkout queue unavailable, consumer not started", zap.Error(err))
				return
			}
		}
		poller := awspkg.NewSQSConsumer(awsCfg, queueURL, appLogger)
		if err := consumer.NewSQSCheckoutConsumer(poller, handler, appLogger).Start(ctx); err != nil {
			appLogger.Error("Checkout queue consumer stopped", zap.Error(err))
		}
	case "kafka":
		reader := kafkapkg.NewConsumer(cfg.KafkaBrokers, cfg.KafkaTopic, cfg.KafkaGroupID, appLogger)
		defer reader.Close() //nolint:errcheck
		if err := consumer.NewKafkaCheckoutConsumer(reader, handler, appLogger).Start(ctx); err != nil {
			appLogger.Error("Checkout topic consumer stopped", zap.Error(err))
		}
	default:
		appLogger.Info("No checkout source configured; orders arrive via Lambda only")
	}
}
