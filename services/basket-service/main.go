package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	awspkg "github.com/hanktran/aws-microservices/pkg/aws"
	dynamopkg "github.com/hanktran/aws-microservices/pkg/dynamodb"
	kafkapkg "github.com/hanktran/aws-microservices/pkg/kafka"
	"github.com/hanktran/aws-microservices/services/basket-service/controllers"
	"github.com/hanktran/aws-microservices/services/basket-service/publisher"
	"github.com/hanktran/aws-microservices/services/basket-service/repository"
	"github.com/hanktran/aws-microservices/services/basket-service/routes"
	"github.com/hanktran/aws-microservices/services/basket-service/services"
	"github.com/hanktran/aws-microservices/services/common/logger"
	"github.com/hanktran/aws-microservices/services/common/metrics"
	"github.com/hanktran/aws-microservices/services/common/middleware"
)

const serviceName = "basket-service"

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

	var repo repository.BasketRepository
	switch cfg.BasketStore {
	case "redis":
		client, err := repository.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			appLogger.Fatal("Failed to connect to Redis", zap.Error(err))
		}
		defer client.Close() //nolint:errcheck
		repo = repository.NewRedisBasketRepository(client, cfg.BasketTTL)
	default:
		repo = repository.NewDynamoBasketRepository(dynamopkg.NewClientFromConfig(awsCfg), cfg.TableName)
	}

	var bus publisher.EventBus
	switch cfg.EventBusDriver {
	case "sns":
		bus = publisher.NewSNSBus(awspkg.NewSNSClient(awsCfg), cfg.SNSTopicARN)
	case "kafka":
		producer := kafkapkg.NewProducer(cfg.KafkaBrokers, cfg.KafkaTopic)
		defer producer.Close() //nolint:errcheck
		bus = publisher.NewKafkaBus(producer)
	default:
		bus = awspkg.NewEventBridgePublisher(awsCfg, cfg.EventBusName)
	}

	basketService := services.NewBasketService(repo, bus, services.EventConfig{
		Source:     cfg.EventSource,
		DetailType: cfg.EventDetail,
	}, recorder, appLogger)
	basketController := controllers.NewBasketController(basketService)

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
	)

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy", "service": serviceName})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	routes.RegisterBasketRoutes(r, basketController, middleware.RateLimit(limiter))

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

	appLogger.Info("Basket service started",
		zap.String("port", cfg.Port),
		zap.String("store", cfg.BasketStore),
		zap.String("event_bus", cfg.EventBusDriver),
	)
	<-ctx.Done()
	appLogger.Info("Shutting down basket service...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLogger.Error("Server forced to shutdown", zap.Error(err))
	}
	appLogger.Info("Server exited cleanly")
}
