package services

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	awspkg "github.com/hanktran/aws-microservices/pkg/aws"
	"github.com/hanktran/aws-microservices/pkg/events"
	apperrors "github.com/hanktran/aws-microservices/services/common/errors"
	"github.com/hanktran/aws-microservices/services/common/logger"
	"github.com/hanktran/aws-microservices/services/common/metrics"
	"github.com/hanktran/aws-microservices/services/common/validation"
	"github.com/hanktran/aws-microservices/services/order-service/models"
	"github.com/hanktran/aws-microservices/services/order-service/repository"
)

// ErrDuplicateCheckout is returned by OnCheckoutEvent when the checkout was already
// materialized. Delivery paths treat it as handled.
var ErrDuplicateCheckout = repository.ErrDuplicateCheckout

// OrderService defines the ordering operations.
type OrderService interface {
	OnCheckoutEvent(ctx context.Context, payload events.CheckoutPayload) (*models.Order, error)
	GetOrder(ctx context.Context, userName, orderDate string) ([]models.Order, error)
	GetAllOrders(ctx context.Context) ([]models.Order, error)
}

type orderServiceImpl struct {
	repo     repository.OrderRepository
	recorder metrics.Recorder
	logger   *zap.Logger
	now      func() time.Time
	validate *validation.Validator
}

// NewOrderService creates a new OrderService. A nil clock uses time.Now.
func NewOrderService(repo repository.OrderRepository, recorder metrics.Recorder, logger *zap.Logger, clock func() time.Time) OrderService {
	if recorder == nil {
		recorder = metrics.Nop{}
	}
	if clock == nil {
		clock = time.Now
	}
	return &orderServiceImpl{repo: repo, recorder: recorder, logger: logger, now: clock, validate: validation.New()}
}

// OnCheckoutEvent stamps orderDate from the service clock and persists the order.
func (s *orderServiceImpl) OnCheckoutEvent(ctx context.Context, payload events.CheckoutPayload) (*models.Order, error) {
	log := logger.For(ctx, s.logger).With(
		zap.String("user_name", payload.UserName),
		zap.String("checkout_id", payload.CheckoutID),
	)
	dims := map[string]string{"Service": "order"}

	if err := s.validate.Struct(payload); err != nil {
		return nil, err
	}

	order := models.NewOrder(payload, s.now())
	err := s.repo.Create(ctx, &order)
	if errors.Is(err, repository.ErrDuplicateCheckout) {
		_ = s.recorder.RecordCount(ctx, awspkg.MetricOrdersDuplicate, dims)
		log.Info("checkout already materialized, skipping")
		return nil, err
	}
	if err != nil {
		_ = s.recorder.RecordCount(ctx, awspkg.MetricOrdersFailed, dims)
		log.Error("failed to persist order", zap.Error(err))
		return nil, apperrors.Store("failed to persist order", err)
	}

	_ = s.recorder.RecordCount(ctx, awspkg.MetricOrdersCreated, dims)
	log.Info("order created", zap.String("order_date", order.OrderDate), zap.Float64("total_price", order.TotalPrice))
	return &order, nil
}

// GetOrder returns the orders matching userName and orderDate exactly.
func (s *orderServiceImpl) GetOrder(ctx context.Context, userName, orderDate string) ([]models.Order, error) {
	if err := s.validate.Required("userName", userName); err != nil {
		return nil, err
	}
	orders, err := s.repo.Query(ctx, userName, orderDate)
	if err != nil {
		return nil, apperrors.Store("failed to query orders", err)
	}
	return orders, nil
}

func (s *orderServiceImpl) GetAllOrders(ctx context.Context) ([]models.Order, error) {
	orders, err := s.repo.Scan(ctx)
	if err != nil {
		return nil, apperrors.Store("failed to list orders", err)
	}
	return orders, nil
}
