package services

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"

	awspkg "github.com/hanktran/aws-microservices/pkg/aws"
	"github.com/hanktran/aws-microservices/pkg/events"
	"github.com/hanktran/aws-microservices/services/basket-service/models"
	"github.com/hanktran/aws-microservices/services/basket-service/publisher"
	"github.com/hanktran/aws-microservices/services/basket-service/repository"
	apperrors "github.com/hanktran/aws-microservices/services/common/errors"
	"github.com/hanktran/aws-microservices/services/common/logger"
	"github.com/hanktran/aws-microservices/services/common/metrics"
	"github.com/hanktran/aws-microservices/services/common/validation"
)

// EventConfig names the event a checkout publishes.
type EventConfig struct {
	Source     string
	DetailType string
}

// BasketService defines the basket operations.
type BasketService interface {
	GetBasket(ctx context.Context, userName string) (*models.Basket, error)
	GetAllBaskets(ctx context.Context) ([]models.Basket, error)
	CreateBasket(ctx context.Context, basket *models.Basket) error
	DeleteBasket(ctx context.Context, userName string) error
	Checkout(ctx context.Context, req models.CheckoutRequest) (*models.CheckoutReceipt, error)
}

type basketServiceImpl struct {
	repo     repository.BasketRepository
	bus      publisher.EventBus
	event    EventConfig
	recorder metrics.Recorder
	logger   *zap.Logger
	validate *validation.Validator
	newID    func() string
}

// NewBasketService creates a new BasketService.
func NewBasketService(
	repo repository.BasketRepository,
	bus publisher.EventBus,
	event EventConfig,
	recorder metrics.Recorder,
	logger *zap.Logger,
) BasketService {
	if event.Source == "" {
		event.Source = events.SourceCheckoutBasket
	}
	if event.DetailType == "" {
		event.DetailType = events.DetailTypeCheckoutBasket
	}
	if recorder == nil {
		recorder = metrics.Nop{}
	}
	return &basketServiceImpl{
		repo:     repo,
		bus:      bus,
		event:    event,
		recorder: recorder,
		logger:   logger,
		validate: validation.New(),
		newID:    uuid.NewString,
	}
}

// GetBasket returns the user's basket, or an empty one when none is stored.
func (s *basketServiceImpl) GetBasket(ctx context.Context, userName string) (*models.Basket, error) {
	if err := s.validate.Required("userName", userName); err != nil {
		return nil, err
	}
	b, err := s.repo.Get(ctx, userName)
	if errors.Is(err, repository.ErrNotFound) {
		return &models.Basket{UserName: userName, Items: []models.BasketItem{}}, nil
	}
	if err != nil {
		return nil, apperrors.Store("failed to load basket", err)
	}
	return b, nil
}

func (s *basketServiceImpl) GetAllBaskets(ctx context.Context) ([]models.Basket, error) {
	baskets, err := s.repo.Scan(ctx)
	if err != nil {
		return nil, apperrors.Store("failed to list baskets", err)
	}
	return baskets, nil
}

// CreateBasket stores the basket, replacing any previous one for the same user.
func (s *basketServiceImpl) CreateBasket(ctx context.Context, basket *models.Basket) error {
	if basket == nil {
		return apperrors.Validation("basket body is required")
	}
	// Prices are checked at checkout, so an unpriced line can still be stored.
	if err := s.validate.Required("userName", basket.UserName); err != nil {
		return err
	}
	if basket.Items == nil {
		basket.Items = []models.BasketItem{}
	}
	if err := s.repo.Put(ctx, basket); err != nil {
		return apperrors.Store("failed to save basket", err)
	}
	return nil
}

func (s *basketServiceImpl) DeleteBasket(ctx context.Context, userName string) error {
	if err := s.validate.Required("userName", userName); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, userName); err != nil {
		return apperrors.Store("failed to delete basket", err)
	}
	return nil
}

// Checkout publishes the priced basket as a CheckoutBasket event and then removes the
// basket. A user without a stored basket checks out an empty one. If publishing fails the
// basket is left as it was; if only the delete fails the checkout still succeeds. The
// receipt identifies the event; the payload itself is not echoed.
func (s *basketServiceImpl) Checkout(ctx context.Context, req models.CheckoutRequest) (*models.CheckoutReceipt, error) {
	log := logger.For(ctx, s.logger).With(zap.String("user_name", req.UserName))

	if err := s.validate.Struct(req); err != nil {
		return nil, err
	}

	basket, err := s.GetBasket(ctx, req.UserName)
	if err != nil {
		return nil, err
	}
	if err := s.validate.Struct(basket); err != nil {
		return nil, err
	}

	items := basket.EventItems()
	payload := events.CheckoutPayload{
		CheckoutID:    s.newID(),
		UserName:      basket.UserName,
		Items:         items,
		TotalPrice:    events.TotalPrice(items),
		FirstName:     req.FirstName,
		LastName:      req.LastName,
		Email:         req.Email,
		Address:       req.Address,
		CardInfo:      req.CardInfo,
		PaymentMethod: req.PaymentMethod,
		Extra:         req.Extra,
	}
	detail, err := json.Marshal(payload)
	if err != nil {
		return nil, apperrors.New(apperrors.KindInternal, "failed to encode checkout payload", err)
	}

	dims := map[string]string{"Service": "basket"}
	eventID, err := s.bus.Publish(ctx, s.event.Source, s.event.DetailType, detail)
	if err != nil {
		_ = s.recorder.RecordCount(ctx, awspkg.MetricCheckoutPublishFailed, dims)
		log.Error("checkout event publish failed", zap.Error(err))
		return nil, apperrors.Publish("failed to publish checkout event", err)
	}

	log.Info("checkout event published",
		zap.String("event_id", eventID),
		zap.String("checkout_id", payload.CheckoutID),
		zap.Int("items", len(items)),
		zap.Float64("total_price", payload.TotalPrice),
	)
	_ = s.recorder.RecordCount(ctx, awspkg.MetricCheckouts, dims)
	_ = s.recorder.RecordValue(ctx, awspkg.MetricCheckoutTotal, payload.TotalPrice, dims)

	if err := s.repo.Delete(ctx, basket.UserName); err != nil {
		_ = s.recorder.RecordCount(ctx, awspkg.MetricBasketDeleteFailed, dims)
		log.Error("basket delete after checkout failed", zap.String("event_id", eventID), zap.Error(err))
	}

	return &models.CheckoutReceipt{EventID: eventID, CheckoutID: payload.CheckoutID}, nil
}
