package repository

import (
	"context"
	"errors"

	"github.com/hanktran/aws-microservices/services/basket-service/models"
)

// ErrNotFound is returned by Get when the user has no basket.
var ErrNotFound = errors.New("basket not found")

// BasketRepository is the basket record store.
type BasketRepository interface {
	Get(ctx context.Context, userName string) (*models.Basket, error)
	Scan(ctx context.Context) ([]models.Basket, error)
	Put(ctx context.Context, basket *models.Basket) error
	// Delete succeeds when the basket does not exist.
	Delete(ctx context.Context, userName string) error
}
