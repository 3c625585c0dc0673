package repository

import (
	"context"
	"errors"

	"github.com/hanktran/aws-microservices/services/order-service/models"
)

// ErrDuplicateCheckout means an order for the same checkoutId already exists.
var ErrDuplicateCheckout = errors.New("order already exists for checkout")

// OrderRepository is the order record store.
type OrderRepository interface {
	// Create stores the order. When the order carries a CheckoutID a second Create for the
	// same id fails with ErrDuplicateCheckout and writes nothing.
	Create(ctx context.Context, order *models.Order) error
	// Query returns the user's orders; an empty orderDate matches all of them.
	Query(ctx context.Context, userName, orderDate string) ([]models.Order, error)
	Scan(ctx context.Context) ([]models.Order, error)
}
