package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"github.com/hanktran/aws-microservices/pkg/events"
	"github.com/hanktran/aws-microservices/services/order-service/models"
)

// OrderRecord is the Postgres row for an order. CheckoutID is nullable so that orders from
// publishers that do not send one never collide on the unique index.
type OrderRecord struct {
	ID            uint          `gorm:"primaryKey"`
	UserName      string        `gorm:"not null;index:idx_orders_user_date,priority:1"`
	OrderDate     string        `gorm:"not null;index:idx_orders_user_date,priority:2"`
	CheckoutID    *string       `gorm:"uniqueIndex"`
	Items         []events.Item `gorm:"serializer:json;type:jsonb"`
	TotalPrice    float64       `gorm:"type:numeric"`
	FirstName     string
	LastName      string
	Email         string
	Address       string
	CardInfo      string
	PaymentMethod string
	Extra         events.Extra `gorm:"serializer:json;type:jsonb"`
	CreatedAt     time.Time
}

func (OrderRecord) TableName() string { return "orders" }

func toRecord(o *models.Order) *OrderRecord {
	rec := &OrderRecord{
		UserName:      o.UserName,
		OrderDate:     o.OrderDate,
		Items:         o.Items,
		TotalPrice:    o.TotalPrice,
		FirstName:     o.FirstName,
		LastName:      o.LastName,
		Email:         o.Email,
		Address:       o.Address,
		CardInfo:      o.CardInfo,
		PaymentMethod: o.PaymentMethod,
		Extra:         o.Extra,
	}
	if o.CheckoutID != "" {
		id := o.CheckoutID
		rec.CheckoutID = &id
	}
	return rec
}

func (r OrderRecord) toModel() models.Order {
	o := models.Order{
		UserName:      r.UserName,
		OrderDate:     r.OrderDate,
		Items:         r.Items,
		TotalPrice:    r.TotalPrice,
		FirstName:     r.FirstName,
		LastName:      r.LastName,
		Email:         r.Email,
		Address:       r.Address,
		CardInfo:      r.CardInfo,
		PaymentMethod: r.PaymentMethod,
		Extra:         r.Extra,
	}
	if r.CheckoutID != nil {
		o.CheckoutID = *r.CheckoutID
	}
	if o.Items == nil {
		o.Items = []events.Item{}
	}
	return o
}

// GormOrderRepository implements OrderRepository using GORM
type GormOrderRepository struct {
	db *gorm.DB
}

func NewGormOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

func (r *GormOrderRepository) Create(ctx context.Context, order *models.Order) error {
	err := r.db.WithContext(ctx).Create(toRecord(order)).Error
	if isUniqueViolation(err) {
		return fmt.Errorf("%w: %s", ErrDuplicateCheckout, order.CheckoutID)
	}
	if err != nil {
		return fmt.Errorf("insert order %s/%s: %w", order.UserName, order.OrderDate, err)
	}
	return nil
}

func (r *GormOrderRepository) Query(ctx context.Context, userName, orderDate string) ([]models.Order, error) {
	q := r.db.WithContext(ctx).Where("user_name = ?", userName)
	if orderDate != "" {
		q = q.Where("order_date = ?", orderDate)
	}
	var recs []OrderRecord
	if err := q.Order("order_date").Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("query orders for %s: %w", userName, err)
	}
	return toModels(recs), nil
}

func (r *GormOrderRepository) Scan(ctx context.Context) ([]models.Order, error) {
	var recs []OrderRecord
	if err := r.db.WithContext(ctx).Order("user_name, order_date").Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return toModels(recs), nil
}

func toModels(recs []OrderRecord) []models.Order {
	out := make([]models.Order, 0, len(recs))
	for _, rec := range recs {
		out = append(out, rec.toModel())
	}
	return out
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
