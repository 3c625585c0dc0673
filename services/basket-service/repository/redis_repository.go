package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/hanktran/aws-microservices/services/basket-service/models"
)

const basketKeyPrefix = "basket:user:"

// RedisBasketRepository keeps each basket as a JSON string under basket:user:<userName>.
// A zero ttl stores baskets without expiry.
type RedisBasketRepository struct {
	client redis.UniversalClient
	ttl    time.Duration
}

func NewRedisBasketRepository(client redis.UniversalClient, ttl time.Duration) *RedisBasketRepository {
	return &RedisBasketRepository{client: client, ttl: ttl}
}

func (r *RedisBasketRepository) getKey(userName string) string {
	return basketKeyPrefix + userName
}

func (r *RedisBasketRepository) Get(ctx context.Context, userName string) (*models.Basket, error) {
	data, err := r.client.Get(ctx, r.getKey(userName)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get basket %q: %w", userName, err)
	}
	return decodeBasket(data)
}

func (r *RedisBasketRepository) Scan(ctx context.Context) ([]models.Basket, error) {
	baskets := []models.Basket{}
	var cursor uint64
	for {
		keys, next, err := r.client.Scan(ctx, cursor, basketKeyPrefix+"*", 100).Result()
		if err != nil {
			return nil, fmt.Errorf("scan baskets: %w", err)
		}
		for _, key := range keys {
			data, err := r.client.Get(ctx, key).Bytes()
			if errors.Is(err, redis.Nil) {
				// expired between SCAN and GET
				continue
			}
			if err != nil {
				return nil, fmt.Errorf("get basket %q: %w", strings.TrimPrefix(key, basketKeyPrefix), err)
			}
			b, err := decodeBasket(data)
			if err != nil {
				return nil, err
			}
			baskets = append(baskets, *b)
		}
		if next == 0 {
			return baskets, nil
		}
		cursor = next
	}
}

func (r *RedisBasketRepository) Put(ctx context.Context, basket *models.Basket) error {
	data, err := json.Marshal(basket)
	if err != nil {
		return fmt.Errorf("marshal basket: %w", err)
	}
	if err := r.client.Set(ctx, r.getKey(basket.UserName), data, r.ttl).Err(); err != nil {
		return fmt.Errorf("put basket %q: %w", basket.UserName, err)
	}
	return nil
}

func (r *RedisBasketRepository) Delete(ctx context.Context, userName string) error {
	if err := r.client.Del(ctx, r.getKey(userName)).Err(); err != nil {
		return fmt.Errorf("delete basket %q: %w", userName, err)
	}
	return nil
}

func decodeBasket(data []byte) (*models.Basket, error) {
	var b models.Basket
	if err := json.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("decode basket: %w", err)
	}
	if b.Items == nil {
		b.Items = []models.BasketItem{}
	}
	return &b, nil
}

// NewRedisClient parses redisURL and checks the connection.
func NewRedisClient(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	return client, nil
}
