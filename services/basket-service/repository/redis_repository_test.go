package repository_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hanktran/aws-microservices/services/basket-service/models"
	"github.com/hanktran/aws-microservices/services/basket-service/repository"
)

func TestRedisBasketRepository_Get(t *testing.T) {
	db, mock := redismock.NewClientMock()
	repo := repository.NewRedisBasketRepository(db, time.Hour)

	mock.ExpectGet("basket:user:swn").SetVal(`{"userName":"swn","items":[{"productId":"p1","price":10,"sku":"A-1"}]}`)

	b, err := repo.Get(context.Background(), "swn")
	require.NoError(t, err)
	assert.Equal(t, "swn", b.UserName)
	require.Len(t, b.Items, 1)
	assert.Equal(t, 10.0, *b.Items[0].Price)
	assert.Equal(t, "A-1", b.Items[0].Extra["sku"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisBasketRepository_GetMissing(t *testing.T) {
	db, mock := redismock.NewClientMock()
	repo := repository.NewRedisBasketRepository(db, time.Hour)

	mock.ExpectGet("basket:user:ghost").RedisNil()

	_, err := repo.Get(context.Background(), "ghost")
	assert.ErrorIs(t, err, repository.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisBasketRepository_PutUsesTTL(t *testing.T) {
	db, mock := redismock.NewClientMock()
	repo := repository.NewRedisBasketRepository(db, 24*time.Hour)

	b := &models.Basket{UserName: "swn", Items: []models.BasketItem{}}
	data, _ := json.Marshal(b)
	mock.ExpectSet("basket:user:swn", data, 24*time.Hour).SetVal("OK")

	require.NoError(t, repo.Put(context.Background(), b))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisBasketRepository_Delete(t *testing.T) {
	db, mock := redismock.NewClientMock()
	repo := repository.NewRedisBasketRepository(db, 0)

	mock.ExpectDel("basket:user:swn").SetVal(0)

	require.NoError(t, repo.Delete(context.Background(), "swn"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisBasketRepository_Scan(t *testing.T) {
	db, mock := redismock.NewClientMock()
	repo := repository.NewRedisBasketRepository(db, 0)

	mock.ExpectScan(0, "basket:user:*", 100).SetVal([]string{"basket:user:a", "basket:user:b"}, 0)
	mock.ExpectGet("basket:user:a").SetVal(`{"userName":"a","items":[]}`)
	mock.ExpectGet("basket:user:b").RedisNil()

	all, err := repo.Scan(context.Background())
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "a", all[0].UserName)
	assert.NoError(t, mock.ExpectationsWereMet())
}

var _ redis.UniversalClient = (*redis.Client)(nil)
