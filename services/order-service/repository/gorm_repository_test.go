package repository_test

import (
	"context"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/schema"

	"github.com/hanktran/aws-microservices/services/order-service/repository"
)

func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	gormDB, err := gorm.Open(postgres.New(postgres.Config{Conn: db}), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	return gormDB, mock
}

func TestGormCreate_Success(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	repo := repository.NewGormOrderRepository(gormDB)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "orders"`)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
	mock.ExpectCommit()

	err := repo.Create(context.Background(), order("swn", "2026-10-19T10:00:00.000Z", "chk-1"))
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormCreate_DuplicateCheckout(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	repo := repository.NewGormOrderRepository(gormDB)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "orders"`)).
		WillReturnError(&pgconn.PgError{Code: "23505", Message: "duplicate key value violates unique constraint"})
	mock.ExpectRollback()

	err := repo.Create(context.Background(), order("swn", "2026-10-19T10:00:00.000Z", "chk-1"))
	assert.ErrorIs(t, err, repository.ErrDuplicateCheckout)
}

func TestGormQuery_ByUserAndDate(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	repo := repository.NewGormOrderRepository(gormDB)

	rows := sqlmock.NewRows([]string{"id", "user_name", "order_date", "checkout_id", "items", "total_price", "email", "created_at"}).
		AddRow(1, "swn", "2026-10-19T10:00:00.000Z", "chk-1", []byte(`[{"productId":"p1","price":10},{"productId":"p2","price":5.5}]`), 15.5, "swn@example.com", time.Now())

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "orders" WHERE user_name = $1 AND order_date = $2`)).
		WithArgs("swn", "2026-10-19T10:00:00.000Z").
		WillReturnRows(rows)

	got, err := repo.Query(context.Background(), "swn", "2026-10-19T10:00:00.000Z")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "chk-1", got[0].CheckoutID)
	assert.Len(t, got[0].Items, 2)
	assert.Equal(t, 15.5, got[0].TotalPrice)
}

func TestGormScan_Empty(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	repo := repository.NewGormOrderRepository(gormDB)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "orders"`)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	got, err := repo.Scan(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestOrderRecord_TotalPriceKeepsFullPrecision(t *testing.T) {
	s, err := schema.Parse(&repository.OrderRecord{}, &sync.Map{}, schema.NamingStrategy{})
	require.NoError(t, err)

	f := s.LookUpField("TotalPrice")
	require.NotNil(t, f)
	assert.Equal(t, "numeric", f.TagSettings["TYPE"])
}

func TestGormQuery_ReadsExtraFields(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	repo := repository.NewGormOrderRepository(gormDB)

	rows := sqlmock.NewRows([]string{"id", "user_name", "order_date", "items", "total_price", "extra"}).
		AddRow(1, "swn", "2026-10-19T10:00:00.000Z", []byte(`[]`), 1234567.891, []byte(`{"shippingMethod":"express"}`))

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "orders" WHERE user_name = $1`)).
		WithArgs("swn").
		WillReturnRows(rows)

	got, err := repo.Query(context.Background(), "swn", "")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 1234567.891, got[0].TotalPrice)
	assert.Equal(t, "express", got[0].Extra["shippingMethod"])
}
