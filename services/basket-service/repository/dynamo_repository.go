package repository

import (
	"context"
	"fmt"

	sdkaws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	dynamopkg "github.com/hanktran/aws-microservices/pkg/dynamodb"
	"github.com/hanktran/aws-microservices/services/basket-service/models"
)

// DynamoBasketRepository stores one item per basket, partition key userName.
type DynamoBasketRepository struct {
	client    dynamopkg.API
	tableName string
}

func NewDynamoBasketRepository(client dynamopkg.API, tableName string) *DynamoBasketRepository {
	return &DynamoBasketRepository{client: client, tableName: tableName}
}

func (r *DynamoBasketRepository) key(userName string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"userName": &types.AttributeValueMemberS{Value: userName},
	}
}

func (r *DynamoBasketRepository) Get(ctx context.Context, userName string) (*models.Basket, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: sdkaws.String(r.tableName),
		Key:       r.key(userName),
	})
	if err != nil {
		return nil, fmt.Errorf("get basket %q: %w", userName, err)
	}
	if len(out.Item) == 0 {
		return nil, ErrNotFound
	}

	var b models.Basket
	if err := attributevalue.UnmarshalMap(out.Item, &b); err != nil {
		return nil, fmt.Errorf("unmarshal basket %q: %w", userName, err)
	}
	if b.Items == nil {
		b.Items = []models.BasketItem{}
	}
	return &b, nil
}

func (r *DynamoBasketRepository) Scan(ctx context.Context) ([]models.Basket, error) {
	baskets, err := dynamopkg.ScanAll[models.Basket](ctx, r.client, r.tableName)
	if err != nil {
		return nil, fmt.Errorf("scan baskets: %w", err)
	}
	for i := range baskets {
		if baskets[i].Items == nil {
			baskets[i].Items = []models.BasketItem{}
		}
	}
	return baskets, nil
}

func (r *DynamoBasketRepository) Put(ctx context.Context, basket *models.Basket) error {
	item, err := attributevalue.MarshalMap(basket)
	if err != nil {
		return fmt.Errorf("marshal basket: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: sdkaws.String(r.tableName),
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("put basket %q: %w", basket.UserName, err)
	}
	return nil
}

func (r *DynamoBasketRepository) Delete(ctx context.Context, userName string) error {
	_, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: sdkaws.String(r.tableName),
		Key:       r.key(userName),
	})
	if err != nil {
		return fmt.Errorf("delete basket %q: %w", userName, err)
	}
	return nil
}
