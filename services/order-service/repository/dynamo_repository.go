package repository

import (
	"context"
	"fmt"
	"time"

	sdkaws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	dynamopkg "github.com/hanktran/aws-microservices/pkg/dynamodb"
	"github.com/hanktran/aws-microservices/pkg/events"
	"github.com/hanktran/aws-microservices/services/order-service/models"
)

// idempotencyRecord marks a checkout as materialized.
type idempotencyRecord struct {
	CheckoutID string `dynamodbav:"checkoutId"`
	UserName   string `dynamodbav:"userName"`
	OrderDate  string `dynamodbav:"orderDate"`
	CreatedAt  string `dynamodbav:"createdAt"`
}

// DynamoOrderRepository stores orders under userName/orderDate. Orders with a checkoutId
// are written together with a marker in the idempotency table (partition key checkoutId)
// in one transaction.
type DynamoOrderRepository struct {
	client           dynamopkg.API
	tableName        string
	idempotencyTable string
}

func NewDynamoOrderRepository(client dynamopkg.API, tableName, idempotencyTable string) *DynamoOrderRepository {
	return &DynamoOrderRepository{client: client, tableName: tableName, idempotencyTable: idempotencyTable}
}

func (r *DynamoOrderRepository) Create(ctx context.Context, order *models.Order) error {
	item, err := attributevalue.MarshalMap(order)
	if err != nil {
		return fmt.Errorf("marshal order: %w", err)
	}

	if order.CheckoutID == "" || r.idempotencyTable == "" {
		if _, err := r.client.PutItem(ctx, &dynamodb.PutItemInput{
			TableName: sdkaws.String(r.tableName),
			Item:      item,
		}); err != nil {
			return fmt.Errorf("put order %s/%s: %w", order.UserName, order.OrderDate, err)
		}
		return nil
	}

	marker, err := attributevalue.MarshalMap(idempotencyRecord{
		CheckoutID: order.CheckoutID,
		UserName:   order.UserName,
		OrderDate:  order.OrderDate,
		CreatedAt:  time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return fmt.Errorf("marshal idempotency marker: %w", err)
	}

	_, err = r.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: []types.TransactWriteItem{
			{Put: &types.Put{
				TableName:                sdkaws.String(r.idempotencyTable),
				Item:                     marker,
				ConditionExpression:      sdkaws.String("attribute_not_exists(#id)"),
				ExpressionAttributeNames: map[string]string{"#id": "checkoutId"},
			}},
			{Put: &types.Put{
				TableName: sdkaws.String(r.tableName),
				Item:      item,
			}},
		},
	})
	if dynamopkg.IsConditionalCheckFailed(err) {
		return fmt.Errorf("%w: %s", ErrDuplicateCheckout, order.CheckoutID)
	}
	if err != nil {
		return fmt.Errorf("put order %s/%s: %w", order.UserName, order.OrderDate, err)
	}
	return nil
}

func (r *DynamoOrderRepository) Query(ctx context.Context, userName, orderDate string) ([]models.Order, error) {
	input := &dynamodb.QueryInput{
		TableName:                sdkaws.String(r.tableName),
		KeyConditionExpression:   sdkaws.String("#u = :u"),
		ExpressionAttributeNames: map[string]string{"#u": "userName"},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":u": &types.AttributeValueMemberS{Value: userName},
		},
	}
	if orderDate != "" {
		input.KeyConditionExpression = sdkaws.String("#u = :u AND #d = :d")
		input.ExpressionAttributeNames["#d"] = "orderDate"
		input.ExpressionAttributeValues[":d"] = &types.AttributeValueMemberS{Value: orderDate}
	}

	orders, err := dynamopkg.QueryAll[models.Order](ctx, r.client, input)
	if err != nil {
		return nil, err
	}
	return normalize(orders), nil
}

func (r *DynamoOrderRepository) Scan(ctx context.Context) ([]models.Order, error) {
	orders, err := dynamopkg.ScanAll[models.Order](ctx, r.client, r.tableName)
	if err != nil {
		return nil, err
	}
	return normalize(orders), nil
}

func normalize(orders []models.Order) []models.Order {
	for i := range orders {
		if orders[i].Items == nil {
			orders[i].Items = []events.Item{}
		}
	}
	return orders
}
