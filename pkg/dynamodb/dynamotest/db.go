// Package dynamotest is an in-memory stand-in for the DynamoDB operations used by the
// record stores. It understands key schemas, equality key conditions and the
// attribute_not_exists condition, which is all the services rely on.
package dynamotest

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	sdkaws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

type table struct {
	partitionKey string
	sortKey      string
	items        map[string]map[string]types.AttributeValue
}

// DB holds any number of tables and records every call made against it.
type DB struct {
	mu     sync.Mutex
	tables map[string]*table
	fail   map[string]error
	calls  []string
}

func NewDB() *DB {
	return &DB{tables: map[string]*table{}, fail: map[string]error{}}
}

// CreateTable registers a table. sortKey may be empty.
func (db *DB) CreateTable(name, partitionKey, sortKey string) *DB {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.tables[name] = &table{partitionKey: partitionKey, sortKey: sortKey, items: map[string]map[string]types.AttributeValue{}}
	return db
}

// FailOn makes every call of op ("GetItem", "PutItem", ...) return err.
func (db *DB) FailOn(op string, err error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.fail[op] = err
}

// Calls returns the operations performed so far as "Op:Table".
func (db *DB) Calls() []string {
	db.mu.Lock()
	defer db.mu.Unlock()
	return append([]string(nil), db.calls...)
}

// Items returns a snapshot of a table's items ordered by key.
func (db *DB) Items(name string) []map[string]types.AttributeValue {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.tables[name].sorted()
}

// Seed writes an item directly, bypassing call recording and failure injection.
func (db *DB) Seed(name string, item map[string]types.AttributeValue) {
	db.mu.Lock()
	defer db.mu.Unlock()
	t := db.tables[name]
	t.items[t.key(item)] = clone(item)
}

func (db *DB) begin(op, tableName string) (*table, error) {
	db.calls = append(db.calls, op+":"+tableName)
	if err := db.fail[op]; err != nil {
		return nil, err
	}
	t, ok := db.tables[tableName]
	if !ok {
		return nil, &types.ResourceNotFoundException{Message: sdkaws.String("table not found: " + tableName)}
	}
	return t, nil
}

func (db *DB) GetItem(_ context.Context, in *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	t, err := db.begin("GetItem", sdkaws.ToString(in.TableName))
	if err != nil {
		return nil, err
	}
	return &dynamodb.GetItemOutput{Item: clone(t.items[t.key(in.Key)])}, nil
}

func (db *DB) PutItem(_ context.Context, in *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	t, err := db.begin("PutItem", sdkaws.ToString(in.TableName))
	if err != nil {
		return nil, err
	}
	if !t.conditionHolds(in.Item, sdkaws.ToString(in.ConditionExpression), in.ExpressionAttributeNames) {
		return nil, &types.ConditionalCheckFailedException{Message: sdkaws.String("The conditional request failed")}
	}
	t.items[t.key(in.Item)] = clone(in.Item)
	return &dynamodb.PutItemOutput{}, nil
}

func (db *DB) DeleteItem(_ context.Context, in *dynamodb.DeleteItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	t, err := db.begin("DeleteItem", sdkaws.ToString(in.TableName))
	if err != nil {
		return nil, err
	}
	delete(t.items, t.key(in.Key))
	return &dynamodb.DeleteItemOutput{}, nil
}

func (db *DB) Scan(_ context.Context, in *dynamodb.ScanInput, _ ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	t, err := db.begin("Scan", sdkaws.ToString(in.TableName))
	if err != nil {
		return nil, err
	}
	items := t.sorted()
	return &dynamodb.ScanOutput{Items: items, Count: int32(len(items))}, nil
}

func (db *DB) Query(_ context.Context, in *dynamodb.QueryInput, _ ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	t, err := db.begin("Query", sdkaws.ToString(in.TableName))
	if err != nil {
		return nil, err
	}

	want := map[string]string{}
	for _, clause := range strings.Split(sdkaws.ToString(in.KeyConditionExpression), " AND ") {
		parts := strings.SplitN(clause, "=", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("dynamotest: unsupported key condition %q", clause)
		}
		name := strings.TrimSpace(parts[0])
		if alias, ok := in.ExpressionAttributeNames[name]; ok {
			name = alias
		}
		want[name] = scalar(in.ExpressionAttributeValues[strings.TrimSpace(parts[1])])
	}

	matched := make([]map[string]types.AttributeValue, 0)
	for _, item := range t.sorted() {
		ok := true
		for name, v := range want {
			if scalar(item[name]) != v {
				ok = false
				break
			}
		}
		if ok {
			matched = append(matched, item)
		}
	}
	return &dynamodb.QueryOutput{Items: matched, Count: int32(len(matched))}, nil
}

func (db *DB) TransactWriteItems(_ context.Context, in *dynamodb.TransactWriteItemsInput, _ ...func(*dynamodb.Options)) (*dynamodb.TransactWriteItemsOutput, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.calls = append(db.calls, "TransactWriteItems")
	if err := db.fail["TransactWriteItems"]; err != nil {
		return nil, err
	}

	reasons := make([]types.CancellationReason, len(in.TransactItems))
	cancelled := false
	for i, ti := range in.TransactItems {
		reasons[i] = types.CancellationReason{Code: sdkaws.String("None")}
		if ti.Put == nil {
			continue
		}
		t, ok := db.tables[sdkaws.ToString(ti.Put.TableName)]
		if !ok {
			return nil, &types.ResourceNotFoundException{Message: sdkaws.String("table not found: " + sdkaws.ToString(ti.Put.TableName))}
		}
		if !t.conditionHolds(ti.Put.Item, sdkaws.ToString(ti.Put.ConditionExpression), ti.Put.ExpressionAttributeNames) {
			reasons[i].Code = sdkaws.String("ConditionalCheckFailed")
			cancelled = true
		}
	}
	if cancelled {
		return nil, &types.TransactionCanceledException{
			Message:             sdkaws.String("Transaction cancelled"),
			CancellationReasons: reasons,
		}
	}

	for _, ti := range in.TransactItems {
		switch {
		case ti.Put != nil:
			t := db.tables[sdkaws.ToString(ti.Put.TableName)]
			t.items[t.key(ti.Put.Item)] = clone(ti.Put.Item)
		case ti.Delete != nil:
			t := db.tables[sdkaws.ToString(ti.Delete.TableName)]
			delete(t.items, t.key(ti.Delete.Key))
		}
	}
	return &dynamodb.TransactWriteItemsOutput{}, nil
}

// conditionHolds supports an empty condition and attribute_not_exists(<attr>).
func (t *table) conditionHolds(item map[string]types.AttributeValue, cond string, names map[string]string) bool {
	cond = strings.TrimSpace(cond)
	if cond == "" {
		return true
	}
	if strings.HasPrefix(cond, "attribute_not_exists(") {
		_, exists := t.items[t.key(item)]
		return !exists
	}
	return false
}

func (t *table) key(item map[string]types.AttributeValue) string {
	k := scalar(item[t.partitionKey])
	if t.sortKey != "" {
		k += "\x00" + scalar(item[t.sortKey])
	}
	return k
}

func (t *table) sorted() []map[string]types.AttributeValue {
	keys := make([]string, 0, len(t.items))
	for k := range t.items {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]map[string]types.AttributeValue, 0, len(keys))
	for _, k := range keys {
		out = append(out, clone(t.items[k]))
	}
	return out
}

func scalar(av types.AttributeValue) string {
	switch v := av.(type) {
	case *types.AttributeValueMemberS:
		return v.Value
	case *types.AttributeValueMemberN:
		return v.Value
	default:
		return ""
	}
}

func clone(item map[string]types.AttributeValue) map[string]types.AttributeValue {
	if item == nil {
		return nil
	}
	out := make(map[string]types.AttributeValue, len(item))
	for k, v := range item {
		out[k] = v
	}
	return out
}
