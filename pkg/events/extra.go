package events

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// Extra holds the fields a record carries beyond the ones its type names. Named fields
// win when a key appears in both.
type Extra map[string]any

var fieldNames sync.Map // "tag|type" -> map[string]bool

// namedFields lists the keys the struct behind v encodes under the given tag.
func namedFields(v any, tag string) map[string]bool {
	t := reflect.TypeOf(v)
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	key := tag + "|" + t.PkgPath() + "." + t.Name()
	if names, ok := fieldNames.Load(key); ok {
		return names.(map[string]bool)
	}

	names := map[string]bool{}
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		name, _, _ := strings.Cut(f.Tag.Get(tag), ",")
		if name == "-" {
			continue
		}
		if name == "" {
			name = f.Name
		}
		names[name] = true
	}
	fieldNames.Store(key, names)
	return names
}

// MarshalJSONWithExtra encodes v and adds every extra key v does not name. v must be a
// struct type without its own MarshalJSON.
func MarshalJSONWithExtra(v any, extra Extra) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil || len(extra) == 0 {
		return data, err
	}
	var m map[string]json.RawMessage
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	names := namedFields(v, "json")
	for k, val := range extra {
		if names[k] {
			continue
		}
		raw, err := json.Marshal(val)
		if err != nil {
			return nil, fmt.Errorf("extra field %q: %w", k, err)
		}
		m[k] = raw
	}
	return json.Marshal(m)
}

// UnmarshalJSONWithExtra decodes data into v and returns the keys v does not name.
func UnmarshalJSONWithExtra(data []byte, v any) (Extra, error) {
	if err := json.Unmarshal(data, v); err != nil {
		return nil, err
	}
	var m map[string]json.RawMessage
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	names := namedFields(v, "json")
	var extra Extra
	for k, raw := range m {
		if names[k] {
			continue
		}
		var val any
		if err := json.Unmarshal(raw, &val); err != nil {
			return nil, fmt.Errorf("extra field %q: %w", k, err)
		}
		if extra == nil {
			extra = Extra{}
		}
		extra[k] = val
	}
	return extra, nil
}

// MarshalDynamoWithExtra is MarshalJSONWithExtra for DynamoDB attribute maps.
func MarshalDynamoWithExtra(v any, extra Extra) (types.AttributeValue, error) {
	av, err := attributevalue.Marshal(v)
	if err != nil || len(extra) == 0 {
		return av, err
	}
	m, ok := av.(*types.AttributeValueMemberM)
	if !ok {
		return nil, fmt.Errorf("expected map attribute, got %T", av)
	}
	names := namedFields(v, "dynamodbav")
	for k, val := range extra {
		if names[k] {
			continue
		}
		item, err := attributevalue.Marshal(val)
		if err != nil {
			return nil, fmt.Errorf("extra field %q: %w", k, err)
		}
		m.Value[k] = item
	}
	return m, nil
}

// UnmarshalDynamoWithExtra is UnmarshalJSONWithExtra for DynamoDB attribute maps.
func UnmarshalDynamoWithExtra(av types.AttributeValue, v any) (Extra, error) {
	if err := attributevalue.Unmarshal(av, v); err != nil {
		return nil, err
	}
	m, ok := av.(*types.AttributeValueMemberM)
	if !ok {
		return nil, nil
	}
	names := namedFields(v, "dynamodbav")
	var extra Extra
	for k, item := range m.Value {
		if names[k] {
			continue
		}
		var val any
		if err := attributevalue.Unmarshal(item, &val); err != nil {
			return nil, fmt.Errorf("extra field %q: %w", k, err)
		}
		if extra == nil {
			extra = Extra{}
		}
		extra[k] = val
	}
	return extra, nil
}
