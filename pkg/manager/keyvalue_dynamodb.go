package manager

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"

	"github.com/redbco/redb-connect/pkg/adapter"
)

// dynamoStrategy addresses items by the table's key schema, read once per
// table with DescribeTable.
type dynamoStrategy struct {
	client *dynamodb.Client

	mu   sync.RWMutex
	keys map[string][]string
}

func newDynamoStrategy(client *dynamodb.Client) *dynamoStrategy {
	return &dynamoStrategy{client: client, keys: make(map[string][]string)}
}

// keySchema returns the partition key name followed by the sort key, if any.
func (s *dynamoStrategy) keySchema(ctx context.Context, table string) ([]string, error) {
	s.mu.RLock()
	cached, ok := s.keys[table]
	s.mu.RUnlock()
	if ok {
		return cached, nil
	}

	out, err := s.client.DescribeTable(ctx, &dynamodb.DescribeTableInput{TableName: aws.String(table)})
	if err != nil {
		return nil, err
	}
	keys := make([]string, 0, 2)
	for _, k := range out.Table.KeySchema {
		if k.KeyType == types.KeyTypeHash {
			keys = append([]string{aws.ToString(k.AttributeName)}, keys...)
		} else {
			keys = append(keys, aws.ToString(k.AttributeName))
		}
	}

	s.mu.Lock()
	s.keys[table] = keys
	s.mu.Unlock()
	return keys, nil
}

func (s *dynamoStrategy) insertOne(ctx context.Context, table string, rec Record) (InsertResult, error) {
	keys, err := s.keySchema(ctx, table)
	if err != nil {
		return InsertResult{}, err
	}

	item := cloneRecord(rec)
	if len(keys) > 0 {
		if v, ok := item[keys[0]]; !ok || v == nil {
			item[keys[0]] = uuid.NewString()
		}
	}

	av, err := attributevalue.MarshalMap(item)
	if err != nil {
		return InsertResult{}, fmt.Errorf("error marshaling item: %w", err)
	}
	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(table),
		Item:      av,
	})
	if err != nil {
		return InsertResult{}, err
	}
	return InsertResult{ID: itemID(item, keys), Acknowledged: true}, nil
}

// itemID is the partition key value, or a map when the table has a sort key.
func itemID(item Record, keys []string) interface{} {
	switch len(keys) {
	case 0:
		return nil
	case 1:
		return item[keys[0]]
	default:
		id := make(map[string]interface{}, len(keys))
		for _, k := range keys {
			id[k] = item[k]
		}
		return id
	}
}

func (s *dynamoStrategy) insertMany(ctx context.Context, table string, recs []Record) (InsertManyResult, error) {
	return insertEach(ctx, table, recs, s.insertOne)
}

func (s *dynamoStrategy) findOne(ctx context.Context, table string, filter Filter) (Record, error) {
	items, err := s.findAll(ctx, table, filter, 1)
	if err != nil {
		return nil, err
	}
	return firstOf(items), nil
}

func (s *dynamoStrategy) findAll(ctx context.Context, table string, filter Filter, limit int) ([]Record, error) {
	keys, err := s.keySchema(ctx, table)
	if err != nil {
		return nil, err
	}

	if key, ok := fullKey(filter, keys); ok {
		item, err := s.getItem(ctx, table, key)
		if err != nil || item == nil || !matches(item, filter) {
			return nil, err
		}
		return []Record{item}, nil
	}
	return s.scan(ctx, table, filter, limit)
}

// fullKey returns the key attributes when filter names every key field.
func fullKey(filter Filter, keys []string) (Record, bool) {
	if len(keys) == 0 {
		return nil, false
	}
	key := make(Record, len(keys))
	for _, k := range keys {
		v, ok := filter[k]
		if !ok || v == nil {
			return nil, false
		}
		key[k] = v
	}
	return key, true
}

func (s *dynamoStrategy) getItem(ctx context.Context, table string, key Record) (Record, error) {
	av, err := attributevalue.MarshalMap(key)
	if err != nil {
		return nil, fmt.Errorf("error marshaling key: %w", err)
	}
	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(table),
		Key:       av,
	})
	if err != nil {
		return nil, err
	}
	if len(out.Item) == 0 {
		return nil, nil
	}
	var item Record
	if err := attributevalue.UnmarshalMap(out.Item, &item); err != nil {
		return nil, fmt.Errorf("error unmarshaling item: %w", err)
	}
	return item, nil
}

func (s *dynamoStrategy) scan(ctx context.Context, table string, filter Filter, limit int) ([]Record, error) {
	input := &dynamodb.ScanInput{TableName: aws.String(table)}
	if len(filter) > 0 {
		expr, names, values, err := dynamoFilter(filter)
		if err != nil {
			return nil, err
		}
		input.FilterExpression = aws.String(expr)
		input.ExpressionAttributeNames = names
		if len(values) > 0 {
			input.ExpressionAttributeValues = values
		}
	}

	var out []Record
	paginator := dynamodb.NewScanPaginator(s.client, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		for _, raw := range page.Items {
			var item Record
			if err := attributevalue.UnmarshalMap(raw, &item); err != nil {
				return nil, fmt.Errorf("error unmarshaling item: %w", err)
			}
			out = append(out, item)
			if limit > 0 && len(out) >= limit {
				return out, nil
			}
		}
	}
	return out, nil
}

// dynamoFilter renders #n0 = :v0 AND ... for a scan.
func dynamoFilter(filter Filter) (string, map[string]string, map[string]types.AttributeValue, error) {
	names := make(map[string]string, len(filter))
	values := make(map[string]types.AttributeValue, len(filter))
	parts := make([]string, 0, len(filter))

	for i, field := range sortedKeys(filter) {
		name := fmt.Sprintf("#n%d", i)
		names[name] = field
		if filter[field] == nil {
			values[":nulltype"] = &types.AttributeValueMemberS{Value: "NULL"}
			parts = append(parts, fmt.Sprintf("(attribute_not_exists(%s) OR attribute_type(%s, :nulltype))", name, name))
			continue
		}
		av, err := attributevalue.Marshal(filter[field])
		if err != nil {
			return "", nil, nil, fmt.Errorf("error marshaling value for %s: %w", field, err)
		}
		value := fmt.Sprintf(":v%d", i)
		values[value] = av
		parts = append(parts, fmt.Sprintf("%s = %s", name, value))
	}
	return strings.Join(parts, " AND "), names, values, nil
}

func (s *dynamoStrategy) updateOne(ctx context.Context, table string, filter Filter, changes Record) (int64, error) {
	keys, err := s.keySchema(ctx, table)
	if err != nil {
		return 0, err
	}
	for _, k := range keys {
		if _, ok := changes[k]; ok {
			return 0, adapter.NewValidationError(opUpdateOne, k, "key attributes cannot be changed")
		}
	}

	item, err := s.findOne(ctx, table, filter)
	if err != nil || item == nil {
		return 0, err
	}
	key, err := attributevalue.MarshalMap(keyOf(item, keys))
	if err != nil {
		return 0, fmt.Errorf("error marshaling key: %w", err)
	}

	names := make(map[string]string, len(changes))
	values := make(map[string]types.AttributeValue, len(changes))
	parts := make([]string, 0, len(changes))
	for i, field := range sortedKeys(changes) {
		name := fmt.Sprintf("#attr%d", i)
		value := fmt.Sprintf(":val%d", i)
		av, err := attributevalue.Marshal(changes[field])
		if err != nil {
			return 0, fmt.Errorf("error marshaling value for column %s: %w", field, err)
		}
		names[name] = field
		values[value] = av
		parts = append(parts, fmt.Sprintf("%s = %s", name, value))
	}

	_, err = s.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(table),
		Key:                       key,
		UpdateExpression:          aws.String("SET " + strings.Join(parts, ", ")),
		ExpressionAttributeNames:  names,
		ExpressionAttributeValues: values,
	})
	if err != nil {
		return 0, err
	}
	return 1, nil
}

func (s *dynamoStrategy) deleteOne(ctx context.Context, table string, filter Filter) (int64, error) {
	keys, err := s.keySchema(ctx, table)
	if err != nil {
		return 0, err
	}
	item, err := s.findOne(ctx, table, filter)
	if err != nil || item == nil {
		return 0, err
	}
	key, err := attributevalue.MarshalMap(keyOf(item, keys))
	if err != nil {
		return 0, fmt.Errorf("error marshaling key: %w", err)
	}
	_, err = s.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(table),
		Key:       key,
	})
	if err != nil {
		return 0, err
	}
	return 1, nil
}

func keyOf(item Record, keys []string) Record {
	key := make(Record, len(keys))
	for _, k := range keys {
		key[k] = item[k]
	}
	return key
}
