package manager

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/data/azcosmos"
	"github.com/google/uuid"
)

// cosmosStrategy maps tables to containers of one Cosmos DB database.
// Items without an id get a generated UUID.
type cosmosStrategy struct {
	db           *azcosmos.DatabaseClient
	partitionKey string
}

func (s *cosmosStrategy) container(table string) (*azcosmos.ContainerClient, error) {
	return s.db.NewContainer(table)
}

func (s *cosmosStrategy) insertOne(ctx context.Context, table string, rec Record) (InsertResult, error) {
	container, err := s.container(table)
	if err != nil {
		return InsertResult{}, err
	}

	item := cloneRecord(rec)
	if _, ok := item["id"]; !ok {
		item["id"] = uuid.NewString()
	}
	item["id"] = fmt.Sprint(item["id"])

	data, err := json.Marshal(item)
	if err != nil {
		return InsertResult{}, fmt.Errorf("encode item: %w", err)
	}
	if _, err := container.CreateItem(ctx, s.itemPartitionKey(item), data, nil); err != nil {
		return InsertResult{}, err
	}
	return InsertResult{ID: item["id"], Acknowledged: true}, nil
}

func (s *cosmosStrategy) insertMany(ctx context.Context, table string, recs []Record) (InsertManyResult, error) {
	return insertEach(ctx, table, recs, s.insertOne)
}

func (s *cosmosStrategy) findOne(ctx context.Context, table string, filter Filter) (Record, error) {
	items, err := s.findAll(ctx, table, filter, 1)
	if err != nil {
		return nil, err
	}
	return firstOf(items), nil
}

func (s *cosmosStrategy) findAll(ctx context.Context, table string, filter Filter, limit int) ([]Record, error) {
	container, err := s.container(table)
	if err != nil {
		return nil, err
	}

	query, params := cosmosQuery(filter, limit)
	pager := container.NewQueryItemsPager(query, azcosmos.PartitionKey{}, &azcosmos.QueryOptions{QueryParameters: params})

	var out []Record
	for pager.More() && (limit <= 0 || len(out) < limit) {
		resp, err := pager.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		for _, raw := range resp.Items {
			var item Record
			if err := json.Unmarshal(raw, &item); err != nil {
				return nil, fmt.Errorf("decode item: %w", err)
			}
			out = append(out, stripCosmosSystem(item))
			if limit > 0 && len(out) >= limit {
				break
			}
		}
	}
	return out, nil
}

func (s *cosmosStrategy) updateOne(ctx context.Context, table string, filter Filter, changes Record) (int64, error) {
	item, err := s.findOne(ctx, table, filter)
	if err != nil || item == nil {
		return 0, err
	}
	container, err := s.container(table)
	if err != nil {
		return 0, err
	}

	// The item is replaced under its current id and partition key.
	id := fmt.Sprint(item["id"])
	pk := s.itemPartitionKey(item)
	for k, v := range changes {
		item[k] = v
	}
	item["id"] = id

	data, err := json.Marshal(item)
	if err != nil {
		return 0, fmt.Errorf("encode item: %w", err)
	}
	if _, err := container.ReplaceItem(ctx, pk, id, data, nil); err != nil {
		return 0, err
	}
	return 1, nil
}

func (s *cosmosStrategy) deleteOne(ctx context.Context, table string, filter Filter) (int64, error) {
	item, err := s.findOne(ctx, table, filter)
	if err != nil || item == nil {
		return 0, err
	}
	container, err := s.container(table)
	if err != nil {
		return 0, err
	}
	if _, err := container.DeleteItem(ctx, s.itemPartitionKey(item), fmt.Sprint(item["id"]), nil); err != nil {
		return 0, err
	}
	return 1, nil
}

func (s *cosmosStrategy) itemPartitionKey(item Record) azcosmos.PartitionKey {
	field := s.partitionKey
	if field == "" {
		field = "id"
	}
	switch v := item[field].(type) {
	case nil:
		return azcosmos.NullPartitionKey
	case bool:
		return azcosmos.NewPartitionKeyBool(v)
	case float64:
		return azcosmos.NewPartitionKeyNumber(v)
	case int:
		return azcosmos.NewPartitionKeyNumber(float64(v))
	case int64:
		return azcosmos.NewPartitionKeyNumber(float64(v))
	case json.Number:
		if f, err := v.Float64(); err == nil {
			return azcosmos.NewPartitionKeyNumber(f)
		}
		return azcosmos.NewPartitionKeyString(v.String())
	default:
		return azcosmos.NewPartitionKeyString(fmt.Sprint(v))
	}
}

// cosmosQuery renders SELECT [TOP n] * FROM c WHERE c["f"] = @p0 AND ...
func cosmosQuery(filter Filter, limit int) (string, []azcosmos.QueryParameter) {
	var sb strings.Builder
	sb.WriteString("SELECT ")
	if limit > 0 {
		sb.WriteString("TOP " + strconv.Itoa(limit) + " ")
	}
	sb.WriteString("* FROM c")

	var params []azcosmos.QueryParameter
	for i, field := range sortedKeys(filter) {
		if i == 0 {
			sb.WriteString(" WHERE ")
		} else {
			sb.WriteString(" AND ")
		}
		ref := "c[" + strconv.Quote(field) + "]"
		if filter[field] == nil {
			sb.WriteString("(NOT IS_DEFINED(" + ref + ") OR IS_NULL(" + ref + "))")
			continue
		}
		name := "@p" + strconv.Itoa(len(params))
		sb.WriteString(ref + " = " + name)
		params = append(params, azcosmos.QueryParameter{Name: name, Value: filter[field]})
	}
	return sb.String(), params
}

// stripCosmosSystem drops the _rid, _self, _etag, _attachments and _ts
// properties the service adds to every item.
func stripCosmosSystem(item Record) Record {
	for _, k := range []string{"_rid", "_self", "_etag", "_attachments", "_ts"} {
		delete(item, k)
	}
	return item
}
