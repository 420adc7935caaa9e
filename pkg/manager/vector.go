package manager

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Milvus RESTful API v2 entity endpoints.
const (
	milvusInsertPath = "/v2/vectordb/entities/insert"
	milvusQueryPath  = "/v2/vectordb/entities/query"
	milvusUpsertPath = "/v2/vectordb/entities/upsert"
	milvusDeletePath = "/v2/vectordb/entities/delete"
)

// vectorStrategy maps tables to Milvus collections. Records carry their
// vector fields like any other field.
type vectorStrategy struct {
	client   RESTPoster
	database string
	keyField string
}

type milvusRequest struct {
	DBName         string   `json:"dbName,omitempty"`
	CollectionName string   `json:"collectionName"`
	Data           []Record `json:"data,omitempty"`
	Filter         string   `json:"filter,omitempty"`
	Limit          int      `json:"limit,omitempty"`
	OutputFields   []string `json:"outputFields,omitempty"`
}

type milvusResponse struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func (s *vectorStrategy) call(ctx context.Context, path string, req milvusRequest, out interface{}) error {
	req.DBName = s.database
	var resp milvusResponse
	if err := s.client.Post(ctx, path, req, &resp); err != nil {
		return err
	}
	if resp.Code != 0 {
		return fmt.Errorf("milvus error %d: %s", resp.Code, resp.Message)
	}
	if out == nil || len(resp.Data) == 0 {
		return nil
	}
	if err := decodeJSON(resp.Data, out); err != nil {
		return fmt.Errorf("error decoding response: %w", err)
	}
	return nil
}

func (s *vectorStrategy) insertOne(ctx context.Context, table string, rec Record) (InsertResult, error) {
	var out struct {
		InsertCount int           `json:"insertCount"`
		InsertIDs   []interface{} `json:"insertIds"`
	}
	if err := s.call(ctx, milvusInsertPath, milvusRequest{CollectionName: table, Data: []Record{rec}}, &out); err != nil {
		return InsertResult{}, err
	}
	id := rec[s.keyField]
	if len(out.InsertIDs) > 0 {
		id = normalizeValue(out.InsertIDs[0])
	}
	return InsertResult{ID: id, Acknowledged: true}, nil
}

func (s *vectorStrategy) insertMany(ctx context.Context, table string, recs []Record) (InsertManyResult, error) {
	return insertEach(ctx, table, recs, s.insertOne)
}

func (s *vectorStrategy) findOne(ctx context.Context, table string, filter Filter) (Record, error) {
	recs, err := s.findAll(ctx, table, filter, 1)
	if err != nil {
		return nil, err
	}
	return firstOf(recs), nil
}

func (s *vectorStrategy) findAll(ctx context.Context, table string, filter Filter, limit int) ([]Record, error) {
	req := milvusRequest{
		CollectionName: table,
		Filter:         milvusFilter(filter),
		Limit:          limit,
		OutputFields:   []string{"*"},
	}
	var out []Record
	if err := s.call(ctx, milvusQueryPath, req, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *vectorStrategy) updateOne(ctx context.Context, table string, filter Filter, changes Record) (int64, error) {
	rec, err := s.findOne(ctx, table, filter)
	if err != nil || rec == nil {
		return 0, err
	}
	key := rec[s.keyField]
	for k, v := range changes {
		rec[k] = v
	}
	rec[s.keyField] = key

	if err := s.call(ctx, milvusUpsertPath, milvusRequest{CollectionName: table, Data: []Record{rec}}, nil); err != nil {
		return 0, err
	}
	return 1, nil
}

func (s *vectorStrategy) deleteOne(ctx context.Context, table string, filter Filter) (int64, error) {
	rec, err := s.findOne(ctx, table, filter)
	if err != nil || rec == nil {
		return 0, err
	}
	req := milvusRequest{
		CollectionName: table,
		Filter:         milvusFilter(Filter{s.keyField: rec[s.keyField]}),
	}
	if err := s.call(ctx, milvusDeletePath, req, nil); err != nil {
		return 0, err
	}
	return 1, nil
}

// milvusFilter renders a boolean expression such as name == "x" and age == 3.
func milvusFilter(filter Filter) string {
	parts := make([]string, 0, len(filter))
	for _, field := range sortedKeys(filter) {
		v := filter[field]
		switch val := v.(type) {
		case nil:
			parts = append(parts, field+" is null")
		case string:
			parts = append(parts, field+" == "+strconv.Quote(val))
		case bool:
			parts = append(parts, field+" == "+strconv.FormatBool(val))
		default:
			if lit, ok := formatNumber(val); ok {
				parts = append(parts, field+" == "+lit)
			} else {
				parts = append(parts, field+" == "+strconv.Quote(fmt.Sprint(val)))
			}
		}
	}
	return strings.Join(parts, " and ")
}
