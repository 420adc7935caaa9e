package manager

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/redbco/redb-connect/pkg/adapter"
)

// objectStrategy stores each record as a JSON object named table/<key>.
// Lookups by key read one object; other filters scan the table prefix.
type objectStrategy struct {
	store    adapter.ObjectStore
	keyField string
}

// objectHit is a matched record and the name of the object holding it.
type objectHit struct {
	name string
	rec  Record
}

func (s *objectStrategy) objectKey(table string, key interface{}) string {
	name, ok := formatNumber(key)
	if !ok {
		name = fmt.Sprint(key)
	}
	return strings.TrimSuffix(table, "/") + "/" + name
}

func (s *objectStrategy) insertOne(ctx context.Context, table string, rec Record) (InsertResult, error) {
	obj := cloneRecord(rec)
	key, ok := obj[s.keyField]
	if !ok || key == nil || fmt.Sprint(key) == "" {
		key = uuid.NewString()
		obj[s.keyField] = key
	}

	data, err := json.Marshal(obj)
	if err != nil {
		return InsertResult{}, fmt.Errorf("encode record: %w", err)
	}
	if err := s.store.PutObject(ctx, s.objectKey(table, key), data); err != nil {
		return InsertResult{}, err
	}
	return InsertResult{ID: key, Acknowledged: true}, nil
}

func (s *objectStrategy) insertMany(ctx context.Context, table string, recs []Record) (InsertManyResult, error) {
	return insertEach(ctx, table, recs, s.insertOne)
}

func (s *objectStrategy) findOne(ctx context.Context, table string, filter Filter) (Record, error) {
	hit, err := s.first(ctx, table, filter)
	if err != nil || hit == nil {
		return nil, err
	}
	return hit.rec, nil
}

func (s *objectStrategy) findAll(ctx context.Context, table string, filter Filter, limit int) ([]Record, error) {
	hits, err := s.scan(ctx, table, filter, limit)
	if err != nil {
		return nil, err
	}
	var out []Record
	for _, hit := range hits {
		out = append(out, hit.rec)
	}
	return out, nil
}

// first returns the first matching object, or nil.
func (s *objectStrategy) first(ctx context.Context, table string, filter Filter) (*objectHit, error) {
	hits, err := s.scan(ctx, table, filter, 1)
	if err != nil || len(hits) == 0 {
		return nil, err
	}
	return &hits[0], nil
}

func (s *objectStrategy) updateOne(ctx context.Context, table string, filter Filter, changes Record) (int64, error) {
	hit, err := s.first(ctx, table, filter)
	if err != nil || hit == nil {
		return 0, err
	}
	rec := hit.rec
	key := rec[s.keyField]
	for k, v := range changes {
		rec[k] = v
	}
	rec[s.keyField] = key

	data, err := json.Marshal(rec)
	if err != nil {
		return 0, fmt.Errorf("encode record: %w", err)
	}
	if err := s.store.PutObject(ctx, hit.name, data); err != nil {
		return 0, err
	}
	return 1, nil
}

func (s *objectStrategy) deleteOne(ctx context.Context, table string, filter Filter) (int64, error) {
	hit, err := s.first(ctx, table, filter)
	if err != nil || hit == nil {
		return 0, err
	}
	if err := s.store.DeleteObject(ctx, hit.name); err != nil {
		return 0, err
	}
	return 1, nil
}

func (s *objectStrategy) scan(ctx context.Context, table string, filter Filter, limit int) ([]objectHit, error) {
	if key, ok := filter[s.keyField]; ok && key != nil {
		name := s.objectKey(table, key)
		rec, err := s.load(ctx, name)
		if err != nil || rec == nil || !matches(rec, filter) {
			return nil, err
		}
		return []objectHit{{name: name, rec: rec}}, nil
	}

	keys, err := s.store.ListObjects(ctx, strings.TrimSuffix(table, "/")+"/", 0)
	if err != nil {
		return nil, err
	}
	var out []objectHit
	for _, name := range keys {
		rec, err := s.load(ctx, name)
		if err != nil {
			return nil, err
		}
		if rec == nil || !matches(rec, filter) {
			continue
		}
		out = append(out, objectHit{name: name, rec: rec})
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

// load returns nil when the object is gone or does not hold a JSON record.
func (s *objectStrategy) load(ctx context.Context, key string) (Record, error) {
	data, err := s.store.GetObject(ctx, key)
	if errors.Is(err, adapter.ErrObjectNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var rec Record
	if err := decodeJSON(data, &rec); err != nil {
		return nil, nil
	}
	return rec, nil
}
