package manager

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const redisScanCount = 100

// redisStrategy stores records under "<table><sep><key>". A record holding
// only the key and value fields is a plain string; any other shape is a hash.
type redisStrategy struct {
	client     redis.UniversalClient
	keyField   string
	valueField string
	sep        string
}

func (s *redisStrategy) redisKey(table string, key interface{}) string {
	return table + s.sep + fmt.Sprint(key)
}

// scalar reports whether rec is stored as a plain string value.
func (s *redisStrategy) scalar(rec Record) bool {
	for k := range rec {
		if k != s.keyField && k != s.valueField {
			return false
		}
	}
	_, ok := rec[s.valueField]
	return ok
}

func (s *redisStrategy) insertOne(ctx context.Context, table string, rec Record) (InsertResult, error) {
	key, ok := rec[s.keyField]
	if !ok || key == nil || fmt.Sprint(key) == "" {
		key = uuid.NewString()
	}
	rkey := s.redisKey(table, key)

	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, rkey)
		return s.write(ctx, pipe, rkey, rec, false)
	})
	if err != nil {
		return InsertResult{}, err
	}
	return InsertResult{ID: key, Acknowledged: true}, nil
}

func (s *redisStrategy) write(ctx context.Context, pipe redis.Pipeliner, rkey string, rec Record, keepTTL bool) error {
	if s.scalar(rec) {
		var expiration time.Duration
		if keepTTL {
			expiration = redis.KeepTTL
		}
		pipe.Set(ctx, rkey, redisValue(rec[s.valueField]), expiration)
		return nil
	}
	fields := make(map[string]interface{}, len(rec))
	for k, v := range rec {
		if k == s.keyField {
			continue
		}
		fields[k] = redisValue(v)
	}
	if len(fields) == 0 {
		return fmt.Errorf("record has no fields besides %q", s.keyField)
	}
	pipe.HSet(ctx, rkey, fields)
	return nil
}

func (s *redisStrategy) insertMany(ctx context.Context, table string, recs []Record) (InsertManyResult, error) {
	return insertEach(ctx, table, recs, s.insertOne)
}

func (s *redisStrategy) findOne(ctx context.Context, table string, filter Filter) (Record, error) {
	recs, err := s.scan(ctx, table, filter, 1)
	if err != nil {
		return nil, err
	}
	return firstOf(recs), nil
}

func (s *redisStrategy) findAll(ctx context.Context, table string, filter Filter, limit int) ([]Record, error) {
	return s.scan(ctx, table, filter, limit)
}

// updateOne merges changes into the stored record. A string value keeps
// its TTL; a record changing shape is rewritten under the same key.
func (s *redisStrategy) updateOne(ctx context.Context, table string, filter Filter, changes Record) (int64, error) {
	rec, err := s.findOne(ctx, table, filter)
	if err != nil || rec == nil {
		return 0, err
	}
	key := rec[s.keyField]
	rkey := s.redisKey(table, key)
	wasScalar := s.scalar(rec)

	for k, v := range changes {
		rec[k] = v
	}
	rec[s.keyField] = key
	isScalar := s.scalar(rec)

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		if wasScalar != isScalar {
			pipe.Del(ctx, rkey)
			return s.write(ctx, pipe, rkey, rec, false)
		}
		if isScalar {
			return s.write(ctx, pipe, rkey, rec, true)
		}
		delta := cloneRecord(changes)
		delta[s.keyField] = key
		return s.write(ctx, pipe, rkey, delta, true)
	})
	if err != nil {
		return 0, err
	}
	return 1, nil
}

func (s *redisStrategy) deleteOne(ctx context.Context, table string, filter Filter) (int64, error) {
	rec, err := s.findOne(ctx, table, filter)
	if err != nil || rec == nil {
		return 0, err
	}
	return s.client.Del(ctx, s.redisKey(table, rec[s.keyField])).Result()
}

func (s *redisStrategy) scan(ctx context.Context, table string, filter Filter, limit int) ([]Record, error) {
	prefix := table + s.sep

	if key, ok := filter[s.keyField]; ok && key != nil {
		rec, err := s.load(ctx, prefix, s.redisKey(table, key))
		if err != nil || rec == nil || !matches(rec, filter) {
			return nil, err
		}
		return []Record{rec}, nil
	}

	var out []Record
	var cursor uint64
	for {
		keys, next, err := s.client.Scan(ctx, cursor, escapeGlob(prefix)+"*", redisScanCount).Result()
		if err != nil {
			return nil, err
		}
		for _, rkey := range keys {
			rec, err := s.load(ctx, prefix, rkey)
			if err != nil {
				return nil, err
			}
			if rec == nil || !matches(rec, filter) {
				continue
			}
			out = append(out, rec)
			if limit > 0 && len(out) >= limit {
				return out, nil
			}
		}
		if next == 0 {
			return out, nil
		}
		cursor = next
	}
}

// load reads one key in the shape its type dictates. Missing keys yield nil.
func (s *redisStrategy) load(ctx context.Context, prefix, rkey string) (Record, error) {
	typ, err := s.client.Type(ctx, rkey).Result()
	if err != nil {
		return nil, err
	}

	rec := Record{s.keyField: strings.TrimPrefix(rkey, prefix)}
	switch typ {
	case "none":
		return nil, nil
	case "string":
		v, err := s.client.Get(ctx, rkey).Result()
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		if err != nil {
			return nil, err
		}
		rec[s.valueField] = v
	case "hash":
		fields, err := s.client.HGetAll(ctx, rkey).Result()
		if err != nil {
			return nil, err
		}
		if len(fields) == 0 {
			return nil, nil
		}
		for k, v := range fields {
			rec[k] = v
		}
	case "list":
		v, err := s.client.LRange(ctx, rkey, 0, -1).Result()
		if err != nil {
			return nil, err
		}
		rec[s.valueField] = v
	case "set":
		v, err := s.client.SMembers(ctx, rkey).Result()
		if err != nil {
			return nil, err
		}
		rec[s.valueField] = v
	default:
		return nil, nil
	}
	return rec, nil
}

// redisValue encodes nested values as JSON; the client handles scalars.
func redisValue(v interface{}) interface{} {
	switch v.(type) {
	case map[string]interface{}, []interface{}:
		data, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprint(v)
		}
		return string(data)
	case nil:
		return ""
	default:
		return v
	}
}

func escapeGlob(s string) string {
	var sb strings.Builder
	for _, r := range s {
		switch r {
		case '*', '?', '[', ']', '\\':
			sb.WriteByte('\\')
		}
		sb.WriteRune(r)
	}
	return sb.String()
}
