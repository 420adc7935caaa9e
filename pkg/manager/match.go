package manager

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"sort"
	"strconv"

	"github.com/redbco/redb-connect/pkg/adapter"
)

// matches reports whether rec satisfies every filter field. Numbers compare
// by value regardless of their Go type; a nil filter value matches a missing
// or nil field.
func matches(rec Record, filter Filter) bool {
	for field, want := range filter {
		got, ok := rec[field]
		if want == nil {
			if ok && got != nil {
				return false
			}
			continue
		}
		if !ok || !equalValues(got, want) {
			return false
		}
	}
	return true
}

func equalValues(a, b interface{}) bool {
	if ai, ok := toInt64(a); ok {
		if bi, ok := toInt64(b); ok {
			return ai == bi
		}
	}
	if af, ok := toFloat(a); ok {
		if bf, ok := toFloat(b); ok {
			return af == bf
		}
	}
	if as, ok := a.(string); ok {
		if bs, ok := b.(string); ok {
			return as == bs
		}
		return as == fmt.Sprint(b)
	}
	if bs, ok := b.(string); ok {
		return fmt.Sprint(a) == bs
	}
	return reflect.DeepEqual(a, b)
}

// toInt64 converts whole numbers that fit in an int64 without going through
// float64.
func toInt64(v interface{}) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int8:
		return int64(n), true
	case int16:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case uint:
		if uint64(n) > math.MaxInt64 {
			return 0, false
		}
		return int64(n), true
	case uint8:
		return int64(n), true
	case uint16:
		return int64(n), true
	case uint32:
		return int64(n), true
	case uint64:
		if n > math.MaxInt64 {
			return 0, false
		}
		return int64(n), true
	case json.Number:
		i, err := n.Int64()
		return i, err == nil
	default:
		return 0, false
	}
}

func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}

// decodeJSON decodes data into out keeping integers exact. Numbers inside
// records and slices come back as int64 when whole and float64 otherwise.
func decodeJSON(data []byte, out interface{}) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(out); err != nil {
		return err
	}
	switch v := out.(type) {
	case *Record:
		normalizeRecord(*v)
	case *[]Record:
		for _, rec := range *v {
			normalizeRecord(rec)
		}
	case *[]interface{}:
		for i := range *v {
			(*v)[i] = normalizeValue((*v)[i])
		}
	case *interface{}:
		*v = normalizeValue(*v)
	}
	return nil
}

func normalizeRecord(rec Record) {
	for k, v := range rec {
		rec[k] = normalizeValue(v)
	}
}

func normalizeValue(v interface{}) interface{} {
	switch val := v.(type) {
	case json.Number:
		if i, err := val.Int64(); err == nil {
			return i
		}
		if f, err := val.Float64(); err == nil {
			return f
		}
		return val.String()
	case map[string]interface{}:
		normalizeRecord(val)
		return val
	case []interface{}:
		for i := range val {
			val[i] = normalizeValue(val[i])
		}
		return val
	default:
		return v
	}
}

// formatNumber renders an integer or float literal without exponent
// notation or rounding of large integers.
func formatNumber(v interface{}) (string, bool) {
	if n, ok := v.(json.Number); ok {
		return n.String(), true
	}
	if i, ok := toInt64(v); ok {
		return strconv.FormatInt(i, 10), true
	}
	if u, ok := v.(uint64); ok {
		return strconv.FormatUint(u, 10), true
	}
	if u, ok := v.(uint); ok {
		return strconv.FormatUint(uint64(u), 10), true
	}
	if f, ok := toFloat(v); ok {
		return strconv.FormatFloat(f, 'f', -1, 64), true
	}
	return "", false
}

// sortedKeys returns the map keys in lexical order so generated statements
// and their bind order are deterministic.
func sortedKeys(m map[string]interface{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func cloneRecord(rec Record) Record {
	out := make(Record, len(rec))
	for k, v := range rec {
		out[k] = v
	}
	return out
}

// firstOf returns the first record, or nil.
func firstOf(recs []Record) Record {
	if len(recs) == 0 {
		return nil
	}
	return recs[0]
}

// insertEach runs insert for every record and keeps going after failures.
// When any record fails the returned error wraps adapter.ErrPartialInsert.
func insertEach(ctx context.Context, table string, recs []Record, insert func(context.Context, string, Record) (InsertResult, error)) (InsertManyResult, error) {
	res := InsertManyResult{Results: make([]RecordResult, len(recs))}
	failed := 0
	for i, rec := range recs {
		if err := ctx.Err(); err != nil {
			res.Results[i] = RecordResult{Index: i, Err: err}
			failed++
			continue
		}
		one, err := insert(ctx, table, rec)
		res.Results[i] = RecordResult{Index: i, ID: one.ID, Err: err}
		if err != nil {
			failed++
		}
	}
	if failed > 0 {
		return res, fmt.Errorf("%w: %d of %d records failed", adapter.ErrPartialInsert, failed, len(recs))
	}
	return res, nil
}
