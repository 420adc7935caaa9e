package manager

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/redbco/redb-connect/pkg/adapter"
)

func TestMatches(t *testing.T) {
	rec := Record{"name": "Ann", "age": int64(30), "score": 1.5, "tags": []interface{}{"a"}, "note": nil}

	tests := []struct {
		name   string
		filter Filter
		want   bool
	}{
		{"empty filter", nil, true},
		{"string", Filter{"name": "Ann"}, true},
		{"string mismatch", Filter{"name": "Bob"}, false},
		{"int vs int64", Filter{"age": 30}, true},
		{"float vs int64", Filter{"age": 30.0}, true},
		{"json number", Filter{"score": json.Number("1.5")}, true},
		{"string vs number", Filter{"age": "30"}, true},
		{"slice", Filter{"tags": []interface{}{"a"}}, true},
		{"nil matches null", Filter{"note": nil}, true},
		{"nil matches missing", Filter{"email": nil}, true},
		{"nil rejects value", Filter{"name": nil}, false},
		{"missing field", Filter{"email": "x"}, false},
		{"all fields", Filter{"name": "Ann", "age": 30}, true},
		{"one field off", Filter{"name": "Ann", "age": 31}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, matches(rec, tt.filter))
		})
	}
}

func TestEqualValuesLargeIntegers(t *testing.T) {
	id := int64(449187316467269830)
	assert.True(t, equalValues(id, json.Number("449187316467269830")))
	assert.False(t, equalValues(id, int64(449187316467269831)))
	assert.False(t, equalValues(id, json.Number("449187316467269800")))
	assert.True(t, equalValues(uint64(7), 7))
}

func TestDecodeJSONKeepsIntegers(t *testing.T) {
	var rec Record
	require.NoError(t, decodeJSON([]byte(`{"id":449187316467269830,"score":0.5,"n":{"k":12345678},"list":[1,2.5]}`), &rec))
	assert.Equal(t, int64(449187316467269830), rec["id"])
	assert.Equal(t, 0.5, rec["score"])
	assert.Equal(t, map[string]interface{}{"k": int64(12345678)}, rec["n"])
	assert.Equal(t, []interface{}{int64(1), 2.5}, rec["list"])

	var recs []Record
	require.NoError(t, decodeJSON([]byte(`[{"id":1},{"id":2}]`), &recs))
	assert.Equal(t, int64(2), recs[1]["id"])

	assert.Error(t, decodeJSON([]byte(`{`), &rec))
}

func TestFormatNumber(t *testing.T) {
	tests := []struct {
		in   interface{}
		want string
	}{
		{12345678, "12345678"},
		{int64(449187316467269830), "449187316467269830"},
		{json.Number("449187316467269830"), "449187316467269830"},
		{float64(12345678), "12345678"},
		{0.25, "0.25"},
		{uint64(18446744073709551615), "18446744073709551615"},
	}
	for _, tt := range tests {
		got, ok := formatNumber(tt.in)
		assert.True(t, ok)
		assert.Equal(t, tt.want, got)
	}
	_, ok := formatNumber("x")
	assert.False(t, ok)
}

func TestInsertEach(t *testing.T) {
	boom := errors.New("boom")
	insert := func(ctx context.Context, table string, rec Record) (InsertResult, error) {
		if rec["fail"] == true {
			return InsertResult{}, boom
		}
		return InsertResult{ID: rec["id"], Acknowledged: true}, nil
	}

	res, err := insertEach(context.Background(), "t", []Record{{"id": 1}, {"id": 2}}, insert)
	require.NoError(t, err)
	assert.Equal(t, []interface{}{1, 2}, res.IDs())

	res, err = insertEach(context.Background(), "t", []Record{{"id": 1}, {"id": 2, "fail": true}, {"id": 3}}, insert)
	require.Error(t, err)
	assert.ErrorIs(t, err, adapter.ErrPartialInsert)
	assert.EqualError(t, err, adapter.ErrPartialInsert.Error()+": 1 of 3 records failed")
	assert.Equal(t, 2, res.Inserted())
	require.Len(t, res.Failed(), 1)
	assert.Equal(t, 1, res.Failed()[0].Index)
	assert.ErrorIs(t, res.Failed()[0].Err, boom)
}

func TestInsertEachStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	insert := func(ctx context.Context, table string, rec Record) (InsertResult, error) {
		calls++
		cancel()
		return InsertResult{ID: calls}, nil
	}

	res, err := insertEach(ctx, "t", []Record{{"a": 1}, {"a": 2}}, insert)
	require.Error(t, err)
	assert.Equal(t, 1, calls)
	assert.ErrorIs(t, res.Results[1].Err, context.Canceled)
}
