package manager

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/redbco/redb-connect/pkg/adapter"
	"github.com/redbco/redb-connect/pkg/connector"
	"github.com/redbco/redb-connect/pkg/dbcapabilities"
)

func objectManager(t *testing.T) (*Manager, *memStore) {
	t.Helper()
	cfg := testConfig(t, "files")
	store := newMemStore(t, cfg)
	conn := connector.FromConnection(cfg, store)
	t.Cleanup(func() { _ = conn.Close() })

	m, err := New(conn)
	require.NoError(t, err)
	return m, store
}

func TestObjectStoreCRUD(t *testing.T) {
	ctx := context.Background()
	m, store := objectManager(t)
	assert.Equal(t, dbcapabilities.CategoryObjectStorage, m.Category())

	res, err := m.InsertOne(ctx, "reports", Record{"key": "q1", "title": "Q1", "pages": 12})
	require.NoError(t, err)
	assert.Equal(t, "q1", res.ID)

	var stored map[string]interface{}
	require.NoError(t, json.Unmarshal(store.objects["reports/q1"], &stored))
	assert.Equal(t, "Q1", stored["title"])

	_, err = m.InsertOne(ctx, "reports", Record{"key": "q2", "title": "Q2", "pages": 7})
	require.NoError(t, err)

	rec, err := m.FindOne(ctx, "reports", Filter{"key": "q1"})
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, "Q1", rec["title"])

	recs, err := m.FindAll(ctx, "reports", Filter{"pages": 7}, 0)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "q2", recs[0]["key"])

	rec, err = m.FindOne(ctx, "reports", Filter{"key": "missing"})
	require.NoError(t, err)
	assert.Nil(t, rec)

	n, err := m.UpdateOne(ctx, "reports", Filter{"title": "Q2"}, Record{"pages": 8, "key": "ignored"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	rec, err = m.FindOne(ctx, "reports", Filter{"key": "q2"})
	require.NoError(t, err)
	assert.Equal(t, int64(8), rec["pages"])
	assert.NotContains(t, store.objects, "reports/ignored")

	n, err = m.DeleteOne(ctx, "reports", Filter{"key": "q1"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.NotContains(t, store.objects, "reports/q1")

	n, err = m.DeleteOne(ctx, "reports", Filter{"key": "q1"})
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)
}

func TestObjectStoreSkipsForeignObjects(t *testing.T) {
	ctx := context.Background()
	m, store := objectManager(t)

	store.objects["reports/readme.txt"] = []byte("not json")
	store.objects["other/a"] = []byte(`{"key":"a"}`)
	_, err := m.InsertOne(ctx, "reports", Record{"key": "r1", "title": "x"})
	require.NoError(t, err)

	recs, err := m.FindAll(ctx, "reports", nil, 10)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "r1", recs[0]["key"])
}

func TestObjectStoreInsertManyBestEffort(t *testing.T) {
	ctx := context.Background()
	m, store := objectManager(t)
	store.putErr["reports/bad"] = errors.New("access denied")

	res, err := m.InsertMany(ctx, "reports", []Record{
		{"key": "good", "n": 1},
		{"key": "bad", "n": 2},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, adapter.ErrPartialInsert)
	assert.Equal(t, []interface{}{"good"}, res.IDs())
	assert.Contains(t, store.objects, "reports/good")
}

func TestObjectStoreGeneratesKey(t *testing.T) {
	ctx := context.Background()
	m, _ := objectManager(t)

	res, err := m.InsertOne(ctx, "notes", Record{"text": "hello"})
	require.NoError(t, err)
	id, ok := res.ID.(string)
	require.True(t, ok)
	assert.Len(t, id, 36)

	rec, err := m.FindOne(ctx, "notes", Filter{"key": id})
	require.NoError(t, err)
	assert.Equal(t, "hello", rec["text"])
}

func TestObjectStoreNumericKeys(t *testing.T) {
	ctx := context.Background()
	m, store := objectManager(t)

	_, err := m.InsertOne(ctx, "orders", Record{"key": 12345678, "status": "new"})
	require.NoError(t, err)
	_, err = m.InsertOne(ctx, "orders", Record{"key": 7, "status": "paid"})
	require.NoError(t, err)
	require.Contains(t, store.objects, "orders/12345678")

	recs, err := m.FindAll(ctx, "orders", Filter{"status": "new"}, 0)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, int64(12345678), recs[0]["key"])

	rec, err := m.FindOne(ctx, "orders", Filter{"key": float64(12345678)})
	require.NoError(t, err)
	require.NotNil(t, rec)

	n, err := m.UpdateOne(ctx, "orders", Filter{"status": "new"}, Record{"status": "shipped"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.NotContains(t, store.objects, "orders/1.2345678e+07")

	var stored map[string]interface{}
	require.NoError(t, json.Unmarshal(store.objects["orders/12345678"], &stored))
	assert.Equal(t, "shipped", stored["status"])

	n, err = m.DeleteOne(ctx, "orders", Filter{"status": "shipped"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.NotContains(t, store.objects, "orders/12345678")
	assert.Contains(t, store.objects, "orders/7")
}

func TestObjectStoreActsOnListedName(t *testing.T) {
	ctx := context.Background()
	m, store := objectManager(t)

	// The record's key field does not match the object name.
	store.objects["orders/legacy-1"] = []byte(`{"key":"renamed","status":"new"}`)

	n, err := m.DeleteOne(ctx, "orders", Filter{"status": "new"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.NotContains(t, store.objects, "orders/legacy-1")
}
