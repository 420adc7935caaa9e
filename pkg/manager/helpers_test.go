package manager

import (
	"context"
	"database/sql"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/redbco/redb-connect/pkg/adapter"
	"github.com/redbco/redb-connect/pkg/catalog"
	"github.com/redbco/redb-connect/pkg/connector"
	"github.com/redbco/redb-connect/pkg/dbcapabilities"
)

const testCatalog = `
databases:
  sqlite:
    engine: sqlite
    features: [transactions]
  mysql:
    category: relational
    engine: sqlite
    features: [transactions]
    query_syntax:
      placeholder: "%s"
  guarded_tx:
    engine: sqlite
    features: [transactions]
    query_syntax:
      single_row: guarded
  guarded:
    engine: sqlite
    query_syntax:
      single_row: guarded
  appdb:
    driver: sqlite
    features: [transactions]
  redis:
    category: key-value
    engine: redis
  files:
    category: object-storage
    engine: s3
  milvus:
    engine: milvus
    connection_params:
      database: default
  elastic:
    engine: elasticsearch
  opensearch:
    engine: opensearch
  odd:
    category: relational
    driver: custom
`

type testConn struct {
	cfg       adapter.ConnectionConfig
	raw       interface{}
	connected int32
	closeFn   func() error
}

func (c *testConn) ID() string                        { return c.cfg.DatabaseID }
func (c *testConn) Type() dbcapabilities.DatabaseType { return c.cfg.DatabaseType }
func (c *testConn) IsConnected() bool                 { return atomic.LoadInt32(&c.connected) == 1 }
func (c *testConn) Ping(ctx context.Context) error    { return nil }
func (c *testConn) Raw() interface{}                  { return c.raw }
func (c *testConn) Config() adapter.ConnectionConfig  { return c.cfg }
func (c *testConn) Adapter() adapter.DatabaseAdapter  { return nil }
func (c *testConn) Close() error {
	atomic.StoreInt32(&c.connected, 0)
	if c.closeFn != nil {
		return c.closeFn()
	}
	return nil
}

func testConfig(t *testing.T, id string) catalog.DatabaseConfig {
	t.Helper()
	cat, err := catalog.Parse([]byte(testCatalog))
	require.NoError(t, err)
	cfg, err := cat.Get(id)
	require.NoError(t, err)
	return cfg
}

func newTestConn(t *testing.T, cfg catalog.DatabaseConfig, raw interface{}) *testConn {
	t.Helper()
	cc, err := adapter.ConfigFromParams(cfg.Name, cfg.DatabaseType(), cfg.Driver, cfg.ConnectionParams)
	require.NoError(t, err)
	return &testConn{cfg: cc, raw: raw, connected: 1}
}

// openManager wraps raw as the connection of catalog entry id.
func openManager(t *testing.T, id string, raw interface{}) *Manager {
	t.Helper()
	cfg := testConfig(t, id)
	conn := connector.FromConnection(cfg, newTestConn(t, cfg, raw))
	t.Cleanup(func() { _ = conn.Close() })

	m, err := New(conn)
	require.NoError(t, err)
	return m
}

// sqliteManager opens a file-backed SQLite database with one users table.
func sqliteManager(t *testing.T, id string) (*Manager, *sql.DB) {
	t.Helper()
	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Exec(`CREATE TABLE users (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		email TEXT UNIQUE,
		age INTEGER
	)`)
	require.NoError(t, err)

	return openManager(t, id, db), db
}

// memStore is an in-memory adapter.ObjectStore connection.
type memStore struct {
	*testConn
	mu      sync.Mutex
	objects map[string][]byte
	putErr  map[string]error
}

func newMemStore(t *testing.T, cfg catalog.DatabaseConfig) *memStore {
	s := &memStore{objects: make(map[string][]byte), putErr: make(map[string]error)}
	s.testConn = newTestConn(t, cfg, s)
	return s
}

func (s *memStore) PutObject(ctx context.Context, key string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.putErr[key]; err != nil {
		return err
	}
	s.objects[key] = append([]byte(nil), data...)
	return nil
}

func (s *memStore) GetObject(ctx context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.objects[key]
	if !ok {
		return nil, adapter.ErrObjectNotFound
	}
	return data, nil
}

func (s *memStore) ListObjects(ctx context.Context, prefix string, limit int) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var keys []string
	for k := range s.objects {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	if limit > 0 && len(keys) > limit {
		keys = keys[:limit]
	}
	return keys, nil
}

func (s *memStore) DeleteObject(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, key)
	return nil
}
