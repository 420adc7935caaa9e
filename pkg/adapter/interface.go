package adapter

import (
	"context"
	"database/sql"
	"sync/atomic"

	"github.com/redbco/redb-connect/pkg/dbcapabilities"
)

// DatabaseAdapter opens connections for one driver.
// Each driver package registers its adapter from init().
type DatabaseAdapter interface {
	// Name returns the driver name descriptor entries refer to (e.g. "mysql", "pgx").
	Name() string

	// Connect establishes a connection using resolved connection parameters.
	Connect(ctx context.Context, config ConnectionConfig) (Connection, error)
}

// Connection represents an active connection to a specific database.
type Connection interface {
	// Identity and status
	ID() string
	Type() dbcapabilities.DatabaseType
	IsConnected() bool

	// Lifecycle management
	Ping(ctx context.Context) error
	Close() error

	// Raw returns the native client object (*sql.DB, *mongo.Database,
	// *redis.Client, ...). Type assertion is required when using Raw().
	Raw() interface{}

	// Configuration
	Config() ConnectionConfig
	Adapter() DatabaseAdapter
}

// SQLConnection is the Connection shared by every database/sql driver.
type SQLConnection struct {
	id        string
	dbType    dbcapabilities.DatabaseType
	db        *sql.DB
	config    ConnectionConfig
	adapter   DatabaseAdapter
	connected int32
}

// NewSQLConnection wraps an opened and pinged *sql.DB.
func NewSQLConnection(a DatabaseAdapter, config ConnectionConfig, db *sql.DB) *SQLConnection {
	return &SQLConnection{
		id:        config.DatabaseID,
		dbType:    config.DatabaseType,
		db:        db,
		config:    config,
		adapter:   a,
		connected: 1,
	}
}

func (c *SQLConnection) ID() string                        { return c.id }
func (c *SQLConnection) Type() dbcapabilities.DatabaseType { return c.dbType }
func (c *SQLConnection) IsConnected() bool                 { return atomic.LoadInt32(&c.connected) == 1 }
func (c *SQLConnection) Raw() interface{}                  { return c.db }
func (c *SQLConnection) DB() *sql.DB                       { return c.db }
func (c *SQLConnection) Config() ConnectionConfig          { return c.config }
func (c *SQLConnection) Adapter() DatabaseAdapter          { return c.adapter }

func (c *SQLConnection) Ping(ctx context.Context) error {
	if !c.IsConnected() {
		return ErrConnectionClosed
	}
	return c.db.PingContext(ctx)
}

// Close closes the pool once; later calls are no-ops.
func (c *SQLConnection) Close() error {
	if !atomic.CompareAndSwapInt32(&c.connected, 1, 0) {
		return nil
	}
	return c.db.Close()
}

// ObjectStore is implemented by object-storage connections. Keys are object
// names inside the bucket the connection was opened for.
type ObjectStore interface {
	PutObject(ctx context.Context, key string, data []byte) error

	// GetObject returns ErrObjectNotFound when the key does not exist.
	GetObject(ctx context.Context, key string) ([]byte, error)

	// ListObjects returns up to limit keys starting with prefix, in the
	// store's listing order. limit <= 0 means no limit.
	ListObjects(ctx context.Context, prefix string, limit int) ([]string, error)

	// DeleteObject removes key. Deleting a missing key is not an error.
	DeleteObject(ctx context.Context, key string) error
}
