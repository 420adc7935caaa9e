package adapter

import (
	"context"
	"database/sql"
	"fmt"
	"sync/atomic"

	"github.com/redbco/redb-connect/pkg/dbcapabilities"
)

// Pool defaults applied to every database/sql connection.
const (
	DefaultMaxOpenConns = 25
	DefaultMaxIdleConns = 5
)

// OpenSQL opens driverName with dsn, applies the pool defaults (overridable
// with the max_open_conns and max_idle_conns options) and pings. The pool is
// closed again when the ping fails.
func OpenSQL(ctx context.Context, a DatabaseAdapter, config ConnectionConfig, driverName, dsn string) (*SQLConnection, error) {
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, NewConnectionError(config.DatabaseType, config.Host, config.Port,
			fmt.Errorf("failed to open %s connection: %w", driverName, err))
	}
	return PingSQL(ctx, a, config, db)
}

// PingSQL finishes opening a pool created by the caller, e.g. through
// sql.OpenDB with a driver connector.
func PingSQL(ctx context.Context, a DatabaseAdapter, config ConnectionConfig, db *sql.DB) (*SQLConnection, error) {
	db.SetMaxOpenConns(config.OptionInt("max_open_conns", DefaultMaxOpenConns))
	db.SetMaxIdleConns(config.OptionInt("max_idle_conns", DefaultMaxIdleConns))

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, NewConnectionError(config.DatabaseType, config.Host, config.Port,
			fmt.Errorf("failed to ping database: %w", err))
	}
	return NewSQLConnection(a, config, db), nil
}

// ClientConnection is the Connection shared by drivers whose native handle
// is a client object rather than a *sql.DB.
type ClientConnection struct {
	config    ConnectionConfig
	adapter   DatabaseAdapter
	raw       interface{}
	ping      func(ctx context.Context) error
	close     func() error
	connected int32
}

// NewClientConnection wraps an established client. ping and close may be nil.
func NewClientConnection(a DatabaseAdapter, config ConnectionConfig, raw interface{}, ping func(context.Context) error, close func() error) *ClientConnection {
	return &ClientConnection{
		config:    config,
		adapter:   a,
		raw:       raw,
		ping:      ping,
		close:     close,
		connected: 1,
	}
}

func (c *ClientConnection) ID() string                        { return c.config.DatabaseID }
func (c *ClientConnection) Type() dbcapabilities.DatabaseType { return c.config.DatabaseType }
func (c *ClientConnection) IsConnected() bool                 { return atomic.LoadInt32(&c.connected) == 1 }
func (c *ClientConnection) Raw() interface{}                  { return c.raw }
func (c *ClientConnection) Config() ConnectionConfig          { return c.config }
func (c *ClientConnection) Adapter() DatabaseAdapter          { return c.adapter }

func (c *ClientConnection) Ping(ctx context.Context) error {
	if !c.IsConnected() {
		return ErrConnectionClosed
	}
	if c.ping == nil {
		return nil
	}
	return c.ping(ctx)
}

// Close releases the client once; later calls are no-ops.
func (c *ClientConnection) Close() error {
	if !atomic.CompareAndSwapInt32(&c.connected, 1, 0) {
		return nil
	}
	if c.close == nil {
		return nil
	}
	return c.close()
}
