package connector

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/redbco/redb-connect/pkg/adapter"
	"github.com/redbco/redb-connect/pkg/catalog"
	"github.com/redbco/redb-connect/pkg/dbcapabilities"
	"github.com/redbco/redb-connect/pkg/logger"
)

// DefaultConnectTimeout bounds Open when the caller's context has no deadline.
const DefaultConnectTimeout = 30 * time.Second

// Connector owns one open connection for a catalog entry.
type Connector struct {
	config    catalog.DatabaseConfig
	conn      adapter.Connection
	connected int32
	closed    int32
	dbLog     *logger.DatabaseLogger
	logger    *logger.Logger
}

type options struct {
	logger         *logger.Logger
	registry       *adapter.Registry
	lookup         catalog.Lookup
	connectTimeout time.Duration
}

// Option configures Open and With.
type Option func(*options)

// WithLogger sets the logger for connection events.
func WithLogger(l *logger.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithRegistry resolves drivers from r instead of the global registry.
func WithRegistry(r *adapter.Registry) Option {
	return func(o *options) { o.registry = r }
}

// WithLookup resolves ${VAR} placeholders through lookup instead of the environment.
func WithLookup(lookup catalog.Lookup) Option {
	return func(o *options) { o.lookup = lookup }
}

// WithConnectTimeout bounds the native connect. Zero disables the bound.
func WithConnectTimeout(d time.Duration) Option {
	return func(o *options) { o.connectTimeout = d }
}

// Open looks up id in the catalog and connects with the registered driver.
// On failure nothing is left open.
func Open(ctx context.Context, cat *catalog.Catalog, id string, opts ...Option) (*Connector, error) {
	o := options{
		registry:       adapter.GlobalRegistry(),
		connectTimeout: DefaultConnectTimeout,
	}
	for _, opt := range opts {
		opt(&o)
	}

	if cat == nil {
		return nil, adapter.NewConfigNotFoundError(id)
	}
	cfg, err := cat.Get(id)
	if err != nil {
		return nil, err
	}

	drv, err := o.registry.Get(cfg.Driver)
	if err != nil {
		return nil, adapter.NewDriverImportError(cfg.Name, cfg.Driver)
	}

	connCfg, err := cfg.ConnectionConfig(o.lookup, o.logger)
	if err != nil {
		return nil, err
	}
	if connCfg.Timeout == 0 {
		connCfg.Timeout = o.connectTimeout
	}

	dbLog := logger.NewDatabaseLogger(o.logger)
	logCtx := logger.DatabaseLogContext{
		DatabaseType: string(cfg.DatabaseType()),
		DatabaseID:   cfg.Name,
		Host:         connCfg.Host,
		Port:         connCfg.Port,
	}
	dbLog.LogConnectionAttempt(logCtx)

	connectCtx := ctx
	if _, hasDeadline := ctx.Deadline(); !hasDeadline && o.connectTimeout > 0 {
		var cancel context.CancelFunc
		connectCtx, cancel = context.WithTimeout(ctx, o.connectTimeout)
		defer cancel()
	}

	conn, err := drv.Connect(connectCtx, connCfg)
	if err != nil {
		if !adapter.IsConnectionError(err) && !adapter.IsConfigurationError(err) {
			err = adapter.NewConnectionError(cfg.DatabaseType(), connCfg.Host, connCfg.Port, err)
		}
		dbLog.LogConnectionFailure(logCtx, err)
		return nil, err
	}
	dbLog.LogConnectionSuccess(logCtx)

	return &Connector{
		config:    cfg,
		conn:      conn,
		connected: 1,
		dbLog:     dbLog,
		logger:    o.logger,
	}, nil
}

// FromConnection wraps a connection that was opened elsewhere. The connector
// takes ownership and closes conn on Close.
func FromConnection(cfg catalog.DatabaseConfig, conn adapter.Connection, opts ...Option) *Connector {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	return &Connector{
		config:    cfg,
		conn:      conn,
		connected: 1,
		dbLog:     logger.NewDatabaseLogger(o.logger),
		logger:    o.logger,
	}
}

// With opens id, runs fn and closes the connector exactly once on every
// exit path. A panic in fn is re-raised after the close. A close failure is
// joined with fn's error.
func With(ctx context.Context, cat *catalog.Catalog, id string, fn func(*Connector) error, opts ...Option) (err error) {
	c, err := Open(ctx, cat, id, opts...)
	if err != nil {
		return err
	}

	defer func() {
		closeErr := c.Close()
		if r := recover(); r != nil {
			panic(r)
		}
		if closeErr != nil {
			err = errors.Join(err, closeErr)
		}
	}()

	return fn(c)
}

// Close releases the native connection. Later calls return nil.
func (c *Connector) Close() error {
	if !atomic.CompareAndSwapInt32(&c.closed, 0, 1) {
		return nil
	}
	atomic.StoreInt32(&c.connected, 0)

	err := c.conn.Close()
	c.dbLog.LogDisconnection(c.logContext(), err)
	if err != nil {
		return adapter.NewDatabaseError(c.config.DatabaseType(), "close", err)
	}
	return nil
}

// IsConnected reports the last known connection state without network I/O.
func (c *Connector) IsConnected() bool {
	return atomic.LoadInt32(&c.connected) == 1 && c.conn.IsConnected()
}

// Ping probes the store and records the outcome for IsConnected.
func (c *Connector) Ping(ctx context.Context) error {
	if atomic.LoadInt32(&c.closed) == 1 {
		return adapter.ErrConnectionClosed
	}

	err := c.conn.Ping(ctx)
	c.dbLog.LogHealthCheck(c.logContext(), err)
	if err != nil {
		atomic.StoreInt32(&c.connected, 0)
		return adapter.NewConnectionError(c.config.DatabaseType(), c.conn.Config().Host, c.conn.Config().Port, err)
	}
	atomic.StoreInt32(&c.connected, 1)
	return nil
}

// Raw returns the native client (*sql.DB, *mongo.Database, *redis.Client, ...).
func (c *Connector) Raw() interface{} {
	return c.conn.Raw()
}

// Connection returns the driver connection.
func (c *Connector) Connection() adapter.Connection {
	return c.conn
}

// Config returns the catalog entry the connector was opened from.
func (c *Connector) Config() catalog.DatabaseConfig {
	return c.config
}

// Name returns the catalog identifier.
func (c *Connector) Name() string {
	return c.config.Name
}

// DatabaseType returns the engine id of the entry.
func (c *Connector) DatabaseType() dbcapabilities.DatabaseType {
	return c.config.DatabaseType()
}

// Category returns the entry's category.
func (c *Connector) Category() dbcapabilities.Category {
	return c.config.Category
}

// Features returns the entry's feature list.
func (c *Connector) Features() []string {
	return append([]string(nil), c.config.Features...)
}

// HasFeature reports whether the entry lists feature.
func (c *Connector) HasFeature(feature string) bool {
	return c.config.HasFeature(feature)
}

// QuerySyntax returns the entry's query syntax with defaults applied.
func (c *Connector) QuerySyntax() catalog.QuerySyntax {
	return c.config.QuerySyntax
}

// Logger returns the logger passed to Open, possibly nil.
func (c *Connector) Logger() *logger.Logger {
	return c.logger
}

func (c *Connector) String() string {
	return fmt.Sprintf("%s (%s/%s)", c.config.Name, c.config.Category, c.config.Driver)
}

func (c *Connector) logContext() logger.DatabaseLogContext {
	cfg := c.conn.Config()
	return logger.DatabaseLogContext{
		DatabaseType: string(c.config.DatabaseType()),
		DatabaseID:   c.config.Name,
		Host:         cfg.Host,
		Port:         cfg.Port,
	}
}
