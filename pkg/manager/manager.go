package manager

import (
	"context"
	"fmt"
	"strings"

	"github.com/redbco/redb-connect/pkg/adapter"
	"github.com/redbco/redb-connect/pkg/connector"
	"github.com/redbco/redb-connect/pkg/dbcapabilities"
	"github.com/redbco/redb-connect/pkg/logger"
)

// DefaultLimit is used by FindAll when the caller passes limit <= 0.
const DefaultLimit = 100

const (
	opInsertOne  = "insert_one"
	opInsertMany = "insert_many"
	opFindOne    = "find_one"
	opFindAll    = "find_all"
	opUpdateOne  = "update_one"
	opDeleteOne  = "delete_one"
)

// Manager runs uniform CRUD operations against an open connector. Calls are
// synchronous and never retried.
type Manager struct {
	conn         *connector.Connector
	strategy     strategy
	dbType       dbcapabilities.DatabaseType
	defaultLimit int
	logger       *logger.Logger
	dbLog        *logger.DatabaseLogger
}

// Option configures a Manager.
type Option func(*Manager)

// WithDefaultLimit overrides DefaultLimit.
func WithDefaultLimit(n int) Option {
	return func(m *Manager) {
		if n > 0 {
			m.defaultLimit = n
		}
	}
}

// WithLogger overrides the connector's logger.
func WithLogger(l *logger.Logger) Option {
	return func(m *Manager) { m.logger = l }
}

// New selects the query strategy for the connector's category.
func New(conn *connector.Connector, opts ...Option) (*Manager, error) {
	if conn == nil || !conn.IsConnected() {
		return nil, adapter.NewValidationError("new_manager", "connector", "connector is not connected")
	}

	m := &Manager{
		conn:         conn,
		dbType:       conn.DatabaseType(),
		defaultLimit: DefaultLimit,
		logger:       conn.Logger(),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.dbLog = logger.NewDatabaseLogger(m.logger)

	s, err := newStrategy(conn, m.logger)
	if err != nil {
		return nil, err
	}
	m.strategy = s

	if m.logger != nil {
		m.logger.Debug("Manager initialized for %s (%s)", conn.Name(), conn.Category())
	}
	return m, nil
}

// Database returns the catalog identifier of the connector.
func (m *Manager) Database() string {
	return m.conn.Name()
}

// Category returns the category that selected the strategy.
func (m *Manager) Category() dbcapabilities.Category {
	return m.conn.Category()
}

// Connector returns the underlying connector.
func (m *Manager) Connector() *connector.Connector {
	return m.conn
}

// InsertOne stores one record.
func (m *Manager) InsertOne(ctx context.Context, table string, record Record) (InsertResult, error) {
	if err := m.check(opInsertOne, table); err != nil {
		return InsertResult{}, err
	}
	if len(record) == 0 {
		return InsertResult{}, adapter.NewValidationError(opInsertOne, "record", "must not be empty")
	}

	res, err := m.strategy.insertOne(ctx, table, record)
	if err != nil {
		return InsertResult{}, m.fail(opInsertOne, table, err)
	}
	m.done(opInsertOne, table, 1)
	return res, nil
}

// InsertMany stores several records. SQL stores insert all of them in one
// transaction or none. Other stores insert record by record; when some fail
// the result lists each failure and the error wraps adapter.ErrPartialInsert.
func (m *Manager) InsertMany(ctx context.Context, table string, records []Record) (InsertManyResult, error) {
	if err := m.check(opInsertMany, table); err != nil {
		return InsertManyResult{}, err
	}
	if len(records) == 0 {
		return InsertManyResult{}, adapter.NewValidationError(opInsertMany, "records", "must not be empty")
	}
	for i, rec := range records {
		if len(rec) == 0 {
			return InsertManyResult{}, adapter.NewValidationError(opInsertMany, fmt.Sprintf("records[%d]", i), "must not be empty")
		}
	}

	res, err := m.strategy.insertMany(ctx, table, records)
	if err != nil {
		return res, m.fail(opInsertMany, table, err)
	}
	m.done(opInsertMany, table, res.Inserted())
	return res, nil
}

// FindOne returns the first record matching filter, or nil when none does.
func (m *Manager) FindOne(ctx context.Context, table string, filter Filter) (Record, error) {
	if err := m.check(opFindOne, table); err != nil {
		return nil, err
	}

	rec, err := m.strategy.findOne(ctx, table, filter)
	if err != nil {
		return nil, m.fail(opFindOne, table, err)
	}
	if rec == nil {
		m.done(opFindOne, table, 0)
	} else {
		m.done(opFindOne, table, 1)
	}
	return rec, nil
}

// FindAll returns up to limit records matching filter. The slice is empty,
// not nil, when nothing matches.
func (m *Manager) FindAll(ctx context.Context, table string, filter Filter, limit int) ([]Record, error) {
	if err := m.check(opFindAll, table); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = m.defaultLimit
	}

	recs, err := m.strategy.findAll(ctx, table, filter, limit)
	if err != nil {
		return nil, m.fail(opFindAll, table, err)
	}
	if recs == nil {
		recs = []Record{}
	}
	m.done(opFindAll, table, len(recs))
	return recs, nil
}

// UpdateOne applies changes to at most one record matching filter and
// returns the number of records updated (0 or 1). Which record is first is
// decided by the store. An empty filter is refused.
func (m *Manager) UpdateOne(ctx context.Context, table string, filter Filter, changes Record) (int64, error) {
	if err := m.check(opUpdateOne, table); err != nil {
		return 0, err
	}
	if len(filter) == 0 {
		return 0, adapter.NewValidationError(opUpdateOne, "filter", "must not be empty")
	}
	if len(changes) == 0 {
		return 0, adapter.NewValidationError(opUpdateOne, "changes", "must not be empty")
	}

	n, err := m.strategy.updateOne(ctx, table, filter, changes)
	if err != nil {
		return 0, m.fail(opUpdateOne, table, err)
	}
	m.done(opUpdateOne, table, int(n))
	return n, nil
}

// DeleteOne removes at most one record matching filter and returns the
// number removed (0 or 1). An empty filter is refused.
func (m *Manager) DeleteOne(ctx context.Context, table string, filter Filter) (int64, error) {
	if err := m.check(opDeleteOne, table); err != nil {
		return 0, err
	}
	if len(filter) == 0 {
		return 0, adapter.NewValidationError(opDeleteOne, "filter", "must not be empty")
	}

	n, err := m.strategy.deleteOne(ctx, table, filter)
	if err != nil {
		return 0, m.fail(opDeleteOne, table, err)
	}
	m.done(opDeleteOne, table, int(n))
	return n, nil
}

func (m *Manager) check(op, table string) error {
	if strings.TrimSpace(table) == "" {
		return adapter.NewValidationError(op, "table", "must not be empty")
	}
	if !m.conn.IsConnected() {
		return adapter.NewValidationError(op, "connector", "connector is not connected")
	}
	return nil
}

func (m *Manager) logContext(op, table string) logger.DatabaseLogContext {
	return logger.DatabaseLogContext{
		DatabaseType: string(m.dbType),
		DatabaseID:   m.conn.Name(),
		Operation:    op,
		Table:        table,
	}
}

func (m *Manager) fail(op, table string, err error) error {
	m.dbLog.LogOperationFailure(m.logContext(op, table), err)
	return adapter.WrapError(m.dbType, op, table, err)
}

func (m *Manager) done(op, table string, affected int) {
	m.dbLog.LogOperationSuccess(m.logContext(op, table), affected)
}
