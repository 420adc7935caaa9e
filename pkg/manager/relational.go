package manager

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/redbco/redb-connect/pkg/adapter"
	"github.com/redbco/redb-connect/pkg/catalog"
	"github.com/redbco/redb-connect/pkg/dbcapabilities"
)

// relationalStrategy serves relational, columnar and SQL time-series stores.
type relationalStrategy struct {
	db      *sqlx.DB
	dialect sqlDialect
	hasTx   bool
}

func newRelationalStrategy(db *sql.DB, driver string, syntax catalog.QuerySyntax, hasTx bool) *relationalStrategy {
	return &relationalStrategy{
		db:      sqlx.NewDb(db, driver),
		dialect: newSQLDialect(syntax),
		hasTx:   hasTx,
	}
}

func (s *relationalStrategy) insertOne(ctx context.Context, table string, rec Record) (InsertResult, error) {
	return s.insert(ctx, s.db, table, rec)
}

// insertMany runs every insert in one transaction and rolls back on the
// first failure.
func (s *relationalStrategy) insertMany(ctx context.Context, table string, recs []Record) (InsertManyResult, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return InsertManyResult{}, fmt.Errorf("begin transaction: %w", err)
	}

	res := InsertManyResult{Results: make([]RecordResult, 0, len(recs))}
	for i, rec := range recs {
		one, err := s.insert(ctx, tx, table, rec)
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				return InsertManyResult{}, fmt.Errorf("record %d: %w (rollback failed: %v)", i, err, rbErr)
			}
			return InsertManyResult{}, fmt.Errorf("record %d: %w", i, err)
		}
		res.Results = append(res.Results, RecordResult{Index: i, ID: one.ID})
	}

	if err := tx.Commit(); err != nil {
		return InsertManyResult{}, fmt.Errorf("%w: %v", adapter.ErrTransactionFailed, err)
	}
	return res, nil
}

func (s *relationalStrategy) insert(ctx context.Context, ext sqlx.ExtContext, table string, rec Record) (InsertResult, error) {
	query, args := s.dialect.insert(table, rec)
	supplied := rec[s.dialect.keyField]

	switch s.dialect.insertID {
	case dbcapabilities.InsertIDReturning, dbcapabilities.InsertIDOutput:
		rows, err := queryRows(ctx, ext, query, args)
		if err != nil {
			return InsertResult{}, err
		}
		id := supplied
		if len(rows) > 0 {
			if v, ok := lookupField(rows[0], s.dialect.keyField); ok {
				id = v
			}
		}
		return InsertResult{ID: id, Acknowledged: true}, nil

	case dbcapabilities.InsertIDLastInsert:
		result, err := ext.ExecContext(ctx, query, args...)
		if err != nil {
			return InsertResult{}, err
		}
		if supplied != nil {
			return InsertResult{ID: supplied, Acknowledged: true}, nil
		}
		id, err := result.LastInsertId()
		if err != nil {
			return InsertResult{Acknowledged: true}, nil
		}
		return InsertResult{ID: id, Acknowledged: true}, nil

	default:
		if _, err := ext.ExecContext(ctx, query, args...); err != nil {
			return InsertResult{}, err
		}
		return InsertResult{ID: supplied, Acknowledged: true}, nil
	}
}

func (s *relationalStrategy) findOne(ctx context.Context, table string, filter Filter) (Record, error) {
	recs, err := s.findAll(ctx, table, filter, 1)
	if err != nil {
		return nil, err
	}
	return firstOf(recs), nil
}

func (s *relationalStrategy) findAll(ctx context.Context, table string, filter Filter, limit int) ([]Record, error) {
	query, args := s.dialect.selectRows(table, filter, limit)
	return queryRows(ctx, s.db, query, args)
}

func (s *relationalStrategy) updateOne(ctx context.Context, table string, filter Filter, changes Record) (int64, error) {
	return s.execOne(ctx, table, filter, func(f Filter) (string, []interface{}) {
		return s.dialect.update(table, f, changes)
	})
}

func (s *relationalStrategy) deleteOne(ctx context.Context, table string, filter Filter) (int64, error) {
	return s.execOne(ctx, table, filter, func(f Filter) (string, []interface{}) {
		return s.dialect.delete(table, f)
	})
}

// execOne runs a statement that touches the first row matching filter.
// Stores without a row-restricting syntax are guarded: the first match is
// read and the statement is rerun against that row only, inside a
// transaction when the store has them. Rows that cannot be told apart are
// refused with ErrAmbiguousMatch.
func (s *relationalStrategy) execOne(ctx context.Context, table string, filter Filter, build func(Filter) (string, []interface{})) (int64, error) {
	if s.dialect.singleRow != dbcapabilities.SingleRowGuarded {
		query, args := build(filter)
		return execAffected(ctx, s.db, query, args)
	}

	if !s.hasTx {
		target, err := s.pin(ctx, s.db, table, filter)
		if err != nil || target == nil {
			return 0, err
		}
		n, err := s.count(ctx, s.db, table, target)
		if err != nil {
			return 0, err
		}
		if n > 1 {
			return 0, fmt.Errorf("%w: %d identical rows in %s", adapter.ErrAmbiguousMatch, n, table)
		}
		query, args := build(target)
		return execAffected(ctx, s.db, query, args)
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	target, err := s.pin(ctx, tx, table, filter)
	if err != nil || target == nil {
		_ = tx.Rollback()
		return 0, err
	}
	query, args := build(target)
	n, err := execAffected(ctx, tx, query, args)
	if err == nil && n > 1 {
		err = fmt.Errorf("%w: %d identical rows in %s", adapter.ErrAmbiguousMatch, n, table)
	}
	if err != nil {
		_ = tx.Rollback()
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("%w: %v", adapter.ErrTransactionFailed, err)
	}
	return n, nil
}

// pin narrows filter to the first matching row: by its key column when the
// row has one, otherwise by every column. Returns nil when nothing matches.
func (s *relationalStrategy) pin(ctx context.Context, q sqlx.QueryerContext, table string, filter Filter) (Filter, error) {
	query, args := s.dialect.selectRows(table, filter, 1)
	rows, err := queryRows(ctx, q, query, args)
	if err != nil || len(rows) == 0 {
		return nil, err
	}
	row := rows[0]

	target := cloneRecord(filter)
	for col, v := range row {
		if strings.EqualFold(col, s.dialect.keyField) && v != nil {
			target[col] = v
			return target, nil
		}
	}
	for col, v := range row {
		target[col] = v
	}
	return target, nil
}

func (s *relationalStrategy) count(ctx context.Context, q sqlx.QueryerContext, table string, filter Filter) (int64, error) {
	query, args := s.dialect.count(table, filter)
	var n int64
	if err := q.QueryRowxContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

func execAffected(ctx context.Context, ext sqlx.ExecerContext, query string, args []interface{}) (int64, error) {
	res, err := ext.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return n, nil
}

func queryRows(ctx context.Context, q sqlx.QueryerContext, query string, args []interface{}) ([]Record, error) {
	rows, err := q.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	types, err := rows.ColumnTypes()
	if err != nil {
		return nil, err
	}
	typeNames := make(map[string]string, len(types))
	for _, ct := range types {
		typeNames[ct.Name()] = ct.DatabaseTypeName()
	}

	var out []Record
	for rows.Next() {
		row := make(map[string]interface{}, len(types))
		if err := rows.MapScan(row); err != nil {
			return nil, err
		}
		for k, v := range row {
			row[k] = columnValue(v, typeNames[k])
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// lookupField finds a column case-insensitively; Oracle and Db2 fold
// unquoted names to upper case.
func lookupField(rec Record, field string) (interface{}, bool) {
	if v, ok := rec[field]; ok {
		return v, true
	}
	for k, v := range rec {
		if strings.EqualFold(k, field) {
			return v, true
		}
	}
	return nil, false
}
