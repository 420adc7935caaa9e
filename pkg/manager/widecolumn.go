package manager

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/gocql/gocql"

	"github.com/redbco/redb-connect/pkg/adapter"
	"github.com/redbco/redb-connect/pkg/catalog"
)

// cqlStrategy serves Cassandra and ScyllaDB. Writes address rows by their
// full primary key, so update and delete read the first match first.
// Null filter values are checked client side.
type cqlStrategy struct {
	session        *gocql.Session
	keyspace       string
	dialect        sqlDialect
	allowFiltering bool

	mu   sync.RWMutex
	keys map[string][]string
}

func newCQLStrategy(session *gocql.Session, keyspace string, syntax catalog.QuerySyntax) *cqlStrategy {
	return &cqlStrategy{
		session:        session,
		keyspace:       keyspace,
		dialect:        newSQLDialect(syntax),
		allowFiltering: syntax.AllowFiltering,
		keys:           make(map[string][]string),
	}
}

// split returns keyspace and table for "ks.table" or "table".
func (s *cqlStrategy) split(table string) (string, string) {
	if i := strings.Index(table, "."); i >= 0 {
		return table[:i], table[i+1:]
	}
	return s.keyspace, table
}

func (s *cqlStrategy) qualified(table string) string {
	ks, name := s.split(table)
	if ks == "" {
		return s.dialect.ident(name)
	}
	return s.dialect.ident(ks) + "." + s.dialect.ident(name)
}

// primaryKey lists partition key columns followed by clustering columns.
func (s *cqlStrategy) primaryKey(table string) ([]string, error) {
	s.mu.RLock()
	cached, ok := s.keys[table]
	s.mu.RUnlock()
	if ok {
		return cached, nil
	}

	ks, name := s.split(table)
	if ks == "" {
		return nil, fmt.Errorf("no keyspace for table %s", table)
	}
	meta, err := s.session.KeyspaceMetadata(ks)
	if err != nil {
		return nil, err
	}
	tm, ok := meta.Tables[name]
	if !ok {
		return nil, fmt.Errorf("table %s.%s not found", ks, name)
	}
	keys := make([]string, 0, len(tm.PartitionKey)+len(tm.ClusteringColumns))
	for _, c := range tm.PartitionKey {
		keys = append(keys, c.Name)
	}
	for _, c := range tm.ClusteringColumns {
		keys = append(keys, c.Name)
	}

	s.mu.Lock()
	s.keys[table] = keys
	s.mu.Unlock()
	return keys, nil
}

func (s *cqlStrategy) insertOne(ctx context.Context, table string, rec Record) (InsertResult, error) {
	cols := sortedKeys(rec)
	quoted := make([]string, len(cols))
	marks := make([]string, len(cols))
	args := make([]interface{}, len(cols))
	for i, c := range cols {
		quoted[i] = s.dialect.ident(c)
		marks[i] = "?"
		args[i] = rec[c]
	}
	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		s.qualified(table), strings.Join(quoted, ", "), strings.Join(marks, ", "))
	if err := s.session.Query(query, args...).WithContext(ctx).Exec(); err != nil {
		return InsertResult{}, err
	}

	var id interface{}
	if keys, err := s.primaryKey(table); err == nil {
		id = itemID(rec, keys)
	}
	return InsertResult{ID: id, Acknowledged: true}, nil
}

func (s *cqlStrategy) insertMany(ctx context.Context, table string, recs []Record) (InsertManyResult, error) {
	return insertEach(ctx, table, recs, s.insertOne)
}

func (s *cqlStrategy) findOne(ctx context.Context, table string, filter Filter) (Record, error) {
	rows, err := s.findAll(ctx, table, filter, 1)
	if err != nil {
		return nil, err
	}
	return firstOf(rows), nil
}

func (s *cqlStrategy) findAll(ctx context.Context, table string, filter Filter, limit int) ([]Record, error) {
	var (
		conds    []string
		args     []interface{}
		nullOnly = Filter{}
	)
	for _, field := range sortedKeys(filter) {
		if filter[field] == nil {
			nullOnly[field] = nil
			continue
		}
		conds = append(conds, s.dialect.ident(field)+" = ?")
		args = append(args, filter[field])
	}

	query := "SELECT * FROM " + s.qualified(table)
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	// Null checks happen after the fetch, so LIMIT only applies without them.
	if limit > 0 && len(nullOnly) == 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}
	if s.allowFiltering && len(conds) > 0 {
		query += " ALLOW FILTERING"
	}

	iter := s.session.Query(query, args...).WithContext(ctx).Iter()
	var out []Record
	for {
		row := make(map[string]interface{})
		if !iter.MapScan(row) {
			break
		}
		rec := cqlRecord(row)
		if !matches(rec, nullOnly) {
			continue
		}
		out = append(out, rec)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	if err := iter.Close(); err != nil {
		return nil, err
	}
	return out, nil
}

func cqlRecord(row map[string]interface{}) Record {
	for k, v := range row {
		switch val := v.(type) {
		case gocql.UUID:
			row[k] = val.String()
		case *gocql.UUID:
			if val != nil {
				row[k] = val.String()
			}
		}
	}
	return row
}

// keyCondition renders the WHERE clause addressing one row.
func (s *cqlStrategy) keyCondition(row Record, keys []string) (string, []interface{}) {
	conds := make([]string, len(keys))
	args := make([]interface{}, len(keys))
	for i, k := range keys {
		conds[i] = s.dialect.ident(k) + " = ?"
		args[i] = row[k]
	}
	return strings.Join(conds, " AND "), args
}

func (s *cqlStrategy) updateOne(ctx context.Context, table string, filter Filter, changes Record) (int64, error) {
	keys, err := s.primaryKey(table)
	if err != nil {
		return 0, err
	}
	for _, k := range keys {
		if _, ok := changes[k]; ok {
			return 0, adapter.NewValidationError(opUpdateOne, k, "primary key columns cannot be changed")
		}
	}

	row, err := s.findOne(ctx, table, filter)
	if err != nil || row == nil {
		return 0, err
	}

	sets := make([]string, 0, len(changes))
	args := make([]interface{}, 0, len(changes)+len(keys))
	for _, field := range sortedKeys(changes) {
		sets = append(sets, s.dialect.ident(field)+" = ?")
		args = append(args, changes[field])
	}
	where, keyArgs := s.keyCondition(row, keys)
	args = append(args, keyArgs...)

	query := fmt.Sprintf("UPDATE %s SET %s WHERE %s", s.qualified(table), strings.Join(sets, ", "), where)
	if err := s.session.Query(query, args...).WithContext(ctx).Exec(); err != nil {
		return 0, err
	}
	return 1, nil
}

func (s *cqlStrategy) deleteOne(ctx context.Context, table string, filter Filter) (int64, error) {
	keys, err := s.primaryKey(table)
	if err != nil {
		return 0, err
	}
	row, err := s.findOne(ctx, table, filter)
	if err != nil || row == nil {
		return 0, err
	}

	where, args := s.keyCondition(row, keys)
	query := fmt.Sprintf("DELETE FROM %s WHERE %s", s.qualified(table), where)
	if err := s.session.Query(query, args...).WithContext(ctx).Exec(); err != nil {
		return 0, err
	}
	return 1, nil
}
