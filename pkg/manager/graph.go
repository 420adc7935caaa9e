package manager

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// graphStrategy maps tables to node labels and records to node properties.
type graphStrategy struct {
	driver   neo4j.DriverWithContext
	database string
	quote    string
}

func (s *graphStrategy) ident(name string) string {
	q := s.quote
	if q == "" {
		q = "`"
	}
	return q + strings.ReplaceAll(name, q, q+q) + q
}

// match renders MATCH (n:Label) WHERE n.f = $p0 ... and its parameters.
func (s *graphStrategy) match(table string, filter Filter) (string, map[string]interface{}) {
	var sb strings.Builder
	params := make(map[string]interface{}, len(filter))
	sb.WriteString("MATCH (n:" + s.ident(table) + ")")
	for i, field := range sortedKeys(filter) {
		if i == 0 {
			sb.WriteString(" WHERE ")
		} else {
			sb.WriteString(" AND ")
		}
		prop := "n." + s.ident(field)
		if filter[field] == nil {
			sb.WriteString(prop + " IS NULL")
			continue
		}
		name := fmt.Sprintf("p%d", i)
		sb.WriteString(prop + " = $" + name)
		params[name] = graphValue(filter[field])
	}
	return sb.String(), params
}

func (s *graphStrategy) run(ctx context.Context, mode neo4j.AccessMode, query string, params map[string]interface{}) ([]*neo4j.Record, error) {
	session := s.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: mode, DatabaseName: s.database})
	defer session.Close(ctx)

	work := func(tx neo4j.ManagedTransaction) (any, error) {
		result, err := tx.Run(ctx, query, params)
		if err != nil {
			return nil, err
		}
		return result.Collect(ctx)
	}

	var out any
	var err error
	if mode == neo4j.AccessModeRead {
		out, err = session.ExecuteRead(ctx, work)
	} else {
		out, err = session.ExecuteWrite(ctx, work)
	}
	if err != nil {
		return nil, err
	}
	return out.([]*neo4j.Record), nil
}

func (s *graphStrategy) insertOne(ctx context.Context, table string, rec Record) (InsertResult, error) {
	query := fmt.Sprintf("CREATE (n:%s) SET n = $properties RETURN elementId(n) AS id", s.ident(table))
	records, err := s.run(ctx, neo4j.AccessModeWrite, query, map[string]interface{}{"properties": graphProps(rec)})
	if err != nil {
		return InsertResult{}, err
	}
	var id interface{}
	if len(records) > 0 {
		id, _ = records[0].Get("id")
	}
	return InsertResult{ID: id, Acknowledged: true}, nil
}

func (s *graphStrategy) insertMany(ctx context.Context, table string, recs []Record) (InsertManyResult, error) {
	return insertEach(ctx, table, recs, s.insertOne)
}

func (s *graphStrategy) findOne(ctx context.Context, table string, filter Filter) (Record, error) {
	recs, err := s.findAll(ctx, table, filter, 1)
	if err != nil {
		return nil, err
	}
	return firstOf(recs), nil
}

func (s *graphStrategy) findAll(ctx context.Context, table string, filter Filter, limit int) ([]Record, error) {
	query, params := s.match(table, filter)
	query += " RETURN n"
	if limit > 0 {
		query += " LIMIT $limit"
		params["limit"] = int64(limit)
	}

	records, err := s.run(ctx, neo4j.AccessModeRead, query, params)
	if err != nil {
		return nil, err
	}
	out := make([]Record, 0, len(records))
	for _, r := range records {
		v, ok := r.Get("n")
		if !ok {
			continue
		}
		if node, ok := v.(neo4j.Node); ok {
			out = append(out, Record(node.Props))
		}
	}
	return out, nil
}

func (s *graphStrategy) updateOne(ctx context.Context, table string, filter Filter, changes Record) (int64, error) {
	query, params := s.match(table, filter)
	query += " WITH n LIMIT 1 SET n += $changes RETURN count(n) AS affected"
	params["changes"] = graphProps(changes)
	return s.affected(ctx, query, params)
}

func (s *graphStrategy) deleteOne(ctx context.Context, table string, filter Filter) (int64, error) {
	query, params := s.match(table, filter)
	query += " WITH n LIMIT 1 DETACH DELETE n RETURN count(n) AS affected"
	return s.affected(ctx, query, params)
}

func (s *graphStrategy) affected(ctx context.Context, query string, params map[string]interface{}) (int64, error) {
	records, err := s.run(ctx, neo4j.AccessModeWrite, query, params)
	if err != nil || len(records) == 0 {
		return 0, err
	}
	v, _ := records[0].Get("affected")
	n, _ := v.(int64)
	return n, nil
}

// graphProps flattens nested maps to JSON; node properties only hold
// scalars and lists of scalars.
func graphProps(rec Record) map[string]interface{} {
	props := make(map[string]interface{}, len(rec))
	for k, v := range rec {
		props[k] = graphValue(v)
	}
	return props
}

func graphValue(v interface{}) interface{} {
	if m, ok := v.(map[string]interface{}); ok {
		data, err := json.Marshal(m)
		if err != nil {
			return fmt.Sprint(m)
		}
		return string(data)
	}
	return v
}
