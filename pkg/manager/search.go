package manager

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// searchStrategy maps tables to indices and records to documents. The
// document id is reported in the "_id" field.
type searchStrategy struct {
	backend searchBackend
}

type searchHits struct {
	Hits struct {
		Hits []struct {
			ID     string                 `json:"_id"`
			Source map[string]interface{} `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

func (s *searchStrategy) insertOne(ctx context.Context, table string, rec Record) (InsertResult, error) {
	doc := cloneRecord(rec)
	var id string
	if v, ok := doc["_id"]; ok {
		if v != nil {
			id = fmt.Sprint(v)
		}
		delete(doc, "_id")
	}

	body, err := json.Marshal(doc)
	if err != nil {
		return InsertResult{}, fmt.Errorf("encode document: %w", err)
	}
	status, resp, err := s.backend.index(ctx, table, id, body)
	if err != nil {
		return InsertResult{}, err
	}
	if status >= 300 {
		return InsertResult{}, searchError("index", status, resp)
	}

	var out struct {
		ID string `json:"_id"`
	}
	if err := json.Unmarshal(resp, &out); err != nil {
		return InsertResult{}, fmt.Errorf("decode index response: %w", err)
	}
	return InsertResult{ID: out.ID, Acknowledged: true}, nil
}

func (s *searchStrategy) insertMany(ctx context.Context, table string, recs []Record) (InsertManyResult, error) {
	return insertEach(ctx, table, recs, s.insertOne)
}

func (s *searchStrategy) findOne(ctx context.Context, table string, filter Filter) (Record, error) {
	recs, err := s.findAll(ctx, table, filter, 1)
	if err != nil {
		return nil, err
	}
	return firstOf(recs), nil
}

// Search pages are fetched until limit exact matches are found. Reads past
// the default index.max_result_window are rejected by the server, so paging
// stops there.
const (
	searchPageSize  = 100
	searchMaxWindow = 10000
)

// findAll runs a bool query and keeps only exact matches, since analyzed
// text fields also hit partial values. Loose hits ranked ahead of exact
// ones are skipped by paging further.
func (s *searchStrategy) findAll(ctx context.Context, table string, filter Filter, limit int) ([]Record, error) {
	size := searchPageSize
	if limit > 0 && limit < size {
		size = limit
	}

	var out []Record
	for from := 0; from+size <= searchMaxWindow; from += size {
		hits, err := s.page(ctx, table, searchQuery(filter, from, size))
		if err != nil || hits == nil {
			return out, err
		}
		for _, hit := range hits.Hits.Hits {
			rec := Record{}
			for k, v := range hit.Source {
				rec[k] = v
			}
			rec["_id"] = hit.ID
			if !matches(rec, filter) {
				continue
			}
			out = append(out, rec)
			if limit > 0 && len(out) >= limit {
				return out, nil
			}
		}
		if len(hits.Hits.Hits) < size {
			break
		}
	}
	return out, nil
}

// page runs one search request. A missing index yields nil hits.
func (s *searchStrategy) page(ctx context.Context, table string, q map[string]interface{}) (*searchHits, error) {
	query, err := json.Marshal(q)
	if err != nil {
		return nil, fmt.Errorf("encode query: %w", err)
	}
	status, resp, err := s.backend.search(ctx, table, query)
	if err != nil {
		return nil, err
	}
	if status == http.StatusNotFound {
		return nil, nil
	}
	if status >= 300 {
		return nil, searchError("search", status, resp)
	}

	var hits searchHits
	if err := decodeJSON(resp, &hits); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}
	for _, hit := range hits.Hits.Hits {
		normalizeRecord(hit.Source)
	}
	return &hits, nil
}

// searchQuery builds a bool query. Strings are matched as a term on the
// keyword sub-field, a term on the field itself or a phrase, so exact
// values rank ahead of longer texts that contain them.
func searchQuery(filter Filter, from, size int) map[string]interface{} {
	q := map[string]interface{}{"size": size}
	if from > 0 {
		q["from"] = from
	}
	if len(filter) == 0 {
		q["query"] = map[string]interface{}{"match_all": map[string]interface{}{}}
		return q
	}

	var must, mustNot []interface{}
	for _, field := range sortedKeys(filter) {
		v := filter[field]
		switch val := v.(type) {
		case nil:
			mustNot = append(mustNot, map[string]interface{}{"exists": map[string]interface{}{"field": field}})
		case string:
			if field == "_id" {
				must = append(must, map[string]interface{}{"ids": map[string]interface{}{"values": []string{val}}})
				continue
			}
			must = append(must, map[string]interface{}{"bool": map[string]interface{}{
				"should": []interface{}{
					map[string]interface{}{"term": map[string]interface{}{field + ".keyword": val}},
					map[string]interface{}{"term": map[string]interface{}{field: val}},
					map[string]interface{}{"match_phrase": map[string]interface{}{field: val}},
				},
				"minimum_should_match": 1,
			}})
		default:
			if field == "_id" {
				must = append(must, map[string]interface{}{"ids": map[string]interface{}{"values": []string{fmt.Sprint(v)}}})
				continue
			}
			must = append(must, map[string]interface{}{"term": map[string]interface{}{field: v}})
		}
	}
	boolQuery := map[string]interface{}{}
	if len(must) > 0 {
		boolQuery["must"] = must
	}
	if len(mustNot) > 0 {
		boolQuery["must_not"] = mustNot
	}
	q["query"] = map[string]interface{}{"bool": boolQuery}
	return q
}

func (s *searchStrategy) updateOne(ctx context.Context, table string, filter Filter, changes Record) (int64, error) {
	rec, err := s.findOne(ctx, table, filter)
	if err != nil || rec == nil {
		return 0, err
	}
	doc := cloneRecord(changes)
	delete(doc, "_id")

	body, err := json.Marshal(map[string]interface{}{"doc": doc})
	if err != nil {
		return 0, fmt.Errorf("encode update: %w", err)
	}
	status, resp, err := s.backend.update(ctx, table, fmt.Sprint(rec["_id"]), body)
	if err != nil {
		return 0, err
	}
	if status == http.StatusNotFound {
		return 0, nil
	}
	if status >= 300 {
		return 0, searchError("update", status, resp)
	}
	return 1, nil
}

func (s *searchStrategy) deleteOne(ctx context.Context, table string, filter Filter) (int64, error) {
	rec, err := s.findOne(ctx, table, filter)
	if err != nil || rec == nil {
		return 0, err
	}
	status, resp, err := s.backend.delete(ctx, table, fmt.Sprint(rec["_id"]))
	if err != nil {
		return 0, err
	}
	if status == http.StatusNotFound {
		return 0, nil
	}
	if status >= 300 {
		return 0, searchError("delete", status, resp)
	}
	return 1, nil
}

func searchError(op string, status int, body []byte) error {
	var e struct {
		Error struct {
			Type   string `json:"type"`
			Reason string `json:"reason"`
		} `json:"error"`
	}
	if json.Unmarshal(body, &e) == nil && e.Error.Reason != "" {
		return fmt.Errorf("%s failed with status %d: %s: %s", op, status, e.Error.Type, e.Error.Reason)
	}
	return fmt.Errorf("%s failed with status %d", op, status)
}
