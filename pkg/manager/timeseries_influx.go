package manager

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/redbco/redb-connect/pkg/logger"
)

// influxStrategy maps tables to measurements. Each record is one point:
// the time field is the timestamp, configured tag columns become tags and
// every other value is a field. Updates rewrite the point in place.
type influxStrategy struct {
	client    influxdb2.Client
	org       string
	bucket    string
	timeField string
	tags      map[string]bool
	logger    *logger.Logger
}

func newInfluxStrategy(client influxdb2.Client, org, bucket, timeField string, tags []string, log *logger.Logger) *influxStrategy {
	if timeField == "" {
		timeField = "time"
	}
	tagSet := make(map[string]bool, len(tags))
	for _, t := range tags {
		tagSet[t] = true
	}
	return &influxStrategy{
		client:    client,
		org:       org,
		bucket:    bucket,
		timeField: timeField,
		tags:      tagSet,
		logger:    log,
	}
}

func (s *influxStrategy) point(table string, rec Record) (*write.Point, time.Time, error) {
	ts := time.Now().UTC()
	if v, ok := rec[s.timeField]; ok && v != nil {
		t, err := parseTimestamp(v)
		if err != nil {
			return nil, time.Time{}, fmt.Errorf("field %s: %w", s.timeField, err)
		}
		ts = t
	}

	tags := make(map[string]string)
	fields := make(map[string]interface{})
	for k, v := range rec {
		switch {
		case k == s.timeField || v == nil:
		case s.tags[k]:
			tags[k] = fmt.Sprint(v)
		default:
			fields[k] = influxField(v)
		}
	}
	if len(fields) == 0 {
		return nil, time.Time{}, fmt.Errorf("point for %s has no fields", table)
	}
	return influxdb2.NewPoint(table, tags, fields, ts), ts, nil
}

func (s *influxStrategy) insertOne(ctx context.Context, table string, rec Record) (InsertResult, error) {
	p, ts, err := s.point(table, rec)
	if err != nil {
		return InsertResult{}, err
	}
	if err := s.client.WriteAPIBlocking(s.org, s.bucket).WritePoint(ctx, p); err != nil {
		return InsertResult{}, fmt.Errorf("failed to write point: %w", err)
	}
	return InsertResult{ID: ts.Format(time.RFC3339Nano), Acknowledged: true}, nil
}

func (s *influxStrategy) insertMany(ctx context.Context, table string, recs []Record) (InsertManyResult, error) {
	return insertEach(ctx, table, recs, s.insertOne)
}

func (s *influxStrategy) findOne(ctx context.Context, table string, filter Filter) (Record, error) {
	recs, err := s.findAll(ctx, table, filter, 1)
	if err != nil {
		return nil, err
	}
	return firstOf(recs), nil
}

func (s *influxStrategy) findAll(ctx context.Context, table string, filter Filter, limit int) ([]Record, error) {
	query, err := s.flux(table, filter, limit)
	if err != nil {
		return nil, err
	}
	if s.logger != nil {
		s.logger.Debug("Flux query: %s", query)
	}

	result, err := s.client.QueryAPI(s.org).Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query points: %w", err)
	}
	defer result.Close()

	var out []Record
	for result.Next() {
		rec := Record{}
		for k, v := range result.Record().Values() {
			switch k {
			case "_time":
				rec[s.timeField] = v
			case "result", "table", "_start", "_stop", "_measurement":
			default:
				rec[k] = v
			}
		}
		out = append(out, rec)
	}
	if result.Err() != nil {
		return nil, fmt.Errorf("query error: %w", result.Err())
	}
	return out, nil
}

// flux renders a query that pivots fields into columns so filters can
// address them by name.
func (s *influxStrategy) flux(table string, filter Filter, limit int) (string, error) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "from(bucket: %s)\n", strconv.Quote(s.bucket))
	sb.WriteString("  |> range(start: 0)\n")
	fmt.Fprintf(&sb, "  |> filter(fn: (r) => r._measurement == %s)\n", strconv.Quote(table))
	sb.WriteString("  |> pivot(rowKey: [\"_time\"], columnKey: [\"_field\"], valueColumn: \"_value\")\n")
	sb.WriteString("  |> group()\n")

	for _, field := range sortedKeys(filter) {
		v := filter[field]
		col := "r[" + strconv.Quote(field) + "]"
		if field == s.timeField {
			col = "r._time"
		}
		if v == nil {
			fmt.Fprintf(&sb, "  |> filter(fn: (r) => not exists %s)\n", col)
			continue
		}
		lit, err := s.fluxLiteral(field, v)
		if err != nil {
			return "", err
		}
		fmt.Fprintf(&sb, "  |> filter(fn: (r) => %s == %s)\n", col, lit)
	}
	sb.WriteString("  |> sort(columns: [\"_time\"])\n")
	if limit > 0 {
		fmt.Fprintf(&sb, "  |> limit(n: %d)\n", limit)
	}
	return sb.String(), nil
}

func (s *influxStrategy) fluxLiteral(field string, v interface{}) (string, error) {
	if field == s.timeField {
		t, err := parseTimestamp(v)
		if err != nil {
			return "", fmt.Errorf("filter %s: %w", field, err)
		}
		return t.UTC().Format(time.RFC3339Nano), nil
	}
	switch val := v.(type) {
	case string:
		return strconv.Quote(val), nil
	case bool:
		return strconv.FormatBool(val), nil
	case float32, float64:
		return strconv.FormatFloat(toFloatOr(val), 'f', -1, 64), nil
	default:
		if _, ok := toFloat(val); ok {
			return fmt.Sprint(val), nil
		}
		return strconv.Quote(fmt.Sprint(val)), nil
	}
}

func (s *influxStrategy) updateOne(ctx context.Context, table string, filter Filter, changes Record) (int64, error) {
	rec, err := s.findOne(ctx, table, filter)
	if err != nil || rec == nil {
		return 0, err
	}
	ts := rec[s.timeField]
	tagsChanged := false
	for k, v := range changes {
		if k == s.timeField {
			continue
		}
		if s.tags[k] && fmt.Sprint(rec[k]) != fmt.Sprint(v) {
			tagsChanged = true
		}
	}

	// A different tag set is a different series; drop the old point first.
	if tagsChanged {
		if err := s.deletePoint(ctx, table, rec); err != nil {
			return 0, err
		}
	}
	for k, v := range changes {
		if k != s.timeField {
			rec[k] = v
		}
	}
	rec[s.timeField] = ts

	p, _, err := s.point(table, rec)
	if err != nil {
		return 0, err
	}
	if err := s.client.WriteAPIBlocking(s.org, s.bucket).WritePoint(ctx, p); err != nil {
		return 0, fmt.Errorf("failed to write point: %w", err)
	}
	return 1, nil
}

func (s *influxStrategy) deleteOne(ctx context.Context, table string, filter Filter) (int64, error) {
	rec, err := s.findOne(ctx, table, filter)
	if err != nil || rec == nil {
		return 0, err
	}
	if err := s.deletePoint(ctx, table, rec); err != nil {
		return 0, err
	}
	return 1, nil
}

// deletePoint removes the point at the record's timestamp in its series.
func (s *influxStrategy) deletePoint(ctx context.Context, table string, rec Record) error {
	ts, err := parseTimestamp(rec[s.timeField])
	if err != nil {
		return err
	}
	preds := []string{fmt.Sprintf("_measurement=%s", strconv.Quote(table))}
	tagNames := make([]string, 0, len(s.tags))
	for t := range s.tags {
		tagNames = append(tagNames, t)
	}
	sort.Strings(tagNames)
	for _, t := range tagNames {
		if v, ok := rec[t]; ok && v != nil {
			preds = append(preds, fmt.Sprintf("%s=%s", t, strconv.Quote(fmt.Sprint(v))))
		}
	}

	err = s.client.DeleteAPI().DeleteWithName(ctx, s.org, s.bucket, ts, ts.Add(time.Nanosecond), strings.Join(preds, " AND "))
	if err != nil {
		return fmt.Errorf("failed to delete data: %w", err)
	}
	return nil
}

func parseTimestamp(v interface{}) (time.Time, error) {
	switch t := v.(type) {
	case time.Time:
		return t, nil
	case string:
		return time.Parse(time.RFC3339Nano, t)
	case int64:
		return time.Unix(0, t).UTC(), nil
	case int:
		return time.Unix(0, int64(t)).UTC(), nil
	case float64:
		return time.Unix(0, int64(t)).UTC(), nil
	default:
		return time.Time{}, fmt.Errorf("unsupported timestamp %v (%T)", v, v)
	}
}

// influxField keeps scalars and encodes anything else as JSON text.
func influxField(v interface{}) interface{} {
	switch v.(type) {
	case string, bool, int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64, time.Time:
		return v
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprint(v)
		}
		return string(data)
	}
}

func toFloatOr(v interface{}) float64 {
	f, _ := toFloat(v)
	return f
}
