// Package commands implements the redb-connect subcommands against an
// io.Writer so they can be driven from cobra and from tests alike.
package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"regexp"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/redbco/redb-connect/pkg/adapter"
	"github.com/redbco/redb-connect/pkg/catalog"
	"github.com/redbco/redb-connect/pkg/connector"
	"github.com/redbco/redb-connect/pkg/health"
	"github.com/redbco/redb-connect/pkg/logger"
	"github.com/redbco/redb-connect/pkg/manager"
)

// Env carries what every command needs.
type Env struct {
	Catalog      *catalog.Catalog
	Lookup       catalog.Lookup
	Logger       *logger.Logger
	Registry     *adapter.Registry
	Timeout      time.Duration
	DefaultLimit int
	Out          io.Writer
}

func (e *Env) connectorOptions() []connector.Option {
	opts := []connector.Option{connector.WithLookup(e.Lookup)}
	if e.Logger != nil {
		opts = append(opts, connector.WithLogger(e.Logger))
	}
	if e.Registry != nil {
		opts = append(opts, connector.WithRegistry(e.Registry))
	}
	if e.Timeout > 0 {
		opts = append(opts, connector.WithConnectTimeout(e.Timeout))
	}
	return opts
}

// withManager opens id, builds a manager and closes the connection afterwards.
func (e *Env) withManager(ctx context.Context, id string, fn func(*manager.Manager) error) error {
	return connector.With(ctx, e.Catalog, id, func(c *connector.Connector) error {
		opts := []manager.Option{}
		if e.DefaultLimit > 0 {
			opts = append(opts, manager.WithDefaultLimit(e.DefaultLimit))
		}
		if e.Logger != nil {
			opts = append(opts, manager.WithLogger(e.Logger))
		}
		m, err := manager.New(c, opts...)
		if err != nil {
			return err
		}
		return fn(m)
	}, e.connectorOptions()...)
}

func (e *Env) registry() *adapter.Registry {
	if e.Registry != nil {
		return e.Registry
	}
	return adapter.GlobalRegistry()
}

// List prints every catalog entry with its category, driver and whether the
// driver is linked into this binary.
func List(env *Env) error {
	names := env.Catalog.Names()
	if len(names) == 0 {
		fmt.Fprintln(env.Out, "No databases found.")
		return nil
	}

	w := tabwriter.NewWriter(env.Out, 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "NAME\tCATEGORY\tDRIVER\tENGINE\tREGISTERED")
	for _, name := range names {
		cfg, err := env.Catalog.Get(name)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%t\n", cfg.Name, cfg.Category, cfg.Driver, cfg.Engine, env.registry().IsRegistered(cfg.Driver))
	}
	return w.Flush()
}

var secretParam = regexp.MustCompile(`(?i)pass|secret|token|credential|pwd|api_?key|account_?key|private_?key|^key$`)

const masked = "********"

// MaskParams resolves the parameters of cfg and hides secret values. When a
// placeholder cannot be resolved the raw template is shown instead.
func MaskParams(cfg catalog.DatabaseConfig, lookup catalog.Lookup) map[string]interface{} {
	params, err := cfg.Resolve(lookup, nil)
	if err != nil {
		params = cfg.ConnectionParams
	}
	out := make(map[string]interface{}, len(params))
	for _, p := range params {
		if secretParam.MatchString(p.Name) && adapter.ValueString(p.Value) != "" {
			out[p.Name] = masked
			continue
		}
		out[p.Name] = p.Value
	}
	return out
}

type showOutput struct {
	Name             string                 `json:"name"`
	Category         string                 `json:"category"`
	Driver           string                 `json:"driver"`
	Engine           string                 `json:"engine,omitempty"`
	DefaultPort      int                    `json:"default_port,omitempty"`
	ConnectionParams map[string]interface{} `json:"connection_params"`
	Features         []string               `json:"features,omitempty"`
	QuerySyntax      catalog.QuerySyntax    `json:"query_syntax"`
}

// Show prints one catalog entry as JSON with secrets masked.
func Show(env *Env, id string) error {
	cfg, err := env.Catalog.Get(id)
	if err != nil {
		return err
	}
	return writeJSON(env.Out, showOutput{
		Name:             cfg.Name,
		Category:         string(cfg.Category),
		Driver:           cfg.Driver,
		Engine:           string(cfg.Engine),
		DefaultPort:      cfg.DefaultPort,
		ConnectionParams: MaskParams(cfg, env.Lookup),
		Features:         cfg.Features,
		QuerySyntax:      cfg.QuerySyntax,
	})
}

// Ping connects to id, checks the connection and reports the round trip.
func Ping(ctx context.Context, env *Env, id string) error {
	start := time.Now()
	return connector.With(ctx, env.Catalog, id, func(c *connector.Connector) error {
		if err := c.Ping(ctx); err != nil {
			return err
		}
		fmt.Fprintf(env.Out, "%s is reachable (%s, %s) in %s\n",
			c.Name(), c.Category(), c.DatabaseType(), time.Since(start).Round(time.Millisecond))
		return nil
	}, env.connectorOptions()...)
}

// Health pings every id (all catalog entries when ids is empty) with at
// most parallel connections open, prints one line per database and fails
// unless all of them answered.
func Health(ctx context.Context, env *Env, ids []string, parallel int) error {
	if len(ids) == 0 {
		ids = env.Catalog.Names()
	}
	checks := make(map[string]health.CheckFunc, len(ids))
	for _, id := range ids {
		checks[id] = func(ctx context.Context) error {
			return connector.With(ctx, env.Catalog, id, func(c *connector.Connector) error {
				return c.Ping(ctx)
			}, env.connectorOptions()...)
		}
	}

	checker := health.NewChecker()
	checker.RunAll(ctx, checks, parallel)

	w := tabwriter.NewWriter(env.Out, 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "NAME\tSTATUS\tTIME\tMESSAGE")
	for _, c := range checker.GetAllChecks() {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", c.Name, c.Status, c.Duration.Round(time.Millisecond), c.Message)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	if status := checker.GetOverallStatus(); status != health.StatusHealthy {
		return fmt.Errorf("databases are %s", status)
	}
	return nil
}

type insertManyOutput struct {
	Inserted int           `json:"inserted"`
	IDs      []interface{} `json:"ids"`
	Failed   []failure     `json:"failed,omitempty"`
}

type failure struct {
	Index int    `json:"index"`
	Error string `json:"error"`
}

// Insert stores records in table. A single record goes through InsertOne.
func Insert(ctx context.Context, env *Env, id, table string, records []manager.Record) error {
	return env.withManager(ctx, id, func(m *manager.Manager) error {
		if len(records) == 1 {
			res, err := m.InsertOne(ctx, table, records[0])
			if err != nil {
				return err
			}
			return writeJSON(env.Out, res)
		}

		res, err := m.InsertMany(ctx, table, records)
		if err != nil {
			return err
		}
		out := insertManyOutput{Inserted: res.Inserted(), IDs: res.IDs()}
		for _, f := range res.Failed() {
			out.Failed = append(out.Failed, failure{Index: f.Index, Error: f.Err.Error()})
		}
		if err := writeJSON(env.Out, out); err != nil {
			return err
		}
		if len(out.Failed) > 0 {
			return fmt.Errorf("%d of %d records failed", len(out.Failed), len(records))
		}
		return nil
	})
}

// Find prints up to limit matching records as a JSON array.
func Find(ctx context.Context, env *Env, id, table string, filter manager.Filter, limit int) error {
	return env.withManager(ctx, id, func(m *manager.Manager) error {
		recs, err := m.FindAll(ctx, table, filter, limit)
		if err != nil {
			return err
		}
		return writeJSON(env.Out, recs)
	})
}

// FindOne prints the first matching record, or null.
func FindOne(ctx context.Context, env *Env, id, table string, filter manager.Filter) error {
	return env.withManager(ctx, id, func(m *manager.Manager) error {
		rec, err := m.FindOne(ctx, table, filter)
		if err != nil {
			return err
		}
		return writeJSON(env.Out, rec)
	})
}

type affectedOutput struct {
	Affected int64 `json:"affected"`
}

// Update changes the first record matching filter.
func Update(ctx context.Context, env *Env, id, table string, filter manager.Filter, changes manager.Record) error {
	return env.withManager(ctx, id, func(m *manager.Manager) error {
		n, err := m.UpdateOne(ctx, table, filter, changes)
		if err != nil {
			return err
		}
		return writeJSON(env.Out, affectedOutput{Affected: n})
	})
}

// Delete removes the first record matching filter.
func Delete(ctx context.Context, env *Env, id, table string, filter manager.Filter) error {
	return env.withManager(ctx, id, func(m *manager.Manager) error {
		n, err := m.DeleteOne(ctx, table, filter)
		if err != nil {
			return err
		}
		return writeJSON(env.Out, affectedOutput{Affected: n})
	})
}

// ParseRecords decodes a JSON object or an array of objects.
func ParseRecords(data string) ([]manager.Record, error) {
	trimmed := strings.TrimSpace(data)
	if trimmed == "" {
		return nil, fmt.Errorf("no record given")
	}
	dec := json.NewDecoder(strings.NewReader(trimmed))
	dec.UseNumber()

	if strings.HasPrefix(trimmed, "[") {
		var recs []manager.Record
		if err := dec.Decode(&recs); err != nil {
			return nil, fmt.Errorf("invalid records: %w", err)
		}
		if len(recs) == 0 {
			return nil, fmt.Errorf("no record given")
		}
		for i := range recs {
			recs[i] = normalize(recs[i])
		}
		return recs, nil
	}

	var rec manager.Record
	if err := dec.Decode(&rec); err != nil {
		return nil, fmt.Errorf("invalid record: %w", err)
	}
	return []manager.Record{normalize(rec)}, nil
}

// ParseFilter decodes a JSON object. An empty string is an empty filter.
func ParseFilter(data string) (manager.Filter, error) {
	if strings.TrimSpace(data) == "" {
		return manager.Filter{}, nil
	}
	recs, err := ParseRecords(data)
	if err != nil {
		return nil, err
	}
	if len(recs) != 1 {
		return nil, fmt.Errorf("filter must be a single JSON object")
	}
	return recs[0], nil
}

// ParseAssignments turns key=value pairs into a record. Values that parse
// as JSON (numbers, booleans, null, quoted strings) keep their type.
func ParseAssignments(pairs []string) (manager.Record, error) {
	rec := make(manager.Record, len(pairs))
	for _, pair := range pairs {
		k, v, ok := strings.Cut(pair, "=")
		if !ok || strings.TrimSpace(k) == "" {
			return nil, fmt.Errorf("expected key=value, got %q", pair)
		}
		var decoded interface{}
		dec := json.NewDecoder(strings.NewReader(v))
		dec.UseNumber()
		if err := dec.Decode(&decoded); err == nil && !dec.More() {
			rec[strings.TrimSpace(k)] = normalizeValue(decoded)
		} else {
			rec[strings.TrimSpace(k)] = v
		}
	}
	return rec, nil
}

// normalize turns json.Number into int64 when integral, float64 otherwise.
func normalize(rec manager.Record) manager.Record {
	for k, v := range rec {
		rec[k] = normalizeValue(v)
	}
	return rec
}

func normalizeValue(v interface{}) interface{} {
	switch val := v.(type) {
	case json.Number:
		if i, err := val.Int64(); err == nil {
			return i
		}
		f, _ := val.Float64()
		return f
	case map[string]interface{}:
		return normalize(val)
	case []interface{}:
		for i := range val {
			val[i] = normalizeValue(val[i])
		}
		return val
	default:
		return v
	}
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(jsonSafe(v))
}

// jsonSafe converts byte slices to strings so records read from SQL drivers
// print as text rather than base64.
func jsonSafe(v interface{}) interface{} {
	switch val := v.(type) {
	case []manager.Record:
		out := make([]manager.Record, len(val))
		for i, r := range val {
			out[i] = jsonSafe(r).(manager.Record)
		}
		return out
	case manager.Record:
		if val == nil {
			return val
		}
		out := make(manager.Record, len(val))
		for k, fv := range val {
			out[k] = jsonSafe(fv)
		}
		return out
	case []byte:
		return string(val)
	default:
		return v
	}
}
