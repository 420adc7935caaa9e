package catalog

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/redbco/redb-connect/pkg/adapter"
	"github.com/redbco/redb-connect/pkg/dbcapabilities"
)

// DefaultPath is where the descriptor file is looked up when no path is given.
const DefaultPath = "configs/databases.yaml"

// QuerySyntax describes how a store expects queries to be written.
type QuerySyntax struct {
	Placeholder     string `yaml:"placeholder" json:"placeholder"`
	IdentifierQuote string `yaml:"identifier_quote" json:"identifier_quote"`
	LimitClause     string `yaml:"limit_clause" json:"limit_clause"`
	SingleRow       string `yaml:"single_row" json:"single_row"`
	InsertID        string `yaml:"insert_id" json:"insert_id"`
	KeyField        string `yaml:"key_field" json:"key_field"`
	ValueField      string `yaml:"value_field" json:"value_field"`
	KeySeparator    string `yaml:"key_separator" json:"key_separator"`
	PartitionKey    string `yaml:"partition_key" json:"partition_key"`
	AllowFiltering  bool   `yaml:"allow_filtering" json:"allow_filtering"`
}

// DatabaseConfig is one descriptor entry. ConnectionParams still hold the
// unresolved templates; call Resolve or ConnectionConfig to expand them.
type DatabaseConfig struct {
	Name             string                    `json:"name"`
	Category         dbcapabilities.Category   `json:"category"`
	Driver           string                    `json:"driver"`
	Engine           dbcapabilities.DatabaseID `json:"engine,omitempty"`
	DefaultPort      int                       `json:"default_port,omitempty"`
	ConnectionParams adapter.Params            `json:"connection_params"`
	Features         []string                  `json:"features,omitempty"`
	QuerySyntax      QuerySyntax               `json:"query_syntax"`
}

// HasFeature reports whether the entry lists the named feature.
func (c DatabaseConfig) HasFeature(feature string) bool {
	for _, f := range c.Features {
		if strings.EqualFold(f, feature) {
			return true
		}
	}
	return false
}

// DatabaseType returns the engine id, or the entry name when the engine is unknown.
func (c DatabaseConfig) DatabaseType() dbcapabilities.DatabaseType {
	if c.Engine != "" {
		return c.Engine
	}
	return dbcapabilities.DatabaseType(c.Name)
}

func (c DatabaseConfig) clone() DatabaseConfig {
	out := c
	out.ConnectionParams = make(adapter.Params, len(c.ConnectionParams))
	for i, p := range c.ConnectionParams {
		out.ConnectionParams[i] = adapter.Param{Name: p.Name, Value: cloneValue(p.Value)}
	}
	out.Features = append([]string(nil), c.Features...)
	return out
}

func cloneValue(v interface{}) interface{} {
	list, ok := v.([]interface{})
	if !ok {
		return v
	}
	return append([]interface{}(nil), list...)
}

// Catalog is the parsed descriptor file. It is immutable after Load returns
// and safe for concurrent use.
type Catalog struct {
	path    string
	entries map[string]DatabaseConfig
}

type fileLayout struct {
	Databases map[string]entryLayout `yaml:"databases"`
}

type entryLayout struct {
	Category         string      `yaml:"category"`
	Type             string      `yaml:"type"`
	Driver           string      `yaml:"driver"`
	Engine           string      `yaml:"engine"`
	DefaultPort      int         `yaml:"default_port"`
	ConnectionParams yaml.Node   `yaml:"connection_params"`
	Features         []string    `yaml:"features"`
	QuerySyntax      QuerySyntax `yaml:"query_syntax"`
}

// Load reads and validates the descriptor file at path.
func Load(path string) (*Catalog, error) {
	if path == "" {
		path = DefaultPath
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read database catalog %s: %w", path, err)
	}

	c, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	c.path = path
	return c, nil
}

// Parse decodes a descriptor document.
func Parse(data []byte) (*Catalog, error) {
	var layout fileLayout
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&layout); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse database catalog: %w", err)
	}

	c := &Catalog{entries: make(map[string]DatabaseConfig, len(layout.Databases))}
	for rawName, entry := range layout.Databases {
		name := strings.ToLower(strings.TrimSpace(rawName))
		if name == "" {
			return nil, fmt.Errorf("database catalog contains an empty identifier")
		}
		if _, dup := c.entries[name]; dup {
			return nil, fmt.Errorf("database identifier %q is defined more than once", name)
		}

		cfg, err := buildEntry(name, entry)
		if err != nil {
			return nil, err
		}
		c.entries[name] = cfg
	}

	return c, nil
}

func buildEntry(name string, entry entryLayout) (DatabaseConfig, error) {
	cfg := DatabaseConfig{
		Name:        name,
		Driver:      strings.TrimSpace(entry.Driver),
		DefaultPort: entry.DefaultPort,
		Features:    entry.Features,
		QuerySyntax: entry.QuerySyntax,
	}
	dbType := dbcapabilities.DatabaseType(name)

	engine := entry.Engine
	if engine == "" {
		engine = name
	}
	capability, known := dbcapabilities.GetByName(engine)
	if !known && entry.Engine == "" {
		// Entries named after the application rather than the engine take
		// their defaults from the driver.
		capability, known = dbcapabilities.GetByDriver(cfg.Driver)
	}
	if known {
		cfg.Engine = capability.ID
		dbType = capability.ID
	} else if entry.Engine != "" {
		return cfg, adapter.NewConfigurationError(dbType, "engine", fmt.Sprintf("unknown engine %q", entry.Engine))
	}

	categoryName := entry.Category
	if categoryName == "" {
		categoryName = entry.Type
	}
	switch {
	case categoryName != "":
		category, err := dbcapabilities.ParseCategory(categoryName)
		if err != nil {
			return cfg, adapter.NewConfigurationError(dbType, "category", err.Error())
		}
		cfg.Category = category
	case known:
		cfg.Category = capability.Category
	default:
		return cfg, adapter.NewConfigurationError(dbType, "category", "category is required")
	}

	if cfg.Driver == "" && known {
		cfg.Driver = capability.Driver
	}
	if cfg.Driver == "" {
		return cfg, adapter.NewConfigurationError(dbType, "driver", "driver is required")
	}

	if cfg.DefaultPort < 0 || cfg.DefaultPort > 65535 {
		return cfg, adapter.NewConfigurationError(dbType, "default_port", fmt.Sprintf("%d is out of range", cfg.DefaultPort))
	}
	if cfg.DefaultPort == 0 && known {
		cfg.DefaultPort = capability.DefaultPort
	}

	params, err := decodeParams(entry.ConnectionParams)
	if err != nil {
		return cfg, adapter.NewConfigurationError(dbType, "connection_params", err.Error())
	}
	cfg.ConnectionParams = params

	applySyntaxDefaults(&cfg.QuerySyntax, capability.Dialect)
	return cfg, nil
}

// decodeParams walks the mapping node so declaration order survives.
func decodeParams(node yaml.Node) (adapter.Params, error) {
	if node.Kind == 0 {
		return adapter.Params{}, nil
	}
	if node.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("must be a mapping (line %d)", node.Line)
	}

	params := make(adapter.Params, 0, len(node.Content)/2)
	seen := make(map[string]bool, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		keyNode, valueNode := node.Content[i], node.Content[i+1]
		if seen[keyNode.Value] {
			return nil, fmt.Errorf("parameter %q is defined more than once (line %d)", keyNode.Value, keyNode.Line)
		}
		seen[keyNode.Value] = true

		if valueNode.Kind == yaml.MappingNode {
			return nil, fmt.Errorf("parameter %q must be a scalar or a list (line %d)", keyNode.Value, valueNode.Line)
		}
		var value interface{}
		if err := valueNode.Decode(&value); err != nil {
			return nil, fmt.Errorf("parameter %q: %w", keyNode.Value, err)
		}
		params = append(params, adapter.Param{Name: keyNode.Value, Value: value})
	}
	return params, nil
}

func applySyntaxDefaults(s *QuerySyntax, d dbcapabilities.Dialect) {
	if s.Placeholder == "" {
		s.Placeholder = d.Placeholder
	}
	if s.Placeholder == "" {
		s.Placeholder = "?"
	}
	if s.IdentifierQuote == "" {
		s.IdentifierQuote = d.IdentifierQuote
	}
	if s.LimitClause == "" {
		s.LimitClause = d.LimitClause
	}
	if s.LimitClause == "" {
		s.LimitClause = "LIMIT {limit}"
	}
	if s.SingleRow == "" {
		s.SingleRow = d.SingleRow
	}
	if s.SingleRow == "" {
		s.SingleRow = dbcapabilities.SingleRowGuarded
	}
	if s.InsertID == "" {
		s.InsertID = d.InsertID
	}
	if s.InsertID == "" {
		s.InsertID = dbcapabilities.InsertIDLastInsert
	}
	if s.KeyField == "" {
		s.KeyField = d.KeyField
	}
	if s.KeyField == "" {
		s.KeyField = "id"
	}
	if s.ValueField == "" {
		s.ValueField = "value"
	}
	if s.KeySeparator == "" {
		s.KeySeparator = ":"
	}
	if s.PartitionKey == "" {
		s.PartitionKey = "id"
	}
}

// Get returns a copy of the entry for id. Identifiers are case-insensitive.
func (c *Catalog) Get(id string) (DatabaseConfig, error) {
	key := strings.ToLower(strings.TrimSpace(id))
	cfg, ok := c.entries[key]
	if !ok {
		return DatabaseConfig{}, adapter.NewConfigNotFoundError(id)
	}
	return cfg.clone(), nil
}

// Names returns the identifiers in sorted order.
func (c *Catalog) Names() []string {
	names := make([]string, 0, len(c.entries))
	for name := range c.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of entries.
func (c *Catalog) Len() int {
	return len(c.entries)
}

// Path returns the file the catalog was loaded from, or "" for Parse.
func (c *Catalog) Path() string {
	return c.path
}
