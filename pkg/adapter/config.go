package adapter

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redbco/redb-connect/pkg/dbcapabilities"
)

// Param is one resolved connection parameter. Values are strings, numbers,
// bools or []interface{} of those, exactly as they appear in the descriptor
// after environment resolution.
type Param struct {
	Name  string      `json:"name"`
	Value interface{} `json:"value"`
}

// Params keeps connection parameters in declaration order.
type Params []Param

// Get returns the value of the named parameter.
func (p Params) Get(name string) (interface{}, bool) {
	for _, param := range p {
		if param.Name == name {
			return param.Value, true
		}
	}
	return nil, false
}

// String returns the named parameter rendered as a string, or "".
func (p Params) String(name string) string {
	v, ok := p.Get(name)
	if !ok {
		return ""
	}
	return ValueString(v)
}

// Set replaces the named parameter, appending it when absent.
func (p Params) Set(name string, value interface{}) Params {
	for i := range p {
		if p[i].Name == name {
			p[i].Value = value
			return p
		}
	}
	return append(p, Param{Name: name, Value: value})
}

// Names returns the parameter names in declaration order.
func (p Params) Names() []string {
	names := make([]string, len(p))
	for i, param := range p {
		names[i] = param.Name
	}
	return names
}

// Map returns the parameters as a map. Order is lost.
func (p Params) Map() map[string]interface{} {
	m := make(map[string]interface{}, len(p))
	for _, param := range p {
		m[param.Name] = param.Value
	}
	return m
}

// ConnectionString renders the parameters as an ODBC-style "k=v;k=v" string
// in declaration order, skipping empty values.
func (p Params) ConnectionString() string {
	var sb strings.Builder
	for _, param := range p {
		v := ValueString(param.Value)
		if v == "" {
			continue
		}
		sb.WriteString(param.Name)
		sb.WriteByte('=')
		sb.WriteString(v)
		sb.WriteByte(';')
	}
	return sb.String()
}

// ValueString renders a parameter value. Lists are joined with commas.
func ValueString(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case []interface{}:
		parts := make([]string, 0, len(val))
		for _, item := range val {
			parts = append(parts, ValueString(item))
		}
		return strings.Join(parts, ",")
	case []string:
		return strings.Join(val, ",")
	default:
		return fmt.Sprint(val)
	}
}

// ConnectionConfig contains the configuration for a database connection.
// This is a unified configuration that works across all database types;
// drivers read the typed fields and fall back to Params for anything else.
type ConnectionConfig struct {
	// Core identifiers
	DatabaseID   string                      `json:"databaseId"` // descriptor identifier, e.g. "mysql"
	DatabaseType dbcapabilities.DatabaseType `json:"databaseType"`
	Driver       string                      `json:"driver"`

	// Connection details
	Host         string   `json:"host"`
	Hosts        []string `json:"hosts,omitempty"` // cluster contact points
	Port         int      `json:"port"`
	Username     string   `json:"username,omitempty"`
	Password     string   `json:"password,omitempty"`
	DatabaseName string   `json:"databaseName"`
	URL          string   `json:"url,omitempty"`

	// SSL/TLS configuration
	SSL         bool   `json:"ssl,omitempty"`
	SSLMode     string `json:"sslMode,omitempty"` // verify-full, require, etc.
	SSLCert     string `json:"sslCert,omitempty"`
	SSLKey      string `json:"sslKey,omitempty"`
	SSLRootCert string `json:"sslRootCert,omitempty"`

	// Cloud/Object Storage credentials (S3, GCS, Azure Blob, DynamoDB)
	AccessKeyID     string `json:"accessKeyId,omitempty"`
	SecretAccessKey string `json:"secretAccessKey,omitempty"`
	SessionToken    string `json:"sessionToken,omitempty"`
	Region          string `json:"region,omitempty"`
	Endpoint        string `json:"endpoint,omitempty"`
	PathStyle       bool   `json:"pathStyle,omitempty"`
	Bucket          string `json:"bucket,omitempty"`

	// GCP specific
	ProjectID       string `json:"projectId,omitempty"`
	CredentialsFile string `json:"credentialsFile,omitempty"`
	CredentialsJSON string `json:"credentialsJson,omitempty"`

	// InfluxDB / Databricks / Milvus tokens
	Token        string `json:"token,omitempty"`
	Organization string `json:"organization,omitempty"`

	// Azure specific or a raw driver DSN
	ConnectionString string `json:"connectionString,omitempty"`

	Timeout time.Duration `json:"timeout,omitempty"`

	// Params holds every resolved parameter in declaration order.
	Params Params `json:"params,omitempty"`

	// Options holds the parameters not mapped to a typed field.
	Options map[string]interface{} `json:"options,omitempty"`
}

// ConfigFromParams builds the typed view of a set of resolved parameters.
func ConfigFromParams(databaseID string, dbType dbcapabilities.DatabaseType, driver string, params Params) (ConnectionConfig, error) {
	cfg := ConnectionConfig{
		DatabaseID:   databaseID,
		DatabaseType: dbType,
		Driver:       driver,
		Params:       params,
		Options:      make(map[string]interface{}),
	}

	for _, p := range params {
		s := ValueString(p.Value)
		switch strings.ToLower(p.Name) {
		case "host", "hostname", "server", "address":
			cfg.Host = s
		case "hosts", "contact_points", "nodes":
			cfg.Hosts = valueList(p.Value)
		case "port":
			if s == "" {
				continue
			}
			port, err := strconv.Atoi(s)
			if err != nil {
				return cfg, NewConfigurationError(dbType, p.Name, fmt.Sprintf("port %q is not an integer", s))
			}
			cfg.Port = port
		case "user", "username", "uid":
			cfg.Username = s
		case "password", "pwd", "pass":
			cfg.Password = s
		case "database", "dbname", "db", "database_name", "keyspace":
			cfg.DatabaseName = s
		case "url", "uri":
			cfg.URL = s
		case "ssl", "tls", "secure":
			cfg.SSL = valueBool(p.Value)
		case "sslmode", "ssl_mode":
			cfg.SSLMode = s
		case "ssl_cert", "sslcert":
			cfg.SSLCert = s
		case "ssl_key", "sslkey":
			cfg.SSLKey = s
		case "ssl_root_cert", "sslrootcert", "ca_cert":
			cfg.SSLRootCert = s
		case "access_key_id", "aws_access_key_id", "access_key":
			cfg.AccessKeyID = s
		case "secret_access_key", "aws_secret_access_key", "secret_key":
			cfg.SecretAccessKey = s
		case "session_token", "aws_session_token":
			cfg.SessionToken = s
		case "region", "region_name":
			cfg.Region = s
		case "endpoint", "endpoint_url":
			cfg.Endpoint = s
		case "path_style", "use_path_style":
			cfg.PathStyle = valueBool(p.Value)
		case "bucket", "container":
			cfg.Bucket = s
		case "project_id", "project":
			cfg.ProjectID = s
		case "credentials_file", "credentials_path":
			cfg.CredentialsFile = s
		case "credentials_json":
			cfg.CredentialsJSON = s
		case "token", "api_key", "access_token":
			cfg.Token = s
		case "org", "organization":
			cfg.Organization = s
		case "connection_string", "dsn":
			cfg.ConnectionString = s
		case "timeout", "connect_timeout":
			d, err := parseTimeout(s)
			if err != nil {
				return cfg, NewConfigurationError(dbType, p.Name, err.Error())
			}
			cfg.Timeout = d
		default:
			cfg.Options[p.Name] = p.Value
		}
	}

	if cfg.Host == "" && len(cfg.Hosts) > 0 {
		cfg.Host = cfg.Hosts[0]
	}

	return cfg, nil
}

// Address returns host:port, or just the host when no port is set.
func (c ConnectionConfig) Address() string {
	if c.Port == 0 {
		return c.Host
	}
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// OptionString returns an unmapped option as a string.
func (c ConnectionConfig) OptionString(key, def string) string {
	if v, ok := c.Options[key]; ok {
		if s := ValueString(v); s != "" {
			return s
		}
	}
	return def
}

// OptionBool returns an unmapped option as a bool.
func (c ConnectionConfig) OptionBool(key string, def bool) bool {
	if v, ok := c.Options[key]; ok {
		return valueBool(v)
	}
	return def
}

// OptionInt returns an unmapped option as an int.
func (c ConnectionConfig) OptionInt(key string, def int) int {
	if v, ok := c.Options[key]; ok {
		if n, err := strconv.Atoi(ValueString(v)); err == nil {
			return n
		}
	}
	return def
}

func valueBool(v interface{}) bool {
	switch val := v.(type) {
	case bool:
		return val
	case int:
		return val != 0
	default:
		b, _ := strconv.ParseBool(strings.TrimSpace(ValueString(v)))
		return b
	}
}

func valueList(v interface{}) []string {
	var out []string
	switch val := v.(type) {
	case []interface{}:
		for _, item := range val {
			if s := ValueString(item); s != "" {
				out = append(out, s)
			}
		}
	default:
		for _, s := range strings.Split(ValueString(v), ",") {
			if s = strings.TrimSpace(s); s != "" {
				out = append(out, s)
			}
		}
	}
	return out
}

// parseTimeout accepts a Go duration ("5s") or a number of seconds ("5").
func parseTimeout(s string) (time.Duration, error) {
	if s == "" {
		return 0, nil
	}
	if secs, err := strconv.ParseFloat(s, 64); err == nil {
		return time.Duration(secs * float64(time.Second)), nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid timeout %q", s)
	}
	return d, nil
}
