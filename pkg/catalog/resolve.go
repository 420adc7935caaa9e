package catalog

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/redbco/redb-connect/pkg/adapter"
	"github.com/redbco/redb-connect/pkg/dbcapabilities"
	"github.com/redbco/redb-connect/pkg/logger"
)

// Lookup returns the value of a placeholder variable. os.LookupEnv is the default.
type Lookup func(name string) (string, bool)

// missingVar is reported by expand for a ${VAR} with no value and no default.
type missingVar struct {
	name string
}

func (m *missingVar) Error() string { return "unset variable " + m.name }

// expand substitutes ${VAR} and ${VAR:-default} in s. $${ is a literal ${.
func expand(s string, lookup Lookup) (string, error) {
	if !strings.Contains(s, "${") {
		return s, nil
	}

	var sb strings.Builder
	for i := 0; i < len(s); {
		if strings.HasPrefix(s[i:], "$${") {
			sb.WriteString("${")
			i += 3
			continue
		}
		if !strings.HasPrefix(s[i:], "${") {
			sb.WriteByte(s[i])
			i++
			continue
		}

		end := strings.IndexByte(s[i+2:], '}')
		if end < 0 {
			// unterminated, keep as-is
			sb.WriteString(s[i:])
			break
		}
		expr := s[i+2 : i+2+end]
		i += end + 3

		name, def, hasDefault := strings.Cut(expr, ":-")
		name = strings.TrimSpace(name)
		value, ok := lookup(name)
		switch {
		case ok && (value != "" || !hasDefault):
			sb.WriteString(value)
		case hasDefault:
			sb.WriteString(def)
		default:
			return "", &missingVar{name: name}
		}
	}
	return sb.String(), nil
}

func expandValue(v interface{}, lookup Lookup) (interface{}, error) {
	switch val := v.(type) {
	case string:
		return expand(val, lookup)
	case []interface{}:
		out := make([]interface{}, len(val))
		for i, item := range val {
			resolved, err := expandValue(item, lookup)
			if err != nil {
				return nil, err
			}
			out[i] = resolved
		}
		return out, nil
	default:
		return v, nil
	}
}

// Resolve expands every placeholder in the connection parameters. A port that
// resolves to an empty or non-numeric value falls back to DefaultPort.
func (c DatabaseConfig) Resolve(lookup Lookup, log *logger.Logger) (adapter.Params, error) {
	if lookup == nil {
		lookup = os.LookupEnv
	}

	params := make(adapter.Params, 0, len(c.ConnectionParams))
	for _, p := range c.ConnectionParams {
		value, err := expandValue(p.Value, lookup)
		if err != nil {
			if mv, ok := err.(*missingVar); ok {
				return nil, adapter.NewMissingEnvVarError(c.Name, p.Name, mv.name)
			}
			return nil, err
		}

		if strings.EqualFold(p.Name, "port") {
			value, err = c.resolvePort(value, log)
			if err != nil {
				return nil, err
			}
		}
		params = append(params, adapter.Param{Name: p.Name, Value: value})
	}
	return params, nil
}

func (c DatabaseConfig) resolvePort(value interface{}, log *logger.Logger) (interface{}, error) {
	s := strings.TrimSpace(adapter.ValueString(value))
	if port, err := strconv.Atoi(s); err == nil {
		return port, nil
	}
	if c.DefaultPort == 0 {
		return nil, adapter.NewConfigurationError(c.DatabaseType(), "port",
			fmt.Sprintf("invalid port value %q and no default port configured", s))
	}
	if s != "" && log != nil {
		log.Warn("Invalid port value '%s' for %s, using default port %d", s, c.Name, c.DefaultPort)
	}
	return c.DefaultPort, nil
}

// ConnectionConfig resolves the parameters and builds the typed view handed
// to the driver. Values parsed from a "url" parameter fill fields that the
// other parameters left empty.
func (c DatabaseConfig) ConnectionConfig(lookup Lookup, log *logger.Logger) (adapter.ConnectionConfig, error) {
	params, err := c.Resolve(lookup, log)
	if err != nil {
		return adapter.ConnectionConfig{}, err
	}

	cfg, err := adapter.ConfigFromParams(c.Name, c.DatabaseType(), c.Driver, params)
	if err != nil {
		return cfg, err
	}

	if cfg.URL != "" {
		if details, perr := dbcapabilities.ParseConnectionString(cfg.URL); perr == nil {
			fillFromURL(&cfg, details)
		} else if log != nil {
			log.Debug("Parameter url of %s is not a database URL: %v", c.Name, perr)
		}
	}

	if cfg.Port == 0 && cfg.Host != "" {
		cfg.Port = c.DefaultPort
	}
	return cfg, nil
}

func fillFromURL(cfg *adapter.ConnectionConfig, d *dbcapabilities.ConnectionDetails) {
	if cfg.Host == "" {
		cfg.Host = d.Host
	}
	if cfg.Port == 0 {
		cfg.Port = d.Port
	}
	if cfg.Username == "" {
		cfg.Username = d.Username
	}
	if cfg.Password == "" {
		cfg.Password = d.Password
	}
	if cfg.DatabaseName == "" {
		cfg.DatabaseName = d.DatabaseName
	}
	if !cfg.SSL {
		cfg.SSL = d.SSL
	}
	if cfg.SSLMode == "" {
		cfg.SSLMode = d.SSLMode
	}
}
