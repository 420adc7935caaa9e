// Package redshift registers the "redshift" driver, served by lib/pq since
// Redshift speaks the PostgreSQL wire protocol.
package redshift

import (
	"context"
	"fmt"
	"strings"

	_ "github.com/lib/pq" // PostgreSQL driver (Redshift compatible)

	"github.com/redbco/redb-connect/pkg/adapter"
)

// DriverName is the descriptor driver served by this package.
const DriverName = "redshift"

const defaultPort = 5439

// Adapter implements the adapter.DatabaseAdapter interface for Redshift.
type Adapter struct{}

// NewAdapter creates a new Redshift adapter.
func NewAdapter() adapter.DatabaseAdapter {
	return &Adapter{}
}

// Name returns the driver name.
func (a *Adapter) Name() string {
	return DriverName
}

// Connect establishes a connection to a Redshift cluster.
func (a *Adapter) Connect(ctx context.Context, config adapter.ConnectionConfig) (adapter.Connection, error) {
	return adapter.OpenSQL(ctx, a, config, "postgres", ConnString(config))
}

// ConnString builds a PostgreSQL-compatible key/value connection string.
func ConnString(cfg adapter.ConnectionConfig) string {
	if cfg.ConnectionString != "" {
		return cfg.ConnectionString
	}

	port := cfg.Port
	if port == 0 {
		port = defaultPort
	}

	sslMode := cfg.SSLMode
	if sslMode == "" {
		if cfg.SSL {
			sslMode = "require"
		} else {
			sslMode = "disable"
		}
	}

	parts := []string{
		"host=" + quote(cfg.Host),
		fmt.Sprintf("port=%d", port),
		"user=" + quote(cfg.Username),
		"password=" + quote(cfg.Password),
		"dbname=" + quote(cfg.DatabaseName),
		"sslmode=" + sslMode,
	}
	if cfg.Timeout > 0 {
		parts = append(parts, fmt.Sprintf("connect_timeout=%d", int(cfg.Timeout.Seconds())))
	}
	return strings.Join(parts, " ")
}

// quote wraps a value in single quotes, escaping backslashes and quotes.
func quote(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `'`, `\'`)
	return "'" + s + "'"
}
