// Package postgres registers the "pgx" driver for PostgreSQL, CockroachDB
// and TimescaleDB through the pgx database/sql bridge.
package postgres

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"

	"github.com/redbco/redb-connect/pkg/adapter"
)

// DriverName is the descriptor driver served by this package.
const DriverName = "pgx"

// Adapter implements the adapter.DatabaseAdapter interface for PostgreSQL.
type Adapter struct{}

// NewAdapter creates a new PostgreSQL adapter.
func NewAdapter() adapter.DatabaseAdapter {
	return &Adapter{}
}

// Name returns the driver name.
func (a *Adapter) Name() string {
	return DriverName
}

// Connect establishes a connection to a PostgreSQL database.
func (a *Adapter) Connect(ctx context.Context, config adapter.ConnectionConfig) (adapter.Connection, error) {
	connConfig, err := pgx.ParseConfig(ConnString(config))
	if err != nil {
		return nil, adapter.NewConfigurationError(config.DatabaseType, "connection", fmt.Sprintf("invalid connection string: %v", err))
	}
	if config.Timeout > 0 {
		connConfig.ConnectTimeout = config.Timeout
	}
	return adapter.PingSQL(ctx, a, config, stdlib.OpenDB(*connConfig))
}

// ConnString builds a postgres:// URL. An explicit dsn parameter wins.
func ConnString(config adapter.ConnectionConfig) string {
	if config.ConnectionString != "" {
		return config.ConnectionString
	}

	u := url.URL{
		Scheme: "postgres",
		Host:   config.Host,
		Path:   "/" + config.DatabaseName,
	}
	if config.Port != 0 {
		u.Host = config.Host + ":" + strconv.Itoa(config.Port)
	}
	if config.Username != "" {
		if config.Password != "" {
			u.User = url.UserPassword(config.Username, config.Password)
		} else {
			u.User = url.User(config.Username)
		}
	}

	q := url.Values{}
	q.Set("sslmode", sslMode(config))
	if config.SSL {
		if config.SSLCert != "" && config.SSLKey != "" {
			q.Set("sslcert", config.SSLCert)
			q.Set("sslkey", config.SSLKey)
		}
		if config.SSLRootCert != "" {
			q.Set("sslrootcert", config.SSLRootCert)
		}
	}
	if app := config.OptionString("application_name", ""); app != "" {
		q.Set("application_name", app)
	}
	if schema := config.OptionString("search_path", ""); schema != "" {
		q.Set("search_path", schema)
	}
	u.RawQuery = q.Encode()
	return u.String()
}

func sslMode(config adapter.ConnectionConfig) string {
	if config.SSLMode != "" {
		return config.SSLMode
	}
	if config.SSL {
		return "verify-full"
	}
	return "disable"
}
