// Package mysql registers the "mysql" driver for MySQL, MariaDB and TiDB.
package mysql

import (
	"context"
	"time"

	"github.com/go-sql-driver/mysql"

	"github.com/redbco/redb-connect/pkg/adapter"
)

// DriverName is the descriptor driver served by this package.
const DriverName = "mysql"

// Adapter implements the adapter.DatabaseAdapter interface for MySQL.
type Adapter struct{}

// NewAdapter creates a new MySQL adapter.
func NewAdapter() adapter.DatabaseAdapter {
	return &Adapter{}
}

// Name returns the driver name.
func (a *Adapter) Name() string {
	return DriverName
}

// Connect establishes a connection to a MySQL database.
func (a *Adapter) Connect(ctx context.Context, config adapter.ConnectionConfig) (adapter.Connection, error) {
	return adapter.OpenSQL(ctx, a, config, "mysql", DSN(config))
}

// DSN builds the go-sql-driver DSN. An explicit dsn parameter wins.
func DSN(config adapter.ConnectionConfig) string {
	if config.ConnectionString != "" {
		return config.ConnectionString
	}

	cfg := mysql.NewConfig()
	cfg.User = config.Username
	cfg.Passwd = config.Password
	cfg.Net = "tcp"
	cfg.Addr = config.Address()
	cfg.DBName = config.DatabaseName
	cfg.ParseTime = true

	switch {
	case !config.SSL:
		cfg.TLSConfig = "false"
	case config.SSLMode == "skip-verify" || config.SSLMode == "require":
		cfg.TLSConfig = "skip-verify"
	default:
		cfg.TLSConfig = "true"
	}

	if config.Timeout > 0 {
		cfg.Timeout = config.Timeout
	}
	if tz := config.OptionString("loc", ""); tz != "" {
		if loc, err := time.LoadLocation(tz); err == nil {
			cfg.Loc = loc
		}
	}
	return cfg.FormatDSN()
}
