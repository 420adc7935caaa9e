// Package mssql registers the "sqlserver" driver for Microsoft SQL Server
// and Azure SQL.
package mssql

import (
	"context"
	"net/url"
	"strconv"

	_ "github.com/microsoft/go-mssqldb"

	"github.com/redbco/redb-connect/pkg/adapter"
)

// DriverName is the descriptor driver served by this package.
const DriverName = "sqlserver"

// Adapter implements the adapter.DatabaseAdapter interface for SQL Server.
type Adapter struct{}

// NewAdapter creates a new SQL Server adapter.
func NewAdapter() adapter.DatabaseAdapter {
	return &Adapter{}
}

// Name returns the driver name.
func (a *Adapter) Name() string {
	return DriverName
}

// Connect establishes a connection to a SQL Server database.
func (a *Adapter) Connect(ctx context.Context, config adapter.ConnectionConfig) (adapter.Connection, error) {
	return adapter.OpenSQL(ctx, a, config, "sqlserver", ConnString(config))
}

// ConnString builds a sqlserver:// URL. An explicit dsn parameter wins.
func ConnString(config adapter.ConnectionConfig) string {
	if config.ConnectionString != "" {
		return config.ConnectionString
	}

	u := url.URL{Scheme: "sqlserver", Host: config.Host}
	if config.Port != 0 {
		u.Host = config.Host + ":" + strconv.Itoa(config.Port)
	}
	if config.Username != "" {
		u.User = url.UserPassword(config.Username, config.Password)
	}
	if instance := config.OptionString("instance", ""); instance != "" {
		u.Path = "/" + instance
	}

	q := url.Values{}
	if config.DatabaseName != "" {
		q.Set("database", config.DatabaseName)
	}
	switch {
	case !config.SSL:
		q.Set("encrypt", "disable")
	case config.SSLMode == "require" || config.SSLMode == "skip-verify":
		q.Set("encrypt", "true")
		q.Set("TrustServerCertificate", "true")
	default:
		q.Set("encrypt", "true")
		q.Set("TrustServerCertificate", "false")
	}
	if config.Timeout > 0 {
		q.Set("dial timeout", strconv.Itoa(int(config.Timeout.Seconds())))
	}
	if app := config.OptionString("app_name", ""); app != "" {
		q.Set("app name", app)
	}
	u.RawQuery = q.Encode()
	return u.String()
}
