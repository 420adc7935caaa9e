// Package databricks registers the "databricks" driver for Databricks SQL
// warehouses.
package databricks

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	_ "github.com/databricks/databricks-sql-go"

	"github.com/redbco/redb-connect/pkg/adapter"
)

// DriverName is the descriptor driver served by this package.
const DriverName = "databricks"

// Adapter implements the adapter.DatabaseAdapter interface for Databricks.
type Adapter struct{}

// NewAdapter creates a new Databricks adapter.
func NewAdapter() adapter.DatabaseAdapter {
	return &Adapter{}
}

// Name returns the driver name.
func (a *Adapter) Name() string {
	return DriverName
}

// Connect opens a SQL warehouse session. The token authenticates; http_path
// names the warehouse.
func (a *Adapter) Connect(ctx context.Context, config adapter.ConnectionConfig) (adapter.Connection, error) {
	if config.ConnectionString == "" && config.Token == "" {
		return nil, adapter.NewConfigurationError(config.DatabaseType, "token", "access token is required")
	}
	return adapter.OpenSQL(ctx, a, config, "databricks", DSN(config))
}

// DSN builds token:<token>@host:port/<http_path>?catalog=...&schema=...
func DSN(config adapter.ConnectionConfig) string {
	if config.ConnectionString != "" {
		return config.ConnectionString
	}

	port := config.Port
	if port == 0 {
		port = 443
	}

	path := config.OptionString("http_path", "")
	if path != "" && !strings.HasPrefix(path, "/") {
		path = "/" + path
	}

	q := url.Values{}
	if config.DatabaseName != "" {
		q.Set("catalog", config.DatabaseName)
	}
	if schema := config.OptionString("schema", ""); schema != "" {
		q.Set("schema", schema)
	}
	if config.Timeout > 0 {
		q.Set("timeout", fmt.Sprintf("%d", int(config.Timeout.Seconds())))
	}

	dsn := fmt.Sprintf("token:%s@%s:%d%s", url.QueryEscape(config.Token), config.Host, port, path)
	if len(q) > 0 {
		dsn += "?" + q.Encode()
	}
	return dsn
}
