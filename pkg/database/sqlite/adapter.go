// Package sqlite registers the "sqlite" driver backed by the pure-Go
// modernc.org/sqlite engine.
package sqlite

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/redbco/redb-connect/pkg/adapter"
)

// DriverName is the descriptor driver served by this package.
const DriverName = "sqlite"

// Adapter implements the adapter.DatabaseAdapter interface for SQLite.
type Adapter struct{}

// NewAdapter creates a new SQLite adapter.
func NewAdapter() adapter.DatabaseAdapter {
	return &Adapter{}
}

// Name returns the driver name.
func (a *Adapter) Name() string {
	return DriverName
}

// Connect opens the database file. A single pool connection is used so an
// in-memory database is shared by every call.
func (a *Adapter) Connect(ctx context.Context, config adapter.ConnectionConfig) (adapter.Connection, error) {
	dsn := DSN(config)
	if dsn == "" {
		return nil, adapter.NewConfigurationError(config.DatabaseType, "database", "sqlite needs a database path")
	}
	if config.Options == nil {
		config.Options = make(map[string]interface{})
	}
	if _, ok := config.Options["max_open_conns"]; !ok {
		config.Options["max_open_conns"] = 1
	}
	return adapter.OpenSQL(ctx, a, config, "sqlite", dsn)
}

// DSN returns the file name with the busy_timeout and foreign_keys pragmas.
func DSN(config adapter.ConnectionConfig) string {
	if config.ConnectionString != "" {
		return config.ConnectionString
	}
	path := config.DatabaseName
	if path == "" {
		path = strings.TrimPrefix(strings.TrimPrefix(config.URL, "sqlite://"), "file:")
	}
	if path == "" {
		return ""
	}

	q := url.Values{}
	q.Add("_pragma", fmt.Sprintf("busy_timeout(%d)", config.OptionInt("busy_timeout", 5000)))
	if config.OptionBool("foreign_keys", true) {
		q.Add("_pragma", "foreign_keys(1)")
	}
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return "file:" + path + sep + q.Encode()
}
