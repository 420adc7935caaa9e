// Package snowflake registers the "snowflake" driver.
package snowflake

import (
	"context"
	"strings"

	"github.com/snowflakedb/gosnowflake"

	"github.com/redbco/redb-connect/pkg/adapter"
)

// DriverName is the descriptor driver served by this package.
const DriverName = "snowflake"

// Adapter implements the adapter.DatabaseAdapter interface for Snowflake.
type Adapter struct{}

// NewAdapter creates a new Snowflake adapter.
func NewAdapter() adapter.DatabaseAdapter {
	return &Adapter{}
}

// Name returns the driver name.
func (a *Adapter) Name() string {
	return DriverName
}

// Connect establishes a connection to a Snowflake warehouse.
func (a *Adapter) Connect(ctx context.Context, config adapter.ConnectionConfig) (adapter.Connection, error) {
	dsn, err := DSN(config)
	if err != nil {
		return nil, adapter.NewConfigurationError(config.DatabaseType, "account", err.Error())
	}
	return adapter.OpenSQL(ctx, a, config, "snowflake", dsn)
}

// Config builds the gosnowflake configuration. The host is the account
// identifier; "account/warehouse" selects a warehouse as well.
func Config(config adapter.ConnectionConfig) *gosnowflake.Config {
	account := config.OptionString("account", config.Host)
	warehouse := config.OptionString("warehouse", "")
	if parts := strings.SplitN(account, "/", 2); len(parts) == 2 {
		account = parts[0]
		if warehouse == "" {
			warehouse = parts[1]
		}
	}
	account = strings.TrimSuffix(account, ".snowflakecomputing.com")

	cfg := &gosnowflake.Config{
		Account:       account,
		User:          config.Username,
		Password:      config.Password,
		Database:      config.DatabaseName,
		Schema:        config.OptionString("schema", ""),
		Warehouse:     warehouse,
		Role:          config.OptionString("role", ""),
		Authenticator: gosnowflake.AuthTypeSnowflake,
		Application:   "redb-connect",
	}
	if config.Timeout > 0 {
		cfg.LoginTimeout = config.Timeout
	}
	return cfg
}

// DSN renders the connection config as a gosnowflake DSN. An explicit dsn
// parameter wins.
func DSN(config adapter.ConnectionConfig) (string, error) {
	if config.ConnectionString != "" {
		return config.ConnectionString, nil
	}
	return gosnowflake.DSN(Config(config))
}
