// Package clickhouse registers the "clickhouse" driver. Connections are
// opened through the clickhouse-go database/sql interface.
package clickhouse

import (
	"context"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"

	"github.com/redbco/redb-connect/pkg/adapter"
)

// DriverName is the descriptor driver served by this package.
const DriverName = "clickhouse"

// Adapter implements the adapter.DatabaseAdapter interface for ClickHouse.
type Adapter struct{}

// NewAdapter creates a new ClickHouse adapter.
func NewAdapter() adapter.DatabaseAdapter {
	return &Adapter{}
}

// Name returns the driver name.
func (a *Adapter) Name() string {
	return DriverName
}

// Connect establishes a connection to a ClickHouse database.
func (a *Adapter) Connect(ctx context.Context, config adapter.ConnectionConfig) (adapter.Connection, error) {
	options, err := Options(config)
	if err != nil {
		return nil, adapter.NewConfigurationError(config.DatabaseType, "ssl", err.Error())
	}
	return adapter.PingSQL(ctx, a, config, clickhouse.OpenDB(options))
}

// Options builds the client options from the connection config.
func Options(config adapter.ConnectionConfig) (*clickhouse.Options, error) {
	addrs := config.Hosts
	if len(addrs) == 0 {
		addrs = []string{config.Address()}
	}

	dialTimeout := 10 * time.Second
	if config.Timeout > 0 {
		dialTimeout = config.Timeout
	}

	options := &clickhouse.Options{
		Addr: addrs,
		Auth: clickhouse.Auth{
			Database: config.DatabaseName,
			Username: config.Username,
			Password: config.Password,
		},
		Settings: clickhouse.Settings{
			"max_execution_time": config.OptionInt("max_execution_time", 60),
		},
		DialTimeout: dialTimeout,
	}
	if config.OptionString("protocol", "native") == "http" {
		options.Protocol = clickhouse.HTTP
	}

	if config.SSL {
		tlsConfig, err := config.TLSConfig()
		if err != nil {
			return nil, err
		}
		options.TLS = tlsConfig
	}
	return options, nil
}
