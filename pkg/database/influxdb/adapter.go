// Package influxdb registers the "influxdb" driver for InfluxDB 2.x. Raw
// returns the influxdb2.Client; org and bucket come from the descriptor.
package influxdb

import (
	"context"
	"fmt"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"

	"github.com/redbco/redb-connect/pkg/adapter"
)

// DriverName is the descriptor driver served by this package.
const DriverName = "influxdb"

// Adapter implements the adapter.DatabaseAdapter interface for InfluxDB.
type Adapter struct{}

// NewAdapter creates a new InfluxDB adapter.
func NewAdapter() adapter.DatabaseAdapter {
	return &Adapter{}
}

// Name returns the driver name.
func (a *Adapter) Name() string {
	return DriverName
}

// Connect creates the client and pings the server.
func (a *Adapter) Connect(ctx context.Context, config adapter.ConnectionConfig) (adapter.Connection, error) {
	if config.Organization == "" {
		return nil, adapter.NewConfigurationError(config.DatabaseType, "org", "organization is required")
	}

	options := influxdb2.DefaultOptions().SetMaxRetries(0)
	if config.Timeout > 0 {
		options.SetHTTPRequestTimeout(uint(config.Timeout.Seconds()))
	}
	if config.SSL {
		tlsConfig, err := config.TLSConfig()
		if err != nil {
			return nil, adapter.NewConfigurationError(config.DatabaseType, "ssl", err.Error())
		}
		options.SetTLSConfig(tlsConfig)
	}

	client := influxdb2.NewClientWithOptions(ServerURL(config), config.Token, options)

	ping := func(ctx context.Context) error {
		ok, err := client.Ping(ctx)
		if err != nil {
			return fmt.Errorf("ping failed: %w", err)
		}
		if !ok {
			return fmt.Errorf("influxdb is not ready")
		}
		return nil
	}
	if err := ping(ctx); err != nil {
		client.Close()
		return nil, adapter.NewConnectionError(config.DatabaseType, config.Host, config.Port, err)
	}

	closeFn := func() error {
		client.Close()
		return nil
	}
	return adapter.NewClientConnection(a, config, client, ping, closeFn), nil
}

// ServerURL returns url, or http(s)://host:port with port 8086 by default.
func ServerURL(config adapter.ConnectionConfig) string {
	if config.URL != "" {
		return config.URL
	}
	scheme := "http"
	if config.SSL {
		scheme = "https"
	}
	port := config.Port
	if port == 0 {
		port = 8086
	}
	return fmt.Sprintf("%s://%s:%d", scheme, config.Host, port)
}
