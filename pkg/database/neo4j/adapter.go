// Package neo4j registers the "neo4j" driver. Raw returns the
// neo4j.DriverWithContext; the descriptor database selects the session
// database.
package neo4j

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/redbco/redb-connect/pkg/adapter"
)

// DriverName is the descriptor driver served by this package.
const DriverName = "neo4j"

// Adapter implements the adapter.DatabaseAdapter interface for Neo4j.
type Adapter struct{}

// NewAdapter creates a new Neo4j adapter.
func NewAdapter() adapter.DatabaseAdapter {
	return &Adapter{}
}

// Name returns the driver name.
func (a *Adapter) Name() string {
	return DriverName
}

// Connect creates the driver and verifies connectivity.
func (a *Adapter) Connect(ctx context.Context, config adapter.ConnectionConfig) (adapter.Connection, error) {
	auth := neo4j.NoAuth()
	if config.Username != "" {
		auth = neo4j.BasicAuth(config.Username, config.Password, "")
	}

	driver, err := neo4j.NewDriverWithContext(URI(config), auth, func(c *neo4j.Config) {
		c.MaxTransactionRetryTime = 0
		if config.Timeout > 0 {
			c.SocketConnectTimeout = config.Timeout
			c.ConnectionAcquisitionTimeout = config.Timeout
		}
	})
	if err != nil {
		return nil, adapter.NewConfigurationError(config.DatabaseType, "url",
			fmt.Sprintf("error creating Neo4j driver: %v", err))
	}

	if err := driver.VerifyConnectivity(ctx); err != nil {
		driver.Close(context.Background())
		return nil, adapter.NewConnectionError(config.DatabaseType, config.Host, config.Port,
			fmt.Errorf("error connecting to Neo4j: %w", err))
	}

	closeFn := func() error { return driver.Close(context.Background()) }
	return adapter.NewClientConnection(a, config, driver, driver.VerifyConnectivity, closeFn), nil
}

// URI returns the url parameter, or neo4j://host:port (neo4j+s with ssl).
func URI(config adapter.ConnectionConfig) string {
	if config.URL != "" {
		return config.URL
	}
	scheme := "neo4j"
	if config.SSL {
		scheme = "neo4j+s"
	}
	port := config.Port
	if port == 0 {
		port = 7687
	}
	return fmt.Sprintf("%s://%s:%d", scheme, config.Host, port)
}
