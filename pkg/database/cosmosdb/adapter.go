// Package cosmosdb registers the "cosmosdb" driver for the Azure Cosmos DB
// NoSQL API. The connection's Raw handle is an *azcosmos.DatabaseClient.
package cosmosdb

import (
	"context"
	"fmt"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/data/azcosmos"

	"github.com/redbco/redb-connect/pkg/adapter"
	"github.com/redbco/redb-connect/pkg/dbcapabilities"
)

// DriverName is the descriptor driver served by this package.
const DriverName = "cosmosdb"

// Adapter implements the adapter.DatabaseAdapter interface for Cosmos DB.
type Adapter struct{}

// NewAdapter creates a new Cosmos DB adapter.
func NewAdapter() adapter.DatabaseAdapter {
	return &Adapter{}
}

// Name returns the driver name.
func (a *Adapter) Name() string {
	return DriverName
}

// Connect creates a client for the configured account and verifies that the
// database exists.
func (a *Adapter) Connect(ctx context.Context, config adapter.ConnectionConfig) (adapter.Connection, error) {
	if config.DatabaseName == "" {
		return nil, adapter.NewConfigurationError(config.DatabaseType, "database", "database name is required")
	}

	client, err := newClient(config)
	if err != nil {
		return nil, adapter.NewConfigurationError(config.DatabaseType, "connection_string", err.Error())
	}

	db, err := client.NewDatabase(config.DatabaseName)
	if err != nil {
		return nil, adapter.NewConfigurationError(config.DatabaseType, "database", err.Error())
	}

	ping := func(ctx context.Context) error {
		_, err := db.Read(ctx, nil)
		return err
	}
	if err := ping(ctx); err != nil {
		return nil, adapter.NewConnectionError(config.DatabaseType, config.Host, config.Port,
			fmt.Errorf("error reading database %s: %w", config.DatabaseName, err))
	}

	return adapter.NewClientConnection(a, config, db, ping, nil), nil
}

func newClient(config adapter.ConnectionConfig) (*azcosmos.Client, error) {
	options := &azcosmos.ClientOptions{
		ClientOptions: azcore.ClientOptions{
			Retry: policy.RetryOptions{MaxRetries: -1},
		},
	}

	if config.ConnectionString != "" {
		return azcosmos.NewClientFromConnectionString(config.ConnectionString, options)
	}

	key := config.Token
	if key == "" {
		key = config.Password
	}
	credential, err := azcosmos.NewKeyCredential(key)
	if err != nil {
		return nil, fmt.Errorf("error creating credential: %w", err)
	}
	return azcosmos.NewClientWithKey(Endpoint(config), credential, options)
}

// Endpoint returns the account endpoint. A bare account name expands to
// https://<account>.documents.azure.com:443/.
func Endpoint(config adapter.ConnectionConfig) string {
	if config.URL != "" {
		return config.URL
	}

	host := config.Host
	if strings.HasPrefix(host, "https://") || strings.HasPrefix(host, "http://") {
		return host
	}
	if dbcapabilities.IsLocalhostVariant(host) {
		port := config.Port
		if port == 0 {
			port = 8081
		}
		return fmt.Sprintf("https://%s:%d/", host, port)
	}

	account := strings.TrimSuffix(host, ".documents.azure.com")
	return fmt.Sprintf("https://%s.documents.azure.com:443/", account)
}
