// Package opensearch registers the "opensearch" driver. Raw returns the
// *opensearch.Client.
package opensearch

import (
	"context"
	"fmt"
	"net/http"

	"github.com/opensearch-project/opensearch-go/v2"

	"github.com/redbco/redb-connect/pkg/adapter"
	"github.com/redbco/redb-connect/pkg/database/elasticsearch"
)

// DriverName is the descriptor driver served by this package.
const DriverName = "opensearch"

// Adapter implements the adapter.DatabaseAdapter interface for OpenSearch.
type Adapter struct{}

// NewAdapter creates a new OpenSearch adapter.
func NewAdapter() adapter.DatabaseAdapter {
	return &Adapter{}
}

// Name returns the driver name.
func (a *Adapter) Name() string {
	return DriverName
}

// Connect creates the client and requests cluster info.
func (a *Adapter) Connect(ctx context.Context, config adapter.ConnectionConfig) (adapter.Connection, error) {
	cfg := opensearch.Config{
		Addresses:    elasticsearch.Addresses(config, 9200),
		Username:     config.Username,
		Password:     config.Password,
		DisableRetry: true,
	}
	if config.SSL {
		tlsConfig, err := config.TLSConfig()
		if err != nil {
			return nil, adapter.NewConfigurationError(config.DatabaseType, "ssl", err.Error())
		}
		cfg.Transport = &http.Transport{TLSClientConfig: tlsConfig}
	}

	client, err := opensearch.NewClient(cfg)
	if err != nil {
		return nil, adapter.NewConfigurationError(config.DatabaseType, "url",
			fmt.Sprintf("error creating OpenSearch client: %v", err))
	}

	ping := func(ctx context.Context) error {
		res, err := client.Info(client.Info.WithContext(ctx))
		if err != nil {
			return err
		}
		defer res.Body.Close()
		if res.IsError() {
			return fmt.Errorf("error response from OpenSearch: %s", res.String())
		}
		return nil
	}
	if err := ping(ctx); err != nil {
		return nil, adapter.NewConnectionError(config.DatabaseType, config.Host, config.Port,
			fmt.Errorf("error connecting to OpenSearch: %w", err))
	}

	return adapter.NewClientConnection(a, config, client, ping, nil), nil
}
