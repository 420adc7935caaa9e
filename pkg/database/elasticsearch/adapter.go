// Package elasticsearch registers the "elasticsearch" driver. Raw returns
// the *elasticsearch.Client.
package elasticsearch

import (
	"context"
	"fmt"
	"net/http"

	"github.com/elastic/go-elasticsearch/v8"

	"github.com/redbco/redb-connect/pkg/adapter"
)

// DriverName is the descriptor driver served by this package.
const DriverName = "elasticsearch"

// Adapter implements the adapter.DatabaseAdapter interface for Elasticsearch.
type Adapter struct{}

// NewAdapter creates a new Elasticsearch adapter.
func NewAdapter() adapter.DatabaseAdapter {
	return &Adapter{}
}

// Name returns the driver name.
func (a *Adapter) Name() string {
	return DriverName
}

// Connect creates the client and requests cluster info.
func (a *Adapter) Connect(ctx context.Context, config adapter.ConnectionConfig) (adapter.Connection, error) {
	cfg, err := Config(config)
	if err != nil {
		return nil, adapter.NewConfigurationError(config.DatabaseType, "ssl", err.Error())
	}

	client, err := elasticsearch.NewClient(cfg)
	if err != nil {
		return nil, adapter.NewConfigurationError(config.DatabaseType, "url",
			fmt.Sprintf("error creating Elasticsearch client: %v", err))
	}

	ping := func(ctx context.Context) error {
		res, err := client.Info(client.Info.WithContext(ctx))
		if err != nil {
			return err
		}
		defer res.Body.Close()
		if res.IsError() {
			return fmt.Errorf("error response from Elasticsearch: %s", res.String())
		}
		return nil
	}
	if err := ping(ctx); err != nil {
		return nil, adapter.NewConnectionError(config.DatabaseType, config.Host, config.Port,
			fmt.Errorf("error connecting to Elasticsearch: %w", err))
	}

	return adapter.NewClientConnection(a, config, client, ping, nil), nil
}

// Config builds the client configuration. api_key takes precedence over
// basic auth; retries are disabled.
func Config(config adapter.ConnectionConfig) (elasticsearch.Config, error) {
	cfg := elasticsearch.Config{
		Addresses:    Addresses(config, 9200),
		Username:     config.Username,
		Password:     config.Password,
		APIKey:       config.Token,
		CloudID:      config.OptionString("cloud_id", ""),
		DisableRetry: true,
	}
	if cfg.CloudID != "" {
		cfg.Addresses = nil
	}

	if config.SSL {
		tlsConfig, err := config.TLSConfig()
		if err != nil {
			return cfg, err
		}
		cfg.Transport = &http.Transport{TLSClientConfig: tlsConfig}
	}
	return cfg, nil
}

// Addresses returns the node URLs: url when set, otherwise one per host with
// http or https depending on ssl.
func Addresses(config adapter.ConnectionConfig, defaultPort int) []string {
	if config.URL != "" {
		return []string{config.URL}
	}

	scheme := "http"
	if config.SSL {
		scheme = "https"
	}
	port := config.Port
	if port == 0 {
		port = defaultPort
	}

	if len(config.Hosts) > 0 {
		addrs := make([]string, len(config.Hosts))
		for i, h := range config.Hosts {
			addrs[i] = fmt.Sprintf("%s://%s", scheme, h)
		}
		return addrs
	}
	return []string{fmt.Sprintf("%s://%s:%d", scheme, config.Host, port)}
}
