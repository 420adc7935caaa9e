package milvus

import (
	"context"
	"fmt"

	"github.com/redbco/redb-connect/pkg/adapter"
)

// DriverName is the descriptor driver served by this package.
const DriverName = "milvus"

const listCollectionsPath = "/v2/vectordb/collections/list"

// Adapter implements the adapter.DatabaseAdapter interface for Milvus.
type Adapter struct{}

// NewAdapter creates a new Milvus adapter.
func NewAdapter() adapter.DatabaseAdapter {
	return &Adapter{}
}

// Name returns the driver name.
func (a *Adapter) Name() string {
	return DriverName
}

type apiResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Connect creates the client and lists collections in the configured
// database to verify reachability and credentials.
func (a *Adapter) Connect(ctx context.Context, config adapter.ConnectionConfig) (adapter.Connection, error) {
	client := NewClient(BaseURL(config), config.Token, config.Username, config.Password, config.Timeout)

	ping := func(ctx context.Context) error {
		var resp apiResponse
		body := map[string]interface{}{}
		if config.DatabaseName != "" {
			body["dbName"] = config.DatabaseName
		}
		if err := client.Post(ctx, listCollectionsPath, body, &resp); err != nil {
			return err
		}
		if resp.Code != 0 {
			return fmt.Errorf("milvus error %d: %s", resp.Code, resp.Message)
		}
		return nil
	}
	if err := ping(ctx); err != nil {
		client.Close()
		return nil, adapter.NewConnectionError(config.DatabaseType, config.Host, config.Port,
			fmt.Errorf("error connecting to Milvus: %w", err))
	}

	return adapter.NewClientConnection(a, config, client, ping, client.Close), nil
}

// BaseURL returns url, or http(s)://host:port with port 19530 by default.
func BaseURL(config adapter.ConnectionConfig) string {
	if config.URL != "" {
		return config.URL
	}
	scheme := "http"
	if config.SSL {
		scheme = "https"
	}
	port := config.Port
	if port == 0 {
		port = defaultPort
	}
	return fmt.Sprintf("%s://%s:%d", scheme, config.Host, port)
}
