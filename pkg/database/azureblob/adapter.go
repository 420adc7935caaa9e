// Package azureblob registers the "azureblob" driver. The connection
// implements adapter.ObjectStore over one container.
package azureblob

import (
	"context"
	"fmt"
	"io"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/blob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/bloberror"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/container"

	"github.com/redbco/redb-connect/pkg/adapter"
)

// DriverName is the descriptor driver served by this package.
const DriverName = "azureblob"

// Adapter implements the adapter.DatabaseAdapter interface for Azure Blob Storage.
type Adapter struct{}

// NewAdapter creates a new Azure Blob adapter.
func NewAdapter() adapter.DatabaseAdapter {
	return &Adapter{}
}

// Name returns the driver name.
func (a *Adapter) Name() string {
	return DriverName
}

// Connection is an Azure Blob container connection.
type Connection struct {
	*adapter.ClientConnection
	client    *azblob.Client
	container string
}

// Connect creates the client and reads the container properties.
func (a *Adapter) Connect(ctx context.Context, config adapter.ConnectionConfig) (adapter.Connection, error) {
	name := config.Bucket
	if name == "" {
		name = config.DatabaseName
	}
	if name == "" {
		return nil, adapter.NewConfigurationError(config.DatabaseType, "container", "container is required")
	}

	connStr, err := ConnectionString(config)
	if err != nil {
		return nil, adapter.NewConfigurationError(config.DatabaseType, "connection_string", err.Error())
	}

	client, err := azblob.NewClientFromConnectionString(connStr, &azblob.ClientOptions{
		ClientOptions: azcore.ClientOptions{
			Retry: policy.RetryOptions{MaxRetries: -1},
		},
	})
	if err != nil {
		return nil, adapter.NewConfigurationError(config.DatabaseType, "connection_string",
			fmt.Sprintf("failed to create Azure Blob client: %v", err))
	}

	containerClient := client.ServiceClient().NewContainerClient(name)
	ping := func(ctx context.Context) error {
		if _, err := containerClient.GetProperties(ctx, nil); err != nil {
			return fmt.Errorf("failed to check container: %w", err)
		}
		return nil
	}
	if err := ping(ctx); err != nil {
		return nil, adapter.NewConnectionError(config.DatabaseType, config.Host, config.Port, err)
	}

	return &Connection{
		ClientConnection: adapter.NewClientConnection(a, config, client, ping, nil),
		client:           client,
		container:        name,
	}, nil
}

// ConnectionString returns the connection_string parameter, or builds one
// from the account name (user) and account key (password).
func ConnectionString(config adapter.ConnectionConfig) (string, error) {
	if config.ConnectionString != "" {
		return config.ConnectionString, nil
	}
	if config.Username == "" || config.Password == "" {
		return "", fmt.Errorf("Azure Blob requires account name and account key")
	}

	connStr := fmt.Sprintf("DefaultEndpointsProtocol=https;AccountName=%s;AccountKey=%s;",
		config.Username, config.Password)
	if config.Endpoint != "" {
		connStr += fmt.Sprintf("BlobEndpoint=%s;", config.Endpoint)
	} else {
		connStr += "EndpointSuffix=core.windows.net"
	}
	return connStr, nil
}

func (c *Connection) PutObject(ctx context.Context, key string, data []byte) error {
	_, err := c.client.UploadBuffer(ctx, c.container, key, data, &azblob.UploadBufferOptions{
		HTTPHeaders: &blob.HTTPHeaders{BlobContentType: to.Ptr("application/json")},
	})
	if err != nil {
		return fmt.Errorf("failed to upload blob: %w", err)
	}
	return nil
}

func (c *Connection) GetObject(ctx context.Context, key string) ([]byte, error) {
	resp, err := c.client.DownloadStream(ctx, c.container, key, nil)
	if err != nil {
		if bloberror.HasCode(err, bloberror.BlobNotFound) {
			return nil, adapter.ErrObjectNotFound
		}
		return nil, fmt.Errorf("failed to download blob: %w", err)
	}
	defer resp.Body.Close()

	return io.ReadAll(resp.Body)
}

func (c *Connection) ListObjects(ctx context.Context, prefix string, limit int) ([]string, error) {
	var keys []string
	pager := c.client.NewListBlobsFlatPager(c.container, &container.ListBlobsFlatOptions{
		Prefix: to.Ptr(prefix),
	})
	for pager.More() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list blobs: %w", err)
		}
		for _, item := range page.Segment.BlobItems {
			if item.Name == nil {
				continue
			}
			keys = append(keys, *item.Name)
			if limit > 0 && len(keys) >= limit {
				return keys, nil
			}
		}
	}
	return keys, nil
}

func (c *Connection) DeleteObject(ctx context.Context, key string) error {
	_, err := c.client.DeleteBlob(ctx, c.container, key, nil)
	if err != nil && !bloberror.HasCode(err, bloberror.BlobNotFound) {
		return fmt.Errorf("failed to delete blob: %w", err)
	}
	return nil
}
