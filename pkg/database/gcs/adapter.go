// Package gcs registers the "gcs" driver for Google Cloud Storage. The
// connection implements adapter.ObjectStore over one bucket.
package gcs

import (
	"context"
	"errors"
	"fmt"
	"io"

	"cloud.google.com/go/storage"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	"github.com/redbco/redb-connect/pkg/adapter"
)

// DriverName is the descriptor driver served by this package.
const DriverName = "gcs"

// Adapter implements the adapter.DatabaseAdapter interface for GCS.
type Adapter struct{}

// NewAdapter creates a new GCS adapter.
func NewAdapter() adapter.DatabaseAdapter {
	return &Adapter{}
}

// Name returns the driver name.
func (a *Adapter) Name() string {
	return DriverName
}

// Connection is a GCS bucket connection.
type Connection struct {
	*adapter.ClientConnection
	bucket *storage.BucketHandle
}

// Connect creates the client and reads the bucket attributes.
func (a *Adapter) Connect(ctx context.Context, config adapter.ConnectionConfig) (adapter.Connection, error) {
	name := config.Bucket
	if name == "" {
		name = config.DatabaseName
	}
	if name == "" {
		return nil, adapter.NewConfigurationError(config.DatabaseType, "bucket", "bucket is required")
	}

	client, err := storage.NewClient(ctx, ClientOptions(config)...)
	if err != nil {
		return nil, adapter.NewConfigurationError(config.DatabaseType, "credentials",
			fmt.Sprintf("failed to create GCS client: %v", err))
	}

	bucket := client.Bucket(name).Retryer(storage.WithPolicy(storage.RetryNever))
	ping := func(ctx context.Context) error {
		if _, err := bucket.Attrs(ctx); err != nil {
			return fmt.Errorf("failed to check bucket: %w", err)
		}
		return nil
	}
	if err := ping(ctx); err != nil {
		client.Close()
		return nil, adapter.NewConnectionError(config.DatabaseType, config.Endpoint, 0, err)
	}

	return &Connection{
		ClientConnection: adapter.NewClientConnection(a, config, client, ping, client.Close),
		bucket:           bucket,
	}, nil
}

// ClientOptions maps credentials_file, credentials_json and endpoint to
// client options. An endpoint without credentials is treated as an emulator
// and skips authentication.
func ClientOptions(config adapter.ConnectionConfig) []option.ClientOption {
	var opts []option.ClientOption

	switch {
	case config.CredentialsFile != "":
		opts = append(opts, option.WithCredentialsFile(config.CredentialsFile))
	case config.CredentialsJSON != "":
		opts = append(opts, option.WithCredentialsJSON([]byte(config.CredentialsJSON)))
	case config.Endpoint != "":
		opts = append(opts, option.WithoutAuthentication())
	}

	if config.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(config.Endpoint))
	}
	return opts
}

func (c *Connection) PutObject(ctx context.Context, key string, data []byte) error {
	w := c.bucket.Object(key).NewWriter(ctx)
	w.ContentType = "application/json"
	if _, err := w.Write(data); err != nil {
		w.Close()
		return fmt.Errorf("failed to write object: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to write object: %w", err)
	}
	return nil
}

func (c *Connection) GetObject(ctx context.Context, key string) ([]byte, error) {
	r, err := c.bucket.Object(key).NewReader(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return nil, adapter.ErrObjectNotFound
		}
		return nil, fmt.Errorf("failed to read object: %w", err)
	}
	defer r.Close()

	return io.ReadAll(r)
}

func (c *Connection) ListObjects(ctx context.Context, prefix string, limit int) ([]string, error) {
	var keys []string
	it := c.bucket.Objects(ctx, &storage.Query{Prefix: prefix})
	for {
		attrs, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to list objects: %w", err)
		}
		keys = append(keys, attrs.Name)
		if limit > 0 && len(keys) >= limit {
			break
		}
	}
	return keys, nil
}

func (c *Connection) DeleteObject(ctx context.Context, key string) error {
	err := c.bucket.Object(key).Delete(ctx)
	if err != nil && !errors.Is(err, storage.ErrObjectNotExist) {
		return fmt.Errorf("failed to delete object: %w", err)
	}
	return nil
}
