// Package minio registers the "minio" driver. The connection implements
// adapter.ObjectStore over one bucket.
package minio

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/redbco/redb-connect/pkg/adapter"
)

// DriverName is the descriptor driver served by this package.
const DriverName = "minio"

// Adapter implements the adapter.DatabaseAdapter interface for MinIO.
type Adapter struct{}

// NewAdapter creates a new MinIO adapter.
func NewAdapter() adapter.DatabaseAdapter {
	return &Adapter{}
}

// Name returns the driver name.
func (a *Adapter) Name() string {
	return DriverName
}

// Connection is a MinIO bucket connection.
type Connection struct {
	*adapter.ClientConnection
	client *minio.Client
	bucket string
}

// Connect creates the client and checks that the bucket exists.
func (a *Adapter) Connect(ctx context.Context, config adapter.ConnectionConfig) (adapter.Connection, error) {
	bucket := config.Bucket
	if bucket == "" {
		bucket = config.DatabaseName
	}
	if bucket == "" {
		return nil, adapter.NewConfigurationError(config.DatabaseType, "bucket", "bucket is required")
	}

	endpoint, options := Options(config)
	client, err := minio.New(endpoint, options)
	if err != nil {
		return nil, adapter.NewConfigurationError(config.DatabaseType, "endpoint", err.Error())
	}

	ping := func(ctx context.Context) error {
		exists, err := client.BucketExists(ctx, bucket)
		if err != nil {
			return fmt.Errorf("failed to check bucket: %w", err)
		}
		if !exists {
			return fmt.Errorf("bucket does not exist: %s", bucket)
		}
		return nil
	}
	if err := ping(ctx); err != nil {
		return nil, adapter.NewConnectionError(config.DatabaseType, config.Host, config.Port, err)
	}

	return &Connection{
		ClientConnection: adapter.NewClientConnection(a, config, client, ping, nil),
		client:           client,
		bucket:           bucket,
	}, nil
}

// Options returns the endpoint (host:port, default port 9000) and client
// options. path_style forces path-style bucket lookup.
func Options(config adapter.ConnectionConfig) (string, *minio.Options) {
	endpoint := config.Endpoint
	if endpoint == "" {
		port := config.Port
		if port == 0 {
			port = 9000
		}
		endpoint = fmt.Sprintf("%s:%d", config.Host, port)
	}

	options := &minio.Options{
		Creds:  credentials.NewStaticV4(config.AccessKeyID, config.SecretAccessKey, config.SessionToken),
		Secure: config.SSL,
		Region: config.Region,
	}
	if config.PathStyle {
		options.BucketLookup = minio.BucketLookupPath
	}
	return endpoint, options
}

func (c *Connection) PutObject(ctx context.Context, key string, data []byte) error {
	_, err := c.client.PutObject(ctx, c.bucket, key, bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: "application/json"})
	if err != nil {
		return fmt.Errorf("failed to put object: %w", err)
	}
	return nil
}

func (c *Connection) GetObject(ctx context.Context, key string) ([]byte, error) {
	obj, err := c.client.GetObject(ctx, c.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, mapError(err)
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, mapError(err)
	}
	return data, nil
}

func (c *Connection) ListObjects(ctx context.Context, prefix string, limit int) ([]string, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var keys []string
	for obj := range c.client.ListObjects(ctx, c.bucket, minio.ListObjectsOptions{Prefix: prefix, Recursive: true}) {
		if obj.Err != nil {
			return nil, fmt.Errorf("failed to list objects: %w", obj.Err)
		}
		keys = append(keys, obj.Key)
		if limit > 0 && len(keys) >= limit {
			break
		}
	}
	return keys, nil
}

func (c *Connection) DeleteObject(ctx context.Context, key string) error {
	if err := c.client.RemoveObject(ctx, c.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("failed to delete object: %w", err)
	}
	return nil
}

func mapError(err error) error {
	if minio.ToErrorResponse(err).Code == "NoSuchKey" {
		return adapter.ErrObjectNotFound
	}
	return fmt.Errorf("failed to get object: %w", err)
}
