// Package s3 registers the "s3" driver for Amazon S3 and S3-compatible
// services. The connection implements adapter.ObjectStore over one bucket.
package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/redbco/redb-connect/pkg/adapter"
	"github.com/redbco/redb-connect/pkg/database/internal/awsconfig"
)

// DriverName is the descriptor driver served by this package.
const DriverName = "s3"

// Adapter implements the adapter.DatabaseAdapter interface for S3.
type Adapter struct{}

// NewAdapter creates a new S3 adapter.
func NewAdapter() adapter.DatabaseAdapter {
	return &Adapter{}
}

// Name returns the driver name.
func (a *Adapter) Name() string {
	return DriverName
}

// Connection is an S3 bucket connection.
type Connection struct {
	*adapter.ClientConnection
	client *s3.Client
	bucket string
}

// Connect builds the client and checks that the bucket exists.
func (a *Adapter) Connect(ctx context.Context, config adapter.ConnectionConfig) (adapter.Connection, error) {
	bucket := config.Bucket
	if bucket == "" {
		bucket = config.DatabaseName
	}
	if bucket == "" {
		return nil, adapter.NewConfigurationError(config.DatabaseType, "bucket", "bucket is required")
	}

	client, err := NewClient(ctx, config)
	if err != nil {
		return nil, adapter.NewConfigurationError(config.DatabaseType, "aws", err.Error())
	}

	ping := func(ctx context.Context) error {
		_, err := client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(bucket)})
		return err
	}
	if err := ping(ctx); err != nil {
		return nil, adapter.NewConnectionError(config.DatabaseType, config.Endpoint, 0,
			fmt.Errorf("error checking bucket %s: %w", bucket, err))
	}

	return &Connection{
		ClientConnection: adapter.NewClientConnection(a, config, client, ping, nil),
		client:           client,
		bucket:           bucket,
	}, nil
}

// NewClient returns an S3 client. endpoint selects an S3-compatible service
// and path_style switches to path-style addressing.
func NewClient(ctx context.Context, config adapter.ConnectionConfig) (*s3.Client, error) {
	awsCfg, err := awsconfig.Load(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	endpoint := config.Endpoint
	if endpoint == "" && config.Host != "" && config.Host != "s3.amazonaws.com" {
		endpoint = fmt.Sprintf("https://%s", config.Host)
		if config.Port > 0 && config.Port != 443 {
			endpoint = fmt.Sprintf("http://%s:%d", config.Host, config.Port)
		}
	}

	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
		o.UsePathStyle = config.PathStyle
	}), nil
}

// Bucket returns the bucket name.
func (c *Connection) Bucket() string {
	return c.bucket
}

func (c *Connection) PutObject(ctx context.Context, key string, data []byte) error {
	_, err := c.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(c.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("failed to put object: %w", err)
	}
	return nil
}

func (c *Connection) GetObject(ctx context.Context, key string) ([]byte, error) {
	result, err := c.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var nsk *s3types.NoSuchKey
		if errors.As(err, &nsk) {
			return nil, adapter.ErrObjectNotFound
		}
		return nil, fmt.Errorf("failed to get object: %w", err)
	}
	defer result.Body.Close()

	return io.ReadAll(result.Body)
}

func (c *Connection) ListObjects(ctx context.Context, prefix string, limit int) ([]string, error) {
	var keys []string
	paginator := s3.NewListObjectsV2Paginator(c.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(c.bucket),
		Prefix: aws.String(prefix),
	})

	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list objects: %w", err)
		}
		for _, obj := range page.Contents {
			if obj.Key == nil {
				continue
			}
			keys = append(keys, *obj.Key)
			if limit > 0 && len(keys) >= limit {
				return keys, nil
			}
		}
	}
	return keys, nil
}

func (c *Connection) DeleteObject(ctx context.Context, key string) error {
	_, err := c.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete object: %w", err)
	}
	return nil
}
