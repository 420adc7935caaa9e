// Package dynamodb registers the "dynamodb" driver. Raw returns the
// *dynamodb.Client; tables are addressed per operation.
package dynamodb

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"

	"github.com/redbco/redb-connect/pkg/adapter"
	"github.com/redbco/redb-connect/pkg/database/internal/awsconfig"
)

// DriverName is the descriptor driver served by this package.
const DriverName = "dynamodb"

// Adapter implements the adapter.DatabaseAdapter interface for DynamoDB.
type Adapter struct{}

// NewAdapter creates a new DynamoDB adapter.
func NewAdapter() adapter.DatabaseAdapter {
	return &Adapter{}
}

// Name returns the driver name.
func (a *Adapter) Name() string {
	return DriverName
}

// Connect builds the client and lists one table to verify credentials and
// reachability.
func (a *Adapter) Connect(ctx context.Context, config adapter.ConnectionConfig) (adapter.Connection, error) {
	client, err := NewClient(ctx, config)
	if err != nil {
		return nil, adapter.NewConfigurationError(config.DatabaseType, "aws", err.Error())
	}

	ping := func(ctx context.Context) error {
		_, err := client.ListTables(ctx, &dynamodb.ListTablesInput{Limit: aws.Int32(1)})
		return err
	}
	if err := ping(ctx); err != nil {
		return nil, adapter.NewConnectionError(config.DatabaseType, config.Endpoint, 0,
			fmt.Errorf("error testing DynamoDB connection: %w", err))
	}

	return adapter.NewClientConnection(a, config, client, ping, nil), nil
}

// NewClient returns a client for the configured region. endpoint points it
// at DynamoDB Local or another compatible service.
func NewClient(ctx context.Context, config adapter.ConnectionConfig) (*dynamodb.Client, error) {
	awsCfg, err := awsconfig.Load(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("error building AWS config: %w", err)
	}

	return dynamodb.NewFromConfig(awsCfg, func(o *dynamodb.Options) {
		if config.Endpoint != "" {
			o.BaseEndpoint = aws.String(config.Endpoint)
		}
	}), nil
}
