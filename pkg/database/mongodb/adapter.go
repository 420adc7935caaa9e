// Package mongodb registers the "mongodb" driver. The connection's Raw handle
// is the *mongo.Database named by the descriptor.
package mongodb

import (
	"context"
	"fmt"
	"net/url"

	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"

	"github.com/redbco/redb-connect/pkg/adapter"
)

// DriverName is the descriptor driver served by this package.
const DriverName = "mongodb"

// Adapter implements the adapter.DatabaseAdapter interface for MongoDB.
type Adapter struct{}

// NewAdapter creates a new MongoDB adapter.
func NewAdapter() adapter.DatabaseAdapter {
	return &Adapter{}
}

// Name returns the driver name.
func (a *Adapter) Name() string {
	return DriverName
}

// Connect establishes a connection to a MongoDB database.
func (a *Adapter) Connect(ctx context.Context, config adapter.ConnectionConfig) (adapter.Connection, error) {
	if config.DatabaseName == "" {
		return nil, adapter.NewConfigurationError(config.DatabaseType, "database", "database name is required")
	}

	clientOptions := options.Client().ApplyURI(URI(config))
	if config.Timeout > 0 {
		clientOptions.SetConnectTimeout(config.Timeout)
		clientOptions.SetServerSelectionTimeout(config.Timeout)
	}

	client, err := mongo.Connect(clientOptions)
	if err != nil {
		return nil, adapter.NewConnectionError(config.DatabaseType, config.Host, config.Port,
			fmt.Errorf("error connecting to database: %w", err))
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, adapter.NewConnectionError(config.DatabaseType, config.Host, config.Port,
			fmt.Errorf("error pinging database: %w", err))
	}

	ping := func(ctx context.Context) error { return client.Ping(ctx, readpref.Primary()) }
	closeFn := func() error { return client.Disconnect(context.Background()) }
	return adapter.NewClientConnection(a, config, client.Database(config.DatabaseName), ping, closeFn), nil
}

// URI returns the url parameter when set, otherwise builds a mongodb:// URI
// authenticating against authSource (default admin).
func URI(config adapter.ConnectionConfig) string {
	if config.URL != "" {
		return config.URL
	}
	if config.ConnectionString != "" {
		return config.ConnectionString
	}

	q := url.Values{}
	if config.Username != "" {
		q.Set("authSource", config.OptionString("auth_source", "admin"))
	}
	if rs := config.OptionString("replica_set", ""); rs != "" {
		q.Set("replicaSet", rs)
	}
	if config.SSL {
		q.Set("tls", "true")
		if config.SSLCert != "" && config.SSLKey != "" {
			q.Set("tlsCertificateKeyFile", config.SSLCert)
		}
		if config.SSLRootCert != "" {
			q.Set("tlsCAFile", config.SSLRootCert)
		}
		if config.SSLMode == "allow" || config.SSLMode == "prefer" || config.SSLMode == "skip-verify" {
			q.Set("tlsInsecure", "true")
		}
	}

	host := config.Address()
	if len(config.Hosts) > 0 {
		host = ""
		for i, h := range config.Hosts {
			if i > 0 {
				host += ","
			}
			host += h
		}
	}

	u := url.URL{
		Scheme:   "mongodb",
		Host:     host,
		Path:     "/" + config.DatabaseName,
		RawQuery: q.Encode(),
	}
	if config.Username != "" {
		u.User = url.UserPassword(config.Username, config.Password)
	}
	return u.String()
}
