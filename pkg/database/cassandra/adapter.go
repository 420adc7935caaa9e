// Package cassandra registers the "cassandra" driver for Apache Cassandra and
// ScyllaDB. Raw returns the *gocql.Session bound to the descriptor keyspace.
package cassandra

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gocql/gocql"

	"github.com/redbco/redb-connect/pkg/adapter"
)

// DriverName is the descriptor driver served by this package.
const DriverName = "cassandra"

// Adapter implements the adapter.DatabaseAdapter interface for Cassandra.
type Adapter struct{}

// NewAdapter creates a new Cassandra adapter.
func NewAdapter() adapter.DatabaseAdapter {
	return &Adapter{}
}

// Name returns the driver name.
func (a *Adapter) Name() string {
	return DriverName
}

// Connect creates a session and reads the server release version.
func (a *Adapter) Connect(ctx context.Context, config adapter.ConnectionConfig) (adapter.Connection, error) {
	if config.DatabaseName == "" {
		return nil, adapter.NewConfigurationError(config.DatabaseType, "keyspace", "keyspace is required")
	}

	cluster, err := Cluster(config)
	if err != nil {
		return nil, adapter.NewConfigurationError(config.DatabaseType, "consistency", err.Error())
	}

	session, err := cluster.CreateSession()
	if err != nil {
		return nil, adapter.NewConnectionError(config.DatabaseType, config.Host, config.Port,
			fmt.Errorf("error connecting to Cassandra: %w", err))
	}

	ping := func(ctx context.Context) error {
		return session.Query("SELECT release_version FROM system.local").WithContext(ctx).Scan(new(string))
	}
	if err := ping(ctx); err != nil {
		session.Close()
		return nil, adapter.NewConnectionError(config.DatabaseType, config.Host, config.Port,
			fmt.Errorf("error testing Cassandra connection: %w", err))
	}

	closeFn := func() error {
		session.Close()
		return nil
	}
	return adapter.NewClientConnection(a, config, session, ping, closeFn), nil
}

// Cluster builds the cluster configuration. Queries are not retried.
func Cluster(config adapter.ConnectionConfig) (*gocql.ClusterConfig, error) {
	hosts := config.Hosts
	if len(hosts) == 0 {
		hosts = []string{config.Host}
	}

	cluster := gocql.NewCluster(hosts...)
	if config.Port != 0 {
		cluster.Port = config.Port
	}
	cluster.Keyspace = config.DatabaseName
	cluster.RetryPolicy = &gocql.SimpleRetryPolicy{NumRetries: 0}

	consistency := gocql.Quorum
	if c := config.OptionString("consistency", ""); c != "" {
		var err error
		consistency, err = gocql.ParseConsistencyWrapper(strings.ToUpper(c))
		if err != nil {
			return nil, err
		}
	}
	cluster.Consistency = consistency

	timeout := 10 * time.Second
	if config.Timeout > 0 {
		timeout = config.Timeout
	}
	cluster.Timeout = timeout
	cluster.ConnectTimeout = timeout

	if config.Username != "" {
		cluster.Authenticator = gocql.PasswordAuthenticator{
			Username: config.Username,
			Password: config.Password,
		}
	}

	if dc := config.OptionString("local_dc", ""); dc != "" {
		cluster.PoolConfig.HostSelectionPolicy = gocql.TokenAwareHostPolicy(gocql.DCAwareRoundRobinPolicy(dc))
	}

	if config.SSL {
		sslOpts := &gocql.SslOptions{
			EnableHostVerification: config.SSLMode != "skip-verify",
			CaPath:                 config.SSLRootCert,
		}
		if config.SSLCert != "" && config.SSLKey != "" {
			sslOpts.CertPath = config.SSLCert
			sslOpts.KeyPath = config.SSLKey
		}
		cluster.SslOpts = sslOpts
	}

	return cluster, nil
}
