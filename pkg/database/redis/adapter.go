// Package redis registers the "redis" driver. Raw returns a
// redis.UniversalClient: a single node, a cluster when several hosts are
// given, or a sentinel failover client when master_name is set.
package redis

import (
	"context"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"

	"github.com/redbco/redb-connect/pkg/adapter"
)

// DriverName is the descriptor driver served by this package.
const DriverName = "redis"

// Adapter implements the adapter.DatabaseAdapter interface for Redis.
type Adapter struct{}

// NewAdapter creates a new Redis adapter.
func NewAdapter() adapter.DatabaseAdapter {
	return &Adapter{}
}

// Name returns the driver name.
func (a *Adapter) Name() string {
	return DriverName
}

// Connect creates the client and pings it.
func (a *Adapter) Connect(ctx context.Context, config adapter.ConnectionConfig) (adapter.Connection, error) {
	options, err := Options(config)
	if err != nil {
		return nil, adapter.NewConfigurationError(config.DatabaseType, "redis", err.Error())
	}

	client := redis.NewUniversalClient(options)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, adapter.NewConnectionError(config.DatabaseType, config.Host, config.Port,
			fmt.Errorf("error connecting to Redis: %w", err))
	}

	ping := func(ctx context.Context) error { return client.Ping(ctx).Err() }
	return adapter.NewClientConnection(a, config, client, ping, client.Close), nil
}

// Options translates the connection config. A redis:// url is parsed with
// redis.ParseURL; otherwise the database parameter is the numeric db index.
// Client-side retries are disabled.
func Options(config adapter.ConnectionConfig) (*redis.UniversalOptions, error) {
	if config.URL != "" {
		single, err := redis.ParseURL(config.URL)
		if err != nil {
			return nil, err
		}
		return &redis.UniversalOptions{
			Addrs:      []string{single.Addr},
			DB:         single.DB,
			Username:   single.Username,
			Password:   single.Password,
			TLSConfig:  single.TLSConfig,
			MaxRetries: -1,
		}, nil
	}

	addrs := config.Hosts
	if len(addrs) == 0 {
		port := config.Port
		if port == 0 {
			port = 6379
		}
		addrs = []string{fmt.Sprintf("%s:%d", config.Host, port)}
	}

	options := &redis.UniversalOptions{
		Addrs:      addrs,
		Username:   config.Username,
		Password:   config.Password,
		MasterName: config.OptionString("master_name", ""),
		MaxRetries: -1,
	}

	if config.DatabaseName != "" {
		db, err := strconv.Atoi(config.DatabaseName)
		if err != nil || db < 0 {
			return nil, fmt.Errorf("database %q is not a valid db index", config.DatabaseName)
		}
		options.DB = db
	}

	if config.Timeout > 0 {
		options.DialTimeout = config.Timeout
		options.ReadTimeout = config.Timeout
		options.WriteTimeout = config.Timeout
	}

	if config.SSL {
		tlsConfig, err := config.TLSConfig()
		if err != nil {
			return nil, err
		}
		options.TLSConfig = tlsConfig
	}

	return options, nil
}
