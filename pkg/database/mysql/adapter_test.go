package mysql

import (
	"context"
	"testing"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/redbco/redb-connect/pkg/adapter"
	"github.com/redbco/redb-connect/pkg/dbcapabilities"
)

func TestDSN(t *testing.T) {
	tests := []struct {
		name    string
		config  adapter.ConnectionConfig
		wantTLS string
	}{
		{"plain", adapter.ConnectionConfig{Host: "db", Port: 3306, Username: "root", Password: "p@ss:word", DatabaseName: "shop"}, "false"},
		{"tls", adapter.ConnectionConfig{Host: "db", Port: 3306, Username: "root", DatabaseName: "shop", SSL: true}, "true"},
		{"tls skip verify", adapter.ConnectionConfig{Host: "db", Port: 3306, Username: "root", DatabaseName: "shop", SSL: true, SSLMode: "require"}, "skip-verify"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := mysql.ParseDSN(DSN(tt.config))
			require.NoError(t, err)
			assert.Equal(t, "db:3306", cfg.Addr)
			assert.Equal(t, tt.config.Username, cfg.User)
			assert.Equal(t, tt.config.Password, cfg.Passwd)
			assert.Equal(t, "shop", cfg.DBName)
			assert.True(t, cfg.ParseTime)
			assert.Equal(t, tt.wantTLS, cfg.TLSConfig)
		})
	}
}

func TestDSNOverride(t *testing.T) {
	dsn := "u:p@unix(/tmp/mysql.sock)/db"
	assert.Equal(t, dsn, DSN(adapter.ConnectionConfig{ConnectionString: dsn, Host: "ignored"}))
}

func TestDSNTimeout(t *testing.T) {
	cfg, err := mysql.ParseDSN(DSN(adapter.ConnectionConfig{Host: "db", Port: 3306, Timeout: 5 * time.Second}))
	require.NoError(t, err)
	assert.Equal(t, 5*time.Second, cfg.Timeout)
}

func TestRegistered(t *testing.T) {
	assert.True(t, adapter.IsRegistered(DriverName))
}

func TestConnectRefused(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := NewAdapter().Connect(ctx, adapter.ConnectionConfig{
		DatabaseType: dbcapabilities.MySQL,
		Host:         "127.0.0.1",
		Port:         1,
		Timeout:      time.Second,
	})
	require.Error(t, err)
	assert.True(t, adapter.IsConnectionError(err))
}
