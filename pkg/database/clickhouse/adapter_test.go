package clickhouse

import (
	"testing"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/redbco/redb-connect/pkg/adapter"
)

func TestOptions(t *testing.T) {
	opts, err := Options(adapter.ConnectionConfig{
		Host:         "ch",
		Port:         9000,
		Username:     "default",
		Password:     "pw",
		DatabaseName: "events",
		Options:      map[string]interface{}{"protocol": "http"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"ch:9000"}, opts.Addr)
	assert.Equal(t, "events", opts.Auth.Database)
	assert.Equal(t, clickhouse.HTTP, opts.Protocol)
	assert.Equal(t, 10*time.Second, opts.DialTimeout)
	assert.Nil(t, opts.TLS)
}

func TestOptionsCluster(t *testing.T) {
	opts, err := Options(adapter.ConnectionConfig{Hosts: []string{"a:9000", "b:9000"}, SSL: true, SSLMode: "skip-verify"})
	require.NoError(t, err)
	assert.Equal(t, []string{"a:9000", "b:9000"}, opts.Addr)
	require.NotNil(t, opts.TLS)
	assert.True(t, opts.TLS.InsecureSkipVerify)
}

func TestOptionsMissingCert(t *testing.T) {
	_, err := Options(adapter.ConnectionConfig{Host: "ch", SSL: true, SSLRootCert: "/does/not/exist.pem"})
	assert.Error(t, err)
}
