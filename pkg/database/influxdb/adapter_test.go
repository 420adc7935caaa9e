package influxdb

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/redbco/redb-connect/pkg/adapter"
	"github.com/redbco/redb-connect/pkg/dbcapabilities"
)

func TestServerURL(t *testing.T) {
	assert.Equal(t, "http://influx:8086", ServerURL(adapter.ConnectionConfig{Host: "influx"}))
	assert.Equal(t, "https://influx:443", ServerURL(adapter.ConnectionConfig{Host: "influx", Port: 443, SSL: true}))
	assert.Equal(t, "http://x:1", ServerURL(adapter.ConnectionConfig{URL: "http://x:1", Host: "influx"}))
}

func TestConnect(t *testing.T) {
	var paths []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, err := NewAdapter().Connect(ctx, adapter.ConnectionConfig{
		DatabaseType: dbcapabilities.InfluxDB,
		URL:          srv.URL,
		Token:        "token",
		Organization: "acme",
		Bucket:       "metrics",
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"/ping"}, paths)

	_, ok := conn.Raw().(influxdb2.Client)
	assert.True(t, ok)
	assert.NoError(t, conn.Close())
	assert.False(t, conn.IsConnected())
}

func TestConnectRequiresOrg(t *testing.T) {
	_, err := NewAdapter().Connect(context.Background(), adapter.ConnectionConfig{URL: "http://localhost:8086"})
	require.Error(t, err)
	assert.True(t, adapter.IsConfigurationError(err))
}
