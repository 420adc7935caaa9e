package elasticsearch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/redbco/redb-connect/pkg/adapter"
	"github.com/redbco/redb-connect/pkg/dbcapabilities"
)

func TestAddresses(t *testing.T) {
	tests := []struct {
		name   string
		config adapter.ConnectionConfig
		want   []string
	}{
		{"default", adapter.ConnectionConfig{Host: "es"}, []string{"http://es:9200"}},
		{"tls", adapter.ConnectionConfig{Host: "es", Port: 443, SSL: true}, []string{"https://es:443"}},
		{"nodes", adapter.ConnectionConfig{Hosts: []string{"a:9200", "b:9200"}}, []string{"http://a:9200", "http://b:9200"}},
		{"url", adapter.ConnectionConfig{URL: "https://search.example.com"}, []string{"https://search.example.com"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Addresses(tt.config, 9200))
		})
	}
}

func TestConfig(t *testing.T) {
	cfg, err := Config(adapter.ConnectionConfig{Host: "es", Token: "key", Options: map[string]interface{}{"cloud_id": "dep:abc"}})
	require.NoError(t, err)
	assert.Equal(t, "key", cfg.APIKey)
	assert.Equal(t, "dep:abc", cfg.CloudID)
	assert.Nil(t, cfg.Addresses)
	assert.True(t, cfg.DisableRetry)
}

func TestConnect(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		_, _ = w.Write([]byte(`{"version":{"number":"8.18.0","build_flavor":"default"},"tagline":"You Know, for Search"}`))
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, err := NewAdapter().Connect(ctx, adapter.ConnectionConfig{
		DatabaseType: dbcapabilities.Elasticsearch,
		URL:          srv.URL,
	})
	require.NoError(t, err)
	_, ok := conn.Raw().(*elasticsearch.Client)
	assert.True(t, ok)
	assert.NoError(t, conn.Ping(ctx))
	require.NoError(t, conn.Close())
	assert.ErrorIs(t, conn.Ping(ctx), adapter.ErrConnectionClosed)
}

func TestConnectErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	_, err := NewAdapter().Connect(context.Background(), adapter.ConnectionConfig{
		DatabaseType: dbcapabilities.Elasticsearch,
		URL:          srv.URL,
	})
	require.Error(t, err)
	assert.True(t, adapter.IsConnectionError(err))
}
