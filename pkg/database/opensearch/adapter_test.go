package opensearch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/opensearch-project/opensearch-go/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/redbco/redb-connect/pkg/adapter"
	"github.com/redbco/redb-connect/pkg/dbcapabilities"
)

func TestConnect(t *testing.T) {
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"version":{"number":"2.13.0","distribution":"opensearch"}}`))
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, err := NewAdapter().Connect(ctx, adapter.ConnectionConfig{
		DatabaseType: dbcapabilities.OpenSearch,
		URL:          srv.URL,
		Username:     "admin",
		Password:     "admin",
	})
	require.NoError(t, err)
	defer conn.Close()

	_, ok := conn.Raw().(*opensearch.Client)
	assert.True(t, ok)
	assert.Equal(t, "Basic YWRtaW46YWRtaW4=", auth)
}

func TestConnectErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := NewAdapter().Connect(context.Background(), adapter.ConnectionConfig{
		DatabaseType: dbcapabilities.OpenSearch,
		URL:          srv.URL,
	})
	require.Error(t, err)
	assert.True(t, adapter.IsConnectionError(err))
}
