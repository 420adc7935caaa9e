package dynamodb

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/redbco/redb-connect/pkg/adapter"
	"github.com/redbco/redb-connect/pkg/dbcapabilities"
)

func TestNewClientEndpoint(t *testing.T) {
	client, err := NewClient(context.Background(), adapter.ConnectionConfig{
		Region:          "eu-central-1",
		Endpoint:        "http://localhost:8000",
		AccessKeyID:     "local",
		SecretAccessKey: "local",
	})
	require.NoError(t, err)

	opts := client.Options()
	require.NotNil(t, opts.BaseEndpoint)
	assert.Equal(t, "http://localhost:8000", *opts.BaseEndpoint)
	assert.Equal(t, "eu-central-1", opts.Region)
}

func TestConnect(t *testing.T) {
	var target string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		target = r.Header.Get("X-Amz-Target")
		w.Header().Set("Content-Type", "application/x-amz-json-1.0")
		_, _ = w.Write([]byte(`{"TableNames":["users"]}`))
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, err := NewAdapter().Connect(ctx, adapter.ConnectionConfig{
		DatabaseType:    dbcapabilities.DynamoDB,
		Endpoint:        srv.URL,
		AccessKeyID:     "local",
		SecretAccessKey: "local",
	})
	require.NoError(t, err)
	assert.Equal(t, "DynamoDB_20120810.ListTables", target)
	assert.NoError(t, conn.Close())
	assert.False(t, conn.IsConnected())
}

func TestConnectFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/x-amz-json-1.0")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"__type":"com.amazonaws.dynamodb.v20120810#UnrecognizedClientException","message":"bad key"}`))
	}))
	defer srv.Close()

	_, err := NewAdapter().Connect(context.Background(), adapter.ConnectionConfig{
		DatabaseType:    dbcapabilities.DynamoDB,
		Endpoint:        srv.URL,
		AccessKeyID:     "x",
		SecretAccessKey: "y",
	})
	require.Error(t, err)
	assert.True(t, adapter.IsConnectionError(err))
}
