package azureblob

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

// Azurite's well-known development account key.
const devKey = "Eby8vdM02xNOcqFlqUwJPLlmEtlCDXJ1OUzFT50uSRZ6IFsuFq2UVErCz4I6tq/K1SZFPTOtr/KBHBeksoGMGw=="

func TestConnectionString(t *testing.T) {
	tests := []struct {
		name    string
		config  adapter.ConnectionConfig
		want    string
		wantErr bool
	}{
		{
			name:   "account key",
			config: adapter.ConnectionConfig{Username: "acct", Password: "key"},
			want:   "DefaultEndpointsProtocol=https;AccountName=acct;AccountKey=key;EndpointSuffix=core.windows.net",
		},
		{
			name:   "custom endpoint",
			config: adapter.ConnectionConfig{Username: "devstoreaccount1", Password: "key", Endpoint: "http://127.0.0.1:10000/devstoreaccount1"},
			want:   "DefaultEndpointsProtocol=https;AccountName=devstoreaccount1;AccountKey=key;BlobEndpoint=http://127.0.0.1:10000/devstoreaccount1;",
		},
		{
			name:   "explicit",
			config: adapter.ConnectionConfig{ConnectionString: "UseDevelopmentStorage=true"},
			want:   "UseDevelopmentStorage=true",
		},
		{
			name:    "missing key",
			config:  adapter.ConnectionConfig{Username: "acct"},
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ConnectionString(tt.config)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestConnectContainerNotFound(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("x-ms-error-code", "ContainerNotFound")
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := NewAdapter().Connect(ctx, adapter.ConnectionConfig{
		DatabaseType: dbcapabilities.AzureBlob,
		Username:     "devstoreaccount1",
		Password:     devKey,
		Endpoint:     srv.URL + "/devstoreaccount1",
		Bucket:       "missing",
	})
	require.Error(t, err)
	assert.True(t, adapter.IsConnectionError(err))
	assert.Equal(t, 1, calls)
}

func TestConnectMissingContainer(t *testing.T) {
	_, err := NewAdapter().Connect(context.Background(), adapter.ConnectionConfig{Username: "a", Password: devKey})
	require.Error(t, err)
	assert.True(t, adapter.IsConfigurationError(err))
}
