package cosmosdb

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/redbco/redb-connect/pkg/adapter"
)

func TestEndpoint(t *testing.T) {
	tests := []struct {
		name   string
		config adapter.ConnectionConfig
		want   string
	}{
		{"account name", adapter.ConnectionConfig{Host: "myacct"}, "https://myacct.documents.azure.com:443/"},
		{"full host", adapter.ConnectionConfig{Host: "myacct.documents.azure.com"}, "https://myacct.documents.azure.com:443/"},
		{"emulator", adapter.ConnectionConfig{Host: "localhost"}, "https://localhost:8081/"},
		{"explicit url", adapter.ConnectionConfig{URL: "https://custom:9999/"}, "https://custom:9999/"},
		{"host with scheme", adapter.ConnectionConfig{Host: "http://cosmos:8081/"}, "http://cosmos:8081/"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Endpoint(tt.config))
		})
	}
}

func TestConnectRequiresDatabase(t *testing.T) {
	_, err := NewAdapter().Connect(context.Background(), adapter.ConnectionConfig{Host: "acct", Token: "a2V5"})
	require.Error(t, err)
	assert.True(t, adapter.IsConfigurationError(err))
}

func TestConnectBadConnectionString(t *testing.T) {
	_, err := NewAdapter().Connect(context.Background(), adapter.ConnectionConfig{
		DatabaseName:     "app",
		ConnectionString: "not-a-connection-string",
	})
	require.Error(t, err)
	assert.True(t, adapter.IsConfigurationError(err))
}

func TestRegistered(t *testing.T) {
	assert.True(t, adapter.IsRegistered(DriverName))
}
