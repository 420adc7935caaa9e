package cassandra

import (
	"context"
	"testing"
	"time"

	"github.com/gocql/gocql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/redbco/redb-connect/pkg/adapter"
	"github.com/redbco/redb-connect/pkg/dbcapabilities"
)

func TestCluster(t *testing.T) {
	cluster, err := Cluster(adapter.ConnectionConfig{
		Hosts:        []string{"c1", "c2"},
		Port:         9142,
		Username:     "cassandra",
		Password:     "cassandra",
		DatabaseName: "app",
		Timeout:      3 * time.Second,
		Options:      map[string]interface{}{"consistency": "local_quorum"},
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"c1", "c2"}, cluster.Hosts)
	assert.Equal(t, 9142, cluster.Port)
	assert.Equal(t, "app", cluster.Keyspace)
	assert.Equal(t, gocql.LocalQuorum, cluster.Consistency)
	assert.Equal(t, 3*time.Second, cluster.Timeout)
	assert.Equal(t, &gocql.SimpleRetryPolicy{NumRetries: 0}, cluster.RetryPolicy)
	assert.Equal(t, gocql.PasswordAuthenticator{Username: "cassandra", Password: "cassandra"}, cluster.Authenticator)
}

func TestClusterDefaults(t *testing.T) {
	cluster, err := Cluster(adapter.ConnectionConfig{Host: "localhost", DatabaseName: "app"})
	require.NoError(t, err)
	assert.Equal(t, []string{"localhost"}, cluster.Hosts)
	assert.Equal(t, 9042, cluster.Port)
	assert.Equal(t, gocql.Quorum, cluster.Consistency)
	assert.Nil(t, cluster.Authenticator)
}

func TestClusterBadConsistency(t *testing.T) {
	_, err := Cluster(adapter.ConnectionConfig{Host: "localhost", Options: map[string]interface{}{"consistency": "most"}})
	assert.Error(t, err)
}

func TestConnectRequiresKeyspace(t *testing.T) {
	_, err := NewAdapter().Connect(context.Background(), adapter.ConnectionConfig{
		DatabaseType: dbcapabilities.Cassandra,
		Host:         "localhost",
	})
	require.Error(t, err)
	assert.True(t, adapter.IsConfigurationError(err))
}
