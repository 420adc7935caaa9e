package all

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/redbco/redb-connect/pkg/adapter"
	"github.com/redbco/redb-connect/pkg/dbcapabilities"
)

func TestCommunityDriversRegistered(t *testing.T) {
	drivers := []string{
		"pgx", "mysql", "sqlserver", "sqlite", "clickhouse", "snowflake", "redshift", "databricks",
		"mongodb", "cosmosdb", "redis", "dynamodb", "cassandra", "neo4j",
		"elasticsearch", "opensearch", "influxdb", "milvus",
		"s3", "gcs", "azureblob", "minio",
	}
	for _, d := range drivers {
		assert.True(t, adapter.IsRegistered(d), "driver %s not registered", d)
	}
}

// Every driver a capability names must be linked in, except the ones that
// need native client libraries.
func TestCapabilityDriversLinked(t *testing.T) {
	native := map[string]bool{"godror": true, "go_ibm_db": true, "hdb": true}
	for id, c := range dbcapabilities.All {
		if c.Driver == "" || native[c.Driver] {
			continue
		}
		assert.True(t, adapter.IsRegistered(c.Driver), "%s: driver %s not registered", id, c.Driver)
	}
}
