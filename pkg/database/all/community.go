// Package all links every driver package into the binary. Importing it for
// side effects fills the adapter registry.
package all

import (
	// Import community database adapters to trigger their init() registration
	_ "github.com/redbco/redb-connect/pkg/database/azureblob"
	_ "github.com/redbco/redb-connect/pkg/database/cassandra"
	_ "github.com/redbco/redb-connect/pkg/database/clickhouse"
	_ "github.com/redbco/redb-connect/pkg/database/cosmosdb"
	_ "github.com/redbco/redb-connect/pkg/database/databricks"
	_ "github.com/redbco/redb-connect/pkg/database/dynamodb"
	_ "github.com/redbco/redb-connect/pkg/database/elasticsearch"
	_ "github.com/redbco/redb-connect/pkg/database/gcs"
	_ "github.com/redbco/redb-connect/pkg/database/influxdb"
	_ "github.com/redbco/redb-connect/pkg/database/milvus"
	_ "github.com/redbco/redb-connect/pkg/database/minio"
	_ "github.com/redbco/redb-connect/pkg/database/mongodb"
	_ "github.com/redbco/redb-connect/pkg/database/mssql"
	_ "github.com/redbco/redb-connect/pkg/database/mysql"
	_ "github.com/redbco/redb-connect/pkg/database/neo4j"
	_ "github.com/redbco/redb-connect/pkg/database/opensearch"
	_ "github.com/redbco/redb-connect/pkg/database/postgres"
	_ "github.com/redbco/redb-connect/pkg/database/redis"
	_ "github.com/redbco/redb-connect/pkg/database/redshift"
	_ "github.com/redbco/redb-connect/pkg/database/s3"
	_ "github.com/redbco/redb-connect/pkg/database/snowflake"
	_ "github.com/redbco/redb-connect/pkg/database/sqlite"
)
