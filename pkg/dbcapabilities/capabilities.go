package dbcapabilities

import (
	"sort"
	"strings"
)

// DatabaseID is the canonical identifier for a database technology.
// Use these constants to look up capability information.
type DatabaseID string

// DatabaseType is the name used by adapters and errors for a DatabaseID.
type DatabaseType = DatabaseID

const (
	// Relational SQL
	PostgreSQL  DatabaseID = "postgres"
	MySQL       DatabaseID = "mysql"
	MariaDB     DatabaseID = "mariadb"
	TiDB        DatabaseID = "tidb"
	SQLServer   DatabaseID = "mssql"
	Oracle      DatabaseID = "oracle"
	DB2         DatabaseID = "db2"
	HANA        DatabaseID = "hana"
	SQLite      DatabaseID = "sqlite"
	CockroachDB DatabaseID = "cockroach"

	// Time-series
	TimescaleDB DatabaseID = "timescaledb"
	InfluxDB    DatabaseID = "influxdb"

	// Analytics / Columnar / Cloud warehouses
	ClickHouse DatabaseID = "clickhouse"
	Snowflake  DatabaseID = "snowflake"
	Redshift   DatabaseID = "redshift"
	Databricks DatabaseID = "databricks"

	// NoSQL / Other paradigms
	Cassandra     DatabaseID = "cassandra"
	DynamoDB      DatabaseID = "dynamodb"
	MongoDB       DatabaseID = "mongodb"
	CosmosDB      DatabaseID = "cosmosdb"
	Redis         DatabaseID = "redis"
	Neo4j         DatabaseID = "neo4j"
	Elasticsearch DatabaseID = "elasticsearch"
	OpenSearch    DatabaseID = "opensearch"

	// Vectors / AI
	Milvus DatabaseID = "milvus"

	// Object Storage
	S3        DatabaseID = "s3"
	GCS       DatabaseID = "gcs"
	AzureBlob DatabaseID = "azure_blob"
	MinIO     DatabaseID = "minio"
)

// Row restriction modes for single-record UPDATE and DELETE statements.
const (
	SingleRowLimit      = "limit"       // UPDATE ... LIMIT 1
	SingleRowTop        = "top"         // UPDATE TOP (1) ...
	SingleRowRownum     = "rownum"      // ... AND ROWNUM = 1
	SingleRowCtid       = "ctid"        // WHERE ctid = (SELECT ctid ... LIMIT 1)
	SingleRowRowid      = "rowid"       // WHERE rowid = (SELECT rowid ... LIMIT 1)
	SingleRowFetchFirst = "fetch_first" // UPDATE (SELECT ... FETCH FIRST 1 ROW ONLY) SET ...
	SingleRowGuarded    = "guarded"     // locate the first match, then write only that row
)

// Strategies for reporting the identifier of an inserted row.
const (
	InsertIDLastInsert = "last_insert_id"
	InsertIDReturning  = "returning"
	InsertIDOutput     = "output"
	InsertIDNone       = "none"
)

// Dialect holds query-syntax defaults for a database. Descriptor entries
// override any of these fields.
type Dialect struct {
	Placeholder     string
	IdentifierQuote string
	LimitClause     string
	SingleRow       string
	InsertID        string
	KeyField        string
}

// Capability describes a supported database technology.
type Capability struct {
	// Human-friendly vendor or product name, e.g., "PostgreSQL".
	Name string `json:"name"`

	// Canonical ID used across the codebase (see DatabaseID constants), e.g., "postgres".
	ID DatabaseID `json:"id"`

	// Category selects the manager strategy.
	Category Category `json:"category"`

	// Driver is the name of the adapter registered for this database.
	Driver string `json:"driver"`

	DefaultPort int `json:"defaultPort,omitempty"`

	// Whether the database exposes a built-in/system database and its typical names.
	HasSystemDatabase bool     `json:"hasSystemDatabase"`
	SystemDatabases   []string `json:"systemDatabases,omitempty"`

	Dialect Dialect `json:"dialect"`

	// Common aliases (URL schemes, product spellings) that map to this database.
	Aliases []string `json:"aliases,omitempty"`
}

var (
	mysqlDialect = Dialect{
		Placeholder:     "?",
		IdentifierQuote: "`",
		LimitClause:     "LIMIT {limit} OFFSET {offset}",
		SingleRow:       SingleRowLimit,
		InsertID:        InsertIDLastInsert,
		KeyField:        "id",
	}
	postgresDialect = Dialect{
		Placeholder:     "$n",
		IdentifierQuote: `"`,
		LimitClause:     "LIMIT {limit} OFFSET {offset}",
		SingleRow:       SingleRowCtid,
		InsertID:        InsertIDReturning,
		KeyField:        "id",
	}
	warehouseDialect = Dialect{
		Placeholder:     "?",
		IdentifierQuote: `"`,
		LimitClause:     "LIMIT {limit} OFFSET {offset}",
		SingleRow:       SingleRowGuarded,
		InsertID:        InsertIDNone,
		KeyField:        "id",
	}
)

// All is a registry of capabilities keyed by the canonical database ID.
var All = map[DatabaseID]Capability{
	PostgreSQL: {
		Name:              "PostgreSQL",
		ID:                PostgreSQL,
		Category:          CategoryRelational,
		Driver:            "pgx",
		DefaultPort:       5432,
		HasSystemDatabase: true,
		SystemDatabases:   []string{"postgres"},
		Dialect:           postgresDialect,
		Aliases:           []string{"postgresql", "pgsql"},
	},
	CockroachDB: {
		Name:              "CockroachDB",
		ID:                CockroachDB,
		Category:          CategoryRelational,
		Driver:            "pgx",
		DefaultPort:       26257,
		HasSystemDatabase: true,
		SystemDatabases:   []string{"system"},
		Dialect: Dialect{
			Placeholder:     "$n",
			IdentifierQuote: `"`,
			LimitClause:     "LIMIT {limit} OFFSET {offset}",
			SingleRow:       SingleRowLimit,
			InsertID:        InsertIDReturning,
			KeyField:        "id",
		},
		Aliases: []string{"cockroachdb"},
	},
	TimescaleDB: {
		Name:              "TimescaleDB",
		ID:                TimescaleDB,
		Category:          CategoryTimeSeries,
		Driver:            "pgx",
		DefaultPort:       5432,
		HasSystemDatabase: true,
		SystemDatabases:   []string{"postgres"},
		Dialect:           postgresDialect,
		Aliases:           []string{"timescale"},
	},
	MySQL: {
		Name:              "MySQL",
		ID:                MySQL,
		Category:          CategoryRelational,
		Driver:            "mysql",
		DefaultPort:       3306,
		HasSystemDatabase: true,
		SystemDatabases:   []string{"mysql"},
		Dialect:           mysqlDialect,
		Aliases:           []string{"aurora-mysql"},
	},
	MariaDB: {
		Name:              "MariaDB",
		ID:                MariaDB,
		Category:          CategoryRelational,
		Driver:            "mysql",
		DefaultPort:       3306,
		HasSystemDatabase: true,
		SystemDatabases:   []string{"mysql"},
		Dialect:           mysqlDialect,
	},
	TiDB: {
		Name:              "TiDB",
		ID:                TiDB,
		Category:          CategoryRelational,
		Driver:            "mysql",
		DefaultPort:       4000,
		HasSystemDatabase: true,
		SystemDatabases:   []string{"mysql"},
		Dialect:           mysqlDialect,
	},
	SQLServer: {
		Name:              "Microsoft SQL Server",
		ID:                SQLServer,
		Category:          CategoryRelational,
		Driver:            "sqlserver",
		DefaultPort:       1433,
		HasSystemDatabase: true,
		SystemDatabases:   []string{"master"},
		Dialect: Dialect{
			Placeholder:     "@pn",
			IdentifierQuote: "[",
			LimitClause:     "ORDER BY (SELECT NULL) OFFSET {offset} ROWS FETCH NEXT {limit} ROWS ONLY",
			SingleRow:       SingleRowTop,
			InsertID:        InsertIDOutput,
			KeyField:        "id",
		},
		Aliases: []string{"sqlserver", "azure-sql"},
	},
	Oracle: {
		Name:              "Oracle Database",
		ID:                Oracle,
		Category:          CategoryRelational,
		Driver:            "godror",
		DefaultPort:       1521,
		HasSystemDatabase: true,
		SystemDatabases:   []string{"CDB$ROOT"},
		Dialect: Dialect{
			Placeholder:     ":n",
			IdentifierQuote: `"`,
			LimitClause:     "OFFSET {offset} ROWS FETCH NEXT {limit} ROWS ONLY",
			SingleRow:       SingleRowRownum,
			InsertID:        InsertIDNone,
			KeyField:        "ID",
		},
	},
	DB2: {
		Name:              "IBM Db2",
		ID:                DB2,
		Category:          CategoryRelational,
		Driver:            "go_ibm_db",
		DefaultPort:       50000,
		HasSystemDatabase: true,
		SystemDatabases:   []string{"SYSIBM"},
		Dialect: Dialect{
			Placeholder:     "?",
			IdentifierQuote: `"`,
			LimitClause:     "OFFSET {offset} ROWS FETCH FIRST {limit} ROWS ONLY",
			SingleRow:       SingleRowFetchFirst,
			InsertID:        InsertIDNone,
			KeyField:        "ID",
		},
		Aliases: []string{"ibm-db2"},
	},
	HANA: {
		Name:              "SAP HANA",
		ID:                HANA,
		Category:          CategoryRelational,
		Driver:            "hdb",
		DefaultPort:       39015,
		HasSystemDatabase: true,
		SystemDatabases:   []string{"SYSTEMDB"},
		Dialect: Dialect{
			Placeholder:     "?",
			IdentifierQuote: `"`,
			LimitClause:     "LIMIT {limit} OFFSET {offset}",
			SingleRow:       SingleRowGuarded,
			InsertID:        InsertIDNone,
			KeyField:        "ID",
		},
		Aliases: []string{"sap-hana", "hdb"},
	},
	SQLite: {
		Name:     "SQLite",
		ID:       SQLite,
		Category: CategoryRelational,
		Driver:   "sqlite",
		Dialect: Dialect{
			Placeholder:     "?",
			IdentifierQuote: `"`,
			LimitClause:     "LIMIT {limit} OFFSET {offset}",
			SingleRow:       SingleRowRowid,
			InsertID:        InsertIDLastInsert,
			KeyField:        "id",
		},
		Aliases: []string{"sqlite3"},
	},
	ClickHouse: {
		Name:              "ClickHouse",
		ID:                ClickHouse,
		Category:          CategoryColumnar,
		Driver:            "clickhouse",
		DefaultPort:       9000,
		HasSystemDatabase: true,
		SystemDatabases:   []string{"system"},
		Dialect: Dialect{
			Placeholder:     "?",
			IdentifierQuote: "`",
			LimitClause:     "LIMIT {limit} OFFSET {offset}",
			SingleRow:       SingleRowGuarded,
			InsertID:        InsertIDNone,
			KeyField:        "id",
		},
	},
	Snowflake: {
		Name:              "Snowflake",
		ID:                Snowflake,
		Category:          CategoryColumnar,
		Driver:            "snowflake",
		DefaultPort:       443,
		HasSystemDatabase: true,
		SystemDatabases:   []string{"SNOWFLAKE"},
		Dialect:           warehouseDialect,
	},
	Redshift: {
		Name:              "Amazon Redshift",
		ID:                Redshift,
		Category:          CategoryColumnar,
		Driver:            "redshift",
		DefaultPort:       5439,
		HasSystemDatabase: true,
		SystemDatabases:   []string{"dev"},
		Dialect: Dialect{
			Placeholder:     "$n",
			IdentifierQuote: `"`,
			LimitClause:     "LIMIT {limit} OFFSET {offset}",
			SingleRow:       SingleRowGuarded,
			InsertID:        InsertIDNone,
			KeyField:        "id",
		},
	},
	Databricks: {
		Name:        "Databricks SQL",
		ID:          Databricks,
		Category:    CategoryColumnar,
		Driver:      "databricks",
		DefaultPort: 443,
		Dialect:     warehouseDialect,
	},
	MongoDB: {
		Name:              "MongoDB",
		ID:                MongoDB,
		Category:          CategoryDocument,
		Driver:            "mongodb",
		DefaultPort:       27017,
		HasSystemDatabase: true,
		SystemDatabases:   []string{"admin"},
		Dialect:           Dialect{KeyField: "_id"},
		Aliases:           []string{"mongo", "mongodb+srv"},
	},
	CosmosDB: {
		Name:        "Azure Cosmos DB",
		ID:          CosmosDB,
		Category:    CategoryDocument,
		Driver:      "cosmosdb",
		DefaultPort: 443,
		Dialect:     Dialect{KeyField: "id"},
		Aliases:     []string{"cosmos"},
	},
	Redis: {
		Name:        "Redis",
		ID:          Redis,
		Category:    CategoryKeyValue,
		Driver:      "redis",
		DefaultPort: 6379,
		Dialect:     Dialect{KeyField: "key"},
		Aliases:     []string{"rediss"},
	},
	DynamoDB: {
		Name:     "Amazon DynamoDB",
		ID:       DynamoDB,
		Category: CategoryKeyValue,
		Driver:   "dynamodb",
		Dialect:  Dialect{KeyField: "id"},
	},
	Cassandra: {
		Name:              "Apache Cassandra",
		ID:                Cassandra,
		Category:          CategoryWideColumn,
		Driver:            "cassandra",
		DefaultPort:       9042,
		HasSystemDatabase: true,
		SystemDatabases:   []string{"system"},
		Dialect:           Dialect{Placeholder: "?", IdentifierQuote: `"`},
		Aliases:           []string{"scylladb", "scylla"},
	},
	Neo4j: {
		Name:              "Neo4j",
		ID:                Neo4j,
		Category:          CategoryGraph,
		Driver:            "neo4j",
		DefaultPort:       7687,
		HasSystemDatabase: true,
		SystemDatabases:   []string{"system"},
		Dialect:           Dialect{IdentifierQuote: "`"},
		Aliases:           []string{"bolt", "neo4j+s"},
	},
	Elasticsearch: {
		Name:        "Elasticsearch",
		ID:          Elasticsearch,
		Category:    CategorySearch,
		Driver:      "elasticsearch",
		DefaultPort: 9200,
		Dialect:     Dialect{KeyField: "_id"},
		Aliases:     []string{"elastic"},
	},
	OpenSearch: {
		Name:        "OpenSearch",
		ID:          OpenSearch,
		Category:    CategorySearch,
		Driver:      "opensearch",
		DefaultPort: 9200,
		Dialect:     Dialect{KeyField: "_id"},
	},
	InfluxDB: {
		Name:        "InfluxDB",
		ID:          InfluxDB,
		Category:    CategoryTimeSeries,
		Driver:      "influxdb",
		DefaultPort: 8086,
		Dialect:     Dialect{KeyField: "time"},
		Aliases:     []string{"influx"},
	},
	Milvus: {
		Name:        "Milvus",
		ID:          Milvus,
		Category:    CategoryVector,
		Driver:      "milvus",
		DefaultPort: 19530,
		Dialect:     Dialect{KeyField: "id"},
	},
	S3: {
		Name:     "Amazon S3",
		ID:       S3,
		Category: CategoryObjectStorage,
		Driver:   "s3",
		Dialect:  Dialect{KeyField: "key"},
		Aliases:  []string{"aws-s3"},
	},
	GCS: {
		Name:     "Google Cloud Storage",
		ID:       GCS,
		Category: CategoryObjectStorage,
		Driver:   "gcs",
		Dialect:  Dialect{KeyField: "key"},
		Aliases:  []string{"google-cloud-storage"},
	},
	AzureBlob: {
		Name:     "Azure Blob Storage",
		ID:       AzureBlob,
		Category: CategoryObjectStorage,
		Driver:   "azureblob",
		Dialect:  Dialect{KeyField: "key"},
		Aliases:  []string{"azure-blob", "azureblob"},
	},
	MinIO: {
		Name:        "MinIO",
		ID:          MinIO,
		Category:    CategoryObjectStorage,
		Driver:      "minio",
		DefaultPort: 9000,
		Dialect:     Dialect{KeyField: "key"},
	},
}

// driverDefaults picks the capability for drivers shared by several
// databases.
var driverDefaults = map[string]DatabaseID{
	"pgx":   PostgreSQL,
	"mysql": MySQL,
}

// nameToID is a normalized lookup index from any known name/alias to the canonical DatabaseID.
var nameToID map[string]DatabaseID

func init() {
	nameToID = make(map[string]DatabaseID, len(All)*2)
	for id, cap := range All {
		nameToID[strings.ToLower(string(id))] = id
		if cap.Name != "" {
			nameToID[strings.ToLower(cap.Name)] = id
		}
		for _, a := range cap.Aliases {
			if a == "" {
				continue
			}
			nameToID[strings.ToLower(a)] = id
		}
	}
}

// ParseID attempts to resolve an arbitrary database name (canonical id, alias, or product name)
// to a canonical DatabaseID. Returns false if unknown.
func ParseID(name string) (DatabaseID, bool) {
	n := strings.ToLower(strings.TrimSpace(name))
	if n == "" {
		return "", false
	}
	id, ok := nameToID[n]
	return id, ok
}

// GetByName returns the Capability by looking up using a free-form name (id or alias).
func GetByName(name string) (Capability, bool) {
	if id, ok := ParseID(name); ok {
		return Get(id)
	}
	return Capability{}, false
}

// GetByDriver returns the capability of the database served by the named
// driver. Shared drivers resolve to their primary database.
func GetByDriver(driver string) (Capability, bool) {
	d := strings.ToLower(strings.TrimSpace(driver))
	if d == "" {
		return Capability{}, false
	}
	if id, ok := driverDefaults[d]; ok {
		return Get(id)
	}
	for _, id := range IDs() {
		if All[id].Driver == d {
			return All[id], true
		}
	}
	return Capability{}, false
}

// IDs returns all known database IDs in sorted order.
func IDs() []DatabaseID {
	out := make([]DatabaseID, 0, len(All))
	for id := range All {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Get returns capabilities for the given ID and a boolean indicating existence.
func Get(id DatabaseID) (Capability, bool) {
	c, ok := All[id]
	return c, ok
}

// MustGet returns capabilities for the given ID and panics if not found.
func MustGet(id DatabaseID) Capability {
	c, ok := Get(id)
	if !ok {
		panic("dbcapabilities: unknown database id: " + string(id))
	}
	return c
}

// InCategory returns the IDs of every database whose default category is c.
func InCategory(c Category) []DatabaseID {
	var out []DatabaseID
	for _, id := range IDs() {
		if All[id].Category == c {
			out = append(out, id)
		}
	}
	return out
}
