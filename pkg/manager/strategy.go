package manager

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/data/azcosmos"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/elastic/go-elasticsearch/v8"
	"github.com/gocql/gocql"
	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/opensearch-project/opensearch-go/v2"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/redbco/redb-connect/pkg/adapter"
	"github.com/redbco/redb-connect/pkg/connector"
	"github.com/redbco/redb-connect/pkg/dbcapabilities"
	"github.com/redbco/redb-connect/pkg/logger"
)

// strategy translates the uniform operations into one store's native calls.
// Errors are returned raw; the Manager classifies and wraps them.
type strategy interface {
	insertOne(ctx context.Context, table string, rec Record) (InsertResult, error)
	insertMany(ctx context.Context, table string, recs []Record) (InsertManyResult, error)
	findOne(ctx context.Context, table string, filter Filter) (Record, error)
	findAll(ctx context.Context, table string, filter Filter, limit int) ([]Record, error)
	updateOne(ctx context.Context, table string, filter Filter, changes Record) (int64, error)
	deleteOne(ctx context.Context, table string, filter Filter) (int64, error)
}

// RESTPoster is implemented by HTTP API clients such as the Milvus driver's.
type RESTPoster interface {
	Post(ctx context.Context, path string, body interface{}, out interface{}) error
}

func newStrategy(conn *connector.Connector, log *logger.Logger) (strategy, error) {
	syntax := conn.QuerySyntax()
	dbType := conn.DatabaseType()
	raw := conn.Raw()
	cfg := conn.Connection().Config()

	switch conn.Category() {
	case dbcapabilities.CategoryRelational, dbcapabilities.CategoryColumnar:
		if db, ok := raw.(*sql.DB); ok {
			return newRelationalStrategy(db, conn.Config().Driver, syntax, conn.HasFeature("transactions")), nil
		}

	case dbcapabilities.CategoryDocument:
		switch h := raw.(type) {
		case *mongo.Database:
			return &mongoStrategy{db: h}, nil
		case *azcosmos.DatabaseClient:
			return &cosmosStrategy{db: h, partitionKey: syntax.PartitionKey}, nil
		}

	case dbcapabilities.CategoryKeyValue, dbcapabilities.CategoryObjectStorage:
		if store, ok := conn.Connection().(adapter.ObjectStore); ok {
			return &objectStrategy{store: store, keyField: syntax.KeyField}, nil
		}
		switch h := raw.(type) {
		case redis.UniversalClient:
			return &redisStrategy{client: h, keyField: syntax.KeyField, valueField: syntax.ValueField, sep: syntax.KeySeparator}, nil
		case *dynamodb.Client:
			return newDynamoStrategy(h), nil
		}

	case dbcapabilities.CategoryWideColumn:
		if session, ok := raw.(*gocql.Session); ok {
			return newCQLStrategy(session, cfg.DatabaseName, syntax), nil
		}

	case dbcapabilities.CategoryGraph:
		if driver, ok := raw.(neo4j.DriverWithContext); ok {
			return &graphStrategy{driver: driver, database: cfg.DatabaseName, quote: syntax.IdentifierQuote}, nil
		}

	case dbcapabilities.CategorySearch:
		switch h := raw.(type) {
		case *elasticsearch.Client:
			return &searchStrategy{backend: &elasticBackend{client: h}}, nil
		case *opensearch.Client:
			return &searchStrategy{backend: &openSearchBackend{client: h}}, nil
		}

	case dbcapabilities.CategoryTimeSeries:
		switch h := raw.(type) {
		case *sql.DB:
			return newRelationalStrategy(h, conn.Config().Driver, syntax, conn.HasFeature("transactions")), nil
		case influxdb2.Client:
			bucket := cfg.Bucket
			if bucket == "" {
				bucket = cfg.DatabaseName
			}
			tags := strings.Split(cfg.OptionString("tags", ""), ",")
			return newInfluxStrategy(h, cfg.Organization, bucket, syntax.KeyField, trimEmpty(tags), log), nil
		}

	case dbcapabilities.CategoryVector:
		if client, ok := raw.(RESTPoster); ok {
			return &vectorStrategy{client: client, database: cfg.DatabaseName, keyField: syntax.KeyField}, nil
		}
	}

	return nil, adapter.NewUnsupportedOperationError(dbType, "crud",
		fmt.Sprintf("no %s strategy for driver %q (handle %T)", conn.Category(), conn.Config().Driver, raw))
}

func trimEmpty(in []string) []string {
	out := in[:0]
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
