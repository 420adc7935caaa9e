package commands

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/redbco/redb-connect/pkg/adapter"
	"github.com/redbco/redb-connect/pkg/catalog"
	"github.com/redbco/redb-connect/pkg/manager"

	_ "github.com/redbco/redb-connect/pkg/database/redis"
	_ "github.com/redbco/redb-connect/pkg/database/sqlite"
)

func lookupOf(env map[string]string) catalog.Lookup {
	return func(name string) (string, bool) {
		v, ok := env[name]
		return v, ok
	}
}

func newEnv(t *testing.T, doc string, vars map[string]string) (*Env, *bytes.Buffer) {
	t.Helper()
	cat, err := catalog.Parse([]byte(doc))
	require.NoError(t, err)
	out := &bytes.Buffer{}
	return &Env{Catalog: cat, Lookup: lookupOf(vars), Out: out}, out
}

func sqliteEnv(t *testing.T) (*Env, *bytes.Buffer) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "app.db")
	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	_, err = db.Exec(`CREATE TABLE users (id INTEGER PRIMARY KEY AUTOINCREMENT, name TEXT, age INTEGER)`)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	return newEnv(t, `
databases:
  app:
    category: relational
    engine: sqlite
    connection_params:
      database: ${APP_DB}
    query_syntax:
      placeholder: "%s"
`, map[string]string{"APP_DB": path})
}

func TestList(t *testing.T) {
	env, out := newEnv(t, `
databases:
  sessions:
    category: key-value
    driver: redis
  app:
    category: relational
    driver: sqlite
`, nil)

	require.NoError(t, List(env))
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[0], "NAME")
	assert.Contains(t, lines[1], "app")
	assert.Contains(t, lines[1], "true")
	assert.Contains(t, lines[2], "sessions")
	assert.Contains(t, lines[2], "redis")
}

func TestListUnregisteredDriver(t *testing.T) {
	env, out := newEnv(t, `
databases:
  legacy:
    category: relational
    driver: not_a_driver
`, nil)

	require.NoError(t, List(env))
	assert.Contains(t, out.String(), "false")
}

func TestListEmpty(t *testing.T) {
	env, out := newEnv(t, "databases: {}\n", nil)
	require.NoError(t, List(env))
	assert.Equal(t, "No databases found.\n", out.String())
}

func TestShowMasksSecrets(t *testing.T) {
	env, out := newEnv(t, `
databases:
  mysql:
    category: relational
    driver: mysql
    default_port: 3306
    connection_params:
      host: ${MYSQL_HOST}
      port: 3306
      user: app
      password: ${MYSQL_PASSWORD}
      api_key: abc123
      keyspace: shop
`, map[string]string{"MYSQL_HOST": "db.internal", "MYSQL_PASSWORD": "hunter2"})

	require.NoError(t, Show(env, "MySQL"))
	assert.NotContains(t, out.String(), "hunter2")

	var got map[string]interface{}
	require.NoError(t, json.Unmarshal(out.Bytes(), &got))
	params := got["connection_params"].(map[string]interface{})
	assert.Equal(t, "db.internal", params["host"])
	assert.Equal(t, masked, params["password"])
	assert.Equal(t, "app", params["user"])
	assert.Equal(t, masked, params["api_key"])
	assert.Equal(t, "shop", params["keyspace"])
}

func TestShowUnresolved(t *testing.T) {
	env, out := newEnv(t, `
databases:
  mysql:
    driver: mysql
    connection_params:
      host: ${MYSQL_HOST}
`, nil)

	require.NoError(t, Show(env, "mysql"))
	assert.Contains(t, out.String(), "${MYSQL_HOST}")
}

func TestShowUnknown(t *testing.T) {
	env, _ := newEnv(t, "databases: {}\n", nil)
	err := Show(env, "nope")
	var notFound *adapter.ConfigNotFoundError
	assert.ErrorAs(t, err, &notFound)
}

func TestRelationalCommands(t *testing.T) {
	ctx := context.Background()
	env, out := sqliteEnv(t)

	require.NoError(t, Insert(ctx, env, "app", "users", []manager.Record{{"name": "John", "age": int64(30)}}))
	var res map[string]interface{}
	require.NoError(t, json.Unmarshal(out.Bytes(), &res))
	assert.Equal(t, true, res["acknowledged"])
	assert.Equal(t, float64(1), res["id"])

	out.Reset()
	require.NoError(t, Find(ctx, env, "app", "users", nil, 10))
	var recs []map[string]interface{}
	require.NoError(t, json.Unmarshal(out.Bytes(), &recs))
	require.Len(t, recs, 1)
	assert.Equal(t, "John", recs[0]["name"])

	out.Reset()
	require.NoError(t, Insert(ctx, env, "app", "users", []manager.Record{{"name": "Jane"}, {"name": "Jim"}}))
	var many insertManyOutput
	require.NoError(t, json.Unmarshal(out.Bytes(), &many))
	assert.Equal(t, 2, many.Inserted)
	assert.Empty(t, many.Failed)

	out.Reset()
	require.NoError(t, Update(ctx, env, "app", "users", manager.Filter{"name": "Jane"}, manager.Record{"age": int64(25)}))
	assert.JSONEq(t, `{"affected": 1}`, out.String())

	out.Reset()
	require.NoError(t, FindOne(ctx, env, "app", "users", manager.Filter{"age": int64(25)}))
	var rec map[string]interface{}
	require.NoError(t, json.Unmarshal(out.Bytes(), &rec))
	assert.Equal(t, "Jane", rec["name"])

	out.Reset()
	require.NoError(t, Delete(ctx, env, "app", "users", manager.Filter{"name": "Jim"}))
	assert.JSONEq(t, `{"affected": 1}`, out.String())

	out.Reset()
	require.NoError(t, FindOne(ctx, env, "app", "users", manager.Filter{"name": "Jim"}))
	assert.Equal(t, "null\n", out.String())
}

func TestPing(t *testing.T) {
	env, out := sqliteEnv(t)
	require.NoError(t, Ping(context.Background(), env, "app"))
	assert.Contains(t, out.String(), "app is reachable")
}

func TestMissingEnvVar(t *testing.T) {
	env, _ := newEnv(t, `
databases:
  app:
    engine: sqlite
    connection_params:
      database: ${APP_DB}
`, nil)

	err := Ping(context.Background(), env, "app")
	var missing *adapter.MissingEnvVarError
	assert.ErrorAs(t, err, &missing)
}

func TestUnknownDriver(t *testing.T) {
	env, _ := newEnv(t, `
databases:
  legacy:
    category: relational
    driver: not_a_driver
`, nil)

	err := Ping(context.Background(), env, "legacy")
	var imp *adapter.DriverImportError
	assert.ErrorAs(t, err, &imp)
}

func TestKeyValueCommands(t *testing.T) {
	mr := miniredis.RunT(t)
	ctx := context.Background()
	env, out := newEnv(t, `
databases:
  sessions:
    category: key-value
    engine: redis
    connection_params:
      url: redis://${REDIS_ADDR}/0
`, map[string]string{"REDIS_ADDR": mr.Addr()})

	require.NoError(t, Insert(ctx, env, "sessions", "sessions", []manager.Record{{"key": "u1", "value": "active"}}))
	got, err := mr.Get("sessions:u1")
	require.NoError(t, err)
	assert.Equal(t, "active", got)

	out.Reset()
	require.NoError(t, FindOne(ctx, env, "sessions", "sessions", manager.Filter{"key": "u1"}))
	assert.JSONEq(t, `{"key": "u1", "value": "active"}`, out.String())
}

func TestParseRecords(t *testing.T) {
	recs, err := ParseRecords(`{"name":"Ann","age":30,"score":1.5,"tags":[1,2]}`)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, int64(30), recs[0]["age"])
	assert.Equal(t, 1.5, recs[0]["score"])
	assert.Equal(t, []interface{}{int64(1), int64(2)}, recs[0]["tags"])

	recs, err = ParseRecords(`[{"a":1},{"a":2}]`)
	require.NoError(t, err)
	assert.Len(t, recs, 2)

	for _, bad := range []string{"", "[]", "{", "42"} {
		_, err := ParseRecords(bad)
		assert.Error(t, err, bad)
	}
}

func TestParseFilter(t *testing.T) {
	f, err := ParseFilter("")
	require.NoError(t, err)
	assert.Empty(t, f)

	f, err = ParseFilter(`{"name":"Ann"}`)
	require.NoError(t, err)
	assert.Equal(t, manager.Filter{"name": "Ann"}, f)

	_, err = ParseFilter(`[{"a":1},{"a":2}]`)
	assert.Error(t, err)
}

func TestParseAssignments(t *testing.T) {
	rec, err := ParseAssignments([]string{"age=31", "name=Ann", "active=true", "note=\"42\"", "empty=null"})
	require.NoError(t, err)
	assert.Equal(t, manager.Record{
		"age":    int64(31),
		"name":   "Ann",
		"active": true,
		"note":   "42",
		"empty":  nil,
	}, rec)

	_, err = ParseAssignments([]string{"novalue"})
	assert.Error(t, err)
}

func TestHealth(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.db")
	env, out := newEnv(t, `
databases:
  app:
    engine: sqlite
    connection_params:
      database: ${APP_DB}
  broken:
    engine: sqlite
    connection_params:
      database: ${MISSING_DB}
`, map[string]string{"APP_DB": path})

	err := Health(context.Background(), env, []string{"app"}, 2)
	require.NoError(t, err)
	assert.Contains(t, out.String(), "healthy")

	out.Reset()
	err = Health(context.Background(), env, nil, 2)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "degraded")
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[1], "app")
	assert.Contains(t, lines[2], "broken")
	assert.Contains(t, lines[2], "unhealthy")
	assert.Contains(t, lines[2], "MISSING_DB")
}
