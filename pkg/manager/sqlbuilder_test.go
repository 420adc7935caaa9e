package manager

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/redbco/redb-connect/pkg/catalog"
	"github.com/redbco/redb-connect/pkg/dbcapabilities"
)

var (
	postgres = sqlDialect{placeholder: "$n", quote: `"`, limitClause: "LIMIT {limit} OFFSET {offset}",
		singleRow: dbcapabilities.SingleRowCtid, insertID: dbcapabilities.InsertIDReturning, keyField: "id"}
	mysql = sqlDialect{placeholder: "%s", quote: "`", limitClause: "LIMIT {limit} OFFSET {offset}",
		singleRow: dbcapabilities.SingleRowLimit, insertID: dbcapabilities.InsertIDLastInsert, keyField: "id"}
	mssql = sqlDialect{placeholder: "@pn", quote: "[", limitClause: "ORDER BY (SELECT NULL) OFFSET {offset} ROWS FETCH NEXT {limit} ROWS ONLY",
		singleRow: dbcapabilities.SingleRowTop, insertID: dbcapabilities.InsertIDOutput, keyField: "id"}
	oracle = sqlDialect{placeholder: ":n", quote: `"`, limitClause: "OFFSET {offset} ROWS FETCH NEXT {limit} ROWS ONLY",
		singleRow: dbcapabilities.SingleRowRownum, insertID: dbcapabilities.InsertIDNone, keyField: "ID"}
	db2 = sqlDialect{placeholder: "?", quote: `"`, limitClause: "OFFSET {offset} ROWS FETCH FIRST {limit} ROWS ONLY",
		singleRow: dbcapabilities.SingleRowFetchFirst, insertID: dbcapabilities.InsertIDNone, keyField: "ID"}
	warehouse = sqlDialect{placeholder: "?", quote: `"`, limitClause: "LIMIT {limit}",
		singleRow: dbcapabilities.SingleRowGuarded, insertID: dbcapabilities.InsertIDNone, keyField: "id"}
)

func TestDialectBind(t *testing.T) {
	tests := []struct {
		placeholder string
		want        string
	}{
		{"?", "?"},
		{"%s", "?"},
		{"", "?"},
		{"$n", "$3"},
		{":n", ":3"},
		{"@pn", "@p3"},
		{"@x", "@x"},
	}
	for _, tt := range tests {
		t.Run(tt.placeholder, func(t *testing.T) {
			assert.Equal(t, tt.want, sqlDialect{placeholder: tt.placeholder}.bind(3))
		})
	}
}

func TestDialectIdent(t *testing.T) {
	tests := []struct {
		quote string
		name  string
		want  string
	}{
		{`"`, "users", `"users"`},
		{`"`, `we"ird`, `"we""ird"`},
		{`"`, "public.users", `"public"."users"`},
		{"`", "users", "`users`"},
		{"[", "dbo.users", "[dbo].[users]"},
		{"[", "a]b", "[a]]b]"},
		{"", "users", "users"},
		{`"`, "t.*", `"t".*`},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, sqlDialect{quote: tt.quote}.ident(tt.name))
	}
}

func TestDialectStatements(t *testing.T) {
	rec := Record{"name": "John", "age": 30}
	filter := Filter{"name": "John"}
	changes := Record{"age": 31}

	tests := []struct {
		name     string
		build    func() (string, []interface{})
		wantSQL  string
		wantArgs []interface{}
	}{
		{
			name:     "postgres insert",
			build:    func() (string, []interface{}) { return postgres.insert("users", rec) },
			wantSQL:  `INSERT INTO "users" ("age", "name") VALUES ($1, $2) RETURNING *`,
			wantArgs: []interface{}{30, "John"},
		},
		{
			name:     "mysql insert",
			build:    func() (string, []interface{}) { return mysql.insert("users", rec) },
			wantSQL:  "INSERT INTO `users` (`age`, `name`) VALUES (?, ?)",
			wantArgs: []interface{}{30, "John"},
		},
		{
			name:     "mssql insert",
			build:    func() (string, []interface{}) { return mssql.insert("users", rec) },
			wantSQL:  "INSERT INTO [users] ([age], [name]) OUTPUT INSERTED.* VALUES (@p1, @p2)",
			wantArgs: []interface{}{30, "John"},
		},
		{
			name:     "postgres select with null",
			build:    func() (string, []interface{}) { return postgres.selectRows("users", Filter{"name": "John", "deleted": nil}, 5) },
			wantSQL:  `SELECT * FROM "users" WHERE "deleted" IS NULL AND "name" = $1 LIMIT 5 OFFSET 0`,
			wantArgs: []interface{}{"John"},
		},
		{
			name:    "select without filter",
			build:   func() (string, []interface{}) { return warehouse.selectRows("events", nil, 10) },
			wantSQL: `SELECT * FROM "events" LIMIT 10`,
		},
		{
			name:     "mssql select",
			build:    func() (string, []interface{}) { return mssql.selectRows("users", filter, 10) },
			wantSQL:  "SELECT * FROM [users] WHERE [name] = @p1 ORDER BY (SELECT NULL) OFFSET 0 ROWS FETCH NEXT 10 ROWS ONLY",
			wantArgs: []interface{}{"John"},
		},
		{
			name:     "postgres update by ctid",
			build:    func() (string, []interface{}) { return postgres.update("users", filter, changes) },
			wantSQL:  `UPDATE "users" SET "age" = $1 WHERE ctid = (SELECT ctid FROM "users" WHERE "name" = $2 LIMIT 1)`,
			wantArgs: []interface{}{31, "John"},
		},
		{
			name:     "mysql update limit",
			build:    func() (string, []interface{}) { return mysql.update("users", filter, changes) },
			wantSQL:  "UPDATE `users` SET `age` = ? WHERE `name` = ? LIMIT 1",
			wantArgs: []interface{}{31, "John"},
		},
		{
			name:     "mssql update top",
			build:    func() (string, []interface{}) { return mssql.update("users", filter, changes) },
			wantSQL:  "UPDATE TOP (1) [users] SET [age] = @p1 WHERE [name] = @p2",
			wantArgs: []interface{}{31, "John"},
		},
		{
			name:     "oracle update rownum",
			build:    func() (string, []interface{}) { return oracle.update("USERS", filter, changes) },
			wantSQL:  `UPDATE "USERS" SET "age" = :1 WHERE "name" = :2 AND ROWNUM = 1`,
			wantArgs: []interface{}{31, "John"},
		},
		{
			name:    "oracle delete rownum without filter",
			build:   func() (string, []interface{}) { return oracle.delete("USERS", nil) },
			wantSQL: `DELETE FROM "USERS" WHERE ROWNUM = 1`,
		},
		{
			name:     "mssql delete top",
			build:    func() (string, []interface{}) { return mssql.delete("users", filter) },
			wantSQL:  "DELETE TOP (1) FROM [users] WHERE [name] = @p1",
			wantArgs: []interface{}{"John"},
		},
		{
			name:     "db2 update through fullselect",
			build:    func() (string, []interface{}) { return db2.update("USERS", filter, changes) },
			wantSQL:  `UPDATE (SELECT * FROM "USERS" WHERE "name" = ? FETCH FIRST 1 ROW ONLY) SET "age" = ?`,
			wantArgs: []interface{}{"John", 31},
		},
		{
			name:     "db2 delete through fullselect",
			build:    func() (string, []interface{}) { return db2.delete("USERS", filter) },
			wantSQL:  `DELETE FROM (SELECT * FROM "USERS" WHERE "name" = ? FETCH FIRST 1 ROW ONLY)`,
			wantArgs: []interface{}{"John"},
		},
		{
			name:     "guarded delete",
			build:    func() (string, []interface{}) { return warehouse.delete("users", filter) },
			wantSQL:  `DELETE FROM "users" WHERE "name" = ?`,
			wantArgs: []interface{}{"John"},
		},
		{
			name:     "count",
			build:    func() (string, []interface{}) { return postgres.count("users", filter) },
			wantSQL:  `SELECT COUNT(*) FROM "users" WHERE "name" = $1`,
			wantArgs: []interface{}{"John"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotSQL, gotArgs := tt.build()
			assert.Equal(t, tt.wantSQL, gotSQL)
			assert.Equal(t, tt.wantArgs, gotArgs)
		})
	}
}

func TestNewSQLDialectFromSyntax(t *testing.T) {
	d := newSQLDialect(catalog.QuerySyntax{Placeholder: "%s", IdentifierQuote: "`", SingleRow: "limit"})
	q, _ := d.delete("t", Filter{"a": 1})
	assert.Equal(t, "DELETE FROM `t` WHERE `a` = ? LIMIT 1", q)
}

func TestSQLValueEncodesNested(t *testing.T) {
	assert.Equal(t, `{"a":1}`, sqlValue(map[string]interface{}{"a": 1}))
	assert.Equal(t, `[1,"x"]`, sqlValue([]interface{}{1, "x"}))
	assert.Equal(t, 5, sqlValue(5))
}

func TestColumnValue(t *testing.T) {
	assert.Equal(t, int64(42), columnValue([]byte("42"), "BIGINT"))
	assert.Equal(t, 1.5, columnValue([]byte("1.5"), "DOUBLE"))
	assert.Equal(t, "hello", columnValue([]byte("hello"), "VARCHAR"))
	assert.Equal(t, "x", columnValue([]byte("x"), "INT"))
	assert.Equal(t, int64(7), columnValue(int64(7), "INTEGER"))
}
