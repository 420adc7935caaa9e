package manager

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/redbco/redb-connect/pkg/catalog"
	"github.com/redbco/redb-connect/pkg/dbcapabilities"
)

// sqlDialect renders statements for one SQL store from its query syntax.
type sqlDialect struct {
	placeholder string
	quote       string
	limitClause string
	singleRow   string
	insertID    string
	keyField    string
}

func newSQLDialect(s catalog.QuerySyntax) sqlDialect {
	return sqlDialect{
		placeholder: s.Placeholder,
		quote:       s.IdentifierQuote,
		limitClause: s.LimitClause,
		singleRow:   s.SingleRow,
		insertID:    s.InsertID,
		keyField:    s.KeyField,
	}
}

// bind renders the i-th (1-based) bind marker. "?" and "%s" both render
// "?"; a token ending in "n" is numbered ($1, :1, @p1).
func (d sqlDialect) bind(i int) string {
	switch p := d.placeholder; {
	case p == "" || p == "?" || p == "%s":
		return "?"
	case len(p) > 1 && strings.HasSuffix(p, "n"):
		return p[:len(p)-1] + strconv.Itoa(i)
	default:
		return p
	}
}

// ident quotes a possibly dotted identifier.
func (d sqlDialect) ident(name string) string {
	if d.quote == "" {
		return name
	}
	open, close := d.quote, d.quote
	if open == "[" {
		close = "]"
	}
	parts := strings.Split(name, ".")
	for i, part := range parts {
		if part == "*" {
			continue
		}
		parts[i] = open + strings.ReplaceAll(part, close, close+close) + close
	}
	return strings.Join(parts, ".")
}

func (d sqlDialect) limit(n int) string {
	clause := d.limitClause
	if clause == "" {
		clause = "LIMIT {limit}"
	}
	clause = strings.ReplaceAll(clause, "{limit}", strconv.Itoa(n))
	return strings.ReplaceAll(clause, "{offset}", "0")
}

// stmt accumulates SQL text and its bind arguments.
type stmt struct {
	d    sqlDialect
	sb   strings.Builder
	args []interface{}
}

func (s *stmt) write(parts ...string) *stmt {
	for _, p := range parts {
		s.sb.WriteString(p)
	}
	return s
}

func (s *stmt) arg(v interface{}) string {
	s.args = append(s.args, sqlValue(v))
	return s.d.bind(len(s.args))
}

func (s *stmt) String() string {
	return s.sb.String()
}

// conditions appends the filter predicates, without the WHERE keyword.
// Returns false when the filter is empty.
func (s *stmt) conditions(filter Filter) bool {
	if len(filter) == 0 {
		return false
	}
	for i, field := range sortedKeys(filter) {
		if i > 0 {
			s.write(" AND ")
		}
		if filter[field] == nil {
			s.write(s.d.ident(field), " IS NULL")
			continue
		}
		s.write(s.d.ident(field), " = ", s.arg(filter[field]))
	}
	return true
}

func (s *stmt) where(filter Filter) {
	if len(filter) == 0 {
		return
	}
	s.write(" WHERE ")
	s.conditions(filter)
}

func (s *stmt) assignments(changes Record) {
	for i, field := range sortedKeys(changes) {
		if i > 0 {
			s.write(", ")
		}
		s.write(s.d.ident(field), " = ", s.arg(changes[field]))
	}
}

func (d sqlDialect) insert(table string, rec Record) (string, []interface{}) {
	s := &stmt{d: d}
	cols := sortedKeys(rec)
	quoted := make([]string, len(cols))
	for i, c := range cols {
		quoted[i] = d.ident(c)
	}
	s.write("INSERT INTO ", d.ident(table), " (", strings.Join(quoted, ", "), ")")
	if d.insertID == dbcapabilities.InsertIDOutput {
		s.write(" OUTPUT INSERTED.*")
	}
	s.write(" VALUES (")
	for i, c := range cols {
		if i > 0 {
			s.write(", ")
		}
		s.write(s.arg(rec[c]))
	}
	s.write(")")
	if d.insertID == dbcapabilities.InsertIDReturning {
		s.write(" RETURNING *")
	}
	return s.String(), s.args
}

func (d sqlDialect) selectRows(table string, filter Filter, limit int) (string, []interface{}) {
	s := &stmt{d: d}
	s.write("SELECT * FROM ", d.ident(table))
	s.where(filter)
	if limit > 0 {
		s.write(" ", d.limit(limit))
	}
	return s.String(), s.args
}

func (d sqlDialect) count(table string, filter Filter) (string, []interface{}) {
	s := &stmt{d: d}
	s.write("SELECT COUNT(*) FROM ", d.ident(table))
	s.where(filter)
	return s.String(), s.args
}

// update renders an UPDATE restricted to one row according to the single
// row mode. The guarded mode renders an unrestricted statement; callers
// narrow the filter to one row first.
func (d sqlDialect) update(table string, filter Filter, changes Record) (string, []interface{}) {
	s := &stmt{d: d}
	switch d.singleRow {
	case dbcapabilities.SingleRowTop:
		s.write("UPDATE TOP (1) ", d.ident(table), " SET ")
		s.assignments(changes)
		s.where(filter)
	case dbcapabilities.SingleRowCtid, dbcapabilities.SingleRowRowid:
		s.write("UPDATE ", d.ident(table), " SET ")
		s.assignments(changes)
		d.rowLocator(s, table, filter)
	case dbcapabilities.SingleRowFetchFirst:
		s.write("UPDATE ")
		d.firstRow(s, table, filter)
		s.write(" SET ")
		s.assignments(changes)
	default:
		s.write("UPDATE ", d.ident(table), " SET ")
		s.assignments(changes)
		d.restrict(s, filter)
	}
	return s.String(), s.args
}

func (d sqlDialect) delete(table string, filter Filter) (string, []interface{}) {
	s := &stmt{d: d}
	switch d.singleRow {
	case dbcapabilities.SingleRowTop:
		s.write("DELETE TOP (1) FROM ", d.ident(table))
		s.where(filter)
	case dbcapabilities.SingleRowCtid, dbcapabilities.SingleRowRowid:
		s.write("DELETE FROM ", d.ident(table))
		d.rowLocator(s, table, filter)
	case dbcapabilities.SingleRowFetchFirst:
		s.write("DELETE FROM ")
		d.firstRow(s, table, filter)
	default:
		s.write("DELETE FROM ", d.ident(table))
		d.restrict(s, filter)
	}
	return s.String(), s.args
}

// restrict appends the filter plus the LIMIT 1 / ROWNUM = 1 restriction.
func (d sqlDialect) restrict(s *stmt, filter Filter) {
	switch d.singleRow {
	case dbcapabilities.SingleRowLimit:
		s.where(filter)
		s.write(" LIMIT 1")
	case dbcapabilities.SingleRowRownum:
		s.write(" WHERE ")
		if s.conditions(filter) {
			s.write(" AND ")
		}
		s.write("ROWNUM = 1")
	default:
		s.where(filter)
	}
}

// rowLocator appends WHERE ctid = (SELECT ctid FROM t WHERE ... LIMIT 1).
func (d sqlDialect) rowLocator(s *stmt, table string, filter Filter) {
	col := d.singleRow
	s.write(" WHERE ", col, " = (SELECT ", col, " FROM ", d.ident(table))
	s.where(filter)
	s.write(" LIMIT 1)")
}

// firstRow appends a fullselect target holding the first matching row.
func (d sqlDialect) firstRow(s *stmt, table string, filter Filter) {
	s.write("(SELECT * FROM ", d.ident(table))
	s.where(filter)
	s.write(" FETCH FIRST 1 ROW ONLY)")
}

// sqlValue converts nested values, which no driver binds natively, to JSON.
func sqlValue(v interface{}) interface{} {
	switch v.(type) {
	case map[string]interface{}, []interface{}:
		data, err := json.Marshal(v)
		if err != nil {
			return v
		}
		return string(data)
	default:
		return v
	}
}

// columnValue converts a scanned value. Drivers using the text protocol
// return numbers as []byte, so the column type decides the conversion.
func columnValue(v interface{}, dbTypeName string) interface{} {
	b, ok := v.([]byte)
	if !ok {
		return v
	}
	text := string(b)
	switch strings.ToUpper(dbTypeName) {
	case "INT", "INTEGER", "TINYINT", "SMALLINT", "MEDIUMINT", "BIGINT", "INT2", "INT4", "INT8", "YEAR":
		if n, err := strconv.ParseInt(text, 10, 64); err == nil {
			return n
		}
	case "UNSIGNED INT", "UNSIGNED BIGINT", "UNSIGNED TINYINT", "UNSIGNED SMALLINT", "UNSIGNED MEDIUMINT":
		if n, err := strconv.ParseUint(text, 10, 64); err == nil {
			return n
		}
	case "FLOAT", "DOUBLE", "REAL", "FLOAT4", "FLOAT8":
		if f, err := strconv.ParseFloat(text, 64); err == nil {
			return f
		}
	}
	return text
}
