package engine_test

import (
	"fmt"
	"strings"
	"testing"

	"github.com/kartikbazzad/minipg/internal/catalog"
	"github.com/kartikbazzad/minipg/internal/config"
	"github.com/kartikbazzad/minipg/internal/engine"
	"github.com/kartikbazzad/minipg/internal/logger"
	"github.com/kartikbazzad/minipg/internal/value"
)

func newEngine(t *testing.T) *engine.Engine {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.DataDir = t.TempDir()
	eng, err := engine.Open(cfg, logger.NewNop())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() {
		if err := eng.Close(); err != nil {
			t.Errorf("Close: %v", err)
		}
	})
	return eng
}

func mustRun(t *testing.T, eng *engine.Engine, query string) (string, []value.Row) {
	t.Helper()
	status, rows := eng.RunQuery(query)
	if strings.HasPrefix(status, "Error:") {
		t.Fatalf("RunQuery(%q) failed: %s", query, status)
	}
	return status, rows
}

func seedUsers(t *testing.T, eng *engine.Engine) {
	t.Helper()
	mustRun(t, eng, "CREATE TABLE users (name text, age int)")
	mustRun(t, eng, "INSERT INTO users (name, age) VALUES ('bob', 34), ('eve', 28), ('bob', 45)")
}

func TestCreateTable(t *testing.T) {
	eng := newEngine(t)
	status, _ := eng.RunQuery("CREATE TABLE users (name text, age int)")
	if status != "Table 'users' created successfully" {
		t.Fatalf("status = %q", status)
	}
}

func TestCreateTableDuplicate(t *testing.T) {
	eng := newEngine(t)
	mustRun(t, eng, "CREATE TABLE users (name text)")
	status, _ := eng.RunQuery("CREATE TABLE users (name text)")
	if status != "Error: Table 'users' already exists" {
		t.Fatalf("status = %q", status)
	}
}

func TestInsertAssignsSequentialIDs(t *testing.T) {
	eng := newEngine(t)
	mustRun(t, eng, "CREATE TABLE users (name text)")
	for i := 0; i < 3; i++ {
		status, _ := mustRun(t, eng, fmt.Sprintf("INSERT INTO users (name) VALUES ('u%d')", i))
		if status != "Inserted 1 records into table 'users'" {
			t.Fatalf("status = %q", status)
		}
	}

	_, rows := mustRun(t, eng, "SELECT * FROM users")
	if len(rows) != 3 {
		t.Fatalf("rows = %d, want 3", len(rows))
	}
	for i, row := range rows {
		if got := row.Get("id").Int64(); got != int64(i+1) {
			t.Fatalf("row %d id = %d, want %d", i, got, i+1)
		}
	}
}

func TestInsertMultiRecord(t *testing.T) {
	eng := newEngine(t)
	mustRun(t, eng, "CREATE TABLE users (name text, age int)")
	status, _ := mustRun(t, eng, "INSERT INTO users (name, age) VALUES ('bob', 34), ('eve', 28)")
	if status != "Inserted 2 records into table 'users'" {
		t.Fatalf("status = %q", status)
	}
}

func TestInsertRejectsNonAppendOnlySort(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.DataDir = t.TempDir()
	log := logger.NewNop()

	eng, err := engine.Open(cfg, log)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { eng.Close() })

	// Registered directly so the declared sort is not the append-only "id ASC"
	// that CREATE TABLE always writes.
	cat := catalog.NewStore(cfg.CatalogPath(), log)
	cols := []catalog.Column{{Name: "msg", Type: "text"}, {Name: "ts", Type: "int"}}
	if err := cat.CreateTable("logs", cols, "ts DESC"); err != nil {
		t.Fatalf("CreateTable: %v", err)
	}

	status, _ := eng.RunQuery("INSERT INTO logs (msg) VALUES ('x')")
	if status != "Error: Table 'logs' does not accept inserts: on-disk order is not 'id ASC'" {
		t.Fatalf("status = %q", status)
	}
}

func TestInsertUnknownTable(t *testing.T) {
	eng := newEngine(t)
	status, _ := eng.RunQuery("INSERT INTO ghost (a) VALUES (1)")
	if status != "Error: Table 'ghost' not found in catalog" {
		t.Fatalf("status = %q", status)
	}
}

func TestSelectAll(t *testing.T) {
	eng := newEngine(t)
	seedUsers(t, eng)

	status, rows := mustRun(t, eng, "SELECT * FROM users")
	if status != "Query OK, 3 rows returned" {
		t.Fatalf("status = %q", status)
	}
	if len(rows) != 3 {
		t.Fatalf("rows = %d", len(rows))
	}
	if rows[0].Get("name").Str() != "bob" || rows[0].Get("age").Int64() != 34 {
		t.Fatalf("first row = %v", rows[0])
	}
}

func TestSelectColumns(t *testing.T) {
	eng := newEngine(t)
	seedUsers(t, eng)

	_, rows := mustRun(t, eng, "SELECT name FROM users")
	for _, row := range rows {
		if len(row) != 1 || row.Get("name").IsNull() {
			t.Fatalf("row = %v, want name only", row)
		}
	}
}

func TestSelectUnknownColumn(t *testing.T) {
	eng := newEngine(t)
	seedUsers(t, eng)
	status, _ := eng.RunQuery("SELECT ghost FROM users")
	if status != "Error: Column 'ghost' not found in table 'users'" {
		t.Fatalf("status = %q", status)
	}
}

func TestSelectWhereByID(t *testing.T) {
	eng := newEngine(t)
	seedUsers(t, eng)

	_, rows := mustRun(t, eng, "SELECT * FROM users WHERE id = 1")
	if len(rows) != 1 {
		t.Fatalf("rows = %d", len(rows))
	}
	if rows[0].Get("name").Str() != "bob" {
		t.Fatalf("row = %v", rows[0])
	}
}

func TestSelectWhereAndPriority(t *testing.T) {
	eng := newEngine(t)
	mustRun(t, eng, "CREATE TABLE t (a int, b int, c int)")
	mustRun(t, eng, "INSERT INTO t (a, b, c) VALUES (1, 2, 3), (9, 2, 3), (1, 9, 3), (1, 9, 9)")

	// The predicate is evaluated as (a = 1) AND ((b = 2) OR (c = 3)):
	// rows 1 and 3 pass, row 2 fails on a, row 4 fails both b and c.
	_, rows := mustRun(t, eng, "SELECT * FROM t WHERE a = 1 AND b = 2 OR c = 3")
	if len(rows) != 2 {
		t.Fatalf("rows = %d, want 2: %v", len(rows), rows)
	}
	if rows[0].Get("id").Int64() != 1 || rows[1].Get("id").Int64() != 3 {
		t.Fatalf("rows = %v", rows)
	}
}

func TestSelectOrderByDesc(t *testing.T) {
	eng := newEngine(t)
	seedUsers(t, eng)

	_, rows := mustRun(t, eng, "SELECT * FROM users ORDER BY age DESC")
	var ages []int64
	for _, row := range rows {
		ages = append(ages, row.Get("age").Int64())
	}
	if ages[0] != 45 || ages[1] != 34 || ages[2] != 28 {
		t.Fatalf("ages = %v, want descending", ages)
	}
}

func TestSelectLimit(t *testing.T) {
	eng := newEngine(t)
	seedUsers(t, eng)

	status, rows := mustRun(t, eng, "SELECT * FROM users LIMIT 1")
	if len(rows) != 1 {
		t.Fatalf("rows = %d", len(rows))
	}
	if status != "Query OK, 1 rows returned" {
		t.Fatalf("status = %q", status)
	}
}

func TestSelectGroupByCount(t *testing.T) {
	eng := newEngine(t)
	seedUsers(t, eng)

	_, rows := mustRun(t, eng, "SELECT name, COUNT(*) FROM users GROUP BY name")
	if len(rows) != 2 {
		t.Fatalf("groups = %d: %v", len(rows), rows)
	}
	// Groups keep first-seen order: bob before eve.
	if rows[0].Get("name").Str() != "bob" || rows[0].Get("COUNT(*)").Int64() != 2 {
		t.Fatalf("first group = %v", rows[0])
	}
	if rows[1].Get("name").Str() != "eve" || rows[1].Get("COUNT(*)").Int64() != 1 {
		t.Fatalf("second group = %v", rows[1])
	}
}

func TestSelectGroupByAggregates(t *testing.T) {
	eng := newEngine(t)
	seedUsers(t, eng)

	_, rows := mustRun(t, eng, "SELECT name, SUM(age), MIN(age), MAX(age), AVG(age) FROM users GROUP BY name")
	bob := rows[0]
	if !value.Equal(bob.Get("SUM(age)"), value.Int(79)) {
		t.Errorf("SUM = %v", bob.Get("SUM(age)"))
	}
	if !value.Equal(bob.Get("MIN(age)"), value.Int(34)) || !value.Equal(bob.Get("MAX(age)"), value.Int(45)) {
		t.Errorf("MIN/MAX = %v/%v", bob.Get("MIN(age)"), bob.Get("MAX(age)"))
	}
	if !value.Equal(bob.Get("AVG(age)"), value.Float(39.5)) {
		t.Errorf("AVG = %v", bob.Get("AVG(age)"))
	}
}

func TestSelectGroupByDistinguishesKinds(t *testing.T) {
	eng := newEngine(t)
	mustRun(t, eng, "CREATE TABLE t (a text)")
	// The integer 1 and the string '1' render identically but belong to
	// different groups.
	mustRun(t, eng, "INSERT INTO t (a) VALUES (1), ('1')")

	_, rows := mustRun(t, eng, "SELECT a, COUNT(*) FROM t GROUP BY a")
	if len(rows) != 2 {
		t.Fatalf("groups = %d, want 2: %v", len(rows), rows)
	}
	for _, row := range rows {
		if !value.Equal(row.Get("COUNT(*)"), value.Int(1)) {
			t.Fatalf("group = %v, want count 1", row)
		}
	}
}

func TestSelectAggregateWithoutGroup(t *testing.T) {
	eng := newEngine(t)
	seedUsers(t, eng)

	_, rows := mustRun(t, eng, "SELECT COUNT(*) FROM users")
	if len(rows) != 1 {
		t.Fatalf("rows = %d", len(rows))
	}
	if !value.Equal(rows[0].Get("COUNT(*)"), value.Int(3)) {
		t.Fatalf("count = %v", rows[0].Get("COUNT(*)"))
	}
}

func TestSelectAggregateNeedsGroup(t *testing.T) {
	eng := newEngine(t)
	seedUsers(t, eng)

	status, _ := eng.RunQuery("SELECT name, COUNT(*) FROM users")
	if !strings.HasPrefix(status, "Error:") {
		t.Fatalf("status = %q, want an error", status)
	}
}

func TestSelectJoin(t *testing.T) {
	eng := newEngine(t)
	mustRun(t, eng, "CREATE TABLE authors (name text)")
	mustRun(t, eng, "CREATE TABLE books (title text, author_id int)")
	mustRun(t, eng, "INSERT INTO authors (name) VALUES ('ursula'), ('gene')")
	mustRun(t, eng, "INSERT INTO books (title, author_id) VALUES ('dispossessed', 1), ('shadow', 2), ('claw', 2)")

	_, rows := mustRun(t, eng, "SELECT * FROM books JOIN authors ON books.author_id = authors.id")
	if len(rows) != 3 {
		t.Fatalf("rows = %d: %v", len(rows), rows)
	}
	for _, row := range rows {
		title := row.Get("books.title").Str()
		author := row.Get("authors.name").Str()
		switch title {
		case "dispossessed":
			if author != "ursula" {
				t.Errorf("title %q joined to %q", title, author)
			}
		case "shadow", "claw":
			if author != "gene" {
				t.Errorf("title %q joined to %q", title, author)
			}
		default:
			t.Errorf("unexpected title %q", title)
		}
	}
}

func TestSelectJoinProjection(t *testing.T) {
	eng := newEngine(t)
	mustRun(t, eng, "CREATE TABLE authors (name text)")
	mustRun(t, eng, "CREATE TABLE books (title text, author_id int)")
	mustRun(t, eng, "INSERT INTO authors (name) VALUES ('ursula')")
	mustRun(t, eng, "INSERT INTO books (title, author_id) VALUES ('dispossessed', 1)")

	_, rows := mustRun(t, eng, "SELECT books.title, authors.name FROM books JOIN authors ON books.author_id = authors.id")
	if len(rows) != 1 {
		t.Fatalf("rows = %d", len(rows))
	}
	row := rows[0]
	if len(row) != 2 || row.Get("books.title").Str() != "dispossessed" || row.Get("authors.name").Str() != "ursula" {
		t.Fatalf("row = %v", row)
	}
}

func TestSelectJoinUnknownTable(t *testing.T) {
	eng := newEngine(t)
	mustRun(t, eng, "CREATE TABLE a (x int)")
	status, _ := eng.RunQuery("SELECT * FROM a JOIN ghost ON a.x = ghost.x")
	if status != "Error: Join Table 'ghost' not found in catalog" {
		t.Fatalf("status = %q", status)
	}
}

func TestUnsupportedStatement(t *testing.T) {
	eng := newEngine(t)
	status, rows := eng.RunQuery("DROP TABLE users")
	if status != "Error: Unsupported query type: DROP" {
		t.Fatalf("status = %q", status)
	}
	if rows != nil {
		t.Fatalf("rows = %v, want nil", rows)
	}
}

func TestSelectUnknownTable(t *testing.T) {
	eng := newEngine(t)
	status, _ := eng.RunQuery("SELECT * FROM ghost")
	if status != "Error: Table 'ghost' not found in catalog" {
		t.Fatalf("status = %q", status)
	}
}

func TestStatsAfterCreate(t *testing.T) {
	eng := newEngine(t)
	seedUsers(t, eng)

	if err := eng.UpdateAllTableStats(); err != nil {
		t.Fatalf("UpdateAllTableStats: %v", err)
	}
	doc, err := eng.GetTableStats("users")
	if err != nil {
		t.Fatalf("GetTableStats: %v", err)
	}
	if doc.RowCount != 3 {
		t.Fatalf("RowCount = %d", doc.RowCount)
	}
	age := doc.ColumnStats["age"]
	if !value.Equal(age.Min, value.Int(28)) || !value.Equal(age.Max, value.Int(45)) {
		t.Fatalf("age min/max = %v/%v", age.Min, age.Max)
	}
}

func TestInfo(t *testing.T) {
	eng := newEngine(t)
	seedUsers(t, eng)

	info, err := eng.Info()
	if err != nil {
		t.Fatalf("Info: %v", err)
	}
	if len(info.Tables) != 1 || info.Tables[0] != "users" {
		t.Fatalf("Tables = %v", info.Tables)
	}
	if info.SequenceCache["users_id_seq"] != 3 {
		t.Fatalf("SequenceCache = %v", info.SequenceCache)
	}
}

func TestIDsSurviveRestart(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.DataDir = t.TempDir()
	log := logger.NewNop()

	eng, err := engine.Open(cfg, log)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	mustRun(t, eng, "CREATE TABLE users (name text)")
	mustRun(t, eng, "INSERT INTO users (name) VALUES ('a'), ('b')")
	if err := eng.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	eng2, err := engine.Open(cfg, log)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer eng2.Close()

	mustRun(t, eng2, "INSERT INTO users (name) VALUES ('c')")
	_, rows := mustRun(t, eng2, "SELECT * FROM users WHERE name = 'c'")
	if len(rows) != 1 || rows[0].Get("id").Int64() != 3 {
		t.Fatalf("rows = %v, want id 3", rows)
	}
}
