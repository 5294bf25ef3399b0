package plan_test

import (
	"reflect"
	"testing"

	"github.com/kartikbazzad/minipg/internal/logger"
	"github.com/kartikbazzad/minipg/internal/plan"
	"github.com/kartikbazzad/minipg/internal/token"
	"github.com/kartikbazzad/minipg/internal/value"
)

func compileSelect(t *testing.T, stmt string) *plan.SelectPlan {
	t.Helper()
	p, err := plan.CompileSelect(logger.NewNop(), token.Tokenize(stmt))
	if err != nil {
		t.Fatalf("CompileSelect(%q): %v", stmt, err)
	}
	return p
}

func TestCompileSelectBasic(t *testing.T) {
	p := compileSelect(t, "SELECT name, age FROM users WHERE age > 30 ORDER BY age DESC LIMIT 10")

	if !reflect.DeepEqual(p.Select, []string{"name", "age"}) {
		t.Errorf("Select = %v", p.Select)
	}
	if p.From != "users" {
		t.Errorf("From = %q", p.From)
	}
	if p.Where != "age > 30" {
		t.Errorf("Where = %q", p.Where)
	}
	if !reflect.DeepEqual(p.OrderBy, []string{"age DESC"}) {
		t.Errorf("OrderBy = %v", p.OrderBy)
	}
	if p.Limit != 10 {
		t.Errorf("Limit = %d", p.Limit)
	}
}

func TestCompileSelectJoin(t *testing.T) {
	p := compileSelect(t, "SELECT * FROM table1 JOIN table2 ON table1.id = table2.id")

	if p.From != "table1" {
		t.Fatalf("From = %q", p.From)
	}
	spec, ok := p.Joins["table2"]
	if !ok {
		t.Fatalf("no join recorded for table2: %v", p.Joins)
	}
	want := plan.JoinSpec{Kind: "JOIN", LeftColumn: "id", RightColumn: "id"}
	if spec != want {
		t.Fatalf("join spec = %+v, want %+v", spec, want)
	}
	if !reflect.DeepEqual(p.JoinOrder, []string{"table2"}) {
		t.Fatalf("JoinOrder = %v", p.JoinOrder)
	}
}

func TestCompileSelectInnerJoinKind(t *testing.T) {
	p := compileSelect(t, "SELECT * FROM a INNER JOIN b ON a.x = b.y")
	spec := p.Joins["b"]
	if spec.Kind != "INNER JOIN" || spec.LeftColumn != "x" || spec.RightColumn != "y" {
		t.Fatalf("join spec = %+v", spec)
	}
}

func TestCompileSelectDanglingJoinCondition(t *testing.T) {
	p := compileSelect(t, "SELECT * FROM a JOIN b ON a.x =")
	if len(p.Joins) != 0 || len(p.JoinOrder) != 0 {
		t.Fatalf("incomplete ON condition recorded a join: %v", p.Joins)
	}
}

func TestCompileSelectGroupBy(t *testing.T) {
	p := compileSelect(t, "SELECT name, COUNT(*) FROM users GROUP BY name")
	if !reflect.DeepEqual(p.Select, []string{"name", "COUNT(*)"}) {
		t.Errorf("Select = %v", p.Select)
	}
	if !reflect.DeepEqual(p.GroupBy, []string{"name"}) {
		t.Errorf("GroupBy = %v", p.GroupBy)
	}
}

func TestCompileSelectUnknownTokensSkipped(t *testing.T) {
	// Stray constructs degrade to a usable plan rather than failing.
	p := compileSelect(t, "SELECT * FROM users LIMIT banana")
	if p.From != "users" || p.Limit != 0 {
		t.Fatalf("plan = %+v", p)
	}
}

func TestCompileInsert(t *testing.T) {
	stmt := "INSERT INTO users (name, age) VALUES ('bob', 34), ('eve', 28)"
	p, err := plan.CompileInsert(logger.NewNop(), token.Tokenize(stmt))
	if err != nil {
		t.Fatalf("CompileInsert: %v", err)
	}
	if p.Table != "users" {
		t.Errorf("Table = %q", p.Table)
	}
	if !reflect.DeepEqual(p.Columns, []string{"name", "age"}) {
		t.Errorf("Columns = %v", p.Columns)
	}
	if len(p.Values) != 2 {
		t.Fatalf("records = %d, want 2", len(p.Values))
	}
	if !value.Equal(p.Values[0][0], value.String("bob")) || !value.Equal(p.Values[0][1], value.Int(34)) {
		t.Errorf("first record = %v", p.Values[0])
	}
	if !value.Equal(p.Values[1][0], value.String("eve")) || !value.Equal(p.Values[1][1], value.Int(28)) {
		t.Errorf("second record = %v", p.Values[1])
	}
}

func TestValueCoercion(t *testing.T) {
	stmt := "INSERT INTO t (a, b, c, d, e, f) VALUES " +
		"(1::int, 'x'::text, 2.5::float, true::boolean, 3.25, plain)"
	p, err := plan.CompileInsert(logger.NewNop(), token.Tokenize(stmt))
	if err != nil {
		t.Fatalf("CompileInsert: %v", err)
	}
	if len(p.Values) != 1 {
		t.Fatalf("records = %d", len(p.Values))
	}
	rec := p.Values[0]
	want := []value.Value{
		value.Int(1),
		value.String("x"),
		value.Float(2.5),
		value.Bool(true),
		value.Float(3.25),
		value.String("plain"),
	}
	if len(rec) != len(want) {
		t.Fatalf("fields = %d, want %d", len(rec), len(want))
	}
	for i := range want {
		if rec[i].Kind() != want[i].Kind() || !value.Equal(rec[i], want[i]) {
			t.Errorf("field %d = %v (%v), want %v", i, rec[i], rec[i].Kind(), want[i])
		}
	}
}

func TestCompileCreateTable(t *testing.T) {
	p, err := plan.CompileCreateTable("CREATE TABLE users (name text, age int, bio double precision)")
	if err != nil {
		t.Fatalf("CompileCreateTable: %v", err)
	}
	if p.Table != "users" {
		t.Errorf("Table = %q", p.Table)
	}
	want := []plan.ColumnDef{
		{Name: "name", Type: "text"},
		{Name: "age", Type: "int"},
		{Name: "bio", Type: "double precision"},
	}
	if !reflect.DeepEqual(p.Columns, want) {
		t.Errorf("Columns = %v, want %v", p.Columns, want)
	}
}

func TestCompileCreateTableMalformed(t *testing.T) {
	tests := []struct {
		stmt string
	}{
		{"CREATE TABLE users"},
		{"CREATE TABLE"},
	}
	for _, tt := range tests {
		if _, err := plan.CompileCreateTable(tt.stmt); err == nil {
			t.Errorf("CompileCreateTable(%q) should fail", tt.stmt)
		}
	}
}
