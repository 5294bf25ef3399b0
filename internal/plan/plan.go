// Package plan compiles typed token streams into executable query plans.
package plan

import (
	"github.com/kartikbazzad/minipg/internal/value"
)

// JoinSpec describes one join declared in a SELECT statement. Kind is the
// join keyword as written (JOIN, INNER JOIN, LEFT JOIN, ...); execution is
// inner-join only and records the kind without acting on it.
type JoinSpec struct {
	Kind        string
	LeftColumn  string
	RightColumn string
}

// SelectPlan is the compiled form of a SELECT statement.
type SelectPlan struct {
	Select    []string
	From      string
	Joins     map[string]JoinSpec
	JoinOrder []string // join table names in declaration order
	Where     string   // predicate text, leading "WHERE " stripped; empty = none
	GroupBy   []string
	OrderBy   []string // entries are "<column> [ASC|DESC]"
	Limit     int      // 0 = no limit
}

// InsertPlan is the compiled form of an INSERT statement.
type InsertPlan struct {
	Table   string
	Columns []string
	Values  [][]value.Value
}

// ColumnDef is one declared column of a CREATE TABLE statement, in
// declaration order.
type ColumnDef struct {
	Name string
	Type string
}

// CreateTablePlan is the compiled form of a CREATE TABLE statement.
type CreateTablePlan struct {
	Table   string
	Columns []ColumnDef
}
