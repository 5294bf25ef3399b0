package engine

import (
	"strings"

	"github.com/kartikbazzad/minipg/internal/catalog"
	"github.com/kartikbazzad/minipg/internal/plan"
	"github.com/kartikbazzad/minipg/internal/sqlerr"
	"github.com/kartikbazzad/minipg/internal/storage"
	"github.com/kartikbazzad/minipg/internal/value"
)

// executeSelect runs the SELECT pipeline: validate, scan the base table,
// apply joins, then filter/group/project with an early-exit limit.
func (e *Engine) executeSelect(p *plan.SelectPlan) ([]value.Row, error) {
	schema, ok, err := e.catalog.Lookup(p.From)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, sqlerr.TableNotFound(p.From)
	}

	joinSchemas := make(map[string]*catalog.TableSchema, len(p.JoinOrder))
	for _, jt := range p.JoinOrder {
		js, ok, err := e.catalog.Lookup(jt)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, sqlerr.JoinTableNotFound(jt)
		}
		joinSchemas[jt] = js
	}

	hasAggregate, err := e.validateSelectList(p, schema, joinSchemas)
	if err != nil {
		return nil, err
	}

	baseRows, err := e.scanBase(p, schema)
	if err != nil {
		return nil, err
	}

	if err := e.applyJoins(p, joinSchemas, baseRows); err != nil {
		return nil, err
	}

	if len(p.GroupBy) > 0 {
		return e.groupAndAggregate(p, baseRows)
	}
	if hasAggregate {
		return e.aggregateAll(p, baseRows)
	}
	return e.filterAndProject(p, baseRows)
}

// validateSelectList resolves every selected column against the referenced
// schemas and enforces the aggregate/GROUP BY rule.
func (e *Engine) validateSelectList(p *plan.SelectPlan, schema *catalog.TableSchema, joinSchemas map[string]*catalog.TableSchema) (bool, error) {
	hasAggregate := false
	aggregateCol := ""

	for _, col := range p.Select {
		if col == "*" {
			continue
		}
		if _, _, ok := parseAggregate(col); ok {
			hasAggregate = true
			aggregateCol = col
			continue
		}
		if i := strings.LastIndex(col, "."); i >= 0 {
			tbl, name := col[:i], col[i+1:]
			target := schema
			if tbl != p.From {
				js, ok := joinSchemas[tbl]
				if !ok {
					return false, sqlerr.TableNotFound(tbl)
				}
				target = js
			}
			if name != "*" && name != "id" && !target.HasColumn(name) {
				return false, sqlerr.ColumnNotFound(name, tbl)
			}
			continue
		}
		if col == "id" || schema.HasColumn(col) {
			continue
		}
		found := false
		for _, js := range joinSchemas {
			if js.HasColumn(col) {
				found = true
				break
			}
		}
		if !found {
			return false, sqlerr.ColumnNotFound(col, p.From)
		}
	}

	if hasAggregate && len(p.GroupBy) == 0 && len(p.Select) > 1 {
		return false, sqlerr.AggregateNeedsGroup(aggregateCol)
	}
	return hasAggregate, nil
}

// scanColumns lists the columns a prefixed scan keeps: the declared schema
// plus the generated id column.
func scanColumns(schema *catalog.TableSchema) []string {
	if schema.HasColumn("id") {
		return schema.ColumnNames()
	}
	return append([]string{"id"}, schema.ColumnNames()...)
}

func (e *Engine) scanBase(p *plan.SelectPlan, schema *catalog.TableSchema) ([]value.Row, error) {
	opts := storage.ScanOptions{
		TableSort: schema.Sort,
	}
	if len(p.OrderBy) > 0 {
		opts.OrderBy = p.OrderBy[0]
	}
	if len(p.JoinOrder) > 0 {
		opts.Prefix = p.From
		opts.Columns = scanColumns(schema)
	}

	var rows []value.Row
	err := e.backend.Scan(p.From, opts, func(row value.Row) bool {
		rows = append(rows, row)
		return true
	})
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// applyJoins runs each declared join as a nested loop: the joined table is
// loaded with table-prefixed columns and probed row by row; matching columns
// merge into the base row. The declared join kind is recorded in the plan but
// matching is inner-join equality regardless.
func (e *Engine) applyJoins(p *plan.SelectPlan, joinSchemas map[string]*catalog.TableSchema, baseRows []value.Row) error {
	for _, jt := range p.JoinOrder {
		spec := p.Joins[jt]
		js := joinSchemas[jt]

		opts := storage.ScanOptions{
			TableSort: js.Sort,
			Prefix:    jt,
			Columns:   scanColumns(js),
		}
		if len(p.OrderBy) > 0 {
			opts.OrderBy = p.OrderBy[0]
		}

		var joinRows []value.Row
		if err := e.backend.Scan(jt, opts, func(row value.Row) bool {
			joinRows = append(joinRows, row)
			return true
		}); err != nil {
			return err
		}

		leftKey := p.From + "." + spec.LeftColumn
		rightKey := jt + "." + spec.RightColumn
		for _, row := range baseRows {
			left := row.Get(leftKey)
			if left.IsNull() {
				continue
			}
			for _, jrow := range joinRows {
				if value.Equal(left, jrow.Get(rightKey)) {
					for k, v := range jrow {
						row[k] = v
					}
				}
			}
		}
	}
	return nil
}

// filterAndProject is the plain SELECT path: WHERE per row, projection, and
// an early exit once the limit is reached.
func (e *Engine) filterAndProject(p *plan.SelectPlan, rows []value.Row) ([]value.Row, error) {
	results := []value.Row{}
	for _, row := range rows {
		if p.Where != "" {
			match, err := evaluateWhere(row, p.Where)
			if err != nil {
				return nil, err
			}
			if !match {
				continue
			}
		}
		results = append(results, projectRow(p.Select, row))
		if p.Limit > 0 && len(results) >= p.Limit {
			break
		}
	}
	return results, nil
}

// projectRow builds the output row: '*' passes the row through, 'table.*'
// expands every column carrying that table's prefix, and named columns are
// looked up directly (qualified names are literal keys on joined rows).
func projectRow(selectCols []string, row value.Row) value.Row {
	if len(selectCols) == 1 && selectCols[0] == "*" {
		return row
	}
	out := make(value.Row, len(selectCols))
	for _, col := range selectCols {
		switch {
		case col == "*":
			for k, v := range row {
				out[k] = v
			}
		case strings.HasSuffix(col, ".*"):
			prefix := strings.TrimSuffix(col, "*")
			for k, v := range row {
				if strings.HasPrefix(k, prefix) {
					out[k] = v
				}
			}
		default:
			out[col] = row.Get(col)
		}
	}
	return out
}
