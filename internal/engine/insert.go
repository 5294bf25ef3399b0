package engine

import (
	"github.com/kartikbazzad/minipg/internal/plan"
	"github.com/kartikbazzad/minipg/internal/sqlerr"
	"github.com/kartikbazzad/minipg/internal/value"
)

const appendOnlySort = "id ASC"

// executeInsert appends one record per value tuple, prepending a sequence-
// assigned id. Inserts are only permitted into tables whose declared sort is
// "id ASC": physical order must be insertion order.
func (e *Engine) executeInsert(p *plan.InsertPlan) (int, error) {
	schema, ok, err := e.catalog.Lookup(p.Table)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, sqlerr.TableNotFound(p.Table)
	}
	if schema.Sort != appendOnlySort {
		return 0, sqlerr.AppendOnly(p.Table)
	}

	columns := p.Columns
	if len(columns) == 0 {
		// No declared column list: map tuples positionally onto the schema,
		// skipping the generated id.
		for _, name := range schema.ColumnNames() {
			if name != "id" {
				columns = append(columns, name)
			}
		}
	}

	rows := make([]value.Row, 0, len(p.Values))
	for _, record := range p.Values {
		id, err := e.sequences.NextValue(p.Table + "_id_seq")
		if err != nil {
			return 0, err
		}
		row := value.Row{"id": value.Int(id)}
		for i, col := range columns {
			if i < len(record) {
				row[col] = record[i]
			}
		}
		rows = append(rows, row)
	}

	if err := e.backend.Append(p.Table, rows); err != nil {
		return 0, err
	}
	return len(rows), nil
}
