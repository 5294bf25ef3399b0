package engine

import (
	"github.com/kartikbazzad/minipg/internal/catalog"
	"github.com/kartikbazzad/minipg/internal/plan"
	"github.com/kartikbazzad/minipg/internal/sqlerr"
)

// executeCreateTable registers the schema with an "id ASC" sort, seeds the
// table's id sequence, creates the empty storage file, and computes initial
// statistics.
func (e *Engine) executeCreateTable(p *plan.CreateTablePlan) error {
	if _, exists, err := e.catalog.Lookup(p.Table); err != nil {
		return err
	} else if exists {
		return sqlerr.TableExists(p.Table)
	}

	columns := make([]catalog.Column, len(p.Columns))
	for i, c := range p.Columns {
		columns[i] = catalog.Column{Name: c.Name, Type: c.Type}
	}
	if err := e.catalog.CreateTable(p.Table, columns, appendOnlySort); err != nil {
		return err
	}
	if err := e.sequences.Create(p.Table + "_id_seq"); err != nil {
		return err
	}
	if err := e.backend.Create(p.Table); err != nil {
		return err
	}

	if err := e.stats.UpdateTableStats(p.Table); err != nil {
		// Initial stats for an empty table are best-effort.
		e.logger.Warnf("initial stats for table %q failed: %v", p.Table, err)
	}
	return nil
}
