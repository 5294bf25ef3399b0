// Package engine interprets query plans against the catalog, sequence, and
// row storage subsystems.
//
// Each RunQuery call executes synchronously and returns a complete result.
// The only background work is the sequence-cache flush and statistics
// refresh, both running on the bounded worker pool and drained at Close.
package engine

import (
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/kartikbazzad/minipg/internal/catalog"
	"github.com/kartikbazzad/minipg/internal/config"
	"github.com/kartikbazzad/minipg/internal/plan"
	"github.com/kartikbazzad/minipg/internal/sequence"
	"github.com/kartikbazzad/minipg/internal/sqlerr"
	"github.com/kartikbazzad/minipg/internal/stats"
	"github.com/kartikbazzad/minipg/internal/storage"
	"github.com/kartikbazzad/minipg/internal/token"
	"github.com/kartikbazzad/minipg/internal/value"
	"github.com/kartikbazzad/minipg/internal/workers"
)

// Engine is the explicit engine state: owned by the caller, opened once,
// closed once. No ambient singletons.
type Engine struct {
	cfg       *config.Config
	logger    *zap.SugaredLogger
	catalog   *catalog.Store
	backend   storage.Backend
	sequences *sequence.Manager
	stats     *stats.Manager
	pool      *workers.Pool
}

// Open prepares the data directory layout, initializes the global documents,
// and starts the background worker pool.
func Open(cfg *config.Config, log *zap.SugaredLogger) (*Engine, error) {
	for _, dir := range []string{cfg.DataDir, cfg.GlobalDir(), cfg.StatsDir(), cfg.TableDir()} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}

	pool, err := workers.New(cfg.Workers.MaxBackground, log)
	if err != nil {
		return nil, err
	}

	cat := catalog.NewStore(cfg.CatalogPath(), log)
	if err := cat.Init(); err != nil {
		return nil, err
	}

	seq := sequence.NewManager(cfg.SequencesPath(), cfg.Sequence.FlushAfter, pool, log)
	if err := seq.Init(); err != nil {
		return nil, err
	}

	backend := storage.NewJSONLines(cfg.TableDir(), log)
	statsMgr := stats.NewManager(cat, backend, cfg.StatsDir(), cfg.Stats.MaxWorkers, log)

	log.Infow("engine started", "data_dir", cfg.DataDir)
	return &Engine{
		cfg:       cfg,
		logger:    log,
		catalog:   cat,
		backend:   backend,
		sequences: seq,
		stats:     statsMgr,
		pool:      pool,
	}, nil
}

// Close drains the background pool, then flushes the sequence cache
// synchronously so no handed-out id is lost on a clean shutdown.
func (e *Engine) Close() error {
	e.logger.Info("shutting down engine")
	e.pool.Release(e.cfg.Workers.ReleaseTimeout)
	return e.sequences.Flush()
}

// RunQuery executes one statement. Failures surface as "Error: "-prefixed
// status strings, never as faults; rows are nil except for SELECT.
func (e *Engine) RunQuery(query string) (string, []value.Row) {
	cmd, word := token.Classify(query)
	switch cmd {
	case token.CommandSelect:
		p, err := plan.CompileSelect(e.logger, token.Tokenize(query))
		if err != nil {
			return sqlerr.Status(err), nil
		}
		rows, err := e.executeSelect(p)
		if err != nil {
			return sqlerr.Status(err), nil
		}
		return fmt.Sprintf("Query OK, %d rows returned", len(rows)), rows

	case token.CommandInsert:
		p, err := plan.CompileInsert(e.logger, token.Tokenize(query))
		if err != nil {
			return sqlerr.Status(err), nil
		}
		e.logger.Debugw("insert plan", "table", p.Table, "records", len(p.Values))
		n, err := e.executeInsert(p)
		if err != nil {
			return sqlerr.Status(err), nil
		}
		return fmt.Sprintf("Inserted %d records into table '%s'", n, p.Table), nil

	case token.CommandCreate:
		p, err := plan.CompileCreateTable(query)
		if err != nil {
			return sqlerr.Status(err), nil
		}
		e.logger.Debugw("create table plan", "table", p.Table, "columns", len(p.Columns))
		if err := e.executeCreateTable(p); err != nil {
			return sqlerr.Status(err), nil
		}
		return fmt.Sprintf("Table '%s' created successfully", p.Table), nil
	}
	return sqlerr.Status(sqlerr.Unsupported(word)), nil
}

// GetTableStats loads the persisted statistics document for a table.
func (e *Engine) GetTableStats(table string) (*stats.TableStats, error) {
	return e.stats.GetTableStats(table)
}

// StatsDocument returns the raw statistics document bytes for a table.
func (e *Engine) StatsDocument(table string) ([]byte, error) {
	return e.stats.Document(table)
}

// UpdateAllTableStats refreshes statistics for every table; per-table
// failures come back combined, without blocking sibling tables.
func (e *Engine) UpdateAllTableStats() error {
	return e.stats.UpdateAllTableStats()
}

// Info is a point-in-time snapshot for status introspection.
type Info struct {
	DataDir       string           `json:"data_dir"`
	SequenceCache map[string]int64 `json:"sequence_cache"`
	Tables        []string         `json:"tables"`
}

func (e *Engine) Info() (*Info, error) {
	tables, err := e.catalog.Tables()
	if err != nil {
		return nil, err
	}
	return &Info{
		DataDir:       e.cfg.DataDir,
		SequenceCache: e.sequences.Cached(),
		Tables:        tables,
	}, nil
}
