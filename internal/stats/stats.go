// Package stats computes and persists per-table column statistics.
//
// Statistics are recomputed wholesale by a full scan, never incrementally,
// and stored as one JSON document per table. A bulk refresh fans out across a
// bounded worker pool; individual table failures are reported but do not
// abort sibling tables.
package stats

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/panjf2000/ants/v2"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/kartikbazzad/minipg/internal/catalog"
	"github.com/kartikbazzad/minipg/internal/sqlerr"
	"github.com/kartikbazzad/minipg/internal/storage"
	"github.com/kartikbazzad/minipg/internal/value"
)

// ColumnStats holds running statistics for one column.
type ColumnStats struct {
	Min     value.Value    `json:"min"`
	Max     value.Value    `json:"max"`
	Count   int            `json:"count"`
	ValFreq map[string]int `json:"val_freq"`
}

// TableStats is the persisted statistics document for one table.
type TableStats struct {
	RowCount    int                     `json:"row_count"`
	ColumnStats map[string]*ColumnStats `json:"column_stats"`
}

type Manager struct {
	catalog    *catalog.Store
	backend    storage.Backend
	dir        string
	maxWorkers int
	logger     *zap.SugaredLogger
}

func NewManager(cat *catalog.Store, backend storage.Backend, dir string, maxWorkers int, log *zap.SugaredLogger) *Manager {
	return &Manager{
		catalog:    cat,
		backend:    backend,
		dir:        dir,
		maxWorkers: maxWorkers,
		logger:     log,
	}
}

func (m *Manager) statsPath(table string) string {
	return filepath.Join(m.dir, table+".json")
}

// UpdateTableStats recomputes the table's statistics with a full scan and
// rewrites its statistics document.
func (m *Manager) UpdateTableStats(table string) error {
	schema, ok, err := m.catalog.Lookup(table)
	if err != nil {
		return err
	}
	if !ok {
		return sqlerr.TableNotFound(table)
	}

	doc := &TableStats{ColumnStats: make(map[string]*ColumnStats, len(schema.Columns))}
	for _, col := range schema.Columns {
		doc.ColumnStats[col.Name] = &ColumnStats{
			Min:     value.Null(),
			Max:     value.Null(),
			ValFreq: make(map[string]int),
		}
	}

	err = m.backend.Scan(table, storage.ScanOptions{TableSort: schema.Sort}, func(row value.Row) bool {
		doc.RowCount++
		for _, col := range schema.Columns {
			v, present := row[col.Name]
			if !present {
				continue
			}
			cs := doc.ColumnStats[col.Name]
			cs.Count++
			if cs.Min.IsNull() || value.Compare(v, cs.Min) < 0 {
				cs.Min = v
			}
			if cs.Max.IsNull() || value.Compare(v, cs.Max) > 0 {
				cs.Max = v
			}
			cs.ValFreq[v.String()]++
		}
		return true
	})
	if err != nil {
		return sqlerr.StatsFailure(table, err)
	}

	if err := os.MkdirAll(m.dir, 0o755); err != nil {
		return sqlerr.StatsFailure(table, err)
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return sqlerr.StatsFailure(table, err)
	}
	if err := os.WriteFile(m.statsPath(table), data, 0o644); err != nil {
		return sqlerr.StatsFailure(table, err)
	}
	return nil
}

// GetTableStats loads the table's statistics document.
func (m *Manager) GetTableStats(table string) (*TableStats, error) {
	data, err := m.Document(table)
	if err != nil {
		return nil, err
	}
	doc := &TableStats{}
	if err := json.Unmarshal(data, doc); err != nil {
		return nil, fmt.Errorf("failed to decode stats for %q: %w", table, err)
	}
	return doc, nil
}

// Document returns the raw statistics document bytes.
func (m *Manager) Document(table string) ([]byte, error) {
	data, err := os.ReadFile(m.statsPath(table))
	if err != nil {
		return nil, fmt.Errorf("failed to read stats for %q: %w", table, err)
	}
	return data, nil
}

// UpdateAllTableStats refreshes every catalog table across a bounded pool.
// Per-table failures are collected and returned as one combined error; one
// bad table never blocks the others.
func (m *Manager) UpdateAllTableStats() error {
	tables, err := m.catalog.Tables()
	if err != nil {
		return err
	}

	pool, err := ants.NewPool(m.maxWorkers)
	if err != nil {
		return err
	}
	defer pool.Release()

	var (
		mu   sync.Mutex
		errs error
		wg   sync.WaitGroup
	)
	for _, table := range tables {
		table := table
		wg.Add(1)
		submitErr := pool.Submit(func() {
			defer wg.Done()
			if err := m.UpdateTableStats(table); err != nil {
				m.logger.Errorf("stats refresh for table %q failed: %v", table, err)
				mu.Lock()
				errs = multierr.Append(errs, err)
				mu.Unlock()
				return
			}
			m.logger.Debugf("stats refreshed for table %q", table)
		})
		if submitErr != nil {
			wg.Done()
			mu.Lock()
			errs = multierr.Append(errs, fmt.Errorf("table %s: %w", table, submitErr))
			mu.Unlock()
		}
	}
	wg.Wait()
	return errs
}
