// Package catalog persists the table-name to schema mapping as one JSON
// document. Every operation is a full read-modify-write of that document; a
// single-writer mutex guards against lost updates within one process.
package catalog

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/kartikbazzad/minipg/internal/sqlerr"
)

// Column is one declared column. Order matters: it fixes positional INSERT
// mapping and scan projection.
type Column struct {
	Name string
	Type string
}

// TableSchema describes one table. Sort is the on-disk row order guarantee
// for the table's storage file ("<column> <ASC|DESC>", or empty).
type TableSchema struct {
	Columns ColumnSet `json:"columns"`
	Sort    string    `json:"sort"`
}

// ColumnNames returns the declared names in declaration order.
func (s *TableSchema) ColumnNames() []string {
	names := make([]string, len(s.Columns))
	for i, c := range s.Columns {
		names[i] = c.Name
	}
	return names
}

// HasColumn reports whether the schema declares the column.
func (s *TableSchema) HasColumn(name string) bool {
	for _, c := range s.Columns {
		if c.Name == name {
			return true
		}
	}
	return false
}

// Store owns the catalog document. Reads always go back to disk so separate
// processes observe each other's tables; there is no long-lived cache.
type Store struct {
	mu     sync.Mutex
	path   string
	logger *zap.SugaredLogger
}

func NewStore(path string, log *zap.SugaredLogger) *Store {
	return &Store{path: path, logger: log}
}

// Init creates an empty catalog document when none exists.
func (s *Store) Init() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return err
	}
	if _, err := os.Stat(s.path); err == nil {
		return nil
	}
	return os.WriteFile(s.path, []byte("{}"), 0o644)
}

func (s *Store) load() (map[string]*TableSchema, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog: %w", err)
	}
	tables := make(map[string]*TableSchema)
	if err := json.Unmarshal(data, &tables); err != nil {
		return nil, fmt.Errorf("failed to decode catalog: %w", err)
	}
	return tables, nil
}

// Lookup returns the schema for a table, or ok=false when it is not
// registered.
func (s *Store) Lookup(name string) (*TableSchema, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tables, err := s.load()
	if err != nil {
		return nil, false, err
	}
	schema, ok := tables[name]
	return schema, ok, nil
}

// CreateTable registers a schema. The whole document is rewritten; creation
// fails without touching disk when the name is taken.
func (s *Store) CreateTable(name string, columns []Column, sortOrder string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tables, err := s.load()
	if err != nil {
		return err
	}
	if _, exists := tables[name]; exists {
		return sqlerr.TableExists(name)
	}
	tables[name] = &TableSchema{Columns: columns, Sort: sortOrder}

	data, err := json.Marshal(tables)
	if err != nil {
		return fmt.Errorf("failed to encode catalog: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write catalog: %w", err)
	}
	s.logger.Infow("table registered", "table", name, "columns", len(columns))
	return nil
}

// Tables lists registered table names in sorted order.
func (s *Store) Tables() ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tables, err := s.load()
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(tables))
	for name := range tables {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}
