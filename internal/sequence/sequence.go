// Package sequence manages durable auto-increment counters with a write-back
// cache.
//
// The cached value is the source of truth between flushes: the persisted
// counter never exceeds the highest value handed out. A flush is scheduled
// asynchronously once the hit counter reaches the configured threshold, and
// the whole cache is flushed synchronously at shutdown. A dirty shutdown may
// lose up to threshold-1 unflushed increments per sequence.
package sequence

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"

	"github.com/kartikbazzad/minipg/internal/sqlerr"
	"github.com/kartikbazzad/minipg/internal/workers"
)

type Manager struct {
	mu         sync.Mutex
	cache      map[string]int64
	hits       int
	flushAfter int

	fileMu sync.Mutex // serializes document writes across async flushes
	path   string

	pool   *workers.Pool
	logger *zap.SugaredLogger
}

// NewManager creates a manager over the sequence document at path. A nil pool
// makes threshold flushes synchronous, which tests rely on.
func NewManager(path string, flushAfter int, pool *workers.Pool, log *zap.SugaredLogger) *Manager {
	return &Manager{
		cache:      make(map[string]int64),
		flushAfter: flushAfter,
		path:       path,
		pool:       pool,
		logger:     log,
	}
}

// Init creates an empty sequence document when none exists.
func (m *Manager) Init() error {
	if err := os.MkdirAll(filepath.Dir(m.path), 0o755); err != nil {
		return err
	}
	if _, err := os.Stat(m.path); err == nil {
		return nil
	}
	return os.WriteFile(m.path, []byte("{}"), 0o644)
}

func (m *Manager) loadDocument() (map[string]int64, error) {
	data, err := os.ReadFile(m.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read sequences: %w", err)
	}
	doc := make(map[string]int64)
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode sequences: %w", err)
	}
	return doc, nil
}

// writeEntries merges the given counters into the on-disk document.
func (m *Manager) writeEntries(entries map[string]int64) error {
	m.fileMu.Lock()
	defer m.fileMu.Unlock()

	doc, err := m.loadDocument()
	if err != nil {
		return err
	}
	for name, v := range doc {
		// A raced flush may already hold a higher value; never move a
		// counter backwards.
		if cur, ok := entries[name]; !ok || cur < v {
			entries[name] = v
		}
	}
	data, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("failed to encode sequences: %w", err)
	}
	return os.WriteFile(m.path, data, 0o644)
}

// Create registers a sequence starting at zero. Existing counters are kept.
func (m *Manager) Create(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	doc, err := m.loadDocument()
	if err != nil {
		return err
	}
	if _, exists := doc[name]; exists {
		return nil
	}
	return m.writeEntries(map[string]int64{name: 0})
}

// NextValue increments and returns the counter. The persisted value loads on
// first use; a name never registered fails with ErrSequenceNotFound.
func (m *Manager) NextValue(name string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, cached := m.cache[name]; !cached {
		doc, err := m.loadDocument()
		if err != nil {
			return 0, err
		}
		v, ok := doc[name]
		if !ok {
			return 0, sqlerr.SequenceNotFound(name)
		}
		m.cache[name] = v
	}

	m.cache[name]++
	m.hits++
	if m.hits >= m.flushAfter {
		m.hits = 0
		m.scheduleFlushLocked()
	}
	return m.cache[name], nil
}

// scheduleFlushLocked snapshots the cache and hands the disk write to the
// background pool. Callers hold mu.
func (m *Manager) scheduleFlushLocked() {
	snapshot := make(map[string]int64, len(m.cache))
	for name, v := range m.cache {
		snapshot[name] = v
	}

	write := func() {
		if err := m.writeEntries(snapshot); err != nil {
			m.logger.Errorf("sequence flush failed: %v", err)
		}
	}

	if m.pool == nil {
		write()
		return
	}
	if err := m.pool.Submit(write); err != nil {
		m.logger.Warnf("sequence flush fell back to inline write: %v", err)
		write()
	}
}

// Flush writes the entire cache synchronously. Called at shutdown and on
// explicit flush requests.
func (m *Manager) Flush() error {
	m.mu.Lock()
	snapshot := make(map[string]int64, len(m.cache))
	for name, v := range m.cache {
		snapshot[name] = v
	}
	m.hits = 0
	m.mu.Unlock()

	if len(snapshot) == 0 {
		return nil
	}
	return m.writeEntries(snapshot)
}

// Cached reports the current cached counters, for status introspection.
func (m *Manager) Cached() map[string]int64 {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make(map[string]int64, len(m.cache))
	for name, v := range m.cache {
		out[name] = v
	}
	return out
}
