package storage

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/kartikbazzad/minipg/internal/value"
)

// maxRecordSize bounds a single stored record.
const maxRecordSize = 1 << 20

// JSONLines stores each table as <dir>/<table>.jsonl with one JSON object per
// line.
type JSONLines struct {
	dir    string
	logger *zap.SugaredLogger
}

func NewJSONLines(dir string, log *zap.SugaredLogger) *JSONLines {
	return &JSONLines{dir: dir, logger: log}
}

func (b *JSONLines) path(table string) string {
	return filepath.Join(b.dir, table+".jsonl")
}

func (b *JSONLines) Create(table string) error {
	if err := os.MkdirAll(b.dir, 0o755); err != nil {
		return err
	}
	return os.WriteFile(b.path(table), nil, 0o644)
}

func (b *JSONLines) Append(table string, rows []value.Row) error {
	f, err := os.OpenFile(b.path(table), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open table file: %w", err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	for _, row := range rows {
		line, err := json.Marshal(row)
		if err != nil {
			return fmt.Errorf("failed to encode row: %w", err)
		}
		w.Write(line)
		w.WriteByte('\n')
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("failed to write table file: %w", err)
	}
	return nil
}

func (b *JSONLines) Scan(table string, opts ScanOptions, emit func(value.Row) bool) error {
	if opts.OrderBy == "" || opts.OrderBy == opts.TableSort {
		return b.scanStreaming(table, opts, emit)
	}
	return b.scanSorted(table, opts, emit)
}

// scanStreaming yields rows in file order without loading the table.
func (b *JSONLines) scanStreaming(table string, opts ScanOptions, emit func(value.Row) bool) error {
	f, err := os.Open(b.path(table))
	if err != nil {
		return fmt.Errorf("failed to open table file: %w", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), maxRecordSize)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var row value.Row
		if err := json.Unmarshal(line, &row); err != nil {
			return fmt.Errorf("corrupt record in table %q: %w", table, err)
		}
		if !emit(applyPrefix(row, opts)) {
			return nil
		}
	}
	return scanner.Err()
}

// scanSorted loads the whole table and emits it sorted by the requested
// column. Correctness over efficiency: no index, no external sort.
func (b *JSONLines) scanSorted(table string, opts ScanOptions, emit func(value.Row) bool) error {
	var rows []value.Row
	if err := b.scanStreaming(table, ScanOptions{}, func(row value.Row) bool {
		rows = append(rows, row)
		return true
	}); err != nil {
		return err
	}

	col, desc := parseOrder(opts.OrderBy, opts.Prefix)
	sort.SliceStable(rows, func(i, j int) bool {
		c := value.Compare(rows[i].Get(col), rows[j].Get(col))
		if desc {
			return c > 0
		}
		return c < 0
	})

	for _, row := range rows {
		if !emit(applyPrefix(row, opts)) {
			return nil
		}
	}
	return nil
}

// parseOrder splits "<column> [ASC|DESC]" and strips a qualifier matching the
// scan prefix, since sorting happens on the raw, unprefixed rows.
func parseOrder(orderBy, prefix string) (string, bool) {
	fields := strings.Fields(orderBy)
	col := orderBy
	desc := false
	if len(fields) > 0 {
		col = fields[0]
	}
	if len(fields) > 1 {
		desc = strings.EqualFold(fields[1], "DESC")
	}
	if prefix != "" {
		col = strings.TrimPrefix(col, prefix+".")
	}
	return col, desc
}

func applyPrefix(row value.Row, opts ScanOptions) value.Row {
	if opts.Prefix == "" {
		return row
	}
	out := make(value.Row, len(opts.Columns))
	for _, col := range opts.Columns {
		if v, ok := row[col]; ok {
			out[opts.Prefix+"."+col] = v
		}
	}
	return out
}
