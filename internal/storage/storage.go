// Package storage implements the physical table format.
//
// A table is one append-friendly file holding one flat JSON object per line.
// Backend is the seam for alternative formats (CSV, columnar); line-delimited
// JSON is the only implementation the engine ships.
package storage

import "github.com/kartikbazzad/minipg/internal/value"

// ScanOptions controls row emission during a table scan.
type ScanOptions struct {
	// OrderBy is the requested row order ("<column> [ASC|DESC]"). When it is
	// empty or matches TableSort, rows stream in file order; otherwise the
	// whole table is loaded and sorted in memory.
	OrderBy string

	// TableSort is the table's declared on-disk order.
	TableSort string

	// Prefix, when set, re-keys every emitted row's columns as
	// "<prefix>.<column>" to disambiguate rows during joins. Only the columns
	// listed in Columns survive the re-keying.
	Prefix  string
	Columns []string
}

// Backend is the physical storage contract.
type Backend interface {
	// Create initializes an empty storage file for a new table.
	Create(table string) error

	// Append writes rows to the end of the table's storage file.
	Append(table string, rows []value.Row) error

	// Scan emits rows one at a time; emit returning false stops the scan.
	Scan(table string, opts ScanOptions, emit func(value.Row) bool) error
}
