// Package sqlerr defines the engine's failure kinds.
//
// Every failure is detected at its validation point and returned as an error
// that unwraps to one of the sentinel values below, so callers can branch with
// errors.Is while the message keeps the human-readable wording surfaced at the
// run-query boundary.
package sqlerr

import (
	"errors"
	"fmt"
)

var (
	ErrUnsupportedStatement = errors.New("unsupported statement")
	ErrTableNotFound        = errors.New("table not found")
	ErrColumnNotFound       = errors.New("column not found")
	ErrTableExists          = errors.New("table already exists")
	ErrSequenceNotFound     = errors.New("sequence not found")
	ErrAggregateNeedsGroup  = errors.New("aggregate requires GROUP BY")
	ErrAppendOnlyViolation  = errors.New("append-only violation")
	ErrMalformedCreateTable = errors.New("malformed CREATE TABLE")
	ErrMalformedPredicate   = errors.New("malformed predicate")
	ErrStatsFailure         = errors.New("statistics update failed")
)

// Error pairs a sentinel kind with a fully worded message.
type Error struct {
	kind error
	msg  string
}

func (e *Error) Error() string { return e.msg }

func (e *Error) Unwrap() error { return e.kind }

func newError(kind error, format string, args ...interface{}) error {
	return &Error{kind: kind, msg: fmt.Sprintf(format, args...)}
}

func Unsupported(queryType string) error {
	return newError(ErrUnsupportedStatement, "Unsupported query type: %s", queryType)
}

func TableNotFound(table string) error {
	return newError(ErrTableNotFound, "Table '%s' not found in catalog", table)
}

func JoinTableNotFound(table string) error {
	return newError(ErrTableNotFound, "Join Table '%s' not found in catalog", table)
}

func ColumnNotFound(column, table string) error {
	return newError(ErrColumnNotFound, "Column '%s' not found in table '%s'", column, table)
}

func TableExists(table string) error {
	return newError(ErrTableExists, "Table '%s' already exists", table)
}

func SequenceNotFound(sequence string) error {
	return newError(ErrSequenceNotFound, "Sequence '%s' not found", sequence)
}

func AggregateNeedsGroup(column string) error {
	return newError(ErrAggregateNeedsGroup,
		"Aggregate '%s' requires GROUP BY when other columns are selected", column)
}

func AppendOnly(table string) error {
	return newError(ErrAppendOnlyViolation,
		"Table '%s' does not accept inserts: on-disk order is not 'id ASC'", table)
}

func MalformedCreateTable(detail string) error {
	return newError(ErrMalformedCreateTable, "Invalid CREATE TABLE query: %s", detail)
}

func MalformedPredicate(expr string) error {
	return newError(ErrMalformedPredicate, "Invalid expression: %s", expr)
}

func StatsFailure(table string, cause error) error {
	return &Error{kind: ErrStatsFailure, msg: fmt.Sprintf("stats update for table '%s' failed: %v", table, cause)}
}

// Status flattens an error into the status-string form returned by RunQuery.
func Status(err error) string {
	return "Error: " + err.Error()
}
