package engine

import (
	"regexp"
	"strings"

	"github.com/kartikbazzad/minipg/internal/sqlerr"
	"github.com/kartikbazzad/minipg/internal/value"
)

var comparisonRe = regexp.MustCompile(`^(.+?)\s*(<=|>=|!=|=|<|>)\s*(.+)$`)

// evaluateWhere applies the predicate text to one row.
//
// This is a textual, non-precedence evaluator: splitting on " AND " takes
// priority and flattens mixed AND/OR into a conjunction of AND-separated
// chunks; only then does " OR " split apply; a leading "NOT " negates the
// remainder; anything else must be a single comparison. No parentheses.
func evaluateWhere(row value.Row, expr string) (bool, error) {
	expr = strings.TrimSpace(expr)

	if strings.Contains(expr, " AND ") {
		for _, sub := range strings.Split(expr, " AND ") {
			ok, err := evaluateWhere(row, sub)
			if err != nil || !ok {
				return false, err
			}
		}
		return true, nil
	}

	if strings.Contains(expr, " OR ") {
		for _, sub := range strings.Split(expr, " OR ") {
			ok, err := evaluateWhere(row, sub)
			if err != nil {
				return false, err
			}
			if ok {
				return true, nil
			}
		}
		return false, nil
	}

	if strings.HasPrefix(expr, "NOT ") {
		ok, err := evaluateWhere(row, expr[4:])
		return !ok, err
	}

	m := comparisonRe.FindStringSubmatch(expr)
	if m == nil {
		return false, sqlerr.MalformedPredicate(expr)
	}
	left := strings.TrimSpace(m[1])
	op := m[2]
	right := parseLiteral(strings.TrimSpace(m[3]))

	return compare(row.Get(left), op, right)
}

// parseLiteral interprets the right-hand side: a single-quoted string with
// quotes stripped, else a float, else the raw text.
func parseLiteral(text string) value.Value {
	if len(text) >= 2 && strings.HasPrefix(text, "'") && strings.HasSuffix(text, "'") {
		return value.String(text[1 : len(text)-1])
	}
	var v value.Value
	if err := v.UnmarshalJSON([]byte(text)); err == nil {
		if _, numeric := v.Numeric(); numeric {
			return v
		}
	}
	return value.String(text)
}

func compare(left value.Value, op string, right value.Value) (bool, error) {
	switch op {
	case "=":
		return value.Equal(left, right), nil
	case "!=":
		return !value.Equal(left, right), nil
	}
	// Ordered comparison against a missing (null) cell is false, never a
	// fault.
	if left.IsNull() || right.IsNull() {
		return false, nil
	}
	c := value.Compare(left, right)
	switch op {
	case "<":
		return c < 0, nil
	case ">":
		return c > 0, nil
	case "<=":
		return c <= 0, nil
	case ">=":
		return c >= 0, nil
	}
	return false, sqlerr.MalformedPredicate(op)
}
