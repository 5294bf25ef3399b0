package engine

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/kartikbazzad/minipg/internal/plan"
	"github.com/kartikbazzad/minipg/internal/value"
)

var aggregateRe = regexp.MustCompile(`^([A-Za-z]+)\((.*)\)$`)

var aggregateFuncs = map[string]bool{
	"SUM":   true,
	"COUNT": true,
	"AVG":   true,
	"MAX":   true,
	"MIN":   true,
}

// parseAggregate recognizes a selected column of the form FUNC(arg) where
// FUNC is one of the supported aggregate functions.
func parseAggregate(col string) (name, arg string, ok bool) {
	m := aggregateRe.FindStringSubmatch(col)
	if m == nil {
		return "", "", false
	}
	name = strings.ToUpper(m[1])
	if !aggregateFuncs[name] {
		return "", "", false
	}
	return name, strings.TrimSpace(m[2]), true
}

// applyAggregate consumes the full group's row sequence. COUNT counts rows;
// the remaining functions aggregate their argument column and yield Null for
// '*', which names no single column.
func applyAggregate(name, arg string, rows []value.Row) value.Value {
	if name == "COUNT" {
		return value.Int(int64(len(rows)))
	}
	if arg == "" || arg == "*" {
		return value.Null()
	}

	var vals []value.Value
	for _, row := range rows {
		if v := row.Get(arg); !v.IsNull() {
			vals = append(vals, v)
		}
	}
	if len(vals) == 0 {
		return value.Null()
	}

	switch name {
	case "SUM":
		return sumValues(vals)
	case "AVG":
		var total float64
		n := 0
		for _, v := range vals {
			if f, ok := v.Numeric(); ok {
				total += f
				n++
			}
		}
		if n == 0 {
			return value.Null()
		}
		return value.Float(total / float64(n))
	case "MIN":
		min := vals[0]
		for _, v := range vals[1:] {
			if value.Compare(v, min) < 0 {
				min = v
			}
		}
		return min
	case "MAX":
		max := vals[0]
		for _, v := range vals[1:] {
			if value.Compare(v, max) > 0 {
				max = v
			}
		}
		return max
	}
	return value.Null()
}

// sumValues keeps integer sums integral; any float in the input promotes the
// result to float.
func sumValues(vals []value.Value) value.Value {
	allInt := true
	var intSum int64
	var floatSum float64
	for _, v := range vals {
		switch v.Kind() {
		case value.KindInt:
			intSum += v.Int64()
			floatSum += float64(v.Int64())
		case value.KindFloat:
			allInt = false
			floatSum += v.Float64()
		}
	}
	if allInt {
		return value.Int(intSum)
	}
	return value.Float(floatSum)
}

// groupKey renders one cell for group-key purposes. The kind tag keeps cells
// of different kinds distinct even when their literal forms coincide, such as
// the integer 1 and the string "1".
func groupKey(v value.Value) string {
	return strconv.Itoa(int(v.Kind())) + ":" + v.String()
}

// groupAndAggregate partitions rows by the group-key tuple (first-seen order
// decides output order), filters each row with WHERE before aggregation, and
// drops groups the filter empties entirely.
func (e *Engine) groupAndAggregate(p *plan.SelectPlan, rows []value.Row) ([]value.Row, error) {
	groupCols := make([]string, len(p.GroupBy))
	for i, g := range p.GroupBy {
		groupCols[i] = strings.Fields(g)[0]
	}

	var order []string
	groups := make(map[string][]value.Row)
	for _, row := range rows {
		if p.Where != "" {
			match, err := evaluateWhere(row, p.Where)
			if err != nil {
				return nil, err
			}
			if !match {
				continue
			}
		}
		keyParts := make([]string, len(groupCols))
		for i, gc := range groupCols {
			keyParts[i] = groupKey(row.Get(gc))
		}
		key := strings.Join(keyParts, "\x00")
		if _, seen := groups[key]; !seen {
			order = append(order, key)
		}
		groups[key] = append(groups[key], row)
	}

	results := []value.Row{}
	for _, key := range order {
		grows := groups[key]
		out := make(value.Row, len(p.Select)+len(groupCols))
		for _, gc := range groupCols {
			out[gc] = grows[0].Get(gc)
		}
		for _, col := range p.Select {
			if name, arg, ok := parseAggregate(col); ok {
				out[col] = applyAggregate(name, arg, grows)
				continue
			}
			if col == "*" {
				continue
			}
			// Non-aggregate columns take the first row's value; selecting
			// columns not functionally dependent on the group key is the
			// caller's responsibility.
			out[col] = grows[0].Get(col)
		}
		results = append(results, out)
		if p.Limit > 0 && len(results) >= p.Limit {
			break
		}
	}
	return results, nil
}

// aggregateAll handles an aggregate select without GROUP BY: WHERE filters
// the row set first, then the aggregate applies once over everything.
func (e *Engine) aggregateAll(p *plan.SelectPlan, rows []value.Row) ([]value.Row, error) {
	filtered := rows
	if p.Where != "" {
		filtered = filtered[:0:0]
		for _, row := range rows {
			match, err := evaluateWhere(row, p.Where)
			if err != nil {
				return nil, err
			}
			if match {
				filtered = append(filtered, row)
			}
		}
	}

	out := make(value.Row, len(p.Select))
	for _, col := range p.Select {
		if name, arg, ok := parseAggregate(col); ok {
			out[col] = applyAggregate(name, arg, filtered)
		}
	}
	return []value.Row{out}, nil
}
