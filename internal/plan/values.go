package plan

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/kartikbazzad/minipg/internal/value"
)

var textArrayElemRe = regexp.MustCompile(`"([^"]*)"`)

// valuesToRecords parses the raw text of a VALUES token:
//
//	(val1, 'val2', ...), ('val1', val2, ...), ...
//
// Each parenthesized group becomes one record. A field may carry an explicit
// cast suffix (val::type); without one, the field is coerced by attempting an
// integer parse, then a float parse, then left as a string. Quoted fields are
// strings outright.
func valuesToRecords(text string) ([][]value.Value, error) {
	var records [][]value.Value
	for _, group := range splitGroups(text) {
		var record []value.Value
		for _, field := range strings.Split(group, ",") {
			v, err := parseField(strings.TrimSpace(field))
			if err != nil {
				return nil, err
			}
			record = append(record, v)
		}
		records = append(records, record)
	}
	return records, nil
}

// splitGroups extracts the contents of each top-level parenthesized group via
// bracket matching, skipping quoted text.
func splitGroups(text string) []string {
	var groups []string
	depth := 0
	inQuote := false
	start := 0
	for i := 0; i < len(text); i++ {
		switch text[i] {
		case '\'':
			inQuote = !inQuote
		case '(':
			if !inQuote {
				if depth == 0 {
					start = i + 1
				}
				depth++
			}
		case ')':
			if !inQuote && depth > 0 {
				depth--
				if depth == 0 {
					groups = append(groups, text[start:i])
				}
			}
		}
	}
	return groups
}

func parseField(field string) (value.Value, error) {
	castType := ""
	if i := strings.Index(field, "::"); i >= 0 {
		castType = strings.TrimSpace(field[i+2:])
		field = strings.TrimSpace(field[:i])
	}

	quoted := false
	if len(field) >= 2 && strings.HasPrefix(field, "'") && strings.HasSuffix(field, "'") {
		field = field[1 : len(field)-1]
		quoted = true
	}

	switch castType {
	case "text", "varchar", "char":
		return value.String(field), nil
	case "int", "integer", "bigint", "smallint":
		i, err := strconv.ParseInt(field, 10, 64)
		if err != nil {
			return value.Null(), fmt.Errorf("invalid integer literal %q: %w", field, err)
		}
		return value.Int(i), nil
	case "float", "double precision", "real":
		f, err := strconv.ParseFloat(field, 64)
		if err != nil {
			return value.Null(), fmt.Errorf("invalid float literal %q: %w", field, err)
		}
		return value.Float(f), nil
	case "boolean":
		return value.Bool(strings.EqualFold(field, "true")), nil
	case "text[]":
		var elems []value.Value
		for _, m := range textArrayElemRe.FindAllStringSubmatch(field, -1) {
			elems = append(elems, value.String(m[1]))
		}
		return value.List(elems), nil
	case "":
		if quoted {
			return value.String(field), nil
		}
		if i, err := strconv.ParseInt(field, 10, 64); err == nil {
			return value.Int(i), nil
		}
		if f, err := strconv.ParseFloat(field, 64); err == nil {
			return value.Float(f), nil
		}
		return value.String(field), nil
	}
	return value.Null(), fmt.Errorf("unsupported cast type %q", castType)
}
