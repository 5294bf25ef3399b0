// Package value implements the closed scalar type stored in table rows.
//
// Rows are dynamically typed on disk (line-delimited JSON), so every cell is
// one of: null, integer, float, string, boolean, or a list of values. The
// tagged representation here replaces interpreter-style coercion with explicit
// comparison and ordering rules used by sorting, joins, predicates, and the
// statistics subsystem.
package value

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

type Kind uint8

const (
	KindNull Kind = iota
	KindBool
	KindInt
	KindFloat
	KindString
	KindList
)

// Value is an immutable tagged scalar.
type Value struct {
	kind Kind
	i    int64
	f    float64
	s    string
	b    bool
	list []Value
}

func Null() Value { return Value{kind: KindNull} }

func Int(i int64) Value { return Value{kind: KindInt, i: i} }

func Float(f float64) Value { return Value{kind: KindFloat, f: f} }

func String(s string) Value { return Value{kind: KindString, s: s} }

func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

func List(vals []Value) Value { return Value{kind: KindList, list: vals} }

func (v Value) Kind() Kind { return v.kind }

func (v Value) IsNull() bool { return v.kind == KindNull }

func (v Value) Int64() int64 { return v.i }

func (v Value) Float64() float64 { return v.f }

func (v Value) Str() string { return v.s }

func (v Value) Boolean() bool { return v.b }

func (v Value) Elems() []Value { return v.list }

// Numeric reports the value as a float64 when it is an integer or a float.
func (v Value) Numeric() (float64, bool) {
	switch v.kind {
	case KindInt:
		return float64(v.i), true
	case KindFloat:
		return v.f, true
	}
	return 0, false
}

// String renders the canonical literal form, used for value-frequency
// histogram keys and for printing.
func (v Value) String() string {
	switch v.kind {
	case KindNull:
		return "null"
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindInt:
		return strconv.FormatInt(v.i, 10)
	case KindFloat:
		return strconv.FormatFloat(v.f, 'g', -1, 64)
	case KindString:
		return v.s
	case KindList:
		parts := make([]string, len(v.list))
		for i, e := range v.list {
			parts[i] = e.String()
		}
		return "[" + strings.Join(parts, ",") + "]"
	}
	return "?"
}

// kindRank orders values of incomparable kinds deterministically.
// Numbers share one rank so integers and floats interleave.
func (v Value) kindRank() int {
	switch v.kind {
	case KindNull:
		return 0
	case KindBool:
		return 1
	case KindInt, KindFloat:
		return 2
	case KindString:
		return 3
	case KindList:
		return 4
	}
	return 5
}

// Compare returns -1, 0, or 1. Null sorts before everything; integers and
// floats compare numerically across kinds; otherwise mismatched kinds compare
// by kind rank.
func Compare(a, b Value) int {
	if af, ok := a.Numeric(); ok {
		if bf, ok := b.Numeric(); ok {
			switch {
			case af < bf:
				return -1
			case af > bf:
				return 1
			}
			return 0
		}
	}
	if a.kindRank() != b.kindRank() {
		if a.kindRank() < b.kindRank() {
			return -1
		}
		return 1
	}
	switch a.kind {
	case KindNull:
		return 0
	case KindBool:
		switch {
		case !a.b && b.b:
			return -1
		case a.b && !b.b:
			return 1
		}
		return 0
	case KindString:
		return strings.Compare(a.s, b.s)
	case KindList:
		n := len(a.list)
		if len(b.list) < n {
			n = len(b.list)
		}
		for i := 0; i < n; i++ {
			if c := Compare(a.list[i], b.list[i]); c != 0 {
				return c
			}
		}
		switch {
		case len(a.list) < len(b.list):
			return -1
		case len(a.list) > len(b.list):
			return 1
		}
		return 0
	}
	return 0
}

// Equal matches integers against floats numerically; otherwise both kind and
// payload must agree.
func Equal(a, b Value) bool {
	if _, ok := a.Numeric(); ok {
		if _, ok := b.Numeric(); ok {
			return Compare(a, b) == 0
		}
		return false
	}
	if a.kind != b.kind {
		return false
	}
	return Compare(a, b) == 0
}

// FromAny converts a decoded JSON value. Numbers must be json.Number so the
// integer/float distinction survives the round trip.
func FromAny(raw interface{}) (Value, error) {
	switch t := raw.(type) {
	case nil:
		return Null(), nil
	case bool:
		return Bool(t), nil
	case string:
		return String(t), nil
	case json.Number:
		if i, err := strconv.ParseInt(string(t), 10, 64); err == nil {
			return Int(i), nil
		}
		f, err := t.Float64()
		if err != nil {
			return Null(), fmt.Errorf("bad number %q: %w", t, err)
		}
		return Float(f), nil
	case float64:
		if t == float64(int64(t)) {
			return Int(int64(t)), nil
		}
		return Float(t), nil
	case []interface{}:
		elems := make([]Value, 0, len(t))
		for _, e := range t {
			ev, err := FromAny(e)
			if err != nil {
				return Null(), err
			}
			elems = append(elems, ev)
		}
		return List(elems), nil
	}
	return Null(), fmt.Errorf("unsupported value type %T", raw)
}

// ToAny converts back to the shape encoding/json expects.
func (v Value) ToAny() interface{} {
	switch v.kind {
	case KindNull:
		return nil
	case KindBool:
		return v.b
	case KindInt:
		return v.i
	case KindFloat:
		return v.f
	case KindString:
		return v.s
	case KindList:
		out := make([]interface{}, len(v.list))
		for i, e := range v.list {
			out[i] = e.ToAny()
		}
		return out
	}
	return nil
}

func (v Value) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.ToAny())
}

func (v *Value) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw interface{}
	if err := dec.Decode(&raw); err != nil {
		return err
	}
	parsed, err := FromAny(raw)
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

// Row maps column names to cell values. Scans produce a fresh Row per record;
// the execution engine owns the map and may extend it during joins.
type Row map[string]Value

// Get returns the cell or Null when the column is absent.
func (r Row) Get(col string) Value {
	if v, ok := r[col]; ok {
		return v
	}
	return Null()
}

// Clone copies the row map (cell values are immutable and shared).
func (r Row) Clone() Row {
	out := make(Row, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Columns returns the row's column names in sorted order.
func (r Row) Columns() []string {
	cols := make([]string, 0, len(r))
	for k := range r {
		cols = append(cols, k)
	}
	sort.Strings(cols)
	return cols
}
