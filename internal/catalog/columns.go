package catalog

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// ColumnSet serializes as a JSON object (name to declared type) while keeping
// declaration order, which a plain Go map would lose.
type ColumnSet []Column

func (cs ColumnSet) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, col := range cs {
		if i > 0 {
			buf.WriteByte(',')
		}
		name, err := json.Marshal(col.Name)
		if err != nil {
			return nil, err
		}
		typ, err := json.Marshal(col.Type)
		if err != nil {
			return nil, err
		}
		buf.Write(name)
		buf.WriteByte(':')
		buf.Write(typ)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (cs *ColumnSet) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("columns: expected object, got %v", tok)
	}

	var cols ColumnSet
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		name, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("columns: expected key, got %v", keyTok)
		}
		var typ string
		if err := dec.Decode(&typ); err != nil {
			return fmt.Errorf("columns: type for %q: %w", name, err)
		}
		cols = append(cols, Column{Name: name, Type: typ})
	}
	*cs = cols
	return nil
}
