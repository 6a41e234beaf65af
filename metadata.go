package miele

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/guregu/null"
)

// EnumEntry maps an appliance-internal code (Key) to the text the appliance displays for it (Value).
type EnumEntry struct {
	Key   string
	Value string
}

// Enum is the MieleEnum table of a MetaData, in the order the appliance sent it.
type Enum []EnumEntry

// Lookup returns the key of the first entry whose value equals raw. Surrounding whitespace is ignored on both sides;
// the comparison is otherwise exact.
func (e Enum) Lookup(raw string) (string, bool) {
	want := strings.TrimSpace(raw)
	for _, entry := range e {
		if strings.TrimSpace(entry.Value) == want {
			return entry.Key, true
		}
	}

	return "", false
}

// UnmarshalJSON decodes a JSON object into an Enum, keeping member order. Member values may be strings, numbers or
// booleans; null members are skipped.
func (e *Enum) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*e = nil
		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return fmt.Errorf("enum: %w", err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("enum: expected object, got %v", tok)
	}

	var entries Enum
	for dec.More() {
		tok, err = dec.Token()
		if err != nil {
			return fmt.Errorf("enum: %w", err)
		}
		key, _ := tok.(string)

		tok, err = dec.Token()
		if err != nil {
			return fmt.Errorf("enum %q: %w", key, err)
		}

		switch v := tok.(type) {
		case string:
			entries = append(entries, EnumEntry{Key: key, Value: v})
		case json.Number:
			entries = append(entries, EnumEntry{Key: key, Value: v.String()})
		case bool:
			entries = append(entries, EnumEntry{Key: key, Value: fmt.Sprint(v)})
		case nil:
		default:
			return fmt.Errorf("enum %q: expected a scalar value, got %v", key, v)
		}
	}

	if _, err = dec.Token(); err != nil {
		return fmt.Errorf("enum: %w", err)
	}

	*e = entries
	return nil
}

// MetaData is the localization descriptor an appliance may send along with a value. It is only read during a single
// decode and never retained.
type MetaData struct {
	Enum           Enum        `json:"MieleEnum"`
	LocalizedID    null.String `json:"LocalizedID"`
	LocalizedValue null.String `json:"LocalizedValue"`
}

// Resolve localizes raw: the key of a matching Enum entry wins, then LocalizedValue, then raw itself.
func (m *MetaData) Resolve(raw string) string {
	if key, ok := m.Enum.Lookup(raw); ok {
		return key
	}

	if m.LocalizedValue.Valid {
		return m.LocalizedValue.String
	}

	return raw
}
