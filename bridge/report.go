package bridge

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/nlowe/miele"
	"github.com/nlowe/miele/mqtt"
)

// Report is one raw value received from an appliance.
type Report struct {
	Value    string          `json:"value"`
	MetaData *miele.MetaData `json:"metadata,omitempty"`
}

// UnmarshalJSON accepts a string, number or boolean value, like the entries of a miele.Enum. A null or missing value
// is empty.
func (r *Report) UnmarshalJSON(data []byte) error {
	var wire struct {
		Value    json.RawMessage `json:"value"`
		MetaData *miele.MetaData `json:"metadata"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}

	v, err := scalarValue(wire.Value)
	if err != nil {
		return err
	}

	r.Value, r.MetaData = v, wire.MetaData
	return nil
}

func scalarValue(raw json.RawMessage) (string, error) {
	if len(raw) == 0 {
		return "", nil
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return "", fmt.Errorf("value: %w", err)
	}

	switch v := v.(type) {
	case nil:
		return "", nil
	case string:
		return v, nil
	case json.Number:
		return v.String(), nil
	case bool:
		return strconv.FormatBool(v), nil
	default:
		return "", fmt.Errorf("value: expected a scalar, got %s", raw)
	}
}

// ReportUnmarshaler decodes a json Report, or treats any payload that is not a json object as the bare value.
var ReportUnmarshaler mqtt.ValueUnmarshaler[Report] = func(payload []byte) (Report, error) {
	trimmed := bytes.TrimSpace(payload)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		v, err := mqtt.StringUnmarshaler(payload)
		return Report{Value: v}, err
	}

	r, err := jsonReport(trimmed)
	if err != nil {
		return Report{}, fmt.Errorf("report: %w", err)
	}

	return r, nil
}

var jsonReport = mqtt.JsonValueUnmarshaler[Report]()
