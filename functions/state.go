package functions

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/rulego/streamsql-extra/types"
	"github.com/spf13/cast"
)

// State is a partial state: one scalar per declared state field, in order.
type State []interface{}

// StateRecord is the named-field view of a State
type StateRecord map[string]interface{}

// Record names the values of s after schema
func (s State) Record(schema types.Schema) (StateRecord, error) {
	if len(s) != len(schema) {
		return nil, errors.Wrapf(ErrInvalidState, "state has %d fields, schema %s has %d", len(s), schema, len(schema))
	}
	record := make(StateRecord, len(schema))
	for i, f := range schema {
		record[f.Name] = s[i]
	}
	return record, nil
}

// State orders the record after schema. Missing fields are an error.
func (r StateRecord) State(schema types.Schema) (State, error) {
	state := make(State, len(schema))
	for i, f := range schema {
		v, ok := r[f.Name]
		if !ok {
			return nil, errors.Wrapf(ErrInvalidState, "missing field %q", f.Name)
		}
		state[i] = v
	}
	return state, nil
}

// floatTag marks a non-finite float in a field of no declared numeric type,
// so it cannot be confused with the string "NaN"
const floatTag = "$float"

// EncodeState serializes a partial state as a JSON object keyed by field name.
// Finite floats always carry a fraction or exponent. Non-finite floats are
// written as "NaN", "+Inf" and "-Inf" in float64 fields and as
// {"$float":"NaN"} everywhere else.
func EncodeState(schema types.Schema, state State) ([]byte, error) {
	if len(state) != len(schema) {
		return nil, errors.Wrapf(ErrInvalidState, "state has %d fields, schema %s has %d", len(state), schema, len(schema))
	}
	record := make(StateRecord, len(schema))
	for i, f := range schema {
		record[f.Name] = encodeField(f.Type, state[i])
	}
	data, err := json.Marshal(record)
	if err != nil {
		return nil, errors.Wrap(err, "encode state")
	}
	return data, nil
}

// DecodeState parses the output of EncodeState and coerces every field to
// its declared type. Untyped numbers decode as int64 when integral and
// float64 otherwise.
func DecodeState(schema types.Schema, data []byte) (State, error) {
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.UseNumber()
	var record StateRecord
	if err := decoder.Decode(&record); err != nil {
		return nil, errors.Wrap(err, "decode state")
	}
	state, err := record.State(schema)
	if err != nil {
		return nil, err
	}
	for i, f := range schema {
		v, err := coerceField(f.Type, state[i])
		if err != nil {
			return nil, errors.Wrapf(err, "field %q", f.Name)
		}
		state[i] = v
	}
	return state, nil
}

func encodeField(t types.DataType, v interface{}) interface{} {
	switch {
	case v == nil:
		return nil
	case t == types.Float64:
		switch x := v.(type) {
		case float64:
			return encodeFloat(x)
		case float32:
			return encodeFloat(float64(x))
		}
	case t.IsList():
		if x, ok := v.([]interface{}); ok {
			out := make([]interface{}, len(x))
			for i, e := range x {
				out[i] = encodeField(t.Elem(), e)
			}
			return out
		}
	}
	return encodeAny(v)
}

func encodeAny(v interface{}) interface{} {
	switch x := v.(type) {
	case float64:
		if text, ok := nonFiniteText(x); ok {
			return map[string]interface{}{floatTag: text}
		}
		return encodeFloat(x)
	case float32:
		return encodeAny(float64(x))
	case []interface{}:
		out := make([]interface{}, len(x))
		for i, e := range x {
			out[i] = encodeAny(e)
		}
		return out
	case map[string]interface{}:
		out := make(map[string]interface{}, len(x))
		for k, e := range x {
			out[k] = encodeAny(e)
		}
		return out
	}
	return v
}

func nonFiniteText(f float64) (string, bool) {
	switch {
	case math.IsNaN(f):
		return "NaN", true
	case math.IsInf(f, 1):
		return "+Inf", true
	case math.IsInf(f, -1):
		return "-Inf", true
	}
	return "", false
}

func parseNonFinite(text string) (float64, bool) {
	switch text {
	case "NaN":
		return math.NaN(), true
	case "+Inf", "Inf":
		return math.Inf(1), true
	case "-Inf":
		return math.Inf(-1), true
	}
	return 0, false
}

// encodeFloat keeps a decimal point on integral values so they decode as
// float64 again rather than int64
func encodeFloat(f float64) interface{} {
	if text, ok := nonFiniteText(f); ok {
		return text
	}
	text := strconv.FormatFloat(f, 'g', -1, 64)
	if !strings.ContainsAny(text, ".e") {
		text += ".0"
	}
	return json.Number(text)
}

func coerceField(t types.DataType, v interface{}) (interface{}, error) {
	if v == nil {
		return nil, nil
	}
	switch {
	case t == types.UInt64:
		return stateUint64(v)
	case t == types.Float64:
		return stateFloat64(v)
	case t == types.Int64:
		n, ok := v.(json.Number)
		if !ok {
			return nil, errors.Wrapf(ErrInvalidState, "expected an integer, got %T", v)
		}
		i, err := n.Int64()
		if err != nil {
			return nil, errors.Wrapf(ErrInvalidState, "integer %s: %v", n, err)
		}
		return i, nil
	case t == types.String:
		if _, ok := v.(string); !ok {
			return nil, errors.Wrapf(ErrInvalidState, "expected a string, got %T", v)
		}
		return v, nil
	case t == types.Boolean:
		if _, ok := v.(bool); !ok {
			return nil, errors.Wrapf(ErrInvalidState, "expected a boolean, got %T", v)
		}
		return v, nil
	case t == types.Time:
		text, ok := v.(string)
		if !ok {
			return nil, errors.Wrapf(ErrInvalidState, "expected a timestamp, got %T", v)
		}
		ts, err := time.Parse(time.RFC3339Nano, text)
		if err != nil {
			return nil, errors.Wrap(ErrInvalidState, err.Error())
		}
		return ts, nil
	case t.IsList():
		column, err := ToColumn(v)
		if err != nil {
			return nil, errors.Wrap(ErrInvalidState, err.Error())
		}
		out := make([]interface{}, len(column))
		for i, e := range column {
			if out[i], err = coerceField(t.Elem(), e); err != nil {
				return nil, err
			}
		}
		return out, nil
	default:
		return decodeAny(v)
	}
}

func decodeAny(v interface{}) (interface{}, error) {
	switch x := v.(type) {
	case json.Number:
		if i, err := x.Int64(); err == nil {
			return i, nil
		}
		f, err := x.Float64()
		if err != nil {
			return nil, errors.Wrapf(ErrInvalidState, "number %s: %v", x, err)
		}
		return f, nil
	case map[string]interface{}:
		if f, ok, err := taggedFloat(x); ok || err != nil {
			return f, err
		}
		out := make(map[string]interface{}, len(x))
		for k, e := range x {
			d, err := decodeAny(e)
			if err != nil {
				return nil, err
			}
			out[k] = d
		}
		return out, nil
	case []interface{}:
		out := make([]interface{}, len(x))
		for i, e := range x {
			d, err := decodeAny(e)
			if err != nil {
				return nil, err
			}
			out[i] = d
		}
		return out, nil
	}
	return v, nil
}

// taggedFloat reads {"$float":"NaN"}. ok is false for any other object.
func taggedFloat(m map[string]interface{}) (interface{}, bool, error) {
	raw, found := m[floatTag]
	if !found || len(m) != 1 {
		return nil, false, nil
	}
	text, _ := raw.(string)
	f, ok := parseNonFinite(text)
	if !ok {
		return nil, true, errors.Wrapf(ErrInvalidState, "bad %s value %v", floatTag, raw)
	}
	return f, true, nil
}

// stateUint64 reads a counter field
func stateUint64(v interface{}) (uint64, error) {
	if n, ok := v.(json.Number); ok {
		u, err := strconv.ParseUint(n.String(), 10, 64)
		if err != nil {
			return 0, errors.Wrapf(ErrInvalidState, "counter %s: %v", n, err)
		}
		return u, nil
	}
	switch x := v.(type) {
	case float64:
		if x < 0 || x != math.Trunc(x) {
			return 0, errors.Wrapf(ErrInvalidState, "counter %v is not a non-negative integer", x)
		}
	case int:
		if x < 0 {
			return 0, errors.Wrapf(ErrInvalidState, "counter %d is negative", x)
		}
	case int64:
		if x < 0 {
			return 0, errors.Wrapf(ErrInvalidState, "counter %d is negative", x)
		}
	}
	u, err := cast.ToUint64E(v)
	if err != nil {
		return 0, errors.Wrap(ErrInvalidState, err.Error())
	}
	return u, nil
}

// stateFloat64 reads a running-sum field
func stateFloat64(v interface{}) (float64, error) {
	switch x := v.(type) {
	case json.Number:
		f, err := x.Float64()
		if err != nil {
			return 0, errors.Wrapf(ErrInvalidState, "number %s: %v", x, err)
		}
		return f, nil
	case string:
		if f, ok := parseNonFinite(x); ok {
			return f, nil
		}
	case map[string]interface{}:
		f, ok, err := taggedFloat(x)
		if err != nil {
			return 0, err
		}
		if ok {
			return f.(float64), nil
		}
	}
	f, err := cast.ToFloat64E(v)
	if err != nil {
		return 0, errors.Wrap(ErrInvalidState, err.Error())
	}
	return f, nil
}
