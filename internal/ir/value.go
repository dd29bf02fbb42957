package ir

import (
	"fmt"
	"slices"
)

// Value is a sealed interface for block parameter and channel values.
// Only Null, String, Number, Boolean, List, and Dict implement it.
//
// Unlike event-log systems, animation data is inherently float-valued, so
// Number is float64. Canonical serialization (canonical.go) rejects NaN and
// infinities to keep content hashing total.
type Value interface {
	value() // sealed
}

// Null represents an absent value.
type Null struct{}

func (Null) value() {}

// String represents a string parameter value.
type String string

func (String) value() {}

// Number represents a numeric parameter value. Always float64.
type Number float64

func (Number) value() {}

// Boolean represents a boolean parameter value.
type Boolean bool

func (Boolean) value() {}

// List represents an ordered sequence of values.
type List []Value

func (List) value() {}

// Dict represents a string-keyed map of values.
// Use SortedKeys for deterministic iteration.
type Dict map[string]Value

func (Dict) value() {}

// SortedKeys returns the dict keys in ascending byte order.
func (d Dict) SortedKeys() []string {
	keys := make([]string, 0, len(d))
	for k := range d {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// AsNumber extracts a float64 from a Value, accepting Number only.
func AsNumber(v Value) (float64, error) {
	n, ok := v.(Number)
	if !ok {
		return 0, fmt.Errorf("expected number, got %T", v)
	}
	return float64(n), nil
}

// AsString extracts a string from a Value.
func AsString(v Value) (string, error) {
	s, ok := v.(String)
	if !ok {
		return "", fmt.Errorf("expected string, got %T", v)
	}
	return string(s), nil
}

// AsBool extracts a bool from a Value.
func AsBool(v Value) (bool, error) {
	b, ok := v.(Boolean)
	if !ok {
		return false, fmt.Errorf("expected bool, got %T", v)
	}
	return bool(b), nil
}

// AsNumbers extracts a []float64 from a Value. A bare Number yields a
// one-element slice; a List must contain only Numbers.
func AsNumbers(v Value) ([]float64, error) {
	switch val := v.(type) {
	case Number:
		return []float64{float64(val)}, nil
	case List:
		out := make([]float64, len(val))
		for i, elem := range val {
			n, ok := elem.(Number)
			if !ok {
				return nil, fmt.Errorf("list[%d]: expected number, got %T", i, elem)
			}
			out[i] = float64(n)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("expected number or number list, got %T", v)
	}
}

// FromGo converts a restricted set of Go values (as produced by yaml/CUE
// decoding) into a Value. Unsupported types error rather than coerce.
func FromGo(v any) (Value, error) {
	switch val := v.(type) {
	case nil:
		return Null{}, nil
	case string:
		return String(val), nil
	case bool:
		return Boolean(val), nil
	case int:
		return Number(val), nil
	case int64:
		return Number(val), nil
	case float64:
		return Number(val), nil
	case []any:
		list := make(List, len(val))
		for i, elem := range val {
			conv, err := FromGo(elem)
			if err != nil {
				return nil, fmt.Errorf("list[%d]: %w", i, err)
			}
			list[i] = conv
		}
		return list, nil
	case map[string]any:
		dict := make(Dict, len(val))
		for k, elem := range val {
			conv, err := FromGo(elem)
			if err != nil {
				return nil, fmt.Errorf("key %q: %w", k, err)
			}
			dict[k] = conv
		}
		return dict, nil
	default:
		return nil, fmt.Errorf("unsupported value type %T", v)
	}
}
