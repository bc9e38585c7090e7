// Package jsonvalue compares and classifies raw decoded JSON values, the
// representation shared by the node cache and schema options.
package jsonvalue

import (
	"encoding/json"
	"math"
	"strconv"
)

// Number converts a raw numeric value to float64.
func Number(v any) (float64, bool) {
	switch n := v.(type) {
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint64:
		return float64(n), true
	default:
		return 0, false
	}
}

// Key returns a canonical JSON encoding of v. Numbers are normalized so 1,
// 1.0 and json.Number("1") share a key.
func Key(v any) string {
	if f, ok := Number(v); ok {
		return strconv.FormatFloat(f, 'g', -1, 64)
	}
	b, err := json.Marshal(normalize(v))
	if err != nil {
		return "?"
	}
	return string(b)
}

func normalize(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, c := range t {
			out[k] = normalize(c)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, c := range t {
			out[i] = normalize(c)
		}
		return out
	default:
		if f, ok := Number(v); ok {
			return json.Number(strconv.FormatFloat(f, 'g', -1, 64))
		}
		return v
	}
}

// Contains reports whether values holds a value equal to v.
func Contains(values []any, v any) bool {
	key := Key(v)
	for _, o := range values {
		if Key(o) == key {
			return true
		}
	}
	return false
}

// TypeName returns the JSON type of v: null, boolean, integer, number,
// string, array or object.
func TypeName(v any) string {
	switch t := v.(type) {
	case nil:
		return "null"
	case bool:
		return "boolean"
	case string:
		return "string"
	case []any:
		return "array"
	case map[string]any:
		return "object"
	default:
		if f, ok := Number(t); ok {
			if f == math.Trunc(f) && !math.IsInf(f, 0) {
				return "integer"
			}
			return "number"
		}
		return "unknown"
	}
}
