package document

import (
	"encoding/json"
	"math"
	"unicode/utf8"
)

// Float returns v as a float64 if it is a JSON number.
func Float(v any) (float64, bool) {
	n, ok := v.(json.Number)
	if !ok {
		return 0, false
	}
	f, err := n.Float64()
	if err != nil || math.IsInf(f, 0) || math.IsNaN(f) {
		return 0, false
	}
	return f, true
}

// Int returns v as an int64 if it is a JSON number without a fraction.
func Int(v any) (int64, bool) {
	n, ok := v.(json.Number)
	if !ok {
		return 0, false
	}
	i, err := n.Int64()
	return i, err == nil
}

// Length returns the number of elements of an array, the number of keys
// of an object, or the number of characters of a string.
func Length(v any) (int, bool) {
	switch t := v.(type) {
	case []any:
		return len(t), true
	case *Object:
		return t.Len(), true
	case string:
		return utf8.RuneCountInString(t), true
	}
	return 0, false
}

// TypeName names the JSON type of v for messages.
func TypeName(v any) string {
	switch v.(type) {
	case *Object:
		return "object"
	case []any:
		return "array"
	case string:
		return "string"
	case json.Number:
		return "number"
	case bool:
		return "boolean"
	case nil:
		return "null"
	}
	return "unknown"
}
