// Package numeric coerces heterogeneous numeric representations coming out of
// model replies and JSON decoding into plain float64 values. Every function
// returns 0.0 on failure instead of an error; callers downstream rely on that
// to keep pipeline output schema-complete.
package numeric

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Binary operations accepted by SafeOp.
const (
	OpMultiply = "multiply"
	OpDivide   = "divide"
	OpAdd      = "add"
	OpSubtract = "subtract"
)

// ToFloat converts v to a float64, returning 0.0 on any failure. Strings are
// trimmed and stripped of thousands separators and currency symbols before
// parsing, so "$1,234.56" and "1234.56" both yield 1234.56.
func ToFloat(v any) float64 {
	return ToFloatDefault(v, 0.0)
}

// ToFloatDefault is ToFloat with a caller-chosen fallback value.
func ToFloatDefault(v any, def float64) float64 {
	switch x := v.(type) {
	case nil:
		return def
	case float64:
		return x
	case float32:
		return float64(x)
	case int:
		return float64(x)
	case int32:
		return float64(x)
	case int64:
		return float64(x)
	case uint:
		return float64(x)
	case uint64:
		return float64(x)
	case json.Number:
		f, err := x.Float64()
		if err != nil {
			return def
		}
		return f
	case string:
		s := strings.TrimSpace(x)
		s = strings.ReplaceAll(s, ",", "")
		s = strings.ReplaceAll(s, "$", "")
		if s == "" {
			return def
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return def
		}
		return f
	default:
		return def
	}
}

// SafeOp applies the named binary operation to a and b after normalizing both
// through ToFloat. Division by zero and unknown operations return 0.0.
func SafeOp(a, b any, op string) float64 {
	fa := ToFloat(a)
	fb := ToFloat(b)
	switch op {
	case OpMultiply:
		return fa * fb
	case OpDivide:
		if fb == 0 {
			return 0.0
		}
		return fa / fb
	case OpAdd:
		return fa + fb
	case OpSubtract:
		return fa - fb
	default:
		return 0.0
	}
}
