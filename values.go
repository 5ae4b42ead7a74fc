package adhoc

import (
	"encoding/json"
	"math"
	"reflect"
	"strconv"
)

// Int64 extracts an integral value from the representations produced by Go
// callers and wire decoders: any Go integer kind, json.Number, or a float64
// without a fractional part. ok is false for anything else, including
// integers that do not fit in an int64.
func Int64(v any) (n int64, ok bool) {
	switch t := v.(type) {
	case int:
		return int64(t), true
	case int64:
		return t, true
	case int32:
		return int64(t), true
	case json.Number:
		i, err := strconv.ParseInt(string(t), 10, 64)
		return i, err == nil
	case float64:
		if t != math.Trunc(t) || math.IsInf(t, 0) || t >= 1<<63 || t < -1<<63 {
			return 0, false
		}
		return int64(t), true
	case bool, string, nil:
		return 0, false
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int(), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		u := rv.Uint()
		if u > math.MaxInt64 {
			return 0, false
		}
		return int64(u), true
	}
	return 0, false
}

// IsWireNumber reports whether v is a number representation that only exists
// because of a wire decoder (json.Number or float64) and should be normalized
// by Convert.
func IsWireNumber(v any) bool {
	switch v.(type) {
	case json.Number, float64:
		return true
	}
	return false
}

// Truth interprets a value accepted by a lenient boolean node.
func Truth(v any) bool {
	if b, ok := v.(bool); ok {
		return b
	}
	n, _ := Int64(v)
	return n != 0
}
