package model

import (
	"fmt"
	"math"
	"strconv"
)

// Record is one decoded mongod log line. Nested objects are map[string]any.
type Record map[string]any

// Lookup walks path through nested objects. A missing key, a JSON null or a
// non-object intermediate all report false.
func (r Record) Lookup(path ...string) (any, bool) {
	var cur any = map[string]any(r)
	for _, key := range path {
		obj, ok := asObject(cur)
		if !ok {
			return nil, false
		}
		cur, ok = obj[key]
		if !ok {
			return nil, false
		}
	}
	if cur == nil {
		return nil, false
	}
	return cur, true
}

// ValueOr returns the raw value at path, or def when it is absent.
func (r Record) ValueOr(def any, path ...string) any {
	if v, ok := r.Lookup(path...); ok {
		return v
	}
	return def
}

// LookupString returns the value at path only if it is a JSON string.
func (r Record) LookupString(path ...string) (string, bool) {
	v, ok := r.Lookup(path...)
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// StringOr returns the value at path as text. Scalars that are not strings are
// formatted; objects and arrays fall back to def.
func (r Record) StringOr(def string, path ...string) string {
	v, ok := r.Lookup(path...)
	if !ok {
		return def
	}
	switch t := v.(type) {
	case string:
		return t
	case map[string]any, Record, []any:
		return def
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return fmt.Sprint(t)
	}
}

// FloatOr returns the numeric value at path, or def when it is absent or not
// a number.
func (r Record) FloatOr(def float64, path ...string) float64 {
	v, ok := r.Lookup(path...)
	if !ok {
		return def
	}
	f, ok := toFloat(v)
	if !ok {
		return def
	}
	return f
}

// IntOr returns the numeric value at path rounded to the nearest integer.
func (r Record) IntOr(def int64, path ...string) int64 {
	v, ok := r.Lookup(path...)
	if !ok {
		return def
	}
	f, ok := toFloat(v)
	if !ok || math.IsNaN(f) || math.IsInf(f, 0) {
		return def
	}
	return RoundInt64(f)
}

// RoundInt64 rounds f half away from zero and saturates at the int64 range.
// NaN yields 0.
func RoundInt64(f float64) int64 {
	switch {
	case math.IsNaN(f):
		return 0
	case f >= math.MaxInt64:
		return math.MaxInt64
	case f <= math.MinInt64:
		return math.MinInt64
	}
	return int64(math.Round(f))
}

func asObject(v any) (map[string]any, bool) {
	switch t := v.(type) {
	case map[string]any:
		return t, true
	case Record:
		return t, true
	default:
		return nil, false
	}
}

// toFloat accepts plain numbers, numeric strings and the extended JSON number
// wrappers mongod emits in relaxed mode.
func toFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case float32:
		return float64(t), true
	case int:
		return float64(t), true
	case int32:
		return float64(t), true
	case int64:
		return float64(t), true
	case uint64:
		return float64(t), true
	case interface{ Float64() (float64, error) }:
		f, err := t.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(t, 64)
		return f, err == nil
	case map[string]any:
		for _, key := range []string{"$numberInt", "$numberLong", "$numberDouble", "$numberDecimal"} {
			if raw, ok := t[key]; ok {
				return toFloat(raw)
			}
		}
	}
	return 0, false
}
