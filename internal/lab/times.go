package lab

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"
)

// timeLayouts are tried in order when coercing string timestamps. Register
// documents written by older frontends carry several of these.
var timeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"02/01/2006 15:04:05",
	"02/01/2006",
}

// unixTimer matches store-native timestamp values, which expose their wall
// clock through a zero-argument Time method.
type unixTimer interface {
	Time() time.Time
}

// CoerceTime normalizes the timestamp shapes found in raw register
// documents into a time.Time: native times, store timestamps, legacy
// serialized timestamps carrying a numeric "seconds" field, RFC3339-ish
// strings, and bare Unix values. Malformed input reports ok=false; the
// function never panics on any shape.
func CoerceTime(v any) (time.Time, bool) {
	switch t := v.(type) {
	case nil:
		return time.Time{}, false
	case time.Time:
		if t.IsZero() {
			return time.Time{}, false
		}
		return t, true
	case *time.Time:
		if t == nil || t.IsZero() {
			return time.Time{}, false
		}
		return *t, true
	case unixTimer:
		return CoerceTime(t.Time())
	case map[string]any:
		if secs, ok := numericValue(t["seconds"]); ok {
			return time.Unix(int64(secs), 0).UTC(), true
		}
		return time.Time{}, false
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return time.Time{}, false
		}
		for _, layout := range timeLayouts {
			if parsed, err := time.Parse(layout, s); err == nil {
				return parsed, true
			}
		}
		return time.Time{}, false
	default:
		if secs, ok := numericValue(v); ok && secs > 0 {
			return time.Unix(int64(secs), 0).UTC(), true
		}
		return time.Time{}, false
	}
}

// numericValue extracts a float from the numeric types JSON decoding and
// store drivers produce.
func numericValue(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return 0, false
		}
		return f, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// MinutesBetween returns the whole-minute duration from a to b. Both ends
// are coerced; ok is false when either end is unresolvable or when b is not
// strictly after a. Durations are rounded, not truncated.
func MinutesBetween(a, b any) (int, bool) {
	start, ok := CoerceTime(a)
	if !ok {
		return 0, false
	}
	end, ok := CoerceTime(b)
	if !ok {
		return 0, false
	}
	if !end.After(start) {
		return 0, false
	}
	return int(math.Round(end.Sub(start).Minutes())), true
}
