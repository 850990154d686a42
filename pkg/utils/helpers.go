package utils

import (
	"strconv"
	"strings"
)

// ParseValue converts a raw CSV cell into int64, float64 or string.
// Empty cells (after trimming) become nil.
func ParseValue(s string) interface{} {
	t := strings.TrimSpace(s)
	if t == "" {
		return nil
	}

	// try int
	if i, err := strconv.ParseInt(t, 10, 64); err == nil {
		return i
	}
	// try float
	if f, err := strconv.ParseFloat(t, 64); err == nil {
		return f
	}
	return s
}

// Numeric safely converts supported types to float64.
func Numeric(v interface{}) (float64, bool) {
	switch val := v.(type) {
	case int:
		return float64(val), true
	case int64:
		return float64(val), true
	case float64:
		return val, true
	case float32:
		return float64(val), true
	default:
		return 0, false
	}
}

// FormatMagnitude abbreviates a count with a K or M suffix and one decimal.
// Values below one thousand are printed as plain integers.
func FormatMagnitude(n int64) string {
	v := float64(n)
	switch {
	case v >= 1_000_000:
		return strconv.FormatFloat(v/1_000_000, 'f', 1, 64) + "M"
	case v >= 1_000:
		return strconv.FormatFloat(v/1_000, 'f', 1, 64) + "K"
	default:
		return strconv.FormatInt(n, 10)
	}
}
