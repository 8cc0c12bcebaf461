package utils

import (
	"strconv"
	"strings"
)

// ParsePrice normalizes a raw extracted price value into a numeric amount.
// String inputs may carry currency symbols and thousands separators
// ("$1,299.00"); numeric inputs pass through. Unparseable values return
// (0, false) so callers can persist a null price instead of failing.
func ParsePrice(raw any) (float64, bool) {
	switch v := raw.(type) {
	case nil:
		return 0, false
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case string:
		s := strings.TrimSpace(v)
		s = strings.NewReplacer(",", "", "$", "", "€", "", "£", "").Replace(s)
		if s == "" {
			return 0, false
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}
