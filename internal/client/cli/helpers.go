package cli

import (
	"fmt"
	"strconv"
)

// formatID печатает id из JSON: числа без дробной части, пустое как "-"
func formatID(id any) string {
	switch v := id.(type) {
	case nil:
		return "-"
	case float64:
		if v == float64(int64(v)) {
			return strconv.FormatInt(int64(v), 10)
		}
		return strconv.FormatFloat(v, 'f', -1, 64)
	case string:
		if v == "" {
			return "-"
		}
		return v
	default:
		return fmt.Sprint(v)
	}
}
