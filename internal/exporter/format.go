package exporter

import (
	"fmt"
	"strconv"

	"reportflow/pkg/contracts/domain"
)

// formatFloat renders a value with the shortest representation that round
// trips. Null renders as the empty string.
func formatFloat(f domain.Float) string {
	return f.String()
}

// formatInt formats an integer value for CSV output
func formatInt(i int) string {
	return strconv.Itoa(i)
}

// formatCell renders one table cell as text
func formatCell(v interface{}) string {
	switch c := v.(type) {
	case nil:
		return ""
	case string:
		return c
	case nullCategory:
		return string(c)
	case int:
		return formatInt(c)
	case domain.Float:
		return formatFloat(c)
	default:
		return fmt.Sprint(c)
	}
}
