package exporter

import (
	"fmt"
	"strconv"
	"time"
)

// dateLayout is the date format used on every export surface.
const dateLayout = "2006-01-02"

// formatDate renders a date cell.
func formatDate(t time.Time) string {
	return t.Format(dateLayout)
}

// formatFloat formats a float64 cell with exactly 2 decimal places.
// This keeps money and percentage columns aligned, 13.4 exports as 13.40.
func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', 2, 64)
}

// formatCell renders a typed table cell as CSV text.
func formatCell(cell any) string {
	switch v := cell.(type) {
	case string:
		return v
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		return formatFloat(v)
	case bool:
		return strconv.FormatBool(v)
	default:
		return fmt.Sprint(v)
	}
}
