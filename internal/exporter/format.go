package exporter

import (
	"fmt"
	"strconv"
	"strings"

	"labpulse/pkg/contracts/domain"
)

// formatFloat formats a float64 value for CSV output with exactly 2 decimal places
func formatFloat(f float64) string {
	return fmt.Sprintf("%.2f", f)
}

// formatInt formats an int value for CSV output
func formatInt(i int) string {
	return strconv.Itoa(i)
}

// formatField renders a cell as ingested. Absent cells are empty.
func formatField(f domain.Field) string {
	if !f.Present {
		return ""
	}
	return f.Raw
}

// formatMeans renders group means as {key: mean, ...} in key order
func formatMeans(keys []string, means map[string]float64) string {
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, formatFloat(means[k])))
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

// keyColumns names the key columns of an aggregate in output order
func keyColumns(spec domain.GroupSpec) []string {
	var cols []string
	if spec.Bucketed() {
		cols = append(cols, string(spec.Bucket))
	}
	if spec.Categorized() {
		cols = append(cols, spec.CategoryColumn)
	}
	if len(cols) == 0 {
		cols = append(cols, "group")
	}
	return cols
}
