package schema

import (
	"cmp"
	"slices"
	"strconv"
)

// FormatValue renders a metric value the way tables store it ("3", "0.5").
func FormatValue(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// SortEntries orders entries by composite key (repository, file).
func SortEntries(entries []MetricEntry) {
	slices.SortStableFunc(entries, func(a, b MetricEntry) int {
		if c := cmp.Compare(a.Repository, b.Repository); c != 0 {
			return c
		}
		return cmp.Compare(a.File, b.File)
	})
}

// CountDiagnostics groups diagnostics by kind.
func CountDiagnostics(diags []Diagnostic) map[DiagnosticKind]int {
	counts := make(map[DiagnosticKind]int)
	for _, d := range diags {
		counts[d.Kind]++
	}
	return counts
}
