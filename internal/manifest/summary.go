package manifest

import (
	"fmt"
	"io"
	"sort"
	"strings"
)

// Summary reports the outcome of one normalization pass.
type Summary struct {
	RowsRead          int
	RowsWritten       int
	RowsSkipped       int
	RowsKept          int // rows carried over from an existing manifest
	SkipReasons       map[string]int
	ActionCounts      map[string]int
	OutcomesDefaulted int // unrecognized outcome tokens written as failure
}

func newSummary() *Summary {
	return &Summary{
		SkipReasons:  make(map[string]int),
		ActionCounts: make(map[string]int),
	}
}

func (s *Summary) skip(reason string) {
	s.RowsSkipped++
	s.SkipReasons[reason]++
}

// Fprint writes the human-readable report.
func (s *Summary) Fprint(w io.Writer) {
	fmt.Fprintf(w, "Read %d rows -> wrote %d, skipped %d\n", s.RowsRead, s.RowsWritten, s.RowsSkipped)
	if s.RowsKept > 0 {
		fmt.Fprintf(w, "Kept %d rows from the existing manifest\n", s.RowsKept)
	}
	if len(s.SkipReasons) > 0 {
		fmt.Fprintf(w, "Skipped by reason: %s\n", formatCounts(s.SkipReasons))
	}
	if len(s.ActionCounts) > 0 {
		fmt.Fprintf(w, "Action counts: %s\n", formatCounts(s.ActionCounts))
	}
	if s.OutcomesDefaulted > 0 {
		fmt.Fprintf(w, "Outcomes defaulted to failure: %d\n", s.OutcomesDefaulted)
	}
}

// formatCounts renders counts as "a=1 b=2" in key order.
func formatCounts(counts map[string]int) string {
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		label := k
		if label == "" {
			label = `""`
		}
		parts[i] = fmt.Sprintf("%s=%d", label, counts[k])
	}
	return strings.Join(parts, " ")
}
