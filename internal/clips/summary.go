package clips

import (
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strings"
)

// VideoCount pairs a source video with a count.
type VideoCount struct {
	Video string
	Count int
}

// Summary reports the outcome of one extraction run.
type Summary struct {
	IndexPath      string
	RowsScanned    int
	Written        int // clips on disk for scanned rows, cut now or earlier
	Existing       int // of Written, clips that were already on disk
	AlreadyIndexed int // of Written, clips the index already listed
	Skipped        int
	SkipReasons    map[string]int
	ActionCounts   map[string]int
	MissingByVideo map[string]int
	MissingTop     []VideoCount
	LimitReached   bool
}

func newSummary(indexPath string) *Summary {
	return &Summary{
		IndexPath:      indexPath,
		SkipReasons:    make(map[string]int),
		ActionCounts:   make(map[string]int),
		MissingByVideo: make(map[string]int),
	}
}

// MissingEvents returns the number of events skipped for a missing source.
func (s *Summary) MissingEvents() int {
	n := 0
	for _, c := range s.MissingByVideo {
		n += c
	}
	return n
}

// Fprint writes the human-readable report.
func (s *Summary) Fprint(w io.Writer) {
	fmt.Fprintf(w, "Scanned manifest rows: %d\n", s.RowsScanned)
	fmt.Fprintf(w, "Wrote clips: %d -> %s (already present: %d)\n", s.Written, filepath.Base(s.IndexPath), s.Existing)
	if s.LimitReached {
		fmt.Fprintln(w, "Stopped at the clip limit")
	}
	if len(s.ActionCounts) > 0 {
		fmt.Fprintf(w, "Per-action counts: %s\n", formatCounts(s.ActionCounts))
	}
	if len(s.SkipReasons) > 0 {
		fmt.Fprintf(w, "Skipped %d events: %s\n", s.Skipped, formatCounts(s.SkipReasons))
	}
	if len(s.MissingByVideo) > 0 {
		fmt.Fprintf(w, "Missing source videos for %d events across %d files:\n", s.MissingEvents(), len(s.MissingByVideo))
		for _, vc := range s.MissingTop {
			fmt.Fprintf(w, "  %s: %d missing\n", vc.Video, vc.Count)
		}
	}
}

// topMissing returns the n videos with the most missing events, ties broken
// by name.
func topMissing(counts map[string]int, n int) []VideoCount {
	out := make([]VideoCount, 0, len(counts))
	for v, c := range counts {
		out = append(out, VideoCount{Video: v, Count: c})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Video < out[j].Video
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}

func formatCounts(counts map[string]int) string {
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s=%d", k, counts[k])
	}
	return strings.Join(parts, " ")
}
