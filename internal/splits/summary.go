package splits

import (
	"fmt"
	"io"
	"strings"

	"github.com/okian/tagclips/internal/domain/model"
)

// ClassCount is the per-split breakdown of one action class.
type ClassCount struct {
	Action  string
	Total   int // clips in the index
	Dropped int // clips over the per-action cap
	Train   int
	Val     int
	Test    int
}

// Summary reports the outcome of one split build. Classes are in action
// order.
type Summary struct {
	Classes []ClassCount
	Paths   map[model.Split]string
}

func newSummary() *Summary {
	return &Summary{Paths: make(map[model.Split]string)}
}

// Count returns the number of clips assigned to split.
func (s *Summary) Count(split model.Split) int {
	n := 0
	for _, c := range s.Classes {
		n += c.of(split)
	}
	return n
}

func (c ClassCount) of(split model.Split) int {
	switch split {
	case model.SplitTrain:
		return c.Train
	case model.SplitVal:
		return c.Val
	case model.SplitTest:
		return c.Test
	default:
		return 0
	}
}

// Fprint writes the human-readable report.
func (s *Summary) Fprint(w io.Writer) {
	fmt.Fprintln(w, "Splits written:")
	for _, split := range model.Splits {
		parts := make([]string, 0, len(s.Classes))
		for _, c := range s.Classes {
			if n := c.of(split); n > 0 {
				parts = append(parts, fmt.Sprintf("%s=%d", c.Action, n))
			}
		}
		fmt.Fprintf(w, "  %-5s: %d -> %s {%s}\n", split, s.Count(split), s.Paths[split], strings.Join(parts, " "))
	}
	for _, c := range s.Classes {
		if c.Dropped > 0 {
			fmt.Fprintf(w, "Capped %s: kept %d of %d\n", c.Action, c.Total-c.Dropped, c.Total)
		}
	}
}
