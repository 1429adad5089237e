package testexport

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"

	"github.com/okian/tagclips/internal/adapters/csvio"
	"github.com/okian/tagclips/internal/manifest"
)

// ErrMismatch marks a manifest that differs from the expectation.
var ErrMismatch = errors.New("manifest does not match the generated export")

// verifySummary compares the normalizer's counters with exp.
func verifySummary(exp *Expected, sum *manifest.Summary) []string {
	var problems []string
	check := func(name string, got, want int) {
		if got != want {
			problems = append(problems, fmt.Sprintf("%s: got %d, want %d", name, got, want))
		}
	}
	check("rows read", sum.RowsRead, exp.Rows)
	check("rows written", sum.RowsWritten, exp.Distinct)
	check("duplicates", sum.SkipReasons[manifest.ReasonDuplicate], exp.Duplicates)
	check("unparsable times", sum.SkipReasons[manifest.ReasonUnparsableTime], exp.BadTimes)
	check("defaulted outcomes", sum.OutcomesDefaulted, exp.Defaulted)

	actions := make([]string, 0, len(exp.Actions))
	for a := range exp.Actions {
		actions = append(actions, a)
	}
	for a := range sum.ActionCounts {
		if _, ok := exp.Actions[a]; !ok {
			actions = append(actions, a)
		}
	}
	sort.Strings(actions)
	for _, a := range actions {
		check("action "+a, sum.ActionCounts[a], exp.Actions[a])
	}
	return problems
}

// verifyManifest checks the manifest file itself: unique ids, times with
// three decimals, binary outcomes and only expected videos.
func verifyManifest(path string, exp *Expected) ([]string, error) {
	rd, err := csvio.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rd.Close() }()

	videos := make(map[string]bool, len(exp.Videos))
	for _, v := range exp.Videos {
		videos[v] = true
	}
	ids := make(map[string]int)

	var problems []string
	for {
		row, err := rd.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return problems, err
		}
		line := rd.Line()
		if prev, dup := ids[row["event_id"]]; dup {
			problems = append(problems, fmt.Sprintf("line %d: event_id %q already used on line %d", line, row["event_id"], prev))
		}
		ids[row["event_id"]] = line

		t, err := strconv.ParseFloat(row["t_event_sec"], 64)
		if err != nil || strconv.FormatFloat(t, 'f', 3, 64) != row["t_event_sec"] {
			problems = append(problems, fmt.Sprintf("line %d: t_event_sec %q is not a 3-decimal number", line, row["t_event_sec"]))
		}
		if o := row["outcome"]; o != "0" && o != "1" {
			problems = append(problems, fmt.Sprintf("line %d: outcome %q is not 0 or 1", line, o))
		}
		if !videos[row["video_filename"]] {
			problems = append(problems, fmt.Sprintf("line %d: unexpected video %q", line, row["video_filename"]))
		}
	}
	if len(ids) != exp.Distinct {
		problems = append(problems, fmt.Sprintf("manifest rows: got %d, want %d", len(ids), exp.Distinct))
	}
	return problems, nil
}
