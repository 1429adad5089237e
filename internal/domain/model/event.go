// Package model contains domain records passed between pipeline stages.
package model

import (
	"strconv"
)

// RawEventRow maps an input header, exactly as exported, to its cell value.
type RawEventRow map[string]string

// CanonicalEvent is one normalized, deduplicated manifest row.
type CanonicalEvent struct {
	EventID       string  // unique per manifest, assigned or passed through
	VideoID       string  // clean video key, e.g. "game1"
	VideoFilename string  // VideoID plus the canonical extension
	TEventSec     float64 // non-negative seconds into the video
	Action        string  // canonical lowercase label
	Player        string  // free text, not validated
	Outcome       int     // 1 success, 0 failure or unknown
}

// ClipRecord describes one materialized clip as stored in the clip index.
// Numeric fields keep the textual form they were written with so a record
// read back from the index is emitted unchanged into the split files.
type ClipRecord struct {
	ClipPath      string
	VideoFilename string
	TEventSec     string
	Pre           string
	Post          string
	Action        string
	Outcome       string
	Player        string
	EventID       string
}

// Split names a dataset partition.
type Split string

// Dataset partitions, in the order they are sliced from each class.
const (
	SplitTest  Split = "test"
	SplitVal   Split = "val"
	SplitTrain Split = "train"
)

// Splits lists every partition in output order.
var Splits = []Split{SplitTrain, SplitVal, SplitTest} //nolint:gochecknoglobals // fixed enumeration

// FormatSeconds renders seconds with millisecond precision, the format used
// by every CSV the pipeline writes.
func FormatSeconds(sec float64) string {
	return strconv.FormatFloat(sec, 'f', 3, 64)
}

// FormatOutcome renders a binary outcome.
func FormatOutcome(outcome int) string {
	if outcome == 1 {
		return "1"
	}
	return "0"
}
