// Package resolve extracts canonical fields from loosely named input rows
// and parses event timestamps.
package resolve

import (
	"strings"

	"github.com/okian/tagclips/internal/domain/model"
)

// Field names a canonical input field.
type Field string

// Canonical input fields.
const (
	FieldEventID   Field = "event_id"
	FieldTimestamp Field = "timestamp"
	FieldTime      Field = "time"
	FieldEventType Field = "event_type"
	FieldPlayer    Field = "player"
	FieldOutcome   Field = "outcome"
	FieldVideoID   Field = "video_id"
)

// DefaultAliases lists, per field, the accepted headers in priority order.
// "Timestamp (seconds)" is what the tagging UI exports; "Timestamq" is a
// historical typo seen in hand-edited sheets.
func DefaultAliases() map[Field][]string {
	return map[Field][]string{
		FieldEventID:   {"Event ID", "event_id", "id"},
		FieldTimestamp: {"Timestamp", "Timestamp (seconds)", "Timestamq", "timestamp"},
		FieldTime:      {"Time", "time"},
		FieldEventType: {"Event Type", "Action", "event_type"},
		FieldPlayer:    {"Player", "player", "athlete"},
		FieldOutcome:   {"Outcome", "outcome", "result"},
		FieldVideoID:   {"Video ID", "video_id", "video"},
	}
}

// First returns the value of the first alias present in row with a
// non-blank value, or "" when none is.
func First(row model.RawEventRow, aliases []string) string {
	for _, name := range aliases {
		if v, ok := row[name]; ok && strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

// Resolver binds an alias table to a concrete header row. Aliases match
// headers exactly first and then case-insensitively with surrounding
// whitespace ignored, so " event type " still resolves.
type Resolver struct {
	aliases map[Field][]string
	// bound holds, per field, the actual header names to try in order.
	bound map[Field][]string
}

// NewResolver binds aliases to header. A nil aliases table uses DefaultAliases.
func NewResolver(header []string, aliases map[Field][]string) *Resolver {
	if aliases == nil {
		aliases = DefaultAliases()
	}

	folded := make(map[string]string, len(header))
	present := make(map[string]bool, len(header))
	for _, h := range header {
		present[h] = true
		key := foldHeader(h)
		if _, dup := folded[key]; !dup {
			folded[key] = h
		}
	}

	r := &Resolver{aliases: aliases, bound: make(map[Field][]string, len(aliases))}
	for field, names := range aliases {
		var headers []string
		seen := make(map[string]bool)
		for _, name := range names {
			actual := ""
			if present[name] {
				actual = name
			} else if h, ok := folded[foldHeader(name)]; ok {
				actual = h
			}
			if actual != "" && !seen[actual] {
				seen[actual] = true
				headers = append(headers, actual)
			}
		}
		r.bound[field] = headers
	}
	return r
}

// Has reports whether the header row carries any alias of field.
func (r *Resolver) Has(field Field) bool {
	return len(r.bound[field]) > 0
}

// Value resolves field from row.
func (r *Resolver) Value(row model.RawEventRow, field Field) string {
	return First(row, r.bound[field])
}

// Aliases returns the configured aliases for field, for error messages.
func (r *Resolver) Aliases(field Field) []string {
	return r.aliases[field]
}

func foldHeader(h string) string {
	return strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
}
