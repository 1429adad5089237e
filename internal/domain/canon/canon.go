// Package canon maps free-text labels onto the fixed vocabulary used by the
// manifest: canonical actions, binary outcomes and clean video names.
package canon

import (
	"strings"
)

// Outcome values.
const (
	OutcomeFailure = 0
	OutcomeSuccess = 1
)

// CanonicalExt is the extension every derived video filename carries.
const CanonicalExt = ".mp4"

// videoPrefix is the decoration the tagging UI puts in front of stored ids.
const videoPrefix = "video_"

// knownExts are stripped from raw ids before the canonical extension is added.
var knownExts = []string{".mp4", ".mov", ".m4v"} //nolint:gochecknoglobals // fixed table

// Vocabulary holds the label tables. The zero value passes every action
// through unchanged and treats every outcome as an unrecognized failure.
type Vocabulary struct {
	synonyms map[string]string
	success  map[string]struct{}
	failure  map[string]struct{}
}

// Option configures a Vocabulary.
type Option func(*Vocabulary)

// WithSynonyms replaces the action synonym table. Keys are folded to
// lowercase; values are canonical labels.
func WithSynonyms(synonyms map[string]string) Option {
	return func(v *Vocabulary) {
		v.synonyms = make(map[string]string, len(synonyms))
		for from, to := range synonyms {
			v.synonyms[fold(from)] = fold(to)
		}
	}
}

// WithOutcomeTokens replaces the success and failure token sets.
func WithOutcomeTokens(success, failure []string) Option {
	return func(v *Vocabulary) {
		v.success = tokenSet(success)
		v.failure = tokenSet(failure)
	}
}

// NewVocabulary builds a Vocabulary from the default tables, then applies opts.
func NewVocabulary(opts ...Option) *Vocabulary {
	v := &Vocabulary{}
	WithSynonyms(DefaultSynonyms())(v)
	WithOutcomeTokens(DefaultSuccessTokens(), DefaultFailureTokens())(v)
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// DefaultSynonyms returns the built-in action synonym table.
func DefaultSynonyms() map[string]string {
	return map[string]string{
		"hit":     "spike",
		"attack":  "spike",
		"assist":  "set",
		"receive": "pass",
	}
}

// DefaultSuccessTokens returns the built-in success tokens.
func DefaultSuccessTokens() []string {
	return []string{"successful", "success", "true", "1", "yes", "made", "win", "won"}
}

// DefaultFailureTokens returns the built-in failure tokens.
func DefaultFailureTokens() []string {
	return []string{"failure", "fail", "false", "0", "no", "miss", "lost"}
}

// Action lowercases and trims raw, then applies the synonym table. Unknown
// labels pass through in their folded form.
func (v *Vocabulary) Action(raw string) string {
	k := fold(raw)
	if to, ok := v.synonyms[k]; ok {
		return to
	}
	return k
}

// Outcome maps raw onto OutcomeSuccess or OutcomeFailure. recognized is
// false when raw matched neither token set and the failure default applied.
func (v *Vocabulary) Outcome(raw string) (outcome int, recognized bool) {
	k := fold(raw)
	if _, ok := v.success[k]; ok {
		return OutcomeSuccess, true
	}
	if _, ok := v.failure[k]; ok {
		return OutcomeFailure, true
	}
	return OutcomeFailure, false
}

// VideoName derives the clean video id and its canonical filename from a raw
// identifier such as "video_game1_1712345678.mp4".
//
// The "video_" prefix is dropped, only the segment before the first
// underscore is kept, and a trailing known extension is removed before
// CanonicalExt is appended. Applying it to its own filename output yields
// the same result.
func VideoName(raw string) (id, filename string) {
	s := strings.TrimSpace(raw)
	s = strings.ReplaceAll(s, videoPrefix, "")
	if i := strings.IndexByte(s, '_'); i >= 0 {
		s = s[:i]
	}
	s = stripKnownExt(s)
	return s, s + CanonicalExt
}

func stripKnownExt(s string) string {
	lower := strings.ToLower(s)
	for _, ext := range knownExts {
		if strings.HasSuffix(lower, ext) {
			return s[:len(s)-len(ext)]
		}
	}
	return s
}

func tokenSet(tokens []string) map[string]struct{} {
	set := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		set[fold(t)] = struct{}{}
	}
	return set
}

func fold(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
