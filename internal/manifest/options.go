package manifest

import (
	"github.com/okian/tagclips/internal/domain/canon"
	"github.com/okian/tagclips/internal/domain/resolve"
	"github.com/okian/tagclips/pkg/logger"
)

// Option applies a configuration option to the Normalizer.
type Option func(*Normalizer)

// WithVocabulary sets the action and outcome tables.
func WithVocabulary(v *canon.Vocabulary) Option {
	return func(n *Normalizer) {
		if v != nil {
			n.vocab = v
		}
	}
}

// WithAliases replaces the header alias table.
func WithAliases(aliases map[resolve.Field][]string) Option {
	return func(n *Normalizer) {
		if len(aliases) > 0 {
			n.aliases = aliases
		}
	}
}

// WithAppend keeps the rows of an existing output manifest and only adds
// events whose dedup key it does not already hold.
func WithAppend(enabled bool) Option {
	return func(n *Normalizer) {
		n.appendMode = enabled
	}
}

// WithLogger sets a custom logger for the normalizer.
func WithLogger(l logger.Logger) Option {
	return func(n *Normalizer) {
		if l != nil {
			n.logger = l
		}
	}
}
