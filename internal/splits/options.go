package splits

import (
	"github.com/okian/tagclips/pkg/logger"
)

// Option applies a configuration option to the Builder.
type Option func(*Builder)

// WithSeed sets the shuffle seed.
func WithSeed(seed int64) Option {
	return func(b *Builder) {
		b.seed = seed
	}
}

// WithFractions sets the share of each class assigned to val and test.
// Build rejects values outside [0,1] or summing above 1.
func WithFractions(val, test float64) Option {
	return func(b *Builder) {
		b.valFrac = val
		b.testFrac = test
	}
}

// WithPerActionCap keeps at most n clips per action class. Zero disables
// the cap.
func WithPerActionCap(n int) Option {
	return func(b *Builder) {
		b.perActionCap = max(0, n)
	}
}

// WithLogger sets a custom logger for the builder.
func WithLogger(l logger.Logger) Option {
	return func(b *Builder) {
		if l != nil {
			b.logger = l
		}
	}
}
