package worker

import (
	"github.com/okian/tagclips/pkg/logger"
)

// Option applies a configuration option to the Pool.
type Option func(*Pool)

// WithLogger sets a custom logger for the pool and its workers.
func WithLogger(l logger.Logger) Option {
	return func(p *Pool) {
		if l != nil {
			p.logger = l
		}
	}
}
