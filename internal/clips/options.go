package clips

import (
	"github.com/okian/tagclips/pkg/logger"
)

// Option applies a configuration option to the Extractor.
type Option func(*Extractor)

// WithWindow sets the seconds kept before and after each event.
func WithWindow(pre, post float64) Option {
	return func(x *Extractor) {
		x.pre = max(0, pre)
		x.post = max(0, post)
	}
}

// WithLimits caps the clips produced in total and per action class. Zero
// disables a cap.
func WithLimits(total, perAction int) Option {
	return func(x *Extractor) {
		x.limit = max(0, total)
		x.perActionLimit = max(0, perAction)
	}
}

// WithOverwrite re-cuts clips whose file already exists.
func WithOverwrite(enabled bool) Option {
	return func(x *Extractor) {
		x.overwrite = enabled
	}
}

// WithWorkers sets the number of concurrent cuts and the job queue size.
func WithWorkers(workers, queueSize int) Option {
	return func(x *Extractor) {
		if workers > 0 {
			x.workers = workers
		}
		if queueSize > 0 {
			x.queueSize = queueSize
		}
	}
}

// WithTopMissing sets how many missing-source videos the summary lists.
func WithTopMissing(n int) Option {
	return func(x *Extractor) {
		if n > 0 {
			x.topMissing = n
		}
	}
}

// WithLogger sets a custom logger for the extractor.
func WithLogger(l logger.Logger) Option {
	return func(x *Extractor) {
		if l != nil {
			x.logger = l
		}
	}
}
