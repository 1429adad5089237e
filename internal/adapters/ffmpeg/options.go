package ffmpeg

import (
	"time"

	"github.com/okian/tagclips/pkg/logger"
)

// Option applies a configuration option to the Executor.
type Option func(*Executor)

// WithBinary sets the ffmpeg executable, a name on PATH or a path.
func WithBinary(binary string) Option {
	return func(e *Executor) {
		if binary != "" {
			e.binary = binary
		}
	}
}

// WithEncoder sets the video codec, speed preset and quality factor.
// Empty strings and negative crf keep the current values.
func WithEncoder(codec, preset string, crf int) Option {
	return func(e *Executor) {
		if codec != "" {
			e.codec = codec
		}
		if preset != "" {
			e.preset = preset
		}
		if crf >= 0 {
			e.crf = crf
		}
	}
}

// WithTimeout bounds each invocation. Zero disables the bound.
func WithTimeout(timeout time.Duration) Option {
	return func(e *Executor) {
		if timeout >= 0 {
			e.timeout = timeout
		}
	}
}

// WithLogger sets a custom logger for the executor.
func WithLogger(l logger.Logger) Option {
	return func(e *Executor) {
		if l != nil {
			e.logger = l
		}
	}
}
