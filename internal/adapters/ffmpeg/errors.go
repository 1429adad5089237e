package ffmpeg

import "errors"

// Sentinel kinds for cut errors.
var (
	ErrCutFailed = errors.New("ffmpeg exited with failure")
	ErrTimeout   = errors.New("ffmpeg timed out")
)
