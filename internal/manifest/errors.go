package manifest

import "errors"

// Sentinel kinds for normalization errors.
var (
	ErrMissingHeaders = errors.New("missing required headers")
)
