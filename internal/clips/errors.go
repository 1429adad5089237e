package clips

import "errors"

// Sentinel kinds for extraction errors.
var (
	ErrMissingHeaders = errors.New("missing required headers")
)
