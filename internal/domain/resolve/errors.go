package resolve

import "errors"

// Sentinel kinds for resolution errors.
var (
	ErrUnparsableTime = errors.New("unparsable time")
)
