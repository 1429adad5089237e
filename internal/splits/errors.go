package splits

import "errors"

// Sentinel kinds for split building errors.
var (
	ErrInvalidFractions = errors.New("invalid split fractions")
)
