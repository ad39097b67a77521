package ordering

import "errors"

// ErrUnknownPolicy is returned by ParsePolicy for unrecognised policy names.
var ErrUnknownPolicy = errors.New("unknown category policy")
