package metrics

import (
	"errors"
)

// Sentinel kinds for metrics errors.
var (
	ErrUnknownResult = errors.New("unknown dataset load result")
)
