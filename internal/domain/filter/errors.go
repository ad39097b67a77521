package filter

import "errors"

// ErrUnknownColumn is returned when a selection names a column that has no filter control.
var ErrUnknownColumn = errors.New("unknown filter column")
