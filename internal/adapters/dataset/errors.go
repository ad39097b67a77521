package dataset

import "errors"

// Sentinel kinds for dataset loading errors.
var (
	ErrFetch             = errors.New("dataset fetch failed")
	ErrMalformedCSV      = errors.New("malformed dataset csv")
	ErrMissingColumn     = errors.New("dataset is missing a required column")
	ErrUnsupportedSource = errors.New("unsupported dataset source")
)
