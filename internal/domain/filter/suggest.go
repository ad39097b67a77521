package filter

import (
	"strings"

	"github.com/agnivade/levenshtein"
)

// Suggest returns the option closest to value by edit distance, compared
// case-insensitively. Nothing is suggested when the best match is further
// than max(2, len(value)/4) edits away or when value is itself an option.
func Suggest(value string, options []string) (string, bool) {
	if value == "" || len(options) == 0 {
		return "", false
	}

	limit := len(value) / 4
	if limit < 2 {
		limit = 2
	}

	target := strings.ToLower(value)
	best, bestDist := "", limit+1
	for _, opt := range options {
		if opt == value {
			return "", false
		}
		d := levenshtein.ComputeDistance(target, strings.ToLower(opt))
		if d < bestDist {
			best, bestDist = opt, d
		}
	}
	if bestDist > limit {
		return "", false
	}
	return best, true
}
