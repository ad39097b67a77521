package viewcheck

import (
	"fmt"
	"math/rand"

	"github.com/google/uuid"

	service "github.com/okian/bizmap/internal/app"
	"github.com/okian/bizmap/internal/domain/filter"
)

// GenerateCases builds n selections from the options in controls. The
// first case is always the empty selection. Equal seeds give equal cases,
// IDs included, so a failing case can be replayed.
func GenerateCases(controls []service.FilterControl, n int, seed int64) []Case {
	rng := rand.New(rand.NewSource(seed)) //nolint:gosec // reproducible, not secret
	cases := make([]Case, 0, n)
	for i := 0; i < n; i++ {
		sel := filter.Selection{}
		if i > 0 {
			sel = randomSelection(rng, controls)
		}
		cases = append(cases, Case{
			ID:        caseID(seed, i),
			Index:     i,
			Selection: sel,
		})
	}
	return cases
}

func caseID(seed int64, i int) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(fmt.Sprintf("bizmap/view-check/%d/%d", seed, i))).String()
}

func randomSelection(rng *rand.Rand, controls []service.FilterControl) filter.Selection {
	sel := filter.Selection{}
	for _, c := range controls {
		if len(c.Options) == 0 || rng.Intn(PercentageMultiplier) >= selectColumnPercent {
			continue
		}
		k := 1 + rng.Intn(maxValuesPerColumn)
		if k > len(c.Options) {
			k = len(c.Options)
		}
		perm := rng.Perm(len(c.Options))[:k]
		values := make([]string, 0, k)
		for _, idx := range perm {
			values = append(values, c.Options[idx])
		}
		sel[c.Column] = values
	}
	return sel
}
