// Package bestknown resolves and persists the best known cost of each
// instance across every algorithm group.
package bestknown

import (
	"github.com/signalnine/gapbench/internal/gap"
	"github.com/signalnine/gapbench/internal/result"
)

// Resolve returns the minimum cost over the solved and infeasible outcomes,
// or gap.Unresolved if there are none. A reported cost of -1 is not a
// valid cost and is ignored.
func Resolve(outcomes []result.RunOutcome) int64 {
	best, found := int64(0), false
	for _, o := range outcomes {
		if !o.HasCost() || o.Cost == gap.Unresolved {
			continue
		}
		if !found || o.Cost < best {
			best, found = o.Cost, true
		}
	}
	if !found {
		return gap.Unresolved
	}
	return best
}
