// Package gap computes the primal gap of a run against the best known cost
// of its instance.
package gap

import (
	"math"

	"github.com/signalnine/gapbench/internal/result"
)

// Unresolved is the best-known cost of an instance no run has solved.
const Unresolved int64 = -1

// Gap returns the primal gap of cost relative to bestKnown, always within
// [0, 1]. A cost of -1 and costs whose sign differs from bestKnown count as
// a full miss.
func Gap(cost, bestKnown int64) float64 {
	if cost == result.NoCost {
		return 1
	}
	if bestKnown == 0 && cost == 0 {
		return 0
	}
	if (bestKnown < 0 && cost > 0) || (bestKnown > 0 && cost < 0) {
		return 1
	}
	b, c := float64(bestKnown), float64(cost)
	return math.Abs(b-c) / math.Max(math.Abs(b), math.Abs(c))
}

// ForOutcome is Gap for a parsed run. Unsolved runs and runs against an
// unresolved instance get 1.
func ForOutcome(o result.RunOutcome, bestKnown int64) float64 {
	if o.Status == result.Unsolved || bestKnown == Unresolved {
		return 1
	}
	return Gap(o.Cost, bestKnown)
}
