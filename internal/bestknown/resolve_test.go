package bestknown_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/signalnine/gapbench/internal/bestknown"
	"github.com/signalnine/gapbench/internal/gap"
	"github.com/signalnine/gapbench/internal/result"
)

func TestResolve(t *testing.T) {
	tests := []struct {
		name     string
		outcomes []result.RunOutcome
		want     int64
	}{
		{"empty", nil, gap.Unresolved},
		{"all unsolved", []result.RunOutcome{result.UnsolvedOutcome(), result.UnsolvedOutcome()}, gap.Unresolved},
		{"infeasible wins", []result.RunOutcome{result.SolvedOutcome(10), result.InfeasibleOutcome(), result.UnsolvedOutcome()}, 0},
		{"minimum", []result.RunOutcome{result.SolvedOutcome(12), result.SolvedOutcome(10), result.UnsolvedOutcome()}, 10},
		{"negative", []result.RunOutcome{result.SolvedOutcome(3), result.SolvedOutcome(-4)}, -4},
		{"only negative one cost", []result.RunOutcome{result.SolvedOutcome(-1)}, gap.Unresolved},
		{"negative one cost ignored", []result.RunOutcome{result.SolvedOutcome(-1), result.SolvedOutcome(5)}, 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, bestknown.Resolve(tt.outcomes))
		})
	}
}

func TestResolveBoundsSolvedCosts(t *testing.T) {
	outcomes := []result.RunOutcome{
		result.SolvedOutcome(40), result.SolvedOutcome(17), result.UnsolvedOutcome(), result.SolvedOutcome(23),
	}
	best := bestknown.Resolve(outcomes)
	for _, o := range outcomes {
		if o.Status == result.Solved {
			assert.LessOrEqual(t, best, o.Cost)
		}
	}
	assert.Equal(t, best, bestknown.Resolve(outcomes), "resolve must be idempotent")
}
