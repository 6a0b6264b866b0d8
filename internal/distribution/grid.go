// Package distribution bins primal gaps into cumulative distributions over a
// threshold grid.
package distribution

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

// Grid describes the thresholds a CDF is evaluated at. Explicit Thresholds
// take precedence over Lower/Upper/Step.
type Grid struct {
	Lower      float64   `yaml:"lower" json:"lower"`
	Upper      float64   `yaml:"upper" json:"upper"`
	Step       float64   `yaml:"step" json:"step"`
	Thresholds []float64 `yaml:"thresholds,omitempty" json:"thresholds,omitempty"`
}

// DefaultGrid is 0.0, 0.1, ..., 1.0.
func DefaultGrid() Grid {
	return Grid{Lower: 0, Upper: 1, Step: 0.1}
}

func (g Grid) Validate() error {
	if len(g.Thresholds) > 0 {
		if !sort.Float64sAreSorted(g.Thresholds) {
			return errors.New("thresholds must be sorted ascending")
		}
		return nil
	}
	if g.Step <= 0 {
		return fmt.Errorf("step must be positive, got %g", g.Step)
	}
	if g.Upper < g.Lower {
		return fmt.Errorf("upper bound %g below lower bound %g", g.Upper, g.Lower)
	}
	return nil
}

// Values returns the thresholds of the grid, inclusive of both bounds when
// the step divides the range.
func (g Grid) Values() []float64 {
	if len(g.Thresholds) > 0 {
		return append([]float64(nil), g.Thresholds...)
	}
	if g.Step <= 0 || g.Upper < g.Lower {
		return nil
	}
	n := int(math.Floor((g.Upper-g.Lower)/g.Step+1e-9)) + 1
	out := make([]float64, n)
	for i := range out {
		out[i] = round9(g.Lower + float64(i)*g.Step)
	}
	return out
}

func round9(v float64) float64 {
	return math.Round(v*1e9) / 1e9
}
