package distribution

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"
)

// Aggregator collects gaps per algorithm group and turns them into CDFs. It
// carries the threshold grid for one analysis pass.
type Aggregator struct {
	thresholds []float64

	mu     sync.Mutex
	groups map[string][]float64
	order  []string
}

func NewAggregator(grid Grid) *Aggregator {
	return &Aggregator{thresholds: grid.Values(), groups: map[string][]float64{}}
}

func (a *Aggregator) Thresholds() []float64 {
	return append([]float64(nil), a.thresholds...)
}

// Declare registers a group so it is reported even if it never receives a gap.
func (a *Aggregator) Declare(group string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.declareLocked(group)
}

func (a *Aggregator) declareLocked(group string) {
	if _, ok := a.groups[group]; !ok {
		a.groups[group] = nil
		a.order = append(a.order, group)
	}
}

func (a *Aggregator) Add(group string, gaps ...float64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.declareLocked(group)
	a.groups[group] = append(a.groups[group], gaps...)
}

func (a *Aggregator) Gaps(group string) []float64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]float64(nil), a.groups[group]...)
}

// Groups returns group names in declaration order.
func (a *Aggregator) Groups() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]string(nil), a.order...)
}

// Series is the CDF of one group.
type Series struct {
	Group  string  `json:"group"`
	Count  int     `json:"count"`
	Points []Point `json:"points"`
}

// Distributions computes every group's CDF, at most workers at a time.
func (a *Aggregator) Distributions(ctx context.Context, workers int) ([]Series, error) {
	groups := a.Groups()
	out := make([]Series, len(groups))
	g, ctx := errgroup.WithContext(ctx)
	if workers > 0 {
		g.SetLimit(workers)
	}
	for i, name := range groups {
		gaps := a.Gaps(name)
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			out[i] = Series{Group: name, Count: len(gaps), Points: CDF(gaps, a.thresholds)}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
