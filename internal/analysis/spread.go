package analysis

import "sort"

// SpreadPoint compares the best and the average cost of one instance across
// the seeds of a group.
type SpreadPoint struct {
	Instance string  `json:"instance"`
	Runs     int     `json:"runs"`
	Min      int64   `json:"min"`
	Mean     float64 `json:"mean"`
}

// Spread returns one point per instance of group with at least one run that
// carries a cost, sorted by instance name.
func Spread(col *Collection, group string) []SpreadPoint {
	byInstance := map[string][]int64{}
	for _, r := range col.GroupRuns(group) {
		if r.Outcome.HasCost() {
			byInstance[r.Instance] = append(byInstance[r.Instance], r.Outcome.Cost)
		}
	}
	out := make([]SpreadPoint, 0, len(byInstance))
	for name, costs := range byInstance {
		p := SpreadPoint{Instance: name, Runs: len(costs), Min: costs[0]}
		var sum float64
		for _, c := range costs {
			if c < p.Min {
				p.Min = c
			}
			sum += float64(c)
		}
		p.Mean = sum / float64(len(costs))
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Instance < out[j].Instance })
	return out
}
