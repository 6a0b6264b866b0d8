package distribution

import "sort"

// Point is one step of a cumulative distribution.
type Point struct {
	Threshold float64 `json:"threshold"`
	Fraction  float64 `json:"fraction"`
}

// CDF returns, for each threshold, the fraction of gaps less than or equal to
// it. An empty gap list yields zero fractions.
func CDF(gaps, thresholds []float64) []Point {
	points := make([]Point, len(thresholds))
	sorted := append([]float64(nil), gaps...)
	sort.Float64s(sorted)
	for i, t := range thresholds {
		points[i].Threshold = t
		if len(sorted) == 0 {
			continue
		}
		n := sort.Search(len(sorted), func(j int) bool { return sorted[j] > t })
		points[i].Fraction = float64(n) / float64(len(sorted))
	}
	return points
}

// Fractions extracts the fraction column of points.
func Fractions(points []Point) []float64 {
	out := make([]float64, len(points))
	for i, p := range points {
		out[i] = p.Fraction
	}
	return out
}
