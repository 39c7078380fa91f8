package forecasting

import (
	"math"
	"sort"
)

// percentile returns the q-th percentile (0-100) of sorted xs using
// linear interpolation between closest ranks, matching the convention
// the rest of the pipeline's tooling reports. gonum's stat.Quantile
// implements a different empirical convention, so this stays local.
func percentile(sorted []float64, q float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if n == 1 {
		return sorted[0]
	}
	pos := q / 100 * float64(n-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	frac := pos - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

// median returns the middle value of xs without mutating it.
func median(xs []float64) float64 {
	tmp := make([]float64, len(xs))
	copy(tmp, xs)
	sort.Float64s(tmp)
	return percentile(tmp, 50)
}
