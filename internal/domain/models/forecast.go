package models

import "time"

// SeasonalProfile maps day-of-week (Monday=0) to a demand multiplier.
// A fixed array keeps the lookup total: a day never carries a missing
// multiplier, it carries 1.0.
type SeasonalProfile [7]float64

// FlatProfile returns the neutral profile (all multipliers 1.0).
func FlatProfile() SeasonalProfile {
	return SeasonalProfile{1, 1, 1, 1, 1, 1, 1}
}

// Multiplier returns the multiplier for dow. Out-of-range values map to
// 1.0 rather than panicking; callers pass computed weekday indices.
func (p SeasonalProfile) Multiplier(dow int) float64 {
	if dow < 0 || dow > 6 {
		return 1.0
	}
	return p[dow]
}

// GammaPrior is a shape/rate belief about the mean daily sales rate of a
// pooling group before the target item's own history is seen.
type GammaPrior struct {
	Alpha float64
	Beta  float64
}

// Mean returns the expected rate under the prior.
func (g GammaPrior) Mean() float64 {
	return g.Alpha / g.Beta
}

// ForecastDistribution is the calibrated predictive distribution for one
// item on one future date. Immutable once produced.
type ForecastDistribution struct {
	Date        time.Time `json:"date"`
	Mean        float64   `json:"mean"`
	P10         float64   `json:"p10"`
	P50         float64   `json:"p50"`
	P90         float64   `json:"p90"`
	P99         float64   `json:"p99"`
	Confidence  float64   `json:"confidence"`
	Explanation string    `json:"explanation"`
}
