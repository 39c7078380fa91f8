package forecasting

import (
	"fluxcast/internal/domain/models"
	"fluxcast/pkg/util"
)

// SeasonalityConfig bounds and shrinkage thresholds for day-of-week
// multiplier estimation.
type SeasonalityConfig struct {
	MinMultiplier     float64
	MaxMultiplier     float64
	StrongShrinkBelow int // observations per DOW under which 0.7/0.3 shrinkage applies
	MildShrinkBelow   int // observations per DOW under which 0.85/0.15 shrinkage applies
}

// DefaultSeasonalityConfig returns the production bounds.
func DefaultSeasonalityConfig() SeasonalityConfig {
	return SeasonalityConfig{
		MinMultiplier:     0.3,
		MaxMultiplier:     3.0,
		StrongShrinkBelow: 4,
		MildShrinkBelow:   8,
	}
}

// EstimateSeasonality computes day-of-week multipliers from a
// group-aggregated reference series. Sparse days shrink toward 1.0 and
// every multiplier is capped to the configured bounds. A day-of-week
// absent from the series keeps multiplier 1.0: no data means no seasonal
// adjustment for that day.
//
// The profile is deliberately not renormalized to mean 1.0. A restaurant
// that is genuinely twice as busy on Saturday must keep that level
// difference; renormalizing would shift it into the base rate and bias
// weekday forecasts high.
//
// An empty or all-zero series yields the flat profile.
func EstimateSeasonality(ref []models.DailyTotal, cfg SeasonalityConfig) models.SeasonalProfile {
	profile := models.FlatProfile()
	if len(ref) == 0 {
		return profile
	}

	var sums [7]float64
	var counts [7]int
	total := 0.0
	for _, day := range ref {
		dow := util.DayOfWeek(day.Date)
		sums[dow] += day.Quantity
		counts[dow]++
		total += day.Quantity
	}
	overall := total / float64(len(ref))
	if overall == 0 {
		return profile
	}

	for dow := 0; dow < 7; dow++ {
		if counts[dow] == 0 {
			continue
		}
		m := sums[dow] / float64(counts[dow]) / overall
		switch {
		case counts[dow] < cfg.StrongShrinkBelow:
			m = 0.7*m + 0.3
		case counts[dow] < cfg.MildShrinkBelow:
			m = 0.85*m + 0.15
		}
		profile[dow] = clamp(m, cfg.MinMultiplier, cfg.MaxMultiplier)
	}
	return profile
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
