package forecasting

import (
	"math"
	"testing"

	"fluxcast/internal/domain/models"
)

func referenceSeries(days int, qty func(dow int) float64) []models.DailyTotal {
	out := make([]models.DailyTotal, days)
	for i := range out {
		d := monday.AddDate(0, 0, i)
		out[i] = models.DailyTotal{Date: d, Quantity: qty(i % 7)}
	}
	return out
}

func TestEstimateSeasonalityEmptySeries(t *testing.T) {
	got := EstimateSeasonality(nil, DefaultSeasonalityConfig())
	if got != models.FlatProfile() {
		t.Fatalf("expected flat profile, got %v", got)
	}
}

func TestEstimateSeasonalityAllZero(t *testing.T) {
	ref := referenceSeries(28, func(int) float64 { return 0 })
	got := EstimateSeasonality(ref, DefaultSeasonalityConfig())
	if got != models.FlatProfile() {
		t.Fatalf("expected flat profile for all-zero series, got %v", got)
	}
}

func TestEstimateSeasonalityWeekendLift(t *testing.T) {
	// 8 full weeks plus a Monday and Tuesday: every day clears the
	// shrinkage thresholds, and the uneven counts keep the multiplier
	// mean away from exactly 1.0
	ref := referenceSeries(58, func(dow int) float64 {
		if dow >= 5 {
			return 20
		}
		return 10
	})
	profile := EstimateSeasonality(ref, DefaultSeasonalityConfig())

	// 42 weekday observations at 10, 16 weekend observations at 20
	overall := (42*10.0 + 16*20.0) / 58.0
	for dow := 0; dow < 5; dow++ {
		want := 10 / overall
		if math.Abs(profile[dow]-want) > 1e-9 {
			t.Fatalf("weekday %d multiplier = %v, want %v", dow, profile[dow], want)
		}
	}
	for dow := 5; dow < 7; dow++ {
		want := 20 / overall
		if math.Abs(profile[dow]-want) > 1e-9 {
			t.Fatalf("weekend %d multiplier = %v, want %v", dow, profile[dow], want)
		}
	}

	// no renormalization: the profile mean reflects the true weekend lift
	sum := 0.0
	for _, m := range profile {
		sum += m
	}
	if math.Abs(sum/7-1.0) < 1e-12 {
		t.Fatalf("profile appears renormalized to mean 1.0")
	}
}

func TestEstimateSeasonalityStrongShrinkage(t *testing.T) {
	// 3 weeks: every DOW has 3 observations, below the strong threshold
	ref := referenceSeries(21, func(dow int) float64 {
		if dow >= 5 {
			return 20
		}
		return 10
	})
	profile := EstimateSeasonality(ref, DefaultSeasonalityConfig())

	overall := (5*10.0 + 2*20.0) / 7.0
	raw := 20 / overall
	want := 0.7*raw + 0.3
	if math.Abs(profile[5]-want) > 1e-9 {
		t.Fatalf("shrunk saturday multiplier = %v, want %v", profile[5], want)
	}
}

func TestEstimateSeasonalitySingleDOWRepresented(t *testing.T) {
	// only Mondays observed: every multiplier stays 1.0
	ref := []models.DailyTotal{
		{Date: monday, Quantity: 10},
		{Date: monday.AddDate(0, 0, 7), Quantity: 10},
	}
	profile := EstimateSeasonality(ref, DefaultSeasonalityConfig())
	if profile != models.FlatProfile() {
		t.Fatalf("expected flat profile, got %v", profile)
	}
}

func TestEstimateSeasonalityBounds(t *testing.T) {
	// one wild Monday spike against near-zero days
	ref := referenceSeries(7, func(dow int) float64 {
		if dow == 0 {
			return 1000
		}
		return 1
	})
	profile := EstimateSeasonality(ref, DefaultSeasonalityConfig())
	for dow, m := range profile {
		if m < 0.3 || m > 3.0 {
			t.Fatalf("multiplier for dow %d = %v, outside [0.3, 3.0]", dow, m)
		}
	}
	if profile[0] != 3.0 {
		t.Fatalf("spike multiplier = %v, want capped at 3.0", profile[0])
	}
}
