package forecasting

import (
	"math"
	"testing"
	"time"

	"fluxcast/internal/domain/models"
)

// monday is the anchor for all feature tests (2024-10-07 was a Monday).
var monday = time.Date(2024, 10, 7, 0, 0, 0, 0, time.UTC)

func flatHistory(days int, qty float64) []models.DailyObservation {
	out := make([]models.DailyObservation, days)
	for i := range out {
		out[i] = models.DailyObservation{
			Date:        monday.AddDate(0, 0, i),
			RawQuantity: qty,
			HoursOpen:   12,
		}
	}
	return out
}

func TestBuildFeaturesEmptyHistory(t *testing.T) {
	if got := BuildFeatures(nil); got != nil {
		t.Fatalf("expected nil for empty history, got %d rows", len(got))
	}
}

func TestBuildFeaturesDropsRowsMissingMinimalLags(t *testing.T) {
	rows := BuildFeatures(flatHistory(10, 5))
	if len(rows) != 3 {
		t.Fatalf("expected 3 rows after dropping lag warmup, got %d", len(rows))
	}
	if !rows[0].Date.Equal(monday.AddDate(0, 0, 7)) {
		t.Fatalf("first row date = %v, want %v", rows[0].Date, monday.AddDate(0, 0, 7))
	}
}

func TestBuildFeaturesFillsCalendarGaps(t *testing.T) {
	history := flatHistory(20, 5)
	// remove three days in the middle
	gapped := append(append([]models.DailyObservation{}, history[:9]...), history[12:]...)

	rows := BuildFeatures(gapped)
	if len(rows) != 13 {
		t.Fatalf("expected 13 rows over the full range, got %d", len(rows))
	}
	for _, r := range rows {
		if r.Date.AddDate(0, 0, -9).Equal(monday) || r.Date.AddDate(0, 0, -10).Equal(monday) || r.Date.AddDate(0, 0, -11).Equal(monday) {
			if r.RawQuantity != 0 {
				t.Fatalf("synthesized day %v has quantity %v, want 0", r.Date, r.RawQuantity)
			}
			if r.HoursOpen != 12 {
				t.Fatalf("synthesized day %v hours = %v, want 12", r.Date, r.HoursOpen)
			}
		}
	}
}

func TestBuildFeaturesLagAndRollValues(t *testing.T) {
	history := make([]models.DailyObservation, 40)
	for i := range history {
		history[i] = models.DailyObservation{
			Date:        monday.AddDate(0, 0, i),
			RawQuantity: float64(i),
			HoursOpen:   12,
		}
	}

	rows := BuildFeatures(history)
	// rows[k] corresponds to day index k+7
	r := rows[3] // day index 10
	if r.Lag1 != 9 || r.Lag7 != 3 {
		t.Fatalf("lags = (%v, %v), want (9, 3)", r.Lag1, r.Lag7)
	}
	// mean of indices 3..9
	if math.Abs(r.Roll7Mean-6) > 1e-9 {
		t.Fatalf("roll_7_mean = %v, want 6", r.Roll7Mean)
	}
	if !math.IsNaN(r.Lag28) || !math.IsNaN(r.Roll28Mean) {
		t.Fatalf("expected NaN 28-day features before enough history")
	}

	deep := rows[len(rows)-1] // day index 39
	if deep.Lag28 != 11 {
		t.Fatalf("lag_28 = %v, want 11", deep.Lag28)
	}
	// mean of indices 11..38
	if math.Abs(deep.Roll28Mean-24.5) > 1e-9 {
		t.Fatalf("roll_28_mean = %v, want 24.5", deep.Roll28Mean)
	}
	if deep.DayOfWeek != 4 || deep.IsWeekend {
		t.Fatalf("day index 39 should be a Friday, got dow=%d weekend=%v", deep.DayOfWeek, deep.IsWeekend)
	}
}

func TestUnconstrainStockoutUsesSameDOWMedian(t *testing.T) {
	history := flatHistory(36, 10)
	// final Monday (index 35) sold out early with only 2 recorded
	history[35].RawQuantity = 2
	history[35].Stockout = true

	rows := BuildFeatures(history)
	last := rows[len(rows)-1]
	if !last.Stockout {
		t.Fatalf("expected stockout flag preserved")
	}
	if last.RawQuantity != 2 {
		t.Fatalf("raw quantity = %v, want 2", last.RawQuantity)
	}
	if last.AdjustedQuantity < 10 {
		t.Fatalf("adjusted = %v, want >= 10 (median of prior Mondays)", last.AdjustedQuantity)
	}
}

func TestUnconstrainKeepsObservedWhenAboveMedian(t *testing.T) {
	history := flatHistory(36, 10)
	// stockout day that still outsold its typical Monday
	history[35].RawQuantity = 25
	history[35].Stockout = true

	rows := BuildFeatures(history)
	last := rows[len(rows)-1]
	if last.AdjustedQuantity != 25 {
		t.Fatalf("adjusted = %v, want observed 25 kept", last.AdjustedQuantity)
	}
}

func TestUnconstrainFallbackBoost(t *testing.T) {
	// only one prior same-DOW day exists: fallback 1.3x applies
	history := flatHistory(9, 10)
	history[8].RawQuantity = 4
	history[8].Stockout = true

	rows := BuildFeatures(history)
	last := rows[len(rows)-1]
	if math.Abs(last.AdjustedQuantity-4*1.3) > 1e-9 {
		t.Fatalf("adjusted = %v, want %v", last.AdjustedQuantity, 4*1.3)
	}
}

func TestUnconstrainMonotonic(t *testing.T) {
	history := flatHistory(60, 8)
	for i := 10; i < 60; i += 9 {
		history[i].Stockout = true
		history[i].RawQuantity = 1
	}

	for _, r := range BuildFeatures(history) {
		if r.AdjustedQuantity < r.RawQuantity {
			t.Fatalf("day %v: adjusted %v < raw %v", r.Date, r.AdjustedQuantity, r.RawQuantity)
		}
	}
}

func TestBuildFeaturesIdempotent(t *testing.T) {
	history := flatHistory(40, 7)
	history[20].Stockout = true
	history[20].RawQuantity = 3

	a := BuildFeatures(history)
	b := BuildFeatures(history)
	if len(a) != len(b) {
		t.Fatalf("lengths differ: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if !sameRow(a[i], b[i]) {
			t.Fatalf("row %d differs between runs:\n%+v\n%+v", i, a[i], b[i])
		}
	}
}

// sameRow compares rows treating NaN features as equal to NaN.
func sameRow(a, b models.AdjustedObservation) bool {
	eq := func(x, y float64) bool {
		if math.IsNaN(x) && math.IsNaN(y) {
			return true
		}
		return x == y
	}
	return a.Date.Equal(b.Date) &&
		eq(a.RawQuantity, b.RawQuantity) &&
		eq(a.AdjustedQuantity, b.AdjustedQuantity) &&
		a.Stockout == b.Stockout &&
		a.IsPromotion == b.IsPromotion &&
		eq(a.HoursOpen, b.HoursOpen) &&
		eq(a.Lag1, b.Lag1) && eq(a.Lag7, b.Lag7) && eq(a.Lag28, b.Lag28) &&
		eq(a.Roll7Mean, b.Roll7Mean) && eq(a.Roll28Mean, b.Roll28Mean) &&
		a.DayOfWeek == b.DayOfWeek && a.IsWeekend == b.IsWeekend
}
