package forecasting

import (
	"math"
	"time"

	"gonum.org/v1/gonum/stat"

	"fluxcast/internal/domain/models"
	"fluxcast/pkg/util"
)

const (
	// Stockout imputation looks back this many same-day-of-week slots.
	imputeLookbackWeeks = 8
	// Fewer reference days than this falls back to the flat boost.
	imputeMinReferences = 2
	// Conservative correction applied when no same-DOW reference exists.
	imputeFallbackBoost = 1.3
	// Rows before this index lack lag_7/roll_7_mean and are dropped.
	minFeatureRows = 7
	// Hours assumed for synthesized zero-sales days.
	defaultHoursOpen = 12.0
)

// BuildFeatures converts raw daily observations into the ordered,
// gap-free, stockout-corrected training view. The input is never
// mutated; calling twice on the same history yields identical output.
//
// Stockout days under-report true demand, so their quantity is lifted to
// the median of up to eight prior same-day-of-week non-stockout days
// (taking the max with the observed value, since a late-day stockout can
// still have sold plenty). With fewer than two reference days the raw
// quantity gets a flat 1.3x boost instead.
//
// An empty history returns nil: the forecaster treats that as a cold
// start rather than an error.
func BuildFeatures(history []models.DailyObservation) []models.AdjustedObservation {
	if len(history) == 0 {
		return nil
	}
	days := reindex(history)
	adjusted := unconstrain(days)
	return featurize(days, adjusted)
}

// reindex buckets observations by UTC day and fills calendar gaps with
// zero-sales days so lags and rolling windows line up with real time.
func reindex(history []models.DailyObservation) []models.DailyObservation {
	byDate := make(map[time.Time]models.DailyObservation, len(history))
	var first, last time.Time
	for _, obs := range history {
		d := util.Day(obs.Date)
		obs.Date = d
		if prev, ok := byDate[d]; ok {
			// The reader guarantees one row per (item, date); if an upstream
			// split slips through, fold it the way the SQL aggregate would.
			obs.RawQuantity += prev.RawQuantity
			obs.Stockout = obs.Stockout || prev.Stockout
			obs.IsPromotion = obs.IsPromotion || prev.IsPromotion
			obs.HoursOpen = math.Max(obs.HoursOpen, prev.HoursOpen)
		}
		byDate[d] = obs
		if first.IsZero() || d.Before(first) {
			first = d
		}
		if last.IsZero() || d.After(last) {
			last = d
		}
	}

	span := int(last.Sub(first).Hours()/24) + 1
	out := make([]models.DailyObservation, 0, span)
	for d := first; !d.After(last); d = d.AddDate(0, 0, 1) {
		if obs, ok := byDate[d]; ok {
			out = append(out, obs)
			continue
		}
		out = append(out, models.DailyObservation{
			Date:      d,
			HoursOpen: defaultHoursOpen,
		})
	}
	return out
}

// unconstrain returns bias-corrected quantities for every day, leaving
// non-stockout days untouched. Reference values are raw quantities of
// prior same-DOW non-stockout days; stepping in 7-day strides keeps the
// day-of-week fixed without re-filtering the series.
func unconstrain(days []models.DailyObservation) []float64 {
	adjusted := make([]float64, len(days))
	for i, d := range days {
		adjusted[i] = d.RawQuantity
	}
	for i, d := range days {
		if !d.Stockout {
			continue
		}
		refs := make([]float64, 0, imputeLookbackWeeks)
		for week := 1; week <= imputeLookbackWeeks; week++ {
			j := i - 7*week
			if j < 0 {
				break
			}
			if days[j].Stockout {
				continue
			}
			refs = append(refs, days[j].RawQuantity)
		}
		if len(refs) >= imputeMinReferences {
			if m := median(refs); m > adjusted[i] {
				adjusted[i] = m
			}
		} else {
			adjusted[i] = d.RawQuantity * imputeFallbackBoost
		}
	}
	return adjusted
}

// featurize builds the output rows with lag and rolling features over
// the adjusted series, dropping leading rows that cannot support
// lag_1/lag_7/roll_7_mean.
func featurize(days []models.DailyObservation, adjusted []float64) []models.AdjustedObservation {
	if len(days) <= minFeatureRows {
		return nil
	}
	out := make([]models.AdjustedObservation, 0, len(days)-minFeatureRows)
	for i := minFeatureRows; i < len(days); i++ {
		d := days[i]
		dow := util.DayOfWeek(d.Date)
		row := models.AdjustedObservation{
			Date:             d.Date,
			RawQuantity:      d.RawQuantity,
			AdjustedQuantity: adjusted[i],
			Stockout:         d.Stockout,
			IsPromotion:      d.IsPromotion,
			HoursOpen:        d.HoursOpen,
			Lag1:             adjusted[i-1],
			Lag7:             adjusted[i-7],
			Lag28:            math.NaN(),
			Roll7Mean:        stat.Mean(adjusted[i-7:i], nil),
			Roll28Mean:       math.NaN(),
			DayOfWeek:        dow,
			IsWeekend:        util.IsWeekend(dow),
		}
		if i >= 28 {
			row.Lag28 = adjusted[i-28]
			row.Roll28Mean = stat.Mean(adjusted[i-28:i], nil)
		}
		out = append(out, row)
	}
	return out
}
