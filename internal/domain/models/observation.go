package models

import "time"

// DailyObservation is one calendar day of sales for a single menu item,
// as delivered by the history reader. Stockout and promotion flags are
// set by upstream ingestion; the engine never infers them itself.
type DailyObservation struct {
	Date        time.Time
	RawQuantity float64
	Stockout    bool
	IsPromotion bool
	HoursOpen   float64 // hours between first and last sale, clamped to [1,24], 12 when unknown
}

// AdjustedObservation is the per-run training view derived from
// DailyObservation: a stockout-corrected quantity plus lag and rolling
// features. It is recomputed from scratch on every forecast run and
// never persisted. Lag28 and Roll28Mean are NaN while the window is
// too short to support them.
type AdjustedObservation struct {
	Date             time.Time
	RawQuantity      float64
	AdjustedQuantity float64
	Stockout         bool
	IsPromotion      bool
	HoursOpen        float64
	Lag1             float64
	Lag7             float64
	Lag28            float64
	Roll7Mean        float64
	Roll28Mean       float64
	DayOfWeek        int // Monday=0 .. Sunday=6
	IsWeekend        bool
}

// DailyTotal is one day of a group-aggregated reference series.
type DailyTotal struct {
	Date     time.Time `json:"date"`
	Quantity float64   `json:"quantity"`
}

// ReferenceSeries carries pooled sales for a category, or for the whole
// restaurant when no category applies: daily totals feed the seasonality
// estimator, raw per-item quantities feed prior learning.
type ReferenceSeries struct {
	Totals  []DailyTotal         `json:"totals"`
	PerItem map[string][]float64 `json:"per_item"`
}
