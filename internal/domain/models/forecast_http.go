package models

// ForecastRequest is the HTTP payload for a forecast run.
type ForecastRequest struct {
	RestaurantID string `json:"restaurant_id" validate:"required"`
	ItemName     string `json:"item_name" validate:"required"`
	HorizonDays  int    `json:"horizon_days" default:"7" validate:"gte=1,lte=90"`
	Category     string `json:"category,omitempty"`
	// Samples overrides the Monte Carlo sample count for this request only;
	// 0 keeps the configured default.
	Samples int `json:"samples,omitempty" validate:"omitempty,gte=100,lte=100000"`
}

// ForecastResponse wraps the ordered per-day distributions for a run.
type ForecastResponse struct {
	RestaurantID string                 `json:"restaurant_id"`
	ItemName     string                 `json:"item_name"`
	Category     string                 `json:"category,omitempty"`
	HorizonDays  int                    `json:"horizon_days"`
	Forecasts    []ForecastDistribution `json:"forecasts"`
}
