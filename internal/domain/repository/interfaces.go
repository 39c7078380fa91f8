package repository

import (
	"context"

	"fluxcast/internal/domain/models"
)

// HistoryReader resolves per-item daily sales history. Rows arrive with
// stockout and promotion flags already applied by upstream ingestion.
type HistoryReader interface {
	ItemExists(ctx context.Context, restaurantID, itemName string) (bool, error)
	ItemHistory(ctx context.Context, restaurantID, itemName string, lookbackDays int) ([]models.DailyObservation, error)
}

// ReferenceReader resolves pooled sales for a category, or for the whole
// restaurant when group is empty.
type ReferenceReader interface {
	ReferenceSeries(ctx context.Context, restaurantID, group string, lookbackDays int) (models.ReferenceSeries, error)
}

// ForecastStore persists produced forecast distributions.
type ForecastStore interface {
	StoreForecasts(ctx context.Context, restaurantID, itemName string, forecasts []models.ForecastDistribution) error
}

// ForecastPublisher emits finished forecasts to downstream planning
// consumers (inventory, staffing, procurement).
type ForecastPublisher interface {
	PublishForecasts(ctx context.Context, restaurantID, itemName string, forecasts []models.ForecastDistribution) error
	Close() error
}

// Metrics records forecast run telemetry.
type Metrics interface {
	RecordForecast(status string)
	RecordForecastLatency(seconds float64)
	RecordColdStart()
	RecordReferenceCache(hit bool)
}
