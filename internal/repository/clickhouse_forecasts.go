package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"fluxcast/internal/domain/models"
	domrepo "fluxcast/internal/domain/repository"
	pkgch "fluxcast/pkg/clickhouse"
	applogger "fluxcast/pkg/logger"
)

const forecastModelName = "negbin-v1"

// CHForecastStore persists forecast distributions to ClickHouse. Writes
// use a single multi-row VALUES insert per run; a horizon is at most 90
// rows so chunking is unnecessary.
type CHForecastStore struct {
	db *sql.DB
	l  *applogger.Logger
}

func NewCHForecastStore(ch *pkgch.Client) *CHForecastStore {
	return &CHForecastStore{db: ch.DB()}
}

// SetLogger injects a structured logger.
func (s *CHForecastStore) SetLogger(l *applogger.Logger) { s.l = l }

var _ domrepo.ForecastStore = (*CHForecastStore)(nil)

func (s *CHForecastStore) StoreForecasts(ctx context.Context, restaurantID, itemName string, forecasts []models.ForecastDistribution) error {
	if len(forecasts) == 0 {
		return nil
	}
	start := time.Now()
	now := time.Now().UTC()

	values := make([]string, 0, len(forecasts))
	args := make([]interface{}, 0, len(forecasts)*12)
	for _, f := range forecasts {
		values = append(values, "(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)")
		args = append(args,
			restaurantID,
			itemName,
			f.Date,
			f.Mean,
			f.P10,
			f.P50,
			f.P90,
			f.P99,
			f.Confidence,
			f.Explanation,
			forecastModelName,
			now,
		)
	}

	q := "INSERT INTO fluxcast.demand_forecasts (restaurant_id, item_name, forecast_date, mean, p10, p50, p90, p99, confidence, explanation, model, created_at) VALUES " +
		strings.Join(values, ",")
	if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
		if s.l != nil {
			s.l.Error("clickhouse store_forecasts insert error",
				applogger.String("restaurant_id", restaurantID),
				applogger.String("item", itemName),
				applogger.Int("rows", len(forecasts)),
				applogger.Error(err),
			)
		}
		return fmt.Errorf("store forecasts: %w", err)
	}
	if s.l != nil {
		s.l.Info("clickhouse store_forecasts ok",
			applogger.String("restaurant_id", restaurantID),
			applogger.String("item", itemName),
			applogger.Int("rows", len(forecasts)),
			applogger.Duration("duration_ms", time.Since(start)),
		)
	}
	return nil
}
