package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"fluxcast/internal/domain/models"
	domrepo "fluxcast/internal/domain/repository"
	"fluxcast/internal/services/forecasting"
	pkgcache "fluxcast/pkg/cache"
	"fluxcast/pkg/config"
	applogger "fluxcast/pkg/logger"
	"fluxcast/pkg/util"
)

// ForecastUseCase runs the full forecast pipeline for one item: history
// load, feature building, seasonality estimation, prior learning,
// posterior prediction, persistence and publication.
type ForecastUseCase struct {
	history    domrepo.HistoryReader
	refs       domrepo.ReferenceReader
	store      domrepo.ForecastStore
	publisher  domrepo.ForecastPublisher
	metrics    domrepo.Metrics
	cache      pkgcache.Service
	cacheTTL   time.Duration
	forecaster *forecasting.Forecaster
	cfg        config.ForecastConfig
	l          *applogger.Logger
	now        func() time.Time
}

// NewForecastUseCase wires the pipeline. Publisher and cache may be nil:
// publication and reference caching are then skipped.
func NewForecastUseCase(
	history domrepo.HistoryReader,
	refs domrepo.ReferenceReader,
	store domrepo.ForecastStore,
	publisher domrepo.ForecastPublisher,
	metrics domrepo.Metrics,
	cacheSvc pkgcache.Service,
	cacheTTL time.Duration,
	forecaster *forecasting.Forecaster,
	cfg config.ForecastConfig,
	l *applogger.Logger,
) *ForecastUseCase {
	return &ForecastUseCase{
		history:    history,
		refs:       refs,
		store:      store,
		publisher:  publisher,
		metrics:    metrics,
		cache:      cacheSvc,
		cacheTTL:   cacheTTL,
		forecaster: forecaster,
		cfg:        cfg,
		l:          l,
		now:        time.Now,
	}
}

// GenerateParams identifies the item and run overrides.
type GenerateParams struct {
	RestaurantID string
	ItemName     string
	// Category selects the pooling group for seasonality and priors;
	// empty pools over the whole restaurant.
	Category    string
	HorizonDays int // 0 uses the configured default
	Samples     int // 0 uses the configured default
}

// Generate produces, persists and publishes forecasts for the next
// HorizonDays dates after the item's last observed day.
func (uc *ForecastUseCase) Generate(ctx context.Context, p GenerateParams) (*models.ForecastResponse, error) {
	start := uc.now()

	if p.RestaurantID == "" || p.ItemName == "" {
		uc.metrics.RecordForecast("invalid")
		return nil, fmt.Errorf("restaurant_id and item_name are required")
	}
	horizon := p.HorizonDays
	if horizon == 0 {
		horizon = uc.cfg.HorizonDays
	}
	if horizon < 1 || horizon > uc.cfg.MaxHorizonDays {
		uc.metrics.RecordForecast("invalid")
		return nil, fmt.Errorf("%w: %d not in [1, %d]", models.ErrInvalidHorizon, horizon, uc.cfg.MaxHorizonDays)
	}

	exists, err := uc.history.ItemExists(ctx, p.RestaurantID, p.ItemName)
	if err != nil {
		uc.metrics.RecordForecast("error")
		return nil, fmt.Errorf("item lookup: %w", err)
	}
	if !exists {
		uc.metrics.RecordForecast("not_found")
		return nil, fmt.Errorf("%w: %s/%s", models.ErrItemNotFound, p.RestaurantID, p.ItemName)
	}

	history, err := uc.history.ItemHistory(ctx, p.RestaurantID, p.ItemName, uc.cfg.HistoryDays)
	if err != nil {
		uc.metrics.RecordForecast("error")
		return nil, fmt.Errorf("load history: %w", err)
	}
	features := forecasting.BuildFeatures(history)

	ref, err := uc.referenceSeries(ctx, p.RestaurantID, p.Category)
	if err != nil {
		uc.metrics.RecordForecast("error")
		return nil, fmt.Errorf("load reference series: %w", err)
	}

	profile := forecasting.EstimateSeasonality(ref.Totals, forecasting.SeasonalityConfig{
		MinMultiplier:     uc.cfg.Seasonality.MinMultiplier,
		MaxMultiplier:     uc.cfg.Seasonality.MaxMultiplier,
		StrongShrinkBelow: uc.cfg.Seasonality.StrongShrinkBelow,
		MildShrinkBelow:   uc.cfg.Seasonality.MildShrinkBelow,
	})

	prior, priorSource := uc.learnPrior(p.ItemName, p.Category, ref)

	quantities := make([]float64, len(features))
	dows := make([]int, len(features))
	for i, f := range features {
		quantities[i] = f.AdjustedQuantity
		dows[i] = f.DayOfWeek
	}

	lastDate := util.Day(uc.now()).AddDate(0, 0, -1)
	if len(features) > 0 {
		lastDate = features[len(features)-1].Date
	}
	future := make([]time.Time, horizon)
	for i := range future {
		future[i] = lastDate.AddDate(0, 0, i+1)
	}

	dists, err := uc.forecaster.Predict(forecasting.PredictRequest{
		History:     quantities,
		HistoryDOWs: dows,
		FutureDates: future,
		Profile:     profile,
		Prior:       prior,
		PriorSource: priorSource,
		Samples:     p.Samples,
	})
	if err != nil {
		uc.metrics.RecordForecast("error")
		return nil, fmt.Errorf("predict: %w", err)
	}

	if err := uc.store.StoreForecasts(ctx, p.RestaurantID, p.ItemName, dists); err != nil {
		uc.metrics.RecordForecast("error")
		return nil, fmt.Errorf("persist forecasts: %w", err)
	}
	if uc.publisher != nil {
		if err := uc.publisher.PublishForecasts(ctx, p.RestaurantID, p.ItemName, dists); err != nil {
			// persistence already succeeded; publication is best-effort
			uc.l.Warn("forecast publish failed",
				applogger.String("restaurant_id", p.RestaurantID),
				applogger.String("item", p.ItemName),
				applogger.Error(err),
			)
		}
	}

	uc.metrics.RecordForecast("ok")
	uc.metrics.RecordForecastLatency(uc.now().Sub(start).Seconds())
	if len(dists) > 0 && dists[0].Confidence < 0.5 {
		uc.metrics.RecordColdStart()
	}
	uc.l.Info("forecast generated",
		applogger.String("restaurant_id", p.RestaurantID),
		applogger.String("item", p.ItemName),
		applogger.String("prior_source", priorSource),
		applogger.Int("history_days", len(features)),
		applogger.Int("horizon_days", horizon),
		applogger.Float64("confidence", firstConfidence(dists)),
		applogger.Duration("duration_ms", uc.now().Sub(start)),
	)

	return &models.ForecastResponse{
		RestaurantID: p.RestaurantID,
		ItemName:     p.ItemName,
		Category:     p.Category,
		HorizonDays:  horizon,
		Forecasts:    dists,
	}, nil
}

// referenceSeries loads the pooled series for the group, consulting the
// cache first. The pooled query is the expensive part of a run and the
// same series serves every item in the group.
func (uc *ForecastUseCase) referenceSeries(ctx context.Context, restaurantID, group string) (models.ReferenceSeries, error) {
	if uc.cache == nil {
		return uc.refs.ReferenceSeries(ctx, restaurantID, group, uc.cfg.ReferenceDays)
	}

	key := pkgcache.GenerateKeyWithParams("refseries", restaurantID, group, uc.cfg.ReferenceDays)
	var raw string
	if err := uc.cache.Get(ctx, key, &raw); err == nil {
		var ref models.ReferenceSeries
		if err := json.Unmarshal([]byte(raw), &ref); err == nil {
			uc.metrics.RecordReferenceCache(true)
			return ref, nil
		}
	}
	uc.metrics.RecordReferenceCache(false)

	ref, err := uc.refs.ReferenceSeries(ctx, restaurantID, group, uc.cfg.ReferenceDays)
	if err != nil {
		return models.ReferenceSeries{}, err
	}
	if b, err := json.Marshal(ref); err == nil {
		if err := uc.cache.Set(ctx, key, string(b), uc.cacheTTL); err != nil {
			uc.l.Warn("reference cache set failed", applogger.String("key", key), applogger.Error(err))
		}
	}
	return ref, nil
}

// learnPrior pools every reference item except the target into one
// group and runs the conjugate update. The target's own history enters
// the likelihood, so including it in the prior would count it twice.
func (uc *ForecastUseCase) learnPrior(itemName, category string, ref models.ReferenceSeries) (*models.GammaPrior, string) {
	source := "Restaurant"
	if category != "" {
		source = "Category"
	}

	var pooled []float64
	for item, samples := range ref.PerItem {
		if item == itemName {
			continue
		}
		pooled = append(pooled, samples...)
	}
	if len(pooled) == 0 {
		return nil, ""
	}

	priors := forecasting.LearnPriors(uc.forecaster.GlobalPrior(), map[string][]float64{source: pooled})
	prior := priors[source]
	return &prior, source
}

func firstConfidence(dists []models.ForecastDistribution) float64 {
	if len(dists) == 0 {
		return 0
	}
	return dists[0].Confidence
}
