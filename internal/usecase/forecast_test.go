package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/creasty/defaults"

	"fluxcast/internal/domain/models"
	"fluxcast/internal/services/forecasting"
	"fluxcast/pkg/config"
	applogger "fluxcast/pkg/logger"
)

var monday = time.Date(2024, 10, 7, 0, 0, 0, 0, time.UTC)

type fakeSales struct {
	items   map[string]bool
	history []models.DailyObservation
	ref     models.ReferenceSeries
	refHits int
}

func (f *fakeSales) ItemExists(_ context.Context, _, itemName string) (bool, error) {
	return f.items[itemName], nil
}

func (f *fakeSales) ItemHistory(_ context.Context, _, _ string, _ int) ([]models.DailyObservation, error) {
	return f.history, nil
}

func (f *fakeSales) ReferenceSeries(_ context.Context, _, _ string, _ int) (models.ReferenceSeries, error) {
	f.refHits++
	return f.ref, nil
}

type fakeStore struct {
	stored []models.ForecastDistribution
	err    error
}

func (f *fakeStore) StoreForecasts(_ context.Context, _, _ string, dists []models.ForecastDistribution) error {
	if f.err != nil {
		return f.err
	}
	f.stored = append(f.stored, dists...)
	return nil
}

type fakePublisher struct {
	published int
	err       error
}

func (f *fakePublisher) PublishForecasts(_ context.Context, _, _ string, dists []models.ForecastDistribution) error {
	if f.err != nil {
		return f.err
	}
	f.published += len(dists)
	return nil
}

func (f *fakePublisher) Close() error { return nil }

type fakeMetrics struct {
	statuses   []string
	coldStarts int
	cacheHits  int
	cacheMiss  int
}

func (f *fakeMetrics) RecordForecast(status string)      { f.statuses = append(f.statuses, status) }
func (f *fakeMetrics) RecordForecastLatency(float64)     {}
func (f *fakeMetrics) RecordColdStart()                  { f.coldStarts++ }
func (f *fakeMetrics) RecordReferenceCache(hit bool) {
	if hit {
		f.cacheHits++
	} else {
		f.cacheMiss++
	}
}

type fakeCache struct {
	data map[string]string
}

func (f *fakeCache) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	if f.data == nil {
		f.data = map[string]string{}
	}
	f.data[key] = value.(string)
	return nil
}

func (f *fakeCache) Get(_ context.Context, key string, dest interface{}) error {
	v, ok := f.data[key]
	if !ok {
		return errors.New("miss")
	}
	*dest.(*string) = v
	return nil
}

func (f *fakeCache) Delete(_ context.Context, _ ...string) error { return nil }

func (f *fakeCache) Exists(_ context.Context, _ ...string) (bool, error) { return false, nil }

func testLogger(t *testing.T) *applogger.Logger {
	t.Helper()
	l, err := applogger.New(&applogger.Config{Level: "error", Format: "json", Output: "stderr"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return l
}

func testForecastConfig(t *testing.T) config.ForecastConfig {
	t.Helper()
	var cfg config.ForecastConfig
	if err := defaults.Set(&cfg); err != nil {
		t.Fatalf("defaults: %v", err)
	}
	return cfg
}

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

func flatReference(days int, total float64) models.ReferenceSeries {
	totals := make([]models.DailyTotal, days)
	for i := range totals {
		totals[i] = models.DailyTotal{Date: monday.AddDate(0, 0, i), Quantity: total}
	}
	return models.ReferenceSeries{Totals: totals}
}

func newTestUseCase(t *testing.T, sales *fakeSales, store *fakeStore, pub *fakePublisher, metrics *fakeMetrics, cacheSvc *fakeCache) *ForecastUseCase {
	t.Helper()
	cfg := testForecastConfig(t)
	fc := forecasting.NewForecaster(forecasting.ForecasterConfig{Samples: 2000, Seed: 42})
	var uc *ForecastUseCase
	if cacheSvc != nil {
		uc = NewForecastUseCase(sales, sales, store, pub, metrics, cacheSvc, time.Minute, fc, cfg, testLogger(t))
	} else {
		uc = NewForecastUseCase(sales, sales, store, pub, metrics, nil, 0, fc, cfg, testLogger(t))
	}
	uc.now = func() time.Time { return monday.AddDate(0, 0, 61) }
	return uc
}

func TestGenerateStableItem(t *testing.T) {
	sales := &fakeSales{
		items:   map[string]bool{"Pad Thai": true},
		history: flatHistory(60, 10),
		ref:     flatReference(60, 100),
	}
	store := &fakeStore{}
	pub := &fakePublisher{}
	metrics := &fakeMetrics{}
	uc := newTestUseCase(t, sales, store, pub, metrics, nil)

	resp, err := uc.Generate(context.Background(), GenerateParams{
		RestaurantID: "r1",
		ItemName:     "Pad Thai",
	})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if resp.HorizonDays != 7 || len(resp.Forecasts) != 7 {
		t.Fatalf("horizon = %d with %d forecasts, want 7", resp.HorizonDays, len(resp.Forecasts))
	}

	lastObserved := monday.AddDate(0, 0, 59)
	for i, d := range resp.Forecasts {
		want := lastObserved.AddDate(0, 0, i+1)
		if !d.Date.Equal(want) {
			t.Fatalf("forecast %d date = %v, want %v", i, d.Date, want)
		}
		if d.P50 < 8 || d.P50 > 12 {
			t.Fatalf("p50 = %v for stable 10/day item, want within [8,12]", d.P50)
		}
		if d.Confidence < 0.9 {
			t.Fatalf("confidence = %v for 60 days of history, want >= 0.9", d.Confidence)
		}
	}
	if len(store.stored) != 7 {
		t.Fatalf("stored %d rows, want 7", len(store.stored))
	}
	if pub.published != 7 {
		t.Fatalf("published %d rows, want 7", pub.published)
	}
	if metrics.coldStarts != 0 {
		t.Fatalf("cold start recorded for well-observed item")
	}
}

func TestGenerateColdStartBorrowsCategoryPrior(t *testing.T) {
	// new item with zero history, but a category of peers selling ~6/day
	ref := flatReference(40, 30)
	ref.PerItem = map[string][]float64{
		"Green Curry": repeat(6, 40),
		"Massaman":    repeat(6, 40),
	}
	sales := &fakeSales{
		items: map[string]bool{"New Special": true},
		ref:   ref,
	}
	store := &fakeStore{}
	metrics := &fakeMetrics{}
	uc := newTestUseCase(t, sales, store, &fakePublisher{}, metrics, nil)

	resp, err := uc.Generate(context.Background(), GenerateParams{
		RestaurantID: "r1",
		ItemName:     "New Special",
		Category:     "Curries",
		HorizonDays:  3,
	})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	d := resp.Forecasts[0]
	if !strings.Contains(d.Explanation, "Category Prior") {
		t.Fatalf("explanation %q missing category prior trigger", d.Explanation)
	}
	// closer to the pooled rate (~6) than to the global prior mean (4)
	if d.Mean < 5 || d.Mean > 7 {
		t.Fatalf("cold start mean = %v, want near pooled rate 6", d.Mean)
	}
	if metrics.coldStarts != 1 {
		t.Fatalf("cold start not recorded")
	}
}

func TestGenerateTargetOnlyReferenceUsesGlobalPrior(t *testing.T) {
	// the target is the only item with reference data: its samples are
	// excluded from pooling, so the global prior applies instead of a
	// category prior built from its own sales
	ref := flatReference(40, 50)
	ref.PerItem = map[string][]float64{
		"New Special": repeat(50, 40),
	}
	sales := &fakeSales{
		items: map[string]bool{"New Special": true},
		ref:   ref,
	}
	uc := newTestUseCase(t, sales, &fakeStore{}, &fakePublisher{}, &fakeMetrics{}, nil)

	resp, err := uc.Generate(context.Background(), GenerateParams{
		RestaurantID: "r1",
		ItemName:     "New Special",
		Category:     "Specials",
		HorizonDays:  1,
	})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	d := resp.Forecasts[0]
	if !strings.Contains(d.Explanation, "Global Prior") {
		t.Fatalf("explanation %q, want global prior fallback", d.Explanation)
	}
	// global prior mean is 4, not the item's own 50
	if d.Mean > 8 {
		t.Fatalf("mean = %v, leaked the target's own samples into the prior", d.Mean)
	}
}

func TestGenerateUnknownItem(t *testing.T) {
	sales := &fakeSales{items: map[string]bool{}}
	metrics := &fakeMetrics{}
	uc := newTestUseCase(t, sales, &fakeStore{}, &fakePublisher{}, metrics, nil)

	_, err := uc.Generate(context.Background(), GenerateParams{RestaurantID: "r1", ItemName: "Ghost"})
	if !errors.Is(err, models.ErrItemNotFound) {
		t.Fatalf("expected ErrItemNotFound, got %v", err)
	}
	if len(metrics.statuses) != 1 || metrics.statuses[0] != "not_found" {
		t.Fatalf("statuses = %v, want [not_found]", metrics.statuses)
	}
}

func TestGenerateInvalidHorizon(t *testing.T) {
	sales := &fakeSales{items: map[string]bool{"Pad Thai": true}}
	uc := newTestUseCase(t, sales, &fakeStore{}, &fakePublisher{}, &fakeMetrics{}, nil)

	_, err := uc.Generate(context.Background(), GenerateParams{
		RestaurantID: "r1",
		ItemName:     "Pad Thai",
		HorizonDays:  91,
	})
	if !errors.Is(err, models.ErrInvalidHorizon) {
		t.Fatalf("expected ErrInvalidHorizon, got %v", err)
	}
}

func TestGenerateStoreFailureIsFatal(t *testing.T) {
	sales := &fakeSales{
		items:   map[string]bool{"Pad Thai": true},
		history: flatHistory(60, 10),
		ref:     flatReference(60, 100),
	}
	pub := &fakePublisher{}
	uc := newTestUseCase(t, sales, &fakeStore{err: errors.New("insert failed")}, pub, &fakeMetrics{}, nil)

	_, err := uc.Generate(context.Background(), GenerateParams{RestaurantID: "r1", ItemName: "Pad Thai"})
	if err == nil || !strings.Contains(err.Error(), "persist forecasts") {
		t.Fatalf("expected persistence error, got %v", err)
	}
	if pub.published != 0 {
		t.Fatalf("published despite failed persistence")
	}
}

func TestGeneratePublishFailureIsNotFatal(t *testing.T) {
	sales := &fakeSales{
		items:   map[string]bool{"Pad Thai": true},
		history: flatHistory(60, 10),
		ref:     flatReference(60, 100),
	}
	store := &fakeStore{}
	uc := newTestUseCase(t, sales, store, &fakePublisher{err: errors.New("broker down")}, &fakeMetrics{}, nil)

	if _, err := uc.Generate(context.Background(), GenerateParams{RestaurantID: "r1", ItemName: "Pad Thai"}); err != nil {
		t.Fatalf("publish failure escalated: %v", err)
	}
	if len(store.stored) != 7 {
		t.Fatalf("stored %d rows, want 7", len(store.stored))
	}
}

func TestGenerateReferenceSeriesCached(t *testing.T) {
	sales := &fakeSales{
		items:   map[string]bool{"Pad Thai": true},
		history: flatHistory(60, 10),
		ref:     flatReference(60, 100),
	}
	metrics := &fakeMetrics{}
	uc := newTestUseCase(t, sales, &fakeStore{}, &fakePublisher{}, metrics, &fakeCache{})

	for i := 0; i < 2; i++ {
		if _, err := uc.Generate(context.Background(), GenerateParams{RestaurantID: "r1", ItemName: "Pad Thai"}); err != nil {
			t.Fatalf("generate %d: %v", i, err)
		}
	}
	if sales.refHits != 1 {
		t.Fatalf("reference queried %d times, want 1", sales.refHits)
	}
	if metrics.cacheHits != 1 || metrics.cacheMiss != 1 {
		t.Fatalf("cache hits/misses = %d/%d, want 1/1", metrics.cacheHits, metrics.cacheMiss)
	}
}

func repeat(v float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}
