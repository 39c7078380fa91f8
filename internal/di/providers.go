package di

import (
	"context"
	"fmt"
	"time"

	"fluxcast/internal/domain/models"
	"fluxcast/internal/domain/repository"
	"fluxcast/internal/handler/api"
	internalrepo "fluxcast/internal/repository"
	"fluxcast/internal/services/forecasting"
	"fluxcast/internal/usecase"
	pkgcache "fluxcast/pkg/cache"
	pkgch "fluxcast/pkg/clickhouse"
	"fluxcast/pkg/config"
	xhttp "fluxcast/pkg/http"
	pkgkafka "fluxcast/pkg/kafka"
	applogger "fluxcast/pkg/logger"
	"fluxcast/pkg/metrics"
	"fluxcast/pkg/server"
)

// ProvideLogger creates the application logger.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	l, err := applogger.New(&applogger.Config{
		Level:  cfg.Logger.Level,
		Format: cfg.Logger.Format,
		Output: cfg.Logger.Output,
	})
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	return l, nil
}

// ProvideClickHouseClient creates a ClickHouse client and ensures the
// schema exists.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	client, err := pkgch.NewClient(
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithMaxConnections(10, 5),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout, cfg.ClickHouse.WriteTimeout),
		pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := client.InitSchema(ctx, []string{
		"CREATE DATABASE IF NOT EXISTS fluxcast",
		`CREATE TABLE IF NOT EXISTS fluxcast.menu_items (
            restaurant_id String,
            item_name String,
            category String,
            active UInt8 DEFAULT 1
        ) ENGINE = ReplacingMergeTree ORDER BY (restaurant_id, item_name)`,
		`CREATE TABLE IF NOT EXISTS fluxcast.daily_sales (
            restaurant_id String,
            item_name String,
            date Date,
            quantity Float64,
            stockout UInt8 DEFAULT 0,
            is_promo UInt8 DEFAULT 0,
            first_sale DateTime,
            last_sale DateTime
        ) ENGINE = MergeTree ORDER BY (restaurant_id, item_name, date)`,
		`CREATE TABLE IF NOT EXISTS fluxcast.demand_forecasts (
            restaurant_id String,
            item_name String,
            forecast_date Date,
            mean Float64,
            p10 Float64,
            p50 Float64,
            p90 Float64,
            p99 Float64,
            confidence Float64,
            explanation String,
            model String,
            created_at DateTime
        ) ENGINE = MergeTree ORDER BY (restaurant_id, item_name, forecast_date, created_at)`,
	}); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}

	return client, nil
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvideSalesReader creates the ClickHouse sales reader.
func ProvideSalesReader(chClient *pkgch.Client, l *applogger.Logger) *internalrepo.CHSalesReader {
	r := internalrepo.NewCHSalesReader(chClient)
	r.SetLogger(l)
	return r
}

// ProvideHistoryReader exposes the sales reader as a HistoryReader.
func ProvideHistoryReader(r *internalrepo.CHSalesReader) repository.HistoryReader {
	return r
}

// ProvideReferenceReader exposes the sales reader as a ReferenceReader.
func ProvideReferenceReader(r *internalrepo.CHSalesReader) repository.ReferenceReader {
	return r
}

// ProvideForecastStore creates the ClickHouse forecast store.
func ProvideForecastStore(chClient *pkgch.Client, l *applogger.Logger) repository.ForecastStore {
	s := internalrepo.NewCHForecastStore(chClient)
	s.SetLogger(l)
	return s
}

// ProvideKafkaProducer creates a Kafka producer, or nil when Kafka is
// disabled.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	if !cfg.Kafka.Enabled {
		return nil, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithMaxAttempts(cfg.Kafka.MaxAttempts),
		pkgkafka.WithBatchTimeout(cfg.Kafka.BatchTimeout),
		pkgkafka.WithTimeouts(cfg.Kafka.WriteTimeout, cfg.Kafka.WriteTimeout),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, nil
}

// ProvideForecastPublisher creates the Kafka forecast publisher, or nil
// when no producer is configured.
func ProvideForecastPublisher(producer *pkgkafka.Producer, cfg *config.Config) repository.ForecastPublisher {
	if producer == nil {
		return nil
	}
	return internalrepo.NewKafkaForecastPublisher(producer, cfg.Kafka.Topic)
}

// ProvideCache creates the reference-series cache: layered when Redis is
// configured, in-memory otherwise, nil when caching is disabled.
func ProvideCache(cfg *config.Config, l *applogger.Logger) pkgcache.Service {
	if !cfg.Cache.Enabled {
		return nil
	}
	if cfg.Cache.Redis.Enabled {
		redisCache, err := pkgcache.NewRedisCache(
			pkgcache.WithRedisHost(cfg.Cache.Redis.Host),
			pkgcache.WithRedisPort(cfg.Cache.Redis.Port),
			pkgcache.WithRedisPassword(cfg.Cache.Redis.Password),
			pkgcache.WithRedisDB(cfg.Cache.Redis.DB),
		)
		if err != nil {
			l.Warn("redis unavailable, falling back to memory cache", applogger.Error(err))
			return pkgcache.NewMemoryCache()
		}
		return pkgcache.NewLayeredCache(redisCache)
	}
	return pkgcache.NewMemoryCache()
}

// ProvideForecaster creates the Bayesian forecaster from config.
func ProvideForecaster(cfg *config.Config) *forecasting.Forecaster {
	return forecasting.NewForecaster(forecasting.ForecasterConfig{
		GlobalPrior: models.GammaPrior{
			Alpha: cfg.Forecast.Prior.Alpha,
			Beta:  cfg.Forecast.Prior.Beta,
		},
		Samples: cfg.Forecast.MonteCarlo.Samples,
		Seed:    cfg.Forecast.MonteCarlo.Seed,
	})
}

// ProvideForecastUseCase wires the forecast pipeline.
func ProvideForecastUseCase(
	history repository.HistoryReader,
	refs repository.ReferenceReader,
	store repository.ForecastStore,
	publisher repository.ForecastPublisher,
	m repository.Metrics,
	cacheSvc pkgcache.Service,
	forecaster *forecasting.Forecaster,
	cfg *config.Config,
	l *applogger.Logger,
) *usecase.ForecastUseCase {
	return usecase.NewForecastUseCase(history, refs, store, publisher, m, cacheSvc, cfg.Cache.TTL, forecaster, cfg.Forecast, l)
}

// ProvideForecastHandler creates the Echo HTTP handler.
func ProvideForecastHandler(l *applogger.Logger, uc *usecase.ForecastUseCase, chClient *pkgch.Client) xhttp.Handler {
	return api.NewForecastEchoHandler(l, uc, chClient)
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	handler xhttp.Handler,
	chClient *pkgch.Client,
	publisher repository.ForecastPublisher,
	l *applogger.Logger,
) *server.App {
	return server.New(cfg, handler, chClient, publisher, l)
}
