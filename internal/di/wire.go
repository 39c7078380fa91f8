//go:build wireinject
// +build wireinject

package di

import (
	"fluxcast/pkg/config"
	"fluxcast/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		ProvideLogger,
		ProvideMetrics,

		// Infrastructure clients
		ProvideClickHouseClient,
		ProvideKafkaProducer,
		ProvideCache,

		// Repositories
		ProvideSalesReader,
		ProvideHistoryReader,
		ProvideReferenceReader,
		ProvideForecastStore,
		ProvideForecastPublisher,

		// Forecasting pipeline
		ProvideForecaster,
		ProvideForecastUseCase,

		// HTTP surface
		ProvideForecastHandler,

		// Application server
		ProvideApp,
	)
	return &server.App{}, nil
}
