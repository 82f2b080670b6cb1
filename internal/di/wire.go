//go:build wireinject
// +build wireinject

package di

import (
	"BrentPulse/internal/usecase"
	"BrentPulse/pkg/config"
	"BrentPulse/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, func(), error) {
	wire.Build(
		// Infrastructure
		ProvideKafkaProducer,
		ProvideLogger,
		ProvideMetrics,

		// Sources and analytics
		ProvideCSVSource,
		ProvidePriceSource,
		ProvideForecastHolder,
		ProvideSegmenter,
		ProvideForecastAdapter,
		ProvideEvents,
		ProvideMarketAnalysis,

		// Push channels
		ProvidePhasePublisher,
		ProvideHub,

		// Use cases
		ProvideRefresher,
		ProvideDashboard,

		// HTTP
		ProvideResponseCache,
		ProvideAnalysisHandler,
		ProvideHealthHandler,
		ProvideHTTPServer,

		// Application server
		ProvideApp,
	)
	return nil, nil, nil
}

// InitializeAnalysis wires the analytics core without the HTTP surface and
// push channels. Used by the one-shot CLI commands.
func InitializeAnalysis(cfg *config.Config) (*usecase.MarketAnalysis, func(), error) {
	wire.Build(
		ProvideKafkaProducer,
		ProvideLogger,
		ProvideMetrics,
		ProvideCSVSource,
		ProvidePriceSource,
		ProvideForecastHolder,
		ProvideSegmenter,
		ProvideForecastAdapter,
		ProvideEvents,
		ProvideMarketAnalysis,
	)
	return nil, nil, nil
}
