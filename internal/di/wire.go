//go:build wireinject
// +build wireinject

package di

import (
	"TradePulse/pkg/config"
	"TradePulse/pkg/server"

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
		ProvideCacheService,
		ProvideQueue,

		// Repositories
		ProvideMarketStore,
		ProvideSnapshotStore,
		ProvideSignalPublisher,
		ProvideNotifier,
		ProvideMarketDataSource,
		ProvidePriceStream,

		// Services
		ProvideAnalyzer,
		ProvideSignalGenerator,
		ProvideRiskScorer,
		ProvideNarrator,
		ProvideExecutionEngine,
		ProvideTickPipeline,
		ProvideTickSink,

		// Use cases
		ProvidePipeline,
		ProvideCollector,

		// HTTP and application server
		ProvideHTTPHandler,
		ProvideApp,
	)
	return &server.App{}, nil
}
