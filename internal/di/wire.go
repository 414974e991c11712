//go:build wireinject
// +build wireinject

package di

import (
	"GammaPull/pkg/config"
	"GammaPull/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		// Ambient
		ProvideLogger,
		ProvideMetrics,

		// Infrastructure clients
		ProvideClickHouseClient,
		ProvidePublisher,
		ProvideCache,

		// Providers and stores
		ProvidePolygonClient,
		ProvideBarProvider,
		ProvideChainProvider,
		ProvideSpotProvider,
		ProvideStreamFeed,
		ProvideLastTradeSource,
		ProvideBarStore,
		ProvideDealerStore,
		ProvideStructureStore,

		// Use cases
		ProvideSnapshotAnalyzer,
		ProvideStructureAnalyzer,
		ProvideScanRunner,

		// HTTP surface and application server
		ProvideHTTPHandler,
		ProvideApp,
	)
	return &server.App{}, nil
}
