//go:build wireinject
// +build wireinject

package di

import (
	"GoldPulse/pkg/config"
	"GoldPulse/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		// Ambient
		ProvideLogger,
		ProvideMetrics,
		ProvideHTTPClient,

		// Infrastructure clients
		ProvideKafkaProducer,
		ProvideBytesCache,

		// Refresh cycle
		ProvideFetcher,
		ProvideStatusSource,
		ProvideStatusCache,
		ProvideClassifier,
		ProvideSchedule,
		ProvideProjector,
		ProvideDashboard,
		ProvideHub,
		ProvideSinks,
		ProvideRefresher,

		// Edge proxy
		ProvideLimiter,
		ProvideProxy,
		ProvideHandler,
		ProvideHTTPServer,

		// Application server
		ProvideScheduler,
		ProvideApp,
	)
	return &server.App{}, nil
}
