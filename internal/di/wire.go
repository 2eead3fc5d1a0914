//go:build wireinject
// +build wireinject

package di

import (
	"RentWise/pkg/config"
	"RentWise/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// The cleanup closes infrastructure clients in reverse construction order.
func InitializeApp(cfg *config.Config) (*server.App, func(), error) {
	wire.Build(
		// Infrastructure clients
		ProvideKafkaProducer,
		ProvideLogger,
		ProvideMetrics,

		// Artifacts and models
		ProvideArtifactStore,
		ProvideSchemaRegistry,
		ProvideModelsManifest,
		ProvidePredictionCache,
		ProvideArtifacts,

		// Recording backends
		ProvideEvaluationStore,
		ProvideEvaluationPublisher,

		// Use cases
		ProvidePriceEvaluator,
		ProvideEvaluationRecorder,
		ProvideListingHandler,

		// Transport
		ProvideRateLimiter,
		ProvideValuationHandler,
		ProvideHTTPServer,
		ProvideKafkaConsumer,

		// Application server
		ProvideApp,
	)
	return nil, nil, nil
}
