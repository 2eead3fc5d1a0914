package di

import (
	"context"
	"fmt"
	"time"

	"RentWise/internal/domain/models"
	"RentWise/internal/domain/repository"
	"RentWise/internal/handler/api"
	internalrepo "RentWise/internal/repository"
	"RentWise/internal/service/cache"
	"RentWise/internal/service/ratelimit"
	"RentWise/internal/services/predictors"
	"RentWise/internal/usecase"
	pkgch "RentWise/pkg/clickhouse"
	"RentWise/pkg/config"
	xhttp "RentWise/pkg/http"
	pkgkafka "RentWise/pkg/kafka"
	applogger "RentWise/pkg/logger"
	"RentWise/pkg/metrics"
	"RentWise/pkg/postgres"
	"RentWise/pkg/server"
)

const (
	evaluationsTable = "evaluations"
	// How long a replica serves a Redis-backed prediction from memory.
	predictionL1TTL = 30 * time.Second
)

// ProvideKafkaProducer creates a Kafka producer when the kafka backend or
// the log collector needs one.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, func(), error) {
	if cfg.Backend.Type != config.BackendKafka && cfg.Logging.Collector.Topic == "" {
		return nil, func() {}, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithClientID(cfg.Kafka.ClientID),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithBatching(cfg.Kafka.Producer.BatchSize, cfg.Kafka.Producer.BatchBytes, cfg.Kafka.Producer.Linger),
		pkgkafka.WithTimeouts(cfg.Kafka.Producer.WriteTimeout, cfg.Kafka.Producer.ReadTimeout),
		pkgkafka.WithMaxAttempts(cfg.Kafka.Producer.MaxAttempts),
		pkgkafka.WithAsync(cfg.Kafka.Producer.Async),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, func() { _ = producer.Close() }, nil
}

// ProvideLogger creates the application logger. Error entries are
// aggregated and republished to Kafka when a collector topic is set.
func ProvideLogger(cfg *config.Config, producer *pkgkafka.Producer) (*applogger.Logger, func(), error) {
	l, err := applogger.New(&applogger.Config{
		Level:       cfg.Logging.Level,
		Format:      cfg.Logging.Format,
		Output:      cfg.Logging.Output,
		Service:     "rentwise",
		Environment: cfg.Environment,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("logger: %w", err)
	}
	if cfg.Logging.Collector.Topic == "" || producer == nil {
		return l, func() {}, nil
	}
	l.AddCollector(&applogger.CollectionConfig{
		TimeInterval:   cfg.Logging.Collector.FlushInterval,
		CountThreshold: cfg.Logging.Collector.CountThreshold,
		Topic:          cfg.Logging.Collector.Topic,
		Publisher:      producer,
	})
	return l, l.RemoveCollector, nil
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvideArtifactStore points at the directory written by cmd/preprocess and training.
func ProvideArtifactStore(cfg *config.Config) *internalrepo.ArtifactStore {
	return internalrepo.NewArtifactStore(cfg.Artifacts.Dir, cfg.Artifacts.SchemaFile, cfg.Artifacts.ModelsFile)
}

// ProvideSchemaRegistry loads the frozen feature schemas.
func ProvideSchemaRegistry(store *internalrepo.ArtifactStore, logger *applogger.Logger) (models.SchemaRegistry, error) {
	reg, err := store.LoadSchema(context.Background())
	if err != nil {
		return models.SchemaRegistry{}, err
	}
	logger.Info("feature schema loaded",
		applogger.String("version", reg.Version),
		applogger.Int("regression_fields", reg.Regression.Len()),
		applogger.Int("classification_fields", reg.Classification.Len()))
	return reg, nil
}

// ProvideModelsManifest loads models.yaml and checks it was trained on reg.
func ProvideModelsManifest(store *internalrepo.ArtifactStore, reg models.SchemaRegistry) (models.ModelsManifest, error) {
	return store.LoadModels(context.Background(), reg)
}

// ProvidePredictionCache returns the regressor cache, or nil when caching
// is disabled. Redis is fronted by an in-process layer; an unreachable
// Redis falls back to the in-process cache alone.
func ProvidePredictionCache(cfg *config.Config, logger *applogger.Logger) (cache.BytesCache, func(), error) {
	if !cfg.Cache.Enabled {
		return nil, func() {}, nil
	}
	if !cfg.Cache.Redis.Enabled {
		return cache.NewTTLCache(), func() {}, nil
	}

	rc := cache.NewRedisCache(cache.RedisConfig{
		Addr:         cfg.Cache.Redis.Addr,
		Password:     cfg.Cache.Redis.Password,
		DB:           cfg.Cache.Redis.DB,
		PoolSize:     cfg.Cache.Redis.PoolSize,
		DialTimeout:  cfg.Cache.Redis.Timeout,
		ReadTimeout:  cfg.Cache.Redis.Timeout,
		WriteTimeout: cfg.Cache.Redis.Timeout,
		Prefix:       "rentwise:",
	})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := rc.Ping(ctx); err != nil {
		logger.Warn("redis unreachable, using in-process prediction cache",
			applogger.String("addr", cfg.Cache.Redis.Addr), applogger.Error(err))
		_ = rc.Close()
		return cache.NewTTLCache(), func() {}, nil
	}
	return cache.NewLayeredCache(rc, predictionL1TTL), func() { _ = rc.Close() }, nil
}

// ProvideArtifacts builds the regressor and classifier named by models.yaml
// and, when enabled, verifies both against the loaded schemas.
func ProvideArtifacts(
	cfg *config.Config,
	reg models.SchemaRegistry,
	manifest models.ModelsManifest,
	c cache.BytesCache,
	logger *applogger.Logger,
) (*usecase.Artifacts, error) {
	var base *predictors.HTTPServiceBase
	if cfg.Models.ServiceURL != "" {
		base = predictors.NewHTTPServiceBase(cfg.Models.ServiceURL, cfg.Models.Timeout, cfg.Models.Retries)
	}

	regressor, err := predictors.NewRegressor(reg, manifest.Regression, base)
	if err != nil {
		return nil, err
	}
	if c != nil {
		regressor = predictors.NewCachedPriceRegressor(regressor, c, cfg.Cache.TTL, logger)
	}
	classifier, err := predictors.NewClassifier(reg, manifest.Classification, regressor, base)
	if err != nil {
		return nil, err
	}

	if cfg.Models.VerifySchema {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Models.Timeout*time.Duration(cfg.Models.Retries+1))
		defer cancel()
		if err := predictors.Verify(ctx, reg, regressor, classifier); err != nil {
			return nil, err
		}
	}

	logger.Info("models ready",
		applogger.String("regression", manifest.Regression.Kind),
		applogger.String("classification", manifest.Classification.Kind),
		applogger.Bool("cached", c != nil))
	return &usecase.Artifacts{Registry: reg, Regressor: regressor, Classifier: classifier}, nil
}

// ProvidePriceEvaluator creates the valuation use case.
func ProvidePriceEvaluator(a *usecase.Artifacts, m repository.Metrics, logger *applogger.Logger) *usecase.PriceEvaluator {
	return usecase.NewPriceEvaluator(a, m, logger)
}

// ProvideEvaluationStore opens the store for the clickhouse and postgres
// backends and creates its table. Other backends get a nil store.
func ProvideEvaluationStore(cfg *config.Config, logger *applogger.Logger) (repository.EvaluationStore, func(), error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	switch cfg.Backend.Type {
	case config.BackendClickHouse:
		client, err := pkgch.Open(ctx, pkgch.Config{
			Host:         cfg.ClickHouse.Host,
			Port:         cfg.ClickHouse.Port,
			Database:     cfg.ClickHouse.Database,
			User:         cfg.ClickHouse.User,
			Password:     cfg.ClickHouse.Password,
			UseHTTP:      cfg.ClickHouse.UseHTTP,
			AsyncInsert:  cfg.ClickHouse.AsyncInsert,
			WaitForAsync: cfg.ClickHouse.WaitForAsync,
			Compress:     cfg.ClickHouse.Compress,
			DialTimeout:  cfg.ClickHouse.DialTimeout,
			ReadTimeout:  cfg.ClickHouse.ReadTimeout,
			MaxExecTime:  cfg.ClickHouse.MaxExecutionTime,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("clickhouse client: %w", err)
		}
		store := internalrepo.NewClickHouseEvaluationStore(client.DB(), cfg.ClickHouse.Database+"."+evaluationsTable)
		if err := store.Init(ctx); err != nil {
			_ = client.Close()
			return nil, nil, err
		}
		logger.Info("clickhouse evaluation store ready", applogger.String("database", cfg.ClickHouse.Database))
		return store, func() { _ = client.Close() }, nil

	case config.BackendPostgres:
		client, err := postgres.Open(ctx, postgres.Config{
			DSN:          cfg.Postgres.DSN,
			MaxOpenConns: cfg.Postgres.MaxOpenConns,
			MaxIdleConns: cfg.Postgres.MaxIdleConns,
			ConnMaxLife:  cfg.Postgres.ConnMaxLife,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("postgres client: %w", err)
		}
		store := internalrepo.NewPostgresEvaluationStore(client.DB(), evaluationsTable)
		if err := store.Init(ctx); err != nil {
			_ = client.Close()
			return nil, nil, err
		}
		logger.Info("postgres evaluation store ready")
		return store, func() { _ = client.Close() }, nil

	default:
		return nil, func() {}, nil
	}
}

// ProvideEvaluationPublisher returns the Kafka publisher for the kafka backend, nil otherwise.
func ProvideEvaluationPublisher(cfg *config.Config, producer *pkgkafka.Producer) repository.EvaluationPublisher {
	if cfg.Backend.Type != config.BackendKafka || producer == nil {
		return nil
	}
	return internalrepo.NewKafkaEvaluationPublisher(producer, cfg.Kafka.Topic)
}

// ProvideEvaluationRecorder routes evaluations to the configured backend.
func ProvideEvaluationRecorder(
	cfg *config.Config,
	pub repository.EvaluationPublisher,
	store repository.EvaluationStore,
	m repository.Metrics,
	logger *applogger.Logger,
) (*usecase.EvaluationRecorder, func()) {
	r := usecase.NewEvaluationRecorder(pub, store, m, cfg.Backend.Type, logger)
	return r, r.Close
}

// ProvideRateLimiter returns the per-client limiter, or nil when disabled.
func ProvideRateLimiter(cfg *config.Config) *ratelimit.Limiter {
	if !cfg.API.RateLimit.Enabled {
		return nil
	}
	return ratelimit.New(cfg.API.RateLimit.Burst, cfg.API.RateLimit.Rate)
}

// ProvideValuationHandler creates the HTTP handler.
func ProvideValuationHandler(
	cfg *config.Config,
	logger *applogger.Logger,
	evaluator *usecase.PriceEvaluator,
	recorder *usecase.EvaluationRecorder,
	limiter *ratelimit.Limiter,
) *api.ValuationEchoHandler {
	return api.NewValuationEchoHandler(logger, evaluator, recorder, limiter, cfg.API.RecordEvaluations)
}

// ProvideHTTPServer creates the Echo server with every HTTP handler.
func ProvideHTTPServer(cfg *config.Config, logger *applogger.Logger, h *api.ValuationEchoHandler) *xhttp.Server {
	return xhttp.NewServer(logger, []xhttp.Handler{h},
		xhttp.WithPort(cfg.Server.Port),
		xhttp.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, cfg.Server.ShutdownTimeout),
		xhttp.WithMetrics(cfg.Metrics.Enabled, cfg.Metrics.Path),
		xhttp.WithBodyLimit(cfg.Server.BodyLimit),
		xhttp.WithCORSOrigins(corsOrigins(cfg)...),
	)
}

// ProvideKafkaConsumer creates the listings consumer, or nil when disabled.
func ProvideKafkaConsumer(cfg *config.Config, logger *applogger.Logger) (*pkgkafka.Consumer, error) {
	if !cfg.Kafka.Consumer.Enabled {
		return nil, nil
	}
	consumer, err := pkgkafka.NewConsumer(
		pkgkafka.WithConsumerBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithConsumerGroupID(cfg.Kafka.Consumer.GroupID),
		pkgkafka.WithConsumerWorkers(cfg.Kafka.Consumer.Workers),
		pkgkafka.WithConsumerBufferSize(cfg.Kafka.Consumer.BufferSize),
		pkgkafka.WithConsumerRetry(cfg.Kafka.Consumer.RetryMax, cfg.Kafka.Consumer.BackoffMin, cfg.Kafka.Consumer.BackoffMax),
		pkgkafka.WithConsumerDLQ(cfg.Kafka.Consumer.DLQTopic),
		pkgkafka.WithConsumerFetch(cfg.Kafka.Consumer.MinBytes, cfg.Kafka.Consumer.MaxBytes),
		pkgkafka.WithConsumerLogger(logger),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka consumer: %w", err)
	}
	consumer.WithConsumerHook(pkgkafka.TraceHook())
	return consumer, nil
}

// ProvideListingHandler evaluates listings consumed from Kafka.
func ProvideListingHandler(
	cfg *config.Config,
	evaluator *usecase.PriceEvaluator,
	recorder *usecase.EvaluationRecorder,
	m repository.Metrics,
	logger *applogger.Logger,
) *usecase.ListingEvaluationHandler {
	return usecase.NewListingEvaluationHandler(cfg.Kafka.Consumer.Topic, evaluator, recorder, m, logger)
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	logger *applogger.Logger,
	httpServer *xhttp.Server,
	consumer *pkgkafka.Consumer,
	lh *usecase.ListingEvaluationHandler,
) *server.App {
	if consumer == nil {
		return server.New(cfg, logger, httpServer, nil)
	}
	return server.New(cfg, logger, httpServer, consumer, lh)
}

func corsOrigins(cfg *config.Config) []string {
	if len(cfg.Server.CORSOrigins) == 0 {
		return []string{"*"}
	}
	return cfg.Server.CORSOrigins
}
