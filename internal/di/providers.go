package di

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"TradePulse/internal/domain/repository"
	"TradePulse/internal/handler/api"
	mid "TradePulse/internal/middleware"
	internalrepo "TradePulse/internal/repository"
	"TradePulse/internal/service/birdeye"
	icache "TradePulse/internal/service/cache"
	"TradePulse/internal/service/ratelimit"
	"TradePulse/internal/services/execution"
	"TradePulse/internal/services/narrator"
	"TradePulse/internal/services/risk"
	"TradePulse/internal/services/signal"
	"TradePulse/internal/services/technical"
	"TradePulse/internal/usecase"
	pkgcache "TradePulse/pkg/cache"
	pkgch "TradePulse/pkg/clickhouse"
	"TradePulse/pkg/config"
	xhttp "TradePulse/pkg/http"
	pkgkafka "TradePulse/pkg/kafka"
	applogger "TradePulse/pkg/logger"
	"TradePulse/pkg/metrics"
	pkgqueue "TradePulse/pkg/queue"
	"TradePulse/pkg/server"
)

// ProvideLogger creates the application logger. Development runs get
// console output, everything else JSON.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	lc := &applogger.Config{Level: "info", Format: "json", Output: "stdout"}
	if cfg.Environment == "development" {
		lc.Level = "debug"
		lc.Format = "console"
	}
	return applogger.New(lc)
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvideClickHouseClient creates a ClickHouse client and initializes
// the schema.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	client, err := pkgch.NewClient(
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithMaxConnections(10, 5),
		pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
		pkgch.WithAsyncInsert(cfg.ClickHouse.AsyncInsert, cfg.ClickHouse.WaitForAsync),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout, cfg.ClickHouse.WriteTimeout),
		pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	stmts := append(
		[]string{"CREATE DATABASE IF NOT EXISTS " + cfg.ClickHouse.Database},
		internalrepo.Schema()...,
	)
	if err := client.InitSchema(ctx, stmts); err != nil {
		_ = client.Close() // cannot log here (DI layer no logger); propagate error
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}

	return client, nil
}

// ProvideMarketStore creates the ClickHouse-backed store for
// snapshots, signals and execution records.
func ProvideMarketStore(chClient *pkgch.Client) *internalrepo.MarketStore {
	return internalrepo.NewMarketStore(chClient.DB())
}

// ProvideCacheService picks the cache backend: layered redis+memory
// when redis is configured, in-process memory otherwise.
func ProvideCacheService(cfg *config.Config) (pkgcache.Service, error) {
	if !cfg.Redis.Enabled {
		return pkgcache.NewMemoryCache(), nil
	}
	rc, err := pkgcache.NewRedisCache(
		pkgcache.WithRedisHost(cfg.Redis.Host),
		pkgcache.WithRedisPort(cfg.Redis.Port),
		pkgcache.WithRedisPassword(cfg.Redis.Password),
		pkgcache.WithRedisDB(cfg.Redis.DB),
		pkgcache.WithRedisPrefix("tradepulse"),
	)
	if err != nil {
		return nil, fmt.Errorf("redis cache: %w", err)
	}
	return pkgcache.NewLayeredCache(rc), nil
}

// ProvideQueue creates the redis-backed event queue in publisher mode.
// Returns nil when redis is disabled; consumers run out of process.
func ProvideQueue(cfg *config.Config, lgr *applogger.Logger) *pkgqueue.RedisQueue {
	if !cfg.Redis.Enabled {
		return nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	return pkgqueue.NewRedisPublisher(lgr, client)
}

// ProvideSnapshotStore decorates the ClickHouse store with the
// latest-snapshot cache used for previous-snapshot lookups.
func ProvideSnapshotStore(store *internalrepo.MarketStore, cache pkgcache.Service, m repository.Metrics, lgr *applogger.Logger) repository.SnapshotStore {
	return internalrepo.NewCachedSnapshotStore(store, cache, 10*time.Minute, m, lgr.Zerolog())
}

// ProvideSignalPublisher creates the Kafka publisher for emitted
// signals, or a no-op when Kafka is disabled.
func ProvideSignalPublisher(cfg *config.Config) (repository.SignalPublisher, error) {
	if !cfg.Kafka.Enabled {
		return internalrepo.NopSignalPublisher{}, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithBatchSize(cfg.Kafka.Producer.BatchSize),
		pkgkafka.WithBatchBytes(cfg.Kafka.Producer.BatchBytes),
		pkgkafka.WithBatchTimeout(cfg.Kafka.Producer.Linger),
		pkgkafka.WithTimeouts(cfg.Kafka.Producer.WriteTimeout, cfg.Kafka.Producer.ReadTimeout),
		pkgkafka.WithMaxAttempts(cfg.Kafka.Producer.MaxAttempts),
		pkgkafka.WithAsync(cfg.Kafka.Producer.Async),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return internalrepo.NewKafkaSignalPublisher(producer, cfg.Kafka.Topic), nil
}

// ProvideNotifier routes execution events through the queue when redis
// is available, plain logging otherwise.
func ProvideNotifier(rq *pkgqueue.RedisQueue, lgr *applogger.Logger) repository.Notifier {
	if rq != nil {
		return internalrepo.NewQueueNotifier(rq, lgr.Zerolog())
	}
	return internalrepo.NewLogNotifier(lgr.Zerolog())
}

// ProvideTickPipeline builds the middleware between the websocket feed
// and the queue fan-out. Nil when the queue is unavailable.
func ProvideTickPipeline(rq *pkgqueue.RedisQueue, m repository.Metrics) *mid.TickPipeline {
	if rq == nil {
		return nil
	}
	return mid.NewTickPipeline(internalrepo.NewQueueTickSink(rq), m,
		mid.WithMaxRPS(50),
		mid.WithBufferSize(2000),
	)
}

// ProvideTickSink adapts the pipeline into the collector's sink.
func ProvideTickSink(p *mid.TickPipeline) usecase.TickSink {
	if p == nil {
		return nil
	}
	return p
}

// ProvideMarketDataSource creates the rate-limited, cached Birdeye
// REST client.
func ProvideMarketDataSource(cfg *config.Config, m repository.Metrics, lgr *applogger.Logger) repository.MarketDataSource {
	return birdeye.NewClient(
		birdeye.Config{
			BaseURL:        cfg.Birdeye.BaseURL,
			APIKey:         cfg.Birdeye.APIKey,
			Timeout:        cfg.Birdeye.Timeout,
			Rate:           cfg.Birdeye.Rate,
			Burst:          cfg.Birdeye.Burst,
			OverviewTTL:    cfg.Birdeye.OverviewTTL,
			PriceSeriesTTL: cfg.Birdeye.PriceSeriesTTL,
			Attempts:       cfg.Birdeye.Attempts,
		},
		ratelimit.New(cfg.Birdeye.Rate, cfg.Birdeye.Burst),
		icache.NewTTLCache(icache.WithMetrics(m)),
		m,
		lgr.Zerolog(),
	)
}

// ProvidePriceStream creates the Birdeye websocket stream, or nil when
// streaming is disabled and the pipeline runs on polling alone.
func ProvidePriceStream(cfg *config.Config, lgr *applogger.Logger) repository.PriceStream {
	if !cfg.Birdeye.StreamEnabled {
		return nil
	}
	return birdeye.NewStream(birdeye.StreamConfig{
		WebsocketURL:   cfg.Birdeye.WebSocketURL,
		APIKey:         cfg.Birdeye.APIKey,
		Assets:         cfg.Pipeline.Assets,
		ReconnectDelay: cfg.Birdeye.ReconnectDelay,
		PingInterval:   cfg.Birdeye.PingInterval,
	}, lgr.Zerolog())
}

// ProvideAnalyzer creates the technical indicator engine.
func ProvideAnalyzer() *technical.Analyzer {
	return technical.NewAnalyzer()
}

// ProvideSignalGenerator creates the snapshot-delta signal generator.
func ProvideSignalGenerator(cfg *config.Config, lgr *applogger.Logger) *signal.Generator {
	return signal.NewGenerator(signal.ConfigFromFloats(
		cfg.Market.PriceChangeThreshold,
		cfg.Market.VolumeSurgeThreshold,
		cfg.Market.BaseConfidence,
		cfg.Market.PriceWeight,
		cfg.Market.VolumeWeight,
	), lgr.Zerolog())
}

// ProvideRiskScorer creates the composite risk scorer.
func ProvideRiskScorer(cfg *config.Config, lgr *applogger.Logger) *risk.Scorer {
	return risk.NewScorer(risk.Config{
		MinLiquidityUSD:   cfg.Risk.MinLiquidityUSD,
		MinLiquidityRatio: cfg.Risk.MinLiquidityRatio,
		Weights: risk.Weights{
			Liquidity:  cfg.Risk.Weights.Liquidity,
			Volatility: cfg.Risk.Weights.Volatility,
			Market:     cfg.Risk.Weights.Market,
			Technical:  cfg.Risk.Weights.Technical,
			Sentiment:  cfg.Risk.Weights.Sentiment,
		},
	}, lgr.Zerolog())
}

// ProvideNarrator creates the decision narrator: HTTP-backed when a
// service URL is configured, rule-based otherwise. Both produce the
// same deterministic action and sizing; the service only contributes
// reasoning prose.
func ProvideNarrator(cfg *config.Config, lgr *applogger.Logger) repository.Narrator {
	ncfg := narrator.Config{
		MaxSlippage:     cfg.Execution.MaxSlippage,
		MaxPositionSize: cfg.Execution.MaxPositionSize,
		MinPositionSize: cfg.Execution.MinPositionSize,
	}
	if cfg.Narrator.ServiceURL != "" {
		return narrator.NewHTTPNarrator(ncfg, cfg.Narrator.ServiceURL, cfg.Narrator.Timeout, lgr.Zerolog())
	}
	return narrator.NewRuleBased(ncfg, lgr.Zerolog())
}

// ProvideExecutionEngine creates the order execution engine, nil when
// execution is disabled. Open orders persisted by a previous run are
// reloaded from the cache layer so a restart does not drop them.
func ProvideExecutionEngine(cfg *config.Config, cache pkgcache.Service, lgr *applogger.Logger) *execution.Engine {
	if !cfg.Execution.Enabled {
		return nil
	}
	placer := execution.NewSimulatedPlacer(lgr.Zerolog())
	orderStore := internalrepo.NewCacheOrderStateStore(cache)
	engine := execution.NewEngine(execution.Config{
		MaxSlippage:          cfg.Execution.MaxSlippage,
		MinExecutionInterval: cfg.Execution.MinExecutionInterval,
	}, placer, lgr.Zerolog(), execution.WithOrderStore(orderStore))

	open, err := orderStore.LoadOpenOrders(context.Background())
	if err != nil {
		zl := lgr.Zerolog()
		zl.Warn().Err(err).Msg("open order restore failed")
		return engine
	}
	engine.Restore(open)
	return engine
}

// ProvidePipeline assembles the per-asset processing pipeline.
func ProvidePipeline(
	cfg *config.Config,
	source repository.MarketDataSource,
	snapshots repository.SnapshotStore,
	store *internalrepo.MarketStore,
	publisher repository.SignalPublisher,
	analyzer *technical.Analyzer,
	generator *signal.Generator,
	scorer *risk.Scorer,
	narr repository.Narrator,
	engine *execution.Engine,
	notifier repository.Notifier,
	m repository.Metrics,
	lgr *applogger.Logger,
) *usecase.Pipeline {
	var exec usecase.TradeExecutor
	if engine != nil {
		exec = engine
	}
	return usecase.NewPipeline(
		usecase.PipelineConfig{
			LookbackHours:    cfg.Pipeline.LookbackHours,
			ExecutionEnabled: cfg.Execution.Enabled && engine != nil,
		},
		source, snapshots, store, store, publisher,
		analyzer, generator, scorer, narr, exec, notifier,
		m, lgr.Zerolog(),
	)
}

// ProvideCollector creates the polling collector.
func ProvideCollector(
	cfg *config.Config,
	pipe *usecase.Pipeline,
	stream repository.PriceStream,
	sink usecase.TickSink,
	m repository.Metrics,
	lgr *applogger.Logger,
) *usecase.Collector {
	return usecase.NewCollector(usecase.CollectorConfig{
		Assets:      cfg.Pipeline.Assets,
		Interval:    cfg.Pipeline.Interval,
		Concurrency: cfg.Pipeline.Concurrency,
	}, pipe, stream, sink, m, lgr.Zerolog())
}

// ProvideHTTPHandler creates the read API handler.
func ProvideHTTPHandler(
	lgr *applogger.Logger,
	snapshots repository.SnapshotStore,
	store *internalrepo.MarketStore,
	engine *execution.Engine,
) xhttp.Handler {
	var book api.OrderBook
	if engine != nil {
		book = engine
	}
	return api.NewMarketHandler(lgr, snapshots, store, store, book)
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	lgr *applogger.Logger,
	collector *usecase.Collector,
	ticks *mid.TickPipeline,
	publisher repository.SignalPublisher,
	rq *pkgqueue.RedisQueue,
	chClient *pkgch.Client,
	handler xhttp.Handler,
) *server.App {
	// Aggregated error logs ride the same queue as execution events.
	if rq != nil {
		lgr.AddCollector(&applogger.CollectionConfig{
			TimeInterval:   30 * time.Second,
			CountThreshold: 100,
			Topic:          "logs.aggregated",
			Publisher:      rq,
		})
	}
	return server.New(cfg, lgr, collector, ticks, publisher, rq, chClient, handler)
}
