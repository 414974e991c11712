package di

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"GammaPull/internal/domain/models"
	"GammaPull/internal/domain/repository"
	"GammaPull/internal/handler/api"
	chrepo "GammaPull/internal/repository/clickhouse"
	kafkarepo "GammaPull/internal/repository/kafka"
	"GammaPull/internal/services/polygon"
	"GammaPull/internal/services/stream"
	"GammaPull/internal/services/wyckoff"
	"GammaPull/internal/usecase"
	"GammaPull/pkg/cache"
	pkgch "GammaPull/pkg/clickhouse"
	"GammaPull/pkg/config"
	xhttp "GammaPull/pkg/http"
	pkgkafka "GammaPull/pkg/kafka"
	applogger "GammaPull/pkg/logger"
	"GammaPull/pkg/metrics"
	"GammaPull/pkg/server"
)

// ProvideLogger creates the application logger.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	level := cfg.Logging.Level
	if level == "" {
		level = "info"
	}
	format := cfg.Logging.Format
	if format == "" {
		format = "console"
	}
	output := cfg.Logging.Output
	if output == "" {
		output = "stdout"
	}
	return applogger.New(&applogger.Config{Level: level, Format: format, Output: output})
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvideClickHouseClient creates a ClickHouse client and applies the
// schema.
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

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := client.InitSchema(ctx, chrepo.SchemaStatements); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}
	return client, nil
}

// ProvideBarStore creates the ClickHouse bar store.
func ProvideBarStore(client *pkgch.Client) repository.BarStore {
	return chrepo.NewBarStore(client)
}

// ProvideDealerStore creates the ClickHouse dealer metrics store.
func ProvideDealerStore(client *pkgch.Client) repository.DealerStore {
	return chrepo.NewDealerStore(client)
}

// ProvideStructureStore creates the ClickHouse structure store.
func ProvideStructureStore(client *pkgch.Client) repository.StructureStore {
	return chrepo.NewStructureStore(client)
}

// ProvidePublisher creates the Kafka publisher, or a no-op when Kafka is
// disabled.
func ProvidePublisher(cfg *config.Config) (repository.Publisher, error) {
	if !cfg.Kafka.Enabled {
		return kafkarepo.NopPublisher{}, nil
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
	return kafkarepo.NewPublisher(producer, cfg.Kafka.Topic), nil
}

// ProvidePolygonClient creates the Polygon REST client.
func ProvidePolygonClient(cfg *config.Config, log *applogger.Logger) (*polygon.Client, error) {
	return polygon.NewClient(polygon.Config{
		APIKey:     cfg.Polygon.APIKey,
		BaseURL:    cfg.Polygon.BaseURL,
		Timeout:    cfg.Polygon.Timeout,
		MaxRetries: cfg.Polygon.MaxRetries,
		RetryDelay: cfg.Polygon.RetryDelay,
	}, log)
}

// ProvideBarProvider exposes the Polygon client as a bar provider.
func ProvideBarProvider(client *polygon.Client) repository.BarProvider {
	return client
}

// ProvideChainProvider exposes the Polygon client as a chain provider.
func ProvideChainProvider(client *polygon.Client) repository.ChainProvider {
	return client
}

// ProvideSpotProvider exposes the Polygon client as a spot provider.
func ProvideSpotProvider(client *polygon.Client) repository.SpotProvider {
	return client
}

// ProvideStreamFeed creates the websocket feed, or nil when disabled.
func ProvideStreamFeed(cfg *config.Config, log *applogger.Logger) (*stream.Feed, error) {
	if !cfg.Stream.Enabled {
		return nil, nil
	}
	return stream.NewFeed(stream.Config{
		WebSocketURL:   cfg.Stream.WebSocketURL,
		APIKey:         cfg.Polygon.APIKey,
		Tickers:        cfg.Scan.Tickers,
		ReconnectDelay: cfg.Stream.ReconnectDelay,
		PingInterval:   cfg.Stream.PingInterval,
	}, log)
}

// ProvideLastTradeSource adapts the feed for spot resolution. A disabled
// feed yields a nil interface so the rung is skipped cleanly.
func ProvideLastTradeSource(feed *stream.Feed) usecase.LastTradeSource {
	if feed == nil {
		return nil
	}
	return feed
}

// ProvideSnapshotAnalyzer creates the dealer positioning use case.
func ProvideSnapshotAnalyzer(
	cfg *config.Config,
	chains repository.ChainProvider,
	spots repository.SpotProvider,
	lastTrades usecase.LastTradeSource,
	store repository.DealerStore,
	pub repository.Publisher,
	m repository.Metrics,
	log *applogger.Logger,
) (*usecase.SnapshotAnalyzer, error) {
	elig := models.DefaultEligibilityConfig()
	if e := cfg.Analysis.Eligibility; e.MaxDTE > 0 {
		elig = models.EligibilityConfig{
			MaxDTE:          e.MaxDTE,
			MinOpenInterest: e.MinOpenInterest,
			MinVolume:       e.MinVolume,
			MaxMoneyness:    e.MaxMoneyness,
			WallCount:       e.WallCount,
		}
	}
	return usecase.NewSnapshotAnalyzer(chains, spots, lastTrades, store, pub, m, log, elig)
}

// ProvideStructureAnalyzer creates the Wyckoff use case.
func ProvideStructureAnalyzer(
	cfg *config.Config,
	bars repository.BarProvider,
	barStore repository.BarStore,
	structStore repository.StructureStore,
	pub repository.Publisher,
	m repository.Metrics,
	log *applogger.Logger,
) (*usecase.StructureAnalyzer, error) {
	detCfg := wyckoff.DefaultDetectorConfig()
	if w := cfg.Analysis.Wyckoff; w.BaselineBars > 0 {
		detCfg = w
	}
	seqCfg := wyckoff.DefaultSequenceConfig()
	if s := cfg.Analysis.Sequence; s.SpringToTestMaxBars > 0 {
		seqCfg = s
	}
	return usecase.NewStructureAnalyzer(bars, barStore, structStore, pub, m, log,
		detCfg, seqCfg, cfg.Scan.HistoryDays)
}

// ProvideScanRunner creates the batch scan driver.
func ProvideScanRunner(
	cfg *config.Config,
	snapshots *usecase.SnapshotAnalyzer,
	structure *usecase.StructureAnalyzer,
	m repository.Metrics,
	log *applogger.Logger,
) (*usecase.ScanRunner, error) {
	return usecase.NewScanRunner(snapshots, structure, m, log,
		cfg.Scan.Tickers, cfg.Scan.Workers, cfg.Scan.Interval)
}

// ProvideCache creates the response cache: layered over Redis when
// enabled, in-memory otherwise.
func ProvideCache(cfg *config.Config) (cache.Service, error) {
	if !cfg.Analysis.Redis.Enabled {
		return cache.NewMemoryCache(), nil
	}

	host, port := cfg.Analysis.Redis.Addr, 6379
	if h, p, ok := strings.Cut(cfg.Analysis.Redis.Addr, ":"); ok {
		host = h
		if n, err := strconv.Atoi(p); err == nil {
			port = n
		}
	}
	redisCache, err := cache.NewRedisCache(
		cache.WithRedisHost(host),
		cache.WithRedisPort(port),
		cache.WithRedisPassword(cfg.Analysis.Redis.Password),
		cache.WithRedisDB(cfg.Analysis.Redis.DB),
	)
	if err != nil {
		return nil, fmt.Errorf("redis cache: %w", err)
	}
	return cache.NewLayeredCache(redisCache), nil
}

// ProvideHTTPHandler creates the read API handler.
func ProvideHTTPHandler(
	cfg *config.Config,
	dealer repository.DealerStore,
	structure repository.StructureStore,
	bars repository.BarStore,
	c cache.Service,
	log *applogger.Logger,
) xhttp.Handler {
	ttl := api.CacheTTL{
		Dealer:    cfg.Analysis.CacheTTL.Dealer,
		Regime:    cfg.Analysis.CacheTTL.Regime,
		Events:    cfg.Analysis.CacheTTL.Events,
		Sequences: cfg.Analysis.CacheTTL.Sequences,
	}
	return api.NewAnalysisHandler(dealer, structure, bars, c, ttl, log)
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	runner *usecase.ScanRunner,
	feed *stream.Feed,
	handler xhttp.Handler,
	chClient *pkgch.Client,
	pub repository.Publisher,
	log *applogger.Logger,
) *server.App {
	return server.New(cfg, runner, feed, handler, chClient, pub, log)
}
