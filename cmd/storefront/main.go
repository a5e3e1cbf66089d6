package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/TemirB/b2b-storefront/internal/cache"
	"github.com/TemirB/b2b-storefront/internal/cart"
	"github.com/TemirB/b2b-storefront/internal/cartstore"
	"github.com/TemirB/b2b-storefront/internal/catalog"
	"github.com/TemirB/b2b-storefront/internal/config"
	"github.com/TemirB/b2b-storefront/internal/database"
	"github.com/TemirB/b2b-storefront/internal/domain"
	"github.com/TemirB/b2b-storefront/internal/httpapi"
	"github.com/TemirB/b2b-storefront/internal/kafka"
	"github.com/TemirB/b2b-storefront/internal/observability"
	"github.com/TemirB/b2b-storefront/internal/pkg/breaker"
	"github.com/TemirB/b2b-storefront/internal/pkg/pool"
	"github.com/TemirB/b2b-storefront/internal/pricing"
)

const demoCatalogSize = 250

func main() {
	cfg := config.Load()

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatal("Storefront stopped", zap.Error(err))
	}
	logger.Info("Storefront stopped")
}

func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}
	zcfg := zap.NewProductionConfig()
	zcfg.Level = lvl
	return zcfg.Build()
}

func run(ctx context.Context, cfg config.Config, logger *zap.Logger) error {
	metrics := observability.NewPrometheus()

	priceCache, err := cache.New[domain.PriceKey, domain.PriceBreakdown](cfg.Pricing.CacheSize, cfg.Pricing.CacheTTL)
	if err != nil {
		return fmt.Errorf("price cache: %w", err)
	}
	pageCache, err := cache.New[string, domain.ProductsResult](cfg.Catalog.CacheSize, cfg.Catalog.CacheTTL)
	if err != nil {
		return fmt.Errorf("catalog cache: %w", err)
	}

	queue := pool.New(cfg.Pricing.Concurrency)
	defer queue.Close()

	prices := pricing.NewService(newOracle(cfg, logger), queue, priceCache, logger, metrics)

	var (
		repo  domain.ProductRepository
		store cart.Store
	)
	switch cfg.StoreMode {
	case config.StorePostgres:
		pg, err := database.Connect(ctx, cfg.DSN(), logger)
		if err != nil {
			return err
		}
		defer pg.Close()
		if err := database.Init(ctx, pg); err != nil {
			return fmt.Errorf("init schema: %w", err)
		}
		repo = database.NewProductRepo(pg)

		remote, stopEvents, err := newRemoteStore(ctx, cfg, database.NewCartRepo(pg), logger, metrics)
		if err != nil {
			return err
		}
		defer stopEvents()
		store = remote
	default:
		products := catalog.FakeProducts(demoCatalogSize, time.Now())
		repo = catalog.NewMemoryRepository(products...)
		store = cartstore.NewMemory(logger)
		logger.Info("Using in-memory stores", zap.Int("products", len(products)))
	}

	products := catalog.NewService(repo, pageCache, logger, metrics, cfg.Catalog.PreloadTimeout)
	defer products.Wait()

	carts := cart.NewManager(store, prices, logger)
	defer carts.Close()

	go sweepCaches(ctx, min(cfg.Pricing.CacheTTL, cfg.Catalog.CacheTTL), logger, priceCache.Cleanup, pageCache.Cleanup)

	server := httpapi.New(prices, products, carts, logger, metrics,
		httpapi.WithMetricsHandler(metrics.Handler()),
	)
	logger.Info("Storefront listening",
		zap.String("addr", cfg.HTTPAddr),
		zap.String("store_mode", cfg.StoreMode),
	)
	// Returns once in-flight requests have drained.
	return server.ListenAndServe(ctx, cfg.HTTPAddr)
}

func newOracle(cfg config.Config, logger *zap.Logger) pricing.Oracle {
	if cfg.Pricing.OracleURL == "" {
		logger.Info("No price oracle configured, serving base prices")
		return pricing.NoDiscount
	}
	client := &http.Client{Timeout: cfg.Pricing.OracleTimeout}
	return pricing.NewGuarded(
		pricing.NewHTTPOracle(cfg.Pricing.OracleURL, client),
		breaker.New(cfg.Breaker),
		cfg.Retry,
		cfg.Pricing.OracleTimeout,
		logger,
	)
}

// newRemoteStore wires the Postgres cart store to Kafka when brokers are
// configured. The returned func stops event processing.
func newRemoteStore(
	ctx context.Context,
	cfg config.Config,
	repo cartstore.CartRepository,
	logger *zap.Logger,
	metrics observability.Metrics,
) (*cartstore.Remote, func(), error) {
	if !cfg.KafkaEnabled() {
		logger.Warn("No Kafka brokers configured, cart changes stay local to this instance")
		return cartstore.NewRemote(repo, cartstore.NopPublisher{}, logger), func() {}, nil
	}

	if err := kafka.EnsureTopic(ctx, cfg.Kafka, 1, logger); err != nil {
		logger.Warn("Can't ensure Kafka topic", zap.Error(err))
	}

	publisher := kafka.NewPublisher(kafka.NewWriter(cfg.Kafka.Brokers, cfg.Kafka.Topic), logger)
	remote := cartstore.NewRemote(repo, publisher, logger)

	// Every instance has to see every event, so each reads in its own group.
	kcfg := cfg.Kafka
	kcfg.Group = fmt.Sprintf("%s-%s", kcfg.Group, uuid.NewString()[:8])
	reader := kafka.NewReader(kcfg)

	handler := cartstore.NewEventHandler(remote, breaker.New(cfg.Breaker), cfg.Retry, logger)
	consumer := kafka.NewConsumer(handler, reader, cfg.Kafka.Workers, logger, metrics)

	consumerCtx, cancel := context.WithCancel(ctx)
	go consumer.Start(consumerCtx)

	stop := func() {
		cancel()
		<-consumer.Done()
		if err := reader.Close(); err != nil {
			logger.Warn("Kafka reader close failed", zap.Error(err))
		}
		if err := publisher.Close(); err != nil {
			logger.Warn("Kafka writer close failed", zap.Error(err))
		}
	}
	return remote, stop, nil
}

// sweepCaches drops expired cache entries every interval until ctx ends.
func sweepCaches(ctx context.Context, interval time.Duration, logger *zap.Logger, sweeps ...func() int) {
	if interval <= 0 {
		return
	}
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			n := 0
			for _, sweep := range sweeps {
				n += sweep()
			}
			if n > 0 {
				logger.Debug("Expired cache entries dropped", zap.Int("entries", n))
			}
		}
	}
}
