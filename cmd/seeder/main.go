package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/TemirB/b2b-storefront/internal/catalog"
	"github.com/TemirB/b2b-storefront/internal/config"
	"github.com/TemirB/b2b-storefront/internal/database"
)

func main() {
	count := flag.Int("n", 1000, "number of products to generate")
	batch := flag.Int("batch", 200, "products per transaction")
	flag.Parse()

	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pg, err := database.Connect(ctx, cfg.DSN(), logger)
	if err != nil {
		logger.Fatal("Failed to connect to Postgres", zap.Error(err))
	}
	defer pg.Close()

	if err := database.Init(ctx, pg); err != nil {
		logger.Fatal("Failed to init schema", zap.Error(err))
	}

	repo := database.NewProductRepo(pg)
	products := catalog.FakeProducts(*count, time.Now())
	size := max(*batch, 1)

	start := time.Now()
	for i := 0; i < len(products); i += size {
		end := min(i+size, len(products))
		if err := repo.Upsert(ctx, products[i:end]); err != nil {
			logger.Fatal("Failed to upsert products",
				zap.Int("offset", i),
				zap.Error(err),
			)
		}
		logger.Debug("Batch written", zap.Int("offset", i), zap.Int("size", end-i))
	}

	logger.Info("Catalog seeded",
		zap.Int("products", len(products)),
		zap.Duration("took", time.Since(start)),
	)
}
