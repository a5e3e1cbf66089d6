package catalog

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/TemirB/b2b-storefront/internal/cache"
	"github.com/TemirB/b2b-storefront/internal/domain"
	"github.com/TemirB/b2b-storefront/internal/observability"
)

const (
	DefaultCacheSize      = 100
	DefaultCacheTTL       = 5 * time.Minute
	DefaultPreloadTimeout = 10 * time.Second
)

// Service serves catalog pages through a short-lived cache keyed by the full
// normalized query. Identical concurrent misses each query the store.
type Service struct {
	repo           domain.ProductRepository
	cache          *cache.Cache[string, domain.ProductsResult]
	logger         *zap.Logger
	metrics        observability.Metrics
	preloadTimeout time.Duration

	preloads sync.WaitGroup
}

func NewService(
	repo domain.ProductRepository,
	c *cache.Cache[string, domain.ProductsResult],
	logger *zap.Logger,
	metrics observability.Metrics,
	preloadTimeout time.Duration,
) *Service {
	if preloadTimeout <= 0 {
		preloadTimeout = DefaultPreloadTimeout
	}
	return &Service{
		repo:           repo,
		cache:          c,
		logger:         logger,
		metrics:        metrics,
		preloadTimeout: preloadTimeout,
	}
}

func (s *Service) GetPage(ctx context.Context, q domain.ProductsQuery) (domain.ProductsResult, error) {
	res, _, err := s.GetPageWithStats(ctx, q)
	return res, err
}

func (s *Service) GetPageWithStats(ctx context.Context, q domain.ProductsQuery) (domain.ProductsResult, LookupStats, error) {
	var st LookupStats

	if err := q.Validate(); err != nil {
		return domain.ProductsResult{}, st, err
	}
	q = q.Normalize()
	key := q.Key()

	tCacheStart := time.Now()
	if res, ok := s.cache.Get(key); ok {
		st.Source = SourceCache
		st.CacheMs = convertToMs(tCacheStart)
		s.metrics.IncCacheHit(observability.CacheCatalog)
		s.metrics.ObserveLookup(string(st.Source), st.CacheMs, 0)

		s.logger.Debug("Catalog page served from cache",
			zap.String("key", key),
			zap.Float64("cache_ms", st.CacheMs),
		)
		return res, st, nil
	}
	s.metrics.IncCacheMiss(observability.CacheCatalog)
	st.CacheMs = convertToMs(tCacheStart)

	tStoreStart := time.Now()
	res, err := s.fetch(ctx, q)
	if err != nil {
		s.logger.Error("Can't fetch catalog page",
			zap.String("key", key),
			zap.Error(err),
			zap.Float64("cache_ms", st.CacheMs),
		)
		return domain.ProductsResult{}, st, err
	}
	st.Source = SourceStore
	st.StoreMs = convertToMs(tStoreStart)

	s.cache.Set(key, res)

	s.metrics.ObserveLookup(string(st.Source), st.CacheMs, st.StoreMs)
	s.logger.Info("Catalog page fetched from store",
		zap.Int("items", len(res.Items)),
		zap.Bool("has_more", res.HasMore),
		zap.Float64("cache_ms", st.CacheMs),
		zap.Float64("store_ms", st.StoreMs),
	)
	return res, st, nil
}

// fetch asks the store for one row more than the page holds; the extra row
// only proves that another page exists and is never filtered or returned.
func (s *Service) fetch(ctx context.Context, q domain.ProductsQuery) (domain.ProductsResult, error) {
	after, err := positionFor(q.Cursor, q)
	if err != nil {
		return domain.ProductsResult{}, err
	}

	f := q.Filters
	rows, err := s.repo.Find(ctx, domain.StoreQuery{
		Status:        f.Status,
		Visibility:    f.Visibility,
		Category:      f.Category,
		Brand:         f.Brand,
		Featured:      f.Featured,
		InStock:       f.InStock,
		SortBy:        q.SortBy,
		SortDirection: q.SortDirection,
		After:         after,
		Limit:         q.Limit + 1,
	})
	if err != nil {
		return domain.ProductsResult{}, fmt.Errorf("find products: %w", err)
	}

	var res domain.ProductsResult
	if len(rows) > q.Limit {
		rows = rows[:q.Limit]
		res.HasMore = true
		res.NextCursor, err = cursorAfter(rows[len(rows)-1], q)
		if err != nil {
			return domain.ProductsResult{}, err
		}
	}

	res.Items = applyClientFilters(rows, q)
	if res.Items == nil {
		res.Items = []domain.Product{}
	}
	res.Total = len(res.Items)
	return res, nil
}

// PreloadNextPage warms the cache with the page after cursor. It returns at
// once; failures are logged and dropped.
func (s *Service) PreloadNextPage(q domain.ProductsQuery, cursor string) {
	if cursor == "" {
		return
	}
	q.Cursor = cursor

	s.preloads.Add(1)
	go func() {
		defer s.preloads.Done()

		ctx, cancel := context.WithTimeout(context.Background(), s.preloadTimeout)
		defer cancel()

		if _, err := s.GetPage(ctx, q); err != nil {
			s.logger.Warn("Preloading next catalog page failed", zap.Error(err))
		}
	}()
}

// Wait blocks until background preloads have finished.
func (s *Service) Wait() {
	s.preloads.Wait()
}

// Invalidate drops every cached page.
func (s *Service) Invalidate() {
	n := s.cache.Len()
	s.cache.Purge()
	s.logger.Info("Catalog cache invalidated", zap.Int("pages", n))
}
