package pricing

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/TemirB/b2b-storefront/internal/cache"
	"github.com/TemirB/b2b-storefront/internal/domain"
	"github.com/TemirB/b2b-storefront/internal/observability"
)

// Queue bounds how many oracle calls run at once. *pool.Pool implements it.
type Queue interface {
	Do(ctx context.Context, fn func(context.Context) error) error
}

type Stats struct {
	Size     int    `json:"size"`
	Capacity int    `json:"capacity"`
	InFlight int64  `json:"in_flight"`
	Hits     uint64 `json:"hits"`
	Misses   uint64 `json:"misses"`
}

// Service memoizes oracle prices per (product, customer, quantity, base
// price). Concurrent callers asking for the same key share one oracle call.
type Service struct {
	oracle  Oracle
	queue   Queue
	cache   *cache.Cache[domain.PriceKey, domain.PriceBreakdown]
	logger  *zap.Logger
	metrics observability.Metrics

	// mu guards group, epoch and flights. epoch grows on ClearAllCache; a
	// targeted clear marks the matching flights stale instead. A computation
	// only stores its result if neither happened since it started.
	mu      sync.Mutex
	group   *singleflight.Group
	epoch   uint64
	flights map[*flight]struct{}

	inflight atomic.Int64
	hits     atomic.Uint64
	misses   atomic.Uint64
}

func NewService(
	oracle Oracle,
	queue Queue,
	c *cache.Cache[domain.PriceKey, domain.PriceBreakdown],
	logger *zap.Logger,
	metrics observability.Metrics,
) *Service {
	return &Service{
		oracle:  oracle,
		queue:   queue,
		cache:   c,
		logger:  logger,
		metrics: metrics,
		group:   &singleflight.Group{},
		flights: make(map[*flight]struct{}),
	}
}

type flight struct {
	key   domain.PriceKey
	stale bool
}

// CalculatePrice returns the breakdown for params. An oracle failure yields
// the undiscounted base price and is not cached; errors are only returned for
// invalid params or when ctx ends before the result is ready.
func (s *Service) CalculatePrice(ctx context.Context, params domain.PriceParams) (domain.PriceBreakdown, error) {
	if err := params.Validate(); err != nil {
		return domain.PriceBreakdown{}, err
	}
	key := params.Key()

	if b, ok := s.cache.Get(key); ok {
		s.hits.Add(1)
		s.metrics.IncCacheHit(observability.CachePrices)
		return b, nil
	}
	s.misses.Add(1)
	s.metrics.IncCacheMiss(observability.CachePrices)

	s.mu.Lock()
	group, epoch := s.group, s.epoch
	s.mu.Unlock()

	// The computation must outlive the caller that happened to start it.
	detached := context.WithoutCancel(ctx)
	ch := group.DoChan(flightKey(key), func() (any, error) {
		return s.compute(detached, params, epoch), nil
	})

	select {
	case res := <-ch:
		return res.Val.(domain.PriceBreakdown), nil
	case <-ctx.Done():
		return domain.PriceBreakdown{}, ctx.Err()
	}
}

func (s *Service) compute(ctx context.Context, params domain.PriceParams, epoch uint64) domain.PriceBreakdown {
	s.inflight.Add(1)
	defer s.inflight.Add(-1)

	key := params.Key()
	f := &flight{key: key}
	s.mu.Lock()
	s.flights[f] = struct{}{}
	s.mu.Unlock()

	// A flight that finished between our cache miss and DoChan already stored it.
	if b, ok := s.cache.Get(key); ok {
		s.untrack(f)
		return b
	}

	var result domain.PriceBreakdown
	t0 := time.Now()
	err := s.queue.Do(ctx, func(ctx context.Context) error {
		b, err := s.oracle.CalculatePrice(ctx, params)
		if err != nil {
			return err
		}
		result = b
		return nil
	})
	oracleMs := convertToMs(t0)
	s.metrics.ObserveOracle(oracleMs, err == nil)

	if err != nil {
		s.untrack(f)
		s.logger.Warn("Price oracle failed, using base price",
			zap.Stringer("key", key),
			zap.Float64("oracle_ms", oracleMs),
			zap.Error(err),
		)
		return domain.BasePriceBreakdown(params.BasePrice)
	}

	s.mu.Lock()
	delete(s.flights, f)
	if s.epoch == epoch && !f.stale {
		s.cache.Set(key, result)
	}
	s.mu.Unlock()

	s.logger.Debug("Price computed",
		zap.Stringer("key", key),
		zap.String("price", result.Price.String()),
		zap.Float64("oracle_ms", oracleMs),
	)
	return result
}

// CalculatePricesBatch prices every element concurrently. Output order
// matches input order.
func (s *Service) CalculatePricesBatch(ctx context.Context, params []domain.PriceParams) ([]domain.PriceBreakdown, error) {
	out := make([]domain.PriceBreakdown, len(params))
	g, gctx := errgroup.WithContext(ctx)
	for i, p := range params {
		g.Go(func() error {
			b, err := s.CalculatePrice(gctx, p)
			if err != nil {
				return fmt.Errorf("item %d: %w", i, err)
			}
			out[i] = b
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// Precompute warms the cache in the background. Failures are logged only.
func (s *Service) Precompute(ctx context.Context, params []domain.PriceParams) {
	if len(params) == 0 {
		return
	}
	go func() {
		if _, err := s.CalculatePricesBatch(ctx, params); err != nil {
			s.logger.Warn("Price precompute failed",
				zap.Int("count", len(params)),
				zap.Error(err),
			)
			return
		}
		s.logger.Debug("Prices precomputed", zap.Int("count", len(params)))
	}()
}

// ClearCustomerCache drops every entry priced for customerID. An empty id
// targets anonymous prices.
func (s *Service) ClearCustomerCache(customerID string) int {
	return s.clear(func(k domain.PriceKey) bool { return k.CustomerID == customerID })
}

func (s *Service) ClearProductCache(productID string) int {
	return s.clear(func(k domain.PriceKey) bool { return k.ProductID == productID })
}

func (s *Service) untrack(f *flight) {
	s.mu.Lock()
	delete(s.flights, f)
	s.mu.Unlock()
}

func (s *Service) clear(pred func(domain.PriceKey) bool) int {
	s.mu.Lock()
	for f := range s.flights {
		if pred(f.key) {
			f.stale = true
		}
	}
	n := s.cache.DeleteFunc(pred)
	s.mu.Unlock()

	s.logger.Info("Price cache entries cleared", zap.Int("removed", n))
	return n
}

// ClearAllCache empties the cache and forgets in-flight computations. Callers
// already waiting on one still get its result; new callers start afresh.
func (s *Service) ClearAllCache() {
	s.mu.Lock()
	s.epoch++
	s.group = &singleflight.Group{}
	s.cache.Purge()
	s.mu.Unlock()

	s.logger.Info("Price cache purged")
}

func (s *Service) Stats() Stats {
	return Stats{
		Size:     s.cache.Len(),
		Capacity: s.cache.Cap(),
		InFlight: s.inflight.Load(),
		Hits:     s.hits.Load(),
		Misses:   s.misses.Load(),
	}
}

func flightKey(k domain.PriceKey) string {
	return fmt.Sprintf("%q|%q|%d|%s", k.ProductID, k.CustomerID, k.Quantity, k.BasePrice)
}

func convertToMs(t time.Time) float64 {
	return float64(time.Since(t).Microseconds()) / 1000.0
}
